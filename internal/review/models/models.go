// Package models holds the review domain records shared by stores, the
// engine, and transports. The engine never inspects submission payloads;
// they travel through as raw JSON.
package models

import (
	"encoding/json"
	"time"

	dErrors "concord/pkg/domain-errors"
)

// Scope partitions reviewers, submissions, and quorum math. A reviewer
// registered under one scope has no standing in another.
type Scope struct {
	Region string
	Module string
}

// Key returns the storage key form of the scope.
func (s Scope) Key() string {
	return s.Region + "/" + s.Module
}

// Validate rejects scopes with empty components before they reach a store.
func (s Scope) Validate() error {
	if s.Region == "" {
		return dErrors.New(dErrors.CodeBadRequest, "region must not be empty")
	}
	if s.Module == "" {
		return dErrors.New(dErrors.CodeBadRequest, "module must not be empty")
	}
	return nil
}

// Status is the submission lifecycle state. Pending is the only initial
// state; approved and rejected are terminal.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Terminal reports whether the status permits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// ParseStatus constructs a Status from external input.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusApproved, StatusRejected:
		return Status(s), nil
	}
	return "", dErrors.New(dErrors.CodeBadRequest, "invalid status: "+s)
}

// Decision is the direction of a single vote.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// Submission is one item awaiting (or done with) community review. Region
// and Module never change after creation.
type Submission struct {
	ID        string          `json:"id"`
	Region    string          `json:"region"`
	Module    string          `json:"module"`
	Payload   json.RawMessage `json:"payload"`
	Status    Status          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}

// Scope returns the partition the submission belongs to.
func (s *Submission) Scope() Scope {
	return Scope{Region: s.Region, Module: s.Module}
}

// Vote is one reviewer's current decision on a submission. A reviewer has
// at most one live vote per submission; casting again overwrites it.
type Vote struct {
	SubmissionID string    `json:"submission_id"`
	ReviewerID   string    `json:"reviewer_id"`
	Decision     Decision  `json:"decision"`
	CastAt       time.Time `json:"cast_at"`
}

// Tally counts distinct reviewers currently voting each way. Only reviewers
// in the eligible set at tally time contribute.
type Tally struct {
	Approve int `json:"approve"`
	Reject  int `json:"reject"`
}

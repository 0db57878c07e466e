// Package audit records what happened to each submission: creation, every
// vote, and the finalization outcome. Downstream collaborators (reward
// crediting, notifications) consume these events instead of being called by
// the engine directly.
package audit

import (
	"context"
	"time"
)

// Action identifies what an event describes.
type Action string

const (
	ActionSubmissionCreated   Action = "submission_created"
	ActionVoteCast            Action = "vote_cast"
	ActionSubmissionFinalized Action = "submission_finalized"
)

// Event is emitted from the review engine to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp    time.Time `json:"timestamp"`
	Action       Action    `json:"action"`
	Region       string    `json:"region"`
	Module       string    `json:"module"`
	SubmissionID string    `json:"submission_id"`
	ReviewerID   string    `json:"reviewer_id,omitempty"`
	Decision     string    `json:"decision,omitempty"`
	Status       string    `json:"status,omitempty"`
}

// Store is an append-only event sink with per-submission reads.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListBySubmission(ctx context.Context, submissionID string) ([]Event, error)
}

// Sink receives a copy of every emitted event, typically to hand it to an
// external system such as Kafka.
type Sink interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

package handler

import "encoding/json"

// SubmitRequest creates a submission. The payload is opaque application
// content (an event, a deal, a notice); the engine never inspects it.
type SubmitRequest struct {
	Region  string          `json:"region"`
	Payload json.RawMessage `json:"payload"`
}

// VoteRequest casts or overwrites a reviewer's vote.
type VoteRequest struct {
	ReviewerID string `json:"reviewer_id"`
	Approve    bool   `json:"approve"`
}

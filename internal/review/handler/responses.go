package handler

import "concord/internal/review/models"

type submissionListResponse struct {
	Submissions []*models.Submission `json:"submissions"`
}

type reviewersResponse struct {
	Region       string   `json:"region"`
	Module       string   `json:"module"`
	Reviewers    []string `json:"reviewers"`
	Count        int      `json:"count"`
	QuorumNeeded int      `json:"quorum_needed"`
}

type finalizeResponse struct {
	Finalized  bool               `json:"finalized"`
	Submission *models.Submission `json:"submission,omitempty"`
}

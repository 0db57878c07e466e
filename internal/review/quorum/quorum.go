// Package quorum computes how many same-direction votes finalize a
// submission. The math is pure; callers supply the live reviewer count.
package quorum

import (
	"math"

	"concord/internal/review/models"
)

// DefaultRatio is the fraction of registered reviewers that must agree.
const DefaultRatio = 0.8

// Calculator derives the quorum threshold from a reviewer-pool size.
// TieBreak decides the outcome when both directions reach quorum in the
// same check, which the default ratio makes impossible for n ≥ 1 but is
// handled defensively.
type Calculator struct {
	Ratio    float64
	TieBreak models.Decision
}

// New returns a Calculator with the default 80% ratio and approve-wins
// tie-break.
func New() Calculator {
	return Calculator{Ratio: DefaultRatio, TieBreak: models.DecisionApprove}
}

// Needed returns the number of same-direction votes required for a pool of
// n reviewers: ceil(ratio·n), floored at 1. An empty pool yields 1, so a
// scope with no reviewers can never auto-approve; its submissions stay
// pending until reviewers register.
func (c Calculator) Needed(n int) int {
	if n <= 0 {
		return 1
	}
	ratio := c.Ratio
	if ratio <= 0 {
		ratio = DefaultRatio
	}
	needed := int(math.Ceil(ratio * float64(n)))
	if needed < 1 {
		needed = 1
	}
	return needed
}

// Resolve applies the quorum threshold to a tally and returns the terminal
// status, or ok=false while neither side has reached quorum.
func (c Calculator) Resolve(tally models.Tally, needed int) (models.Status, bool) {
	approveMet := tally.Approve >= needed
	rejectMet := tally.Reject >= needed

	switch {
	case approveMet && rejectMet:
		if c.TieBreak == models.DecisionReject {
			return models.StatusRejected, true
		}
		return models.StatusApproved, true
	case approveMet:
		return models.StatusApproved, true
	case rejectMet:
		return models.StatusRejected, true
	}
	return "", false
}

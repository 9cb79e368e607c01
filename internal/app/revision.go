package app

import (
	"math"
	"time"

	"intraprep/pkg/domain"
)

// Revision bucket boundaries in days since the solve.
const (
	masteredMaxDays   = 3
	reviewSoonMaxDays = 7
)

// ClassifyRevision buckets a solved question by how long ago it was solved.
// Elapsed days round up, so anything past an exact multiple of 24h counts
// as the next day. A zero solvedAt (never solved) yields nil.
func ClassifyRevision(solvedAt, now time.Time) *domain.RevisionStatus {
	if solvedAt.IsZero() {
		return nil
	}
	days := int(math.Ceil(now.Sub(solvedAt).Hours() / 24))
	switch {
	case days <= masteredMaxDays:
		return &domain.RevisionStatus{Label: "Mastered", Tone: "green"}
	case days <= reviewSoonMaxDays:
		return &domain.RevisionStatus{Label: "Review Soon", Tone: "yellow"}
	default:
		return &domain.RevisionStatus{Label: "Revision Due", Tone: "red"}
	}
}

package app

import (
	"fmt"
	"time"

	"intraprep/pkg/domain"
)

// Streak computes the user's consecutive-day solve streak. A day counts
// once regardless of how many questions were solved; the walk starts at
// today when the user solved today, otherwise at yesterday, so a streak is
// not broken before the day is over.
func (a *App) Streak(userID string) (domain.Streak, error) {
	progress, err := a.store.ListProgress(userID)
	if err != nil {
		return domain.Streak{}, fmt.Errorf("list progress: %w", err)
	}
	return computeStreak(progress, a.now(), a.loc), nil
}

func computeStreak(progress []domain.QuestionProgress, now time.Time, loc *time.Location) domain.Streak {
	days := make(map[string]bool, len(progress))
	for _, p := range progress {
		if p.SolvedAt.IsZero() {
			continue
		}
		days[p.SolvedAt.In(loc).Format("2006-01-02")] = true
	}
	if len(days) == 0 {
		return domain.Streak{}
	}

	today := now.In(loc)
	solvedToday := days[today.Format("2006-01-02")]
	cursor := today
	if !solvedToday {
		cursor = cursor.AddDate(0, 0, -1)
	}

	streak := 0
	for days[cursor.Format("2006-01-02")] {
		streak++
		cursor = cursor.AddDate(0, 0, -1)
	}
	return domain.Streak{CurrentStreak: streak, HasSolvedToday: solvedToday}
}

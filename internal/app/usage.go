package app

import (
	"fmt"

	"intraprep/pkg/domain"
)

// UsageStatus reports one action's quota state for the current day.
type UsageStatus struct {
	Allowed bool   `json:"allowed"`
	Used    int    `json:"used"`
	Limit   int    `json:"limit"`
	Message string `json:"message,omitempty"`
}

// todayDate is the current calendar date at the configured day boundary.
func (a *App) todayDate() string {
	return a.now().In(a.loc).Format("2006-01-02")
}

// CheckDailyLimit reports whether the user may perform the action today.
// Read-only: it never consumes quota. A usage row dated before today counts
// as zero usage.
func (a *App) CheckDailyLimit(userID string, action domain.ActionType) (UsageStatus, error) {
	limit := a.quotas[action]
	if limit <= 0 {
		return UsageStatus{}, fmt.Errorf("unknown action type %q", action)
	}
	usage, found, err := a.store.GetDailyUsage(userID)
	if err != nil {
		return UsageStatus{}, fmt.Errorf("fetch usage: %w", err)
	}
	used := 0
	if found && usage.DateTracked == a.todayDate() {
		used = usage.Count(action)
	}
	status := UsageStatus{Used: used, Limit: limit, Allowed: used < limit}
	if !status.Allowed {
		status.Message = limitMessage(limit)
	}
	return status, nil
}

// IncrementUsage consumes one unit of today's quota. It is called only
// after the guarded action succeeded; ErrLimitExceeded means a concurrent
// request spent the last unit first.
func (a *App) IncrementUsage(userID string, action domain.ActionType) error {
	limit := a.quotas[action]
	if limit <= 0 {
		return fmt.Errorf("unknown action type %q", action)
	}
	ok, err := a.store.IncrementUsage(userID, a.todayDate(), action, limit)
	if err != nil {
		return fmt.Errorf("increment usage: %w", err)
	}
	if !ok {
		return ErrLimitExceeded
	}
	return nil
}

// UsageSummary reports today's quota state for every limited action.
func (a *App) UsageSummary(userID string) (map[domain.ActionType]UsageStatus, error) {
	res := make(map[domain.ActionType]UsageStatus, len(a.quotas))
	for action := range a.quotas {
		status, err := a.CheckDailyLimit(userID, action)
		if err != nil {
			return nil, err
		}
		res[action] = status
	}
	return res, nil
}

func limitMessage(limit int) string {
	return fmt.Sprintf("Daily limit reached (%d/%d). Try again tomorrow!", limit, limit)
}

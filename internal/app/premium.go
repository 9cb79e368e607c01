package app

import (
	"fmt"

	"intraprep/pkg/domain"
)

// JoinWaitlist puts the user on the premium waitlist. Joining twice is a
// successful no-op.
func (a *App) JoinWaitlist(userID string) error {
	entry := domain.WaitlistEntry{UserID: userID, JoinedAt: a.now()}
	if err := a.store.JoinWaitlist(entry); err != nil {
		return fmt.Errorf("join waitlist: %w", err)
	}
	return nil
}

// OnWaitlist reports whether the user already joined.
func (a *App) OnWaitlist(userID string) (bool, error) {
	on, err := a.store.OnWaitlist(userID)
	if err != nil {
		return false, fmt.Errorf("check waitlist: %w", err)
	}
	return on, nil
}

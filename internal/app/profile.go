package app

import (
	"context"
	"fmt"
	"strings"

	"intraprep/pkg/domain"
)

// GetProfile returns the user's profile; a never-saved profile comes back
// empty rather than as an error.
func (a *App) GetProfile(userID string) (domain.Profile, error) {
	profile, found, err := a.store.GetProfile(userID)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("fetch profile: %w", err)
	}
	if !found {
		return domain.Profile{UserID: userID}, nil
	}
	return profile, nil
}

// UpdateProfile validates and saves the full profile.
func (a *App) UpdateProfile(userID string, p domain.Profile) (domain.Profile, error) {
	p.UserID = userID
	p.Username = strings.TrimSpace(p.Username)
	p.TargetRole = strings.TrimSpace(p.TargetRole)
	if p.Username == "" {
		return domain.Profile{}, invalidInputf("username required")
	}
	if p.TargetRole == "" {
		return domain.Profile{}, invalidInputf("target role required")
	}
	if len(p.Skills) == 0 {
		return domain.Profile{}, invalidInputf("at least one skill required")
	}
	taken, err := a.store.UsernameTaken(p.Username, userID)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("check username: %w", err)
	}
	if taken {
		return domain.Profile{}, ErrUsernameTaken
	}

	// Keep an already linked coding username unless the caller changes it.
	existing, found, err := a.store.GetProfile(userID)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("fetch profile: %w", err)
	}
	if found && strings.TrimSpace(p.LeetCodeUsername) == "" {
		p.LeetCodeUsername = existing.LeetCodeUsername
	}

	if err := a.store.SaveProfile(p); err != nil {
		return domain.Profile{}, fmt.Errorf("save profile: %w", err)
	}
	return p, nil
}

// LinkLeetCode verifies the username exists on LeetCode and stores it.
func (a *App) LinkLeetCode(ctx context.Context, userID, username string) (domain.Profile, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return domain.Profile{}, invalidInputf("username required")
	}
	exists, err := a.coding.UserExists(ctx, username)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("verify username: %w", err)
	}
	if !exists {
		return domain.Profile{}, ErrLeetCodeUserNotFound
	}
	profile, _, err := a.store.GetProfile(userID)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("fetch profile: %w", err)
	}
	profile.UserID = userID
	profile.LeetCodeUsername = username
	if err := a.store.SaveProfile(profile); err != nil {
		return domain.Profile{}, fmt.Errorf("save profile: %w", err)
	}
	return profile, nil
}

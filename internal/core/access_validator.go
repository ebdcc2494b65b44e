package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/assessly-billing/internal/db"
)

type accessValidator struct {
	userRepo db.UserRepository
}

// NewAccessValidator creates an AccessValidator that checks the membership
// entries on the caller's user profile.
func NewAccessValidator(userRepo db.UserRepository) AccessValidator {
	return &accessValidator{userRepo: userRepo}
}

// ValidateAccess fails with ErrPermissionDenied unless userID's profile has an
// entry for orgID. A missing profile is treated the same as a missing entry.
func (v *accessValidator) ValidateAccess(ctx context.Context, orgID, userID string) error {
	if orgID == "" || userID == "" {
		return fmt.Errorf("%w: organization and user IDs are required", ErrPermissionDenied)
	}

	user, err := v.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return fmt.Errorf("%w: no profile for user '%s'", ErrPermissionDenied, userID)
		}
		return fmt.Errorf("failed to load profile for user '%s': %w", userID, err)
	}

	if _, ok := user.RoleIn(orgID); !ok {
		return fmt.Errorf("%w: user '%s' is not a member of organization '%s'", ErrPermissionDenied, userID, orgID)
	}
	return nil
}

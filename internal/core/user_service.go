package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/example/assessly-billing/internal/db"
	"github.com/example/assessly-billing/internal/models"
	"github.com/example/assessly-billing/internal/payments"
)

// NewUser is the verified identity of a caller initializing their profile.
type NewUser struct {
	ID          string
	Email       string
	DisplayName string
}

// userService implements the UserService interface.
type userService struct {
	userRepo db.UserRepository
	orgRepo  db.OrganizationRepository
	provider PaymentProvider
	claims   ClaimsSetter
	logger   *zap.Logger
}

// NewUserService creates a new UserService instance.
func NewUserService(
	userRepo db.UserRepository,
	orgRepo db.OrganizationRepository,
	provider PaymentProvider,
	claims ClaimsSetter,
	logger *zap.Logger,
) UserService {
	return &userService{
		userRepo: userRepo,
		orgRepo:  orgRepo,
		provider: provider,
		claims:   claims,
		logger:   logger,
	}
}

// InitializeProfile retrieves the caller's profile. If none exists it creates a
// payment customer, an organization owned by the caller on the free plan, and
// the profile with an admin role in that organization.
// Returns the user, a boolean indicating if anything was created, and an error if any.
func (s *userService) InitializeProfile(ctx context.Context, nu NewUser) (*models.User, bool, error) {
	if nu.ID == "" {
		return nil, false, ErrUnauthenticated
	}

	user, err := s.userRepo.GetByID(ctx, nu.ID)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return nil, false, fmt.Errorf("failed to get user by ID '%s' from repository: %w", nu.ID, err)
	}

	orgID := s.orgRepo.NewID()
	customerID, err := s.provider.CreateCustomer(ctx, payments.CustomerRequest{
		Email: nu.Email,
		Name:  nu.DisplayName,
		Metadata: map[string]string{
			payments.MetadataFirebaseUID: nu.ID,
			payments.MetadataOrgID:       orgID,
		},
	})
	if err != nil {
		s.logger.Error("Stripe customer creation failed", zap.String("uid", nu.ID), zap.Error(err))
		return nil, false, fmt.Errorf("%w: could not create customer", ErrPaymentProvider)
	}

	org := &models.Organization{
		ID:               orgID,
		Name:             organizationName(nu),
		OwnerID:          nu.ID,
		Members:          []string{nu.ID},
		StripeCustomerID: customerID,
		Subscription: models.Subscription{
			Plan:   models.PlanFree,
			Status: models.SubscriptionStatusActive,
		},
	}
	user = &models.User{
		ID:            nu.ID,
		Email:         nu.Email,
		DisplayName:   nu.DisplayName,
		Organizations: map[string]string{orgID: models.RoleAdmin},
	}
	if err := s.orgRepo.CreateWithOwner(ctx, org, user); err != nil {
		if errors.Is(err, db.ErrAlreadyExists) {
			// Another request provisioned this user first.
			existing, getErr := s.userRepo.GetByID(ctx, nu.ID)
			if getErr == nil {
				s.logger.Warn("Profile provisioned concurrently, discarding duplicate customer",
					zap.String("uid", nu.ID),
					zap.String("customerId", customerID),
				)
				return existing, false, nil
			}
		}
		return nil, false, fmt.Errorf("failed to provision organization for user '%s': %w", nu.ID, err)
	}

	// Access checks read the profile, not claims; a failure here is only logged.
	if err := s.claims.SetCustomUserClaims(ctx, nu.ID, map[string]interface{}{
		"roles": map[string]interface{}{orgID: models.RoleAdmin},
	}); err != nil {
		s.logger.Error("Failed to set custom claims", zap.String("uid", nu.ID), zap.String("orgId", orgID), zap.Error(err))
	}

	s.logger.Info("New user provisioned",
		zap.String("uid", nu.ID),
		zap.String("orgId", orgID),
		zap.String("customerId", customerID),
	)
	return user, true, nil
}

// GetByID retrieves a user by their ID.
func (s *userService) GetByID(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: user with ID '%s'", ErrUserNotFound, userID)
		}
		return nil, fmt.Errorf("failed to get user by ID '%s' from repository: %w", userID, err)
	}
	return user, nil
}

func organizationName(nu NewUser) string {
	name := nu.DisplayName
	if name == "" {
		name, _, _ = strings.Cut(nu.Email, "@")
	}
	if name == "" {
		name = nu.ID
	}
	return name + "'s Organization"
}

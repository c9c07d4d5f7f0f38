package inventory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
)

// CreateHousehold creates a household owned by ownerID
func (s *Service) CreateHousehold(ctx context.Context, ownerID, name, description string) (*Household, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: household name is required", ErrInvalidInput)
	}
	if ownerID == "" {
		return nil, fmt.Errorf("%w: owner is required", ErrInvalidInput)
	}

	now := s.timeSource.Now()
	household := &Household{
		ID:          s.idGenerator.Generate(),
		Name:        name,
		Description: strings.TrimSpace(description),
		OwnerID:     ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.db.SaveHousehold(ctx, household); err != nil {
		return nil, fmt.Errorf("saving household: %w", err)
	}

	owner := &Member{
		ID:          s.idGenerator.Generate(),
		HouseholdID: household.ID,
		UserID:      ownerID,
		Role:        RoleOwner,
		JoinedAt:    now,
	}
	if err := s.db.SaveMember(ctx, owner); err != nil {
		return nil, fmt.Errorf("saving owner membership: %w", err)
	}

	return household, nil
}

// GetHousehold retrieves a household by ID
func (s *Service) GetHousehold(ctx context.Context, id string) (*Household, error) {
	household, err := s.db.GetHousehold(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting household: %w", err)
	}
	return household, nil
}

// ListHouseholds returns the households a user belongs to, oldest membership first
func (s *Service) ListHouseholds(ctx context.Context, userID string) ([]*Household, error) {
	memberships, err := s.db.ListMemberships(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing memberships: %w", err)
	}
	slices.SortStableFunc(memberships, func(a, b *Member) int {
		return a.JoinedAt.Compare(b.JoinedAt)
	})

	households := make([]*Household, 0, len(memberships))
	for _, m := range memberships {
		household, err := s.db.GetHousehold(ctx, m.HouseholdID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				slog.Warn("Membership references missing household", "household_id", m.HouseholdID, "user_id", userID)
				continue
			}
			return nil, fmt.Errorf("getting household: %w", err)
		}
		households = append(households, household)
	}
	return households, nil
}

// UpdateHousehold changes a household's name and/or description
func (s *Service) UpdateHousehold(ctx context.Context, id string, name, description *string) (*Household, error) {
	household, err := s.db.GetHousehold(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting household: %w", err)
	}

	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			return nil, fmt.Errorf("%w: household name is required", ErrInvalidInput)
		}
		household.Name = trimmed
	}
	if description != nil {
		household.Description = strings.TrimSpace(*description)
	}
	household.UpdatedAt = s.timeSource.Now()

	if err := s.db.SaveHousehold(ctx, household); err != nil {
		return nil, fmt.Errorf("saving household: %w", err)
	}

	s.publish(household.ID, "household", "updated", household.ID)
	return household, nil
}

// AuthorizeHousehold returns ErrForbidden unless userID belongs to the
// household, holding one of roles when any are given. An empty userID is not
// checked: requests only lack one when bearer auth is off.
func (s *Service) AuthorizeHousehold(ctx context.Context, userID, householdID string, roles ...Role) error {
	if userID == "" {
		return nil
	}

	member, err := s.db.GetMember(ctx, householdID, userID)
	if errors.Is(err, ErrNotFound) {
		if _, err := s.db.GetHousehold(ctx, householdID); err != nil {
			return fmt.Errorf("getting household: %w", err)
		}
		return ErrForbidden
	}
	if err != nil {
		return fmt.Errorf("checking membership: %w", err)
	}

	if len(roles) > 0 && !slices.Contains(roles, member.Role) {
		return fmt.Errorf("%w: the %s role cannot do this", ErrForbidden, member.Role)
	}
	return nil
}

// AuthorizeItem checks the caller's membership in the household that owns an item
func (s *Service) AuthorizeItem(ctx context.Context, userID, itemID string) error {
	if userID == "" {
		return nil
	}
	item, err := s.db.GetItem(ctx, itemID)
	if err != nil {
		return fmt.Errorf("getting item: %w", err)
	}
	return s.AuthorizeHousehold(ctx, userID, item.HouseholdID)
}

// AddMember invites the user with the given email to a household
func (s *Service) AddMember(ctx context.Context, householdID, email string, role Role) (*Member, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	if role == "" {
		role = RoleMember
	}
	if !role.Valid() || role == RoleOwner {
		return nil, fmt.Errorf("%w: role must be admin or member", ErrInvalidInput)
	}

	if _, err := s.db.GetHousehold(ctx, householdID); err != nil {
		return nil, fmt.Errorf("getting household: %w", err)
	}

	profile, err := s.db.FindProfileByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("finding user by email: %w", err)
	}

	if _, err := s.db.GetMember(ctx, householdID, profile.UserID); err == nil {
		return nil, ErrAlreadyMember
	} else if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("checking membership: %w", err)
	}

	member := &Member{
		ID:          s.idGenerator.Generate(),
		HouseholdID: householdID,
		UserID:      profile.UserID,
		Role:        role,
		JoinedAt:    s.timeSource.Now(),
	}
	if err := s.db.SaveMember(ctx, member); err != nil {
		return nil, fmt.Errorf("saving member: %w", err)
	}

	s.publish(householdID, "member", "created", member.ID)
	return member, nil
}

// ListMembers returns the members of a household, oldest first
func (s *Service) ListMembers(ctx context.Context, householdID string) ([]*Member, error) {
	members, err := s.db.ListMembers(ctx, householdID)
	if err != nil {
		return nil, fmt.Errorf("listing members: %w", err)
	}
	slices.SortStableFunc(members, func(a, b *Member) int {
		return a.JoinedAt.Compare(b.JoinedAt)
	})
	return members, nil
}

// ListAllMembers returns every membership across households
func (s *Service) ListAllMembers(ctx context.Context) ([]*Member, error) {
	members, err := s.db.ListAllMembers(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing members: %w", err)
	}
	return members, nil
}

// RemoveMember removes a user from a household. The owner cannot be removed.
func (s *Service) RemoveMember(ctx context.Context, householdID, userID string) error {
	member, err := s.db.GetMember(ctx, householdID, userID)
	if err != nil {
		return fmt.Errorf("getting member: %w", err)
	}
	if member.Role == RoleOwner {
		return fmt.Errorf("%w: the household owner cannot be removed", ErrInvalidInput)
	}

	if err := s.db.DeleteMember(ctx, householdID, userID); err != nil {
		return fmt.Errorf("deleting member: %w", err)
	}

	s.publish(householdID, "member", "deleted", member.ID)
	return nil
}

// GetProfile retrieves a user's profile
func (s *Service) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	profile, err := s.db.GetProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("getting profile: %w", err)
	}
	return profile, nil
}

// SaveProfile creates or updates a profile. The first save that carries an
// email sends the welcome email; a failed send is logged, not returned.
func (s *Service) SaveProfile(ctx context.Context, profile *Profile) (*Profile, error) {
	if profile.UserID == "" {
		return nil, fmt.Errorf("%w: user is required", ErrInvalidInput)
	}
	profile.Email = strings.TrimSpace(profile.Email)
	profile.DisplayName = strings.TrimSpace(profile.DisplayName)

	now := s.timeSource.Now()
	hadEmail := false
	existing, err := s.db.GetProfile(ctx, profile.UserID)
	switch {
	case err == nil:
		profile.CreatedAt = existing.CreatedAt
		hadEmail = existing.Email != ""
	case errors.Is(err, ErrNotFound):
		profile.CreatedAt = now
	default:
		return nil, fmt.Errorf("getting profile: %w", err)
	}
	profile.UpdatedAt = now

	if err := s.db.SaveProfile(ctx, profile); err != nil {
		return nil, fmt.Errorf("saving profile: %w", err)
	}

	if !hadEmail && profile.Email != "" && s.notifier != nil {
		if err := s.notifier.Welcome(ctx, profile.Email, profile.DisplayName); err != nil {
			slog.Warn("Failed to send welcome email", "user_id", profile.UserID, "error", err)
		}
	}

	return profile, nil
}

// GetSettings returns a user's settings, or the defaults when none are saved
func (s *Service) GetSettings(ctx context.Context, userID string) (*Settings, error) {
	settings, err := s.db.GetSettings(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return DefaultSettings(userID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting settings: %w", err)
	}
	return settings, nil
}

// SaveSettings stores a user's settings
func (s *Service) SaveSettings(ctx context.Context, settings *Settings) (*Settings, error) {
	if settings.UserID == "" {
		return nil, fmt.Errorf("%w: user is required", ErrInvalidInput)
	}
	if settings.Theme == "" {
		settings.Theme = "system"
	}
	if settings.Language == "" {
		settings.Language = "en"
	}
	settings.UpdatedAt = s.timeSource.Now()

	if err := s.db.SaveSettings(ctx, settings); err != nil {
		return nil, fmt.Errorf("saving settings: %w", err)
	}
	return settings, nil
}

package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/haulscale/weighbridge/internal/core/domain"
	"github.com/haulscale/weighbridge/internal/core/ports"
)

// UserService manages application accounts in the directory. Account
// creation and changes are reserved to super-admins.
type UserService struct {
	directory ports.Directory
	now       func() time.Time
	log       zerolog.Logger
}

func NewUserService(directory ports.Directory, log zerolog.Logger) *UserService {
	return &UserService{
		directory: directory,
		now:       func() time.Time { return time.Now().UTC() },
		log:       log,
	}
}

// ListCompanyUsers lists the accounts of the caller's company. Super-admins
// list every account, or one company's with companyID.
func (s *UserService) ListCompanyUsers(ctx context.Context, id domain.Identity, companyID string) ([]*domain.CompanyUser, error) {
	scope, err := domain.ScopeFor(id, domain.TenantCompany)
	if err != nil {
		return nil, fmt.Errorf("list company users: %w", err)
	}
	if scope.Restricted() {
		companyID = scope.TenantID
	}
	users, err := s.directory.ListCompanyUsers(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("list company users: %w", err)
	}
	return users, nil
}

func (s *UserService) CreateCompanyUser(ctx context.Context, id domain.Identity, in ports.CreateCompanyUserInput) (*domain.CompanyUser, error) {
	if !id.IsSuperAdmin() {
		return nil, fmt.Errorf("create company user: %w", domain.ErrForbidden)
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: invalid email", domain.ErrInvalidInput)
	}
	if in.CompanyID == "" && !in.IsAdmin {
		return nil, fmt.Errorf("%w: company_id is required for non-admin users", domain.ErrInvalidInput)
	}

	now := s.now()
	u := &domain.CompanyUser{
		ID:        in.ID,
		Email:     email,
		Name:      strings.TrimSpace(in.Name),
		IsAdmin:   in.IsAdmin,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if in.CompanyID != "" {
		companyID := in.CompanyID
		u.CompanyID = &companyID
	}
	if err := s.directory.CreateCompanyUser(ctx, u); err != nil {
		return nil, fmt.Errorf("create company user: %w", err)
	}
	s.log.Info().Str("user_id", u.ID).Str("role", string(u.Identity().Role)).Str("created_by", id.UserID).Msg("company user created")
	return u, nil
}

func (s *UserService) UpdateCompanyUser(ctx context.Context, id domain.Identity, userID string, in ports.UpdateCompanyUserInput) (*domain.CompanyUser, error) {
	if !id.IsSuperAdmin() {
		return nil, fmt.Errorf("update company user: %w", domain.ErrForbidden)
	}
	u, err := s.directory.FindCompanyUser(ctx, ports.Lookup{ID: userID})
	if err != nil {
		return nil, fmt.Errorf("update company user: %w", err)
	}
	if u.ID == id.UserID && in.Active != nil && !*in.Active {
		return nil, fmt.Errorf("%w: cannot deactivate your own account", domain.ErrInvalidInput)
	}
	if in.IsAdmin != nil && !*in.IsAdmin && (u.CompanyID == nil || *u.CompanyID == "") {
		return nil, fmt.Errorf("%w: company_id is required for non-admin users", domain.ErrInvalidInput)
	}
	if in.Active != nil {
		u.Active = *in.Active
	}
	if in.IsAdmin != nil {
		u.IsAdmin = *in.IsAdmin
	}
	if in.Name != nil {
		u.Name = strings.TrimSpace(*in.Name)
	}
	u.UpdatedAt = s.now()

	if err := s.directory.UpdateCompanyUser(ctx, u); err != nil {
		return nil, fmt.Errorf("update company user: %w", err)
	}
	s.log.Info().Str("user_id", u.ID).Bool("active", u.Active).Str("updated_by", id.UserID).Msg("company user updated")
	return u, nil
}

// ListCityUsers lists the portal accounts of the caller's city.
func (s *UserService) ListCityUsers(ctx context.Context, id domain.Identity, cityID string) ([]*domain.CityUser, error) {
	scope, err := domain.ScopeFor(id, domain.TenantCity)
	if err != nil {
		return nil, fmt.Errorf("list city users: %w", err)
	}
	if scope.Restricted() {
		cityID = scope.TenantID
	}
	users, err := s.directory.ListCityUsers(ctx, cityID)
	if err != nil {
		return nil, fmt.Errorf("list city users: %w", err)
	}
	return users, nil
}

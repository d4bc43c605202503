package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mohamedmahmoud95/scms-api/internal/models"
	"github.com/mohamedmahmoud95/scms-api/internal/repository"
	appErrors "github.com/mohamedmahmoud95/scms-api/pkg/errors"
)

type administratorStore interface {
	ListAll(ctx context.Context) ([]models.Administrator, error)
	FindByID(ctx context.Context, id string) (*models.Administrator, error)
	FindByEmail(ctx context.Context, email string) (*models.Administrator, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, admin *models.Administrator) error
	Update(ctx context.Context, admin *models.Administrator) error
	Delete(ctx context.Context, id string) error
}

// CreateAdministratorRequest describes the admin account payload.
type CreateAdministratorRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// UpdateAdministratorRequest describes the admin profile update payload.
type UpdateAdministratorRequest struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
}

// AdministratorService manages administrator accounts.
type AdministratorService struct {
	repo      administratorStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAdministratorService constructs AdministratorService.
func NewAdministratorService(repo administratorStore, validate *validator.Validate, logger *zap.Logger) *AdministratorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdministratorService{repo: repo, validator: validate, logger: logger}
}

// Create registers a new administrator account.
func (s *AdministratorService) Create(ctx context.Context, req CreateAdministratorRequest) (*models.Administrator, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid administrator payload")
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	exists, err := s.repo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("administrator with email %s already exists", email))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	admin := &models.Administrator{Name: req.Name, Email: email, PasswordHash: string(hash)}
	if err := s.repo.Create(ctx, admin); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("administrator with email %s already exists", email))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create administrator")
	}

	s.logger.Info("administrator created", zap.String("admin_id", admin.ID))
	return admin, nil
}

// Authenticate verifies credentials and returns the administrator when they match.
func (s *AdministratorService) Authenticate(ctx context.Context, email, password string) (*models.Administrator, error) {
	admin, err := s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrInvalidCredentials
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load administrator")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		return nil, appErrors.ErrInvalidCredentials
	}
	return admin, nil
}

// List returns every administrator.
func (s *AdministratorService) List(ctx context.Context) ([]models.Administrator, error) {
	admins, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list administrators")
	}
	return admins, nil
}

// GetByID returns an administrator by its ID.
func (s *AdministratorService) GetByID(ctx context.Context, id string) (*models.Administrator, error) {
	admin, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "administrator not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load administrator")
	}
	return admin, nil
}

// Update rewrites the administrator's profile fields.
func (s *AdministratorService) Update(ctx context.Context, id string, req UpdateAdministratorRequest) (*models.Administrator, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid administrator payload")
	}
	admin, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "administrator not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load administrator")
	}

	admin.Name = req.Name
	admin.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.repo.Update(ctx, admin); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("administrator with email %s already exists", admin.Email))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update administrator")
	}
	return admin, nil
}

// Delete removes an administrator account.
func (s *AdministratorService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "administrator not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete administrator")
	}
	return nil
}

package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/mohamedmahmoud95/scms-api/internal/models"
	"github.com/mohamedmahmoud95/scms-api/pkg/config"
	appErrors "github.com/mohamedmahmoud95/scms-api/pkg/errors"
)

type studentAuthenticator interface {
	Authenticate(ctx context.Context, email, password string) (*models.Student, error)
	GetByID(ctx context.Context, id string) (*models.Student, error)
}

type adminAuthenticator interface {
	Authenticate(ctx context.Context, email, password string) (*models.Administrator, error)
	GetByID(ctx context.Context, id string) (*models.Administrator, error)
}

// AuthService issues and validates JWT access tokens. Login tries the
// student directory first and falls back to administrators, so one endpoint
// serves both roles.
type AuthService struct {
	students  studentAuthenticator
	admins    adminAuthenticator
	cfg       config.JWTConfig
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAuthService constructs AuthService.
func NewAuthService(students studentAuthenticator, admins adminAuthenticator, cfg config.JWTConfig, validate *validator.Validate, logger *zap.Logger) *AuthService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{students: students, admins: admins, cfg: cfg, validator: validate, logger: logger}
}

// Login authenticates either role and returns a signed access token.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	var user models.UserInfo
	student, err := s.students.Authenticate(ctx, req.Email, req.Password)
	switch {
	case err == nil:
		user = models.UserInfo{ID: student.ID, Name: student.Name, Email: student.Email, Role: models.RoleStudent}
	case errors.Is(err, appErrors.ErrInvalidCredentials):
		admin, adminErr := s.admins.Authenticate(ctx, req.Email, req.Password)
		if adminErr != nil {
			return nil, appErrors.ErrInvalidCredentials
		}
		user = models.UserInfo{ID: admin.ID, Name: admin.Name, Email: admin.Email, Role: models.RoleAdmin}
	default:
		return nil, err
	}

	now := time.Now().UTC()
	claims := models.JWTClaims{
		UserID: user.ID,
		Name:   user.Name,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.cfg.Issuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.Expiration)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign token")
	}

	s.logger.Info("login", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return &models.LoginResponse{
		AccessToken: token,
		ExpiresIn:   int64(s.cfg.Expiration.Seconds()),
		IssuedAt:    now,
		User:        user,
	}, nil
}

// ValidateToken parses and verifies an access token, returning its claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	claims := &models.JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(s.cfg.Secret), nil
	})
	if err != nil || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired token")
	}
	return claims, nil
}

// Me resolves the current profile for validated claims.
func (s *AuthService) Me(ctx context.Context, claims *models.JWTClaims) (*models.UserInfo, error) {
	switch claims.Role {
	case models.RoleStudent:
		student, err := s.students.GetByID(ctx, claims.UserID)
		if err != nil {
			return nil, err
		}
		return &models.UserInfo{ID: student.ID, Name: student.Name, Email: student.Email, Role: models.RoleStudent}, nil
	case models.RoleAdmin:
		admin, err := s.admins.GetByID(ctx, claims.UserID)
		if err != nil {
			return nil, err
		}
		return &models.UserInfo{ID: admin.ID, Name: admin.Name, Email: admin.Email, Role: models.RoleAdmin}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "unknown role")
	}
}

package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mohamedmahmoud95/scms-api/internal/models"
	"github.com/mohamedmahmoud95/scms-api/pkg/config"
	appErrors "github.com/mohamedmahmoud95/scms-api/pkg/errors"
)

func newAuthFixture(t *testing.T) *AuthService {
	t.Helper()

	studentHash, err := bcrypt.GenerateFromPassword([]byte("student-pass"), bcrypt.MinCost)
	require.NoError(t, err)
	adminHash, err := bcrypt.GenerateFromPassword([]byte("admin-pass"), bcrypt.MinCost)
	require.NoError(t, err)

	students := NewStudentService(&mockStudentStore{byEmail: map[string]models.Student{
		"sara@eng.asu.edu.eg": {ID: "s1", Name: "Sara", Email: "sara@eng.asu.edu.eg", PasswordHash: string(studentHash)},
	}, students: map[string]models.Student{
		"s1": {ID: "s1", Name: "Sara", Email: "sara@eng.asu.edu.eg", PasswordHash: string(studentHash)},
	}}, "@eng.asu.edu.eg", validator.New(), zap.NewNop())

	admins := NewAdministratorService(&mockAdministratorStore{byEmail: map[string]models.Administrator{
		"head@eng.asu.edu.eg": {ID: "a1", Name: "Dr. Mostafa", Email: "head@eng.asu.edu.eg", PasswordHash: string(adminHash)},
	}, admins: map[string]models.Administrator{
		"a1": {ID: "a1", Name: "Dr. Mostafa", Email: "head@eng.asu.edu.eg", PasswordHash: string(adminHash)},
	}}, validator.New(), zap.NewNop())

	cfg := config.JWTConfig{Secret: "test-secret", Expiration: time.Hour, Issuer: "scms-api"}
	return NewAuthService(students, admins, cfg, validator.New(), zap.NewNop())
}

type mockAdministratorStore struct {
	admins  map[string]models.Administrator
	byEmail map[string]models.Administrator
}

func (m *mockAdministratorStore) ListAll(ctx context.Context) ([]models.Administrator, error) {
	var list []models.Administrator
	for _, a := range m.admins {
		list = append(list, a)
	}
	return list, nil
}

func (m *mockAdministratorStore) FindByID(ctx context.Context, id string) (*models.Administrator, error) {
	if a, ok := m.admins[id]; ok {
		return &a, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAdministratorStore) FindByEmail(ctx context.Context, email string) (*models.Administrator, error) {
	if a, ok := m.byEmail[email]; ok {
		return &a, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAdministratorStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, ok := m.byEmail[email]
	return ok, nil
}

func (m *mockAdministratorStore) Create(ctx context.Context, admin *models.Administrator) error {
	if m.admins == nil {
		m.admins = make(map[string]models.Administrator)
	}
	if m.byEmail == nil {
		m.byEmail = make(map[string]models.Administrator)
	}
	if admin.ID == "" {
		admin.ID = "new-admin"
	}
	m.admins[admin.ID] = *admin
	m.byEmail[admin.Email] = *admin
	return nil
}

func (m *mockAdministratorStore) Update(ctx context.Context, admin *models.Administrator) error {
	m.admins[admin.ID] = *admin
	return nil
}

func (m *mockAdministratorStore) Delete(ctx context.Context, id string) error {
	if _, ok := m.admins[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.admins, id)
	return nil
}

func TestAuthServiceLoginStudent(t *testing.T) {
	svc := newAuthFixture(t)

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "sara@eng.asu.edu.eg", Password: "student-pass"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, res.User.Role)
	assert.NotEmpty(t, res.AccessToken)

	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "s1", claims.UserID)
	assert.Equal(t, models.RoleStudent, claims.Role)
}

func TestAuthServiceLoginAdminFallback(t *testing.T) {
	svc := newAuthFixture(t)

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "head@eng.asu.edu.eg", Password: "admin-pass"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, res.User.Role)

	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "a1", claims.UserID)
}

func TestAuthServiceLoginInvalidCredentials(t *testing.T) {
	svc := newAuthFixture(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "sara@eng.asu.edu.eg", Password: "wrong"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "ghost@eng.asu.edu.eg", Password: "whatever"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
}

func TestAuthServiceValidateTokenRejectsGarbage(t *testing.T) {
	svc := newAuthFixture(t)

	_, err := svc.ValidateToken("not-a-token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceMe(t *testing.T) {
	svc := newAuthFixture(t)

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "sara@eng.asu.edu.eg", Password: "student-pass"})
	require.NoError(t, err)
	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)

	info, err := svc.Me(context.Background(), claims)
	require.NoError(t, err)
	assert.Equal(t, "sara@eng.asu.edu.eg", info.Email)
}

package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mohamedmahmoud95/scms-api/internal/models"
	appErrors "github.com/mohamedmahmoud95/scms-api/pkg/errors"
)

type mockStudentStore struct {
	students map[string]models.Student // keyed by ID
	byEmail  map[string]models.Student
	created  *models.Student
}

func (m *mockStudentStore) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	var list []models.Student
	for _, s := range m.students {
		list = append(list, s)
	}
	return list, len(list), nil
}

func (m *mockStudentStore) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if s, ok := m.students[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentStore) FindByEmail(ctx context.Context, email string) (*models.Student, error) {
	if s, ok := m.byEmail[email]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, ok := m.byEmail[email]
	return ok, nil
}

func (m *mockStudentStore) Create(ctx context.Context, student *models.Student) error {
	if m.students == nil {
		m.students = make(map[string]models.Student)
	}
	if m.byEmail == nil {
		m.byEmail = make(map[string]models.Student)
	}
	if student.ID == "" {
		student.ID = "new-student"
	}
	m.students[student.ID] = *student
	m.byEmail[student.Email] = *student
	m.created = student
	return nil
}

func (m *mockStudentStore) Update(ctx context.Context, student *models.Student) error {
	m.students[student.ID] = *student
	return nil
}

func (m *mockStudentStore) Delete(ctx context.Context, id string) error {
	if _, ok := m.students[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.students, id)
	return nil
}

const testEmailDomain = "@eng.asu.edu.eg"

func TestStudentServiceRegister(t *testing.T) {
	store := &mockStudentStore{}
	svc := NewStudentService(store, testEmailDomain, validator.New(), zap.NewNop())

	student, err := svc.Register(context.Background(), RegisterStudentRequest{
		Name:     "Sara Ahmed",
		Email:    "Sara.Ahmed@eng.asu.edu.eg",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)
	assert.Equal(t, "sara.ahmed@eng.asu.edu.eg", student.Email, "emails are normalised to lower case")
	assert.NotEqual(t, "s3cret-pass", student.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(student.PasswordHash), []byte("s3cret-pass")))
}

func TestStudentServiceRegisterWrongDomain(t *testing.T) {
	svc := NewStudentService(&mockStudentStore{}, testEmailDomain, validator.New(), zap.NewNop())

	_, err := svc.Register(context.Background(), RegisterStudentRequest{
		Name:     "Sara Ahmed",
		Email:    "sara@gmail.com",
		Password: "s3cret-pass",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestStudentServiceRegisterDuplicateEmail(t *testing.T) {
	store := &mockStudentStore{byEmail: map[string]models.Student{
		"sara@eng.asu.edu.eg": {ID: "s1", Email: "sara@eng.asu.edu.eg"},
	}}
	svc := NewStudentService(store, testEmailDomain, validator.New(), zap.NewNop())

	_, err := svc.Register(context.Background(), RegisterStudentRequest{
		Name:     "Sara Ahmed",
		Email:    "sara@eng.asu.edu.eg",
		Password: "s3cret-pass",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestStudentServiceRegisterShortPassword(t *testing.T) {
	svc := NewStudentService(&mockStudentStore{}, testEmailDomain, validator.New(), zap.NewNop())

	_, err := svc.Register(context.Background(), RegisterStudentRequest{
		Name:     "Sara Ahmed",
		Email:    "sara@eng.asu.edu.eg",
		Password: "short",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestStudentServiceAuthenticate(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret-pass"), bcrypt.MinCost)
	require.NoError(t, err)
	store := &mockStudentStore{byEmail: map[string]models.Student{
		"sara@eng.asu.edu.eg": {ID: "s1", Email: "sara@eng.asu.edu.eg", PasswordHash: string(hash)},
	}}
	svc := NewStudentService(store, testEmailDomain, validator.New(), zap.NewNop())

	student, err := svc.Authenticate(context.Background(), "sara@eng.asu.edu.eg", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, "s1", student.ID)

	_, err = svc.Authenticate(context.Background(), "sara@eng.asu.edu.eg", "wrong")
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)

	_, err = svc.Authenticate(context.Background(), "ghost@eng.asu.edu.eg", "s3cret-pass")
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
}

func TestStudentServiceGetByIDMissing(t *testing.T) {
	svc := NewStudentService(&mockStudentStore{}, testEmailDomain, validator.New(), zap.NewNop())

	_, err := svc.GetByID(context.Background(), "ghost")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

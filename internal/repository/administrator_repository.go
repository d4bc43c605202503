package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mohamedmahmoud95/scms-api/internal/models"
	"github.com/mohamedmahmoud95/scms-api/pkg/database"
)

// AdministratorRepository handles persistence of administrator accounts.
type AdministratorRepository struct {
	db *sqlx.DB
}

// NewAdministratorRepository constructs the repository.
func NewAdministratorRepository(db *sqlx.DB) *AdministratorRepository {
	return &AdministratorRepository{db: db}
}

// ListAll returns every administrator, used for notification fan-out.
func (r *AdministratorRepository) ListAll(ctx context.Context) ([]models.Administrator, error) {
	const query = `SELECT id, name, email, password_hash, created_at, updated_at FROM administrators ORDER BY created_at`
	var admins []models.Administrator
	if err := sqlx.SelectContext(ctx, database.Ext(ctx, r.db), &admins, query); err != nil {
		return nil, fmt.Errorf("list administrators: %w", err)
	}
	return admins, nil
}

// FindByID returns an administrator by its ID.
func (r *AdministratorRepository) FindByID(ctx context.Context, id string) (*models.Administrator, error) {
	const query = `SELECT id, name, email, password_hash, created_at, updated_at FROM administrators WHERE id = $1`
	var admin models.Administrator
	if err := sqlx.GetContext(ctx, database.Ext(ctx, r.db), &admin, query, id); err != nil {
		return nil, err
	}
	return &admin, nil
}

// FindByEmail returns an administrator by email.
func (r *AdministratorRepository) FindByEmail(ctx context.Context, email string) (*models.Administrator, error) {
	const query = `SELECT id, name, email, password_hash, created_at, updated_at FROM administrators WHERE email = $1`
	var admin models.Administrator
	if err := sqlx.GetContext(ctx, database.Ext(ctx, r.db), &admin, query, email); err != nil {
		return nil, err
	}
	return &admin, nil
}

// ExistsByEmail reports whether an administrator with the email exists.
func (r *AdministratorRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	const query = `SELECT 1 FROM administrators WHERE email = $1 LIMIT 1`
	var exists int
	if err := sqlx.GetContext(ctx, database.Ext(ctx, r.db), &exists, query, email); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check administrator email: %w", err)
	}
	return true, nil
}

// Create persists a new administrator record.
func (r *AdministratorRepository) Create(ctx context.Context, admin *models.Administrator) error {
	if admin.ID == "" {
		admin.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if admin.CreatedAt.IsZero() {
		admin.CreatedAt = now
	}
	admin.UpdatedAt = now
	const query = `INSERT INTO administrators (id, name, email, password_hash, created_at, updated_at)
        VALUES (:id, :name, :email, :password_hash, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, database.Ext(ctx, r.db), query, admin); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create administrator: %w", err)
	}
	return nil
}

// Update rewrites the mutable administrator columns.
func (r *AdministratorRepository) Update(ctx context.Context, admin *models.Administrator) error {
	admin.UpdatedAt = time.Now().UTC()
	const query = `UPDATE administrators SET name = :name, email = :email, password_hash = :password_hash, updated_at = :updated_at WHERE id = :id`
	res, err := sqlx.NamedExecContext(ctx, database.Ext(ctx, r.db), query, admin)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("update administrator: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes the administrator row.
func (r *AdministratorRepository) Delete(ctx context.Context, id string) error {
	res, err := database.Ext(ctx, r.db).ExecContext(ctx, `DELETE FROM administrators WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete administrator: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

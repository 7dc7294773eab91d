package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nacca-sms/nacca-sms-api/internal/models"
)

const parentColumns = `id, school_id, father_name, father_phone, father_email, mother_name, mother_phone, mother_email,
        guardian_name, guardian_relationship, guardian_phone, guardian_email, address, primary_contact_phone, created_at, updated_at`

// ParentRepository persists family contact records.
type ParentRepository struct {
	db *sqlx.DB
}

// NewParentRepository constructs a ParentRepository.
func NewParentRepository(db *sqlx.DB) *ParentRepository {
	return &ParentRepository{db: db}
}

// FindByID returns a parent by id.
func (r *ParentRepository) FindByID(ctx context.Context, id string) (*models.Parent, error) {
	query := `SELECT ` + parentColumns + ` FROM parents WHERE id = $1`
	var parent models.Parent
	if err := r.db.GetContext(ctx, &parent, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find parent: %w", err)
	}
	return &parent, nil
}

// FindByPhone matches phone against the primary, father, mother and guardian numbers.
func (r *ParentRepository) FindByPhone(ctx context.Context, phone string) (*models.Parent, error) {
	query := `SELECT ` + parentColumns + ` FROM parents
        WHERE primary_contact_phone = $1 OR father_phone = $1 OR mother_phone = $1 OR guardian_phone = $1
        ORDER BY created_at LIMIT 1`
	var parent models.Parent
	if err := r.db.GetContext(ctx, &parent, query, phone); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find parent by phone: %w", err)
	}
	return &parent, nil
}

// Create inserts a parent record.
func (r *ParentRepository) Create(ctx context.Context, parent *models.Parent) error {
	return r.create(ctx, r.db, parent)
}

// CreateTx inserts a parent record inside tx.
func (r *ParentRepository) CreateTx(ctx context.Context, tx *sqlx.Tx, parent *models.Parent) error {
	return r.create(ctx, tx, parent)
}

func (r *ParentRepository) create(ctx context.Context, exec sqlx.ExtContext, parent *models.Parent) error {
	if parent.ID == "" {
		parent.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	parent.CreatedAt, parent.UpdatedAt = now, now
	const query = `INSERT INTO parents (id, school_id, father_name, father_phone, father_email, mother_name, mother_phone, mother_email,
        guardian_name, guardian_relationship, guardian_phone, guardian_email, address, primary_contact_phone, created_at, updated_at)
        VALUES (:id, :school_id, :father_name, :father_phone, :father_email, :mother_name, :mother_phone, :mother_email,
        :guardian_name, :guardian_relationship, :guardian_phone, :guardian_email, :address, :primary_contact_phone, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, exec, query, parent); err != nil {
		return fmt.Errorf("create parent: %w", err)
	}
	return nil
}

// Update rewrites the contact fields.
func (r *ParentRepository) Update(ctx context.Context, parent *models.Parent) error {
	parent.UpdatedAt = time.Now().UTC()
	const query = `UPDATE parents SET father_name = :father_name, father_phone = :father_phone, mother_name = :mother_name,
        mother_phone = :mother_phone, guardian_name = :guardian_name, guardian_phone = :guardian_phone, address = :address,
        primary_contact_phone = :primary_contact_phone, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, parent); err != nil {
		return fmt.Errorf("update parent: %w", err)
	}
	return nil
}

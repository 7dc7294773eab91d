package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nacca-sms/nacca-sms-api/internal/models"
)

const staffColumns = `st.id, st.school_id, st.staff_number, st.first_name, st.last_name, st.other_names, st.gender, st.date_of_birth,
        st.phone, st.email, st.address, st.position, st.department_id, st.qualification, st.date_employed, st.active, st.created_at, st.updated_at`

// StaffRepository persists employees and departments.
type StaffRepository struct {
	db *sqlx.DB
}

// NewStaffRepository constructs a StaffRepository.
func NewStaffRepository(db *sqlx.DB) *StaffRepository {
	return &StaffRepository{db: db}
}

// List returns staff for a school filtered by search text and department.
func (r *StaffRepository) List(ctx context.Context, filter models.StaffFilter) ([]models.StaffListItem, int, error) {
	base := `FROM staff st LEFT JOIN departments d ON d.id = st.department_id`
	args := []interface{}{filter.SchoolID}
	conditions := []string{"st.school_id = $1"}

	if filter.DepartmentID != "" {
		conditions = append(conditions, fmt.Sprintf("st.department_id = $%d", len(args)+1))
		args = append(args, filter.DepartmentID)
	}
	if filter.Search != "" {
		idx := len(args) + 1
		conditions = append(conditions, fmt.Sprintf("(st.first_name ILIKE $%d OR st.last_name ILIKE $%d OR st.staff_number ILIKE $%d)", idx, idx, idx))
		args = append(args, "%"+strings.TrimSpace(filter.Search)+"%")
	}
	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))
	limit, offset := models.PageBounds(filter.Page, filter.PageSize)

	query := fmt.Sprintf(`SELECT %s, d.name AS department_name %s ORDER BY st.last_name, st.first_name LIMIT %d OFFSET %d`, staffColumns, base, limit, offset)
	var staff []models.StaffListItem
	if err := r.db.SelectContext(ctx, &staff, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list staff: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count staff: %w", err)
	}
	return staff, total, nil
}

// FindByID fetches a staff member with the department name.
func (r *StaffRepository) FindByID(ctx context.Context, id string) (*models.StaffListItem, error) {
	query := `SELECT ` + staffColumns + `, d.name AS department_name FROM staff st LEFT JOIN departments d ON d.id = st.department_id WHERE st.id = $1`
	var staff models.StaffListItem
	if err := r.db.GetContext(ctx, &staff, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find staff: %w", err)
	}
	return &staff, nil
}

// CountBySchool returns how many staff a school has ever registered.
func (r *StaffRepository) CountBySchool(ctx context.Context, schoolID string) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM staff WHERE school_id = $1`, schoolID); err != nil {
		return 0, fmt.Errorf("count staff: %w", err)
	}
	return total, nil
}

// CreateWithLogin inserts the staff record and, when user is set, its login in one transaction.
func (r *StaffRepository) CreateWithLogin(ctx context.Context, staff *models.Staff, user *models.User) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if staff.ID == "" {
		staff.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	staff.CreatedAt, staff.UpdatedAt = now, now
	const query = `INSERT INTO staff (id, school_id, staff_number, first_name, last_name, other_names, gender, date_of_birth, phone, email,
        address, position, department_id, qualification, date_employed, active, created_at, updated_at)
        VALUES (:id, :school_id, :staff_number, :first_name, :last_name, :other_names, :gender, :date_of_birth, :phone, :email,
        :address, :position, :department_id, :qualification, :date_employed, :active, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, staff); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("create staff: %w", err)
	}
	if user != nil {
		if user.ID == "" {
			user.ID = uuid.NewString()
		}
		user.StaffID = &staff.ID
		user.CreatedAt, user.UpdatedAt = now, now
		const userQuery = `INSERT INTO users (id, school_id, email, password_hash, role, active, last_login, staff_id, parent_id, created_at, updated_at)
            VALUES (:id, :school_id, :email, :password_hash, :role, :active, :last_login, :staff_id, :parent_id, :created_at, :updated_at)`
		if _, err := tx.NamedExecContext(ctx, userQuery, user); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("create staff login: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit staff: %w", err)
	}
	return nil
}

// Update modifies a staff record.
func (r *StaffRepository) Update(ctx context.Context, staff *models.Staff) error {
	staff.UpdatedAt = time.Now().UTC()
	const query = `UPDATE staff SET first_name = :first_name, last_name = :last_name, other_names = :other_names, gender = :gender,
        phone = :phone, email = :email, address = :address, position = :position, department_id = :department_id,
        qualification = :qualification, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, staff); err != nil {
		return fmt.Errorf("update staff: %w", err)
	}
	return nil
}

// SetActive flips the staff record and any linked login together.
func (r *StaffRepository) SetActive(ctx context.Context, id string, active bool) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx, `UPDATE staff SET active = $2, updated_at = $3 WHERE id = $1`, id, active, now); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("set staff active: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE users SET active = $2, updated_at = $3 WHERE staff_id = $1`, id, active, now); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("set staff login active: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit staff status: %w", err)
	}
	return nil
}

// ListDepartments returns the school's active departments.
func (r *StaffRepository) ListDepartments(ctx context.Context, schoolID string) ([]models.Department, error) {
	const query = `SELECT id, school_id, name, code, active, created_at, updated_at FROM departments WHERE school_id = $1 AND active = TRUE ORDER BY name`
	departments := []models.Department{}
	if err := r.db.SelectContext(ctx, &departments, query, schoolID); err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	return departments, nil
}

// CreateDepartment inserts a department.
func (r *StaffRepository) CreateDepartment(ctx context.Context, department *models.Department) error {
	if department.ID == "" {
		department.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	department.CreatedAt, department.UpdatedAt = now, now
	const query = `INSERT INTO departments (id, school_id, name, code, active, created_at, updated_at)
        VALUES (:id, :school_id, :name, :code, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, department); err != nil {
		return fmt.Errorf("create department: %w", err)
	}
	return nil
}

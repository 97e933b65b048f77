package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campuslink/placement-api/internal/models"
)

// DriveRepository manages persistence for placement drives. Every query
// filters on the owning organization so cross-org access never leaves this
// layer.
type DriveRepository struct {
	db *sqlx.DB
}

// NewDriveRepository constructs a DriveRepository.
func NewDriveRepository(db *sqlx.DB) *DriveRepository {
	return &DriveRepository{db: db}
}

const driveColumns = `id, org_id, title, company, role, salary_package, drive_date, drive_time, mode, location,
        eligibility_criteria, requirements, description, positions_available, registration_deadline, status, version, created_at, updated_at`

// List returns drives of the organization matching the provided filters.
func (r *DriveRepository) List(ctx context.Context, orgID string, filter models.DriveFilter) ([]models.Drive, int, error) {
	base := "FROM drives"
	args := []interface{}{orgID}
	conditions := []string{"org_id = $1"}

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(title) LIKE $%d OR LOWER(company) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	sortBy := filter.SortBy
	allowedSorts := map[string]string{
		"title":      "title",
		"company":    "company",
		"drive_date": "drive_date",
		"created_at": "created_at",
	}
	column, ok := allowedSorts[sortBy]
	if !ok {
		column = "drive_date"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", driveColumns, base, column, order, size, offset)

	var drives []models.Drive
	if err := r.db.SelectContext(ctx, &drives, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list drives: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count drives: %w", err)
	}
	return drives, total, nil
}

// FindByID fetches a drive owned by the organization.
func (r *DriveRepository) FindByID(ctx context.Context, orgID, id string) (*models.Drive, error) {
	query := fmt.Sprintf("SELECT %s FROM drives WHERE id = $1 AND org_id = $2", driveColumns)
	var drive models.Drive
	if err := r.db.GetContext(ctx, &drive, query, id, orgID); err != nil {
		return nil, err
	}
	return &drive, nil
}

// Create inserts a new drive record.
func (r *DriveRepository) Create(ctx context.Context, drive *models.Drive) error {
	if drive.ID == "" {
		drive.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if drive.CreatedAt.IsZero() {
		drive.CreatedAt = now
	}
	drive.UpdatedAt = now
	if drive.Version == 0 {
		drive.Version = 1
	}
	const query = `INSERT INTO drives (id, org_id, title, company, role, salary_package, drive_date, drive_time, mode, location,
        eligibility_criteria, requirements, description, positions_available, registration_deadline, status, version, created_at, updated_at)
        VALUES (:id, :org_id, :title, :company, :role, :salary_package, :drive_date, :drive_time, :mode, :location,
        :eligibility_criteria, :requirements, :description, :positions_available, :registration_deadline, :status, :version, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, drive); err != nil {
		return fmt.Errorf("create drive: %w", err)
	}
	return nil
}

// Update modifies an existing drive. When expectedVersion is positive the
// row must still carry that version; the version counter increments on every
// successful write. sql.ErrNoRows means the drive is gone or the version no
// longer matches.
func (r *DriveRepository) Update(ctx context.Context, drive *models.Drive, expectedVersion int) error {
	drive.UpdatedAt = time.Now().UTC()
	const query = `UPDATE drives SET title = $3, company = $4, role = $5, salary_package = $6, drive_date = $7, drive_time = $8,
        mode = $9, location = $10, eligibility_criteria = $11, requirements = $12, description = $13,
        positions_available = $14, registration_deadline = $15, status = $16, version = version + 1, updated_at = $17
        WHERE id = $1 AND org_id = $2 AND ($18 = 0 OR version = $18)
        RETURNING version`
	err := r.db.QueryRowxContext(ctx, query,
		drive.ID, drive.OrgID, drive.Title, drive.Company, drive.Role, drive.SalaryPackage,
		drive.DriveDate, drive.DriveTime, drive.Mode, drive.Location, drive.EligibilityCriteria,
		drive.Requirements, drive.Description, drive.PositionsAvailable, drive.RegistrationDeadline,
		drive.Status, drive.UpdatedAt, expectedVersion,
	).Scan(&drive.Version)
	if err != nil {
		if err == sql.ErrNoRows {
			return sql.ErrNoRows
		}
		return fmt.Errorf("update drive: %w", err)
	}
	return nil
}

// Delete removes a drive and its registrations in one transaction. Returns
// sql.ErrNoRows when the drive does not exist for the organization.
func (r *DriveRepository) Delete(ctx context.Context, orgID, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete drive: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const deleteRegistrations = `DELETE FROM registrations WHERE drive_id IN (SELECT id FROM drives WHERE id = $1 AND org_id = $2)`
	if _, err := tx.ExecContext(ctx, deleteRegistrations, id, orgID); err != nil {
		return fmt.Errorf("cascade delete registrations: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM drives WHERE id = $1 AND org_id = $2`, id, orgID)
	if err != nil {
		return fmt.Errorf("delete drive: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete drive result: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete drive: %w", err)
	}
	return nil
}

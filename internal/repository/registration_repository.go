package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campuslink/placement-api/internal/models"
)

// RegistrationRepository manages persistence for drive registrations. The
// drive join keeps every query scoped to the caller's organization.
type RegistrationRepository struct {
	db *sqlx.DB
}

// NewRegistrationRepository constructs a RegistrationRepository.
func NewRegistrationRepository(db *sqlx.DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

const registrationColumns = `r.id, r.drive_id, r.student_name, r.roll_number, r.branch, r.cgpa, r.email, r.phone,
        r.registration_date, r.status, r.placed_package, r.start_date, r.placed_date, r.version, r.created_at, r.updated_at`

// ListByDrive returns registrations of a drive with paging metadata.
func (r *RegistrationRepository) ListByDrive(ctx context.Context, orgID, driveID string, filter models.RegistrationFilter) ([]models.Registration, int, error) {
	base := `FROM registrations r JOIN drives d ON d.id = r.drive_id WHERE r.drive_id = $1 AND d.org_id = $2`
	args := []interface{}{driveID, orgID}

	if filter.Status != "" {
		base += fmt.Sprintf(" AND r.status = $%d", len(args)+1)
		args = append(args, filter.Status)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY r.registration_date ASC LIMIT %d OFFSET %d", registrationColumns, base, size, offset)

	var registrations []models.Registration
	if err := r.db.SelectContext(ctx, &registrations, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list registrations: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count registrations: %w", err)
	}
	return registrations, total, nil
}

// ListAllByDrive returns every registration of a drive, unpaged. Statistics
// and exports need the complete set.
func (r *RegistrationRepository) ListAllByDrive(ctx context.Context, orgID, driveID string) ([]models.Registration, error) {
	query := fmt.Sprintf(`SELECT %s FROM registrations r JOIN drives d ON d.id = r.drive_id
        WHERE r.drive_id = $1 AND d.org_id = $2 ORDER BY r.registration_date ASC`, registrationColumns)
	var registrations []models.Registration
	if err := r.db.SelectContext(ctx, &registrations, query, driveID, orgID); err != nil {
		return nil, fmt.Errorf("list all registrations: %w", err)
	}
	return registrations, nil
}

// FindByID fetches a registration scoped to the organization.
func (r *RegistrationRepository) FindByID(ctx context.Context, orgID, id string) (*models.Registration, error) {
	query := fmt.Sprintf(`SELECT %s FROM registrations r JOIN drives d ON d.id = r.drive_id
        WHERE r.id = $1 AND d.org_id = $2`, registrationColumns)
	var registration models.Registration
	if err := r.db.GetContext(ctx, &registration, query, id, orgID); err != nil {
		return nil, err
	}
	return &registration, nil
}

// Create inserts a new registration record.
func (r *RegistrationRepository) Create(ctx context.Context, registration *models.Registration) error {
	if registration.ID == "" {
		registration.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if registration.CreatedAt.IsZero() {
		registration.CreatedAt = now
	}
	registration.UpdatedAt = now
	if registration.Version == 0 {
		registration.Version = 1
	}
	const query = `INSERT INTO registrations (id, drive_id, student_name, roll_number, branch, cgpa, email, phone,
        registration_date, status, placed_package, start_date, placed_date, version, created_at, updated_at)
        VALUES (:id, :drive_id, :student_name, :roll_number, :branch, :cgpa, :email, :phone,
        :registration_date, :status, :placed_package, :start_date, :placed_date, :version, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, registration); err != nil {
		return fmt.Errorf("create registration: %w", err)
	}
	return nil
}

// UpdateStatus writes the outcome and placement fields. The registration
// date is immutable and never touched here. Versioning mirrors drive
// updates: a positive expectedVersion must match or sql.ErrNoRows is
// returned.
func (r *RegistrationRepository) UpdateStatus(ctx context.Context, orgID string, registration *models.Registration, expectedVersion int) error {
	registration.UpdatedAt = time.Now().UTC()
	const query = `UPDATE registrations SET status = $3, placed_package = $4, start_date = $5, placed_date = $6,
        version = version + 1, updated_at = $7
        WHERE id = $1
        AND drive_id IN (SELECT id FROM drives WHERE org_id = $2)
        AND ($8 = 0 OR version = $8)
        RETURNING version`
	err := r.db.QueryRowxContext(ctx, query,
		registration.ID, orgID, registration.Status, registration.PlacedPackage,
		registration.StartDate, registration.PlacedDate, registration.UpdatedAt, expectedVersion,
	).Scan(&registration.Version)
	if err != nil {
		if err == sql.ErrNoRows {
			return sql.ErrNoRows
		}
		return fmt.Errorf("update registration status: %w", err)
	}
	return nil
}

// CountByDrive returns the number of registrations on a drive.
func (r *RegistrationRepository) CountByDrive(ctx context.Context, orgID, driveID string) (int, error) {
	const query = `SELECT COUNT(*) FROM registrations r JOIN drives d ON d.id = r.drive_id
        WHERE r.drive_id = $1 AND d.org_id = $2`
	var total int
	if err := r.db.GetContext(ctx, &total, query, driveID, orgID); err != nil {
		return 0, fmt.Errorf("count registrations: %w", err)
	}
	return total, nil
}

package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/campuslink/placement-api/internal/models"
	appErrors "github.com/campuslink/placement-api/pkg/errors"
)

type driveRepository interface {
	List(ctx context.Context, orgID string, filter models.DriveFilter) ([]models.Drive, int, error)
	FindByID(ctx context.Context, orgID, id string) (*models.Drive, error)
	Create(ctx context.Context, drive *models.Drive) error
	Update(ctx context.Context, drive *models.Drive, expectedVersion int) error
	Delete(ctx context.Context, orgID, id string) error
}

// DriveRequest holds the writable fields of a drive. Create and update share
// the same shape and the same validation rules.
type DriveRequest struct {
	Title                string             `json:"title"`
	Company              string             `json:"company"`
	Role                 string             `json:"role"`
	SalaryPackage        string             `json:"salary_package"`
	DriveDate            time.Time          `json:"drive_date"`
	DriveTime            string             `json:"drive_time"`
	Mode                 string             `json:"mode"`
	Location             string             `json:"location"`
	EligibilityCriteria  string             `json:"eligibility_criteria"`
	Requirements         string             `json:"requirements"`
	Description          string             `json:"description"`
	PositionsAvailable   int                `json:"positions_available"`
	RegistrationDeadline time.Time          `json:"registration_deadline"`
	Status               models.DriveStatus `json:"status"`
	ExpectedVersion      int                `json:"expected_version"`
}

// DriveService owns the drive lifecycle: it is the only writer of drive
// records.
type DriveService struct {
	repo   driveRepository
	cache  *CacheService
	logger *zap.Logger
}

// NewDriveService constructs the drive service.
func NewDriveService(repo driveRepository, cache *CacheService, logger *zap.Logger) *DriveService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DriveService{repo: repo, cache: cache, logger: logger}
}

// validateDrive returns a field-keyed map of rule violations. The map is
// empty for valid input, and identical input always yields identical output.
func validateDrive(req DriveRequest) map[string]string {
	fields := make(map[string]string)

	if len(strings.TrimSpace(req.Title)) < 3 {
		fields["title"] = "title must be at least 3 characters"
	}
	if len(strings.TrimSpace(req.Company)) < 2 {
		fields["company"] = "company must be at least 2 characters"
	}
	if len(strings.TrimSpace(req.Role)) < 2 {
		fields["role"] = "role must be at least 2 characters"
	}
	if req.DriveDate.IsZero() {
		fields["drive_date"] = "drive date is required"
	}
	if strings.TrimSpace(req.DriveTime) == "" {
		fields["drive_time"] = "drive time is required"
	}
	if strings.TrimSpace(req.EligibilityCriteria) == "" {
		fields["eligibility_criteria"] = "eligibility criteria is required"
	}
	if req.RegistrationDeadline.IsZero() {
		fields["registration_deadline"] = "registration deadline is required"
	}
	if req.PositionsAvailable < 1 {
		fields["positions_available"] = "positions available must be at least 1"
	}
	if !req.DriveDate.IsZero() && !req.RegistrationDeadline.IsZero() && !req.RegistrationDeadline.Before(req.DriveDate) {
		fields["registration_deadline"] = "registration deadline must be before the drive date"
	}
	if req.Status != "" && !req.Status.IsValid() {
		fields["status"] = "status must be one of Draft, Upcoming, Open, Closed, Completed"
	}

	return fields
}

// List returns drives of the organization with pagination metadata.
func (s *DriveService) List(ctx context.Context, orgID string, filter models.DriveFilter) ([]models.Drive, *models.Pagination, error) {
	drives, total, err := s.repo.List(ctx, orgID, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list drives")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return drives, pagination, nil
}

// Get returns a single drive.
func (s *DriveService) Get(ctx context.Context, orgID, id string) (*models.Drive, error) {
	drive, err := s.repo.FindByID(ctx, orgID, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "drive not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load drive")
	}
	return drive, nil
}

// Create validates and persists a new drive. Nothing is written when any
// rule fails; the returned error carries the full field map.
func (s *DriveService) Create(ctx context.Context, orgID string, req DriveRequest) (*models.Drive, error) {
	if fields := validateDrive(req); len(fields) > 0 {
		return nil, appErrors.Validation(fields)
	}

	status := req.Status
	if status == "" {
		status = models.DriveStatusOpen
	}

	drive := &models.Drive{
		OrgID:                orgID,
		Title:                req.Title,
		Company:              req.Company,
		Role:                 req.Role,
		SalaryPackage:        req.SalaryPackage,
		DriveDate:            req.DriveDate,
		DriveTime:            req.DriveTime,
		Mode:                 req.Mode,
		Location:             req.Location,
		EligibilityCriteria:  req.EligibilityCriteria,
		Requirements:         req.Requirements,
		Description:          req.Description,
		PositionsAvailable:   req.PositionsAvailable,
		RegistrationDeadline: req.RegistrationDeadline,
		Status:               status,
	}
	if err := s.repo.Create(ctx, drive); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create drive")
	}
	s.logger.Info("drive created", zap.String("drive_id", drive.ID), zap.String("org_id", orgID))
	return drive, nil
}

// Update applies the request to an existing drive under the same validation
// as Create. A positive ExpectedVersion guards against concurrent edits.
func (s *DriveService) Update(ctx context.Context, orgID, id string, req DriveRequest) (*models.Drive, error) {
	if fields := validateDrive(req); len(fields) > 0 {
		return nil, appErrors.Validation(fields)
	}

	existing, err := s.repo.FindByID(ctx, orgID, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "drive not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load drive")
	}

	drive := *existing
	drive.Title = req.Title
	drive.Company = req.Company
	drive.Role = req.Role
	drive.SalaryPackage = req.SalaryPackage
	drive.DriveDate = req.DriveDate
	drive.DriveTime = req.DriveTime
	drive.Mode = req.Mode
	drive.Location = req.Location
	drive.EligibilityCriteria = req.EligibilityCriteria
	drive.Requirements = req.Requirements
	drive.Description = req.Description
	drive.PositionsAvailable = req.PositionsAvailable
	drive.RegistrationDeadline = req.RegistrationDeadline
	if req.Status != "" {
		drive.Status = req.Status
	}

	if err := s.repo.Update(ctx, &drive, req.ExpectedVersion); err != nil {
		if err == sql.ErrNoRows {
			return nil, s.conflictOrNotFound(ctx, orgID, id)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update drive")
	}

	s.invalidateStatistics(ctx, id)
	return &drive, nil
}

// Delete removes a drive and all of its registrations.
func (s *DriveService) Delete(ctx context.Context, orgID, id string) error {
	if err := s.repo.Delete(ctx, orgID, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "drive not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete drive")
	}
	s.invalidateStatistics(ctx, id)
	s.logger.Info("drive deleted", zap.String("drive_id", id), zap.String("org_id", orgID))
	return nil
}

// ToggleRegistration flips a drive between Open and Closed. Drives in any
// other status are returned unchanged; those transitions go through Update.
func (s *DriveService) ToggleRegistration(ctx context.Context, orgID, id string) (*models.Drive, error) {
	drive, err := s.repo.FindByID(ctx, orgID, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "drive not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load drive")
	}

	switch drive.Status {
	case models.DriveStatusOpen:
		drive.Status = models.DriveStatusClosed
	case models.DriveStatusClosed:
		drive.Status = models.DriveStatusOpen
	default:
		return drive, nil
	}

	if err := s.repo.Update(ctx, drive, drive.Version); err != nil {
		if err == sql.ErrNoRows {
			return nil, s.conflictOrNotFound(ctx, orgID, id)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to toggle drive registration")
	}
	return drive, nil
}

// conflictOrNotFound disambiguates a guarded update that matched no row: the
// drive either vanished or was modified by another operator.
func (s *DriveService) conflictOrNotFound(ctx context.Context, orgID, id string) error {
	if _, err := s.repo.FindByID(ctx, orgID, id); err != nil {
		return appErrors.Clone(appErrors.ErrNotFound, "drive not found")
	}
	return appErrors.Clone(appErrors.ErrConflict, "drive was modified by another operator")
}

func (s *DriveService) invalidateStatistics(ctx context.Context, driveID string) {
	if err := s.cache.Invalidate(ctx, statisticsCacheKey(driveID)); err != nil {
		s.logger.Warn("failed to invalidate drive statistics cache", zap.String("drive_id", driveID), zap.Error(err))
	}
}

func statisticsCacheKey(driveID string) string {
	return fmt.Sprintf("stats:drive:%s", driveID)
}

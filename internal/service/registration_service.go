package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campuslink/placement-api/internal/models"
	appErrors "github.com/campuslink/placement-api/pkg/errors"
)

type registrationRepository interface {
	ListByDrive(ctx context.Context, orgID, driveID string, filter models.RegistrationFilter) ([]models.Registration, int, error)
	ListAllByDrive(ctx context.Context, orgID, driveID string) ([]models.Registration, error)
	FindByID(ctx context.Context, orgID, id string) (*models.Registration, error)
	Create(ctx context.Context, registration *models.Registration) error
	UpdateStatus(ctx context.Context, orgID string, registration *models.Registration, expectedVersion int) error
}

type driveReader interface {
	FindByID(ctx context.Context, orgID, id string) (*models.Drive, error)
}

// RegisterStudentRequest holds the payload for registering a student on a
// drive. CGPA is an open numeric range; the caller validates the scale.
type RegisterStudentRequest struct {
	StudentName string   `json:"student_name" validate:"required"`
	RollNumber  string   `json:"roll_number" validate:"required"`
	Branch      string   `json:"branch"`
	CGPA        *float64 `json:"cgpa"`
	Email       string   `json:"email" validate:"required,email"`
	Phone       string   `json:"phone"`
}

// UpdateRegistrationStatusRequest mutates a registration's outcome. Placement
// fields are merged as given: a nil pointer leaves the stored value alone,
// ClearPlacement drops all three. Setting placement fields never changes the
// status on its own.
type UpdateRegistrationStatusRequest struct {
	Status          models.RegistrationStatus `json:"status" validate:"required"`
	PlacedPackage   *string                   `json:"placed_package"`
	StartDate       *time.Time                `json:"start_date"`
	PlacedDate      *time.Time                `json:"placed_date"`
	ClearPlacement  bool                      `json:"clear_placement"`
	ExpectedVersion int                       `json:"expected_version"`
}

// RegistrationService owns registration writes: student sign-up against open
// drives and outcome changes.
type RegistrationService struct {
	repo      registrationRepository
	drives    driveReader
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRegistrationService constructs the registration service.
func NewRegistrationService(repo registrationRepository, drives driveReader, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *RegistrationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegistrationService{repo: repo, drives: drives, cache: cache, validator: validate, logger: logger}
}

// List returns a drive's registrations with pagination metadata. A missing
// drive is NotFound even when the registration table would simply be empty.
func (s *RegistrationService) List(ctx context.Context, orgID, driveID string, filter models.RegistrationFilter) ([]models.Registration, *models.Pagination, error) {
	if _, err := s.drives.FindByID(ctx, orgID, driveID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "drive not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load drive")
	}
	registrations, total, err := s.repo.ListByDrive(ctx, orgID, driveID, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list registrations")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 50
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return registrations, pagination, nil
}

// ListAll returns every registration of a drive, unpaged. Exports and
// statistics operate on the complete set.
func (s *RegistrationService) ListAll(ctx context.Context, orgID, driveID string) ([]models.Registration, error) {
	if _, err := s.drives.FindByID(ctx, orgID, driveID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "drive not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load drive")
	}
	registrations, err := s.repo.ListAllByDrive(ctx, orgID, driveID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list registrations")
	}
	return registrations, nil
}

// Register creates a registration for a student on an Open drive.
func (s *RegistrationService) Register(ctx context.Context, orgID, driveID string, req RegisterStudentRequest) (*models.Registration, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}

	drive, err := s.drives.FindByID(ctx, orgID, driveID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "drive not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load drive")
	}
	if drive.Status != models.DriveStatusOpen {
		return nil, appErrors.ErrDriveNotOpen
	}

	registration := &models.Registration{
		DriveID:          driveID,
		StudentName:      req.StudentName,
		RollNumber:       req.RollNumber,
		Branch:           req.Branch,
		CGPA:             req.CGPA,
		Email:            req.Email,
		Phone:            req.Phone,
		RegistrationDate: time.Now().UTC(),
		Status:           models.RegistrationStatusRegistered,
	}
	if err := s.repo.Create(ctx, registration); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create registration")
	}

	s.invalidateStatistics(ctx, driveID)
	s.logger.Info("student registered",
		zap.String("registration_id", registration.ID),
		zap.String("drive_id", driveID),
	)
	return registration, nil
}

// UpdateStatus sets a registration's outcome and merges placement fields.
// Every status is reachable from every other so operators can correct
// mistakes; no cross-field inference happens here.
func (s *RegistrationService) UpdateStatus(ctx context.Context, orgID, id string, req UpdateRegistrationStatusRequest) (*models.Registration, error) {
	if !req.Status.IsValid() {
		return nil, appErrors.Clone(appErrors.ErrInvalidStatus, "status must be one of Registered, Selected, Rejected, Waitlisted")
	}

	existing, err := s.repo.FindByID(ctx, orgID, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "registration not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load registration")
	}

	registration := *existing
	registration.Status = req.Status
	if req.ClearPlacement {
		registration.PlacedPackage = nil
		registration.StartDate = nil
		registration.PlacedDate = nil
	}
	if req.PlacedPackage != nil {
		registration.PlacedPackage = req.PlacedPackage
	}
	if req.StartDate != nil {
		registration.StartDate = req.StartDate
	}
	if req.PlacedDate != nil {
		registration.PlacedDate = req.PlacedDate
	}

	if err := s.repo.UpdateStatus(ctx, orgID, &registration, req.ExpectedVersion); err != nil {
		if err == sql.ErrNoRows {
			if _, findErr := s.repo.FindByID(ctx, orgID, id); findErr != nil {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "registration not found")
			}
			return nil, appErrors.Clone(appErrors.ErrConflict, "registration was modified by another operator")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update registration status")
	}

	s.invalidateStatistics(ctx, registration.DriveID)
	return &registration, nil
}

func (s *RegistrationService) invalidateStatistics(ctx context.Context, driveID string) {
	if err := s.cache.Invalidate(ctx, statisticsCacheKey(driveID)); err != nil {
		s.logger.Warn("failed to invalidate drive statistics cache", zap.String("drive_id", driveID), zap.Error(err))
	}
}

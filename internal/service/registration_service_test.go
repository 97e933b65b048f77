package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campuslink/placement-api/internal/models"
	appErrors "github.com/campuslink/placement-api/pkg/errors"
)

type mockRegistrationRepo struct {
	registrations map[string]models.Registration
	orgID         string
	err           error
}

func (m *mockRegistrationRepo) ListByDrive(ctx context.Context, orgID, driveID string, filter models.RegistrationFilter) ([]models.Registration, int, error) {
	if m.err != nil {
		return nil, 0, m.err
	}
	regs := m.matching(orgID, driveID)
	if filter.Status != "" {
		filtered := regs[:0]
		for _, reg := range regs {
			if reg.Status == filter.Status {
				filtered = append(filtered, reg)
			}
		}
		regs = filtered
	}
	return regs, len(regs), nil
}

func (m *mockRegistrationRepo) ListAllByDrive(ctx context.Context, orgID, driveID string) ([]models.Registration, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.matching(orgID, driveID), nil
}

func (m *mockRegistrationRepo) matching(orgID, driveID string) []models.Registration {
	regs := make([]models.Registration, 0, len(m.registrations))
	if m.orgID != "" && m.orgID != orgID {
		return regs
	}
	for _, reg := range m.registrations {
		if reg.DriveID == driveID {
			regs = append(regs, reg)
		}
	}
	return regs
}

func (m *mockRegistrationRepo) FindByID(ctx context.Context, orgID, id string) (*models.Registration, error) {
	if m.orgID != "" && m.orgID != orgID {
		return nil, sql.ErrNoRows
	}
	if reg, ok := m.registrations[id]; ok {
		copy := reg
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockRegistrationRepo) Create(ctx context.Context, registration *models.Registration) error {
	if m.registrations == nil {
		m.registrations = make(map[string]models.Registration)
	}
	if registration.ID == "" {
		registration.ID = uuid.NewString()
	}
	if registration.Version == 0 {
		registration.Version = 1
	}
	m.registrations[registration.ID] = *registration
	return nil
}

func (m *mockRegistrationRepo) UpdateStatus(ctx context.Context, orgID string, registration *models.Registration, expectedVersion int) error {
	stored, ok := m.registrations[registration.ID]
	if !ok || (m.orgID != "" && m.orgID != orgID) {
		return sql.ErrNoRows
	}
	if expectedVersion > 0 && stored.Version != expectedVersion {
		return sql.ErrNoRows
	}
	registration.Version = stored.Version + 1
	m.registrations[registration.ID] = *registration
	return nil
}

func newRegistrationFixture(t *testing.T, driveStatus models.DriveStatus) (*RegistrationService, *mockRegistrationRepo, *mockDriveRepo) {
	t.Helper()
	driveRepo := &mockDriveRepo{drives: map[string]models.Drive{
		"drive1": {ID: "drive1", OrgID: "org1", Title: "Campus Drive", Status: driveStatus, Version: 1},
	}}
	regRepo := &mockRegistrationRepo{}
	svc := NewRegistrationService(regRepo, driveRepo, nil, validator.New(), zap.NewNop())
	return svc, regRepo, driveRepo
}

func studentRequest(name string) RegisterStudentRequest {
	cgpa := 8.5
	return RegisterStudentRequest{
		StudentName: name,
		RollNumber:  "21CS001",
		Branch:      "CSE",
		CGPA:        &cgpa,
		Email:       "student@college.edu",
		Phone:       "9999999999",
	}
}

func TestRegistrationServiceRegister(t *testing.T) {
	svc, regRepo, _ := newRegistrationFixture(t, models.DriveStatusOpen)

	for _, name := range []string{"Asha", "Bala", "Chitra"} {
		reg, err := svc.Register(context.Background(), "org1", "drive1", studentRequest(name))
		require.NoError(t, err)
		assert.Equal(t, models.RegistrationStatusRegistered, reg.Status)
		assert.False(t, reg.RegistrationDate.IsZero())
	}
	assert.Len(t, regRepo.registrations, 3)
}

func TestRegistrationServiceRegisterDriveNotOpen(t *testing.T) {
	for _, status := range []models.DriveStatus{models.DriveStatusDraft, models.DriveStatusUpcoming, models.DriveStatusClosed, models.DriveStatusCompleted} {
		svc, regRepo, _ := newRegistrationFixture(t, status)

		_, err := svc.Register(context.Background(), "org1", "drive1", studentRequest("Asha"))
		require.Error(t, err, "status %s must reject registration", status)
		assert.Equal(t, appErrors.ErrDriveNotOpen.Code, appErrors.FromError(err).Code)
		assert.Empty(t, regRepo.registrations)
	}
}

func TestRegistrationServiceRegisterDriveNotFound(t *testing.T) {
	svc, _, _ := newRegistrationFixture(t, models.DriveStatusOpen)

	_, err := svc.Register(context.Background(), "org1", "missing", studentRequest("Asha"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestRegistrationServiceRegisterCrossOrgRejected(t *testing.T) {
	svc, _, _ := newRegistrationFixture(t, models.DriveStatusOpen)

	_, err := svc.Register(context.Background(), "org2", "drive1", studentRequest("Asha"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestRegistrationServiceUpdateStatusReassignable(t *testing.T) {
	svc, _, _ := newRegistrationFixture(t, models.DriveStatusOpen)
	reg, err := svc.Register(context.Background(), "org1", "drive1", studentRequest("Asha"))
	require.NoError(t, err)

	for _, status := range []models.RegistrationStatus{
		models.RegistrationStatusSelected,
		models.RegistrationStatusRejected,
		models.RegistrationStatusRegistered,
		models.RegistrationStatusSelected,
	} {
		updated, err := svc.UpdateStatus(context.Background(), "org1", reg.ID, UpdateRegistrationStatusRequest{Status: status})
		require.NoError(t, err)
		assert.Equal(t, status, updated.Status)
	}
}

func TestRegistrationServiceUpdateStatusInvalid(t *testing.T) {
	svc, _, _ := newRegistrationFixture(t, models.DriveStatusOpen)
	reg, err := svc.Register(context.Background(), "org1", "drive1", studentRequest("Asha"))
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), "org1", reg.ID, UpdateRegistrationStatusRequest{Status: "Hired"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidStatus.Code, appErrors.FromError(err).Code)
}

func TestRegistrationServiceUpdateStatusNotFound(t *testing.T) {
	svc, _, _ := newRegistrationFixture(t, models.DriveStatusOpen)

	_, err := svc.UpdateStatus(context.Background(), "org1", "missing", UpdateRegistrationStatusRequest{Status: models.RegistrationStatusSelected})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestRegistrationServicePlacementWithoutStatusChange(t *testing.T) {
	svc, _, _ := newRegistrationFixture(t, models.DriveStatusOpen)
	reg, err := svc.Register(context.Background(), "org1", "drive1", studentRequest("Asha"))
	require.NoError(t, err)

	pkg := "12 LPA"
	start := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	updated, err := svc.UpdateStatus(context.Background(), "org1", reg.ID, UpdateRegistrationStatusRequest{
		Status:        models.RegistrationStatusRegistered,
		PlacedPackage: &pkg,
		StartDate:     &start,
	})
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationStatusRegistered, updated.Status, "placement fields never imply a status change")
	require.NotNil(t, updated.PlacedPackage)
	assert.Equal(t, "12 LPA", *updated.PlacedPackage)
}

func TestRegistrationServiceClearPlacement(t *testing.T) {
	svc, _, _ := newRegistrationFixture(t, models.DriveStatusOpen)
	reg, err := svc.Register(context.Background(), "org1", "drive1", studentRequest("Asha"))
	require.NoError(t, err)

	pkg := "12 LPA"
	_, err = svc.UpdateStatus(context.Background(), "org1", reg.ID, UpdateRegistrationStatusRequest{
		Status:        models.RegistrationStatusSelected,
		PlacedPackage: &pkg,
	})
	require.NoError(t, err)

	updated, err := svc.UpdateStatus(context.Background(), "org1", reg.ID, UpdateRegistrationStatusRequest{
		Status:         models.RegistrationStatusRejected,
		ClearPlacement: true,
	})
	require.NoError(t, err)
	assert.Nil(t, updated.PlacedPackage)
	assert.Nil(t, updated.StartDate)
	assert.Nil(t, updated.PlacedDate)
}

func TestRegistrationServiceUpdateStatusVersionConflict(t *testing.T) {
	svc, _, _ := newRegistrationFixture(t, models.DriveStatusOpen)
	reg, err := svc.Register(context.Background(), "org1", "drive1", studentRequest("Asha"))
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), "org1", reg.ID, UpdateRegistrationStatusRequest{
		Status:          models.RegistrationStatusSelected,
		ExpectedVersion: reg.Version + 5,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestRegistrationServiceListDriveNotFound(t *testing.T) {
	svc, _, _ := newRegistrationFixture(t, models.DriveStatusOpen)

	_, _, err := svc.List(context.Background(), "org1", "missing", models.RegistrationFilter{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

package service

import (
	"context"
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campuslink/placement-api/internal/models"
	appErrors "github.com/campuslink/placement-api/pkg/errors"
)

func regWith(status models.RegistrationStatus, branch string, cgpa *float64) models.Registration {
	return models.Registration{
		DriveID:          "drive1",
		StudentName:      "Student",
		Branch:           branch,
		CGPA:             cgpa,
		Status:           status,
		RegistrationDate: time.Date(2025, 5, 2, 0, 0, 0, 0, time.UTC),
	}
}

func f(v float64) *float64 { return &v }

func TestComputeEmpty(t *testing.T) {
	stats := Compute(nil)
	assert.Equal(t, 0, stats.Total)
	assert.Equal(t, 0.0, stats.AverageCGPA, "no valid cgpa values must yield 0, not NaN")
}

func TestComputeStatusTally(t *testing.T) {
	regs := []models.Registration{
		regWith(models.RegistrationStatusSelected, "", nil),
		regWith(models.RegistrationStatusSelected, "", nil),
		regWith(models.RegistrationStatusRejected, "", nil),
		regWith(models.RegistrationStatusWaitlisted, "", nil),
		regWith(models.RegistrationStatusRegistered, "", nil),
	}
	stats := Compute(regs)
	assert.Equal(t, 5, stats.Total)
	assert.Equal(t, 2, stats.Selected)
	assert.Equal(t, 1, stats.Rejected)
	assert.Equal(t, 1, stats.Waitlisted)
	assert.Equal(t, 1, stats.Registered)
	assert.Equal(t, stats.Total, stats.Selected+stats.Rejected+stats.Waitlisted+stats.Registered)
}

func TestComputeUnknownStatusCountsAsRegistered(t *testing.T) {
	regs := []models.Registration{
		regWith("Shortlisted", "", nil),
		regWith("", "", nil),
	}
	stats := Compute(regs)
	assert.Equal(t, 2, stats.Registered)
	assert.Equal(t, stats.Total, stats.Registered)
}

func TestComputeBranchBuckets(t *testing.T) {
	regs := []models.Registration{
		regWith(models.RegistrationStatusRegistered, "Computer Science", nil),
		regWith(models.RegistrationStatusRegistered, "CSE", nil),
		regWith(models.RegistrationStatusRegistered, "Information Technology", nil),
		regWith(models.RegistrationStatusRegistered, "Mechanical", nil),
	}
	stats := Compute(regs)
	assert.Equal(t, 2, stats.CSEStudents)
	assert.Equal(t, 1, stats.ITStudents)
}

func TestComputeBranchBucketPriority(t *testing.T) {
	// "computer" matches the cse tokens before "it" ever gets checked, so a
	// branch like "Computer Information Systems" lands in the cse bucket only.
	stats := Compute([]models.Registration{
		regWith(models.RegistrationStatusRegistered, "Computer Information Systems", nil),
	})
	assert.Equal(t, 1, stats.CSEStudents)
	assert.Equal(t, 0, stats.ITStudents)
}

func TestComputeAverageCGPA(t *testing.T) {
	regs := []models.Registration{
		regWith(models.RegistrationStatusRegistered, "", f(8.0)),
		regWith(models.RegistrationStatusRegistered, "", f(9.5)),
		regWith(models.RegistrationStatusRegistered, "", nil),
		regWith(models.RegistrationStatusRegistered, "", f(math.NaN())),
	}
	stats := Compute(regs)
	assert.Equal(t, 8.75, stats.AverageCGPA)
}

func TestComputeAverageCGPARounding(t *testing.T) {
	regs := []models.Registration{
		regWith(models.RegistrationStatusRegistered, "", f(7.0)),
		regWith(models.RegistrationStatusRegistered, "", f(8.0)),
		regWith(models.RegistrationStatusRegistered, "", f(8.0)),
	}
	stats := Compute(regs)
	assert.Equal(t, 7.67, stats.AverageCGPA)
}

func TestComputeDeterministic(t *testing.T) {
	regs := []models.Registration{
		regWith(models.RegistrationStatusSelected, "CSE", f(8.2)),
		regWith(models.RegistrationStatusRejected, "IT", f(6.9)),
		regWith(models.RegistrationStatusRegistered, "Mechanical", nil),
	}
	first := Compute(regs)
	second := Compute(regs)
	assert.Equal(t, first, second)
}

type stubCacheRepo struct {
	store       map[string][]byte
	invalidated []string
}

func (s *stubCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	payload, ok := s.store[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(payload, dest)
}

func (s *stubCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	if s.store == nil {
		s.store = make(map[string][]byte)
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.store[key] = payload
	return nil
}

func (s *stubCacheRepo) DeleteByPattern(_ context.Context, pattern string) error {
	s.invalidated = append(s.invalidated, pattern)
	delete(s.store, pattern)
	return nil
}

func TestStatisticsServiceForDriveCaches(t *testing.T) {
	driveRepo := &mockDriveRepo{drives: map[string]models.Drive{
		"drive1": {ID: "drive1", OrgID: "org1", Status: models.DriveStatusOpen, Version: 1},
	}}
	regRepo := &mockRegistrationRepo{registrations: map[string]models.Registration{
		"r1": {ID: "r1", DriveID: "drive1", Status: models.RegistrationStatusSelected},
	}}
	cacheRepo := &stubCacheRepo{}
	cacheSvc := NewCacheService(cacheRepo, nil, time.Minute, zap.NewNop(), true)
	svc := NewStatisticsService(regRepo, driveRepo, cacheSvc, zap.NewNop())

	first, err := svc.ForDrive(context.Background(), "org1", "drive1")
	require.NoError(t, err)
	assert.Equal(t, 1, first.Selected)
	assert.Contains(t, cacheRepo.store, statisticsCacheKey("drive1"))

	// Mutate behind the cache; the cached value is served until invalidated.
	regRepo.registrations["r2"] = models.Registration{ID: "r2", DriveID: "drive1", Status: models.RegistrationStatusRejected}
	second, err := svc.ForDrive(context.Background(), "org1", "drive1")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	require.NoError(t, cacheSvc.Invalidate(context.Background(), statisticsCacheKey("drive1")))
	third, err := svc.ForDrive(context.Background(), "org1", "drive1")
	require.NoError(t, err)
	assert.Equal(t, 2, third.Total)
}

func TestStatisticsServiceReadAfterWrite(t *testing.T) {
	driveRepo := &mockDriveRepo{drives: map[string]models.Drive{
		"drive1": {ID: "drive1", OrgID: "org1", Status: models.DriveStatusOpen, Version: 1},
	}}
	regRepo := &mockRegistrationRepo{}
	cacheRepo := &stubCacheRepo{}
	cacheSvc := NewCacheService(cacheRepo, nil, time.Minute, zap.NewNop(), true)

	statsSvc := NewStatisticsService(regRepo, driveRepo, cacheSvc, zap.NewNop())
	regSvc := NewRegistrationService(regRepo, driveRepo, cacheSvc, nil, zap.NewNop())

	before, err := statsSvc.ForDrive(context.Background(), "org1", "drive1")
	require.NoError(t, err)
	assert.Equal(t, 0, before.Total)

	_, err = regSvc.Register(context.Background(), "org1", "drive1", studentRequest("Asha"))
	require.NoError(t, err)

	after, err := statsSvc.ForDrive(context.Background(), "org1", "drive1")
	require.NoError(t, err)
	assert.Equal(t, 1, after.Total, "registration write must be visible on the next statistics read")
}

func TestStatisticsServiceForDriveNotFound(t *testing.T) {
	driveRepo := &mockDriveRepo{}
	svc := NewStatisticsService(&mockRegistrationRepo{}, driveRepo, nil, zap.NewNop())

	_, err := svc.ForDrive(context.Background(), "org1", "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

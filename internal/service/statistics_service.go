package service

import (
	"context"
	"database/sql"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/campuslink/placement-api/internal/models"
	appErrors "github.com/campuslink/placement-api/pkg/errors"
)

// Branch bucket membership is a case-insensitive substring match. The cse
// tokens are checked first and a branch counts toward at most one bucket.
var (
	cseBranchTokens = []string{"cse", "computer"}
	itBranchTokens  = []string{"it", "information"}
)

// StatisticsService derives summary statistics from a drive's registration
// set. Compute is pure; ForDrive adds loading and caching around it.
type StatisticsService struct {
	registrations registrationRepository
	drives        driveReader
	cache         *CacheService
	logger        *zap.Logger
}

// NewStatisticsService constructs the statistics service.
func NewStatisticsService(registrations registrationRepository, drives driveReader, cache *CacheService, logger *zap.Logger) *StatisticsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatisticsService{registrations: registrations, drives: drives, cache: cache, logger: logger}
}

// Compute tallies a registration list in a single pass. The output depends
// only on the input: recomputing over the same list yields identical
// results. Records with a status outside the four canonical values count as
// registered rather than failing the whole aggregation.
func Compute(registrations []models.Registration) models.DriveStatistics {
	stats := models.DriveStatistics{Total: len(registrations)}

	var cgpaSum float64
	var cgpaCount int

	for _, reg := range registrations {
		switch reg.Status {
		case models.RegistrationStatusSelected:
			stats.Selected++
		case models.RegistrationStatusRejected:
			stats.Rejected++
		case models.RegistrationStatusWaitlisted:
			stats.Waitlisted++
		default:
			stats.Registered++
		}

		if branch := strings.ToLower(reg.Branch); branch != "" {
			if containsAny(branch, cseBranchTokens) {
				stats.CSEStudents++
			} else if containsAny(branch, itBranchTokens) {
				stats.ITStudents++
			}
		}

		if reg.CGPA != nil && !math.IsNaN(*reg.CGPA) {
			cgpaSum += *reg.CGPA
			cgpaCount++
		}
	}

	if cgpaCount > 0 {
		stats.AverageCGPA = math.Round(cgpaSum/float64(cgpaCount)*100) / 100
	}

	return stats
}

func containsAny(s string, tokens []string) bool {
	for _, token := range tokens {
		if strings.Contains(s, token) {
			return true
		}
	}
	return false
}

// ForDrive computes statistics over the drive's current registrations. The
// result may be served from cache; every registration or drive mutation
// invalidates the entry, so a read after a write always reflects the write.
func (s *StatisticsService) ForDrive(ctx context.Context, orgID, driveID string) (*models.DriveStatistics, error) {
	if _, err := s.drives.FindByID(ctx, orgID, driveID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "drive not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load drive")
	}

	cacheKey := statisticsCacheKey(driveID)
	var cached models.DriveStatistics
	if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
		return &cached, nil
	}

	registrations, err := s.registrations.ListAllByDrive(ctx, orgID, driveID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load registrations")
	}

	stats := Compute(registrations)
	if err := s.cache.Set(ctx, cacheKey, stats, 0); err != nil {
		s.logger.Warn("failed to cache drive statistics", zap.String("drive_id", driveID), zap.Error(err))
	}
	return &stats, nil
}

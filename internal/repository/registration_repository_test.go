package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuslink/placement-api/internal/models"
)

func registrationRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "drive_id", "student_name", "roll_number", "branch", "cgpa", "email", "phone",
		"registration_date", "status", "placed_package", "start_date", "placed_date", "version", "created_at", "updated_at",
	})
}

func TestRegistrationRepositoryListByDrive(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	rows := registrationRows().AddRow(
		"r1", "d1", "Asha", "21CS001", "CSE", 8.5, "asha@college.edu", "111",
		time.Now(), "Registered", nil, nil, nil, 1, time.Now(), time.Now(),
	)
	mock.ExpectQuery("FROM registrations r JOIN drives d ON d.id = r.drive_id WHERE r.drive_id = \\$1 AND d.org_id = \\$2").
		WithArgs("d1", "org1").
		WillReturnRows(rows)
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM registrations r JOIN drives d").
		WithArgs("d1", "org1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	regs, total, err := repo.ListByDrive(context.Background(), "org1", "d1", models.RegistrationFilter{})
	require.NoError(t, err)
	require.Len(t, regs, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, "Asha", regs[0].StudentName)
	require.NotNil(t, regs[0].CGPA)
	assert.Equal(t, 8.5, *regs[0].CGPA)
	assert.Nil(t, regs[0].PlacedPackage)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepositoryListByDriveStatusFilter(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	mock.ExpectQuery("AND d.org_id = \\$2 AND r.status = \\$3").
		WithArgs("d1", "org1", "Selected").
		WillReturnRows(registrationRows())
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM registrations r").
		WithArgs("d1", "org1", "Selected").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	_, _, err := repo.ListByDrive(context.Background(), "org1", "d1", models.RegistrationFilter{Status: models.RegistrationStatusSelected})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	mock.ExpectExec("INSERT INTO registrations").
		WillReturnResult(sqlmock.NewResult(1, 1))

	reg := &models.Registration{
		DriveID:          "d1",
		StudentName:      "Asha",
		RollNumber:       "21CS001",
		Status:           models.RegistrationStatusRegistered,
		RegistrationDate: time.Now(),
	}
	err := repo.Create(context.Background(), reg)
	require.NoError(t, err)
	assert.NotEmpty(t, reg.ID)
	assert.Equal(t, 1, reg.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	mock.ExpectQuery("UPDATE registrations SET status = \\$3").
		WithArgs("r1", "org1", "Selected", nil, nil, nil, sqlmock.AnyArg(), 1).
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(2))

	reg := &models.Registration{ID: "r1", Status: models.RegistrationStatusSelected, Version: 1}
	err := repo.UpdateStatus(context.Background(), "org1", reg, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, reg.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepositoryUpdateStatusVersionMismatch(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	mock.ExpectQuery("UPDATE registrations SET status = \\$3").
		WillReturnRows(sqlmock.NewRows([]string{"version"}))

	reg := &models.Registration{ID: "r1", Status: models.RegistrationStatusSelected, Version: 1}
	err := repo.UpdateStatus(context.Background(), "org1", reg, 9)
	assert.Equal(t, sql.ErrNoRows, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepositoryCountByDrive(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM registrations r JOIN drives d").
		WithArgs("d1", "org1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	total, err := repo.CountByDrive(context.Background(), "org1", "d1")
	require.NoError(t, err)
	assert.Equal(t, 7, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

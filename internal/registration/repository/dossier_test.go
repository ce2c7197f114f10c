package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/vacme/vacme-backend/internal/registration/domain"
	"github.com/vacme/vacme-backend/internal/registration/repository"
	"github.com/vacme/vacme-backend/pkg/errors"
	"github.com/vacme/vacme-backend/pkg/tenant"
	"github.com/vacme/vacme-backend/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTenantID = "6f2d9d10-4c7e-4b1f-9a57-0f6a2e6c1a11"

func tenantCtx() context.Context {
	return tenant.WithTenantContext(context.Background(), testTenantID, "be", "canton_be")
}

func TestGetByRegistrationNumber(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	start := time.Date(2021, time.June, 10, 9, 0, 0, 0, time.UTC)

	mockDB.ExpectTenantTx(testTenantID)
	mockDB.ExpectQuery("SELECT registration_number, disease, status, self_pay_confirmed").
		WillReturnRows(testutil.MockRows("registration_number", "disease", "status", "self_pay_confirmed").
			AddRow("ABCDEF", "COVID-19", "BOOKED", false))
	mockDB.ExpectQuery("SELECT s.id, s.location_id, l.name AS location_name").
		WillReturnRows(testutil.MockRows("id", "location_id", "location_name", "dose_sequence", "start_time", "end_time").
			AddRow("slot-1", "loc-1", "Impfzentrum Bern", "DOSE_1", start, start.Add(30*time.Minute)).
			AddRow("slot-2", "loc-1", "Impfzentrum Bern", "DOSE_2", start.AddDate(0, 0, 28), start.AddDate(0, 0, 28).Add(30*time.Minute)))
	mockDB.ExpectCommit()

	repo := repository.NewDossierRepository(mockDB.DB)
	dossier, err := repo.GetByRegistrationNumber(tenantCtx(), "ABCDEF", "COVID-19")
	require.NoError(t, err)

	assert.Equal(t, "ABCDEF", dossier.RegistrationNumber)
	assert.Equal(t, domain.StatusBooked, dossier.Status)
	require.NotNil(t, dossier.Slot1)
	assert.Equal(t, "slot-1", dossier.Slot1.ID)
	assert.Equal(t, "Impfzentrum Bern", dossier.Slot1.LocationName)
	require.NotNil(t, dossier.Slot2)
	assert.Equal(t, domain.Dose2, dossier.Slot2.Sequence)
	assert.Nil(t, dossier.SlotBooster)

	mockDB.ExpectationsWereMet(t)
}

func TestGetByRegistrationNumber_NotFound(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	mockDB.ExpectTenantQueryRollback(testTenantID,
		"SELECT registration_number, disease, status, self_pay_confirmed",
		testutil.MockRows("registration_number", "disease", "status", "self_pay_confirmed"))

	repo := repository.NewDossierRepository(mockDB.DB)
	_, err := repo.GetByRegistrationNumber(tenantCtx(), "NOPE42", "COVID-19")
	require.Error(t, err)

	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "NOT_FOUND", appErr.Code)

	mockDB.ExpectationsWereMet(t)
}

func TestUpdateStatus(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	mockDB.ExpectTenantExec(testTenantID, "UPDATE dossiers", sqlmock.NewResult(0, 1))

	repo := repository.NewDossierRepository(mockDB.DB)
	err := repo.UpdateStatus(tenantCtx(), "ABCDEF", "COVID-19", domain.StatusBooked)
	require.NoError(t, err)

	mockDB.ExpectationsWereMet(t)
}

func TestUpdateStatus_NotFound(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	mockDB.ExpectTenantExecRollback(testTenantID, "UPDATE dossiers", sqlmock.NewResult(0, 0))

	repo := repository.NewDossierRepository(mockDB.DB)
	err := repo.UpdateStatus(tenantCtx(), "NOPE42", "COVID-19", domain.StatusBooked)
	require.Error(t, err)

	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "NOT_FOUND", appErr.Code)

	mockDB.ExpectationsWereMet(t)
}

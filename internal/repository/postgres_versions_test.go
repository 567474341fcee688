package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/raviakasapu/generative-planner-vision-sub000/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateVersion_CopiesBaseInOneTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO masterversiondimension`).
		WithArgs("Forecast", nil, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("v-dst"))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT copy_version_data($1, $2)`)).
		WithArgs("v-src", "v-dst").
		WillReturnRows(sqlmock.NewRows([]string{"copy_version_data"}).AddRow(12))
	mock.ExpectCommit()

	base := "v-src"
	id, n, err := NewPostgresVersionsRepository(db).CreateVersion(context.Background(),
		&domain.DimensionMember{Type: domain.DimensionVersion, BusinessID: "Forecast"}, &base)
	require.NoError(t, err)
	assert.Equal(t, "v-dst", id)
	assert.Equal(t, 12, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateVersion_CopyFailureRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO masterversiondimension`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("v-dst"))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT copy_version_data($1, $2)`)).
		WithArgs("v-src", "v-dst").
		WillReturnError(errors.New("deadlock detected"))
	mock.ExpectRollback()

	base := "v-src"
	id, n, err := NewPostgresVersionsRepository(db).CreateVersion(context.Background(),
		&domain.DimensionMember{Type: domain.DimensionVersion, BusinessID: "Forecast"}, &base)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to copy version data")
	assert.Empty(t, id)
	assert.Zero(t, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListStatusChanges_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`FROM version_status_history`).
		WithArgs("v1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "version_id", "from_status", "to_status", "changed_by", "comment", "changed_at"}).
			AddRow("h1", "v1", "draft", "in_review", "u1", "ready", now).
			AddRow("h2", "v1", "in_review", "approved", "admin", nil, now))

	changes, err := NewPostgresVersionsRepository(db).ListStatusChanges(context.Background(), "v1")
	require.NoError(t, err)
	require.Len(t, changes, 2)
	assert.Equal(t, domain.VersionInReview, changes[0].ToStatus)
	require.NotNil(t, changes[0].Comment)
	assert.Equal(t, "ready", *changes[0].Comment)
	assert.Nil(t, changes[1].Comment)
	require.NoError(t, mock.ExpectationsWereMet())
}

func statusChange() *domain.VersionStatusChange {
	return &domain.VersionStatusChange{
		VersionID:  "v1",
		FromStatus: domain.VersionDraft,
		ToStatus:   domain.VersionInReview,
		ChangedBy:  "u1",
	}
}

func TestApplyStatusChange_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`COALESCE(attributes->>'version_status', 'draft') = $3`)).
		WithArgs("v1", "in_review", "draft").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO version_status_history`).
		WithArgs("v1", "draft", "in_review", "u1", nil).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("h1"))
	mock.ExpectCommit()

	id, err := NewPostgresVersionsRepository(db).ApplyStatusChange(context.Background(), statusChange())
	require.NoError(t, err)
	assert.Equal(t, "h1", id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyStatusChange_StaleFromStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE masterversiondimension`).
		WithArgs("v1", "in_review", "draft").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err = NewPostgresVersionsRepository(db).ApplyStatusChange(context.Background(), statusChange())
	assert.ErrorIs(t, err, ErrStatusConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyStatusChange_HistoryFailureRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE masterversiondimension`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO version_status_history`).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err = NewPostgresVersionsRepository(db).ApplyStatusChange(context.Background(), statusChange())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to record version status change")
	require.NoError(t, mock.ExpectationsWereMet())
}

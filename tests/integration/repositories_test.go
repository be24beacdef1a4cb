package integration

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caremypark/api/internal/models"
)

var testDB *TestDB

func TestMain(m *testing.M) {
	ctx := context.Background()

	db, err := SetupTestDatabase(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up test database: %v\n", err)
		os.Exit(1)
	}
	testDB = db

	code := m.Run()

	_ = testDB.Teardown(ctx)
	os.Exit(code)
}

func resetDatabase(t *testing.T) {
	t.Helper()
	require.NoError(t, testDB.CleanupTables(context.Background()))
}

func newReport(referenceID, userEmail string) *models.Report {
	now := time.Now().UTC()
	return &models.Report{
		ReferenceID: referenceID,
		UserEmail:   userEmail,
		ProblemType: "broken_bench",
		Description: "integration test report",
		Location:    "East gate",
		Status:      models.StatusSubmitted,
		Priority:    models.PriorityMedium,
		Photos:      []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestUserRepository_CreateAndGet(t *testing.T) {
	resetDatabase(t)
	ctx := context.Background()
	userRepo, _ := InitializeRepositories(testDB.DB)

	created, err := userRepo.Create(ctx, &models.User{
		Email:        "alice@example.com",
		PasswordHash: "hash",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, models.RoleVisitor, created.Role)

	fetched, err := userRepo.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, fetched.ID)
	assert.False(t, fetched.TwoFactorEnabled)
	assert.Nil(t, fetched.LastLogin)

	_, err = userRepo.GetByEmail(ctx, "ghost@example.com")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestUserRepository_DuplicateEmail(t *testing.T) {
	resetDatabase(t)
	ctx := context.Background()
	userRepo, _ := InitializeRepositories(testDB.DB)

	_, err := userRepo.Create(ctx, &models.User{Email: "alice@example.com", PasswordHash: "hash"})
	require.NoError(t, err)

	_, err = userRepo.Create(ctx, &models.User{Email: "alice@example.com", PasswordHash: "hash"})
	assert.ErrorIs(t, err, models.ErrConflict)
}

func TestUserRepository_EnableTwoFactor(t *testing.T) {
	resetDatabase(t)
	ctx := context.Background()
	userRepo, _ := InitializeRepositories(testDB.DB)

	_, err := userRepo.Create(ctx, &models.User{Email: "alice@example.com", PasswordHash: "hash"})
	require.NoError(t, err)

	require.NoError(t, userRepo.EnableTwoFactor(ctx, "alice@example.com", "JBSWY3DPEHPK3PXP"))

	user, err := userRepo.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.True(t, user.TwoFactorEnabled)
	assert.Equal(t, "JBSWY3DPEHPK3PXP", user.OTPSecret)

	assert.ErrorIs(t, userRepo.EnableTwoFactor(ctx, "ghost@example.com", "x"), models.ErrNotFound)
}

func TestUserRepository_UpdateLastLogin(t *testing.T) {
	resetDatabase(t)
	ctx := context.Background()
	userRepo, _ := InitializeRepositories(testDB.DB)

	_, err := userRepo.Create(ctx, &models.User{Email: "alice@example.com", PasswordHash: "hash"})
	require.NoError(t, err)

	at := time.Now().UTC().Truncate(time.Millisecond)
	require.NoError(t, userRepo.UpdateLastLogin(ctx, "alice@example.com", at))

	user, err := userRepo.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.NotNil(t, user.LastLogin)
	assert.WithinDuration(t, at, *user.LastLogin, time.Second)
}

func TestReportRepository_ReferenceIDUniqueness(t *testing.T) {
	resetDatabase(t)
	ctx := context.Background()
	_, reportRepo := InitializeRepositories(testDB.DB)

	refID := TestReferenceID("AAAAAA")

	_, err := reportRepo.Create(ctx, newReport(refID, "alice@example.com"))
	require.NoError(t, err)

	// Same reference id must be rejected by the unique constraint
	_, err = reportRepo.Create(ctx, newReport(refID, "bob@example.com"))
	assert.ErrorIs(t, err, models.ErrConflict)
}

func TestReportRepository_UpdateStatus(t *testing.T) {
	resetDatabase(t)
	ctx := context.Background()
	_, reportRepo := InitializeRepositories(testDB.DB)

	refID := TestReferenceID("BBBBBB")
	created, err := reportRepo.Create(ctx, newReport(refID, "alice@example.com"))
	require.NoError(t, err)

	high := models.PriorityHigh
	at := time.Now().UTC().Add(time.Minute)
	updated, err := reportRepo.UpdateStatus(ctx, refID, models.StatusInProcess, &high, at)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProcess, updated.Status)
	assert.Equal(t, models.PriorityHigh, updated.Priority)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))

	// Nil priority leaves the stored priority alone
	updated, err = reportRepo.UpdateStatus(ctx, refID, models.StatusResolved, nil, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, models.StatusResolved, updated.Status)
	assert.Equal(t, models.PriorityHigh, updated.Priority)

	_, err = reportRepo.UpdateStatus(ctx, TestReferenceID("ZZZZZZ"), models.StatusResolved, nil, time.Now().UTC())
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestReportRepository_Query(t *testing.T) {
	resetDatabase(t)
	ctx := context.Background()
	_, reportRepo := InitializeRepositories(testDB.DB)

	for i, owner := range []string{"alice@example.com", "alice@example.com", "bob@example.com"} {
		report := newReport(TestReferenceID(fmt.Sprintf("QRY%03d", i)), owner)
		report.CreatedAt = time.Now().UTC().Add(time.Duration(i) * time.Second)
		report.UpdatedAt = report.CreatedAt
		if i == 1 {
			report.Status = models.StatusResolved
		}
		_, err := reportRepo.Create(ctx, report)
		require.NoError(t, err)
	}

	t.Run("filter by owner", func(t *testing.T) {
		reports, err := reportRepo.Query(ctx, models.ReportFilter{UserEmail: "alice@example.com"}, 50)
		require.NoError(t, err)
		assert.Len(t, reports, 2)
	})

	t.Run("filter by status", func(t *testing.T) {
		reports, err := reportRepo.Query(ctx, models.ReportFilter{Status: "resolved"}, 50)
		require.NoError(t, err)
		assert.Len(t, reports, 1)
	})

	t.Run("newest first", func(t *testing.T) {
		reports, err := reportRepo.Query(ctx, models.ReportFilter{}, 50)
		require.NoError(t, err)
		require.Len(t, reports, 3)
		for i := 1; i < len(reports); i++ {
			assert.False(t, reports[i].CreatedAt.After(reports[i-1].CreatedAt))
		}
	})

	t.Run("limit applies", func(t *testing.T) {
		reports, err := reportRepo.Query(ctx, models.ReportFilter{}, 2)
		require.NoError(t, err)
		assert.Len(t, reports, 2)
	})
}

func TestReportRepository_Statistics(t *testing.T) {
	resetDatabase(t)
	ctx := context.Background()
	_, reportRepo := InitializeRepositories(testDB.DB)

	statuses := []models.ReportStatus{
		models.StatusSubmitted, models.StatusResolved,
		models.StatusResolved, models.StatusInProcess,
	}
	for i, status := range statuses {
		report := newReport(TestReferenceID(fmt.Sprintf("STA%03d", i)), "alice@example.com")
		report.Status = status
		_, err := reportRepo.Create(ctx, report)
		require.NoError(t, err)
	}

	stats, err := reportRepo.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.TotalReports)
	assert.Equal(t, int64(2), stats.ResolvedReports)
	assert.Equal(t, int64(1), stats.InProgressReports)
	assert.InDelta(t, 50.0, stats.ResolutionRate, 0.01)
	assert.Equal(t, int64(4), stats.ReportsByType["broken_bench"])
	assert.NotEmpty(t, stats.WeeklyTrend)
}

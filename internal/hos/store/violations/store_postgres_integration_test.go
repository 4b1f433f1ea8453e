//go:build integration

package violations_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"eldcore/internal/hos/models"
	"eldcore/internal/hos/store/violations"
	"eldcore/pkg/testutil/containers"
)

var t0 = time.Date(2026, 3, 2, 6, 0, 0, 0, time.UTC)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *violations.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = violations.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "hos_violations"))
}

func (s *PostgresStoreSuite) TestSupersedingChainRoundTrips() {
	ctx := context.Background()
	active := models.Violation{
		DriverID: "drv-1", RuleID: models.RuleDrivingLimit,
		WindowStart: t0.Add(11 * time.Hour), WindowEnd: t0.Add(12 * time.Hour), DetectedAt: t0.Add(12 * time.Hour),
		Severity: models.SeverityCritical, Status: models.ViolationActive, SourceSequence: 2,
	}.WithID()
	withdrawn := active
	withdrawn.Status = models.ViolationWithdrawn
	withdrawn.DetectedAt = t0.Add(13 * time.Hour)
	withdrawn.SourceSequence = 3
	withdrawn.Supersedes = &active.ID
	withdrawn = withdrawn.WithID()

	s.Require().NoError(s.store.Append(ctx, []models.Violation{active}))
	s.Require().NoError(s.store.Append(ctx, []models.Violation{withdrawn, active}))

	got, err := s.store.ListByDriver(ctx, "drv-1", time.Time{})
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal(active.ID, got[0].ID)
	s.Equal(models.ViolationWithdrawn, got[1].Status)
	s.Require().NotNil(got[1].Supersedes)
	s.Equal(active.ID, *got[1].Supersedes)
	s.True(got[1].WindowStart.Equal(active.WindowStart))

	recent, err := s.store.ListByDriver(ctx, "drv-1", t0.Add(13*time.Hour))
	s.Require().NoError(err)
	s.Len(recent, 1)
}

package coordinator

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks EventStore,StatusCache,ViolationLog,Notifier

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"eldcore/internal/hos/coordinator/mocks"
	"eldcore/internal/hos/models"
	"eldcore/internal/hos/regulation"
	dErrors "eldcore/pkg/domain-errors"
	"eldcore/pkg/platform/sentinel"
	pkgtestutil "eldcore/pkg/testutil"
)

// =============================================================================
// Failure Handling Suite
// =============================================================================
// Store and cache failures are injected through mocks; unexpected calls fail the test,
// so each case also proves which writes did not happen.

type FailureSuite struct {
	suite.Suite
	ctrl       *gomock.Controller
	events     *mocks.MockEventStore
	cache      *mocks.MockStatusCache
	violations *mocks.MockViolationLog
	notifier   *mocks.MockNotifier
	coord      *Coordinator
}

func TestFailureSuite(t *testing.T) {
	suite.Run(t, new(FailureSuite))
}

func (s *FailureSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.events = mocks.NewMockEventStore(s.ctrl)
	s.cache = mocks.NewMockStatusCache(s.ctrl)
	s.violations = mocks.NewMockViolationLog(s.ctrl)
	s.notifier = mocks.NewMockNotifier(s.ctrl)

	var err error
	s.coord, err = New(s.events, s.cache, s.violations, regulation.Default(),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithNotifier(s.notifier),
		WithPersistTimeout(20*time.Millisecond),
	)
	s.Require().NoError(err)
}

func (s *FailureSuite) TearDownTest() {
	s.ctrl.Finish()
}

func driving(offset time.Duration) models.DutyStatusEvent {
	return models.DutyStatusEvent{DriverID: driver, Timestamp: t0.Add(offset), Status: models.StatusDriving}
}

func (s *FailureSuite) expectEmptyLog() {
	s.events.EXPECT().ReadSince(gomock.Any(), driver, int64(0)).Return(nil, nil)
	s.cache.EXPECT().Get(gomock.Any(), driver).Return(models.StatusProjection{}, false, nil)
}

func (s *FailureSuite) TestAppendFailureIsPersistenceError() {
	s.expectEmptyLog()
	s.events.EXPECT().Append(gomock.Any(), gomock.Any()).Return(int64(0), sentinel.ErrUnavailable)

	_, err := s.coord.SubmitEvent(context.Background(), driving(0))

	s.Require().Error(err)
	s.Equal(dErrors.CodePersistence, dErrors.CodeOf(err))
	s.True(dErrors.Retryable(err))
	s.ErrorIs(err, sentinel.ErrUnavailable)
}

func (s *FailureSuite) TestAppendTimeoutIsPersistenceError() {
	s.expectEmptyLog()
	s.events.EXPECT().Append(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ models.DutyStatusEvent) (int64, error) {
			<-ctx.Done()
			return 0, ctx.Err()
		})

	_, err := s.coord.SubmitEvent(context.Background(), driving(0))

	s.Equal(dErrors.CodePersistence, dErrors.CodeOf(err))
	s.ErrorIs(err, context.DeadlineExceeded)
}

func (s *FailureSuite) TestConcurrentWriterWinsSequence() {
	s.expectEmptyLog()
	s.events.EXPECT().Append(gomock.Any(), gomock.Any()).
		Return(int64(0), dErrors.Wrap(sentinel.ErrConflict, dErrors.CodeDuplicateSequence, "sequence number already used"))

	_, err := s.coord.SubmitEvent(context.Background(), driving(0))

	s.Equal(dErrors.CodeDuplicateSequence, dErrors.CodeOf(err))
}

func (s *FailureSuite) TestReadFailureIsStorageUnavailable() {
	s.events.EXPECT().ReadSince(gomock.Any(), driver, int64(0)).Return(nil, errors.New("connection refused"))

	_, err := s.coord.SubmitEvent(context.Background(), driving(0))

	s.Equal(dErrors.CodeStorageUnavailable, dErrors.CodeOf(err))
}

func (s *FailureSuite) TestRangeReadRoundsBoundsAndReportsStorageUnavailable() {
	start := t0.Add(1500 * time.Nanosecond)
	end := t0.Add(time.Hour + 999*time.Nanosecond)
	s.events.EXPECT().
		ReadRange(gomock.Any(), driver, t0.Add(2*time.Microsecond), t0.Add(time.Hour)).
		Return(nil, sentinel.ErrUnavailable)

	_, err := s.coord.ListEvents(context.Background(), driver, start, end)

	s.Equal(dErrors.CodeStorageUnavailable, dErrors.CodeOf(err))
}

func (s *FailureSuite) TestCacheWriteFailureDoesNotFailSubmit() {
	s.expectEmptyLog()
	s.events.EXPECT().Append(gomock.Any(), gomock.Any()).Return(int64(1), nil)
	s.violations.EXPECT().ListByDriver(gomock.Any(), driver, time.Time{}).Return(nil, nil)
	s.cache.EXPECT().Put(gomock.Any(), driver, gomock.Any()).Return(errors.New("redis down"))
	s.cache.EXPECT().Invalidate(gomock.Any(), driver).Return(errors.New("redis down"))

	out, err := s.coord.SubmitEvent(pkgtestutil.ContextAt(t0), driving(0))

	s.Require().NoError(err)
	s.Equal(int64(1), out.Sequence)
	s.Equal(models.StatusDriving, out.State.CurrentStatus)
}

func (s *FailureSuite) TestViolationAppendFailureIsHealedLater() {
	log := []models.DutyStatusEvent{{DriverID: driver, SequenceNumber: 1, Timestamp: t0, Status: models.StatusDriving}}
	s.events.EXPECT().ReadSince(gomock.Any(), driver, int64(0)).Return(log, nil)
	s.cache.EXPECT().Get(gomock.Any(), driver).Return(models.StatusProjection{}, false, nil)
	s.events.EXPECT().Append(gomock.Any(), gomock.Any()).Return(int64(2), nil)
	s.violations.EXPECT().ListByDriver(gomock.Any(), driver, time.Time{}).Return(nil, nil)
	s.violations.EXPECT().Append(gomock.Any(), gomock.Len(2)).Return(sentinel.ErrUnavailable)
	s.cache.EXPECT().Put(gomock.Any(), driver, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ models.DriverID, proj models.StatusProjection) error {
			s.Len(proj.Violations, 2, "projection still shows what the evaluation found")
			return nil
		})

	out, err := s.coord.SubmitEvent(pkgtestutil.ContextAt(t0.Add(12*time.Hour)), models.DutyStatusEvent{
		DriverID: driver, Timestamp: t0.Add(12 * time.Hour), Status: models.StatusOffDuty,
	})

	s.Require().NoError(err)
	s.Empty(out.NewViolations)
}

func (s *FailureSuite) TestNotifierReceivesRecordedViolations() {
	log := []models.DutyStatusEvent{{DriverID: driver, SequenceNumber: 1, Timestamp: t0, Status: models.StatusDriving}}
	s.events.EXPECT().ReadSince(gomock.Any(), driver, int64(0)).Return(log, nil)
	s.cache.EXPECT().Get(gomock.Any(), driver).Return(models.StatusProjection{}, false, nil)
	s.events.EXPECT().Append(gomock.Any(), gomock.Any()).Return(int64(2), nil)
	s.violations.EXPECT().ListByDriver(gomock.Any(), driver, time.Time{}).Return(nil, nil)
	s.violations.EXPECT().Append(gomock.Any(), gomock.Len(2)).Return(nil)
	s.notifier.EXPECT().Notify(gomock.Any(), gomock.Len(2))
	s.cache.EXPECT().Put(gomock.Any(), driver, gomock.Any()).Return(nil)

	out, err := s.coord.SubmitEvent(pkgtestutil.ContextAt(t0.Add(12*time.Hour)), models.DutyStatusEvent{
		DriverID: driver, Timestamp: t0.Add(12 * time.Hour), Status: models.StatusOffDuty,
	})

	s.Require().NoError(err)
	s.Len(out.NewViolations, 2)
}

func (s *FailureSuite) TestStatusReadFailureIsStorageUnavailable() {
	s.events.EXPECT().LatestSequence(gomock.Any(), driver).Return(int64(0), sentinel.ErrUnavailable)

	_, err := s.coord.GetCurrentStatus(context.Background(), driver)

	s.Equal(dErrors.CodeStorageUnavailable, dErrors.CodeOf(err))
}

func (s *FailureSuite) TestCacheReadFailureFallsBackToRebuild() {
	log := []models.DutyStatusEvent{{DriverID: driver, SequenceNumber: 1, Timestamp: t0, Status: models.StatusDriving}}
	s.events.EXPECT().LatestSequence(gomock.Any(), driver).Return(int64(1), nil)
	s.cache.EXPECT().Get(gomock.Any(), driver).Return(models.StatusProjection{}, false, errors.New("timeout"))
	s.events.EXPECT().ReadSince(gomock.Any(), driver, int64(0)).Return(log, nil)
	s.violations.EXPECT().ListByDriver(gomock.Any(), driver, time.Time{}).Return(nil, errors.New("db down"))
	s.cache.EXPECT().Put(gomock.Any(), driver, gomock.Any()).Return(nil)

	proj, err := s.coord.GetCurrentStatus(pkgtestutil.ContextAt(t0.Add(time.Hour)), driver)

	s.Require().NoError(err)
	s.Equal(int64(1), proj.SourceSequence)
	s.Equal(models.StatusDriving, proj.State.CurrentStatus)
}

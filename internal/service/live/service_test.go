package live

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	livemodel "github.com/jagcoaching/backend/internal/model/live"
	"github.com/jagcoaching/backend/internal/store"
)

func newTestService(t *testing.T) (*Service, *store.MemoryStore) {
	t.Helper()

	st := store.NewMemoryStore()
	svc := NewService(fixedAnalyzer(livemodel.AnalysisLabels{
		Emotion: "neutral", EyeContact: "yes", Posture: "upright", AudioQuality: "good",
	}), st, Config{
		AnalysisInterval:  10 * time.Millisecond,
		AnalysisTimeout:   50 * time.Millisecond,
		HeartbeatInterval: 20 * time.Millisecond,
		HeartbeatGrace:    60 * time.Millisecond,
	})
	t.Cleanup(svc.Close)
	return svc, st
}

func TestStartSessionRegisters(t *testing.T) {
	svc, _ := newTestService(t)

	sess, err := svc.StartSession("user-1")
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, "user-1", sess.UserID)
	assert.Equal(t, livemodel.StateCreated, sess.State())

	got, err := svc.GetSession(sess.ID)
	require.NoError(t, err)
	assert.Same(t, sess, got)
}

func TestStopSessionReturnsMetricsAndPersists(t *testing.T) {
	svc, st := newTestService(t)

	sess, err := svc.StartSession("user-1")
	require.NoError(t, err)
	sess.Metrics().Record(livemodel.CategoryEyeContact, "yes")

	metrics, err := svc.StopSession(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, metrics[livemodel.CategoryEyeContact].Labels["yes"])
	assert.Equal(t, livemodel.StateTerminated, sess.State())

	_, err = svc.GetSession(sess.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	summary, err := st.GetSummary(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "user-1", summary.UserID)
	assert.Equal(t, 1, summary.Metrics[livemodel.CategoryEyeContact].Labels["yes"])
	assert.False(t, summary.EndedAt.Before(summary.StartedAt))
}

func TestStopUnknownSession(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.StopSession("missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestStopSessionTwice(t *testing.T) {
	svc, _ := newTestService(t)

	sess, err := svc.StartSession("")
	require.NoError(t, err)

	_, err = svc.StopSession(sess.ID)
	require.NoError(t, err)

	_, err = svc.StopSession(sess.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound, "a second stop must read as not-found, not a fault")
}

func TestAttachRejectsSecondStream(t *testing.T) {
	svc, _ := newTestService(t)

	sess, err := svc.StartSession("")
	require.NoError(t, err)

	_, err = svc.Attach(context.Background(), sess, &fakeConn{})
	require.NoError(t, err)

	_, err = svc.Attach(context.Background(), sess, &fakeConn{})
	assert.Error(t, err)
}

func TestTeardownCancelsAttachContext(t *testing.T) {
	svc, _ := newTestService(t)

	sess, err := svc.StartSession("")
	require.NoError(t, err)

	conn := &fakeConn{}
	ctx, err := svc.Attach(context.Background(), sess, conn)
	require.NoError(t, err)

	svc.Teardown(sess, "test")

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("teardown did not cancel the connection context")
	}
	assert.True(t, conn.isClosed())
	assert.Equal(t, livemodel.StateTerminated, sess.State())
}

func TestTeardownIsIdempotent(t *testing.T) {
	svc, st := newTestService(t)

	sess, err := svc.StartSession("user-1")
	require.NoError(t, err)

	svc.Teardown(sess, "first")
	svc.Teardown(sess, "second")

	summaries, err := st.ListSummariesByUser(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Len(t, summaries, 1, "double teardown must persist exactly one summary")
}

func TestRunReapsNeverAttachedSessions(t *testing.T) {
	svc, _ := newTestService(t)

	sess, err := svc.StartSession("")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go svc.Run(ctx)

	require.Eventually(t, func() bool {
		_, err := svc.GetSession(sess.ID)
		return err != nil
	}, time.Second, 10*time.Millisecond, "unattached session should be reaped after the grace window")
}

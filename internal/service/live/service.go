package live

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	livemodel "github.com/jagcoaching/backend/internal/model/live"
	"github.com/jagcoaching/backend/internal/store"
)

// Config carries the engine's timing knobs. Zero values fall back to
// the defaults: analyze every 10s with a 5s timeout, probe every 30s
// with a 40s grace window, two analysis workers.
type Config struct {
	AnalysisInterval  time.Duration
	AnalysisTimeout   time.Duration
	HeartbeatInterval time.Duration
	HeartbeatGrace    time.Duration
	AnalysisWorkers   int
}

func (c Config) withDefaults() Config {
	if c.AnalysisInterval <= 0 {
		c.AnalysisInterval = 10 * time.Second
	}
	if c.AnalysisTimeout <= 0 {
		c.AnalysisTimeout = 5 * time.Second
	}
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = 30 * time.Second
	}
	if c.HeartbeatGrace <= 0 {
		c.HeartbeatGrace = 40 * time.Second
	}
	if c.AnalysisWorkers <= 0 {
		c.AnalysisWorkers = 2
	}
	return c
}

// Service is the real-time session engine: it owns the registry, the
// shared analysis worker pool and the per-session lifecycle.
type Service struct {
	cfg       Config
	registry  *Registry
	analyzer  Analyzer
	pool      *workerPool
	summaries store.SummaryStore
}

// NewService builds the engine. summaries may be nil when no durable
// store is configured; session summaries are then discarded on stop.
func NewService(analyzer Analyzer, summaries store.SummaryStore, cfg Config) *Service {
	cfg = cfg.withDefaults()
	return &Service{
		cfg:       cfg,
		registry:  NewRegistry(),
		analyzer:  analyzer,
		pool:      newWorkerPool(cfg.AnalysisWorkers),
		summaries: summaries,
	}
}

// Config returns the effective engine configuration.
func (s *Service) Config() Config {
	return s.cfg
}

// Registry exposes the session registry.
func (s *Service) Registry() *Registry {
	return s.registry
}

// StartSession registers a fresh session and returns it. The stream
// attaches later through Attach.
func (s *Service) StartSession(userID string) (*Session, error) {
	sess := newSession(uuid.NewString(), userID)
	if err := s.registry.Add(sess); err != nil {
		return nil, err
	}
	log.Printf("[live] session=%s started", sess.ID)
	return sess, nil
}

// GetSession looks up a registered session.
func (s *Service) GetSession(id string) (*Session, error) {
	return s.registry.Get(id)
}

// SessionMetrics returns the current metrics snapshot for a session.
func (s *Service) SessionMetrics(id string) (livemodel.MetricsSnapshot, error) {
	sess, err := s.registry.Get(id)
	if err != nil {
		return nil, err
	}
	return sess.Metrics().Summary(), nil
}

// StopSession tears a session down on explicit client request and
// returns its final metrics. Stopping an unknown or already-stopped id
// yields ErrSessionNotFound, never a fault.
func (s *Service) StopSession(id string) (livemodel.MetricsSnapshot, error) {
	sess, err := s.registry.Get(id)
	if err != nil {
		return nil, err
	}
	summary := sess.Metrics().Summary()
	s.Teardown(sess, "client requested stop")
	return summary, nil
}

// Attach binds a streaming connection to a created session and starts
// its analysis scheduler. The returned context governs the three
// per-connection tasks; cancelling it (directly or via Teardown) stops
// them as a unit.
func (s *Service) Attach(parent context.Context, sess *Session, conn Conn) (context.Context, error) {
	ctx, cancel := context.WithCancel(parent)
	if err := sess.attach(conn, cancel); err != nil {
		cancel()
		return nil, err
	}

	sched := &scheduler{
		sess:     sess,
		analyzer: s.analyzer,
		pool:     s.pool,
		interval: s.cfg.AnalysisInterval,
		timeout:  s.cfg.AnalysisTimeout,
	}
	go sched.run(ctx)

	log.Printf("[live] session=%s stream attached", sess.ID)
	return ctx, nil
}

// Teardown releases everything a session holds: it cancels the
// per-connection tasks, evicts the id from the registry, closes the
// transport and persists the summary. Safe to call from the ingestion
// loop, the heartbeat monitor and the control path at once; only the
// first call does work.
func (s *Service) Teardown(sess *Session, reason string) {
	sess.closeOnce.Do(func() {
		sess.setState(livemodel.StateClosing)
		if sess.cancel != nil {
			sess.cancel()
		}
		s.registry.Remove(sess.ID)
		sess.closeConn()
		s.persistSummary(sess)
		sess.setState(livemodel.StateTerminated)
		log.Printf("[live] session=%s terminated: %s", sess.ID, reason)
	})
}

func (s *Service) persistSummary(sess *Session) {
	if s.summaries == nil {
		return
	}

	summary := livemodel.SessionSummary{
		SessionID: sess.ID,
		UserID:    sess.UserID,
		StartedAt: sess.CreatedAt,
		EndedAt:   time.Now().UTC(),
		Metrics:   sess.Metrics().Summary(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.summaries.SaveSummary(ctx, &summary); err != nil {
		log.Printf("[live] session=%s summary persist failed: %v", sess.ID, err)
	}
}

// Run sweeps sessions that were started but never attached a stream.
// Attached sessions are watched by their own heartbeat monitor; a
// session nobody connected to has no monitor, so the engine reaps it
// once it outlives the grace window. Blocks until ctx is cancelled.
func (s *Service) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().UTC().Add(-s.cfg.HeartbeatGrace)
			for _, sess := range s.registry.List() {
				if sess.State() == livemodel.StateCreated && sess.CreatedAt.Before(cutoff) {
					s.Teardown(sess, "no stream attached within grace window")
				}
			}
		}
	}
}

// Close stops the worker pool and tears down every remaining session.
func (s *Service) Close() {
	for _, sess := range s.registry.List() {
		s.Teardown(sess, "server shutting down")
	}
	s.pool.stop()
}

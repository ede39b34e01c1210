package live

import (
	"context"
	"errors"
	"sync"
	"time"

	livemodel "github.com/jagcoaching/backend/internal/model/live"
)

var ErrNotAttached = errors.New("session has no attached stream")

// Conn is the subset of *websocket.Conn a session writes through.
// Narrowed to an interface so the engine can be exercised without a
// network socket.
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

// Session owns the state of one live-coaching connection: the latest-wins
// sample buffer, the running metrics, the liveness timestamp and the
// analysis-in-progress gate. The three per-connection tasks (ingestion,
// scheduler, heartbeat) and the HTTP control path all share it, so every
// mutation goes through mu. Socket writes are serialized separately by
// writeMu because feedback, pings and errors are pushed from different
// goroutines.
type Session struct {
	ID        string
	UserID    string
	CreatedAt time.Time

	mu         sync.Mutex
	state      livemodel.State
	lastLive   time.Time
	analyzing  bool
	video      *livemodel.Sample
	audio      *livemodel.Sample
	videoDrops uint64
	audioDrops uint64
	cancel     context.CancelFunc

	writeMu sync.Mutex
	conn    Conn

	metrics *Metrics

	closeOnce sync.Once
}

func newSession(id, userID string) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:        id,
		UserID:    userID,
		CreatedAt: now,
		state:     livemodel.StateCreated,
		lastLive:  now,
		metrics:   NewMetrics(),
	}
}

// attach binds the streaming connection and the cancel function that
// tears down the per-connection tasks. Only a freshly created session
// can attach; a second stream for the same id is rejected.
func (s *Session) attach(conn Conn, cancel context.CancelFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != livemodel.StateCreated {
		return errors.New("session already attached or closed")
	}

	s.writeMu.Lock()
	s.conn = conn
	s.writeMu.Unlock()

	s.cancel = cancel
	s.state = livemodel.StateConnected
	s.lastLive = time.Now().UTC()
	return nil
}

// StoreVideo overwrites the video slot with a newer frame. A previous
// unconsumed frame is dropped, never queued.
func (s *Session) StoreVideo(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.video != nil {
		s.videoDrops++
	}
	s.video = &livemodel.Sample{Data: data, ReceivedAt: time.Now().UTC()}
	s.markActiveLocked()
}

// StoreAudio overwrites the audio slot with a newer chunk.
func (s *Session) StoreAudio(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.audio != nil {
		s.audioDrops++
	}
	s.audio = &livemodel.Sample{Data: data, ReceivedAt: time.Now().UTC()}
	s.markActiveLocked()
}

func (s *Session) markActiveLocked() {
	s.lastLive = time.Now().UTC()
	if s.state == livemodel.StateConnected {
		s.state = livemodel.StateActive
	}
}

// SnapshotSamples returns the current buffer contents. The returned
// samples are shared, not copied; buffer writers never mutate stored
// data, they replace it.
func (s *Session) SnapshotSamples() (video, audio *livemodel.Sample) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.video, s.audio
}

// Drops reports how many unconsumed samples were overwritten per modality.
func (s *Session) Drops() (video, audio uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.videoDrops, s.audioDrops
}

// Touch records liveness evidence.
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastLive = time.Now().UTC()
	s.mu.Unlock()
}

// LastLive returns the most recent liveness timestamp.
func (s *Session) LastLive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastLive
}

// TryBeginAnalysis claims the single analysis slot. It returns false if
// a previous run has not finished, in which case the tick is skipped.
func (s *Session) TryBeginAnalysis() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.analyzing {
		return false
	}
	s.analyzing = true
	return true
}

// EndAnalysis releases the analysis slot.
func (s *Session) EndAnalysis() {
	s.mu.Lock()
	s.analyzing = false
	s.mu.Unlock()
}

// AnalysisInProgress reports whether an analysis run holds the slot.
func (s *Session) AnalysisInProgress() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.analyzing
}

// State returns the current lifecycle state.
func (s *Session) State() livemodel.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) setState(state livemodel.State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// Metrics exposes the session's aggregator.
func (s *Session) Metrics() *Metrics {
	return s.metrics
}

// Push writes one outbound message to the attached stream.
func (s *Session) Push(msg livemodel.OutboundMessage) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.conn == nil {
		return ErrNotAttached
	}
	return s.conn.WriteJSON(msg)
}

func (s *Session) closeConn() {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.conn != nil {
		_ = s.conn.Close()
	}
}

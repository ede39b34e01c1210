package live

import (
	"context"
	"log"
	"time"

	livemodel "github.com/jagcoaching/backend/internal/model/live"
)

// Analyzer is the external analysis boundary: a pure function from the
// current sample snapshot to a feedback object. Implementations must
// honor ctx cancellation; the engine stops waiting at the deadline and
// discards any result that arrives late.
type Analyzer interface {
	Analyze(ctx context.Context, video, audio *livemodel.Sample) (livemodel.FeedbackData, error)
}

// AnalyzerFunc adapts a function to the Analyzer interface.
type AnalyzerFunc func(ctx context.Context, video, audio *livemodel.Sample) (livemodel.FeedbackData, error)

func (f AnalyzerFunc) Analyze(ctx context.Context, video, audio *livemodel.Sample) (livemodel.FeedbackData, error) {
	return f(ctx, video, audio)
}

// workerPool bounds how many analysis calls run at once across all
// sessions, so a slow model call cannot starve message handling or
// liveness probes for anyone else.
type workerPool struct {
	jobs chan func()
	done chan struct{}
}

func newWorkerPool(workers int) *workerPool {
	if workers < 1 {
		workers = 1
	}
	p := &workerPool{
		jobs: make(chan func()),
		done: make(chan struct{}),
	}
	for i := 0; i < workers; i++ {
		go p.work()
	}
	return p
}

func (p *workerPool) work() {
	for {
		select {
		case job := <-p.jobs:
			job()
		case <-p.done:
			return
		}
	}
}

func (p *workerPool) stop() {
	close(p.done)
}

type analysisOutcome struct {
	feedback livemodel.FeedbackData
	err      error
}

// scheduler drives one session's analysis cadence: every interval it
// snapshots the buffer, hands the pair to the analyzer on the shared
// pool and pushes the outcome. At most one run is in flight per session;
// a tick that finds the slot taken is skipped, never queued.
type scheduler struct {
	sess     *Session
	analyzer Analyzer
	pool     *workerPool
	interval time.Duration
	timeout  time.Duration
}

func (s *scheduler) run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *scheduler) tick(ctx context.Context) {
	if !s.sess.TryBeginAnalysis() {
		log.Printf("[live] session=%s analysis still running, tick skipped", s.sess.ID)
		return
	}
	defer s.sess.EndAnalysis()

	video, audio := s.sess.SnapshotSamples()
	if video == nil && audio == nil {
		// Nothing received yet. Keep the client UI alive without
		// invoking the analyzer.
		s.pushFeedback(placeholderFeedback())
		return
	}

	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	outcome := make(chan analysisOutcome, 1)
	job := func() {
		fb, err := s.analyzer.Analyze(cctx, video, audio)
		outcome <- analysisOutcome{feedback: fb, err: err}
	}

	select {
	case s.pool.jobs <- job:
	case <-cctx.Done():
		// Both workers stayed busy for the whole window.
		s.pushStillAnalyzing()
		return
	}

	select {
	case out := <-outcome:
		if out.err != nil {
			log.Printf("[live] session=%s analysis failed: %v", s.sess.ID, out.err)
			s.pushStillAnalyzing()
			return
		}
		s.sess.Metrics().RecordLabels(labelsOf(out.feedback))
		s.pushFeedback(out.feedback)
	case <-cctx.Done():
		// The in-flight call is abandoned; its result, if it ever
		// arrives, lands in the buffered channel and is discarded.
		log.Printf("[live] session=%s analysis timed out after %s", s.sess.ID, s.timeout)
		s.pushStillAnalyzing()
	}
}

func (s *scheduler) pushFeedback(data livemodel.FeedbackData) {
	msg := livemodel.OutboundMessage{
		Type:      livemodel.TypeFeedback,
		Data:      data,
		Timestamp: time.Now().Unix(),
	}
	if err := s.sess.Push(msg); err != nil {
		log.Printf("[live] session=%s push feedback failed: %v", s.sess.ID, err)
	}
}

func (s *scheduler) pushStillAnalyzing() {
	msg := livemodel.OutboundMessage{
		Type:      livemodel.TypeError,
		Error:     "analysis is taking longer than expected, feedback will resume shortly",
		Timestamp: time.Now().Unix(),
	}
	if err := s.sess.Push(msg); err != nil {
		log.Printf("[live] session=%s push error failed: %v", s.sess.ID, err)
	}
}

func labelsOf(fb livemodel.FeedbackData) livemodel.AnalysisLabels {
	return livemodel.AnalysisLabels{
		Emotion:      fb.Emotion,
		EyeContact:   fb.EyeContact,
		Posture:      fb.Posture,
		AudioQuality: fb.AudioQuality,
		Transcript:   fb.Transcript,
	}
}

// placeholderFeedback is pushed on ticks where no sample has ever been
// buffered. Metrics are not touched for these.
func placeholderFeedback() livemodel.FeedbackData {
	return livemodel.FeedbackData{
		Emotion:      "unknown",
		EyeContact:   "unknown",
		Posture:      "unknown",
		AudioQuality: "unknown",
		Coach: livemodel.CoachFeedback{
			OverallSuggestion: "Waiting for camera and microphone data. Make sure both are enabled.",
		},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

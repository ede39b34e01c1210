package live

import (
	"sync"

	livemodel "github.com/jagcoaching/backend/internal/model/live"
)

// Labels broken out by name in metric summaries. Anything else still
// bumps the category total, so summaries degrade gracefully when the
// analysis vocabulary evolves.
var knownLabels = map[string][]string{
	livemodel.CategoryEyeContact:   {"yes", "no", "no_face", "unknown"},
	livemodel.CategoryEmotion:      {"angry", "disgust", "fear", "happy", "sad", "surprise", "neutral", "unknown"},
	livemodel.CategoryPosture:      {"upright", "slouched", "leaning", "unknown"},
	livemodel.CategoryAudioQuality: {"good", "quiet", "loud", "clipping", "unknown"},
}

type category struct {
	total  int
	labels map[string]int
}

// Metrics accumulates categorical analysis outcomes for one session.
// Counters are monotonic for the life of the session; Record is called
// by the scheduler after each completed analysis while Summary serves
// the control endpoints, hence the lock.
type Metrics struct {
	mu         sync.RWMutex
	categories map[string]*category
}

// NewMetrics returns an aggregator with all categories zeroed.
func NewMetrics() *Metrics {
	m := &Metrics{categories: make(map[string]*category, len(knownLabels))}
	for name, labels := range knownLabels {
		cat := &category{labels: make(map[string]int, len(labels))}
		for _, label := range labels {
			cat.labels[label] = 0
		}
		m.categories[name] = cat
	}
	return m
}

// Record counts one observed label. Unknown categories are ignored;
// unknown labels count toward the category total only. An empty label
// is folded into "unknown".
func (m *Metrics) Record(categoryName, label string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cat, ok := m.categories[categoryName]
	if !ok {
		return
	}
	if label == "" {
		label = "unknown"
	}

	cat.total++
	if _, known := cat.labels[label]; known {
		cat.labels[label]++
	}
}

// RecordLabels merges one analysis result into the counters.
func (m *Metrics) RecordLabels(labels livemodel.AnalysisLabels) {
	m.Record(livemodel.CategoryEmotion, labels.Emotion)
	m.Record(livemodel.CategoryEyeContact, labels.EyeContact)
	m.Record(livemodel.CategoryPosture, labels.Posture)
	m.Record(livemodel.CategoryAudioQuality, labels.AudioQuality)
}

// Summary returns a deep copy of the counters. It never interferes with
// concurrent recording.
func (m *Metrics) Summary() livemodel.MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snapshot := make(livemodel.MetricsSnapshot, len(m.categories))
	for name, cat := range m.categories {
		labels := make(map[string]int, len(cat.labels))
		for label, count := range cat.labels {
			labels[label] = count
		}
		snapshot[name] = livemodel.CategorySummary{Total: cat.total, Labels: labels}
	}
	return snapshot
}

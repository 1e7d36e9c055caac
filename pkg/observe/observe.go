// Package observe instruments a memview source with prometheus metrics and
// zerolog events.
package observe

import (
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/rawbytedev/memview"
)

// Metrics are labelled by source name so one set can serve many sources.
type Metrics struct {
	Fetches *prometheus.CounterVec
	Bytes   *prometheus.CounterVec
	Errors  *prometheus.CounterVec
	Latency *prometheus.HistogramVec
	Live    *prometheus.GaugeVec
}

// NewMetrics registers the fetch metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Fetches: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "memview",
			Name:      "fetches_total",
			Help:      "Total number of fetches served by a source",
		}, []string{"source"}),
		Bytes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "memview",
			Name:      "fetched_bytes_total",
			Help:      "Total number of bytes returned by successful fetches",
		}, []string{"source"}),
		Errors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "memview",
			Name:      "fetch_errors_total",
			Help:      "Total number of failed fetches",
		}, []string{"source"}),
		Latency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "memview",
			Name:      "fetch_duration_seconds",
			Help:      "Fetch latency",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
		}, []string{"source"}),
		Live: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "memview",
			Name:      "live_fetched_bytes",
			Help:      "Bytes of anchored fetches still held by a view or span",
		}, []string{"source"}),
	}
}

type Source struct {
	src    memview.Source
	name   string
	m      *Metrics
	logger zerolog.Logger
}

// Wrap reports every fetch on src under name. Either of m and logger may
// be left zero: nil metrics are skipped, and zerolog.Nop() silences logs.
func Wrap(src memview.Source, name string, m *Metrics, logger zerolog.Logger) *Source {
	return &Source{
		src:    src,
		name:   name,
		m:      m,
		logger: logger.With().Str("source", name).Logger(),
	}
}

func (s *Source) Size() int { return s.src.Size() }

func (s *Source) Fetch(begin, end int) (memview.Fetched, error) {
	start := time.Now()
	f, err := s.src.Fetch(begin, end)
	elapsed := time.Since(start)

	if s.m != nil {
		s.m.Fetches.WithLabelValues(s.name).Inc()
		s.m.Latency.WithLabelValues(s.name).Observe(elapsed.Seconds())
		if err != nil {
			s.m.Errors.WithLabelValues(s.name).Inc()
		} else {
			s.m.Bytes.WithLabelValues(s.name).Add(float64(len(f.Data)))
			if f.Anchor != nil {
				f.Anchor = s.track(f.Anchor, len(f.Data))
			}
		}
	}
	if err != nil {
		s.logger.Warn().Err(err).Int("begin", begin).Int("end", end).Msg("fetch failed")
		return f, err
	}
	s.logger.Debug().
		Int("begin", begin).
		Int("end", end).
		Dur("elapsed", elapsed).
		Bool("anchored", f.Anchor != nil).
		Msg("fetched")
	return f, nil
}

// track re-anchors a fetch so the live gauge drops once nothing holds it.
// The hook keeps inner reachable until then.
func (s *Source) track(inner *memview.Anchor, n int) *memview.Anchor {
	live := s.m.Live.WithLabelValues(s.name)
	live.Add(float64(n))
	return memview.NewAnchorFunc(inner.Bytes(), func() {
		live.Sub(float64(n))
		runtime.KeepAlive(inner)
	})
}

package metrics

import (
	"errors"
	"strings"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/goliatone/go-blog/internal/generator"
	"github.com/goliatone/go-blog/internal/logging"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

const (
	namespace = "blog"

	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeInvalid = "invalid"

	// globalFeedLabel labels the site-wide feed. It is not a valid slug, so no
	// category key can produce the same series.
	globalFeedLabel = "_site"
)

// ParseErrorDetector reports whether err stems from invalid post content.
type ParseErrorDetector func(err error) bool

// BuildRecorder observes generator builds.
type BuildRecorder struct {
	registry      *prom.Registry
	buildDuration prom.Histogram
	buildOutcome  *prom.CounterVec
	posts         prom.Gauge
	feedEntries   *prom.GaugeVec
	artifacts     *prom.CounterVec
	lastSuccess   prom.Gauge

	textfile  string
	logger    interfaces.Logger
	isInvalid ParseErrorDetector
}

// Option customises a BuildRecorder.
type Option func(*BuildRecorder)

// WithTextfile writes the registry to path after every observation.
func WithTextfile(path string) Option {
	return func(r *BuildRecorder) {
		r.textfile = strings.TrimSpace(path)
	}
}

// WithLogger reports textfile write failures.
func WithLogger(logger interfaces.Logger) Option {
	return func(r *BuildRecorder) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithInvalidDetector classifies failures caused by invalid content.
func WithInvalidDetector(fn ParseErrorDetector) Option {
	return func(r *BuildRecorder) {
		if fn != nil {
			r.isInvalid = fn
		}
	}
}

// NewBuildRecorder constructs and registers build metrics. A nil registry
// gets a private one.
func NewBuildRecorder(reg *prom.Registry, opts ...Option) *BuildRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	r := &BuildRecorder{
		registry: reg,
		buildDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Total feed build duration",
			Buckets:   prom.DefBuckets,
		}),
		buildOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"}),
		posts: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "posts",
			Help:      "Posts published by the last successful build",
		}),
		feedEntries: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "feed_entries",
			Help:      "Entries in each RSS feed of the last successful build",
		}, []string{"feed"}),
		artifacts: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "artifacts_total",
			Help:      "Artifacts produced by kind",
		}, []string{"kind"}),
		lastSuccess: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful build",
		}),
		logger: logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	reg.MustRegister(r.buildDuration, r.buildOutcome, r.posts, r.feedEntries, r.artifacts, r.lastSuccess)
	return r
}

// Registry exposes the underlying registry for gathering.
func (r *BuildRecorder) Registry() *prom.Registry {
	return r.registry
}

// ObserveBuild records one build attempt.
func (r *BuildRecorder) ObserveBuild(result *generator.BuildResult, err error) {
	if err != nil {
		outcome := OutcomeFailure
		if r.isInvalid != nil && r.isInvalid(err) {
			outcome = OutcomeInvalid
		}
		r.buildOutcome.WithLabelValues(outcome).Inc()
		r.flush()
		return
	}
	if result == nil {
		return
	}

	r.buildOutcome.WithLabelValues(OutcomeSuccess).Inc()
	r.buildDuration.Observe(result.Duration.Seconds())
	r.posts.Set(float64(len(result.Posts)))
	r.feedEntries.Reset()
	for _, artifact := range result.Artifacts {
		r.artifacts.WithLabelValues(string(artifact.Kind)).Inc()
		if artifact.Kind != generator.KindRSS {
			continue
		}
		feed := artifact.Category
		if feed == "" {
			feed = globalFeedLabel
		}
		r.feedEntries.WithLabelValues(feed).Set(float64(artifact.Entries))
	}
	r.lastSuccess.SetToCurrentTime()
	r.flush()
}

// WriteTextfile persists the registry in the node-exporter textfile format.
func (r *BuildRecorder) WriteTextfile(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return errors.New("metrics: textfile path is required")
	}
	return prom.WriteToTextfile(path, r.registry)
}

func (r *BuildRecorder) flush() {
	if r.textfile == "" {
		return
	}
	if err := r.WriteTextfile(r.textfile); err != nil {
		r.logger.Warn("metrics.textfile.write_failed", "path", r.textfile, "error", err)
	}
}

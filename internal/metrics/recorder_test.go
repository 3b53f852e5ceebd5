package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-blog/internal/generator"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

func sampleResult() *generator.BuildResult {
	return &generator.BuildResult{
		Posts:    []*interfaces.Post{{FileName: "a.md"}, {FileName: "b.md"}, {FileName: "c.md"}},
		Duration: 120 * time.Millisecond,
		Artifacts: []generator.Artifact{
			{Path: "public/feed.xml", Kind: generator.KindRSS, Entries: 3},
			{Path: "public/releases/feed.xml", Kind: generator.KindRSS, Category: "releases", Entries: 2},
			{Path: "public/events/feed.xml", Kind: generator.KindRSS, Category: "events", Entries: 0},
			{Path: "public/atom.xml", Kind: generator.KindAtom, Entries: 3},
		},
	}
}

func TestBuildRecorder_CategoryNamedAllKeepsOwnSeries(t *testing.T) {
	rec := NewBuildRecorder(prom.NewRegistry())
	rec.ObserveBuild(&generator.BuildResult{
		Artifacts: []generator.Artifact{
			{Path: "public/feed.xml", Kind: generator.KindRSS, Entries: 5},
			{Path: "public/all/feed.xml", Kind: generator.KindRSS, Category: "all", Entries: 1},
		},
	}, nil)

	assert.Equal(t, 2, testutil.CollectAndCount(rec.feedEntries))
	assert.Equal(t, 5.0, testutil.ToFloat64(rec.feedEntries.WithLabelValues(globalFeedLabel)))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.feedEntries.WithLabelValues("all")))
}

func TestBuildRecorder_ObserveSuccess(t *testing.T) {
	rec := NewBuildRecorder(prom.NewRegistry())
	rec.ObserveBuild(sampleResult(), nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(rec.buildOutcome.WithLabelValues(OutcomeSuccess)))
	assert.Equal(t, 3.0, testutil.ToFloat64(rec.posts))
	assert.Equal(t, 3.0, testutil.ToFloat64(rec.feedEntries.WithLabelValues(globalFeedLabel)))
	assert.Equal(t, 2.0, testutil.ToFloat64(rec.feedEntries.WithLabelValues("releases")))
	assert.Equal(t, 0.0, testutil.ToFloat64(rec.feedEntries.WithLabelValues("events")))
	assert.Equal(t, 3.0, testutil.ToFloat64(rec.artifacts.WithLabelValues(string(generator.KindRSS))))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.artifacts.WithLabelValues(string(generator.KindAtom))))
	assert.Greater(t, testutil.ToFloat64(rec.lastSuccess), 0.0)
}

func TestBuildRecorder_ClassifiesFailures(t *testing.T) {
	invalid := errors.New("bad front matter")
	rec := NewBuildRecorder(nil, WithInvalidDetector(func(err error) bool {
		return errors.Is(err, invalid)
	}))

	rec.ObserveBuild(nil, invalid)
	rec.ObserveBuild(nil, errors.New("disk full"))

	assert.Equal(t, 1.0, testutil.ToFloat64(rec.buildOutcome.WithLabelValues(OutcomeInvalid)))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.buildOutcome.WithLabelValues(OutcomeFailure)))
	assert.Equal(t, 0.0, testutil.ToFloat64(rec.lastSuccess))
}

func TestBuildRecorder_FeedEntriesResetBetweenBuilds(t *testing.T) {
	rec := NewBuildRecorder(nil)
	rec.ObserveBuild(sampleResult(), nil)
	rec.ObserveBuild(&generator.BuildResult{
		Artifacts: []generator.Artifact{{Kind: generator.KindRSS, Entries: 0}},
	}, nil)

	assert.Equal(t, 1, testutil.CollectAndCount(rec.feedEntries))
}

func TestBuildRecorder_WritesTextfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blog.prom")
	rec := NewBuildRecorder(nil, WithTextfile(path))
	rec.ObserveBuild(sampleResult(), nil)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.True(t, strings.Contains(text, "blog_build_outcomes_total{outcome=\"success\"} 1"), text)
	assert.Contains(t, text, "blog_feed_entries{feed=\"releases\"} 2")
}

func TestBuildRecorder_WriteTextfileRequiresPath(t *testing.T) {
	rec := NewBuildRecorder(nil)
	assert.Error(t, rec.WriteTextfile(" "))
}

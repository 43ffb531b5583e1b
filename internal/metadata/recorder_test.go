package metadata_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/rohmanhakim/pinned-repos/internal/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var lines []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		lines = append(lines, m)
	}
	return lines
}

func TestRecorder_RecordError(t *testing.T) {
	var buf bytes.Buffer
	logger, err := metadata.NewLogger(&buf, "debug", metadata.LogFormatJSON)
	require.NoError(t, err)
	rec := metadata.NewRecorder(logger)

	rec.RecordError(
		time.Now(),
		"enrich",
		"Enricher.Enrich",
		metadata.CauseNetworkFailure,
		"fetcher error: timeout",
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrURL, "https://github.com/octocat/Hello-World"),
		},
	)

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "warn", lines[0]["level"])
	assert.Equal(t, "enrich", lines[0]["package"])
	assert.Equal(t, "network_failure", lines[0]["cause"])
	assert.Equal(t, "https://github.com/octocat/Hello-World", lines[0]["url"])
	assert.Equal(t, "fetcher error: timeout", lines[0]["message"])
}

func TestRecorder_FetchAndCacheAreDebug(t *testing.T) {
	var buf bytes.Buffer
	logger, err := metadata.NewLogger(&buf, "info", metadata.LogFormatJSON)
	require.NoError(t, err)
	rec := metadata.NewRecorder(logger)

	rec.RecordFetch("https://github.com/octocat", 200, time.Millisecond, "text/html", 1)
	rec.RecordCache("octocat", metadata.CacheHit, time.Minute)

	assert.Empty(t, buf.String(), "debug events are filtered at info level")

	buf.Reset()
	logger, err = metadata.NewLogger(&buf, "debug", metadata.LogFormatJSON)
	require.NoError(t, err)
	rec = metadata.NewRecorder(logger)

	rec.RecordCache("octocat", metadata.CacheStale, time.Hour)

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "stale", lines[0]["outcome"])
	assert.Equal(t, "octocat", lines[0]["identifier"])
}

func TestNewLogger_Invalid(t *testing.T) {
	_, err := metadata.NewLogger(&bytes.Buffer{}, "loud", metadata.LogFormatJSON)
	assert.Error(t, err)

	_, err = metadata.NewLogger(&bytes.Buffer{}, "info", "xml")
	assert.Error(t, err)
}

func TestNewLogger_EmptyLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger, err := metadata.NewLogger(&buf, "", metadata.LogFormatConsole)
	require.NoError(t, err)

	logger.Debug().Msg("hidden")
	logger.Info().Msg("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestErrorCause_String(t *testing.T) {
	assert.Equal(t, "unknown", metadata.CauseUnknown.String())
	assert.Equal(t, "not_found", metadata.CauseNotFound.String())
	assert.Equal(t, "policy_disallow", metadata.CausePolicyDisallow.String())
}

func TestNoopSink_ImplementsSink(t *testing.T) {
	var sink metadata.MetadataSink = &metadata.NoopSink{}
	sink.RecordCache("x", metadata.CacheMiss, 0)
}

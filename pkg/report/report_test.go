package report

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apperrors "github.com/chainsafe/bridge-analytics/pkg/app/errors"
)

func TestGuard_Success(t *testing.T) {
	s := Guard(zap.NewNop(), "Raw event counts", func() ([]string, error) {
		return []string{"A: 1"}, nil
	})

	assert.True(t, s.OK())
	assert.Equal(t, "Raw event counts", s.Title)
	assert.Equal(t, []string{"A: 1"}, s.Lines)
}

func TestGuard_ErrorDropsLines(t *testing.T) {
	s := Guard(zap.NewNop(), "Routes", func() ([]string, error) {
		return []string{"partial"}, apperrors.QueryFailure(nil, "{}")
	})

	assert.False(t, s.OK())
	assert.Nil(t, s.Lines)
	assert.True(t, apperrors.IsQueryFailure(s.Err))
}

func TestGuard_RecoversPanic(t *testing.T) {
	s := Guard(zap.NewNop(), "Latency", func() ([]string, error) {
		var m map[string]int
		m["boom"]++
		return nil, nil
	})

	require.Error(t, s.Err)
	assert.Contains(t, s.Err.Error(), "panic")
}

func TestGuard_NilLogger(t *testing.T) {
	var s Section
	require.NotPanics(t, func() {
		s = Guard(nil, "Routes", func() ([]string, error) {
			return nil, errors.New("indexer down")
		})
	})
	assert.EqualError(t, s.Err, "indexer down")

	require.NotPanics(t, func() {
		s = Guard(nil, "Latency", func() ([]string, error) { panic("boom") })
	})
	assert.Contains(t, s.Err.Error(), "panic: boom")
}

func TestRender_FailedSectionDoesNotStopLaterSections(t *testing.T) {
	logger := zap.NewNop()
	r := &Report{
		Pipeline:    "stargate",
		RunID:       "run-1",
		Endpoint:    "http://indexer/v1/graphql",
		GeneratedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		Sections: []Section{
			Guard(logger, "Raw event counts", func() ([]string, error) { return []string{"X: 3"}, nil }),
			Guard(logger, "Route ranking", func() ([]string, error) { return nil, errors.New("indexer down") }),
			Guard(logger, "GUID matching", func() ([]string, error) { return []string{"Matched GUIDs: 1"}, nil }),
		},
	}

	out := r.String()

	assert.Contains(t, out, "STARGATE BRIDGE ANALYTICS REPORT")
	assert.Contains(t, out, "Indexer: http://indexer/v1/graphql")
	assert.Contains(t, out, "Time:    2025-01-02T03:04:05Z")
	assert.Contains(t, out, "  X: 3")
	assert.Contains(t, out, "  Error: indexer down")
	assert.Contains(t, out, "  Matched GUIDs: 1")
	assert.Contains(t, out, "Summary: 2 section(s) ok, 1 failed")

	// sections keep their order
	first := strings.Index(out, "RAW EVENT COUNTS")
	second := strings.Index(out, "ROUTE RANKING")
	third := strings.Index(out, "GUID MATCHING")
	assert.True(t, first < second && second < third)
	assert.Equal(t, 1, r.Failed())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("closed pipe") }

func TestRender_ReturnsWriteError(t *testing.T) {
	err := Render(failingWriter{}, &Report{Pipeline: "across"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "closed pipe")
}

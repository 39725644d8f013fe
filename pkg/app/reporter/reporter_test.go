package reporter

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apperrors "github.com/chainsafe/bridge-analytics/pkg/app/errors"
	"github.com/chainsafe/bridge-analytics/pkg/config"
	"github.com/chainsafe/bridge-analytics/pkg/indexer"
)

type stubIndexer struct {
	countErr error
}

func (s *stubIndexer) Count(context.Context, string) (int, error) {
	return 7, s.countErr
}

func (s *stubIndexer) TransfersSent(context.Context) ([]indexer.TransferEvent, error) {
	return nil, nil
}

func (s *stubIndexer) TransfersReceived(context.Context) ([]indexer.TransferEvent, error) {
	return nil, nil
}

func (s *stubIndexer) CrosschainMessages(context.Context, indexer.MessageFilter) ([]indexer.CrosschainMessage, error) {
	return nil, nil
}

func (s *stubIndexer) AppPayloads(context.Context, string) ([]indexer.AppPayload, error) {
	return nil, nil
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestReporter_AllPipelines(t *testing.T) {
	var out bytes.Buffer
	r := NewReporter(config.Default(), All, &out)

	require.NoError(t, r.run(context.Background(), &stubIndexer{}, "http://indexer", zap.NewNop()))

	s := out.String()
	across := strings.Index(s, "ACROSS BRIDGE ANALYTICS REPORT")
	stargate := strings.Index(s, "STARGATE BRIDGE ANALYTICS REPORT")
	require.GreaterOrEqual(t, across, 0)
	require.GreaterOrEqual(t, stargate, 0)
	assert.Less(t, across, stargate)
	assert.Contains(t, s, "Indexer: http://indexer")
	assert.Contains(t, s, "StargatePool_OFTSent: 7")
}

func TestReporter_SectionFailuresDoNotFailRun(t *testing.T) {
	var out bytes.Buffer
	r := NewReporter(config.Default(), "across", &out)

	err := r.run(context.Background(), &stubIndexer{countErr: apperrors.QueryFailure(nil, "{}")}, "", zap.NewNop())
	require.NoError(t, err)
	assert.Contains(t, out.String(), "SpokePool_FilledRelay: Error - ")
}

func TestReporter_UnknownPipeline(t *testing.T) {
	r := NewReporter(config.Default(), "wormhole", &bytes.Buffer{})

	err := r.run(context.Background(), &stubIndexer{}, "", zap.NewNop())
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CategoryResourceNotFound))
}

func TestReporter_WriteError(t *testing.T) {
	r := NewReporter(config.Default(), "stargate", failingWriter{})

	err := r.run(context.Background(), &stubIndexer{}, "", zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestReporter_InvalidPolicy(t *testing.T) {
	cfg := config.Default()
	cfg.Matching.DuplicatePolicy = "first_wins"
	r := NewReporter(cfg, "stargate", &bytes.Buffer{})

	require.Error(t, r.run(context.Background(), &stubIndexer{}, "", zap.NewNop()))
}

func TestReporter_RunNilConfig(t *testing.T) {
	require.Error(t, NewReporter(nil, All, nil).Run())
}

// Package indexer is a minimal GraphQL client for the bridge indexer (a Hasura endpoint).
//
// It issues one query per call, requires a top-level "data" object in the response and
// returns the decoded result sets untouched. There is no caching and no retry: a failed
// query surfaces immediately to the caller.
package indexer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/chainsafe/bridge-analytics/internal/metrics"
	apperrors "github.com/chainsafe/bridge-analytics/pkg/app/errors"
	"github.com/chainsafe/bridge-analytics/pkg/config"
)

// maxErrorBody bounds how much of a non-2xx body is copied into the error message
const maxErrorBody = 512

// Record is one row of a result set, keyed by field name.
// Numbers are kept as json.Number so on-chain amounts survive decoding.
type Record map[string]any

// Client talks to a single GraphQL endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
	timeout    time.Duration
	logger     *zap.Logger
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

// New creates a client for endpoint.
func New(endpoint string, opts ...Option) (*Client, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("indexer endpoint is required")
	}
	s := applyOptions(opts)
	return &Client{
		endpoint:   endpoint,
		httpClient: s.httpClient,
		timeout:    s.timeout,
		logger:     s.logger,
	}, nil
}

// NewFromConfig creates a client from the indexer section of the application config.
// Options given explicitly are applied after the configured timeout.
func NewFromConfig(cfg *config.IndexerConfig, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil indexer config")
	}
	return New(cfg.Endpoint, append([]Option{WithTimeout(cfg.Timeout)}, opts...)...)
}

// Endpoint returns the URL queries are sent to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Run sends query with the given bind variables and returns the result sets found
// under "data", keyed by result-set name and in response order.
//
// A response without a "data" object is logged verbatim and returned as a QueryFailure.
func (c *Client) Run(ctx context.Context, query string, variables map[string]any) (map[string][]Record, error) {
	if variables == nil {
		variables = map[string]any{}
	}
	payload, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.QueryDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.QueriesTotal.WithLabelValues("transport_error").Inc()
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, apperrors.TimeoutError(err, "indexer request timed out")
		}
		return nil, apperrors.DependencyError(err, "indexer request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.QueriesTotal.WithLabelValues("transport_error").Inc()
		return nil, apperrors.DependencyError(err, "failed to read indexer response")
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		metrics.QueriesTotal.WithLabelValues("transport_error").Inc()
		return nil, apperrors.DependencyError(
			fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(raw, maxErrorBody)),
			"indexer request failed",
		)
	}

	data := gjson.GetBytes(raw, "data")
	if !gjson.ValidBytes(raw) || !data.Exists() || !data.IsObject() {
		metrics.QueriesTotal.WithLabelValues("query_failure").Inc()
		c.logger.Error("GraphQL query failed",
			zap.String("endpoint", c.endpoint),
			zap.String("response", string(raw)))
		return nil, apperrors.QueryFailure(missingDataError(raw), string(raw))
	}

	sets, err := decodeResultSets(data.Raw)
	if err != nil {
		metrics.QueriesTotal.WithLabelValues("query_failure").Inc()
		return nil, apperrors.QueryFailure(err, string(raw))
	}

	metrics.QueriesTotal.WithLabelValues("ok").Inc()
	c.logger.Debug("GraphQL query completed",
		zap.Int("result_sets", len(sets)),
		zap.Duration("duration", time.Since(start)))

	return sets, nil
}

// ResultSet returns the named result set, or a QueryFailure when the response
// did not include it.
func ResultSet(sets map[string][]Record, name string) ([]Record, error) {
	rows, ok := sets[name]
	if !ok {
		return nil, apperrors.QueryFailure(fmt.Errorf("result set %q missing from response", name), "")
	}
	return rows, nil
}

// Count returns the number of rows in resultSet by selecting only their ids.
func (c *Client) Count(ctx context.Context, resultSet string) (int, error) {
	sets, err := c.Run(ctx, fmt.Sprintf("query { %s { id } }", resultSet), nil)
	if err != nil {
		return 0, err
	}
	rows, err := ResultSet(sets, resultSet)
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

func missingDataError(raw []byte) error {
	var msgs []string
	for _, m := range gjson.GetBytes(raw, "errors.#.message").Array() {
		msgs = append(msgs, m.String())
	}
	if len(msgs) > 0 {
		return fmt.Errorf("no 'data' in GraphQL response: %v", msgs)
	}
	return errors.New("no 'data' in GraphQL response; check the table exists and the query is valid")
}

func decodeResultSets(raw string) (map[string][]Record, error) {
	var sets map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &sets); err != nil {
		return nil, fmt.Errorf("failed to decode data object: %w", err)
	}

	out := make(map[string][]Record, len(sets))
	for name, body := range sets {
		dec := json.NewDecoder(bytes.NewReader(body))
		dec.UseNumber()

		var rows []Record
		if err := dec.Decode(&rows); err != nil {
			return nil, fmt.Errorf("result set %q is not a list of records: %w", name, err)
		}
		out[name] = rows
	}
	return out, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

package pipeline

import (
	"context"

	"github.com/chainsafe/bridge-analytics/pkg/indexer"
)

// MockIndexer is a mock implementation of Indexer
type MockIndexer struct {
	CountFunc              func(ctx context.Context, resultSet string) (int, error)
	TransfersSentFunc      func(ctx context.Context) ([]indexer.TransferEvent, error)
	TransfersReceivedFunc  func(ctx context.Context) ([]indexer.TransferEvent, error)
	CrosschainMessagesFunc func(ctx context.Context, filter indexer.MessageFilter) ([]indexer.CrosschainMessage, error)
	AppPayloadsFunc        func(ctx context.Context, appName string) ([]indexer.AppPayload, error)

	Calls map[string]int
}

func (m *MockIndexer) called(name string) {
	if m.Calls == nil {
		m.Calls = make(map[string]int)
	}
	m.Calls[name]++
}

func (m *MockIndexer) Count(ctx context.Context, resultSet string) (int, error) {
	m.called("Count")
	if m.CountFunc != nil {
		return m.CountFunc(ctx, resultSet)
	}
	return 0, nil
}

func (m *MockIndexer) TransfersSent(ctx context.Context) ([]indexer.TransferEvent, error) {
	m.called("TransfersSent")
	if m.TransfersSentFunc != nil {
		return m.TransfersSentFunc(ctx)
	}
	return nil, nil
}

func (m *MockIndexer) TransfersReceived(ctx context.Context) ([]indexer.TransferEvent, error) {
	m.called("TransfersReceived")
	if m.TransfersReceivedFunc != nil {
		return m.TransfersReceivedFunc(ctx)
	}
	return nil, nil
}

func (m *MockIndexer) CrosschainMessages(ctx context.Context, filter indexer.MessageFilter) ([]indexer.CrosschainMessage, error) {
	m.called("CrosschainMessages")
	if m.CrosschainMessagesFunc != nil {
		return m.CrosschainMessagesFunc(ctx, filter)
	}
	return nil, nil
}

func (m *MockIndexer) AppPayloads(ctx context.Context, appName string) ([]indexer.AppPayload, error) {
	m.called("AppPayloads")
	if m.AppPayloadsFunc != nil {
		return m.AppPayloadsFunc(ctx, appName)
	}
	return nil, nil
}

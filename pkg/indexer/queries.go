package indexer

import (
	"context"
	"fmt"
)

// Result-set names exposed by the indexer schema.
const (
	SetOFTSent           = "StargatePool_OFTSent"
	SetOFTReceived       = "StargatePool_OFTReceived"
	SetPacketSent        = "EndpointV2_PacketSent"
	SetPacketDelivered   = "EndpointV2_PacketDelivered"
	SetFilledRelay       = "SpokePool_FilledRelay"
	SetFilledV3Relay     = "SpokePool_FilledV3Relay"
	SetFundsDeposited    = "SpokePool_FundsDeposited"
	SetCrosschainMessage = "CrosschainMessage"
	SetAppPayload        = "AppPayload"
)

const (
	oftSentQuery = `
	query {
	  StargatePool_OFTSent {
	    guid
	    chainId
	    dstEid
	    amountSentLD
	  }
	}`

	oftReceivedQuery = `
	query {
	  StargatePool_OFTReceived {
	    guid
	    chainId
	    srcEid
	  }
	}`

	crosschainMessagesQuery = `
	query CrosschainMessages($where: CrosschainMessage_bool_exp!) {
	  CrosschainMessage(where: $where) {
	    id
	    chainIdOutbound
	    chainIdInbound
	    fromOutbound
	    toInbound
	    matched
	    latency
	  }
	}`

	appPayloadsQuery = `
	query AppPayloads($appName: String!) {
	  AppPayload(where: {appName: {_eq: $appName}}) {
	    id
	    sender
	    recipient
	    amountOutbound
	    amountInbound
	    transportingMsgId
	  }
	}`
)

// MessageFilter is a Hasura boolean expression over CrosschainMessage columns.
type MessageFilter map[string]any

// ProtocolFilter selects messages of one bridge protocol.
func ProtocolFilter(protocol string) MessageFilter {
	return MessageFilter{"protocol": map[string]any{"_eq": protocol}}
}

// MatchedFilter selects messages the indexer has already matched.
func MatchedFilter() MessageFilter {
	return MessageFilter{"matched": map[string]any{"_eq": true}}
}

// TransfersSent fetches every StargatePool_OFTSent event.
func (c *Client) TransfersSent(ctx context.Context) ([]TransferEvent, error) {
	rows, err := c.fetch(ctx, oftSentQuery, nil, SetOFTSent)
	if err != nil {
		return nil, err
	}
	return DecodeSentEvents(rows), nil
}

// TransfersReceived fetches every StargatePool_OFTReceived event.
func (c *Client) TransfersReceived(ctx context.Context) ([]TransferEvent, error) {
	rows, err := c.fetch(ctx, oftReceivedQuery, nil, SetOFTReceived)
	if err != nil {
		return nil, err
	}
	return DecodeReceivedEvents(rows), nil
}

// CrosschainMessages fetches messages matching filter.
func (c *Client) CrosschainMessages(ctx context.Context, filter MessageFilter) ([]CrosschainMessage, error) {
	if filter == nil {
		filter = MessageFilter{}
	}
	rows, err := c.fetch(ctx, crosschainMessagesQuery, map[string]any{"where": map[string]any(filter)}, SetCrosschainMessage)
	if err != nil {
		return nil, err
	}
	return DecodeMessages(rows), nil
}

// AppPayloads fetches payloads emitted by appName.
func (c *Client) AppPayloads(ctx context.Context, appName string) ([]AppPayload, error) {
	rows, err := c.fetch(ctx, appPayloadsQuery, map[string]any{"appName": appName}, SetAppPayload)
	if err != nil {
		return nil, err
	}
	return DecodePayloads(rows), nil
}

func (c *Client) fetch(ctx context.Context, query string, variables map[string]any, set string) ([]Record, error) {
	sets, err := c.Run(ctx, query, variables)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", set, err)
	}
	rows, err := ResultSet(sets, set)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", set, err)
	}
	return rows, nil
}

package indexer

import (
	"fmt"

	"github.com/shopspring/decimal"

	apperrors "github.com/chainsafe/bridge-analytics/pkg/app/errors"
)

// TransferEvent is one emitted bridge operation, read-only once decoded.
type TransferEvent struct {
	GUID          string
	SourceID      string
	DestinationID string
	// Amount is invalid when the indexer row carried no usable amount
	Amount    decimal.NullDecimal
	Sender    string
	Recipient string
}

// RouteLabel formats the event's direction as "src->dst".
func (e TransferEvent) RouteLabel() string {
	return e.SourceID + "->" + e.DestinationID
}

// CrosschainMessage is a logical message, possibly pre-matched by the indexer.
// Latency (seconds) is only meaningful when Matched is true.
type CrosschainMessage struct {
	ID              string
	ChainIDOutbound string
	ChainIDInbound  string
	FromOutbound    string
	ToInbound       string
	Matched         bool
	Latency         *int64
	// LatencyErr is set when a latency value was present but not a
	// non-negative integer
	LatencyErr error
}

// AppPayload is an application level payload carried by a message.
type AppPayload struct {
	ID                string
	Sender            string
	Recipient         string
	AmountOutbound    decimal.NullDecimal
	AmountInbound     decimal.NullDecimal
	TransportingMsgID string
}

// DecodeSentEvents maps StargatePool_OFTSent rows. The source is the EVM chain
// the event was emitted on, the destination the LayerZero endpoint id.
func DecodeSentEvents(rows []Record) []TransferEvent {
	events := make([]TransferEvent, 0, len(rows))
	for _, r := range rows {
		events = append(events, TransferEvent{
			GUID:          r.String("guid"),
			SourceID:      r.String("chainId"),
			DestinationID: r.String("dstEid"),
			Amount:        r.NullAmount("amountSentLD"),
			Sender:        NormalizeAddress(r.String("fromAddress")),
		})
	}
	return events
}

// DecodeReceivedEvents maps StargatePool_OFTReceived rows. The source is the
// LayerZero endpoint id the transfer came from, the destination the local chain.
func DecodeReceivedEvents(rows []Record) []TransferEvent {
	events := make([]TransferEvent, 0, len(rows))
	for _, r := range rows {
		events = append(events, TransferEvent{
			GUID:          r.String("guid"),
			SourceID:      r.String("srcEid"),
			DestinationID: r.String("chainId"),
			Amount:        r.NullAmount("amountReceivedLD"),
			Recipient:     NormalizeAddress(r.String("toAddress")),
		})
	}
	return events
}

// DecodeMessages maps CrosschainMessage rows.
func DecodeMessages(rows []Record) []CrosschainMessage {
	msgs := make([]CrosschainMessage, 0, len(rows))
	for _, r := range rows {
		msg := CrosschainMessage{
			ID:              r.String("id"),
			ChainIDOutbound: r.String("chainIdOutbound"),
			ChainIDInbound:  r.String("chainIdInbound"),
			FromOutbound:    NormalizeAddress(r.String("fromOutbound")),
			ToInbound:       NormalizeAddress(r.String("toInbound")),
			Matched:         r.Bool("matched"),
		}
		if r["latency"] != nil {
			latency, err := r.Int("latency")
			switch {
			case err != nil:
				msg.LatencyErr = err
			case latency < 0:
				msg.LatencyErr = apperrors.DecodeFailure(fmt.Errorf("latency %d is negative", latency), "latency")
			default:
				msg.Latency = &latency
			}
		}
		msgs = append(msgs, msg)
	}
	return msgs
}

// DecodePayloads maps AppPayload rows.
func DecodePayloads(rows []Record) []AppPayload {
	payloads := make([]AppPayload, 0, len(rows))
	for _, r := range rows {
		payloads = append(payloads, AppPayload{
			ID:                r.String("id"),
			Sender:            NormalizeAddress(r.String("sender")),
			Recipient:         NormalizeAddress(r.String("recipient")),
			AmountOutbound:    r.NullAmount("amountOutbound"),
			AmountInbound:     r.NullAmount("amountInbound"),
			TransportingMsgID: r.String("transportingMsgId"),
		})
	}
	return payloads
}

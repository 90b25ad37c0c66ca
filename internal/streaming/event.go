package streaming

import (
	"encoding/json"
	"errors"
)

type EventType string

const (
	EventTypeBalanceQuery EventType = "balance_query"
)

// QueryEvent is the audit record published for each served balance query.
type QueryEvent struct {
	Type       EventType `json:"type"`
	Network    string    `json:"network"`
	ChainID    uint64    `json:"chain_id"`
	TraceID    string    `json:"trace_id,omitempty"`
	Address    string    `json:"address"`
	BlockIndex uint64    `json:"block_index"`
	Version    uint64    `json:"version"`
	Coins      int       `json:"coins"`
	Filtered   bool      `json:"filtered,omitempty"`
	DurationMS int64     `json:"duration_ms"`
}

func Encode(event QueryEvent) ([]byte, error) {
	if event.Type == "" {
		return nil, errors.New("event type is required")
	}
	if event.Network == "" {
		return nil, errors.New("network is required")
	}
	return json.Marshal(event)
}

func Decode(payload []byte) (QueryEvent, error) {
	var event QueryEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return QueryEvent{}, err
	}
	if event.Type == "" {
		return QueryEvent{}, errors.New("event type is missing")
	}
	if event.Network == "" {
		return QueryEvent{}, errors.New("network is missing")
	}
	return event, nil
}

package proto

import (
	"encoding/json"
	"fmt"

	"roadrunner/server/internal/game"
)

const (
	// Version tracks the wire-protocol revision expected by clients.
	Version = 1

	typeState = "state"
	typeError = "error"
	typeAck   = "ack"
)

// Client message type identifiers.
const (
	TypeMove      = "move"
	TypeHeartbeat = "heartbeat"
)

// Exported aliases for outbound message type identifiers.
const (
	TypeState = typeState
	TypeError = typeError
	TypeAck   = typeAck
)

// ClientMessage is anything a websocket client may send.
type ClientMessage struct {
	Ver    int    `json:"ver,omitempty"`
	Type   string `json:"type"`
	Move   string `json:"move"`
	SentAt int64  `json:"sentAt,omitempty"`
}

func DecodeClientMessage(payload []byte) (ClientMessage, error) {
	var msg ClientMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return ClientMessage{}, fmt.Errorf("decode client message: %w", err)
	}
	if msg.Type == "" {
		return ClientMessage{}, fmt.Errorf("decode client message: missing type")
	}
	return msg, nil
}

// StateSnapshot is broadcast to every subscriber of a map after each tick.
type StateSnapshot struct {
	Ver     int                      `json:"ver"`
	Type    string                   `json:"type"`
	Tick    uint64                   `json:"tick"`
	MapID   string                   `json:"mapId"`
	Players map[string]game.DogState `json:"players"`
}

func NewStateSnapshot(tick uint64, mapID string, state game.State) StateSnapshot {
	players := state.Players
	if players == nil {
		players = map[string]game.DogState{}
	}
	return StateSnapshot{Ver: Version, Type: typeState, Tick: tick, MapID: mapID, Players: players}
}

func EncodeStateSnapshot(msg StateSnapshot) ([]byte, error) {
	if msg.Type == "" {
		msg.Type = typeState
	}
	if msg.Ver == 0 {
		msg.Ver = Version
	}
	return json.Marshal(msg)
}

// Ack confirms a client message.
type Ack struct {
	Ver        int    `json:"ver"`
	Type       string `json:"type"`
	Of         string `json:"of"`
	ServerTime int64  `json:"serverTime,omitempty"`
	ClientTime int64  `json:"clientTime,omitempty"`
}

func EncodeAck(msg Ack) ([]byte, error) {
	msg.Ver = Version
	msg.Type = typeAck
	return json.Marshal(msg)
}

// Error reports a rejected client message using the HTTP API error codes.
type Error struct {
	Ver     int    `json:"ver"`
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func EncodeError(code, message string) ([]byte, error) {
	return json.Marshal(Error{Ver: Version, Type: typeError, Code: code, Message: message})
}

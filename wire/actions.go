// Copyright 2025 DoniLite. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package wire

import (
	"encoding/json"
	"fmt"

	"github.com/DoniLite/morsewire/kob"
)

type Action_Type int

const (
	JOIN Action_Type = iota
	ACK
	LEAVE
	ROSTER
	TIMING
	SENDER
	REJECT
	ERROR
)

// Error codes carried in ErrorPayload.Code.
const (
	CodeDuplicateIdentity = "duplicate_identity"
	CodeProtocol          = "protocol"
)

type Action struct {
	/*
		Based on the Action_Type Enum can be
		    JOIN
		    ACK
		    LEAVE
		    ROSTER
		    TIMING
		    SENDER
		    REJECT
		    ERROR
	*/
	Type    Action_Type     `json:"type" yaml:"type"`
	Payload json.RawMessage `json:"payload" yaml:"payload"` // The associated payload to provide with this action
}

type Message struct {
	Action    Action `json:"action" yaml:"action"`
	RequestID string `json:"request_id,omitempty" yaml:"request_id,omitempty"`
	Error     string `json:"error,omitempty" yaml:"error,omitempty"`
}

// StationInfo is one roster entry: the server-assigned connection id plus
// the operator-chosen station name.
type StationInfo struct {
	ID      string `json:"id"`
	Station string `json:"station"`
}

type JoinPayload struct {
	Wire    int    `json:"wire"`
	Station string `json:"station"`
}

type AckPayload struct {
	ConnectionID string        `json:"connection_id"`
	Wire         int           `json:"wire"`
	Roster       []StationInfo `json:"roster"`
}

type RosterPayload struct {
	Wire     int           `json:"wire"`
	Stations []StationInfo `json:"stations"`
}

// TimingPayload carries one burst of raw key timing. Seq is per-sender and
// monotonically increasing; every edge timestamp is relative to the sender's
// stream origin, in microseconds.
type TimingPayload struct {
	Station string     `json:"station"`
	Seq     uint64     `json:"seq"`
	Edges   []kob.Edge `json:"edges"`
}

// SenderPayload announces the active sender on a wire. An empty station
// means the wire has gone idle.
type SenderPayload struct {
	Station string `json:"station"`
}

// RejectPayload answers a timing message sent while another station holds
// the wire.
type RejectPayload struct {
	Seq    uint64 `json:"seq"`
	Holder string `json:"holder"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}

func (action *Action) Fill(actionType Action_Type, payload []byte) {
	action.Type = actionType
	action.Payload = payload
}

func (action *Action) Deserialize(target any) error {
	if len(action.Payload) == 0 {
		return fmt.Errorf("the length of the payload is empty for the action type: %d", action.Type)
	}
	if err := json.Unmarshal(action.Payload, target); err != nil {
		return err
	}
	return nil
}

func (action *Action) AddPayload(payload any) error {
	if jsonBytes, err := json.Marshal(payload); err == nil {
		action.Payload = jsonBytes
		return nil
	} else {
		return err
	}
}

func NewMessage(actionType Action_Type, payload any) (*Message, error) {
	msg := &Message{}
	if payload == nil {
		msg.Action.Fill(actionType, nil)
		return msg, nil
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	msg.Action.Fill(actionType, body)
	return msg, nil
}

func NewErrorMessage(code, details string) *Message {
	msg := &Message{Error: code}
	msg.Action.Type = ERROR
	_ = msg.Action.AddPayload(ErrorPayload{Code: code, Details: details})
	return msg
}

func (m *Message) DecodePayload(target any) error {
	if len(m.Action.Payload) == 0 {
		return fmt.Errorf("message payload is empty for type %d", m.Action.Type)
	}
	if err := m.Action.Deserialize(target); err != nil {
		return fmt.Errorf("failed to unmarshal payload for type %d: %w", m.Action.Type, err)
	}
	return nil
}

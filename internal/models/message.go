package models

import (
	"encoding/json"
	"errors"
	"fmt"
)

// EventType represents the name of a signaling event on the wire
type EventType string

const (
	// Client to server
	EventFindPartner EventType = "find-partner"
	EventSkipPartner EventType = "skip-partner"
	EventStopSearch  EventType = "stop-search"

	// Relayed in both directions
	EventOffer        EventType = "webrtc-offer"
	EventAnswer       EventType = "webrtc-answer"
	EventIceCandidate EventType = "webrtc-ice-candidate"
	EventChatMessage  EventType = "chat-message"

	// Server to client
	EventPartnerFound        EventType = "partner-found"
	EventSearching           EventType = "searching"
	EventPartnerDisconnected EventType = "partner-disconnected"
	EventOnlineCount         EventType = "online-count"
)

var (
	ErrUnknownEvent     = errors.New("unknown event type")
	ErrMalformedPayload = errors.New("malformed event payload")
)

// Frame is a single websocket text message
type Frame struct {
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Inbound is a decoded client to server event. The set of implementations is closed.
type Inbound interface {
	Event() EventType
}

type FindPartner struct {
	UserData UserData
}

type SkipPartner struct{}

type StopSearch struct{}

// Signal carries an opaque offer, answer or ICE candidate body.
type Signal struct {
	Type EventType
	Body json.RawMessage
}

type ChatMessage struct {
	Message json.RawMessage
}

func (FindPartner) Event() EventType { return EventFindPartner }
func (SkipPartner) Event() EventType { return EventSkipPartner }
func (StopSearch) Event() EventType  { return EventStopSearch }
func (s Signal) Event() EventType    { return s.Type }
func (ChatMessage) Event() EventType { return EventChatMessage }

// signalFields maps relayed signaling events to the payload field holding the opaque body
var signalFields = map[EventType]string{
	EventOffer:        "offer",
	EventAnswer:       "answer",
	EventIceCandidate: "candidate",
}

// Decode parses a raw websocket message into one of the Inbound variants
func Decode(data []byte) (Inbound, error) {
	var frame Frame
	if err := json.Unmarshal(data, &frame); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	switch frame.Type {
	case EventFindPartner:
		userData := UserData{IsGuest: true}
		if !isEmpty(frame.Payload) {
			// Accept both {userData: {...}} and the bare user data object
			var wrapped struct {
				UserData *UserData `json:"userData"`
			}
			if err := json.Unmarshal(frame.Payload, &wrapped); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
			}
			if wrapped.UserData != nil {
				userData = *wrapped.UserData
			} else if err := json.Unmarshal(frame.Payload, &userData); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
			}
		}
		return FindPartner{UserData: userData}, nil

	case EventSkipPartner:
		return SkipPartner{}, nil

	case EventStopSearch:
		return StopSearch{}, nil

	case EventOffer, EventAnswer, EventIceCandidate:
		body, err := field(frame.Payload, signalFields[frame.Type])
		if err != nil {
			return nil, err
		}
		return Signal{Type: frame.Type, Body: body}, nil

	case EventChatMessage:
		body, err := field(frame.Payload, "message")
		if err != nil {
			return nil, err
		}
		return ChatMessage{Message: body}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, frame.Type)
	}
}

// field extracts one member of an object payload without interpreting it
func field(payload json.RawMessage, name string) (json.RawMessage, error) {
	if isEmpty(payload) {
		return nil, fmt.Errorf("%w: missing %s", ErrMalformedPayload, name)
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(payload, &obj); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	body, ok := obj[name]
	if !ok {
		return nil, fmt.Errorf("%w: missing %s", ErrMalformedPayload, name)
	}
	return body, nil
}

func isEmpty(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

// PartnerFoundPayload is sent to both sides when a pairing is established
type PartnerFoundPayload struct {
	PartnerID       string  `json:"partnerId"`
	PartnerIdentity *string `json:"partnerIdentity"`
	Initiator       bool    `json:"initiator"`
}

// Encode builds a server to client frame
func Encode(eventType EventType, payload any) ([]byte, error) {
	frame := Frame{Type: eventType}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
		}
		frame.Payload = raw
	}
	return json.Marshal(frame)
}

// PartnerFound builds the partner-found notification
func PartnerFound(partnerID string, identity *string, initiator bool) ([]byte, error) {
	return Encode(EventPartnerFound, PartnerFoundPayload{
		PartnerID:       partnerID,
		PartnerIdentity: identity,
		Initiator:       initiator,
	})
}

// Relayed builds the forwarded form of a signaling or chat event, tagged with the sender
func Relayed(msg Inbound, from string) ([]byte, error) {
	payload := map[string]json.RawMessage{}
	fromRaw, err := json.Marshal(from)
	if err != nil {
		return nil, err
	}
	payload["from"] = fromRaw

	switch m := msg.(type) {
	case Signal:
		name, ok := signalFields[m.Type]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, m.Type)
		}
		payload[name] = m.Body
	case ChatMessage:
		payload["message"] = m.Message
	default:
		return nil, fmt.Errorf("event %s is not relayable", msg.Event())
	}
	return Encode(msg.Event(), payload)
}

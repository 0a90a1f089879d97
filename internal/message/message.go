// Package message defines the wire contract between clients and the
// signaling server. Every frame is a JSON envelope carrying an event name
// and an event-specific payload.
package message

import "encoding/json"

// Inbound event names.
const (
	EventRegisterClient    = "register-client"
	EventRequestConnection = "request-connection"
	EventRespondToRequest  = "respond-to-request"
	EventOffer             = "offer"
	EventAnswer            = "answer"
	EventIceCandidate      = "ice-candidate"
)

// Outbound event names.
const (
	EventConnected             = "connected"
	EventRegistrationSuccess   = "registration-success"
	EventRegistrationError     = "registration-error"
	EventTargetNotFound        = "target-not-found"
	EventTargetBusy            = "target-busy"
	EventRequestSent           = "request-sent"
	EventIncomingRequest       = "incoming-connection-request"
	EventConnectionAccepted    = "connection-accepted"
	EventConnectionEstablished = "connection-established"
	EventConnectionRejected    = "connection-rejected"
	EventPeerDisconnected      = "peer-disconnected"
	EventConnectionError       = "connection-error"
)

type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type RegisterClient struct {
	Code string `json:"code"`
}

type RegistrationSuccess struct {
	Code string `json:"code"`
}

type RegistrationError struct {
	Reason string `json:"reason"`
}

type ConnectionRequest struct {
	FromCode   string `json:"fromCode"`
	TargetCode string `json:"targetCode"`
}

type TargetBusy struct {
	TargetCode string `json:"targetCode"`
}

type RequestSent struct {
	TargetCode string `json:"targetCode"`
}

type IncomingConnectionRequest struct {
	FromCode  string `json:"fromCode"`
	RequestID string `json:"requestId"`
}

type ConnectionResponse struct {
	RequestID string `json:"requestId"`
	Accepted  bool   `json:"accepted"`
}

type ConnectionAccepted struct {
	ConnectionID string `json:"connectionId"`
	TargetCode   string `json:"targetCode"`
}

type ConnectionEstablished struct {
	ConnectionID  string `json:"connectionId"`
	InitiatorCode string `json:"initiatorCode"`
}

type ConnectionRejected struct {
	TargetCode string `json:"targetCode"`
}

// SessionDescription is the offer/answer body. The server never interprets
// the SDP blob, it only checks the structural shape before relaying.
type SessionDescription struct {
	Type string `json:"type"`
	SDP  string `json:"sdp"`
}

type Offer struct {
	ConnectionID string             `json:"connectionId"`
	Offer        SessionDescription `json:"offer"`
}

type Answer struct {
	ConnectionID string             `json:"connectionId"`
	Answer       SessionDescription `json:"answer"`
}

// IceCandidate carries the candidate body as raw JSON, relayed verbatim.
type IceCandidate struct {
	ConnectionID string          `json:"connectionId"`
	Candidate    json.RawMessage `json:"candidate"`
}

type ConnectionError struct {
	Message string `json:"message"`
}

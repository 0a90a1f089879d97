// Package relay forwards negotiation payloads between the two parties of an
// active connection. It holds no state of its own, only a resolver for
// active connections and a sender for outbound events.
package relay

import (
	"errors"

	"github.com/peer-chat-dev/peer-chat-go-signaling-server/internal/broker"
	"github.com/peer-chat-dev/peer-chat-go-signaling-server/internal/logger"
	"github.com/peer-chat-dev/peer-chat-go-signaling-server/internal/message"
)

var (
	ErrUnknownConnection = errors.New("invalid connection")
	ErrNotParticipant    = errors.New("sender is not a party to this connection")
)

// ConnectionResolver looks up active connections. Satisfied by *broker.Broker.
type ConnectionResolver interface {
	GetActiveConnection(connectionID string) (broker.ActiveConnection, bool)
}

// Sender pushes a named event to a specific session.
type Sender interface {
	SendEvent(sessionID, event string, data any) error
}

type Relay struct {
	connections ConnectionResolver
	sender      Sender
}

func New(connections ConnectionResolver, sender Sender) *Relay {
	return &Relay{connections: connections, sender: sender}
}

// RelayOffer validates the offer shape and forwards it to the counterparty.
// Only the type and sdp fields are re-encoded, never anything extra the
// sender attached.
func (r *Relay) RelayOffer(fromSessionID string, payload message.Offer) error {
	peer, err := r.counterparty(fromSessionID, payload.ConnectionID, payload.Offer)
	if err != nil {
		return err
	}

	logger.DebugF("[%s] Offer forwarded to %s", fromSessionID, peer)
	return r.sender.SendEvent(peer, message.EventOffer, message.Offer{
		ConnectionID: payload.ConnectionID,
		Offer:        message.SessionDescription{Type: payload.Offer.Type, SDP: payload.Offer.SDP},
	})
}

// RelayAnswer is symmetric to RelayOffer.
func (r *Relay) RelayAnswer(fromSessionID string, payload message.Answer) error {
	peer, err := r.counterparty(fromSessionID, payload.ConnectionID, payload.Answer)
	if err != nil {
		return err
	}

	logger.DebugF("[%s] Answer forwarded to %s", fromSessionID, peer)
	return r.sender.SendEvent(peer, message.EventAnswer, message.Answer{
		ConnectionID: payload.ConnectionID,
		Answer:       message.SessionDescription{Type: payload.Answer.Type, SDP: payload.Answer.SDP},
	})
}

// RelayCandidate forwards an ICE candidate best-effort. An unknown connection
// is not an error: candidates can legitimately arrive after teardown and are
// dropped silently.
func (r *Relay) RelayCandidate(fromSessionID string, payload message.IceCandidate) {
	if !message.HasCandidateBody(payload.Candidate) {
		return
	}

	conn, ok := r.connections.GetActiveConnection(payload.ConnectionID)
	if !ok {
		return
	}

	peer, ok := conn.Peer(fromSessionID)
	if !ok {
		return
	}

	_ = r.sender.SendEvent(peer, message.EventIceCandidate, message.IceCandidate{
		ConnectionID: payload.ConnectionID,
		Candidate:    payload.Candidate,
	})
}

func (r *Relay) counterparty(fromSessionID, connectionID string, desc message.SessionDescription) (string, error) {
	conn, ok := r.connections.GetActiveConnection(connectionID)
	if !ok {
		logger.WarnF("[%s] Relay on unknown connection %s", fromSessionID, connectionID)
		return "", ErrUnknownConnection
	}

	if err := message.ValidateSessionDescription(desc); err != nil {
		logger.WarnF("[%s] Invalid session description on connection %s", fromSessionID, connectionID)
		return "", err
	}

	peer, ok := conn.Peer(fromSessionID)
	if !ok {
		return "", ErrNotParticipant
	}
	return peer, nil
}

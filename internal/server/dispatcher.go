package server

import (
	"encoding/json"
	"errors"

	"github.com/peer-chat-dev/peer-chat-go-signaling-server/internal/broker"
	"github.com/peer-chat-dev/peer-chat-go-signaling-server/internal/connection"
	"github.com/peer-chat-dev/peer-chat-go-signaling-server/internal/logger"
	"github.com/peer-chat-dev/peer-chat-go-signaling-server/internal/message"
	"github.com/peer-chat-dev/peer-chat-go-signaling-server/internal/registry"
	"github.com/peer-chat-dev/peer-chat-go-signaling-server/internal/relay"
	"github.com/peer-chat-dev/peer-chat-go-signaling-server/internal/spam"
)

// Dispatcher routes inbound events to the core components and turns their
// results into outbound events. It holds no state of its own.
type Dispatcher struct {
	registry *registry.Registry
	broker   *broker.Broker
	guard    *spam.Guard
	relay    *relay.Relay
	sender   connection.Sender
}

func NewDispatcher(reg *registry.Registry, brk *broker.Broker, guard *spam.Guard, rly *relay.Relay, sender connection.Sender) *Dispatcher {
	return &Dispatcher{
		registry: reg,
		broker:   brk,
		guard:    guard,
		relay:    rly,
		sender:   sender,
	}
}

// Dispatch handles one inbound envelope from a session.
func (d *Dispatcher) Dispatch(sessionID string, env message.Envelope) {
	switch env.Event {
	case message.EventRegisterClient:
		var payload message.RegisterClient
		if !d.decode(sessionID, env.Data, &payload) {
			return
		}
		d.handleRegister(sessionID, payload)
	case message.EventRequestConnection:
		var payload message.ConnectionRequest
		if !d.decode(sessionID, env.Data, &payload) {
			return
		}
		d.handleRequest(sessionID, payload)
	case message.EventRespondToRequest:
		var payload message.ConnectionResponse
		if !d.decode(sessionID, env.Data, &payload) {
			return
		}
		d.handleResponse(sessionID, payload)
	case message.EventOffer:
		var payload message.Offer
		if !d.decode(sessionID, env.Data, &payload) {
			return
		}
		d.handleOffer(sessionID, payload)
	case message.EventAnswer:
		var payload message.Answer
		if !d.decode(sessionID, env.Data, &payload) {
			return
		}
		d.handleAnswer(sessionID, payload)
	case message.EventIceCandidate:
		var payload message.IceCandidate
		if !d.decode(sessionID, env.Data, &payload) {
			return
		}
		d.relay.RelayCandidate(sessionID, payload)
	default:
		logger.WarnF("[%s] %s event has not been supported", sessionID, env.Event)
	}
}

func (d *Dispatcher) decode(sessionID string, data json.RawMessage, v any) bool {
	if err := json.Unmarshal(data, v); err != nil {
		logger.WarnF("[%s] Fail to decode event payload, details: %v", sessionID, err)
		d.sendError(sessionID, "malformed event payload")
		return false
	}
	return true
}

func (d *Dispatcher) handleRegister(sessionID string, payload message.RegisterClient) {
	if payload.Code == "" {
		d.send(sessionID, message.EventRegistrationError, message.RegistrationError{Reason: "secret code must not be empty"})
		return
	}

	if err := d.registry.Register(sessionID, payload.Code); err != nil {
		d.send(sessionID, message.EventRegistrationError, message.RegistrationError{Reason: err.Error()})
		return
	}

	logger.InfoF("Registered session %s with secret code %s", sessionID, payload.Code)
	d.send(sessionID, message.EventRegistrationSuccess, message.RegistrationSuccess{Code: payload.Code})
}

// handleRequest runs the request gates in order: validation, target lookup,
// busy check, spam check, duplicate check. The first failing gate answers the
// requester and leaves all stores untouched.
func (d *Dispatcher) handleRequest(sessionID string, payload message.ConnectionRequest) {
	requesterCode, _ := d.registry.CodeOf(sessionID)
	if err := message.ValidateConnectionRequest(payload.FromCode, payload.TargetCode, requesterCode); err != nil {
		d.sendError(sessionID, err.Error())
		return
	}

	targetSessionID, ok := d.registry.Resolve(payload.TargetCode)
	if !ok {
		d.send(sessionID, message.EventTargetNotFound, nil)
		return
	}

	if d.broker.IsBusy(targetSessionID) {
		logger.InfoF("Connection request refused: %s is busy", payload.TargetCode)
		d.send(sessionID, message.EventTargetBusy, message.TargetBusy{TargetCode: payload.TargetCode})
		return
	}

	if !d.guard.IsAllowed(sessionID, payload.TargetCode) {
		d.sendError(sessionID, "too many requests, please wait before trying again")
		return
	}

	if d.broker.HasPendingRequest(sessionID, payload.TargetCode) {
		d.sendError(sessionID, "connection request already pending")
		return
	}

	d.guard.RecordAttempt(sessionID, payload.TargetCode)
	requestID := d.broker.CreateRequest(payload.FromCode, payload.TargetCode, sessionID)

	d.send(targetSessionID, message.EventIncomingRequest, message.IncomingConnectionRequest{
		FromCode:  payload.FromCode,
		RequestID: requestID,
	})

	logger.InfoF("Connection request from %s to %s", payload.FromCode, payload.TargetCode)
	d.send(sessionID, message.EventRequestSent, message.RequestSent{TargetCode: payload.TargetCode})
}

func (d *Dispatcher) handleResponse(sessionID string, payload message.ConnectionResponse) {
	pending, ok := d.broker.GetRequest(payload.RequestID)
	if !ok {
		d.sendError(sessionID, message.ErrUnknownRequest.Error())
		return
	}

	responderCode, _ := d.registry.CodeOf(sessionID)
	if err := message.ValidateConnectionResponse(responderCode, pending.TargetCode); err != nil {
		// drop the pending entry so an unauthorized responder cannot probe it again
		d.broker.RemoveRequest(payload.RequestID)
		d.sendError(sessionID, err.Error())
		return
	}

	if !payload.Accepted {
		if _, ok := d.broker.RejectRequest(payload.RequestID); ok {
			d.guard.RecordRejection(pending.InitiatorSessionID, pending.TargetCode)
			d.send(pending.InitiatorSessionID, message.EventConnectionRejected, message.ConnectionRejected{TargetCode: pending.TargetCode})
			logger.InfoF("Connection rejected by %s for %s", pending.TargetCode, pending.InitiatorCode)
		}
		return
	}

	connectionID, err := d.broker.AcceptRequest(payload.RequestID, sessionID)
	if err != nil {
		if errors.Is(err, broker.ErrPeerBusy) {
			// a racing accept won; tell the initiator the target is taken
			d.send(pending.InitiatorSessionID, message.EventTargetBusy, message.TargetBusy{TargetCode: pending.TargetCode})
		}
		d.sendError(sessionID, responseErrorMessage(err))
		return
	}

	d.send(pending.InitiatorSessionID, message.EventConnectionAccepted, message.ConnectionAccepted{
		ConnectionID: connectionID,
		TargetCode:   pending.TargetCode,
	})
	d.send(sessionID, message.EventConnectionEstablished, message.ConnectionEstablished{
		ConnectionID:  connectionID,
		InitiatorCode: pending.InitiatorCode,
	})

	logger.InfoF("Connection accepted between %s and %s", pending.InitiatorCode, pending.TargetCode)
}

func (d *Dispatcher) handleOffer(sessionID string, payload message.Offer) {
	if err := d.relay.RelayOffer(sessionID, payload); err != nil {
		d.sendRelayError(sessionID, err, "invalid offer format")
	}
}

func (d *Dispatcher) handleAnswer(sessionID string, payload message.Answer) {
	if err := d.relay.RelayAnswer(sessionID, payload); err != nil {
		d.sendRelayError(sessionID, err, "invalid answer format")
	}
}

// responseErrorMessage maps accept failures to user-facing text. A request
// that vanished between lookup and accept reads the same as one that never
// existed.
func responseErrorMessage(err error) string {
	if errors.Is(err, broker.ErrUnknownRequest) {
		return message.ErrUnknownRequest.Error()
	}
	return err.Error()
}

func (d *Dispatcher) sendRelayError(sessionID string, err error, invalidShape string) {
	if errors.Is(err, message.ErrInvalidDescription) {
		d.sendError(sessionID, invalidShape)
		return
	}
	d.sendError(sessionID, relay.ErrUnknownConnection.Error())
}

// HandleDisconnect tears down everything the session owns: its registration,
// its pending requests, its active connections (notifying the surviving
// peer), and its spam tracking entries.
func (d *Dispatcher) HandleDisconnect(sessionID string) {
	if code, ok := d.registry.Unregister(sessionID); ok {
		logger.InfoF("Removed secret code %s for session %s", code, sessionID)
	}

	for _, peer := range d.broker.CleanupSession(sessionID) {
		d.send(peer, message.EventPeerDisconnected, nil)
	}

	d.guard.ForgetSession(sessionID)
}

func (d *Dispatcher) send(sessionID, event string, data any) {
	_ = d.sender.SendEvent(sessionID, event, data)
}

func (d *Dispatcher) sendError(sessionID, msg string) {
	d.send(sessionID, message.EventConnectionError, message.ConnectionError{Message: msg})
}

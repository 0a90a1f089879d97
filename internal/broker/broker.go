// Package broker owns the lifecycle of connection requests and established
// connections. It is the sole writer of the pending and active stores, which
// share one mutex so that accept and disconnect cleanup stay atomic across
// both maps.
package broker

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/peer-chat-dev/peer-chat-go-signaling-server/internal/logger"
)

var (
	ErrUnknownRequest = errors.New("unknown connection request")
	ErrPeerBusy       = errors.New("peer is already in another connection")
)

// PendingConnection is a connection request awaiting the target's decision.
type PendingConnection struct {
	RequestID          string
	InitiatorCode      string
	TargetCode         string
	InitiatorSessionID string
	CreatedAt          time.Time
}

// ActiveConnection is an established pairing between two sessions.
type ActiveConnection struct {
	ConnectionID       string
	InitiatorSessionID string
	TargetSessionID    string
}

// Peer returns the counterparty of the given session on this connection.
// ok is false when the session is not a party at all.
func (c ActiveConnection) Peer(sessionID string) (string, bool) {
	switch sessionID {
	case c.InitiatorSessionID:
		return c.TargetSessionID, true
	case c.TargetSessionID:
		return c.InitiatorSessionID, true
	}
	return "", false
}

type Broker struct {
	mu      sync.Mutex
	pending map[string]*PendingConnection
	active  map[string]*ActiveConnection
}

func New() *Broker {
	return &Broker{
		pending: make(map[string]*PendingConnection),
		active:  make(map[string]*ActiveConnection),
	}
}

// IsBusy reports whether the session is a party to any active connection.
func (b *Broker) IsBusy(sessionID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.isBusyLocked(sessionID)
}

func (b *Broker) isBusyLocked(sessionID string) bool {
	for _, conn := range b.active {
		if conn.InitiatorSessionID == sessionID || conn.TargetSessionID == sessionID {
			return true
		}
	}
	return false
}

// HasPendingRequest reports whether the initiator already has an unanswered
// request to the same target code.
func (b *Broker) HasPendingRequest(initiatorSessionID, targetCode string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, p := range b.pending {
		if p.InitiatorSessionID == initiatorSessionID && p.TargetCode == targetCode {
			return true
		}
	}
	return false
}

// CreateRequest stores a new pending request and returns its request ID.
// All gates (validation, busy, spam, duplicate) are the caller's job.
func (b *Broker) CreateRequest(initiatorCode, targetCode, initiatorSessionID string) string {
	requestID := uuid.NewString()

	b.mu.Lock()
	b.pending[requestID] = &PendingConnection{
		RequestID:          requestID,
		InitiatorCode:      initiatorCode,
		TargetCode:         targetCode,
		InitiatorSessionID: initiatorSessionID,
		CreatedAt:          time.Now(),
	}
	b.mu.Unlock()

	logger.DebugF("Pending request %s created: %s -> %s", requestID, initiatorCode, targetCode)
	return requestID
}

// GetRequest returns a copy of the pending request, if it exists.
func (b *Broker) GetRequest(requestID string) (PendingConnection, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.pending[requestID]
	if !ok {
		return PendingConnection{}, false
	}
	return *p, true
}

// RemoveRequest drops a pending request without materializing anything.
func (b *Broker) RemoveRequest(requestID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.pending[requestID]
	delete(b.pending, requestID)
	return ok
}

// AcceptRequest consumes the pending request and materializes an active
// connection between the initiator and the responding target session. The
// busy check runs again inside the critical section so that two accepts
// racing for the same party cannot both succeed; the pending entry is
// consumed either way because the target has answered it.
func (b *Broker) AcceptRequest(requestID, targetSessionID string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	p, ok := b.pending[requestID]
	if !ok {
		return "", ErrUnknownRequest
	}
	delete(b.pending, requestID)

	if b.isBusyLocked(p.InitiatorSessionID) || b.isBusyLocked(targetSessionID) {
		return "", ErrPeerBusy
	}

	connectionID := "conn-" + uuid.NewString()
	b.active[connectionID] = &ActiveConnection{
		ConnectionID:       connectionID,
		InitiatorSessionID: p.InitiatorSessionID,
		TargetSessionID:    targetSessionID,
	}
	return connectionID, nil
}

// RejectRequest drops the pending request and returns it so the caller can
// notify the initiator and start the rejection cooldown.
func (b *Broker) RejectRequest(requestID string) (PendingConnection, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.pending[requestID]
	if !ok {
		return PendingConnection{}, false
	}
	delete(b.pending, requestID)
	return *p, true
}

// GetActiveConnection returns a copy of the active connection, if it exists.
func (b *Broker) GetActiveConnection(connectionID string) (ActiveConnection, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	conn, ok := b.active[connectionID]
	if !ok {
		return ActiveConnection{}, false
	}
	return *conn, true
}

func (b *Broker) RemoveActiveConnection(connectionID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.active[connectionID]
	delete(b.active, connectionID)
	return ok
}

// CleanupSession removes every pending request initiated by the session and
// every active connection it is a party to, returning the surviving peer
// session IDs that must be told the peer is gone. Notification happens
// outside the lock, by the caller.
func (b *Broker) CleanupSession(sessionID string) []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	for requestID, p := range b.pending {
		if p.InitiatorSessionID == sessionID {
			delete(b.pending, requestID)
		}
	}

	var peers []string
	for connectionID, conn := range b.active {
		if peer, ok := conn.Peer(sessionID); ok {
			peers = append(peers, peer)
			delete(b.active, connectionID)
		}
	}
	return peers
}

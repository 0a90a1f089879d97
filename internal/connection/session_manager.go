// Package connection manages live websocket sessions and outbound delivery.
package connection

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/peer-chat-dev/peer-chat-go-signaling-server/internal/logger"
	"github.com/peer-chat-dev/peer-chat-go-signaling-server/internal/message"
)

// Session is one live websocket connection from a client.
type Session struct {
	ID   string
	conn *websocket.Conn
	mu   sync.Mutex // gorilla allows one concurrent writer
}

func NewSession(id string, conn *websocket.Conn) *Session {
	return &Session{ID: id, conn: conn}
}

// Send marshals the payload into an event envelope and writes it out.
func (s *Session) Send(event string, data any) error {
	var raw json.RawMessage
	if data != nil {
		encoded, err := json.Marshal(data)
		if err != nil {
			return err
		}
		raw = encoded
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(message.Envelope{Event: event, Data: raw})
}

func (s *Session) Close() error {
	return s.conn.Close()
}

// SessionManager tracks connected sessions by ID.
type SessionManager struct {
	sessions sync.Map
}

var (
	instance *SessionManager
	once     sync.Once
)

func GetSessionManager() *SessionManager {
	once.Do(func() {
		instance = &SessionManager{}
	})
	return instance
}

func (sm *SessionManager) Add(session *Session) {
	sm.sessions.Store(session.ID, session)
	logger.InfoF("Session %s connected", session.ID)
}

func (sm *SessionManager) Remove(sessionID string) {
	sm.sessions.Delete(sessionID)
	logger.InfoF("Session %s disconnected", sessionID)
}

func (sm *SessionManager) Get(sessionID string) (*Session, bool) {
	if value, ok := sm.sessions.Load(sessionID); ok {
		return value.(*Session), true
	}
	return nil, false
}

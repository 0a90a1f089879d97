package connection

import (
	"github.com/peer-chat-dev/peer-chat-go-signaling-server/internal/logger"
)

// Sender pushes a named event to a specific session.
type Sender interface {
	SendEvent(sessionID, event string, data any) error
}

// DefaultSender delivers through the session manager.
type DefaultSender struct{}

func NewSender() Sender {
	return &DefaultSender{}
}

// SendEvent sends an event to the given session. A session that is no longer
// connected is not an error, the event is simply dropped.
func (s *DefaultSender) SendEvent(sessionID, event string, data any) error {
	session, ok := GetSessionManager().Get(sessionID)
	if !ok {
		return nil
	}
	if err := session.Send(event, data); err != nil {
		logger.ErrorF("[%s] Fail to send %s event, details: %v", sessionID, event, err)
		return err
	}
	logger.DebugF("[%s] Send %s event to client", sessionID, event)
	return nil
}

package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	c "github.com/peer-chat-dev/peer-chat-go-signaling-server/internal/config"
	"github.com/peer-chat-dev/peer-chat-go-signaling-server/internal/connection"
	"github.com/peer-chat-dev/peer-chat-go-signaling-server/internal/event"
	"github.com/peer-chat-dev/peer-chat-go-signaling-server/internal/logger"
	"github.com/peer-chat-dev/peer-chat-go-signaling-server/internal/message"
)

const (
	maxFrameSize = 64 * 1024

	// A session is dropped after this long without any frame or pong. The
	// ping loop probes at half this interval, so only a dead transport
	// ever trips the deadline.
	keepAliveTimeout = 5 * time.Minute
	pingInterval     = keepAliveTimeout / 2
	pingWriteWait    = 10 * time.Second
)

type ServerCloseCallback struct {
	server *http.Server
}

func (sc *ServerCloseCallback) Invoke(ctx context.Context) error {
	logger.Info("Closing signaling server")
	return sc.server.Shutdown(ctx)
}

func newUpgrader(allowedOrigin string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if allowedOrigin == "" {
				return true
			}
			return r.Header.Get("Origin") == allowedOrigin
		},
	}
}

func StartServer(port int, dispatcher *Dispatcher) {
	config, _ := c.GetConfig()
	upgrader := newUpgrader(config.AllowedOrigin)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.WarnF("Fail to upgrade connection from %s, details: %v", r.RemoteAddr, err)
			return
		}
		go handleSession(conn, dispatcher)
	})

	server := &http.Server{
		Addr:    ":" + strconv.Itoa(port),
		Handler: mux,
	}
	event.NewCleaner().Add(&ServerCloseCallback{server: server})

	logger.InfoF("Signaling server listen on %s", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.FatalF("Signaling server start error: %v", err)
	}
}

func handleSession(conn *websocket.Conn, dispatcher *Dispatcher) {
	sessionID := uuid.NewString()
	session := connection.NewSession(sessionID, conn)

	manager := connection.GetSessionManager()
	manager.Add(session)

	defer func() {
		dispatcher.HandleDisconnect(sessionID)
		manager.Remove(sessionID)
		logger.DebugF("[%s] Connection closed", sessionID)
		if err := session.Close(); err != nil && !isNetClosedError(err) {
			logger.WarnF("[%s] Error occured while closing connection, details: %v", sessionID, err)
		}
	}()

	conn.SetReadLimit(maxFrameSize)
	_ = conn.SetReadDeadline(keepAliveDeadline())
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(keepAliveDeadline())
	})

	// browsers cannot send pings themselves, so the server probes idle
	// sessions and the pong handler above refreshes the deadline
	pingDone := make(chan struct{})
	defer close(pingDone)
	go pingLoop(conn, sessionID, pingInterval, pingDone)

	if err := session.Send(message.EventConnected, nil); err != nil {
		logger.WarnF("[%s] Fail to send greeting event, details: %v", sessionID, err)
		return
	}

	for {
		_, data, err := conn.ReadMessage()
		if err == nil {
			err = conn.SetReadDeadline(keepAliveDeadline())
		}
		if err != nil {
			handleReadError(sessionID, err)
			return
		}

		var env message.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			logger.WarnF("[%s] Fail to decode frame, details: %v", sessionID, err)
			continue
		}

		logger.DebugF("[%s] Receive %s event", sessionID, env.Event)
		dispatcher.Dispatch(sessionID, env)
	}
}

func isNetClosedError(err error) bool {
	if errors.Is(err, net.ErrClosed) {
		return true
	}
	var opErr *net.OpError
	ok := errors.As(err, &opErr)
	return ok && opErr.Timeout()
}

func handleReadError(sessionID string, err error) {
	switch {
	case websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway):
		logger.InfoF("[%s] Client close connection", sessionID)
	case websocket.IsUnexpectedCloseError(err):
		logger.WarnF("[%s] Connection closed unexpectedly, details: %v", sessionID, err)
	default:
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			logger.WarnF("[%s] Reading timeout", sessionID)
			return
		}
		logger.ErrorF("[%s] Error occured while reading frame, details: %v", sessionID, err)
	}
}

func keepAliveDeadline() time.Time {
	return time.Now().Add(keepAliveTimeout)
}

// pingLoop sends a ping control frame every interval until done closes or
// the connection goes away. WriteControl is safe to call concurrently with
// the session's data writes.
func pingLoop(conn *websocket.Conn, sessionID string, interval time.Duration, done <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(pingWriteWait)); err != nil {
				logger.DebugF("[%s] Fail to send ping, details: %v", sessionID, err)
				return
			}
		case <-done:
			return
		}
	}
}

package broker

import (
	"errors"
	"testing"
)

func TestRequestLifecycle(t *testing.T) {
	b := New()

	requestID := b.CreateRequest("AAA", "BBB", "session-a")
	if requestID == "" {
		t.Fatal("Expect a request ID, got empty string")
	}

	p, ok := b.GetRequest(requestID)
	if !ok {
		t.Fatal("Expect pending request to exist")
	}
	if p.InitiatorCode != "AAA" || p.TargetCode != "BBB" || p.InitiatorSessionID != "session-a" {
		t.Fatalf("Pending request holds wrong data: %+v", p)
	}

	if !b.HasPendingRequest("session-a", "BBB") {
		t.Fatal("Expect duplicate check to find the pending request")
	}
	if b.HasPendingRequest("session-a", "CCC") {
		t.Fatal("Expect no pending request for another target")
	}

	if !b.RemoveRequest(requestID) {
		t.Fatal("Expect remove to report the entry existed")
	}
	if _, ok := b.GetRequest(requestID); ok {
		t.Fatal("Expect pending request to be gone after removal")
	}
}

func TestRequestIDsDistinct(t *testing.T) {
	b := New()

	first := b.CreateRequest("AAA", "BBB", "session-a")
	second := b.CreateRequest("AAA", "CCC", "session-a")
	if first == second {
		t.Fatal("Expect distinct request IDs for concurrent requests from one initiator")
	}
}

func TestAcceptRequest(t *testing.T) {
	b := New()

	requestID := b.CreateRequest("AAA", "BBB", "session-a")
	connectionID, err := b.AcceptRequest(requestID, "session-b")
	if err != nil {
		t.Fatalf("Expect accept to succeed, but got %v", err)
	}

	conn, ok := b.GetActiveConnection(connectionID)
	if !ok {
		t.Fatal("Expect active connection to exist after accept")
	}
	if conn.InitiatorSessionID != "session-a" || conn.TargetSessionID != "session-b" {
		t.Fatalf("Active connection holds wrong parties: %+v", conn)
	}

	if _, ok := b.GetRequest(requestID); ok {
		t.Fatal("Expect pending request to be consumed by accept")
	}

	if !b.IsBusy("session-a") || !b.IsBusy("session-b") {
		t.Fatal("Expect both parties to be busy after accept")
	}
	if b.IsBusy("session-c") {
		t.Fatal("Expect uninvolved session to be idle")
	}

	if !b.RemoveActiveConnection(connectionID) {
		t.Fatal("Expect remove to report the connection existed")
	}
	if b.IsBusy("session-a") {
		t.Fatal("Expect parties to be idle after the connection is removed")
	}
	if b.RemoveActiveConnection(connectionID) {
		t.Fatal("Expect second remove to report nothing existed")
	}
}

func TestAcceptUnknownRequest(t *testing.T) {
	b := New()

	if _, err := b.AcceptRequest("missing", "session-b"); !errors.Is(err, ErrUnknownRequest) {
		t.Fatalf("Expect ErrUnknownRequest, got %v", err)
	}
}

func TestAcceptRefusesBusyParty(t *testing.T) {
	b := New()

	firstID := b.CreateRequest("AAA", "BBB", "session-a")
	if _, err := b.AcceptRequest(firstID, "session-b"); err != nil {
		t.Fatalf("Expect first accept to succeed, but got %v", err)
	}

	// session-b is now taken; a second accept into it must lose
	secondID := b.CreateRequest("CCC", "BBB", "session-c")
	if _, err := b.AcceptRequest(secondID, "session-b"); !errors.Is(err, ErrPeerBusy) {
		t.Fatalf("Expect ErrPeerBusy, got %v", err)
	}

	// the losing accept still consumed the pending entry
	if _, ok := b.GetRequest(secondID); ok {
		t.Fatal("Expect losing accept to consume the pending request")
	}
}

func TestRejectRequest(t *testing.T) {
	b := New()

	requestID := b.CreateRequest("AAA", "BBB", "session-a")
	p, ok := b.RejectRequest(requestID)
	if !ok {
		t.Fatal("Expect reject to find the pending request")
	}
	if p.InitiatorSessionID != "session-a" {
		t.Fatalf("Reject returned wrong request: %+v", p)
	}
	if _, ok := b.RejectRequest(requestID); ok {
		t.Fatal("Expect second reject to find nothing")
	}
}

func TestCleanupSessionPending(t *testing.T) {
	b := New()

	b.CreateRequest("AAA", "BBB", "session-a")
	b.CreateRequest("AAA", "CCC", "session-a")
	keptID := b.CreateRequest("DDD", "BBB", "session-d")

	peers := b.CleanupSession("session-a")
	if len(peers) != 0 {
		t.Fatalf("Expect no peers to notify for pending-only cleanup, got %v", peers)
	}

	if b.HasPendingRequest("session-a", "BBB") || b.HasPendingRequest("session-a", "CCC") {
		t.Fatal("Expect initiator's pending requests to be removed")
	}
	if _, ok := b.GetRequest(keptID); !ok {
		t.Fatal("Expect other initiator's pending request to survive")
	}
}

func TestCleanupSessionActive(t *testing.T) {
	b := New()

	requestID := b.CreateRequest("AAA", "BBB", "session-a")
	connectionID, err := b.AcceptRequest(requestID, "session-b")
	if err != nil {
		t.Fatalf("Expect accept to succeed, but got %v", err)
	}

	peers := b.CleanupSession("session-a")
	if len(peers) != 1 || peers[0] != "session-b" {
		t.Fatalf("Expect exactly session-b to be notified, got %v", peers)
	}

	if _, ok := b.GetActiveConnection(connectionID); ok {
		t.Fatal("Expect active connection to be removed by cleanup")
	}
	if b.IsBusy("session-b") {
		t.Fatal("Expect surviving peer to be idle again")
	}
}

func TestPeer(t *testing.T) {
	conn := ActiveConnection{
		ConnectionID:       "conn-1",
		InitiatorSessionID: "session-a",
		TargetSessionID:    "session-b",
	}

	tests := []struct {
		sessionID string
		peer      string
		ok        bool
	}{
		{"session-a", "session-b", true},
		{"session-b", "session-a", true},
		{"session-c", "", false},
	}

	for _, test := range tests {
		peer, ok := conn.Peer(test.sessionID)
		if peer != test.peer || ok != test.ok {
			t.Errorf("Peer(%s): expected (%s, %v), got (%s, %v)", test.sessionID, test.peer, test.ok, peer, ok)
		}
	}
}

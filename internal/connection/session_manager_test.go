package connection

import "testing"

func TestSessionManager(t *testing.T) {
	manager := GetSessionManager()
	manager.Add(NewSession("1", nil))
	manager.Add(NewSession("2", nil))
	manager.Add(NewSession("3", nil))
	defer func() {
		manager.Remove("2")
		manager.Remove("3")
	}()

	session, ok := manager.Get("2")
	if !ok || session.ID != "2" {
		t.Fatal("Expect to get session 2, but got nothing")
	}

	manager.Remove("1")
	if _, ok := manager.Get("1"); ok {
		t.Fatal("Expect session 1 to be gone, but got it")
	}
}

func TestSenderIgnoresMissingSession(t *testing.T) {
	sender := NewSender()
	if err := sender.SendEvent("missing", "connected", nil); err != nil {
		t.Fatalf("Expect missing session to be a no-op, but got %v", err)
	}
}

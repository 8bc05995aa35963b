package relay

import (
	"errors"
	"sync"
	"testing"

	"github.com/aditpras/lapakchat/internal/domain"
)

// fakeChannel records deliveries and can be told to fail writes.
type fakeChannel struct {
	mu       sync.Mutex
	msgs     []domain.Message
	failSend bool
	closed   bool
}

func (c *fakeChannel) Send(msg domain.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failSend || c.closed {
		return errors.New("broken channel")
	}
	c.msgs = append(c.msgs, msg)
	return nil
}

func (c *fakeChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeChannel) messages() []domain.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.Message, len(c.msgs))
	copy(out, c.msgs)
	return out
}

func (c *fakeChannel) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func TestRegistry_JoinLeave(t *testing.T) {
	r := NewRegistry("")

	r.Join("a1", "agent one", domain.RoleAdmin, &fakeChannel{})
	r.Join("a2", "agent two", domain.RoleAdmin, &fakeChannel{})
	r.Join("u1", "buyer", domain.RoleUser, &fakeChannel{})

	admins := r.AllOfRole(domain.RoleAdmin)
	if len(admins) != 2 {
		t.Fatalf("expected 2 admins, got %d", len(admins))
	}
	if admins[0].ID != "a1" || admins[1].ID != "a2" {
		t.Errorf("expected insertion order a1, a2; got %s, %s", admins[0].ID, admins[1].ID)
	}

	r.Leave("a1", domain.RoleAdmin)
	admins = r.AllOfRole(domain.RoleAdmin)
	if len(admins) != 1 || admins[0].ID != "a2" {
		t.Errorf("expected only a2 after leave, got %v", admins)
	}

	r.Leave("a2", domain.RoleAdmin)
	if got := r.AllOfRole(domain.RoleAdmin); len(got) != 0 {
		t.Errorf("expected no admins, got %d", len(got))
	}
	if len(r.AllOfRole(domain.RoleUser)) != 1 {
		t.Error("user session should be unaffected by admin leaves")
	}
}

func TestRegistry_AdminAvailability(t *testing.T) {
	r := NewRegistry("")

	if r.AdminAvailable() {
		t.Error("empty registry should have no admin available")
	}

	r.Join("a1", "", domain.RoleAdmin, &fakeChannel{})
	if !r.AdminAvailable() {
		t.Error("admin joined, availability should be true")
	}

	r.Join("a2", "", domain.RoleAdmin, &fakeChannel{})
	r.Leave("a1", domain.RoleAdmin)
	if !r.AdminAvailable() {
		t.Error("one admin remains, availability should stay true")
	}

	r.Leave("a2", domain.RoleAdmin)
	if r.AdminAvailable() {
		t.Error("last admin left, availability should be false")
	}
}

func TestRegistry_JoinReplacesSession(t *testing.T) {
	r := NewRegistry("")
	old := &fakeChannel{}
	replacement := &fakeChannel{}

	r.Join("u1", "buyer", domain.RoleUser, old)
	r.Join("u1", "buyer", domain.RoleUser, replacement)

	if !old.isClosed() {
		t.Error("replaced channel should be closed")
	}
	sess, ok := r.Lookup("u1", domain.RoleUser)
	if !ok || sess.Channel != replacement {
		t.Error("lookup should return the replacement session")
	}
	if len(r.AllOfRole(domain.RoleUser)) != 1 {
		t.Error("replacement must not create a second session")
	}
}

func TestRegistry_UserJoinGetsWelcome(t *testing.T) {
	r := NewRegistry("selamat datang")

	userCh := &fakeChannel{}
	r.Join("u1", "buyer", domain.RoleUser, userCh)

	msgs := userCh.messages()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 welcome message, got %d", len(msgs))
	}
	if msgs[0].SenderType != domain.SenderBot {
		t.Errorf("welcome must be bot-authored, got %s", msgs[0].SenderType)
	}
	if msgs[0].Content != "selamat datang" {
		t.Errorf("unexpected welcome content %q", msgs[0].Content)
	}

	adminCh := &fakeChannel{}
	r.Join("a1", "agent", domain.RoleAdmin, adminCh)
	if len(adminCh.messages()) != 0 {
		t.Error("admins must not receive a welcome message")
	}
}

func TestRegistry_ForwardToAdmins(t *testing.T) {
	r := NewRegistry("")
	ch1 := &fakeChannel{}
	ch2 := &fakeChannel{}
	userCh := &fakeChannel{}
	r.Join("a1", "", domain.RoleAdmin, ch1)
	r.Join("a2", "", domain.RoleAdmin, ch2)
	r.Join("u1", "", domain.RoleUser, userCh)

	msg := domain.Message{ID: "m1", SenderID: "u1", SenderType: domain.SenderUser, Content: "help"}
	if got := r.ForwardToAdmins(msg); got != 2 {
		t.Fatalf("expected 2 deliveries, got %d", got)
	}

	for _, ch := range []*fakeChannel{ch1, ch2} {
		msgs := ch.messages()
		if len(msgs) != 1 || msgs[0].ID != "m1" {
			t.Errorf("each admin should receive the message exactly once, got %v", msgs)
		}
	}
	if len(userCh.messages()) != 0 {
		t.Error("fan-out to admins must not touch user channels")
	}
}

func TestRegistry_BrokenChannelIsDropped(t *testing.T) {
	r := NewRegistry("")
	good := &fakeChannel{}
	broken := &fakeChannel{failSend: true}
	r.Join("a1", "", domain.RoleAdmin, good)
	r.Join("a2", "", domain.RoleAdmin, broken)

	msg := domain.Message{ID: "m1", SenderID: "u1", SenderType: domain.SenderUser, Content: "help"}
	if got := r.ForwardToAdmins(msg); got != 1 {
		t.Fatalf("expected 1 successful delivery, got %d", got)
	}

	if _, ok := r.Lookup("a2", domain.RoleAdmin); ok {
		t.Error("session with broken channel should be removed")
	}
	if _, ok := r.Lookup("a1", domain.RoleAdmin); !ok {
		t.Error("healthy session must survive another session's failure")
	}
	if !r.AdminAvailable() {
		t.Error("availability should reflect the surviving admin")
	}
}

func TestRegistry_DeliverToUser(t *testing.T) {
	r := NewRegistry("")
	userCh := &fakeChannel{}
	r.Join("u1", "", domain.RoleUser, userCh)

	msg := domain.Message{ID: "m1", SenderID: "a1", SenderType: domain.SenderAdmin, ReceiverID: "u1", Content: "halo"}
	if err := r.DeliverToUser("u1", msg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msgs := userCh.messages(); len(msgs) != 1 || msgs[0].ID != "m1" {
		t.Errorf("expected direct delivery, got %v", msgs)
	}

	if err := r.DeliverToUser("ghost", msg); !errors.Is(err, ErrRecipientOffline) {
		t.Errorf("expected ErrRecipientOffline, got %v", err)
	}
}

func TestRegistry_DisconnectIgnoresStaleChannel(t *testing.T) {
	r := NewRegistry("")
	old := &fakeChannel{}
	replacement := &fakeChannel{}

	r.Join("u1", "", domain.RoleUser, old)
	r.Join("u1", "", domain.RoleUser, replacement)

	// Teardown of the replaced transport must not evict the successor.
	r.Disconnect("u1", domain.RoleUser, old)
	if _, ok := r.Lookup("u1", domain.RoleUser); !ok {
		t.Fatal("stale disconnect removed the replacement session")
	}

	r.Disconnect("u1", domain.RoleUser, replacement)
	if _, ok := r.Lookup("u1", domain.RoleUser); ok {
		t.Error("current disconnect should remove the session")
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := NewRegistry("")
	done := make(chan struct{}, 2)

	go func() {
		for i := 0; i < 500; i++ {
			r.Join("u1", "", domain.RoleUser, &fakeChannel{})
			r.Join("a1", "", domain.RoleAdmin, &fakeChannel{})
			r.Leave("a1", domain.RoleAdmin)
		}
		done <- struct{}{}
	}()
	go func() {
		for i := 0; i < 500; i++ {
			r.ForwardToAdmins(domain.Message{ID: "m", SenderID: "u1", SenderType: domain.SenderUser})
			r.AdminAvailable()
			r.AllOfRole(domain.RoleUser)
		}
		done <- struct{}{}
	}()

	<-done
	<-done
}

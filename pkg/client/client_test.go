package client

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	hermeserrors "github.com/DeBrosOfficial/hermes/pkg/errors"
	"github.com/DeBrosOfficial/hermes/pkg/pubsub"
)

// recordingConn captures announcements; failAfter < 0 never fails.
type recordingConn struct {
	mu        sync.Mutex
	frames    []string
	failAfter int
}

func newRecordingConn() *recordingConn {
	return &recordingConn{failAfter: -1}
}

func (r *recordingConn) Send(frame string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAfter >= 0 && len(r.frames) >= r.failAfter {
		return errors.New("broken pipe")
	}
	r.frames = append(r.frames, frame)
	return nil
}

func (r *recordingConn) sent() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.frames...)
}

// errorSink collects errors reported by the client.
type errorSink struct {
	mu   sync.Mutex
	errs []error
}

func (s *errorSink) report(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs = append(s.errs, err)
}

func (s *errorSink) all() []error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]error(nil), s.errs...)
}

func newTestClient(ns string) (*Client, *errorSink) {
	sink := &errorSink{}
	c := NewClient(&ClientConfig{Namespace: ns}, WithErrorHandler(sink.report))
	return c, sink
}

func noop(*pubsub.Message) error { return nil }

func assertFrames(t *testing.T, got []string, want ...string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected frames %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected frames %v, got %v", want, got)
		}
	}
}

func TestClient_InitialState(t *testing.T) {
	c, _ := newTestClient("")
	if c.State() != Connecting {
		t.Errorf("expected Connecting, got %v", c.State())
	}
	if len(c.Topics()) != 0 {
		t.Errorf("expected no topics, got %v", c.Topics())
	}
}

func TestClient_ReplayCompletenessAndOrder(t *testing.T) {
	c, sink := newTestClient("app.")

	c.Subscribe("b", noop)
	c.Subscribe("a", noop)
	c.Subscribe("c", noop)
	c.Subscribe("a", noop, WithName("second"))

	for _, ts := range c.Topics() {
		if ts.State != Unbound {
			t.Errorf("topic %s should be unbound before open, got %v", ts.Topic, ts.State)
		}
	}

	conn := newRecordingConn()
	c.OnOpen(conn)

	assertFrames(t, conn.sent(), "app.b", "app.a", "app.c")
	for _, ts := range c.Topics() {
		if ts.State != Bound {
			t.Errorf("topic %s should be bound after open, got %v", ts.Topic, ts.State)
		}
	}
	if c.State() != Open {
		t.Errorf("expected Open, got %v", c.State())
	}
	if len(sink.all()) != 0 {
		t.Errorf("unexpected errors: %v", sink.all())
	}
}

func TestClient_SubscribeWhileOpen(t *testing.T) {
	c, _ := newTestClient("")
	conn := newRecordingConn()
	c.OnOpen(conn)

	c.Subscribe("x", noop)
	c.Subscribe("x", noop)
	c.Subscribe("x", noop, WithName("other"))
	c.Subscribe("y", noop)

	assertFrames(t, conn.sent(), "x", "y")
}

func TestClient_CloseAndReopenReplaysEverything(t *testing.T) {
	c, sink := newTestClient("")

	c.Subscribe("one", noop)
	first := newRecordingConn()
	c.OnOpen(first)
	c.Subscribe("two", noop)
	firstHandle := c.HandleID()

	c.OnClose(nil)
	if c.State() != Closed {
		t.Fatalf("expected Closed, got %v", c.State())
	}
	for _, ts := range c.Topics() {
		if ts.State != Unbound {
			t.Errorf("topic %s should revert to unbound, got %v", ts.Topic, ts.State)
		}
	}

	// Interest declared while closed is deferred, not sent on the dead connection.
	c.Subscribe("three", noop)
	assertFrames(t, first.sent(), "one", "two")

	second := newRecordingConn()
	c.OnOpen(second)
	assertFrames(t, second.sent(), "one", "two", "three")
	if c.HandleID() == firstHandle {
		t.Error("reopen must mint a fresh handle")
	}
	if len(sink.all()) != 0 {
		t.Errorf("clean close must not report errors: %v", sink.all())
	}
}

func TestClient_OnCloseReportsTransportFailure(t *testing.T) {
	c, sink := newTestClient("")
	c.OnOpen(newRecordingConn())

	c.OnClose(errors.New("connection reset by peer"))

	errs := sink.all()
	if len(errs) != 1 || !hermeserrors.IsTransportFailure(errs[0]) {
		t.Fatalf("expected one transport failure, got %v", errs)
	}
}

func TestClient_NamespaceOverride(t *testing.T) {
	c, _ := newTestClient("ns:")
	conn := newRecordingConn()
	c.OnOpen(conn)

	c.Subscribe("a", noop)
	c.Subscribe("global", noop, WithNamespaceOverride())

	assertFrames(t, conn.sent(), "ns:a", "global")
	if got := c.EffectiveTopic("a"); got != "ns:a" {
		t.Errorf("expected ns:a, got %q", got)
	}
	if got := c.EffectiveTopic("a", WithNamespaceOverride()); got != "a" {
		t.Errorf("expected a, got %q", got)
	}
}

func TestClient_EmptyTopicAccepted(t *testing.T) {
	c, sink := newTestClient("")
	c.Subscribe("", noop)
	conn := newRecordingConn()
	c.OnOpen(conn)

	assertFrames(t, conn.sent(), "")
	if len(sink.all()) != 0 {
		t.Errorf("unexpected errors: %v", sink.all())
	}
}

func TestClient_EndToEnd(t *testing.T) {
	c, sink := newTestClient("")

	var got []map[string]int
	c.Subscribe("room1", func(msg *pubsub.Message) error {
		var v map[string]int
		if err := msg.Decode(&v); err != nil {
			return err
		}
		got = append(got, v)
		return nil
	})

	conn := newRecordingConn()
	c.OnOpen(conn)
	assertFrames(t, conn.sent(), "room1")

	c.OnMessage([]byte(`{"subscription":"room1","data":{"n":1}}`))

	if len(got) != 1 || got[0]["n"] != 1 {
		t.Fatalf("expected listener invoked once with n=1, got %v", got)
	}
	if len(sink.all()) != 0 {
		t.Errorf("unexpected errors: %v", sink.all())
	}
}

func TestClient_OnMessageContainment(t *testing.T) {
	c, sink := newTestClient("")

	var calls int
	c.Subscribe("t", func(*pubsub.Message) error { calls++; return nil })
	c.Subscribe("t", func(*pubsub.Message) error { return errors.New("listener broke") }, WithName("bad"))
	c.Subscribe("t", func(*pubsub.Message) error { panic("listener exploded") }, WithName("worse"))

	c.OnMessage(nil)
	c.OnMessage([]byte(""))
	c.OnMessage([]byte("  "))
	if calls != 0 || len(sink.all()) != 0 {
		t.Fatalf("keep-alives must be ignored, calls=%d errs=%v", calls, sink.all())
	}

	c.OnMessage([]byte(`{"subscription":`))
	c.OnMessage([]byte(`{"subscription":"t","data":1}`))
	c.OnMessage([]byte(`{"subscription":"nobody-listens","data":1}`))

	if calls != 1 {
		t.Errorf("expected healthy listener to run once, got %d", calls)
	}

	errs := sink.all()
	if len(errs) != 3 {
		t.Fatalf("expected 3 reported errors, got %d: %v", len(errs), errs)
	}
	if !hermeserrors.IsMalformedMessage(errs[0]) {
		t.Errorf("expected malformed message first, got %v", errs[0])
	}
	if !hermeserrors.IsListenerFailure(errs[1]) || !hermeserrors.IsListenerFailure(errs[2]) {
		t.Errorf("expected listener failures, got %v and %v", errs[1], errs[2])
	}
}

func TestClient_AnnounceFailureDefersToNextOpen(t *testing.T) {
	c, sink := newTestClient("")
	c.Subscribe("a", noop)
	c.Subscribe("b", noop)
	c.Subscribe("c", noop)

	flaky := newRecordingConn()
	flaky.failAfter = 1
	c.OnOpen(flaky)

	assertFrames(t, flaky.sent(), "a")
	if c.State() != Closed {
		t.Errorf("a failed announcement must close the handle, got %v", c.State())
	}
	errs := sink.all()
	if len(errs) != 1 || !hermeserrors.IsTransportFailure(errs[0]) {
		t.Fatalf("expected one transport failure, got %v", errs)
	}

	// Nothing is sent on the failed connection afterwards.
	c.Subscribe("d", noop)
	assertFrames(t, flaky.sent(), "a")

	healthy := newRecordingConn()
	c.OnOpen(healthy)
	assertFrames(t, healthy.sent(), "a", "b", "c", "d")
}

func TestClient_UnsubscribeKeepsInterest(t *testing.T) {
	c, _ := newTestClient("ns.")

	var calls int
	c.Subscribe("t", func(*pubsub.Message) error { calls++; return nil })
	if !c.Unsubscribe("t") {
		t.Fatal("expected listener slot to be removed")
	}

	c.OnMessage([]byte(`{"subscription":"ns.t","data":1}`))
	if calls != 0 {
		t.Errorf("removed listener must not run, got %d calls", calls)
	}

	conn := newRecordingConn()
	c.OnOpen(conn)
	assertFrames(t, conn.sent(), "ns.t")
}

func TestClient_ConcurrentSubscribeDuringOpen(t *testing.T) {
	c, _ := newTestClient("")
	const n = 50

	var wg sync.WaitGroup
	conn := newRecordingConn()
	wg.Add(n + 1)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			c.Subscribe(fmt.Sprintf("topic-%d", i), noop)
		}(i)
	}
	go func() {
		defer wg.Done()
		c.OnOpen(conn)
	}()
	wg.Wait()

	// Whatever the interleaving, every topic is announced exactly once.
	seen := make(map[string]int)
	for _, f := range conn.sent() {
		seen[f]++
	}
	if len(seen) != n {
		t.Fatalf("expected %d distinct announcements, got %d", n, len(seen))
	}
	for topic, count := range seen {
		if count != 1 {
			t.Errorf("topic %s announced %d times", topic, count)
		}
	}
}

func TestClient_ListenerTimeoutReported(t *testing.T) {
	sink := &errorSink{}
	c := NewClient(&ClientConfig{}, WithErrorHandler(sink.report), WithListenerTimeout(time.Millisecond))

	delivered := false
	c.Subscribe("slow", func(*pubsub.Message) error {
		time.Sleep(20 * time.Millisecond)
		delivered = true
		return nil
	})
	c.OnMessage([]byte(`{"subscription":"slow","data":1}`))

	if !delivered {
		t.Fatal("slow listener should still run to completion")
	}
	errs := sink.all()
	if len(errs) != 1 || !hermeserrors.IsListenerFailure(errs[0]) {
		t.Fatalf("expected one listener failure, got %v", errs)
	}
}

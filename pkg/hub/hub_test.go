package hub

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func recvOne(t *testing.T, sub *Subscriber) Envelope {
	t.Helper()
	select {
	case env, ok := <-sub.C:
		if !ok {
			t.Fatal("subscriber channel closed")
		}
		return env
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for envelope")
	}
	return Envelope{}
}

func TestPublishOrder(t *testing.T) {
	h := New()
	defer h.Close()
	sub := h.Subscribe("")

	for i := 0; i < 10; i++ {
		h.Publish(Envelope{Data: []byte(fmt.Sprintf("msg-%d", i))})
	}
	for i := 0; i < 10; i++ {
		env := recvOne(t, sub)
		want := fmt.Sprintf("msg-%d", i)
		if string(env.Data) != want {
			t.Fatalf("Data = %q, want %q", env.Data, want)
		}
	}
}

func TestSlowSubscriberDoesNotBlockPeers(t *testing.T) {
	h := New()
	defer h.Close()
	slow := h.Subscribe("")
	fast := h.Subscribe("")

	// Overflow the slow subscriber's buffer without reading it.
	for i := 0; i < DefaultBuffer+8; i++ {
		h.Publish(Envelope{Data: []byte(fmt.Sprintf("m-%d", i))})
	}

	// The fast subscriber's buffer overflowed too, but the messages it
	// holds are the earliest ones, unreordered.
	for i := 0; i < DefaultBuffer; i++ {
		env := recvOne(t, fast)
		want := fmt.Sprintf("m-%d", i)
		if string(env.Data) != want {
			t.Fatalf("fast Data = %q, want %q", env.Data, want)
		}
	}
	if len(slow.C) != DefaultBuffer {
		t.Fatalf("len(slow.C) = %d, want %d", len(slow.C), DefaultBuffer)
	}
}

func TestSessionFilter(t *testing.T) {
	h := New()
	defer h.Close()
	all := h.Subscribe("")
	only := h.Subscribe("sess-a")

	h.Publish(Envelope{Session: "sess-a", Data: []byte("a")})
	h.Publish(Envelope{Session: "sess-b", Data: []byte("b")})
	h.Publish(Envelope{Data: []byte("broadcast")})

	if env := recvOne(t, all); string(env.Data) != "a" {
		t.Fatalf("all first = %q, want %q", env.Data, "a")
	}
	if env := recvOne(t, all); string(env.Data) != "b" {
		t.Fatalf("all second = %q, want %q", env.Data, "b")
	}
	if env := recvOne(t, all); string(env.Data) != "broadcast" {
		t.Fatalf("all third = %q, want %q", env.Data, "broadcast")
	}

	if env := recvOne(t, only); string(env.Data) != "a" {
		t.Fatalf("filtered first = %q, want %q", env.Data, "a")
	}
	if env := recvOne(t, only); string(env.Data) != "broadcast" {
		t.Fatalf("filtered second = %q, want %q", env.Data, "broadcast")
	}
	if len(only.C) != 0 {
		t.Fatalf("len(only.C) = %d, want 0", len(only.C))
	}
}

func TestLateSubscriber(t *testing.T) {
	h := New()
	defer h.Close()

	h.Publish(Envelope{Data: []byte("before")})
	sub := h.Subscribe("")
	h.Publish(Envelope{Data: []byte("after")})

	if env := recvOne(t, sub); string(env.Data) != "after" {
		t.Fatalf("Data = %q, want %q", env.Data, "after")
	}
	if len(sub.C) != 0 {
		t.Fatalf("len(sub.C) = %d, want 0", len(sub.C))
	}
}

func TestPublishDuringSubscriberChurn(t *testing.T) {
	h := New()
	defer h.Close()

	// Publishers hammer the hub while subscribers come and go. A channel
	// closed between snapshot and send would panic the publisher.
	stop := make(chan struct{})
	var publishers sync.WaitGroup
	for i := 0; i < 4; i++ {
		publishers.Add(1)
		go func() {
			defer publishers.Done()
			for {
				select {
				case <-stop:
					return
				default:
					h.Publish(Envelope{Data: []byte("m")})
				}
			}
		}()
	}

	var churn sync.WaitGroup
	for i := 0; i < 8; i++ {
		churn.Add(1)
		go func() {
			defer churn.Done()
			for j := 0; j < 500; j++ {
				sub := h.Subscribe("")
				h.Unsubscribe(sub.ID)
			}
		}()
	}
	churn.Wait()
	close(stop)
	publishers.Wait()

	if h.Len() != 0 {
		t.Fatalf("Len() = %d after churn, want 0", h.Len())
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	h := New()
	defer h.Close()
	sub := h.Subscribe("")
	h.Unsubscribe(sub.ID)

	select {
	case _, ok := <-sub.C:
		if ok {
			t.Fatal("received envelope after Unsubscribe")
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed after Unsubscribe")
	}

	// Publishing after removal must not panic.
	h.Publish(Envelope{Data: []byte("x")})
	h.Unsubscribe(sub.ID)
}

func TestPublishJSON(t *testing.T) {
	h := New()
	defer h.Close()
	sub := h.Subscribe("")

	if err := h.PublishJSON("s", map[string]string{"type": "progress"}); err != nil {
		t.Fatalf("PublishJSON() error = %v", err)
	}
	env := recvOne(t, sub)
	if env.Session != "s" {
		t.Fatalf("Session = %q, want %q", env.Session, "s")
	}
	if string(env.Data) != `{"type":"progress"}` {
		t.Fatalf("Data = %q, want %q", env.Data, `{"type":"progress"}`)
	}
}

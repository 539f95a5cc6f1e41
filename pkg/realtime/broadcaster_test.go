package realtime

import (
	"testing"
)

func TestBroadcaster_PublishDeliversToSubscriber(t *testing.T) {
	b := NewBroadcaster(4)
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Publish("screen")
	got := <-ch
	if got != "screen" {
		t.Errorf("got event %q, want %q", got, "screen")
	}
}

func TestBroadcaster_PublishDeliversToMultipleSubscribers(t *testing.T) {
	b := NewBroadcaster(4)
	ch1 := b.Subscribe()
	ch2 := b.Subscribe()
	defer b.Unsubscribe(ch1)
	defer b.Unsubscribe(ch2)

	b.Publish("gameover")
	if got := <-ch1; got != "gameover" {
		t.Errorf("ch1 got %q, want gameover", got)
	}
	if got := <-ch2; got != "gameover" {
		t.Errorf("ch2 got %q, want gameover", got)
	}
}

func TestBroadcaster_DropsWhenBufferFull(t *testing.T) {
	b := NewBroadcaster(1)
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Publish("first")
	b.Publish("second")
	if got := <-ch; got != "first" {
		t.Errorf("got %q, want first", got)
	}
	select {
	case got := <-ch:
		t.Errorf("unexpected event %q", got)
	default:
	}
}

func TestBroadcaster_UnsubscribeClosesChannel(t *testing.T) {
	b := NewBroadcaster(1)
	ch := b.Subscribe()
	b.Unsubscribe(ch)
	_, open := <-ch
	if open {
		t.Error("channel should be closed after Unsubscribe")
	}
	if b.Len() != 0 {
		t.Errorf("Len %d, want 0", b.Len())
	}
}

func TestBroadcaster_Close(t *testing.T) {
	b := NewBroadcaster(1)
	ch := b.Subscribe()
	b.Close()
	if _, open := <-ch; open {
		t.Error("subscriber channel should be closed")
	}
	late := b.Subscribe()
	if _, open := <-late; open {
		t.Error("subscribing after Close should yield a closed channel")
	}
	b.Unsubscribe(ch)
	b.Close()
}

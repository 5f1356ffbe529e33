package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recv(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case e, ok := <-ch:
		require.True(t, ok, "channel closed")
		return e
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}
	return Event{}
}

func TestBroker_FilterAndCancel(t *testing.T) {
	b := NewBroker(4)
	all, cancelAll := b.Subscribe(Filter{})
	mine, cancelMine := b.Subscribe(Filter{UserID: "u1"})
	assert.Equal(t, 2, b.Subscribers())

	b.Publish(Event{Kind: KindLoanCreated, LoanID: "L1", UserID: "u2"})
	b.Publish(Event{Kind: KindPaymentRecorded, LoanID: "L2", UserID: "u1"})

	assert.Equal(t, "L1", recv(t, all).LoanID)
	assert.Equal(t, "L2", recv(t, all).LoanID)
	got := recv(t, mine)
	assert.Equal(t, KindPaymentRecorded, got.Kind)
	assert.False(t, got.At.IsZero())

	select {
	case e := <-mine:
		t.Fatalf("unexpected event %+v", e)
	default:
	}

	cancelMine()
	cancelMine()
	_, ok := <-mine
	assert.False(t, ok)
	assert.Equal(t, 1, b.Subscribers())

	cancelAll()
	assert.Equal(t, 0, b.Subscribers())
}

func TestBroker_SlowSubscriberDoesNotBlock(t *testing.T) {
	b := NewBroker(1)
	ch, cancel := b.Subscribe(Filter{})
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			b.Publish(Event{Kind: KindLoanCreated})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publisher blocked")
	}
	assert.Len(t, ch, 1)
	assert.Equal(t, uint64(9), b.Dropped())
}

func TestBroker_Close(t *testing.T) {
	b := NewBroker(0)
	ch, cancel := b.Subscribe(Filter{LoanID: "L1"})
	b.Close()
	_, ok := <-ch
	assert.False(t, ok)
	cancel()

	late, _ := b.Subscribe(Filter{})
	_, ok = <-late
	assert.False(t, ok)
}

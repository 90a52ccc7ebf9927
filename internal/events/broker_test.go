package events

import (
	"context"
	"testing"
)

func TestLocalBrokerFanOut(t *testing.T) {
	b := NewLocalBroker(nil)
	ctx := context.Background()

	ch1, unsub1 := b.Subscribe(4)
	ch2, unsub2 := b.Subscribe(4)
	defer unsub2()

	event := New(KindJobAdded)
	event.TaskID = "t1"
	if err := b.Publish(ctx, event); err != nil {
		t.Fatalf("publish: %v", err)
	}

	for _, ch := range []<-chan Event{ch1, ch2} {
		got := <-ch
		if got.ID != event.ID || got.Kind != KindJobAdded || got.TaskID != "t1" {
			t.Errorf("unexpected event: %+v", got)
		}
	}

	// После отписки события не доставляются, канал закрыт
	unsub1()
	if _, ok := <-ch1; ok {
		t.Error("expected closed channel after unsubscribe")
	}

	if err := b.Publish(ctx, New(KindTaskAdded)); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if got := <-ch2; got.Kind != KindTaskAdded {
		t.Errorf("expected task.added, got %s", got.Kind)
	}
}

func TestLocalBrokerDropsOnFullBuffer(t *testing.T) {
	b := NewLocalBroker(nil)
	ctx := context.Background()

	ch, unsub := b.Subscribe(1)
	defer unsub()

	// Второе событие не помещается и теряется, Publish не блокируется
	b.Publish(ctx, New(KindJobAdded))
	b.Publish(ctx, New(KindJobAcquired))

	got := <-ch
	if got.Kind != KindJobAdded {
		t.Errorf("expected first event, got %s", got.Kind)
	}
	select {
	case e := <-ch:
		t.Errorf("expected dropped second event, got %s", e.Kind)
	default:
	}
}

func TestLocalBrokerUnsubscribeIdempotent(t *testing.T) {
	b := NewLocalBroker(nil)

	_, unsub := b.Subscribe(1)
	unsub()
	unsub() // повторная отписка не должна паниковать
}

func TestNewEvent(t *testing.T) {
	e := New(KindScheduleAdded)
	if e.Kind != KindScheduleAdded {
		t.Errorf("expected kind schedule.added, got %s", e.Kind)
	}
	if e.ID.String() == "00000000-0000-0000-0000-000000000000" {
		t.Error("expected non-zero event ID")
	}
	if e.Timestamp.IsZero() {
		t.Error("expected non-zero timestamp")
	}
}

package events

import (
	"math/big"
	"testing"
)

func TestBusDeliversToSubscribers(t *testing.T) {
	bus := NewBus()
	ch, cancel := bus.Subscribe(4)
	defer cancel()

	bus.Emit(WindowOpened{Position: 7, Amount: big.NewInt(5_000), OpenedAt: 1_000})

	select {
	case evt := <-ch:
		if evt.Type != TypeRewarderWindowOpened {
			t.Fatalf("unexpected event type %s", evt.Type)
		}
		if evt.Attributes["position"] != "7" {
			t.Fatalf("unexpected position attribute %q", evt.Attributes["position"])
		}
	default:
		t.Fatal("expected buffered event")
	}
}

func TestBusDropsWhenSubscriberIsFull(t *testing.T) {
	bus := NewBus()
	ch, cancel := bus.Subscribe(1)
	defer cancel()

	bus.Emit(WindowOpened{Position: 1, Amount: big.NewInt(1), OpenedAt: 1})
	bus.Emit(WindowOpened{Position: 2, Amount: big.NewInt(2), OpenedAt: 2})

	first := <-ch
	if first.Attributes["position"] != "1" {
		t.Fatalf("expected first event retained, got %q", first.Attributes["position"])
	}
	select {
	case evt := <-ch:
		t.Fatalf("expected overflow drop, got %+v", evt)
	default:
	}
}

func TestBusCancelClosesChannel(t *testing.T) {
	bus := NewBus()
	ch, cancel := bus.Subscribe(1)
	cancel()
	cancel() // idempotent

	if _, ok := <-ch; ok {
		t.Fatal("expected closed channel")
	}

	// Emitting after cancel must not panic.
	bus.Emit(WindowOpened{Position: 3, Amount: big.NewInt(3), OpenedAt: 3})
}

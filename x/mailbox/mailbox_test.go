package mailbox

import (
	"context"
	"testing"
	"time"
)

func TestLastWriteWins(t *testing.T) {
	b := New[int]()
	if b.Put(1) {
		t.Fatal("first put should not replace")
	}
	if !b.Put(2) {
		t.Fatal("second put should replace")
	}
	v, ok := b.TryTake()
	if !ok || v != 2 {
		t.Fatalf("TryTake = %d,%v want 2,true", v, ok)
	}
	if _, ok := b.TryTake(); ok {
		t.Fatal("slot should be empty after take")
	}
}

func TestTakeThenPut(t *testing.T) {
	b := New[string]()
	b.Put("a")
	if v, _ := b.TryTake(); v != "a" {
		t.Fatalf("got %q", v)
	}
	b.Put("b")
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	v, err := b.Take(ctx)
	if err != nil || v != "b" {
		t.Fatalf("Take = %q,%v", v, err)
	}
}

func TestTakeBlocksUntilPut(t *testing.T) {
	b := New[int]()
	done := make(chan int, 1)
	go func() {
		v, _ := b.Take(context.Background())
		done <- v
	}()
	time.Sleep(10 * time.Millisecond)
	b.Put(7)
	select {
	case v := <-done:
		if v != 7 {
			t.Fatalf("got %d", v)
		}
	case <-time.After(time.Second):
		t.Fatal("Take did not wake")
	}
}

func TestTakeHonoursContext(t *testing.T) {
	b := New[int]()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := b.Take(ctx); err == nil {
		t.Fatal("expected context error")
	}
}

func TestDrained(t *testing.T) {
	b := New[int]()
	if err := b.Drained(context.Background()); err != nil {
		t.Fatalf("empty box should be drained: %v", err)
	}
	b.Put(1)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	if err := b.Drained(ctx); err == nil {
		t.Fatal("full box should not be drained")
	}
	cancel()
	go func() {
		time.Sleep(5 * time.Millisecond)
		b.TryTake()
	}()
	ctx, cancel = context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := b.Drained(ctx); err != nil {
		t.Fatalf("Drained after take: %v", err)
	}
}

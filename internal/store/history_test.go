package store

import (
	"fmt"
	"testing"
)

func TestHistoryAddAndHas(t *testing.T) {
	h := NewHistory(100, 0.001)

	key := "thunderstruck|acdc"
	if h.Has(key) {
		t.Error("empty history reported key")
	}

	h.Add(key)
	if !h.Has(key) {
		t.Error("added key not found")
	}
	if h.Size() != 1 {
		t.Errorf("Size = %d, want 1", h.Size())
	}
}

func TestHistoryDuplicateAdd(t *testing.T) {
	h := NewHistory(100, 0.001)

	h.Add("key")
	h.Add("key")

	if h.Size() != 1 {
		t.Errorf("Size = %d, want 1 after duplicate add", h.Size())
	}
}

func TestHistoryEviction(t *testing.T) {
	h := NewHistory(3, 0.001)

	for i := 0; i < 5; i++ {
		h.Add(fmt.Sprintf("key-%d", i))
	}

	if h.Size() != 3 {
		t.Errorf("Size = %d, want capacity 3", h.Size())
	}
	if h.Has("key-0") || h.Has("key-1") {
		t.Error("oldest keys should have been evicted")
	}
	if !h.Has("key-4") {
		t.Error("newest key missing")
	}
}

func TestHistoryDuplicateRefreshesRecency(t *testing.T) {
	h := NewHistory(2, 0.001)

	h.Add("a")
	h.Add("b")
	h.Add("a") // refresh
	h.Add("c") // evicts b, not a

	if !h.Has("a") {
		t.Error("refreshed key evicted")
	}
	if h.Has("b") {
		t.Error("stale key survived eviction")
	}
}

func TestHistoryClear(t *testing.T) {
	h := NewHistory(100, 0.001)

	h.Add("one")
	h.Add("two")
	h.Clear()

	if h.Size() != 0 {
		t.Errorf("Size = %d after Clear, want 0", h.Size())
	}
	if h.Has("one") {
		t.Error("cleared key still reported")
	}
}

func TestHistoryConcurrentAccess(t *testing.T) {
	h := NewHistory(1000, 0.001)

	done := make(chan struct{})
	for i := 0; i < 4; i++ {
		go func(worker int) {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("w%d-k%d", worker, j)
				h.Add(key)
				h.Has(key)
			}
		}(i)
	}
	for i := 0; i < 4; i++ {
		<-done
	}

	if h.Size() != 400 {
		t.Errorf("Size = %d, want 400", h.Size())
	}
}

func BenchmarkHistoryHasMiss(b *testing.B) {
	h := NewHistory(10000, 0.001)
	for i := 0; i < 1000; i++ {
		h.Add(fmt.Sprintf("key-%d", i))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		h.Has("never-played")
	}
}

package memory

import (
	"context"
	"reflect"
	"sync"
	"testing"

	"bullsignals/internal/model"
)

func TestAppend_RoundTrip(t *testing.T) {
	s := New()
	ctx := context.Background()

	sig := &model.Signal{
		Symbol:      "BTCUSDT",
		Timeframe:   "1h",
		Side:        model.SideCall,
		Probability: 0.81,
		Threshold:   0.7,
		EntryPrice:  65000,
		LastPrice:   65000,
		TPPrice:     65650,
		SLPrice:     63700,
		TPPct:       0.01,
		SLPct:       0.02,
		Leverage:    20,
		Status:      model.StatusOpen,
		TimeOpen:    "2026-09-01T10:00:00Z",
		Features:    model.FeatureVector{"rsi14": 61.2},
	}

	id, err := s.Append(ctx, "BTCUSDT", sig)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id == "" {
		t.Fatal("expected non-empty ID")
	}

	open, err := s.ListOpen(ctx, "BTCUSDT")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, ok := open[id]
	if !ok {
		t.Fatalf("appended signal not found under id %s", id)
	}
	if !reflect.DeepEqual(got, sig) {
		t.Errorf("round-trip mismatch:\nwrote %+v\nread  %+v", sig, got)
	}
}

func TestAppend_UniqueIDsUnderConcurrency(t *testing.T) {
	s := New()
	ctx := context.Background()

	const writers = 50
	var wg sync.WaitGroup
	ids := make(chan string, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := s.Append(ctx, "BTCUSDT", &model.Signal{Status: model.StatusOpen})
			if err != nil {
				t.Errorf("append: %v", err)
				return
			}
			ids <- id
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool)
	for id := range ids {
		if seen[id] {
			t.Fatalf("duplicate ID %s", id)
		}
		seen[id] = true
	}
	if len(seen) != writers {
		t.Errorf("expected %d unique IDs, got %d", writers, len(seen))
	}
}

func TestOpenClosedPartitions(t *testing.T) {
	s := New()
	ctx := context.Background()

	id, _ := s.Append(ctx, "BTCUSDT", &model.Signal{Status: model.StatusOpen})

	closed := &model.Signal{Status: model.StatusClosed, Reason: model.ReasonTP}
	if err := s.WriteClosed(ctx, "BTCUSDT", id, closed); err != nil {
		t.Fatalf("write closed: %v", err)
	}
	if err := s.RemoveOpen(ctx, "BTCUSDT", id); err != nil {
		t.Fatalf("remove open: %v", err)
	}

	open, _ := s.ListOpen(ctx, "BTCUSDT")
	if len(open) != 0 {
		t.Errorf("expected empty open namespace, got %d records", len(open))
	}
	exists, _ := s.ClosedExists(ctx, "BTCUSDT", id)
	if !exists {
		t.Error("expected closed record to exist")
	}

	// Removing an absent ID is a no-op, not an error.
	if err := s.RemoveOpen(ctx, "BTCUSDT", "missing"); err != nil {
		t.Errorf("remove absent: %v", err)
	}
}

package schedule

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	calendar "google.golang.org/api/calendar/v3"
)

// fakeInserter records submitted events and fails for summaries containing
// any configured marker.
type fakeInserter struct {
	inserted []*calendar.Event
	failOn   string
}

func (f *fakeInserter) Insert(_ context.Context, event *calendar.Event) (*calendar.Event, error) {
	if f.failOn != "" && strings.Contains(event.Summary, f.failOn) {
		return nil, errors.New("provider unavailable")
	}
	f.inserted = append(f.inserted, event)
	created := *event
	created.Id = fmt.Sprintf("evt-%d", len(f.inserted))
	return &created, nil
}

func testSyncer(t *testing.T) *Syncer {
	t.Helper()
	s := NewSyncer(testEventOptions(t))
	s.now = func() time.Time {
		return time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
	}
	return s
}

func rawBatch(n int) []any {
	batch := make([]any, 0, n)
	for i := 0; i < n; i++ {
		raw := validSessionRaw()
		raw["course_code"] = fmt.Sprintf("CS F%d", 200+i)
		batch = append(batch, any(raw))
	}
	return batch
}

func TestSyncBatchEmpty(t *testing.T) {
	_, err := testSyncer(t).SyncBatch(context.Background(), nil, &fakeInserter{})
	if !errors.Is(err, ErrEmptyBatch) {
		t.Fatalf("err = %v, want ErrEmptyBatch", err)
	}
}

func TestSyncBatchTooLarge(t *testing.T) {
	ins := &fakeInserter{}
	_, err := testSyncer(t).SyncBatch(context.Background(), rawBatch(MaxBatchSize+1), ins)
	if !errors.Is(err, ErrBatchTooLarge) {
		t.Fatalf("err = %v, want ErrBatchTooLarge", err)
	}
	if len(ins.inserted) != 0 {
		t.Fatalf("oversize batch must be rejected before any submission, got %d inserts", len(ins.inserted))
	}
}

func TestSyncBatchValidationGateIsAllOrNothing(t *testing.T) {
	batch := rawBatch(5)
	bad := validSessionRaw()
	bad["day"] = "Saturday"
	batch[2] = bad

	ins := &fakeInserter{}
	_, err := testSyncer(t).SyncBatch(context.Background(), batch, ins)

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want *ValidationError", err)
	}
	if len(ins.inserted) != 0 {
		t.Fatalf("invalid batch must attempt zero submissions, got %d", len(ins.inserted))
	}
	found := false
	for _, p := range verr.Problems {
		if strings.HasPrefix(p, "Class 3:") {
			found = true
		}
	}
	if !found {
		t.Fatalf("problems must be index-labelled, got %v", verr.Problems)
	}
}

func TestSyncBatchAllSucceed(t *testing.T) {
	ins := &fakeInserter{}
	result, err := testSyncer(t).SyncBatch(context.Background(), rawBatch(3), ins)
	if err != nil {
		t.Fatalf("SyncBatch: %v", err)
	}
	if len(result.Added) != 3 || len(result.FailedCodes) != 0 {
		t.Fatalf("added=%d failed=%d, want 3/0", len(result.Added), len(result.FailedCodes))
	}
	if result.Added[0].ID == "" || result.Added[0].Summary == "" || result.Added[0].Start == "" {
		t.Fatalf("added echo incomplete: %+v", result.Added[0])
	}
	if !strings.Contains(result.Message, "3") {
		t.Fatalf("message should report the count, got %q", result.Message)
	}
}

func TestSyncBatchPartialProviderFailure(t *testing.T) {
	// item with course code CS F201 fails at the provider; the rest go through
	ins := &fakeInserter{failOn: "CS F201"}
	result, err := testSyncer(t).SyncBatch(context.Background(), rawBatch(4), ins)
	if err != nil {
		t.Fatalf("SyncBatch: %v", err)
	}
	if len(result.Added) != 3 {
		t.Fatalf("added = %d, want 3", len(result.Added))
	}
	if len(result.FailedCodes) != 1 || result.FailedCodes[0] != "CS F201" {
		t.Fatalf("failed = %v, want [CS F201]", result.FailedCodes)
	}
	if !strings.Contains(result.Message, "failed") {
		t.Fatalf("message should mention failures, got %q", result.Message)
	}
}

func TestSyncBatchPreservesOrder(t *testing.T) {
	ins := &fakeInserter{}
	result, err := testSyncer(t).SyncBatch(context.Background(), rawBatch(3), ins)
	if err != nil {
		t.Fatalf("SyncBatch: %v", err)
	}
	for i, added := range result.Added {
		want := fmt.Sprintf("CS F%d", 200+i)
		if !strings.HasPrefix(added.Summary, want) {
			t.Fatalf("added[%d] = %q, want prefix %q", i, added.Summary, want)
		}
	}
}

package schedule

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	calendar "google.golang.org/api/calendar/v3"
)

// MaxBatchSize bounds one sync request.
const MaxBatchSize = 100

// ErrEmptyBatch rejects sync requests carrying no classes.
var ErrEmptyBatch = errors.New("no classes provided")

// ErrBatchTooLarge rejects sync requests over MaxBatchSize.
var ErrBatchTooLarge = fmt.Errorf("too many classes in one request (max %d)", MaxBatchSize)

// EventInserter submits a single event to the calendar provider.
type EventInserter interface {
	Insert(ctx context.Context, event *calendar.Event) (*calendar.Event, error)
}

// AddedEvent echoes the provider's view of a created event.
type AddedEvent struct {
	ID      string `json:"id"`
	Summary string `json:"summary"`
	Start   string `json:"start"`
}

// BatchResult aggregates per-item outcomes of one sync call. Added and
// FailedCodes preserve input order.
type BatchResult struct {
	Message     string
	Added       []AddedEvent
	FailedCodes []string
}

// ValidationError carries the index-labelled error list for a batch rejected
// at the validation gate.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid class data: " + strings.Join(e.Problems, "; ")
}

var (
	batchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "classsync_sync_batches_total",
		Help: "Sync batches processed, by outcome.",
	}, []string{"outcome"})
	eventsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "classsync_events_created_total",
		Help: "Calendar events created successfully.",
	})
	eventsFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "classsync_events_failed_total",
		Help: "Calendar event submissions that failed.",
	})
)

// Syncer pushes validated class batches to a calendar provider.
type Syncer struct {
	opts EventOptions
	now  func() time.Time
}

// NewSyncer creates a syncer with the given event settings.
func NewSyncer(opts EventOptions) *Syncer {
	return &Syncer{opts: opts, now: time.Now}
}

// SyncBatch validates every record, then submits the events in order.
// Validation is all-or-nothing: any invalid record rejects the whole batch
// with a *ValidationError before a single submission is attempted. After the
// gate, per-item provider failures are recorded by course code and do not
// stop the remaining items.
func (s *Syncer) SyncBatch(ctx context.Context, classes []any, inserter EventInserter) (*BatchResult, error) {
	if len(classes) == 0 {
		batchesTotal.WithLabelValues("rejected").Inc()
		return nil, ErrEmptyBatch
	}
	if len(classes) > MaxBatchSize {
		batchesTotal.WithLabelValues("rejected").Inc()
		return nil, ErrBatchTooLarge
	}

	var problems []string
	for i, raw := range classes {
		res := Validate(raw)
		for _, msg := range res.Errors {
			problems = append(problems, fmt.Sprintf("Class %d: %s", i+1, msg))
		}
	}
	if len(problems) > 0 {
		batchesTotal.WithLabelValues("rejected").Inc()
		return nil, &ValidationError{Problems: problems}
	}

	now := s.now().In(s.opts.Location)
	result := &BatchResult{Added: []AddedEvent{}}
	for _, raw := range classes {
		sess := SessionFromRaw(raw)
		code := Sanitize(sess.CourseCode)

		date, err := ProjectDate(sess.Day, now)
		if err != nil {
			result.FailedCodes = append(result.FailedCodes, code)
			eventsFailedTotal.Inc()
			continue
		}
		event, err := BuildEvent(sess, date, s.opts)
		if err != nil {
			result.FailedCodes = append(result.FailedCodes, code)
			eventsFailedTotal.Inc()
			continue
		}
		created, err := inserter.Insert(ctx, event)
		if err != nil {
			result.FailedCodes = append(result.FailedCodes, code)
			eventsFailedTotal.Inc()
			continue
		}

		added := AddedEvent{ID: created.Id, Summary: created.Summary, Start: event.Start.DateTime}
		if created.Start != nil && created.Start.DateTime != "" {
			added.Start = created.Start.DateTime
		}
		result.Added = append(result.Added, added)
		eventsCreatedTotal.Inc()
	}

	if len(result.FailedCodes) > 0 {
		result.Message = fmt.Sprintf("Added %d events to your calendar, %d failed", len(result.Added), len(result.FailedCodes))
		batchesTotal.WithLabelValues("partial").Inc()
	} else {
		result.Message = fmt.Sprintf("Added %d events to your calendar", len(result.Added))
		batchesTotal.WithLabelValues("ok").Inc()
	}
	return result, nil
}

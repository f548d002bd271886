package scheduler

import (
	"context"
	"testing"

	"estateflow_backend/internal/scoring/service"
	"estateflow_backend/platform/logger"
)

// fakeRescorer mimics the store-backed orchestrator: scored leads drop out
// of the unscored filter between pages, exactly like `ai_scored_at IS NULL`.
type fakeRescorer struct {
	scored  []bool
	failing map[int]bool
}

func (f *fakeRescorer) Rescore(_ context.Context, params service.RescoreParams) (service.RescoreResult, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = 100
	}

	var pending []int
	for i, done := range f.scored {
		if params.OnlyUnscored && done {
			continue
		}
		pending = append(pending, i)
	}

	result := service.RescoreResult{
		Distribution: make(map[string]int),
		NextOffset:   params.Offset + limit,
	}
	if params.Offset >= len(pending) {
		return result, nil
	}

	page := pending[params.Offset:]
	if len(page) > limit {
		result.HasMore = true
		page = page[:limit]
	}
	result.Requested = len(page)
	for _, idx := range page {
		if f.failing[idx] {
			result.Failed++
			continue
		}
		f.scored[idx] = true
		result.Scored++
	}
	return result, nil
}

type fakeEnqueuer struct {
	next *service.RescoreParams
}

func (f *fakeEnqueuer) EnqueueRescore(_ context.Context, params service.RescoreParams) error {
	p := params
	f.next = &p
	return nil
}

// walkRescore drives the worker's self-enqueueing page walk until no
// follow-up task is queued, feeding each queued task back in.
func walkRescore(t *testing.T, w *Worker, enq *fakeEnqueuer, payload RescoreAllPayload) {
	t.Helper()
	for rounds := 0; ; rounds++ {
		if rounds > 20 {
			t.Fatal("rescore walk did not terminate")
		}
		task, err := NewRescoreAllTask(payload)
		if err != nil {
			t.Fatalf("NewRescoreAllTask: %v", err)
		}
		enq.next = nil
		if err := w.handleRescoreAll(context.Background(), task); err != nil {
			t.Fatalf("handleRescoreAll: %v", err)
		}
		if enq.next == nil {
			return
		}
		payload = RescoreAllPayload{
			OnlyUnscored: enq.next.OnlyUnscored,
			PageSize:     enq.next.Limit,
			Offset:       enq.next.Offset,
		}
	}
}

func TestRescoreWalkCoversAllUnscoredLeads(t *testing.T) {
	rescorer := &fakeRescorer{scored: make([]bool, 5)}
	enq := &fakeEnqueuer{}
	w := &Worker{scoring: rescorer, client: enq, log: logger.New("test")}

	walkRescore(t, w, enq, RescoreAllPayload{OnlyUnscored: true, PageSize: 2})

	for i, done := range rescorer.scored {
		if !done {
			t.Fatalf("lead %d was never rescored", i)
		}
	}
}

func TestRescoreWalkStepsOverPersistentFailures(t *testing.T) {
	rescorer := &fakeRescorer{
		scored:  make([]bool, 5),
		failing: map[int]bool{1: true},
	}
	enq := &fakeEnqueuer{}
	w := &Worker{scoring: rescorer, client: enq, log: logger.New("test")}

	walkRescore(t, w, enq, RescoreAllPayload{OnlyUnscored: true, PageSize: 2})

	for i, done := range rescorer.scored {
		if i == 1 {
			if done {
				t.Fatal("failing lead reported as scored")
			}
			continue
		}
		if !done {
			t.Fatalf("lead %d was never rescored", i)
		}
	}
}

func TestRescoreWalkForceModeAdvancesByPage(t *testing.T) {
	rescorer := &fakeRescorer{scored: make([]bool, 5)}
	enq := &fakeEnqueuer{}
	w := &Worker{scoring: rescorer, client: enq, log: logger.New("test")}

	task, err := NewRescoreAllTask(RescoreAllPayload{PageSize: 2})
	if err != nil {
		t.Fatalf("NewRescoreAllTask: %v", err)
	}
	if err := w.handleRescoreAll(context.Background(), task); err != nil {
		t.Fatalf("handleRescoreAll: %v", err)
	}
	if enq.next == nil {
		t.Fatal("expected a follow-up page")
	}
	if enq.next.Offset != 2 {
		t.Fatalf("next offset = %d, want 2", enq.next.Offset)
	}
}

// Package progress tracks ingestion jobs as a process-wide table keyed by
// job id. Each job has a single writer (the active ingestion) and any number
// of polling readers. Watchers receive coalesced snapshots: the current value
// is monotonically non-decreasing and the terminal snapshot is always
// delivered before the record is cleared.
package progress

import (
	"context"
	"sync"
)

// State describes the lifecycle of one ingestion job.
type State string

const (
	StateRunning State = "running"
	StateDone    State = "done"
	StateFailed  State = "failed"
)

// Snapshot is one observation of a job's progress.
type Snapshot struct {
	Current int   `json:"current"`
	Total   int   `json:"total"`
	State   State `json:"state"`
}

// Terminal reports whether no further snapshots will follow.
func (s Snapshot) Terminal() bool {
	return s.State == StateDone || s.State == StateFailed
}

type subscriber struct {
	ch   chan Snapshot
	stop chan struct{}
}

type job struct {
	snap    Snapshot
	subs    map[int]*subscriber
	nextSub int
}

// Tracker is safe for concurrent use.
type Tracker struct {
	mu   sync.RWMutex
	jobs map[string]*job
}

func NewTracker() *Tracker {
	return &Tracker{jobs: make(map[string]*job)}
}

// Start registers a running job with the given total. Restarting an existing
// key resets its counts but keeps live watchers attached.
func (t *Tracker) Start(key string, total int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	j, ok := t.jobs[key]
	if !ok {
		j = &job{subs: make(map[int]*subscriber)}
		t.jobs[key] = j
	}
	j.snap = Snapshot{Current: 0, Total: total, State: StateRunning}
	j.broadcast()
}

// Advance increments the job's completed count, never past its total.
func (t *Tracker) Advance(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	j, ok := t.jobs[key]
	if !ok {
		return
	}
	if j.snap.Current < j.snap.Total {
		j.snap.Current++
	}
	j.broadcast()
}

// Finish marks the job done, delivers the final snapshot, and clears the record.
func (t *Tracker) Finish(key string) {
	t.terminate(key, StateDone)
}

// Fail marks the job failed, delivers the final snapshot, and clears the
// record. Watchers can thereby distinguish a failed job from a slow one.
func (t *Tracker) Fail(key string) {
	t.terminate(key, StateFailed)
}

func (t *Tracker) terminate(key string, state State) {
	t.mu.Lock()
	defer t.mu.Unlock()
	j, ok := t.jobs[key]
	if !ok {
		return
	}
	j.snap.State = state
	j.broadcast()
	for id, s := range j.subs {
		close(s.ch)
		close(s.stop)
		delete(j.subs, id)
	}
	delete(t.jobs, key)
}

// Snapshot returns the job's current progress, or false if no job is active
// under the key.
func (t *Tracker) Snapshot(key string) (Snapshot, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	j, ok := t.jobs[key]
	if !ok {
		return Snapshot{}, false
	}
	return j.snap, true
}

// Watch subscribes to a job's progress. The returned channel carries the
// latest snapshot available at each read (intermediate values may be
// coalesced) and is closed after the terminal snapshot or when ctx is done.
// Watching a key with no active job returns an already-closed channel.
func (t *Tracker) Watch(ctx context.Context, key string) <-chan Snapshot {
	out := make(chan Snapshot, 1)
	t.mu.Lock()
	j, ok := t.jobs[key]
	if !ok {
		t.mu.Unlock()
		close(out)
		return out
	}
	sub := &subscriber{ch: out, stop: make(chan struct{})}
	id := j.nextSub
	j.nextSub++
	j.subs[id] = sub
	out <- j.snap
	t.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			t.unsubscribe(key, id)
		case <-sub.stop:
		}
	}()
	return out
}

func (t *Tracker) unsubscribe(key string, id int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	j, ok := t.jobs[key]
	if !ok {
		return
	}
	if s, ok := j.subs[id]; ok {
		delete(j.subs, id)
		close(s.ch)
		close(s.stop)
	}
}

// broadcast pushes the current snapshot to every subscriber, replacing any
// undelivered one so readers never block the writer. Caller holds t.mu.
func (j *job) broadcast() {
	for _, s := range j.subs {
		select {
		case <-s.ch:
		default:
		}
		select {
		case s.ch <- j.snap:
		default:
		}
	}
}

package services

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
)

// QueueKind names one of the two waiting lists.
type QueueKind string

const (
	QueueNormal QueueKind = "normal"
	QueueDraft  QueueKind = "draft"
)

var queueKinds = []QueueKind{QueueNormal, QueueDraft}

func ParseQueueKind(s string) (QueueKind, error) {
	switch QueueKind(s) {
	case QueueNormal, QueueDraft:
		return QueueKind(s), nil
	}
	return "", reject("unknown queue %q, use normal or draft", s)
}

// Other returns the opposite queue.
func (k QueueKind) Other() QueueKind {
	if k == QueueNormal {
		return QueueDraft
	}
	return QueueNormal
}

// Queue is an ordered waiting list of discord ids with unique membership.
type Queue interface {
	// Join appends id. It reports false if id was already queued.
	Join(ctx context.Context, id string) (bool, error)
	// Leave removes id. It reports false if id was not queued.
	Leave(ctx context.Context, id string) (bool, error)
	// Prepend puts ids at the front in the given order, skipping members already present.
	Prepend(ctx context.Context, ids []string) error
	// PopIfFull removes and returns the first n members, or nil if fewer are waiting.
	PopIfFull(ctx context.Context, n int) ([]string, error)
	Members(ctx context.Context) ([]string, error)
	Clear(ctx context.Context) error
}

// MemoryQueue keeps the list in process memory.
type MemoryQueue struct {
	mu      sync.Mutex
	members []string
}

func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{}
}

func (q *MemoryQueue) index(id string) int {
	for i, m := range q.members {
		if m == id {
			return i
		}
	}
	return -1
}

func (q *MemoryQueue) Join(_ context.Context, id string) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.index(id) >= 0 {
		return false, nil
	}
	q.members = append(q.members, id)
	return true, nil
}

func (q *MemoryQueue) Leave(_ context.Context, id string) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	i := q.index(id)
	if i < 0 {
		return false, nil
	}
	q.members = append(q.members[:i], q.members[i+1:]...)
	return true, nil
}

func (q *MemoryQueue) Prepend(_ context.Context, ids []string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	front := make([]string, 0, len(ids))
	for _, id := range ids {
		if q.index(id) < 0 && !contains(front, id) {
			front = append(front, id)
		}
	}
	q.members = append(front, q.members...)
	return nil
}

func (q *MemoryQueue) PopIfFull(_ context.Context, n int) ([]string, error) {
	if n <= 0 {
		return nil, eris.Errorf("invalid lobby size %d", n)
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.members) < n {
		return nil, nil
	}
	out := append([]string(nil), q.members[:n]...)
	q.members = append([]string(nil), q.members[n:]...)
	return out, nil
}

func (q *MemoryQueue) Members(_ context.Context) ([]string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]string(nil), q.members...), nil
}

func (q *MemoryQueue) Clear(_ context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.members = nil
	return nil
}

func contains(list []string, id string) bool {
	for _, v := range list {
		if v == id {
			return true
		}
	}
	return false
}

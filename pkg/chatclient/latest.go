package chatclient

import (
	"context"
	"sync"
)

// Latest runs fetches where each new one supersedes the previous: the older
// context is cancelled and its result is never applied.
type Latest[T any] struct {
	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
}

// Do runs fetch and, if no newer call started meanwhile, calls apply with the
// result. It reports whether apply ran. A superseded call returns false and a
// nil error.
func (l *Latest[T]) Do(ctx context.Context, fetch func(context.Context) (T, error), apply func(T)) (bool, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	l.mu.Lock()
	if l.cancel != nil {
		l.cancel()
	}
	l.seq++
	seq := l.seq
	l.cancel = cancel
	l.mu.Unlock()

	result, err := fetch(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()
	if seq != l.seq {
		return false, nil
	}
	l.cancel = nil
	if err != nil {
		return false, err
	}
	apply(result)
	return true, nil
}

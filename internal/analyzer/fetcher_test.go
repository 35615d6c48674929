package analyzer

import (
	"context"
	"sync"
)

// lockedFetcher serializes access to a fakeFetcher for concurrent tests.
type lockedFetcher struct {
	mu sync.Mutex
	f  *fakeFetcher
}

func (l *lockedFetcher) Fetch(ctx context.Context, url string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.f.Fetch(ctx, url)
}

package repository

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/okian/bullseye/pkg/metrics"
)

// Treap-based, in-memory Store implementation.
//
// Ordering: total DESC, then shooterID ASC (deterministic). "less" means
// ranks earlier, so an in-order traversal yields the board from best to
// worst. Priorities are random, which keeps the expected depth logarithmic.

// DefaultAnonymousShooter is credited for hits that carry no source id.
const DefaultAnonymousShooter = "anonymous"

type record struct {
	total int64
	hits  int64
}

type node struct {
	id    string
	total int64
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less returns true if (aTotal, aID) appears before (bTotal, bID).
func less(aTotal int64, aID string, bTotal int64, bID string) bool {
	if aTotal != bTotal {
		return aTotal > bTotal
	}
	return aID < bID
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	fix(x)
	fix(y)
	return y
}

func insert(n *node, id string, total int64, prio uint64) *node {
	if n == nil {
		return &node{id: id, total: total, prio: prio, size: 1}
	}
	if less(total, id, n.total, n.id) {
		n.left = insert(n.left, id, total, prio)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, id, total, prio)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, id string, total int64) *node {
	if n == nil {
		return nil
	}
	switch {
	case total == n.total && id == n.id:
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, id, total)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, id, total)
		}
	case less(total, id, n.total, n.id):
		n.left = deleteNode(n.left, id, total)
	default:
		n.right = deleteNode(n.right, id, total)
	}
	fix(n)
	return n
}

// walk visits nodes in rank order until visit returns false.
func walk(n *node, visit func(*node) bool) bool {
	if n == nil {
		return true
	}
	if !walk(n.left, visit) {
		return false
	}
	if !visit(n) {
		return false
	}
	return walk(n.right, visit)
}

// TreapStore is the in-memory scoreboard.
type TreapStore struct {
	mu        sync.RWMutex
	root      *node
	byID      map[string]record
	sum       int64
	anonymous string

	metricsUpdateInterval time.Duration
	wg                    sync.WaitGroup
	stopChan              chan struct{}
	stopOnce              sync.Once
}

// NewTreapStore constructs a scoreboard. A background goroutine refreshes
// scoreboard gauges until ctx is done or Close is called.
func NewTreapStore(ctx context.Context, opts ...Option) *TreapStore {
	s := &TreapStore{
		byID:                  make(map[string]record),
		anonymous:             DefaultAnonymousShooter,
		metricsUpdateInterval: 5 * time.Second,
		stopChan:              make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.startMetricsUpdater(ctx)
	return s
}

// Close stops the background metrics updater.
func (s *TreapStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return nil
}

// AddScore implements Store.AddScore in O(log n) expected time.
func (s *TreapStore) AddScore(_ context.Context, shooterID string, amount int) (int64, error) {
	start := time.Now()
	defer func() {
		metrics.RecordScoreboardUpdate(float64(time.Since(start).Microseconds()) / 1000)
	}()

	if shooterID == "" {
		if s.anonymous == "" {
			metrics.RecordErrorByComponent("repository", "invalid_shooter")
			return 0, ErrInvalidShooter
		}
		shooterID = s.anonymous
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.byID[shooterID]
	if ok && amount != 0 {
		s.root = deleteNode(s.root, shooterID, rec.total)
	}
	rec.total += int64(amount)
	rec.hits++
	s.byID[shooterID] = rec
	s.sum += int64(amount)
	if !ok || amount != 0 {
		s.root = insert(s.root, shooterID, rec.total, rand.Uint64())
	}
	return rec.total, nil
}

// Rank returns the dense rank of a shooter: equal totals share a rank and
// the next distinct total takes the following rank.
func (s *TreapStore) Rank(_ context.Context, shooterID string) (Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byID[shooterID]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return Entry{}, ErrNotFound
	}

	rank := 0
	var prev int64
	walk(s.root, func(n *node) bool {
		if rank == 0 || n.total != prev {
			rank++
			prev = n.total
		}
		return n.total > rec.total
	})
	return Entry{Rank: rank, ShooterID: shooterID, Total: rec.total, Hits: rec.hits}, nil
}

// TopN returns the top n entries with dense ranks.
func (s *TreapStore) TopN(_ context.Context, n int) ([]Entry, error) {
	if n < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entry, 0, min(n, len(s.byID)))
	walk(s.root, func(nd *node) bool {
		rank := 1
		if last := len(out) - 1; last >= 0 {
			rank = out[last].Rank
			if out[last].Total != nd.total {
				rank++
			}
		}
		out = append(out, Entry{Rank: rank, ShooterID: nd.id, Total: nd.total, Hits: s.byID[nd.id].hits})
		return len(out) < n
	})
	return out, nil
}

// Count returns the number of shooters.
func (s *TreapStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// Total returns the sum of every shooter's total.
func (s *TreapStore) Total(_ context.Context) int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sum
}

// Reset clears all totals.
func (s *TreapStore) Reset(_ context.Context) {
	s.mu.Lock()
	s.root = nil
	s.byID = make(map[string]record)
	s.sum = 0
	s.mu.Unlock()
	s.updateMetrics()
}

func (s *TreapStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.updateMetrics()
			}
		}
	}()
}

func (s *TreapStore) updateMetrics() {
	s.mu.RLock()
	shooters, total := len(s.byID), s.sum
	s.mu.RUnlock()
	metrics.UpdateScoreboard(shooters, total)
}

package predict

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
)

// ErrBarrierMismatch is returned when ranks meet at a barrier with
// different tags.
var ErrBarrierMismatch = errors.New("barrier tag mismatch")

// LocalGroup is an in-process world of ranks, for running several workers
// as goroutines. It is also an Exchange holding predictions in memory.
type LocalGroup struct {
	world int

	mu      sync.Mutex
	arrived int
	tag     string
	release chan struct{}

	rounds map[string]map[int][]Keyed
}

// NewLocalGroup creates a world of size ranks.
func NewLocalGroup(size int) *LocalGroup {
	if size < 1 {
		size = 1
	}
	return &LocalGroup{world: size, rounds: map[string]map[int][]Keyed{}}
}

// Member returns the member with the given rank.
func (g *LocalGroup) Member(rank int) *Member {
	return &Member{group: g, rank: rank}
}

// WorldSize returns the number of ranks.
func (g *LocalGroup) WorldSize() int { return g.world }

func (g *LocalGroup) barrier(ctx context.Context, tag string) error {
	g.mu.Lock()
	if g.arrived == 0 {
		g.tag = tag
		g.release = make(chan struct{})
	} else if g.tag != tag {
		waiting := g.tag
		g.mu.Unlock()
		return fmt.Errorf("%w: got %q while ranks wait at %q", ErrBarrierMismatch, tag, waiting)
	}
	g.arrived++
	release := g.release
	if g.arrived == g.world {
		g.arrived = 0
		close(release)
	}
	g.mu.Unlock()

	select {
	case <-release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *LocalGroup) Put(_ context.Context, round string, rank int, preds []Keyed) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.rounds[round] == nil {
		g.rounds[round] = map[int][]Keyed{}
	}
	g.rounds[round][rank] = slices.Clone(preds)
	return nil
}

func (g *LocalGroup) Gather(_ context.Context, round string) ([][]Keyed, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([][]Keyed, 0, g.world)
	for rank := 0; rank < g.world; rank++ {
		if preds, ok := g.rounds[round][rank]; ok {
			out = append(out, preds)
		}
	}
	return out, nil
}

func (g *LocalGroup) Clear(_ context.Context, round string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.rounds, round)
	return nil
}

// Member is one rank of a LocalGroup.
type Member struct {
	group *LocalGroup
	rank  int
}

func (m *Member) Rank() int      { return m.rank }
func (m *Member) WorldSize() int { return m.group.world }

// Barrier blocks until every rank of the group reached a barrier with tag,
// or ctx is done. A rank that gives up leaves the barrier unusable.
func (m *Member) Barrier(ctx context.Context, tag string) error {
	return m.group.barrier(ctx, tag)
}

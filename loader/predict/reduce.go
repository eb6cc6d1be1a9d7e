package predict

import (
	"context"
	"errors"
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"go.uber.org/zap"
)

// Barrier tags used by Reduce.
const (
	TagReduceStart = "reduce_predictions_start"
	TagReduceEnd   = "reduce_predictions_end"
)

// Group is one rank of a distributed run.
type Group interface {
	Rank() int
	WorldSize() int
	// Barrier blocks until every rank called Barrier with the same tag.
	Barrier(ctx context.Context, tag string) error
}

// Exchange hands predictions from every rank to rank 0. A round names one
// reduction; every rank puts its own predictions under it.
type Exchange interface {
	Put(ctx context.Context, round string, rank int, preds []Keyed) error
	// Gather returns the predictions of every rank in the round, by rank.
	Gather(ctx context.Context, round string) ([][]Keyed, error)
	// Clear drops the round.
	Clear(ctx context.Context, round string) error
}

// Reduce merges local predictions across ranks. Every rank puts its
// predictions and waits at TagReduceStart; rank 0 then merges all of them,
// later ranks overriding earlier ones for the same key, and every rank
// waits at TagReduceEnd. Ranks other than 0 get nothing. Without a group
// local is returned unchanged.
func (c *Collection) Reduce(ctx context.Context, round string, local []Keyed) ([]Keyed, error) {
	if c.group == nil || c.exchange == nil {
		return local, nil
	}
	rank := c.group.Rank()
	log := c.logger.With(zap.String("round", round), zap.Int("rank", rank))

	// Every rank reaches both barriers, even after a failure.
	var failed error
	if err := c.exchange.Put(ctx, round, rank, local); err != nil {
		failed = fmt.Errorf("put predictions: %w", err)
	}
	if err := c.group.Barrier(ctx, TagReduceStart); err != nil {
		return nil, errors.Join(failed, err)
	}

	var merged []Keyed
	if rank == 0 {
		all, err := c.exchange.Gather(ctx, round)
		if err != nil {
			failed = errors.Join(failed, fmt.Errorf("gather predictions: %w", err))
		} else {
			merged = merge(all)
			log.Debug("predictions reduced",
				zap.Int("ranks", len(all)),
				zap.Int("predictions", len(merged)))
		}
		if err := c.exchange.Clear(ctx, round); err != nil {
			log.Warn("failed to clear predictions", zap.Error(err))
		}
	}

	if err := c.group.Barrier(ctx, TagReduceEnd); err != nil {
		return nil, errors.Join(failed, err)
	}
	if failed != nil {
		return nil, failed
	}
	return merged, nil
}

func merge(all [][]Keyed) []Keyed {
	om := orderedmap.New[string, Prediction]()
	for _, preds := range all {
		for _, k := range preds {
			om.Set(k.Key, k.Prediction)
		}
	}
	return keyedOf(om)
}

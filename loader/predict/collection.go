// Package predict collects per-sample predictions during evaluation and
// merges them across the ranks of a distributed run.
//
// Predictions are grouped by stage and by loader index. An entry is either
// a sequence whose first element identifies the sample, or a mapping
// identified by its "path" or, failing that, its "id" value.
package predict

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"go.uber.org/zap"

	"github.com/lguimbarda/min-loader/loader/loaderrors"
)

// Stage is the phase of a run predictions belong to.
type Stage string

const (
	Train      Stage = "train"
	Validation Stage = "validation"
	Test       Stage = "test"
	Predict    Stage = "predict"
)

// Stages lists every stage.
var Stages = []Stage{Train, Validation, Test, Predict}

// Prediction is one stored entry. Sequence entries are stored with their
// indices as keys ("0", "1", ...).
type Prediction map[string]any

// Keyed is a prediction with the key identifying its sample.
type Keyed struct {
	Key        string     `json:"key"`
	Prediction Prediction `json:"prediction"`
}

type store = orderedmap.OrderedMap[string, Prediction]

// Collection stores predictions for the current stage. It is safe for
// concurrent use.
type Collection struct {
	mu          sync.Mutex
	stage       Stage
	predictions map[Stage]map[int]*store

	group    Group
	exchange Exchange
	logger   *zap.Logger
}

// Option configures a Collection.
type Option func(*Collection)

// WithDistributed makes Attach merge predictions of every rank of group
// through exchange. Without it predictions stay local.
func WithDistributed(group Group, exchange Exchange) Option {
	return func(c *Collection) {
		c.group = group
		c.exchange = exchange
	}
}

// WithLogger sets the logger. The default logger discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Collection) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewCollection creates an empty collection in the Test stage.
func NewCollection(opts ...Option) *Collection {
	c := &Collection{
		stage:       Test,
		predictions: make(map[Stage]map[int]*store, len(Stages)),
		logger:      zap.NewNop(),
	}
	for _, s := range Stages {
		c.predictions[s] = map[int]*store{}
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetStage selects the stage that Add, Len, Predictions and Attach work on.
func (c *Collection) SetStage(stage Stage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.predictions[stage]; !ok {
		return loaderrors.Configuration("stage", string(stage), "unknown stage")
	}
	c.stage = stage
	return nil
}

// Stage returns the current stage.
func (c *Collection) Stage() Stage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stage
}

// Len returns the number of loaders with predictions in the current stage.
func (c *Collection) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.predictions[c.stage])
}

// Add stores entries produced by the loader with index loaderIdx. Each
// entry must be a []any or a map[string]any with at least two elements.
// Nothing is stored if any entry is invalid or if a sample key is already
// present.
func (c *Collection) Add(loaderIdx int, entries []any) error {
	if entries == nil {
		return nil
	}
	keyed := make([]Keyed, 0, len(entries))
	seen := make(map[string]bool, len(entries))
	for i, e := range entries {
		k, err := keyOf(e)
		if err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
		if seen[k.Key] {
			return duplicate(k.Key)
		}
		seen[k.Key] = true
		keyed = append(keyed, k)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	byLoader := c.predictions[c.stage]
	preds, ok := byLoader[loaderIdx]
	if !ok {
		preds = orderedmap.New[string, Prediction]()
		byLoader[loaderIdx] = preds
	}
	for _, k := range keyed {
		if _, exists := preds.Get(k.Key); exists {
			return duplicate(k.Key)
		}
	}
	for _, k := range keyed {
		preds.Set(k.Key, k.Prediction)
	}
	return nil
}

// Predictions returns the local predictions of a loader in the current
// stage, in insertion order.
func (c *Collection) Predictions(loaderIdx int) []Keyed {
	c.mu.Lock()
	defer c.mu.Unlock()
	return keyedOf(c.predictions[c.stage][loaderIdx])
}

// Attach sets results[i]["predictions"] to the predictions of loader i,
// merged across ranks when the collection is distributed. On ranks other
// than 0 the merged list is empty. Results of loaders without predictions
// are left untouched.
func (c *Collection) Attach(ctx context.Context, results []map[string]any) ([]map[string]any, error) {
	if c.Len() == 0 {
		return results, nil
	}
	stage := c.Stage()
	for idx, result := range results {
		local := c.predictionsOf(stage, idx)
		if local == nil {
			continue
		}
		merged, err := c.Reduce(ctx, fmt.Sprintf("%s/%d", stage, idx), local)
		if err != nil {
			return results, err
		}
		values := make([]Prediction, 0, len(merged))
		for _, k := range merged {
			values = append(values, k.Prediction)
		}
		result["predictions"] = values
	}
	return results, nil
}

func (c *Collection) predictionsOf(stage Stage, idx int) []Keyed {
	c.mu.Lock()
	defer c.mu.Unlock()
	preds, ok := c.predictions[stage][idx]
	if !ok {
		return nil
	}
	return keyedOf(preds)
}

func keyedOf(preds *store) []Keyed {
	if preds == nil {
		return nil
	}
	out := make([]Keyed, 0, preds.Len())
	for pair := preds.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, Keyed{Key: pair.Key, Prediction: pair.Value})
	}
	return out
}

// keyOf identifies an entry and converts it to a Prediction.
func keyOf(entry any) (Keyed, error) {
	switch e := entry.(type) {
	case []any:
		if len(e) < 2 {
			return Keyed{}, loaderrors.Configuration("prediction", e,
				"expected at least a sample id and a prediction")
		}
		p := make(Prediction, len(e))
		for i, v := range e {
			p[strconv.Itoa(i)] = v
		}
		return Keyed{Key: fmt.Sprint(e[0]), Prediction: p}, nil

	case map[string]any:
		if len(e) < 2 {
			return Keyed{}, loaderrors.Configuration("prediction", e,
				"expected at least a sample id and a prediction")
		}
		key, ok := e["path"]
		if !ok {
			key, ok = e["id"]
		}
		if !ok {
			return Keyed{}, loaderrors.Configuration("prediction", e,
				"a mapping needs a path or an id key")
		}
		return Keyed{Key: fmt.Sprint(key), Prediction: Prediction(e)}, nil

	default:
		return Keyed{}, loaderrors.Configuration("prediction", entry,
			"expected a []any or a map[string]any")
	}
}

func duplicate(key string) error {
	return loaderrors.Configuration("prediction", key, "multiple predictions for one sample")
}

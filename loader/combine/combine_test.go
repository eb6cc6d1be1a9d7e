package combine_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/lguimbarda/min-loader/loader"
	"github.com/lguimbarda/min-loader/loader/combine"
	"github.com/lguimbarda/min-loader/loader/core"
	"github.com/lguimbarda/min-loader/loader/loaderrors"
	"github.com/lguimbarda/min-loader/loader/shape"
)

// labels returns n items named prefix0, prefix1, ...
func labels(prefix string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%s%d", prefix, i)
	}
	return out
}

func source(prefix string, n int) core.Source[string] {
	return loader.FromSlice(labels(prefix, n))
}

// collect runs one pass and returns every batch as plain values.
func collect[T any](t *testing.T, l *combine.Loader[T]) []any {
	t.Helper()
	var out []any
	for batch, err := range l.All(context.Background()) {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		out = append(out, batch.Any())
	}
	return out
}

func TestLoader_Sequence(t *testing.T) {
	tests := []struct {
		name     string
		mode     combine.Mode
		length   core.Length
		expected []any
	}{
		{
			name:   "min_size stops at the shortest source",
			mode:   combine.MinSize,
			length: 3,
			expected: []any{
				[]any{"a0", "b0"},
				[]any{"a1", "b1"},
				[]any{"a2", "b2"},
			},
		},
		{
			name:   "max_size_cycle restarts the shorter source",
			mode:   combine.MaxSizeCycle,
			length: 5,
			expected: []any{
				[]any{"a0", "b0"},
				[]any{"a1", "b1"},
				[]any{"a2", "b2"},
				[]any{"a0", "b3"},
				[]any{"a1", "b4"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := combine.New(shape.SeqOf(source("a", 3), source("b", 5)), tt.mode)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := l.Len(); got != tt.length {
				t.Errorf("expected length %d, got %d", tt.length, got)
			}
			if diff := cmp.Diff(tt.expected, collect(t, l)); diff != "" {
				t.Errorf("batches mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoader_Mapping(t *testing.T) {
	sources := shape.MapOf(map[string]core.Source[string]{
		"a": source("a", 3),
		"b": source("b", 5),
	})

	tests := []struct {
		mode  combine.Mode
		steps int
	}{
		{mode: combine.MinSize, steps: 3},
		{mode: combine.MaxSizeCycle, steps: 5},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			l, err := combine.New(sources, tt.mode)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			batches := collect(t, l)
			if len(batches) != tt.steps {
				t.Fatalf("expected %d batches, got %d", tt.steps, len(batches))
			}
			for i, b := range batches {
				m, ok := b.(map[string]any)
				if !ok {
					t.Fatalf("batch %d: expected a mapping, got %T", i, b)
				}
				if len(m) != 2 || m["a"] == nil || m["b"] == nil {
					t.Errorf("batch %d: expected keys a and b, got %v", i, m)
				}
				if want := fmt.Sprintf("b%d", i); m["b"] != want {
					t.Errorf("batch %d: expected b=%s, got %v", i, want, m["b"])
				}
			}
		})
	}
}

func TestLoader_SingleSource(t *testing.T) {
	l, err := combine.New(shape.Leaf(source("x", 2)), combine.MaxSizeCycle)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]any{"x0", "x1"}, collect(t, l)); diff != "" {
		t.Errorf("batches mismatch (-want +got):\n%s", diff)
	}
}

func TestLoader_Nested(t *testing.T) {
	sources := shape.Map(map[string]shape.Node[core.Source[string]]{
		"train": shape.SeqOf(source("a", 2), source("b", 4)),
		"extra": shape.Leaf(source("c", 1)),
	})

	l, err := combine.New(sources, combine.MaxSizeCycle)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := l.Len(); got != 4 {
		t.Errorf("expected length 4, got %d", got)
	}

	expected := []any{
		map[string]any{"extra": "c0", "train": []any{"a0", "b0"}},
		map[string]any{"extra": "c0", "train": []any{"a1", "b1"}},
		map[string]any{"extra": "c0", "train": []any{"a0", "b2"}},
		map[string]any{"extra": "c0", "train": []any{"a1", "b3"}},
	}
	if diff := cmp.Diff(expected, collect(t, l)); diff != "" {
		t.Errorf("batches mismatch (-want +got):\n%s", diff)
	}
}

func TestLoader_InvalidMode(t *testing.T) {
	_, err := combine.New(shape.Leaf(source("a", 1)), combine.Mode("bogus"))
	if !errors.Is(err, loaderrors.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	var cfg *loaderrors.ConfigurationError
	if !errors.As(err, &cfg) || cfg.Field != "mode" {
		t.Errorf("expected error on field mode, got %v", err)
	}
}

func TestLoader_EmptyContainer(t *testing.T) {
	tests := []struct {
		name    string
		sources shape.Node[core.Source[string]]
	}{
		{name: "empty sequence", sources: shape.SeqOf[core.Source[string]]()},
		{name: "empty mapping", sources: shape.MapOf(map[string]core.Source[string]{})},
		{
			name: "nested empty sequence",
			sources: shape.Seq(
				shape.Leaf(source("a", 1)),
				shape.Seq[core.Source[string]](),
			),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := combine.New(tt.sources, combine.MinSize)
			if !loaderrors.IsConfiguration(err) {
				t.Errorf("expected configuration error, got %v", err)
			}
		})
	}
}

func TestLoader_Unbounded(t *testing.T) {
	counter := func() core.Source[int] {
		n := 0
		return loader.Generate(func() (int, bool, error) {
			n++
			return n, true, nil
		})
	}

	t.Run("min_size uses the bounded source", func(t *testing.T) {
		l, err := combine.New(shape.SeqOf(counter(), loader.Range(0, 3)), combine.MinSize)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := l.Len(); got != 3 {
			t.Errorf("expected length 3, got %d", got)
		}
		if got := len(collect(t, l)); got != 3 {
			t.Errorf("expected 3 batches, got %d", got)
		}
	})

	t.Run("max_size_cycle is unbounded", func(t *testing.T) {
		l, err := combine.New(shape.SeqOf(counter(), loader.Range(0, 3)), combine.MaxSizeCycle)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := l.Len(); !got.IsUnbounded() {
			t.Fatalf("expected unbounded length, got %d", got)
		}

		it := l.Iter(context.Background())
		defer it.Close()
		for i := 0; i < 10; i++ {
			batch, err := it.Next()
			if err != nil {
				t.Fatalf("step %d: unexpected error: %v", i, err)
			}
			if got := batch.Index(1).Value(); got != i%3 {
				t.Errorf("step %d: expected %d from the cycled range, got %d", i, i%3, got)
			}
		}
	})
}

func TestLoader_Underflow(t *testing.T) {
	l, err := combine.New(shape.MapOf(map[string]core.Source[string]{
		"full":  source("a", 3),
		"empty": loader.Empty[string](),
	}), combine.MaxSizeCycle)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = l.Iter(context.Background()).Next()
	if !loaderrors.IsUnderflow(err) {
		t.Fatalf("expected underflow error, got %v", err)
	}
	var uf *loaderrors.UnderflowError
	if !errors.As(err, &uf) || uf.Leaf != "empty" {
		t.Errorf("expected underflow on leaf empty, got %v", err)
	}
}

func TestLoader_LeafError(t *testing.T) {
	boom := errors.New("boom")
	failing := loader.WithLen[string](loader.Generate(func() (string, bool, error) {
		return "", false, boom
	}), 4)

	l, err := combine.New(shape.SeqOf(source("a", 4), failing), combine.MinSize)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var errs []error
	for _, err := range l.All(context.Background()) {
		errs = append(errs, err)
	}
	if len(errs) != 1 || !errors.Is(errs[0], boom) {
		t.Fatalf("expected a single boom error, got %v", errs)
	}
	if got := errs[0].Error(); got != "leaf 1: boom" {
		t.Errorf("unexpected message %q", got)
	}
}

func TestIterator_StickyExhaustion(t *testing.T) {
	l, err := combine.New(shape.SeqOf(source("a", 1), source("b", 2)), combine.MinSize)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	it := l.Iter(context.Background())
	if _, err := it.Next(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := it.Next(); !loaderrors.IsExhausted(err) {
			t.Errorf("call %d: expected end of stream, got %v", i, err)
		}
	}
	if it.Steps() != 1 {
		t.Errorf("expected 1 step, got %d", it.Steps())
	}
}

func TestLoader_FreshPasses(t *testing.T) {
	l, err := combine.New(shape.SeqOf(source("a", 2), source("b", 3)), combine.MaxSizeCycle)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	first := collect(t, l)
	second := collect(t, l)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("passes differ (-first +second):\n%s", diff)
	}
	if len(first) != 3 {
		t.Errorf("expected 3 batches, got %d", len(first))
	}
}

func TestLoader_Hooks(t *testing.T) {
	var (
		starts   int
		batches  []int
		restarts []string
		ends     []int
		passIDs  = map[string]bool{}
	)
	hooks := core.Hooks{
		OnPassStart: func(p core.PassInfo) {
			starts++
			passIDs[p.ID] = true
		},
		OnBatch: func(_ core.PassInfo, step int) { batches = append(batches, step) },
		OnRestart: func(_ core.PassInfo, leaf string, n int) {
			restarts = append(restarts, fmt.Sprintf("%s#%d", leaf, n))
		},
		OnPassEnd: func(_ core.PassInfo, steps int) { ends = append(ends, steps) },
	}

	l, err := combine.New(shape.MapOf(map[string]core.Source[string]{
		"short": source("a", 2),
		"long":  source("b", 5),
	}), combine.MaxSizeCycle, combine.WithHooks(hooks))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	collect(t, l)
	collect(t, l)

	if starts != 2 || len(passIDs) != 2 {
		t.Errorf("expected 2 distinct passes, got %d starts and %d ids", starts, len(passIDs))
	}
	if diff := cmp.Diff([]int{1, 2, 3, 4, 5, 1, 2, 3, 4, 5}, batches); diff != "" {
		t.Errorf("batch steps mismatch (-want +got):\n%s", diff)
	}
	wantRestarts := []string{"short#1", "short#2", "short#1", "short#2"}
	if diff := cmp.Diff(wantRestarts, restarts); diff != "" {
		t.Errorf("restarts mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{5, 5}, ends); diff != "" {
		t.Errorf("pass ends mismatch (-want +got):\n%s", diff)
	}
}

func TestLoader_ContextHooks(t *testing.T) {
	var order []string
	l, err := combine.New(shape.Leaf(source("a", 1)), combine.MinSize,
		combine.WithHooks(core.Hooks{OnBatch: func(core.PassInfo, int) { order = append(order, "loader") }}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx := core.WithHooks(context.Background(), core.Hooks{
		OnBatch: func(core.PassInfo, int) { order = append(order, "context") },
	})
	for _, err := range l.All(ctx) {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if diff := cmp.Diff([]string{"loader", "context"}, order); diff != "" {
		t.Errorf("hook order mismatch (-want +got):\n%s", diff)
	}
}

type closingSource struct {
	closed *int
}

func (s closingSource) Iter() core.Iterator[int] {
	return &closingIterator{closed: s.closed}
}

func (s closingSource) Len() core.Length { return 10 }

type closingIterator struct {
	n      int
	closed *int
}

func (it *closingIterator) Next() (int, error) {
	it.n++
	return it.n, nil
}

func (it *closingIterator) Close() error {
	*it.closed++
	return nil
}

func TestIterator_CloseReleasesLeaves(t *testing.T) {
	for _, mode := range combine.Modes {
		t.Run(string(mode), func(t *testing.T) {
			closed := 0
			l, err := combine.New(shape.SeqOf[core.Source[int]](
				closingSource{closed: &closed},
				closingSource{closed: &closed},
			), mode)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			it := l.Iter(context.Background())
			if _, err := it.Next(); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if err := it.Close(); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if closed != 2 {
				t.Errorf("expected 2 closed leaves, got %d", closed)
			}
			if err := it.Close(); err != nil || closed != 2 {
				t.Errorf("second close: err=%v closed=%d", err, closed)
			}
		})
	}
}

func TestLoader_Stream(t *testing.T) {
	l, err := combine.New(shape.SeqOf(source("a", 2), source("b", 3)), combine.MinSize)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	batches, err := core.Slice(context.Background(), l.Stream())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := make([]string, len(batches))
	for i, b := range batches {
		got[i] = b.String()
	}
	if diff := cmp.Diff([]string{"[a0 b0]", "[a1 b1]"}, got); diff != "" {
		t.Errorf("batches mismatch (-want +got):\n%s", diff)
	}
}

func TestLoader_Dataset(t *testing.T) {
	short, _ := loader.Batched(labels("a", 7), 2, false)
	long, _ := loader.Batched(labels("b", 20), 2, false)

	l, err := combine.New(shape.SeqOf[core.Source[[]string]](short, long), combine.MinSize)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := l.Len(); got != 4 {
		t.Errorf("expected 4 steps, got %d", got)
	}

	ds := l.Dataset()
	if ds.MinLen() != 7 || ds.MaxLen() != 20 || ds.Len() != 7 {
		t.Errorf("unexpected dataset lengths: min=%d max=%d len=%d", ds.MinLen(), ds.MaxLen(), ds.Len())
	}
}

func TestLoader_DatasetWithoutProvider(t *testing.T) {
	l, err := combine.New(shape.Leaf(source("a", 3)), combine.MaxSizeCycle)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := l.Dataset().Len(); !got.IsUnbounded() {
		t.Errorf("expected unbounded dataset length, got %d", got)
	}
}

func TestLoader_SourcesAreUnwrapped(t *testing.T) {
	a, b := source("a", 2), source("b", 3)
	l, err := combine.New(shape.SeqOf(a, b), combine.MaxSizeCycle)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	leaves := l.Sources().Leaves()
	if len(leaves) != 2 || leaves[0] != a || leaves[1] != b {
		t.Errorf("expected the sources the loader was built from, got %v", leaves)
	}
}

// drainSteps drains it and returns every batch as a string.
func drainSteps(t *testing.T, it *combine.Iterator[string]) []string {
	t.Helper()
	var out []string
	for {
		batch, err := it.Next()
		if loaderrors.IsExhausted(err) {
			return out
		}
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		out = append(out, batch.String())
	}
}

func TestLoader_InterleavedPasses(t *testing.T) {
	for _, mode := range combine.Modes {
		t.Run(string(mode), func(t *testing.T) {
			l, err := combine.New(shape.SeqOf(source("a", 2), source("b", 3)), mode)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			want := map[combine.Mode][]string{
				combine.MinSize:      {"[a0 b0]", "[a1 b1]"},
				combine.MaxSizeCycle: {"[a0 b0]", "[a1 b1]", "[a0 b2]"},
			}[mode]

			first := l.Iter(context.Background())
			batch, err := first.Next()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			second := l.Iter(context.Background())

			got := append([]string{batch.String()}, drainSteps(t, first)...)
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("first pass mismatch (-want +got):\n%s", diff)
			}
			if first.Steps() != int(l.Len()) {
				t.Errorf("expected %d steps, got %d", l.Len(), first.Steps())
			}
			if diff := cmp.Diff(want, drainSteps(t, second)); diff != "" {
				t.Errorf("second pass mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoader_ConcurrentStreams(t *testing.T) {
	l, err := combine.New(shape.SeqOf(source("a", 3), source("b", 50)), combine.MaxSizeCycle)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	const passes = 4
	results := make([][]shape.Node[string], passes)
	errs := make([]error, passes)
	var wg sync.WaitGroup
	for i := 0; i < passes; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = core.Slice(context.Background(), l.Stream())
		}()
	}
	wg.Wait()

	for i := 0; i < passes; i++ {
		if errs[i] != nil {
			t.Fatalf("pass %d: unexpected error: %v", i, errs[i])
		}
		if len(results[i]) != 50 {
			t.Fatalf("pass %d: expected 50 batches, got %d", i, len(results[i]))
		}
		for step, batch := range results[i] {
			want := fmt.Sprintf("[a%d b%d]", step%3, step)
			if got := batch.String(); got != want {
				t.Errorf("pass %d step %d: expected %s, got %s", i, step, want, got)
				break
			}
		}
	}
}

func TestIterator_LeafErrorEndsPass(t *testing.T) {
	transient := errors.New("transient")
	calls := 0
	flaky := loader.WithLen[string](core.SourceFunc[string](func() core.Iterator[string] {
		return core.IteratorFunc[string](func() (string, error) {
			calls++
			if calls == 2 {
				return "", transient
			}
			return fmt.Sprintf("f%d", calls), nil
		})
	}), 4)

	var ended []int
	l, err := combine.New(shape.SeqOf(flaky, source("b", 4)), combine.MinSize,
		combine.WithHooks(core.Hooks{OnPassEnd: func(_ core.PassInfo, n int) { ended = append(ended, n) }}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	it := l.Iter(context.Background())
	if batch, err := it.Next(); err != nil || batch.String() != "[f1 b0]" {
		t.Fatalf("expected [f1 b0], got %v (%v)", batch, err)
	}
	if _, err := it.Next(); !errors.Is(err, transient) {
		t.Fatalf("expected transient error, got %v", err)
	}
	for i := 0; i < 2; i++ {
		if _, err := it.Next(); !loaderrors.IsExhausted(err) {
			t.Errorf("call %d after error: expected end of stream, got %v", i, err)
		}
	}
	if it.Steps() != 1 {
		t.Errorf("expected 1 step, got %d", it.Steps())
	}
	if diff := cmp.Diff([]int{1}, ended); diff != "" {
		t.Errorf("pass ends mismatch (-want +got):\n%s", diff)
	}
}

func TestIterator_UnderflowEndsPass(t *testing.T) {
	restarts := 0
	l, err := combine.New(shape.SeqOf(loader.Empty[string](), source("b", 3)), combine.MaxSizeCycle,
		combine.WithHooks(core.Hooks{OnRestart: func(core.PassInfo, string, int) { restarts++ }}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	it := l.Iter(context.Background())
	if _, err := it.Next(); !loaderrors.IsUnderflow(err) {
		t.Fatalf("expected underflow error, got %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := it.Next(); !loaderrors.IsExhausted(err) {
			t.Errorf("call %d after underflow: expected end of stream, got %v", i, err)
		}
	}
	if restarts != 1 {
		t.Errorf("expected 1 restart, got %d", restarts)
	}
}

package combine_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/lguimbarda/min-loader/loader"
	"github.com/lguimbarda/min-loader/loader/combine"
	"github.com/lguimbarda/min-loader/loader/core"
	"github.com/lguimbarda/min-loader/loader/loaderrors"
)

func TestCycle(t *testing.T) {
	tests := []struct {
		name     string
		items    []int
		bound    core.Length
		expected []int
		restarts int
	}{
		{name: "bound below length", items: []int{1, 2, 3}, bound: 2, expected: []int{1, 2}},
		{name: "bound equals length", items: []int{1, 2, 3}, bound: 3, expected: []int{1, 2, 3}},
		{name: "bound above length", items: []int{1, 2}, bound: 5, expected: []int{1, 2, 1, 2, 1}, restarts: 2},
		{name: "zero bound", items: []int{1}, bound: 0, expected: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := combine.NewCycle[int](loader.FromSlice(tt.items), tt.bound)
			got, err := core.Drain[int](c)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.expected, got); diff != "" {
				t.Errorf("items mismatch (-want +got):\n%s", diff)
			}
			if c.Restarts() != tt.restarts {
				t.Errorf("expected %d restarts, got %d", tt.restarts, c.Restarts())
			}
			if c.Delivered() != len(tt.expected) {
				t.Errorf("expected %d delivered, got %d", len(tt.expected), c.Delivered())
			}
		})
	}
}

func TestCycle_StaysExhausted(t *testing.T) {
	c := combine.NewCycle[int](loader.FromSlice([]int{1}), 1)
	if v, err := c.Next(); err != nil || v != 1 {
		t.Fatalf("got (%d, %v)", v, err)
	}
	for i := 0; i < 3; i++ {
		if _, err := c.Next(); !loaderrors.IsExhausted(err) {
			t.Errorf("call %d: expected end of stream, got %v", i, err)
		}
	}
}

func TestCycle_Underflow(t *testing.T) {
	c := combine.NewCycle[int](loader.Empty[int](), 3)
	_, err := c.Next()
	if !loaderrors.IsUnderflow(err) {
		t.Fatalf("expected underflow error, got %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := c.Next(); !loaderrors.IsExhausted(err) {
			t.Errorf("call %d after underflow: expected end of stream, got %v", i, err)
		}
	}
	if c.Restarts() != 1 {
		t.Errorf("expected 1 restart, got %d", c.Restarts())
	}
}

func TestCycle_IterRestartsPass(t *testing.T) {
	c := combine.NewCycle[int](loader.FromSlice([]int{1, 2, 3}), 4)
	if _, err := core.Drain[int](c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Iter begins a fresh pass from the first item.
	got, err := core.Drain(c.Iter())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]int{1, 2, 3, 1}, got); diff != "" {
		t.Errorf("items mismatch (-want +got):\n%s", diff)
	}
}

func TestCycle_Unbounded(t *testing.T) {
	c := combine.NewCycle[int](loader.FromSlice([]int{7, 8}), core.Unbounded)
	for i := 0; i < 101; i++ {
		v, err := c.Next()
		if err != nil {
			t.Fatalf("step %d: unexpected error: %v", i, err)
		}
		if want := 7 + i%2; v != want {
			t.Fatalf("step %d: expected %d, got %d", i, want, v)
		}
	}
	if c.Restarts() != 50 {
		t.Errorf("expected 50 restarts, got %d", c.Restarts())
	}
}

func TestParseMode(t *testing.T) {
	for _, s := range []string{"min_size", "max_size_cycle"} {
		if m, err := combine.ParseMode(s); err != nil || string(m) != s {
			t.Errorf("%s: got (%v, %v)", s, m, err)
		}
	}
	for _, s := range []string{"", "bogus", "MIN_SIZE"} {
		if _, err := combine.ParseMode(s); !loaderrors.IsConfiguration(err) {
			t.Errorf("%q: expected configuration error, got %v", s, err)
		}
	}
}

func TestLengthOf(t *testing.T) {
	tests := []struct {
		name     string
		sources  loader.Node[loader.Source[int]]
		mode     combine.Mode
		expected core.Length
	}{
		{name: "single", sources: loader.One[int](loader.Range(0, 4)), mode: combine.MinSize, expected: 4},
		{name: "min of sequence", sources: loader.Sequence(loader.Range(0, 4), loader.Range(0, 2)), mode: combine.MinSize, expected: 2},
		{name: "max of sequence", sources: loader.Sequence(loader.Range(0, 4), loader.Range(0, 2)), mode: combine.MaxSizeCycle, expected: 4},
		{name: "min ignores unbounded", sources: loader.Sequence(loader.Repeat(1, -1), loader.Range(0, 2)), mode: combine.MinSize, expected: 2},
		{name: "max absorbs unbounded", sources: loader.Sequence(loader.Repeat(1, -1), loader.Range(0, 2)), mode: combine.MaxSizeCycle, expected: core.Unbounded},
		{name: "all unbounded", sources: loader.Sequence(loader.Repeat(1, -1)), mode: combine.MinSize, expected: core.Unbounded},
		{
			name: "mapping is a scalar",
			sources: loader.Named(map[string]loader.Source[int]{
				"a": loader.Range(0, 3),
				"b": loader.Range(0, 9),
			}),
			mode:     combine.MaxSizeCycle,
			expected: 9,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := combine.LengthOf(tt.sources, tt.mode)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestLengthOf_InvalidMode(t *testing.T) {
	_, err := combine.LengthOf(loader.One[int](loader.Range(0, 1)), combine.Mode("sum"))
	if !loaderrors.IsConfiguration(err) {
		t.Errorf("expected configuration error, got %v", err)
	}
}

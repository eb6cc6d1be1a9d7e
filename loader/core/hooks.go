package core

import (
	"context"
)

// PassInfo identifies one pass over a combined loader.
type PassInfo struct {
	ID     string // unique per pass
	Mode   string // combination mode of the loader
	Length Length // number of steps the loader reports for a full pass
}

// Hooks holds observation callbacks for combined-loader passes.
// All fields are optional - nil means no observation for that event.
// Hooks are invoked synchronously from Next, so they should be fast.
type Hooks struct {
	OnPassStart func(PassInfo)                          // fresh iteration state created
	OnBatch     func(pass PassInfo, step int)            // aggregated item delivered; step counts from 1
	OnRestart   func(pass PassInfo, leaf string, n int) // a cycled leaf restarted its source for the n-th time
	OnError     func(pass PassInfo, err error)          // a leaf failed with something other than exhaustion
	OnPassEnd   func(pass PassInfo, steps int)          // pass exhausted or closed
}

// hooksKey is unexported to prevent collisions with user context keys.
type hooksKey struct{}

// HookSet holds multiple hook sets for FIFO invocation.
type HookSet struct {
	hookSets []*Hooks
}

// WithHooks attaches hooks to the context.
// Multiple calls compose in FIFO order - hooks from earlier
// calls are invoked before hooks from later calls.
func WithHooks(ctx context.Context, hooks Hooks) context.Context {
	if ctx == nil {
		panic("nil context")
	}
	set := HooksFrom(ctx).With(hooks)
	return context.WithValue(ctx, hooksKey{}, set)
}

// HooksFrom returns the hooks attached to ctx. The result is never nil.
func HooksFrom(ctx context.Context) *HookSet {
	if ctx != nil {
		if s, ok := ctx.Value(hooksKey{}).(*HookSet); ok {
			return s
		}
	}
	return &HookSet{}
}

// With returns a new set holding the receiver's hooks followed by more.
// The receiver is left untouched.
func (s *HookSet) With(more ...Hooks) *HookSet {
	next := &HookSet{hookSets: make([]*Hooks, 0, len(s.hookSets)+len(more))}
	next.hookSets = append(next.hookSets, s.hookSets...)
	for i := range more {
		h := more[i]
		next.hookSets = append(next.hookSets, &h)
	}
	return next
}

// Merge returns a set with the hooks of s followed by those of other.
func (s *HookSet) Merge(other *HookSet) *HookSet {
	if other == nil || len(other.hookSets) == 0 {
		return s
	}
	next := &HookSet{hookSets: make([]*Hooks, 0, len(s.hookSets)+len(other.hookSets))}
	next.hookSets = append(next.hookSets, s.hookSets...)
	next.hookSets = append(next.hookSets, other.hookSets...)
	return next
}

// Len returns the number of registered hook sets.
func (s *HookSet) Len() int {
	return len(s.hookSets)
}

func (s *HookSet) PassStart(p PassInfo) {
	for _, h := range s.hookSets {
		if h.OnPassStart != nil {
			h.OnPassStart(p)
		}
	}
}

func (s *HookSet) Batch(p PassInfo, step int) {
	for _, h := range s.hookSets {
		if h.OnBatch != nil {
			h.OnBatch(p, step)
		}
	}
}

func (s *HookSet) Restart(p PassInfo, leaf string, n int) {
	for _, h := range s.hookSets {
		if h.OnRestart != nil {
			h.OnRestart(p, leaf, n)
		}
	}
}

func (s *HookSet) Error(p PassInfo, err error) {
	for _, h := range s.hookSets {
		if h.OnError != nil {
			h.OnError(p, err)
		}
	}
}

func (s *HookSet) PassEnd(p PassInfo, steps int) {
	for _, h := range s.hookSets {
		if h.OnPassEnd != nil {
			h.OnPassEnd(p, steps)
		}
	}
}

// SafeHooks wraps every callback in hooks with panic recovery.
// If panicHandler is nil, panics are silently recovered.
func SafeHooks(hooks Hooks, panicHandler func(any)) Hooks {
	if panicHandler == nil {
		panicHandler = func(any) {}
	}
	guard := func() {
		if r := recover(); r != nil {
			panicHandler(r)
		}
	}

	var safe Hooks
	if fn := hooks.OnPassStart; fn != nil {
		safe.OnPassStart = func(p PassInfo) {
			defer guard()
			fn(p)
		}
	}
	if fn := hooks.OnBatch; fn != nil {
		safe.OnBatch = func(p PassInfo, step int) {
			defer guard()
			fn(p, step)
		}
	}
	if fn := hooks.OnRestart; fn != nil {
		safe.OnRestart = func(p PassInfo, leaf string, n int) {
			defer guard()
			fn(p, leaf, n)
		}
	}
	if fn := hooks.OnError; fn != nil {
		safe.OnError = func(p PassInfo, err error) {
			defer guard()
			fn(p, err)
		}
	}
	if fn := hooks.OnPassEnd; fn != nil {
		safe.OnPassEnd = func(p PassInfo, steps int) {
			defer guard()
			fn(p, steps)
		}
	}
	return safe
}

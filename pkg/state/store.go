package state

import (
	"context"
	"io"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowlens/pkg/flow"
	"github.com/matzehuels/flowlens/pkg/rows"
)

// Command turns one State into the next.
type Command func(context.Context, *State) (*State, error)

// Store is the single mutable cell around a State. Reads are lock-free;
// commands run one at a time and the new State is published to subscribers
// only after it has been fully built and swapped in.
type Store struct {
	cur    atomic.Pointer[State]
	mu     sync.Mutex
	subs   map[int]func(*State)
	nextID int
	logger *log.Logger
}

// NewStore wraps initial. A nil logger discards output.
func NewStore(initial *State, logger *log.Logger) *Store {
	if initial == nil {
		initial = New()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	st := &Store{subs: make(map[int]func(*State)), logger: logger}
	st.cur.Store(initial)
	return st
}

// Current returns the latest State.
func (st *Store) Current() *State { return st.cur.Load() }

// Subscribe registers fn to receive every new State. fn runs on the
// goroutine that applied the command and must not call back into the
// Store. The returned function unsubscribes.
func (st *Store) Subscribe(fn func(*State)) (cancel func()) {
	st.mu.Lock()
	defer st.mu.Unlock()
	id := st.nextID
	st.nextID++
	st.subs[id] = fn
	return func() {
		st.mu.Lock()
		defer st.mu.Unlock()
		delete(st.subs, id)
	}
}

// Apply runs cmd against the current State. On error the current State is
// kept and nothing is published.
func (st *Store) Apply(ctx context.Context, cmd Command) (*State, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	prev := st.cur.Load()
	next, err := cmd(ctx, prev)
	if err != nil {
		st.logger.Debug("command rejected", "error", err)
		return prev, err
	}
	if next == prev {
		return prev, nil
	}
	st.cur.Store(next)
	st.logger.Debug("state updated",
		"version", next.Version(),
		"rows", next.Dataset().Len(),
		"edges", len(next.Graph().Edges()),
		"active", next.Active())

	for _, fn := range st.subs {
		fn(next)
	}
	return next, nil
}

// LoadRows applies [State.LoadRows].
func (st *Store) LoadRows(ctx context.Context, ds rows.Dataset) (*State, error) {
	return st.Apply(ctx, func(ctx context.Context, s *State) (*State, error) {
		return s.LoadRows(ctx, ds)
	})
}

// SetColumnMapping applies [State.SetColumnMapping].
func (st *Store) SetColumnMapping(ctx context.Context, m flow.Mapping) (*State, error) {
	return st.Apply(ctx, func(ctx context.Context, s *State) (*State, error) {
		return s.SetColumnMapping(ctx, m)
	})
}

// SetViewParams applies [State.SetViewParams].
func (st *Store) SetViewParams(ctx context.Context, view ViewID, p Params) (*State, error) {
	return st.Apply(ctx, func(ctx context.Context, s *State) (*State, error) {
		return s.SetViewParams(ctx, view, p)
	})
}

// SetActiveView applies [State.SetActiveView].
func (st *Store) SetActiveView(ctx context.Context, view ViewID) (*State, error) {
	return st.Apply(ctx, func(_ context.Context, s *State) (*State, error) {
		return s.SetActiveView(view)
	})
}

// EnsureProjection applies [State.EnsureProjection] and returns the
// projection of view.
func (st *Store) EnsureProjection(ctx context.Context, view ViewID) (*Projection, error) {
	s, err := st.Apply(ctx, func(ctx context.Context, s *State) (*State, error) {
		return s.EnsureProjection(ctx, view)
	})
	if err != nil {
		return nil, err
	}
	p, _ := s.Projection(view)
	return p, nil
}

package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/flowlens/pkg/flow"
	"github.com/matzehuels/flowlens/pkg/rows"
	"github.com/matzehuels/flowlens/pkg/state"
)

func newStore(t *testing.T, path string) *state.Store {
	t.Helper()
	ds, err := rows.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	s := state.New(state.WithMapping(flow.Mapping{Origin: "from", Destination: "to"}))
	st := state.NewStore(s, nil)
	if _, err := st.LoadRows(context.Background(), ds); err != nil {
		t.Fatal(err)
	}
	return st
}

type reload struct {
	s   *state.State
	err error
}

func TestWatcherReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trips.csv")
	if err := os.WriteFile(path, []byte("from,to\nA,B\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	st := newStore(t, path)

	reloads := make(chan reload, 16)
	w := New(path, st, Options{
		Debounce: 10 * time.Millisecond,
		OnReload: func(s *state.State, err error) { reloads <- reload{s, err} },
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	defer func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("Run = %v", err)
		}
	}()

	// The watch is set up asynchronously; keep writing until a reload lands.
	deadline := time.After(5 * time.Second)
	for {
		if err := os.WriteFile(path, []byte("from,to\nA,B\nB,C\nC,A\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		select {
		case r := <-reloads:
			if r.err != nil {
				t.Fatalf("reload error: %v", r.err)
			}
			if got := len(r.s.Graph().Edges()); got != 3 {
				t.Errorf("edges after reload = %d, want 3", got)
			}
			if st.Current() != r.s {
				t.Error("store should hold the reloaded state")
			}
			return
		case <-time.After(100 * time.Millisecond):
		case <-deadline:
			t.Fatal("no reload after writing the file")
		}
	}
}

func TestWatcherKeepsStateOnLoadError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trips.csv")
	if err := os.WriteFile(path, []byte("from,to\nA,B\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	st := newStore(t, path)
	before := st.Current()

	boom := errors.New("boom")
	reloads := make(chan reload, 16)
	w := New(path, st, Options{
		Debounce: 10 * time.Millisecond,
		Load:     func(context.Context, string) (rows.Dataset, error) { return rows.Dataset{}, boom },
		OnReload: func(s *state.State, err error) { reloads <- reload{s, err} },
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	deadline := time.After(5 * time.Second)
	for {
		if err := os.WriteFile(path, []byte("from,to\nX,Y\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		select {
		case r := <-reloads:
			if !errors.Is(r.err, boom) {
				t.Errorf("reload error = %v, want boom", r.err)
			}
			if st.Current() != before {
				t.Error("store changed after a failed reload")
			}
			return
		case <-time.After(100 * time.Millisecond):
		case <-deadline:
			t.Fatal("no reload attempt after writing the file")
		}
	}
}

func TestWatcherMissingDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "trips.csv")
	w := New(path, state.NewStore(nil, nil), Options{})
	if err := w.Run(context.Background()); err == nil {
		t.Error("Run should fail when the directory does not exist")
	}
}

package store

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestDispatchSingleHandlerReturnsResult(t *testing.T) {
	s, _ := newTestStore(t, &Module{
		State:     State{"a": 1},
		Mutations: map[string]Mutation{"TEST": addMutation("a")},
		Actions: map[string]Action{
			"add": func(_ context.Context, ac *ActionContext, payload any) (any, error) {
				if err := ac.Commit("TEST", payload); err != nil {
					return nil, err
				}
				return ac.State()["a"], nil
			},
		},
	})

	got, err := s.Dispatch(context.Background(), "add", 4)
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if got != 5 {
		t.Fatalf("expected 5, got %v", got)
	}
}

func TestDispatchUnknownResolvesEmpty(t *testing.T) {
	s, diagnostics := newTestStore(t, &Module{State: State{"a": 1}})

	got, err := s.Dispatch(context.Background(), "nonexistent", nil)
	if err != nil || got != nil {
		t.Fatalf("expected (nil, nil), got (%v, %v)", got, err)
	}
	if !diagnostics.has(DiagnosticUnknownAction) {
		t.Fatalf("expected unknown action diagnostic, got %v", diagnostics.kinds())
	}
	if s.State()["a"] != 1 {
		t.Fatalf("expected state untouched")
	}
}

func TestDispatchNilContext(t *testing.T) {
	s, _ := newTestStore(t, &Module{
		Actions: map[string]Action{
			"ctx": func(ctx context.Context, _ *ActionContext, _ any) (any, error) {
				return ctx != nil, nil
			},
		},
	})
	var ctx context.Context
	got, err := s.Dispatch(ctx, "ctx", nil)
	if err != nil || got != true {
		t.Fatalf("expected background context, got (%v, %v)", got, err)
	}
}

func siblingActions(first, second Action) *Module {
	return &Module{
		Modules: map[string]*Module{
			"first":  {Actions: map[string]Action{"X": first}},
			"second": {Actions: map[string]Action{"X": second}},
		},
	}
}

func TestDispatchFanOutOrdersByRegistration(t *testing.T) {
	s, _ := newTestStore(t, siblingActions(
		func(context.Context, *ActionContext, any) (any, error) {
			time.Sleep(10 * time.Millisecond)
			return 1, nil
		},
		func(context.Context, *ActionContext, any) (any, error) {
			time.Sleep(time.Millisecond)
			return 2, nil
		},
	))

	got, err := s.Dispatch(context.Background(), "X", nil)
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if !reflect.DeepEqual([]any{1, 2}, got) {
		t.Fatalf("expected [1 2], got %v", got)
	}
}

func TestDispatchFanOutFirstFailureWins(t *testing.T) {
	boom := errors.New("boom")
	release := make(chan struct{})
	var finished sync.WaitGroup
	finished.Add(1)

	s, _ := newTestStore(t, siblingActions(
		func(context.Context, *ActionContext, any) (any, error) {
			defer finished.Done()
			<-release
			return 1, nil
		},
		func(context.Context, *ActionContext, any) (any, error) {
			return nil, boom
		},
	))

	got, err := s.Dispatch(context.Background(), "X", nil)
	if !errors.Is(err, boom) || got != nil {
		t.Fatalf("expected boom without waiting for straggler, got (%v, %v)", got, err)
	}

	close(release)
	finished.Wait()
}

func TestDispatchFanOutRecoversPanics(t *testing.T) {
	s, _ := newTestStore(t, siblingActions(
		func(context.Context, *ActionContext, any) (any, error) { panic("kaboom") },
		func(context.Context, *ActionContext, any) (any, error) { return 2, nil },
	))

	_, err := s.Dispatch(context.Background(), "X", nil)
	if !errors.Is(err, ErrActionPanic) {
		t.Fatalf("expected ErrActionPanic, got %v", err)
	}
}

func TestActionSubscribers(t *testing.T) {
	boom := errors.New("boom")
	s, _ := newTestStore(t, &Module{
		State: State{"a": 1},
		Actions: map[string]Action{
			"ok":   func(context.Context, *ActionContext, any) (any, error) { return "done", nil },
			"fail": func(context.Context, *ActionContext, any) (any, error) { return nil, boom },
		},
	})

	var events []string
	var failure error
	s.SubscribeAction(ActionSubscriber{
		Before: func(action Record, state State) {
			events = append(events, "before:"+action.Type)
			if state["a"] != 1 {
				t.Errorf("expected root state in subscriber")
			}
		},
		After: func(action Record, _ State) { events = append(events, "after:"+action.Type) },
		Error: func(action Record, _ State, err error) {
			events = append(events, "error:"+action.Type)
			failure = err
		},
	})

	if _, err := s.Dispatch(context.Background(), "ok", nil); err != nil {
		t.Fatalf("dispatch ok: %v", err)
	}
	if _, err := s.Dispatch(context.Background(), "fail", nil); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	want := []string{"before:ok", "after:ok", "before:fail", "error:fail"}
	if !reflect.DeepEqual(want, events) {
		t.Fatalf("expected %v, got %v", want, events)
	}
	if !errors.Is(failure, boom) {
		t.Fatalf("expected error subscriber to receive boom, got %v", failure)
	}
}

func TestSubscribeActionIgnoresEmptySubscriber(t *testing.T) {
	s, _ := newTestStore(t, &Module{})
	unsubscribe := s.SubscribeAction(ActionSubscriber{})
	unsubscribe()
	if len(s.actionSubscribers) != 0 {
		t.Fatalf("expected no subscriber registered")
	}
}

func TestActionContextAddressing(t *testing.T) {
	var rootLog []any
	s, diagnostics := newTestStore(t, &Module{
		Mutations: map[string]Mutation{
			"log": func(_ State, payload any) error {
				rootLog = append(rootLog, payload)
				return nil
			},
		},
		Actions: map[string]Action{
			"ping": func(context.Context, *ActionContext, any) (any, error) { return "root-pong", nil },
		},
		Modules: map[string]*Module{
			"cart": {
				Namespaced: true,
				State:      State{"items": []any{}},
				Mutations: map[string]Mutation{
					"add": func(state State, payload any) error {
						state["items"] = append(state["items"].([]any), payload)
						return nil
					},
				},
				Actions: map[string]Action{
					"ping": func(context.Context, *ActionContext, any) (any, error) { return "cart-pong", nil },
					"checkout": func(ctx context.Context, ac *ActionContext, payload any) (any, error) {
						if err := ac.Commit("add", payload); err != nil {
							return nil, err
						}
						if err := ac.Commit("log", "checkout", WithRoot()); err != nil {
							return nil, err
						}
						if err := ac.Commit("missing", nil); err != nil {
							return nil, err
						}
						local, err := ac.Dispatch(ctx, "ping", nil)
						if err != nil {
							return nil, err
						}
						root, err := ac.Dispatch(ctx, "ping", nil, WithRoot())
						if err != nil {
							return nil, err
						}
						return []any{ac.Namespace(), local, root}, nil
					},
				},
			},
		},
	})

	got, err := s.Dispatch(context.Background(), "cart/checkout", "apple")
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if !reflect.DeepEqual([]any{"cart/", "cart-pong", "root-pong"}, got) {
		t.Fatalf("unexpected result %v", got)
	}
	if items := s.State()["cart"].(State)["items"]; !reflect.DeepEqual([]any{"apple"}, items) {
		t.Fatalf("expected local commit, got %v", items)
	}
	if !reflect.DeepEqual([]any{"checkout"}, rootLog) {
		t.Fatalf("expected root commit, got %v", rootLog)
	}
	if !diagnostics.has(DiagnosticUnknownLocalMutation) {
		t.Fatalf("expected unknown local mutation diagnostic, got %v", diagnostics.kinds())
	}
}

func TestActionContextNonNamespacedSharesRoot(t *testing.T) {
	s, _ := newTestStore(t, &Module{
		State:     State{"a": 0},
		Mutations: map[string]Mutation{"TEST": addMutation("a")},
		Modules: map[string]*Module{
			"plain": {
				Actions: map[string]Action{
					"run": func(_ context.Context, ac *ActionContext, _ any) (any, error) {
						return ac.Path(), ac.Commit("TEST", 2)
					},
				},
			},
		},
	})

	path, err := s.Dispatch(context.Background(), "run", nil)
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if !reflect.DeepEqual([]string{"plain"}, path) {
		t.Fatalf("expected module path, got %v", path)
	}
	if s.State()["a"] != 2 {
		t.Fatalf("expected root mutation from non-namespaced module, got %v", s.State()["a"])
	}
}

func TestDispatchInterleavesWithCommits(t *testing.T) {
	started := make(chan struct{})
	resume := make(chan struct{})
	s, _ := newTestStore(t, &Module{
		State:     State{"a": 0},
		Mutations: map[string]Mutation{"TEST": addMutation("a")},
		Actions: map[string]Action{
			"slow": func(_ context.Context, ac *ActionContext, _ any) (any, error) {
				close(started)
				<-resume
				return ac.RootState()["a"], nil
			},
		},
	})

	result := make(chan any, 1)
	go func() {
		value, _ := s.Dispatch(context.Background(), "slow", nil)
		result <- value
	}()

	<-started
	if err := s.Commit("TEST", 7); err != nil {
		t.Fatalf("commit while action suspended: %v", err)
	}
	close(resume)
	if got := <-result; got != 7 {
		t.Fatalf("expected action to observe interleaved commit, got %v", got)
	}
}

func TestDispatchFanOutReadsCopies(t *testing.T) {
	const rounds = 200
	s, _ := newTestStore(t, &Module{
		State:     State{"count": 0},
		Mutations: map[string]Mutation{"inc": addMutation("count")},
		Getters: map[string]Getter{
			"count": func(state State, _ Getters, _ State, _ Getters) any { return state["count"] },
		},
		Modules: map[string]*Module{
			"reader": {Actions: map[string]Action{
				"X": func(_ context.Context, ac *ActionContext, _ any) (any, error) {
					for range rounds {
						state := ac.RootState()
						state["count"] = -1
						local := ac.State()
						local["scratch"] = true
						_ = ac.Getters().Get("count")
					}
					return nil, nil
				},
			}},
			"writer": {Actions: map[string]Action{
				"X": func(_ context.Context, ac *ActionContext, _ any) (any, error) {
					for range rounds {
						if err := ac.Commit("inc", 1); err != nil {
							return nil, err
						}
					}
					return rounds, nil
				},
			}},
		},
	})

	var notified atomic.Int64
	s.Subscribe(func(_ Record, state State) {
		notified.Add(1)
		state["count"] = -1
	})

	got, err := s.Dispatch(context.Background(), "X", nil)
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if !reflect.DeepEqual([]any{nil, rounds}, got) {
		t.Fatalf("unexpected results %v", got)
	}
	if notified.Load() != rounds {
		t.Fatalf("expected %d notifications, got %d", rounds, notified.Load())
	}
	if s.State()["count"] != rounds {
		t.Fatalf("expected writes to copies to stay local, got %v", s.State()["count"])
	}
	if _, leaked := s.State()["reader"].(State)["scratch"]; leaked {
		t.Fatalf("expected module state copy to stay local")
	}
}

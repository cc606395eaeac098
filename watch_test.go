package store

import (
	"math"
	"reflect"
	"testing"
)

type watchCall struct {
	value, old any
}

func TestWatchCallsOnChange(t *testing.T) {
	s, _ := newTestStore(t, subscribeRoot())

	var calls []watchCall
	stop := s.Watch(func(state State, _ Getters) any {
		return state["n"]
	}, func(value, old any) {
		calls = append(calls, watchCall{value, old})
	})

	if err := s.Commit("inc", 2); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if err := s.Commit("inc", 0); err != nil {
		t.Fatalf("commit: %v", err)
	}
	s.ReplaceState(State{"n": 9})

	want := []watchCall{{2, 0}, {9, 2}}
	if !reflect.DeepEqual(want, calls) {
		t.Fatalf("expected %v, got %v", want, calls)
	}

	stop()
	if err := s.Commit("inc", 1); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if len(calls) != 2 {
		t.Fatalf("expected no calls after stop, got %v", calls)
	}
}

func TestWatchImmediate(t *testing.T) {
	s, _ := newTestStore(t, subscribeRoot())

	var calls []watchCall
	s.Watch(func(state State, _ Getters) any {
		return state["n"]
	}, func(value, old any) {
		calls = append(calls, watchCall{value, old})
	}, WithImmediate())

	if !reflect.DeepEqual([]watchCall{{0, nil}}, calls) {
		t.Fatalf("expected immediate call, got %v", calls)
	}
}

func TestWatchDetectsInPlaceChanges(t *testing.T) {
	s, _ := newTestStore(t, &Module{
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
				Getters: map[string]Getter{
					"count": func(state State, _ Getters, _ State, _ Getters) any { return len(state["items"].([]any)) },
				},
			},
		},
	})

	var whole, counts []any
	s.Watch(func(state State, _ Getters) any {
		return state["cart"]
	}, func(value, _ any) {
		whole = append(whole, value)
	})
	s.Watch(func(_ State, getters Getters) any {
		return getters.Get("cart/count")
	}, func(value, _ any) {
		counts = append(counts, value)
	})

	if err := s.Commit("cart/add", "apple"); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if len(whole) != 1 || !reflect.DeepEqual(State{"items": []any{"apple"}}, whole[0]) {
		t.Fatalf("expected watcher on module state, got %v", whole)
	}
	if !reflect.DeepEqual([]any{1}, counts) {
		t.Fatalf("expected getter watcher, got %v", counts)
	}
}

func TestWatchModuleRegistration(t *testing.T) {
	s, _ := newTestStore(t, &Module{})

	var present []any
	s.Watch(func(state State, _ Getters) any {
		_, ok := state["dyn"]
		return ok
	}, func(value, _ any) {
		present = append(present, value)
	})

	if err := s.RegisterModule([]string{"dyn"}, &Module{}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := s.UnregisterModule([]string{"dyn"}); err != nil {
		t.Fatalf("unregister: %v", err)
	}
	if !reflect.DeepEqual([]any{true, false}, present) {
		t.Fatalf("expected register and unregister observed, got %v", present)
	}
}

func TestWatchIgnoresNilArguments(t *testing.T) {
	s, _ := newTestStore(t, &Module{})
	s.Watch(nil, func(any, any) {})()
	s.Watch(func(State, Getters) any { return nil }, nil)()
	if len(s.watchers) != 0 {
		t.Fatalf("expected no watchers")
	}
}

func TestWatchIgnoresUnchangedNaN(t *testing.T) {
	s, _ := newTestStore(t, &Module{
		State:     State{"n": 0, "ratio": math.NaN()},
		Mutations: map[string]Mutation{"inc": addMutation("n")},
	})

	calls := 0
	s.Watch(func(state State, _ Getters) any {
		return state["ratio"]
	}, func(any, any) {
		calls++
	})

	for range 3 {
		if err := s.Commit("inc", 1); err != nil {
			t.Fatalf("commit: %v", err)
		}
	}
	if calls != 0 {
		t.Fatalf("expected no callback for an unchanged NaN, got %d", calls)
	}
}

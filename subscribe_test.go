package store

import (
	"context"
	"reflect"
	"testing"
)

func subscribeRoot() *Module {
	return &Module{
		State: State{"n": 0},
		Mutations: map[string]Mutation{
			"inc": addMutation("n"),
			"dec": func(state State, payload any) error {
				state["n"] = state["n"].(int) - payload.(int)
				return nil
			},
		},
		Actions: map[string]Action{
			"incAsync": func(_ context.Context, ac *ActionContext, payload any) (any, error) {
				return nil, ac.Commit("inc", payload)
			},
		},
	}
}

func TestSubscribeReceivesRecordAndState(t *testing.T) {
	s, _ := newTestStore(t, subscribeRoot())

	var records []Record
	var seen []any
	s.Subscribe(func(m Record, state State) {
		records = append(records, m)
		seen = append(seen, state["n"])
	})

	if err := s.Commit("inc", 2); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if err := s.Commit(Record{Type: "dec", Payload: 1}, nil); err != nil {
		t.Fatalf("commit: %v", err)
	}

	want := []Record{{Type: "inc", Payload: 2}, {Type: "dec", Payload: 1}}
	if !reflect.DeepEqual(want, records) || !reflect.DeepEqual([]any{2, 1}, seen) {
		t.Fatalf("unexpected notifications %v %v", records, seen)
	}
}

func TestSubscribeOrderAndPrepend(t *testing.T) {
	s, _ := newTestStore(t, subscribeRoot())

	var order []string
	s.Subscribe(func(Record, State) { order = append(order, "first") })
	s.Subscribe(func(Record, State) { order = append(order, "second") })
	s.Subscribe(func(Record, State) { order = append(order, "prepended") }, WithPrepend())

	if err := s.Commit("inc", 1); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if !reflect.DeepEqual([]string{"prepended", "first", "second"}, order) {
		t.Fatalf("unexpected order %v", order)
	}
}

func TestUnsubscribeDuringNotification(t *testing.T) {
	s, _ := newTestStore(t, subscribeRoot())

	var order []string
	var unsubscribeSecond func()
	s.Subscribe(func(Record, State) {
		order = append(order, "first")
		unsubscribeSecond()
		s.Subscribe(func(Record, State) { order = append(order, "late") })
	})
	unsubscribeSecond = s.Subscribe(func(Record, State) { order = append(order, "second") })

	if err := s.Commit("inc", 1); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if !reflect.DeepEqual([]string{"first"}, order) {
		t.Fatalf("expected removed subscriber skipped and late one deferred, got %v", order)
	}

	order = nil
	unsubscribeSecond()
	if err := s.Commit("dec", 1); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if !reflect.DeepEqual([]string{"first", "late"}, order) {
		t.Fatalf("expected late subscriber on the next pass, got %v", order)
	}
}

func TestSubscriberPanicIsContained(t *testing.T) {
	s, diagnostics := newTestStore(t, subscribeRoot())

	called := false
	s.Subscribe(func(Record, State) { panic("broken subscriber") })
	s.Subscribe(func(Record, State) { called = true })

	if err := s.Commit("inc", 1); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if !called {
		t.Fatalf("expected remaining subscribers notified")
	}
	if !diagnostics.has(DiagnosticSubscriber) {
		t.Fatalf("expected subscriber diagnostic, got %v", diagnostics.kinds())
	}
}

func TestSubscribeFilter(t *testing.T) {
	s, _ := newTestStore(t, subscribeRoot())

	var mutations []string
	s.Subscribe(func(m Record, _ State) {
		mutations = append(mutations, m.Type)
	}, WithFilter(`name == "inc" && payload > 1`))

	var actions []string
	s.SubscribeAction(ActionSubscriber{
		Before: func(a Record, _ State) { actions = append(actions, a.Type) },
	}, WithFilter(`name startsWith "inc"`))

	for _, call := range []struct {
		typ     string
		payload int
	}{{"inc", 1}, {"inc", 5}, {"dec", 3}} {
		if err := s.Commit(call.typ, call.payload); err != nil {
			t.Fatalf("commit: %v", err)
		}
	}
	if _, err := s.Dispatch(context.Background(), "incAsync", 2); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	if !reflect.DeepEqual([]string{"inc", "inc"}, mutations) {
		t.Fatalf("expected filtered mutations, got %v", mutations)
	}
	if !reflect.DeepEqual([]string{"incAsync"}, actions) {
		t.Fatalf("expected filtered actions, got %v", actions)
	}
}

func TestSubscribeFilterErrors(t *testing.T) {
	s, diagnostics := newTestStore(t, subscribeRoot())

	unsubscribe := s.Subscribe(func(Record, State) {
		t.Fatalf("subscriber with invalid filter must not run")
	}, WithFilter(`name ==`))
	unsubscribe()
	if !diagnostics.has(DiagnosticSubscriber) {
		t.Fatalf("expected diagnostic for invalid filter, got %v", diagnostics.kinds())
	}
	if len(s.subscribers) != 0 {
		t.Fatalf("expected no subscriber registered")
	}

	called := false
	s.Subscribe(func(Record, State) { called = true }, WithFilter(`payload`))
	if err := s.Commit("inc", 1); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if called {
		t.Fatalf("expected non-boolean filter to reject")
	}
}

func TestSubscribeFilterWithCEL(t *testing.T) {
	s, _ := newTestStore(t, subscribeRoot(), WithEvaluator(NewCELEvaluator()))

	var mutations []any
	s.Subscribe(func(m Record, _ State) {
		mutations = append(mutations, m.Payload)
	}, WithFilter(`name == "inc"`))

	if err := s.Commit("inc", 1); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if err := s.Commit("dec", 1); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if !reflect.DeepEqual([]any{1}, mutations) {
		t.Fatalf("expected CEL filter applied, got %v", mutations)
	}
}

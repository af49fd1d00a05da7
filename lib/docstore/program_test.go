package docstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
)

// fakeInterpreter is a minimal recording interpreter for testing the
// program combinators in isolation. It records the string form of every
// operation it executes and serves documents from a plain map.
type fakeInterpreter struct {
	calls []string
	docs  map[Key]Document
}

func newFakeInterpreter() *fakeInterpreter {
	return &fakeInterpreter{docs: map[Key]Document{}}
}

func (f *fakeInterpreter) record(op Operation) { f.calls = append(f.calls, op.String()) }

func (f *fakeInterpreter) GetDoc(_ context.Context, key Key) (Document, error) {
	f.record(GetDocOp{Key: key})
	doc, ok := f.docs[key]
	if !ok {
		return Document{}, NewNotFoundError(key)
	}
	return doc, nil
}

func (f *fakeInterpreter) CreateDoc(_ context.Context, key Key, value RawValue) (Document, error) {
	f.record(CreateDocOp{Key: key, Value: value})
	if _, ok := f.docs[key]; ok {
		return Document{}, NewExistsError(key)
	}
	doc := Document{Key: key, Version: 0, Value: value}
	f.docs[key] = doc
	return doc, nil
}

func (f *fakeInterpreter) UpdateDoc(_ context.Context, key Key, value RawValue, expected CommitVersion) (Document, error) {
	f.record(UpdateDocOp{Key: key, Value: value, Expected: expected})
	old, ok := f.docs[key]
	if !ok {
		return Document{}, NewNotFoundError(key)
	}
	if old.Version != expected {
		return Document{}, NewVersionMismatchError(key)
	}
	doc := Document{Key: key, Version: expected + 1, Value: value}
	f.docs[key] = doc
	return doc, nil
}

func (f *fakeInterpreter) RemoveKey(_ context.Context, key Key) error {
	f.record(RemoveKeyOp{Key: key})
	if _, ok := f.docs[key]; !ok {
		return NewNotFoundError(key)
	}
	delete(f.docs, key)
	return nil
}

func (f *fakeInterpreter) GetCounter(_ context.Context, key Key) (int64, error) {
	f.record(GetCounterOp{Key: key})
	return 0, nil
}

func (f *fakeInterpreter) IncrementCounter(_ context.Context, key Key, delta int64) (int64, error) {
	f.record(IncrementCounterOp{Key: key, Delta: delta})
	return delta, nil
}

func (f *fakeInterpreter) ScanKeys(_ context.Context, req ScanRequest) ([]Document, error) {
	f.record(ScanKeysOp{Req: req})
	return nil, nil
}

// --------------------------------------------------------------------------
// Combinator laws
// --------------------------------------------------------------------------

func TestConstructionPerformsNoIO(t *testing.T) {
	it := newFakeInterpreter()

	// Building and composing programs must not touch the interpreter
	p := AndThen(Create("k", RawValue("v")), func(d Document) Program[Document] {
		return Get(d.Key)
	})
	_ = Map(p, func(d Document) int { return len(d.Value) })

	if len(it.calls) != 0 {
		t.Fatalf("Program construction must perform no I/O, recorded %v", it.calls)
	}
}

func TestRunExecutesInScriptOrder(t *testing.T) {
	it := newFakeInterpreter()

	p := AndThen(Create("a", RawValue("1")), func(Document) Program[Document] {
		return Create("b", RawValue("2"))
	})
	p2 := AndThen(p, func(Document) Program[Unit] {
		return Remove("a")
	})

	if _, err := p2.Run(context.Background(), it); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	want := []string{`CreateDoc("a")`, `CreateDoc("b")`, `RemoveKey("a")`}
	if len(it.calls) != len(want) {
		t.Fatalf("Expected %d calls, got %v", len(want), it.calls)
	}
	for i := range want {
		if it.calls[i] != want[i] {
			t.Errorf("Call %d: expected %s, got %s", i, want[i], it.calls[i])
		}
	}
}

func TestShortCircuitLaw(t *testing.T) {
	it := newFakeInterpreter()

	continuationRan := false
	p := AndThen(Get("absent"), func(Document) Program[Document] {
		continuationRan = true
		return Fail[Document](NewGeneralError(fmt.Errorf("must never run")))
	})
	p2 := AndThen(p, func(Document) Program[int64] {
		continuationRan = true
		return GetCounter("unreached")
	})

	_, err := p2.Run(context.Background(), it)
	if !IsNotFound(err) {
		t.Errorf("Expected the first failure as final result, got %v", err)
	}
	if continuationRan {
		t.Errorf("Continuations must not run after a failure")
	}
	if len(it.calls) != 1 {
		t.Errorf("Expected exactly one backend call, got %v", it.calls)
	}
}

func TestPureIsNeutral(t *testing.T) {
	it := newFakeInterpreter()
	ctx := context.Background()

	// Left identity: Pure(v) andThen f == f(v)
	f := func(v int) Program[int] { return Pure(v * 2) }
	left, err := AndThen(Pure(21), f).Run(ctx, it)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	direct, _ := f(21).Run(ctx, it)
	if left != direct || left != 42 {
		t.Errorf("Left identity violated: %d vs %d", left, direct)
	}

	// Right identity: p andThen Pure == p
	p := IncrCounter("c", 7)
	viaPure, err := AndThen(p, func(v int64) Program[int64] { return Pure(v) }).Run(ctx, it)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	plain, _ := p.Run(ctx, it)
	if viaPure != plain {
		t.Errorf("Right identity violated: %d vs %d", viaPure, plain)
	}

	// Pure touches no backend
	if len(it.calls) != 2 { // only the two IncrCounter runs
		t.Errorf("Pure must not touch the backend: %v", it.calls)
	}
}

func TestAssociativity(t *testing.T) {
	ctx := context.Background()

	f := func(d Document) Program[Document] { return Update(d.Key, RawValue("f"), d.Version) }
	g := func(d Document) Program[Document] { return Get(d.Key) }

	// (p andThen f) andThen g
	it1 := newFakeInterpreter()
	leftAssoc := AndThen(AndThen(Create("k", RawValue("v")), f), g)
	v1, err1 := leftAssoc.Run(ctx, it1)

	// p andThen (x => f(x) andThen g)
	it2 := newFakeInterpreter()
	rightAssoc := AndThen(Create("k", RawValue("v")), func(d Document) Program[Document] {
		return AndThen(f(d), g)
	})
	v2, err2 := rightAssoc.Run(ctx, it2)

	if (err1 == nil) != (err2 == nil) {
		t.Fatalf("Associativity violated on errors: %v vs %v", err1, err2)
	}
	if v1.Version != v2.Version || !bytes.Equal(v1.Value, v2.Value) {
		t.Errorf("Associativity violated on values: %+v vs %+v", v1, v2)
	}
	if len(it1.calls) != len(it2.calls) {
		t.Errorf("Associativity violated on call sequences: %v vs %v", it1.calls, it2.calls)
	}
}

func TestFailInjectsSyntheticFailure(t *testing.T) {
	it := newFakeInterpreter()

	boom := NewGeneralError(fmt.Errorf("synthetic"))
	_, err := AndThen(Fail[int](boom), func(int) Program[int64] {
		return GetCounter("unreached")
	}).Run(context.Background(), it)

	if !errors.Is(err, boom) || !IsGeneral(err) {
		t.Errorf("Expected the injected failure, got %v", err)
	}
	if len(it.calls) != 0 {
		t.Errorf("Fail must not touch the backend: %v", it.calls)
	}
}

func TestMap(t *testing.T) {
	it := newFakeInterpreter()

	length, err := Map(Create("k", RawValue("hello")), func(d Document) int {
		return len(d.Value)
	}).Run(context.Background(), it)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if length != 5 {
		t.Errorf("Expected 5, got %d", length)
	}

	// Map preserves failures unchanged
	_, err = Map(Get("absent"), func(d Document) int { return 0 }).Run(context.Background(), it)
	if !IsNotFound(err) {
		t.Errorf("Expected ValueNotFound through Map, got %v", err)
	}
}

func TestProgramIsReusable(t *testing.T) {
	p := IncrCounter("c", 1)

	it := newFakeInterpreter()
	for i := 0; i < 3; i++ {
		if _, err := p.Run(context.Background(), it); err != nil {
			t.Fatalf("Run %d failed: %v", i, err)
		}
	}
	if len(it.calls) != 3 {
		t.Errorf("Expected 3 executions of the same Program, got %v", it.calls)
	}
}

func TestRunAsync(t *testing.T) {
	it := newFakeInterpreter()

	outcome := <-Create("k", RawValue("v")).RunAsync(context.Background(), it)
	if outcome.Err != nil {
		t.Fatalf("RunAsync failed: %v", outcome.Err)
	}
	if outcome.Value.Key != "k" {
		t.Errorf("Expected document for k, got %+v", outcome.Value)
	}

	outcome = <-Create("k", RawValue("v")).RunAsync(context.Background(), it)
	if !IsExists(outcome.Err) {
		t.Errorf("Expected ValueExists on second async create, got %v", outcome.Err)
	}
}

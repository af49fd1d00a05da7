package testing

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/ValentinKolb/dDoc/lib/docstore"
)

// InterpreterFactory creates a fresh, empty interpreter instance for one
// test case. Instances must not share state.
type InterpreterFactory func() docstore.IInterpreter

// RunInterpreterTests runs the behavioral test suite every IInterpreter
// implementation must pass. Running this suite against two interpreters is
// what establishes their cross-interpreter equivalence: same success
// shapes, same error kinds, for every operation and precondition state.
func RunInterpreterTests(t *testing.T, name string, factory InterpreterFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("RoundTrip", func(t *testing.T) {
			testRoundTrip(t, factory())
		})

		t.Run("IdempotentRead", func(t *testing.T) {
			testIdempotentRead(t, factory())
		})

		t.Run("OptimisticConcurrency", func(t *testing.T) {
			testOptimisticConcurrency(t, factory())
		})

		t.Run("MissingKeyLaws", func(t *testing.T) {
			testMissingKeyLaws(t, factory())
		})

		t.Run("Counters", func(t *testing.T) {
			testCounters(t, factory())
		})

		t.Run("ScanOrderingPaging", func(t *testing.T) {
			testScanOrderingPaging(t, factory())
		})

		t.Run("ScanConsistencyModes", func(t *testing.T) {
			testScanConsistencyModes(t, factory())
		})

		t.Run("ShortCircuit", func(t *testing.T) {
			testShortCircuit(t, factory())
		})

		t.Run("RemoveThenCreate", func(t *testing.T) {
			testRemoveThenCreate(t, factory())
		})
	})
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testRoundTrip(t *testing.T, it docstore.IInterpreter) {
	ctx := context.Background()

	key := docstore.Key("round-trip")
	value := docstore.RawValue(`{"name":"test"}`)

	created, err := docstore.Create(key, value).Run(ctx, it)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.Key != key {
		t.Errorf("Expected key %q, got %q", key, created.Key)
	}
	if !bytes.Equal(created.Value, value) {
		t.Errorf("Expected value %s, got %s", value, created.Value)
	}

	got, err := docstore.Get(key).Run(ctx, it)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Key != key || !bytes.Equal(got.Value, value) {
		t.Errorf("Get returned wrong document: %+v", got)
	}
	if got.Version != created.Version {
		t.Errorf("Expected version %d from create, got %d", created.Version, got.Version)
	}
}

func testIdempotentRead(t *testing.T, it docstore.IInterpreter) {
	ctx := context.Background()

	key := docstore.Key("idempotent")
	if _, err := docstore.Create(key, docstore.RawValue("payload")).Run(ctx, it); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	first, err := docstore.Get(key).Run(ctx, it)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	for i := 0; i < 3; i++ {
		again, err := docstore.Get(key).Run(ctx, it)
		if err != nil {
			t.Fatalf("Get %d failed: %v", i, err)
		}
		if again.Key != first.Key || again.Version != first.Version || !bytes.Equal(again.Value, first.Value) {
			t.Errorf("Read %d differs: %+v vs %+v", i, again, first)
		}
	}
}

func testOptimisticConcurrency(t *testing.T, it docstore.IInterpreter) {
	ctx := context.Background()

	key := docstore.Key("cas")
	created, err := docstore.Create(key, docstore.RawValue("v1")).Run(ctx, it)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	updated, err := docstore.Update(key, docstore.RawValue("v2"), created.Version).Run(ctx, it)
	if err != nil {
		t.Fatalf("Update with fresh version failed: %v", err)
	}
	if updated.Version == created.Version {
		t.Errorf("Update must return a new version, still %d", updated.Version)
	}

	// Reusing the old token must lose
	_, err = docstore.Update(key, docstore.RawValue("v3"), created.Version).Run(ctx, it)
	if !docstore.IsVersionMismatch(err) {
		t.Errorf("Expected CommitVersionMismatch reusing stale token, got %v", err)
	}

	// The winning value survived
	got, err := docstore.Get(key).Run(ctx, it)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !bytes.Equal(got.Value, []byte("v2")) {
		t.Errorf("Expected v2 to survive, got %s", got.Value)
	}
}

func testMissingKeyLaws(t *testing.T, it docstore.IInterpreter) {
	ctx := context.Background()

	missing := docstore.Key("missing")

	if _, err := docstore.Get(missing).Run(ctx, it); !docstore.IsNotFound(err) {
		t.Errorf("Expected ValueNotFound on get, got %v", err)
	}
	if _, err := docstore.Remove(missing).Run(ctx, it); !docstore.IsNotFound(err) {
		t.Errorf("Expected ValueNotFound on remove, got %v", err)
	}
	if _, err := docstore.Update(missing, docstore.RawValue("v"), 0).Run(ctx, it); !docstore.IsNotFound(err) {
		t.Errorf("Expected ValueNotFound on update, got %v", err)
	}

	if _, err := docstore.Create(missing, docstore.RawValue("v")).Run(ctx, it); err != nil {
		t.Fatalf("First create failed: %v", err)
	}
	if _, err := docstore.Create(missing, docstore.RawValue("v")).Run(ctx, it); !docstore.IsExists(err) {
		t.Errorf("Expected ValueExists on second create, got %v", err)
	}
}

func testCounters(t *testing.T, it docstore.IInterpreter) {
	ctx := context.Background()

	key := docstore.Key("visits")

	// Reading a counter that has never been written yields zero
	val, err := docstore.GetCounter(key).Run(ctx, it)
	if err != nil {
		t.Fatalf("GetCounter failed: %v", err)
	}
	if val != 0 {
		t.Errorf("Expected absent counter to read 0, got %d", val)
	}

	// Creation on first increment
	val, err = docstore.IncrCounter(key, 7).Run(ctx, it)
	if err != nil {
		t.Fatalf("IncrCounter failed: %v", err)
	}
	if val != 7 {
		t.Errorf("Expected first increment by 7 to yield 7, got %d", val)
	}

	val, err = docstore.IncrCounter(key, 3).Run(ctx, it)
	if err != nil {
		t.Fatalf("IncrCounter failed: %v", err)
	}
	if val != 10 {
		t.Errorf("Expected 10, got %d", val)
	}

	val, err = docstore.GetCounter(key).Run(ctx, it)
	if err != nil {
		t.Fatalf("GetCounter failed: %v", err)
	}
	if val != 10 {
		t.Errorf("Expected counter read 10, got %d", val)
	}
}

func testScanOrderingPaging(t *testing.T, it docstore.IInterpreter) {
	ctx := context.Background()

	for _, key := range []string{"a3", "a1", "a5", "a2", "a4"} {
		if _, err := docstore.Create(docstore.Key(key), docstore.RawValue("value-"+key)).Run(ctx, it); err != nil {
			t.Fatalf("Create %s failed: %v", key, err)
		}
	}

	expectKeys := func(docs []docstore.Document, err error, want ...string) {
		t.Helper()
		if err != nil {
			t.Fatalf("Scan failed: %v", err)
		}
		if len(docs) != len(want) {
			t.Fatalf("Expected %d rows %v, got %d", len(want), want, len(docs))
		}
		for i, doc := range docs {
			if string(doc.Key) != want[i] {
				t.Errorf("Expected row %d to be %s, got %s", i, want[i], doc.Key)
			}
			if !bytes.Equal(doc.Value, []byte("value-"+want[i])) {
				t.Errorf("Expected row %d to carry its payload, got %s", i, doc.Value)
			}
		}
	}

	docs, err := docstore.Scan(docstore.ScanRequest{
		Cmp: docstore.CmpGT, Pivot: "a2", Limit: 2, Offset: 0, Consistency: docstore.AllowStale,
	}).Run(ctx, it)
	expectKeys(docs, err, "a3", "a4")

	docs, err = docstore.Scan(docstore.ScanRequest{
		Cmp: docstore.CmpGT, Pivot: "a2", Limit: 2, Offset: 1, Consistency: docstore.AllowStale,
	}).Run(ctx, it)
	expectKeys(docs, err, "a4", "a5")

	docs, err = docstore.Scan(docstore.ScanRequest{
		Cmp: docstore.CmpLTE, Pivot: "a2", Limit: 10, Consistency: docstore.AllowStale,
	}).Run(ctx, it)
	expectKeys(docs, err, "a1", "a2")
}

func testScanConsistencyModes(t *testing.T, it docstore.IInterpreter) {
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		key := docstore.Key(fmt.Sprintf("c%d", i))
		if _, err := docstore.Create(key, docstore.RawValue("v")).Run(ctx, it); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	// A strict scan issued after all writes completed must see every row
	docs, err := docstore.Scan(docstore.ScanRequest{
		Cmp: docstore.CmpGTE, Pivot: "c0", Limit: 10, Consistency: docstore.EnsureConsistency,
	}).Run(ctx, it)
	if err != nil {
		t.Fatalf("Strict scan failed: %v", err)
	}
	if len(docs) != 5 {
		t.Errorf("Strict scan must not miss completed writes, got %d rows", len(docs))
	}
}

func testShortCircuit(t *testing.T, it docstore.IInterpreter) {
	ctx := context.Background()

	var sideEffects int

	// The first step fails (get on a missing key); neither the synthetic
	// failing step nor the final step may run.
	prog := docstore.AndThen(
		docstore.Get(docstore.Key("absent")),
		func(docstore.Document) docstore.Program[docstore.Document] {
			sideEffects++
			return docstore.Fail[docstore.Document](docstore.NewGeneralError(fmt.Errorf("must never run")))
		},
	)
	final := docstore.AndThen(prog, func(docstore.Document) docstore.Program[int64] {
		sideEffects++
		return docstore.GetCounter(docstore.Key("unreached"))
	})

	_, err := final.Run(ctx, it)
	if !docstore.IsNotFound(err) {
		t.Errorf("Expected the first failure to win, got %v", err)
	}
	if sideEffects != 0 {
		t.Errorf("Expected no continuation to run after a failure, got %d", sideEffects)
	}
}

func testRemoveThenCreate(t *testing.T, it docstore.IInterpreter) {
	ctx := context.Background()

	key := docstore.Key("recycled")

	// Full lifecycle as one composed Program
	prog := docstore.AndThen(
		docstore.Create(key, docstore.RawValue("v1")),
		func(docstore.Document) docstore.Program[docstore.Unit] {
			return docstore.Remove(key)
		},
	)
	recreate := docstore.AndThen(prog, func(docstore.Unit) docstore.Program[docstore.Document] {
		return docstore.Create(key, docstore.RawValue("v2"))
	})

	doc, err := recreate.Run(ctx, it)
	if err != nil {
		t.Fatalf("Remove/recreate program failed: %v", err)
	}
	if !bytes.Equal(doc.Value, []byte("v2")) {
		t.Errorf("Expected recreated value v2, got %s", doc.Value)
	}

	if _, err := docstore.Get(key).Run(ctx, it); err != nil {
		t.Errorf("Expected recreated key to be readable, got %v", err)
	}
}

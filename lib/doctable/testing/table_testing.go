package testing

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/ValentinKolb/dDoc/lib/doctable"
)

// RunDocTableTests runs a comprehensive test suite for an IDocTable
// implementation. Every engine must pass this suite unchanged; the
// interpreters rely on these semantics being identical across engines.
func RunDocTableTests(t *testing.T, name string, factory doctable.Factory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Insert&Get", func(t *testing.T) {
			testInsertGet(t, factory())
		})

		t.Run("Replace", func(t *testing.T) {
			testReplace(t, factory())
		})

		t.Run("Remove", func(t *testing.T) {
			testRemove(t, factory())
		})

		t.Run("Counters", func(t *testing.T) {
			testCounters(t, factory())
		})

		t.Run("Scan", func(t *testing.T) {
			testScan(t, factory())
		})

		t.Run("SaveLoad", func(t *testing.T) {
			testSaveLoad(t, factory)
		})

		t.Run("EdgeCases", func(t *testing.T) {
			testEdgeCases(t, factory())
		})
	})
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testInsertGet(t *testing.T, table doctable.IDocTable) {
	defer table.Close()

	testKey := "test-key"
	testValue := []byte("test-value")

	entry, status := table.Insert(testKey, testValue)
	if status != doctable.StatusOK {
		t.Fatalf("Expected StatusOK on first insert, got %s", status)
	}
	if entry.Version != 0 {
		t.Errorf("Expected version 0 on first insert, got %d", entry.Version)
	}

	got, status := table.Get(testKey)
	if status != doctable.StatusOK {
		t.Fatalf("Expected StatusOK on get after insert, got %s", status)
	}
	if !bytes.Equal(got.Value, testValue) {
		t.Errorf("Expected value %s, got %s", testValue, got.Value)
	}
	if got.Version != entry.Version {
		t.Errorf("Expected version %d, got %d", entry.Version, got.Version)
	}

	// Duplicate insert must not change the stored entry
	_, status = table.Insert(testKey, []byte("other"))
	if status != doctable.StatusExists {
		t.Errorf("Expected StatusExists on duplicate insert, got %s", status)
	}
	got, _ = table.Get(testKey)
	if !bytes.Equal(got.Value, testValue) {
		t.Errorf("Duplicate insert must not overwrite, got %s", got.Value)
	}

	// Missing key
	_, status = table.Get("nonexistent-key")
	if status != doctable.StatusNotFound {
		t.Errorf("Expected StatusNotFound for missing key, got %s", status)
	}

	// Get must return a copy, not a reference to the stored value
	retrieved, _ := table.Get(testKey)
	retrieved.Value[0] = 'X'
	original, _ := table.Get(testKey)
	if bytes.Equal(retrieved.Value, original.Value) {
		t.Errorf("Get should return a copy, not a reference to the stored value")
	}
}

func testReplace(t *testing.T, table doctable.IDocTable) {
	defer table.Close()

	testKey := "replace-key"

	// Replace on a missing key
	_, status := table.Replace(testKey, []byte("v1"), 0)
	if status != doctable.StatusNotFound {
		t.Fatalf("Expected StatusNotFound replacing missing key, got %s", status)
	}
	if _, status := table.Get(testKey); status != doctable.StatusNotFound {
		t.Errorf("Failed replace must not create the key")
	}

	created, _ := table.Insert(testKey, []byte("v1"))

	// Replace with the correct version
	replaced, status := table.Replace(testKey, []byte("v2"), created.Version)
	if status != doctable.StatusOK {
		t.Fatalf("Expected StatusOK on replace with correct version, got %s", status)
	}
	if replaced.Version == created.Version {
		t.Errorf("Replace must assign a new version, still %d", replaced.Version)
	}

	// Replace with the stale version
	_, status = table.Replace(testKey, []byte("v3"), created.Version)
	if status != doctable.StatusVersionMismatch {
		t.Errorf("Expected StatusVersionMismatch on stale version, got %s", status)
	}
	got, _ := table.Get(testKey)
	if !bytes.Equal(got.Value, []byte("v2")) {
		t.Errorf("Stale replace must not change the value, got %s", got.Value)
	}

	// Version chain continues from the last successful write
	again, status := table.Replace(testKey, []byte("v3"), replaced.Version)
	if status != doctable.StatusOK {
		t.Fatalf("Expected StatusOK on replace with current version, got %s", status)
	}
	if again.Version == replaced.Version {
		t.Errorf("Replace must assign a new version, still %d", again.Version)
	}
}

func testRemove(t *testing.T, table doctable.IDocTable) {
	defer table.Close()

	testKey := "remove-key"

	if status := table.Remove(testKey); status != doctable.StatusNotFound {
		t.Errorf("Expected StatusNotFound removing missing key, got %s", status)
	}

	table.Insert(testKey, []byte("value"))

	if status := table.Remove(testKey); status != doctable.StatusOK {
		t.Errorf("Expected StatusOK removing existing key, got %s", status)
	}
	if _, status := table.Get(testKey); status != doctable.StatusNotFound {
		t.Errorf("Expected key to be gone after remove")
	}

	// A re-inserted key starts a fresh version chain
	entry, status := table.Insert(testKey, []byte("value2"))
	if status != doctable.StatusOK {
		t.Fatalf("Expected StatusOK re-inserting removed key, got %s", status)
	}
	if entry.Version != 0 {
		t.Errorf("Expected version 0 after re-insert, got %d", entry.Version)
	}
}

func testCounters(t *testing.T, table doctable.IDocTable) {
	defer table.Close()

	// Absent counter reads as zero
	if val := table.CounterGet("new-counter"); val != 0 {
		t.Errorf("Expected absent counter to read 0, got %d", val)
	}

	// First increment creates the counter
	if val := table.CounterAdd("new-counter", 7); val != 7 {
		t.Errorf("Expected first increment by 7 to yield 7, got %d", val)
	}

	if val := table.CounterAdd("new-counter", -2); val != 5 {
		t.Errorf("Expected 7-2=5, got %d", val)
	}

	if val := table.CounterGet("new-counter"); val != 5 {
		t.Errorf("Expected counter read 5, got %d", val)
	}

	// Counters and documents live in separate keyspaces
	table.Insert("shared-key", []byte("doc"))
	if val := table.CounterAdd("shared-key", 1); val != 1 {
		t.Errorf("Expected counter namespace to be independent, got %d", val)
	}
	if _, status := table.Get("shared-key"); status != doctable.StatusOK {
		t.Errorf("Counter write must not disturb the document")
	}
}

func testScan(t *testing.T, table doctable.IDocTable) {
	defer table.Close()

	for _, key := range []string{"a3", "a1", "a5", "a2", "a4"} {
		table.Insert(key, []byte("value-"+key))
	}

	expectKeys := func(rows []doctable.ScanEntry, want ...string) {
		t.Helper()
		if len(rows) != len(want) {
			t.Fatalf("Expected %d rows %v, got %d", len(want), want, len(rows))
		}
		for i, row := range rows {
			if row.Key != want[i] {
				t.Errorf("Expected row %d to be %s, got %s", i, want[i], row.Key)
			}
		}
	}

	// GT with limit
	expectKeys(table.Scan(doctable.ScanQuery{Op: doctable.ScanGT, Pivot: "a2", Limit: 2}), "a3", "a4")

	// GT with limit and offset
	expectKeys(table.Scan(doctable.ScanQuery{Op: doctable.ScanGT, Pivot: "a2", Limit: 2, Offset: 1}), "a4", "a5")

	// GTE includes the pivot
	expectKeys(table.Scan(doctable.ScanQuery{Op: doctable.ScanGTE, Pivot: "a4"}), "a4", "a5")

	// LT and LTE
	expectKeys(table.Scan(doctable.ScanQuery{Op: doctable.ScanLT, Pivot: "a2"}), "a1")
	expectKeys(table.Scan(doctable.ScanQuery{Op: doctable.ScanLTE, Pivot: "a2"}), "a1", "a2")

	// EQ
	expectKeys(table.Scan(doctable.ScanQuery{Op: doctable.ScanEQ, Pivot: "a3"}), "a3")

	// Offset beyond the result set
	expectKeys(table.Scan(doctable.ScanQuery{Op: doctable.ScanGT, Pivot: "a2", Offset: 10}))

	// Rows carry version and payload
	rows := table.Scan(doctable.ScanQuery{Op: doctable.ScanEQ, Pivot: "a1"})
	if len(rows) != 1 {
		t.Fatalf("Expected exactly one row, got %d", len(rows))
	}
	if !bytes.Equal(rows[0].Entry.Value, []byte("value-a1")) {
		t.Errorf("Expected scan row to carry the payload, got %s", rows[0].Entry.Value)
	}
}

func testSaveLoad(t *testing.T, factory doctable.Factory) {
	source := factory()
	defer source.Close()

	for i := 0; i < 100; i++ {
		source.Insert(fmt.Sprintf("key-%03d", i), []byte(fmt.Sprintf("value-%d", i)))
	}
	created, _ := source.Get("key-042")
	source.Replace("key-042", []byte("updated"), created.Version)
	source.CounterAdd("counter-a", 41)
	source.CounterAdd("counter-a", 1)

	var buf bytes.Buffer
	if err := source.Save(&buf); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	restored := factory()
	defer restored.Close()
	if err := restored.Load(&buf); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	entry, status := restored.Get("key-042")
	if status != doctable.StatusOK {
		t.Fatalf("Expected key-042 after load, got %s", status)
	}
	if !bytes.Equal(entry.Value, []byte("updated")) {
		t.Errorf("Expected updated value after load, got %s", entry.Value)
	}
	if entry.Version != created.Version+1 {
		t.Errorf("Expected version %d after load, got %d", created.Version+1, entry.Version)
	}

	if val := restored.CounterGet("counter-a"); val != 42 {
		t.Errorf("Expected counter 42 after load, got %d", val)
	}

	if got, want := restored.Info().DocCount, source.Info().DocCount; got != want {
		t.Errorf("Expected %d docs after load, got %d", want, got)
	}
}

func testEdgeCases(t *testing.T, table doctable.IDocTable) {
	defer table.Close()

	// Empty value
	entry, status := table.Insert("empty-value", nil)
	if status != doctable.StatusOK {
		t.Fatalf("Expected StatusOK inserting nil value, got %s", status)
	}
	if entry.Version != 0 {
		t.Errorf("Expected version 0, got %d", entry.Version)
	}
	got, status := table.Get("empty-value")
	if status != doctable.StatusOK || len(got.Value) != 0 {
		t.Errorf("Expected empty value back, got %v (%s)", got.Value, status)
	}

	// Empty key is a valid key
	if _, status := table.Insert("", []byte("root")); status != doctable.StatusOK {
		t.Errorf("Expected StatusOK inserting empty key, got %s", status)
	}
	if _, status := table.Get(""); status != doctable.StatusOK {
		t.Errorf("Expected StatusOK reading empty key, got %s", status)
	}

	// Scan on an empty match set
	if rows := table.Scan(doctable.ScanQuery{Op: doctable.ScanGT, Pivot: "zzz"}); len(rows) != 0 {
		t.Errorf("Expected no rows, got %d", len(rows))
	}
}

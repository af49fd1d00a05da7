package vtable

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"sort"

	"github.com/ValentinKolb/dDoc/lib/doctable"
	"github.com/ValentinKolb/dDoc/lib/doctable/util"
	"github.com/puzpuzpuz/xsync/v3"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

// Constants for the snapshot file format
const (
	magicNum      = "VTABLE\x00\x00" // File format identifier
	vtableVersion = 1                // Snapshot format version
)

// --------------------------------------------------------------------------
// Core table structure
// --------------------------------------------------------------------------

// vtableImpl implements doctable.IDocTable with two concurrent maps: one
// for versioned documents and one for integer counters. All per-key
// mutations go through Compute so that version checks and writes are a
// single atomic step.
type vtableImpl struct {
	docs     *xsync.MapOf[string, doctable.Entry]
	counters *xsync.MapOf[string, int64]
}

// NewVTable creates a new empty table instance.
func NewVTable() doctable.IDocTable {
	return &vtableImpl{
		docs:     xsync.NewMapOf[string, doctable.Entry](),
		counters: xsync.NewMapOf[string, int64](),
	}
}

// --------------------------------------------------------------------------
// Document Operations (docu see doctable.IDocTable)
// --------------------------------------------------------------------------

func (t *vtableImpl) Get(key string) (doctable.Entry, doctable.Status) {
	entry, ok := t.docs.Load(key)
	if !ok {
		return doctable.Entry{}, doctable.StatusNotFound
	}

	// Copy the value so callers can't corrupt the stored entry
	valueCopy := make([]byte, len(entry.Value))
	copy(valueCopy, entry.Value)

	return doctable.Entry{Version: entry.Version, Value: valueCopy}, doctable.StatusOK
}

func (t *vtableImpl) Insert(key string, value []byte) (doctable.Entry, doctable.Status) {
	// Copy value to prevent memory corruption
	valueCopy := make([]byte, len(value))
	copy(valueCopy, value)

	var (
		result doctable.Entry
		status doctable.Status
	)

	t.docs.Compute(key, func(old doctable.Entry, loaded bool) (doctable.Entry, bool) {
		if loaded {
			status = doctable.StatusExists
			return old, false
		}
		result = doctable.Entry{Version: 0, Value: valueCopy}
		status = doctable.StatusOK
		return result, false
	})

	return result, status
}

func (t *vtableImpl) Replace(key string, value []byte, expected uint64) (doctable.Entry, doctable.Status) {
	valueCopy := make([]byte, len(value))
	copy(valueCopy, value)

	var (
		result doctable.Entry
		status doctable.Status
	)

	t.docs.Compute(key, func(old doctable.Entry, loaded bool) (doctable.Entry, bool) {
		if !loaded {
			status = doctable.StatusNotFound
			return old, true // set delete to true because else the value will be created
		}
		if old.Version != expected {
			status = doctable.StatusVersionMismatch
			return old, false
		}
		result = doctable.Entry{Version: old.Version + 1, Value: valueCopy}
		status = doctable.StatusOK
		return result, false
	})

	return result, status
}

func (t *vtableImpl) Remove(key string) doctable.Status {
	status := doctable.StatusNotFound

	t.docs.Compute(key, func(old doctable.Entry, loaded bool) (doctable.Entry, bool) {
		if loaded {
			status = doctable.StatusOK
		}
		return old, true // delete if present, avoid creation if not
	})

	return status
}

func (t *vtableImpl) Scan(q doctable.ScanQuery) []doctable.ScanEntry {
	// Collect all matching rows, then order and page them. The Range
	// snapshot is weakly consistent which is acceptable for both
	// consistency modes: strict mode is enforced above this layer by
	// serializing the scan behind all pending writes.
	var rows []doctable.ScanEntry
	t.docs.Range(func(key string, entry doctable.Entry) bool {
		if q.Op.Matches(key, q.Pivot) {
			valueCopy := make([]byte, len(entry.Value))
			copy(valueCopy, entry.Value)
			rows = append(rows, doctable.ScanEntry{
				Key:   key,
				Entry: doctable.Entry{Version: entry.Version, Value: valueCopy},
			})
		}
		return true
	})

	sort.Slice(rows, func(i, j int) bool { return rows[i].Key < rows[j].Key })

	// Apply offset
	if q.Offset > 0 {
		if q.Offset >= len(rows) {
			return nil
		}
		rows = rows[q.Offset:]
	}

	// Apply limit
	if q.Limit > 0 && q.Limit < len(rows) {
		rows = rows[:q.Limit]
	}

	return rows
}

// --------------------------------------------------------------------------
// Counter Operations (docu see doctable.IDocTable)
// --------------------------------------------------------------------------

func (t *vtableImpl) CounterGet(key string) int64 {
	val, _ := t.counters.Load(key) // zero value for absent counters
	return val
}

func (t *vtableImpl) CounterAdd(key string, delta int64) int64 {
	var total int64
	t.counters.Compute(key, func(old int64, _ bool) (int64, bool) {
		total = old + delta
		return total, false
	})
	return total
}

// --------------------------------------------------------------------------
// Persistence Operations
// --------------------------------------------------------------------------

// Save persists the table to the writer. Concurrent reads and writes are
// allowed during Save; it takes a weakly consistent snapshot without
// blocking modifications.
func (t *vtableImpl) Save(w io.Writer) error {
	bw := bufio.NewWriterSize(w, 1024*1024) // 1 MB buffer

	// Snapshot both maps first so counts written to the header are exact
	type docToSave struct {
		key   string
		entry doctable.Entry
	}
	var docs []docToSave
	t.docs.Range(func(key string, entry doctable.Entry) bool {
		entryCopy := doctable.Entry{
			Version: entry.Version,
			Value:   make([]byte, len(entry.Value)),
		}
		copy(entryCopy.Value, entry.Value)
		docs = append(docs, docToSave{key, entryCopy})
		return true
	})

	type counterToSave struct {
		key   string
		value int64
	}
	var counters []counterToSave
	t.counters.Range(func(key string, value int64) bool {
		counters = append(counters, counterToSave{key, value})
		return true
	})

	// Write file header
	if _, err := bw.WriteString(magicNum); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, uint8(vtableVersion)); err != nil {
		return err
	}

	// Write documents
	if err := binary.Write(bw, binary.LittleEndian, uint64(len(docs))); err != nil {
		return err
	}
	for _, item := range docs {
		if err := writeString(bw, item.key); err != nil {
			return err
		}
		if err := binary.Write(bw, binary.LittleEndian, item.entry.Version); err != nil {
			return err
		}
		if err := binary.Write(bw, binary.LittleEndian, uint32(len(item.entry.Value))); err != nil {
			return err
		}
		if _, err := bw.Write(item.entry.Value); err != nil {
			return err
		}
	}

	// Write counters
	if err := binary.Write(bw, binary.LittleEndian, uint64(len(counters))); err != nil {
		return err
	}
	for _, item := range counters {
		if err := writeString(bw, item.key); err != nil {
			return err
		}
		if err := binary.Write(bw, binary.LittleEndian, item.value); err != nil {
			return err
		}
	}

	// Flush buffer to ensure all data is written
	return bw.Flush()
}

// Load restores a table from the reader, replacing all current contents.
//
// Thread-safety: This method is not safe for concurrent use with any other
// method of the table.
func (t *vtableImpl) Load(r io.Reader) error {
	br := bufio.NewReaderSize(r, 1024*1024) // 1 MB buffer

	// Read and verify magic number
	magicBytes := make([]byte, len(magicNum))
	if _, err := io.ReadFull(br, magicBytes); err != nil {
		return err
	}
	if string(magicBytes) != magicNum {
		return fmt.Errorf("invalid file format: magic number mismatch")
	}

	// Read and verify version
	var version uint8
	if err := binary.Read(br, binary.LittleEndian, &version); err != nil {
		return err
	}
	if int(version) != vtableVersion {
		return fmt.Errorf("unsupported version: %d (expected %d)", version, vtableVersion)
	}

	// Recreate both maps
	t.docs = xsync.NewMapOf[string, doctable.Entry]()
	t.counters = xsync.NewMapOf[string, int64]()

	// Read documents
	var docCount uint64
	if err := binary.Read(br, binary.LittleEndian, &docCount); err != nil {
		return err
	}
	for i := uint64(0); i < docCount; i++ {
		key, err := readString(br)
		if err != nil {
			return err
		}

		var entryVersion uint64
		if err := binary.Read(br, binary.LittleEndian, &entryVersion); err != nil {
			return err
		}

		var valueLen uint32
		if err := binary.Read(br, binary.LittleEndian, &valueLen); err != nil {
			return err
		}
		value := make([]byte, valueLen)
		if _, err := io.ReadFull(br, value); err != nil {
			return err
		}

		t.docs.Store(key, doctable.Entry{Version: entryVersion, Value: value})
	}

	// Read counters
	var counterCount uint64
	if err := binary.Read(br, binary.LittleEndian, &counterCount); err != nil {
		return err
	}
	for i := uint64(0); i < counterCount; i++ {
		key, err := readString(br)
		if err != nil {
			return err
		}

		var value int64
		if err := binary.Read(br, binary.LittleEndian, &value); err != nil {
			return err
		}

		t.counters.Store(key, value)
	}

	return nil
}

// writeString writes a length-prefixed string (4 bytes little endian + data)
func writeString(w io.Writer, s string) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

// readString reads a length-prefixed string written by writeString
func readString(r io.Reader) (string, error) {
	var length uint32
	if err := binary.Read(r, binary.LittleEndian, &length); err != nil {
		return "", err
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// --------------------------------------------------------------------------
// Metadata
// --------------------------------------------------------------------------

// Info returns statistics about the table. All size values are estimates.
func (t *vtableImpl) Info() doctable.TableInfo {
	histogram := util.NewSizeHistogram()

	docCount := 0
	t.docs.Range(func(_ string, entry doctable.Entry) bool {
		histogram.AddSample(len(entry.Value))
		docCount++
		return true
	})

	// weighted estimate (60% median, 40% average), plus per-entry overhead
	entryOverhead := 16 // 8 bytes version + map bookkeeping
	medianSize := histogram.MedianEstimate() + entryOverhead
	avgSize := histogram.AverageSize() + entryOverhead
	sizeBytes := (medianSize*60 + avgSize*40) / 100 * docCount

	return doctable.TableInfo{
		TableType:    doctable.ImplVTable,
		DocCount:     docCount,
		CounterCount: t.counters.Size(),
		EstSizeBytes: sizeBytes,
		Metadata: &struct {
			Info string `json:"info"`
		}{
			Info: "All size values are estimates and may vary depending on the table state.",
		},
	}
}

// Close releases the table. The vtable holds no background resources.
func (t *vtableImpl) Close() error {
	return nil
}

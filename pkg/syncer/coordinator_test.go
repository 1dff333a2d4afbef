package syncer

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghosh-vishnu/MINITAB/pkg/store"
)

type mockWriter struct {
	mu         sync.Mutex
	writeCalls []store.CellInput
	bulkCalls  [][]store.CellInput
	writeIDs   []string
	err        error
	// blockBulk, when set, is received from before a bulk call returns.
	blockBulk chan struct{}
}

func (m *mockWriter) WriteCell(worksheetID string, row, col int, value, formula, dataType string) (*store.Cell, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	m.writeIDs = append(m.writeIDs, worksheetID)
	m.writeCalls = append(m.writeCalls, store.CellInput{
		Row: row, Col: col, Value: value, Formula: formula, DataType: dataType,
	})
	return &store.Cell{WorksheetID: worksheetID, RowIndex: row, ColumnIndex: col, Value: value}, nil
}

func (m *mockWriter) BulkWriteCells(worksheetID string, inputs []store.CellInput) error {
	if m.blockBulk != nil {
		<-m.blockBulk
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.writeIDs = append(m.writeIDs, worksheetID)
	m.bulkCalls = append(m.bulkCalls, inputs)
	return nil
}

func (m *mockWriter) counts() (writes, bulks int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.writeCalls), len(m.bulkCalls)
}

func TestIsFormula(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"=SUM(A1:A5)", true},
		{"  =A1", true},
		{"plain", false},
		{"1=1", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsFormula(tt.value); got != tt.want {
			t.Errorf("IsFormula(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestDebounceCoalescing(t *testing.T) {
	w := &mockWriter{}
	c := New(w, "ws-1", 50*time.Millisecond, nil)

	c.Edit(0, 0, "a")
	c.Edit(1, 0, "b")
	c.Edit(2, 0, "c")

	require.Eventually(t, func() bool {
		_, bulks := w.counts()
		return bulks == 1
	}, time.Second, 10*time.Millisecond)

	writes, bulks := w.counts()
	assert.Zero(t, writes, "a coalesced burst must not issue single writes")
	require.Equal(t, 1, bulks, "three edits within the window produce one bulk write")
	batch := w.bulkCalls[0]
	require.Len(t, batch, 3)
	// Submission order is preserved.
	assert.Equal(t, 0, batch[0].Row)
	assert.Equal(t, 1, batch[1].Row)
	assert.Equal(t, 2, batch[2].Row)
	assert.Zero(t, c.PendingCount())
}

func TestSingleEditUsesWriteCell(t *testing.T) {
	w := &mockWriter{}
	c := New(w, "ws-1", 20*time.Millisecond, nil)

	c.Edit(4, 1, "hello")

	require.Eventually(t, func() bool {
		writes, _ := w.counts()
		return writes == 1
	}, time.Second, 5*time.Millisecond)

	_, bulks := w.counts()
	assert.Zero(t, bulks)
	assert.Equal(t, "ws-1", w.writeIDs[0])
}

func TestRepeatedEditsToSameCellKeepLastValue(t *testing.T) {
	w := &mockWriter{}
	c := New(w, "ws-1", time.Hour, nil)

	c.Edit(0, 0, "first")
	c.Edit(0, 0, "second")
	c.Edit(0, 0, "third")
	assert.Equal(t, 1, c.PendingCount())

	require.NoError(t, c.Flush())
	writes, _ := w.counts()
	require.Equal(t, 1, writes)
	assert.Equal(t, "third", w.writeCalls[0].Value)
}

func TestFormulaClassifiedAtWriteTime(t *testing.T) {
	w := &mockWriter{}
	c := New(w, "ws-1", time.Hour, nil)

	c.Edit(0, 0, "=SUM(A1:A3)")
	require.NoError(t, c.Flush())

	require.Len(t, w.writeCalls, 1)
	assert.Equal(t, store.TypeFormula, w.writeCalls[0].DataType)
	assert.Equal(t, "=SUM(A1:A3)", w.writeCalls[0].Formula)
}

func TestRollbackOnWriteFailure(t *testing.T) {
	w := &mockWriter{}
	c := New(w, "ws-1", time.Hour, nil)
	c.Reload([]store.Cell{{RowIndex: 0, ColumnIndex: 0, Value: "old"}})

	w.err = errors.New("backend down")
	c.Edit(0, 0, "new")
	got, _ := c.Value(0, 0)
	assert.Equal(t, "new", got, "edit applies optimistically before the flush")

	err := c.Flush()
	assert.ErrorIs(t, err, ErrWriteFailure)

	got, ok := c.Value(0, 0)
	require.True(t, ok)
	assert.Equal(t, "old", got, "failed flush reverts to the previous value")
}

func TestRollbackRemovesFreshCell(t *testing.T) {
	w := &mockWriter{err: errors.New("backend down")}
	c := New(w, "ws-1", time.Hour, nil)

	c.Edit(3, 3, "only here optimistically")
	err := c.Flush()
	assert.ErrorIs(t, err, ErrWriteFailure)

	_, ok := c.Value(3, 3)
	assert.False(t, ok, "a cell that never existed is removed on rollback")
}

func TestExplicitFlushBeatsTimer(t *testing.T) {
	w := &mockWriter{}
	c := New(w, "ws-1", time.Hour, nil)

	c.Edit(0, 0, "a")
	c.Edit(0, 1, "b")
	require.NoError(t, c.Flush())

	_, bulks := w.counts()
	assert.Equal(t, 1, bulks)
	assert.Zero(t, c.PendingCount())

	// Nothing pending: another flush is a no-op.
	require.NoError(t, c.Flush())
	writes, bulks := w.counts()
	assert.Zero(t, writes)
	assert.Equal(t, 1, bulks)
}

func TestSwitchWorksheetFlushesAndReloads(t *testing.T) {
	w := &mockWriter{}
	c := New(w, "ws-1", time.Hour, nil)

	c.Edit(0, 0, "pending edit")
	require.NoError(t, c.SwitchWorksheet("ws-2", []store.Cell{
		{RowIndex: 5, ColumnIndex: 5, Value: "from store"},
	}))

	// The pending edit landed on the old worksheet before the switch.
	require.Len(t, w.writeIDs, 1)
	assert.Equal(t, "ws-1", w.writeIDs[0])

	_, ok := c.Value(0, 0)
	assert.False(t, ok, "grid is rebuilt from the new worksheet's cells")
	got, ok := c.Value(5, 5)
	require.True(t, ok)
	assert.Equal(t, "from store", got)

	c.Edit(1, 1, "next")
	require.NoError(t, c.Flush())
	assert.Equal(t, "ws-2", w.writeIDs[len(w.writeIDs)-1])
}

func TestSwitchWorksheetAbortsOnFlushFailure(t *testing.T) {
	w := &mockWriter{err: errors.New("backend down")}
	c := New(w, "ws-1", time.Hour, nil)

	c.Edit(0, 0, "unsaved")
	err := c.SwitchWorksheet("ws-2", nil)
	assert.ErrorIs(t, err, ErrWriteFailure)
}

func TestImportBypassesDebounce(t *testing.T) {
	w := &mockWriter{}
	c := New(w, "ws-1", time.Hour, nil)

	inputs := []store.CellInput{
		{Row: 0, Col: 0, Value: "Name"},
		{Row: 1, Col: 0, Value: "42"},
	}
	require.NoError(t, c.ImportCells(inputs))

	_, bulks := w.counts()
	require.Equal(t, 1, bulks)
	assert.Equal(t, inputs, w.bulkCalls[0])
}

func TestEditDuringFlushLandsInNextBatch(t *testing.T) {
	w := &mockWriter{blockBulk: make(chan struct{})}
	c := New(w, "ws-1", 20*time.Millisecond, nil)

	c.Edit(0, 0, "a")
	c.Edit(0, 1, "b")

	// Wait for the timer to fire; the bulk call is now blocked in flight.
	time.Sleep(60 * time.Millisecond)
	c.Edit(0, 2, "late")

	w.blockBulk <- struct{}{} // release the first flush
	close(w.blockBulk)

	require.Eventually(t, func() bool {
		_, bulks := w.counts()
		writes, _ := w.counts()
		return bulks+writes >= 2
	}, time.Second, 10*time.Millisecond)

	w.mu.Lock()
	defer w.mu.Unlock()
	require.Len(t, w.bulkCalls[0], 2, "the in-flight batch is not extended")
	total := 0
	for _, b := range w.bulkCalls {
		total += len(b)
	}
	total += len(w.writeCalls)
	assert.Equal(t, 3, total, "the late edit flushes in its own batch")
}

func TestDebounceErrorCallback(t *testing.T) {
	var (
		mu       sync.Mutex
		reported error
	)
	w := &mockWriter{err: errors.New("backend down")}
	c := New(w, "ws-1", 20*time.Millisecond, func(err error) {
		mu.Lock()
		reported = err
		mu.Unlock()
	})

	c.Edit(0, 0, "doomed")

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return reported != nil
	}, time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.ErrorIs(t, reported, ErrWriteFailure)
}

// Package syncer reconciles an in-memory editable grid with the cell store.
// Edits apply to the local grid immediately and are flushed to the store in
// debounced batches; a failed flush reverts the optimistic values.
package syncer

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ghosh-vishnu/MINITAB/pkg/store"
	log "github.com/sirupsen/logrus"
)

// FormulaMarker is the prefix that classifies an edit as a formula. The
// formula text is stored verbatim; nothing evaluates it.
const FormulaMarker = "="

// DefaultDebounce is the quiet period after the last edit before a flush.
const DefaultDebounce = 750 * time.Millisecond

// ErrWriteFailure wraps a persistence error during a flush. The optimistic
// values have already been reverted when this surfaces.
var ErrWriteFailure = errors.New("cell update failed, value reverted")

// CellWriter is the store-side write surface the coordinator needs.
// *store.Store satisfies it.
type CellWriter interface {
	WriteCell(worksheetID string, row, col int, value, formula, dataType string) (*store.Cell, error)
	BulkWriteCells(worksheetID string, inputs []store.CellInput) error
}

// IsFormula reports whether an edited value should be classified as a
// formula. Classification happens once here, at write time.
func IsFormula(value string) bool {
	return strings.HasPrefix(strings.TrimSpace(value), FormulaMarker)
}

type gridKey struct {
	row, col int
}

type gridCell struct {
	value    string
	formula  string
	dataType string
}

type pendingEdit struct {
	input   store.CellInput
	prev    gridCell
	hadPrev bool
}

// Coordinator mediates between the local grid of one worksheet and the cell
// store. The grid is a rebuildable cache over the store, never a second
// source of truth.
type Coordinator struct {
	writer  CellWriter
	delay   time.Duration
	onError func(error)

	// Serializes flushes so only one write is in flight per worksheet.
	// Edits arriving mid-flush land in the next batch.
	flushMu sync.Mutex

	mu          sync.Mutex
	worksheetID string
	grid        map[gridKey]gridCell
	pending     []pendingEdit
	pendingIdx  map[gridKey]int
	timer       *time.Timer
}

// New creates a coordinator for one worksheet. A non-positive delay falls
// back to DefaultDebounce. onError receives flush failures from the debounce
// timer; it may be nil.
func New(writer CellWriter, worksheetID string, delay time.Duration, onError func(error)) *Coordinator {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Coordinator{
		writer:      writer,
		delay:       delay,
		onError:     onError,
		worksheetID: worksheetID,
		grid:        make(map[gridKey]gridCell),
		pendingIdx:  make(map[gridKey]int),
	}
}

// Edit applies a value to the local grid immediately and schedules a
// debounced flush. The debounce timer is keyed by the edit session, so a
// burst of edits across many cells coalesces into a single flush.
func (c *Coordinator) Edit(row, col int, value string) {
	next := gridCell{value: value, dataType: store.TypeText}
	if IsFormula(value) {
		next.formula = value
		next.dataType = store.TypeFormula
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	key := gridKey{row, col}
	prev, hadPrev := c.grid[key]
	c.grid[key] = next

	input := store.CellInput{
		Row:      row,
		Col:      col,
		Value:    next.value,
		Formula:  next.formula,
		DataType: next.dataType,
	}
	if idx, ok := c.pendingIdx[key]; ok {
		// Keep the rollback value from the first edit of this cell since
		// the last flush; only the submitted value moves forward.
		c.pending[idx].input = input
	} else {
		c.pending = append(c.pending, pendingEdit{input: input, prev: prev, hadPrev: hadPrev})
		c.pendingIdx[key] = len(c.pending) - 1
	}

	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.delay, c.flushFromTimer)
}

// Flush writes all pending edits synchronously, regardless of the debounce
// timer. Explicit saves, worksheet switches and imports go through here.
func (c *Coordinator) Flush() error {
	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.mu.Unlock()
	return c.flush()
}

func (c *Coordinator) flushFromTimer() {
	if err := c.flush(); err != nil {
		log.Warnf("Debounced flush failed: %v", err)
		if c.onError != nil {
			c.onError(err)
		}
	}
}

func (c *Coordinator) flush() error {
	c.flushMu.Lock()
	defer c.flushMu.Unlock()

	c.mu.Lock()
	if len(c.pending) == 0 {
		c.mu.Unlock()
		return nil
	}
	batch := c.pending
	worksheetID := c.worksheetID
	c.pending = nil
	c.pendingIdx = make(map[gridKey]int)
	c.mu.Unlock()

	var err error
	if len(batch) == 1 {
		in := batch[0].input
		_, err = c.writer.WriteCell(worksheetID, in.Row, in.Col, in.Value, in.Formula, in.DataType)
	} else {
		inputs := make([]store.CellInput, len(batch))
		for i, e := range batch {
			inputs[i] = e.input
		}
		err = c.writer.BulkWriteCells(worksheetID, inputs)
	}
	if err == nil {
		return nil
	}

	// Revert every optimistic value from this batch. Edits made after the
	// batch was taken keep their own pending entries and are untouched.
	c.mu.Lock()
	for _, e := range batch {
		key := gridKey{e.input.Row, e.input.Col}
		if _, stillPending := c.pendingIdx[key]; stillPending {
			continue
		}
		if e.hadPrev {
			c.grid[key] = e.prev
		} else {
			delete(c.grid, key)
		}
	}
	c.mu.Unlock()
	return fmt.Errorf("%w: %v", ErrWriteFailure, err)
}

// SwitchWorksheet flushes any pending edits for the current worksheet, then
// rebuilds the grid from the given store cells of the new worksheet. A
// failed flush aborts the switch so no edits are dropped.
func (c *Coordinator) SwitchWorksheet(worksheetID string, cells []store.Cell) error {
	if err := c.Flush(); err != nil {
		return err
	}
	c.mu.Lock()
	c.worksheetID = worksheetID
	c.mu.Unlock()
	c.Reload(cells)
	return nil
}

// Reload replaces the local grid with the store's view of the worksheet.
// Used after a switch or after any operation that mutates cells out of band.
func (c *Coordinator) Reload(cells []store.Cell) {
	grid := make(map[gridKey]gridCell, len(cells))
	for _, cell := range cells {
		grid[gridKey{cell.RowIndex, cell.ColumnIndex}] = gridCell{
			value:    cell.Value,
			formula:  cell.Formula,
			dataType: cell.DataType,
		}
	}
	c.mu.Lock()
	c.grid = grid
	c.pending = nil
	c.pendingIdx = make(map[gridKey]int)
	c.mu.Unlock()
}

// ImportCells flushes pending edits, then writes the imported inputs in one
// synchronous bulk call, bypassing the debounce entirely. The caller must
// Reload from the store afterwards; the grid is stale once the import lands.
func (c *Coordinator) ImportCells(inputs []store.CellInput) error {
	if err := c.Flush(); err != nil {
		return err
	}
	c.mu.Lock()
	worksheetID := c.worksheetID
	c.mu.Unlock()

	c.flushMu.Lock()
	defer c.flushMu.Unlock()
	if err := c.writer.BulkWriteCells(worksheetID, inputs); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailure, err)
	}
	return nil
}

// Value returns the locally visible value at (row, col).
func (c *Coordinator) Value(row, col int) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cell, ok := c.grid[gridKey{row, col}]
	return cell.value, ok
}

// PendingCount returns the number of cells with unflushed edits.
func (c *Coordinator) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

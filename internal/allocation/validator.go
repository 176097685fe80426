// Package allocation decides whether a line item's batch allocations are
// save-ready and produces the normalized allocation list for persistence.
package allocation

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/meridian-erp/meridian-erp/internal/document"
)

// Editor-open rejections. Violating any of these returns the reason instead
// of opening the allocation editor.
var (
	ErrItemNotResolved      = errors.New("allocation: item must be selected before allocating batches")
	ErrWarehouseNotResolved = errors.New("allocation: warehouse must be selected before allocating batches")
	ErrNotBatchManaged      = errors.New("allocation: item is not batch managed")
	ErrNothingToAllocate    = errors.New("allocation: quantity must be greater than zero")
)

// ErrEmptyRowPending rejects adding a new allocation row while the previous
// one is still empty.
var ErrEmptyRowPending = errors.New("allocation: previous batch row is still empty")

// Save-time failure kinds.
var (
	ErrAllocationMismatch   = errors.New("allocated quantity does not match line quantity")
	ErrMissingAllocation    = errors.New("no batches allocated")
	ErrIncompleteBatchEntry = errors.New("batch entry is missing a batch number or a positive quantity")
)

// LineFailure is one line's save-time rejection, carrying the offending item
// and the quantity discrepancy so callers can highlight the exact row.
type LineFailure struct {
	Err       error
	ItemCode  string
	Allocated float64
	Required  float64
}

func (f *LineFailure) Error() string {
	if errors.Is(f.Err, ErrAllocationMismatch) {
		return fmt.Sprintf("%s: %v (allocated %g, required %g)", f.ItemCode, f.Err, f.Allocated, f.Required)
	}
	return fmt.Sprintf("%s: %v", f.ItemCode, f.Err)
}

func (f *LineFailure) Unwrap() error { return f.Err }

// ValidationError aggregates every failing line of a document, so a user with
// multiple bad lines sees all the reasons at once.
type ValidationError struct {
	Failures []*LineFailure
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		msgs = append(msgs, f.Error())
	}
	return "allocation: " + strings.Join(msgs, "; ")
}

// CanOpenEditor checks the preconditions for opening the batch allocation
// editor on a line.
func CanOpenEditor(line *document.LineItem) error {
	if line.ItemRef == "" {
		return ErrItemNotResolved
	}
	if line.WarehouseRef == "" {
		return ErrWarehouseNotResolved
	}
	if line.ManagedBy != document.ManagedByBatch {
		return ErrNotBatchManaged
	}
	if line.Quantity <= 0 {
		return ErrNothingToAllocate
	}
	return nil
}

// AddRow appends a fresh allocation row and returns it. It refuses to stack
// empty rows: the most recently added row must be touched first.
func AddRow(line *document.LineItem) (*document.BatchAllocation, error) {
	if n := len(line.Batches); n > 0 && line.Batches[n-1].Empty() {
		return nil, ErrEmptyRowPending
	}
	line.Batches = append(line.Batches, document.BatchAllocation{ID: uuid.NewString()})
	return &line.Batches[len(line.Batches)-1], nil
}

// RemoveRow deletes the row with the given client-local id. Removal is final;
// there is no soft delete.
func RemoveRow(line *document.LineItem, id string) {
	kept := line.Batches[:0]
	for _, b := range line.Batches {
		if b.ID != id {
			kept = append(kept, b)
		}
	}
	line.Batches = kept
}

// InvalidateOnQuantityChange clears a batch-managed line's allocations after
// its quantity was edited. Stale allocations are worse than forcing re-entry,
// so the whole set goes. Returns true when the caller must prompt the user to
// re-allocate.
func InvalidateOnQuantityChange(line *document.LineItem) bool {
	if line.ManagedBy != document.ManagedByBatch || len(line.Batches) == 0 {
		return false
	}
	line.Batches = nil
	return true
}

// Validator performs save-time allocation validation over a document.
type Validator struct {
	tolerance float64
}

// Option configures a Validator.
type Option func(*Validator)

// WithQuantityTolerance allows the allocated sum to differ from the line
// quantity by up to eps. The default is exact equality.
func WithQuantityTolerance(eps float64) Option {
	return func(v *Validator) {
		if eps >= 0 {
			v.tolerance = eps
		}
	}
}

// NewValidator constructs a Validator.
func NewValidator(opts ...Option) *Validator {
	v := &Validator{}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// ValidateLine checks one line's allocations. Non-batch lines and zero
// quantity lines pass vacuously. Fully empty junk rows are ignored for the
// sum; partially filled rows fail the line outright.
func (v *Validator) ValidateLine(line *document.LineItem) *LineFailure {
	if line.ManagedBy != document.ManagedByBatch || line.Quantity <= 0 {
		return nil
	}

	var allocated float64
	for _, b := range line.Batches {
		if b.Empty() {
			continue
		}
		if !b.Complete() {
			return &LineFailure{Err: ErrIncompleteBatchEntry, ItemCode: line.ItemCode}
		}
		allocated += b.BatchQuantity
	}

	if allocated == 0 {
		return &LineFailure{Err: ErrMissingAllocation, ItemCode: line.ItemCode, Required: line.Quantity}
	}
	if math.Abs(allocated-line.Quantity) > v.tolerance {
		return &LineFailure{
			Err:       ErrAllocationMismatch,
			ItemCode:  line.ItemCode,
			Allocated: allocated,
			Required:  line.Quantity,
		}
	}
	return nil
}

// ValidateDocument runs ValidateLine over every line and aggregates all
// failures before reporting.
func (v *Validator) ValidateDocument(doc *document.Document) error {
	var failures []*LineFailure
	for i := range doc.Lines {
		if f := v.ValidateLine(&doc.Lines[i]); f != nil {
			failures = append(failures, f)
		}
	}
	if len(failures) > 0 {
		return &ValidationError{Failures: failures}
	}
	return nil
}

// Normalize returns the persistable allocation list for a line: complete
// entries only, with client-local row ids stripped. Call it only after the
// line passed validation.
func Normalize(line *document.LineItem) []document.BatchAllocation {
	out := make([]document.BatchAllocation, 0, len(line.Batches))
	for _, b := range line.Batches {
		if !b.Complete() {
			continue
		}
		b.ID = ""
		out = append(out, b)
	}
	return out
}

// NormalizeDocument rewrites every batch-managed line's allocations with
// their normalized form.
func NormalizeDocument(doc *document.Document) {
	for i := range doc.Lines {
		line := &doc.Lines[i]
		if line.ManagedBy != document.ManagedByBatch {
			continue
		}
		line.Batches = Normalize(line)
	}
}

package document

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ============================================================================
// DOCUMENT TYPE & STATUS
// ============================================================================

// DocType enumerates the commercial document types handled by the engine.
type DocType string

const (
	DocTypeDeliveryNote    DocType = "DELIVERY_NOTE"
	DocTypePurchaseInvoice DocType = "PURCHASE_INVOICE"
	DocTypeSalesInvoice    DocType = "SALES_INVOICE"
	DocTypeCreditMemo      DocType = "CREDIT_MEMO"
)

// IsValid checks if the document type is known.
func (t DocType) IsValid() bool {
	switch t {
	case DocTypeDeliveryNote, DocTypePurchaseInvoice, DocTypeSalesInvoice, DocTypeCreditMemo:
		return true
	default:
		return false
	}
}

// Status represents the lifecycle state of a document.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusPending   Status = "PENDING"
	StatusIssued    Status = "ISSUED"
	StatusCancelled Status = "CANCELLED"
	// Credit-driven states, written only by the reconciler.
	StatusPartiallyCredited Status = "PARTIALLY_CREDITED"
	StatusFullyCredited     Status = "FULLY_CREDITED"
)

// IsValid checks if the status is a known lifecycle state.
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusPending, StatusIssued, StatusCancelled,
		StatusPartiallyCredited, StatusFullyCredited:
		return true
	default:
		return false
	}
}

// CanEdit checks if a document can still be edited in this status.
func (s Status) CanEdit() bool {
	return s == StatusDraft
}

// CanIssue checks if a document can be issued from this status.
func (s Status) CanIssue() bool {
	return s == StatusDraft || s == StatusPending
}

// CanCancel checks if a document can be cancelled from this status.
// Cancellation is a manual transition, disjoint from credit-driven states.
func (s Status) CanCancel() bool {
	return s == StatusDraft || s == StatusPending
}

// Credited reports whether the status was derived from accumulated credits.
func (s Status) Credited() bool {
	return s == StatusPartiallyCredited || s == StatusFullyCredited
}

// ============================================================================
// TAX & STOCK TRACKING MODES
// ============================================================================

// TaxOption selects between intra-state (GST, split CGST+SGST) and
// inter-state (IGST, single rate) taxation for a line.
type TaxOption string

const (
	TaxOptionGST  TaxOption = "GST"
	TaxOptionIGST TaxOption = "IGST"
)

// ManagedBy indicates the stock-tracking granularity of an item.
type ManagedBy string

const (
	ManagedByNone   ManagedBy = "NONE"
	ManagedByBatch  ManagedBy = "BATCH"
	ManagedBySerial ManagedBy = "SERIAL"
)

// ============================================================================
// ENTITIES
// ============================================================================

// BatchAllocation assigns a quantity from one physical lot to a line item.
// ID is a client-local row identity, not a business key; it is stripped
// before persistence.
type BatchAllocation struct {
	ID            string          `json:"id,omitempty"`
	BatchNumber   string          `json:"batch_number"`
	ExpiryDate    *time.Time      `json:"expiry_date,omitempty"`
	Manufacturer  string          `json:"manufacturer,omitempty"`
	BatchQuantity float64         `json:"batch_quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
}

// Empty reports whether the row carries no user input at all. Empty rows are
// junk left over from the allocation editor and are dropped silently.
func (b BatchAllocation) Empty() bool {
	return b.BatchNumber == "" && b.BatchQuantity <= 0
}

// Complete reports whether the row is ready to persist.
func (b BatchAllocation) Complete() bool {
	return b.BatchNumber != "" && b.BatchQuantity > 0
}

// LineItem is one row of a commercial document.
//
// The derived monetary fields (PriceAfterDiscount, TotalAmount and the tax
// amounts) are a pure function of the editable inputs and must never be
// persisted or transmitted without Recalculate having run first.
type LineItem struct {
	ItemRef      string `json:"item_ref"`
	ItemCode     string `json:"item_code"`
	ItemName     string `json:"item_name"`
	WarehouseRef string `json:"warehouse_ref"`

	Quantity         float64 `json:"quantity"`
	AllowedQuantity  float64 `json:"allowed_quantity"`
	CreditedQuantity float64 `json:"credited_quantity"`

	UnitPrice decimal.Decimal `json:"unit_price"`
	Discount  decimal.Decimal `json:"discount"`
	Freight   decimal.Decimal `json:"freight"`
	TaxOption TaxOption       `json:"tax_option"`
	GSTRate   float64         `json:"gst_rate"`
	IGSTRate  float64         `json:"igst_rate"`

	PriceAfterDiscount decimal.Decimal `json:"price_after_discount"`
	TotalAmount        decimal.Decimal `json:"total_amount"`
	CGSTAmount         decimal.Decimal `json:"cgst_amount"`
	SGSTAmount         decimal.Decimal `json:"sgst_amount"`
	IGSTAmount         decimal.Decimal `json:"igst_amount"`
	GSTAmount          decimal.Decimal `json:"gst_amount"`

	ManagedBy ManagedBy         `json:"managed_by"`
	Batches   []BatchAllocation `json:"batches,omitempty"`
}

// Document is a delivery note, purchase invoice, sales invoice or credit
// memo. It owns its lines exclusively; a credit memo references its source
// document by id only.
type Document struct {
	ID               string    `json:"id"`
	Type             DocType   `json:"type"`
	Number           string    `json:"number"`
	PartyRef         string    `json:"party_ref"`
	DocDate          time.Time `json:"doc_date"`
	Status           Status    `json:"status"`
	SourceDocumentID string    `json:"source_document_id,omitempty"`

	Freight  decimal.Decimal `json:"freight"`
	Rounding decimal.Decimal `json:"rounding"`

	TotalBeforeDiscount decimal.Decimal `json:"total_before_discount"`
	GSTTotal            decimal.Decimal `json:"gst_total"`
	GrandTotal          decimal.Decimal `json:"grand_total"`

	Lines []LineItem `json:"lines"`
}

// TotalOrdered sums the ordered quantity over all lines.
func (d *Document) TotalOrdered() float64 {
	var total float64
	for i := range d.Lines {
		total += d.Lines[i].Quantity
	}
	return total
}

// TotalCredited sums the credited quantity over all lines.
func (d *Document) TotalCredited() float64 {
	var total float64
	for i := range d.Lines {
		total += d.Lines[i].CreditedQuantity
	}
	return total
}

// ErrInvalidDocType indicates an unknown document type.
var ErrInvalidDocType = errors.New("document: invalid document type")

// ErrQuantityExceedsAllowed indicates a quantity above the bound inherited
// from the source document. A zero AllowedQuantity means unconstrained.
var ErrQuantityExceedsAllowed = errors.New("document: quantity exceeds allowed quantity")

// ErrNegativePrice indicates a discount larger than the unit price. The
// calculator lets negative prices pass through so data-entry mistakes stay
// visible; submit-time validation rejects them here instead of clamping.
var ErrNegativePrice = errors.New("document: price after discount is negative")

package document

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// LineItemInput carries the raw edit-state fields of a form row. Numeric
// fields are strings because the calculator runs on every keystroke,
// including transient empty or half-typed states; anything unparseable
// coerces to zero rather than being rejected.
type LineItemInput struct {
	ItemRef      string `json:"item_ref" validate:"required"`
	ItemCode     string `json:"item_code" validate:"required"`
	ItemName     string `json:"item_name"`
	WarehouseRef string `json:"warehouse_ref"`

	Quantity        string `json:"quantity"`
	AllowedQuantity string `json:"allowed_quantity"`
	UnitPrice       string `json:"unit_price"`
	Discount        string `json:"discount"`
	Freight         string `json:"freight"`
	TaxOption       string `json:"tax_option"`
	GSTRate         string `json:"gst_rate"`
	IGSTRate        string `json:"igst_rate"`
	ManagedBy       string `json:"managed_by"`
}

// DocumentInput is the submit-time shape of a document as it comes off a
// form, before coercion into the domain model.
type DocumentInput struct {
	Type     string          `json:"type" validate:"required"`
	Number   string          `json:"number"`
	PartyRef string          `json:"party_ref" validate:"required"`
	DocDate  time.Time       `json:"doc_date"`
	Freight  string          `json:"freight"`
	Rounding string          `json:"rounding"`
	Lines    []LineItemInput `json:"lines" validate:"required,min=1,dive"`
}

var validate = validator.New()

// Validate checks the structural submit-time constraints of the input. It is
// deliberately separate from coercion: a document being typed into is allowed
// to be incomplete, a document being saved is not.
func (in DocumentInput) Validate() error {
	if err := validate.Struct(in); err != nil {
		return fmt.Errorf("document input: %w", err)
	}
	if !DocType(in.Type).IsValid() {
		return fmt.Errorf("document input: %w: %q", ErrInvalidDocType, in.Type)
	}
	return nil
}

// ToLineItem coerces the raw row into a LineItem with derived fields computed.
func (in LineItemInput) ToLineItem() LineItem {
	line := LineItem{
		ItemRef:         in.ItemRef,
		ItemCode:        in.ItemCode,
		ItemName:        in.ItemName,
		WarehouseRef:    in.WarehouseRef,
		Quantity:        coerceNumber(in.Quantity),
		AllowedQuantity: coerceNumber(in.AllowedQuantity),
		UnitPrice:       coerceAmount(in.UnitPrice),
		Discount:        coerceAmount(in.Discount),
		Freight:         coerceAmount(in.Freight),
		TaxOption:       coerceTaxOption(in.TaxOption),
		GSTRate:         coerceNumber(in.GSTRate),
		IGSTRate:        coerceNumber(in.IGSTRate),
		ManagedBy:       coerceManagedBy(in.ManagedBy),
	}
	Recalculate(&line)
	return line
}

// ToDocument coerces the full input into a Document with header totals
// computed. Structural validity is the caller's concern via Validate.
func (in DocumentInput) ToDocument() Document {
	doc := Document{
		Type:     DocType(in.Type),
		Number:   in.Number,
		PartyRef: in.PartyRef,
		DocDate:  in.DocDate,
		Status:   StatusDraft,
		Freight:  coerceAmount(in.Freight),
		Rounding: coerceAmount(in.Rounding),
	}
	doc.Lines = make([]LineItem, 0, len(in.Lines))
	for _, row := range in.Lines {
		doc.Lines = append(doc.Lines, row.ToLineItem())
	}
	RecalculateDocument(&doc)
	return doc
}

// CheckSubmittable rejects conditions the calculator deliberately lets pass
// during editing. Negative discounted prices are reported, not clamped, so
// data-entry mistakes surface instead of being hidden.
func CheckSubmittable(doc *Document) error {
	for i := range doc.Lines {
		line := &doc.Lines[i]
		if line.PriceAfterDiscount.IsNegative() {
			return fmt.Errorf("line %s: %w (unit price %s, discount %s)",
				line.ItemCode, ErrNegativePrice, line.UnitPrice, line.Discount)
		}
		if line.AllowedQuantity > 0 && line.Quantity > line.AllowedQuantity {
			return fmt.Errorf("line %s: %w (quantity %g, allowed %g)",
				line.ItemCode, ErrQuantityExceedsAllowed, line.Quantity, line.AllowedQuantity)
		}
	}
	return nil
}

func coerceNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		// ParseFloat accepts "nan" and "inf"; neither is a quantity.
		return 0
	}
	return v
}

func coerceAmount(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func coerceTaxOption(s string) TaxOption {
	if TaxOption(strings.ToUpper(strings.TrimSpace(s))) == TaxOptionIGST {
		return TaxOptionIGST
	}
	return TaxOptionGST
}

func coerceManagedBy(s string) ManagedBy {
	switch ManagedBy(strings.ToUpper(strings.TrimSpace(s))) {
	case ManagedByBatch:
		return ManagedByBatch
	case ManagedBySerial:
		return ManagedBySerial
	default:
		return ManagedByNone
	}
}

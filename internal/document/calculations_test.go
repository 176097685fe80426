package document

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func requireAmount(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.True(t, got.Equal(decimal.RequireFromString(want)),
		"want %s, got %s", want, got)
}

func gstLine() LineItem {
	return LineItem{
		ItemRef:   "ITM-1",
		ItemCode:  "WIDGET",
		Quantity:  10,
		UnitPrice: decimal.NewFromInt(100),
		Discount:  decimal.NewFromInt(10),
		Freight:   decimal.NewFromInt(5),
		TaxOption: TaxOptionGST,
		GSTRate:   18,
	}
}

func TestRecalculateGSTSplit(t *testing.T) {
	line := gstLine()
	Recalculate(&line)

	requireAmount(t, "90", line.PriceAfterDiscount)
	requireAmount(t, "905", line.TotalAmount)
	requireAmount(t, "81.45", line.CGSTAmount)
	requireAmount(t, "81.45", line.SGSTAmount)
	requireAmount(t, "162.90", line.GSTAmount)
	requireAmount(t, "0", line.IGSTAmount)
}

func TestRecalculateIGSTFallbackToGSTRate(t *testing.T) {
	line := gstLine()
	line.TaxOption = TaxOptionIGST
	line.IGSTRate = 0
	Recalculate(&line)

	requireAmount(t, "162.90", line.IGSTAmount)
	requireAmount(t, "162.90", line.GSTAmount)
	requireAmount(t, "0", line.CGSTAmount)
	requireAmount(t, "0", line.SGSTAmount)
}

func TestRecalculateIGSTOwnRate(t *testing.T) {
	line := gstLine()
	line.TaxOption = TaxOptionIGST
	line.IGSTRate = 12
	Recalculate(&line)

	requireAmount(t, "108.60", line.IGSTAmount)
	requireAmount(t, "0", line.CGSTAmount)
	requireAmount(t, "0", line.SGSTAmount)
}

func TestRecalculateNegativePricePassesThrough(t *testing.T) {
	line := gstLine()
	line.Discount = decimal.NewFromInt(150)
	Recalculate(&line)

	requireAmount(t, "-50", line.PriceAfterDiscount)
	requireAmount(t, "-495", line.TotalAmount)
}

func TestRecalculateIdempotent(t *testing.T) {
	a := gstLine()
	b := gstLine()
	Recalculate(&a)
	Recalculate(&b)
	Recalculate(&b)

	require.True(t, a.TotalAmount.Equal(b.TotalAmount))
	require.True(t, a.CGSTAmount.Equal(b.CGSTAmount))
	require.True(t, a.SGSTAmount.Equal(b.SGSTAmount))
	require.True(t, a.GSTAmount.Equal(b.GSTAmount))
	require.True(t, a.IGSTAmount.Equal(b.IGSTAmount))
}

func TestTaxModeExclusivity(t *testing.T) {
	gst := gstLine()
	Recalculate(&gst)
	require.True(t, gst.IGSTAmount.IsZero())
	require.False(t, gst.CGSTAmount.IsZero())

	igst := gstLine()
	igst.TaxOption = TaxOptionIGST
	Recalculate(&igst)
	require.True(t, igst.CGSTAmount.IsZero())
	require.True(t, igst.SGSTAmount.IsZero())
	require.False(t, igst.IGSTAmount.IsZero())
}

func TestCGSTSGSTSymmetryOddRate(t *testing.T) {
	line := gstLine()
	line.GSTRate = 5 // half rate 2.5, exercises the non-integer split
	Recalculate(&line)

	require.True(t, line.CGSTAmount.Equal(line.SGSTAmount))
	requireAmount(t, "22.63", line.CGSTAmount) // 905 * 2.5% = 22.625 -> 22.63
	requireAmount(t, "45.26", line.GSTAmount)
}

func TestRoundingClosureAcrossLines(t *testing.T) {
	doc := Document{Type: DocTypeSalesInvoice}
	prices := []string{"33.33", "0.07", "199.99", "12.345", "7.77"}
	for _, p := range prices {
		doc.Lines = append(doc.Lines, LineItem{
			ItemCode:  "ITM-" + p,
			Quantity:  3,
			UnitPrice: decimal.RequireFromString(p),
			Discount:  decimal.RequireFromString("0.01"),
			TaxOption: TaxOptionGST,
			GSTRate:   18,
		})
	}
	RecalculateDocument(&doc)

	// Summing the independently rounded per-line totals must land on the
	// document subtotal exactly, with no drift from rounding order.
	sum := decimal.Zero
	for i := range doc.Lines {
		fresh := doc.Lines[i]
		Recalculate(&fresh)
		sum = sum.Add(fresh.TotalAmount)
	}
	require.True(t, sum.Equal(doc.TotalBeforeDiscount),
		"sum %s, subtotal %s", sum, doc.TotalBeforeDiscount)
}

func TestRecalculateDocumentTotals(t *testing.T) {
	doc := Document{
		Type:     DocTypeSalesInvoice,
		Freight:  decimal.NewFromInt(20),
		Rounding: decimal.RequireFromString("-0.35"),
	}
	gst := gstLine()
	igst := gstLine()
	igst.TaxOption = TaxOptionIGST
	igst.IGSTRate = 12
	doc.Lines = []LineItem{gst, igst}

	RecalculateDocument(&doc)

	requireAmount(t, "1810", doc.TotalBeforeDiscount)
	// 162.90 GST + 108.60 IGST
	requireAmount(t, "271.50", doc.GSTTotal)
	// 1810 + 271.50 + 20 - 0.35
	requireAmount(t, "2101.15", doc.GrandTotal)
}

func TestLineItemInputCoercion(t *testing.T) {
	in := LineItemInput{
		ItemRef:   "ITM-1",
		ItemCode:  "WIDGET",
		Quantity:  "10",
		UnitPrice: "100",
		Discount:  "10",
		Freight:   "5",
		TaxOption: "gst",
		GSTRate:   "18",
	}
	line := in.ToLineItem()

	require.Equal(t, TaxOptionGST, line.TaxOption)
	require.Equal(t, ManagedByNone, line.ManagedBy)
	requireAmount(t, "905", line.TotalAmount)
}

func TestLineItemInputCoercesGarbageToZero(t *testing.T) {
	in := LineItemInput{
		ItemRef:   "ITM-1",
		ItemCode:  "WIDGET",
		Quantity:  "1e", // half-typed exponent
		UnitPrice: "",
		Discount:  "abc",
		GSTRate:   " ",
		TaxOption: "???",
	}
	line := in.ToLineItem()

	require.Equal(t, float64(0), line.Quantity)
	require.True(t, line.UnitPrice.IsZero())
	require.True(t, line.Discount.IsZero())
	require.Equal(t, TaxOptionGST, line.TaxOption)
	require.True(t, line.TotalAmount.IsZero())
}

func TestLineItemInputCoercesNonFiniteToZero(t *testing.T) {
	// ParseFloat accepts these spellings; they must coerce to zero instead
	// of reaching the calculator, which cannot represent them.
	for _, s := range []string{"inf", "+Inf", "-inf", "Infinity", "nan", "NaN"} {
		in := LineItemInput{
			ItemRef:   "ITM-1",
			ItemCode:  "WIDGET",
			Quantity:  s,
			UnitPrice: "100",
			GSTRate:   s,
			IGSTRate:  s,
			TaxOption: "igst",
		}
		var line LineItem
		require.NotPanics(t, func() { line = in.ToLineItem() }, "input %q", s)
		require.Equal(t, float64(0), line.Quantity, "input %q", s)
		require.Equal(t, float64(0), line.GSTRate, "input %q", s)
		require.Equal(t, float64(0), line.IGSTRate, "input %q", s)
		require.True(t, line.TotalAmount.IsZero(), "input %q", s)
	}
}

func TestDocumentInputValidate(t *testing.T) {
	in := DocumentInput{
		Type:     string(DocTypeCreditMemo),
		PartyRef: "CUST-1",
		Lines: []LineItemInput{
			{ItemRef: "ITM-1", ItemCode: "WIDGET"},
		},
	}
	require.NoError(t, in.Validate())
}

func TestDocumentInputValidateRejectsEmptyLines(t *testing.T) {
	in := DocumentInput{Type: string(DocTypeCreditMemo), PartyRef: "CUST-1"}
	require.Error(t, in.Validate())
}

func TestDocumentInputValidateRejectsUnknownType(t *testing.T) {
	in := DocumentInput{
		Type:     "QUOTE",
		PartyRef: "CUST-1",
		Lines:    []LineItemInput{{ItemRef: "ITM-1", ItemCode: "WIDGET"}},
	}
	err := in.Validate()
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInvalidDocType)
}

func TestCheckSubmittableRejectsNegativePrice(t *testing.T) {
	doc := Document{Type: DocTypeSalesInvoice}
	line := gstLine()
	line.Discount = decimal.NewFromInt(150)
	doc.Lines = []LineItem{line}
	RecalculateDocument(&doc)

	err := CheckSubmittable(&doc)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrNegativePrice)
	require.Contains(t, err.Error(), "WIDGET")
}

func TestCheckSubmittableRejectsQuantityOverAllowed(t *testing.T) {
	doc := Document{Type: DocTypeCreditMemo}
	line := gstLine()
	line.Quantity = 12
	line.AllowedQuantity = 10
	doc.Lines = []LineItem{line}
	RecalculateDocument(&doc)

	err := CheckSubmittable(&doc)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrQuantityExceedsAllowed)
	require.Contains(t, err.Error(), "WIDGET")
}

func TestCheckSubmittableZeroAllowedIsUnconstrained(t *testing.T) {
	doc := Document{Type: DocTypeCreditMemo}
	line := gstLine()
	line.Quantity = 1000
	line.AllowedQuantity = 0
	doc.Lines = []LineItem{line}
	RecalculateDocument(&doc)

	require.NoError(t, CheckSubmittable(&doc))
}

func TestCheckSubmittableAcceptsZeroPrice(t *testing.T) {
	doc := Document{Type: DocTypeSalesInvoice}
	line := gstLine()
	line.Discount = line.UnitPrice
	doc.Lines = []LineItem{line}
	RecalculateDocument(&doc)

	require.NoError(t, CheckSubmittable(&doc))
}

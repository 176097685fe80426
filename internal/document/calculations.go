package document

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Recalculate derives a line's monetary fields from its current editable
// inputs. It must run after every change to quantity, unit price, discount,
// freight, tax option or either tax rate; a line whose derived fields were
// not recomputed from current inputs is stale and must not be persisted.
//
// Every monetary output is rounded to 2 decimal places here, at the point of
// computation, so sums across lines are exact to the cent regardless of how
// the caller displays them.
func Recalculate(line *LineItem) {
	pad := line.UnitPrice.Sub(line.Discount).Round(2)
	qty := decimal.NewFromFloat(line.Quantity)
	total := qty.Mul(pad).Add(line.Freight).Round(2)

	line.PriceAfterDiscount = pad
	line.TotalAmount = total

	switch line.TaxOption {
	case TaxOptionIGST:
		// A line switched from GST to IGST keeps its effective rate when no
		// IGST rate was entered yet.
		rate := line.IGSTRate
		if rate == 0 {
			rate = line.GSTRate
		}
		igst := total.Mul(decimal.NewFromFloat(rate)).Div(hundred).Round(2)
		line.IGSTAmount = igst
		line.CGSTAmount = decimal.Zero
		line.SGSTAmount = decimal.Zero
		line.GSTAmount = igst
	default:
		half := decimal.NewFromFloat(line.GSTRate).Div(decimal.NewFromInt(2))
		cgst := total.Mul(half).Div(hundred).Round(2)
		line.CGSTAmount = cgst
		line.SGSTAmount = cgst
		line.GSTAmount = cgst.Add(cgst)
		line.IGSTAmount = decimal.Zero
	}
}

// RecalculateDocument recomputes every line of the document and then the
// header aggregates from the freshly rounded per-line amounts.
func RecalculateDocument(doc *Document) {
	subtotal := decimal.Zero
	gstTotal := decimal.Zero
	for i := range doc.Lines {
		line := &doc.Lines[i]
		Recalculate(line)
		subtotal = subtotal.Add(line.TotalAmount)
		if line.TaxOption == TaxOptionIGST {
			gstTotal = gstTotal.Add(line.IGSTAmount)
		} else {
			gstTotal = gstTotal.Add(line.GSTAmount)
		}
	}
	doc.TotalBeforeDiscount = subtotal
	doc.GSTTotal = gstTotal
	doc.GrandTotal = subtotal.Add(gstTotal).Add(doc.Freight).Add(doc.Rounding)
}

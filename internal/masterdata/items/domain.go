package items

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/document"
)

// Item is the master-data record for a sellable or purchasable item.
type Item struct {
	Ref              string
	Code             string
	Name             string
	ManagedBy        document.ManagedBy
	DefaultWarehouse string
	UnitPrice        decimal.Decimal
	TaxOption        document.TaxOption
	GSTRate          float64
	IGSTRate         float64
}

// ErrItemNotFound indicates an unknown item reference.
var ErrItemNotFound = errors.New("items: item not found")

package items

import (
	"context"
	"fmt"

	"github.com/meridian-erp/meridian-erp/internal/document"
)

// LookupPort defines the item master lookup the engine requires from its
// surrounding application.
type LookupPort interface {
	GetItem(ctx context.Context, ref string) (*Item, error)
}

// Service seeds new line items from master data.
type Service struct {
	repo LookupPort
}

// NewService builds a Service instance.
func NewService(repo LookupPort) *Service {
	return &Service{repo: repo}
}

// SeedLineItem builds a fresh LineItem for a just-selected item, carrying the
// master defaults for warehouse, price, tax mode and stock tracking. The
// quantity starts at zero; derived fields are computed immediately so the row
// is never in a half-initialized state.
func (s *Service) SeedLineItem(ctx context.Context, ref string) (document.LineItem, error) {
	item, err := s.repo.GetItem(ctx, ref)
	if err != nil {
		return document.LineItem{}, fmt.Errorf("seed line item: %w", err)
	}

	line := document.LineItem{
		ItemRef:      item.Ref,
		ItemCode:     item.Code,
		ItemName:     item.Name,
		WarehouseRef: item.DefaultWarehouse,
		UnitPrice:    item.UnitPrice,
		TaxOption:    item.TaxOption,
		GSTRate:      item.GSTRate,
		IGSTRate:     item.IGSTRate,
		ManagedBy:    item.ManagedBy,
	}
	if line.TaxOption == "" {
		line.TaxOption = document.TaxOptionGST
	}
	if line.ManagedBy == "" {
		line.ManagedBy = document.ManagedByNone
	}
	document.Recalculate(&line)
	return line, nil
}

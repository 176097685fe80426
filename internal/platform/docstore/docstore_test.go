package docstore

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/document"
)

func testDocument() *document.Document {
	doc := &document.Document{
		ID:       "SI-42",
		Type:     document.DocTypeSalesInvoice,
		Number:   "SI-042",
		PartyRef: "CUST-1",
		Status:   document.StatusIssued,
		Lines: []document.LineItem{
			{
				ItemRef:   "ITM-1",
				ItemCode:  "WIDGET",
				Quantity:  10,
				UnitPrice: decimal.NewFromInt(100),
				Discount:  decimal.NewFromInt(10),
				Freight:   decimal.NewFromInt(5),
				TaxOption: document.TaxOptionGST,
				GSTRate:   18,
			},
		},
	}
	document.RecalculateDocument(doc)
	return doc
}

func newTestRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisWithClient(client, "meridian:doc:")
}

func TestRedisStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestRedisStore(t)

	doc := testDocument()
	require.NoError(t, store.Update(ctx, doc.ID, doc))

	loaded, err := store.Get(ctx, doc.ID)
	require.NoError(t, err)
	require.Equal(t, doc.ID, loaded.ID)
	require.Equal(t, document.StatusIssued, loaded.Status)
	require.Len(t, loaded.Lines, 1)
	require.True(t, loaded.Lines[0].TotalAmount.Equal(decimal.NewFromInt(905)))
}

func TestRedisStoreNotFound(t *testing.T) {
	store := newTestRedisStore(t)

	_, err := store.Get(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStoreRecomputesDerivedFieldsOnLoad(t *testing.T) {
	ctx := context.Background()
	store := newTestRedisStore(t)

	// Persist a document whose stored derived fields were tampered with.
	doc := testDocument()
	require.NoError(t, store.Update(ctx, doc.ID, doc))
	tampered := testDocument()
	tampered.Lines[0].TotalAmount = decimal.NewFromInt(1)
	data := mustJSON(t, tampered)
	require.NoError(t, store.client.Set(ctx, "meridian:doc:"+doc.ID, data, 0).Err())

	loaded, err := store.Get(ctx, doc.ID)
	require.NoError(t, err)
	require.True(t, loaded.Lines[0].TotalAmount.Equal(decimal.NewFromInt(905)),
		"derived fields must come from recomputation, not storage")
}

func mustJSON(t *testing.T, doc *document.Document) []byte {
	t.Helper()
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	return data
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	doc := testDocument()
	require.NoError(t, store.Update(ctx, doc.ID, doc))

	loaded, err := store.Get(ctx, doc.ID)
	require.NoError(t, err)
	require.True(t, loaded.GrandTotal.Equal(doc.GrandTotal))

	// Mutating the loaded copy must not leak back into the store.
	loaded.Lines[0].CreditedQuantity = 99
	again, err := store.Get(ctx, doc.ID)
	require.NoError(t, err)
	require.Equal(t, 0.0, again.Lines[0].CreditedQuantity)
}

func TestMemoryStoreNotFound(t *testing.T) {
	_, err := NewMemory().Get(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

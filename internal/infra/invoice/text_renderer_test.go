package invoice

import (
	"testing"
	"time"

	"bookstore/internal/domain/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextRenderer_RenderInvoice(t *testing.T) {
	o := model.Order{
		OrderNumber:     "ORD-01J0",
		OrderedAt:       time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC),
		TotalAmount:     decimal.RequireFromString("22.50"),
		Discount:        decimal.RequireFromString("2.50"),
		PromoCode:       "SAVE10",
		ShippingAddress: "1 High St, London",
		PaymentMethod:   model.PaymentMethodCOD,
		Status:          model.OrderStatusNewOrder,
	}
	items := []model.OrderItem{
		{BookTitle: "Dune", Quantity: 2, UnitPrice: decimal.RequireFromString("10.00")},
		{BookTitle: "Emma", Quantity: 1, UnitPrice: decimal.RequireFromString("5.00")},
	}

	doc, err := NewTextRenderer("").RenderInvoice(o, items)
	require.NoError(t, err)

	assert.Equal(t, "invoice-ORD-01J0.txt", doc.Filename)
	assert.Equal(t, "text/plain; charset=utf-8", doc.ContentType)
	body := string(doc.Body)
	assert.Contains(t, body, "Dream Books Library")
	assert.Contains(t, body, "Date:     2024-06-01")
	assert.Contains(t, body, "Subtotal: £25.00")
	assert.Contains(t, body, "Discount (SAVE10): -£2.50")
	assert.Contains(t, body, "Total:    £22.50")
	assert.Contains(t, body, "£20.00")
}

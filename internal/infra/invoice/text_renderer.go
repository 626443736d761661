package invoice

import (
	"bytes"
	"fmt"
	"text/tabwriter"

	"bookstore/internal/domain/model"
	"bookstore/internal/usecase"

	"github.com/shopspring/decimal"
)

// TextRenderer produces a plain-text invoice.
type TextRenderer struct {
	shopName string
}

func NewTextRenderer(shopName string) *TextRenderer {
	if shopName == "" {
		shopName = "Dream Books Library"
	}
	return &TextRenderer{shopName: shopName}
}

func (r *TextRenderer) RenderInvoice(o model.Order, items []model.OrderItem) (usecase.Document, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "%s\nINVOICE\n\n", r.shopName)
	fmt.Fprintf(&buf, "Order:    %s\n", o.OrderNumber)
	fmt.Fprintf(&buf, "Date:     %s\n", o.OrderedAt.UTC().Format("2006-01-02"))
	fmt.Fprintf(&buf, "Payment:  %s\n", o.PaymentMethod)
	fmt.Fprintf(&buf, "Status:   %s\n", o.Status)
	fmt.Fprintf(&buf, "Ship to:  %s\n\n", o.ShippingAddress)

	tw := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Item\tQty\tUnit\tTotal\t")
	subtotal := decimal.Zero
	for _, it := range items {
		line := it.LineTotal()
		subtotal = subtotal.Add(line)
		fmt.Fprintf(tw, "%s\t%d\t£%s\t£%s\t\n", it.BookTitle, it.Quantity, it.UnitPrice.StringFixed(2), line.StringFixed(2))
	}
	if err := tw.Flush(); err != nil {
		return usecase.Document{}, fmt.Errorf("render invoice lines: %w", err)
	}

	fmt.Fprintf(&buf, "\nSubtotal: £%s\n", subtotal.StringFixed(2))
	if o.Discount.IsPositive() {
		fmt.Fprintf(&buf, "Discount (%s): -£%s\n", o.PromoCode, o.Discount.StringFixed(2))
	}
	fmt.Fprintf(&buf, "Total:    £%s\n", o.TotalAmount.StringFixed(2))

	return usecase.Document{
		Filename:    fmt.Sprintf("invoice-%s.txt", o.OrderNumber),
		ContentType: "text/plain; charset=utf-8",
		Body:        buf.Bytes(),
	}, nil
}

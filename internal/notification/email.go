package notification

import (
	"context"
	"fmt"
	"html"
	"strings"

	"bookstore/internal/domain/model"

	"github.com/microcosm-cc/bluemonday"
)

type Email struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

type Mailer interface {
	Send(ctx context.Context, e Email) error
}

var emailPolicy = newEmailPolicy()

func newEmailPolicy() *bluemonday.Policy {
	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("align").OnElements("td", "th")
	policy.RequireNoFollowOnLinks(true)
	return policy
}

func greeting(u model.User) string {
	if name := strings.TrimSpace(u.FullName); name != "" {
		return "Hi " + name + ","
	}
	return "Hi,"
}

// OrderCreatedEmail lists what was bought. Book titles and the address come
// from user-editable data and are escaped before the policy pass.
func OrderCreatedEmail(u model.User, o model.Order, items []model.OrderItem) Email {
	var rows, text strings.Builder
	for _, it := range items {
		fmt.Fprintf(&rows, `<tr><td>%s</td><td align="right">%d</td><td align="right">£%s</td></tr>`,
			html.EscapeString(it.BookTitle), it.Quantity, it.LineTotal().StringFixed(2))
		fmt.Fprintf(&text, "- %s x%d £%s\n", it.BookTitle, it.Quantity, it.LineTotal().StringFixed(2))
	}

	var discount string
	if o.Discount.IsPositive() {
		discount = fmt.Sprintf("<p>Discount (%s): -£%s</p>", html.EscapeString(o.PromoCode), o.Discount.StringFixed(2))
	}

	body := fmt.Sprintf(`<p>%s</p>
<h2>Thank you for your order!</h2>
<p>We've received your order and it's being processed.</p>
<p>Order number: <b>%s</b></p>
<table>
<thead><tr><th>Item</th><th>Qty</th><th>Price</th></tr></thead>
<tbody>%s</tbody>
</table>
%s<p>Total: <b>£%s</b></p>
<p>Shipping to: %s</p>
<p><a href="%s">%s</a></p>`,
		html.EscapeString(greeting(u)),
		html.EscapeString(o.OrderNumber),
		rows.String(),
		discount,
		o.TotalAmount.StringFixed(2),
		html.EscapeString(o.ShippingAddress),
		trackingURL, actionText,
	)

	return Email{
		To:      u.Email,
		Subject: "Order Confirmed: " + o.OrderNumber,
		HTML:    emailPolicy.Sanitize(body),
		Text: fmt.Sprintf("%s\n\nThank you for your order!\nWe've received your order and it's being processed.\n\nOrder number: %s\n%sTotal: £%s\n",
			greeting(u), o.OrderNumber, text.String(), o.TotalAmount.StringFixed(2)),
	}
}

func StatusEmail(u model.User, o model.Order) Email {
	c := statusCopy(o.Status)
	body := fmt.Sprintf(`<p>%s</p>
<h2>Order Update</h2>
<p>Your order status is now <b>%s</b>.</p>
<p>%s</p>
<p>Order number: <b>%s</b></p>
<p><a href="%s">%s</a></p>`,
		html.EscapeString(greeting(u)),
		html.EscapeString(string(o.Status)),
		html.EscapeString(c.message),
		html.EscapeString(o.OrderNumber),
		trackingURL, actionText,
	)

	return Email{
		To:      u.Email,
		Subject: "Order Status Updated: " + o.OrderNumber,
		HTML:    emailPolicy.Sanitize(body),
		Text:    fmt.Sprintf("%s\n\nYour order status is now %s.\n%s\n", greeting(u), o.Status, c.message),
	}
}

func GenericEmail(u model.User, n model.Notification) Email {
	body := fmt.Sprintf("<p>%s</p>\n<h2>%s</h2>\n<p>%s</p>",
		html.EscapeString(greeting(u)), html.EscapeString(n.Title), html.EscapeString(n.Message))
	return Email{
		To:      u.Email,
		Subject: n.Title,
		HTML:    emailPolicy.Sanitize(body),
		Text:    fmt.Sprintf("%s\n\n%s\n", greeting(u), n.Message),
	}
}

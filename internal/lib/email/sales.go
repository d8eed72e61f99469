package email

import (
	"context"
	"fmt"
)

// SaleChangedData is the template data of a sale change notification.
type SaleChangedData struct {
	Action       string
	SaleID       int64
	Manufacturer string
	Model        string
	Price        string
	OccurredAt   string
}

// SaleChangedSubject is the subject line for a sale change notification.
func SaleChangedSubject(data SaleChangedData) string {
	return fmt.Sprintf("Sale #%d %s", data.SaleID, data.Action)
}

// SendSaleChangedEmail notifies to that a listing was created, updated or
// deleted.
func (c *Client) SendSaleChangedEmail(ctx context.Context, to string, data SaleChangedData) error {
	return c.SendEmail(ctx, to, SaleChangedSubject(data), TemplateSaleChanged, data)
}

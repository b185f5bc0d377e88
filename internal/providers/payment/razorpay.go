// Package payment adapts payment providers to donation.Gateway.
package payment

import (
	"context"
	"fmt"
	"strings"

	razorpay "github.com/razorpay/razorpay-go"
	"github.com/razorpay/razorpay-go/utils"

	"impacthub/internal/domain"
	"impacthub/internal/donation"
)

// orderAPI is the slice of the Razorpay SDK used for orders.
type orderAPI interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

// Razorpay implements donation.Gateway on the Razorpay Orders API.
type Razorpay struct {
	keyID  string
	secret string
	orders orderAPI
}

func NewRazorpay(keyID, secret string) *Razorpay {
	client := razorpay.NewClient(keyID, secret)
	return &Razorpay{keyID: keyID, secret: secret, orders: client.Order}
}

func (r *Razorpay) PublicKey() string { return r.keyID }

func (r *Razorpay) CreateOrder(ctx context.Context, req donation.OrderRequest) (donation.Order, error) {
	if r.keyID == "" || r.secret == "" {
		return donation.Order{}, fmt.Errorf("razorpay credentials are not configured")
	}
	if err := ctx.Err(); err != nil {
		return donation.Order{}, err
	}

	data := map[string]interface{}{
		"amount":          req.AmountMinor,
		"currency":        req.Currency,
		"payment_capture": 1,
	}
	if req.Receipt != "" {
		data["receipt"] = req.Receipt
	}
	if len(req.Notes) > 0 {
		notes := make(map[string]interface{}, len(req.Notes))
		for k, v := range req.Notes {
			notes[k] = v
		}
		data["notes"] = notes
	}

	body, err := r.orders.Create(data, nil)
	if err != nil {
		return donation.Order{}, fmt.Errorf("razorpay order create: %w", err)
	}

	id, _ := body["id"].(string)
	if strings.TrimSpace(id) == "" {
		return donation.Order{}, fmt.Errorf("razorpay order create: response without id")
	}
	order := donation.Order{ID: id, AmountMinor: req.AmountMinor, Currency: req.Currency}
	if amt, ok := body["amount"].(float64); ok {
		order.AmountMinor = int64(amt)
	}
	if cur, ok := body["currency"].(string); ok && cur != "" {
		order.Currency = cur
	}
	return order, nil
}

// VerifySignature checks the HMAC-SHA256 of "order_id|payment_id" keyed by
// the API secret.
func (r *Razorpay) VerifySignature(orderID, paymentID, signature string) error {
	if orderID == "" || paymentID == "" || signature == "" || r.secret == "" {
		return domain.ErrSignatureMismatch
	}
	params := map[string]interface{}{
		"razorpay_order_id":   orderID,
		"razorpay_payment_id": paymentID,
	}
	if !utils.VerifyPaymentSignature(params, signature, r.secret) {
		return domain.ErrSignatureMismatch
	}
	return nil
}

var _ donation.Gateway = (*Razorpay)(nil)

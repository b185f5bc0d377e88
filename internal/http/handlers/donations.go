package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"impacthub/internal/domain"
	"impacthub/internal/middleware"
)

type createOrderRequest struct {
	ProjectID string          `json:"project_id"`
	Project   string          `json:"project"`
	Amount    json.RawMessage `json:"amount"`
}

type createOrderResponse struct {
	OrderID     string `json:"order_id"`
	RazorpayKey string `json:"razorpay_key"`
	DonationID  string `json:"donation_id"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
}

type verifyPaymentRequest struct {
	DonationID        string `json:"donation_id"`
	RazorpayOrderID   string `json:"razorpay_order_id"`
	RazorpayPaymentID string `json:"razorpay_payment_id"`
	RazorpaySignature string `json:"razorpay_signature"`
}

type donationDTO struct {
	ID           string    `json:"id"`
	Project      string    `json:"project"`
	ProjectTitle string    `json:"project_title"`
	Amount       string    `json:"amount"`
	Status       string    `json:"status"`
	OrderID      *string   `json:"order_id"`
	PaymentID    *string   `json:"payment_id"`
	CreatedAt    time.Time `json:"created_at"`
}

var (
	errAmountMissing = errors.New("amount missing")
	errAmountFormat  = errors.New("amount must be a plain decimal")
)

const maxAmountLen = 32

// parseAmount accepts a JSON number or a numeric string in plain decimal
// notation.
func parseAmount(raw json.RawMessage) (decimal.Decimal, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return decimal.Zero, errAmountMissing
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(raw, &str); err != nil {
			return decimal.Zero, err
		}
		s = strings.TrimSpace(str)
		if s == "" {
			return decimal.Zero, errAmountMissing
		}
	}
	if len(s) > maxAmountLen || strings.ContainsAny(s, "eE") {
		return decimal.Zero, errAmountFormat
	}
	return decimal.NewFromString(s)
}

func (a *App) DonationsCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if !a.decode(w, r, &req) {
		return
	}
	projectID := strings.TrimSpace(req.ProjectID)
	if projectID == "" {
		projectID = strings.TrimSpace(req.Project)
	}
	amount, err := parseAmount(req.Amount)
	if projectID == "" || errors.Is(err, errAmountMissing) {
		a.error(w, http.StatusBadRequest, "invalid_request", "Project and amount required.")
		return
	}
	if err != nil {
		a.error(w, http.StatusBadRequest, "invalid_request", "Invalid amount.")
		return
	}
	if !validUUID(projectID) {
		a.error(w, http.StatusNotFound, "not_found", "Project not found.")
		return
	}
	country := middleware.CountryFromContext(r.Context())
	checkout, err := a.Donations.CreateOrder(r.Context(), a.currentUserID(r), projectID, amount, country)
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			a.error(w, http.StatusBadRequest, "invalid_request", verr.Message)
			return
		}
		a.fail(w, r, err, "Project not found.")
		return
	}
	a.json(w, http.StatusOK, createOrderResponse{
		OrderID:     checkout.OrderID,
		RazorpayKey: checkout.GatewayKey,
		DonationID:  checkout.DonationID,
		Amount:      checkout.AmountMinor,
		Currency:    checkout.Currency,
	})
}

func (a *App) DonationsVerifyPayment(w http.ResponseWriter, r *http.Request) {
	var req verifyPaymentRequest
	if !a.decode(w, r, &req) {
		return
	}
	donationID := strings.TrimSpace(req.DonationID)
	if !validUUID(donationID) {
		a.error(w, http.StatusNotFound, "not_found", "Donation not found.")
		return
	}
	_, err := a.Donations.VerifyPayment(r.Context(), donationID,
		strings.TrimSpace(req.RazorpayOrderID),
		strings.TrimSpace(req.RazorpayPaymentID),
		strings.TrimSpace(req.RazorpaySignature))
	switch {
	case err == nil:
		a.json(w, http.StatusOK, map[string]string{"status": "success"})
	case errors.Is(err, domain.ErrSignatureMismatch):
		a.json(w, http.StatusBadRequest, map[string]string{"status": "failed", "error": "Signature verification failed."})
	default:
		a.fail(w, r, err, "Donation not found.")
	}
}

func (a *App) DonationsMine(w http.ResponseWriter, r *http.Request) {
	items, err := a.Donations.ListMine(r.Context(), a.currentUserID(r))
	if err != nil {
		a.fail(w, r, err, "")
		return
	}
	out := make([]donationDTO, 0, len(items))
	for _, d := range items {
		out = append(out, donationDTO{
			ID:           d.ID,
			Project:      d.ProjectID,
			ProjectTitle: d.ProjectTitle,
			Amount:       d.Amount.StringFixed(2),
			Status:       string(d.Status),
			OrderID:      d.OrderID,
			PaymentID:    d.PaymentID,
			CreatedAt:    d.CreatedAt,
		})
	}
	a.json(w, http.StatusOK, out)
}

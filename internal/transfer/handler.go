package transfer

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes the transfer engine over HTTP. It is the single boundary
// where terminal errors become {success:false, message} responses; no raw
// failure propagates to the caller.
type Handler struct {
	service *Service
}

// NewHandler builds the transfer HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type transferRequest struct {
	FromWalletID  string  `json:"from_wallet_id"`
	ToWalletID    string  `json:"to_wallet_id"`
	ToPhoneNumber string  `json:"to_phone_number"`
	Amount        float64 `json:"amount"`
}

// Transfer handles POST /transfers.
func (h *Handler) Transfer(c *fiber.Ctx) error {
	var req transferRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "invalid request body"})
	}

	result, err := h.service.Transfer(c.UserContext(), TransferInput{
		FromWalletID: req.FromWalletID,
		ToWalletID:   req.ToWalletID,
		ToPhone:      req.ToPhoneNumber,
		Amount:       req.Amount,
	})
	if err != nil {
		return c.Status(statusFor(err)).JSON(fiber.Map{"success": false, "message": err.Error()})
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"success":        true,
		"transaction_id": result.TransactionID,
		"message":        "Transfer successful",
	})
}

// Balance handles GET /wallets/:walletId/balance.
func (h *Handler) Balance(c *fiber.Ctx) error {
	entry, err := h.service.Balance(c.UserContext(), c.Params("walletId"))
	if err != nil {
		return c.Status(statusFor(err)).JSON(fiber.Map{"success": false, "message": err.Error()})
	}
	return c.Status(http.StatusOK).JSON(entry)
}

// Transactions handles GET /wallets/:walletId/transactions.
func (h *Handler) Transactions(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	txns, err := h.service.TransactionHistory(c.UserContext(), c.Params("walletId"), limit)
	if err != nil {
		return c.Status(statusFor(err)).JSON(fiber.Map{"success": false, "message": err.Error()})
	}

	out := make([]fiber.Map, len(txns))
	for i, t := range txns {
		out[i] = fiber.Map{
			"transaction_id": t.ID,
			"from_wallet_id": t.FromWalletID,
			"to_wallet_id":   t.ToWalletID,
			"amount":         t.Amount,
			"status":         string(t.Status),
			"timestamp":      t.Timestamp,
		}
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"transactions": out})
}

// Conversions handles GET /wallets/:walletId/conversions.
func (h *Handler) Conversions(c *fiber.Ctx) error {
	recs, err := h.service.ConversionHistory(c.UserContext(), c.Params("walletId"))
	if err != nil {
		return c.Status(statusFor(err)).JSON(fiber.Map{"success": false, "message": err.Error()})
	}

	out := make([]fiber.Map, len(recs))
	for i, r := range recs {
		out[i] = fiber.Map{
			"id":               r.ID,
			"transaction_id":   r.TransactionID,
			"from_currency":    r.FromCurrency.String(),
			"to_currency":      r.ToCurrency.String(),
			"rate":             r.Rate,
			"converted_amount": r.ConvertedAmount,
			"timestamp":        r.Timestamp,
		}
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"conversions": out})
}

type createWalletRequest struct {
	UserID   string `json:"user_id"`
	Currency string `json:"currency"`
}

// CreateWallet handles POST /wallets.
func (h *Handler) CreateWallet(c *fiber.Ctx) error {
	var req createWalletRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "invalid request body"})
	}
	w, err := h.service.CreateWallet(c.UserContext(), req.UserID, req.Currency)
	if err != nil {
		return c.Status(statusFor(err)).JSON(fiber.Map{"success": false, "message": err.Error()})
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"wallet_id": w.ID,
		"user_id":   w.UserID,
		"currency":  w.Currency.String(),
		"balance":   w.Balance,
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrRecipientRequired),
		errors.Is(err, ErrSameWallet), errors.Is(err, ErrUnsupportedCurrency):
		return http.StatusBadRequest
	case errors.Is(err, ErrRecipientNotFound), errors.Is(err, ErrWalletNotFound),
		errors.Is(err, ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrWalletBusy):
		return http.StatusConflict
	case errors.Is(err, ErrInsufficientFunds):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrComplianceDenied):
		return http.StatusForbidden
	case errors.Is(err, ErrComplianceUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

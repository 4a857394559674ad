package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/orbitpay/orbitpay/internal/transfer"
)

// RegisterTransferRoutes wires the money movement endpoint.
func RegisterTransferRoutes(router fiber.Router, h *transfer.Handler) {
	router.Post("/transfers", h.Transfer)
}

// RegisterWalletRoutes wires wallet provisioning and the read endpoints.
func RegisterWalletRoutes(router fiber.Router, h *transfer.Handler) {
	router.Post("/wallets", h.CreateWallet)
	router.Get("/wallets/:walletId/balance", h.Balance)
	router.Get("/wallets/:walletId/transactions", h.Transactions)
	router.Get("/wallets/:walletId/conversions", h.Conversions)
}

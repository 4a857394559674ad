package transfer

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/orbitpay/orbitpay/internal/currency"
	"github.com/orbitpay/orbitpay/internal/identity"
	"github.com/orbitpay/orbitpay/internal/policy"
)

func setupApp(env *testEnv) *fiber.App {
	h := NewHandler(env.service())
	app := fiber.New()
	app.Post("/transfers", h.Transfer)
	app.Get("/wallets/:walletId/balance", h.Balance)
	app.Get("/wallets/:walletId/transactions", h.Transactions)
	app.Get("/wallets/:walletId/conversions", h.Conversions)
	app.Post("/wallets", h.CreateWallet)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()
	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp.StatusCode, decoded
}

func TestHandlerTransferSuccess(t *testing.T) {
	env := newEnv(t)
	src := env.seedUserWallet(t, identity.RegionUS, currency.USD, 400)
	dst := env.seedUserWallet(t, identity.RegionUS, currency.USD, 0)
	app := setupApp(env)

	status, body := doJSON(t, app, fiber.MethodPost, "/transfers",
		`{"from_wallet_id":"`+src.ID+`","to_wallet_id":"`+dst.ID+`","amount":100}`)

	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d: %v", status, body)
	}
	if body["success"] != true || body["message"] != "Transfer successful" {
		t.Fatalf("unexpected body: %v", body)
	}
	if id, _ := body["transaction_id"].(string); id == "" {
		t.Fatal("missing transaction_id")
	}
}

func TestHandlerTransferErrorStatuses(t *testing.T) {
	env := newEnv(t)
	src := env.seedUserWallet(t, identity.RegionUS, currency.USD, 50)
	dst := env.seedUserWallet(t, identity.RegionUS, currency.USD, 0)
	app := setupApp(env)

	cases := []struct {
		name    string
		body    string
		status  int
		message string
	}{
		{
			name:    "invalid amount",
			body:    `{"from_wallet_id":"` + src.ID + `","to_wallet_id":"` + dst.ID + `","amount":-1}`,
			status:  fiber.StatusBadRequest,
			message: "amount must be positive",
		},
		{
			name:    "missing destination",
			body:    `{"from_wallet_id":"` + src.ID + `","amount":10}`,
			status:  fiber.StatusBadRequest,
			message: "destination wallet or phone number required",
		},
		{
			name:    "same wallet",
			body:    `{"from_wallet_id":"` + src.ID + `","to_wallet_id":"` + src.ID + `","amount":10}`,
			status:  fiber.StatusBadRequest,
			message: "source and destination wallets must differ",
		},
		{
			name:    "unknown recipient phone",
			body:    `{"from_wallet_id":"` + src.ID + `","to_phone_number":"+10000000000","amount":10}`,
			status:  fiber.StatusNotFound,
			message: "recipient phone number not found",
		},
		{
			name:    "unknown wallet",
			body:    `{"from_wallet_id":"` + src.ID + `","to_wallet_id":"` + uuid.NewString() + `","amount":10}`,
			status:  fiber.StatusNotFound,
			message: "wallet not found",
		},
		{
			name:    "insufficient funds",
			body:    `{"from_wallet_id":"` + src.ID + `","to_wallet_id":"` + dst.ID + `","amount":100}`,
			status:  fiber.StatusUnprocessableEntity,
			message: "insufficient funds",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := doJSON(t, app, fiber.MethodPost, "/transfers", tc.body)
			if status != tc.status {
				t.Fatalf("expected %d, got %d: %v", tc.status, status, body)
			}
			if body["success"] != false {
				t.Fatalf("expected success=false, got %v", body)
			}
			if body["message"] != tc.message {
				t.Fatalf("expected message %q, got %v", tc.message, body["message"])
			}
		})
	}
}

func TestHandlerTransferDeniedAndUnavailable(t *testing.T) {
	env := newEnv(t)
	src := env.seedUserWallet(t, identity.RegionUS, currency.USD, 400)
	dst := env.seedUserWallet(t, identity.RegionUS, currency.USD, 0)
	payload := `{"from_wallet_id":"` + src.ID + `","to_wallet_id":"` + dst.ID + `","amount":10}`

	env.gate = &stubGate{decision: policy.Decision{Allowed: false, Reason: "Region Restricted"}}
	status, body := doJSON(t, setupApp(env), fiber.MethodPost, "/transfers", payload)
	if status != fiber.StatusForbidden {
		t.Fatalf("expected 403, got %d: %v", status, body)
	}
	if body["message"] != "Region Restricted" {
		t.Fatalf("expected gate reason, got %v", body["message"])
	}

	env.gate = &stubGate{err: errors.New("dial tcp: connection refused")}
	status, body = doJSON(t, setupApp(env), fiber.MethodPost, "/transfers", payload)
	if status != fiber.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d: %v", status, body)
	}
	if body["message"] != "policy service unavailable" {
		t.Fatalf("unexpected message: %v", body["message"])
	}
}

func TestHandlerBalanceAndHistory(t *testing.T) {
	env := newEnv(t)
	src := env.seedUserWallet(t, identity.RegionUS, currency.USD, 400)
	dst := env.seedUserWallet(t, identity.RegionIndia, currency.INR, 0)
	app := setupApp(env)

	if status, body := doJSON(t, app, fiber.MethodPost, "/transfers",
		`{"from_wallet_id":"`+src.ID+`","to_wallet_id":"`+dst.ID+`","amount":10}`); status != fiber.StatusOK {
		t.Fatalf("seed transfer failed: %d %v", status, body)
	}

	status, body := doJSON(t, app, fiber.MethodGet, "/wallets/"+src.ID+"/balance", "")
	if status != fiber.StatusOK {
		t.Fatalf("balance: %d %v", status, body)
	}
	if body["wallet_id"] != src.ID || body["currency"] != "USD" || body["balance"] != 390.0 {
		t.Fatalf("unexpected balance body: %v", body)
	}

	status, body = doJSON(t, app, fiber.MethodGet, "/wallets/"+src.ID+"/transactions", "")
	if status != fiber.StatusOK {
		t.Fatalf("transactions: %d %v", status, body)
	}
	txns, _ := body["transactions"].([]any)
	if len(txns) != 1 {
		t.Fatalf("expected one transaction, got %v", body)
	}

	status, body = doJSON(t, app, fiber.MethodGet, "/wallets/"+dst.ID+"/conversions", "")
	if status != fiber.StatusOK {
		t.Fatalf("conversions: %d %v", status, body)
	}
	convs, _ := body["conversions"].([]any)
	if len(convs) != 1 {
		t.Fatalf("expected one conversion, got %v", body)
	}
	conv, _ := convs[0].(map[string]any)
	if conv["rate"] != 83.0 || conv["converted_amount"] != 830.0 {
		t.Fatalf("unexpected conversion: %v", conv)
	}

	status, body = doJSON(t, app, fiber.MethodGet, "/wallets/"+uuid.NewString()+"/balance", "")
	if status != fiber.StatusNotFound {
		t.Fatalf("expected 404 for unknown wallet, got %d %v", status, body)
	}
}

func TestHandlerCreateWallet(t *testing.T) {
	env := newEnv(t)
	owner := env.seedUserWallet(t, identity.RegionEU, currency.EUR, 0)
	app := setupApp(env)

	status, body := doJSON(t, app, fiber.MethodPost, "/wallets",
		`{"user_id":"`+owner.UserID+`","currency":"EUR"}`)
	if status != fiber.StatusCreated {
		t.Fatalf("expected 201, got %d: %v", status, body)
	}
	if body["currency"] != "EUR" || body["balance"] != 0.0 {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestHandlerCreateWalletErrors(t *testing.T) {
	env := newEnv(t)
	owner := env.seedUserWallet(t, identity.RegionEU, currency.EUR, 0)
	app := setupApp(env)

	status, body := doJSON(t, app, fiber.MethodPost, "/wallets",
		`{"user_id":"`+owner.UserID+`","currency":"GBP"}`)
	if status != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for unsupported currency, got %d: %v", status, body)
	}
	if body["success"] != false || body["message"] != "unsupported currency" {
		t.Fatalf("unexpected body: %v", body)
	}

	status, body = doJSON(t, app, fiber.MethodPost, "/wallets",
		`{"user_id":"`+uuid.NewString()+`","currency":"EUR"}`)
	if status != fiber.StatusNotFound {
		t.Fatalf("expected 404 for unknown user, got %d: %v", status, body)
	}
	if body["success"] != false || body["message"] != "user not found" {
		t.Fatalf("unexpected body: %v", body)
	}
}

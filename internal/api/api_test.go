package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fbank/internal/api"
	"fbank/internal/domain"
	"fbank/internal/identity"
	"fbank/internal/ledger"
	"fbank/internal/registry"
	"fbank/internal/testutil"
	"fbank/internal/transfer"
	"fbank/internal/utils"
	"fbank/internal/vault"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const secret = "api-test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

type server struct {
	router *gin.Engine
	db     *gorm.DB
	mr     *miniredis.Miniredis
	users  *identity.Store
	vault  *vault.Vault
}

func newServer(t *testing.T, rateLimit int) *server {
	t.Helper()
	db := testutil.NewDB(t)
	rdb, mr := testutil.NewRedis(t)
	v := testutil.NewVault(t)
	reg := registry.New(db, v)
	users := identity.NewStore(db, reg).WithCost(bcrypt.MinCost)
	l := ledger.New(db)
	router := api.NewRouter(api.Deps{
		DB:                db,
		Redis:             rdb,
		Users:             users,
		Codes:             identity.NewCodeStore(rdb, time.Minute),
		Registry:          reg,
		Ledger:            l,
		Engine:            transfer.NewEngine(db, v, l),
		JWTSecret:         secret,
		JWTTTL:            time.Hour,
		TransferRateLimit: rateLimit,
		ExposeCodes:       true,
	})
	return &server{router: router, db: db, mr: mr, users: users, vault: v}
}

// register creates a user through the store and returns it with a token
func (s *server) register(t *testing.T, name, phone string) (*domain.User, string) {
	t.Helper()
	u, err := s.users.Register(context.Background(), name, phone, "password1")
	require.NoError(t, err)
	token, err := utils.GenerateJWT(u.ID, u.Phone, secret, time.Hour)
	require.NoError(t, err)
	return u, token
}

func (s *server) fund(t *testing.T, userID uint, amount string) string {
	t.Helper()
	number := domain.DefaultAccountNumber(userID)
	require.NoError(t, s.db.Model(&domain.Account{}).Where("number = ?", number).Update("balance", testutil.Money(amount)).Error)
	return number
}

func (s *server) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	out := map[string]any{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return w, out
}

// money reads a decimal that may be encoded as a string or a number
func money(t *testing.T, v any) decimal.Decimal {
	t.Helper()
	switch x := v.(type) {
	case string:
		return testutil.Money(x)
	case float64:
		return decimal.NewFromFloat(x)
	}
	t.Fatalf("not a money value: %#v", v)
	return decimal.Zero
}

func requireMoney(t *testing.T, want string, v any) {
	t.Helper()
	testutil.RequireMoney(t, want, money(t, v))
}

func TestRegisterAndLogin(t *testing.T) {
	s := newServer(t, 0)

	w, body := s.do(t, http.MethodPost, "/api/auth/register", "", gin.H{"name": "Alice", "phone": "8 701 111 22 33", "password": "password1"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "77011112233", body["user"].(map[string]any)["phone"])
	registered, _ := body["token"].(string)
	require.NotEmpty(t, registered)

	w, body = s.do(t, http.MethodGet, "/api/balance", registered, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, body["success"])

	w, body = s.do(t, http.MethodPost, "/api/auth/register", "", gin.H{"name": "Alice", "phone": "+77011112233", "password": "password1"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, false, body["success"])

	w, _ = s.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"phone": "87011112233", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, body = s.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"phone": "87011112233", "password": "password1"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)

	w, body = s.do(t, http.MethodGet, "/api/accounts", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["accounts"], 1)
	assert.Equal(t, false, body["cached"])

	_, body = s.do(t, http.MethodGet, "/api/accounts", token, nil)
	assert.Equal(t, true, body["cached"])

	w, body = s.do(t, http.MethodGet, "/api/balance", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	requireMoney(t, "0", body["total_balance"])
	assert.Equal(t, "KZT", body["currency"])
}

func TestRegisterRejectsBadInput(t *testing.T) {
	s := newServer(t, 0)

	w, body := s.do(t, http.MethodPost, "/api/auth/register", "", gin.H{"name": "Bob", "phone": "123", "password": "password1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, body["success"])

	w, body = s.do(t, http.MethodPost, "/api/auth/register", "", gin.H{"phone": "87011112233"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid request", body["message"])
}

func TestSecondFactorFlow(t *testing.T) {
	s := newServer(t, 0)
	s.register(t, "Alice", "87011112233")

	w, body := s.do(t, http.MethodPost, "/api/auth/2fa/request", "", gin.H{"phone": "87011112233", "password": "password1"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	code, _ := body["code"].(string)
	require.Len(t, code, 6)

	w, body = s.do(t, http.MethodPost, "/api/auth/verify-2fa", "", gin.H{"phone": "+7 701 111 22 33", "code": code})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEmpty(t, body["token"])

	w, _ = s.do(t, http.MethodPost, "/api/auth/verify-2fa", "", gin.H{"phone": "87011112233", "code": code})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPIN(t *testing.T) {
	s := newServer(t, 0)
	_, token := s.register(t, "Alice", "87011112233")

	w, _ := s.do(t, http.MethodPost, "/api/auth/verify-pin", token, gin.H{"pin": "1234"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(t, http.MethodPost, "/api/auth/save-pin", token, gin.H{"pin": "12a4"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(t, http.MethodPost, "/api/auth/save-pin", token, gin.H{"pin": "1234"})
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = s.do(t, http.MethodPost, "/api/auth/verify-pin", token, gin.H{"pin": "0000"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = s.do(t, http.MethodPost, "/api/auth/verify-pin", token, gin.H{"pin": "1234"})
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = s.do(t, http.MethodPost, "/api/auth/save-pin", "", gin.H{"pin": "1234"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAccountTransferInvalidatesCache(t *testing.T) {
	s := newServer(t, 0)
	alice, aliceToken := s.register(t, "Alice", "87011112233")
	bob, bobToken := s.register(t, "Bob", "87022223344")
	from := s.fund(t, alice.ID, "1000")
	to := domain.DefaultAccountNumber(bob.ID)

	_, body := s.do(t, http.MethodGet, "/api/accounts", bobToken, nil)
	assert.Equal(t, false, body["cached"])
	_, body = s.do(t, http.MethodGet, "/api/accounts", bobToken, nil)
	assert.Equal(t, true, body["cached"])

	w, body := s.do(t, http.MethodPost, "/api/transfer", aliceToken, gin.H{"from_account": from, "to_account": to, "amount": 400, "description": "rent"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	requireMoney(t, "600", body["new_balance"])
	assert.NotZero(t, body["transaction_id"])

	_, body = s.do(t, http.MethodGet, "/api/accounts", bobToken, nil)
	assert.Equal(t, false, body["cached"])
	accounts := body["accounts"].([]any)
	requireMoney(t, "400", accounts[0].(map[string]any)["balance"])

	w, body = s.do(t, http.MethodGet, "/api/transactions", aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, body["total"])
	assert.EqualValues(t, 1, body["total_pages"])
	assert.Equal(t, false, body["cached"])
}

func TestTransferErrorMapping(t *testing.T) {
	s := newServer(t, 0)
	alice, token := s.register(t, "Alice", "87011112233")
	from := s.fund(t, alice.ID, "100")

	cases := []struct {
		name    string
		token   string
		body    any
		status  int
		message string
	}{
		{"no token", "", gin.H{"from_account": from, "to_account": "KZ1", "amount": 1}, http.StatusUnauthorized, ""},
		{"insufficient", token, gin.H{"from_account": from, "to_account": "KZ1", "amount": 500}, http.StatusBadRequest, "Insufficient funds"},
		{"unknown source", token, gin.H{"from_account": "KZ999999999", "to_account": "KZ1", "amount": 1}, http.StatusNotFound, ""},
		{"zero amount", token, gin.H{"from_account": from, "to_account": "KZ1", "amount": 0}, http.StatusBadRequest, ""},
		{"missing fields", token, gin.H{"amount": 1}, http.StatusBadRequest, "Invalid request"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, body := s.do(t, http.MethodPost, "/api/transfer", tc.token, tc.body)
			assert.Equal(t, tc.status, w.Code, w.Body.String())
			assert.Equal(t, false, body["success"])
			if tc.message != "" {
				assert.Equal(t, tc.message, body["message"])
			}
		})
	}
	testutil.RequireMoney(t, "100", testutil.AccountBalance(t, s.db, from))
	assert.Zero(t, testutil.CountTransactions(t, s.db))
}

func TestPaymentAndServices(t *testing.T) {
	s := newServer(t, 0)
	alice, token := s.register(t, "Alice", "87011112233")
	from := s.fund(t, alice.ID, "1000")

	w, body := s.do(t, http.MethodGet, "/api/services", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["services"], len(api.Services))

	w, body = s.do(t, http.MethodPost, "/api/payment", token, gin.H{"account": from, "service": "Beeline", "amount": 250})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	requireMoney(t, "750", body["new_balance"])

	var row domain.Transaction
	require.NoError(t, s.db.Where("user_id = ?", alice.ID).First(&row).Error)
	assert.Equal(t, domain.TxPayment, row.Type)
	assert.Equal(t, "Beeline", row.ToRef)
}

func TestCardsFlow(t *testing.T) {
	s := newServer(t, 0)
	alice, token := s.register(t, "Alice", "87011112233")
	s.fund(t, alice.ID, "2000")

	_, body := s.do(t, http.MethodGet, "/api/cards/check", token, nil)
	assert.Equal(t, false, body["hasCards"])

	w, body := s.do(t, http.MethodPost, "/api/cards/create", token, gin.H{"type": "visa"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	card := body["card"].(map[string]any)
	requireMoney(t, "2000", card["balance"])
	cardID := uint(card["id"].(float64))

	w, _ = s.do(t, http.MethodPost, "/api/cards/create", token, gin.H{"type": "amex"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	_, body = s.do(t, http.MethodGet, "/api/cards/check", token, nil)
	assert.Equal(t, true, body["hasCards"])
	assert.EqualValues(t, 1, body["count"])

	w, body = s.do(t, http.MethodPost, "/api/cards/deposit", token, gin.H{"cardId": cardID, "amount": 500})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	requireMoney(t, "2500", body["newBalance"])
	assert.NotZero(t, body["transactionId"])

	w, body = s.do(t, http.MethodGet, "/api/cards", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	cards := body["cards"].([]any)
	require.Len(t, cards, 1)
	requireMoney(t, "2500", cards[0].(map[string]any)["balance"])
}

func TestCardTransfers(t *testing.T) {
	s := newServer(t, 0)
	alice, token := s.register(t, "Alice", "87011112233")
	bob, _ := s.register(t, "Bob", "87022223344")
	own := testutil.CreateCard(t, s.db, s.vault, alice.ID, "4400430000000001", "2000")
	other := testutil.CreateCard(t, s.db, s.vault, alice.ID, "4400430000000002", "0")
	bobCard := testutil.CreateCard(t, s.db, s.vault, bob.ID, "4400430000000003", "300")

	w, body := s.do(t, http.MethodPost, "/api/cards/transfer", token, gin.H{"fromCardId": own.ID, "toCardId": other.ID, "amount": 100})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	requireMoney(t, "1900", body["newBalance"])

	w, _ = s.do(t, http.MethodPost, "/api/cards/transfer-by-phone", token, gin.H{"fromCardId": own.ID, "phone": "+7 702 222 33 44", "amount": 500})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	testutil.RequireMoney(t, "800", testutil.CardBalance(t, s.db, bobCard.ID))

	w, _ = s.do(t, http.MethodPost, "/api/cards/transfer-to-other-bank", token, gin.H{"fromCardId": own.ID, "toCardNumber": "5500 0000 0000 0004", "amount": 400})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, body = s.do(t, http.MethodPost, "/api/cards/international-transfer", token, gin.H{
		"fromCardId":     own.ID,
		"transferSystem": "Western Union",
		"recipientName":  "John Smith",
		"receiverPhone":  "+14155550100",
		"country":        "USA",
		"amount":         100,
		"currency":       "USD",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	requireMoney(t, "900", body["newBalance"])

	w, body = s.do(t, http.MethodPost, "/api/cards/transfer", token, gin.H{"fromCardId": own.ID, "toCardId": bobCard.ID, "amount": 1})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, false, body["success"])

	w, body = s.do(t, http.MethodPost, "/api/users/by-phone", token, gin.H{"phone": "87022223344"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Bob", body["user"].(map[string]any)["name"])

	w, _ = s.do(t, http.MethodPost, "/api/users/by-phone", token, gin.H{"phone": "87779998877"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTransferRateLimit(t *testing.T) {
	s := newServer(t, 2)
	alice, token := s.register(t, "Alice", "87011112233")
	from := s.fund(t, alice.ID, "1000")

	for i := 0; i < 2; i++ {
		w, _ := s.do(t, http.MethodPost, "/api/transfer", token, gin.H{"from_account": from, "to_account": "KZ1", "amount": 1})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}
	w, _ := s.do(t, http.MethodPost, "/api/transfer", token, gin.H{"from_account": from, "to_account": "KZ1", "amount": 1})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	w, _ = s.do(t, http.MethodGet, "/api/balance", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	testutil.RequireMoney(t, "998", testutil.AccountBalance(t, s.db, from))
}

func TestAdminRoutes(t *testing.T) {
	s := newServer(t, 0)
	admin, adminToken := s.register(t, "Admin", "87000000001")
	alice, aliceToken := s.register(t, "Alice", "87011112233")
	from := s.fund(t, alice.ID, "1000")

	w, _ := s.do(t, http.MethodGet, "/admin/users", aliceToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	require.NoError(t, s.db.Model(admin).Update("role", domain.RoleAdmin).Error)

	w, body := s.do(t, http.MethodGet, "/admin/users", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.EqualValues(t, 2, body["total"])
	users := body["users"].([]any)
	assert.Len(t, users[1].(map[string]any)["accounts"], 1)

	for i := 0; i < 3; i++ {
		w, _ = s.do(t, http.MethodPost, "/api/transfer", aliceToken, gin.H{"from_account": from, "to_account": "KZ1", "amount": 10})
		require.Equal(t, http.StatusOK, w.Code)
	}

	w, body = s.do(t, http.MethodGet, fmt.Sprintf("/admin/transactions?user_id=%d&page_size=2", alice.ID), adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.EqualValues(t, 3, body["total"])
	assert.EqualValues(t, 2, body["total_pages"])
	assert.Len(t, body["transactions"], 2)

	w, body = s.do(t, http.MethodGet, "/admin/transactions?type=transfer&from=2000-01-01&to=2100-01-01T00:00:00Z", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.EqualValues(t, 3, body["total"])

	w, _ = s.do(t, http.MethodGet, "/admin/transactions?from=yesterday", adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(t, http.MethodGet, "/admin/transactions?user_id=abc", adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealth(t *testing.T) {
	s := newServer(t, 0)

	w, body := s.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	s.mr.Close()
	w, body = s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "unavailable", body["checks"].(map[string]any)["redis"])
}

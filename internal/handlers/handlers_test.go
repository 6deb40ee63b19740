package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"

	"moneta/internal/models"
	"moneta/internal/services"
	"moneta/internal/store"
	"moneta/internal/validator"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	validator.Register()
	os.Exit(m.Run())
}

// newTestRouter wires the full API surface over a fresh in-memory store,
// mirroring the route table the server builds at startup.
func newTestRouter() (*gin.Engine, *store.Store) {
	st := store.New(nil)

	accountService := services.NewAccountService(st)
	transactionService := services.NewTransactionService(st)
	recurringService := services.NewRecurringService(st, 3)
	projectionService := services.NewProjectionService(st)

	accountHandler := NewAccountHandler(accountService, transactionService)
	transactionHandler := NewTransactionHandler(transactionService, projectionService)
	recurringHandler := NewRecurringHandler(recurringService)
	instanceHandler := NewInstanceHandler(recurringService)
	balanceHandler := NewBalanceHandler(projectionService)

	router := gin.New()
	v1 := router.Group("/api/v1")

	accounts := v1.Group("/accounts")
	accounts.POST("", accountHandler.CreateAccount)
	accounts.GET("", accountHandler.GetAccounts)
	accounts.GET("/:id", accountHandler.GetAccountByID)
	accounts.PUT("/:id", accountHandler.UpdateAccount)
	accounts.DELETE("/:id", accountHandler.DeleteAccount)
	accounts.GET("/:id/transactions", accountHandler.GetAccountTransactions)

	v1.GET("/balances", balanceHandler.GetBalances)

	transactions := v1.Group("/transactions")
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("", transactionHandler.GetTransactions)
	transactions.GET("/:id", transactionHandler.GetTransactionByID)
	transactions.PUT("/:id", transactionHandler.UpdateTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)
	transactions.POST("/:id/approve", transactionHandler.ApproveTransaction)
	transactions.POST("/:id/unapprove", transactionHandler.UnapproveTransaction)

	recurring := v1.Group("/recurring")
	recurring.POST("", recurringHandler.CreateDefinition)
	recurring.GET("", recurringHandler.GetDefinitions)
	recurring.GET("/:id", recurringHandler.GetDefinitionByID)
	recurring.PUT("/:id", recurringHandler.UpdateDefinition)
	recurring.DELETE("/:id", recurringHandler.DeleteDefinition)

	instances := v1.Group("/instances")
	instances.GET("", instanceHandler.GetInstances)
	instances.POST("/approve", instanceHandler.BulkApprove)
	instances.POST("/:id/approve", instanceHandler.ApproveInstance)
	instances.POST("/:id/skip", instanceHandler.SkipInstance)

	return router, st
}

func doRequest(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("failed to decode response %q: %v", w.Body.String(), err)
	}
}

func assertStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, w.Code, w.Body.String())
	}
}

func assertErrorCode(t *testing.T, w *httptest.ResponseRecorder, wantStatus int, wantCode string) {
	t.Helper()
	assertStatus(t, w, wantStatus)

	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	decodeBody(t, w, &body)
	if body.Error.Code != wantCode {
		t.Errorf("expected error code %q, got %q", wantCode, body.Error.Code)
	}
}

func createAccount(t *testing.T, router *gin.Engine, name string, startingBalance int64) models.Account {
	t.Helper()

	w := doRequest(t, router, http.MethodPost, "/api/v1/accounts", gin.H{
		"name":             name,
		"type":             "checking",
		"starting_balance": startingBalance,
	})
	assertStatus(t, w, http.StatusCreated)

	var body struct {
		Account models.Account `json:"account"`
	}
	decodeBody(t, w, &body)
	return body.Account
}

func TestAccountEndpoints(t *testing.T) {
	t.Run("create_and_fetch", func(t *testing.T) {
		router, _ := newTestRouter()
		account := createAccount(t, router, "Checking", 100000)

		w := doRequest(t, router, http.MethodGet, "/api/v1/accounts/"+account.ID, nil)
		assertStatus(t, w, http.StatusOK)

		var body struct {
			Account models.Account `json:"account"`
		}
		decodeBody(t, w, &body)
		if body.Account.Balance != 100000 {
			t.Errorf("expected balance 100000, got %d", body.Account.Balance)
		}
	})

	t.Run("rejects_missing_name", func(t *testing.T) {
		router, _ := newTestRouter()

		w := doRequest(t, router, http.MethodPost, "/api/v1/accounts", gin.H{"type": "checking"})
		assertErrorCode(t, w, http.StatusBadRequest, "INVALID_INPUT")
	})

	t.Run("rejects_unknown_type", func(t *testing.T) {
		router, _ := newTestRouter()

		w := doRequest(t, router, http.MethodPost, "/api/v1/accounts", gin.H{
			"name": "Crypto",
			"type": "wallet",
		})
		assertErrorCode(t, w, http.StatusBadRequest, "INVALID_INPUT")
	})

	t.Run("unknown_id_is_404", func(t *testing.T) {
		router, _ := newTestRouter()

		w := doRequest(t, router, http.MethodGet, "/api/v1/accounts/00000000-0000-0000-0000-000000000000", nil)
		assertErrorCode(t, w, http.StatusNotFound, "ACCOUNT_NOT_FOUND")
	})

	t.Run("delete_returns_no_content", func(t *testing.T) {
		router, _ := newTestRouter()
		account := createAccount(t, router, "Doomed", 0)

		w := doRequest(t, router, http.MethodDelete, "/api/v1/accounts/"+account.ID, nil)
		assertStatus(t, w, http.StatusNoContent)

		w = doRequest(t, router, http.MethodGet, "/api/v1/accounts/"+account.ID, nil)
		assertErrorCode(t, w, http.StatusNotFound, "ACCOUNT_NOT_FOUND")
	})
}

func TestTransactionEndpoints(t *testing.T) {
	t.Run("approved_expense_moves_balance", func(t *testing.T) {
		router, _ := newTestRouter()
		account := createAccount(t, router, "Checking", 1000)

		w := doRequest(t, router, http.MethodPost, "/api/v1/transactions", gin.H{
			"type":       "expense",
			"amount":     250,
			"account_id": account.ID,
			"date":       "2024-03-01",
			"approved":   true,
		})
		assertStatus(t, w, http.StatusCreated)

		w = doRequest(t, router, http.MethodGet, "/api/v1/balances", nil)
		assertStatus(t, w, http.StatusOK)

		var body struct {
			Balances map[string]int64 `json:"balances"`
		}
		decodeBody(t, w, &body)
		if body.Balances[account.ID] != 750 {
			t.Errorf("expected balance 750, got %d", body.Balances[account.ID])
		}
	})

	t.Run("approve_and_unapprove", func(t *testing.T) {
		router, _ := newTestRouter()
		account := createAccount(t, router, "Checking", 1000)

		w := doRequest(t, router, http.MethodPost, "/api/v1/transactions", gin.H{
			"type":       "expense",
			"amount":     100,
			"account_id": account.ID,
			"date":       "2024-03-01",
		})
		assertStatus(t, w, http.StatusCreated)

		var created struct {
			Transaction models.Transaction `json:"transaction"`
		}
		decodeBody(t, w, &created)

		w = doRequest(t, router, http.MethodPost, fmt.Sprintf("/api/v1/transactions/%s/approve", created.Transaction.ID), nil)
		assertStatus(t, w, http.StatusOK)

		w = doRequest(t, router, http.MethodGet, "/api/v1/accounts/"+account.ID, nil)
		var fetched struct {
			Account models.Account `json:"account"`
		}
		decodeBody(t, w, &fetched)
		if fetched.Account.Balance != 900 {
			t.Errorf("expected balance 900 after approve, got %d", fetched.Account.Balance)
		}

		w = doRequest(t, router, http.MethodPost, fmt.Sprintf("/api/v1/transactions/%s/unapprove", created.Transaction.ID), nil)
		assertStatus(t, w, http.StatusOK)

		w = doRequest(t, router, http.MethodGet, "/api/v1/accounts/"+account.ID, nil)
		decodeBody(t, w, &fetched)
		if fetched.Account.Balance != 1000 {
			t.Errorf("expected balance restored to 1000, got %d", fetched.Account.Balance)
		}
	})

	t.Run("rejects_bad_date_format", func(t *testing.T) {
		router, _ := newTestRouter()
		account := createAccount(t, router, "Checking", 1000)

		w := doRequest(t, router, http.MethodPost, "/api/v1/transactions", gin.H{
			"type":       "expense",
			"amount":     100,
			"account_id": account.ID,
			"date":       "03/01/2024",
		})
		assertErrorCode(t, w, http.StatusBadRequest, "INVALID_INPUT")
	})

	t.Run("rejects_transfer_to_self", func(t *testing.T) {
		router, _ := newTestRouter()
		account := createAccount(t, router, "Checking", 1000)

		w := doRequest(t, router, http.MethodPost, "/api/v1/transactions", gin.H{
			"type":          "transfer",
			"amount":        100,
			"account_id":    account.ID,
			"to_account_id": account.ID,
		})
		assertErrorCode(t, w, http.StatusBadRequest, "SAME_ACCOUNT_TRANSFER")
	})

	t.Run("rejects_unknown_view", func(t *testing.T) {
		router, _ := newTestRouter()

		w := doRequest(t, router, http.MethodGet, "/api/v1/transactions?view=forecast", nil)
		assertErrorCode(t, w, http.StatusBadRequest, "INVALID_VIEW_MODE")
	})
}

func TestRecurringFlow(t *testing.T) {
	router, _ := newTestRouter()
	account := createAccount(t, router, "Checking", 100000)

	// A definition starting in the past generates instances immediately,
	// including the ones already due.
	w := doRequest(t, router, http.MethodPost, "/api/v1/recurring", gin.H{
		"type":         "expense",
		"amount":       5000,
		"account_id":   account.ID,
		"frequency":    "monthly",
		"start_date":   "2024-01-01",
		"day_of_month": 1,
	})
	assertStatus(t, w, http.StatusCreated)

	var created struct {
		Recurring models.RecurringDefinition `json:"recurring"`
	}
	decodeBody(t, w, &created)
	if created.Recurring.ID == "" {
		t.Fatal("expected recurring id")
	}

	w = doRequest(t, router, http.MethodGet, "/api/v1/instances?pending=true&page_size=100", nil)
	assertStatus(t, w, http.StatusOK)

	var instancePage struct {
		Data       []models.GeneratedInstance `json:"data"`
		TotalItems int64                      `json:"total_items"`
	}
	decodeBody(t, w, &instancePage)
	if instancePage.TotalItems == 0 {
		t.Fatal("expected pending instances generated")
	}

	// Actual view ignores pending instances; expected view prices them in.
	var balances struct {
		Balances map[string]int64 `json:"balances"`
	}
	w = doRequest(t, router, http.MethodGet, "/api/v1/balances?view=actual", nil)
	assertStatus(t, w, http.StatusOK)
	decodeBody(t, w, &balances)
	if balances.Balances[account.ID] != 100000 {
		t.Errorf("expected actual balance 100000, got %d", balances.Balances[account.ID])
	}

	w = doRequest(t, router, http.MethodGet, "/api/v1/balances?view=expected", nil)
	assertStatus(t, w, http.StatusOK)
	decodeBody(t, w, &balances)
	wantExpected := 100000 - 5000*instancePage.TotalItems
	if balances.Balances[account.ID] != wantExpected {
		t.Errorf("expected projected balance %d, got %d", wantExpected, balances.Balances[account.ID])
	}

	// Approve one instance: it leaves the pending list and lands on the
	// actual balance.
	first := instancePage.Data[0]
	w = doRequest(t, router, http.MethodPost, fmt.Sprintf("/api/v1/instances/%s/approve", first.ID), nil)
	assertStatus(t, w, http.StatusOK)

	w = doRequest(t, router, http.MethodGet, "/api/v1/balances?view=actual", nil)
	decodeBody(t, w, &balances)
	if balances.Balances[account.ID] != 95000 {
		t.Errorf("expected actual balance 95000 after approval, got %d", balances.Balances[account.ID])
	}

	w = doRequest(t, router, http.MethodGet, "/api/v1/instances?pending=true&page_size=100", nil)
	var remaining struct {
		TotalItems int64 `json:"total_items"`
	}
	decodeBody(t, w, &remaining)
	if remaining.TotalItems != instancePage.TotalItems-1 {
		t.Errorf("expected %d pending instances, got %d", instancePage.TotalItems-1, remaining.TotalItems)
	}

	// Deleting the definition clears the tracker but keeps the ledger entry.
	w = doRequest(t, router, http.MethodDelete, "/api/v1/recurring/"+created.Recurring.ID, nil)
	assertStatus(t, w, http.StatusNoContent)

	w = doRequest(t, router, http.MethodGet, "/api/v1/instances?page_size=100", nil)
	decodeBody(t, w, &remaining)
	if remaining.TotalItems != 0 {
		t.Errorf("expected tracker emptied, got %d instances", remaining.TotalItems)
	}

	w = doRequest(t, router, http.MethodGet, "/api/v1/balances?view=actual", nil)
	decodeBody(t, w, &balances)
	if balances.Balances[account.ID] != 95000 {
		t.Errorf("expected materialized transaction retained, balance %d", balances.Balances[account.ID])
	}
}

func TestBulkApproveEndpoint(t *testing.T) {
	router, _ := newTestRouter()
	account := createAccount(t, router, "Checking", 100000)

	w := doRequest(t, router, http.MethodPost, "/api/v1/recurring", gin.H{
		"type":         "expense",
		"amount":       1000,
		"account_id":   account.ID,
		"frequency":    "monthly",
		"start_date":   "2024-01-01",
		"day_of_month": 1,
	})
	assertStatus(t, w, http.StatusCreated)

	w = doRequest(t, router, http.MethodGet, "/api/v1/instances?pending=true&page_size=100", nil)
	var instancePage struct {
		Data []models.GeneratedInstance `json:"data"`
	}
	decodeBody(t, w, &instancePage)
	if len(instancePage.Data) < 2 {
		t.Fatalf("expected at least 2 pending instances, got %d", len(instancePage.Data))
	}

	stale := "00000000-0000-0000-0000-000000000000"
	w = doRequest(t, router, http.MethodPost, "/api/v1/instances/approve", gin.H{
		"instance_ids": []string{instancePage.Data[0].ID, stale, instancePage.Data[1].ID},
	})
	assertStatus(t, w, http.StatusOK)

	var body struct {
		Results []services.BulkApproveResult `json:"results"`
	}
	decodeBody(t, w, &body)
	if len(body.Results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(body.Results))
	}
	if !body.Results[0].OK || !body.Results[2].OK {
		t.Errorf("expected live ids approved: %+v", body.Results)
	}
	if body.Results[1].OK || body.Results[1].Code != "INSTANCE_NOT_FOUND" {
		t.Errorf("expected stale id rejected with INSTANCE_NOT_FOUND: %+v", body.Results[1])
	}

	t.Run("rejects_empty_id_list", func(t *testing.T) {
		w := doRequest(t, router, http.MethodPost, "/api/v1/instances/approve", gin.H{
			"instance_ids": []string{},
		})
		assertErrorCode(t, w, http.StatusBadRequest, "INVALID_INPUT")
	})
}

func TestAccountTransactionsEndpoint(t *testing.T) {
	router, _ := newTestRouter()
	from := createAccount(t, router, "Checking", 1000)
	to := createAccount(t, router, "Savings", 0)

	w := doRequest(t, router, http.MethodPost, "/api/v1/transactions", gin.H{
		"type":          "transfer",
		"amount":        200,
		"account_id":    from.ID,
		"to_account_id": to.ID,
		"date":          "2024-02-01",
		"approved":      true,
	})
	assertStatus(t, w, http.StatusCreated)

	w = doRequest(t, router, http.MethodGet, "/api/v1/accounts/"+to.ID+"/transactions", nil)
	assertStatus(t, w, http.StatusOK)

	var page struct {
		TotalItems int64 `json:"total_items"`
	}
	decodeBody(t, w, &page)
	if page.TotalItems != 1 {
		t.Errorf("expected incoming transfer listed for destination account, got %d", page.TotalItems)
	}
}

package router

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"jizhang/internal/handlers"
	"jizhang/internal/logger"
	"jizhang/internal/services"
	"jizhang/internal/testutil"
	"jizhang/internal/validator"
)

const adminKey = "test-admin-key"

var shanghai = time.FixedZone("CST", 8*3600)

// testApp holds the full application stack for flow tests.
type testApp struct {
	DB     *gorm.DB
	Router *gin.Engine
}

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// setupApp creates a full application stack backed by an isolated in-memory SQLite.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := testutil.SetupTestDB(t)

	userService := services.NewUserService(db)
	categoryService := services.NewCategoryService(db)
	transactionService := services.NewTransactionService(db)
	budgetService := services.NewBudgetService(db, shanghai)
	analyticsService := services.NewAnalyticsService(db, shanghai)
	auditService := services.NewAuditService(db)

	r := New(Handlers{
		Auth:        handlers.NewAuthHandler(userService, auditService),
		Category:    handlers.NewCategoryHandler(categoryService, auditService),
		Transaction: handlers.NewTransactionHandler(transactionService, auditService, shanghai),
		Budget:      handlers.NewBudgetHandler(budgetService, auditService),
		Analytics:   handlers.NewAnalyticsHandler(analyticsService),
	}, Options{AdminAPIKey: adminKey})

	return &testApp{DB: db, Router: r}
}

func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return parseJSON(t, rec)["error"].(map[string]interface{})["code"].(string)
}

// registerUser registers a new user and returns the access token, refresh token and user id.
func (app *testApp) registerUser(t *testing.T, email string) (accessToken, refreshToken, userID string) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":"password123","first_name":"Test","last_name":"User"}`, email)
	rec := app.request("POST", "/api/v1/auth/register", body, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	user := result["user"].(map[string]interface{})
	return result["access_token"].(string), result["refresh_token"].(string), user["id"].(string)
}

// seedCategories runs the admin seed and returns category ids by name.
func (app *testApp) seedCategories(t *testing.T, token string) map[string]string {
	t.Helper()
	req := httptest.NewRequest("POST", "/api/v1/admin/categories/seed", nil)
	req.Header.Set("X-API-Key", adminKey)
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("seed failed: %d %s", rec.Code, rec.Body.String())
	}

	rec = app.request("GET", "/api/v1/categories", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("list categories failed: %d %s", rec.Code, rec.Body.String())
	}
	ids := map[string]string{}
	for _, raw := range parseJSON(t, rec)["categories"].([]interface{}) {
		cat := raw.(map[string]interface{})
		ids[cat["name"].(string)] = cat["id"].(string)
	}
	return ids
}

func (app *testApp) addTransaction(t *testing.T, token, categoryID, txType, amount, date string) {
	t.Helper()
	body := fmt.Sprintf(`{"category_id":%q,"type":%q,"amount":%s,"date":%q}`, categoryID, txType, amount, date)
	rec := app.request("POST", "/api/v1/transactions", body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create transaction failed: %d %s", rec.Code, rec.Body.String())
	}
}

func TestHealth(t *testing.T) {
	app := setupApp(t)

	rec := app.request("GET", "/api/health", "", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected a request id header")
	}
}

func TestAuthFlow(t *testing.T) {
	app := setupApp(t)
	access, refresh, userID := app.registerUser(t, "flow@test.com")

	rec := app.request("GET", "/api/v1/profile", "", access)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := parseJSON(t, rec)["user"].(map[string]interface{})["id"]; got != userID {
		t.Errorf("expected user %s, got %v", userID, got)
	}

	rec = app.request("POST", "/api/v1/auth/refresh", fmt.Sprintf(`{"refresh_token":%q}`, refresh), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on refresh, got %d: %s", rec.Code, rec.Body.String())
	}

	// The old refresh token was rotated out.
	rec = app.request("POST", "/api/v1/auth/refresh", fmt.Sprintf(`{"refresh_token":%q}`, refresh), "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 on reuse, got %d", rec.Code)
	}

	rec = app.request("GET", "/api/v1/profile", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
}

func TestAdminRoutes(t *testing.T) {
	app := setupApp(t)

	req := httptest.NewRequest("POST", "/api/v1/admin/categories/seed", nil)
	req.Header.Set("X-API-Key", "wrong")
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with wrong key, got %d", rec.Code)
	}

	closed := New(Handlers{
		Category: handlers.NewCategoryHandler(services.NewCategoryService(app.DB), services.NewAuditService(app.DB)),
	}, Options{})
	req = httptest.NewRequest("POST", "/api/v1/admin/categories/seed", nil)
	req.Header.Set("X-API-Key", "")
	rec = httptest.NewRecorder()
	closed.ServeHTTP(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without a configured key, got %d", rec.Code)
	}
}

func TestBudgetFlow(t *testing.T) {
	app := setupApp(t)
	token, _, _ := app.registerUser(t, "budget@test.com")
	cats := app.seedCategories(t, token)

	food := cats["餐饮"]
	rec := app.request("POST", "/api/v1/budgets",
		fmt.Sprintf(`{"category_id":%q,"month":3,"year":2024,"amount":1000}`, food), token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 setting budget, got %d: %s", rec.Code, rec.Body.String())
	}
	budgetID := parseJSON(t, rec)["budget"].(map[string]interface{})["id"].(string)

	// Setting it again updates the same row.
	rec = app.request("POST", "/api/v1/budgets",
		fmt.Sprintf(`{"category_id":%q,"month":3,"year":2024,"amount":500}`, food), token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 updating budget, got %d: %s", rec.Code, rec.Body.String())
	}
	if id := parseJSON(t, rec)["budget"].(map[string]interface{})["id"]; id != budgetID {
		t.Errorf("expected upsert to keep id %s, got %v", budgetID, id)
	}

	rec = app.request("POST", "/api/v1/budgets",
		fmt.Sprintf(`{"category_id":%q,"month":3,"year":2024,"amount":500}`, cats["工资"]), token)
	if rec.Code != http.StatusBadRequest || errorCode(t, rec) != "CATEGORY_TYPE_MISMATCH" {
		t.Fatalf("expected CATEGORY_TYPE_MISMATCH, got %d: %s", rec.Code, rec.Body.String())
	}

	app.addTransaction(t, token, food, "EXPENSE", "250", "2024-03-02")
	app.addTransaction(t, token, food, "EXPENSE", "150", "2024-03-31")
	app.addTransaction(t, token, food, "EXPENSE", "999", "2024-04-01")

	rec = app.request("GET", "/api/v1/budgets/usage?month=3&year=2024", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	usage := parseJSON(t, rec)["usage"].([]interface{})
	if len(usage) != 1 || usage[0].(map[string]interface{})["summed_amount"].(float64) != 400 {
		t.Errorf("expected 400 spent on food, got %v", usage)
	}

	rec = app.request("GET", "/api/v1/budgets/summary?month=3&year=2024", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	total := parseJSON(t, rec)["total"].(map[string]interface{})
	if total["percentage"].(float64) != 80 || total["is_warning"] != true || total["is_over_budget"] != false {
		t.Errorf("unexpected total: %v", total)
	}

	rec = app.request("DELETE", "/api/v1/budgets/"+budgetID, "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 deleting budget, got %d", rec.Code)
	}
	rec = app.request("GET", "/api/v1/budgets?month=3&year=2024", "", token)
	if list := parseJSON(t, rec)["budgets"].([]interface{}); len(list) != 0 {
		t.Errorf("expected no budgets after delete, got %d", len(list))
	}
}

func TestAnalyticsFlow(t *testing.T) {
	app := setupApp(t)
	token, _, _ := app.registerUser(t, "reports@test.com")
	otherToken, _, _ := app.registerUser(t, "other@test.com")
	cats := app.seedCategories(t, token)

	app.addTransaction(t, token, cats["餐饮"], "EXPENSE", "30", "2024-03-01")
	app.addTransaction(t, token, cats["餐饮"], "EXPENSE", "20.5", "2024-03-05")
	app.addTransaction(t, token, cats["交通"], "EXPENSE", "100", "2024-03-05")
	app.addTransaction(t, token, cats["工资"], "INCOME", "8000", "2024-03-10")
	app.addTransaction(t, otherToken, cats["餐饮"], "EXPENSE", "999", "2024-03-05")

	t.Run("breakdown", func(t *testing.T) {
		rec := app.request("GET", "/api/v1/analytics/breakdown?view_mode=month&month=3&year=2024", "", token)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		if result["total"].(float64) != 150.5 {
			t.Errorf("expected total 150.5, got %v", result["total"])
		}
		data := result["data"].([]interface{})
		if len(data) != 2 || data[0].(map[string]interface{})["name"] != "交通" {
			t.Errorf("expected 交通 first, got %v", data)
		}
	})

	t.Run("trend", func(t *testing.T) {
		rec := app.request("GET", "/api/v1/analytics/trend?view_mode=custom&start_date=2024-03-01&end_date=2024-03-10", "", token)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		data := parseJSON(t, rec)["data"].([]interface{})
		if len(data) != 10 {
			t.Fatalf("expected 10 daily buckets, got %d", len(data))
		}
		fifth := data[4].(map[string]interface{})
		if fifth["label"] != "3/5" || fifth["expense"].(float64) != 120.5 {
			t.Errorf("unexpected 3/5 bucket: %v", fifth)
		}
		last := data[9].(map[string]interface{})
		if last["income"].(float64) != 8000 {
			t.Errorf("expected 8000 income on 3/10, got %v", last["income"])
		}
	})

	t.Run("top", func(t *testing.T) {
		rec := app.request("GET", "/api/v1/analytics/top?view_mode=month&month=3&year=2024&n=2", "", token)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		data := parseJSON(t, rec)["data"].([]interface{})
		if len(data) != 2 || data[0].(map[string]interface{})["amount"].(float64) != 100 {
			t.Errorf("unexpected ranking: %v", data)
		}
	})

	t.Run("invalid view mode", func(t *testing.T) {
		rec := app.request("GET", "/api/v1/analytics/trend?view_mode=year", "", token)
		if rec.Code != http.StatusBadRequest || errorCode(t, rec) != "INVALID_PARAMETER" {
			t.Fatalf("expected INVALID_PARAMETER, got %d: %s", rec.Code, rec.Body.String())
		}
	})
}

func TestTransactionFlow_Ownership(t *testing.T) {
	app := setupApp(t)
	token, _, _ := app.registerUser(t, "owner@test.com")
	otherToken, _, _ := app.registerUser(t, "intruder@test.com")
	cats := app.seedCategories(t, token)

	app.addTransaction(t, token, cats["餐饮"], "EXPENSE", "12", "2024-03-01")

	rec := app.request("GET", "/api/v1/transactions", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	data := parseJSON(t, rec)["data"].([]interface{})
	if len(data) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(data))
	}
	id := data[0].(map[string]interface{})["id"].(string)

	rec = app.request("DELETE", "/api/v1/transactions/"+id, "", otherToken)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}

	rec = app.request("DELETE", "/api/v1/transactions/"+id, "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

package handlers_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"pizzastore/accounts"
	"pizzastore/apperr"
	"pizzastore/catalog"
	"pizzastore/handlers"
	"pizzastore/middleware"
	"pizzastore/orders"
	"pizzastore/routes"
	"pizzastore/testdb"
)

type api struct {
	t      *testing.T
	router *gin.Engine
	tokens *middleware.Tokens
}

func newAPI(t *testing.T) *api {
	t.Helper()
	gin.SetMode(gin.TestMode)
	gw := testdb.OpenSeeded(t)
	h := &handlers.Handler{
		Accounts: accounts.New(gw, nil, accounts.WithHashCost(bcrypt.MinCost)),
		Catalog:  catalog.New(gw, nil, nil),
		Orders:   orders.New(gw, nil),
		Tokens:   middleware.NewTokens([]byte("test-secret"), time.Hour),
		Gateway:  gw,
	}
	return &api{t: t, router: routes.NewEngine(h, zap.NewNop()), tokens: h.Tokens}
}

func (a *api) token(login string) string {
	tok, err := a.tokens.GenerateToken(login)
	if err != nil {
		a.t.Fatalf("token: %v", err)
	}
	return tok
}

func (a *api) do(method, path, login string, body any) (*httptest.ResponseRecorder, map[string]any) {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			a.t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if login != "" {
		req.Header.Set("Authorization", "Bearer "+a.token(login))
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	var out map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func expect(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("status = %d, want %d: %s", w.Code, want, w.Body.String())
	}
}

func TestStatusFor(t *testing.T) {
	cases := map[apperr.Kind]int{
		apperr.NotFound:        http.StatusNotFound,
		apperr.Unauthorized:    http.StatusForbidden,
		apperr.Unauthenticated: http.StatusUnauthorized,
		apperr.Conflict:        http.StatusConflict,
		apperr.Validation:      http.StatusBadRequest,
		apperr.StoreError:      http.StatusInternalServerError,
	}
	for kind, want := range cases {
		if got := handlers.StatusFor(apperr.New(kind, "op", "x")); got != want {
			t.Fatalf("StatusFor(%v) = %d, want %d", kind, got, want)
		}
	}
	if got := handlers.StatusFor(errors.New("driver exploded")); got != http.StatusInternalServerError {
		t.Fatalf("unclassified error = %d", got)
	}
}

func TestRegisterAndLogin(t *testing.T) {
	a := newAPI(t)

	w, body := a.do(http.MethodPost, "/api/auth/register", "", map[string]string{"login": "carol", "password": "pw", "phone_num": "555"})
	expect(t, w, http.StatusCreated)
	if body["token"] == "" {
		t.Fatalf("missing token: %v", body)
	}
	w, _ = a.do(http.MethodPost, "/api/auth/register", "", map[string]string{"login": "carol", "password": "pw"})
	expect(t, w, http.StatusConflict)

	w, _ = a.do(http.MethodPost, "/api/auth/login", "", map[string]string{"login": "carol", "password": "pw"})
	expect(t, w, http.StatusOK)
	w, _ = a.do(http.MethodPost, "/api/auth/login", "", map[string]string{"login": "carol", "password": "bad"})
	expect(t, w, http.StatusUnauthorized)
	w, _ = a.do(http.MethodPost, "/api/auth/login", "", map[string]string{"login": "carol"})
	expect(t, w, http.StatusBadRequest)
}

func TestMenuAndStores(t *testing.T) {
	a := newAPI(t)

	w, body := a.do(http.MethodGet, "/api/menu?type=drinks&sort=price_desc", "", nil)
	expect(t, w, http.StatusOK)
	if body["count"].(float64) != 1 {
		t.Fatalf("drinks = %v", body)
	}
	w, _ = a.do(http.MethodGet, "/api/menu?max_price=abc", "", nil)
	expect(t, w, http.StatusBadRequest)
	w, _ = a.do(http.MethodGet, "/api/menu/Calzone", "", nil)
	expect(t, w, http.StatusNotFound)
	w, _ = a.do(http.MethodGet, "/api/stores/1", "", nil)
	expect(t, w, http.StatusOK)
	w, _ = a.do(http.MethodGet, "/api/stores/x", "", nil)
	expect(t, w, http.StatusBadRequest)
	w, _ = a.do(http.MethodGet, "/api/order-states", "", nil)
	expect(t, w, http.StatusOK)
	w, _ = a.do(http.MethodGet, "/health", "", nil)
	expect(t, w, http.StatusOK)
}

func TestOrderFlow(t *testing.T) {
	a := newAPI(t)

	w, _ := a.do(http.MethodPost, "/api/orders", "", map[string]any{"store_id": 1})
	expect(t, w, http.StatusUnauthorized)

	order := map[string]any{
		"store_id": 1,
		"items": []map[string]any{
			{"item_name": "Pepperoni Pizza", "quantity": 2},
			{"item_name": "Cola", "quantity": 1},
		},
	}
	w, body := a.do(http.MethodPost, "/api/orders", "alice", order)
	expect(t, w, http.StatusCreated)
	if body["total_price"] != "26.00" {
		t.Fatalf("total = %v", body["total_price"])
	}
	id := int(body["order_id"].(float64))
	path := "/api/orders/" + itoa(id)

	w, _ = a.do(http.MethodGet, path, "bob", nil)
	expect(t, w, http.StatusForbidden)
	w, _ = a.do(http.MethodGet, path, "alice", nil)
	expect(t, w, http.StatusOK)
	w, _ = a.do(http.MethodGet, "/api/orders/999", "meg", nil)
	expect(t, w, http.StatusNotFound)

	w, body = a.do(http.MethodGet, "/api/orders", "alice", nil)
	expect(t, w, http.StatusOK)
	if body["count"].(float64) != 1 {
		t.Fatalf("history = %v", body)
	}
	w, _ = a.do(http.MethodGet, "/api/orders/recent?login=alice", "bob", nil)
	expect(t, w, http.StatusForbidden)
	w, _ = a.do(http.MethodGet, "/api/orders/recent?login=alice&limit=3", "dan", nil)
	expect(t, w, http.StatusOK)

	w, _ = a.do(http.MethodPut, path+"/status", "alice", map[string]string{"status": "preparing"})
	expect(t, w, http.StatusForbidden)
	w, _ = a.do(http.MethodPut, path+"/status", "dan", map[string]string{"status": "complete"})
	expect(t, w, http.StatusBadRequest)
	w, body = a.do(http.MethodPut, path+"/status", "dan", map[string]string{"status": "preparing"})
	expect(t, w, http.StatusOK)
	if body["new_status"] != "preparing" {
		t.Fatalf("new_status = %v", body["new_status"])
	}

	w, body = a.do(http.MethodGet, "/api/staff/orders?status=preparing", "dan", nil)
	expect(t, w, http.StatusOK)
	if body["count"].(float64) != 1 {
		t.Fatalf("staff queue = %v", body)
	}
	w, _ = a.do(http.MethodGet, "/api/staff/orders", "alice", nil)
	expect(t, w, http.StatusForbidden)

	w, _ = a.do(http.MethodPut, "/api/manager/orders/"+itoa(id)+"/status", "dan", map[string]string{"status": "complete"})
	expect(t, w, http.StatusForbidden)
	w, _ = a.do(http.MethodPut, "/api/manager/orders/"+itoa(id)+"/status", "meg", map[string]string{"status": "complete", "reason": "test"})
	expect(t, w, http.StatusOK)

	w, _ = a.do(http.MethodPost, "/api/orders", "alice", map[string]any{
		"store_id": 1,
		"items":    []map[string]any{{"item_name": "Calzone", "quantity": 1}},
	})
	expect(t, w, http.StatusNotFound)
}

func TestProfileEndpoints(t *testing.T) {
	a := newAPI(t)

	w, body := a.do(http.MethodGet, "/api/profile", "alice", nil)
	expect(t, w, http.StatusOK)
	if _, leaked := body["user"].(map[string]any)["password"]; leaked {
		t.Fatalf("password must not be serialized")
	}
	w, _ = a.do(http.MethodGet, "/api/users/bob", "alice", nil)
	expect(t, w, http.StatusForbidden)
	w, _ = a.do(http.MethodGet, "/api/users/bob", "dan", nil)
	expect(t, w, http.StatusOK)

	w, body = a.do(http.MethodPatch, "/api/profile", "alice", map[string]string{"favorite_items": "Cola"})
	expect(t, w, http.StatusOK)
	if body["user"].(map[string]any)["favorite_items"] != "Cola" {
		t.Fatalf("profile = %v", body)
	}
	w, _ = a.do(http.MethodPatch, "/api/profile", "alice", map[string]string{})
	expect(t, w, http.StatusBadRequest)

	w, _ = a.do(http.MethodPatch, "/api/profile", "alice", map[string]string{
		"favorite_items": "Calzone",
		"phone_num":      "1234567890123456789012345",
	})
	expect(t, w, http.StatusBadRequest)
	w, body = a.do(http.MethodGet, "/api/profile", "alice", nil)
	expect(t, w, http.StatusOK)
	if got := body["user"].(map[string]any)["favorite_items"]; got != "Cola" {
		t.Fatalf("rejected PATCH changed favorite_items to %v", got)
	}

	pw := map[string]string{"current_password": "alicepw", "new_password": "a", "confirm_password": "b"}
	w, _ = a.do(http.MethodPut, "/api/profile/password", "alice", pw)
	expect(t, w, http.StatusBadRequest)
	pw["confirm_password"] = "a"
	w, _ = a.do(http.MethodPut, "/api/profile/password", "alice", pw)
	expect(t, w, http.StatusOK)
}

func TestManagerEndpoints(t *testing.T) {
	a := newAPI(t)

	item := map[string]any{"item_name": "Calzone", "type_of_item": "entree", "price": "9.50"}
	w, _ := a.do(http.MethodPost, "/api/manager/menu", "alice", item)
	expect(t, w, http.StatusForbidden)
	w, _ = a.do(http.MethodPost, "/api/manager/menu", "meg", item)
	expect(t, w, http.StatusCreated)
	w, _ = a.do(http.MethodPost, "/api/manager/menu", "meg", item)
	expect(t, w, http.StatusConflict)
	w, body := a.do(http.MethodPatch, "/api/manager/menu/Calzone", "meg", map[string]any{"price": 11})
	expect(t, w, http.StatusOK)
	if body["item"].(map[string]any)["price"] != "11" {
		t.Fatalf("price = %v", body["item"])
	}

	w, body = a.do(http.MethodGet, "/api/manager/users?role=customer", "meg", nil)
	expect(t, w, http.StatusOK)
	if body["count"].(float64) != 2 {
		t.Fatalf("customers = %v", body)
	}
	w, _ = a.do(http.MethodPatch, "/api/manager/users/bob", "meg", map[string]string{"role": "Driver"})
	expect(t, w, http.StatusOK)
	// bob's existing token picks up the new role immediately
	w, _ = a.do(http.MethodGet, "/api/staff/orders", "bob", nil)
	expect(t, w, http.StatusOK)
	w, _ = a.do(http.MethodPatch, "/api/manager/users/bob", "meg", map[string]string{"role": "Chef"})
	expect(t, w, http.StatusBadRequest)
}

func itoa(n int) string {
	b, _ := json.Marshal(n)
	return string(b)
}

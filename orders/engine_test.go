package orders_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"pizzastore/apperr"
	"pizzastore/gateway"
	"pizzastore/models"
	"pizzastore/orders"
	"pizzastore/policy"
	"pizzastore/testdb"
)

var (
	alice = policy.Principal{Login: "alice", Role: models.RoleCustomer}
	bob   = policy.Principal{Login: "bob", Role: models.RoleCustomer}
	dan   = policy.Principal{Login: "dan", Role: models.RoleDriver}
	meg   = policy.Principal{Login: "meg", Role: models.RoleManager}
)

// stepClock advances one minute per call.
func stepClock() func() time.Time {
	t := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Minute)
		return t
	}
}

func newEngine(t *testing.T) (*orders.Engine, *gateway.Gateway) {
	t.Helper()
	gw := testdb.OpenSeeded(t)
	return orders.New(gw, nil).WithClock(stepClock()), gw
}

func place(t *testing.T, e *orders.Engine, p policy.Principal, cart ...orders.CartLine) models.Order {
	t.Helper()
	o, err := e.PlaceOrder(context.Background(), p, 1, cart)
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	return o
}

func count(t *testing.T, gw *gateway.Gateway, model any) int64 {
	t.Helper()
	var n int64
	if err := gw.DB(context.Background()).Model(model).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func TestPlaceOrder(t *testing.T) {
	e, gw := newEngine(t)

	o := place(t, e, alice,
		orders.CartLine{ItemName: "Pepperoni Pizza", Quantity: 2},
		orders.CartLine{ItemName: "Cola", Quantity: 1},
	)
	if !o.TotalPrice.Equal(decimal.RequireFromString("26.00")) {
		t.Fatalf("total = %s, want 26.00", o.TotalPrice)
	}
	if o.OrderStatus != models.StatusIncomplete || o.OrderID == 0 || o.Login != "alice" {
		t.Fatalf("unexpected header %+v", o)
	}
	if len(o.Lines) != 2 {
		t.Fatalf("lines = %+v", o.Lines)
	}

	detail, err := e.Detail(context.Background(), alice, o.OrderID)
	if err != nil {
		t.Fatalf("Detail: %v", err)
	}
	if len(detail.Lines) != 2 || detail.Lines[0].ItemName != "Cola" || detail.Lines[1].Quantity != 2 {
		t.Fatalf("persisted lines = %+v", detail.Lines)
	}
	if len(detail.History) != 1 || detail.History[0].ToStatus != models.StatusIncomplete {
		t.Fatalf("history = %+v", detail.History)
	}
	if !detail.TotalPrice.Equal(decimal.RequireFromString("26")) {
		t.Fatalf("stored total = %s", detail.TotalPrice)
	}
	if n := count(t, gw, &models.Order{}); n != 1 {
		t.Fatalf("orders = %d", n)
	}
}

func TestPlaceOrderMergesDuplicateLines(t *testing.T) {
	e, _ := newEngine(t)

	o := place(t, e, alice,
		orders.CartLine{ItemName: "Cola", Quantity: 1},
		orders.CartLine{ItemName: " Cola ", Quantity: 2},
		orders.CartLine{ItemName: "Garlic Bread", Quantity: 1},
	)
	if len(o.Lines) != 2 || o.Lines[0].ItemName != "Cola" || o.Lines[0].Quantity != 3 {
		t.Fatalf("lines not merged: %+v", o.Lines)
	}
	if !o.TotalPrice.Equal(decimal.RequireFromString("10.25")) {
		t.Fatalf("total = %s, want 10.25", o.TotalPrice)
	}
}

func TestPlaceOrderFailuresLeaveNoRows(t *testing.T) {
	e, gw := newEngine(t)
	ctx := context.Background()

	cases := []struct {
		name    string
		store   int
		cart    []orders.CartLine
		want    apperr.Kind
		message string
	}{
		{"unknown store", 99, []orders.CartLine{{ItemName: "Cola", Quantity: 1}}, apperr.NotFound, "store 99"},
		{"unknown item", 1, []orders.CartLine{{ItemName: "Cola", Quantity: 1}, {ItemName: "Calzone", Quantity: 1}}, apperr.NotFound, "Calzone"},
		{"empty cart", 1, nil, apperr.Validation, ""},
		{"zero quantity", 1, []orders.CartLine{{ItemName: "Cola", Quantity: 0}}, apperr.Validation, "Cola"},
		{"blank item", 1, []orders.CartLine{{ItemName: "  ", Quantity: 1}}, apperr.Validation, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.PlaceOrder(ctx, alice, tc.store, tc.cart)
			if got := apperr.KindOf(err); got != tc.want {
				t.Fatalf("kind = %v (%v), want %v", got, err, tc.want)
			}
			if !strings.Contains(apperr.Message(err), tc.message) {
				t.Fatalf("message %q should mention %q", apperr.Message(err), tc.message)
			}
		})
	}
	for _, model := range []any{&models.Order{}, &models.OrderLine{}, &models.OrderStatusHistory{}} {
		if n := count(t, gw, model); n != 0 {
			t.Fatalf("%T rows left behind: %d", model, n)
		}
	}
}

func TestHistoryAndRecent(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()

	var ids []int
	for i := 0; i < 7; i++ {
		ids = append(ids, place(t, e, alice, orders.CartLine{ItemName: "Cola", Quantity: i + 1}).OrderID)
	}
	place(t, e, bob, orders.CartLine{ItemName: "Cola", Quantity: 1})

	hist, err := e.History(ctx, alice, "alice")
	if err != nil || len(hist) != 7 {
		t.Fatalf("History = %d orders, %v", len(hist), err)
	}
	for i, o := range hist {
		if o.OrderID != ids[i] {
			t.Fatalf("history[%d] = %d, want %d", i, o.OrderID, ids[i])
		}
	}

	recent, err := e.Recent(ctx, alice, "alice", 0)
	if err != nil || len(recent) != orders.DefaultRecentLimit {
		t.Fatalf("Recent = %d orders, %v", len(recent), err)
	}
	if recent[0].OrderID != ids[6] || recent[4].OrderID != ids[2] {
		t.Fatalf("recent not newest first: %d..%d", recent[0].OrderID, recent[4].OrderID)
	}
	two, _ := e.Recent(ctx, alice, "alice", 2)
	if len(two) != 2 {
		t.Fatalf("limit 2 returned %d", len(two))
	}

	if _, err := e.History(ctx, bob, "alice"); !errors.Is(err, apperr.Unauthorized) {
		t.Fatalf("bob reading alice's history: %v", err)
	}
	if h, err := e.History(ctx, dan, "alice"); err != nil || len(h) != 7 {
		t.Fatalf("driver History = %d, %v", len(h), err)
	}
	if h, err := e.History(ctx, alice, "nobody-yet"); err == nil {
		t.Fatalf("customer reading another login should fail, got %d orders", len(h))
	}
}

func TestRecentOrdersByTimestampNotID(t *testing.T) {
	gw := testdb.OpenSeeded(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	at := func(d time.Duration) *orders.Engine {
		ts := base.Add(d)
		return orders.New(gw, nil).WithClock(func() time.Time { return ts })
	}

	// later IDs get earlier timestamps, as with clock skew between instances
	first := place(t, at(30*time.Minute), alice, orders.CartLine{ItemName: "Cola", Quantity: 1})
	second := place(t, at(10*time.Minute), alice, orders.CartLine{ItemName: "Cola", Quantity: 1})
	third := place(t, at(20*time.Minute), alice, orders.CartLine{ItemName: "Cola", Quantity: 1})
	tie := place(t, at(20*time.Minute), alice, orders.CartLine{ItemName: "Cola", Quantity: 1})

	recent, err := at(0).Recent(ctx, alice, "alice", 0)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	want := []int{first.OrderID, tie.OrderID, third.OrderID, second.OrderID}
	if len(recent) != len(want) {
		t.Fatalf("Recent = %d orders, want %d", len(recent), len(want))
	}
	for i, o := range recent {
		if o.OrderID != want[i] {
			t.Fatalf("recent[%d] = %d, want %d (full order %v)", i, o.OrderID, want[i], want)
		}
	}
}

func TestDetailAccess(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()
	o := place(t, e, alice, orders.CartLine{ItemName: "Cola", Quantity: 1})

	if _, err := e.Detail(ctx, bob, o.OrderID); !errors.Is(err, apperr.Unauthorized) {
		t.Fatalf("expected Unauthorized, got %v", err)
	}
	for _, p := range []policy.Principal{dan, meg} {
		if _, err := e.Detail(ctx, p, o.OrderID); err != nil {
			t.Fatalf("%s Detail: %v", p.Role, err)
		}
	}
	if _, err := e.Detail(ctx, meg, 4242); !errors.Is(err, apperr.NotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

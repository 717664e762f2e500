// Package testdb provides migrated in-memory databases for tests.
package testdb

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"pizzastore/gateway"
	"pizzastore/models"
)

// Open returns a gateway over a fresh, migrated in-memory database.
// The pool is pinned to a single connection so every statement sees the
// same in-memory database.
func Open(t testing.TB) *gateway.Gateway {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(gateway.SQLiteDSN(":memory:")), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	gw := gateway.New(db)
	if err := gw.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { _ = gw.Close() })
	return gw
}

// Stores, Items and Users are the rows written by Seed.
var (
	Stores = []models.Store{
		{StoreID: 1, Address: "100 Main St", City: "Riverside", State: "CA", IsOpen: true, Rating: 4.5},
		{StoreID: 2, Address: "42 Elm Ave", City: "Irvine", State: "CA", IsOpen: false, Rating: 3.8},
	}
	Items = []models.Item{
		{ItemName: "Pepperoni Pizza", Ingredients: "dough, cheese, pepperoni", TypeOfItem: " entree", Price: decimal.RequireFromString("12.00"), Description: "classic"},
		{ItemName: "Veggie Pizza", Ingredients: "dough, cheese, peppers", TypeOfItem: " entree", Price: decimal.RequireFromString("10.50"), Description: "garden"},
		{ItemName: "Garlic Bread", Ingredients: "bread, garlic", TypeOfItem: " sides", Price: decimal.RequireFromString("4.25"), Description: "warm"},
		{ItemName: "Cola", Ingredients: "cola", TypeOfItem: " drinks", Price: decimal.RequireFromString("2.00"), Description: "cold"},
	}
	// Passwords are stored in plaintext, as legacy rows were.
	Users = []models.User{
		{Login: "alice", Password: "alicepw", Role: models.RoleCustomer, PhoneNum: "555-0100"},
		{Login: "bob", Password: "bobpw", Role: models.RoleCustomer, PhoneNum: "555-0101"},
		{Login: "dan", Password: "danpw", Role: models.RoleDriver, PhoneNum: "555-0102"},
		{Login: "meg", Password: "megpw", Role: models.RoleManager, PhoneNum: "555-0103"},
	}
)

// Seed writes the fixture stores, items and users.
func Seed(t testing.TB, gw *gateway.Gateway) {
	t.Helper()
	db := gw.DB(t.Context())
	stores := append([]models.Store(nil), Stores...)
	items := append([]models.Item(nil), Items...)
	users := append([]models.User(nil), Users...)
	for _, rows := range []any{&stores, &items, &users} {
		if err := db.Create(rows).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
}

// OpenSeeded is Open followed by Seed.
func OpenSeeded(t testing.TB) *gateway.Gateway {
	gw := Open(t)
	Seed(t, gw)
	return gw
}

package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus represents all possible states of a pizza order
type OrderStatus string

const (
	StatusIncomplete     OrderStatus = "incomplete"
	StatusPreparing      OrderStatus = "preparing"
	StatusOutForDelivery OrderStatus = "out-for-delivery"
	StatusComplete       OrderStatus = "complete"
	StatusCancelled      OrderStatus = "cancelled"
)

// Statuses lists the closed set of order states in lifecycle order.
var Statuses = []OrderStatus{
	StatusIncomplete,
	StatusPreparing,
	StatusOutForDelivery,
	StatusComplete,
	StatusCancelled,
}

// ParseStatus maps free text onto the closed status set. Case, padding and
// spaces or underscores in place of hyphens are tolerated.
func ParseStatus(s string) (OrderStatus, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	v = strings.NewReplacer(" ", "-", "_", "-").Replace(v)
	for _, st := range Statuses {
		if v == string(st) {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown order status %q", s)
}

// Terminal reports whether no further transition is possible.
func (s OrderStatus) Terminal() bool {
	return s == StatusComplete || s == StatusCancelled
}

type Order struct {
	OrderID        int                  `json:"order_id" gorm:"column:orderid;primaryKey;autoIncrement"`
	Login          string               `json:"login" gorm:"column:login;not null;size:50;index"`
	StoreID        int                  `json:"store_id" gorm:"column:storeid;not null"`
	TotalPrice     decimal.Decimal      `json:"total_price" gorm:"column:totalprice;type:decimal(10,2);not null"`
	OrderTimestamp time.Time            `json:"order_timestamp" gorm:"column:ordertimestamp;not null"`
	OrderStatus    OrderStatus          `json:"order_status" gorm:"column:orderstatus;not null;size:50"`
	Lines          []OrderLine          `json:"lines,omitempty" gorm:"foreignKey:OrderID;references:OrderID"`
	History        []OrderStatusHistory `json:"history,omitempty" gorm:"foreignKey:OrderID;references:OrderID"`
	User           User                 `json:"-" gorm:"foreignKey:Login;references:Login;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Store          Store                `json:"-" gorm:"foreignKey:StoreID;references:StoreID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

func (Order) TableName() string { return "foodorder" }

type OrderLine struct {
	OrderID  int    `json:"order_id" gorm:"column:orderid;primaryKey;autoIncrement:false"`
	ItemName string `json:"item_name" gorm:"column:itemname;primaryKey;size:50"`
	Quantity int    `json:"quantity" gorm:"column:quantity;not null"`
	Item     Item   `json:"-" gorm:"foreignKey:ItemName;references:ItemName;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

func (OrderLine) TableName() string { return "itemsinorder" }

// OrderStatusHistory tracks every status change of an order
type OrderStatusHistory struct {
	ID         uint        `json:"id" gorm:"primaryKey"`
	OrderID    int         `json:"order_id" gorm:"column:orderid;not null;index"`
	FromStatus OrderStatus `json:"from_status" gorm:"column:fromstatus;size:50"`
	ToStatus   OrderStatus `json:"to_status" gorm:"column:tostatus;not null;size:50"`
	ChangedBy  string      `json:"changed_by" gorm:"column:changedby;size:50"`
	Note       string      `json:"note" gorm:"column:note;size:300"`
	CreatedAt  time.Time   `json:"created_at" gorm:"column:createdat"`
}

func (OrderStatusHistory) TableName() string { return "orderstatushistory" }

// All returns every model in migration order.
func All() []any {
	return []any{
		&User{},
		&Store{},
		&Item{},
		&Order{},
		&OrderLine{},
		&OrderStatusHistory{},
	}
}

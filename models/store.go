package models

import "github.com/shopspring/decimal"

type Store struct {
	StoreID int     `json:"store_id" gorm:"column:storeid;primaryKey;autoIncrement:false"`
	Address string  `json:"address" gorm:"column:address;size:200"`
	City    string  `json:"city" gorm:"column:city;size:100"`
	State   string  `json:"state" gorm:"column:state;size:50"`
	IsOpen  bool    `json:"is_open" gorm:"column:isopen"`
	Rating  float64 `json:"rating" gorm:"column:rating;default:0"`
}

func (Store) TableName() string { return "store" }

type Item struct {
	ItemName    string          `json:"item_name" gorm:"column:itemname;primaryKey;size:50" validate:"required,max=50"`
	Ingredients string          `json:"ingredients" gorm:"column:ingredients;size:300" validate:"max=300"`
	TypeOfItem  string          `json:"type_of_item" gorm:"column:typeofitem;size:40" validate:"required,max=40"`
	Price       decimal.Decimal `json:"price" gorm:"column:price;type:decimal(10,2);not null"`
	Description string          `json:"description" gorm:"column:description;size:400" validate:"max=400"`
}

func (Item) TableName() string { return "items" }

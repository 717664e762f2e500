package catalog

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"pizzastore/apperr"
	"pizzastore/gateway"
	"pizzastore/models"
	"pizzastore/policy"
	"pizzastore/validation"
)

// ItemUpdate carries the fields to change; nil fields are left alone.
type ItemUpdate struct {
	NewName     *string          `json:"new_name"`
	Ingredients *string          `json:"ingredients"`
	TypeOfItem  *string          `json:"type_of_item"`
	Price       *decimal.Decimal `json:"price"`
	Description *string          `json:"description"`
}

func (u ItemUpdate) empty() bool {
	return u.NewName == nil && u.Ingredients == nil && u.TypeOfItem == nil &&
		u.Price == nil && u.Description == nil
}

// AddItem inserts a new menu item. Managers only.
func (c *Catalog) AddItem(ctx context.Context, p policy.Principal, item models.Item) (models.Item, error) {
	const op = "catalog.AddItem"
	if err := policy.Require(p, policy.UpdateMenu); err != nil {
		return models.Item{}, err
	}
	item.ItemName = strings.TrimSpace(item.ItemName)
	item.TypeOfItem = strings.TrimSpace(item.TypeOfItem)
	if err := validation.Struct(op, item); err != nil {
		return models.Item{}, err
	}
	if item.Price.IsNegative() {
		return models.Item{}, apperr.New(apperr.Validation, op, "price must not be negative")
	}
	item.Price = item.Price.Round(2)

	err := c.gw.Tx(ctx, op, func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.Item{}).Where("itemname = ?", item.ItemName).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return apperr.Errorf(apperr.Conflict, op, "item %q already exists", item.ItemName)
		}
		return tx.Create(&item).Error
	})
	if err != nil {
		return models.Item{}, err
	}
	c.invalidate(ctx)
	c.log.Info("menu item added", zap.String("item", item.ItemName), zap.String("by", p.Login))
	return item, nil
}

// UpdateItem changes an existing item. Renaming rewrites the order lines that
// reference the old name in the same transaction.
func (c *Catalog) UpdateItem(ctx context.Context, p policy.Principal, name string, upd ItemUpdate) (models.Item, error) {
	const op = "catalog.UpdateItem"
	if err := policy.Require(p, policy.UpdateMenu); err != nil {
		return models.Item{}, err
	}
	if upd.empty() {
		return models.Item{}, apperr.New(apperr.Validation, op, "nothing to update")
	}
	if upd.Price != nil && upd.Price.IsNegative() {
		return models.Item{}, apperr.New(apperr.Validation, op, "price must not be negative")
	}
	name = strings.TrimSpace(name)

	var item models.Item
	err := c.gw.Tx(ctx, op, func(tx *gorm.DB) error {
		if err := tx.Where("itemname = ?", name).First(&item).Error; err != nil {
			if apperr.KindOf(gateway.Classify(op, err)) == apperr.NotFound {
				return apperr.Errorf(apperr.NotFound, op, "item %q not found", name)
			}
			return err
		}
		oldName := item.ItemName
		applyItemUpdate(&item, upd)
		if err := validation.Struct(op, item); err != nil {
			return err
		}

		if item.ItemName == oldName {
			return tx.Model(&models.Item{}).Where("itemname = ?", oldName).Updates(map[string]any{
				"ingredients": item.Ingredients,
				"typeofitem":  item.TypeOfItem,
				"price":       item.Price,
				"description": item.Description,
			}).Error
		}

		var n int64
		if err := tx.Model(&models.Item{}).Where("itemname = ?", item.ItemName).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return apperr.Errorf(apperr.Conflict, op, "item %q already exists", item.ItemName)
		}
		if err := tx.Create(&item).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.OrderLine{}).Where("itemname = ?", oldName).
			Update("itemname", item.ItemName).Error; err != nil {
			return err
		}
		return tx.Where("itemname = ?", oldName).Delete(&models.Item{}).Error
	})
	if err != nil {
		return models.Item{}, err
	}
	c.invalidate(ctx)
	c.log.Info("menu item updated", zap.String("item", name), zap.String("now", item.ItemName), zap.String("by", p.Login))
	return item, nil
}

func applyItemUpdate(item *models.Item, upd ItemUpdate) {
	if upd.NewName != nil {
		item.ItemName = strings.TrimSpace(*upd.NewName)
	}
	if upd.Ingredients != nil {
		item.Ingredients = *upd.Ingredients
	}
	if upd.TypeOfItem != nil {
		item.TypeOfItem = strings.TrimSpace(*upd.TypeOfItem)
	}
	if upd.Price != nil {
		item.Price = upd.Price.Round(2)
	}
	if upd.Description != nil {
		item.Description = *upd.Description
	}
}

func (c *Catalog) invalidate(ctx context.Context) {
	if err := c.cache.Invalidate(ctx); err != nil {
		c.log.Warn("menu cache invalidation failed", zap.Error(err))
	}
}

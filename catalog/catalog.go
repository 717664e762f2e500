// Package catalog reads and edits the menu and the store directory.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"pizzastore/apperr"
	"pizzastore/gateway"
	"pizzastore/models"
)

// Sort orders ListItems results.
type Sort int

const (
	SortNone Sort = iota // by item name
	SortPriceAsc
	SortPriceDesc
)

// ParseSort accepts "", "none", "price_asc"/"asc" and "price_desc"/"desc".
func ParseSort(s string) (Sort, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "name":
		return SortNone, nil
	case "asc", "price_asc", "price":
		return SortPriceAsc, nil
	case "desc", "price_desc":
		return SortPriceDesc, nil
	}
	return SortNone, apperr.Errorf(apperr.Validation, "catalog.ParseSort", "unknown sort %q", s)
}

// Filter narrows ListItems. Zero values match everything.
type Filter struct {
	Type     string
	MaxPrice *decimal.Decimal
}

func (f Filter) cacheKey(s Sort) string {
	max := "-"
	if f.MaxPrice != nil {
		max = f.MaxPrice.StringFixed(2)
	}
	return fmt.Sprintf("items:type=%s:max=%s:sort=%d", strings.ToLower(strings.TrimSpace(f.Type)), max, s)
}

type Catalog struct {
	gw    *gateway.Gateway
	cache Cache
	log   *zap.Logger
}

// New builds a Catalog. A nil cache disables read caching.
func New(gw *gateway.Gateway, cache Cache, log *zap.Logger) *Catalog {
	if cache == nil {
		cache = NopCache{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Catalog{gw: gw, cache: cache, log: log}
}

// ListItems returns menu items matching f in the requested order.
func (c *Catalog) ListItems(ctx context.Context, f Filter, s Sort) ([]models.Item, error) {
	const op = "catalog.ListItems"
	if f.MaxPrice != nil && f.MaxPrice.IsNegative() {
		return nil, apperr.New(apperr.Validation, op, "max price must not be negative")
	}

	// Results are stored under the generation read here, before the query.
	key := f.cacheKey(s)
	raw, gen, hit, err := c.cache.Get(ctx, key)
	cacheable := err == nil
	if err != nil {
		c.log.Warn("menu cache read failed", zap.String("key", key), zap.Error(err))
	} else if hit {
		var items []models.Item
		if err := json.Unmarshal(raw, &items); err == nil {
			return items, nil
		}
		c.log.Warn("menu cache entry corrupt", zap.String("key", key))
	}

	q := c.gw.DB(ctx).Model(&models.Item{})
	if t := strings.TrimSpace(f.Type); t != "" {
		q = q.Where("LOWER(TRIM(typeofitem)) = ?", strings.ToLower(t))
	}
	if f.MaxPrice != nil {
		q = q.Where("price <= ?", *f.MaxPrice)
	}
	switch s {
	case SortPriceAsc:
		q = q.Order("price asc").Order("itemname asc")
	case SortPriceDesc:
		q = q.Order("price desc").Order("itemname asc")
	default:
		q = q.Order("itemname asc")
	}

	var items []models.Item
	if err := q.Find(&items).Error; err != nil {
		return nil, gateway.Classify(op, err)
	}

	if !cacheable {
		return items, nil
	}
	if raw, err := json.Marshal(items); err == nil {
		if err := c.cache.Set(ctx, gen, key, raw); err != nil {
			c.log.Warn("menu cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return items, nil
}

// FindItem looks up one item by its exact name.
func (c *Catalog) FindItem(ctx context.Context, name string) (models.Item, error) {
	const op = "catalog.FindItem"
	var item models.Item
	err := c.gw.DB(ctx).Where("itemname = ?", strings.TrimSpace(name)).First(&item).Error
	if err != nil {
		if apperr.KindOf(gateway.Classify(op, err)) == apperr.NotFound {
			return item, apperr.Errorf(apperr.NotFound, op, "item %q not found", name)
		}
		return item, gateway.Classify(op, err)
	}
	return item, nil
}

func (c *Catalog) ListStores(ctx context.Context) ([]models.Store, error) {
	var stores []models.Store
	if err := c.gw.DB(ctx).Order("storeid asc").Find(&stores).Error; err != nil {
		return nil, gateway.Classify("catalog.ListStores", err)
	}
	return stores, nil
}

func (c *Catalog) FindStore(ctx context.Context, id int) (models.Store, error) {
	const op = "catalog.FindStore"
	var store models.Store
	err := c.gw.DB(ctx).Where("storeid = ?", id).First(&store).Error
	if err != nil {
		if apperr.KindOf(gateway.Classify(op, err)) == apperr.NotFound {
			return store, apperr.Errorf(apperr.NotFound, op, "store %d not found", id)
		}
		return store, gateway.Classify(op, err)
	}
	return store, nil
}

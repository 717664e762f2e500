// Package orders implements order placement, history queries and the order
// status workflow.
package orders

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pizzastore/apperr"
	"pizzastore/gateway"
	"pizzastore/models"
	"pizzastore/policy"
	"pizzastore/validation"
)

// DefaultRecentLimit is used by Recent when no positive limit is given.
const DefaultRecentLimit = 5

// CartLine is one requested item and quantity.
type CartLine struct {
	ItemName string `json:"item_name" validate:"required,max=50"`
	Quantity int    `json:"quantity" validate:"min=1"`
}

type placeRequest struct {
	Login   string     `validate:"required"`
	StoreID int        `validate:"min=1"`
	Lines   []CartLine `validate:"required,min=1,dive"`
}

type Engine struct {
	gw      *gateway.Gateway
	log     *zap.Logger
	tracer  trace.Tracer
	nowFunc func() time.Time
}

func New(gw *gateway.Gateway, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		gw:      gw,
		log:     log,
		tracer:  otel.Tracer("pizzastore/orders"),
		nowFunc: func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the clock used for order timestamps.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.nowFunc = now
	return e
}

func (e *Engine) start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return e.tracer.Start(ctx, "orders."+name, trace.WithAttributes(attrs...))
}

func finish(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, apperr.Message(err))
	}
	span.End()
}

// mergeCart trims item names and folds repeated items into one line, keeping
// first-seen order.
func mergeCart(cart []CartLine) []CartLine {
	merged := make([]CartLine, 0, len(cart))
	index := map[string]int{}
	for _, line := range cart {
		line.ItemName = strings.TrimSpace(line.ItemName)
		if i, ok := index[line.ItemName]; ok && line.ItemName != "" {
			merged[i].Quantity += line.Quantity
			continue
		}
		index[line.ItemName] = len(merged)
		merged = append(merged, line)
	}
	return merged
}

// PlaceOrder validates the store and every cart item, then writes the order
// header, its lines and the first history row in one transaction. A missing
// store or item aborts the whole order.
func (e *Engine) PlaceOrder(ctx context.Context, customer policy.Principal, storeID int, cart []CartLine) (order models.Order, err error) {
	const op = "orders.PlaceOrder"
	ctx, span := e.start(ctx, "PlaceOrder", attribute.String("login", customer.Login), attribute.Int("store_id", storeID))
	defer func() { finish(span, err) }()

	if err := policy.Require(customer, policy.ViewOwn); err != nil {
		return models.Order{}, err
	}
	for _, line := range cart {
		if line.Quantity < 1 {
			return models.Order{}, apperr.Errorf(apperr.Validation, op,
				"quantity for %q must be at least 1", strings.TrimSpace(line.ItemName))
		}
	}
	req := placeRequest{Login: customer.Login, StoreID: storeID, Lines: mergeCart(cart)}
	if err := validation.Struct(op, req); err != nil {
		return models.Order{}, err
	}

	err = e.gw.Tx(ctx, op, func(tx *gorm.DB) error {
		var store models.Store
		if err := tx.Where("storeid = ?", storeID).First(&store).Error; err != nil {
			if apperr.KindOf(gateway.Classify(op, err)) == apperr.NotFound {
				return apperr.Errorf(apperr.NotFound, op, "store %d not found", storeID)
			}
			return err
		}

		total := decimal.Zero
		lines := make([]models.OrderLine, 0, len(req.Lines))
		for _, cl := range req.Lines {
			var item models.Item
			if err := tx.Where("itemname = ?", cl.ItemName).First(&item).Error; err != nil {
				if apperr.KindOf(gateway.Classify(op, err)) == apperr.NotFound {
					return apperr.Errorf(apperr.NotFound, op, "item %q not found", cl.ItemName)
				}
				return err
			}
			total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(cl.Quantity))))
			lines = append(lines, models.OrderLine{ItemName: item.ItemName, Quantity: cl.Quantity})
		}

		order = models.Order{
			Login:          customer.Login,
			StoreID:        storeID,
			TotalPrice:     total.Round(2),
			OrderTimestamp: e.nowFunc(),
			OrderStatus:    models.StatusIncomplete,
		}
		if err := tx.Omit(clause.Associations).Create(&order).Error; err != nil {
			return err
		}
		for i := range lines {
			lines[i].OrderID = order.OrderID
		}
		if err := tx.Omit(clause.Associations).Create(&lines).Error; err != nil {
			return err
		}
		history := models.OrderStatusHistory{
			OrderID:   order.OrderID,
			ToStatus:  models.StatusIncomplete,
			ChangedBy: customer.Login,
			Note:      "order placed",
			CreatedAt: order.OrderTimestamp,
		}
		if err := tx.Create(&history).Error; err != nil {
			return err
		}
		order.Lines = lines
		order.History = []models.OrderStatusHistory{history}
		return nil
	})
	if err != nil {
		return models.Order{}, err
	}

	e.log.Info("order placed",
		zap.Int("order_id", order.OrderID),
		zap.String("login", order.Login),
		zap.Int("store_id", storeID),
		zap.String("total", order.TotalPrice.StringFixed(2)),
		zap.Int("lines", len(order.Lines)),
	)
	return order, nil
}

// History returns every order of login in insertion order.
func (e *Engine) History(ctx context.Context, requester policy.Principal, login string) (out []models.Order, err error) {
	const op = "orders.History"
	ctx, span := e.start(ctx, "History", attribute.String("login", login))
	defer func() { finish(span, err) }()

	if err := policy.CanAccessUser(requester, login); err != nil {
		return nil, err
	}
	if err := e.gw.DB(ctx).Where("login = ?", login).Order("orderid asc").Find(&out).Error; err != nil {
		return nil, gateway.Classify(op, err)
	}
	return out, nil
}

// Recent returns at most limit orders of login, newest first.
func (e *Engine) Recent(ctx context.Context, requester policy.Principal, login string, limit int) (out []models.Order, err error) {
	const op = "orders.Recent"
	ctx, span := e.start(ctx, "Recent", attribute.String("login", login), attribute.Int("limit", limit))
	defer func() { finish(span, err) }()

	if err := policy.CanAccessUser(requester, login); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	err = e.gw.DB(ctx).Where("login = ?", login).
		Order("ordertimestamp desc").Order("orderid desc").
		Limit(limit).Find(&out).Error
	if err != nil {
		return nil, gateway.Classify(op, err)
	}
	return out, nil
}

// Detail returns the order with its lines and status history. Customers may
// only see their own orders.
func (e *Engine) Detail(ctx context.Context, requester policy.Principal, orderID int) (order models.Order, err error) {
	const op = "orders.Detail"
	ctx, span := e.start(ctx, "Detail", attribute.Int("order_id", orderID))
	defer func() { finish(span, err) }()

	err = e.gw.DB(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("itemname asc") }).
		Preload("History", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		Where("orderid = ?", orderID).
		First(&order).Error
	if err != nil {
		if apperr.KindOf(gateway.Classify(op, err)) == apperr.NotFound {
			return models.Order{}, apperr.Errorf(apperr.NotFound, op, "order %d not found", orderID)
		}
		return models.Order{}, gateway.Classify(op, err)
	}
	if policy.CanAccessUser(requester, order.Login) != nil {
		return models.Order{}, apperr.Errorf(apperr.Unauthorized, op,
			"order %d does not belong to %s", orderID, requester.Login)
	}
	return order, nil
}

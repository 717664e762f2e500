package orders

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"pizzastore/apperr"
	"pizzastore/gateway"
	"pizzastore/models"
	"pizzastore/policy"
	"pizzastore/statemachine"
)

// OverrideNotePrefix marks history rows written by ForceStatus.
const OverrideNotePrefix = "[MANAGER OVERRIDE]"

// StatusChange describes a committed status update.
type StatusChange struct {
	OrderID int                `json:"order_id"`
	From    models.OrderStatus `json:"previous_status"`
	To      models.OrderStatus `json:"new_status"`
}

// UpdateStatus moves an order to newStatus if the state machine allows it for
// the requester's role.
func (e *Engine) UpdateStatus(ctx context.Context, requester policy.Principal, orderID int, newStatus, note string) (change StatusChange, err error) {
	const op = "orders.UpdateStatus"
	ctx, span := e.start(ctx, "UpdateStatus", attribute.Int("order_id", orderID), attribute.String("status", newStatus))
	defer func() { finish(span, err) }()

	if err := policy.Require(requester, policy.UpdateOrderStatus); err != nil {
		return StatusChange{}, err
	}
	to, err := models.ParseStatus(newStatus)
	if err != nil {
		return StatusChange{}, apperr.Wrap(apperr.Validation, op, err, err.Error())
	}
	if strings.TrimSpace(note) == "" {
		note = fmt.Sprintf("status set to %s by %s", to, requester.Login)
	}
	return e.changeStatus(ctx, op, requester, orderID, to, note, func(from models.OrderStatus) error {
		if err := statemachine.CanTransition(from, to, requester.Role); err != nil {
			return apperr.Wrap(apperr.Validation, op, err, err.Error())
		}
		return nil
	})
}

// ForceStatus sets any valid status regardless of the transition table.
// Managers only; the history row is marked as an override.
func (e *Engine) ForceStatus(ctx context.Context, requester policy.Principal, orderID int, newStatus, reason string) (change StatusChange, err error) {
	const op = "orders.ForceStatus"
	ctx, span := e.start(ctx, "ForceStatus", attribute.Int("order_id", orderID), attribute.String("status", newStatus))
	defer func() { finish(span, err) }()

	if err := policy.Require(requester, policy.OverrideOrderStatus); err != nil {
		return StatusChange{}, err
	}
	to, err := models.ParseStatus(newStatus)
	if err != nil {
		return StatusChange{}, apperr.Wrap(apperr.Validation, op, err, err.Error())
	}
	note := strings.TrimSpace(OverrideNotePrefix + " " + strings.TrimSpace(reason))
	change, err = e.changeStatus(ctx, op, requester, orderID, to, note, nil)
	if err == nil {
		e.log.Warn("order status overridden",
			zap.Int("order_id", orderID),
			zap.String("from", string(change.From)),
			zap.String("to", string(change.To)),
			zap.String("by", requester.Login),
		)
	}
	return change, err
}

// changeStatus loads the order, runs check against its current status and
// writes the new status plus a history row. The update is conditional on the
// status read, so a concurrent change surfaces as Conflict.
func (e *Engine) changeStatus(ctx context.Context, op string, requester policy.Principal, orderID int, to models.OrderStatus, note string, check func(from models.OrderStatus) error) (StatusChange, error) {
	change := StatusChange{OrderID: orderID, To: to}
	err := e.gw.Tx(ctx, op, func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.Where("orderid = ?", orderID).First(&order).Error; err != nil {
			if apperr.KindOf(gateway.Classify(op, err)) == apperr.NotFound {
				return apperr.Errorf(apperr.NotFound, op, "order %d not found", orderID)
			}
			return err
		}
		stored := order.OrderStatus
		from, perr := models.ParseStatus(string(stored))
		if perr != nil && check != nil {
			return apperr.Errorf(apperr.Validation, op, "order %d has unrecognized status %q", orderID, stored)
		}
		if perr != nil {
			from = stored
		}
		change.From = from
		if check != nil {
			if err := check(from); err != nil {
				return err
			}
		}

		res := tx.Model(&models.Order{}).
			Where("orderid = ? AND orderstatus = ?", orderID, stored).
			Update("orderstatus", to)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.Errorf(apperr.Conflict, op, "order %d was changed concurrently", orderID)
		}
		return tx.Create(&models.OrderStatusHistory{
			OrderID:    orderID,
			FromStatus: from,
			ToStatus:   to,
			ChangedBy:  requester.Login,
			Note:       note,
			CreatedAt:  e.nowFunc(),
		}).Error
	})
	if err != nil {
		return StatusChange{}, err
	}
	e.log.Info("order status changed",
		zap.Int("order_id", orderID),
		zap.String("from", string(change.From)),
		zap.String("to", string(change.To)),
		zap.String("by", requester.Login),
	)
	return change, nil
}

// ListFilter narrows ListAll. Empty fields match everything.
type ListFilter struct {
	Status string
	Login  string
	Limit  int
}

// ListAll returns orders across users, newest first. Drivers and managers only.
func (e *Engine) ListAll(ctx context.Context, requester policy.Principal, f ListFilter) (out []models.Order, err error) {
	const op = "orders.ListAll"
	ctx, span := e.start(ctx, "ListAll", attribute.String("status", f.Status))
	defer func() { finish(span, err) }()

	if err := policy.Require(requester, policy.ViewOthers); err != nil {
		return nil, err
	}
	q := e.gw.DB(ctx).Model(&models.Order{})
	if strings.TrimSpace(f.Status) != "" {
		st, err := models.ParseStatus(f.Status)
		if err != nil {
			return nil, apperr.Wrap(apperr.Validation, op, err, err.Error())
		}
		q = q.Where("LOWER(TRIM(orderstatus)) = ?", string(st))
	}
	if login := strings.TrimSpace(f.Login); login != "" {
		q = q.Where("login = ?", login)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if err := q.Order("ordertimestamp desc").Order("orderid desc").Find(&out).Error; err != nil {
		return nil, gateway.Classify(op, err)
	}
	return out, nil
}

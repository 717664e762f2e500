// Package gateway owns the relational store connection. Every query in
// pizzastore goes through a Gateway so transactions and error classification
// behave the same regardless of dialect.
package gateway

import (
	"context"
	"errors"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"pizzastore/apperr"
)

type Gateway struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Gateway {
	return &Gateway{db: db}
}

// DB returns a session bound to ctx.
func (g *Gateway) DB(ctx context.Context) *gorm.DB {
	return g.db.WithContext(ctx)
}

// Tx runs fn inside one transaction. fn must issue every statement on the tx
// it receives; the transaction is rolled back when fn returns an error.
func (g *Gateway) Tx(ctx context.Context, op string, fn func(tx *gorm.DB) error) error {
	err := g.db.WithContext(ctx).Transaction(fn)
	return Classify(op, err)
}

// Ping checks that the store answers.
func (g *Gateway) Ping(ctx context.Context) error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return Classify("gateway.Ping", err)
	}
	return Classify("gateway.Ping", sqlDB.PingContext(ctx))
}

func (g *Gateway) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// uniqueViolation is the SQLSTATE for duplicate keys.
const uniqueViolation = "23505"

// Classify maps driver errors onto apperr kinds. Errors that already carry a
// kind pass through unchanged.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.Wrap(apperr.NotFound, op, err, "record not found")
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.Wrap(apperr.Conflict, op, err, "record already exists")
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return apperr.Wrap(apperr.Conflict, op, err, "record already exists")
	}
	return apperr.Wrap(apperr.StoreError, op, err, "data store error")
}

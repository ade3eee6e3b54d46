package salesstore

import (
	"context"
	"errors"

	"github.com/doug-martin/goqu/v9"
)

const (
	logMsgStockReplenished = "stock replenished for low-stock products"
	logAttrRowsAffected    = "rows_affected"
	logAttrAmount          = "amount"
)

// ReplenishStock raises the stock of every active product whose stock has
// fallen below its reorder level by the given amount. It returns the number
// of products replenished.
func (s *Store) ReplenishStock(ctx context.Context, amount int) (int64, error) {
	stmt := goqu.Dialect(dialectPostgres).
		Update(tableProducts).
		Set(goqu.Record{
			"stock_quantity": goqu.L("stock_quantity + ?", amount),
		}).
		Where(
			goqu.L("stock_quantity < reorder_level"),
			goqu.C("is_active").IsTrue(),
		)

	sqlQuery, _, toSQLErr := stmt.ToSQL()
	if toSQLErr != nil {
		if s.logger != nil {
			s.logger.Error("failed to build replenish statement", logAttrError, toSQLErr.Error())
		}
		return 0, errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	rowsAffected, execErr := s.Exec(ctx, sqlQuery)
	if execErr != nil {
		if s.logger != nil {
			s.logger.Error("database execution failed during stock replenishment", logAttrError, execErr.Error())
		}
		return 0, errors.Join(ErrReplenishingStockFailed, execErr)
	}

	if s.logger != nil {
		s.logger.Info(logMsgStockReplenished, logAttrRowsAffected, rowsAffected, logAttrAmount, amount)
	}

	return rowsAffected, nil
}

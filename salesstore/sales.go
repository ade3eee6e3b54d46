package salesstore

import (
	"context"
	"errors"
	"math"

	"github.com/doug-martin/goqu/v9"

	"github.com/storeops/sales-analytics-engine/salesstore/internal/adapters"
)

const (
	saleStatusCompleted = "completed"
	saleNotesGenerated  = "Auto-generated sale"

	logMsgBuildSaleQueryFailed = "failed to build sale statement"
	logMsgSaleExecFailed       = "database execution failed during sale insert"
	logMsgSaleRollbackFailed   = "failed to roll back sale transaction"
	logAttrSaleID              = "sale_id"
	logAttrProductID           = "product_id"
)

// InsertSale persists a sale, its line items, and the stock decrement for
// every line item in a single transaction. Either all rows are written and
// every product's stock is decreased (floored at zero), or nothing is.
// It returns the sale id assigned by the database.
func (s *Store) InsertSale(ctx context.Context, sale NewSale) (int64, error) {
	tx, beginErr := s.db.BeginTx(ctx)
	if beginErr != nil {
		if s.logger != nil {
			s.logger.Error(logMsgSaleExecFailed, logAttrError, beginErr.Error())
		}
		return 0, errors.Join(ErrInsertingSaleFailed, beginErr)
	}

	saleID, err := s.insertSaleRow(ctx, tx, sale)
	if err != nil {
		s.rollback(ctx, tx)
		return 0, err
	}

	for _, item := range sale.Items {
		if err = s.insertSaleItemRow(ctx, tx, saleID, item); err != nil {
			s.rollback(ctx, tx)
			return 0, err
		}

		if err = s.decrementStock(ctx, tx, item.ProductID, item.Quantity); err != nil {
			s.rollback(ctx, tx)
			return 0, err
		}
	}

	// A failed commit already finished the transaction, so there is
	// nothing left to roll back.
	if commitErr := tx.Commit(ctx); commitErr != nil {
		if s.logger != nil {
			s.logger.Error(logMsgSaleExecFailed, logAttrError, commitErr.Error(), logAttrSaleID, saleID)
		}
		return 0, errors.Join(ErrInsertingSaleFailed, commitErr)
	}

	return saleID, nil
}

func (s *Store) insertSaleRow(ctx context.Context, tx adapters.DBTx, sale NewSale) (int64, error) {
	stmt := goqu.Dialect(dialectPostgres).
		Insert(tableSales).
		Rows(goqu.Record{
			"website_id":     sale.WebsiteID,
			"shop_id":        nullableID(sale.ShopID),
			"customer_id":    nullableID(sale.CustomerID),
			"subtotal":       Round2(sale.Subtotal),
			"tax_amount":     Round2(sale.TaxAmount),
			"total_amount":   Round2(sale.TotalAmount),
			"payment_method": sale.PaymentMethod,
			"payment_status": saleStatusCompleted,
			"order_status":   saleStatusCompleted,
			"notes":          saleNotesGenerated,
		}).
		Returning("id")

	sqlQuery, _, toSQLErr := stmt.ToSQL()
	if toSQLErr != nil {
		if s.logger != nil {
			s.logger.Error(logMsgBuildSaleQueryFailed, logAttrError, toSQLErr.Error())
		}
		return 0, errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	rows, queryErr := tx.Query(ctx, sqlQuery)
	if queryErr != nil {
		if s.logger != nil {
			s.logger.Error(logMsgSaleExecFailed, logAttrError, queryErr.Error())
		}
		return 0, errors.Join(ErrInsertingSaleFailed, queryErr)
	}
	defer s.closeRows(rows)

	if !rows.Next() {
		err := rows.Err()
		if err == nil {
			err = errors.New("insert returned no sale id")
		}
		return 0, errors.Join(ErrInsertingSaleFailed, err)
	}

	var saleID int64
	if scanErr := rows.Scan(&saleID); scanErr != nil {
		return 0, errors.Join(ErrScanningDBRowFailed, scanErr)
	}

	return saleID, nil
}

func (s *Store) insertSaleItemRow(ctx context.Context, tx adapters.DBTx, saleID int64, item SaleItem) error {
	stmt := goqu.Dialect(dialectPostgres).
		Insert(tableSaleItems).
		Rows(goqu.Record{
			"sale_id":      saleID,
			"product_id":   item.ProductID,
			"product_name": item.ProductName,
			"quantity":     item.Quantity,
			"unit_price":   Round2(item.UnitPrice),
			"line_total":   Round2(item.LineTotal),
		})

	sqlQuery, _, toSQLErr := stmt.ToSQL()
	if toSQLErr != nil {
		if s.logger != nil {
			s.logger.Error(logMsgBuildSaleQueryFailed, logAttrError, toSQLErr.Error(), logAttrSaleID, saleID)
		}
		return errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	if _, execErr := tx.Exec(ctx, sqlQuery); execErr != nil {
		if s.logger != nil {
			s.logger.Error(logMsgSaleExecFailed, logAttrError, execErr.Error(),
				logAttrSaleID, saleID, logAttrProductID, item.ProductID)
		}
		return errors.Join(ErrInsertingSaleFailed, execErr)
	}

	return nil
}

func (s *Store) decrementStock(ctx context.Context, tx adapters.DBTx, productID int64, quantity int) error {
	stmt := goqu.Dialect(dialectPostgres).
		Update(tableProducts).
		Set(goqu.Record{
			"stock_quantity": goqu.L("GREATEST(0, stock_quantity - ?)", quantity),
		}).
		Where(goqu.C("id").Eq(productID))

	sqlQuery, _, toSQLErr := stmt.ToSQL()
	if toSQLErr != nil {
		if s.logger != nil {
			s.logger.Error(logMsgBuildSaleQueryFailed, logAttrError, toSQLErr.Error(), logAttrProductID, productID)
		}
		return errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	if _, execErr := tx.Exec(ctx, sqlQuery); execErr != nil {
		if s.logger != nil {
			s.logger.Error(logMsgSaleExecFailed, logAttrError, execErr.Error(), logAttrProductID, productID)
		}
		return errors.Join(ErrInsertingSaleFailed, execErr)
	}

	return nil
}

// rollback aborts the transaction; rollback errors are logged, not propagated,
// because the operation has already failed for a more relevant reason.
func (s *Store) rollback(ctx context.Context, tx adapters.DBTx) {
	if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
		if s.logger != nil {
			s.logger.Warn(logMsgSaleRollbackFailed, logAttrError, rollbackErr.Error())
		}
	}
}

func nullableID(id *int64) any {
	if id == nil {
		return nil
	}

	return *id
}

// Round2 rounds a monetary amount half up to two decimal places.
func Round2(amount float64) float64 {
	return math.Round(amount*100) / 100
}

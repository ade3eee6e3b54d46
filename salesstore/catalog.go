package salesstore

import (
	"context"
	"errors"

	"github.com/doug-martin/goqu/v9"
)

const (
	logMsgBuildCatalogQueryFailed = "failed to build catalog query"
	logMsgCatalogQueryFailed      = "catalog query execution failed"
	logMsgCatalogLoaded           = "catalog snapshot loaded"
	logAttrWebsiteID              = "website_id"
	logAttrWebsiteCount           = "website_count"
	logAttrShopCount              = "shop_count"
	logAttrProductCount           = "product_count"
	logAttrCustomerCount          = "customer_count"
)

// LoadCatalog fetches all reference entities in one pass and returns them as
// a catalog snapshot: active websites, active shops, the eligible products of
// each website (active, in stock, positively priced), and all customer ids.
// Any failure aborts the whole load; no partial catalog is returned.
func (s *Store) LoadCatalog(ctx context.Context) (Catalog, error) {
	var empty Catalog

	websites, err := s.loadWebsites(ctx)
	if err != nil {
		return empty, err
	}

	shops, err := s.loadShops(ctx)
	if err != nil {
		return empty, err
	}

	products := make(map[int64][]Product, len(websites))
	productCount := 0
	for _, website := range websites {
		websiteProducts, loadErr := s.loadProductsFor(ctx, website.ID)
		if loadErr != nil {
			return empty, loadErr
		}

		products[website.ID] = websiteProducts
		productCount += len(websiteProducts)
	}

	customers, err := s.loadCustomers(ctx)
	if err != nil {
		return empty, err
	}

	if s.logger != nil {
		s.logger.Info(logMsgCatalogLoaded,
			logAttrWebsiteCount, len(websites),
			logAttrShopCount, len(shops),
			logAttrProductCount, productCount,
			logAttrCustomerCount, len(customers))
	}

	return Catalog{
		Websites:  websites,
		Shops:     shops,
		Products:  products,
		Customers: customers,
	}, nil
}

func (s *Store) loadWebsites(ctx context.Context) ([]Website, error) {
	stmt := goqu.Dialect(dialectPostgres).
		From(tableWebsites).
		Select("id", "name").
		Where(goqu.C("is_active").IsTrue()).
		Order(goqu.C("id").Asc())

	sqlQuery, buildErr := s.renderCatalogQuery(stmt)
	if buildErr != nil {
		return nil, buildErr
	}

	rows, err := s.runCatalogQuery(ctx, sqlQuery)
	if err != nil {
		return nil, err
	}
	defer s.closeRows(rows)

	websites := make([]Website, 0, 8)
	for rows.Next() {
		var website Website
		if scanErr := rows.Scan(&website.ID, &website.Name); scanErr != nil {
			return nil, s.catalogScanError(scanErr)
		}
		websites = append(websites, website)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Join(ErrLoadingCatalogFailed, err)
	}

	return websites, nil
}

func (s *Store) loadShops(ctx context.Context) ([]Shop, error) {
	stmt := goqu.Dialect(dialectPostgres).
		From(tableShops).
		Select("id", "website_id", "name").
		Where(goqu.C("is_active").IsTrue()).
		Order(goqu.C("id").Asc())

	sqlQuery, buildErr := s.renderCatalogQuery(stmt)
	if buildErr != nil {
		return nil, buildErr
	}

	rows, err := s.runCatalogQuery(ctx, sqlQuery)
	if err != nil {
		return nil, err
	}
	defer s.closeRows(rows)

	shops := make([]Shop, 0, 16)
	for rows.Next() {
		var shop Shop
		if scanErr := rows.Scan(&shop.ID, &shop.WebsiteID, &shop.Name); scanErr != nil {
			return nil, s.catalogScanError(scanErr)
		}
		shops = append(shops, shop)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Join(ErrLoadingCatalogFailed, err)
	}

	return shops, nil
}

func (s *Store) loadProductsFor(ctx context.Context, websiteID int64) ([]Product, error) {
	stmt := goqu.Dialect(dialectPostgres).
		From(goqu.T(tableProducts).As("p")).
		Join(
			goqu.T(tableWebsiteProducts).As("wp"),
			goqu.On(goqu.I("p.id").Eq(goqu.I("wp.product_id"))),
		).
		Select(goqu.I("p.id"), goqu.I("p.name"), goqu.I("p.unit_price"), goqu.I("p.stock_quantity")).
		Where(
			goqu.I("wp.website_id").Eq(websiteID),
			goqu.I("p.is_active").IsTrue(),
			goqu.I("p.stock_quantity").Gt(0),
			goqu.I("p.unit_price").Gt(0),
		).
		Order(goqu.I("p.id").Asc())

	sqlQuery, buildErr := s.renderCatalogQuery(stmt)
	if buildErr != nil {
		return nil, buildErr
	}

	rows, err := s.runCatalogQuery(ctx, sqlQuery)
	if err != nil {
		if s.logger != nil {
			s.logger.Error(logMsgCatalogQueryFailed, logAttrError, err.Error(), logAttrWebsiteID, websiteID)
		}
		return nil, err
	}
	defer s.closeRows(rows)

	products := make([]Product, 0, 32)
	for rows.Next() {
		var product Product
		if scanErr := rows.Scan(&product.ID, &product.Name, &product.UnitPrice, &product.StockQuantity); scanErr != nil {
			return nil, s.catalogScanError(scanErr)
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Join(ErrLoadingCatalogFailed, err)
	}

	return products, nil
}

func (s *Store) loadCustomers(ctx context.Context) ([]Customer, error) {
	stmt := goqu.Dialect(dialectPostgres).
		From(tableCustomers).
		Select("id").
		Order(goqu.C("id").Asc())

	sqlQuery, buildErr := s.renderCatalogQuery(stmt)
	if buildErr != nil {
		return nil, buildErr
	}

	rows, err := s.runCatalogQuery(ctx, sqlQuery)
	if err != nil {
		return nil, err
	}
	defer s.closeRows(rows)

	customers := make([]Customer, 0, 64)
	for rows.Next() {
		var customer Customer
		if scanErr := rows.Scan(&customer.ID); scanErr != nil {
			return nil, s.catalogScanError(scanErr)
		}
		customers = append(customers, customer)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Join(ErrLoadingCatalogFailed, err)
	}

	return customers, nil
}

func (s *Store) renderCatalogQuery(stmt *goqu.SelectDataset) (string, error) {
	sqlQuery, _, toSQLErr := stmt.ToSQL()
	if toSQLErr != nil {
		if s.logger != nil {
			s.logger.Error(logMsgBuildCatalogQueryFailed, logAttrError, toSQLErr.Error())
		}
		return "", errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

func (s *Store) runCatalogQuery(ctx context.Context, sqlQuery string) (Rows, error) {
	rows, err := s.Query(ctx, sqlQuery)
	if err != nil {
		return nil, errors.Join(ErrLoadingCatalogFailed, err)
	}

	return rows, nil
}

func (s *Store) catalogScanError(scanErr error) error {
	if s.logger != nil {
		s.logger.Error(logMsgCatalogQueryFailed, logAttrError, scanErr.Error())
	}

	return errors.Join(ErrScanningDBRowFailed, scanErr)
}

// closeRows safely closes database rows and logs any errors.
func (s *Store) closeRows(rows Rows) {
	if closeErr := rows.Close(); closeErr != nil {
		if s.logger != nil {
			s.logger.Warn("failed to close database rows", logAttrError, closeErr.Error())
		}
	}
}

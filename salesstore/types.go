package salesstore

// Website is an active storefront, loaded into the catalog snapshot.
type Website struct {
	ID   int64
	Name string
}

// Shop is a physical or virtual outlet belonging to a website.
type Shop struct {
	ID        int64
	WebsiteID int64
	Name      string
}

// Product is an eligible catalog product as seen at snapshot time.
// StockQuantity and UnitPrice are the cached values used for clamping and
// price snapshots; they may be stale relative to the live store.
type Product struct {
	ID            int64
	Name          string
	UnitPrice     float64
	StockQuantity int
}

// Customer identifies a registered customer; the engine needs nothing beyond the id.
type Customer struct {
	ID int64
}

// Catalog is a point-in-time snapshot of the reference entities used by the
// sale generator. Products holds the eligible products per website id,
// pre-joined through the website/product association.
type Catalog struct {
	Websites  []Website
	Shops     []Shop
	Products  map[int64][]Product
	Customers []Customer
}

// SaleItem is one product line within a sale. ProductName and UnitPrice are
// snapshots taken at generation time and stay accurate even if the product
// is later renamed or repriced.
type SaleItem struct {
	ProductID   int64
	ProductName string
	Quantity    int
	UnitPrice   float64
	LineTotal   float64
}

// NewSale describes a sale to persist. ShopID and CustomerID are optional
// and stored as NULL when nil.
type NewSale struct {
	WebsiteID     int64
	ShopID        *int64
	CustomerID    *int64
	Subtotal      float64
	TaxAmount     float64
	TotalAmount   float64
	PaymentMethod string
	Items         []SaleItem
}

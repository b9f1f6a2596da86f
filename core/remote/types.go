package remote

// Variant is a sellable record in the remote catalog. The barcode is the
// join key against the local catalog; InventoryItemID identifies the
// stock-keeping record that inventory levels are written against.
type Variant struct {
	ID              string `json:"id"`
	ProductID       string `json:"product_id"`
	SKU             string `json:"sku"`
	Barcode         string `json:"barcode"`
	InventoryItemID string `json:"inventory_item_id"`
}

// Location is a remote stock location (warehouse, storefront).
type Location struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// InventoryLevel is the available quantity of one inventory item at one
// location.
type InventoryLevel struct {
	InventoryItemID string `json:"inventory_item_id"`
	LocationID      string `json:"location_id"`
	Available       int    `json:"available"`
}

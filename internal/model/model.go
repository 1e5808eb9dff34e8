// Package model defines internal domain models for the sandwich service.
//
// JSON tags define the payload of change events. Each entity has a matching
// patch struct whose pointer fields mark which columns a partial update
// touches. A nil field is "not provided".
package model

import "time"

// Order is a customer order.
type Order struct {
	ID           int64     `json:"id"`
	CustomerName string    `json:"customer_name"`
	Description  string    `json:"description"`
	OrderDate    time.Time `json:"order_date"`
}

// EntityID returns the primary key.
func (m Order) EntityID() int64 { return m.ID }

// OrderPatch carries the provided fields of an order update.
type OrderPatch struct {
	CustomerName *string
	Description  *string
	OrderDate    *time.Time
}

// Changes returns the column values of the provided fields.
func (p OrderPatch) Changes() map[string]any {
	changes := map[string]any{}
	if p.CustomerName != nil {
		changes["customer_name"] = *p.CustomerName
	}
	if p.Description != nil {
		changes["description"] = *p.Description
	}
	if p.OrderDate != nil {
		changes["order_date"] = p.OrderDate.UTC()
	}
	return changes
}

// OrderDetail is one sandwich line of an order.
type OrderDetail struct {
	ID         int64 `json:"id"`
	OrderID    int64 `json:"order_id"`
	SandwichID int64 `json:"sandwich_id"`
	Amount     int   `json:"amount"`
}

func (m OrderDetail) EntityID() int64 { return m.ID }

// OrderDetailPatch carries the provided fields of an order detail update.
type OrderDetailPatch struct {
	OrderID    *int64
	SandwichID *int64
	Amount     *int
}

// Changes returns the column values of the provided fields.
func (p OrderDetailPatch) Changes() map[string]any {
	changes := map[string]any{}
	if p.OrderID != nil {
		changes["order_id"] = *p.OrderID
	}
	if p.SandwichID != nil {
		changes["sandwich_id"] = *p.SandwichID
	}
	if p.Amount != nil {
		changes["amount"] = *p.Amount
	}
	return changes
}

// Sandwich is a menu item.
type Sandwich struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
}

func (m Sandwich) EntityID() int64 { return m.ID }

// SandwichPatch carries the provided fields of a sandwich update.
type SandwichPatch struct {
	Name        *string
	Price       *float64
	Description *string
}

// Changes returns the column values of the provided fields.
func (p SandwichPatch) Changes() map[string]any {
	changes := map[string]any{}
	if p.Name != nil {
		changes["name"] = *p.Name
	}
	if p.Price != nil {
		changes["price"] = *p.Price
	}
	if p.Description != nil {
		changes["description"] = *p.Description
	}
	return changes
}

// Recipe links a sandwich to the amount of a resource it consumes.
type Recipe struct {
	ID         int64 `json:"id"`
	SandwichID int64 `json:"sandwich_id"`
	ResourceID int64 `json:"resource_id"`
	Amount     int   `json:"amount"`
}

func (m Recipe) EntityID() int64 { return m.ID }

// RecipePatch carries the provided fields of a recipe update.
type RecipePatch struct {
	SandwichID *int64
	ResourceID *int64
	Amount     *int
}

// Changes returns the column values of the provided fields.
func (p RecipePatch) Changes() map[string]any {
	changes := map[string]any{}
	if p.SandwichID != nil {
		changes["sandwich_id"] = *p.SandwichID
	}
	if p.ResourceID != nil {
		changes["resource_id"] = *p.ResourceID
	}
	if p.Amount != nil {
		changes["amount"] = *p.Amount
	}
	return changes
}

// Resource is a stocked ingredient.
type Resource struct {
	ID     int64  `json:"id"`
	Item   string `json:"item"`
	Amount int    `json:"amount"`
}

func (m Resource) EntityID() int64 { return m.ID }

// ResourcePatch carries the provided fields of a resource update.
type ResourcePatch struct {
	Item   *string
	Amount *int
}

// Changes returns the column values of the provided fields.
func (p ResourcePatch) Changes() map[string]any {
	changes := map[string]any{}
	if p.Item != nil {
		changes["item"] = *p.Item
	}
	if p.Amount != nil {
		changes["amount"] = *p.Amount
	}
	return changes
}

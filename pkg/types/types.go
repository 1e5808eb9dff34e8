// Package types defines the wire format of the sandwich API. It is shared by
// the server, the client SDK and the CLI.
//
// Conventions:
//   - Records are returned as plain JSON objects with snake_case fields.
//   - Request types use pointer fields so the server can tell an omitted
//     field from a zero value. Required create fields are checked by the
//     server, not here.
//   - Request types never carry an id; identifiers are assigned by the store
//     and are immutable.
package types

import "time"

// ===========================================================================
// Orders
// ===========================================================================

// Order is a customer order.
type Order struct {
	ID           int64     `json:"id"`
	CustomerName string    `json:"customer_name"`
	Description  string    `json:"description"`
	OrderDate    time.Time `json:"order_date"`
}

// CreateOrderRequest is the body of POST /orders. CustomerName is required;
// OrderDate defaults to the creation time.
type CreateOrderRequest struct {
	CustomerName *string    `json:"customer_name"`
	Description  *string    `json:"description,omitempty"`
	OrderDate    *time.Time `json:"order_date,omitempty"`
}

// UpdateOrderRequest is the body of PUT /orders/{id}. Only non-nil fields
// are changed.
type UpdateOrderRequest struct {
	CustomerName *string    `json:"customer_name,omitempty"`
	Description  *string    `json:"description,omitempty"`
	OrderDate    *time.Time `json:"order_date,omitempty"`
}

// ===========================================================================
// Order details
// ===========================================================================

// OrderDetail is one sandwich line of an order.
type OrderDetail struct {
	ID         int64 `json:"id"`
	OrderID    int64 `json:"order_id"`
	SandwichID int64 `json:"sandwich_id"`
	Amount     int   `json:"amount"`
}

// CreateOrderDetailRequest is the body of POST /order_details. All fields
// are required.
type CreateOrderDetailRequest struct {
	OrderID    *int64 `json:"order_id"`
	SandwichID *int64 `json:"sandwich_id"`
	Amount     *int   `json:"amount"`
}

// UpdateOrderDetailRequest is the body of PUT /order_details/{id}.
type UpdateOrderDetailRequest struct {
	OrderID    *int64 `json:"order_id,omitempty"`
	SandwichID *int64 `json:"sandwich_id,omitempty"`
	Amount     *int   `json:"amount,omitempty"`
}

// ===========================================================================
// Sandwiches
// ===========================================================================

// Sandwich is a menu item.
type Sandwich struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
}

// CreateSandwichRequest is the body of POST /sandwich. Name and Price are
// required.
type CreateSandwichRequest struct {
	Name        *string  `json:"name"`
	Price       *float64 `json:"price"`
	Description *string  `json:"description,omitempty"`
}

// UpdateSandwichRequest is the body of PUT /sandwich/{id}.
type UpdateSandwichRequest struct {
	Name        *string  `json:"name,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Description *string  `json:"description,omitempty"`
}

// ===========================================================================
// Recipes
// ===========================================================================

// Recipe is the amount of one resource a sandwich consumes.
type Recipe struct {
	ID         int64 `json:"id"`
	SandwichID int64 `json:"sandwich_id"`
	ResourceID int64 `json:"resource_id"`
	Amount     int   `json:"amount"`
}

// CreateRecipeRequest is the body of POST /recipes. All fields are required.
type CreateRecipeRequest struct {
	SandwichID *int64 `json:"sandwich_id"`
	ResourceID *int64 `json:"resource_id"`
	Amount     *int   `json:"amount"`
}

// UpdateRecipeRequest is the body of PUT /recipes/{id}.
type UpdateRecipeRequest struct {
	SandwichID *int64 `json:"sandwich_id,omitempty"`
	ResourceID *int64 `json:"resource_id,omitempty"`
	Amount     *int   `json:"amount,omitempty"`
}

// ===========================================================================
// Resources
// ===========================================================================

// Resource is a stocked ingredient.
type Resource struct {
	ID     int64  `json:"id"`
	Item   string `json:"item"`
	Amount int    `json:"amount"`
}

// CreateResourceRequest is the body of POST /resources. All fields are
// required.
type CreateResourceRequest struct {
	Item   *string `json:"item"`
	Amount *int    `json:"amount"`
}

// UpdateResourceRequest is the body of PUT /resources/{id}.
type UpdateResourceRequest struct {
	Item   *string `json:"item,omitempty"`
	Amount *int    `json:"amount,omitempty"`
}

// ===========================================================================
// RFC 9457 Problem Details
// ===========================================================================

// ProblemDetail is the body of every error response.
type ProblemDetail struct {
	Type     string            `json:"type"`
	Title    string            `json:"title"`
	Status   int               `json:"status"`
	Detail   string            `json:"detail,omitempty"`
	Instance string            `json:"instance,omitempty"`
	Errors   []ValidationError `json:"errors,omitempty"`
}

// ValidationError is a single field-level validation failure.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Ptr returns a pointer to v. It is convenient for building requests.
func Ptr[T any](v T) *T {
	return &v
}

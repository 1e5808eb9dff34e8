package server

import (
	"time"

	"git.cscs.ch/openchami/chamicore-sandwich/internal/crud"
	"git.cscs.ch/openchami/chamicore-sandwich/internal/httputil"
	"git.cscs.ch/openchami/chamicore-sandwich/internal/model"
	"git.cscs.ch/openchami/chamicore-sandwich/pkg/types"
)

var now = func() time.Time { return time.Now().UTC() }

func required(field string) httputil.ValidationError {
	return httputil.ValidationError{Field: field, Message: field + " is required"}
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

// ---------------------------------------------------------------------------
// Orders
// ---------------------------------------------------------------------------

func orderResource(svc *crud.Service[model.Order, model.OrderPatch]) resource[
	model.Order, model.OrderPatch, types.Order, types.CreateOrderRequest, types.UpdateOrderRequest,
] {
	return resource[model.Order, model.OrderPatch, types.Order, types.CreateOrderRequest, types.UpdateOrderRequest]{
		path:    "/orders",
		kind:    "Order",
		noun:    "order",
		service: svc,
		fromCreate: func(req types.CreateOrderRequest) (model.Order, []httputil.ValidationError) {
			var errs []httputil.ValidationError
			if req.CustomerName == nil {
				errs = append(errs, required("customer_name"))
			}
			orderDate := now()
			if req.OrderDate != nil {
				orderDate = req.OrderDate.UTC()
			}
			return model.Order{
				CustomerName: deref(req.CustomerName),
				Description:  deref(req.Description),
				OrderDate:    orderDate,
			}, errs
		},
		toPatch: func(req types.UpdateOrderRequest) model.OrderPatch {
			return model.OrderPatch{
				CustomerName: req.CustomerName,
				Description:  req.Description,
				OrderDate:    req.OrderDate,
			}
		},
		toPublic: func(m model.Order) types.Order {
			return types.Order{
				ID:           m.ID,
				CustomerName: m.CustomerName,
				Description:  m.Description,
				OrderDate:    m.OrderDate,
			}
		},
	}
}

// ---------------------------------------------------------------------------
// Order details
// ---------------------------------------------------------------------------

func orderDetailResource(svc *crud.Service[model.OrderDetail, model.OrderDetailPatch]) resource[
	model.OrderDetail, model.OrderDetailPatch, types.OrderDetail, types.CreateOrderDetailRequest, types.UpdateOrderDetailRequest,
] {
	return resource[model.OrderDetail, model.OrderDetailPatch, types.OrderDetail, types.CreateOrderDetailRequest, types.UpdateOrderDetailRequest]{
		path:    "/order_details",
		kind:    "OrderDetail",
		noun:    "order detail",
		service: svc,
		fromCreate: func(req types.CreateOrderDetailRequest) (model.OrderDetail, []httputil.ValidationError) {
			var errs []httputil.ValidationError
			if req.OrderID == nil {
				errs = append(errs, required("order_id"))
			}
			if req.SandwichID == nil {
				errs = append(errs, required("sandwich_id"))
			}
			if req.Amount == nil {
				errs = append(errs, required("amount"))
			}
			return model.OrderDetail{
				OrderID:    deref(req.OrderID),
				SandwichID: deref(req.SandwichID),
				Amount:     deref(req.Amount),
			}, errs
		},
		toPatch: func(req types.UpdateOrderDetailRequest) model.OrderDetailPatch {
			return model.OrderDetailPatch{
				OrderID:    req.OrderID,
				SandwichID: req.SandwichID,
				Amount:     req.Amount,
			}
		},
		toPublic: func(m model.OrderDetail) types.OrderDetail {
			return types.OrderDetail{
				ID:         m.ID,
				OrderID:    m.OrderID,
				SandwichID: m.SandwichID,
				Amount:     m.Amount,
			}
		},
	}
}

// ---------------------------------------------------------------------------
// Sandwiches
// ---------------------------------------------------------------------------

func sandwichResource(svc *crud.Service[model.Sandwich, model.SandwichPatch]) resource[
	model.Sandwich, model.SandwichPatch, types.Sandwich, types.CreateSandwichRequest, types.UpdateSandwichRequest,
] {
	return resource[model.Sandwich, model.SandwichPatch, types.Sandwich, types.CreateSandwichRequest, types.UpdateSandwichRequest]{
		path:    "/sandwich",
		kind:    "Sandwich",
		noun:    "sandwich",
		service: svc,
		fromCreate: func(req types.CreateSandwichRequest) (model.Sandwich, []httputil.ValidationError) {
			var errs []httputil.ValidationError
			if req.Name == nil {
				errs = append(errs, required("name"))
			}
			if req.Price == nil {
				errs = append(errs, required("price"))
			}
			return model.Sandwich{
				Name:        deref(req.Name),
				Price:       deref(req.Price),
				Description: deref(req.Description),
			}, errs
		},
		toPatch: func(req types.UpdateSandwichRequest) model.SandwichPatch {
			return model.SandwichPatch{
				Name:        req.Name,
				Price:       req.Price,
				Description: req.Description,
			}
		},
		toPublic: func(m model.Sandwich) types.Sandwich {
			return types.Sandwich{
				ID:          m.ID,
				Name:        m.Name,
				Price:       m.Price,
				Description: m.Description,
			}
		},
	}
}

// ---------------------------------------------------------------------------
// Recipes
// ---------------------------------------------------------------------------

func recipeResource(svc *crud.Service[model.Recipe, model.RecipePatch]) resource[
	model.Recipe, model.RecipePatch, types.Recipe, types.CreateRecipeRequest, types.UpdateRecipeRequest,
] {
	return resource[model.Recipe, model.RecipePatch, types.Recipe, types.CreateRecipeRequest, types.UpdateRecipeRequest]{
		path:    "/recipes",
		kind:    "Recipe",
		noun:    "recipe",
		service: svc,
		fromCreate: func(req types.CreateRecipeRequest) (model.Recipe, []httputil.ValidationError) {
			var errs []httputil.ValidationError
			if req.SandwichID == nil {
				errs = append(errs, required("sandwich_id"))
			}
			if req.ResourceID == nil {
				errs = append(errs, required("resource_id"))
			}
			if req.Amount == nil {
				errs = append(errs, required("amount"))
			}
			return model.Recipe{
				SandwichID: deref(req.SandwichID),
				ResourceID: deref(req.ResourceID),
				Amount:     deref(req.Amount),
			}, errs
		},
		toPatch: func(req types.UpdateRecipeRequest) model.RecipePatch {
			return model.RecipePatch{
				SandwichID: req.SandwichID,
				ResourceID: req.ResourceID,
				Amount:     req.Amount,
			}
		},
		toPublic: func(m model.Recipe) types.Recipe {
			return types.Recipe{
				ID:         m.ID,
				SandwichID: m.SandwichID,
				ResourceID: m.ResourceID,
				Amount:     m.Amount,
			}
		},
	}
}

// ---------------------------------------------------------------------------
// Resources
// ---------------------------------------------------------------------------

func resourceResource(svc *crud.Service[model.Resource, model.ResourcePatch]) resource[
	model.Resource, model.ResourcePatch, types.Resource, types.CreateResourceRequest, types.UpdateResourceRequest,
] {
	return resource[model.Resource, model.ResourcePatch, types.Resource, types.CreateResourceRequest, types.UpdateResourceRequest]{
		path:    "/resources",
		kind:    "Resource",
		noun:    "resource",
		service: svc,
		fromCreate: func(req types.CreateResourceRequest) (model.Resource, []httputil.ValidationError) {
			var errs []httputil.ValidationError
			if req.Item == nil {
				errs = append(errs, required("item"))
			}
			if req.Amount == nil {
				errs = append(errs, required("amount"))
			}
			return model.Resource{
				Item:   deref(req.Item),
				Amount: deref(req.Amount),
			}, errs
		},
		toPatch: func(req types.UpdateResourceRequest) model.ResourcePatch {
			return model.ResourcePatch{
				Item:   req.Item,
				Amount: req.Amount,
			}
		},
		toPublic: func(m model.Resource) types.Resource {
			return types.Resource{
				ID:     m.ID,
				Item:   m.Item,
				Amount: m.Amount,
			}
		},
	}
}

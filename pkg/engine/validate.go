package engine

import (
	"github.com/openexec/execution-engine/pkg/engine/model"
)

var validOrderTypes = map[model.OrderType]bool{
	model.OrderTypeMarket:       true,
	model.OrderTypeLimit:        true,
	model.OrderTypeStop:         true,
	model.OrderTypeStopLimit:    true,
	model.OrderTypeTrailingStop: true,
	model.OrderTypeBracket:      true,
	model.OrderTypeOCO:          true,
	model.OrderTypeIceberg:      true,
	model.OrderTypeTWAP:         true,
	model.OrderTypeVWAP:         true,
}

// validateRequest runs the structural checks in order, short-circuiting
// on the first failure. Pure function of the request.
func validateRequest(req *model.OrderRequest) error {
	if req == nil {
		return reject(RejectInvalidOrderData, "empty request")
	}
	if req.Symbol == "" {
		return reject(RejectInvalidOrderData, "missing required field: symbol")
	}
	if req.Side == "" {
		return reject(RejectInvalidOrderData, "missing required field: side")
	}
	if req.Type == "" {
		return reject(RejectInvalidOrderData, "missing required field: order type")
	}
	if !validOrderTypes[req.Type] {
		return reject(RejectInvalidOrderType, "invalid order type: %s", req.Type)
	}
	if req.Side != model.OrderSideBuy && req.Side != model.OrderSideSell {
		return reject(RejectInvalidOrderSide, "invalid order side: %s", req.Side)
	}
	if req.Quantity <= 0 {
		return reject(RejectInvalidQuantity, "quantity must be positive")
	}
	if (req.Type == model.OrderTypeLimit || req.Type == model.OrderTypeStopLimit) && req.Price.IsZero() {
		return reject(RejectMissingPrice, "price required for %s orders", req.Type)
	}
	if (req.Type == model.OrderTypeStop || req.Type == model.OrderTypeStopLimit) && req.StopPrice.IsZero() {
		return reject(RejectMissingStopPrice, "stop price required for %s orders", req.Type)
	}
	return nil
}

package repo

import (
	"context"

	"github.com/openexec/execution-engine/pkg/engine/model"
)

type IOrderEvent interface {
	Create(ctx context.Context, record *model.OrderEvent) (*model.OrderEvent, error)
	BulkCreate(ctx context.Context, records []*model.OrderEvent) ([]*model.OrderEvent, error)
	ListByOrderID(ctx context.Context, orderID string) ([]*model.OrderEvent, error)
}

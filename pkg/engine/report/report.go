// Package report delivers order lifecycle reports to downstream
// consumers. Delivery is serialized per order id so consumers observe
// each order's transitions in order.
package report

import (
	"context"

	"github.com/joripage/go_util/pkg/shardqueue"
	"go.uber.org/zap"

	"github.com/openexec/execution-engine/pkg/engine/model"
)

// Reporter consumes order reports. Implementations must not block for
// long; they run on the shard workers.
type Reporter interface {
	OnOrderReport(ctx context.Context, order model.Order, ev *model.OrderEvent)
}

const (
	numShards = 16
	queueSize = 100_000
)

type reportMsg struct {
	order model.Order
	ev    *model.OrderEvent
}

// Dispatcher fans order reports out to reporters through a shard queue
// keyed by order id.
type Dispatcher struct {
	sq        *shardqueue.Shardqueue
	reporters []Reporter
}

func NewDispatcher(reporters ...Reporter) *Dispatcher {
	d := &Dispatcher{reporters: reporters}
	d.sq = shardqueue.NewShardQueue(numShards, queueSize)
	d.sq.Start(func(msg interface{}) error {
		m, ok := msg.(*reportMsg)
		if !ok {
			return nil
		}
		for _, r := range d.reporters {
			r.OnOrderReport(context.Background(), m.order, m.ev)
		}
		return nil
	})
	return d
}

// Publish enqueues one report. order must be a snapshot copy; it crosses
// goroutines.
func (d *Dispatcher) Publish(order model.Order, ev *model.OrderEvent) {
	d.sq.Shard(order.OrderID, &reportMsg{order: order, ev: ev})
}

// LogReporter writes each report to the service log.
type LogReporter struct {
	log *zap.SugaredLogger
}

var _ Reporter = (*LogReporter)(nil)

func NewLogReporter() *LogReporter {
	return &LogReporter{log: zap.S().Named("order_report")}
}

func (r *LogReporter) OnOrderReport(_ context.Context, order model.Order, ev *model.OrderEvent) {
	r.log.Infow("order report",
		"order_id", order.OrderID,
		"symbol", order.Symbol,
		"exec_type", ev.ExecType,
		"status", order.Status,
		"filled_qty", order.FilledQuantity,
		"qty", ev.Qty,
		"price", ev.Price,
	)
}

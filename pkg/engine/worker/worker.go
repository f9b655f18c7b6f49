// Package worker consumes order events from JetStream and persists them.
package worker

import (
	"context"
	"encoding/json"
	"errors"

	_ "github.com/lib/pq"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/openexec/execution-engine/pkg/engine/model"
	"github.com/openexec/execution-engine/pkg/engine/repo"
)

type Worker struct {
	orderEvent repo.IOrderEvent
	log        *zap.SugaredLogger
}

func NewWorker(repo repo.IRepo) *Worker {
	return &Worker{
		orderEvent: repo.OrderEvent(),
		log:        zap.S().Named("event_worker"),
	}
}

// StartConsumer pulls events from subject on a durable consumer and
// writes them through the repo. Blocks until ctx is done.
func (w *Worker) StartConsumer(ctx context.Context, js nats.JetStreamContext, subject, durable string) error {
	cons, err := js.PullSubscribe(subject, durable)
	if err != nil {
		return err
	}

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		msgs, err := cons.Fetch(10, nats.Context(ctx))
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return ctx.Err()
			}
			if !errors.Is(err, nats.ErrTimeout) {
				w.log.Warnw("fetch order events", "err", err)
			}
			continue
		}

		for _, msg := range msgs {
			var ev model.OrderEvent
			if err := json.Unmarshal(msg.Data, &ev); err != nil {
				w.log.Warnw("unmarshal order event", "err", err)
				_ = msg.Ack()
				continue
			}
			if err := w.handleEvent(ctx, &ev); err != nil {
				w.log.Warnw("persist order event", "event_id", ev.EventID, "err", err)
				continue
			}
			_ = msg.Ack()
		}
	}
}

func (w *Worker) handleEvent(ctx context.Context, ev *model.OrderEvent) error {
	_, err := w.orderEvent.Create(ctx, ev)
	return err
}

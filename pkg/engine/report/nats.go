package report

import (
	"context"
	"encoding/json"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/openexec/execution-engine/pkg/engine/model"
)

// DefaultSubject is the JetStream subject order events publish to; the
// persistence worker consumes the same subject.
const DefaultSubject = "ORDER.events"

// NATSReporter publishes order events to JetStream for the audit worker.
type NATSReporter struct {
	js      nats.JetStreamContext
	subject string
	log     *zap.SugaredLogger
}

var _ Reporter = (*NATSReporter)(nil)

func NewNATSReporter(js nats.JetStreamContext, subject string) *NATSReporter {
	if subject == "" {
		subject = DefaultSubject
	}
	return &NATSReporter{js: js, subject: subject, log: zap.S().Named("nats_report")}
}

func (r *NATSReporter) OnOrderReport(_ context.Context, order model.Order, ev *model.OrderEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		r.log.Warnw("marshal order event", "order_id", order.OrderID, "err", err)
		return
	}
	if _, err := r.js.PublishAsync(r.subject, data); err != nil {
		r.log.Warnw("publish order event", "order_id", order.OrderID, "err", err)
	}
}

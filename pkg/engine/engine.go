// Package engine implements the order execution engine: validation, risk
// gating, planning, dispatch to execution algorithms, and the query
// surface over the order table.
package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/openexec/execution-engine/pkg/account"
	"github.com/openexec/execution-engine/pkg/engine/algo"
	"github.com/openexec/execution-engine/pkg/engine/analytics"
	"github.com/openexec/execution-engine/pkg/engine/eventlog"
	"github.com/openexec/execution-engine/pkg/engine/model"
	"github.com/openexec/execution-engine/pkg/engine/position"
	"github.com/openexec/execution-engine/pkg/engine/report"
	"github.com/openexec/execution-engine/pkg/engine/riskcheck"
	"github.com/openexec/execution-engine/pkg/engine/store"
	"github.com/openexec/execution-engine/pkg/logging"
	"github.com/openexec/execution-engine/pkg/venue"
)

type Config struct {
	Risk *riskcheck.Config
	// CommissionPerShare accrues on each fill.
	CommissionPerShare decimal.Decimal
	// SessionClose is the DAY-order expiry time, "HH:MM" UTC.
	SessionClose string
	// CleanupInterval > 0 enables eviction of terminal orders older than
	// Retention from the hot table. Off by default: analytics wants
	// terminal orders retained.
	CleanupInterval time.Duration
	Retention       time.Duration
}

func DefaultConfig() *Config {
	return &Config{
		Risk:         riskcheck.DefaultConfig(),
		SessionClose: "21:00",
	}
}

type runner struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Engine is the facade. One instance owns the order table; each submitted
// order is owned by exactly one runner goroutine.
type Engine struct {
	cfg        *Config
	venue      venue.Venue
	store      *store.Store
	risk       *riskcheck.Engine
	events     eventlog.EventLog
	dispatcher *report.Dispatcher
	tracker    *position.Tracker
	reporter   *analytics.Reporter
	log        *zap.SugaredLogger

	placeMu sync.Mutex
	runners sync.Map // orderID -> *runner
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

var _ algo.Recorder = (*Engine)(nil)

func New(cfg *Config, v venue.Venue, acct account.AccountState, idgen store.IDGenerator, reporters ...report.Reporter) *Engine {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	st := store.New(idgen)
	e := &Engine{
		cfg:        cfg,
		venue:      v,
		store:      st,
		risk:       riskcheck.NewEngine(cfg.Risk, v, acct),
		events:     eventlog.NewInMemory(),
		dispatcher: report.NewDispatcher(reporters...),
		tracker:    position.NewTracker(st, v),
		reporter:   analytics.NewReporter(st),
		log:        zap.S().Named("engine"),
		stopCh:     make(chan struct{}),
	}
	if cfg.CleanupInterval > 0 {
		go e.startCleaner(cfg.CleanupInterval)
	}
	return e
}

// Stop cancels every running algorithm and waits for the runners to
// exit.
func (e *Engine) Stop() {
	close(e.stopCh)
	e.runners.Range(func(_, v any) bool {
		v.(*runner).cancel()
		return true
	})
	e.wg.Wait()
}

// PlaceOrder validates, risk-checks, plans and stores the order, then
// dispatches it to its execution algorithm. Validation failures return a
// *RejectionError with no order created; hard-gated risk failures return
// ErrRiskGate with the stored Rejected order.
func (e *Engine) PlaceOrder(ctx context.Context, req *model.OrderRequest) (*model.Order, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	e.placeMu.Lock()
	risk := e.risk.Assess(ctx, req)
	plan := buildPlan(req)
	order := e.store.Create(req, plan, risk)
	e.placeMu.Unlock()

	e.emit(order, model.ExecTypeNew)

	for _, name := range risk.Failed() {
		if !e.risk.Blocks(name) {
			logging.FromContext(ctx).Warnw("risk check failed (advisory)", "order_id", order.OrderID, "check", name)
			continue
		}
		rejected, err := e.store.Reject(order.OrderID, name)
		if err != nil {
			return order, err
		}
		e.emit(rejected, model.ExecTypeRejected)
		return rejected, fmt.Errorf("%w: %s", ErrRiskGate, name)
	}

	submitted, err := e.store.MarkSubmitted(order.OrderID)
	if err != nil {
		return order, err
	}
	e.emit(submitted, model.ExecTypeSubmitted)

	alg := algo.ForPlan(plan, e.algoDeps())
	if plan.Algorithm == model.AlgorithmImmediate {
		// Immediate orders resolve before PlaceOrder returns; a resting
		// remainder still gets a deadline watcher.
		alg.Run(ctx, submitted)
		cur, err := e.store.Get(order.OrderID)
		if err != nil {
			return submitted, err
		}
		if !cur.IsTerminal() {
			e.startRunner(cur, nil)
		}
		return cur, nil
	}

	e.startRunner(submitted, alg)
	return e.store.Get(order.OrderID)
}

// startRunner hands the order to its owning goroutine. alg may be nil
// for resting immediate orders that only need deadline supervision.
func (e *Engine) startRunner(order *model.Order, alg algo.Algorithm) {
	ctx, cancel := context.WithCancel(context.Background())
	if deadline, ok := e.deadlineFor(order); ok {
		ctx, cancel = context.WithDeadline(context.Background(), deadline)
	}

	r := &runner{cancel: cancel, done: make(chan struct{})}
	e.runners.Store(order.OrderID, r)
	e.wg.Add(1)

	go func() {
		defer func() {
			cancel()
			close(r.done)
			e.runners.Delete(order.OrderID)
			e.wg.Done()
		}()

		if alg != nil {
			alg.Run(ctx, order)
		}

		// Supervise any resting remainder until the time-in-force
		// deadline.
		cur, err := e.store.Get(order.OrderID)
		if err != nil || cur.IsTerminal() || cur.Remaining() == 0 {
			return
		}
		if _, ok := ctx.Deadline(); !ok {
			return // GTC: rests until cancelled
		}
		select {
		case <-ctx.Done():
		case <-e.stopCh:
			return
		}
		if ctx.Err() == context.DeadlineExceeded {
			if expired, err := e.store.Expire(order.OrderID); err == nil {
				e.emit(expired, model.ExecTypeExpired)
			}
		}
	}()
}

// deadlineFor derives the runner deadline from time in force: GTD uses
// the request's expiry, DAY the configured session close. IOC/FOK are
// resolved inside the algorithms; GTC never expires.
func (e *Engine) deadlineFor(order *model.Order) (time.Time, bool) {
	switch order.TimeInForce {
	case model.OrderTimeInForceGTD:
		if !order.ExpireAt.IsZero() {
			return order.ExpireAt, true
		}
	case model.OrderTimeInForceDAY:
		return nextSessionClose(time.Now().UTC(), e.cfg.SessionClose), true
	}
	return time.Time{}, false
}

func nextSessionClose(now time.Time, sessionClose string) time.Time {
	parts := strings.SplitN(sessionClose, ":", 2)
	hour, minute := 21, 0
	if len(parts) == 2 {
		fmt.Sscanf(parts[0], "%d", &hour)
		fmt.Sscanf(parts[1], "%d", &minute)
	}
	at := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, time.UTC)
	if !at.After(now) {
		at = at.AddDate(0, 0, 1)
	}
	return at
}

// CancelOrder cancels the order and its live children, and stops the
// owning runner. Once this returns, no further fills can be recorded: the
// store refuses fills on terminal orders.
func (e *Engine) CancelOrder(ctx context.Context, orderID string) (*model.Order, error) {
	cancelled, err := e.store.Cancel(orderID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	e.emit(cancelled, model.ExecTypeCancelled)

	for _, child := range e.store.Children(orderID) {
		if child.IsTerminal() {
			continue
		}
		if c, err := e.store.Cancel(child.OrderID); err == nil {
			e.emit(c, model.ExecTypeCancelled)
		}
	}

	if v, ok := e.runners.Load(orderID); ok {
		v.(*runner).cancel()
	}
	return cancelled, nil
}

func (e *Engine) GetOrder(_ context.Context, orderID string) (*model.Order, error) {
	o, err := e.store.Get(orderID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return o, nil
}

func (e *Engine) ListOrders(_ context.Context, filter model.OrderFilter) []*model.Order {
	return e.store.List(filter)
}

func (e *Engine) Analytics(_ context.Context) *analytics.Summary {
	return e.reporter.Summarize(model.OrderFilter{})
}

func (e *Engine) Position(ctx context.Context, symbol string) (*position.Position, error) {
	return e.tracker.PositionFor(ctx, symbol)
}

func (e *Engine) Positions(ctx context.Context) []*position.Position {
	return e.tracker.Positions(ctx)
}

// Events returns the audit trail for one order.
func (e *Engine) Events(orderID string) []*model.OrderEvent {
	return e.events.Events(orderID)
}

func (e *Engine) algoDeps() algo.Deps {
	return algo.Deps{Venue: e.venue, Rec: e, Log: e.log}
}

// --- algo.Recorder ---

func (e *Engine) RecordFill(orderID, leg string, qty int64, price decimal.Decimal) (*model.Order, error) {
	commission := e.cfg.CommissionPerShare.Mul(decimal.NewFromInt(qty))
	snap, err := e.store.RecordFill(orderID, leg, qty, price, commission)
	if err != nil {
		return nil, err
	}
	ev := model.NewTradeEvent(*snap, qty, price, time.Now())
	ev.Leg = leg
	e.events.Append(ev)
	e.dispatcher.Publish(*snap, ev)
	return snap, nil
}

func (e *Engine) Expire(orderID string) (*model.Order, error) {
	snap, err := e.store.Expire(orderID)
	if err != nil {
		return nil, err
	}
	e.emit(snap, model.ExecTypeExpired)
	return snap, nil
}

func (e *Engine) Cancel(orderID string) (*model.Order, error) {
	snap, err := e.store.Cancel(orderID)
	if err != nil {
		return nil, err
	}
	e.emit(snap, model.ExecTypeCancelled)
	return snap, nil
}

func (e *Engine) CreateChild(parentID, leg string, typ model.OrderType, side model.OrderSide, qty int64, price, stopPrice decimal.Decimal, symbol string, tif model.OrderTimeInForce) *model.Order {
	child := e.store.CreateChild(parentID, leg, typ, side, qty, price, stopPrice, symbol, tif)
	e.emit(child, model.ExecTypeNew)
	return child
}

func (e *Engine) Get(orderID string) (*model.Order, error) {
	return e.store.Get(orderID)
}

func (e *Engine) ReportLegCancelled(orderID, leg string) {
	snap, err := e.store.Get(orderID)
	if err != nil {
		return
	}
	ev := model.NewOrderEvent(*snap, model.ExecTypeCancelled, time.Now())
	ev.Leg = leg
	e.events.Append(ev)
	e.dispatcher.Publish(*snap, ev)
}

func (e *Engine) emit(order *model.Order, execType model.OrderExecType) {
	ev := model.NewOrderEvent(*order, execType, time.Now())
	e.events.Append(ev)
	e.dispatcher.Publish(*order, ev)
}

// startCleaner sweeps terminal orders older than the retention window
// out of the hot table; the event log keeps their history.
func (e *Engine) startCleaner(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			e.store.EvictTerminal(e.cfg.Retention)
		case <-e.stopCh:
			return
		}
	}
}

func mapStoreErr(err error) error {
	switch err {
	case store.ErrNotFound:
		return ErrNotFound
	case store.ErrAlreadyTerminal:
		return ErrAlreadyTerminal
	default:
		return err
	}
}

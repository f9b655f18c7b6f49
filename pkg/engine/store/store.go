// Package store owns order identity and lifecycle. It is the only
// component that transitions an order's status; algorithms and the engine
// go through it for every mutation.
package store

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"github.com/openexec/execution-engine/pkg/engine/model"
)

var (
	ErrNotFound        = errors.New("order not found")
	ErrAlreadyTerminal = errors.New("order already terminal")
	// ErrOverfill is returned when a fill would push filled_quantity past
	// quantity.
	ErrOverfill = errors.New("fill exceeds remaining quantity")
	// ErrInvalidTransition is returned for a status move the state machine
	// does not allow.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// IDGenerator hands out order ids. Injected so integrators can swap in
// ULIDs or a database sequence.
type IDGenerator interface {
	NextOrderID() string
}

// Counter is the default generator: ORD_1000, ORD_1001, ...
type Counter struct {
	n atomic.Int64
}

func NewCounter(start int64) *Counter {
	c := &Counter{}
	c.n.Store(start)
	return c
}

func (c *Counter) NextOrderID() string {
	return fmt.Sprintf("ORD_%d", c.n.Add(1)-1)
}

// Store is the in-memory order table. Reads return deep copies; writers
// hold the table lock for the full transition so readers never observe a
// half-applied fill.
type Store struct {
	mu     sync.RWMutex
	orders map[string]*model.Order
	seq    []string // insertion order, for stable listings
	idgen  IDGenerator
	now    func() time.Time
}

func New(idgen IDGenerator) *Store {
	if idgen == nil {
		idgen = NewCounter(1000)
	}
	return &Store{
		orders: make(map[string]*model.Order),
		idgen:  idgen,
		now:    time.Now,
	}
}

// Create inserts a new Pending order built from req with its immutable
// plan and risk snapshot.
func (s *Store) Create(req *model.OrderRequest, plan *model.ExecutionPlan, risk *model.RiskCheckResult) *model.Order {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	tif := req.TimeInForce
	if tif == "" {
		tif = model.OrderTimeInForceDAY
	}
	order := &model.Order{
		OrderID:     s.idgen.NextOrderID(),
		Symbol:      req.Symbol,
		Side:        req.Side,
		Type:        req.Type,
		TimeInForce: tif,
		Quantity:    req.Quantity,
		Price:       req.Price,
		StopPrice:   req.StopPrice,
		ExpireAt:    req.ExpireAt,
		Metadata:    req.Metadata,
		RiskChecks:  risk,
		Plan:        plan,
		Status:      model.OrderStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.orders[order.OrderID] = order
	s.seq = append(s.seq, order.OrderID)
	return order.Clone()
}

// CreateChild inserts a contingent leg order back-referencing parentID.
// Children start Submitted: they exist only once armed by their parent's
// algorithm.
func (s *Store) CreateChild(parentID, leg string, typ model.OrderType, side model.OrderSide, qty int64, price, stopPrice decimal.Decimal, symbol string, tif model.OrderTimeInForce) *model.Order {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	order := &model.Order{
		OrderID:     s.idgen.NextOrderID(),
		Symbol:      symbol,
		Side:        side,
		Type:        typ,
		TimeInForce: tif,
		Quantity:    qty,
		Price:       price,
		StopPrice:   stopPrice,
		ParentID:    parentID,
		Leg:         leg,
		Status:      model.OrderStatusSubmitted,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.orders[order.OrderID] = order
	s.seq = append(s.seq, order.OrderID)
	return order.Clone()
}

// MarkSubmitted moves Pending -> Submitted.
func (s *Store) MarkSubmitted(orderID string) (*model.Order, error) {
	return s.transition(orderID, func(o *model.Order) error {
		if o.Status != model.OrderStatusPending {
			return fmt.Errorf("%w: %s -> Submitted", ErrInvalidTransition, o.Status)
		}
		o.Status = model.OrderStatusSubmitted
		return nil
	})
}

// Reject moves Pending -> Rejected (risk gate). Terminal; the order keeps
// its id and audit trail.
func (s *Store) Reject(orderID, reason string) (*model.Order, error) {
	return s.transition(orderID, func(o *model.Order) error {
		if o.Status != model.OrderStatusPending {
			return fmt.Errorf("%w: %s -> Rejected", ErrInvalidTransition, o.Status)
		}
		o.Status = model.OrderStatusRejected
		if o.Metadata == nil {
			o.Metadata = map[string]string{}
		}
		o.Metadata["reject_reason"] = reason
		return nil
	})
}

// RecordFill appends a fill and updates filled quantity, weighted average
// price, commission and status in one atomic step.
func (s *Store) RecordFill(orderID, leg string, qty int64, price, commission decimal.Decimal) (*model.Order, error) {
	return s.transition(orderID, func(o *model.Order) error {
		if o.IsTerminal() {
			return ErrAlreadyTerminal
		}
		if o.Status != model.OrderStatusSubmitted && o.Status != model.OrderStatusPartiallyFilled {
			return fmt.Errorf("%w: fill in %s", ErrInvalidTransition, o.Status)
		}
		if qty <= 0 || qty > o.Remaining() {
			return ErrOverfill
		}

		o.Fills = append(o.Fills, &model.Fill{
			OrderID:   o.OrderID,
			Leg:       leg,
			Quantity:  qty,
			Price:     price,
			Timestamp: s.now(),
		})

		prev := decimal.NewFromInt(o.FilledQuantity)
		add := decimal.NewFromInt(qty)
		total := prev.Add(add)
		o.AverageFillPrice = o.AverageFillPrice.Mul(prev).Add(price.Mul(add)).Div(total)
		o.FilledQuantity += qty
		o.Commission = o.Commission.Add(commission)

		if o.FilledQuantity == o.Quantity {
			o.Status = model.OrderStatusFilled
		} else {
			o.Status = model.OrderStatusPartiallyFilled
		}
		return nil
	})
}

// Cancel moves any non-terminal state -> Cancelled.
func (s *Store) Cancel(orderID string) (*model.Order, error) {
	return s.transition(orderID, func(o *model.Order) error {
		if !o.CanCancel() {
			return ErrAlreadyTerminal
		}
		o.Status = model.OrderStatusCancelled
		return nil
	})
}

// Expire moves Submitted/PartiallyFilled -> Expired (time-in-force
// deadline with quantity outstanding).
func (s *Store) Expire(orderID string) (*model.Order, error) {
	return s.transition(orderID, func(o *model.Order) error {
		if o.IsTerminal() {
			return ErrAlreadyTerminal
		}
		if o.Status != model.OrderStatusSubmitted && o.Status != model.OrderStatusPartiallyFilled {
			return fmt.Errorf("%w: %s -> Expired", ErrInvalidTransition, o.Status)
		}
		o.Status = model.OrderStatusExpired
		return nil
	})
}

func (s *Store) transition(orderID string, fn func(*model.Order) error) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[orderID]
	if !ok {
		return nil, ErrNotFound
	}
	if err := fn(o); err != nil {
		return nil, err
	}
	o.UpdatedAt = s.now()
	return o.Clone(), nil
}

// Get returns a copy of the order.
func (s *Store) Get(orderID string) (*model.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[orderID]
	if !ok {
		return nil, ErrNotFound
	}
	return o.Clone(), nil
}

// List returns copies of orders matching filter, in creation order.
func (s *Store) List(filter model.OrderFilter) []*model.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*model.Order
	for _, id := range s.seq {
		o := s.orders[id]
		if filter.Match(o) {
			out = append(out, o.Clone())
		}
	}
	return out
}

// EvictTerminal removes terminal orders whose last update is older than
// retention. Returns the number evicted.
func (s *Store) EvictTerminal(retention time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-retention)
	evicted := 0
	keep := s.seq[:0]
	for _, id := range s.seq {
		o := s.orders[id]
		if o.IsTerminal() && o.UpdatedAt.Before(cutoff) {
			delete(s.orders, id)
			evicted++
			continue
		}
		keep = append(keep, id)
	}
	s.seq = keep
	return evicted
}

// Children returns copies of the child legs of parentID.
func (s *Store) Children(parentID string) []*model.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*model.Order
	for _, id := range s.seq {
		o := s.orders[id]
		if o.ParentID == parentID {
			out = append(out, o.Clone())
		}
	}
	return out
}

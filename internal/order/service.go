package order

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/MikeMC777/foodapp/internal/apperr"
	"github.com/MikeMC777/foodapp/internal/auth"
	"github.com/MikeMC777/foodapp/internal/restaurant"
	"github.com/MikeMC777/foodapp/internal/user"
)

var tracer = otel.Tracer("github.com/MikeMC777/foodapp/internal/order")

// Service is the order lifecycle engine. Every call takes the acting user
// explicitly; authorization decisions go through Relationship.
type Service struct {
	repo     Repository
	ext      *Ext
	pricer   *Pricer
	notifier Notifier
	now      func() time.Time
}

func NewService(repo Repository, ext *Ext, notifier Notifier) *Service {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &Service{
		repo:     repo,
		ext:      ext,
		pricer:   NewPricer(ext),
		notifier: notifier,
		now:      time.Now,
	}
}

// Create prices req from the menu and stores it as a placed order.
func (s *Service) Create(ctx context.Context, actor auth.Actor, req CreateOrderRequest) (o *Order, err error) {
	ctx, span := s.start(ctx, "order.Create", actor, "")
	defer func() { s.end(span, err) }()

	draft, err := s.pricer.Price(ctx, req)
	if err != nil {
		return nil, err
	}

	o = &Order{
		ID:              uuid.NewString(),
		CustomerID:      actor.UserID,
		RestaurantID:    draft.Restaurant.ID,
		Restaurant:      draft.Restaurant.Summary(),
		Items:           draft.Items,
		TotalAmount:     draft.Total,
		DeliveryAddress: draft.DeliveryAddress,
		Status:          StatusPlaced,
	}
	for i := range o.Items {
		o.Items[i].ID = uuid.NewString()
		o.Items[i].OrderID = o.ID
	}
	span.SetAttributes(attribute.String("order.id", o.ID))

	if err := s.repo.Create(ctx, o, StatusChange{OrderID: o.ID, ToStatus: StatusPlaced, ChangedBy: actor.UserID}); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	log.Printf("[order] created id=%s customer=%s restaurant=%s total=%s", o.ID, o.CustomerID, o.RestaurantID, o.TotalAmount.StringFixed(2))

	s.publish(ctx, Event{
		Type:         EventCreated,
		OrderID:      o.ID,
		RestaurantID: o.RestaurantID,
		Status:       o.Status,
		Message:      "New order has been placed",
		UpdatedAt:    o.UpdatedAt,
		Rooms:        []string{OrderRoom(o.ID)},
	})
	return o, nil
}

// Get returns one order if actor may read it.
func (s *Service) Get(ctx context.Context, actor auth.Actor, id string) (*Order, error) {
	o, rs, rel, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !rel.CanRead() {
		return nil, apperr.Forbidden("Access denied. You can only view your own orders.")
	}
	if rs != nil {
		o.Restaurant = rs.Summary()
	}
	return o, nil
}

// History returns the status audit trail of an order readable by actor.
func (s *Service) History(ctx context.Context, actor auth.Actor, id string) ([]StatusChange, error) {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return nil, err
	}
	out, err := s.repo.History(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("order history: %w", err)
	}
	return out, nil
}

// UpdateStatus moves an order to target when both the transition table and
// the lifecycle graph allow it.
func (s *Service) UpdateStatus(ctx context.Context, actor auth.Actor, id string, target Status) (o *Order, err error) {
	if !target.Valid() {
		return nil, apperr.InvalidInput(fmt.Sprintf("Invalid status. Must be one of: %s", statusList()))
	}
	if target == StatusCancelled {
		return s.Cancel(ctx, actor, id)
	}

	ctx, span := s.start(ctx, "order.UpdateStatus", actor, id)
	span.SetAttributes(attribute.String("order.target_status", string(target)))
	defer func() { s.end(span, err) }()

	o, rs, rel, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !rel.Any() {
		return nil, apperr.Forbidden("Access denied. You are not authorized to update this order.")
	}
	if target == StatusPlaced {
		return nil, apperr.Conflict("Orders cannot be moved back to placed")
	}
	if !rel.CanSetStatus(target) {
		if rel.CustomerOnly() {
			return nil, apperr.Forbidden("Customers cannot update order status. Please contact the restaurant.")
		}
		return nil, apperr.Forbidden("You are not authorized to perform this status update.")
	}
	if !CanTransition(o.Status, target) {
		return nil, apperr.Conflict(fmt.Sprintf("Cannot change status from %s to %s", o.Status, target))
	}

	from := o.Status
	o.Status = target
	if target == StatusDelivered {
		now := s.now().UTC()
		o.DeliveredAt = &now
	}
	if err := s.save(ctx, o, &StatusChange{OrderID: o.ID, FromStatus: from, ToStatus: target, ChangedBy: actor.UserID}); err != nil {
		return nil, err
	}
	if rs != nil {
		o.Restaurant = rs.Summary()
	}
	log.Printf("[order] status id=%s %s->%s by=%s", o.ID, from, target, actor.UserID)

	s.publish(ctx, Event{
		Type:      EventStatusUpdated,
		OrderID:   o.ID,
		Status:    o.Status,
		Message:   fmt.Sprintf("Order status updated to: %s", target),
		UpdatedAt: o.UpdatedAt,
		Rooms:     []string{OrderRoom(o.ID)},
	})
	// Updates made as the delivery person also go to the restaurant room.
	if rel.IsDeliveryPerson {
		s.publish(ctx, Event{
			Type:         EventStatusUpdated,
			OrderID:      o.ID,
			RestaurantID: o.RestaurantID,
			Status:       o.Status,
			UpdatedBy:    displayName(actor),
			Message:      fmt.Sprintf("Delivery person updated status to: %s", target),
			UpdatedAt:    o.UpdatedAt,
			Rooms:        []string{RestaurantRoom(o.RestaurantID)},
		})
	}
	return o, nil
}

// Assign sets the delivery person of a non-terminal order.
func (s *Service) Assign(ctx context.Context, actor auth.Actor, id, deliveryPersonID string) (o *Order, err error) {
	if deliveryPersonID == "" {
		return nil, apperr.InvalidInput("Delivery person ID is required")
	}

	ctx, span := s.start(ctx, "order.Assign", actor, id)
	defer func() { s.end(span, err) }()

	o, rs, rel, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !rel.CanAssign() {
		return nil, apperr.Forbidden("Access denied. Only restaurant owners or admins can assign orders.")
	}
	if o.Status.Terminal() {
		return nil, apperr.Conflict(fmt.Sprintf("Cannot assign an order that is %s", o.Status))
	}
	person, isDelivery, err := s.ext.ValidateDeliveryPerson(ctx, deliveryPersonID)
	if err != nil {
		return nil, fmt.Errorf("validate delivery person: %w", err)
	}
	if person == nil {
		return nil, apperr.NotFound("Delivery person not found")
	}
	if !isDelivery {
		return nil, apperr.InvalidInput("User is not a delivery person")
	}

	o.AssignedTo = deliveryPersonID
	if err := s.save(ctx, o, nil); err != nil {
		return nil, err
	}
	if rs != nil {
		o.Restaurant = rs.Summary()
	}
	log.Printf("[order] assigned id=%s to=%s by=%s", o.ID, deliveryPersonID, actor.UserID)

	s.publish(ctx, Event{
		Type:       EventAssigned,
		OrderID:    o.ID,
		Status:     o.Status,
		AssignedTo: o.AssignedTo,
		Message:    fmt.Sprintf("Order assigned to delivery person: %s", courierName(person)),
		UpdatedAt:  o.UpdatedAt,
		Rooms:      []string{OrderRoom(o.ID)},
	})
	return o, nil
}

// Cancel marks a placed or confirmed order as cancelled by actor.
func (s *Service) Cancel(ctx context.Context, actor auth.Actor, id string) (o *Order, err error) {
	ctx, span := s.start(ctx, "order.Cancel", actor, id)
	defer func() { s.end(span, err) }()

	o, rs, rel, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !rel.CanSetStatus(StatusCancelled) {
		return nil, apperr.Forbidden("Access denied. You can only cancel your own orders.")
	}
	if !o.Status.Cancellable() {
		return nil, apperr.Conflict("Order cannot be cancelled at this stage. Please contact support.")
	}

	from := o.Status
	now := s.now().UTC()
	o.Status = StatusCancelled
	o.CancelledBy = actor.UserID
	o.CancelledAt = &now
	if err := s.save(ctx, o, &StatusChange{OrderID: o.ID, FromStatus: from, ToStatus: StatusCancelled, ChangedBy: actor.UserID}); err != nil {
		return nil, err
	}
	if rs != nil {
		o.Restaurant = rs.Summary()
	}
	log.Printf("[order] cancelled id=%s by=%s", o.ID, actor.UserID)

	s.publish(ctx, Event{
		Type:        EventCancelled,
		OrderID:     o.ID,
		Status:      o.Status,
		CancelledBy: displayName(actor),
		Message:     "Order has been cancelled",
		UpdatedAt:   o.UpdatedAt,
		Rooms:       []string{OrderRoom(o.ID)},
	})
	return o, nil
}

// ListMine returns the orders placed by actor, newest first.
func (s *Service) ListMine(ctx context.Context, actor auth.Actor) ([]Order, error) {
	out, err := s.repo.ListByCustomer(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return out, nil
}

// ListForRestaurant returns a restaurant's orders to its owner or an admin.
func (s *Service) ListForRestaurant(ctx context.Context, actor auth.Actor, restaurantID string) ([]Order, error) {
	if err := s.RestaurantAccess(ctx, actor, restaurantID); err != nil {
		return nil, err
	}
	out, err := s.repo.ListByRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("list restaurant orders: %w", err)
	}
	return out, nil
}

// ListAssignments returns the orders assigned to a delivery person.
func (s *Service) ListAssignments(ctx context.Context, actor auth.Actor) ([]Order, error) {
	if actor.Role != auth.RoleDeliveryPerson {
		return nil, apperr.Forbidden("Access denied. Only delivery personnel can view assigned orders.")
	}
	out, err := s.repo.ListByAssignee(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	return out, nil
}

const maxPageSize = 100

// ListAll pages through every order, optionally filtered by status. Admin only.
func (s *Service) ListAll(ctx context.Context, actor auth.Actor, f ListFilter) (*ListResponse, error) {
	if !actor.IsAdmin() {
		return nil, apperr.Forbidden("Access denied. Admin role required.")
	}
	if f.Status != "" && !f.Status.Valid() {
		return nil, apperr.InvalidInput(fmt.Sprintf("Invalid status. Must be one of: %s", statusList()))
	}
	if f.Page < 1 {
		f.Page = 1
	}
	switch {
	case f.Limit < 1:
		f.Limit = 10
	case f.Limit > maxPageSize:
		f.Limit = maxPageSize
	}
	orders, total, err := s.repo.List(ctx, f.Status, f.Limit, (f.Page-1)*f.Limit)
	if err != nil {
		return nil, fmt.Errorf("list all orders: %w", err)
	}
	return &ListResponse{
		Orders:      orders,
		TotalPages:  (total + f.Limit - 1) / f.Limit,
		CurrentPage: f.Page,
		Total:       total,
	}, nil
}

// RestaurantAccess checks that actor owns the restaurant or is an admin.
// Restaurants without an owner of record are admin-only.
func (s *Service) RestaurantAccess(ctx context.Context, actor auth.Actor, restaurantID string) error {
	rs, err := s.ext.FetchRestaurant(ctx, restaurantID)
	if err != nil {
		return fmt.Errorf("fetch restaurant: %w", err)
	}
	if rs == nil {
		return apperr.NotFound("Restaurant not found")
	}
	if !actor.IsAdmin() && (rs.OwnerID == "" || rs.OwnerID != actor.UserID) {
		return apperr.Forbidden("Access denied. Not the restaurant owner.")
	}
	return nil
}

// load fetches the order and its restaurant and computes actor's
// relationship. A missing order is reported before any permission check.
func (s *Service) load(ctx context.Context, actor auth.Actor, id string) (*Order, *restaurant.Restaurant, Relationship, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil, Relationship{}, apperr.NotFound("Order not found")
		}
		return nil, nil, Relationship{}, fmt.Errorf("get order: %w", err)
	}
	rs, err := s.ext.FetchRestaurant(ctx, o.RestaurantID)
	if err != nil {
		return nil, nil, Relationship{}, fmt.Errorf("fetch restaurant: %w", err)
	}
	ownerID := ""
	if rs != nil {
		ownerID = rs.OwnerID
	}
	return o, rs, RelationshipOf(actor, o, ownerID), nil
}

func (s *Service) save(ctx context.Context, o *Order, h *StatusChange) error {
	if err := s.repo.Update(ctx, o, h); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return apperr.NotFound("Order not found")
		case errors.Is(err, ErrStaleVersion):
			return apperr.Conflict("Order was modified concurrently. Please reload and try again.")
		}
		return fmt.Errorf("update order: %w", err)
	}
	return nil
}

// publish hands ev to the notifier. Failures are logged and dropped.
func (s *Service) publish(ctx context.Context, ev Event) {
	if err := s.notifier.Notify(ctx, ev); err != nil {
		log.Printf("[order] notify %s order=%s rooms=%v: %v", ev.Type, ev.OrderID, ev.Rooms, err)
	}
}

func (s *Service) start(ctx context.Context, name string, actor auth.Actor, orderID string) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, name)
	span.SetAttributes(
		attribute.String("actor.id", actor.UserID),
		attribute.String("actor.role", string(actor.Role)),
	)
	if orderID != "" {
		span.SetAttributes(attribute.String("order.id", orderID))
	}
	return ctx, span
}

func (s *Service) end(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func courierName(u *user.User) string {
	if u.Name != "" {
		return u.Name
	}
	return u.ID
}

func displayName(a auth.Actor) string {
	if a.Name != "" {
		return a.Name
	}
	return a.UserID
}

func statusList() string {
	names := make([]string, len(Statuses))
	for i, st := range Statuses {
		names[i] = string(st)
	}
	return strings.Join(names, ", ")
}

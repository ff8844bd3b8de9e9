package order

import (
	"context"
	"io"
	"log"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/MikeMC777/foodapp/internal/auth"
	"github.com/MikeMC777/foodapp/internal/restaurant"
	"github.com/MikeMC777/foodapp/internal/user"
)

func init() {
	log.SetOutput(io.Discard)
}

//
// ---------- STUBS & FAKES ----------
//

// stubRepo implements Repository in memory, with the same version check as PGRepo.
type stubRepo struct {
	mu      sync.Mutex
	orders  map[string]*Order
	history []StatusChange
	writes  int
}

func newStubRepo() *stubRepo { return &stubRepo{orders: map[string]*Order{}} }

func cloneOrder(o *Order) *Order {
	cp := *o
	cp.Items = append([]Item(nil), o.Items...)
	return &cp
}

func (s *stubRepo) Create(ctx context.Context, o *Order, h StatusChange) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o.Version = 1
	s.orders[o.ID] = cloneOrder(o)
	s.history = append(s.history, h)
	s.writes++
	return nil
}

func (s *stubRepo) GetByID(ctx context.Context, id string) (*Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneOrder(o), nil
}

func (s *stubRepo) Update(ctx context.Context, o *Order, h *StatusChange) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.orders[o.ID]
	if !ok {
		return ErrNotFound
	}
	if cur.Version != o.Version {
		return ErrStaleVersion
	}
	o.Version++
	s.orders[o.ID] = cloneOrder(o)
	if h != nil {
		s.history = append(s.history, *h)
	}
	s.writes++
	return nil
}

func (s *stubRepo) filter(keep func(*Order) bool) []Order {
	out := []Order{}
	for _, o := range s.orders {
		if keep(o) {
			out = append(out, *cloneOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *stubRepo) ListByCustomer(ctx context.Context, customerID string) ([]Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter(func(o *Order) bool { return o.CustomerID == customerID }), nil
}

func (s *stubRepo) ListByRestaurant(ctx context.Context, restaurantID string) ([]Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter(func(o *Order) bool { return o.RestaurantID == restaurantID }), nil
}

func (s *stubRepo) ListByAssignee(ctx context.Context, userID string) ([]Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter(func(o *Order) bool { return o.AssignedTo == userID }), nil
}

func (s *stubRepo) List(ctx context.Context, status Status, limit, offset int) ([]Order, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := s.filter(func(o *Order) bool { return status == "" || o.Status == status })
	if offset > len(all) {
		return []Order{}, len(all), nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], len(all), nil
}

func (s *stubRepo) History(ctx context.Context, orderID string) ([]StatusChange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []StatusChange{}
	for _, h := range s.history {
		if h.OrderID == orderID {
			out = append(out, h)
		}
	}
	return out, nil
}

// stubCatalog serves restaurants and menu items from maps.
type stubCatalog struct {
	restaurants map[string]*restaurant.Restaurant
	items       map[string]*restaurant.MenuItem
}

func (c *stubCatalog) GetByID(ctx context.Context, id string) (*restaurant.Restaurant, error) {
	rs, ok := c.restaurants[id]
	if !ok {
		return nil, restaurant.ErrNotFound
	}
	cp := *rs
	return &cp, nil
}

func (c *stubCatalog) GetMenuItem(ctx context.Context, id string) (*restaurant.MenuItem, error) {
	m, ok := c.items[id]
	if !ok {
		return nil, restaurant.ErrMenuItemNotFound
	}
	cp := *m
	return &cp, nil
}

// stubUsers implements Users.
type stubUsers map[string]*user.User

func (s stubUsers) GetByID(ctx context.Context, id string) (*user.User, error) {
	u, ok := s[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return u, nil
}

// recordingNotifier keeps every event it receives.
type recordingNotifier struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingNotifier) Notify(ctx context.Context, ev Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recordingNotifier) all() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

//
// ---------- FIXTURE ----------
//

const (
	restaurantID = "r-1"
	otherRestID  = "r-2"
	itemA        = "m-a"
	itemB        = "m-b"
	itemOther    = "m-x"
)

var (
	customer = auth.Actor{UserID: "u-customer", Role: auth.RoleCustomer, Name: "Cathy"}
	stranger = auth.Actor{UserID: "u-stranger", Role: auth.RoleCustomer}
	owner    = auth.Actor{UserID: "u-owner", Role: auth.RoleRestaurantOwner, Name: "Oscar"}
	courier  = auth.Actor{UserID: "u-courier", Role: auth.RoleDeliveryPerson, Name: "Dora"}
	courier2 = auth.Actor{UserID: "u-courier2", Role: auth.RoleDeliveryPerson}
	admin    = auth.Actor{UserID: "u-admin", Role: auth.RoleAdmin}
)

type fixture struct {
	svc      *Service
	repo     *stubRepo
	catalog  *stubCatalog
	notifier *recordingNotifier
}

func newFixture() *fixture {
	catalog := &stubCatalog{
		restaurants: map[string]*restaurant.Restaurant{
			restaurantID: {ID: restaurantID, Name: "Pizza Palace", Address: "18 Temple Street", OwnerID: owner.UserID, IsActive: true},
			otherRestID:  {ID: otherRestID, Name: "Burger Barn", Address: "75 Nathan Road", IsActive: true},
		},
		items: map[string]*restaurant.MenuItem{
			itemA:     {ID: itemA, RestaurantID: restaurantID, Name: "Margherita", Price: decimal.RequireFromString("10"), IsAvailable: true},
			itemB:     {ID: itemB, RestaurantID: restaurantID, Name: "Cola", Price: decimal.RequireFromString("5"), IsAvailable: true},
			itemOther: {ID: itemOther, RestaurantID: otherRestID, Name: "Burger", Price: decimal.RequireFromString("8"), IsAvailable: true},
		},
	}
	users := stubUsers{
		courier.UserID:  {ID: courier.UserID, Name: "Dora", Role: auth.RoleDeliveryPerson},
		courier2.UserID: {ID: courier2.UserID, Name: "Dan", Role: auth.RoleDeliveryPerson},
		customer.UserID: {ID: customer.UserID, Name: "Cathy", Role: auth.RoleCustomer},
	}
	repo := newStubRepo()
	n := &recordingNotifier{}
	return &fixture{
		svc:      NewService(repo, NewExt(catalog, users), n),
		repo:     repo,
		catalog:  catalog,
		notifier: n,
	}
}

func amount(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

// standardRequest orders 2 × itemA (10.00) and 1 × itemB (5.00) = 25.00.
func standardRequest(total string) CreateOrderRequest {
	return CreateOrderRequest{
		RestaurantID:    restaurantID,
		Items:           []CreateOrderItem{{MenuItemID: itemA, Quantity: 2}, {MenuItemID: itemB, Quantity: 1}},
		TotalAmount:     amount(total),
		DeliveryAddress: "1 Nathan Road",
	}
}

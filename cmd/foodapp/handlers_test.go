package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MikeMC777/foodapp/internal/auth"
	"github.com/MikeMC777/foodapp/internal/notify"
	"github.com/MikeMC777/foodapp/internal/order"
	"github.com/MikeMC777/foodapp/internal/restaurant"
	"github.com/MikeMC777/foodapp/internal/user"
)

func init() {
	gin.SetMode(gin.TestMode)
	gin.DefaultWriter = io.Discard
	log.SetOutput(io.Discard)
}

//
// ---------- STUBS & FAKES ----------
//

// userStore implements user.Repository in memory.
type userStore struct {
	mu   sync.Mutex
	byID map[string]*user.User
}

func (s *userStore) Create(ctx context.Context, u *user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.byID {
		if strings.EqualFold(v.Email, u.Email) {
			return user.ErrAlreadyExist
		}
	}
	cp := *u
	s.byID[u.ID] = &cp
	return nil
}

func (s *userStore) GetByID(ctx context.Context, id string) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *userStore) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.byID {
		if strings.EqualFold(v.Email, email) {
			cp := *v
			return &cp, nil
		}
	}
	return nil, user.ErrNotFound
}

// catalogStore implements restaurant.Repository in memory.
type catalogStore struct {
	restaurants map[string]*restaurant.Restaurant
	items       map[string]*restaurant.MenuItem
}

func (s *catalogStore) Create(ctx context.Context, r *restaurant.Restaurant) error {
	s.restaurants[r.ID] = r
	return nil
}

func (s *catalogStore) GetByID(ctx context.Context, id string) (*restaurant.Restaurant, error) {
	r, ok := s.restaurants[id]
	if !ok {
		return nil, restaurant.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *catalogStore) ListActive(ctx context.Context) ([]restaurant.Restaurant, error) {
	out := []restaurant.Restaurant{}
	for _, r := range s.restaurants {
		if r.IsActive {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (s *catalogStore) CreateMenuItem(ctx context.Context, m *restaurant.MenuItem) error {
	s.items[m.ID] = m
	return nil
}

func (s *catalogStore) GetMenuItem(ctx context.Context, id string) (*restaurant.MenuItem, error) {
	m, ok := s.items[id]
	if !ok {
		return nil, restaurant.ErrMenuItemNotFound
	}
	cp := *m
	return &cp, nil
}

func (s *catalogStore) Menu(ctx context.Context, restaurantID string, onlyAvailable bool) ([]restaurant.MenuItem, error) {
	out := []restaurant.MenuItem{}
	for _, m := range s.items {
		if m.RestaurantID == restaurantID && (!onlyAvailable || m.IsAvailable) {
			out = append(out, *m)
		}
	}
	return out, nil
}

// orderStore implements order.Repository in memory with a version check.
type orderStore struct {
	mu      sync.Mutex
	orders  map[string]order.Order
	history []order.StatusChange
}

func (s *orderStore) Create(ctx context.Context, o *order.Order, h order.StatusChange) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o.Version = 1
	o.CreatedAt = time.Now().UTC()
	o.UpdatedAt = o.CreatedAt
	s.orders[o.ID] = *o
	s.history = append(s.history, h)
	return nil
}

func (s *orderStore) GetByID(ctx context.Context, id string) (*order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	return &o, nil
}

func (s *orderStore) Update(ctx context.Context, o *order.Order, h *order.StatusChange) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.orders[o.ID]
	if !ok {
		return order.ErrNotFound
	}
	if cur.Version != o.Version {
		return order.ErrStaleVersion
	}
	o.Version++
	o.UpdatedAt = time.Now().UTC()
	s.orders[o.ID] = *o
	if h != nil {
		s.history = append(s.history, *h)
	}
	return nil
}

func (s *orderStore) where(keep func(order.Order) bool) []order.Order {
	out := []order.Order{}
	for _, o := range s.orders {
		if keep(o) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *orderStore) ListByCustomer(ctx context.Context, id string) ([]order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.where(func(o order.Order) bool { return o.CustomerID == id }), nil
}

func (s *orderStore) ListByRestaurant(ctx context.Context, id string) ([]order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.where(func(o order.Order) bool { return o.RestaurantID == id }), nil
}

func (s *orderStore) ListByAssignee(ctx context.Context, id string) ([]order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.where(func(o order.Order) bool { return o.AssignedTo == id }), nil
}

func (s *orderStore) List(ctx context.Context, status order.Status, limit, offset int) ([]order.Order, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := s.where(func(o order.Order) bool { return status == "" || o.Status == status })
	if offset >= len(all) {
		return []order.Order{}, len(all), nil
	}
	end := min(offset+limit, len(all))
	return all[offset:end], len(all), nil
}

func (s *orderStore) History(ctx context.Context, id string) ([]order.StatusChange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []order.StatusChange{}
	for _, h := range s.history {
		if h.OrderID == id {
			out = append(out, h)
		}
	}
	return out, nil
}

//
// ---------- FIXTURE ----------
//

type testEnv struct {
	app     *app
	router  *gin.Engine
	tokens  *auth.Tokens
	users   *userStore
	catalog *catalogStore

	restaurantID string
	pizzaID      string
	colaID       string

	customer, owner, courier, admin auth.Actor
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		tokens:       auth.NewTokens("test-secret", time.Hour),
		users:        &userStore{byID: map[string]*user.User{}},
		restaurantID: uuid.NewString(),
		pizzaID:      uuid.NewString(),
		colaID:       uuid.NewString(),
	}
	for _, a := range []*auth.Actor{&env.customer, &env.owner, &env.courier, &env.admin} {
		a.UserID = uuid.NewString()
	}
	env.customer.Role, env.customer.Name = auth.RoleCustomer, "Cathy"
	env.owner.Role, env.owner.Name = auth.RoleRestaurantOwner, "Oscar"
	env.courier.Role, env.courier.Name = auth.RoleDeliveryPerson, "Dora"
	env.admin.Role, env.admin.Name = auth.RoleAdmin, "Ada"
	for _, a := range []auth.Actor{env.customer, env.owner, env.courier, env.admin} {
		env.users.byID[a.UserID] = &user.User{ID: a.UserID, Name: a.Name, Email: a.Name + "@example.com", Role: a.Role}
	}

	env.catalog = &catalogStore{
		restaurants: map[string]*restaurant.Restaurant{
			env.restaurantID: {ID: env.restaurantID, Name: "Pizza Palace", Address: "18 Temple Street", OwnerID: env.owner.UserID, IsActive: true},
		},
		items: map[string]*restaurant.MenuItem{
			env.pizzaID: {ID: env.pizzaID, RestaurantID: env.restaurantID, Name: "Margherita", Price: decimal.RequireFromString("10.00"), IsAvailable: true},
			env.colaID:  {ID: env.colaID, RestaurantID: env.restaurantID, Name: "Cola", Price: decimal.RequireFromString("5.00"), IsAvailable: true},
		},
	}

	hub := notify.NewHub(notify.DefaultBuffer)
	a := &app{
		users:       user.NewService(env.users, env.tokens),
		restaurants: restaurant.NewService(env.catalog),
		orders:      order.NewService(&orderStore{orders: map[string]order.Order{}}, order.NewExt(env.catalog, env.users), hub),
		hub:         hub,
		tokens:      env.tokens,
	}
	env.app = a
	env.router = newRouter(a, "http://localhost:3000")
	return env
}

func (e *testEnv) token(t *testing.T, a auth.Actor) string {
	t.Helper()
	tok, err := e.tokens.Issue(a)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return tok
}

func (e *testEnv) do(t *testing.T, as *auth.Actor, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if as != nil {
		req.Header.Set("Authorization", "Bearer "+e.token(t, *as))
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) orderBody(total string) string {
	return fmt.Sprintf(`{"restaurant":%q,"items":[{"menuItem":%q,"quantity":2},{"menuItem":%q,"quantity":1}],"totalAmount":%s,"deliveryAddress":"1 Nathan Road"}`,
		e.restaurantID, e.pizzaID, e.colaID, total)
}

func (e *testEnv) placeOrder(t *testing.T) order.Order {
	t.Helper()
	w := e.do(t, &e.customer, http.MethodPost, "/api/orders", e.orderBody("25.00"))
	if w.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var o order.Order
	if err := json.Unmarshal(w.Body.Bytes(), &o); err != nil {
		t.Fatalf("decode order: %v", err)
	}
	return o
}

func errorBody(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body %q: %v", w.Body.String(), err)
	}
	return body
}

//
// ---------- TESTS ----------
//

func TestRegisterAndLogin(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	w := env.do(t, nil, http.MethodPost, "/api/auth/register", `{"name":"Tai Man","email":"tai.man@example.com","password":"s3cret-pass"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var reg user.AuthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &reg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if reg.Token == "" || reg.User.Role != auth.RoleCustomer {
		t.Fatalf("response=%+v", reg)
	}

	w = env.do(t, nil, http.MethodPost, "/api/auth/login", `{"email":"tai.man@example.com","password":"s3cret-pass"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("x-auth-token", reg.Token)
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("me: status=%d body=%s", w.Code, w.Body.String())
	}
	var me user.User
	if err := json.Unmarshal(w.Body.Bytes(), &me); err != nil {
		t.Fatalf("decode me: %v", err)
	}
	if me.ID != reg.User.ID || me.Email != "tai.man@example.com" || strings.Contains(w.Body.String(), "password") {
		t.Fatalf("me=%s", w.Body.String())
	}
	if w := env.do(t, nil, http.MethodGet, "/api/auth/me", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous me: status=%d", w.Code)
	}

	w = env.do(t, nil, http.MethodPost, "/api/auth/login", `{"email":"tai.man@example.com","password":"wrong"}`)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	w = env.do(t, nil, http.MethodPost, "/api/auth/register", `{"name":"Tai Man","email":"tai.man@example.com","password":"s3cret-pass"}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate: status=%d body=%s", w.Code, w.Body.String())
	}
}

func TestRestaurants(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.catalog.items[env.colaID].IsAvailable = false

	w := env.do(t, nil, http.MethodGet, "/api/restaurants", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Pizza Palace") {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}

	w = env.do(t, nil, http.MethodGet, "/api/restaurants/"+env.restaurantID, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var d restaurant.DetailResponse
	if err := json.Unmarshal(w.Body.Bytes(), &d); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(d.Menu) != 1 || d.Menu[0].ID != env.pizzaID {
		t.Fatalf("menu=%+v", d.Menu)
	}

	if w := env.do(t, nil, http.MethodGet, "/api/restaurants/"+uuid.NewString(), ""); w.Code != http.StatusNotFound {
		t.Fatalf("unknown: status=%d", w.Code)
	}
	w = env.do(t, nil, http.MethodGet, "/api/restaurants/not-a-uuid", "")
	if w.Code != http.StatusBadRequest || errorBody(t, w)["error"] != "Invalid restaurant ID format" {
		t.Fatalf("malformed: status=%d body=%s", w.Code, w.Body.String())
	}
}

func TestCreateOrder(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	o := env.placeOrder(t)
	if o.Status != order.StatusPlaced || len(o.Items) != 2 || !o.TotalAmount.Equal(decimal.RequireFromString("25")) {
		t.Fatalf("order=%+v", o)
	}
	if o.CustomerID != env.customer.UserID {
		t.Fatalf("customer=%s", o.CustomerID)
	}

	w := env.do(t, &env.customer, http.MethodPost, "/api/orders", env.orderBody("20.00"))
	if w.Code != http.StatusBadRequest || errorBody(t, w)["category"] != "amount_mismatch" {
		t.Fatalf("mismatch: status=%d body=%s", w.Code, w.Body.String())
	}

	w = env.do(t, &env.customer, http.MethodPost, "/api/orders", `{"restaurant":"nope","items":[],"totalAmount":1,"deliveryAddress":"x"}`)
	if w.Code != http.StatusBadRequest || errorBody(t, w)["error"] != "Invalid restaurant ID format" {
		t.Fatalf("malformed restaurant: status=%d body=%s", w.Code, w.Body.String())
	}

	w = env.do(t, &env.customer, http.MethodPost, "/api/orders", `{"items":[]}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing fields: status=%d body=%s", w.Code, w.Body.String())
	}

	w = env.do(t, nil, http.MethodPost, "/api/orders", env.orderBody("25.00"))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous: status=%d body=%s", w.Code, w.Body.String())
	}
}

func TestOrderLifecycle(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	o := env.placeOrder(t)
	base := "/api/orders/" + o.ID

	w := env.do(t, &env.customer, http.MethodPatch, base+"/status", `{"status":"preparing"}`)
	if w.Code != http.StatusForbidden {
		t.Fatalf("customer update: status=%d body=%s", w.Code, w.Body.String())
	}

	w = env.do(t, &env.courier, http.MethodPatch, base+"/status", `{"status":"delivered"}`)
	if w.Code != http.StatusForbidden {
		t.Fatalf("unassigned courier: status=%d body=%s", w.Code, w.Body.String())
	}

	w = env.do(t, &env.owner, http.MethodPatch, base+"/assign", fmt.Sprintf(`{"deliveryPersonId":%q}`, env.courier.UserID))
	if w.Code != http.StatusOK {
		t.Fatalf("assign: status=%d body=%s", w.Code, w.Body.String())
	}

	for _, step := range []struct {
		as     *auth.Actor
		status string
		code   int
	}{
		{&env.owner, "preparing", http.StatusOK},
		{&env.courier, "delivered", http.StatusConflict},
		{&env.courier, "out_for_delivery", http.StatusOK},
		{&env.owner, "delivered", http.StatusForbidden},
		{&env.courier, "delivered", http.StatusOK},
		{&env.admin, "bogus", http.StatusBadRequest},
	} {
		w := env.do(t, step.as, http.MethodPatch, base+"/status", fmt.Sprintf(`{"status":%q}`, step.status))
		if w.Code != step.code {
			t.Fatalf("%s by %s: status=%d body=%s", step.status, step.as.Role, w.Code, w.Body.String())
		}
	}

	w = env.do(t, &env.customer, http.MethodGet, base+"/history", "")
	if w.Code != http.StatusOK {
		t.Fatalf("history: status=%d body=%s", w.Code, w.Body.String())
	}
	var hist []order.StatusChange
	_ = json.Unmarshal(w.Body.Bytes(), &hist)
	if len(hist) != 4 || hist[3].ToStatus != order.StatusDelivered {
		t.Fatalf("history=%+v", hist)
	}

	w = env.do(t, &env.courier, http.MethodGet, "/api/orders/delivery/my-assignments", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), o.ID) {
		t.Fatalf("assignments: status=%d body=%s", w.Code, w.Body.String())
	}
}

func TestCancelOrder(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	o := env.placeOrder(t)

	w := env.do(t, &env.owner, http.MethodDelete, "/api/orders/"+o.ID, "")
	if w.Code != http.StatusForbidden {
		t.Fatalf("owner cancel: status=%d body=%s", w.Code, w.Body.String())
	}

	w = env.do(t, &env.customer, http.MethodDelete, "/api/orders/"+o.ID, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var resp order.CancelResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Message == "" || resp.Order.Status != order.StatusCancelled || resp.Order.CancelledBy != env.customer.UserID {
		t.Fatalf("response=%+v", resp)
	}

	w = env.do(t, &env.customer, http.MethodDelete, "/api/orders/"+o.ID, "")
	if w.Code != http.StatusConflict {
		t.Fatalf("second cancel: status=%d body=%s", w.Code, w.Body.String())
	}
}

func TestGetOrder_AccessAndIDs(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	o := env.placeOrder(t)

	if w := env.do(t, &env.owner, http.MethodGet, "/api/orders/"+o.ID, ""); w.Code != http.StatusOK {
		t.Fatalf("owner: status=%d", w.Code)
	}
	if w := env.do(t, &env.courier, http.MethodGet, "/api/orders/"+o.ID, ""); w.Code != http.StatusForbidden {
		t.Fatalf("courier: status=%d", w.Code)
	}
	if w := env.do(t, &env.courier, http.MethodGet, "/api/orders/"+uuid.NewString(), ""); w.Code != http.StatusNotFound {
		t.Fatalf("missing: status=%d", w.Code)
	}
	w := env.do(t, &env.customer, http.MethodGet, "/api/orders/123", "")
	if w.Code != http.StatusBadRequest || errorBody(t, w)["error"] != "Invalid order ID format" {
		t.Fatalf("malformed: status=%d body=%s", w.Code, w.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/api/orders/my-orders", nil)
	req.Header.Set("x-auth-token", env.token(t, env.customer))
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), o.ID) {
		t.Fatalf("my-orders: status=%d body=%s", rec.Code, rec.Body.String())
	}
}

func TestListOrders(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	for i := 0; i < 3; i++ {
		env.placeOrder(t)
	}

	w := env.do(t, &env.customer, http.MethodGet, "/api/orders", "")
	if w.Code != http.StatusForbidden {
		t.Fatalf("customer: status=%d", w.Code)
	}

	w = env.do(t, &env.admin, http.MethodGet, "/api/orders?page=2&limit=2&status=placed", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var page order.ListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if page.Total != 3 || page.TotalPages != 2 || page.CurrentPage != 2 || len(page.Orders) != 1 {
		t.Fatalf("page=%+v", page)
	}

	w = env.do(t, &env.owner, http.MethodGet, "/api/orders/restaurant/"+env.restaurantID, "")
	if w.Code != http.StatusOK {
		t.Fatalf("restaurant orders: status=%d body=%s", w.Code, w.Body.String())
	}
	w = env.do(t, &env.customer, http.MethodGet, "/api/orders/restaurant/"+env.restaurantID, "")
	if w.Code != http.StatusForbidden {
		t.Fatalf("customer restaurant orders: status=%d", w.Code)
	}
}

func TestHealthz(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	if w := env.do(t, nil, http.MethodGet, "/healthz", ""); w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
}

// readEvent returns the name of the next server-sent event on r.
func readEvent(t *testing.T, r *bufio.Reader) string {
	t.Helper()
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("read stream: %v", err)
		}
		if name, ok := strings.CutPrefix(strings.TrimSpace(line), "event:"); ok {
			return name
		}
	}
}

func TestOrderEvents_StreamStatusUpdates(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	o := env.placeOrder(t)

	srv := httptest.NewServer(env.router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	open := func(path string, as auth.Actor) *http.Response {
		req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+path, nil)
		req.Header.Set("Authorization", "Bearer "+env.token(t, as))
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("open stream: %v", err)
		}
		return resp
	}

	resp := open("/api/orders/"+o.ID+"/events", env.customer)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d", resp.StatusCode)
	}
	orderStream := bufio.NewReader(resp.Body)
	if got := readEvent(t, orderStream); got != "joined" {
		t.Fatalf("first event=%q", got)
	}

	restResp := open("/api/restaurants/"+env.restaurantID+"/events", env.owner)
	defer restResp.Body.Close()
	restStream := bufio.NewReader(restResp.Body)
	if got := readEvent(t, restStream); got != "joined" {
		t.Fatalf("first restaurant event=%q", got)
	}

	if w := env.do(t, &env.owner, http.MethodPatch, "/api/orders/"+o.ID+"/assign", fmt.Sprintf(`{"deliveryPersonId":%q}`, env.courier.UserID)); w.Code != http.StatusOK {
		t.Fatalf("assign: status=%d body=%s", w.Code, w.Body.String())
	}
	if got := readEvent(t, orderStream); got != order.EventAssigned {
		t.Fatalf("event=%q, want %q", got, order.EventAssigned)
	}

	if w := env.do(t, &env.owner, http.MethodPatch, "/api/orders/"+o.ID+"/status", `{"status":"preparing"}`); w.Code != http.StatusOK {
		t.Fatalf("preparing: status=%d body=%s", w.Code, w.Body.String())
	}
	if got := readEvent(t, orderStream); got != order.EventStatusUpdated {
		t.Fatalf("event=%q, want %q", got, order.EventStatusUpdated)
	}

	if w := env.do(t, &env.courier, http.MethodPatch, "/api/orders/"+o.ID+"/status", `{"status":"out_for_delivery"}`); w.Code != http.StatusOK {
		t.Fatalf("update: status=%d body=%s", w.Code, w.Body.String())
	}
	if got := readEvent(t, orderStream); got != order.EventStatusUpdated {
		t.Fatalf("event=%q, want %q", got, order.EventStatusUpdated)
	}
	if got := readEvent(t, restStream); got != order.EventStatusUpdated {
		t.Fatalf("restaurant event=%q, want %q", got, order.EventStatusUpdated)
	}

	denied := open("/api/restaurants/"+env.restaurantID+"/events", env.customer)
	denied.Body.Close()
	if denied.StatusCode != http.StatusForbidden {
		t.Fatalf("customer restaurant stream: status=%d", denied.StatusCode)
	}
}

func TestOrderEvents_EndWhenAccessIsLost(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.app.keepAlive = 20 * time.Millisecond
	env.router = newRouter(env.app, "http://localhost:3000")

	other := auth.Actor{UserID: uuid.NewString(), Role: auth.RoleDeliveryPerson, Name: "Dan"}
	env.users.byID[other.UserID] = &user.User{ID: other.UserID, Name: other.Name, Email: "dan@example.com", Role: other.Role}

	o := env.placeOrder(t)
	assign := func(to string) {
		t.Helper()
		if w := env.do(t, &env.owner, http.MethodPatch, "/api/orders/"+o.ID+"/assign", fmt.Sprintf(`{"deliveryPersonId":%q}`, to)); w.Code != http.StatusOK {
			t.Fatalf("assign: status=%d body=%s", w.Code, w.Body.String())
		}
	}
	assign(env.courier.UserID)

	srv := httptest.NewServer(env.router)
	defer srv.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/orders/"+o.ID+"/events", nil)
	req.Header.Set("Authorization", "Bearer "+env.token(t, env.courier))
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("open stream: %v", err)
	}
	defer resp.Body.Close()
	stream := bufio.NewReader(resp.Body)
	if got := readEvent(t, stream); got != "joined" {
		t.Fatalf("first event=%q", got)
	}

	assign(other.UserID)

	// The server closes the stream on the next tick; a hang fails via ctx.
	for {
		if _, err := stream.ReadString('\n'); err != nil {
			if ctx.Err() != nil {
				t.Fatalf("stream still open after reassignment")
			}
			break
		}
	}
}

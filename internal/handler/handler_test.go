package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mealcart/checkout/internal/domain/cart"
	"github.com/mealcart/checkout/internal/domain/coupon"
	"github.com/mealcart/checkout/internal/domain/order"
	"github.com/mealcart/checkout/internal/domain/payment"
)

// --- In-memory repositories ---

type memCartRepo struct {
	byUser map[string]*cart.Cart
}

func newMemCartRepo() *memCartRepo {
	return &memCartRepo{byUser: make(map[string]*cart.Cart)}
}

func (m *memCartRepo) Get(_ context.Context, userID string) (*cart.Cart, error) {
	c, ok := m.byUser[userID]
	if !ok {
		return nil, cart.ErrNotFound
	}
	return c, nil
}

func (m *memCartRepo) GetOrCreate(_ context.Context, userID, restaurantID string) (*cart.Cart, error) {
	if c, ok := m.byUser[userID]; ok {
		return c, nil
	}
	c := &cart.Cart{ID: "cart-" + userID, UserID: userID, RestaurantID: restaurantID}
	m.byUser[userID] = c
	return c, nil
}

func (m *memCartRepo) findByID(cartID string) *cart.Cart {
	for _, c := range m.byUser {
		if c.ID == cartID {
			return c
		}
	}
	return nil
}

func (m *memCartRepo) AddItem(_ context.Context, cartID string, item cart.Item) error {
	c := m.findByID(cartID)
	for i := range c.Items {
		if c.Items[i].MenuItemID == item.MenuItemID {
			c.Items[i].Quantity += item.Quantity
			return nil
		}
	}
	c.Items = append(c.Items, item)
	return nil
}

func (m *memCartRepo) UpdateItemQuantity(_ context.Context, cartID, menuItemID string, quantity int) error {
	c := m.findByID(cartID)
	for i := range c.Items {
		if c.Items[i].MenuItemID == menuItemID {
			c.Items[i].Quantity = quantity
			return nil
		}
	}
	return cart.ErrItemNotFound
}

func (m *memCartRepo) RemoveItem(_ context.Context, cartID, menuItemID string) (int, error) {
	c := m.findByID(cartID)
	for i := range c.Items {
		if c.Items[i].MenuItemID == menuItemID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return len(c.Items), nil
		}
	}
	return 0, cart.ErrItemNotFound
}

func (m *memCartRepo) Delete(_ context.Context, cartID string) error {
	for userID, c := range m.byUser {
		if c.ID == cartID {
			delete(m.byUser, userID)
		}
	}
	return nil
}

type memCouponRepo struct {
	byCode map[string]*coupon.Coupon
}

func newMemCouponRepo() *memCouponRepo {
	return &memCouponRepo{byCode: make(map[string]*coupon.Coupon)}
}

func (m *memCouponRepo) Create(_ context.Context, c *coupon.Coupon) error {
	if _, ok := m.byCode[c.Code]; ok {
		return coupon.ErrDuplicateCode
	}
	m.byCode[c.Code] = c
	return nil
}

func (m *memCouponRepo) FindByCode(_ context.Context, code, restaurantID string) (*coupon.Coupon, error) {
	c, ok := m.byCode[code]
	if !ok || c.RestaurantID != restaurantID {
		return nil, coupon.ErrNotFound
	}
	return c, nil
}

func (m *memCouponRepo) ListByRestaurant(_ context.Context, restaurantID string) ([]coupon.Coupon, error) {
	var out []coupon.Coupon
	for _, c := range m.byCode {
		if c.RestaurantID == restaurantID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *memCouponRepo) Consume(_ context.Context, couponID, userID string) error {
	for _, c := range m.byCode {
		if c.ID == couponID {
			c.UsedCount++
			c.UsedBy = append(c.UsedBy, userID)
			return nil
		}
	}
	return coupon.ErrNotFound
}

type memOrderRepo struct {
	byUser         map[string][]order.Order
	lastSettlement order.Settlement
}

func newMemOrderRepo() *memOrderRepo {
	return &memOrderRepo{byUser: make(map[string][]order.Order)}
}

func (m *memOrderRepo) CreateSettled(_ context.Context, o *order.Order, s order.Settlement) error {
	m.byUser[o.UserID] = append(m.byUser[o.UserID], *o)
	m.lastSettlement = s
	return nil
}

func (m *memOrderRepo) GetByID(_ context.Context, id string) (*order.Order, error) {
	for _, orders := range m.byUser {
		for i := range orders {
			if orders[i].ID == id {
				return &orders[i], nil
			}
		}
	}
	return nil, order.ErrNotFound
}

func (m *memOrderRepo) ListByUser(_ context.Context, userID string) ([]order.Order, error) {
	return m.byUser[userID], nil
}

type memPaymentRepo struct {
	byOrderRef map[string]*payment.Payment
}

func newMemPaymentRepo() *memPaymentRepo {
	return &memPaymentRepo{byOrderRef: make(map[string]*payment.Payment)}
}

func (m *memPaymentRepo) Create(_ context.Context, p *payment.Payment) error {
	m.byOrderRef[p.GatewayOrderRef] = p
	return nil
}

func (m *memPaymentRepo) GetByOrderRef(_ context.Context, orderRef string) (*payment.Payment, error) {
	p, ok := m.byOrderRef[orderRef]
	if !ok {
		return nil, payment.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memPaymentRepo) MarkFailed(_ context.Context, paymentID, gatewayPaymentRef, signature string) error {
	for _, p := range m.byOrderRef {
		if p.ID == paymentID {
			p.Status = payment.StatusFailed
			p.GatewayPaymentRef = gatewayPaymentRef
			p.GatewaySignature = signature
		}
	}
	return nil
}

func (m *memPaymentRepo) SettlePaid(_ context.Context, paymentID string, rec payment.PaidRecord) error {
	for _, p := range m.byOrderRef {
		if p.ID == paymentID {
			if p.Status == payment.StatusPaid {
				return payment.ErrAlreadyPaid
			}
			p.Status = payment.StatusPaid
			p.OrderID = rec.OrderID
			p.GatewayPaymentRef = rec.GatewayPaymentRef
			p.GatewaySignature = rec.GatewaySignature
		}
	}
	return nil
}

type stubGateway struct {
	orderRef string
	err      error
}

func (g *stubGateway) CreateIntent(_ context.Context, _ int64, _ string) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	return g.orderRef, nil
}

// --- Test fixture ---

type fixture struct {
	server   *httptest.Server
	sessions *Sessions
	signer   *payment.Signer

	carts    *memCartRepo
	coupons  *memCouponRepo
	orders   *memOrderRepo
	payments *memPaymentRepo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		sessions: NewSessions([]byte("session-secret")),
		signer:   payment.NewSigner([]byte("webhook-secret")),
		carts:    newMemCartRepo(),
		coupons:  newMemCouponRepo(),
		orders:   newMemOrderRepo(),
		payments: newMemPaymentRepo(),
	}

	couponSvc := coupon.NewService(f.coupons)
	pricing := order.PricingConfig{
		DeliveryFee:    decimal.NewFromInt(40),
		TaxRatePercent: decimal.NewFromInt(5),
	}
	h := NewHandler(
		f.sessions,
		cart.NewService(f.carts),
		couponSvc,
		order.NewService(f.carts, couponSvc, f.orders, pricing),
		payment.NewService(f.payments, &stubGateway{orderRef: "order_test_1"}, f.signer),
	)

	f.server = httptest.NewServer(h.Routes())
	t.Cleanup(f.server.Close)
	return f
}

func (f *fixture) do(t *testing.T, method, path string, body any, userID string) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, f.server.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: f.sessions.Token(userID)})
	}

	resp, err := f.server.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func addItemBody(menuItemID, restaurantID string, price float64, qty int) map[string]any {
	return map[string]any{
		"menuItemId":   menuItemID,
		"name":         "item " + menuItemID,
		"price":        price,
		"quantity":     qty,
		"restaurantId": restaurantID,
	}
}

// --- Session tests ---

func TestSession_MissingCookie(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodGet, "/cart", nil, "")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSession_TamperedCookie(t *testing.T) {
	f := newFixture(t)

	req, err := http.NewRequest(http.MethodGet, f.server.URL+"/cart", nil)
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "u1.deadbeef"})

	resp, err := f.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSession_TokenRoundTrip(t *testing.T) {
	s := NewSessions([]byte("secret"))

	userID, ok := s.verify(s.Token("u1"))
	require.True(t, ok)
	assert.Equal(t, "u1", userID)

	_, ok = s.verify("no-signature")
	assert.False(t, ok)
}

// --- Cart endpoints ---

func TestGetCart_NotFound(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodGet, "/cart", nil, "u1")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAddCartItem(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodPost, "/cart/items", addItemBody("m1", "rest-1", 250, 2), "u1")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var got struct {
		RestaurantID  string `json:"restaurantId"`
		TotalQuantity int    `json:"totalQuantity"`
		TotalPrice    float64 `json:"totalPrice"`
	}
	decodeJSON(t, resp, &got)
	assert.Equal(t, "rest-1", got.RestaurantID)
	assert.Equal(t, 2, got.TotalQuantity)
	assert.Equal(t, 500.0, got.TotalPrice)
}

func TestAddCartItem_CrossRestaurant(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodPost, "/cart/items", addItemBody("m1", "rest-1", 250, 1), "u1")
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = f.do(t, http.MethodPost, "/cart/items", addItemBody("m9", "rest-2", 80, 1), "u1")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAddCartItem_Validation(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodPost, "/cart/items", addItemBody("m1", "rest-1", 250, 0), "u1")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRemoveCartItem_LastItemDeletesCart(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodPost, "/cart/items", addItemBody("m1", "rest-1", 250, 1), "u1")
	resp.Body.Close()

	resp = f.do(t, http.MethodDelete, "/cart/items/m1", nil, "u1")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var got map[string]string
	decodeJSON(t, resp, &got)
	assert.Equal(t, "item removed and cart deleted", got["message"])

	resp = f.do(t, http.MethodGet, "/cart", nil, "u1")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUpdateCartItem(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodPost, "/cart/items", addItemBody("m1", "rest-1", 250, 1), "u1")
	resp.Body.Close()

	resp = f.do(t, http.MethodPut, "/cart/items/m1", map[string]any{"quantity": 4}, "u1")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var got struct {
		TotalQuantity int `json:"totalQuantity"`
	}
	decodeJSON(t, resp, &got)
	assert.Equal(t, 4, got.TotalQuantity)
}

func TestClearCart(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodPost, "/cart/items", addItemBody("m1", "rest-1", 250, 2), "u1")
	resp.Body.Close()

	resp = f.do(t, http.MethodDelete, "/cart", nil, "u1")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var got struct {
		Message string `json:"message"`
	}
	decodeJSON(t, resp, &got)
	assert.Equal(t, "cart cleared", got.Message)

	resp = f.do(t, http.MethodGet, "/cart", nil, "u1")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// --- Coupon endpoints ---

func createCouponBody() map[string]any {
	return map[string]any{
		"code":           "SAVE20",
		"restaurantId":   "rest-1",
		"discountType":   "PERCENTAGE",
		"discountValue":  20,
		"maxDiscount":    100,
		"minOrderAmount": 200,
	}
}

func TestCreateCoupon(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodPost, "/coupons", createCouponBody(), "admin")
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var got struct {
		Code         string `json:"code"`
		PerUserLimit int    `json:"perUserLimit"`
		Active       bool   `json:"active"`
	}
	decodeJSON(t, resp, &got)
	assert.Equal(t, "SAVE20", got.Code)
	assert.Equal(t, 1, got.PerUserLimit)
	assert.True(t, got.Active)
}

func TestCreateCoupon_Duplicate(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodPost, "/coupons", createCouponBody(), "admin")
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = f.do(t, http.MethodPost, "/coupons", createCouponBody(), "admin")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestApplyCoupon(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodPost, "/coupons", createCouponBody(), "admin")
	resp.Body.Close()

	resp = f.do(t, http.MethodPost, "/coupons/apply", map[string]any{
		"code":         "SAVE20",
		"restaurantId": "rest-1",
		"orderAmount":  1000,
	}, "u1")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var got struct {
		Discount    float64 `json:"discount"`
		FinalAmount float64 `json:"finalAmount"`
	}
	decodeJSON(t, resp, &got)
	assert.Equal(t, 100.0, got.Discount)
	assert.Equal(t, 900.0, got.FinalAmount)
}

func TestApplyCoupon_BelowMinimum(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodPost, "/coupons", createCouponBody(), "admin")
	resp.Body.Close()

	resp = f.do(t, http.MethodPost, "/coupons/apply", map[string]any{
		"code":         "SAVE20",
		"restaurantId": "rest-1",
		"orderAmount":  150,
	}, "u1")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestApplyCoupon_UnknownCode(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodPost, "/coupons/apply", map[string]any{
		"code":         "BOGUS",
		"restaurantId": "rest-1",
		"orderAmount":  500,
	}, "u1")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestConsumeCoupon(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodPost, "/coupons", createCouponBody(), "admin")
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created struct {
		ID string `json:"id"`
	}
	decodeJSON(t, resp, &created)
	require.NotEmpty(t, created.ID)

	resp = f.do(t, http.MethodPatch, "/coupons/"+created.ID+"/use", nil, "u1")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var got struct {
		Message string `json:"message"`
	}
	decodeJSON(t, resp, &got)
	assert.Equal(t, "coupon consumed", got.Message)

	c := f.coupons.byCode["SAVE20"]
	require.NotNil(t, c)
	assert.Equal(t, 1, c.UsedCount)
	assert.Equal(t, []string{"u1"}, c.UsedBy)
}

func TestConsumeCoupon_Unknown(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodPatch, "/coupons/nope/use", nil, "u1")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// --- Order endpoints ---

func orderBody(method, couponCode string) map[string]any {
	return map[string]any{
		"address": map[string]string{
			"street":     "12 Baker St",
			"city":       "Pune",
			"state":      "MH",
			"postalCode": "411001",
			"phone":      "+911234567890",
		},
		"paymentMethod": method,
		"couponCode":    couponCode,
	}
}

func TestCreateOrder_Cash(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodPost, "/cart/items", addItemBody("m1", "rest-1", 250, 2), "u1")
	resp.Body.Close()

	resp = f.do(t, http.MethodPost, "/orders", orderBody("CASH", ""), "u1")
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var got struct {
		Subtotal      float64 `json:"subtotal"`
		Tax           float64 `json:"tax"`
		DeliveryFee   float64 `json:"deliveryFee"`
		GrandTotal    float64 `json:"grandTotal"`
		Status        string  `json:"status"`
		PaymentStatus string  `json:"paymentStatus"`
	}
	decodeJSON(t, resp, &got)
	assert.Equal(t, 500.0, got.Subtotal)
	assert.Equal(t, 25.0, got.Tax)
	assert.Equal(t, 40.0, got.DeliveryFee)
	assert.Equal(t, 565.0, got.GrandTotal)
	assert.Equal(t, "PLACED", got.Status)
	assert.Equal(t, "PENDING", got.PaymentStatus)

	assert.Equal(t, "cart-u1", f.orders.lastSettlement.ClearCartID)
}

func TestCreateOrder_WithCoupon(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodPost, "/coupons", createCouponBody(), "admin")
	resp.Body.Close()
	resp = f.do(t, http.MethodPost, "/cart/items", addItemBody("m1", "rest-1", 250, 2), "u1")
	resp.Body.Close()

	resp = f.do(t, http.MethodPost, "/orders", orderBody("CASH", "SAVE20"), "u1")
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var got struct {
		Discount   float64 `json:"discount"`
		GrandTotal float64 `json:"grandTotal"`
		CouponCode string  `json:"couponCode"`
	}
	decodeJSON(t, resp, &got)
	assert.Equal(t, 100.0, got.Discount)
	assert.Equal(t, 465.0, got.GrandTotal)
	assert.Equal(t, "SAVE20", got.CouponCode)
	assert.Equal(t, "u1", f.orders.lastSettlement.ConsumeUserID)
	assert.NotEmpty(t, f.orders.lastSettlement.ConsumeCouponID)
}

func TestCreateOrder_EmptyCart(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodPost, "/orders", orderBody("CASH", ""), "u1")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListOrders(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodPost, "/cart/items", addItemBody("m1", "rest-1", 250, 1), "u1")
	resp.Body.Close()
	resp = f.do(t, http.MethodPost, "/orders", orderBody("CASH", ""), "u1")
	resp.Body.Close()

	resp = f.do(t, http.MethodGet, "/orders", nil, "u1")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var got []struct {
		ID string `json:"id"`
	}
	decodeJSON(t, resp, &got)
	require.Len(t, got, 1)

	// Another user sees nothing.
	resp = f.do(t, http.MethodGet, "/orders", nil, "u2")
	var other []struct {
		ID string `json:"id"`
	}
	decodeJSON(t, resp, &other)
	assert.Empty(t, other)
}

// --- Payment endpoints ---

func TestCreateAndVerifyPayment(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodPost, "/payment/create-payment", map[string]any{"amount": 565.0}, "u1")
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var created struct {
		PaymentID       string `json:"paymentId"`
		GatewayOrderRef string `json:"gatewayOrderRef"`
		AmountMinor     int64  `json:"amountMinor"`
	}
	decodeJSON(t, resp, &created)
	assert.Equal(t, "order_test_1", created.GatewayOrderRef)
	assert.Equal(t, int64(56500), created.AmountMinor)

	sig := f.signer.Sign(created.GatewayOrderRef, "pay_xyz")
	resp = f.do(t, http.MethodPost, "/payment/verify-payment", map[string]any{
		"gatewayOrderRef":   created.GatewayOrderRef,
		"gatewayPaymentRef": "pay_xyz",
		"signature":         sig,
		"orderId":           "ord-1",
	}, "u1")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var verified struct {
		PaymentID string `json:"paymentId"`
		OrderID   string `json:"orderId"`
		Status    string `json:"status"`
	}
	decodeJSON(t, resp, &verified)
	assert.Equal(t, created.PaymentID, verified.PaymentID)
	assert.Equal(t, "ord-1", verified.OrderID)
	assert.Equal(t, "paid", verified.Status)
}

func TestVerifyPayment_TamperedSignature(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodPost, "/payment/create-payment", map[string]any{"amount": 100.0}, "u1")
	var created struct {
		GatewayOrderRef string `json:"gatewayOrderRef"`
	}
	decodeJSON(t, resp, &created)

	resp = f.do(t, http.MethodPost, "/payment/verify-payment", map[string]any{
		"gatewayOrderRef":   created.GatewayOrderRef,
		"gatewayPaymentRef": "pay_xyz",
		"signature":         "forged",
	}, "u1")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreatePayment_GatewayDown(t *testing.T) {
	f := newFixture(t)

	// Swap the handler for one whose gateway always fails.
	couponSvc := coupon.NewService(f.coupons)
	h := NewHandler(
		f.sessions,
		cart.NewService(f.carts),
		couponSvc,
		order.NewService(f.carts, couponSvc, f.orders, order.PricingConfig{
			DeliveryFee:    decimal.NewFromInt(40),
			TaxRatePercent: decimal.NewFromInt(5),
		}),
		payment.NewService(f.payments, &stubGateway{
			err: &payment.GatewayError{Op: "create intent", Err: context.DeadlineExceeded},
		}, f.signer),
	)
	srv := httptest.NewServer(h.Routes())
	defer srv.Close()

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/payment/create-payment",
		bytes.NewBufferString(`{"amount": 100}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: f.sessions.Token("u1")})

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

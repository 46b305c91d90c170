package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/billdesk/internal/application/service"
	"github.com/sangkips/billdesk/internal/config"
	"github.com/sangkips/billdesk/internal/domain/entity"
	"github.com/sangkips/billdesk/internal/domain/repository"
	"github.com/sangkips/billdesk/internal/infrastructure/cache"
	"github.com/sangkips/billdesk/internal/presentation/http/handler"
	"github.com/sangkips/billdesk/internal/presentation/http/middleware"
	"github.com/sangkips/billdesk/pkg/pagination"
	"github.com/sangkips/billdesk/pkg/printer"
	"github.com/sangkips/billdesk/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// in-memory repositories

type memCustomers struct {
	mu   sync.Mutex
	rows map[uuid.UUID]entity.Customer
}

func (m *memCustomers) Create(_ context.Context, c *entity.Customer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.CreatedAt = time.Now()
	m.rows[c.ID] = *c
	return nil
}

func (m *memCustomers) GetByID(_ context.Context, id uuid.UUID) (*entity.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.rows[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (m *memCustomers) GetByPhone(_ context.Context, phone string) (*entity.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.rows {
		if c.Phone == phone {
			c := c
			return &c, nil
		}
	}
	return nil, nil
}

func (m *memCustomers) List(_ context.Context, _ *pagination.PaginationParams, _ string) ([]entity.Customer, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]entity.Customer, 0, len(m.rows))
	for _, c := range m.rows {
		out = append(out, c)
	}
	return out, int64(len(out)), nil
}

func (m *memCustomers) ListWithCursor(ctx context.Context, _ *pagination.Cursor, _ int, search string) ([]entity.Customer, error) {
	out, _, err := m.List(ctx, nil, search)
	return out, err
}

func (m *memCustomers) Count(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.rows)), nil
}

type memProducts struct {
	mu   sync.Mutex
	rows map[uuid.UUID]entity.Product
}

func (m *memProducts) Create(_ context.Context, p *entity.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	m.rows[p.ID] = *p
	return nil
}

func (m *memProducts) GetByID(_ context.Context, id uuid.UUID) (*entity.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *memProducts) GetByIDs(_ context.Context, ids []uuid.UUID) ([]entity.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []entity.Product
	for _, id := range ids {
		if p, ok := m.rows[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memProducts) List(_ context.Context, _ *repository.ProductFilterParams) ([]entity.Product, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]entity.Product, 0, len(m.rows))
	for _, p := range m.rows {
		out = append(out, p)
	}
	return out, int64(len(out)), nil
}

func (m *memProducts) Categories(_ context.Context) ([]string, error) {
	return []string{}, nil
}

type memBills struct {
	mu       sync.Mutex
	products *memProducts
	rows     map[uuid.UUID]entity.Bill
}

func (m *memBills) CreateWithStock(_ context.Context, bill *entity.Bill, decrements map[uuid.UUID]int) error {
	m.products.mu.Lock()
	defer m.products.mu.Unlock()

	var short []uuid.UUID
	for id, qty := range decrements {
		if m.products.rows[id].Stock < qty {
			short = append(short, id)
		}
	}
	if len(short) > 0 {
		sort.Slice(short, func(i, j int) bool { return short[i].String() < short[j].String() })
		return &repository.InsufficientStockError{ProductIDs: short}
	}
	for id, qty := range decrements {
		p := m.products.rows[id]
		p.Stock -= qty
		m.products.rows[id] = p
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	bill.ID = uuid.New()
	bill.CreatedAt = time.Now()
	m.rows[bill.ID] = *bill
	return nil
}

func (m *memBills) GetWithItems(_ context.Context, id uuid.UUID) (*entity.Bill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.rows[id]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (m *memBills) GetByBillNumber(_ context.Context, number string) (*entity.Bill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.rows {
		if b.BillNumber == number {
			b := b
			return &b, nil
		}
	}
	return nil, nil
}

func (m *memBills) List(_ context.Context, _ *repository.BillFilterParams) ([]entity.Bill, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]entity.Bill, 0, len(m.rows))
	for _, b := range m.rows {
		out = append(out, b)
	}
	return out, int64(len(out)), nil
}

func (m *memBills) Summary(_ context.Context) (*repository.BillSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := &repository.BillSummary{}
	for _, b := range m.rows {
		s.TotalBills++
		s.TotalSales += b.Total
	}
	return s, nil
}

func (m *memBills) Recent(ctx context.Context, _ int) ([]entity.Bill, error) {
	out, _, err := m.List(ctx, nil)
	return out, err
}

func (m *memBills) TopProducts(_ context.Context, _ int) ([]repository.TopProduct, error) {
	return []repository.TopProduct{}, nil
}

type memIdempotency struct {
	mu   sync.Mutex
	rows map[string]entity.IdempotencyKey
}

func (m *memIdempotency) GetByKey(_ context.Context, key string, sessionID uuid.UUID) (*entity.IdempotencyKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k, ok := m.rows[sessionID.String()+"/"+key]
	if !ok {
		return nil, nil
	}
	return &k, nil
}

func (m *memIdempotency) Create(_ context.Context, k *entity.IdempotencyKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[k.SessionID.String()+"/"+k.Key] = *k
	return nil
}

func (m *memIdempotency) DeleteExpired(_ context.Context) (int64, error) {
	return 0, nil
}

// test harness

type apiFixture struct {
	router   *gin.Engine
	products *memProducts
	customer entity.Customer
	pen      entity.Product
	book     entity.Product
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	customers := &memCustomers{rows: map[uuid.UUID]entity.Customer{}}
	products := &memProducts{rows: map[uuid.UUID]entity.Product{}}
	bills := &memBills{products: products, rows: map[uuid.UUID]entity.Bill{}}
	idempotency := &memIdempotency{rows: map[string]entity.IdempotencyKey{}}

	f := &apiFixture{
		products: products,
		customer: entity.Customer{ID: uuid.New(), Name: "Asha", Phone: "0700"},
		pen:      entity.Product{ID: uuid.New(), Name: "Pen", Price: 10000, Stock: 5},
		book:     entity.Product{ID: uuid.New(), Name: "Book", Price: 5000, Stock: 1},
	}
	customers.rows[f.customer.ID] = f.customer
	products.rows[f.pen.ID] = f.pen
	products.rows[f.book.ID] = f.book

	tokens := utils.NewSessionTokenManager("test-secret", time.Hour)
	customerService := service.NewCustomerService(customers)
	productService := service.NewProductService(products)
	billService := service.NewBillService(bills, products, customers)
	composerService := service.NewComposerService(cache.NewMemoryDraftStore(time.Hour),
		productService, customerService, billService, tokens)
	printerService := service.NewPrinterService(printer.NewNullPrinter(), billService, "Corner Shop", 32)

	cfg := &config.Config{
		App:      config.AppConfig{Name: "billdesk"},
		Composer: config.ComposerConfig{IdempotencyTTL: time.Hour},
	}

	f.router = Setup(&Handlers{
		Health:    handler.NewHealthHandler("billdesk", nil),
		Composer:  handler.NewComposerHandler(composerService),
		Customer:  handler.NewCustomerHandler(customerService),
		Product:   handler.NewProductHandler(productService),
		Bill:      handler.NewBillHandler(billService),
		Dashboard: handler.NewDashboardHandler(service.NewDashboardService(bills, customers)),
		Printer:   handler.NewPrinterHandler(printerService),
	}, &Deps{
		Tokens:          tokens,
		Cfg:             cfg,
		IdempotencyRepo: idempotency,
	})
	return f
}

type apiResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"errors"`
}

func (f *apiFixture) do(t *testing.T, method, path, token string, body interface{}, headers ...string) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(middleware.SessionTokenHeader, token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	var resp apiResponse
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &resp)
	}
	return w, resp
}

type draftData struct {
	SessionID string `json:"session_id"`
	Token     string `json:"token"`
	Draft     struct {
		CustomerRef   string `json:"customer_ref"`
		PaymentMethod string `json:"payment_method"`
		Items         []struct {
			ProductRef string `json:"product_ref"`
			Quantity   int    `json:"quantity"`
		} `json:"items"`
	} `json:"draft"`
	Totals struct {
		Subtotal   string `json:"subtotal"`
		TaxAmount  string `json:"tax_amount"`
		GrandTotal string `json:"grand_total"`
	} `json:"totals"`
}

func decodeDraft(t *testing.T, raw json.RawMessage) draftData {
	t.Helper()
	var d draftData
	require.NoError(t, json.Unmarshal(raw, &d))
	return d
}

func (f *apiFixture) openSession(t *testing.T) string {
	t.Helper()
	w, resp := f.do(t, http.MethodPost, "/api/v1/composer/sessions", "", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	d := decodeDraft(t, resp.Data)
	require.NotEmpty(t, d.Token)
	return d.Token
}

func TestHealth(t *testing.T) {
	f := newAPIFixture(t)
	w, _ := f.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestComposerRequiresSession(t *testing.T) {
	f := newAPIFixture(t)

	w, _ := f.do(t, http.MethodGet, "/api/v1/composer/draft", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, resp := f.do(t, http.MethodGet, "/api/v1/composer/draft", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, resp.Success)
}

func TestComposerFlow(t *testing.T) {
	f := newAPIFixture(t)
	token := f.openSession(t)

	// add pen twice and book once
	for _, id := range []uuid.UUID{f.pen.ID, f.pen.ID, f.book.ID} {
		w, _ := f.do(t, http.MethodPost, "/api/v1/composer/items", token, map[string]string{"product_id": id.String()})
		require.Equal(t, http.StatusOK, w.Code)
	}

	// raw input as a string, then as a number
	quantityPath := "/api/v1/composer/items/" + f.pen.ID.String() + "/quantity"
	_, resp := f.do(t, http.MethodPut, quantityPath, token, `{"value":"3abc"}`)
	assert.Equal(t, 3, decodeDraft(t, resp.Data).Draft.Items[0].Quantity)
	_, resp = f.do(t, http.MethodPut, quantityPath, token, `{"value":2}`)
	assert.Equal(t, 2, decodeDraft(t, resp.Data).Draft.Items[0].Quantity)

	_, _ = f.do(t, http.MethodPut, "/api/v1/composer/tax", token, `{"value":10}`)
	_, resp = f.do(t, http.MethodPut, "/api/v1/composer/discount", token, `{"value":"20"}`)
	d := decodeDraft(t, resp.Data)
	assert.Equal(t, "250", d.Totals.Subtotal)
	assert.Equal(t, "25", d.Totals.TaxAmount)
	assert.Equal(t, "255", d.Totals.GrandTotal)

	w, resp := f.do(t, http.MethodPut, "/api/v1/composer/payment-method", token, `{"value":"cheque"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	_, resp = f.do(t, http.MethodPut, "/api/v1/composer/payment-method", token, `{"value":"upi"}`)
	assert.Equal(t, "upi", decodeDraft(t, resp.Data).Draft.PaymentMethod)

	// submit needs an idempotency key
	w, _ = f.do(t, http.MethodPost, "/api/v1/composer/submit", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// no customer yet
	w, resp = f.do(t, http.MethodPost, "/api/v1/composer/submit", token, nil, middleware.IdempotencyKeyHeader, "k1")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, "customer", resp.Errors[0].Field)

	w, _ = f.do(t, http.MethodPut, "/api/v1/composer/customer", token, map[string]string{"customer_id": f.customer.ID.String()})
	require.Equal(t, http.StatusOK, w.Code)

	// the failed attempt was not stored, so the same key can be retried
	w, resp = f.do(t, http.MethodPost, "/api/v1/composer/submit", token, nil, middleware.IdempotencyKeyHeader, "k1")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	firstBody := w.Body.String()

	var result struct {
		Bill struct {
			ID            string `json:"id"`
			BillNumber    string `json:"bill_number"`
			Total         string `json:"total"`
			PaymentMethod string `json:"payment_method"`
		} `json:"bill"`
		Draft draftData `json:"draft"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &result))
	assert.Equal(t, "255", result.Bill.Total)
	assert.Equal(t, "upi", result.Bill.PaymentMethod)
	assert.Empty(t, result.Draft.Draft.Items)
	assert.Empty(t, result.Draft.Draft.CustomerRef)

	// stock was taken
	assert.Equal(t, 3, f.products.rows[f.pen.ID].Stock)
	assert.Equal(t, 0, f.products.rows[f.book.ID].Stock)

	// replay
	w, _ = f.do(t, http.MethodPost, "/api/v1/composer/submit", token, nil, middleware.IdempotencyKeyHeader, "k1")
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "true", w.Header().Get(middleware.IdempotencyReplayedHeader))
	assert.JSONEq(t, firstBody, w.Body.String())

	// same key, different body
	w, _ = f.do(t, http.MethodPost, "/api/v1/composer/submit", token, `{"x":1}`, middleware.IdempotencyKeyHeader, "k1")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	// receipt preview of the stored bill
	w, resp = f.do(t, http.MethodGet, "/api/v1/bills/"+result.Bill.ID+"/receipt", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(resp.Data), `"payment_method":"UPI"`)
	assert.Contains(t, string(resp.Data), `"footer":"Thank you for your business!"`)

	w, _ = f.do(t, http.MethodGet, "/api/v1/bills/number/"+result.Bill.BillNumber, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSubmitInsufficientStockKeepsDraft(t *testing.T) {
	f := newAPIFixture(t)
	token := f.openSession(t)

	f.do(t, http.MethodPost, "/api/v1/composer/items", token, map[string]string{"product_id": f.book.ID.String()})
	f.do(t, http.MethodPut, "/api/v1/composer/items/"+f.book.ID.String()+"/quantity", token, `{"value":5}`)
	f.do(t, http.MethodPut, "/api/v1/composer/customer", token, map[string]string{"customer_id": f.customer.ID.String()})

	w, resp := f.do(t, http.MethodPost, "/api/v1/composer/submit", token, nil, middleware.IdempotencyKeyHeader, "k2")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Insufficient stock for Book", resp.Message)

	_, resp = f.do(t, http.MethodGet, "/api/v1/composer/draft", token, nil)
	d := decodeDraft(t, resp.Data)
	require.Len(t, d.Draft.Items, 1)
	assert.Equal(t, 5, d.Draft.Items[0].Quantity)
	assert.Equal(t, f.customer.ID.String(), d.Draft.CustomerRef)
}

func TestCustomerEndpoints(t *testing.T) {
	f := newAPIFixture(t)

	w, resp := f.do(t, http.MethodPost, "/api/v1/customers", "", map[string]string{"name": "Ben"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, resp.Success)

	w, _ = f.do(t, http.MethodPost, "/api/v1/customers", "", map[string]string{"name": "Ben", "phone": "0711"})
	assert.Equal(t, http.StatusCreated, w.Code)

	w, _ = f.do(t, http.MethodPost, "/api/v1/customers", "", map[string]string{"name": "Ben", "phone": "0711"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = f.do(t, http.MethodGet, "/api/v1/customers/not-a-uuid", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = f.do(t, http.MethodGet, "/api/v1/customers/"+uuid.NewString(), "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAddUnknownProduct(t *testing.T) {
	f := newAPIFixture(t)
	token := f.openSession(t)

	w, _ := f.do(t, http.MethodPost, "/api/v1/composer/items", token, map[string]string{"product_id": uuid.NewString()})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/travatlanta/Sticky-sub003/internal/domain"
	"github.com/travatlanta/Sticky-sub003/internal/repository"
	"github.com/travatlanta/Sticky-sub003/internal/service"
	"github.com/travatlanta/Sticky-sub003/internal/shipping"
)

// --- Mocks ---

type CatalogMock struct {
	product   *domain.Product
	quote     *service.PriceQuote
	changes   []domain.PriceChange
	err       error
	gotFilter repository.ProductFilter
	gotQty    int
	gotOpts   []int64
	gotAdjust service.BulkAdjustRequest
}

func (m *CatalogMock) ListProducts(_ context.Context, f repository.ProductFilter) ([]*domain.Product, error) {
	m.gotFilter = f
	if m.err != nil {
		return nil, m.err
	}
	return []*domain.Product{m.product}, nil
}

func (m *CatalogMock) GetProduct(context.Context, int64, bool) (*domain.Product, error) {
	return m.product, m.err
}

func (m *CatalogMock) Quote(_ context.Context, _ int64, quantity int, optionIDs []int64) (*service.PriceQuote, error) {
	m.gotQty, m.gotOpts = quantity, optionIDs
	return m.quote, m.err
}

func (m *CatalogMock) ListCategories(context.Context) ([]domain.Category, error) {
	return []domain.Category{}, m.err
}

func (m *CatalogMock) CreateCategory(_ context.Context, _ domain.Actor, name, slug string) (*domain.Category, error) {
	return &domain.Category{ID: 1, Name: name, Slug: slug}, m.err
}

func (m *CatalogMock) CreateProduct(_ context.Context, _ domain.Actor, p *domain.Product) (*domain.Product, error) {
	return p, m.err
}

func (m *CatalogMock) UpdateProduct(_ context.Context, _ domain.Actor, p *domain.Product) (*domain.Product, error) {
	return p, m.err
}

func (m *CatalogMock) DeleteProduct(context.Context, domain.Actor, int64) error { return m.err }

func (m *CatalogMock) ReplaceOptions(_ context.Context, _ domain.Actor, _ int64, options []domain.ProductOption) ([]domain.ProductOption, error) {
	return options, m.err
}

func (m *CatalogMock) GlobalTiers(context.Context) ([]domain.PricingTier, error) {
	return []domain.PricingTier{}, m.err
}

func (m *CatalogMock) ReplaceProductTiers(_ context.Context, _ domain.Actor, _ int64, tiers []domain.PricingTier) ([]domain.PricingTier, error) {
	return tiers, m.err
}

func (m *CatalogMock) ReplaceGlobalTiers(_ context.Context, _ domain.Actor, tiers []domain.PricingTier) ([]domain.PricingTier, error) {
	return tiers, m.err
}

func (m *CatalogMock) BulkAdjust(_ context.Context, _ domain.Actor, req service.BulkAdjustRequest) ([]domain.PriceChange, error) {
	m.gotAdjust = req
	return m.changes, m.err
}

type CartMock struct {
	cart     *domain.Cart
	err      error
	gotOwner string
	gotActor domain.Actor
	gotAdd   service.AddItemRequest

	moved     int
	adoptErr  error
	gotAdopts [][2]string
}

func (m *CartMock) GetCart(_ context.Context, owner string) (*domain.Cart, error) {
	m.gotOwner = owner
	return m.cart, m.err
}

func (m *CartMock) AddItem(_ context.Context, actor domain.Actor, owner string, req service.AddItemRequest) (*domain.Cart, error) {
	m.gotActor, m.gotOwner, m.gotAdd = actor, owner, req
	return m.cart, m.err
}

func (m *CartMock) AdoptCart(_ context.Context, from, to string) (int, error) {
	m.gotAdopts = append(m.gotAdopts, [2]string{from, to})
	return m.moved, m.adoptErr
}

func (m *CartMock) UpdateQuantity(_ context.Context, owner, _ string, _ int) (*domain.Cart, error) {
	m.gotOwner = owner
	return m.cart, m.err
}

func (m *CartMock) RemoveItem(_ context.Context, owner, _ string) (*domain.Cart, error) {
	m.gotOwner = owner
	return m.cart, m.err
}

func (m *CartMock) ClearCart(_ context.Context, owner string) error {
	m.gotOwner = owner
	return m.err
}

type CheckoutMock struct {
	order    *domain.Order
	replayed bool
	quote    shipping.Quote
	preview  *service.PromotionPreview
	err      error
	gotReq   service.CheckoutRequest
	gotAddr  shipping.Address
}

func (m *CheckoutMock) ShippingQuote(_ context.Context, _ string, address shipping.Address) (shipping.Quote, error) {
	m.gotAddr = address
	return m.quote, m.err
}

func (m *CheckoutMock) PreviewPromotion(context.Context, domain.Actor, string, string) (*service.PromotionPreview, error) {
	return m.preview, m.err
}

func (m *CheckoutMock) Checkout(_ context.Context, _ domain.Actor, req service.CheckoutRequest) (*domain.Order, bool, error) {
	m.gotReq = req
	return m.order, m.replayed, m.err
}

type OrdersMock struct {
	order      *domain.Order
	orders     []*domain.Order
	change     *service.StatusChange
	err        error
	gotFilter  repository.OrderFilter
	gotStatus  string
	gotVersion *int
}

func (m *OrdersMock) ListMine(context.Context, domain.Actor) ([]*domain.Order, error) {
	return m.orders, m.err
}

func (m *OrdersMock) Get(context.Context, domain.Actor, uuid.UUID) (*domain.Order, error) {
	return m.order, m.err
}

func (m *OrdersMock) AdminList(_ context.Context, _ domain.Actor, f repository.OrderFilter) ([]*domain.Order, error) {
	m.gotFilter = f
	return m.orders, m.err
}

func (m *OrdersMock) AdminGet(context.Context, domain.Actor, uuid.UUID) (*domain.Order, error) {
	return m.order, m.err
}

func (m *OrdersMock) UpdateStatus(_ context.Context, _ domain.Actor, _ uuid.UUID, status string, expectedVersion *int) (*service.StatusChange, error) {
	m.gotStatus, m.gotVersion = status, expectedVersion
	return m.change, m.err
}

func (m *OrdersMock) ConfirmPayment(_ context.Context, n service.PaymentNotification) (*domain.Order, error) {
	m.gotStatus = n.Type
	return m.order, m.err
}

type ArtworkMock struct {
	order      *domain.Order
	err        error
	gotNote    string
	gotDesign  uuid.UUID
	gotItem    *int64
	gotUpdate  service.ArtworkUpdate
	gotVersion *int
}

func (m *ArtworkMock) Upload(_ context.Context, _ domain.Actor, _ uuid.UUID, designID uuid.UUID, itemID *int64) (*domain.Order, error) {
	m.gotDesign, m.gotItem = designID, itemID
	return m.order, m.err
}

func (m *ArtworkMock) Approve(context.Context, domain.Actor, uuid.UUID) (*domain.Order, error) {
	return m.order, m.err
}

func (m *ArtworkMock) RequestRevision(_ context.Context, _ domain.Actor, _ uuid.UUID, note string) (*domain.Order, error) {
	m.gotNote = note
	return m.order, m.err
}

func (m *ArtworkMock) AdminUpdate(_ context.Context, _ domain.Actor, _ uuid.UUID, u service.ArtworkUpdate, expectedVersion *int) (*domain.Order, error) {
	m.gotUpdate, m.gotVersion = u, expectedVersion
	return m.order, m.err
}

func (m *ArtworkMock) Restore(_ context.Context, _ domain.Actor, _ uuid.UUID, expectedVersion *int) (*domain.Order, error) {
	m.gotVersion = expectedVersion
	return m.order, m.err
}

type PromotionsMock struct {
	err error
}

func (m *PromotionsMock) ListPromotions(context.Context, domain.Actor) ([]*domain.Promotion, error) {
	return []*domain.Promotion{}, m.err
}

func (m *PromotionsMock) CreatePromotion(_ context.Context, _ domain.Actor, p *domain.Promotion) (*domain.Promotion, error) {
	return p, m.err
}

func (m *PromotionsMock) UpdatePromotion(_ context.Context, _ domain.Actor, p *domain.Promotion) (*domain.Promotion, error) {
	return p, m.err
}

func (m *PromotionsMock) DeletePromotion(context.Context, domain.Actor, int64) error { return m.err }

func (m *PromotionsMock) ActiveDeals(context.Context) ([]*domain.Deal, error) {
	return []*domain.Deal{}, m.err
}

func (m *PromotionsMock) ListDeals(context.Context, domain.Actor) ([]*domain.Deal, error) {
	return []*domain.Deal{}, m.err
}

func (m *PromotionsMock) CreateDeal(_ context.Context, _ domain.Actor, d *domain.Deal) (*domain.Deal, error) {
	return d, m.err
}

func (m *PromotionsMock) UpdateDeal(_ context.Context, _ domain.Actor, d *domain.Deal) (*domain.Deal, error) {
	return d, m.err
}

func (m *PromotionsMock) DeleteDeal(context.Context, domain.Actor, int64) error { return m.err }

type BackOfficeMock struct {
	err         error
	gotTemplate *domain.EmailTemplate
	gotSettings shipping.Settings
	gotLimit    int
}

func (m *BackOfficeMock) GetTemplate(_ context.Context, _ domain.Actor, key string) (*domain.EmailTemplate, error) {
	return &domain.EmailTemplate{Key: key}, m.err
}

func (m *BackOfficeMock) PutTemplate(_ context.Context, _ domain.Actor, t *domain.EmailTemplate) (*domain.EmailTemplate, error) {
	m.gotTemplate = t
	return t, m.err
}

func (m *BackOfficeMock) ShippingSettings(context.Context, domain.Actor) (shipping.Settings, error) {
	return shipping.DefaultSettings(), m.err
}

func (m *BackOfficeMock) SaveShippingSettings(_ context.Context, _ domain.Actor, s shipping.Settings) (shipping.Settings, error) {
	m.gotSettings = s
	return s, m.err
}

func (m *BackOfficeMock) ActivityLog(_ context.Context, _ domain.Actor, limit int) ([]*domain.ActivityLog, error) {
	m.gotLimit = limit
	return []*domain.ActivityLog{}, m.err
}

func (m *BackOfficeMock) Notifications(_ context.Context, _ domain.Actor, limit int) ([]*domain.Notification, error) {
	m.gotLimit = limit
	return []*domain.Notification{}, m.err
}

func (m *BackOfficeMock) MarkNotificationRead(context.Context, domain.Actor, int64) error {
	return m.err
}

type DesignsMock struct {
	design *domain.Design
	err    error
}

func (m *DesignsMock) Create(_ context.Context, _ domain.Actor, req service.CreateDesignRequest) (*domain.Design, error) {
	return &domain.Design{ID: uuid.New(), Name: req.Name, Canvas: req.Canvas}, m.err
}

func (m *DesignsMock) Get(context.Context, domain.Actor, uuid.UUID) (*domain.Design, error) {
	return m.design, m.err
}

// --- helpers ---

var (
	testSecret = []byte("test-secret")
	customer   = domain.Actor{UserID: "user-1", Email: "jo@example.com", Name: "Jo", Role: domain.RoleCustomer}
	admin      = domain.Actor{UserID: "admin-1", Email: "ops@example.com", Role: domain.RoleAdmin}
)

func withActor(r *http.Request, a domain.Actor) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), actorKey, a))
}

func withOwner(r *http.Request, owner string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), cartOwnerKey, owner))
}

func withParams(r *http.Request, kv ...string) *http.Request {
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(kv); i += 2 {
		rctx.URLParams.Add(kv[i], kv[i+1])
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func bearer(a domain.Actor) string {
	token, err := IssueToken(testSecret, a, time.Hour)
	if err != nil {
		panic(err)
	}
	return "Bearer " + token
}

func testOrder() *domain.Order {
	return &domain.Order{
		ID:            uuid.MustParse("7c9e6679-7425-40de-944b-e07fc1f90ae7"),
		OrderNumber:   "STK-261019-abc123",
		UserID:        customer.UserID,
		Status:        domain.OrderStatusPending,
		ArtworkStatus: domain.ArtworkPendingApproval,
		Version:       3,
	}
}

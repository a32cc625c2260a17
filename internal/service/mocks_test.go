package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/travatlanta/Sticky-sub003/internal/cache"
	"github.com/travatlanta/Sticky-sub003/internal/domain"
	"github.com/travatlanta/Sticky-sub003/internal/repository"
	"github.com/travatlanta/Sticky-sub003/internal/shipping"
)

// mockCartRepository implements repository.CartRepository for a single owner.
type mockCartRepository struct {
	m    sync.RWMutex
	cart *domain.Cart
	err  error
}

func (m *mockCartRepository) GetCart(context.Context, string) (*domain.Cart, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	if m.cart == nil {
		return nil, repository.ErrCartNotFound
	}
	c := *m.cart
	c.Items = append([]domain.CartItem(nil), m.cart.Items...)
	return &c, nil
}

func (m *mockCartRepository) AddItem(_ context.Context, owner string, item domain.CartItem) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.cart == nil {
		m.cart = &domain.Cart{Owner: owner}
	}
	m.cart.Items = append(m.cart.Items, item)
	return nil
}

func (m *mockCartRepository) UpdateItem(_ context.Context, _ string, itemID string, quantity int, unitPrice string) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.cart != nil {
		for i := range m.cart.Items {
			if m.cart.Items[i].ID == itemID {
				m.cart.Items[i].Quantity = quantity
				m.cart.Items[i].UnitPrice = unitPrice
				return nil
			}
		}
	}
	return repository.ErrItemNotFound
}

func (m *mockCartRepository) RemoveItem(_ context.Context, _ string, itemID string) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.cart != nil {
		for i, item := range m.cart.Items {
			if item.ID == itemID {
				m.cart.Items = append(m.cart.Items[:i], m.cart.Items[i+1:]...)
				return nil
			}
		}
	}
	return repository.ErrItemNotFound
}

func (m *mockCartRepository) DeleteCart(context.Context, string) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.cart == nil {
		return repository.ErrCartNotFound
	}
	m.cart = nil
	return nil
}

// ownerCartRepository implements repository.CartRepository for many owners.
type ownerCartRepository struct {
	carts  map[string]*domain.Cart
	addErr error
}

func newOwnerCartRepository() *ownerCartRepository {
	return &ownerCartRepository{carts: make(map[string]*domain.Cart)}
}

func (m *ownerCartRepository) GetCart(_ context.Context, owner string) (*domain.Cart, error) {
	c, ok := m.carts[owner]
	if !ok {
		return nil, repository.ErrCartNotFound
	}
	cp := *c
	cp.Items = append([]domain.CartItem(nil), c.Items...)
	return &cp, nil
}

func (m *ownerCartRepository) AddItem(_ context.Context, owner string, item domain.CartItem) error {
	if m.addErr != nil {
		return m.addErr
	}
	c, ok := m.carts[owner]
	if !ok {
		c = &domain.Cart{Owner: owner}
		m.carts[owner] = c
	}
	c.Items = append(c.Items, item)
	return nil
}

func (m *ownerCartRepository) UpdateItem(context.Context, string, string, int, string) error {
	return repository.ErrItemNotFound
}

func (m *ownerCartRepository) RemoveItem(context.Context, string, string) error {
	return repository.ErrItemNotFound
}

func (m *ownerCartRepository) DeleteCart(_ context.Context, owner string) error {
	if _, ok := m.carts[owner]; !ok {
		return repository.ErrCartNotFound
	}
	delete(m.carts, owner)
	return nil
}

type mockCartCache struct {
	m    sync.RWMutex
	cart *domain.Cart
	err  error
}

func (m *mockCartCache) Get(context.Context, string) (*domain.Cart, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	if m.cart == nil {
		return nil, cache.ErrCacheMiss
	}
	return m.cart, nil
}

func (m *mockCartCache) Set(_ context.Context, _ string, cart *domain.Cart) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.cart = cart
	return m.err
}

func (m *mockCartCache) Delete(context.Context, string) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.cart = nil
	return m.err
}

func (m *mockCartCache) getCart() *domain.Cart {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.cart
}

// mockCatalog implements CatalogStore over an in-memory product map.
type mockCatalog struct {
	m        sync.Mutex
	products map[int64]*domain.Product
	global   []domain.PricingTier
	err      error

	savedTiers []domain.PricingTier
	adjustErr  error
}

func newMockCatalog(products ...*domain.Product) *mockCatalog {
	c := &mockCatalog{products: make(map[int64]*domain.Product)}
	for _, p := range products {
		c.products[p.ID] = p
	}
	return c
}

func (m *mockCatalog) GetProduct(_ context.Context, id int64) (*domain.Product, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return p, nil
}

func (m *mockCatalog) GlobalTiers(context.Context) ([]domain.PricingTier, error) {
	return m.global, m.err
}

func (m *mockCatalog) ListProducts(_ context.Context, f repository.ProductFilter) ([]*domain.Product, error) {
	m.m.Lock()
	defer m.m.Unlock()
	var out []*domain.Product
	for _, p := range m.products {
		if f.CategoryID != nil && (p.CategoryID == nil || *p.CategoryID != *f.CategoryID) {
			continue
		}
		if !p.IsActive && !f.IncludeInactive {
			continue
		}
		out = append(out, p)
	}
	return out, m.err
}

func (m *mockCatalog) CreateProduct(_ context.Context, p *domain.Product) error {
	m.m.Lock()
	defer m.m.Unlock()
	p.ID = int64(len(m.products) + 1)
	m.products[p.ID] = p
	return m.err
}

func (m *mockCatalog) UpdateProduct(_ context.Context, p *domain.Product) error {
	m.m.Lock()
	defer m.m.Unlock()
	if _, ok := m.products[p.ID]; !ok {
		return repository.ErrProductNotFound
	}
	m.products[p.ID] = p
	return m.err
}

func (m *mockCatalog) DeleteProduct(_ context.Context, id int64) error {
	m.m.Lock()
	defer m.m.Unlock()
	if _, ok := m.products[id]; !ok {
		return repository.ErrProductNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *mockCatalog) ReplaceProductTiers(_ context.Context, _ int64, tiers []domain.PricingTier) ([]domain.PricingTier, error) {
	m.savedTiers = tiers
	return tiers, m.err
}

func (m *mockCatalog) ReplaceGlobalTiers(_ context.Context, tiers []domain.PricingTier) ([]domain.PricingTier, error) {
	m.savedTiers = tiers
	m.global = tiers
	return tiers, m.err
}

func (m *mockCatalog) ReplaceProductOptions(_ context.Context, _ int64, options []domain.ProductOption) ([]domain.ProductOption, error) {
	return options, m.err
}

func (m *mockCatalog) AdjustBasePrices(_ context.Context, _ *int64, adjust func(decimal.Decimal) (decimal.Decimal, error)) ([]domain.PriceChange, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.adjustErr != nil {
		return nil, m.adjustErr
	}
	var changes []domain.PriceChange
	for _, p := range m.products {
		next, err := adjust(p.BasePrice)
		if err != nil {
			return nil, err
		}
		changes = append(changes, domain.PriceChange{ProductID: p.ID, Name: p.Name, OldPrice: p.BasePrice, NewPrice: next})
		p.BasePrice = next
	}
	return changes, nil
}

func (m *mockCatalog) ListCategories(context.Context) ([]domain.Category, error) {
	return nil, m.err
}

func (m *mockCatalog) CreateCategory(_ context.Context, c *domain.Category) error {
	c.ID = 1
	return m.err
}

// mockOrderStore emulates the transactional UpdateOrder contract: the
// callback works on a copy that is only kept when it returns nil.
type mockOrderStore struct {
	m       sync.Mutex
	orders  map[uuid.UUID]*domain.Order
	byKey   map[string]uuid.UUID
	events  []domain.Event
	tags    map[uuid.UUID]domain.DesignTag
	cleared map[uuid.UUID]domain.DesignTag

	placed    []repository.PlaceOrder
	listed    repository.OrderFilter
	createErr error
}

func newMockOrderStore(orders ...*domain.Order) *mockOrderStore {
	s := &mockOrderStore{
		orders:  make(map[uuid.UUID]*domain.Order),
		byKey:   make(map[string]uuid.UUID),
		tags:    make(map[uuid.UUID]domain.DesignTag),
		cleared: make(map[uuid.UUID]domain.DesignTag),
	}
	for _, o := range orders {
		s.orders[o.ID] = o
	}
	return s
}

func cloneOrder(o *domain.Order) *domain.Order {
	c := *o
	c.Items = append([]domain.OrderItem(nil), o.Items...)
	return &c
}

func (m *mockOrderStore) CreateOrder(_ context.Context, p repository.PlaceOrder) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if p.IdempotencyKey != "" {
		if _, dup := m.byKey[p.IdempotencyKey]; dup {
			return repository.ErrDuplicateCheckout
		}
		m.byKey[p.IdempotencyKey] = p.Order.ID
	}
	p.Order.Version = 1
	m.orders[p.Order.ID] = cloneOrder(p.Order)
	m.events = append(m.events, p.Events...)
	m.placed = append(m.placed, p)
	return nil
}

func (m *mockOrderStore) GetOrderByID(_ context.Context, id uuid.UUID) (*domain.Order, error) {
	m.m.Lock()
	defer m.m.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	return cloneOrder(o), nil
}

func (m *mockOrderStore) GetOrderByIdempotencyKey(ctx context.Context, key string) (*domain.Order, error) {
	m.m.Lock()
	id, ok := m.byKey[key]
	m.m.Unlock()
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	return m.GetOrderByID(ctx, id)
}

func (m *mockOrderStore) ListOrdersByUserID(_ context.Context, userID string) ([]*domain.Order, error) {
	m.m.Lock()
	defer m.m.Unlock()
	var out []*domain.Order
	for _, o := range m.orders {
		if o.UserID == userID {
			out = append(out, cloneOrder(o))
		}
	}
	return out, nil
}

func (m *mockOrderStore) ListOrders(_ context.Context, f repository.OrderFilter) ([]*domain.Order, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.listed = f
	var out []*domain.Order
	for _, o := range m.orders {
		if f.Status != nil && o.Status != *f.Status {
			continue
		}
		if f.ArtworkStatus != nil && o.ArtworkStatus != *f.ArtworkStatus {
			continue
		}
		out = append(out, cloneOrder(o))
	}
	return out, nil
}

func (m *mockOrderStore) UpdateOrder(_ context.Context, id uuid.UUID, expectedVersion *int, fn func(o *domain.Order) (repository.OrderChange, error)) (*domain.Order, error) {
	m.m.Lock()
	defer m.m.Unlock()
	stored, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	if expectedVersion != nil && *expectedVersion != stored.Version {
		return nil, fmt.Errorf("%w: order %s is at version %d", domain.ErrStaleVersion, id, stored.Version)
	}
	work := cloneOrder(stored)
	change, err := fn(work)
	if err != nil {
		return nil, err
	}
	work.Version++
	m.orders[id] = work
	m.events = append(m.events, change.Events...)
	for designID, tag := range change.ClearFlags {
		m.cleared[designID] = tag
	}
	for designID, tag := range change.DesignTags {
		m.tags[designID] = tag
	}
	return cloneOrder(work), nil
}

func (m *mockOrderStore) eventTypes() []domain.EventType {
	m.m.Lock()
	defer m.m.Unlock()
	types := make([]domain.EventType, len(m.events))
	for i, e := range m.events {
		types[i] = e.Type
	}
	return types
}

type mockDesignStore struct {
	designs map[uuid.UUID]*domain.Design
}

func newMockDesignStore(designs ...*domain.Design) *mockDesignStore {
	s := &mockDesignStore{designs: make(map[uuid.UUID]*domain.Design)}
	for _, d := range designs {
		s.designs[d.ID] = d
	}
	return s
}

func (m *mockDesignStore) CreateDesign(_ context.Context, d *domain.Design) error {
	m.designs[d.ID] = d
	return nil
}

func (m *mockDesignStore) GetDesign(_ context.Context, id uuid.UUID) (*domain.Design, error) {
	d, ok := m.designs[id]
	if !ok {
		return nil, repository.ErrDesignNotFound
	}
	return d, nil
}

// mockPromotionStore implements PromotionStore and DealStore.
type mockPromotionStore struct {
	promos      map[string]*domain.Promotion
	redemptions map[string]int
	deals       []*domain.Deal
	err         error
}

func newMockPromotionStore(promos ...*domain.Promotion) *mockPromotionStore {
	s := &mockPromotionStore{promos: make(map[string]*domain.Promotion), redemptions: make(map[string]int)}
	for _, p := range promos {
		s.promos[p.Code] = p
	}
	return s
}

func (m *mockPromotionStore) ListPromotions(context.Context) ([]*domain.Promotion, error) {
	var out []*domain.Promotion
	for _, p := range m.promos {
		out = append(out, p)
	}
	return out, m.err
}

func (m *mockPromotionStore) GetPromotion(_ context.Context, id int64) (*domain.Promotion, error) {
	for _, p := range m.promos {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, repository.ErrPromotionNotFound
}

func (m *mockPromotionStore) GetPromotionByCode(_ context.Context, code string) (*domain.Promotion, error) {
	p, ok := m.promos[code]
	if !ok {
		return nil, repository.ErrPromotionNotFound
	}
	return p, nil
}

func (m *mockPromotionStore) CountUserRedemptions(_ context.Context, promotionID int64, userID string) (int, error) {
	return m.redemptions[fmt.Sprintf("%d/%s", promotionID, userID)], m.err
}

func (m *mockPromotionStore) CreatePromotion(_ context.Context, p *domain.Promotion) error {
	if _, dup := m.promos[p.Code]; dup {
		return repository.ErrDuplicateCode
	}
	p.ID = int64(len(m.promos) + 1)
	m.promos[p.Code] = p
	return m.err
}

func (m *mockPromotionStore) UpdatePromotion(_ context.Context, p *domain.Promotion) error {
	m.promos[p.Code] = p
	return m.err
}

func (m *mockPromotionStore) DeletePromotion(_ context.Context, id int64) error {
	for code, p := range m.promos {
		if p.ID == id {
			delete(m.promos, code)
			return nil
		}
	}
	return repository.ErrPromotionNotFound
}

func (m *mockPromotionStore) ListDeals(_ context.Context, activeOnly bool) ([]*domain.Deal, error) {
	if !activeOnly {
		return m.deals, m.err
	}
	var out []*domain.Deal
	for _, d := range m.deals {
		if d.IsActive {
			out = append(out, d)
		}
	}
	return out, m.err
}

func (m *mockPromotionStore) GetDeal(_ context.Context, id int64) (*domain.Deal, error) {
	for _, d := range m.deals {
		if d.ID == id {
			return d, nil
		}
	}
	return nil, repository.ErrDealNotFound
}

func (m *mockPromotionStore) CreateDeal(_ context.Context, d *domain.Deal) error {
	d.ID = int64(len(m.deals) + 1)
	m.deals = append(m.deals, d)
	return m.err
}

func (m *mockPromotionStore) UpdateDeal(_ context.Context, d *domain.Deal) error {
	for i := range m.deals {
		if m.deals[i].ID == d.ID {
			m.deals[i] = d
			return m.err
		}
	}
	return repository.ErrDealNotFound
}

func (m *mockPromotionStore) DeleteDeal(_ context.Context, id int64) error {
	for i := range m.deals {
		if m.deals[i].ID == id {
			m.deals = append(m.deals[:i], m.deals[i+1:]...)
			return nil
		}
	}
	return repository.ErrDealNotFound
}

type mockActivityStore struct {
	m       sync.Mutex
	entries []*domain.ActivityLog
	err     error
}

func (m *mockActivityStore) LogActivity(_ context.Context, entry *domain.ActivityLog) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, entry)
	return nil
}

func (m *mockActivityStore) ListActivity(_ context.Context, limit int) ([]*domain.ActivityLog, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if limit < len(m.entries) {
		return m.entries[:limit], m.err
	}
	return m.entries, m.err
}

func (m *mockActivityStore) actions() []string {
	m.m.Lock()
	defer m.m.Unlock()
	out := make([]string, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.Action
	}
	return out
}

// mockIdempotency mirrors the Redis reservation semantics in memory.
type mockIdempotency struct {
	m        sync.Mutex
	keys     map[string]string
	err      error
	released []string
}

func newMockIdempotency() *mockIdempotency {
	return &mockIdempotency{keys: make(map[string]string)}
}

func (m *mockIdempotency) Reserve(_ context.Context, key string) (bool, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return false, m.err
	}
	if _, ok := m.keys[key]; ok {
		return false, nil
	}
	m.keys[key] = ""
	return true, nil
}

func (m *mockIdempotency) Complete(_ context.Context, key, orderID string) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	m.keys[key] = orderID
	return nil
}

func (m *mockIdempotency) Lookup(_ context.Context, key string) (string, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return "", m.err
	}
	v, ok := m.keys[key]
	if !ok {
		return "", cache.ErrCacheMiss
	}
	return v, nil
}

func (m *mockIdempotency) Release(_ context.Context, key string) error {
	m.m.Lock()
	defer m.m.Unlock()
	delete(m.keys, key)
	m.released = append(m.released, key)
	return nil
}

type mockSettings struct {
	settings shipping.Settings
	saveErr  error
}

func (m *mockSettings) Load() shipping.Settings {
	return m.settings
}

func (m *mockSettings) Save(s shipping.Settings) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.settings = s
	return nil
}

type mockNotificationStore struct {
	listed   domain.Audience
	markedID int64
	err      error
}

func (m *mockNotificationStore) CreateNotification(context.Context, *domain.Notification) error {
	return m.err
}

func (m *mockNotificationStore) ListNotifications(_ context.Context, audience domain.Audience, _ string, _ int) ([]*domain.Notification, error) {
	m.listed = audience
	return nil, m.err
}

func (m *mockNotificationStore) MarkNotificationRead(_ context.Context, id int64, _ domain.Audience, _ string) error {
	m.markedID = id
	return m.err
}

type mockTemplateStore struct {
	templates map[string]*domain.EmailTemplate
}

func (m *mockTemplateStore) GetEmailTemplate(_ context.Context, key string) (*domain.EmailTemplate, error) {
	t, ok := m.templates[key]
	if !ok {
		return nil, repository.ErrTemplateNotFound
	}
	return t, nil
}

func (m *mockTemplateStore) UpsertEmailTemplate(_ context.Context, t *domain.EmailTemplate) error {
	if m.templates == nil {
		m.templates = make(map[string]*domain.EmailTemplate)
	}
	m.templates[t.Key] = t
	return nil
}

var (
	admin    = domain.Actor{UserID: "admin-1", Email: "ops@example.com", Role: domain.RoleAdmin}
	customer = domain.Actor{UserID: "user-1", Email: "jo@example.com", Name: "Jo", Role: domain.RoleCustomer}
	stranger = domain.Actor{UserID: "user-2", Email: "sam@example.com", Role: domain.RoleCustomer}
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func intPtr(v int) *int { return &v }

// stickerProduct is the reference product: $1.00 base, one tier 100-999 at
// $0.50 and a +$0.10 coating.
func stickerProduct() *domain.Product {
	return &domain.Product{
		ID:           1,
		Name:         "Die-cut sticker",
		BasePrice:    dec("1.00"),
		IsActive:     true,
		ShippingType: domain.ShippingCalculated,
		Tiers: []domain.PricingTier{
			{ID: 1, MinQuantity: 100, MaxQuantity: intPtr(999), PricePerUnit: dec("0.50")},
		},
		Options: []domain.ProductOption{
			{ID: 10, ProductID: 1, Type: domain.OptionCoating, Name: "Gloss", PriceModifier: dec("0.10")},
		},
	}
}

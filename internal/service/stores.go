package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/travatlanta/Sticky-sub003/internal/domain"
	"github.com/travatlanta/Sticky-sub003/internal/repository"
	"github.com/travatlanta/Sticky-sub003/internal/shipping"
)

// Storage contracts the services depend on. *repository.Repository
// satisfies all of them.

type ProductSource interface {
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	GlobalTiers(ctx context.Context) ([]domain.PricingTier, error)
}

type CatalogStore interface {
	ProductSource
	ListProducts(ctx context.Context, f repository.ProductFilter) ([]*domain.Product, error)
	CreateProduct(ctx context.Context, p *domain.Product) error
	UpdateProduct(ctx context.Context, p *domain.Product) error
	DeleteProduct(ctx context.Context, id int64) error
	ReplaceProductTiers(ctx context.Context, productID int64, tiers []domain.PricingTier) ([]domain.PricingTier, error)
	ReplaceGlobalTiers(ctx context.Context, tiers []domain.PricingTier) ([]domain.PricingTier, error)
	ReplaceProductOptions(ctx context.Context, productID int64, options []domain.ProductOption) ([]domain.ProductOption, error)
	AdjustBasePrices(ctx context.Context, categoryID *int64, adjust func(decimal.Decimal) (decimal.Decimal, error)) ([]domain.PriceChange, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
	CreateCategory(ctx context.Context, c *domain.Category) error
}

type OrderStore interface {
	CreateOrder(ctx context.Context, p repository.PlaceOrder) error
	GetOrderByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	GetOrderByIdempotencyKey(ctx context.Context, key string) (*domain.Order, error)
	ListOrdersByUserID(ctx context.Context, userID string) ([]*domain.Order, error)
	ListOrders(ctx context.Context, f repository.OrderFilter) ([]*domain.Order, error)
	UpdateOrder(ctx context.Context, id uuid.UUID, expectedVersion *int, fn func(o *domain.Order) (repository.OrderChange, error)) (*domain.Order, error)
}

type DesignStore interface {
	CreateDesign(ctx context.Context, d *domain.Design) error
	GetDesign(ctx context.Context, id uuid.UUID) (*domain.Design, error)
}

type PromotionStore interface {
	ListPromotions(ctx context.Context) ([]*domain.Promotion, error)
	GetPromotion(ctx context.Context, id int64) (*domain.Promotion, error)
	GetPromotionByCode(ctx context.Context, code string) (*domain.Promotion, error)
	CountUserRedemptions(ctx context.Context, promotionID int64, userID string) (int, error)
	CreatePromotion(ctx context.Context, p *domain.Promotion) error
	UpdatePromotion(ctx context.Context, p *domain.Promotion) error
	DeletePromotion(ctx context.Context, id int64) error
}

type DealStore interface {
	ListDeals(ctx context.Context, activeOnly bool) ([]*domain.Deal, error)
	GetDeal(ctx context.Context, id int64) (*domain.Deal, error)
	CreateDeal(ctx context.Context, d *domain.Deal) error
	UpdateDeal(ctx context.Context, d *domain.Deal) error
	DeleteDeal(ctx context.Context, id int64) error
}

type ActivityStore interface {
	LogActivity(ctx context.Context, entry *domain.ActivityLog) error
	ListActivity(ctx context.Context, limit int) ([]*domain.ActivityLog, error)
}

type NotificationStore interface {
	CreateNotification(ctx context.Context, n *domain.Notification) error
	ListNotifications(ctx context.Context, audience domain.Audience, userID string, limit int) ([]*domain.Notification, error)
	MarkNotificationRead(ctx context.Context, id int64, audience domain.Audience, userID string) error
}

type TemplateStore interface {
	GetEmailTemplate(ctx context.Context, key string) (*domain.EmailTemplate, error)
	UpsertEmailTemplate(ctx context.Context, t *domain.EmailTemplate) error
}

// ShippingSettings is the shipping configuration file.
type ShippingSettings interface {
	Load() shipping.Settings
	Save(settings shipping.Settings) error
}

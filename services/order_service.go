package services

import (
	"context"
	"strings"

	"cafepos/entity"
	"cafepos/repository"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrItemsRequired     = errors.New("items is required")
	ErrInvalidQuantity   = errors.New("quantity must be at least 1")
	ErrProductNotFound   = errors.New("product not found in this cafe")
	ErrOrderNotFound     = errors.New("order not found")
	ErrInvalidTransition = errors.New("invalid or conflicting status change")
)

type OrderService struct {
	DB      *gorm.DB
	Repo    *repository.OrderRepository
	Cafes   *repository.CafeRepository
	Access  *CustomerService
	Loyalty *LoyaltyService
}

func NewOrderService(
	db *gorm.DB,
	repo *repository.OrderRepository,
	cafes *repository.CafeRepository,
	access *CustomerService,
	loyaltySvc *LoyaltyService,
) *OrderService {
	return &OrderService{DB: db, Repo: repo, Cafes: cafes, Access: access, Loyalty: loyaltySvc}
}

// ----- DTOs from Controller -----
type OrderItemIn struct {
	ProductID string            `json:"productId" binding:"required"`
	Quantity  int               `json:"quantity"`
	Modifiers map[string]string `json:"modifiers"`
}
type CreateOrderReq struct {
	CustomerID string        `json:"customerId" binding:"required"`
	Items      []OrderItemIn `json:"items"`
}

// ===== Create Order =====

// Create checks out a PENDING order. Names and prices are snapshotted from the catalog;
// modifiers are recorded but not priced.
func (s *OrderService) Create(ctx context.Context, actor Actor, req *CreateOrderReq) (*entity.Order, error) {
	ctx, span := tracer.Start(ctx, "OrderService.Create")
	defer span.End()

	if len(req.Items) == 0 {
		return nil, ErrItemsRequired
	}
	cust, err := s.Access.Authorize(ctx, actor, req.CustomerID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(req.Items))
	for _, it := range req.Items {
		if it.Quantity < 1 {
			return nil, ErrInvalidQuantity
		}
		ids = append(ids, it.ProductID)
	}
	products, err := s.Cafes.FindProducts(ctx, cust.CafeID, ids)
	if err != nil {
		return nil, errors.Wrap(err, "load products")
	}
	byID := make(map[string]entity.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	order := entity.Order{
		CustomerID: cust.ID,
		CafeID:     cust.CafeID,
		Status:     entity.OrderPending,
		Total:      decimal.Zero,
	}
	for i, it := range req.Items {
		p, ok := byID[it.ProductID]
		if !ok {
			return nil, ErrProductNotFound
		}
		pid := p.ID
		line := p.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
		order.Items = append(order.Items, entity.OrderItem{
			Position:  i,
			Name:      p.Name,
			ProductID: &pid,
			Quantity:  it.Quantity,
			UnitPrice: p.Price,
			Total:     line,
			Modifiers: toJSONMap(it.Modifiers),
		})
		order.Total = order.Total.Add(line)
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.Repo.CreateOrder(tx, &order)
	})
	if err != nil {
		return nil, errors.Wrap(err, "create order")
	}
	return &order, nil
}

// ===== List & Detail =====

func (s *OrderService) ListForCustomer(ctx context.Context, actor Actor, customerID string, limit int) ([]entity.Order, error) {
	if _, err := s.Access.Authorize(ctx, actor, customerID); err != nil {
		return nil, err
	}
	rows, err := s.Repo.ListForCustomer(ctx, customerID, limit)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	if rows == nil {
		rows = []entity.Order{}
	}
	return rows, nil
}

func (s *OrderService) Detail(ctx context.Context, actor Actor, orderID string) (*entity.Order, error) {
	o, err := s.Repo.GetOrder(ctx, orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "load order")
	}
	if _, err := s.Access.Authorize(ctx, actor, o.CustomerID); err != nil {
		return nil, err
	}
	return o, nil
}

// ---------- helpers ----------

func toJSONMap(m map[string]string) datatypes.JSONMap {
	out := datatypes.JSONMap{}
	for k, v := range m {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		out[k] = v
	}
	return out
}

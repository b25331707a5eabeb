package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cafepos/entity"
	"cafepos/pkg/cache"
	"cafepos/pkg/events"
	"cafepos/pkg/metrics"
	"cafepos/pkg/tasteprofile"
	"cafepos/repository"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"
)

var (
	ErrCustomerIDRequired = errors.New("customerId is required")
	ErrNotEnoughOrders    = errors.New("not enough completed orders")
	ErrCustomerNotFound   = errors.New("customer not found")
	ErrProfileNotFound    = errors.New("profile not found")
)

const topProductsInAnalysis = 5

var tracer = otel.Tracer("cafepos/services")

type ProfileService struct {
	Customers *repository.CustomerRepository
	Orders    *repository.OrderRepository
	Profiles  *repository.ProfileRepository
	Cache     cache.Cache
	Events    events.Publisher
	Access    *CustomerService

	now func() time.Time
}

func NewProfileService(
	customers *repository.CustomerRepository,
	orders *repository.OrderRepository,
	profiles *repository.ProfileRepository,
	c cache.Cache,
	pub events.Publisher,
	access *CustomerService,
) *ProfileService {
	if c == nil {
		c = cache.Nop{}
	}
	if pub == nil {
		pub = events.Nop{}
	}
	return &ProfileService{Customers: customers, Orders: orders, Profiles: profiles, Cache: c, Events: pub, Access: access, now: time.Now}
}

type Analysis struct {
	OrdersAnalyzed int                         `json:"ordersAnalyzed"`
	TopProducts    []tasteprofile.ProductCount `json:"topProducts"`
}

type GenerateResult struct {
	Profile  *entity.CoffeeProfile `json:"profile"`
	Analysis Analysis              `json:"analysis"`
}

// ===== Generate =====

// Generate recomputes a customer's coffee profile from their most recent completed orders
// and replaces the stored one. Nothing is written when validation fails.
func (s *ProfileService) Generate(ctx context.Context, customerID string) (res *GenerateResult, err error) {
	ctx, span := tracer.Start(ctx, "ProfileService.Generate")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			metrics.ProfileFailures.WithLabelValues(failureReason(err)).Inc()
		}
		span.End()
	}()

	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return nil, ErrCustomerIDRequired
	}
	span.SetAttributes(attribute.String("customer.id", customerID))
	logger := log.With().Str("customerId", customerID).Logger()

	customer, err := s.Customers.FindByID(ctx, nil, customerID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCustomerNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "load customer")
	}

	rows, err := s.Orders.ListCompletedForProfile(ctx, customerID, tasteprofile.MaxOrders)
	if err != nil {
		return nil, errors.Wrap(err, "load completed orders")
	}

	result, err := tasteprofile.Build(toTasteOrders(rows))
	if errors.Is(err, tasteprofile.ErrInsufficientOrders) {
		logger.Info().Int("orders", len(rows)).Msg("not enough completed orders for a profile")
		return nil, ErrNotEnoughOrders
	}
	if err != nil {
		return nil, errors.Wrap(err, "build profile")
	}

	profile, err := s.Profiles.Upsert(ctx, &entity.CoffeeProfile{
		CustomerID:            customerID,
		RoastPreference:       result.Roast,
		StrengthPreference:    result.Strength,
		MilkPreference:        result.Milk,
		TemperaturePreference: result.Temperature,
		SweetnessPreference:   result.Sweetness,
		AdventureScore:        result.Adventure,
		FlavorNotes:           result.FlavorNotes,
		ProfileType:           string(result.ProfileType),
		Confidence:            result.Confidence,
		GeneratedAt:           s.now().UTC(),
	})
	if err != nil {
		return nil, errors.Wrap(err, "upsert profile")
	}

	if err := s.Cache.Set(ctx, cache.ProfileKey(customerID), profile); err != nil {
		logger.Warn().Err(err).Msg("profile cache refresh failed")
	}
	if err := s.Events.Publish(ctx, events.New(events.ProfileGenerated, customerID, customer.CafeID, profile)); err != nil {
		logger.Warn().Err(err).Msg("publish ProfileGenerated failed")
	}
	metrics.ProfilesGenerated.WithLabelValues(profile.ProfileType).Inc()
	logger.Info().
		Str("profileType", profile.ProfileType).
		Int("ordersAnalyzed", result.OrdersAnalyzed).
		Float64("confidence", profile.Confidence).
		Msg("coffee profile generated")

	top := result.TopProducts
	if len(top) > topProductsInAnalysis {
		top = top[:topProductsInAnalysis]
	}
	if top == nil {
		top = []tasteprofile.ProductCount{}
	}
	return &GenerateResult{
		Profile:  profile,
		Analysis: Analysis{OrdersAnalyzed: result.OrdersAnalyzed, TopProducts: top},
	}, nil
}

// ===== Get =====

// Get returns the stored profile. Customers may only read their own.
func (s *ProfileService) Get(ctx context.Context, actor Actor, customerID string) (*entity.CoffeeProfile, error) {
	ctx, span := tracer.Start(ctx, "ProfileService.Get")
	defer span.End()

	if _, err := s.Access.Authorize(ctx, actor, customerID); err != nil {
		return nil, err
	}

	key := cache.ProfileKey(customerID)
	var cached entity.CoffeeProfile
	hit, err := s.Cache.Get(ctx, key, &cached)
	if err != nil {
		log.Warn().Err(err).Str("customerId", customerID).Msg("profile cache read failed")
	}
	if hit {
		metrics.CacheLookups.WithLabelValues("hit").Inc()
		return &cached, nil
	}
	metrics.CacheLookups.WithLabelValues("miss").Inc()

	p, err := s.Profiles.FindByCustomer(ctx, customerID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "load profile")
	}
	if err := s.Cache.Set(ctx, key, p); err != nil {
		log.Warn().Err(err).Str("customerId", customerID).Msg("profile cache fill failed")
	}
	return p, nil
}

// ---------- helpers ----------

func toTasteOrders(rows []entity.Order) []tasteprofile.Order {
	out := make([]tasteprofile.Order, 0, len(rows))
	for _, o := range rows {
		items := make([]tasteprofile.Item, 0, len(o.Items))
		for _, it := range o.Items {
			item := tasteprofile.Item{
				Name:      it.Name,
				Quantity:  it.Quantity,
				Modifiers: modifierLabels(it.Modifiers),
			}
			if it.Product != nil {
				p := &tasteprofile.Product{}
				if it.Product.RoastLevel != nil {
					p.RoastLevel = tasteprofile.RoastLevel(*it.Product.RoastLevel)
				}
				if it.Product.Category != nil {
					p.Category = it.Product.Category.Name
				}
				item.Product = p
			}
			items = append(items, item)
		}
		out = append(out, tasteprofile.Order{Items: items})
	}
	return out
}

func modifierLabels(m map[string]any) map[string]string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		if s, ok := v.(string); ok {
			out[k] = s
		} else if v != nil {
			out[k] = fmt.Sprint(v)
		}
	}
	return out
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrCustomerIDRequired), errors.Is(err, ErrNotEnoughOrders):
		return "validation"
	case errors.Is(err, ErrCustomerNotFound):
		return "not_found"
	default:
		return "internal"
	}
}

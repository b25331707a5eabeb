package services

import (
	"context"
	"strings"

	"cafepos/entity"
	"cafepos/pkg/loyalty"
	"cafepos/repository"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

var (
	ErrForbidden    = errors.New("forbidden")
	ErrCafeNotFound = errors.New("cafe not found")
	ErrNameRequired = errors.New("name is required")
)

// Actor is the authenticated caller, taken from the JWT claims.
type Actor struct {
	UserID string
	Role   string
}

func (a Actor) IsAdmin() bool { return a.Role == entity.RoleAdmin }

type CustomerService struct {
	Customers *repository.CustomerRepository
	Cafes     *repository.CafeRepository
}

func NewCustomerService(customers *repository.CustomerRepository, cafes *repository.CafeRepository) *CustomerService {
	return &CustomerService{Customers: customers, Cafes: cafes}
}

type CreateCustomerReq struct {
	CafeID string `json:"cafeId" binding:"required"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

// Create enrols a loyalty member. A customer account enrols itself; owners enrol walk-in
// customers of their own cafe.
func (s *CustomerService) Create(ctx context.Context, actor Actor, req CreateCustomerReq) (*entity.Customer, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	if _, err := s.Cafes.FindByID(ctx, req.CafeID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCafeNotFound
		}
		return nil, errors.Wrap(err, "load cafe")
	}

	c := &entity.Customer{
		CafeID: req.CafeID,
		Name:   name,
		Email:  strings.ToLower(strings.TrimSpace(req.Email)),
		Tier:   string(loyalty.Bronze),
	}
	switch actor.Role {
	case entity.RoleCustomer:
		uid := actor.UserID
		c.UserID = &uid
	default:
		if err := s.CanManageCafe(ctx, actor, req.CafeID); err != nil {
			return nil, err
		}
	}
	if err := s.Customers.Create(ctx, c); err != nil {
		return nil, errors.Wrap(err, "create customer")
	}
	return c, nil
}

// Authorize loads a customer the actor may see: admins see everyone, owners the members of
// their cafes, customers only their own record.
func (s *CustomerService) Authorize(ctx context.Context, actor Actor, customerID string) (*entity.Customer, error) {
	c, err := s.Customers.FindByID(ctx, nil, customerID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCustomerNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "load customer")
	}

	switch actor.Role {
	case entity.RoleAdmin:
		return c, nil
	case entity.RoleOwner:
		if err := s.CanManageCafe(ctx, actor, c.CafeID); err != nil {
			return nil, err
		}
		return c, nil
	default:
		if c.UserID == nil || *c.UserID != actor.UserID {
			return nil, ErrForbidden
		}
		return c, nil
	}
}

func (s *CustomerService) CanManageCafe(ctx context.Context, actor Actor, cafeID string) error {
	switch actor.Role {
	case entity.RoleAdmin:
		return nil
	case entity.RoleOwner:
		ok, err := s.Cafes.IsOwnedBy(ctx, cafeID, actor.UserID)
		if err != nil {
			return errors.Wrap(err, "check cafe owner")
		}
		if !ok {
			return ErrForbidden
		}
		return nil
	default:
		return ErrForbidden
	}
}

func (s *CustomerService) ListByCafe(ctx context.Context, actor Actor, cafeID string, limit int) ([]entity.Customer, error) {
	if err := s.CanManageCafe(ctx, actor, cafeID); err != nil {
		return nil, err
	}
	return s.Customers.ListByCafe(ctx, cafeID, limit)
}

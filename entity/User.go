package entity

const (
	RoleCustomer = "customer"
	RoleOwner    = "owner"
	RoleAdmin    = "admin"
)

type User struct {
	Base
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Password string `json:"-"`
	Name     string `json:"name"`
	Role     string `gorm:"not null;default:customer" json:"role"`

	// preload only when needed
	Customers []Customer `json:"-"`
	Cafes     []Cafe     `gorm:"foreignKey:OwnerID" json:"-"`
}

package domain

import "time"

// Roles are an open set; these are the ones the service assigns or checks.
const (
	RoleUser         = "USER"
	RoleVeterinarian = "VETERINARIAN"
	RoleAdmin        = "ADMIN"
	RoleSuperAdmin   = "SUPER_ADMIN"
)

// User models a pet owner or veterinarian account.
type User struct {
	ID           string    `json:"id"`
	Mobile       string    `json:"mobile"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"isActive"`
	IsVerified   bool      `json:"isVerified"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Admin lives in its own identity space. Email is the login identifier and
// may hold a mobile number.
type Admin struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Role         string     `json:"role"`
	IsActive     bool       `json:"isActive"`
	LastLogin    *time.Time `json:"lastLogin,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// Pet is kept only as far as the auth layer needs it: registration may create
// one and user deletion is refused while any exist.
type Pet struct {
	ID        string     `json:"id"`
	OwnerID   string     `json:"ownerId"`
	Name      string     `json:"name"`
	Species   string     `json:"species"`
	Breed     string     `json:"breed,omitempty"`
	BirthDate *time.Time `json:"birthDate,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

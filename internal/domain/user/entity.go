package user

import "fmt"

// User represents a user entity in the system.
type User struct {
	ID    int64  `json:"id"`    // ID is assigned by the store and never changes
	Name  string `json:"name"`  // Name is the display name of the user
	Email string `json:"email"` // Email is stored as given, without format checks
}

// Patch describes a partial update. Nil fields are left unchanged.
type Patch struct {
	Name  *string
	Email *string
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Name == nil && p.Email == nil
}

// Apply copies the present fields of p onto u.
func (p Patch) Apply(u *User) {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
}

// Seed returns the users every fresh store starts with.
func Seed() []User {
	return []User{
		{ID: 1, Name: "John", Email: "john@example.com"},
		{ID: 2, Name: "Jane", Email: "jane@example.com"},
	}
}

// IDPolicy decides which id a newly created user receives.
type IDPolicy int

const (
	// IDPolicyMaxPlusOne assigns max(existing ids)+1, so deleting the highest
	// user frees its id for the next create.
	IDPolicyMaxPlusOne IDPolicy = iota
	// IDPolicyMonotonic assigns one past the highest id ever handed out.
	IDPolicyMonotonic
)

// ParseIDPolicy maps a configuration value to an IDPolicy.
func ParseIDPolicy(s string) (IDPolicy, error) {
	switch s {
	case "", "max_plus_one":
		return IDPolicyMaxPlusOne, nil
	case "monotonic":
		return IDPolicyMonotonic, nil
	}
	return 0, fmt.Errorf("unknown id policy %q", s)
}

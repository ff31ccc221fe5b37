package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Address is a user's shipping destination. Owned by exactly one user and
// mutated only by its owner. Components are free text; the region mapper is
// responsible for translating them into carrier codes.
type Address struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	RecipientName string
	Phone         string
	AddressLine   string
	Ward          string
	District      string
	City          string
	Province      string
	PostalCode    string
	IsDefault     bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Format renders the address as a single comma-joined line, the form stored on
// orders and sent to the carrier. Empty components are skipped.
func (a Address) Format() string {
	parts := make([]string, 0, 5)
	for _, p := range []string{a.AddressLine, a.Ward, a.District, a.City, a.Province} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// User is the minimal directory view the checkout path needs.
type User struct {
	ID       uuid.UUID
	FullName string
	Email    string
	Phone    string
}

func (u User) String() string {
	return fmt.Sprintf("user %s <%s>", u.ID, u.Email)
}

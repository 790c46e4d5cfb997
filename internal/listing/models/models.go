package models

import (
	"time"

	id "dealroom/pkg/domain"
)

// Status is the listing's publication state.
type Status string

const (
	StatusDraft      Status = "draft"
	StatusActive     Status = "active"
	StatusUnderOffer Status = "under_offer"
	StatusSold       Status = "sold"
	StatusWithdrawn  Status = "withdrawn"
)

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusActive, StatusUnderOffer, StatusSold, StatusWithdrawn:
		return true
	}
	return false
}

// Listing is a business-for-sale record. Public attributes are always
// served; the sensitive block is withheld unless the access policy allows it.
type Listing struct {
	ID        id.ListingID
	OwnerID   id.UserID
	Title     string
	Category  string
	Region    string
	PriceMin  *int64
	PriceMax  *int64
	Status    Status
	ViewCount int64
	CreatedAt time.Time

	// Sensitive.
	LegalName          string
	RegistrationNumber string
	Address            string
	Revenue            *int64
	EBITDA             *int64
	Profit             *int64
	Employees          *int
	KeyCustomers       []string
	RiskNarrative      string
	Description        string
}

func (l *Listing) IsActive() bool {
	return l.Status == StatusActive
}

// PriceMidpoint is the centre of [PriceMin, PriceMax]. With a single bound
// that bound is used; with none ok is false.
func (l *Listing) PriceMidpoint() (mid float64, ok bool) {
	switch {
	case l.PriceMin != nil && l.PriceMax != nil:
		return (float64(*l.PriceMin) + float64(*l.PriceMax)) / 2, true
	case l.PriceMin != nil:
		return float64(*l.PriceMin), true
	case l.PriceMax != nil:
		return float64(*l.PriceMax), true
	}
	return 0, false
}

// MaskedListing is the only listing shape that leaves the service. When
// Masked is true every sensitive field is empty: strings are omitted,
// numbers are null and KeyCustomers is an empty array.
type MaskedListing struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Title     string    `json:"title"`
	Category  string    `json:"category"`
	Region    string    `json:"region"`
	PriceMin  *int64    `json:"price_min"`
	PriceMax  *int64    `json:"price_max"`
	Status    Status    `json:"status"`
	ViewCount int64     `json:"view_count"`
	CreatedAt time.Time `json:"created_at"`

	LegalName          string   `json:"legal_name,omitempty"`
	RegistrationNumber string   `json:"registration_number,omitempty"`
	Address            string   `json:"address,omitempty"`
	Revenue            *int64   `json:"revenue"`
	EBITDA             *int64   `json:"ebitda"`
	Profit             *int64   `json:"profit"`
	Employees          *int     `json:"employees"`
	KeyCustomers       []string `json:"key_customers"`
	RiskNarrative      string   `json:"risk_narrative,omitempty"`
	Description        string   `json:"description,omitempty"`

	Masked       bool     `json:"masked"`
	MatchScore   *int     `json:"match_score,omitempty"`
	MatchReasons []string `json:"match_reasons,omitempty"`
}

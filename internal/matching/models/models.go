package models

import (
	"time"

	id "dealroom/pkg/domain"
	dErrors "dealroom/pkg/domain-errors"
)

// AllRegions in Regions matches a listing in any region.
const AllRegions = "all"

// BuyerProfile is a buyer's standing acquisition preferences. Nil bounds are
// unset; a criterion with both bounds unset is skipped when scoring.
type BuyerProfile struct {
	UserID       id.UserID
	Regions      []string
	Industries   []string
	RevenueMin   *int64
	RevenueMax   *int64
	PriceMin     *int64
	PriceMax     *int64
	EBITDAMin    *int64
	EBITDAMax    *int64
	EmployeesMin *int
	EmployeesMax *int
	UpdatedAt    time.Time
}

// Result is a 0..100 compatibility score with one reason per contributing criterion.
type Result struct {
	Score   int      `json:"score"`
	Reasons []string `json:"reasons"`
}

// BuyerMatch is a listing suggested to a buyer.
type BuyerMatch struct {
	ListingID id.ListingID
	Title     string
	Category  string
	Region    string
	PriceMin  *int64
	PriceMax  *int64
	Result
}

// SellerMatch is a buyer profile that fits one of the seller's listings.
type SellerMatch struct {
	ListingID id.ListingID
	BuyerID   id.UserID
	Result
}

// Validate rejects negative bounds and inverted ranges.
func (p *BuyerProfile) Validate() error {
	pairs := []struct {
		name     string
		min, max *int64
	}{
		{"revenue", p.RevenueMin, p.RevenueMax},
		{"price", p.PriceMin, p.PriceMax},
		{"ebitda", p.EBITDAMin, p.EBITDAMax},
	}
	for _, r := range pairs {
		if (r.min != nil && *r.min < 0) || (r.max != nil && *r.max < 0) {
			return dErrors.New(dErrors.CodeValidation, r.name+" bounds must not be negative")
		}
		if r.min != nil && r.max != nil && *r.min > *r.max {
			return dErrors.New(dErrors.CodeValidation, r.name+" minimum exceeds maximum")
		}
	}
	if p.EmployeesMin != nil && p.EmployeesMax != nil && *p.EmployeesMin > *p.EmployeesMax {
		return dErrors.New(dErrors.CodeValidation, "employees minimum exceeds maximum")
	}
	return nil
}

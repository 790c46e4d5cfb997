// Package access decides which listing fields a viewer may see.
//
// Everything here is pure: no I/O, no clock, no shared state. Callers supply
// the NDA fact fresh on every request.
package access

import (
	listingmodels "dealroom/internal/listing/models"
	id "dealroom/pkg/domain"
)

// MaskedDescription replaces the narrative on masked listings.
const MaskedDescription = "Detailed business information is available once the seller approves your NDA request."

// Viewer is the caller of a listing read. The zero value is an anonymous viewer.
type Viewer struct {
	UserID id.UserID
	Role   id.Role
}

func (v Viewer) IsAnonymous() bool {
	return v.UserID.IsNil()
}

// Rule names the policy rule that produced a decision.
type Rule string

const (
	RuleOwner          Rule = "owner"
	RulePrivilegedRole Rule = "privileged_role"
	RuleNDA            Rule = "nda"
	RuleDefaultDeny    Rule = "default_deny"
)

type Decision struct {
	Allowed bool
	Rule    Rule
}

// Decide applies the rules in priority order: owner, privileged role,
// approved or signed NDA, deny.
func Decide(viewer Viewer, ownerID id.UserID, hasNDA bool) Decision {
	if !viewer.IsAnonymous() && viewer.UserID == ownerID {
		return Decision{Allowed: true, Rule: RuleOwner}
	}
	if viewer.Role.IsPrivileged() {
		return Decision{Allowed: true, Rule: RulePrivilegedRole}
	}
	if hasNDA && !viewer.IsAnonymous() {
		return Decision{Allowed: true, Rule: RuleNDA}
	}
	return Decision{Allowed: false, Rule: RuleDefaultDeny}
}

// CanViewSensitive reports whether viewer may see listing's sensitive fields.
// A nil listing has no owner, so only privileged roles pass.
func CanViewSensitive(viewer Viewer, listing *listingmodels.Listing, hasNDA bool) bool {
	if listing == nil {
		return viewer.Role.IsPrivileged()
	}
	return Decide(viewer, listing.OwnerID, hasNDA).Allowed
}

// MaskListing projects listing into its served shape, withholding the
// sensitive block unless canView is true.
func MaskListing(listing *listingmodels.Listing, canView bool) listingmodels.MaskedListing {
	if listing == nil {
		return listingmodels.MaskedListing{KeyCustomers: []string{}, Masked: !canView}
	}

	out := listingmodels.MaskedListing{
		ID:        listing.ID.String(),
		OwnerID:   listing.OwnerID.String(),
		Title:     listing.Title,
		Category:  listing.Category,
		Region:    listing.Region,
		PriceMin:  copyPtr(listing.PriceMin),
		PriceMax:  copyPtr(listing.PriceMax),
		Status:    listing.Status,
		ViewCount: listing.ViewCount,
		CreatedAt: listing.CreatedAt,
	}

	if !canView {
		out.KeyCustomers = []string{}
		out.Description = MaskedDescription
		out.Masked = true
		return out
	}

	out.LegalName = listing.LegalName
	out.RegistrationNumber = listing.RegistrationNumber
	out.Address = listing.Address
	out.Revenue = copyPtr(listing.Revenue)
	out.EBITDA = copyPtr(listing.EBITDA)
	out.Profit = copyPtr(listing.Profit)
	out.Employees = copyPtr(listing.Employees)
	out.KeyCustomers = append([]string{}, listing.KeyCustomers...)
	out.RiskNarrative = listing.RiskNarrative
	out.Description = listing.Description
	return out
}

func copyPtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

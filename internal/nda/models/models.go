// Package models holds the NDA request aggregate and its transition rules.
package models

import (
	"time"

	id "dealroom/pkg/domain"
	dErrors "dealroom/pkg/domain-errors"
)

// Status is an NDA request's lifecycle state.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusSigned   Status = "signed"
)

// ActiveStatuses block a second request for the same (listing, buyer).
var ActiveStatuses = []Status{StatusPending, StatusApproved, StatusSigned}

// WithdrawableStatuses are the states a buyer may withdraw from.
var WithdrawableStatuses = []Status{StatusPending, StatusApproved}

func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPending, StatusApproved, StatusRejected, StatusSigned:
		return st, nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "unknown nda status: "+s)
}

// GrantsVisibility reports whether a request in this state unlocks the
// listing's sensitive fields for its buyer.
func (s Status) GrantsVisibility() bool {
	return s == StatusApproved || s == StatusSigned
}

func (s Status) IsTerminal() bool {
	return s == StatusRejected || s == StatusSigned
}

func (s Status) IsActive() bool {
	return s == StatusPending || s == StatusApproved || s == StatusSigned
}

// Party identifies which side of the request may perform a transition.
type Party string

const (
	PartySeller Party = "seller"
	PartyBuyer  Party = "buyer"
)

type transition struct {
	from, to Status
}

// transitions is the complete set of allowed moves and who may make them.
var transitions = map[transition]Party{
	{StatusPending, StatusApproved}: PartySeller,
	{StatusPending, StatusRejected}: PartySeller,
	{StatusApproved, StatusSigned}:  PartyBuyer,
}

// targetParty is the only party that may ever move a request into a state.
var targetParty = map[Status]Party{
	StatusApproved: PartySeller,
	StatusRejected: PartySeller,
	StatusSigned:   PartyBuyer,
}

// Request is a buyer's request to see a listing's confidential details.
type Request struct {
	ID              id.NDARequestID
	ListingID       id.ListingID
	BuyerID         id.UserID
	SellerID        id.UserID
	Status          Status
	Message         string
	RejectionReason string
	CreatedAt       time.Time
	ViewedAt        *time.Time
	ApprovedAt      *time.Time
	RejectedAt      *time.Time
	SignedAt        *time.Time
}

// PartyOf returns the side actor is on, or false for a stranger.
func (r *Request) PartyOf(actor id.UserID) (Party, bool) {
	switch actor {
	case r.SellerID:
		return PartySeller, true
	case r.BuyerID:
		return PartyBuyer, true
	}
	return "", false
}

// CanTransition checks actor's authority before the source state, so a
// wrong-party attempt is Forbidden regardless of where the request is.
func (r *Request) CanTransition(target Status, actor id.UserID) error {
	required, known := targetParty[target]
	if !known {
		return dErrors.New(dErrors.CodeInvalidTransition, "cannot move an nda request to "+string(target))
	}
	party, ok := r.PartyOf(actor)
	if !ok || party != required {
		return dErrors.New(dErrors.CodeForbidden, "only the "+string(required)+" may set status "+string(target))
	}
	if _, allowed := transitions[transition{r.Status, target}]; !allowed {
		return dErrors.New(dErrors.CodeInvalidTransition, "cannot move an nda request from "+string(r.Status)+" to "+string(target))
	}
	return nil
}

// ApplyTransition returns a copy of r moved to target with its timestamps
// stamped. Callers must have checked CanTransition.
func (r *Request) ApplyTransition(target Status, now time.Time, rejectionReason string) *Request {
	next := *r
	next.Status = target
	switch target {
	case StatusApproved:
		next.ApprovedAt = &now
		next.ViewedAt = &now
	case StatusRejected:
		next.RejectedAt = &now
		next.ViewedAt = &now
		next.RejectionReason = rejectionReason
	case StatusSigned:
		next.SignedAt = &now
	}
	return &next
}

// CanWithdraw allows the buyer to withdraw a request that is not yet terminal.
func (r *Request) CanWithdraw(actor id.UserID) error {
	if actor != r.BuyerID {
		return dErrors.New(dErrors.CodeForbidden, "only the buyer may withdraw an nda request")
	}
	if r.Status != StatusPending && r.Status != StatusApproved {
		return dErrors.New(dErrors.CodeInvalidTransition, "cannot withdraw an nda request that is "+string(r.Status))
	}
	return nil
}

package handler

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"dealroom/internal/deal/models"
	"dealroom/internal/deal/service"
	id "dealroom/pkg/domain"
	dErrors "dealroom/pkg/domain-errors"
)

type CreateTransactionRequest struct {
	ListingID   string          `json:"listing_id"`
	BuyerID     string          `json:"buyer_id"`
	LOIID       string          `json:"loi_id,omitempty"`
	AgreedPrice decimal.Decimal `json:"agreed_price"`

	input service.CreateTransactionInput
}

func (r *CreateTransactionRequest) Validate() error {
	listingID, err := id.ParseListingID(r.ListingID)
	if err != nil {
		return err
	}
	buyerID, err := id.ParseUserID(r.BuyerID)
	if err != nil {
		return err
	}
	if !r.AgreedPrice.IsPositive() {
		return dErrors.New(dErrors.CodeValidation, "agreed_price must be positive")
	}
	r.input = service.CreateTransactionInput{
		ListingID:   listingID,
		BuyerID:     buyerID,
		AgreedPrice: r.AgreedPrice,
	}
	if loi := strings.TrimSpace(r.LOIID); loi != "" {
		loiID, err := id.ParseLOIID(loi)
		if err != nil {
			return err
		}
		r.input.LOIID = &loiID
	}
	return nil
}

type CreateDDRequest struct {
	TargetCompleteDays int `json:"target_complete_days"`
}

func (r *CreateDDRequest) Validate() error {
	if r.TargetCompleteDays < 0 || r.TargetCompleteDays > service.MaxTargetCompleteDays {
		return dErrors.New(dErrors.CodeValidation, "target_complete_days must be between 1 and 365")
	}
	return nil
}

type StageRequest struct {
	Stage string `json:"stage"`

	target models.Stage
}

func (r *StageRequest) Validate() error {
	st, err := models.ParseStage(strings.TrimSpace(r.Stage))
	if err != nil {
		return err
	}
	r.target = st
	return nil
}

type CorrectStageRequest struct {
	Stage  string `json:"stage"`
	Reason string `json:"reason"`

	target models.Stage
}

func (r *CorrectStageRequest) Validate() error {
	st, err := models.ParseStage(strings.TrimSpace(r.Stage))
	if err != nil {
		return err
	}
	r.Reason = strings.TrimSpace(r.Reason)
	if r.Reason == "" {
		return dErrors.New(dErrors.CodeValidation, "reason is required")
	}
	r.target = st
	return nil
}

type CancelRequest struct {
	Reason string `json:"reason"`
}

func (r *CancelRequest) Validate() error {
	r.Reason = strings.TrimSpace(r.Reason)
	if len(r.Reason) > 1000 {
		return dErrors.New(dErrors.CodeValidation, "reason must be at most 1000 characters")
	}
	return nil
}

type TransactionResponse struct {
	ID           string     `json:"id"`
	ListingID    string     `json:"listing_id"`
	BuyerID      string     `json:"buyer_id"`
	SellerID     string     `json:"seller_id"`
	LOIID        string     `json:"loi_id,omitempty"`
	Stage        string     `json:"stage"`
	AgreedPrice  string     `json:"agreed_price"`
	CancelledAt  *time.Time `json:"cancelled_at,omitempty"`
	CancelReason string     `json:"cancel_reason,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func toTransactionResponse(t *models.Transaction) TransactionResponse {
	out := TransactionResponse{
		ID:           t.ID.String(),
		ListingID:    t.ListingID.String(),
		BuyerID:      t.BuyerID.String(),
		SellerID:     t.SellerID.String(),
		Stage:        string(t.EffectiveStage()),
		AgreedPrice:  t.AgreedPrice.StringFixed(2),
		CancelledAt:  t.CancelledAt,
		CancelReason: t.CancelReason,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
	if t.LOIID != nil {
		out.LOIID = t.LOIID.String()
	}
	return out
}

type MilestoneResponse struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Stage       string     `json:"stage"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CompletedBy string     `json:"completed_by,omitempty"`
	SortOrder   int        `json:"sort_order"`
}

func toMilestoneResponse(m *models.Milestone) MilestoneResponse {
	out := MilestoneResponse{
		ID:          m.ID.String(),
		Title:       m.Title,
		Stage:       string(m.Stage),
		Completed:   m.Completed,
		CompletedAt: m.CompletedAt,
		SortOrder:   m.SortOrder,
	}
	if m.CompletedBy != nil {
		out.CompletedBy = m.CompletedBy.String()
	}
	return out
}

type TaskResponse struct {
	ID       string    `json:"id"`
	Category string    `json:"category"`
	Title    string    `json:"title"`
	DueDate  time.Time `json:"due_date"`
	Status   string    `json:"status"`
}

type DDProjectResponse struct {
	ID                 string         `json:"id"`
	TransactionID      string         `json:"transaction_id"`
	Name               string         `json:"name"`
	TargetCompleteDate time.Time      `json:"target_complete_date"`
	CreatedBy          string         `json:"created_by"`
	CreatedAt          time.Time      `json:"created_at"`
	StageAdvanced      bool           `json:"stage_advanced"`
	Tasks              []TaskResponse `json:"tasks"`
}

// DDConflictResponse carries the project that already exists.
type DDConflictResponse struct {
	Error    string            `json:"error"`
	Existing DDProjectResponse `json:"existing"`
}

func toDDProjectResponse(p *models.DDProject, tasks []*models.DDTask, advanced bool) DDProjectResponse {
	out := DDProjectResponse{
		ID:                 p.ID.String(),
		TransactionID:      p.TransactionID.String(),
		Name:               p.Name,
		TargetCompleteDate: p.TargetCompleteDate,
		CreatedBy:          p.CreatedBy.String(),
		CreatedAt:          p.CreatedAt,
		StageAdvanced:      advanced,
		Tasks:              make([]TaskResponse, 0, len(tasks)),
	}
	for _, t := range tasks {
		out.Tasks = append(out.Tasks, TaskResponse{
			ID:       t.ID.String(),
			Category: t.Category,
			Title:    t.Title,
			DueDate:  t.DueDate,
			Status:   string(t.Status),
		})
	}
	return out
}

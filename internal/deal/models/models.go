package models

import (
	"time"

	"github.com/shopspring/decimal"

	id "dealroom/pkg/domain"
)

// Transaction is an accepted deal between one buyer and one seller for one listing.
type Transaction struct {
	ID           id.TransactionID
	ListingID    id.ListingID
	BuyerID      id.UserID
	SellerID     id.UserID
	LOIID        *id.LOIID
	Stage        Stage
	AgreedPrice  decimal.Decimal
	CancelledAt  *time.Time
	CancelReason string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (t *Transaction) IsParty(userID id.UserID) bool {
	return userID == t.BuyerID || userID == t.SellerID
}

func (t *Transaction) IsCancelled() bool {
	return t.CancelledAt != nil
}

// EffectiveStage reports StageCancelled for cancelled transactions.
func (t *Transaction) EffectiveStage() Stage {
	if t.IsCancelled() {
		return StageCancelled
	}
	return t.Stage
}

// Counterparty returns the other side of the deal from userID's point of view.
func (t *Transaction) Counterparty(userID id.UserID) id.UserID {
	if userID == t.BuyerID {
		return t.SellerID
	}
	return t.BuyerID
}

// PartyRole labels userID's side of the deal, or "" for a non-party.
func (t *Transaction) PartyRole(userID id.UserID) string {
	switch userID {
	case t.BuyerID:
		return "buyer"
	case t.SellerID:
		return "seller"
	}
	return ""
}

// Milestone is a named checklist item on a transaction.
type Milestone struct {
	ID            id.MilestoneID
	TransactionID id.TransactionID
	Title         string
	Stage         Stage
	Completed     bool
	CompletedAt   *time.Time
	CompletedBy   *id.UserID
	SortOrder     int
}

// NewMilestones builds one milestone per ordered stage. The LOI milestone is
// already complete since a transaction starts at StageLOISigned.
func NewMilestones(transactionID id.TransactionID, actor id.UserID, now time.Time, newID func() id.MilestoneID) []*Milestone {
	out := make([]*Milestone, 0, len(Stages))
	for i, st := range Stages {
		m := &Milestone{
			ID:            newID(),
			TransactionID: transactionID,
			Title:         st.MilestoneTitle(),
			Stage:         st,
			SortOrder:     i + 1,
		}
		if st == StageLOISigned {
			m.Completed = true
			m.CompletedAt = &now
			m.CompletedBy = &actor
		}
		out = append(out, m)
	}
	return out
}

type ActivityType string

const (
	ActivityTransactionCreated   ActivityType = "transaction_created"
	ActivityStageChanged         ActivityType = "stage_changed"
	ActivityStageCorrected       ActivityType = "stage_corrected"
	ActivityMilestoneCompleted   ActivityType = "milestone_completed"
	ActivityTransactionCancelled ActivityType = "transaction_cancelled"
)

// Activity is a write-once audit event on a transaction. Actor name and role
// are captured at write time so the log reads without joins.
type Activity struct {
	ID            id.ActivityID     `json:"id"`
	TransactionID id.TransactionID  `json:"transaction_id"`
	Type          ActivityType      `json:"type"`
	Title         string            `json:"title"`
	Description   string            `json:"description"`
	ActorID       id.UserID         `json:"actor_id"`
	ActorName     string            `json:"actor_name"`
	ActorRole     string            `json:"actor_role"`
	Metadata      map[string]string `json:"metadata"`
	CreatedAt     time.Time         `json:"created_at"`
}

// DDProject is the due diligence workspace of a transaction. At most one
// exists per transaction.
type DDProject struct {
	ID                 id.DDProjectID
	TransactionID      id.TransactionID
	Name               string
	TargetCompleteDate time.Time
	CreatedBy          id.UserID
	CreatedAt          time.Time
}

type TaskStatus string

const (
	TaskOpen TaskStatus = "open"
	TaskDone TaskStatus = "done"
)

type DDTask struct {
	ID        id.DDTaskID
	ProjectID id.DDProjectID
	Category  string
	Title     string
	DueDate   time.Time
	Status    TaskStatus
	SortOrder int
}

type checklistItem struct {
	category   string
	title      string
	offsetDays int
}

var ddChecklist = []checklistItem{
	{"financial", "Review three years of financial statements", 7},
	{"financial", "Reconcile reported revenue with bank statements", 14},
	{"legal", "Verify company registration and ownership", 7},
	{"legal", "Review material contracts and leases", 14},
	{"commercial", "Confirm key customer relationships", 21},
	{"tax", "Review tax filings and open assessments", 21},
	{"operations", "Inspect premises and equipment", 21},
	{"hr", "Review employment contracts and pension obligations", 28},
}

// NewDDTasks builds the fixed checklist for a project. Due dates are offset
// from the start of today and never fall after the target completion date.
func NewDDTasks(projectID id.DDProjectID, now time.Time, targetDays int, newID func() id.DDTaskID) []*DDTask {
	now = now.UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	out := make([]*DDTask, 0, len(ddChecklist))
	for i, item := range ddChecklist {
		offset := min(item.offsetDays, targetDays)
		out = append(out, &DDTask{
			ID:        newID(),
			ProjectID: projectID,
			Category:  item.category,
			Title:     item.title,
			DueDate:   today.AddDate(0, 0, offset),
			Status:    TaskOpen,
			SortOrder: i + 1,
		})
	}
	return out
}

// ChecklistSize is the number of tasks NewDDTasks creates.
func ChecklistSize() int {
	return len(ddChecklist)
}

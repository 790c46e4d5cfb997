// Package models holds the deal aggregate: transactions, their ordered
// stages, milestones, the activity log and due diligence projects.
package models

import (
	"slices"

	dErrors "dealroom/pkg/domain-errors"
)

// Stage is a transaction's position in the deal lifecycle.
type Stage string

const (
	StageLOISigned      Stage = "LOI_SIGNED"
	StageDDInProgress   Stage = "DD_IN_PROGRESS"
	StageDDCompleted    Stage = "DD_COMPLETED"
	StageSPANegotiation Stage = "SPA_NEGOTIATION"
	StageSPASigned      Stage = "SPA_SIGNED"
	StageClosing        Stage = "CLOSING"
	StageCompleted      Stage = "COMPLETED"

	// StageCancelled is reported for cancelled transactions. It is a flag
	// outside the ordering; the stored stage keeps its last ordered value.
	StageCancelled Stage = "CANCELLED"
)

// Stages lists the ordered stages, earliest first.
var Stages = []Stage{
	StageLOISigned,
	StageDDInProgress,
	StageDDCompleted,
	StageSPANegotiation,
	StageSPASigned,
	StageClosing,
	StageCompleted,
}

var milestoneTitles = map[Stage]string{
	StageLOISigned:      "Letter of intent signed",
	StageDDInProgress:   "Due diligence started",
	StageDDCompleted:    "Due diligence completed",
	StageSPANegotiation: "SPA negotiation started",
	StageSPASigned:      "SPA signed",
	StageClosing:        "Closing initiated",
	StageCompleted:      "Deal completed",
}

// ParseStage accepts only ordered stages.
func ParseStage(s string) (Stage, error) {
	st := Stage(s)
	if st.Index() < 0 {
		return "", dErrors.New(dErrors.CodeValidation, "unknown stage: "+s)
	}
	return st, nil
}

// Index is the stage's position in Stages, or -1.
func (s Stage) Index() int {
	return slices.Index(Stages, s)
}

// Before reports whether s strictly precedes other in the ordering.
func (s Stage) Before(other Stage) bool {
	i, j := s.Index(), other.Index()
	return i >= 0 && j >= 0 && i < j
}

// Next returns the successor stage, or false at the end of the ordering.
func (s Stage) Next() (Stage, bool) {
	i := s.Index()
	if i < 0 || i == len(Stages)-1 {
		return "", false
	}
	return Stages[i+1], true
}

// MilestoneTitle is the milestone completed when a transaction reaches s.
func (s Stage) MilestoneTitle() string {
	return milestoneTitles[s]
}

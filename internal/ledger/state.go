// Package ledger implements the shared-ledger state machine.
//
// A State is advanced only by Apply. Apply is pure: it never mutates the
// state it is given, performs no I/O and reads no clock, so replaying the
// same command sequence from the same initial state always yields the same
// final state. IDs and timestamps are attached to payloads before a command
// is built.
package ledger

import (
	"slices"

	"github.com/mmynk/splitledger/internal/models"
)

// State is the complete in-memory ledger snapshot.
type State struct {
	CurrentUser  models.User          `json:"currentUser"`
	Groups       []models.Group       `json:"groups"`
	Expenses     []models.Expense     `json:"expenses"`
	Insights     []models.AiInsight   `json:"insights"`
	Reports      []models.AutoReport  `json:"reports"`
	BudgetAlerts []models.BudgetAlert `json:"budgetAlerts"`
	Settlements  []models.Settlement  `json:"settlements"`
	IsLoading    bool                 `json:"isLoading"`
}

// Group returns the group with the given ID.
func (s State) Group(id string) (models.Group, bool) {
	for _, g := range s.Groups {
		if g.ID == id {
			return g, true
		}
	}
	return models.Group{}, false
}

// Clone returns a deep copy of s so readers can hold it without sharing
// backing arrays with the replica.
func (s State) Clone() State {
	out := s
	out.Groups = cloneEach(s.Groups, func(g models.Group) models.Group {
		g.MemberIDs = slices.Clone(g.MemberIDs)
		return g
	})
	out.Expenses = cloneEach(s.Expenses, func(e models.Expense) models.Expense {
		e.Splits = slices.Clone(e.Splits)
		e.Tags = slices.Clone(e.Tags)
		return e
	})
	out.Insights = cloneEach(s.Insights, func(in models.AiInsight) models.AiInsight {
		in.Actions = slices.Clone(in.Actions)
		return in
	})
	out.Reports = cloneEach(s.Reports, func(r models.AutoReport) models.AutoReport {
		r.Highlights = slices.Clone(r.Highlights)
		r.Settlements = slices.Clone(r.Settlements)
		return r
	})
	out.BudgetAlerts = slices.Clone(s.BudgetAlerts)
	out.Settlements = slices.Clone(s.Settlements)
	return out
}

func cloneEach[T any](list []T, deep func(T) T) []T {
	if list == nil {
		return nil
	}
	out := make([]T, len(list))
	for i, v := range list {
		out[i] = deep(v)
	}
	return out
}

// Patch is a partial State. Nil fields are left untouched by Initialize.
type Patch struct {
	CurrentUser  *models.User          `json:"currentUser,omitempty"`
	Groups       *[]models.Group       `json:"groups,omitempty"`
	Expenses     *[]models.Expense     `json:"expenses,omitempty"`
	Insights     *[]models.AiInsight   `json:"insights,omitempty"`
	Reports      *[]models.AutoReport  `json:"reports,omitempty"`
	BudgetAlerts *[]models.BudgetAlert `json:"budgetAlerts,omitempty"`
	Settlements  *[]models.Settlement  `json:"settlements,omitempty"`
	IsLoading    *bool                 `json:"isLoading,omitempty"`
}

// FullPatch returns a Patch that sets every field of s.
func FullPatch(s State) Patch {
	return Patch{
		CurrentUser:  &s.CurrentUser,
		Groups:       &s.Groups,
		Expenses:     &s.Expenses,
		Insights:     &s.Insights,
		Reports:      &s.Reports,
		BudgetAlerts: &s.BudgetAlerts,
		Settlements:  &s.Settlements,
		IsLoading:    &s.IsLoading,
	}
}

// overlay copies the present fields of p over s.
func (p Patch) overlay(s State) State {
	if p.CurrentUser != nil {
		s.CurrentUser = *p.CurrentUser
	}
	if p.Groups != nil {
		s.Groups = *p.Groups
	}
	if p.Expenses != nil {
		s.Expenses = *p.Expenses
	}
	if p.Insights != nil {
		s.Insights = *p.Insights
	}
	if p.Reports != nil {
		s.Reports = *p.Reports
	}
	if p.BudgetAlerts != nil {
		s.BudgetAlerts = *p.BudgetAlerts
	}
	if p.Settlements != nil {
		s.Settlements = *p.Settlements
	}
	if p.IsLoading != nil {
		s.IsLoading = *p.IsLoading
	}
	return s
}

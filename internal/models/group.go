package models

import "time"

// Group represents a set of people sharing expenses.
//
// Members may be added by an update but removal is not supported.
type Group struct {
	// ID is the unique identifier for the group.
	ID string `json:"id"`

	// Name is the display name of the group (e.g., "Lisbon Escape").
	Name string `json:"name"`

	// Description is optional free text.
	Description string `json:"description,omitempty"`

	// CoverImage is an optional image URL.
	CoverImage string `json:"coverImage,omitempty"`

	// Currency is the ISO-4217-like code used by the group's expenses.
	Currency string `json:"currency"`

	// MemberIDs lists the user IDs in the group. Order is irrelevant.
	MemberIDs []string `json:"memberIds"`

	// CreatedAt is when the group was created.
	CreatedAt time.Time `json:"createdAt"`

	// UpdatedAt is bumped by every group update.
	UpdatedAt time.Time `json:"updatedAt"`
}

// HasMember reports whether userID is one of the group's members.
func (g Group) HasMember(userID string) bool {
	for _, id := range g.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}

package models

// User represents the profile of the person operating a client.
//
// The profile is created at provisioning time and only changes through an
// explicit profile update command. Users are never deleted.
type User struct {
	// ID is the stable identifier referenced by groups, expenses and settlements.
	ID string `json:"id"`

	// Name is the display name of the user.
	Name string `json:"name"`

	// Email is the address used for reminders.
	Email string `json:"email"`

	// AvatarURL is an optional profile picture URL.
	AvatarURL string `json:"avatarUrl,omitempty"`

	// PreferredLanguage is a BCP 47 language tag (e.g., "en").
	PreferredLanguage string `json:"preferredLanguage"`

	// MonthlyBudget is the spending budget used by the budget scan.
	MonthlyBudget float64 `json:"monthlyBudget"`
}

package models

// BadgeRecord is a row of the badges table, flattened for API output.
type BadgeRecord struct {
	ID          string `json:"id"`
	BadgeID     string `json:"badgeId"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"` // first attachment or plain URL field
	Criteria    string `json:"criteria,omitempty"`
}

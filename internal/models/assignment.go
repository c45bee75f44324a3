package models

const DefaultAssignmentStatus = "issued"

type AssignmentRecord struct {
	ID        string  `json:"id"`
	UserID    string  `json:"userId"`
	SessionID string  `json:"sessionId,omitempty"`
	Status    string  `json:"status"`
	IssuedAt  *string `json:"issuedAt"`
	BadgeRef  string  `json:"badgeRef,omitempty"`
}

type ResolvedAssignment struct {
	AssignmentRecord
	Badge BadgeRecord `json:"badge"`
}

type BadgeLookupResult struct {
	Count       int                  `json:"count" doc:"Number of resolved assignments"`
	Assignments []ResolvedAssignment `json:"assignments" doc:"Assignments joined with their badge, newest first"`
}

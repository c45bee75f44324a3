package models

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type HealthResponse struct {
	OK          bool `json:"ok"`
	HasAirtable bool `json:"hasAirtable"`
}

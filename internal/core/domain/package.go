package domain

// Package is the read-only WiFi package definition used to render the
// delivery SMS. Package CRUD is owned by the surrounding application.
type Package struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Duration string `json:"duration,omitempty"`
	Price    int64  `json:"price"`
}

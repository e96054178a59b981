package model

import "time"

type Review struct {
	ID            string    `json:"id"`
	Review        string    `json:"review" validate:"required"`
	Rating        float64   `json:"rating" validate:"required,min=1,max=5"`
	TourID        string    `json:"tour_id" validate:"required,uuid"`
	UserID        string    `json:"user_id" validate:"required,uuid"`
	CreatedAt     time.Time `json:"created_at"`
	SchemaVersion int       `json:"schema_version,omitempty"`

	// Populated only when the caller asks for related expansion.
	User *ReviewUser `json:"user,omitempty"`
	Tour *ReviewTour `json:"tour,omitempty"`
}

type ReviewUser struct {
	Name  string `json:"name"`
	Photo string `json:"photo,omitempty"`
}

type ReviewTour struct {
	Name string `json:"name"`
}

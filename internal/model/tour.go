package model

import "time"

type Tour struct {
	ID              string      `json:"id"`
	Name            string      `json:"name" validate:"required,min=10,max=40"`
	Slug            string      `json:"slug,omitempty"`
	Duration        int         `json:"duration" validate:"required,gt=0"`
	MaxGroupSize    int         `json:"max_group_size" validate:"required,gt=0"`
	Difficulty      string      `json:"difficulty" validate:"required,oneof=easy medium difficult"`
	RatingsAverage  float64     `json:"ratings_average"`
	RatingsQuantity int         `json:"ratings_quantity"`
	Price           float64     `json:"price" validate:"required,gt=0"`
	PriceDiscount   float64     `json:"price_discount,omitempty" validate:"omitempty,ltfield=Price"`
	Summary         string      `json:"summary" validate:"required"`
	Description     string      `json:"description,omitempty"`
	ImageCover      string      `json:"image_cover" validate:"required"`
	Images          []string    `json:"images,omitempty"`
	StartDates      []time.Time `json:"start_dates,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	SchemaVersion   int         `json:"schema_version,omitempty"`
}

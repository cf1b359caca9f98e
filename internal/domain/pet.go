package domain

import "time"

type PetStatus string

const (
	PetAvailable PetStatus = "available"
	PetAdopted   PetStatus = "adopted"
)

type Pet struct {
	PetID       string    `json:"id" dynamodbav:"pet_id"`
	Name        string    `json:"name" dynamodbav:"name"`
	Species     string    `json:"species" dynamodbav:"species"`
	Breed       string    `json:"breed" dynamodbav:"breed"`
	Age         string    `json:"age" dynamodbav:"age"`
	Gender      string    `json:"gender" dynamodbav:"gender"`
	Description string    `json:"description" dynamodbav:"description"`
	ImageURL    *string   `json:"image_url,omitempty" dynamodbav:"image_url,omitempty"`
	Status      PetStatus `json:"status" dynamodbav:"status"`
	AdoptedBy   *string   `json:"adopted_by,omitempty" dynamodbav:"adopted_by,omitempty"`
	CreatedAt   time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt   time.Time `json:"updated" dynamodbav:"updated_at"`
}

type PetInput struct {
	Name        string  `json:"name" validate:"required"`
	Species     string  `json:"species" validate:"required,oneof=dog cat"`
	Breed       string  `json:"breed"`
	Age         string  `json:"age"`
	Gender      string  `json:"gender" validate:"omitempty,oneof=male female"`
	Description string  `json:"description"`
	ImageURL    *string `json:"image_url" validate:"omitempty,url"`
}

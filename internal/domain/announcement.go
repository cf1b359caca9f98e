package domain

import "time"

type Announcement struct {
	AnnouncementID string    `json:"id" dynamodbav:"announcement_id"`
	Title          string    `json:"title" dynamodbav:"title"`
	Body           string    `json:"body" dynamodbav:"body"`
	AuthorID       string    `json:"author_id" dynamodbav:"author_id"`
	CreatedAt      time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt      time.Time `json:"updated" dynamodbav:"updated_at"`
}

type AnnouncementInput struct {
	Title string `json:"title" validate:"required"`
	Body  string `json:"body" validate:"required"`
}

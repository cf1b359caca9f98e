package domain

import "time"

type ScheduleStatus string

const (
	ScheduleActive    ScheduleStatus = "active"
	ScheduleCancelled ScheduleStatus = "cancelled"
)

// Schedule is a kapon (neutering) session that KaponRegistration requests reference.
type Schedule struct {
	ScheduleID      string         `json:"id" dynamodbav:"schedule_id"`
	Title           string         `json:"title" dynamodbav:"title"`
	Date            string         `json:"date" dynamodbav:"date"` // YYYY-MM-DD
	StartTime       string         `json:"start_time" dynamodbav:"start_time"`
	EndTime         string         `json:"end_time" dynamodbav:"end_time"`
	Location        string         `json:"location" dynamodbav:"location"`
	Capacity        int            `json:"capacity" dynamodbav:"capacity"`
	RegisteredCount int            `json:"registered_count" dynamodbav:"registered_count"`
	Status          ScheduleStatus `json:"status" dynamodbav:"status"`
	CreatedBy       string         `json:"created_by" dynamodbav:"created_by"`
	CreatedAt       time.Time      `json:"created" dynamodbav:"created_at"`
	UpdatedAt       time.Time      `json:"updated" dynamodbav:"updated_at"`
}

func (s *Schedule) Remaining() int {
	if n := s.Capacity - s.RegisteredCount; n > 0 {
		return n
	}
	return 0
}

func (s *Schedule) IsFull() bool {
	return s.RegisteredCount >= s.Capacity
}

type ScheduleInput struct {
	Title     string `json:"title" validate:"required"`
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime string `json:"start_time" validate:"required,datetime=15:04"`
	EndTime   string `json:"end_time" validate:"required,datetime=15:04"`
	Location  string `json:"location" validate:"required"`
	Capacity  int    `json:"capacity" validate:"required,gt=0"`
}

// Registration joins a KaponRegistration request with its schedule.
// Schedule is nil when the schedule was deleted after registration.
type Registration struct {
	Request           *Request  `json:"request"`
	Schedule          *Schedule `json:"schedule,omitempty"`
	ScheduleAvailable bool      `json:"schedule_available"`
}

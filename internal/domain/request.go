package domain

import "time"

// RequestKind selects the per-kind configuration a Request is governed by.
type RequestKind string

const (
	KindAdoption          RequestKind = "adoption"
	KindVolunteer         RequestKind = "volunteer"
	KindKaponRegistration RequestKind = "kapon_registration"
	KindDonation          RequestKind = "donation"
)

// Valid reports whether k is one of the four known kinds.
func (k RequestKind) Valid() bool {
	switch k {
	case KindAdoption, KindVolunteer, KindKaponRegistration, KindDonation:
		return true
	}
	return false
}

type RequestStatus string

const (
	StatusPending   RequestStatus = "pending"
	StatusApproved  RequestStatus = "approved"
	StatusRejected  RequestStatus = "rejected"
	StatusCompleted RequestStatus = "completed"
)

func (s RequestStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusCompleted:
		return true
	}
	return false
}

// Request is the generalized adoption/volunteer/kapon/donation submission.
// Kind, OwnerUserID and SubjectRef never change after creation.
type Request struct {
	RequestID   string         `json:"id" dynamodbav:"request_id"`
	Kind        RequestKind    `json:"kind" dynamodbav:"kind"`
	OwnerUserID string         `json:"owner_user_id" dynamodbav:"owner_user_id"`
	SubjectRef  *string        `json:"subject_ref,omitempty" dynamodbav:"subject_ref,omitempty"`
	Status      RequestStatus  `json:"status" dynamodbav:"status"`
	Hidden      bool           `json:"hidden" dynamodbav:"hidden"`
	Payload     map[string]any `json:"payload" dynamodbav:"payload"`
	AdminNotes  *string        `json:"admin_notes,omitempty" dynamodbav:"admin_notes,omitempty"`
	ReviewedBy  *string        `json:"reviewed_by,omitempty" dynamodbav:"reviewed_by,omitempty"`
	CreatedAt   time.Time      `json:"created" dynamodbav:"created_at"`
	UpdatedAt   time.Time      `json:"updated" dynamodbav:"updated_at"`
	ReviewedAt  *time.Time     `json:"reviewed_at,omitempty" dynamodbav:"reviewed_at,omitempty"`
}

// PayloadString returns payload[key] when it is a non-empty string.
func (r *Request) PayloadString(key string) (string, bool) {
	v, ok := r.Payload[key].(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// RequestFilter narrows ListByStatus. Nil fields match everything.
type RequestFilter struct {
	Kind          *RequestKind
	Status        *RequestStatus
	IncludeHidden bool
}

type SubmitRequestInput struct {
	SubjectRef *string        `json:"subject_ref"`
	Payload    map[string]any `json:"payload" validate:"required"`
}

type TransitionInput struct {
	Status     RequestStatus `json:"status" validate:"required,oneof=approved rejected completed"`
	AdminNotes *string       `json:"admin_notes"`
}

type VisibilityInput struct {
	Hidden bool `json:"hidden"`
}

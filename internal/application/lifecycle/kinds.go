package lifecycle

import (
	"context"
	"fmt"

	"github.com/taara-api/internal/domain"
)

// SideEffect is a secondary write run after a committed status change.
// Failures are logged as dependent-write errors and never undo the transition.
type SideEffect struct {
	Name string
	Run  func(ctx context.Context, req *domain.Request) error
}

// KindConfig is everything that differs between request kinds.
type KindConfig struct {
	Kind domain.RequestKind
	// RequiredFields must be present and non-blank in the payload.
	RequiredFields  []string
	SubjectRequired bool
	// Transitions lists the statuses reachable from each status.
	Transitions map[domain.RequestStatus][]domain.RequestStatus
	// BeforeSubmit runs after field validation and before the insert; an error aborts the submit.
	BeforeSubmit func(ctx context.Context, req *domain.Request) error
	// AfterSubmit effects run once the request is stored.
	AfterSubmit []SideEffect
	// BeforeStatus guards run after the transition table check and before the
	// status write; an error aborts the transition.
	BeforeStatus map[domain.RequestStatus]func(ctx context.Context, req *domain.Request) error
	// OnStatus effects run after a transition into the keyed status.
	OnStatus map[domain.RequestStatus][]SideEffect
}

func (c KindConfig) allows(from, to domain.RequestStatus) bool {
	for _, s := range c.Transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Registry maps each kind to its configuration.
type Registry map[domain.RequestKind]KindConfig

type petStore interface {
	Get(ctx context.Context, petID string) (*domain.Pet, error)
	MarkAdopted(ctx context.Context, petID, adoptedBy string) error
}

type slotReleaser interface {
	Release(ctx context.Context, scheduleID string) error
}

type smsNotifier interface {
	RequestSubmitted(ctx context.Context, req *domain.Request) error
	RequestReviewed(ctx context.Context, req *domain.Request) error
}

// Effects are the collaborators the default kinds reach into. Nil fields
// disable the effects that need them.
type Effects struct {
	Pets  petStore
	Slots slotReleaser
	SMS   smsNotifier
}

var reviewOnly = map[domain.RequestStatus][]domain.RequestStatus{
	domain.StatusPending: {domain.StatusApproved, domain.StatusRejected},
}

// DefaultRegistry returns the four TAARA request kinds.
func DefaultRegistry(fx Effects) Registry {
	adoption := KindConfig{
		Kind:            domain.KindAdoption,
		RequiredFields:  []string{"reason", "validIdRef", "proofOfResidenceRef"},
		SubjectRequired: true,
		Transitions:     reviewOnly,
		OnStatus:        map[domain.RequestStatus][]SideEffect{},
	}
	if fx.Pets != nil {
		adoption.BeforeSubmit = petAvailable(fx.Pets)
		// Several pending requests may name the same pet; only one can be approved.
		adoption.BeforeStatus = map[domain.RequestStatus]func(context.Context, *domain.Request) error{
			domain.StatusApproved: petAvailable(fx.Pets),
		}
		adoption.OnStatus[domain.StatusApproved] = append(adoption.OnStatus[domain.StatusApproved], SideEffect{
			Name: "mark_pet_adopted",
			Run: func(ctx context.Context, req *domain.Request) error {
				return fx.Pets.MarkAdopted(ctx, *req.SubjectRef, req.OwnerUserID)
			},
		})
	}
	if fx.SMS != nil {
		adoption.AfterSubmit = []SideEffect{{Name: "sms_submitted", Run: fx.SMS.RequestSubmitted}}
		reviewed := SideEffect{Name: "sms_reviewed", Run: fx.SMS.RequestReviewed}
		adoption.OnStatus[domain.StatusApproved] = append(adoption.OnStatus[domain.StatusApproved], reviewed)
		adoption.OnStatus[domain.StatusRejected] = append(adoption.OnStatus[domain.StatusRejected], reviewed)
	}

	kapon := KindConfig{
		Kind:            domain.KindKaponRegistration,
		RequiredFields:  []string{"ownerName", "contactNumber", "petName", "petSpecies"},
		SubjectRequired: true,
		Transitions: map[domain.RequestStatus][]domain.RequestStatus{
			domain.StatusPending:  {domain.StatusApproved, domain.StatusRejected},
			domain.StatusApproved: {domain.StatusCompleted},
		},
	}
	if fx.Slots != nil {
		kapon.OnStatus = map[domain.RequestStatus][]SideEffect{
			domain.StatusRejected: {{
				Name: "release_slot",
				Run: func(ctx context.Context, req *domain.Request) error {
					return fx.Slots.Release(ctx, *req.SubjectRef)
				},
			}},
		}
	}

	return Registry{
		domain.KindAdoption: adoption,
		domain.KindVolunteer: {
			Kind:           domain.KindVolunteer,
			RequiredFields: []string{"fullName", "email", "contactNumber", "reason"},
			Transitions:    reviewOnly,
		},
		domain.KindKaponRegistration: kapon,
		domain.KindDonation: {
			Kind:           domain.KindDonation,
			RequiredFields: []string{"donorName", "donationType"},
			Transitions:    reviewOnly,
		},
	}
}

func petAvailable(pets petStore) func(context.Context, *domain.Request) error {
	return func(ctx context.Context, req *domain.Request) error {
		pet, err := pets.Get(ctx, *req.SubjectRef)
		if err != nil {
			return err
		}
		if pet.Status != domain.PetAvailable {
			return fmt.Errorf("pet %s is not available for adoption: %w", pet.PetID, domain.ErrConflict)
		}
		return nil
	}
}

package notification

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/taara-api/internal/domain"
)

type templateKey struct {
	kind   domain.RequestKind
	status domain.RequestStatus
}

// messageTemplate is one row of the transition table. Message is rendered
// against the Request, so payload fields are reachable as .Payload.<name>.
type messageTemplate struct {
	Type    string
	Title   string
	Message *template.Template
}

func mustTemplate(name, text string) *template.Template {
	return template.Must(template.New(name).Parse(text))
}

// transitionTemplates is the static (kind, status) table. Pairs with no row send nothing.
var transitionTemplates = map[templateKey]messageTemplate{
	{domain.KindAdoption, domain.StatusApproved}: {
		Type:  "adoption_approved",
		Title: "Adoption Request Approved",
		Message: mustTemplate("adoption_approved",
			`Your adoption request{{with .Payload.petName}} for {{.}}{{end}} has been approved. Our team will contact you to arrange the pick-up.{{with .AdminNotes}} Note: {{.}}{{end}}`),
	},
	{domain.KindAdoption, domain.StatusRejected}: {
		Type:  "adoption_rejected",
		Title: "Adoption Request Update",
		Message: mustTemplate("adoption_rejected",
			`We're sorry, your adoption request{{with .Payload.petName}} for {{.}}{{end}} was not approved.{{with .AdminNotes}} Reason: {{.}}{{end}}`),
	},
	{domain.KindVolunteer, domain.StatusApproved}: {
		Type:  "volunteer",
		Title: "Volunteer Application Approved",
		Message: mustTemplate("volunteer_approved",
			`Welcome aboard! Your volunteer application has been approved.{{with .AdminNotes}} Note: {{.}}{{end}}`),
	},
	{domain.KindVolunteer, domain.StatusRejected}: {
		Type:  "volunteer",
		Title: "Volunteer Application Update",
		Message: mustTemplate("volunteer_rejected",
			`Thank you for your interest. Your volunteer application was not approved this time.{{with .AdminNotes}} Reason: {{.}}{{end}}`),
	},
	{domain.KindKaponRegistration, domain.StatusApproved}: {
		Type:  "kapon_approved",
		Title: "Kapon Request Approved",
		Message: mustTemplate("kapon_approved",
			`Your kapon registration{{with .Payload.petName}} for {{.}}{{end}} has been approved. Please arrive on time on your scheduled date.{{with .AdminNotes}} Note: {{.}}{{end}}`),
	},
	{domain.KindKaponRegistration, domain.StatusRejected}: {
		Type:  "kapon_rejected",
		Title: "Kapon Request Update",
		Message: mustTemplate("kapon_rejected",
			`Your kapon registration{{with .Payload.petName}} for {{.}}{{end}} was not approved and your slot has been released.{{with .AdminNotes}} Reason: {{.}}{{end}}`),
	},
	{domain.KindKaponRegistration, domain.StatusCompleted}: {
		Type:  "kapon_completed",
		Title: "Kapon Procedure Completed",
		Message: mustTemplate("kapon_completed",
			`The kapon procedure{{with .Payload.petName}} for {{.}}{{end}} is complete. Thank you for helping control the stray population!`),
	},
	{domain.KindDonation, domain.StatusApproved}: {
		Type:  "donation_received",
		Title: "Donation Received",
		Message: mustTemplate("donation_received",
			`We have confirmed your donation. Thank you for supporting TAARA!`),
	},
}

// resolveTemplate renders the row for req's kind and current status.
// ok is false when the table has no row for that pair.
func resolveTemplate(req *domain.Request) (typ, title, message string, ok bool, err error) {
	t, found := transitionTemplates[templateKey{req.Kind, req.Status}]
	if !found {
		return "", "", "", false, nil
	}
	var buf bytes.Buffer
	if err := t.Message.Execute(&buf, req); err != nil {
		return "", "", "", true, fmt.Errorf("render %s: %w", t.Type, err)
	}
	return t.Type, t.Title, buf.String(), true, nil
}

package flow

import (
	"time"

	"github.com/vecinomarket/publicar-flow/internal/flowstore"
	"github.com/vecinomarket/publicar-flow/internal/models"
)

// Redirect is a planned navigation away from the flow's entry point.
type Redirect struct {
	Route   string
	Replace bool
	State   *models.NavState
}

// PlanRedirect inspects the persisted draft on landing at the entry point and
// short-circuits to the right step: straight to publishing when recently
// verified, straight to code entry when a request is outstanding, nowhere
// otherwise. Purely a UX convenience — the publish route's guard re-validates
// against the server regardless of what is planned here.
func PlanRedirect(d *models.VerificationDraft, now time.Time) *Redirect {
	if d == nil || d.PhoneE164 == "" || d.PhoneLocal == "" {
		return nil
	}

	if flowstore.IsVerifiedRecently(d, now) {
		return &Redirect{Route: models.RoutePublish, Replace: true}
	}

	if !d.Verified && d.OTPSessionID != "" {
		return &Redirect{
			Route:   models.RouteVerify,
			Replace: true,
			State: &models.NavState{
				PhoneE164:       d.PhoneE164,
				PhoneLocal:      d.PhoneLocal,
				OTPSessionID:    d.OTPSessionID,
				CooldownSeconds: flowstore.CooldownRemaining(d, now),
			},
		}
	}

	return nil
}

package token

import (
	"time"

	"github.com/google/uuid"
	"github.com/guardline/guardline/internal/clock"
	"go.uber.org/fx"
)

// Issuer mints opaque bearer tokens for QR invitations and collaborator codes.
// Tokens come from crypto/rand via uuid; guessing one is not feasible.
type Issuer struct {
	clock clock.Clock
}

var Module = fx.Provide(NewIssuer)

func NewIssuer(c clock.Clock) *Issuer {
	return &Issuer{clock: c}
}

// Issue returns a fresh token and its absolute expiry instant.
func (i *Issuer) Issue(ttl time.Duration) (string, time.Time) {
	return uuid.NewString(), i.clock.Now().UTC().Add(ttl)
}

package otp

import "time"

type OTP struct {
	ID          string
	WorkspaceID string
	Code        string
	CreatedAt   time.Time
	ExpiresAt   time.Time
	MaxUses     int
	UseCount    int
	IsActive    bool
	UsedAt      *time.Time
	LastUsedIP  string
}

// Valid reports whether the code could still be redeemed at the given
// instant. Validity is always computed, never cached; the authoritative
// check lives in the redemption statement itself.
func (o OTP) Valid(now time.Time) bool {
	if !o.IsActive {
		return false
	}
	if !now.Before(o.ExpiresAt) {
		return false
	}
	if o.MaxUses > 0 && o.UseCount >= o.MaxUses {
		return false
	}
	return true
}

// DiscoveryPayload is what a client receives for a redeemed code: the
// workspace's connection details as they are right now, not as they were
// when the code was issued.
type DiscoveryPayload struct {
	WorkspaceID      string
	Name             string
	OTP              string
	CloudURL         string
	TailscaleURL     string
	IPAddress        string
	Status           string
	SubscriptionTier string
	CreatedAt        time.Time
	Features         map[string]any
}

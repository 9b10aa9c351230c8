package dto

import "time"

type GenerateOTPRequest struct {
	// MaxUses of 0 (or an omitted field) issues an unlimited-use code.
	MaxUses int `json:"max_uses" binding:"min=0"`
}

type OTPResponse struct {
	ID          string     `json:"id"`
	WorkspaceID string     `json:"workspace_id"`
	OTPCode     string     `json:"otp_code"`
	CreatedAt   time.Time  `json:"created_at"`
	ExpiresAt   time.Time  `json:"expires_at"`
	UsedAt      *time.Time `json:"used_at,omitempty"`
	IsActive    bool       `json:"is_active"`
	UseCount    int        `json:"use_count"`
	MaxUses     int        `json:"max_uses"`
	IsValid     bool       `json:"is_valid"`
	LastUsedIP  string     `json:"last_used_ip,omitempty"`
}

type ListOTPsResponse struct {
	Otps  []OTPResponse `json:"otps"`
	Count int           `json:"count"`
}

type ValidateOTPRequest struct {
	OTP string `json:"otp" binding:"required,max=12"`
}

type DiscoveryEndpoints struct {
	Cloud     *string `json:"cloud"`
	Tailscale *string `json:"tailscale"`
	IP        *string `json:"ip"`
}

type ValidateOTPResponse struct {
	WorkspaceID  string             `json:"workspace_id"`
	Name         string             `json:"name"`
	OTP          string             `json:"otp"`
	Endpoints    DiscoveryEndpoints `json:"endpoints"`
	Status       string             `json:"status"`
	Subscription string             `json:"subscription"`
	CreatedAt    time.Time          `json:"created_at"`
	Features     map[string]any     `json:"features"`
}

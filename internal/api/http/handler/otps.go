package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/adimlabs/workspace-hub/internal/api/http/dto"
	"github.com/adimlabs/workspace-hub/internal/api/http/middleware"
	"github.com/adimlabs/workspace-hub/internal/otp"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type OTPHandler struct {
	otpService *otp.Service
}

func NewOTPHandler(otpService *otp.Service) *OTPHandler {
	return &OTPHandler{otpService: otpService}
}

// Validate redeems a discovery code and returns the workspace's current
// connection details. Unauthenticated; the code is the credential. Every
// failure mode returns the same generic error so callers cannot probe
// which codes exist.
// POST /api/otps/validate
func (h *OTPHandler) Validate(c *gin.Context) {
	var req dto.ValidateOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": otp.ErrInvalidOTP.Error()})
		return
	}

	payload, err := h.otpService.Validate(c.Request.Context(), strings.ToUpper(strings.TrimSpace(req.OTP)), c.ClientIP())
	if err != nil {
		if !errors.Is(err, otp.ErrInvalidOTP) {
			slog.Error("OTP validation failed", "error", err)
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": otp.ErrInvalidOTP.Error()})
		return
	}

	c.JSON(http.StatusOK, dto.ValidateOTPResponse{
		WorkspaceID: payload.WorkspaceID,
		Name:        payload.Name,
		OTP:         payload.OTP,
		Endpoints: dto.DiscoveryEndpoints{
			Cloud:     optionalString(payload.CloudURL),
			Tailscale: optionalString(payload.TailscaleURL),
			IP:        optionalString(payload.IPAddress),
		},
		Status:       payload.Status,
		Subscription: payload.SubscriptionTier,
		CreatedAt:    payload.CreatedAt,
		Features:     payload.Features,
	})
}

// Revoke deactivates a code the caller's workspace issued
// DELETE /api/otps/:id
func (h *OTPHandler) Revoke(c *gin.Context) {
	ownerID, ok := callerID(c)
	if !ok {
		return
	}

	otpID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid OTP id"})
		return
	}

	revoked, err := h.otpService.Revoke(c.Request.Context(), otpID, ownerID)
	if err != nil {
		switch {
		case errors.Is(err, otp.ErrOTPNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "OTP not found"})
		case errors.Is(err, otp.ErrForbidden):
			c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		default:
			slog.Error("Failed to revoke OTP", "error", err, "owner_id", c.GetString(middleware.OwnerIDKey))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to revoke OTP"})
		}
		return
	}
	c.JSON(http.StatusOK, otpResponse(revoked))
}

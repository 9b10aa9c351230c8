package handler

import (
	"net/http"
	"time"

	"github.com/adimlabs/workspace-hub/internal/api/http/dto"
	"github.com/adimlabs/workspace-hub/internal/otp"
	"github.com/adimlabs/workspace-hub/internal/workspaces"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// callerID extracts the authenticated owner identity placed in the context
// by the JWT middleware. Aborts with 401 when it is missing or not a UUID.
func callerID(c *gin.Context) (uuid.UUID, bool) {
	raw := c.GetString("owner_id")
	if raw == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "owner identity not found in context"})
		return uuid.UUID{}, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid owner identity"})
		return uuid.UUID{}, false
	}
	return id, true
}

func workspaceResponse(w workspaces.Workspace) dto.WorkspaceResponse {
	return dto.WorkspaceResponse{
		WorkspaceID:    w.WorkspaceID,
		Name:           w.Name,
		DeploymentType: string(w.DeploymentType),
		Status:         string(w.Status),
		Region:         w.Region,
		Endpoints: dto.EndpointsPayload{
			CloudURL:     w.Endpoints.CloudURL,
			TailscaleURL: w.Endpoints.TailscaleURL,
			IPAddress:    w.Endpoints.IPAddress,
		},
		VCPU:             w.Resources.VCPU,
		RAMGB:            w.Resources.RAMGB,
		StorageGB:        w.Resources.StorageGB,
		PortAllocation:   w.PortAllocation,
		Features:         w.Features,
		CreatedAt:        w.CreatedAt,
		UpdatedAt:        w.UpdatedAt,
		ProvisionedAt:    w.ProvisionedAt,
		DecommissionedAt: w.DecommissionedAt,
	}
}

func otpResponse(o otp.OTP) dto.OTPResponse {
	return dto.OTPResponse{
		ID:          o.ID,
		WorkspaceID: o.WorkspaceID,
		OTPCode:     o.Code,
		CreatedAt:   o.CreatedAt,
		ExpiresAt:   o.ExpiresAt,
		UsedAt:      o.UsedAt,
		IsActive:    o.IsActive,
		UseCount:    o.UseCount,
		MaxUses:     o.MaxUses,
		IsValid:     o.Valid(time.Now()),
		LastUsedIP:  o.LastUsedIP,
	}
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

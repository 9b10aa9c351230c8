package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/adimlabs/workspace-hub/internal/api/http/dto"
	"github.com/adimlabs/workspace-hub/internal/otp"
	"github.com/adimlabs/workspace-hub/internal/provlog"
	"github.com/adimlabs/workspace-hub/internal/workspaces"
	"github.com/gin-gonic/gin"
)

type WorkspaceHandler struct {
	workspaceService *workspaces.Service
	otpService       *otp.Service
	logService       *provlog.Service
}

func NewWorkspaceHandler(workspaceService *workspaces.Service, otpService *otp.Service, logService *provlog.Service) *WorkspaceHandler {
	return &WorkspaceHandler{
		workspaceService: workspaceService,
		otpService:       otpService,
		logService:       logService,
	}
}

// Create provisions a new workspace record for the caller
// POST /api/workspaces
func (h *WorkspaceHandler) Create(c *gin.Context) {
	ownerID, ok := callerID(c)
	if !ok {
		return
	}

	var req dto.CreateWorkspaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	workspace, err := h.workspaceService.Create(c.Request.Context(), ownerID, workspaces.CreateSpec{
		Name:           req.Name,
		DeploymentType: workspaces.DeploymentType(req.DeploymentType),
		Region:         req.Region,
		VCPU:           req.VCPU,
		RAMGB:          req.RAMGB,
		StorageGB:      req.StorageGB,
	})
	if err != nil {
		switch {
		case errors.Is(err, workspaces.ErrInvalidSpec):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, workspaces.ErrQuotaExceeded):
			c.JSON(http.StatusForbidden, gin.H{"error": "you have reached the maximum number of workspaces for your subscription tier"})
		case errors.Is(err, workspaces.ErrOwnerNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "owner not found"})
		default:
			slog.Error("Failed to create workspace", "error", err, "owner_id", ownerID.String())
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create workspace"})
		}
		return
	}

	c.JSON(http.StatusCreated, workspaceResponse(workspace))
}

// List returns the caller's workspaces in creation order
// GET /api/workspaces
func (h *WorkspaceHandler) List(c *gin.Context) {
	ownerID, ok := callerID(c)
	if !ok {
		return
	}

	result, err := h.workspaceService.ListForOwner(c.Request.Context(), ownerID)
	if err != nil {
		slog.Error("Failed to list workspaces", "error", err, "owner_id", ownerID.String())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list workspaces"})
		return
	}

	responses := make([]dto.WorkspaceResponse, len(result))
	for i, w := range result {
		responses[i] = workspaceResponse(w)
	}
	c.JSON(http.StatusOK, dto.ListWorkspacesResponse{Workspaces: responses, Count: len(responses)})
}

// Get returns one workspace, if the caller owns it
// GET /api/workspaces/:id
func (h *WorkspaceHandler) Get(c *gin.Context) {
	ownerID, ok := callerID(c)
	if !ok {
		return
	}

	workspace, err := h.workspaceService.Get(c.Request.Context(), c.Param("id"), ownerID)
	if err != nil {
		h.renderWorkspaceError(c, err)
		return
	}
	c.JSON(http.StatusOK, workspaceResponse(workspace))
}

// Transition moves the workspace through its lifecycle
// POST /api/workspaces/:id/transition
func (h *WorkspaceHandler) Transition(c *gin.Context) {
	ownerID, ok := callerID(c)
	if !ok {
		return
	}

	var req dto.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	workspace, err := h.workspaceService.Transition(c.Request.Context(), c.Param("id"), ownerID, workspaces.Status(req.Status))
	if err != nil {
		h.renderWorkspaceError(c, err)
		return
	}
	c.JSON(http.StatusOK, workspaceResponse(workspace))
}

// GenerateOTP issues a discovery code for an owned workspace
// POST /api/workspaces/:id/generate_otp
func (h *WorkspaceHandler) GenerateOTP(c *gin.Context) {
	ownerID, ok := callerID(c)
	if !ok {
		return
	}

	var req dto.GenerateOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Ownership is verified before the issuance engine is involved.
	workspaceID := c.Param("id")
	if _, err := h.workspaceService.Get(c.Request.Context(), workspaceID, ownerID); err != nil {
		h.renderWorkspaceError(c, err)
		return
	}

	issued, err := h.otpService.Issue(c.Request.Context(), workspaceID, req.MaxUses)
	if err != nil {
		slog.Error("Failed to issue OTP", "error", err, "workspace_id", workspaceID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue OTP"})
		return
	}
	c.JSON(http.StatusCreated, otpResponse(issued))
}

// ListOTPs returns every code issued for an owned workspace
// GET /api/workspaces/:id/otps
func (h *WorkspaceHandler) ListOTPs(c *gin.Context) {
	ownerID, ok := callerID(c)
	if !ok {
		return
	}

	result, err := h.otpService.ListForWorkspace(c.Request.Context(), c.Param("id"), ownerID)
	if err != nil {
		switch {
		case errors.Is(err, otp.ErrWorkspaceNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "workspace not found"})
		case errors.Is(err, otp.ErrForbidden):
			c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		default:
			slog.Error("Failed to list OTPs", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list OTPs"})
		}
		return
	}

	responses := make([]dto.OTPResponse, len(result))
	for i, o := range result {
		responses[i] = otpResponse(o)
	}
	c.JSON(http.StatusOK, dto.ListOTPsResponse{Otps: responses, Count: len(responses)})
}

// ListLogs returns the provisioning audit trail of an owned workspace
// GET /api/workspaces/:id/logs
func (h *WorkspaceHandler) ListLogs(c *gin.Context) {
	ownerID, ok := callerID(c)
	if !ok {
		return
	}

	entries, err := h.logService.List(c.Request.Context(), c.Param("id"), ownerID)
	if err != nil {
		switch {
		case errors.Is(err, provlog.ErrWorkspaceNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "workspace not found"})
		case errors.Is(err, provlog.ErrForbidden):
			c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		default:
			slog.Error("Failed to list logs", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list logs"})
		}
		return
	}

	responses := make([]dto.LogEntryResponse, len(entries))
	for i, e := range entries {
		responses[i] = dto.LogEntryResponse{
			ID:          e.ID,
			WorkspaceID: e.WorkspaceID,
			Step:        e.Step,
			Status:      e.Status,
			Detail:      e.Detail,
			Timestamp:   e.Timestamp,
		}
	}
	c.JSON(http.StatusOK, dto.ListLogsResponse{Logs: responses, Count: len(responses)})
}

func (h *WorkspaceHandler) renderWorkspaceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, workspaces.ErrWorkspaceNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "workspace not found"})
	case errors.Is(err, workspaces.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.Is(err, workspaces.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": "invalid status transition"})
	case errors.Is(err, workspaces.ErrInvalidSpec):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		slog.Error("Workspace operation failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/adimlabs/workspace-hub/internal/api/http/dto"
	"github.com/adimlabs/workspace-hub/internal/provlog"
	"github.com/adimlabs/workspace-hub/internal/workspaces"
	"github.com/gin-gonic/gin"
)

// AdminHandler serves the orchestrator-facing routes. Callers authenticate
// with the shared API key rather than an owner token, so no ownership
// checks apply here.
type AdminHandler struct {
	workspaceService *workspaces.Service
	logService       *provlog.Service
}

func NewAdminHandler(workspaceService *workspaces.Service, logService *provlog.Service) *AdminHandler {
	return &AdminHandler{workspaceService: workspaceService, logService: logService}
}

// AppendLog records a provisioning step outcome
// POST /api/admin/workspaces/:id/logs
func (h *AdminHandler) AppendLog(c *gin.Context) {
	var req dto.AppendLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry, err := h.logService.Append(c.Request.Context(), c.Param("id"), req.Step, req.Status, req.Detail)
	if err != nil {
		if errors.Is(err, provlog.ErrWorkspaceNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "workspace not found"})
			return
		}
		slog.Error("Failed to append provisioning log", "error", err, "workspace_id", c.Param("id"))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to append log"})
		return
	}

	c.JSON(http.StatusCreated, dto.LogEntryResponse{
		ID:          entry.ID,
		WorkspaceID: entry.WorkspaceID,
		Step:        entry.Step,
		Status:      entry.Status,
		Detail:      entry.Detail,
		Timestamp:   entry.Timestamp,
	})
}

// UpdateEndpoints records the addresses the orchestrator assigned
// PUT /api/admin/workspaces/:id/endpoints
func (h *AdminHandler) UpdateEndpoints(c *gin.Context) {
	var req dto.UpdateEndpointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	workspace, err := h.workspaceService.UpdateEndpoints(c.Request.Context(), c.Param("id"), workspaces.Endpoints{
		CloudURL:     req.CloudURL,
		TailscaleURL: req.TailscaleURL,
		IPAddress:    req.IPAddress,
	})
	if err != nil {
		switch {
		case errors.Is(err, workspaces.ErrWorkspaceNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "workspace not found"})
		case errors.Is(err, workspaces.ErrInvalidSpec):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			slog.Error("Failed to update endpoints", "error", err, "workspace_id", c.Param("id"))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update endpoints"})
		}
		return
	}
	c.JSON(http.StatusOK, workspaceResponse(workspace))
}

// Transition moves a workspace through its lifecycle on the
// orchestrator's behalf
// POST /api/admin/workspaces/:id/transition
func (h *AdminHandler) Transition(c *gin.Context) {
	var req dto.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	workspace, err := h.workspaceService.AdminTransition(c.Request.Context(), c.Param("id"), workspaces.Status(req.Status))
	if err != nil {
		switch {
		case errors.Is(err, workspaces.ErrWorkspaceNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "workspace not found"})
		case errors.Is(err, workspaces.ErrInvalidTransition):
			c.JSON(http.StatusConflict, gin.H{"error": "invalid status transition"})
		default:
			slog.Error("Failed to transition workspace", "error", err, "workspace_id", c.Param("id"))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to transition workspace"})
		}
		return
	}
	c.JSON(http.StatusOK, workspaceResponse(workspace))
}

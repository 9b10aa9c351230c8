package tests

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/adimlabs/workspace-hub/internal/api/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkspaceLifecycle(t *testing.T, router *gin.Engine, adminAPIKey string) {
	token := registerAndLogin(t, router, "lifecycle@example.com", "pro")
	otherToken := registerAndLogin(t, router, "lifecycle-other@example.com", "free")

	ws := createWorkspace(t, router, token, "primary")

	t.Run("created workspace shape", func(t *testing.T) {
		assert.Regexp(t, `^ws[a-z0-9]{5}$`, ws.WorkspaceID)
		assert.Equal(t, "provisioning", ws.Status)
		assert.Equal(t, "cloud", ws.DeploymentType)
		assert.Len(t, ws.PortAllocation, 5)
		assert.Nil(t, ws.ProvisionedAt)
	})

	t.Run("get own workspace", func(t *testing.T) {
		rr := doJSONWithAuth(router, "GET", "/api/workspaces/"+ws.WorkspaceID, nil, token)
		assert.Equal(t, http.StatusOK, rr.Code)

		var resp dto.WorkspaceResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, ws.WorkspaceID, resp.WorkspaceID)
		assert.Equal(t, ws.PortAllocation, resp.PortAllocation)
	})

	t.Run("get foreign workspace forbidden", func(t *testing.T) {
		rr := doJSONWithAuth(router, "GET", "/api/workspaces/"+ws.WorkspaceID, nil, otherToken)
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("get unknown workspace", func(t *testing.T) {
		rr := doJSONWithAuth(router, "GET", "/api/workspaces/wszzzzz", nil, token)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("get without token", func(t *testing.T) {
		rr := doJSON(router, "GET", "/api/workspaces/"+ws.WorkspaceID, nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("list workspaces", func(t *testing.T) {
		createWorkspace(t, router, token, "secondary")

		rr := doJSONWithAuth(router, "GET", "/api/workspaces", nil, token)
		assert.Equal(t, http.StatusOK, rr.Code)

		var resp dto.ListWorkspacesResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		require.Equal(t, 2, resp.Count)
		// Creation order.
		assert.Equal(t, "primary", resp.Workspaces[0].Name)
		assert.Equal(t, "secondary", resp.Workspaces[1].Name)
	})

	t.Run("activate sets provisioned_at", func(t *testing.T) {
		rr := doJSONWithAuth(router, "POST", "/api/workspaces/"+ws.WorkspaceID+"/transition",
			dto.TransitionRequest{Status: "active"}, token)
		assert.Equal(t, http.StatusOK, rr.Code)

		var resp dto.WorkspaceResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, "active", resp.Status)
		assert.NotNil(t, resp.ProvisionedAt)
	})

	t.Run("invalid transition conflicts", func(t *testing.T) {
		rr := doJSONWithAuth(router, "POST", "/api/workspaces/"+ws.WorkspaceID+"/transition",
			dto.TransitionRequest{Status: "provisioning"}, token)
		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("suspend and resume", func(t *testing.T) {
		rr := doJSONWithAuth(router, "POST", "/api/workspaces/"+ws.WorkspaceID+"/transition",
			dto.TransitionRequest{Status: "suspended"}, token)
		assert.Equal(t, http.StatusOK, rr.Code)

		rr = doJSONWithAuth(router, "POST", "/api/workspaces/"+ws.WorkspaceID+"/transition",
			dto.TransitionRequest{Status: "active"}, token)
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("admin updates endpoints", func(t *testing.T) {
		rr := doJSONWithAPIKey(router, "PUT", "/api/admin/workspaces/"+ws.WorkspaceID+"/endpoints",
			dto.UpdateEndpointsRequest{
				CloudURL:     "https://primary.hub.example.com",
				TailscaleURL: "https://primary.tailnet.example.com",
				IPAddress:    "10.1.2.3",
			}, adminAPIKey)
		assert.Equal(t, http.StatusOK, rr.Code)

		var resp dto.WorkspaceResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, "https://primary.hub.example.com", resp.Endpoints.CloudURL)
		assert.Equal(t, "10.1.2.3", resp.Endpoints.IPAddress)
	})

	t.Run("admin routes reject bad key", func(t *testing.T) {
		rr := doJSONWithAPIKey(router, "POST", "/api/admin/workspaces/"+ws.WorkspaceID+"/transition",
			dto.TransitionRequest{Status: "active"}, "wrong-key")
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("admin transition", func(t *testing.T) {
		rr := doJSONWithAPIKey(router, "POST", "/api/admin/workspaces/"+ws.WorkspaceID+"/transition",
			dto.TransitionRequest{Status: "suspended"}, adminAPIKey)
		assert.Equal(t, http.StatusOK, rr.Code)

		rr = doJSONWithAPIKey(router, "POST", "/api/admin/workspaces/"+ws.WorkspaceID+"/transition",
			dto.TransitionRequest{Status: "active"}, adminAPIKey)
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("decommission is terminal", func(t *testing.T) {
		rr := doJSONWithAuth(router, "POST", "/api/workspaces/"+ws.WorkspaceID+"/transition",
			dto.TransitionRequest{Status: "decommissioned"}, token)
		assert.Equal(t, http.StatusOK, rr.Code)

		var resp dto.WorkspaceResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, "decommissioned", resp.Status)
		assert.NotNil(t, resp.DecommissionedAt)
		// Port reservations are released on decommission.
		assert.Empty(t, resp.PortAllocation)

		rr = doJSONWithAuth(router, "POST", "/api/workspaces/"+ws.WorkspaceID+"/transition",
			dto.TransitionRequest{Status: "active"}, token)
		assert.Equal(t, http.StatusConflict, rr.Code)
	})
}

func TestWorkspaceQuota(t *testing.T, router *gin.Engine) {
	token := registerAndLogin(t, router, "quota@example.com", "free")

	ws := createWorkspace(t, router, token, "only-one")

	t.Run("over quota rejected", func(t *testing.T) {
		rr := doJSONWithAuth(router, "POST", "/api/workspaces", dto.CreateWorkspaceRequest{
			Name:           "one-too-many",
			DeploymentType: "cloud",
			VCPU:           1,
			RAMGB:          1,
			StorageGB:      10,
		}, token)
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("decommissioned frees the slot", func(t *testing.T) {
		rr := doJSONWithAuth(router, "POST", "/api/workspaces/"+ws.WorkspaceID+"/transition",
			dto.TransitionRequest{Status: "decommissioned"}, token)
		require.Equal(t, http.StatusOK, rr.Code)

		createWorkspace(t, router, token, "replacement")
	})
}

func TestPortAllocation(t *testing.T, router *gin.Engine) {
	token := registerAndLogin(t, router, "ports@example.com", "pro")

	const workspaceCount = 4
	seen := make(map[int]string)
	for i := 0; i < workspaceCount; i++ {
		ws := createWorkspace(t, router, token, fmt.Sprintf("ports-%d", i))
		require.Len(t, ws.PortAllocation, 5)

		for service, port := range ws.PortAllocation {
			owner, taken := seen[port]
			assert.False(t, taken, "port %d for %s already held by %s", port, service, owner)
			seen[port] = ws.WorkspaceID
		}
	}

	t.Run("offsets trail the service base", func(t *testing.T) {
		ws := createWorkspace(t, router, token, "ports-base-check")
		for service, base := range map[string]int{
			"daphne":      8000,
			"redis":       6379,
			"qdrant_http": 6333,
			"qdrant_grpc": 6334,
			"neo4j":       7687,
		} {
			port := ws.PortAllocation[service]
			assert.GreaterOrEqual(t, port, base, "service %s", service)
			assert.Equal(t, 0, (port-base)%10, "service %s port %d off the stride", service, port)
		}
	})
}

package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/adimlabs/workspace-hub/internal/api/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvisioningLogs(t *testing.T, router *gin.Engine, adminAPIKey string) {
	token := registerAndLogin(t, router, "logs@example.com", "pro")
	ws := createWorkspace(t, router, token, "logged")

	appendEntry := func(step, status, detail string) dto.LogEntryResponse {
		rr := doJSONWithAPIKey(router, "POST", "/api/admin/workspaces/"+ws.WorkspaceID+"/logs",
			dto.AppendLogRequest{Step: step, Status: status, Detail: detail}, adminAPIKey)
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

		var resp dto.LogEntryResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		return resp
	}

	t.Run("append and list in order", func(t *testing.T) {
		appendEntry("pull_image", "started", "")
		appendEntry("pull_image", "succeeded", "image ready in 4.2s")
		appendEntry("start_containers", "started", "")

		rr := doJSONWithAuth(router, "GET", "/api/workspaces/"+ws.WorkspaceID+"/logs", nil, token)
		assert.Equal(t, http.StatusOK, rr.Code)

		var resp dto.ListLogsResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		// The lifecycle itself already wrote entries; ours come after, in
		// append order.
		require.GreaterOrEqual(t, resp.Count, 3)
		n := len(resp.Logs)
		assert.Equal(t, "pull_image", resp.Logs[n-3].Step)
		assert.Equal(t, "started", resp.Logs[n-3].Status)
		assert.Equal(t, "succeeded", resp.Logs[n-2].Status)
		assert.Equal(t, "start_containers", resp.Logs[n-1].Step)
		assert.Equal(t, "image ready in 4.2s", resp.Logs[n-2].Detail)

		for i := 1; i < n; i++ {
			assert.GreaterOrEqual(t, resp.Logs[i].ID, resp.Logs[i-1].ID)
		}
	})

	t.Run("append rejects unknown workspace", func(t *testing.T) {
		rr := doJSONWithAPIKey(router, "POST", "/api/admin/workspaces/wszzzzz/logs",
			dto.AppendLogRequest{Step: "pull_image", Status: "started"}, adminAPIKey)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("append rejects unknown status", func(t *testing.T) {
		rr := doJSONWithAPIKey(router, "POST", "/api/admin/workspaces/"+ws.WorkspaceID+"/logs",
			dto.AppendLogRequest{Step: "pull_image", Status: "exploded"}, adminAPIKey)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("list requires ownership", func(t *testing.T) {
		otherToken := registerAndLogin(t, router, "logs-other@example.com", "free")
		rr := doJSONWithAuth(router, "GET", "/api/workspaces/"+ws.WorkspaceID+"/logs", nil, otherToken)
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("list without token", func(t *testing.T) {
		rr := doJSON(router, "GET", "/api/workspaces/"+ws.WorkspaceID+"/logs", nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

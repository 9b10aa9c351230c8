package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/adimlabs/workspace-hub/internal/api/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const genericOTPError = "OTP is invalid or has expired"

func TestOTPIssueAndValidate(t *testing.T, router *gin.Engine, adminAPIKey string) {
	token := registerAndLogin(t, router, "otp@example.com", "pro")
	ws := createWorkspace(t, router, token, "otp-target")

	issued := issueOTP(t, router, token, ws.WorkspaceID, 0)

	t.Run("issued code shape", func(t *testing.T) {
		assert.Regexp(t, `^[A-Z0-9]{6}$`, issued.OTPCode)
		assert.Equal(t, ws.WorkspaceID, issued.WorkspaceID)
		assert.True(t, issued.IsActive)
		assert.True(t, issued.IsValid)
		assert.Equal(t, 0, issued.UseCount)
		assert.Equal(t, 0, issued.MaxUses)
	})

	t.Run("validate returns discovery payload", func(t *testing.T) {
		rr := doJSON(router, "POST", "/api/otps/validate", dto.ValidateOTPRequest{OTP: issued.OTPCode})
		assert.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		var resp dto.ValidateOTPResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, ws.WorkspaceID, resp.WorkspaceID)
		assert.Equal(t, "otp-target", resp.Name)
		assert.Equal(t, issued.OTPCode, resp.OTP)
		assert.Equal(t, "provisioning", resp.Status)
		assert.Equal(t, "pro", resp.Subscription)
		assert.Nil(t, resp.Endpoints.Cloud)
	})

	t.Run("validate is case insensitive", func(t *testing.T) {
		rr := doJSON(router, "POST", "/api/otps/validate", dto.ValidateOTPRequest{OTP: "  " + strings.ToLower(issued.OTPCode) + " "})
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("validate sees current endpoints", func(t *testing.T) {
		rr := doJSONWithAPIKey(router, "PUT", "/api/admin/workspaces/"+ws.WorkspaceID+"/endpoints",
			dto.UpdateEndpointsRequest{CloudURL: "https://otp-target.hub.example.com"}, adminAPIKey)
		require.Equal(t, http.StatusOK, rr.Code)

		rr = doJSON(router, "POST", "/api/otps/validate", dto.ValidateOTPRequest{OTP: issued.OTPCode})
		assert.Equal(t, http.StatusOK, rr.Code)

		var resp dto.ValidateOTPResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		require.NotNil(t, resp.Endpoints.Cloud)
		assert.Equal(t, "https://otp-target.hub.example.com", *resp.Endpoints.Cloud)
	})

	t.Run("unknown code fails with generic error", func(t *testing.T) {
		rr := doJSON(router, "POST", "/api/otps/validate", dto.ValidateOTPRequest{OTP: "ZZZZZZ"})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.JSONEq(t, `{"error":"`+genericOTPError+`"}`, rr.Body.String())
	})

	t.Run("list otps requires ownership", func(t *testing.T) {
		rr := doJSONWithAuth(router, "GET", "/api/workspaces/"+ws.WorkspaceID+"/otps", nil, token)
		assert.Equal(t, http.StatusOK, rr.Code)

		var resp dto.ListOTPsResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.GreaterOrEqual(t, resp.Count, 1)

		otherToken := registerAndLogin(t, router, "otp-other@example.com", "free")
		rr = doJSONWithAuth(router, "GET", "/api/workspaces/"+ws.WorkspaceID+"/otps", nil, otherToken)
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("revoked code fails with the same generic error", func(t *testing.T) {
		revokable := issueOTP(t, router, token, ws.WorkspaceID, 0)

		rr := doJSONWithAuth(router, "DELETE", "/api/otps/"+revokable.ID, nil, token)
		assert.Equal(t, http.StatusOK, rr.Code)

		var resp dto.OTPResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.False(t, resp.IsActive)
		assert.False(t, resp.IsValid)

		rr = doJSON(router, "POST", "/api/otps/validate", dto.ValidateOTPRequest{OTP: revokable.OTPCode})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.JSONEq(t, `{"error":"`+genericOTPError+`"}`, rr.Body.String())
	})

	t.Run("revoke foreign otp forbidden", func(t *testing.T) {
		foreign := issueOTP(t, router, token, ws.WorkspaceID, 0)

		otherToken := registerAndLogin(t, router, "otp-thief@example.com", "free")
		rr := doJSONWithAuth(router, "DELETE", "/api/otps/"+foreign.ID, nil, otherToken)
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})
}

func TestOTPBoundedUse(t *testing.T, router *gin.Engine, pool *pgxpool.Pool) {
	token := registerAndLogin(t, router, "otp-bounded@example.com", "pro")
	ws := createWorkspace(t, router, token, "otp-bounded")

	t.Run("bounded code exhausts", func(t *testing.T) {
		issued := issueOTP(t, router, token, ws.WorkspaceID, 2)

		for i := 0; i < 2; i++ {
			rr := doJSON(router, "POST", "/api/otps/validate", dto.ValidateOTPRequest{OTP: issued.OTPCode})
			assert.Equal(t, http.StatusOK, rr.Code, "use %d", i+1)
		}

		rr := doJSON(router, "POST", "/api/otps/validate", dto.ValidateOTPRequest{OTP: issued.OTPCode})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.JSONEq(t, `{"error":"`+genericOTPError+`"}`, rr.Body.String())
	})

	t.Run("unlimited code survives many uses", func(t *testing.T) {
		issued := issueOTP(t, router, token, ws.WorkspaceID, 0)

		for i := 0; i < 5; i++ {
			rr := doJSON(router, "POST", "/api/otps/validate", dto.ValidateOTPRequest{OTP: issued.OTPCode})
			assert.Equal(t, http.StatusOK, rr.Code, "use %d", i+1)
		}
	})

	t.Run("expired code fails with generic error", func(t *testing.T) {
		issued := issueOTP(t, router, token, ws.WorkspaceID, 0)

		_, err := pool.Exec(context.Background(),
			`UPDATE workspace_otps SET expires_at = now() - interval '1 hour' WHERE otp_code = $1`,
			issued.OTPCode)
		require.NoError(t, err)

		rr := doJSON(router, "POST", "/api/otps/validate", dto.ValidateOTPRequest{OTP: issued.OTPCode})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.JSONEq(t, `{"error":"`+genericOTPError+`"}`, rr.Body.String())
	})
}

// TestOTPConcurrentRedemption hammers a single-use code from many
// goroutines and expects exactly one winner.
func TestOTPConcurrentRedemption(t *testing.T, router *gin.Engine) {
	token := registerAndLogin(t, router, "otp-race@example.com", "pro")
	ws := createWorkspace(t, router, token, "otp-race")

	issued := issueOTP(t, router, token, ws.WorkspaceID, 1)

	const attempts = 16
	results := make(chan int, attempts)

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rr := doJSON(router, "POST", "/api/otps/validate", dto.ValidateOTPRequest{OTP: issued.OTPCode})
			results <- rr.Code
		}()
	}
	wg.Wait()
	close(results)

	successes := 0
	for code := range results {
		switch code {
		case http.StatusOK:
			successes++
		case http.StatusBadRequest:
		default:
			t.Errorf("unexpected status %d", code)
		}
	}
	assert.Equal(t, 1, successes)
}

func issueOTP(t *testing.T, router *gin.Engine, token, workspaceID string, maxUses int) dto.OTPResponse {
	t.Helper()

	rr := doJSONWithAuth(router, "POST", "/api/workspaces/"+workspaceID+"/generate_otp",
		dto.GenerateOTPRequest{MaxUses: maxUses}, token)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var resp dto.OTPResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp
}

package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/adimlabs/workspace-hub/internal/api/http/dto"
	"github.com/adimlabs/workspace-hub/internal/auth"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T, router *gin.Engine) {
	t.Run("success with default tier", func(t *testing.T) {
		body := dto.RegisterRequest{Email: "alice@example.com", Password: "password123"}
		rr := doJSON(router, "POST", "/api/auth/register", body)

		assert.Equal(t, http.StatusCreated, rr.Code)

		var resp dto.RegisterResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, "alice@example.com", resp.Email)
		assert.Equal(t, "free", resp.SubscriptionTier)
		assert.Equal(t, 1, resp.MaxWorkspaces)
		assert.NotEmpty(t, resp.ID)
	})

	t.Run("success with pro tier", func(t *testing.T) {
		body := dto.RegisterRequest{Email: "bob@example.com", Password: "password123", SubscriptionTier: "pro"}
		rr := doJSON(router, "POST", "/api/auth/register", body)

		assert.Equal(t, http.StatusCreated, rr.Code)

		var resp dto.RegisterResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, "pro", resp.SubscriptionTier)
		assert.Equal(t, 10, resp.MaxWorkspaces)
	})

	t.Run("duplicate email", func(t *testing.T) {
		body := dto.RegisterRequest{Email: "dup@example.com", Password: "password123"}
		rr := doJSON(router, "POST", "/api/auth/register", body)
		require.Equal(t, http.StatusCreated, rr.Code)

		rr = doJSON(router, "POST", "/api/auth/register", body)
		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("invalid email", func(t *testing.T) {
		body := dto.RegisterRequest{Email: "not-an-email", Password: "password123"}
		rr := doJSON(router, "POST", "/api/auth/register", body)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("password too short", func(t *testing.T) {
		body := dto.RegisterRequest{Email: "shortpw@example.com", Password: "short"}
		rr := doJSON(router, "POST", "/api/auth/register", body)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("unknown tier rejected", func(t *testing.T) {
		body := dto.RegisterRequest{Email: "tier@example.com", Password: "password123", SubscriptionTier: "platinum"}
		rr := doJSON(router, "POST", "/api/auth/register", body)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestLogin(t *testing.T, router *gin.Engine, jwtSecret string) {
	regBody := dto.RegisterRequest{Email: "login@example.com", Password: "password123", SubscriptionTier: "starter"}
	rr := doJSON(router, "POST", "/api/auth/register", regBody)
	require.Equal(t, http.StatusCreated, rr.Code)

	t.Run("success", func(t *testing.T) {
		body := dto.LoginRequest{Email: "login@example.com", Password: "password123"}
		rr := doJSON(router, "POST", "/api/auth/login", body)

		assert.Equal(t, http.StatusOK, rr.Code)

		var resp dto.LoginResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.Token)

		claims, err := auth.ValidateToken(jwtSecret, resp.Token)
		require.NoError(t, err)
		assert.Equal(t, "login@example.com", claims.Email)
		assert.Equal(t, "starter", claims.Tier)
	})

	t.Run("wrong password", func(t *testing.T) {
		body := dto.LoginRequest{Email: "login@example.com", Password: "wrongpassword"}
		rr := doJSON(router, "POST", "/api/auth/login", body)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("nonexistent owner", func(t *testing.T) {
		body := dto.LoginRequest{Email: "nobody@example.com", Password: "password123"}
		rr := doJSON(router, "POST", "/api/auth/login", body)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func doJSON(router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	return doJSONWithHeaders(router, method, path, body, nil)
}

func doJSONWithAuth(router *gin.Engine, method, path string, body any, token string) *httptest.ResponseRecorder {
	return doJSONWithHeaders(router, method, path, body, map[string]string{"Authorization": "Bearer " + token})
}

func doJSONWithAPIKey(router *gin.Engine, method, path string, body any, apiKey string) *httptest.ResponseRecorder {
	return doJSONWithHeaders(router, method, path, body, map[string]string{"X-API-Key": apiKey})
}

func doJSONWithHeaders(router *gin.Engine, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

// registerAndLogin provisions a fresh owner and returns a bearer token.
func registerAndLogin(t *testing.T, router *gin.Engine, email, tier string) string {
	t.Helper()

	rr := doJSON(router, "POST", "/api/auth/register", dto.RegisterRequest{
		Email:            email,
		Password:         "password123",
		SubscriptionTier: tier,
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = doJSON(router, "POST", "/api/auth/login", dto.LoginRequest{Email: email, Password: "password123"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp dto.LoginResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp.Token
}

// createWorkspace provisions a workspace for the token's owner and returns it.
func createWorkspace(t *testing.T, router *gin.Engine, token, name string) dto.WorkspaceResponse {
	t.Helper()

	rr := doJSONWithAuth(router, "POST", "/api/workspaces", dto.CreateWorkspaceRequest{
		Name:           name,
		DeploymentType: "cloud",
		Region:         "us-east-1",
		VCPU:           2,
		RAMGB:          4,
		StorageGB:      50,
	}, token)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var resp dto.WorkspaceResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp
}

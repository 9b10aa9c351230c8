package systemtest

import (
	"context"
	"testing"

	internalhttp "github.com/adimlabs/workspace-hub/internal/api/http"
	"github.com/adimlabs/workspace-hub/internal/auth"
	"github.com/adimlabs/workspace-hub/internal/db"
	"github.com/adimlabs/workspace-hub/internal/db/store"
	"github.com/adimlabs/workspace-hub/internal/metrics"
	"github.com/adimlabs/workspace-hub/internal/otp"
	"github.com/adimlabs/workspace-hub/internal/provlog"
	"github.com/adimlabs/workspace-hub/internal/workspaces"
	"github.com/adimlabs/workspace-hub/systemtest/postgres"
	"github.com/adimlabs/workspace-hub/systemtest/tests"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

const (
	testJWTSecret   = "systemtest-secret"
	testAdminAPIKey = "systemtest-admin-key"
	testSchema      = "workspace_hub"
)

func TestSystemIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping system test in short mode")
	}

	ctx := context.Background()

	container, err := postgres.StartPostgres(ctx, "postgres", "postgres", "workspace_hub")
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := postgres.TerminatePostgres(context.Background(), container); err != nil {
			t.Logf("failed to terminate postgres container: %v", err)
		}
	})

	dbURL, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, db.RunMigrations(dbURL, testSchema))

	pool, err := db.InitDB(ctx, dbURL, testSchema)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	st := store.New(pool)
	m := metrics.New()
	logService := provlog.NewService(st)
	authService := auth.NewService(st, auth.Config{
		JWT:        auth.JWTConfig{Secret: testJWTSecret, TTLHours: 1},
		TierQuotas: map[string]int{"free": 1, "starter": 3, "pro": 10},
	})
	workspaceService := workspaces.NewService(st, workspaces.Config{
		IDMaxAttempts: 10,
		MaxVCPU:       64,
		MaxRAMGB:      512,
		MaxStorageGB:  4096,
		Ports: workspaces.PortConfig{
			Services: map[string]int{
				"daphne":      8000,
				"redis":       6379,
				"qdrant_http": 6333,
				"qdrant_grpc": 6334,
				"neo4j":       7687,
			},
			Step:       10,
			MaxOffsets: 1000,
		},
	}, logService, m)
	otpService := otp.NewService(st, otp.Config{
		ValidityHours: 24,
		CodeLength:    6,
		MaxAttempts:   10,
	}, logService, m)

	gin.SetMode(gin.TestMode)
	engine := gin.New()
	internalhttp.SetupRoute(engine, &internalhttp.Config{AdminAPIKey: testAdminAPIKey}, testJWTSecret, &internalhttp.Services{
		Auth:       authService,
		Workspaces: workspaceService,
		Otps:       otpService,
		Logs:       logService,
		Metrics:    m,
	})

	t.Run("Auth", func(t *testing.T) {
		tests.TestRegister(t, engine)
		tests.TestLogin(t, engine, testJWTSecret)
	})
	t.Run("Workspaces", func(t *testing.T) {
		tests.TestWorkspaceLifecycle(t, engine, testAdminAPIKey)
		tests.TestWorkspaceQuota(t, engine)
		tests.TestPortAllocation(t, engine)
	})
	t.Run("Otps", func(t *testing.T) {
		tests.TestOTPIssueAndValidate(t, engine, testAdminAPIKey)
		tests.TestOTPBoundedUse(t, engine, pool)
		tests.TestOTPConcurrentRedemption(t, engine)
	})
	t.Run("Logs", func(t *testing.T) {
		tests.TestProvisioningLogs(t, engine, testAdminAPIKey)
	})
}

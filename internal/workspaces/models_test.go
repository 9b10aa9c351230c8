package workspaces

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	allowed := []struct{ from, to Status }{
		{StatusProvisioning, StatusActive},
		{StatusProvisioning, StatusFailed},
		{StatusActive, StatusSuspended},
		{StatusSuspended, StatusActive},
		{StatusProvisioning, StatusDecommissioned},
		{StatusActive, StatusDecommissioned},
		{StatusSuspended, StatusDecommissioned},
		{StatusFailed, StatusDecommissioned},
	}
	for _, tc := range allowed {
		assert.True(t, CanTransition(tc.from, tc.to), "%s -> %s should be allowed", tc.from, tc.to)
	}

	denied := []struct{ from, to Status }{
		{StatusActive, StatusProvisioning},
		{StatusActive, StatusFailed},
		{StatusSuspended, StatusFailed},
		{StatusSuspended, StatusProvisioning},
		{StatusFailed, StatusActive},
		{StatusFailed, StatusSuspended},
		{StatusDecommissioned, StatusActive},
		{StatusDecommissioned, StatusProvisioning},
		{StatusDecommissioned, StatusDecommissioned},
		{StatusProvisioning, StatusSuspended},
	}
	for _, tc := range denied {
		assert.False(t, CanTransition(tc.from, tc.to), "%s -> %s should be denied", tc.from, tc.to)
	}
}

func TestDecommissionedIsTerminal(t *testing.T) {
	for to := range transitionSources {
		assert.False(t, CanTransition(StatusDecommissioned, to),
			"decommissioned must not transition to %s", to)
	}
}

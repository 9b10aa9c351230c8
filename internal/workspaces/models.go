package workspaces

import "time"

type Status string

const (
	StatusProvisioning   Status = "provisioning"
	StatusActive         Status = "active"
	StatusSuspended      Status = "suspended"
	StatusFailed         Status = "failed"
	StatusDecommissioned Status = "decommissioned"
)

type DeploymentType string

const (
	DeploymentCloud     DeploymentType = "cloud"
	DeploymentBareMetal DeploymentType = "bare_metal"
)

// transitionSources maps a target status to the statuses a workspace may
// leave from. Decommissioning is terminal and reachable from anywhere else;
// provisioning is only ever the initial state.
var transitionSources = map[Status][]Status{
	StatusActive:         {StatusProvisioning, StatusSuspended},
	StatusFailed:         {StatusProvisioning},
	StatusSuspended:      {StatusActive},
	StatusDecommissioned: {StatusProvisioning, StatusActive, StatusSuspended, StatusFailed},
}

// CanTransition reports whether the lifecycle state machine allows moving
// from one status to another.
func CanTransition(from, to Status) bool {
	for _, s := range transitionSources[to] {
		if s == from {
			return true
		}
	}
	return false
}

func sourceStatuses(to Status) []string {
	sources := transitionSources[to]
	result := make([]string, len(sources))
	for i, s := range sources {
		result[i] = string(s)
	}
	return result
}

type Endpoints struct {
	CloudURL     string
	TailscaleURL string
	IPAddress    string
}

type Resources struct {
	VCPU      int
	RAMGB     int
	StorageGB int
}

type Workspace struct {
	WorkspaceID      string
	OwnerID          string
	Name             string
	DeploymentType   DeploymentType
	Status           Status
	Region           string
	Endpoints        Endpoints
	Resources        Resources
	PortAllocation   map[string]int
	Features         map[string]any
	CreatedAt        time.Time
	UpdatedAt        time.Time
	ProvisionedAt    *time.Time
	DecommissionedAt *time.Time
}

// CreateSpec is the caller-supplied resource and deployment request.
type CreateSpec struct {
	Name           string
	DeploymentType DeploymentType
	Region         string
	VCPU           int
	RAMGB          int
	StorageGB      int
}

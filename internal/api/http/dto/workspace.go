package dto

import "time"

type CreateWorkspaceRequest struct {
	Name           string `json:"name" binding:"required,max=100"`
	DeploymentType string `json:"deployment_type" binding:"required,oneof=cloud bare_metal"`
	Region         string `json:"region"`
	VCPU           int    `json:"vcpu" binding:"required,min=1"`
	RAMGB          int    `json:"ram_gb" binding:"required,min=1"`
	StorageGB      int    `json:"storage_gb" binding:"required,min=1"`
}

type EndpointsPayload struct {
	CloudURL     string `json:"cloud_url"`
	TailscaleURL string `json:"tailscale_url"`
	IPAddress    string `json:"ip_address"`
}

type WorkspaceResponse struct {
	WorkspaceID      string           `json:"workspace_id"`
	Name             string           `json:"name"`
	DeploymentType   string           `json:"deployment_type"`
	Status           string           `json:"status"`
	Region           string           `json:"region,omitempty"`
	Endpoints        EndpointsPayload `json:"endpoints"`
	VCPU             int              `json:"vcpu"`
	RAMGB            int              `json:"ram_gb"`
	StorageGB        int              `json:"storage_gb"`
	PortAllocation   map[string]int   `json:"port_allocation"`
	Features         map[string]any   `json:"features,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
	ProvisionedAt    *time.Time       `json:"provisioned_at,omitempty"`
	DecommissionedAt *time.Time       `json:"decommissioned_at,omitempty"`
}

type ListWorkspacesResponse struct {
	Workspaces []WorkspaceResponse `json:"workspaces"`
	Count      int                 `json:"count"`
}

type TransitionRequest struct {
	Status string `json:"status" binding:"required,oneof=provisioning active suspended failed decommissioned"`
}

type UpdateEndpointsRequest struct {
	CloudURL     string `json:"cloud_url" binding:"omitempty,url"`
	TailscaleURL string `json:"tailscale_url" binding:"omitempty,url"`
	IPAddress    string `json:"ip_address" binding:"omitempty,ip"`
}

package pds

// Repo is one entry of com.atproto.sync.listRepos.
type Repo struct {
	DID    string `json:"did"`
	Head   string `json:"head"`
	Rev    string `json:"rev"`
	Active *bool  `json:"active,omitempty"`
	Status string `json:"status,omitempty"` // takendown, suspended, deactivated
}

// IsActive reports whether the repo is active. Older servers omit the field,
// in which case the repo counts as active.
func (r *Repo) IsActive() bool {
	return r.Active == nil || *r.Active
}

// ListReposResponse is the body of com.atproto.sync.listRepos.
type ListReposResponse struct {
	Cursor string `json:"cursor,omitempty"`
	Repos  []Repo `json:"repos"`
}

// HealthResponse is the body of /xrpc/_health.
type HealthResponse struct {
	Version string `json:"version"`
	Error   string `json:"error,omitempty"`
}

// ErrorResponse is the XRPC error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

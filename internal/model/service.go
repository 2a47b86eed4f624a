package model

import "sort"

// AccountUsage is the storage accounting of a single PDS account.
type AccountUsage struct {
	DID          string `json:"did"`
	Records      int64  `json:"records"`
	Blobs        int64  `json:"blobs"`
	RepoBytes    uint64 `json:"repo_bytes"`    // actor store directory
	BlobBytes    uint64 `json:"blob_bytes"`    // blocks directory
	StorageBytes uint64 `json:"storage_bytes"` // RepoBytes + BlobBytes
	// Error is set when the account's store could not be read. Counts are zero then.
	Error string `json:"error,omitempty"`
}

// ServiceMetrics contains the PDS level sample of a single run.
type ServiceMetrics struct {
	DataDir          string          `json:"data_dir"`
	Hostname         string          `json:"hostname,omitempty"`
	Version          string          `json:"version,omitempty"`
	AccountCount     int64           `json:"account_count"`
	StorageUsedBytes uint64          `json:"storage_used_bytes"`
	Accounts         []*AccountUsage `json:"accounts"`

	// Truncated marks AccountCount and StorageUsedBytes as lower bounds.
	Truncated        bool   `json:"truncated"`
	TruncationReason string `json:"truncation_reason,omitempty"`
}

// AddAccount appends an account row and adds its storage to the aggregate.
func (s *ServiceMetrics) AddAccount(usage *AccountUsage) {
	if usage == nil {
		return
	}
	s.Accounts = append(s.Accounts, usage)
	s.StorageUsedBytes += usage.StorageBytes
}

// SortAccounts orders account rows by DID.
func (s *ServiceMetrics) SortAccounts() {
	sort.SliceStable(s.Accounts, func(i, j int) bool {
		return s.Accounts[i].DID < s.Accounts[j].DID
	})
}

// MarkTruncated flags the service figures as a lower bound. The first reason wins.
func (s *ServiceMetrics) MarkTruncated(reason string) {
	if !s.Truncated {
		s.TruncationReason = reason
	}
	s.Truncated = true
}

// FailedAccounts returns the number of account rows carrying an error.
func (s *ServiceMetrics) FailedAccounts() int {
	n := 0
	for _, a := range s.Accounts {
		if a != nil && a.Error != "" {
			n++
		}
	}
	return n
}

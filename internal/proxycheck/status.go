package proxycheck

import "time"

// State is the tri-state of a proxy's last check.
type State string

const (
	StateChecking State = "checking"
	StateWorking  State = "working"
	StateFailed   State = "failed"
)

// Status is the last known reachability of one proxy.
type Status struct {
	State     State     `json:"status"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Summary counts final states after a bulk check.
type Summary struct {
	Total   int `json:"total"`
	Working int `json:"working"`
	Failed  int `json:"failed"`
}

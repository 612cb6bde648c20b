// pkg/registry/schema.go
package registry

import (
	"fmt"
	"time"
)

// Status is the implementation state of an activity.
type Status string

const (
	StatusPlanned     Status = "planned"
	StatusInProgress  Status = "in-progress"
	StatusImplemented Status = "implemented"
)

func (s Status) valid() bool {
	switch s {
	case StatusPlanned, StatusInProgress, StatusImplemented:
		return true
	}
	return false
}

// ActivityRegistry is the catalogue of credit-card service tasks the worker
// manager can serve, together with the payload contract of each.
type ActivityRegistry struct {
	Version     string     `json:"version"`
	LastUpdated string     `json:"lastUpdated"`
	Activities  []Activity `json:"activities"`
}

// Activity describes one service task. InputSchema is enforced on job
// variables; OutputSchema documents what the worker completes with.
type Activity struct {
	ID                   string                 `json:"id"`
	DisplayName          string                 `json:"displayName"`
	Description          string                 `json:"description"`
	Category             string                 `json:"category"`
	Version              string                 `json:"version"`
	TaskType             string                 `json:"taskType"`
	ImplementationStatus Status                 `json:"implementationStatus"`
	InputSchema          map[string]interface{} `json:"inputSchema"`
	OutputSchema         map[string]interface{} `json:"outputSchema"`
	ErrorCodes           []string               `json:"errorCodes"`
	Timeout              string                 `json:"timeout,omitempty"`
	Retries              int                    `json:"retries"`
	Workflows            []string               `json:"workflows"`
	Tags                 []string               `json:"tags"`
}

func (a *Activity) Implemented() bool {
	return a.ImplementationStatus == StatusImplemented
}

// TimeoutDuration parses Timeout. An empty timeout returns zero so callers
// keep their own default.
func (a *Activity) TimeoutDuration() (time.Duration, error) {
	if a.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(a.Timeout)
	if err != nil {
		return 0, fmt.Errorf("timeout %q: %w", a.Timeout, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("timeout %q must be positive", a.Timeout)
	}
	return d, nil
}

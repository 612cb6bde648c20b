// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"card-decision-workers/internal/common/validation"
)

var ErrActivityNotFound = errors.New("activity not found")

func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read registry %s: %w", path, err)
	}
	var reg ActivityRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse registry %s: %w", path, err)
	}
	return &reg, nil
}

// Save writes the registry back with a fresh lastUpdated stamp.
func (r *ActivityRegistry) Save(path string) error {
	r.LastUpdated = time.Now().UTC().Format(time.RFC3339)
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encode registry: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

func (r *ActivityRegistry) FindByTaskType(taskType string) (*Activity, error) {
	for i := range r.Activities {
		if r.Activities[i].TaskType == taskType {
			return &r.Activities[i], nil
		}
	}
	return nil, fmt.Errorf("%w: task type %s", ErrActivityNotFound, taskType)
}

func (r *ActivityRegistry) FindByID(id string) (*Activity, error) {
	for i := range r.Activities {
		if r.Activities[i].ID == id {
			return &r.Activities[i], nil
		}
	}
	return nil, fmt.Errorf("%w: id %s", ErrActivityNotFound, id)
}

// InputValidator compiles the input schema of the activity for taskType.
func (r *ActivityRegistry) InputValidator(taskType string) (*validation.Validator, error) {
	a, err := r.FindByTaskType(taskType)
	if err != nil {
		return nil, err
	}
	if len(a.InputSchema) == 0 {
		return nil, fmt.Errorf("activity %s has no input schema", a.ID)
	}
	return validation.Compile(a.InputSchema)
}

// Validate checks identifiers are present and unique, that status, retries
// and timeout are well formed and that every schema compiles. All problems
// are returned together.
func (r *ActivityRegistry) Validate() error {
	var errs []error
	ids := make(map[string]bool)
	taskTypes := make(map[string]bool)

	for _, a := range r.Activities {
		if a.ID == "" || a.TaskType == "" {
			errs = append(errs, fmt.Errorf("activity %q: id and taskType are required", a.DisplayName))
			continue
		}
		if ids[a.ID] {
			errs = append(errs, fmt.Errorf("duplicate activity id %s", a.ID))
		}
		if taskTypes[a.TaskType] {
			errs = append(errs, fmt.Errorf("duplicate task type %s", a.TaskType))
		}
		ids[a.ID], taskTypes[a.TaskType] = true, true

		if a.ImplementationStatus != "" && !a.ImplementationStatus.valid() {
			errs = append(errs, fmt.Errorf("activity %s: unknown implementation status %q", a.ID, a.ImplementationStatus))
		}
		if a.Retries < 0 {
			errs = append(errs, fmt.Errorf("activity %s: retries must not be negative", a.ID))
		}
		if _, err := a.TimeoutDuration(); err != nil {
			errs = append(errs, fmt.Errorf("activity %s: %w", a.ID, err))
		}

		for name, schema := range map[string]map[string]interface{}{"inputSchema": a.InputSchema, "outputSchema": a.OutputSchema} {
			if len(schema) == 0 {
				continue
			}
			if _, err := validation.Compile(schema); err != nil {
				errs = append(errs, fmt.Errorf("activity %s %s: %w", a.ID, name, err))
			}
		}
	}
	return errors.Join(errs...)
}

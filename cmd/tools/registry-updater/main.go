// cmd/tools/registry-updater/main.go
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"

	"card-decision-workers/pkg/registry"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	if len(args) < 1 {
		help(out)
		return errors.New("command required")
	}

	switch args[0] {
	case "add":
		return runAdd(args[1:], out)
	case "update":
		return runUpdate(args[1:], out)
	case "validate":
		return runValidate(args[1:], out)
	default:
		help(out)
		return nil
	}
}

func runAdd(args []string, out io.Writer) error {
	flags := flag.NewFlagSet("add", flag.ContinueOnError)
	path := flags.String("path", "configs/activity-registry.json", "Path to registry file")
	id := flags.String("id", "", "Activity ID (e.g., fetch-cbs-scores)")
	displayName := flags.String("displayName", "", "Display name")
	description := flags.String("description", "", "Description")
	category := flags.String("category", "", "Category (e.g., data-access)")
	taskType := flags.String("taskType", "", "Zeebe task type")
	version := flags.String("version", "1.0.0", "Version")
	status := flags.String("status", "planned", "Implementation status (planned, in-progress, implemented)")
	timeout := flags.String("timeout", "30s", "Job timeout")
	retries := flags.Int("retries", 0, "Job retries")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *id == "" || *displayName == "" || *taskType == "" {
		return errors.New("id, displayName and taskType are required for add")
	}

	reg, err := loadOrCreate(*path)
	if err != nil {
		return err
	}
	if _, err := reg.FindByID(*id); err == nil {
		return fmt.Errorf("activity with ID %s already exists", *id)
	}

	reg.Activities = append(reg.Activities, registry.Activity{
		ID:                   *id,
		DisplayName:          *displayName,
		Description:          *description,
		Category:             *category,
		Version:              *version,
		TaskType:             *taskType,
		ImplementationStatus: registry.Status(*status),
		InputSchema:          map[string]interface{}{"type": "object"},
		OutputSchema:         map[string]interface{}{"type": "object"},
		ErrorCodes:           []string{},
		Timeout:              *timeout,
		Retries:              *retries,
		Workflows:            []string{},
		Tags:                 []string{},
	})
	if err := reg.Validate(); err != nil {
		return err
	}
	if err := reg.Save(*path); err != nil {
		return err
	}
	fmt.Fprintf(out, "Added activity: %s\n", *id)
	return nil
}

func runUpdate(args []string, out io.Writer) error {
	flags := flag.NewFlagSet("update", flag.ContinueOnError)
	path := flags.String("path", "configs/activity-registry.json", "Path to registry file")
	id := flags.String("id", "", "Activity ID to update")
	field := flags.String("field", "", "Field to update (status, version, timeout, retries, description)")
	value := flags.String("value", "", "New value for the field")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *id == "" || *field == "" || *value == "" {
		return errors.New("id, field and value are required for update")
	}

	reg, err := registry.LoadRegistry(*path)
	if err != nil {
		return err
	}
	a, err := reg.FindByID(*id)
	if err != nil {
		return err
	}

	switch *field {
	case "status":
		a.ImplementationStatus = registry.Status(*value)
	case "version":
		a.Version = *value
	case "timeout":
		a.Timeout = *value
	case "description":
		a.Description = *value
	case "retries":
		n, err := strconv.Atoi(*value)
		if err != nil || n < 0 {
			return fmt.Errorf("retries must be a non-negative integer, got %q", *value)
		}
		a.Retries = n
	default:
		return fmt.Errorf("unsupported field %q", *field)
	}

	if err := reg.Validate(); err != nil {
		return err
	}
	if err := reg.Save(*path); err != nil {
		return err
	}
	fmt.Fprintf(out, "Updated activity %s, field %s to %s\n", *id, *field, *value)
	return nil
}

func runValidate(args []string, out io.Writer) error {
	flags := flag.NewFlagSet("validate", flag.ContinueOnError)
	path := flags.String("path", "configs/activity-registry.json", "Path to registry file")
	if err := flags.Parse(args); err != nil {
		return err
	}

	reg, err := registry.LoadRegistry(*path)
	if err != nil {
		return err
	}
	if err := reg.Validate(); err != nil {
		return fmt.Errorf("registry validation failed: %w", err)
	}
	fmt.Fprintf(out, "Registry validation passed (%d activities).\n", len(reg.Activities))
	return nil
}

func loadOrCreate(path string) (*registry.ActivityRegistry, error) {
	reg, err := registry.LoadRegistry(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &registry.ActivityRegistry{Version: "1.0.0", Activities: []registry.Activity{}}, nil
	}
	return reg, err
}

func help(out io.Writer) {
	fmt.Fprintln(out, `Usage: registry-updater <command> [flags]

Commands:
  add       Add a new activity to the registry
  update    Update a field of an existing activity
  validate  Check ids, task types and JSON schemas

Run "registry-updater <command> -h" for command flags.`)
}

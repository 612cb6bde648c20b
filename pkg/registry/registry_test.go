package registry

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shippedRegistry(t *testing.T) *ActivityRegistry {
	reg, err := LoadRegistry(filepath.Join("..", "..", "configs", "activity-registry.json"))
	require.NoError(t, err)
	return reg
}

func TestLoadRegistry_Shipped(t *testing.T) {
	reg := shippedRegistry(t)

	assert.NoError(t, reg.Validate())
	for _, taskType := range []string{"fetch-applicant-record", "fetch-cbs-scores", "evaluate-credit-card-application", "notify-risk-review"} {
		a, err := reg.FindByTaskType(taskType)
		require.NoError(t, err, taskType)
		assert.NotEmpty(t, a.InputSchema)
		assert.True(t, a.Implemented(), taskType)
	}
}

func TestLoadRegistry_Errors(t *testing.T) {
	_, err := LoadRegistry(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o644))
	_, err = LoadRegistry(bad)
	assert.Error(t, err)
}

func TestFind(t *testing.T) {
	reg := &ActivityRegistry{Activities: []Activity{{ID: "a", TaskType: "task-a"}}}

	a, err := reg.FindByID("a")
	require.NoError(t, err)
	a.Version = "2.0.0"
	assert.Equal(t, "2.0.0", reg.Activities[0].Version, "Find returns a pointer into the registry")

	_, err = reg.FindByTaskType("task-b")
	assert.ErrorIs(t, err, ErrActivityNotFound)
	_, err = reg.FindByID("b")
	assert.ErrorIs(t, err, ErrActivityNotFound)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		acts    []Activity
		wantErr []string
	}{
		{
			name: "valid",
			acts: []Activity{{ID: "a", TaskType: "a", InputSchema: map[string]interface{}{"type": "object"}}},
		},
		{
			name:    "missing ids",
			acts:    []Activity{{DisplayName: "nameless"}},
			wantErr: []string{"id and taskType are required"},
		},
		{
			name:    "duplicates",
			acts:    []Activity{{ID: "a", TaskType: "t"}, {ID: "a", TaskType: "t"}},
			wantErr: []string{"duplicate activity id a", "duplicate task type t"},
		},
		{
			name:    "bad output schema",
			acts:    []Activity{{ID: "a", TaskType: "a", OutputSchema: map[string]interface{}{"type": 42}}},
			wantErr: []string{"activity a outputSchema"},
		},
		{
			name: "bad status timeout and retries",
			acts: []Activity{{ID: "a", TaskType: "a", ImplementationStatus: "done", Timeout: "soon", Retries: -1}},
			wantErr: []string{
				`unknown implementation status "done"`,
				"retries must not be negative",
				`timeout "soon"`,
			},
		},
		{
			name:    "non-positive timeout",
			acts:    []Activity{{ID: "a", TaskType: "a", Timeout: "0s"}},
			wantErr: []string{"must be positive"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := (&ActivityRegistry{Activities: tt.acts}).Validate()
			if len(tt.wantErr) == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			for _, want := range tt.wantErr {
				assert.Contains(t, err.Error(), want)
			}
		})
	}
}

func TestInputValidator(t *testing.T) {
	reg := shippedRegistry(t)

	v, err := reg.InputValidator("fetch-cbs-scores")
	require.NoError(t, err)
	res, err := v.ValidateJSON(`{"cnic":"42101-1234567-1"}`)
	require.NoError(t, err)
	assert.False(t, res.Valid)

	_, err = reg.InputValidator("unknown")
	assert.ErrorIs(t, err, ErrActivityNotFound)

	empty := &ActivityRegistry{Activities: []Activity{{ID: "x", TaskType: "x"}}}
	_, err = empty.InputValidator("x")
	assert.Error(t, err)
}

func TestInputValidator_EvaluateObligationBounds(t *testing.T) {
	v, err := shippedRegistry(t).InputValidator("evaluate-credit-card-application")
	require.NoError(t, err)

	tests := []struct {
		name      string
		tenure    string
		wantValid bool
	}{
		{name: "thirty years", tenure: "360", wantValid: true},
		{name: "at cap", tenure: "600", wantValid: true},
		{name: "beyond cap", tenure: "1000000"},
		{name: "negative", tenure: "-12"},
		{name: "fractional", tenure: "12.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := v.ValidateJSON(`{"applicationId":"APP-1","applicant":{"employmentType":"permanent"},` +
				`"obligations":{"proposedLoanAmount":500000,"annualInterestRate":24,"proposedTenureMonths":` + tt.tenure + `}}`)
			require.NoError(t, err)
			assert.Equal(t, tt.wantValid, res.Valid, res.Summary())
		})
	}
}

func TestSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.json")
	reg := &ActivityRegistry{Version: "1.0.0", Activities: []Activity{{ID: "a", TaskType: "a"}}}

	require.NoError(t, reg.Save(path))
	loaded, err := LoadRegistry(path)
	require.NoError(t, err)

	assert.Equal(t, reg.Activities[0].ID, loaded.Activities[0].ID)
	assert.NotEmpty(t, loaded.LastUpdated)
}

func TestActivity_TimeoutDuration(t *testing.T) {
	a := Activity{Timeout: "45s"}
	d, err := a.TimeoutDuration()
	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, d)

	d, err = (&Activity{}).TimeoutDuration()
	require.NoError(t, err)
	assert.Zero(t, d)

	assert.True(t, (&Activity{ImplementationStatus: StatusImplemented}).Implemented())
	assert.False(t, (&Activity{ImplementationStatus: StatusPlanned}).Implemented())
}

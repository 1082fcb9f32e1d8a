package envcheck

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckSatisfiedWhenAllVarsPresent(t *testing.T) {
	t.Setenv("PREFLIGHT_TEST_A", "1")
	t.Setenv("PREFLIGHT_TEST_B", "2")

	st := Check(context.Background(), &Input{Vars: []string{"PREFLIGHT_TEST_A", "PREFLIGHT_TEST_B"}})
	assert.True(t, st.IsSatisfied())
}

func TestCheckFailsOnMissingVar(t *testing.T) {
	t.Setenv("PREFLIGHT_TEST_A", "1")

	st := Check(context.Background(), &Input{Vars: []string{"PREFLIGHT_TEST_A", "PREFLIGHT_TEST_NOPE"}})
	assert.True(t, st.IsFailed())
	data, ok := st.Data().(map[string]any)
	assert.True(t, ok)
	assert.Equal(t, []string{"PREFLIGHT_TEST_NOPE"}, data["missing"])
}

func TestCheckEmptyVar(t *testing.T) {
	t.Setenv("PREFLIGHT_TEST_EMPTY", "")

	st := Check(context.Background(), &Input{Vars: []string{"PREFLIGHT_TEST_EMPTY"}})
	assert.True(t, st.IsFailed(), "empty is missing by default")

	st = Check(context.Background(), &Input{Vars: []string{"PREFLIGHT_TEST_EMPTY"}, AllowEmpty: true})
	assert.True(t, st.IsSatisfied())
}

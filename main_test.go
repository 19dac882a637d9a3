package main

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOperations(t *testing.T) {
	ops, err := ParseOperations([]string{"checkin", "redeem"})
	require.NoError(t, err)
	assert.Equal(t, []Operation{OpCheckin, OpRedeem}, ops)

	ops, err = ParseOperations([]string{" AUTH "})
	require.NoError(t, err)
	assert.Equal(t, []Operation{OpAuth}, ops)
}

func TestParseOperationsPreservesOrder(t *testing.T) {
	ops, err := ParseOperations([]string{"redeem", "checkin"})
	require.NoError(t, err)
	assert.Equal(t, []Operation{OpRedeem, OpCheckin}, ops)
}

func TestParseOperationsRejectsUnknown(t *testing.T) {
	_, err := ParseOperations([]string{"checkin", "reboot"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reboot")

	_, err = ParseOperations(nil)
	assert.Error(t, err)
}

func TestRootCmdRequiresAnOperation(t *testing.T) {
	exitCode := ExitSuccess
	cmd := newRootCmd(&exitCode)
	cmd.SetArgs([]string{})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)

	err := cmd.Execute()

	assert.Error(t, err)
}

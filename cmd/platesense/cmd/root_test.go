package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandHelp(t *testing.T) {
	cmd := GetRootCommand()

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--help"})

	require.NoError(t, cmd.Execute())

	help := out.String()
	assert.Contains(t, help, "platesense")
	assert.Contains(t, help, "estimate")
	assert.Contains(t, help, "calibrate")
	assert.Contains(t, help, "serve")
}

func TestRootCommandVersionFlag(t *testing.T) {
	cmd := GetRootCommand()

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--version"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "platesense version")
}

func TestEstimateCommandRequiresArgs(t *testing.T) {
	cmd := GetRootCommand()

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"estimate"})

	err := cmd.Execute()
	require.Error(t, err)
}

package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionFlag(t *testing.T) {
	cmd := newRootCmd()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetArgs([]string{"--version"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "Webcam Recorder dev")
	assert.Contains(t, out.String(), "Platform:")
}

func TestRejectsPositionalArgs(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"extra"})

	assert.Error(t, cmd.Execute())
}

func TestConfigFlagRegistered(t *testing.T) {
	cmd := newRootCmd()
	f := cmd.Flags().Lookup("config")
	require.NotNil(t, f)
	assert.Equal(t, "c", f.Shorthand)
}

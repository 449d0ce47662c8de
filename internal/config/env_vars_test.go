package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetPortPrefixesColon(t *testing.T) {
	t.Setenv("PORT", "9090")
	require.Equal(t, ":9090", EnvVars{}.GetPort())
}

func TestGetPortKeepsLeadingColon(t *testing.T) {
	t.Setenv("PORT", ":9090")
	require.Equal(t, ":9090", EnvVars{}.GetPort())
}

func TestGetPortDefault(t *testing.T) {
	t.Setenv("PORT", "")
	require.Equal(t, ":8080", EnvVars{}.GetPort())
}

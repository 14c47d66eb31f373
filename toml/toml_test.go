package toml_test

import (
	"testing"
	"time"

	"github.com/flexps/paramserver/toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDuration_UnmarshalText(t *testing.T) {
	var d toml.Duration
	require.NoError(t, d.UnmarshalText([]byte("30s")))
	assert.Equal(t, toml.Duration(30*time.Second), d)
	assert.Equal(t, "30s", d.String())
}

func TestDuration_UnmarshalTextRejectsGarbage(t *testing.T) {
	var d toml.Duration
	assert.Error(t, d.UnmarshalText([]byte("not-a-duration")))
}

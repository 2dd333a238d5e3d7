package cmd

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupCmd_AllConditionFlagsRequired(t *testing.T) {
	for _, name := range []string{"cpu", "bandwidth", "bytecounting"} {
		f := lookupCmd.Flags().Lookup(name)
		require.NotNil(t, f, "flag %s", name)
		assert.Equal(t, []string{"true"}, f.Annotations[cobra.BashCompOneRequiredFlag], "flag %s", name)
	}
	assert.Contains(t, lookupCmd.Long, "--cpu-scale")
}

package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHelp(t *testing.T) {
	assert := assert.New(t)

	rootCmd := newRootCmd(&Cli{c: &fakeClient{}})

	rootCmd.SetArgs([]string{})
	assert.NoError(rootCmd.Execute())

	rootCmd.SetArgs([]string{"bundle"})
	assert.NoError(rootCmd.Execute())
	rootCmd.SetArgs([]string{"describe"})
	assert.NoError(rootCmd.Execute())
	rootCmd.SetArgs([]string{"diagram"})
	assert.NoError(rootCmd.Execute())
	rootCmd.SetArgs([]string{"transfer"})
	assert.NoError(rootCmd.Execute())
	rootCmd.SetArgs([]string{"version"})
	assert.NoError(rootCmd.Execute())

	rootCmd.SetArgs([]string{"bundle", "generate", "--help"})
	assert.NoError(rootCmd.Execute())
	rootCmd.SetArgs([]string{"diagram", "save", "--help"})
	assert.NoError(rootCmd.Execute())
}

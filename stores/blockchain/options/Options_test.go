package options

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessFindOptions(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		opts := ProcessFindOptions()

		require.NotNil(t, opts)
		assert.False(t, opts.InBestHeaderChain)
		assert.False(t, opts.InBestBlockChain)
		assert.Nil(t, opts.HasContent)
		assert.True(t, opts.Matches(false, false, false))
	})

	t.Run("combined", func(t *testing.T) {
		opts := ProcessFindOptions(InBestHeaderChain(), WithContent(false))

		assert.True(t, opts.Matches(true, false, false))
		assert.True(t, opts.Matches(true, true, false))
		assert.False(t, opts.Matches(true, false, true))
		assert.False(t, opts.Matches(false, false, false))
	})

	t.Run("best block chain", func(t *testing.T) {
		opts := ProcessFindOptions(InBestBlockChain())

		assert.True(t, opts.Matches(true, true, true))
		assert.False(t, opts.Matches(true, false, true))
	})

	t.Run("returns new instance each time", func(t *testing.T) {
		assert.NotSame(t, ProcessFindOptions(), ProcessFindOptions())
	})
}

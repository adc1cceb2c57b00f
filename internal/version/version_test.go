package version

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet(t *testing.T) {
	info := Get()

	assert.Equal(t, Version, info.String())
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, info.Platform)

	details := info.Details()
	require.Len(t, details, 4)
	assert.Equal(t, [2]string{"commit", Commit}, details[0])
	assert.Equal(t, [2]string{"platform", info.Platform}, details[3])
}

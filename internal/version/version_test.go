package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	origVersion, origCommit := Version, GitCommit
	t.Cleanup(func() { Version, GitCommit = origVersion, origCommit })

	Version, GitCommit = "", ""
	assert.Equal(t, "dev", String())

	Version = "v1.2.0"
	assert.Equal(t, "v1.2.0", String())

	GitCommit = "0123456789abcdef"
	assert.Equal(t, "v1.2.0 (0123456)", String())

	GitCommit = "abc"
	assert.Equal(t, "v1.2.0 (abc)", String())
}

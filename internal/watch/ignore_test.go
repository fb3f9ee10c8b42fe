package watch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShouldIgnore(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"src/oss/quickstart.mdx", false},
		{"src/oss/quickstart.mdx~", true},
		{"src/oss/quickstart.mdx.bak", true},
		{"src/oss/quickstart.mdx.orig", true},
		{"src/oss/.quickstart.mdx.swp", true},
		{"src/oss/.quickstart.mdx.swx", true},
		{"src/oss/.build.tmp", true},
		{"src/oss/.build.temp", true},
		{"src/oss/build.tmp", false},
		{"src/oss/.#quickstart.mdx", true},
		{"src/oss/#quickstart.mdx#", true},
		{"src/.DS_Store", true},
		{"src/.prettierrc", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, shouldIgnore(tt.path))
		})
	}
}

package logfields

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestHelperKeyNames verifies string-based helper key/value stability.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attrVal string
		attr    slog.Attr
	}{
		{"BuildID", KeyBuildID, "b1", BuildID("b1")},
		{"Stage", KeyStage, "preprocess", Stage("preprocess")},
		{"File", KeyFile, "oss/index.mdx", File("oss/index.mdx")},
		{"Path", KeyPath, "/tmp/x", Path("/tmp/x")},
		{"Scope", KeyScope, "js", Scope("js")},
		{"Language", KeyLanguage, "python", Language("python")},
		{"Variant", KeyVariant, "oss/javascript", Variant("oss/javascript")},
		{"Label", KeyLabel, "StateGraph", Label("StateGraph")},
		{"Constant", KeyConstant, "version", Constant("version")},
		{"Host", KeyHost, "https://example.com/", Host("https://example.com/")},
		{"URL", KeyURL, "https://example.com/objects.inv", URL("https://example.com/objects.inv")},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			// Key drift would break log ingestion schemas.
			assert.Equal(t, tc.attrKey, tc.attr.Key)
			assert.Equal(t, tc.attrVal, tc.attr.Value.String())
		})
	}
}

func TestNumericHelpers(t *testing.T) {
	assert.Equal(t, KeyCount, Count(3).Key)
	assert.Equal(t, int64(3), Count(3).Value.Int64())
	assert.Equal(t, KeyExitCode, ExitCode(2).Key)
	assert.Equal(t, KeyDurationMS, DurationMS(12.5).Key)
	assert.InDelta(t, 1500.0, Elapsed(1500*time.Millisecond).Value.Float64(), 0.001)
}

// TestErrorHelper ensures Error() handles nil and non-nil errors predictably.
func TestErrorHelper(t *testing.T) {
	assert.Equal(t, "", Error(nil).Value.String())
	assert.Equal(t, "boom", Error(errors.New("boom")).Value.String())
}

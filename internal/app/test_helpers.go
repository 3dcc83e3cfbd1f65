package app

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/refgraph/internal/config"
	"github.com/specialistvlad/refgraph/internal/hclconfig"
	"github.com/specialistvlad/refgraph/internal/testutil"
)

// SetupAppTest creates an App writing reports to out and debug logs to a
// captured buffer. A nil loader uses the HCL loader.
func SetupAppTest(t *testing.T, appConfig *Config, loader config.Loader) (a *App, out, logs *testutil.SafeBuffer) {
	t.Helper()

	out, logs = &testutil.SafeBuffer{}, &testutil.SafeBuffer{}
	appConfig.LogLevel = "debug"
	appConfig.LogFormat = "text"
	if loader == nil {
		loader = hclconfig.NewLoader()
	}
	testutil.DumpLogsOnCleanup(t, logs)

	a, err := NewApp(out, logs, appConfig, loader)
	require.NoError(t, err)
	return a, out, logs
}

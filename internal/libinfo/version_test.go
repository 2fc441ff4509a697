/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package libinfo

import (
	"debug/buildinfo"
	"runtime/debug"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestExtractLibVersion(t *testing.T) {
	tests := []struct {
		name        string
		buildInfo   *buildinfo.BuildInfo
		expectedVer string
	}{
		{
			name: "dependency found",
			buildInfo: &buildinfo.BuildInfo{
				Deps: []*debug.Module{{Path: moduleName, Version: "v1.2.3"}},
			},
			expectedVer: "v1.2.3",
		},
		{
			name: "dependency found, v2",
			buildInfo: &buildinfo.BuildInfo{
				Deps: []*debug.Module{{Path: moduleName + "/v2", Version: "v2.0.0"}},
			},
			expectedVer: "v2.0.0",
		},
		{
			name: "main module",
			buildInfo: &buildinfo.BuildInfo{
				Main: debug.Module{Path: moduleName, Version: "v1.0.1"},
			},
			expectedVer: "v1.0.1",
		},
		{
			name: "main module, devel build",
			buildInfo: &buildinfo.BuildInfo{
				Main: debug.Module{Path: moduleName, Version: "(devel)"},
			},
			expectedVer: "",
		},
		{
			name: "module not found",
			buildInfo: &buildinfo.BuildInfo{
				Main: debug.Module{Path: "github.com/other/app"},
				Deps: []*debug.Module{{Path: "github.com/other/module", Version: "v1.0.0"}},
			},
			expectedVer: "",
		},
		{
			name:        "nil build info",
			buildInfo:   nil,
			expectedVer: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expectedVer, extractLibVersion(tt.buildInfo, moduleName))
		})
	}
}

func TestAddPrometheusLibVersionLabel(t *testing.T) {
	labels := prometheus.Labels{"cache": "users"}
	got := AddPrometheusLibVersionLabel(labels)
	require.Equal(t, "users", got["cache"])
	require.Equal(t, GetLibVersion(), got[PrometheusLibVersionLabel])
	require.NotEmpty(t, got[PrometheusLibVersionLabel])
	require.Len(t, labels, 1, "source labels must not be modified")

	require.Len(t, AddPrometheusLibVersionLabel(nil), 1)
}

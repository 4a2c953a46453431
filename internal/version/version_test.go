package version

import (
	"runtime/debug"
	"strings"
	"testing"
)

func TestFromBuildInfo(t *testing.T) {
	tests := []struct {
		name        string
		info        *debug.BuildInfo
		version     string
		commit      string
		wantVersion string
		wantCommit  string
	}{
		{
			name: "module version and clean revision",
			info: &debug.BuildInfo{
				Main: debug.Module{Version: "v0.3.0"},
				Settings: []debug.BuildSetting{
					{Key: "vcs.revision", Value: "0123456789abcdef"},
					{Key: "vcs.modified", Value: "false"},
				},
			},
			wantVersion: "v0.3.0",
			wantCommit:  "0123456",
		},
		{
			name: "devel build with dirty tree",
			info: &debug.BuildInfo{
				Main: debug.Module{Version: "(devel)"},
				Settings: []debug.BuildSetting{
					{Key: "vcs.revision", Value: "abc"},
					{Key: "vcs.modified", Value: "true"},
				},
			},
			wantVersion: "",
			wantCommit:  "abc-dirty",
		},
		{
			name:        "ldflags win",
			info:        &debug.BuildInfo{Main: debug.Module{Version: "v9.9.9"}},
			version:     "v1.0.0",
			commit:      "feedbee",
			wantVersion: "v1.0.0",
			wantCommit:  "feedbee",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotVersion, gotCommit := fromBuildInfo(tt.info, tt.version, tt.commit)
			if gotVersion != tt.wantVersion {
				t.Errorf("version = %q, want %q", gotVersion, tt.wantVersion)
			}
			if gotCommit != tt.wantCommit {
				t.Errorf("commit = %q, want %q", gotCommit, tt.wantCommit)
			}
		})
	}
}

func TestFull(t *testing.T) {
	if got := Full(); !strings.Contains(got, "(commit: ") {
		t.Errorf("Full() = %q, want commit suffix", got)
	}
}

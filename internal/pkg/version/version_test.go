package version

import (
	"runtime"
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	original := readBuildInfo
	defer func() { readBuildInfo = original }()

	tests := []struct {
		name      string
		input     Info
		buildInfo *debug.BuildInfo
		want      Info
	}{
		{
			name:  "주입된 값 우선",
			input: Info{Version: "v1.0.0", Commit: "abcdef1234", BuildDate: "2026-01-01"},
			buildInfo: &debug.BuildInfo{Settings: []debug.BuildSetting{
				{Key: "vcs.revision", Value: "zzz"},
				{Key: "vcs.time", Value: "2020-01-01"},
			}},
			want: Info{Version: "v1.0.0", Commit: "abcdef1234", BuildDate: "2026-01-01"},
		},
		{
			name:  "VCS 메타데이터로 보강",
			input: Info{},
			buildInfo: &debug.BuildInfo{
				Main: debug.Module{Version: "v0.3.1"},
				Settings: []debug.BuildSetting{
					{Key: "vcs.revision", Value: "0123456789"},
					{Key: "vcs.time", Value: "2026-02-02T00:00:00Z"},
					{Key: "vcs.modified", Value: "true"},
				},
			},
			want: Info{Version: "v0.3.1", Commit: "0123456789", BuildDate: "2026-02-02T00:00:00Z", Dirty: true},
		},
		{
			name:      "개발 빌드는 unknown",
			input:     Info{},
			buildInfo: &debug.BuildInfo{Main: debug.Module{Version: "(devel)"}},
			want:      Info{Version: unknown, Commit: unknown, BuildDate: unknown},
		},
		{
			name:  "빌드 정보 없음",
			input: Info{},
			want:  Info{Version: unknown, Commit: unknown, BuildDate: unknown},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			readBuildInfo = func() (*debug.BuildInfo, bool) {
				return tt.buildInfo, tt.buildInfo != nil
			}

			got := resolve(tt.input)

			tt.want.GoVersion = runtime.Version()
			tt.want.OS = runtime.GOOS
			tt.want.Arch = runtime.GOARCH
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInfo_String(t *testing.T) {
	t.Parallel()

	i := Info{Version: "v1.2.0", Commit: "f25b8bf0123", GoVersion: "go1.24.11", OS: "linux", Arch: "amd64", Dirty: true}
	assert.Equal(t, "v1.2.0+dirty (commit: f25b8bf, go1.24.11, linux/amd64)", i.String())
}

func TestInfo_ToMap(t *testing.T) {
	t.Parallel()

	m := Info{Version: "v1", Commit: "c"}.ToMap()
	assert.Equal(t, "v1", m["version"])
	assert.Equal(t, "c", m["commit"])
	assert.Equal(t, false, m["dirty"])
}

func TestGet(t *testing.T) {
	bi := Get()
	assert.NotEmpty(t, bi.Version)
	assert.Equal(t, runtime.GOOS, bi.OS)
	assert.Equal(t, bi, Get())
}

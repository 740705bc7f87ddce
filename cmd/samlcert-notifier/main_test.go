package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/darkkaiser/samlcert-notifier/internal/pkg/version"
	"github.com/darkkaiser/samlcert-notifier/internal/service/expiry"
	"github.com/darkkaiser/samlcert-notifier/internal/testutil"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ====================================================================================
// Test Helpers
// ====================================================================================

// newFakeAuthzServer 토큰 발급과 레지스트리 조회 API를 흉내 내는 테스트 서버를 생성합니다.
// app-1 애플리케이션 하나가 notAfter에 만료되는 인증서로 등록되어 있으며, 소유자는 alice입니다.
func newFakeAuthzServer(t *testing.T, notAfter time.Time) *httptest.Server {
	t.Helper()

	search, err := json.Marshal(map[string]any{
		"data": []map[string]string{
			{"applicationId": "app-1", "definition": testutil.SAMLMetadata(testutil.NewCertificate(t, notAfter))},
		},
	})
	require.NoError(t, err)

	routes := map[string]string{
		"/api/v1.0/Registration/providers": `{"data":[{"id":"p"}]}`,
		"/api/v1.0/Registration/p/search":  string(search),
		"/api/v1.0/Application":            `{"data":[{"id":"app-1","ownerId":"o1"}]}`,
		"/api/v1.0/Identity/o1":            `{"data":{"primaryAccountEmail":"alice@example.com","displayName":"Alice"}}`,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/realms/test/protocol/openid-connect/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprint(w, `{"access_token":"tok","token_type":"Bearer","expires_in":3600}`)
	})
	for path, body := range routes {
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			_, _ = fmt.Fprint(w, body)
		})
	}

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return server
}

// writeRunConfig 테스트 서버를 바라보는 설정 파일과 메시지 템플릿을 생성하고 설정 파일 경로를 반환합니다.
func writeRunConfig(t *testing.T, serverURL string, extra map[string]any) string {
	t.Helper()

	dir := t.TempDir()

	templatePath := filepath.Join(dir, "template.txt")
	require.NoError(t, os.WriteFile(templatePath, []byte("Dear {CONTACT_NAME},\n{APPLICATION_ID} expires in {DAYS_LEFT} days\n"), 0644))

	cfg := map[string]any{
		"log": map[string]any{"dir": filepath.Join(dir, "logs")},
		"api": map[string]any{
			"keycloak_server": serverURL,
			"realm":           "test",
			"client_id":       "notifier",
			"url":             serverURL + "/api/v1.0/",
			"username":        "svc",
			"password":        "secret",
		},
		"notification": map[string]any{
			"sender":        "sso.noreply@example.com",
			"template_path": templatePath,
		},
	}
	for k, v := range extra {
		cfg[k] = v
	}

	data, err := json.Marshal(cfg)
	require.NoError(t, err)

	path := filepath.Join(dir, "samlcert-notifier.json")
	require.NoError(t, os.WriteFile(path, data, 0644))

	return path
}

func executeCommand(args ...string) (string, error) {
	cmd := newRootCmd()

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

// ====================================================================================
// 실행 인자
// ====================================================================================

func TestCLIFlags_Overrides(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		args     []string
		expected map[string]any
	}{
		{
			name:     "지정하지 않은 인자는 덮어쓰지 않음",
			args:     []string{"--config", "custom.json"},
			expected: map[string]any{},
		},
		{
			name: "지정한 인자만 덮어씀",
			args: []string{"--dry-run", "--runway-days", "30"},
			expected: map[string]any{
				"notification.dry_run":    true,
				"certificate.runway_days": 30,
			},
		},
		{
			name: "기본값과 같은 값도 명시하면 덮어씀",
			args: []string{"--debug=false", "--max-messages", "100"},
			expected: map[string]any{
				"debug":                     false,
				"notification.max_messages": 100,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			flags := &cliFlags{}
			cmd := &cobra.Command{Use: "test"}
			flags.bind(cmd)

			require.NoError(t, cmd.ParseFlags(tt.args))
			assert.Equal(t, tt.expected, flags.overrides(cmd))
		})
	}
}

// ====================================================================================
// 명령 실행
// ====================================================================================

func TestVersionCmd(t *testing.T) {
	out, err := executeCommand("version")

	require.NoError(t, err)
	assert.Contains(t, out, version.Get().Version)
}

func TestRunCmd_DryRun(t *testing.T) {
	server := newFakeAuthzServer(t, time.Now().AddDate(0, 0, 10))

	textfile := filepath.Join(t.TempDir(), "samlcert.prom")
	configPath := writeRunConfig(t, server.URL, map[string]any{
		"metrics": map[string]any{"textfile_path": textfile},
	})

	out, err := executeCommand("run", "--config", configPath, "--dry-run")
	require.NoError(t, err)

	assert.Contains(t, out, "alice@example.com")
	assert.Contains(t, out, "Dear Alice,")
	assert.Contains(t, out, "app-1 expires in")

	metrics, err := os.ReadFile(textfile)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), "samlcert_run_success 1")
}

func TestRunCmd_RunwayOverride(t *testing.T) {
	server := newFakeAuthzServer(t, time.Now().AddDate(0, 0, 10))
	configPath := writeRunConfig(t, server.URL, nil)

	// 만료까지 10일 남았으므로 5일 기준으로는 알림 대상이 아니다.
	out, err := executeCommand("run", "--config", configPath, "--dry-run", "--runway-days", "5")
	require.NoError(t, err)
	assert.NotContains(t, out, "alice@example.com")
}

func TestRunCmd_RegistryFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/realms/test/protocol/openid-connect/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprint(w, `{"access_token":"tok","token_type":"Bearer","expires_in":3600}`)
	})
	mux.HandleFunc("/api/v1.0/Registration/providers", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	textfile := filepath.Join(t.TempDir(), "samlcert.prom")
	configPath := writeRunConfig(t, server.URL, map[string]any{
		"metrics": map[string]any{"textfile_path": textfile},
	})

	out, err := executeCommand("run", "--config", configPath, "--dry-run")
	require.Error(t, err)
	assert.Equal(t, 1, expiry.ExitCode(err))
	assert.Empty(t, out, "등록 정보 조회에 실패하면 아무 메시지도 출력하지 않아야 합니다")

	metrics, err := os.ReadFile(textfile)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), "samlcert_run_success 0")
}

func TestRunCmd_ConfigErrors(t *testing.T) {
	t.Run("설정 파일 없음", func(t *testing.T) {
		_, err := executeCommand("run", "--config", filepath.Join(t.TempDir(), "missing.json"))
		require.Error(t, err)
		assert.Equal(t, 1, expiry.ExitCode(err))
	})

	t.Run("SMTP 설정 누락 (dry-run 아님)", func(t *testing.T) {
		configPath := writeRunConfig(t, "http://127.0.0.1:1", nil)

		_, err := executeCommand("run", "--config", configPath)
		require.Error(t, err)
	})
}

func TestScheduleCmd_InvalidTimeSpec(t *testing.T) {
	configPath := writeRunConfig(t, "http://127.0.0.1:1", map[string]any{
		"scheduler": map[string]any{"time_spec": "0 8 * * *"},
	})

	_, err := executeCommand("schedule", "--config", configPath, "--dry-run")
	require.Error(t, err)
}

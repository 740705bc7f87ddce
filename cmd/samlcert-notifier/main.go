// samlcert-notifier SAML 애플리케이션의 서명 인증서 만료가 임박하면 애플리케이션 담당자에게 알림 메일을 발송합니다.
//
// 사용법:
//
//	samlcert-notifier run --config samlcert-notifier.json
//	samlcert-notifier run --dry-run --runway-days 30
//	samlcert-notifier schedule
//	samlcert-notifier version
package main

import (
	"fmt"
	"os"

	"github.com/darkkaiser/samlcert-notifier/internal/config"
	"github.com/darkkaiser/samlcert-notifier/internal/pkg/version"
	"github.com/darkkaiser/samlcert-notifier/internal/service/expiry"
	"github.com/spf13/cobra"
)

// component 로깅용 컴포넌트 이름
const component = "main"

// cliFlags 설정 파일 및 환경 변수 값을 덮어쓰는 실행 인자
type cliFlags struct {
	configFile  string
	dryRun      bool
	debug       bool
	runwayDays  int
	maxMessages int
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(expiry.ExitCode(err))
	}
}

func newRootCmd() *cobra.Command {
	flags := &cliFlags{}

	rootCmd := &cobra.Command{
		Use:   config.AppName,
		Short: "Notify SAML application owners about expiring certificates",
		Long: `samlcert-notifier fetches every SAML registration from the authorization
service, finds applications whose signing certificates expire within the
configured runway, and sends one combined email per owner or administrator
group. Without a subcommand it performs a single run.`,
		Version:       version.Get().String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runOnce(cmd, flags)
		},
	}

	flags.bind(rootCmd)

	rootCmd.AddCommand(newRunCmd(flags))
	rootCmd.AddCommand(newScheduleCmd(flags))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// bind 모든 하위 명령에서 공통으로 사용하는 실행 인자를 등록합니다.
func (f *cliFlags) bind(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	pf.StringVarP(&f.configFile, "config", "c", config.DefaultFilename, "Path of the JSON configuration file")
	pf.BoolVar(&f.dryRun, "dry-run", false, "Print messages to stdout instead of sending them")
	pf.BoolVar(&f.debug, "debug", false, "Enable debug logging")
	pf.IntVar(&f.runwayDays, "runway-days", config.DefaultRunwayDays, "Notify when a certificate expires within this many days")
	pf.IntVar(&f.maxMessages, "max-messages", config.DefaultMaxMessages, "Abort without sending if more messages than this would be sent")
}

// overrides 사용자가 명시적으로 지정한 실행 인자만 설정 덮어쓰기 값으로 변환합니다.
func (f *cliFlags) overrides(cmd *cobra.Command) map[string]any {
	overrides := make(map[string]any)

	changed := func(name string) bool {
		flag := cmd.Flags().Lookup(name)
		return flag != nil && flag.Changed
	}

	if changed("dry-run") {
		overrides["notification.dry_run"] = f.dryRun
	}
	if changed("debug") {
		overrides["debug"] = f.debug
	}
	if changed("runway-days") {
		overrides["certificate.runway_days"] = f.runwayDays
	}
	if changed("max-messages") {
		overrides["notification.max_messages"] = f.maxMessages
	}

	return overrides
}

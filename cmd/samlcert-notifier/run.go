package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/darkkaiser/samlcert-notifier/internal/config"
	"github.com/darkkaiser/samlcert-notifier/internal/metrics"
	"github.com/darkkaiser/samlcert-notifier/internal/notification"
	"github.com/darkkaiser/samlcert-notifier/internal/notification/transport"
	"github.com/darkkaiser/samlcert-notifier/internal/notification/transport/console"
	"github.com/darkkaiser/samlcert-notifier/internal/notification/transport/smtp"
	apperrors "github.com/darkkaiser/samlcert-notifier/internal/pkg/errors"
	"github.com/darkkaiser/samlcert-notifier/internal/pkg/version"
	"github.com/darkkaiser/samlcert-notifier/internal/registry/authzapi"
	"github.com/darkkaiser/samlcert-notifier/internal/saml"
	"github.com/darkkaiser/samlcert-notifier/internal/service/expiry"
	applog "github.com/darkkaiser/samlcert-notifier/pkg/log"
	"github.com/spf13/cobra"
)

func newRunCmd(flags *cliFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the expiration check once and send notifications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runOnce(cmd, flags)
		},
	}
}

func runOnce(cmd *cobra.Command, flags *cliFlags) error {
	appConfig, closeLog, err := setup(cmd, flags)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner, err := newRunner(appConfig, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	return execute(ctx, appConfig, runner)
}

// setup 설정을 로드하고 로그 시스템을 초기화합니다. 반환된 함수로 로그 파일을 닫아야 합니다.
func setup(cmd *cobra.Command, flags *cliFlags) (*config.AppConfig, func(), error) {
	// 1. 환경설정 로드 (로그 설정에 필요하므로 가장 먼저 수행한다)
	appConfig, err := config.LoadWithOverrides(flags.configFile, flags.overrides(cmd))
	if err != nil {
		return nil, nil, err
	}

	// 2. 로그 시스템 초기화
	var logOpts applog.Options
	if appConfig.Debug {
		logOpts = applog.NewDevelopmentOptions(config.AppName, appConfig.Log.Dir)
	} else {
		logOpts = applog.NewProductionOptions(config.AppName, appConfig.Log.Dir)
	}

	logCloser, err := applog.Setup(logOpts)
	if err != nil {
		return nil, nil, fmt.Errorf("로그 시스템 초기화 실패: %w", err)
	}

	// 3. 로그 레벨 최종 확정
	applog.SetDebugMode(appConfig.Debug)

	applog.WithComponentAndFields(component, applog.Fields{
		"version": version.Get().String(),
		"config":        flags.configFile,
		"dry_run":       appConfig.Notification.DryRun,
		"api_url":       appConfig.API.URL,
		"api_username":  applog.MaskSensitiveData(appConfig.API.Username),
		"smtp_host":     appConfig.SMTP.Host,
		"smtp_username": applog.MaskSensitiveData(appConfig.SMTP.Username),
	}).Info("실행 환경 초기화 완료")

	for _, warning := range appConfig.VerifyRecommendations() {
		applog.WithComponent(component).Warn(warning)
	}

	return appConfig, func() { _ = logCloser.Close() }, nil
}

// newRunner 설정으로부터 레지스트리 API 클라이언트, 메시지 템플릿, 전송 수단을 구성합니다.
// 드라이런 모드에서는 메시지를 out으로 출력합니다.
func newRunner(appConfig *config.AppConfig, out io.Writer) (*expiry.Runner, error) {
	client, err := authzapi.New(authzapi.Config{
		KeycloakServer:    appConfig.API.KeycloakServer,
		Realm:             appConfig.API.Realm,
		ClientID:          appConfig.API.ClientID,
		Username:          appConfig.API.Username,
		Password:          appConfig.API.Password,
		URL:               appConfig.API.URL,
		Timeout:           appConfig.API.Timeout,
		RequestsPerSecond: appConfig.API.RequestsPerSecond,
	})
	if err != nil {
		return nil, err
	}

	body, err := notification.LoadTemplate(appConfig.Notification.TemplatePath)
	if err != nil {
		return nil, err
	}

	var tr transport.Transport
	if appConfig.Notification.DryRun {
		tr = console.New(out)
	} else {
		tr = smtp.New(smtp.Config{
			Host:      appConfig.SMTP.Host,
			Port:      appConfig.SMTP.Port,
			Username:  appConfig.SMTP.Username,
			Password:  appConfig.SMTP.Password,
			TLSPolicy: string(appConfig.SMTP.TLSPolicy),
			UserAgent: fmt.Sprintf("%s/%s", config.AppName, version.Get().Version),
		})
	}

	return &expiry.Runner{
		Registry:    client,
		Resolver:    client,
		Extract:     saml.ExtractExpiration,
		RunwayDays:  appConfig.Certificate.RunwayDays,
		MaxMessages: appConfig.Notification.MaxMessages,
		Dispatcher: &notification.Dispatcher{
			Renderer: &notification.Renderer{
				Body:               body,
				Subject:            appConfig.Notification.Subject,
				DefaultContactName: appConfig.Notification.DefaultContactName,
			},
			Transport: tr,
			Sender:    appConfig.Notification.Sender,
		},
		FailOnLookupError: appConfig.Run.FailOnLookupError,
	}, nil
}

// execute 파이프라인을 한 번 실행하고 결과를 로그와 메트릭 파일로 남깁니다.
func execute(ctx context.Context, appConfig *config.AppConfig, runner *expiry.Runner) error {
	summary, runErr := runner.Run(ctx)

	fields := applog.Fields{
		"registrations":    summary.Registrations,
		"expiring":         summary.Expiring,
		"messages_planned": summary.MessagesPlanned,
		"messages_sent":    summary.MessagesSent,
		"deadline":         summary.Deadline,
	}
	if runErr != nil {
		fields["error"] = runErr
		fields["error_type"] = apperrors.UnderlyingType(runErr).String()
		fields["root_cause"] = apperrors.RootCause(runErr).Error()
		applog.WithComponentAndFields(component, fields).Error("실행 실패")
	} else {
		applog.WithComponentAndFields(component, fields).Info("실행 완료")
	}

	if path := appConfig.Metrics.TextfilePath; path != "" {
		if err := metrics.WriteTextfile(path, summary, runErr); err != nil {
			applog.WithComponentAndFields(component, applog.Fields{
				"error": err,
			}).Warn("메트릭 파일을 갱신하지 못했습니다")
		}
	}

	return runErr
}

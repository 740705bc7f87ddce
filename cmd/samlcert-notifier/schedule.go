package main

import (
	"context"
	"os/signal"
	"sync"
	"syscall"

	"github.com/darkkaiser/samlcert-notifier/internal/service/scheduler"
	applog "github.com/darkkaiser/samlcert-notifier/pkg/log"
	"github.com/spf13/cobra"
)

func newScheduleCmd(flags *cliFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Run the expiration check periodically until interrupted",
		Long: `schedule keeps the process alive and runs the expiration check on the
cron schedule configured in scheduler.time_spec (6 fields, seconds first).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			appConfig, closeLog, err := setup(cmd, flags)
			if err != nil {
				return err
			}
			defer closeLog()

			runner, err := newRunner(appConfig, cmd.OutOrStdout())
			if err != nil {
				return err
			}

			s := scheduler.NewService(appConfig.Scheduler.TimeSpec, func(ctx context.Context) {
				// 실행 결과는 execute에서 로그로 남기며, 다음 주기 실행에 영향을 주지 않는다.
				_ = execute(ctx, appConfig, runner)
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			serviceStopWG := &sync.WaitGroup{}
			serviceStopWG.Add(1)
			if err := s.Start(ctx, serviceStopWG); err != nil {
				return err
			}

			<-ctx.Done()

			applog.WithComponent(component).Info("서버 종료 신호를 받았습니다. 스케줄러를 중지합니다")

			serviceStopWG.Wait()

			applog.WithComponent(component).Info("스케줄러가 정상적으로 종료되었습니다")

			return nil
		},
	}
}

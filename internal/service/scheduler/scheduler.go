// Package scheduler 설정된 Cron 스케줄에 맞춰 인증서 만료 알림 작업을 반복 실행합니다.
package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/darkkaiser/samlcert-notifier/pkg/cronx"
	applog "github.com/darkkaiser/samlcert-notifier/pkg/log"
	"github.com/robfig/cron/v3"
)

// component Scheduler 서비스의 로깅용 컴포넌트 이름
const component = "scheduler.service"

// Job 스케줄에 맞춰 실행되는 작업입니다.
type Job func(ctx context.Context)

// Scheduler 하나의 작업을 Cron 스케줄에 맞춰 실행하는 서비스입니다.
// 이전 실행이 끝나지 않았으면 다음 실행은 건너뜁니다.
type Scheduler struct {
	timeSpec string
	job      Job

	cron    *cron.Cron
	entryID cron.EntryID

	// runs 지금까지 시작된 작업 실행 횟수 (로그의 실행 순번으로 사용)
	runs atomic.Int64

	running   bool
	runningMu sync.Mutex
}

// NewService 새로운 Scheduler 서비스 인스턴스를 생성합니다.
func NewService(timeSpec string, job Job) *Scheduler {
	return &Scheduler{
		timeSpec: timeSpec,
		job:      job,
	}
}

// Start Cron 엔진을 만들어 작업을 등록하고 실행합니다.
// serviceStopCtx가 취소되면 스케줄러를 중지하고 serviceStopWG.Done()을 호출합니다.
// 에러를 반환하거나 이미 실행 중인 경우에도 serviceStopWG.Done()은 즉시 호출됩니다.
func (s *Scheduler) Start(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) error {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()

	if s.job == nil {
		serviceStopWG.Done()
		return ErrJobNotInitialized
	}

	if s.running {
		serviceStopWG.Done()
		applog.WithComponent(component).Warn("스케줄러가 이미 실행 중입니다")
		return nil
	}

	cronLogger := cron.VerbosePrintfLogger(applog.StandardLogger())

	// 초 단위 6개 필드 표현식을 사용하며, 패닉은 복구하고 이전 실행이 남아 있으면 이번 실행은 건너뛴다.
	c := cron.New(
		cron.WithParser(cronx.StandardParser()),
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)

	entryID, err := c.AddFunc(s.timeSpec, s.runJob)
	if err != nil {
		serviceStopWG.Done()
		return NewErrInvalidCronSpec(s.timeSpec, err)
	}

	c.Start()

	s.cron = c
	s.entryID = entryID
	s.running = true

	applog.WithComponentAndFields(component, applog.Fields{
		"time_spec": s.timeSpec,
		"next_run":  c.Entry(entryID).Next,
	}).Info("스케줄러 시작: 다음 실행 시각까지 대기합니다")

	go func() {
		defer serviceStopWG.Done()

		<-serviceStopCtx.Done()

		s.Stop()
	}()

	return nil
}

// runJob 작업을 한 번 실행하고 실행 순번과 소요 시간을 기록합니다.
// 실행 중인 작업은 종료 신호와 무관하게 끝까지 수행되며, Stop이 그 완료를 기다린다.
func (s *Scheduler) runJob() {
	run := s.runs.Add(1)
	startedAt := time.Now()

	applog.WithComponentAndFields(component, applog.Fields{
		"run": run,
	}).Info("예약된 실행을 시작합니다")

	s.job(context.Background())

	applog.WithComponentAndFields(component, applog.Fields{
		"run":     run,
		"elapsed": time.Since(startedAt).String(),
	}).Info("예약된 실행을 마쳤습니다")
}

// Stop 실행 중인 스케줄러를 중지합니다. 실행 중인 작업이 있으면 완료될 때까지 기다립니다.
func (s *Scheduler) Stop() {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()

	if !s.running {
		return
	}

	<-s.cron.Stop().Done()

	s.cron = nil
	s.running = false

	applog.WithComponentAndFields(component, applog.Fields{
		"runs": s.runs.Load(),
	}).Info("스케줄러 중지 완료")
}

// Running 스케줄러가 실행 중인지 여부를 반환합니다.
func (s *Scheduler) Running() bool {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()

	return s.running
}

// NextRun 다음 실행 예정 시각을 반환합니다. 스케줄러가 실행 중이 아니면 false를 반환합니다.
func (s *Scheduler) NextRun() (time.Time, bool) {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()

	if !s.running {
		return time.Time{}, false
	}

	return s.cron.Entry(s.entryID).Next, true
}

// Runs 지금까지 시작된 작업 실행 횟수를 반환합니다.
func (s *Scheduler) Runs() int64 {
	return s.runs.Load()
}

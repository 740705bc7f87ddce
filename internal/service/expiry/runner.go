// Package expiry 인증서 만료가 임박한 SAML 애플리케이션의 담당자에게 알림을 발송하는 1회 실행 파이프라인입니다.
package expiry

import (
	"context"
	"fmt"
	"time"

	"github.com/darkkaiser/samlcert-notifier/internal/notification"
	"github.com/darkkaiser/samlcert-notifier/internal/notification/transport"
	apperrors "github.com/darkkaiser/samlcert-notifier/internal/pkg/errors"
	"github.com/darkkaiser/samlcert-notifier/internal/registry"
	applog "github.com/darkkaiser/samlcert-notifier/pkg/log"
)

const component = "service.expiry"

// Runner 등록 정보 조회부터 메시지 발송까지의 전체 과정을 순서대로 한 번 실행합니다.
//
//  1. 등록 정보 조회 (실패 시 실행 중단)
//  2. 인증서 만료 시각 계산 (형식 오류는 해당 애플리케이션만 건너뜀)
//  3. Deadline 이전에 만료되는 애플리케이션 선별
//  4. 연락처 일괄 조회 (실패는 해당 애플리케이션만 StatusFailed)
//  5. 연락처별 메시지 집계
//  6. 발송 게이트 검사 (초과 시 아무것도 발송하지 않고 실행 중단)
//  7. 발송
type Runner struct {
	Registry registry.RegistrationFetcher
	Resolver registry.ContactResolver
	Extract  registry.ExtractFunc

	// Now 현재 시각을 반환합니다. nil이면 time.Now를 사용합니다.
	Now func() time.Time

	RunwayDays  int
	MaxMessages int

	Dispatcher *notification.Dispatcher

	// FailOnLookupError true이면 연락처 조회에 실패한 애플리케이션이 있을 때, 발송을 마친 뒤 실행을 실패로 처리합니다.
	FailOnLookupError bool
}

// Run 파이프라인을 한 번 실행합니다. 에러가 발생해도 그때까지의 결과가 담긴 Summary를 함께 반환합니다.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	now := time.Now()
	if r.Now != nil {
		now = r.Now()
	}

	summary := &Summary{
		StartedAt: now,
		Deadline:  now.AddDate(0, 0, r.RunwayDays),
	}

	// 1. 등록 정보 조회
	regs, err := r.Registry.FetchRegistrations(ctx)
	if err != nil {
		return summary, apperrors.Wrap(err, apperrors.ExecutionFailed, "SAML 등록 정보를 조회하지 못했습니다")
	}
	summary.Registrations = len(regs)

	// 2. 인증서 만료 시각 계산
	apps, outcomes := registry.BuildApplications(regs, r.Extract)
	summary.Outcomes = append(summary.Outcomes, outcomes...)
	for _, app := range apps {
		if _, ok := app.Expiration(); ok {
			summary.Applications = append(summary.Applications, app)
		}
	}

	// 3. 만료 임박 애플리케이션 선별
	expiring := apps.ExpiringBy(summary.Deadline)
	summary.Expiring = len(expiring)

	applog.WithComponentAndFields(component, applog.Fields{
		"registrations":   summary.Registrations,
		"with_expiration": len(summary.Applications),
		"expiring":        summary.Expiring,
		"deadline":        summary.Deadline.Format(time.RFC3339),
	}).Info("인증서 만료 임박 애플리케이션 선별 완료")

	if len(expiring) == 0 {
		return summary, nil
	}

	for _, app := range expiring {
		exp, _ := app.Expiration()
		applog.WithComponentAndFields(component, applog.Fields{
			"application_id": app.ID,
			"expiration":     exp.Format(time.RFC3339),
			"days_left":      app.DaysLeft(now),
		}).Info("인증서 만료 임박 애플리케이션")
	}

	// 4. 연락처 일괄 조회
	resolved, outcomes, err := registry.ResolveAll(ctx, registry.NewCachingResolver(r.Resolver), expiring)
	if err != nil {
		return summary, err
	}
	summary.Outcomes = append(summary.Outcomes, outcomes...)
	lookupFailures := len(outcomes)

	// 5. 연락처별 메시지 집계
	batch := notification.NewBatch()
	var batched registry.Applications
	for _, res := range resolved {
		if !batch.Add(res.Application, res.Contacts) {
			summary.Outcomes = append(summary.Outcomes, registry.Outcome{
				ApplicationID: res.Application.ID,
				Status:        registry.StatusSkipped,
				Reason:        "연락처 정보 없음",
			})
			continue
		}
		batched = append(batched, res.Application)
	}
	summary.MessagesPlanned = batch.CountMessages()

	// 6. 발송 게이트 검사
	if err := (notification.Gate{MaxMessages: r.MaxMessages}).Evaluate(batch); err != nil {
		summary.Outcomes = append(summary.Outcomes, outcomesFor(batched, registry.StatusFailed, "발송 게이트 초과로 발송 중단")...)
		return summary, err
	}

	// 7. 발송
	if batch.CountMessages() > 0 {
		messages := batch.Messages()

		sent, err := r.dispatch(ctx, batch, now)
		summary.MessagesSent = sent
		summary.Outcomes = append(summary.Outcomes, dispatchOutcomes(batched, messages, sent)...)
		if err != nil {
			return summary, err
		}
	}

	applog.WithComponentAndFields(component, applog.Fields{
		"messages_planned": summary.MessagesPlanned,
		"messages_sent":    summary.MessagesSent,
		"lookup_failures":  lookupFailures,
	}).Info("알림 발송 완료")

	if r.FailOnLookupError && lookupFailures > 0 {
		return summary, newErrLookupFailures(lookupFailures)
	}

	return summary, nil
}

// dispatch 세션이 필요한 전송 수단이면 세션을 열고, 발송이 끝나면 닫습니다.
func (r *Runner) dispatch(ctx context.Context, batch *notification.Batch, now time.Time) (int, error) {
	if session, ok := r.Dispatcher.Transport.(transport.Session); ok {
		if err := session.Open(ctx); err != nil {
			return 0, apperrors.Wrap(notification.ErrTransportUnavailable, apperrors.Unavailable, fmt.Sprintf("전송 세션을 열지 못했습니다: %v", err))
		}
		defer func() {
			if err := session.Close(); err != nil {
				applog.WithComponentAndFields(component, applog.Fields{
					"error": err,
				}).Warn("전송 세션을 닫는 중 에러가 발생했습니다")
			}
		}()
	}

	return r.Dispatcher.Dispatch(ctx, batch, now)
}

func outcomesFor(apps registry.Applications, status registry.Status, reason string) []registry.Outcome {
	outcomes := make([]registry.Outcome, 0, len(apps))
	for _, app := range apps {
		outcomes = append(outcomes, registry.Outcome{ApplicationID: app.ID, Status: status, Reason: reason})
	}
	return outcomes
}

// dispatchOutcomes 앞에서부터 sent건의 메시지가 발송되었을 때, 애플리케이션별 처리 결과를 계산합니다.
// 연락처 중 한 명에게라도 메시지가 발송된 애플리케이션은 StatusNotified입니다.
func dispatchOutcomes(apps registry.Applications, messages []notification.Message, sent int) []registry.Outcome {
	notified := make(map[*registry.Application]struct{})
	for _, m := range messages[:min(sent, len(messages))] {
		for _, app := range m.Applications {
			notified[app] = struct{}{}
		}
	}

	outcomes := make([]registry.Outcome, 0, len(apps))
	for _, app := range apps {
		if _, ok := notified[app]; ok {
			outcomes = append(outcomes, registry.Outcome{ApplicationID: app.ID, Status: registry.StatusNotified})
			continue
		}
		outcomes = append(outcomes, registry.Outcome{ApplicationID: app.ID, Status: registry.StatusFailed, Reason: "메시지 발송 중단"})
	}
	return outcomes
}

package notification

import (
	applog "github.com/darkkaiser/samlcert-notifier/pkg/log"
)

// Gate 메시지를 하나라도 발송하기 전에 전체 메시지 수를 최대치와 비교합니다.
// 최대치를 초과하면 어떤 메시지도 발송되지 않습니다.
type Gate struct {
	MaxMessages int
}

// Evaluate 배치의 메시지 수를 검사하고 배치를 봉인합니다.
//
// 메시지 수가 MaxMessages를 초과하면 배치는 Aborted 상태가 되고 ErrThresholdExceeded를 반환합니다.
// 그렇지 않으면 Approved 상태가 되어 발송할 수 있습니다. 이미 평가된 배치는 ErrGateAlreadyEvaluated를 반환합니다.
func (g Gate) Evaluate(b *Batch) error {
	if b.state.gated() {
		return ErrGateAlreadyEvaluated
	}

	count := b.CountMessages()
	if count > g.MaxMessages {
		b.state = StateAborted

		applog.WithComponentAndFields(component, applog.Fields{
			"messages":     count,
			"max_messages": g.MaxMessages,
		}).Error("발송 예정 메시지 수가 최대 허용치를 초과하여 발송을 중단합니다")

		return newErrThresholdExceeded(count, g.MaxMessages)
	}

	b.state = StateApproved

	applog.WithComponentAndFields(component, applog.Fields{
		"messages":     count,
		"max_messages": g.MaxMessages,
	}).Info("발송 게이트 통과")

	return nil
}

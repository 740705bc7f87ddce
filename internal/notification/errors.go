package notification

import (
	"fmt"

	apperrors "github.com/darkkaiser/samlcert-notifier/internal/pkg/errors"
)

var (
	// ErrThresholdExceeded 발송할 메시지 수가 설정된 최대치를 초과하여 실행 전체를 중단해야 할 때 반환됩니다.
	// 이 에러가 반환되면 어떤 메시지도 발송되지 않습니다.
	ErrThresholdExceeded = apperrors.New(apperrors.Conflict, "발송할 메시지 수가 허용된 최대치를 초과했습니다")

	// ErrGateAlreadyEvaluated 발송 게이트는 배치마다 한 번만 평가할 수 있습니다.
	ErrGateAlreadyEvaluated = apperrors.New(apperrors.Internal, "발송 게이트가 이미 평가된 배치입니다")

	// ErrGateNotPassed 발송 게이트를 통과하지 않은 배치를 발송하려 할 때 반환됩니다.
	ErrGateNotPassed = apperrors.New(apperrors.Internal, "발송 게이트를 통과하지 않은 배치는 발송할 수 없습니다")

	// ErrTransportUnavailable 메시지 전송 세션이 준비되지 않은 상태에서 발송을 시도할 때 반환됩니다.
	ErrTransportUnavailable = apperrors.New(apperrors.Unavailable, "메시지 전송 세션이 준비되지 않았습니다")
)

func newErrThresholdExceeded(count, ceiling int) error {
	return apperrors.Wrap(ErrThresholdExceeded, apperrors.Conflict, fmt.Sprintf("발송 예정 메시지 %d건이 최대 허용치 %d건을 초과하여 발송을 중단합니다", count, ceiling))
}

func newErrSendFailed(recipient string, sent int, cause error) error {
	return apperrors.Wrap(cause, apperrors.ExecutionFailed, fmt.Sprintf("수신자(%s)에게 메시지를 발송하지 못했습니다 (발송 완료: %d건)", recipient, sent))
}

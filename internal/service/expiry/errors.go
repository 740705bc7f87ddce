package expiry

import (
	"fmt"

	apperrors "github.com/darkkaiser/samlcert-notifier/internal/pkg/errors"
)

var (
	// ErrLookupFailures 연락처 조회에 실패한 애플리케이션이 있고, 이를 실행 실패로 처리하도록 설정된 경우 반환됩니다.
	ErrLookupFailures = apperrors.New(apperrors.ExecutionFailed, "연락처 조회에 실패한 애플리케이션이 있습니다")
)

func newErrLookupFailures(count int) error {
	return apperrors.Wrap(ErrLookupFailures, apperrors.ExecutionFailed, fmt.Sprintf("연락처 조회에 실패한 애플리케이션이 %d개 있습니다", count))
}

package scheduler

import (
	"fmt"

	apperrors "github.com/darkkaiser/samlcert-notifier/internal/pkg/errors"
)

var (
	// ErrJobNotInitialized 서비스 시작 시 실행할 작업(Job)이 지정되지 않았을 때 반환하는 에러입니다.
	ErrJobNotInitialized = apperrors.New(apperrors.Internal, "스케줄러에서 실행할 작업이 지정되지 않았습니다")
)

// NewErrInvalidCronSpec Cron 표현식이 올바르지 않아 스케줄 등록에 실패했을 때 반환하는 에러를 생성합니다.
func NewErrInvalidCronSpec(timeSpec string, cause error) error {
	return apperrors.Wrap(cause, apperrors.InvalidInput, fmt.Sprintf("스케줄 등록 실패: 잘못된 Cron 표현식입니다 (TimeSpec='%s')", timeSpec))
}

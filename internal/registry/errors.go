package registry

import (
	"fmt"

	apperrors "github.com/darkkaiser/samlcert-notifier/internal/pkg/errors"
)

var (
	// ErrContactLookup 애플리케이션의 연락처 정보를 조회할 수 없을 때 반환됩니다.
	// 애플리케이션 레코드가 0개 또는 2개 이상 조회되거나, 참조하는 사용자/그룹 레코드가 존재하지 않는 경우입니다.
	ErrContactLookup = apperrors.New(apperrors.NotFound, "애플리케이션의 연락처 정보를 조회할 수 없습니다")
)

// NewErrContactLookup 조회 실패 사유와 애플리케이션 식별자를 포함한 에러를 생성합니다.
// 반환된 에러는 errors.Is(err, ErrContactLookup)를 만족합니다.
func NewErrContactLookup(appID, reason string) error {
	return apperrors.Wrap(ErrContactLookup, apperrors.NotFound, fmt.Sprintf("애플리케이션(%s)의 연락처 조회 실패: %s", appID, reason))
}

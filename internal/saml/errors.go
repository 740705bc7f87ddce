package saml

import (
	"fmt"

	apperrors "github.com/darkkaiser/samlcert-notifier/internal/pkg/errors"
)

var (
	// ErrMalformedDefinition 애플리케이션의 SAML 메타데이터(XML)가 올바른 형식이 아닐 때 반환됩니다.
	// 해당 애플리케이션만 건너뛰고 나머지 애플리케이션의 처리는 계속되어야 합니다.
	ErrMalformedDefinition = apperrors.New(apperrors.ParsingFailed, "SAML 메타데이터(XML)의 형식이 올바르지 않습니다")

	// ErrCertificateDecode 메타데이터에 포함된 인증서 하나를 X.509 인증서로 해석할 수 없을 때 사용됩니다.
	// 해당 인증서만 건너뛰며, 호출자에게 반환되지 않고 로그로만 기록됩니다.
	ErrCertificateDecode = apperrors.New(apperrors.ParsingFailed, "X.509 인증서를 해석할 수 없습니다")
)

// newErrMalformedDefinition XML 파싱 실패 원인과 애플리케이션 식별자를 포함한 에러를 생성합니다.
// 반환된 에러는 errors.Is(err, ErrMalformedDefinition)를 만족합니다.
func newErrMalformedDefinition(appID string, cause error) error {
	return apperrors.Wrapf(ErrMalformedDefinition, apperrors.ParsingFailed, "애플리케이션(%s)의 메타데이터를 파싱할 수 없습니다: %v", appID, cause)
}

// newErrCertificateDecode 몇 번째 인증서가 어떤 이유로 실패했는지를 포함한 에러를 생성합니다.
func newErrCertificateDecode(index int, reason string) error {
	return apperrors.Wrap(ErrCertificateDecode, apperrors.ParsingFailed, fmt.Sprintf("%d번째 인증서: %s", index+1, reason))
}

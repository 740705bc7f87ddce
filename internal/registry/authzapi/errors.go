package authzapi

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	apperrors "github.com/darkkaiser/samlcert-notifier/internal/pkg/errors"
)

const maxBodySnippetBytes = 4 * 1024

var (
	// ErrSAMLProviderNotFound SAML 인증 제공자(Registration Provider)를 정확히 하나로 특정할 수 없을 때 반환됩니다.
	ErrSAMLProviderNotFound = apperrors.New(apperrors.ExecutionFailed, "SAML 인증 제공자 ID를 확인할 수 없습니다")

	// ErrUnexpectedResponse API 응답이 JSON이 아니거나 data 필드의 형식이 예상과 다를 때 반환됩니다.
	ErrUnexpectedResponse = apperrors.New(apperrors.ParsingFailed, "API 응답 형식이 올바르지 않습니다")
)

// HTTPStatusError 200 OK가 아닌 API 응답의 상태 코드와 응답 본문 일부를 담는 에러입니다.
type HTTPStatusError struct {
	StatusCode  int
	Status      string
	URL         string
	BodySnippet string

	// Cause 상태 코드에 따라 분류된 apperrors 에러 (Unavailable 또는 ExecutionFailed)
	Cause error
}

func (e *HTTPStatusError) Error() string {
	msg := fmt.Sprintf("HTTP %d (%s) URL: %s", e.StatusCode, e.Status, e.URL)
	if e.BodySnippet != "" {
		msg += fmt.Sprintf(", Body: %s", e.BodySnippet)
	}
	if e.Cause != nil {
		msg += fmt.Sprintf(": %v", e.Cause)
	}
	return msg
}

func (e *HTTPStatusError) Unwrap() error {
	return e.Cause
}

// CheckResponseStatus HTTP 응답 상태 코드를 분석하여 도메인 에러로 변환합니다.
//   - 200 OK: nil
//   - 5xx, 429: apperrors.Unavailable
//   - 그 외: apperrors.ExecutionFailed
func CheckResponseStatus(resp *http.Response) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}

	errType := apperrors.ExecutionFailed
	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		errType = apperrors.Unavailable
	}

	var snippet string
	if resp.Body != nil {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodySnippetBytes))
		snippet = strings.TrimSpace(string(b))
	}

	return &HTTPStatusError{
		StatusCode:  resp.StatusCode,
		Status:      resp.Status,
		URL:         redactURL(resp.Request),
		BodySnippet: snippet,
		Cause:       apperrors.New(errType, "API 요청이 실패했습니다"),
	}
}

func newErrUnexpectedResponse(url, reason string) error {
	return apperrors.Wrap(ErrUnexpectedResponse, apperrors.ParsingFailed, fmt.Sprintf("API 응답(%s)의 형식이 올바르지 않습니다: %s", url, reason))
}

func newErrSAMLProviderNotFound(count int) error {
	return apperrors.Wrap(ErrSAMLProviderNotFound, apperrors.ExecutionFailed, fmt.Sprintf("SAML 인증 제공자 조회 결과가 정확히 1건이어야 합니다 (조회 결과: %d건)", count))
}

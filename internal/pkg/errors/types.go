package errors

import "strconv"

// ErrorType 에러의 성격을 분류하는 타입입니다.
type ErrorType int

const (
	// Unknown 분류되지 않은 에러
	Unknown ErrorType = iota

	// Internal 내부 로직 오류 (버그, 잘못된 상태 전이 등)
	Internal

	// System 시스템 또는 인프라 오류 (파일, 네트워크, 세션 등)
	System

	// InvalidInput 설정값이나 입력값의 유효성 검사 실패
	InvalidInput

	// NotFound 조회 대상이 존재하지 않거나 기대한 개수와 다름
	NotFound

	// Conflict 안전 정책 위반 또는 상태 충돌 (예: 발송 한도 초과)
	Conflict

	// ExecutionFailed 외부 API 호출 등 작업 수행 실패
	ExecutionFailed

	// ParsingFailed XML, PEM, JSON 등 데이터 해석 실패
	ParsingFailed

	// Unavailable 외부 서비스 또는 전송 채널을 일시적으로 사용할 수 없음
	Unavailable
)

var errorTypeNames = [...]string{
	Unknown:         "Unknown",
	Internal:        "Internal",
	System:          "System",
	InvalidInput:    "InvalidInput",
	NotFound:        "NotFound",
	Conflict:        "Conflict",
	ExecutionFailed: "ExecutionFailed",
	ParsingFailed:   "ParsingFailed",
	Unavailable:     "Unavailable",
}

// String ErrorType의 이름을 반환합니다. 정의되지 않은 값은 "ErrorType(N)" 형식으로 표현합니다.
func (t ErrorType) String() string {
	if t < 0 || int(t) >= len(errorTypeNames) {
		return "ErrorType(" + strconv.Itoa(int(t)) + ")"
	}
	return errorTypeNames[t]
}

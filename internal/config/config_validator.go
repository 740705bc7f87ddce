package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	apperrors "github.com/darkkaiser/samlcert-notifier/internal/pkg/errors"
	"github.com/go-playground/validator/v10"
)

// newValidator 설정 검증에 사용할 Validator 인스턴스를 생성합니다.
func newValidator() *validator.Validate {
	v := validator.New()

	// 에러 메시지에 Go 구조체 필드명(예: TemplatePath) 대신 JSON 이름(예: template_path)을 보여주도록 설정합니다.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return v
}

// checkStruct 구조체 인스턴스의 유효성을 태그 규칙에 따라 검증하고, 발생한 오류를 사용자 친화적인 도메인 에러로 변환합니다.
func checkStruct(v *validator.Validate, s any, contextName string) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return apperrors.Wrap(err, apperrors.InvalidInput, fmt.Sprintf("%s 유효성 검증에 실패했습니다", contextName))
	}

	// 첫 번째 에러만 상세히 보고
	firstErr := validationErrors[0]

	// 필드별(Field) 커스텀 에러 처리
	switch firstErr.StructField() {
	case "Password":
		if contextName == "API" {
			return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("API 비밀번호(password)가 설정되지 않았습니다 (환경 변수 %sAPI__PASSWORD로 주입하세요)", EnvPrefix))
		}
		return apperrors.New(apperrors.InvalidInput, "SMTP 사용자(username)를 지정한 경우 SMTP 비밀번호(password)는 필수입니다")
	case "Port":
		return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("SMTP 포트(port)는 1에서 65535 사이의 값이어야 합니다: '%v'", firstErr.Value()))
	case "TLSPolicy":
		return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("SMTP TLS 정책(tls_policy)은 mandatory, opportunistic, none 중 하나여야 합니다: '%v'", firstErr.Value()))
	case "TemplatePath":
		if firstErr.Tag() == "file" {
			return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("지정된 메시지 템플릿 파일(template_path)을 찾을 수 없습니다: '%v'", firstErr.Value()))
		}
	case "Sender":
		if firstErr.Tag() == "email" {
			return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("발신자 주소(sender)가 올바른 이메일 형식이 아닙니다: '%v'", firstErr.Value()))
		}
	case "MaxMessages":
		return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("최대 발송 메시지 수(max_messages)는 1 이상이어야 합니다: '%v'", firstErr.Value()))
	case "RunwayDays":
		return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("만료 알림 기간(runway_days)은 0 이상이어야 합니다: '%v'", firstErr.Value()))
	case "Timeout":
		return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("API 요청 제한 시간(timeout)은 0보다 커야 합니다: '%v'", firstErr.Value()))
	case "RequestsPerSecond":
		return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("초당 API 요청 수(requests_per_second)는 0보다 커야 합니다: '%v'", firstErr.Value()))
	}

	// 태그별(Tag) 커스텀 에러 처리 (범용)
	switch firstErr.Tag() {
	case "required":
		return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("%s 설정의 필수 항목(%s)이 비어 있습니다", contextName, firstErr.Field()))
	case "url":
		return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("%s 설정의 %s 값이 올바른 URL 형식이 아닙니다: '%v'", contextName, firstErr.Field(), firstErr.Value()))
	}

	return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("%s의 설정이 올바르지 않습니다: %s (조건: %s)", contextName, firstErr.Field(), firstErr.Tag()))
}

package config

import (
	"fmt"
	"time"

	apperrors "github.com/darkkaiser/samlcert-notifier/internal/pkg/errors"
	"github.com/darkkaiser/samlcert-notifier/pkg/cronx"
)

// AppConfig 애플리케이션의 모든 설정을 포함하는 최상위 구조체
type AppConfig struct {
	Debug        bool               `json:"debug"`
	Log          LogConfig          `json:"log"`
	API          APIConfig          `json:"api"`
	SMTP         SMTPConfig         `json:"smtp"`
	Notification NotificationConfig `json:"notification"`
	Certificate  CertificateConfig  `json:"certificate"`
	Run          RunConfig          `json:"run"`
	Scheduler    SchedulerConfig    `json:"scheduler"`
	Metrics      MetricsConfig      `json:"metrics"`
}

// Validate 설정 항목의 정합성과 필수 값의 유효성을 검증합니다.
// 설정 로드 직후뿐 아니라, 실행 인자로 일부 값을 덮어쓴 뒤에도 다시 호출해야 합니다.
func (c *AppConfig) Validate() error {
	v := newValidator()

	if err := checkStruct(v, c.API, "API"); err != nil {
		return err
	}

	// Dry-Run 모드에서는 메일 서버에 접속하지 않으므로 SMTP 설정을 검증하지 않는다.
	if !c.Notification.DryRun {
		if err := checkStruct(v, c.SMTP, "SMTP"); err != nil {
			return err
		}
	}

	if err := checkStruct(v, c.Notification, "Notification"); err != nil {
		return err
	}

	if err := checkStruct(v, c.Certificate, "Certificate"); err != nil {
		return err
	}

	if err := c.Scheduler.validate(); err != nil {
		return err
	}

	return nil
}

// VerifyRecommendations 강제하지는 않지만 운영상 주의가 필요한 설정에 대한 경고 메시지를 반환합니다.
func (c *AppConfig) VerifyRecommendations() []string {
	var warnings []string

	if !c.Notification.DryRun && c.SMTP.TLSPolicy == TLSPolicyNone && c.SMTP.Username != "" {
		warnings = append(warnings, fmt.Sprintf("SMTP 인증 정보가 암호화되지 않은 연결(tls_policy: %s)로 전송됩니다", c.SMTP.TLSPolicy))
	}

	if c.Notification.MaxMessages > 1000 {
		warnings = append(warnings, fmt.Sprintf("최대 발송 메시지 수(max_messages: %d)가 매우 큽니다. 대량 오발송 방지 효과가 줄어듭니다", c.Notification.MaxMessages))
	}

	return warnings
}

// LogConfig 로그 파일 저장 위치를 정의하는 설정 구조체
type LogConfig struct {
	Dir string `json:"dir"`
}

// APIConfig 인가 서비스(Authorization Service) 레지스트리 API 접속 정보를 정의하는 설정 구조체
type APIConfig struct {
	KeycloakServer    string        `json:"keycloak_server" validate:"required"`
	Realm             string        `json:"realm" validate:"required"`
	ClientID          string        `json:"client_id" validate:"required"`
	URL               string        `json:"url" validate:"required,url"`
	Username          string        `json:"username" validate:"required"`
	Password          string        `json:"password" validate:"required"`
	Timeout           time.Duration `json:"timeout" validate:"gt=0"`
	RequestsPerSecond float64       `json:"requests_per_second" validate:"gt=0"`
}

// TLSPolicy SMTP 연결의 STARTTLS 사용 정책
type TLSPolicy string

const (
	TLSPolicyMandatory     TLSPolicy = "mandatory"
	TLSPolicyOpportunistic TLSPolicy = "opportunistic"
	TLSPolicyNone          TLSPolicy = "none"
)

// SMTPConfig 알림 메일을 발송할 SMTP 서버 접속 정보를 정의하는 설정 구조체
type SMTPConfig struct {
	Host      string    `json:"host" validate:"required,hostname|ip"`
	Port      int       `json:"port" validate:"min=1,max=65535"`
	Username  string    `json:"username"`
	Password  string    `json:"password" validate:"required_with=Username"`
	TLSPolicy TLSPolicy `json:"tls_policy" validate:"oneof=mandatory opportunistic none"`
}

// NotificationConfig 알림 메시지 작성 및 발송 한도를 정의하는 설정 구조체
type NotificationConfig struct {
	Sender             string `json:"sender" validate:"required,email"`
	Subject            string `json:"subject" validate:"required"`
	TemplatePath       string `json:"template_path" validate:"required,file"`
	DefaultContactName string `json:"default_contact_name" validate:"required"`
	DryRun             bool   `json:"dry_run"`
	MaxMessages        int    `json:"max_messages" validate:"min=1"`
}

// CertificateConfig 인증서 만료 판정 기준을 정의하는 설정 구조체
type CertificateConfig struct {
	// RunwayDays 오늘로부터 며칠 이내에 만료되는 인증서를 알림 대상으로 삼을지 나타냅니다.
	RunwayDays int `json:"runway_days" validate:"min=0"`
}

// RunConfig 1회 실행 결과의 판정 방식을 정의하는 설정 구조체
type RunConfig struct {
	// FailOnLookupError 연락처 조회에 실패한 애플리케이션이 하나라도 있으면 실행 결과를 실패로 처리합니다.
	FailOnLookupError bool `json:"fail_on_lookup_error"`
}

// SchedulerConfig schedule 명령의 주기 실행 스케줄을 정의하는 설정 구조체
type SchedulerConfig struct {
	TimeSpec string `json:"time_spec"`
}

func (c *SchedulerConfig) validate() error {
	if c.TimeSpec == "" {
		return nil
	}
	if err := cronx.Validate(c.TimeSpec); err != nil {
		return apperrors.Wrap(err, apperrors.InvalidInput, fmt.Sprintf("스케줄러 실행 주기(time_spec) 설정이 유효하지 않습니다: '%s'", c.TimeSpec))
	}
	return nil
}

// MetricsConfig 실행 결과 메트릭 내보내기 설정 구조체
type MetricsConfig struct {
	// TextfilePath Prometheus node_exporter textfile collector가 읽을 파일 경로 (빈 값이면 비활성화)
	TextfilePath string `json:"textfile_path"`
}

// Package config 애플리케이션 설정을 기본값, JSON 설정 파일, 환경 변수 순서로 병합하여 로드하고 검증합니다.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	apperrors "github.com/darkkaiser/samlcert-notifier/internal/pkg/errors"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

const (
	// AppName 애플리케이션의 전역 고유 식별자입니다.
	AppName string = "samlcert-notifier"

	// DefaultFilename 실행 인자로 설정 파일 경로가 주어지지 않았을 때 사용하는 기본 설정 파일명입니다.
	DefaultFilename = AppName + ".json"

	// EnvPrefix 설정을 덮어쓰는 환경 변수의 접두사입니다.
	// 예: SAMLCERT_API__PASSWORD -> api.password
	EnvPrefix = "SAMLCERT_"
)

// 설정 항목 기본값
const (
	DefaultLogDir = "logs"

	DefaultRealm             = "cern"
	DefaultAPITimeout        = 30 * time.Second
	DefaultRequestsPerSecond = 5.0

	DefaultSMTPPort      = 25
	DefaultSMTPTLSPolicy = TLSPolicyOpportunistic

	DefaultSubject           = "SAML certificates expiration"
	DefaultTemplatePath      = "template.txt"
	DefaultContactName       = "CERN SSO User"
	DefaultMaxMessages       = 100
	DefaultRunwayDays        = 60
	DefaultSchedulerTimeSpec = "0 0 8 * * *"
)

// newDefaultConfig 모든 설정 항목이 기본값으로 채워진 AppConfig를 반환합니다.
// 반환값은 koanf의 최하위 우선순위 레이어로 사용됩니다.
func newDefaultConfig() AppConfig {
	return AppConfig{
		Debug: false,
		Log: LogConfig{
			Dir: DefaultLogDir,
		},
		API: APIConfig{
			Realm:             DefaultRealm,
			Timeout:           DefaultAPITimeout,
			RequestsPerSecond: DefaultRequestsPerSecond,
		},
		SMTP: SMTPConfig{
			Port:      DefaultSMTPPort,
			TLSPolicy: DefaultSMTPTLSPolicy,
		},
		Notification: NotificationConfig{
			Subject:            DefaultSubject,
			TemplatePath:       DefaultTemplatePath,
			DefaultContactName: DefaultContactName,
			MaxMessages:        DefaultMaxMessages,
		},
		Certificate: CertificateConfig{
			RunwayDays: DefaultRunwayDays,
		},
		Scheduler: SchedulerConfig{
			TimeSpec: DefaultSchedulerTimeSpec,
		},
	}
}

// normalizeEnvKey 환경 변수 이름을 koanf 키 경로로 변환합니다.
// 접두사를 제거하고 소문자로 바꾼 뒤, 이중 언더스코어(__)를 계층 구분자(.)로 치환합니다.
func normalizeEnvKey(s string) string {
	s = strings.TrimPrefix(s, EnvPrefix)
	s = strings.ToLower(s)
	return strings.ReplaceAll(s, "__", ".")
}

// Load 기본 설정 파일을 읽어 애플리케이션 설정을 로드합니다.
func Load() (*AppConfig, error) {
	return LoadWithFile(DefaultFilename)
}

// LoadWithFile 지정된 경로의 설정 파일을 읽어 AppConfig 객체를 생성합니다.
//
// 우선순위 (낮음 -> 높음):
//  1. 기본값
//  2. JSON 설정 파일
//  3. SAMLCERT_ 접두사 환경 변수
func LoadWithFile(filename string) (*AppConfig, error) {
	return LoadWithOverrides(filename, nil)
}

// LoadWithOverrides LoadWithFile과 같지만, 환경 변수보다 우선하는 값(예: 실행 인자)을 적용한 뒤 검증합니다.
// overrides의 키는 "notification.dry_run"처럼 점(.)으로 구분된 설정 경로입니다.
func LoadWithOverrides(filename string, overrides map[string]any) (*AppConfig, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(newDefaultConfig(), "json"), nil); err != nil {
		return nil, apperrors.Wrap(err, apperrors.System, "애플리케이션 기본 설정 로드에 실패했습니다")
	}

	if err := k.Load(file.Provider(filename), json.Parser()); err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.Wrap(err, apperrors.System, fmt.Sprintf("설정 파일을 찾을 수 없습니다: '%s'", filename))
		}
		return nil, apperrors.Wrap(err, apperrors.InvalidInput, fmt.Sprintf("설정 파일 로드 중 오류가 발생했습니다: '%s'", filename))
	}

	// 비밀번호 등 민감 정보는 설정 파일 대신 환경 변수로 주입하는 것을 전제로 한다.
	if err := k.Load(env.Provider(EnvPrefix, ".", normalizeEnvKey), nil); err != nil {
		return nil, apperrors.Wrap(err, apperrors.System, "환경 변수 로드에 실패했습니다")
	}

	for key, value := range overrides {
		if err := k.Set(key, value); err != nil {
			return nil, apperrors.Wrap(err, apperrors.InvalidInput, fmt.Sprintf("설정 값을 덮어쓸 수 없습니다: '%s'", key))
		}
	}

	unmarshalConf := koanf.UnmarshalConf{
		Tag: "json",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.TextUnmarshallerHookFunc(),
			),
			ErrorUnused:      true, // 구조체에 없는 키가 설정 파일에 존재하면 오타로 간주한다.
			WeaklyTypedInput: true,
		},
	}
	var appConfig AppConfig
	if err := k.UnmarshalWithConf("", &appConfig, unmarshalConf); err != nil {
		return nil, apperrors.Wrap(err, apperrors.System, "설정 데이터를 애플리케이션 구조체로 변환하는데 실패했습니다")
	}

	if err := appConfig.Validate(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.InvalidInput, fmt.Sprintf("설정 파일('%s')의 유효성 검증에 실패했습니다", filename))
	}

	return &appConfig, nil
}

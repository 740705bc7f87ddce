// Package smtp SMTP 서버를 통해 메시지를 발송하는 전송 수단입니다.
package smtp

import (
	"context"
	"fmt"
	"time"

	"github.com/darkkaiser/samlcert-notifier/internal/notification/transport"
	apperrors "github.com/darkkaiser/samlcert-notifier/internal/pkg/errors"
	applog "github.com/darkkaiser/samlcert-notifier/pkg/log"
	"github.com/wneessen/go-mail"
)

const component = "notification.smtp"

const defaultTimeout = 30 * time.Second

// TLS 정책
const (
	TLSMandatory     = "mandatory"
	TLSOpportunistic = "opportunistic"
	TLSNone          = "none"
)

// Config SMTP 연결 설정
type Config struct {
	Host      string
	Port      int
	Username  string
	Password  string
	TLSPolicy string
	Timeout   time.Duration

	// UserAgent X-Mailer 헤더 값 (비어 있으면 생략)
	UserAgent string
}

// Transport 하나의 SMTP 세션을 열어 모든 메시지 발송에 재사용합니다.
type Transport struct {
	config Config

	// dial 테스트에서 실제 네트워크 연결을 대체하기 위한 함수
	dial func(ctx context.Context, c *mail.Client) error

	client *mail.Client
}

var _ transport.Session = (*Transport)(nil)

// New SMTP 전송 수단을 생성합니다. 실제 연결은 Open에서 이루어집니다.
func New(config Config) *Transport {
	return &Transport{
		config: config,
		dial: func(ctx context.Context, c *mail.Client) error {
			return c.DialWithContext(ctx)
		},
	}
}

// Open SMTP 서버에 연결하여 세션을 엽니다. 이미 열려 있으면 아무것도 하지 않습니다.
func (t *Transport) Open(ctx context.Context) error {
	if t.client != nil {
		return nil
	}

	client, err := mail.NewClient(t.config.Host, t.clientOptions()...)
	if err != nil {
		return apperrors.Wrap(err, apperrors.InvalidInput, "SMTP 클라이언트 설정이 올바르지 않습니다")
	}

	if err := t.dial(ctx, client); err != nil {
		return apperrors.Wrap(err, apperrors.Unavailable, fmt.Sprintf("SMTP 서버(%s:%d)에 연결하지 못했습니다", t.config.Host, t.config.Port))
	}
	t.client = client

	applog.WithComponentAndFields(component, applog.Fields{
		"host":       t.config.Host,
		"port":       t.config.Port,
		"tls_policy": t.config.TLSPolicy,
	}).Info("SMTP 세션 연결 완료")

	return nil
}

func (t *Transport) clientOptions() []mail.Option {
	timeout := t.config.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	opts := []mail.Option{
		mail.WithPort(t.config.Port),
		mail.WithTimeout(timeout),
		mail.WithTLSPolicy(tlsPolicy(t.config.TLSPolicy)),
	}

	if t.config.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(t.config.Username),
			mail.WithPassword(t.config.Password),
		)
	}

	return opts
}

func tlsPolicy(policy string) mail.TLSPolicy {
	switch policy {
	case TLSMandatory:
		return mail.TLSMandatory
	case TLSNone:
		return mail.NoTLS
	default:
		return mail.TLSOpportunistic
	}
}

// Ready 세션이 열려 있는지 여부를 반환합니다.
func (t *Transport) Ready() bool {
	return t.client != nil
}

// Send 열린 세션으로 메시지 한 건을 발송합니다.
func (t *Transport) Send(ctx context.Context, env transport.Envelope) error {
	if t.client == nil {
		return apperrors.New(apperrors.Unavailable, "SMTP 세션이 열려 있지 않습니다")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg, err := t.newMessage(env)
	if err != nil {
		return err
	}

	if err := t.client.Send(msg); err != nil {
		return apperrors.Wrap(err, apperrors.ExecutionFailed, fmt.Sprintf("SMTP 메시지 발송에 실패했습니다 (수신자: %s)", env.To.Email))
	}
	return nil
}

func (t *Transport) newMessage(env transport.Envelope) (*mail.Msg, error) {
	msg := mail.NewMsg()

	if err := msg.From(env.From); err != nil {
		return nil, apperrors.Wrap(err, apperrors.InvalidInput, fmt.Sprintf("발신자 주소가 올바르지 않습니다: '%s'", env.From))
	}
	if err := msg.AddToFormat(env.To.Name, env.To.Email); err != nil {
		return nil, apperrors.Wrap(err, apperrors.InvalidInput, fmt.Sprintf("수신자 주소가 올바르지 않습니다: '%s'", env.To.Email))
	}

	msg.Subject(env.Subject)
	msg.SetDate()
	msg.SetMessageID()
	if t.config.UserAgent != "" {
		msg.SetUserAgent(t.config.UserAgent)
	}
	msg.SetBodyString(mail.TypeTextPlain, env.Body)

	return msg, nil
}

// Close 세션을 닫습니다. 열려 있지 않으면 아무것도 하지 않습니다.
func (t *Transport) Close() error {
	if t.client == nil {
		return nil
	}

	client := t.client
	t.client = nil

	if err := client.Close(); err != nil {
		return apperrors.Wrap(err, apperrors.System, "SMTP 세션을 닫는 중 에러가 발생했습니다")
	}
	return nil
}

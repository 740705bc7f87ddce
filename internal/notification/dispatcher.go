package notification

import (
	"context"
	"time"

	"github.com/darkkaiser/samlcert-notifier/internal/notification/transport"
	applog "github.com/darkkaiser/samlcert-notifier/pkg/log"
)

// Dispatcher 발송 게이트를 통과한 배치의 메시지를 한 건씩 렌더링하여 전송합니다.
// 드라이런 여부는 Transport 구현체(console 또는 smtp)로만 결정됩니다.
type Dispatcher struct {
	Renderer  *Renderer
	Transport transport.Transport
	Sender    string
}

// Dispatch 배치의 메시지를 연락처 순서대로 발송하고 발송에 성공한 메시지 수를 반환합니다.
//
// 배치가 발송 게이트를 통과하지 않았으면 ErrGateNotPassed, 전송 세션이 준비되지 않았으면 ErrTransportUnavailable을
// 반환하며, 두 경우 모두 어떤 메시지도 발송하지 않습니다. 발송 중 에러가 발생하면 즉시 중단하고 그때까지의 발송 건수를 함께 반환합니다.
func (d *Dispatcher) Dispatch(ctx context.Context, b *Batch, now time.Time) (int, error) {
	if b.state != StateApproved {
		return 0, ErrGateNotPassed
	}
	if d.Transport == nil || !d.Transport.Ready() {
		return 0, ErrTransportUnavailable
	}

	b.state = StateDispatched

	sent := 0
	for _, m := range b.Messages() {
		if err := ctx.Err(); err != nil {
			return sent, err
		}

		rendered := d.Renderer.Render(m, now)
		env := transport.Envelope{
			From:    d.Sender,
			To:      transport.Address{Email: m.Recipient.Email, Name: m.Recipient.Name},
			Subject: rendered.Subject,
			Body:    rendered.Body,
		}

		if err := d.Transport.Send(ctx, env); err != nil {
			return sent, newErrSendFailed(m.Recipient.Email, sent, err)
		}
		sent++

		applog.WithComponentAndFields(component, applog.Fields{
			"recipient":    m.Recipient.Email,
			"applications": len(m.Applications),
		}).Info("알림 메시지 발송 완료")
	}

	return sent, nil
}

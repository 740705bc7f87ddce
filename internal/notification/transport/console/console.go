// Package console 메시지를 실제로 발송하지 않고 지정된 출력으로 내보내는 드라이런(Dry-run)용 전송 수단입니다.
package console

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/darkkaiser/samlcert-notifier/internal/notification/transport"
	apperrors "github.com/darkkaiser/samlcert-notifier/internal/pkg/errors"
)

const separator = "-----"

// Transport io.Writer에 메시지를 출력합니다.
type Transport struct {
	mu sync.Mutex
	w  io.Writer
}

var _ transport.Transport = (*Transport)(nil)

// New w에 메시지를 출력하는 전송 수단을 생성합니다.
func New(w io.Writer) *Transport {
	return &Transport{w: w}
}

// Ready 출력 대상이 있으면 항상 true를 반환합니다.
func (t *Transport) Ready() bool {
	return t.w != nil
}

// Send 메시지를 To/From/Subject/Body 순서로 출력합니다.
func (t *Transport) Send(ctx context.Context, env transport.Envelope) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	_, err := fmt.Fprintf(t.w, "To: %s\nFrom: %s\nSubject: %s\nBody:\n%s\n%s\n", env.To, env.From, env.Subject, env.Body, separator)
	if err != nil {
		return apperrors.Wrap(err, apperrors.System, "메시지를 출력하지 못했습니다")
	}
	return nil
}

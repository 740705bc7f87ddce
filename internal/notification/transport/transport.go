// Package transport 렌더링된 메시지를 수신자에게 전달하는 전송 수단을 정의합니다.
package transport

import (
	"context"
	"fmt"
)

// Address 이메일 주소와 표시 이름
type Address struct {
	Email string
	Name  string
}

func (a Address) String() string {
	if a.Name == "" {
		return a.Email
	}
	return fmt.Sprintf("%s (%s)", a.Email, a.Name)
}

// Envelope 전송할 메시지 한 건
type Envelope struct {
	From    string
	To      Address
	Subject string
	Body    string
}

// Transport 메시지 전송 수단의 인터페이스입니다.
//
// 하나의 세션을 열어 모든 메시지 전송에 재사용하며, 한 번에 하나의 고루틴에서만 사용됩니다.
type Transport interface {
	// Ready 메시지를 전송할 수 있는 세션이 준비되어 있는지 여부를 반환합니다.
	Ready() bool

	// Send 메시지 한 건을 전송합니다.
	Send(ctx context.Context, env Envelope) error
}

// Session 실행마다 연결을 열고 닫아야 하는 전송 수단(예: SMTP)이 추가로 구현하는 인터페이스입니다.
type Session interface {
	Transport

	// Open 세션을 엽니다. 이미 열려 있으면 아무것도 하지 않습니다.
	Open(ctx context.Context) error

	// Close 세션을 닫습니다.
	Close() error
}

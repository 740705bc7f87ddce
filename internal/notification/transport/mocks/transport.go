package mocks

import (
	"context"

	"github.com/darkkaiser/samlcert-notifier/internal/notification/transport"
	"github.com/stretchr/testify/mock"
)

// MockTransport transport.Transport 인터페이스의 Mock 구현체입니다.
type MockTransport struct {
	mock.Mock
}

// Ready 세션 준비 여부 Mock 메서드입니다.
func (m *MockTransport) Ready() bool {
	args := m.Called()
	return args.Bool(0)
}

// Send 메시지 전송 Mock 메서드입니다.
func (m *MockTransport) Send(ctx context.Context, env transport.Envelope) error {
	args := m.Called(ctx, env)
	return args.Error(0)
}

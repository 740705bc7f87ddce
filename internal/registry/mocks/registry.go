package mocks

import (
	"context"

	"github.com/darkkaiser/samlcert-notifier/internal/registry"
	"github.com/stretchr/testify/mock"
)

// MockContactResolver registry.ContactResolver 인터페이스의 Mock 구현체입니다.
type MockContactResolver struct {
	mock.Mock
}

// ResolveContacts 연락처 조회 Mock 메서드입니다.
func (m *MockContactResolver) ResolveContacts(ctx context.Context, applicationID string) ([]registry.Contact, error) {
	args := m.Called(ctx, applicationID)

	var contacts []registry.Contact
	if v := args.Get(0); v != nil {
		contacts = v.([]registry.Contact)
	}
	return contacts, args.Error(1)
}

// MockRegistrationFetcher registry.RegistrationFetcher 인터페이스의 Mock 구현체입니다.
type MockRegistrationFetcher struct {
	mock.Mock
}

// FetchRegistrations 등록 정보 조회 Mock 메서드입니다.
func (m *MockRegistrationFetcher) FetchRegistrations(ctx context.Context) ([]registry.Registration, error) {
	args := m.Called(ctx)

	var regs []registry.Registration
	if v := args.Get(0); v != nil {
		regs = v.([]registry.Registration)
	}
	return regs, args.Error(1)
}

// Package notification 만료가 임박한 애플리케이션을 연락처별 메시지로 묶고, 발송 한도를 검사한 뒤 메시지를 발송합니다.
//
// 하나의 Batch는 한 번의 실행에서만 사용됩니다.
//
//	Empty ──Add──▶ Accumulating ──Gate.Evaluate──▶ Approved ──Dispatch──▶ Dispatched
//	                                          └──▶ Aborted
package notification

import (
	"slices"

	"github.com/darkkaiser/samlcert-notifier/internal/registry"
	applog "github.com/darkkaiser/samlcert-notifier/pkg/log"
)

const component = "notification"

// State 배치의 진행 상태
type State int

const (
	StateEmpty State = iota
	StateAccumulating
	StateAborted
	StateApproved
	StateDispatched
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "Empty"
	case StateAccumulating:
		return "Accumulating"
	case StateAborted:
		return "Aborted"
	case StateApproved:
		return "Approved"
	case StateDispatched:
		return "Dispatched"
	default:
		return "Unknown"
	}
}

// gated 발송 게이트 평가가 끝난 상태인지 여부를 반환합니다.
func (s State) gated() bool {
	return s >= StateAborted
}

// Message 한 연락처에게 발송할 메시지의 내용입니다. Applications는 Add가 호출된 순서를 유지합니다.
type Message struct {
	Recipient    registry.Contact
	Applications []*registry.Application
}

// Batch 연락처별로 애플리케이션을 묶어 관리합니다.
//
// 연락처는 값으로 비교되므로, 같은 이메일과 이름을 가진 연락처는 여러 애플리케이션에 걸쳐 하나의 메시지로 합쳐집니다.
// 연락처의 순서는 처음 등장한 순서를 따릅니다.
type Batch struct {
	recipients []registry.Contact
	buckets    map[registry.Contact][]*registry.Application

	state State
}

// NewBatch 비어 있는 배치를 생성합니다.
func NewBatch() *Batch {
	return &Batch{
		buckets: make(map[registry.Contact][]*registry.Application),
	}
}

// Add 애플리케이션을 각 연락처의 메시지에 추가합니다.
//
// 연락처가 없으면 경고를 남기고 애플리케이션을 건너뛰며 false를 반환합니다.
// 발송 게이트 평가 이후에는 배치가 봉인되어 아무것도 추가하지 않고 false를 반환합니다.
func (b *Batch) Add(app *registry.Application, contacts []registry.Contact) bool {
	if b.state.gated() {
		applog.WithComponentAndFields(component, applog.Fields{
			"application_id": app.ID,
			"state":          b.state.String(),
		}).Error("발송 게이트 평가 이후에는 배치에 애플리케이션을 추가할 수 없습니다")

		return false
	}

	if len(contacts) == 0 {
		applog.WithComponentAndFields(component, applog.Fields{
			"application_id": app.ID,
		}).Warn("연락처 정보가 없어 알림 대상에서 제외합니다")

		return false
	}

	for _, c := range contacts {
		bucket, exists := b.buckets[c]
		if !exists {
			b.recipients = append(b.recipients, c)
		}
		// 연락처 목록에 같은 연락처가 중복되어 있어도 한 번만 추가한다.
		if slices.Contains(bucket, app) {
			continue
		}
		b.buckets[c] = append(bucket, app)
	}

	b.state = StateAccumulating

	return true
}

// CountMessages 발송될 메시지 수(서로 다른 연락처 수)를 반환합니다.
func (b *Batch) CountMessages() int {
	return len(b.recipients)
}

// Messages 연락처별 메시지 목록을 연락처가 처음 등장한 순서대로 반환합니다.
func (b *Batch) Messages() []Message {
	messages := make([]Message, 0, len(b.recipients))
	for _, c := range b.recipients {
		messages = append(messages, Message{
			Recipient:    c,
			Applications: slices.Clone(b.buckets[c]),
		})
	}
	return messages
}

// State 배치의 현재 상태를 반환합니다.
func (b *Batch) State() State {
	return b.state
}

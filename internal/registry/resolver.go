package registry

import (
	"context"
	"slices"
	"sync"

	applog "github.com/darkkaiser/samlcert-notifier/pkg/log"
)

const component = "registry"

// RegistrationFetcher 레지스트리에 등록된 모든 SAML 애플리케이션의 등록 정보를 조회합니다.
type RegistrationFetcher interface {
	FetchRegistrations(ctx context.Context) ([]Registration, error)
}

// ContactResolver 애플리케이션 식별자로 알림 수신 연락처 목록을 조회합니다.
//
// 반환 순서: 소유자(owner) 계정이 먼저, 관리자 그룹(administrators)이 그 다음입니다.
// 유효한 이메일이 없는 항목은 목록에서 제외되며, 결과가 빈 목록일 수도 있습니다.
// 애플리케이션 레코드를 정확히 하나로 특정할 수 없으면 ErrContactLookup을 반환해야 합니다.
type ContactResolver interface {
	ResolveContacts(ctx context.Context, applicationID string) ([]Contact, error)
}

// CachingResolver 애플리케이션별 조회 결과(빈 목록 포함)를 기억하여, 같은 애플리케이션을 두 번 조회하지 않도록 합니다.
// 조회에 실패한 결과는 기억하지 않습니다. 1회 실행마다 새로 생성해야 합니다.
type CachingResolver struct {
	next ContactResolver

	mu    sync.Mutex
	cache map[string][]Contact
}

// NewCachingResolver next를 감싸는 CachingResolver를 생성합니다.
func NewCachingResolver(next ContactResolver) *CachingResolver {
	return &CachingResolver{
		next:  next,
		cache: make(map[string][]Contact),
	}
}

// ResolveContacts ContactResolver 인터페이스를 구현합니다.
func (r *CachingResolver) ResolveContacts(ctx context.Context, applicationID string) ([]Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if contacts, ok := r.cache[applicationID]; ok {
		return slices.Clone(contacts), nil
	}

	contacts, err := r.next.ResolveContacts(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	if contacts == nil {
		contacts = []Contact{}
	}
	r.cache[applicationID] = contacts

	return slices.Clone(contacts), nil
}

// Resolved 연락처 조회가 끝난 애플리케이션입니다. 생성 이후 변경되지 않습니다.
type Resolved struct {
	Application *Application
	Contacts    []Contact
}

// ResolveAll 모든 애플리케이션의 연락처를 먼저 조회하여 변경 불가능한 스냅샷을 만듭니다.
//
// 한 애플리케이션의 조회 실패는 해당 애플리케이션의 StatusFailed 결과로만 기록되고, 나머지 애플리케이션의 조회는 계속됩니다.
// ctx가 취소되면 즉시 중단하고 ctx의 에러를 반환합니다.
func ResolveAll(ctx context.Context, resolver ContactResolver, apps Applications) ([]Resolved, []Outcome, error) {
	resolved := make([]Resolved, 0, len(apps))

	var outcomes []Outcome
	for _, app := range apps {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		contacts, err := resolver.ResolveContacts(ctx, app.ID)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, nil, ctxErr
			}

			applog.WithComponentAndFields(component, applog.Fields{
				"application_id": app.ID,
				"error":          err,
			}).Error("연락처 조회에 실패하여 해당 애플리케이션의 알림을 건너뜁니다")

			outcomes = append(outcomes, Outcome{
				ApplicationID: app.ID,
				Status:        StatusFailed,
				Reason:        err.Error(),
			})
			continue
		}

		applog.WithComponentAndFields(component, applog.Fields{
			"application_id": app.ID,
			"contacts":       len(contacts),
		}).Debug("연락처 조회 완료")

		resolved = append(resolved, Resolved{
			Application: app,
			Contacts:    slices.Clone(contacts),
		})
	}

	return resolved, outcomes, nil
}

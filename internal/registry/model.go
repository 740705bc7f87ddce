// Package registry 인가 서비스에 등록된 SAML 애플리케이션과 그 연락처를 표현하는 도메인 모델을 정의합니다.
package registry

import (
	"fmt"
	"math"
	"time"

	"github.com/darkkaiser/samlcert-notifier/internal/saml"
)

// Registration 레지스트리에서 조회한 SAML 애플리케이션 등록 정보(원본)입니다.
type Registration struct {
	ApplicationID string
	Definition    string
}

// ExtractFunc 애플리케이션 메타데이터에서 인증서 만료 정보를 계산하는 함수입니다.
type ExtractFunc func(appID string, definition []byte) (saml.Expiration, error)

// Application 1회 실행 동안 사용되는 SAML 애플리케이션입니다. 만료 시각은 생성 시점에 한 번만 계산됩니다.
type Application struct {
	ID string

	expiration    time.Time
	hasExpiration bool
}

// NewApplication 등록 정보의 메타데이터를 해석하여 Application을 생성합니다.
// 메타데이터가 올바른 XML이 아니면 에러를 반환합니다.
func NewApplication(reg Registration, extract ExtractFunc) (*Application, error) {
	exp, err := extract(reg.ApplicationID, []byte(reg.Definition))
	if err != nil {
		return nil, err
	}

	return &Application{
		ID:            reg.ApplicationID,
		expiration:    exp.NotAfter,
		hasExpiration: exp.Valid,
	}, nil
}

// NewApplicationWithExpiration 이미 계산된 만료 시각으로 Application을 생성합니다.
func NewApplicationWithExpiration(id string, expiration time.Time) *Application {
	return &Application{
		ID:            id,
		expiration:    expiration,
		hasExpiration: true,
	}
}

// Expiration 인증서 만료 시각과 그 존재 여부를 반환합니다.
func (a *Application) Expiration() (time.Time, bool) {
	return a.expiration, a.hasExpiration
}

// DaysLeft now 기준 만료까지 남은 일수를 반환합니다. 24시간 미만의 나머지는 버리며(내림), 이미 만료되었으면 음수입니다.
func (a *Application) DaysLeft(now time.Time) int {
	return int(math.Floor(a.expiration.Sub(now).Hours() / 24))
}

func (a *Application) String() string {
	if !a.hasExpiration {
		return fmt.Sprintf("%s (만료 정보 없음)", a.ID)
	}
	return fmt.Sprintf("%s (만료: %s)", a.ID, a.expiration.Format(time.RFC3339))
}

// Applications 레지스트리 조회 순서를 유지하는 애플리케이션 목록입니다.
type Applications []*Application

// ExpiringBy 만료 시각이 deadline 이전이거나 같은 애플리케이션만 원래 순서대로 반환합니다.
// 만료 정보가 없는 애플리케이션은 어떤 deadline에도 포함되지 않습니다.
func (as Applications) ExpiringBy(deadline time.Time) Applications {
	var result Applications
	for _, a := range as {
		exp, ok := a.Expiration()
		if !ok {
			continue
		}
		if !exp.After(deadline) {
			result = append(result, a)
		}
	}
	return result
}

// WithExpiration 만료 정보가 있는 애플리케이션의 개수를 반환합니다.
func (as Applications) WithExpiration() int {
	n := 0
	for _, a := range as {
		if _, ok := a.Expiration(); ok {
			n++
		}
	}
	return n
}

// Contact 알림 수신자입니다. 이메일과 이름이 모두 같으면 같은 연락처로 취급되며, 맵의 키로 그대로 사용할 수 있습니다.
type Contact struct {
	Email string
	Name  string
}

func (c Contact) String() string {
	if c.Name == "" {
		return c.Email
	}
	return fmt.Sprintf("%s <%s>", c.Name, c.Email)
}

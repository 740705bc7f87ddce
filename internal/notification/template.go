package notification

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/darkkaiser/samlcert-notifier/internal/pkg/errors"
	"github.com/darkkaiser/samlcert-notifier/internal/registry"
)

// 메시지 템플릿에서 치환되는 토큰 목록
const (
	TokenContactName     = "{CONTACT_NAME}"
	TokenRecipientName   = "{RECIPIENT_NAME}"
	TokenApplicationID   = "{APPLICATION_ID}"
	TokenExpirationDate  = "{EXPIRATION_DATE}"
	TokenDaysLeft        = "{DAYS_LEFT}"
	TokenApplicationList = "{APPLICATION_LIST}"
)

// ExpirationDateLayout {EXPIRATION_DATE} 토큰의 날짜 형식 (YYYY-MM-DD)
const ExpirationDateLayout = "2006-01-02"

const notAvailable = "N/A"

var perApplicationTokens = []string{TokenApplicationID, TokenExpirationDate, TokenDaysLeft}

// Rendered 템플릿 치환이 끝난 메시지의 제목과 본문
type Rendered struct {
	Subject string
	Body    string
}

// Renderer 텍스트 템플릿의 토큰을 치환하여 연락처별 메시지를 생성합니다.
//
// 본문 규칙:
//   - {CONTACT_NAME}, {RECIPIENT_NAME}: 수신자 이름 (비어 있으면 DefaultContactName)
//   - {APPLICATION_ID}, {EXPIRATION_DATE}, {DAYS_LEFT} 중 하나라도 포함된 줄은 메시지의 애플리케이션마다 한 번씩 반복됩니다.
//   - {APPLICATION_LIST}: 애플리케이션마다 한 줄씩 "- ID (만료일, 남은 일수)" 형식의 목록
//
// 제목은 같은 토큰을 지원하며, 애플리케이션 토큰은 첫 번째 애플리케이션으로 치환됩니다.
type Renderer struct {
	Body               string
	Subject            string
	DefaultContactName string
}

// LoadTemplate 템플릿 파일을 읽어 반환합니다.
func LoadTemplate(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.System, fmt.Sprintf("메시지 템플릿 파일(%s)을 읽을 수 없습니다", path))
	}
	return string(b), nil
}

// Render now 시점을 기준으로 남은 일수를 계산하여 메시지를 생성합니다.
func (r *Renderer) Render(m Message, now time.Time) Rendered {
	name := m.Recipient.Name
	if name == "" {
		name = r.DefaultContactName
	}

	return Rendered{
		Subject: r.renderSubject(m, name, now),
		Body:    r.renderBody(m, name, now),
	}
}

func (r *Renderer) renderSubject(m Message, name string, now time.Time) string {
	pairs := nameTokens(name)
	if len(m.Applications) > 0 {
		pairs = slices.Concat(pairs, applicationTokens(m.Applications[0], now))
	}
	return strings.NewReplacer(pairs...).Replace(r.Subject)
}

// renderBody 반복 여부는 치환 전의 템플릿 줄로 판단하고, 한 줄의 모든 토큰은 하나의 Replacer로 한 번에 치환한다.
// 치환된 값(수신자 이름 등)에 토큰 문자열이 들어 있어도 다시 치환되지 않는다.
func (r *Renderer) renderBody(m Message, name string, now time.Time) string {
	common := slices.Concat(nameTokens(name), []string{TokenApplicationList, applicationList(m.Applications, now)})
	commonReplacer := strings.NewReplacer(common...)

	perApplication := make([]*strings.Replacer, 0, len(m.Applications))
	for _, app := range m.Applications {
		perApplication = append(perApplication, strings.NewReplacer(slices.Concat(common, applicationTokens(app, now))...))
	}

	var sb strings.Builder

	for _, line := range strings.SplitAfter(r.Body, "\n") {
		if !containsAny(line, perApplicationTokens) {
			sb.WriteString(commonReplacer.Replace(line))
			continue
		}

		content, found := strings.CutSuffix(line, "\n")
		repeated := make([]string, 0, len(perApplication))
		for _, replacer := range perApplication {
			repeated = append(repeated, replacer.Replace(content))
		}
		sb.WriteString(strings.Join(repeated, "\n"))
		if found && len(repeated) > 0 {
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

func nameTokens(name string) []string {
	return []string{TokenContactName, name, TokenRecipientName, name}
}

func applicationTokens(app *registry.Application, now time.Time) []string {
	date, daysLeft := expirationFields(app, now)
	return []string{
		TokenApplicationID, app.ID,
		TokenExpirationDate, date,
		TokenDaysLeft, daysLeft,
	}
}

func applicationList(apps []*registry.Application, now time.Time) string {
	items := make([]string, 0, len(apps))
	for _, app := range apps {
		date, daysLeft := expirationFields(app, now)
		items = append(items, fmt.Sprintf("- %s (%s, %s)", app.ID, date, daysLeft))
	}
	return strings.Join(items, "\n")
}

// expirationFields 만료일과 남은 일수를 문자열로 반환합니다. 만료일이 없으면 둘 다 N/A입니다.
func expirationFields(app *registry.Application, now time.Time) (date, daysLeft string) {
	exp, ok := app.Expiration()
	if !ok {
		return notAvailable, notAvailable
	}
	return exp.Format(ExpirationDateLayout), strconv.Itoa(app.DaysLeft(now))
}

func containsAny(s string, tokens []string) bool {
	for _, t := range tokens {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}


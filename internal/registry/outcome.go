package registry

import (
	"fmt"

	applog "github.com/darkkaiser/samlcert-notifier/pkg/log"
)

// Status 1회 실행에서 애플리케이션 하나가 처리된 결과입니다.
type Status int

const (
	// StatusNotified 연락처에 알림 메시지가 발송(또는 Dry-Run 출력)되었습니다.
	StatusNotified Status = iota + 1

	// StatusSkipped 메타데이터 형식 오류, 연락처 없음 등으로 알림 대상에서 제외되었습니다.
	StatusSkipped

	// StatusFailed 연락처 조회 또는 발송 중 오류가 발생했습니다.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusNotified:
		return "notified"
	case StatusSkipped:
		return "skipped"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Outcome 애플리케이션별 처리 결과와 그 사유입니다.
type Outcome struct {
	ApplicationID string
	Status        Status
	Reason        string
}

// BuildApplications 등록 정보마다 Application을 하나씩 생성합니다.
// 메타데이터 형식이 올바르지 않은 등록 정보는 건너뛰고 StatusSkipped 결과로 보고하며, 전체 처리를 중단하지 않습니다.
func BuildApplications(regs []Registration, extract ExtractFunc) (Applications, []Outcome) {
	apps := make(Applications, 0, len(regs))

	var outcomes []Outcome
	for _, reg := range regs {
		app, err := NewApplication(reg, extract)
		if err != nil {
			applog.WithComponentAndFields(component, applog.Fields{
				"application_id": reg.ApplicationID,
				"error":          err,
			}).Error("애플리케이션 메타데이터를 해석할 수 없어 건너뜁니다")

			outcomes = append(outcomes, Outcome{
				ApplicationID: reg.ApplicationID,
				Status:        StatusSkipped,
				Reason:        err.Error(),
			})
			continue
		}

		apps = append(apps, app)
	}

	return apps, outcomes
}

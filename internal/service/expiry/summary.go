package expiry

import (
	"time"

	"github.com/darkkaiser/samlcert-notifier/internal/registry"
)

// Summary 1회 실행의 결과 요약입니다. 실행이 도중에 실패해도 그때까지 집계된 값을 담고 있습니다.
type Summary struct {
	StartedAt time.Time
	Deadline  time.Time

	// Registrations 레지스트리에서 조회한 SAML 등록 정보 수
	Registrations int

	// Applications 인증서 만료 정보가 있는 애플리케이션 목록 (메트릭 출력용)
	Applications registry.Applications

	// Expiring Deadline 이전에 만료되는 애플리케이션 수
	Expiring int

	Outcomes []registry.Outcome

	MessagesPlanned int
	MessagesSent    int
}

// Count 지정된 처리 결과를 가진 애플리케이션 수를 반환합니다.
func (s *Summary) Count(status registry.Status) int {
	n := 0
	for _, o := range s.Outcomes {
		if o.Status == status {
			n++
		}
	}
	return n
}

// ExitCode 실행 결과를 프로세스 종료 코드로 변환합니다. 성공이면 0, 그 외에는 1입니다.
func ExitCode(err error) int {
	if err != nil {
		return 1
	}
	return 0
}

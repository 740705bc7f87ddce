// Package cronx 애플리케이션 전역에서 공통으로 사용하는 Cron 표현식 파서와 검증 헬퍼를 제공합니다.
package cronx

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// StandardParser 초 단위를 포함하는 6필드 형식과 Descriptor(@daily, @every 1h 등)를 해석하는 파서를 반환합니다.
//
// 필드 순서: [초] [분] [시] [일] [월] [요일]
// 표준 5필드 형식은 허용하지 않습니다.
func StandardParser() cron.Parser {
	return cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
}

// Validate 주어진 Cron 표현식이 StandardParser로 해석 가능한지 검증합니다.
// 앞뒤 공백은 무시합니다.
func Validate(spec string) error {
	if _, err := StandardParser().Parse(strings.TrimSpace(spec)); err != nil {
		return fmt.Errorf("Cron 표현식 파싱 실패 (%q): %w", spec, err)
	}
	return nil
}

// NextRun 기준 시각 이후 첫 번째 실행 예정 시각을 계산합니다.
func NextRun(spec string, from time.Time) (time.Time, error) {
	schedule, err := StandardParser().Parse(strings.TrimSpace(spec))
	if err != nil {
		return time.Time{}, fmt.Errorf("Cron 표현식 파싱 실패 (%q): %w", spec, err)
	}
	return schedule.Next(from), nil
}

// Package metrics 실행 결과를 Prometheus 텍스트 파일 형식으로 내보냅니다.
//
// node_exporter의 textfile collector가 읽어 가는 용도이며, 실행마다 새 레지스트리를 만들어 파일 전체를 다시 씁니다.
package metrics

import (
	"fmt"
	"time"

	apperrors "github.com/darkkaiser/samlcert-notifier/internal/pkg/errors"
	"github.com/darkkaiser/samlcert-notifier/internal/registry"
	"github.com/darkkaiser/samlcert-notifier/internal/service/expiry"
	applog "github.com/darkkaiser/samlcert-notifier/pkg/log"
	"github.com/prometheus/client_golang/prometheus"
)

const component = "metrics"

const namespace = "samlcert"

// NewRegistry 실행 요약으로 메트릭을 채운 레지스트리를 생성합니다.
// runErr는 실행 결과 에러이며, nil이면 samlcert_run_success가 1이 됩니다.
func NewRegistry(summary *expiry.Summary, runErr error) *prometheus.Registry {
	reg := prometheus.NewRegistry()

	certificateExpiry := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "application_certificate_expiry_timestamp_seconds",
		Help:      "Earliest notAfter of the SAML signing certificates of the application, in unixtime.",
	}, []string{"application_id"})

	messages := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "run_messages",
		Help:      "Number of notification messages in the last run.",
	}, []string{"state"})

	applications := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "run_applications",
		Help:      "Number of applications per outcome status in the last run.",
	}, []string{"status"})

	success := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "run_success",
		Help:      "Displays whether or not the last run was a success.",
	})

	timestamp := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "run_timestamp_seconds",
		Help:      "Start time of the last run, in unixtime.",
	})

	reg.MustRegister(certificateExpiry, messages, applications, success, timestamp)

	if summary != nil {
		for _, app := range summary.Applications {
			if exp, ok := app.Expiration(); ok {
				certificateExpiry.WithLabelValues(app.ID).Set(float64(exp.Unix()))
			}
		}

		messages.WithLabelValues("planned").Set(float64(summary.MessagesPlanned))
		messages.WithLabelValues("sent").Set(float64(summary.MessagesSent))

		for _, status := range []registry.Status{registry.StatusNotified, registry.StatusSkipped, registry.StatusFailed} {
			applications.WithLabelValues(status.String()).Set(float64(summary.Count(status)))
		}

		timestamp.Set(float64(summary.StartedAt.UnixNano()) / float64(time.Second))
	}

	if runErr == nil {
		success.Set(1)
	}

	return reg
}

// WriteTextfile 실행 요약을 path에 Prometheus 텍스트 형식으로 씁니다. 파일은 원자적으로 교체됩니다.
func WriteTextfile(path string, summary *expiry.Summary, runErr error) error {
	if err := prometheus.WriteToTextfile(path, NewRegistry(summary, runErr)); err != nil {
		return apperrors.Wrap(err, apperrors.System, fmt.Sprintf("메트릭 파일(%s)을 쓰지 못했습니다", path))
	}

	applog.WithComponentAndFields(component, applog.Fields{
		"path": path,
	}).Debug("메트릭 파일 갱신 완료")

	return nil
}

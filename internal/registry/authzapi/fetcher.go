package authzapi

import (
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "github.com/darkkaiser/samlcert-notifier/internal/pkg/errors"
	applog "github.com/darkkaiser/samlcert-notifier/pkg/log"
	"golang.org/x/time/rate"
)

const defaultMaxResponseBytes = 64 * 1024 * 1024

// Fetcher HTTP 요청을 수행하는 인터페이스
//
// 기본 구현체 위에 속도 제한, 응답 크기 제한, 로깅 기능을 미들웨어처럼 겹겹이 감싸서 사용합니다.
type Fetcher interface {
	Do(req *http.Request) (*http.Response, error)
}

// httpFetcher User-Agent와 Accept 헤더를 채워 넣고 실제 HTTP 요청을 수행합니다.
type httpFetcher struct {
	client    *http.Client
	userAgent string
}

func (f *httpFetcher) Do(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
	return f.client.Do(req)
}

// rateLimitFetcher 원격 API에 부하를 주지 않도록 초당 요청 수를 제한합니다.
type rateLimitFetcher struct {
	delegate Fetcher
	limiter  *rate.Limiter
}

func newRateLimitFetcher(delegate Fetcher, requestsPerSecond float64) Fetcher {
	if requestsPerSecond <= 0 {
		return delegate
	}
	return &rateLimitFetcher{
		delegate: delegate,
		limiter:  rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
	}
}

func (f *rateLimitFetcher) Do(req *http.Request) (*http.Response, error) {
	if err := f.limiter.Wait(req.Context()); err != nil {
		return nil, apperrors.Wrap(err, apperrors.Unavailable, "API 요청 속도 제한 대기 중 요청이 취소되었습니다")
	}
	return f.delegate.Do(req)
}

// maxBytesFetcher 응답 본문의 크기를 제한하여 비정상적으로 큰 응답으로 인한 메모리 고갈을 막습니다.
type maxBytesFetcher struct {
	delegate Fetcher
	limit    int64
}

func newMaxBytesFetcher(delegate Fetcher, limit int64) Fetcher {
	if limit <= 0 {
		limit = defaultMaxResponseBytes
	}
	return &maxBytesFetcher{delegate: delegate, limit: limit}
}

func (f *maxBytesFetcher) Do(req *http.Request) (*http.Response, error) {
	resp, err := f.delegate.Do(req)
	if err != nil {
		return resp, err
	}

	if resp.ContentLength > f.limit {
		drainAndCloseBody(resp.Body)
		return nil, apperrors.Newf(apperrors.ExecutionFailed, "API 응답 본문의 크기(%d bytes)가 허용치(%d bytes)를 초과했습니다", resp.ContentLength, f.limit)
	}

	resp.Body = &maxBytesReader{
		rc:    http.MaxBytesReader(nil, resp.Body, f.limit),
		limit: f.limit,
	}

	return resp, nil
}

// maxBytesReader http.MaxBytesReader의 에러를 apperrors 형식으로 변환합니다.
type maxBytesReader struct {
	rc    io.ReadCloser
	limit int64
}

func (r *maxBytesReader) Read(p []byte) (int, error) {
	n, err := r.rc.Read(p)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return n, apperrors.Newf(apperrors.ExecutionFailed, "API 응답 본문의 크기가 허용치(%d bytes)를 초과했습니다", r.limit)
		}
	}
	return n, err
}

func (r *maxBytesReader) Close() error {
	return r.rc.Close()
}

// loggingFetcher 요청 메서드, URL(민감 정보 마스킹), 응답 상태, 소요 시간을 로그로 남깁니다.
type loggingFetcher struct {
	delegate Fetcher
}

func (f *loggingFetcher) Do(req *http.Request) (*http.Response, error) {
	start := time.Now()

	resp, err := f.delegate.Do(req)

	fields := applog.Fields{
		"method":      req.Method,
		"url":         redactURL(req),
		"duration_ms": time.Since(start).Milliseconds(),
	}

	if err != nil {
		fields["error"] = err
		applog.WithComponentAndFields(component, fields).Warn("API 요청 실패")
		return resp, err
	}

	fields["status_code"] = resp.StatusCode
	applog.WithComponentAndFields(component, fields).Debug("API 요청 완료")

	return resp, nil
}

// sensitiveQueryKeys 로그에 남기지 않을 쿼리 파라미터 키 목록
var sensitiveQueryKeys = []string{"password", "token", "access_token", "client_secret", "secret"}

// redactURL 로그 및 에러 메시지에 포함할 수 있도록 URL의 사용자 정보와 민감한 쿼리 파라미터를 마스킹합니다.
func redactURL(req *http.Request) string {
	if req == nil || req.URL == nil {
		return ""
	}

	u := *req.URL
	if u.User != nil {
		u.User = url.User("***")
	}

	if u.RawQuery != "" {
		q := u.Query()
		for key := range q {
			for _, sensitive := range sensitiveQueryKeys {
				if strings.EqualFold(key, sensitive) {
					q.Set(key, "***")
				}
			}
		}
		u.RawQuery = q.Encode()
	}

	return u.String()
}

// drainAndCloseBody 커넥션 재사용을 위해 남은 응답 본문을 비우고 닫습니다.
func drainAndCloseBody(body io.ReadCloser) {
	if body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(body, maxBodySnippetBytes))
	_ = body.Close()
}

// Package authzapi 인가 서비스(Authorization Service) REST API를 통해 SAML 애플리케이션 등록 정보와 연락처를 조회합니다.
package authzapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	apperrors "github.com/darkkaiser/samlcert-notifier/internal/pkg/errors"
	"github.com/darkkaiser/samlcert-notifier/internal/pkg/version"
	"github.com/darkkaiser/samlcert-notifier/internal/registry"
	applog "github.com/darkkaiser/samlcert-notifier/pkg/log"
	"github.com/tidwall/gjson"
)

const component = "registry.authzapi"

const (
	defaultTimeout = 30 * time.Second

	// maxPages 잘못된 pagination.next 응답으로 인한 무한 반복을 막기 위한 최대 페이지 수
	maxPages = 10000
)

// Config API 클라이언트 설정
type Config struct {
	KeycloakServer string
	Realm          string
	ClientID       string
	Username       string
	Password       string

	// URL API의 기준 URL (예: https://authorization-service-api.web.cern.ch/api/v1.0/)
	URL string

	Timeout           time.Duration
	RequestsPerSecond float64
	MaxResponseBytes  int64
}

// Client 인가 서비스 API 클라이언트입니다.
// registry.RegistrationFetcher와 registry.ContactResolver를 구현합니다.
type Client struct {
	baseURL *url.URL
	fetcher Fetcher
}

var (
	_ registry.RegistrationFetcher = (*Client)(nil)
	_ registry.ContactResolver     = (*Client)(nil)
)

// New OAuth2 비밀번호 인증을 사용하는 API 클라이언트를 생성합니다. 토큰은 첫 요청 시점에 발급됩니다.
func New(cfg Config) (*Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	tokenClient := &http.Client{Timeout: timeout}
	httpClient := &http.Client{
		Timeout:   timeout,
		Transport: newOAuth2Transport(cfg, tokenClient, http.DefaultTransport),
	}

	return NewWithHTTPClient(cfg, httpClient)
}

// NewWithHTTPClient 주어진 http.Client로 요청을 수행하는 API 클라이언트를 생성합니다.
// 인증 처리는 httpClient의 Transport가 담당해야 합니다.
func NewWithHTTPClient(cfg Config, httpClient *http.Client) (*Client, error) {
	baseURL, err := parseBaseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	var f Fetcher = &httpFetcher{
		client:    httpClient,
		userAgent: fmt.Sprintf("samlcert-notifier/%s", version.Get().Version),
	}
	f = newMaxBytesFetcher(f, cfg.MaxResponseBytes)
	f = newRateLimitFetcher(f, cfg.RequestsPerSecond)
	f = &loggingFetcher{delegate: f}

	return &Client{
		baseURL: baseURL,
		fetcher: f,
	}, nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, apperrors.New(apperrors.InvalidInput, fmt.Sprintf("API URL이 올바르지 않습니다: '%s'", raw))
	}
	// 상대 경로를 기준 URL 하위로 해석하려면 경로가 '/'로 끝나야 한다.
	if u.Path == "" || u.Path[len(u.Path)-1] != '/' {
		u.Path += "/"
	}
	return u, nil
}

// FetchRegistrations SAML 인증 제공자의 ID를 조회한 뒤, 해당 제공자에 등록된 모든 애플리케이션의 등록 정보를 반환합니다.
func (c *Client) FetchRegistrations(ctx context.Context) ([]registry.Registration, error) {
	providers, err := c.getAll(ctx, "Registration/providers", url.Values{
		"field":  {"id"},
		"filter": {"authenticationProviderIdentifier:saml"},
	})
	if err != nil {
		return nil, err
	}

	if len(providers) != 1 || providers[0].Get("id").String() == "" {
		return nil, newErrSAMLProviderNotFound(len(providers))
	}
	providerID := providers[0].Get("id").String()

	applog.WithComponentAndFields(component, applog.Fields{
		"provider_id": providerID,
	}).Debug("SAML 인증 제공자 ID 조회 완료")

	records, err := c.getAll(ctx, "Registration/"+url.PathEscape(providerID)+"/search", nil)
	if err != nil {
		return nil, err
	}

	regs := make([]registry.Registration, 0, len(records))
	for i, r := range records {
		appID := r.Get("applicationId").String()
		if appID == "" {
			applog.WithComponentAndFields(component, applog.Fields{
				"index": i,
			}).Warn("applicationId가 없는 등록 정보를 건너뜁니다")
			continue
		}

		regs = append(regs, registry.Registration{
			ApplicationID: appID,
			Definition:    r.Get("definition").String(),
		})
	}

	applog.WithComponentAndFields(component, applog.Fields{
		"registrations": len(regs),
	}).Info("SAML 애플리케이션 등록 정보 조회 완료")

	return regs, nil
}

// ResolveContacts 애플리케이션의 소유자 계정과 관리자 그룹을 조회하여 연락처 목록을 반환합니다.
//
// 소유자가 먼저, 관리자 그룹이 그 다음 순서이며 이메일이 없는 항목은 제외됩니다.
// 애플리케이션 레코드가 정확히 1건이 아니거나 참조하는 계정/그룹이 존재하지 않으면 registry.ErrContactLookup을 반환합니다.
func (c *Client) ResolveContacts(ctx context.Context, applicationID string) ([]registry.Contact, error) {
	records, err := c.getAll(ctx, "Application", url.Values{
		"field":  {"id", "ownerId", "administratorsId", "applicationIdentifier"},
		"filter": {"id:" + applicationID},
	})
	if err != nil {
		return nil, err
	}

	if len(records) != 1 {
		return nil, registry.NewErrContactLookup(applicationID, fmt.Sprintf("애플리케이션 레코드가 %d건 조회되었습니다", len(records)))
	}
	record := records[0]

	contacts := make([]registry.Contact, 0, 2)

	if ownerID := record.Get("ownerId").String(); ownerID != "" {
		contact, ok, err := c.lookupContact(ctx, applicationID, "Identity", ownerID)
		if err != nil {
			return nil, err
		}
		if ok {
			contacts = append(contacts, contact)
		}
	}

	if administratorsID := record.Get("administratorsId").String(); administratorsID != "" {
		contact, ok, err := c.lookupContact(ctx, applicationID, "Group", administratorsID)
		if err != nil {
			return nil, err
		}
		if ok {
			contacts = append(contacts, contact)
		}
	}

	return contacts, nil
}

// lookupContact 계정(Identity) 또는 그룹(Group) 레코드에서 대표 이메일과 표시 이름을 조회합니다.
// 대표 이메일이 비어 있으면 ok=false를 반환합니다.
func (c *Client) lookupContact(ctx context.Context, applicationID, resource, id string) (registry.Contact, bool, error) {
	data, err := c.getOne(ctx, resource+"/"+url.PathEscape(id), url.Values{
		"field": {"primaryAccountEmail", "displayName"},
	})
	if err != nil {
		var statusErr *HTTPStatusError
		if apperrors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
			return registry.Contact{}, false, registry.NewErrContactLookup(applicationID, fmt.Sprintf("%s/%s 레코드가 존재하지 않습니다", resource, id))
		}
		return registry.Contact{}, false, err
	}

	email := data.Get("primaryAccountEmail").String()
	if email == "" {
		applog.WithComponentAndFields(component, applog.Fields{
			"application_id": applicationID,
			"resource":       resource,
			"id":             id,
		}).Debug("대표 이메일이 없어 연락처에서 제외합니다")

		return registry.Contact{}, false, nil
	}

	return registry.Contact{
		Email: email,
		Name:  data.Get("displayName").String(),
	}, true, nil
}

// getAll 목록 API를 호출하고 pagination.next를 따라가며 모든 페이지의 data 배열 항목을 모아 반환합니다.
func (c *Client) getAll(ctx context.Context, path string, params url.Values) ([]gjson.Result, error) {
	u := c.resolve(path, params)

	var (
		results []gjson.Result
		visited = make(map[string]struct{})
	)

	for page := 0; page < maxPages; page++ {
		if _, seen := visited[u.String()]; seen {
			return nil, newErrUnexpectedResponse(u.String(), "pagination.next가 이미 조회한 페이지를 가리킵니다")
		}
		visited[u.String()] = struct{}{}

		body, err := c.get(ctx, u)
		if err != nil {
			return nil, err
		}

		res := gjson.ParseBytes(body)
		data := res.Get("data")
		if !data.IsArray() {
			return nil, newErrUnexpectedResponse(u.String(), "data 필드가 배열이 아닙니다")
		}
		results = append(results, data.Array()...)

		next := res.Get("pagination.next").String()
		if next == "" {
			return results, nil
		}

		nextURL, err := url.Parse(next)
		if err != nil {
			return nil, newErrUnexpectedResponse(u.String(), fmt.Sprintf("pagination.next 값이 올바른 URL이 아닙니다: '%s'", next))
		}
		u = c.baseURL.ResolveReference(nextURL)
	}

	return nil, newErrUnexpectedResponse(u.String(), fmt.Sprintf("페이지 수가 최대치(%d)를 초과했습니다", maxPages))
}

// getOne 단건 조회 API를 호출하고 data 객체를 반환합니다.
func (c *Client) getOne(ctx context.Context, path string, params url.Values) (gjson.Result, error) {
	u := c.resolve(path, params)

	body, err := c.get(ctx, u)
	if err != nil {
		return gjson.Result{}, err
	}

	data := gjson.GetBytes(body, "data")
	if !data.IsObject() {
		return gjson.Result{}, newErrUnexpectedResponse(u.String(), "data 필드가 객체가 아닙니다")
	}
	return data, nil
}

func (c *Client) resolve(path string, params url.Values) *url.URL {
	u := c.baseURL.ResolveReference(&url.URL{Path: path})
	if len(params) > 0 {
		u.RawQuery = params.Encode()
	}
	return u
}

// get GET 요청을 수행하고, 200 OK 응답의 본문이 올바른 JSON인지 확인한 뒤 반환합니다.
func (c *Client) get(ctx context.Context, u *url.URL) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.Internal, fmt.Sprintf("API 요청 생성에 실패했습니다 (URL: %s)", u))
	}

	resp, err := c.fetcher.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, apperrors.Wrap(err, apperrors.Unavailable, fmt.Sprintf("API(%s) 요청 전송 중 에러가 발생했습니다", redactURL(req)))
	}
	defer resp.Body.Close()

	if err := CheckResponseStatus(resp); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.Unavailable, fmt.Sprintf("API(%s) 응답 본문을 읽는 중 에러가 발생했습니다", redactURL(req)))
	}

	if !gjson.ValidBytes(body) {
		return nil, newErrUnexpectedResponse(redactURL(req), "JSON 형식이 아닙니다")
	}

	return body, nil
}

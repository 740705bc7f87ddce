package authzapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	apperrors "github.com/darkkaiser/samlcert-notifier/internal/pkg/errors"
	"golang.org/x/oauth2"
)

// TokenURL Keycloak 서버 주소와 Realm으로 OpenID Connect 토큰 엔드포인트 URL을 생성합니다.
// server에 스킴이 없으면 https를 사용합니다.
func TokenURL(server, realm string) string {
	base := strings.TrimRight(server, "/")
	if !strings.Contains(base, "://") {
		base = "https://" + base
	}
	return fmt.Sprintf("%s/auth/realms/%s/protocol/openid-connect/token", base, realm)
}

// passwordTokenSource Resource Owner Password Credentials Grant로 액세스 토큰을 발급받습니다.
// oauth2.ReuseTokenSource로 감싸 토큰이 만료될 때만 다시 발급받도록 사용합니다.
type passwordTokenSource struct {
	ctx      context.Context
	config   *oauth2.Config
	username string
	password string
}

func (s *passwordTokenSource) Token() (*oauth2.Token, error) {
	token, err := s.config.PasswordCredentialsToken(s.ctx, s.username, s.password)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.Unavailable, fmt.Sprintf("인증 서버(%s)에서 액세스 토큰을 발급받지 못했습니다", s.config.Endpoint.TokenURL))
	}
	return token, nil
}

// newOAuth2Transport 모든 요청에 Bearer 토큰을 자동으로 첨부하는 RoundTripper를 생성합니다.
// 토큰 발급 요청에도 tokenClient가 사용됩니다.
func newOAuth2Transport(cfg Config, tokenClient *http.Client, base http.RoundTripper) http.RoundTripper {
	oauthConfig := &oauth2.Config{
		ClientID: cfg.ClientID,
		Endpoint: oauth2.Endpoint{
			TokenURL:  TokenURL(cfg.KeycloakServer, cfg.Realm),
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}

	source := &passwordTokenSource{
		ctx:      context.WithValue(context.Background(), oauth2.HTTPClient, tokenClient),
		config:   oauthConfig,
		username: cfg.Username,
		password: cfg.Password,
	}

	return &oauth2.Transport{
		Source: oauth2.ReuseTokenSource(nil, source),
		Base:   base,
	}
}

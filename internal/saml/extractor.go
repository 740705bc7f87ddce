// Package saml SAML 메타데이터(XML)에 포함된 X.509 인증서를 찾아 가장 이른 만료 시각을 계산합니다.
package saml

import (
	"bytes"
	"crypto/x509"
	"encoding/pem"
	"encoding/xml"
	"errors"
	"io"
	"strings"
	"time"
	"unicode"

	applog "github.com/darkkaiser/samlcert-notifier/pkg/log"
	"golang.org/x/net/html/charset"
)

const component = "saml"

const (
	// xmldsigNamespace XML 전자서명 네임스페이스
	xmldsigNamespace = "http://www.w3.org/2000/09/xmldsig#"

	// certificateElement 인증서 본문(Base64 DER)을 담는 요소의 로컬 이름
	certificateElement = "X509Certificate"

	pemHeader = "-----BEGIN CERTIFICATE-----"
	pemFooter = "-----END CERTIFICATE-----"
)

// Expiration 하나의 애플리케이션 메타데이터에서 계산한 인증서 만료 정보입니다.
type Expiration struct {
	// NotAfter 정상적으로 해석된 인증서들 중 가장 이른 notAfter (UTC)
	NotAfter time.Time

	// Valid NotAfter 값의 존재 여부. 인증서가 없거나 모두 해석에 실패하면 false입니다.
	Valid bool

	// Certificates 메타데이터에서 발견된 인증서 요소 개수
	Certificates int

	// Decoded 정상적으로 해석된 인증서 개수
	Decoded int
}

// ExtractExpiration 애플리케이션의 SAML 메타데이터에서 xmldsig 네임스페이스의 X509Certificate 요소를 모두 찾아
// 가장 이른 만료 시각을 반환합니다.
//
// 동작 규칙:
//   - XML 형식 오류: ErrMalformedDefinition 에러 반환 (호출자는 해당 애플리케이션만 건너뜀)
//   - 인증서 요소 없음: Valid=false, 에러 없음
//   - 개별 인증서 해석 실패 또는 notAfter 누락: 경고 로그를 남기고 해당 인증서만 건너뜀
//   - 결과: 해석에 성공한 인증서들의 notAfter 중 최솟값
func ExtractExpiration(appID string, definition []byte) (Expiration, error) {
	payloads, err := findCertificates(definition)
	if err != nil {
		return Expiration{}, newErrMalformedDefinition(appID, err)
	}

	result := Expiration{Certificates: len(payloads)}

	if len(payloads) == 0 {
		applog.WithComponentAndFields(component, applog.Fields{
			"application_id": appID,
		}).Info("메타데이터에 X.509 인증서가 존재하지 않습니다")

		return result, nil
	}

	for i, payload := range payloads {
		notAfter, err := decodeNotAfter(i, payload)
		if err != nil {
			applog.WithComponentAndFields(component, applog.Fields{
				"application_id": appID,
				"certificate":    i + 1,
				"error":          err,
			}).Warn("인증서를 해석할 수 없어 건너뜁니다")

			continue
		}

		result.Decoded++
		if !result.Valid || notAfter.Before(result.NotAfter) {
			result.NotAfter = notAfter
			result.Valid = true
		}
	}

	if !result.Valid {
		applog.WithComponentAndFields(component, applog.Fields{
			"application_id": appID,
			"certificates":   result.Certificates,
		}).Warn("해석 가능한 인증서가 없어 만료 시각을 계산할 수 없습니다")
	}

	return result, nil
}

// findCertificates 문서 전체를 스트리밍 방식으로 순회하며 깊이와 무관하게 모든 인증서 요소의 텍스트를 수집합니다.
// DTD 및 외부 엔티티는 확장하지 않으며, UTF-8 이외의 인코딩 선언(ISO-8859-1 등)은 UTF-8로 변환하여 읽습니다.
func findCertificates(definition []byte) ([]string, error) {
	decoder := xml.NewDecoder(bytes.NewReader(definition))
	decoder.Strict = true
	decoder.CharsetReader = charset.NewReaderLabel

	var (
		payloads []string
		depth    int
		inCert   bool
		text     strings.Builder
		sawRoot  bool

		// closedRoot 루트 요소가 닫힌 뒤에는 주석과 처리 명령 외의 내용이 올 수 없다.
		closedRoot bool
	)

	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if closedRoot {
				return nil, errors.New("루트 요소 뒤에 다른 요소가 존재합니다")
			}
			depth++
			sawRoot = true
			if t.Name.Space == xmldsigNamespace && t.Name.Local == certificateElement {
				inCert = true
				text.Reset()
			}

		case xml.EndElement:
			depth--
			if depth == 0 {
				closedRoot = true
			}
			if inCert && t.Name.Space == xmldsigNamespace && t.Name.Local == certificateElement {
				payloads = append(payloads, text.String())
				inCert = false
			}

		case xml.CharData:
			if depth == 0 && len(bytes.TrimSpace(t)) > 0 {
				return nil, errors.New("루트 요소 밖에 텍스트가 존재합니다")
			}
			if inCert {
				text.Write(t)
			}
		}
	}

	if !sawRoot {
		return nil, errors.New("루트 요소가 존재하지 않습니다")
	}
	if depth != 0 {
		return nil, errors.New("닫히지 않은 요소가 존재합니다")
	}

	return payloads, nil
}

// decodeNotAfter Base64 본문의 공백을 제거하고 PEM으로 감싼 뒤 X.509 인증서로 해석하여 notAfter를 반환합니다.
func decodeNotAfter(index int, payload string) (time.Time, error) {
	body := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, payload)

	if body == "" {
		return time.Time{}, newErrCertificateDecode(index, "인증서 본문이 비어 있습니다")
	}

	block, _ := pem.Decode([]byte(pemHeader + "\n" + body + "\n" + pemFooter + "\n"))
	if block == nil {
		return time.Time{}, newErrCertificateDecode(index, "PEM 블록을 해석할 수 없습니다")
	}

	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return time.Time{}, newErrCertificateDecode(index, err.Error())
	}

	if cert.NotAfter.IsZero() {
		return time.Time{}, newErrCertificateDecode(index, "notAfter 필드가 존재하지 않습니다")
	}

	return cert.NotAfter.UTC(), nil
}

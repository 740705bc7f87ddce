package saml

import (
	"errors"
	"strings"
	"testing"
	"time"

	apperrors "github.com/darkkaiser/samlcert-notifier/internal/pkg/errors"
	"github.com/darkkaiser/samlcert-notifier/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 인증서의 notAfter는 초 단위로 인코딩되므로 기준 시각도 초 단위로 절삭한다.
var baseTime = time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

func TestExtractExpiration_NoCertificates(t *testing.T) {
	t.Parallel()

	exp, err := ExtractExpiration("app-empty", []byte(testutil.SAMLMetadata()))
	require.NoError(t, err)

	assert.False(t, exp.Valid)
	assert.True(t, exp.NotAfter.IsZero())
	assert.Zero(t, exp.Certificates)
	assert.Zero(t, exp.Decoded)
}

func TestExtractExpiration_Minimum(t *testing.T) {
	t.Parallel()

	early := baseTime.AddDate(0, 0, 10)
	middle := baseTime.AddDate(0, 0, 30)
	late := baseTime.AddDate(0, 0, 90)

	tests := []struct {
		name     string
		notAfter []time.Time
		want     time.Time
	}{
		{"단일 인증서", []time.Time{middle}, middle},
		{"늦은 인증서 추가는 결과를 바꾸지 않음", []time.Time{middle, late}, middle},
		{"이른 인증서 추가는 결과를 낮춤", []time.Time{middle, late, early}, early},
		{"동일 만료 시각", []time.Time{middle, middle}, middle},
		{"이미 만료된 인증서", []time.Time{baseTime.AddDate(0, 0, -3), late}, baseTime.AddDate(0, 0, -3)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			certs := make([]string, 0, len(tt.notAfter))
			for _, na := range tt.notAfter {
				certs = append(certs, testutil.NewCertificate(t, na))
			}

			exp, err := ExtractExpiration("app-1", []byte(testutil.SAMLMetadata(certs...)))
			require.NoError(t, err)

			assert.True(t, exp.Valid)
			assert.True(t, tt.want.Equal(exp.NotAfter), "want %v, got %v", tt.want, exp.NotAfter)
			assert.Equal(t, time.UTC, exp.NotAfter.Location())
			assert.Equal(t, len(tt.notAfter), exp.Certificates)
			assert.Equal(t, len(tt.notAfter), exp.Decoded)
		})
	}
}

func TestExtractExpiration_InvalidCertificateIsSkipped(t *testing.T) {
	t.Parallel()

	valid := baseTime.AddDate(0, 0, 20)

	tests := []struct {
		name    string
		invalid string
	}{
		{"Base64가 아닌 본문", "this is not a certificate"},
		{"Base64이지만 DER이 아님", "aGVsbG8gd29ybGQ="},
		{"빈 본문", "   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			definition := testutil.SAMLMetadata(tt.invalid, testutil.NewCertificate(t, valid))

			exp, err := ExtractExpiration("app-1", []byte(definition))
			require.NoError(t, err)

			assert.True(t, exp.Valid)
			assert.True(t, valid.Equal(exp.NotAfter))
			assert.Equal(t, 2, exp.Certificates)
			assert.Equal(t, 1, exp.Decoded)
		})
	}
}

func TestExtractExpiration_AllCertificatesInvalid(t *testing.T) {
	t.Parallel()

	exp, err := ExtractExpiration("app-1", []byte(testutil.SAMLMetadata("garbage", "more-garbage")))
	require.NoError(t, err)

	assert.False(t, exp.Valid)
	assert.Equal(t, 2, exp.Certificates)
	assert.Zero(t, exp.Decoded)
}

func TestExtractExpiration_WhitespaceInPayload(t *testing.T) {
	t.Parallel()

	notAfter := baseTime.AddDate(0, 2, 0)
	payload := testutil.WrapLines(testutil.NewCertificate(t, notAfter), 64)
	payload = strings.Replace(payload, "\n", "\r\n", 2)

	exp, err := ExtractExpiration("app-1", []byte(testutil.SAMLMetadata(payload)))
	require.NoError(t, err)

	assert.True(t, exp.Valid)
	assert.True(t, notAfter.Equal(exp.NotAfter))
}

func TestExtractExpiration_IgnoresOtherNamespaces(t *testing.T) {
	t.Parallel()

	cert := testutil.NewCertificate(t, baseTime)
	definition := `<EntityDescriptor xmlns="urn:oasis:names:tc:SAML:2.0:metadata">
  <X509Certificate>` + cert + `</X509Certificate>
  <other:X509Certificate xmlns:other="urn:example:other">` + cert + `</other:X509Certificate>
</EntityDescriptor>`

	exp, err := ExtractExpiration("app-1", []byte(definition))
	require.NoError(t, err)

	assert.False(t, exp.Valid)
	assert.Zero(t, exp.Certificates)
}

func TestExtractExpiration_DefaultNamespaceAtAnyDepth(t *testing.T) {
	t.Parallel()

	notAfter := baseTime.AddDate(1, 0, 0)
	definition := `<root><a><b><c><KeyInfo xmlns="http://www.w3.org/2000/09/xmldsig#"><X509Data><X509Certificate>` +
		testutil.NewCertificate(t, notAfter) +
		`</X509Certificate></X509Data></KeyInfo></c></b></a></root>`

	exp, err := ExtractExpiration("app-1", []byte(definition))
	require.NoError(t, err)

	assert.True(t, exp.Valid)
	assert.True(t, notAfter.Equal(exp.NotAfter))
}

func TestExtractExpiration_NonUTF8Encoding(t *testing.T) {
	t.Parallel()

	notAfter := baseTime.AddDate(0, 0, 5)
	definition := strings.Replace(testutil.SAMLMetadata(testutil.NewCertificate(t, notAfter)), `encoding="UTF-8"`, `encoding="ISO-8859-1"`, 1)

	exp, err := ExtractExpiration("app-1", []byte(definition))
	require.NoError(t, err)
	assert.True(t, exp.Valid)
}

func TestExtractExpiration_MalformedDefinition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		definition string
	}{
		{"빈 문서", ""},
		{"닫히지 않은 요소", "<EntityDescriptor><SPSSODescriptor>"},
		{"태그 불일치", "<a><b></a></b>"},
		{"XML이 아님", "{\"json\": true}"},
		{"따옴표 없는 속성 값", "<a attr=novalue></a>"},
		{"루트 뒤의 두 번째 요소", testutil.SAMLMetadata(testutil.NewCertificate(t, baseTime)) + "<junk/>"},
		{"루트 뒤의 텍스트", testutil.SAMLMetadata(testutil.NewCertificate(t, baseTime)) + "garbage"},
		{"루트 앞의 텍스트", "garbage" + testutil.SAMLMetadata(testutil.NewCertificate(t, baseTime))},
		{"두 개의 루트 요소", "<a></a><b></b>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			exp, err := ExtractExpiration("app-bad", []byte(tt.definition))
			require.Error(t, err)

			assert.True(t, errors.Is(err, ErrMalformedDefinition))
			assert.True(t, apperrors.Is(err, apperrors.ParsingFailed))
			assert.Contains(t, err.Error(), "app-bad")
			assert.False(t, exp.Valid)
		})
	}
}

func TestDecodeNotAfter(t *testing.T) {
	t.Parallel()

	notAfter := baseTime.AddDate(0, 0, 45)

	got, err := decodeNotAfter(0, testutil.NewCertificate(t, notAfter))
	require.NoError(t, err)
	assert.True(t, notAfter.Equal(got))

	_, err = decodeNotAfter(2, "%%%")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCertificateDecode))
	assert.Contains(t, err.Error(), "3번째 인증서")
	assert.Equal(t, 1, strings.Count(err.Error(), "[ParsingFailed]"), "에러 타입 표기는 한 번만 나타나야 합니다: %s", err)
}

func TestExtractExpiration_TrailingMiscAfterRoot(t *testing.T) {
	t.Parallel()

	definition := testutil.SAMLMetadata(testutil.NewCertificate(t, baseTime)) + "<!-- signed -->\n\n"

	exp, err := ExtractExpiration("app-1", []byte(definition))
	require.NoError(t, err)
	assert.True(t, exp.Valid)
}

func TestExtractExpiration_NegativeSerialNumber(t *testing.T) {
	t.Parallel()

	notAfter := baseTime.AddDate(0, 0, 12)

	exp, err := ExtractExpiration("app-1", []byte(testutil.SAMLMetadata(testutil.NewNegativeSerialCertificate(t, notAfter))))
	require.NoError(t, err)

	assert.True(t, exp.Valid, "일련번호가 음수인 인증서도 해석되어야 합니다")
	assert.Equal(t, 1, exp.Decoded)
	assert.True(t, notAfter.Equal(exp.NotAfter))
}

// Package testutil 여러 패키지의 테스트에서 공통으로 사용하는 인증서 및 SAML 메타데이터 생성 헬퍼를 제공합니다.
package testutil

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"fmt"
	"math/big"
	"strings"
	"time"
)

// T 테스트 헬퍼가 요구하는 최소한의 testing.TB 메서드 집합입니다.
type T interface {
	Helper()
	Fatalf(format string, args ...any)
}

// NewCertificate notAfter 시각에 만료되는 자체 서명 인증서를 생성하여 DER 바이트를 Base64로 인코딩한 문자열로 반환합니다.
// SAML 메타데이터의 <ds:X509Certificate> 본문과 같은 형식입니다.
func NewCertificate(t T, notAfter time.Time) string {
	t.Helper()

	serial, err := rand.Int(rand.Reader, big.NewInt(1<<62))
	if err != nil {
		t.Fatalf("Failed to generate serial number: %v", err)
	}

	return base64.StdEncoding.EncodeToString(createCertificate(t, notAfter, serial))
}

// negativeSerialMarker 음수 일련번호 인증서를 만들 때 DER에서 찾아 바꿀 일련번호 (INTEGER 태그와 길이 포함)
var negativeSerialMarker = []byte{0x02, 0x08, 0x5a, 0x4d, 0x4c, 0x53, 0x45, 0x52, 0x49, 0x41}

// NewNegativeSerialCertificate 일련번호가 음수인 인증서를 생성합니다.
// 표준 라이브러리는 음수 일련번호로 인증서를 발급하지 않으므로, 양수로 발급한 뒤 DER의 부호 비트를 뒤집는다.
// 서명은 더 이상 유효하지 않지만 만료 시각 계산에는 영향이 없습니다.
func NewNegativeSerialCertificate(t T, notAfter time.Time) string {
	t.Helper()

	der := createCertificate(t, notAfter, new(big.Int).SetBytes(negativeSerialMarker[2:]))

	idx := bytes.Index(der, negativeSerialMarker)
	if idx < 0 {
		t.Fatalf("Failed to locate serial number in certificate")
	}
	der[idx+2] |= 0x80

	return base64.StdEncoding.EncodeToString(der)
}

func createCertificate(t T, notAfter time.Time, serial *big.Int) []byte {
	t.Helper()

	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("Failed to generate private key: %v", err)
	}

	template := x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			CommonName:   "sp.example.org",
			Organization: []string{"Test Co"},
		},
		NotBefore: notAfter.AddDate(-1, 0, 0),
		NotAfter:  notAfter,

		KeyUsage:              x509.KeyUsageDigitalSignature,
		BasicConstraintsValid: true,
	}

	derBytes, err := x509.CreateCertificate(rand.Reader, &template, &template, &priv.PublicKey, priv)
	if err != nil {
		t.Fatalf("Failed to create certificate: %v", err)
	}

	return derBytes
}

// WrapLines Base64 본문을 width 글자 단위로 줄바꿈하고 들여쓰기를 추가합니다.
// 실제 메타데이터처럼 인증서 본문 중간에 공백 문자가 섞인 경우를 재현할 때 사용합니다.
func WrapLines(payload string, width int) string {
	var sb strings.Builder
	for len(payload) > width {
		sb.WriteString("\n\t\t\t")
		sb.WriteString(payload[:width])
		payload = payload[width:]
	}
	sb.WriteString("\n\t\t\t")
	sb.WriteString(payload)
	sb.WriteString("\n\t\t")
	return sb.String()
}

// SAMLMetadata 주어진 인증서 본문들을 <ds:X509Certificate> 요소로 포함하는 SP 메타데이터 XML을 생성합니다.
func SAMLMetadata(certificates ...string) string {
	var sb strings.Builder

	sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	sb.WriteString(`<md:EntityDescriptor xmlns:md="urn:oasis:names:tc:SAML:2.0:metadata" xmlns:ds="http://www.w3.org/2000/09/xmldsig#" entityID="https://sp.example.org/saml">` + "\n")
	sb.WriteString(`  <md:SPSSODescriptor protocolSupportEnumeration="urn:oasis:names:tc:SAML:2.0:protocol">` + "\n")
	for _, cert := range certificates {
		fmt.Fprintf(&sb, `    <md:KeyDescriptor use="signing"><ds:KeyInfo><ds:X509Data><ds:X509Certificate>%s</ds:X509Certificate></ds:X509Data></ds:KeyInfo></md:KeyDescriptor>`+"\n", cert)
	}
	sb.WriteString(`    <md:AssertionConsumerService Binding="urn:oasis:names:tc:SAML:2.0:bindings:HTTP-POST" Location="https://sp.example.org/acs" index="0"/>` + "\n")
	sb.WriteString("  </md:SPSSODescriptor>\n")
	sb.WriteString("</md:EntityDescriptor>\n")

	return sb.String()
}

package providers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
)

const signaturePrefix = "sha256="

// ComputeSignature возвращает hex(HMAC-SHA256(secret, body))
func ComputeSignature(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyHMAC сравнивает подпись тела со значениями заголовков в заданном порядке.
// Принимает "sha256=<hex>" и голый hex; первое совпадение выигрывает.
func VerifyHMAC(secret string, body []byte, headers http.Header, headerNames ...string) bool {
	if secret == "" || len(body) == 0 {
		return false
	}
	expected := []byte(ComputeSignature(secret, body))

	for _, name := range headerNames {
		for _, value := range headers.Values(name) {
			candidate := strings.TrimSpace(value)
			if len(candidate) >= len(signaturePrefix) && strings.EqualFold(candidate[:len(signaturePrefix)], signaturePrefix) {
				candidate = candidate[len(signaturePrefix):]
			}
			if candidate == "" {
				continue
			}
			if hmac.Equal(expected, []byte(strings.ToLower(candidate))) {
				return true
			}
		}
	}
	return false
}

package httpclient

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
)

const signedHeaders = "authorization;x-api-key;x-timestamp"

// sign computes the X-Api-Signature value for a request. The canonical
// request is method|path|query|signed header lines|signed header names,
// followed by |sha1(body) when a body is present.
func sign(method, path, rawQuery string, headers http.Header, body []byte, appSecret string) string {
	var canonical strings.Builder
	canonical.WriteString(method)
	canonical.WriteByte('|')
	canonical.WriteString(path)
	canonical.WriteByte('|')
	canonical.WriteString(rawQuery)
	canonical.WriteByte('|')
	for _, name := range strings.Split(signedHeaders, ";") {
		canonical.WriteString(name)
		canonical.WriteByte(':')
		canonical.WriteString(headers.Get(name))
		canonical.WriteByte('\n')
	}
	canonical.WriteByte('|')
	canonical.WriteString(signedHeaders)
	canonical.WriteByte('|')
	if len(body) > 0 {
		sum := sha1.Sum(body)
		canonical.WriteString(hex.EncodeToString(sum[:]))
	}

	digest := sha1.Sum([]byte(canonical.String()))
	toSign := "HMAC-SHA256|" + hex.EncodeToString(digest[:])

	mac := hmac.New(sha256.New, []byte(appSecret))
	mac.Write([]byte(toSign))
	return "HMAC-SHA256 SignedHeaders=" + signedHeaders + ", Signature=" + hex.EncodeToString(mac.Sum(nil))
}

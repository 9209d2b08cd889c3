// Package httpsig implements the HTTP signature scheme used for federated
// delivery: RSA-SHA256 over "(request-target) host date" plus a SHA-256
// body digest for requests that carry one.
package httpsig

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/tryvocalcat/fediprofile/pkg/keyring"
)

const (
	// Algorithm identifies the only signature algorithm this engine speaks.
	Algorithm = "rsa-sha256"

	headerDate      = "Date"
	headerHost      = "Host"
	headerDigest    = "Digest"
	headerSignature = "Signature"
)

// Sign builds the signed headers for an outbound request. The Date header is
// part of the signing string, so headers must be generated at send time and
// never reused. GET requests sign "(request-target) host date"; requests
// with a body additionally sign the digest.
func Sign(method, rawURL string, body []byte, privateKeyPEM, keyID string, now time.Time) (map[string]string, error) {
	priv, err := keyring.ParsePrivate(privateKeyPEM)
	if err != nil {
		return nil, err
	}

	target, host, err := requestTarget(method, rawURL)
	if err != nil {
		return nil, err
	}

	date := now.UTC().Format(time.RFC1123)
	signedHeaders := []string{"(request-target)", "host", "date"}
	lines := []string{
		"(request-target): " + target,
		"host: " + host,
		"date: " + date,
	}

	headers := map[string]string{
		headerDate: date,
		headerHost: host,
	}

	if len(body) > 0 {
		digest := bodyDigest(body)
		signedHeaders = append(signedHeaders, "digest")
		lines = append(lines, "digest: "+digest)
		headers[headerDigest] = digest
	}

	sum := sha256.Sum256([]byte(strings.Join(lines, "\n")))
	signature, err := rsa.SignPKCS1v15(rand.Reader, priv, crypto.SHA256, sum[:])
	if err != nil {
		return nil, fmt.Errorf("failed to sign request: %w", err)
	}

	headers[headerSignature] = fmt.Sprintf(
		`keyId="%s",headers="%s",signature="%s",algorithm="%s"`,
		keyID,
		strings.Join(signedHeaders, " "),
		base64.StdEncoding.EncodeToString(signature),
		Algorithm,
	)

	return headers, nil
}

// Verify checks a signature produced by Sign against the given public key.
// The signing string is rebuilt from the header list declared inside the
// Signature header itself.
func Verify(method, rawURL string, headers map[string]string, body []byte, publicKeyPEM string) error {
	pub, err := keyring.ParsePublic(publicKeyPEM)
	if err != nil {
		return err
	}

	params := parseSignatureHeader(lookupHeader(headers, headerSignature))
	sigB64, ok := params["signature"]
	if !ok {
		return fmt.Errorf("signature header missing signature parameter")
	}
	signature, err := base64.StdEncoding.DecodeString(sigB64)
	if err != nil {
		return fmt.Errorf("signature is not valid base64: %w", err)
	}

	headerList := params["headers"]
	if headerList == "" {
		headerList = "(request-target) host date"
	}

	target, host, err := requestTarget(method, rawURL)
	if err != nil {
		return err
	}

	var lines []string
	for _, name := range strings.Fields(headerList) {
		switch name {
		case "(request-target)":
			lines = append(lines, "(request-target): "+target)
		case "host":
			lines = append(lines, "host: "+host)
		case "digest":
			if bodyDigest(body) != lookupHeader(headers, headerDigest) {
				return fmt.Errorf("digest header does not match body")
			}
			lines = append(lines, "digest: "+lookupHeader(headers, headerDigest))
		default:
			lines = append(lines, name+": "+lookupHeader(headers, name))
		}
	}

	sum := sha256.Sum256([]byte(strings.Join(lines, "\n")))
	if err := rsa.VerifyPKCS1v15(pub, crypto.SHA256, sum[:], signature); err != nil {
		return fmt.Errorf("signature verification failed: %w", err)
	}
	return nil
}

func requestTarget(method, rawURL string) (target, host string, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", fmt.Errorf("invalid url %q: %w", rawURL, err)
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}

	return strings.ToLower(method) + " " + path, u.Host, nil
}

func bodyDigest(body []byte) string {
	sum := sha256.Sum256(body)
	return "SHA-256=" + base64.StdEncoding.EncodeToString(sum[:])
}

func parseSignatureHeader(value string) map[string]string {
	params := make(map[string]string)
	for _, part := range strings.Split(value, ",") {
		key, val, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		params[key] = strings.Trim(val, `"`)
	}
	return params
}

func lookupHeader(headers map[string]string, name string) string {
	for key, value := range headers {
		if strings.EqualFold(key, name) {
			return value
		}
	}
	return ""
}

package interceptors

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/fetchkit/packages/fetcher"
)

// AWSCredentials identifies the signer for AWSSigV4.
type AWSCredentials struct {
	AccessKey    string
	SecretKey    string
	SessionToken string
	Region       string
	Service      string
}

// AWSSigV4 signs each request with AWS Signature Version 4. It sets
// X-Amz-Date, X-Amz-Content-Sha256 and Authorization (and
// X-Amz-Security-Token for temporary credentials). The body is read through
// Body.Open, so it is hashed exactly as it will be sent.
func AWSSigV4(creds AWSCredentials) fetcher.Interceptor {
	return fetcher.NewInterceptor(fetcher.Computed(func(_ context.Context, opts fetcher.RequestOptions, target string) (fetcher.RequestOptions, error) {
		headers, err := signAWS(creds, opts, target, time.Now().UTC())
		if err != nil {
			return fetcher.RequestOptions{}, fmt.Errorf("aws sigv4: %w", err)
		}
		return fetcher.RequestOptions{Headers: headers}, nil
	}))
}

func signAWS(creds AWSCredentials, opts fetcher.RequestOptions, target string, t time.Time) (http.Header, error) {
	if creds.AccessKey == "" || creds.SecretKey == "" {
		return nil, fmt.Errorf("AWS auth credentials not provided")
	}

	parsedURL, err := url.Parse(target)
	if err != nil {
		return nil, err
	}

	payload, err := readBody(opts.Body)
	if err != nil {
		return nil, err
	}

	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	amzDate := t.Format("20060102T150405Z")
	dateStamp := t.Format("20060102")
	payloadHash := sha256Hash(payload)

	signedHeaders := "host;x-amz-date"
	canonicalHeaders := fmt.Sprintf("host:%s\nx-amz-date:%s\n", parsedURL.Host, amzDate)
	if creds.SessionToken != "" {
		signedHeaders += ";x-amz-security-token"
		canonicalHeaders += fmt.Sprintf("x-amz-security-token:%s\n", creds.SessionToken)
	}

	canonicalURI := parsedURL.EscapedPath()
	if canonicalURI == "" {
		canonicalURI = "/"
	}

	canonicalRequest := strings.Join([]string{
		method,
		canonicalURI,
		canonicalQueryString(parsedURL.Query()),
		canonicalHeaders,
		signedHeaders,
		payloadHash,
	}, "\n")

	credentialScope := fmt.Sprintf("%s/%s/%s/aws4_request", dateStamp, creds.Region, creds.Service)

	stringToSign := strings.Join([]string{
		"AWS4-HMAC-SHA256",
		amzDate,
		credentialScope,
		sha256Hash(canonicalRequest),
	}, "\n")

	signingKey := signatureKey(creds.SecretKey, dateStamp, creds.Region, creds.Service)
	signature := hex.EncodeToString(hmacSHA256(signingKey, stringToSign))

	headers := http.Header{
		"Authorization": {fmt.Sprintf("AWS4-HMAC-SHA256 Credential=%s/%s, SignedHeaders=%s, Signature=%s",
			creds.AccessKey, credentialScope, signedHeaders, signature)},
		"X-Amz-Date":           {amzDate},
		"X-Amz-Content-Sha256": {payloadHash},
	}
	if creds.SessionToken != "" {
		headers.Set("X-Amz-Security-Token", creds.SessionToken)
	}
	return headers, nil
}

func readBody(body fetcher.Body) (string, error) {
	if body == nil {
		return "", nil
	}
	r, _, err := body.Open()
	if err != nil {
		return "", err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func canonicalQueryString(values url.Values) string {
	if len(values) == 0 {
		return ""
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var pairs []string
	for _, k := range keys {
		vals := append([]string(nil), values[k]...)
		sort.Strings(vals)
		for _, v := range vals {
			pairs = append(pairs, awsEscape(k)+"="+awsEscape(v))
		}
	}

	return strings.Join(pairs, "&")
}

// awsEscape percent-encodes everything but the RFC 3986 unreserved set.
func awsEscape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func sha256Hash(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:])
}

func hmacSHA256(key []byte, data string) []byte {
	h := hmac.New(sha256.New, key)
	h.Write([]byte(data))
	return h.Sum(nil)
}

func signatureKey(secretKey, dateStamp, region, service string) []byte {
	kDate := hmacSHA256([]byte("AWS4"+secretKey), dateStamp)
	kRegion := hmacSHA256(kDate, region)
	kService := hmacSHA256(kRegion, service)
	return hmacSHA256(kService, "aws4_request")
}

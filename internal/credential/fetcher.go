package credential

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	dErrors "certverify/pkg/domain-errors"
)

const (
	mspoPath     = "/issued-cert-vc"
	landDeedPath = "/issued-land-deed"

	mspoField     = "mspoToken"
	landDeedField = "landDeedToken"
)

// Fetcher retrieves issued credentials from the issuance API. Credentials are
// fetched fresh per request and never cached.
type Fetcher struct {
	baseURL string
	apiKey  string
	secret  string
	client  *http.Client
	logger  *slog.Logger
}

// FetcherOption configures the Fetcher.
type FetcherOption func(*Fetcher)

// WithHTTPClient overrides the HTTP client, mainly for tests.
func WithHTTPClient(c *http.Client) FetcherOption {
	return func(f *Fetcher) {
		f.client = c
	}
}

// WithLogger configures a logger for the fetcher.
func WithLogger(l *slog.Logger) FetcherOption {
	return func(f *Fetcher) {
		f.logger = l
	}
}

// NewFetcher creates a Fetcher for the given issuance API endpoint and
// credentials.
func NewFetcher(baseURL, apiKey, secret string, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		secret:  secret,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch retrieves the issued credential for the (type, wallet) pair. The
// wallet address is passed through opaquely; format validation belongs to
// upstream layers. Transport failures and non-2xx responses surface as
// upstream-unavailable errors with no retry.
func (f *Fetcher) Fetch(ctx context.Context, typ Type, wallet string) (*Credential, error) {
	path, field := mspoPath, mspoField
	if typ == TypeLandDeed {
		path, field = landDeedPath, landDeedField
	}

	endpoint := f.baseURL + path
	params := url.Values{
		"key":    {f.apiKey},
		"secret": {f.secret},
		"wallet": {wallet},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "build issuance request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "issuance api unreachable")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "read issuance response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if f.logger != nil {
			f.logger.WarnContext(ctx, "issuance api returned error status",
				"status", resp.StatusCode,
				"path", path,
			)
		}
		return nil, dErrors.New(dErrors.CodeUnavailable,
			fmt.Sprintf("issuance api returned status %d", resp.StatusCode))
	}

	raw, err := extractCredential(body, field)
	if err != nil {
		return nil, err
	}

	return Parse(raw)
}

// extractCredential pulls the credential value object out of the issuance
// response, preserving its raw byte order. The token wrapper's key casing is
// inconsistent upstream, so wrapper keys are matched case-insensitively.
// Normalization stops at the wrapper: keys inside the value object are part
// of the hashed serialization and must pass through untouched.
func extractCredential(body []byte, field string) ([]byte, error) {
	wrapper := gjson.GetBytes(body, field)
	if !wrapper.Exists() {
		return nil, dErrors.New(dErrors.CodeNotFound,
			fmt.Sprintf("issuance response missing %s", field))
	}

	var raw string
	wrapper.ForEach(func(key, value gjson.Result) bool {
		if strings.EqualFold(key.String(), "value") {
			raw = value.Raw
			return false
		}
		return true
	})
	if raw == "" {
		return nil, dErrors.New(dErrors.CodeNotFound,
			fmt.Sprintf("issuance response %s has no value object", field))
	}

	return []byte(raw), nil
}

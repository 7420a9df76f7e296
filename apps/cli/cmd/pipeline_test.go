package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/abdul-hamid-achik/fetchkit/packages/core/config"
	"github.com/abdul-hamid-achik/fetchkit/packages/fetcher"
	"github.com/abdul-hamid-achik/fetchkit/packages/output"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testSession builds a session whose config file points at baseURL.
func testSession(t *testing.T, baseURL string, flags *requestFlags) (*session, *bytes.Buffer) {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.BaseURL = baseURL
	cfg.Headers = map[string]string{"X-Client": "{{client}}"}
	path := filepath.Join(t.TempDir(), ".fetchkit.yaml")
	require.NoError(t, cfg.SaveConfig(path))

	flags.configPath = path
	flags.vars = append(flags.vars, "client=cli-test")
	if flags.output == "" {
		flags.output = "json"
	}

	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(`{"from":"stdin"}`))

	s, err := newSession(cmd, flags)
	require.NoError(t, err)
	return s, &out
}

func exitCode(t *testing.T, err error) int {
	t.Helper()
	var exitErr *exitError
	require.ErrorAs(t, err, &exitErr)
	return exitErr.code
}

func TestSession_Target(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		params   []string
		wantBase string
		wantPath string
	}{
		{name: "relative path", raw: "users/1", wantBase: "https://api.example.com", wantPath: "/users/1"},
		{name: "leading slash and query", raw: "/users?active=true", wantBase: "https://api.example.com", wantPath: "/users?active=true"},
		{name: "params appended", raw: "/users?active=true", params: []string{"tag=a", "tag=b"}, wantBase: "https://api.example.com", wantPath: "/users?active=true&tag=a&tag=b"},
		{name: "absolute URL", raw: "http://localhost:8080/v1/items", params: []string{"q=a b"}, wantBase: "http://localhost:8080", wantPath: "/v1/items?q=a+b"},
		{name: "absolute URL keeps dot segments", raw: "https://idp.example.com/.well-known/openid-configuration", wantBase: "https://idp.example.com", wantPath: "/.well-known/openid-configuration"},
		{name: "absolute URL keeps trailing slash", raw: "https://h.example.com/files/?page=2", wantBase: "https://h.example.com", wantPath: "/files/?page=2"},
		{name: "absolute URL without path", raw: "https://h.example.com", wantBase: "https://h.example.com", wantPath: ""},
		{name: "variable in path", raw: "/clients/{{client}}", wantBase: "https://api.example.com", wantPath: "/clients/cli-test"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := testSession(t, "https://api.example.com/", &requestFlags{params: tt.params})

			base, path, err := s.target(tt.raw)

			require.NoError(t, err)
			assert.Equal(t, tt.wantBase, base)
			assert.Equal(t, tt.wantPath, path)
		})
	}
}

func TestSession_TargetErrors(t *testing.T) {
	s, _ := testSession(t, "", &requestFlags{})
	_, _, err := s.target("/users")
	assert.Equal(t, ExitConfigError, exitCode(t, err))

	s, _ = testSession(t, "https://api.example.com", &requestFlags{params: []string{"novalue"}})
	_, _, err = s.target("/users")
	assert.Equal(t, ExitUsageError, exitCode(t, err))

	_, _, err = s.target("/users/{{missing}}")
	assert.Equal(t, ExitUsageError, exitCode(t, err))
	assert.ErrorContains(t, err, "missing")
}

func TestSession_Options(t *testing.T) {
	t.Run("json body implies POST", func(t *testing.T) {
		s, _ := testSession(t, "https://api.example.com", &requestFlags{
			headers:  []string{"X-Trace: t-1", "Accept: application/json"},
			jsonBody: `{"name":"{{client}}"}`,
		})

		opts, err := s.options(fetcher.RequestOptions{})

		require.NoError(t, err)
		assert.Equal(t, http.MethodPost, opts.Method)
		assert.Equal(t, "t-1", opts.Headers.Get("X-Trace"))
		assert.Equal(t, fetcher.JSONBody{Value: map[string]any{"name": "cli-test"}}, opts.Body)
	})

	t.Run("data from stdin", func(t *testing.T) {
		s, _ := testSession(t, "https://api.example.com", &requestFlags{method: "put", data: "@-"})

		opts, err := s.options(fetcher.RequestOptions{})

		require.NoError(t, err)
		assert.Equal(t, http.MethodPut, opts.Method)
		assert.Equal(t, fetcher.StringBody(`{"from":"stdin"}`), opts.Body)
	})

	t.Run("flags layer over a parsed command", func(t *testing.T) {
		s, _ := testSession(t, "https://api.example.com", &requestFlags{headers: []string{"X-Extra: 1"}, redirect: "error"})
		base := fetcher.RequestOptions{Method: http.MethodDelete, Headers: http.Header{"X-Parsed": {"yes"}}}

		opts, err := s.options(base)

		require.NoError(t, err)
		assert.Equal(t, http.MethodDelete, opts.Method)
		assert.Equal(t, "yes", opts.Headers.Get("X-Parsed"))
		assert.Equal(t, "1", opts.Headers.Get("X-Extra"))
		assert.Equal(t, fetcher.RedirectError, opts.Redirect)
		assert.Empty(t, base.Headers.Get("X-Extra"))
	})

	t.Run("errors", func(t *testing.T) {
		for _, flags := range []*requestFlags{
			{data: "a", jsonBody: "{}"},
			{jsonBody: "{not json"},
			{headers: []string{"no colon"}},
			{redirect: "sometimes"},
			{credentials: "everyone"},
			{form: []string{"=x"}},
		} {
			s, _ := testSession(t, "https://api.example.com", flags)
			_, err := s.options(fetcher.RequestOptions{})
			assert.Error(t, err)
		}
	})
}

func TestSession_SendSuccess(t *testing.T) {
	var got *http.Request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[{"id":7},{"id":8}],"total":2}`))
	}))
	defer server.Close()

	s, out := testSession(t, server.URL, &requestFlags{
		bearer:    "{{client}}-token",
		requestID: true,
		query:     "items[1].id",
		expect:    []string{"status == 200", "body.total == 2", "header.Content-Type contains json"},
	})
	base, path, opts, err := s.prepare("/items", fetcher.RequestOptions{})
	require.NoError(t, err)

	require.NoError(t, s.send(context.Background(), base, path, opts))

	require.NotNil(t, got)
	assert.Equal(t, "Bearer cli-test-token", got.Header.Get("Authorization"))
	assert.Equal(t, "cli-test", got.Header.Get("X-Client"))
	assert.Equal(t, config.DefaultUserAgent, got.Header.Get("User-Agent"))
	assert.NotEmpty(t, got.Header.Get("X-Request-Id"))

	var result output.JSONOutput
	require.NoError(t, json.Unmarshal(out.Bytes(), &result))
	assert.True(t, result.Passed)
	assert.Equal(t, float64(8), result.Data)
	assert.Equal(t, http.MethodGet, result.Request.Method)
	assert.Equal(t, server.URL+"/items", result.Request.URL)
	require.NotNil(t, result.Response)
	assert.Equal(t, 200, result.Response.StatusCode)
	assert.Len(t, result.Assertions, 3)
}

func TestSession_SendAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"user not found"}`))
	}))
	defer server.Close()

	s, out := testSession(t, server.URL, &requestFlags{output: "console", noColor: true})
	base, path, opts, err := s.prepare("/users/9", fetcher.RequestOptions{})
	require.NoError(t, err)

	err = s.send(context.Background(), base, path, opts)

	assert.Equal(t, ExitRequestFailure, exitCode(t, err))
	assert.Contains(t, out.String(), "✗ GET "+server.URL+"/users/9")
	assert.Contains(t, out.String(), "→ 404 user not found")
}

func TestSession_SendFailedExpectation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	s, out := testSession(t, server.URL, &requestFlags{expect: []string{"status == 201"}})
	base, path, opts, err := s.prepare("/jobs", fetcher.RequestOptions{})
	require.NoError(t, err)

	err = s.send(context.Background(), base, path, opts)

	assert.Equal(t, ExitRequestFailure, exitCode(t, err))
	var result output.JSONOutput
	require.NoError(t, json.Unmarshal(out.Bytes(), &result))
	assert.False(t, result.Passed)
	require.Len(t, result.Assertions, 1)
	assert.False(t, result.Assertions[0].Passed)
}

func TestSession_SendNetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	s, _ := testSession(t, url, &requestFlags{})
	base, path, opts, err := s.prepare("/", fetcher.RequestOptions{})
	require.NoError(t, err)

	err = s.send(context.Background(), base, path, opts)

	assert.Equal(t, ExitNetworkError, exitCode(t, err))
}

func TestSession_SendAbsoluteURLAsWritten(t *testing.T) {
	var gotPath, gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		gotQuery = r.URL.RawQuery
	}))
	defer server.Close()

	s, _ := testSession(t, "https://api.example.com", &requestFlags{params: []string{"v=1"}})
	base, path, opts, err := s.prepare(server.URL+"/.well-known/files/", fetcher.RequestOptions{})
	require.NoError(t, err)

	require.NoError(t, s.send(context.Background(), base, path, opts))
	assert.Equal(t, "/.well-known/files/", gotPath)
	assert.Equal(t, "v=1", gotQuery)
}

func TestSession_InterceptorFailureIsRequestFailure(t *testing.T) {
	apiCalls := 0
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiCalls++
	}))
	defer api.Close()

	t.Run("rejected oauth2 token request", func(t *testing.T) {
		tokens := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"invalid_client","error_description":"bad secret"}`))
		}))
		defer tokens.Close()

		s, out := testSession(t, api.URL, &requestFlags{oauth2: "client_credentials " + tokens.URL + " id secret"})
		base, path, opts, err := s.prepare("/me", fetcher.RequestOptions{})
		require.NoError(t, err)

		err = s.send(context.Background(), base, path, opts)

		assert.Equal(t, ExitRequestFailure, exitCode(t, err))
		var result output.JSONOutput
		require.NoError(t, json.Unmarshal(out.Bytes(), &result))
		require.NotNil(t, result.Error)
		assert.Equal(t, http.StatusUnauthorized, result.Error.Status)
		assert.Nil(t, result.Response)
	})

	t.Run("cancelled rate limit wait", func(t *testing.T) {
		s, _ := testSession(t, api.URL, &requestFlags{rate: 1})
		base, path, opts, err := s.prepare("/me", fetcher.RequestOptions{})
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err = s.send(ctx, base, path, opts)

		assert.Equal(t, ExitRequestFailure, exitCode(t, err))
	})

	assert.Zero(t, apiCalls)
}

func TestSession_InvalidExpectation(t *testing.T) {
	s, _ := testSession(t, "https://api.example.com", &requestFlags{expect: []string{"status"}})

	err := s.send(context.Background(), "https://api.example.com", "/", fetcher.RequestOptions{})

	assert.Equal(t, ExitParseError, exitCode(t, err))
}

func TestSession_UnknownOutput(t *testing.T) {
	s, _ := testSession(t, "https://api.example.com", &requestFlags{output: "xml"})

	_, err := s.formatter()

	assert.Equal(t, ExitUsageError, exitCode(t, err))
}

func TestSession_AWSSigning(t *testing.T) {
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
	}))
	defer server.Close()

	s, _ := testSession(t, server.URL, &requestFlags{aws: "AKID:secret:us-east-1:execute-api"})
	base, path, opts, err := s.prepare("/", fetcher.RequestOptions{})
	require.NoError(t, err)

	require.NoError(t, s.send(context.Background(), base, path, opts))
	assert.True(t, strings.HasPrefix(auth, "AWS4-HMAC-SHA256 Credential=AKID/"))

	_, err = parseAWS("only:three:parts")
	assert.Error(t, err)
}

func TestMethodAndTarget(t *testing.T) {
	flags := &requestFlags{}
	raw, err := methodAndTarget(flags, []string{"delete", "/users/1"})
	require.NoError(t, err)
	assert.Equal(t, "/users/1", raw)
	assert.Equal(t, http.MethodDelete, flags.method)

	flags = &requestFlags{}
	raw, err = methodAndTarget(flags, []string{"/users"})
	require.NoError(t, err)
	assert.Equal(t, "/users", raw)
	assert.Empty(t, flags.method)

	_, err = methodAndTarget(&requestFlags{method: "POST"}, []string{"PUT", "/users"})
	assert.Equal(t, ExitUsageError, exitCode(t, err))
}

func TestReadCurlCommand(t *testing.T) {
	cmd, err := readCurlCommand(nil, []string{"curl https://example.com"}, "")
	require.NoError(t, err)
	assert.Equal(t, "curl https://example.com", cmd)

	cmd, err = readCurlCommand(nil, []string{"curl", "-H", "X-Note: it's", "https://example.com"}, "")
	require.NoError(t, err)
	assert.Equal(t, `curl -H 'X-Note: it'\''s' https://example.com`, cmd)

	cmd, err = readCurlCommand(strings.NewReader("curl https://example.com/stdin"), []string{"-"}, "")
	require.NoError(t, err)
	assert.Equal(t, "curl https://example.com/stdin", cmd)

	_, err = readCurlCommand(nil, nil, "")
	assert.Error(t, err)

	_, err = readCurlCommand(nil, []string{"curl"}, "request.sh")
	assert.Error(t, err)
}

func TestRequestFlags_Overrides(t *testing.T) {
	cfg, err := (&requestFlags{timeout: "2s", insecure: true, noFollow: true, rate: 5}).overrides()
	require.NoError(t, err)
	assert.Equal(t, 2000, cfg.Timeout)
	assert.False(t, cfg.GetValidateSSL())
	assert.False(t, cfg.GetFollowRedirects())
	assert.Equal(t, 5.0, cfg.RateLimit)

	_, err = (&requestFlags{timeout: "soon"}).overrides()
	assert.Error(t, err)

	_, err = (&requestFlags{rate: -1}).overrides()
	assert.Error(t, err)
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("FETCHKIT_TEST_BOOL", "yes")
	t.Setenv("FETCHKIT_TEST_FLOAT", "2.5")
	t.Setenv("FETCHKIT_TEST_INT", "nope")

	assert.True(t, getEnvBool("FETCHKIT_TEST_BOOL", false))
	assert.Equal(t, 2.5, getEnvFloat("FETCHKIT_TEST_FLOAT", 0))
	assert.Equal(t, 3, getEnvInt("FETCHKIT_TEST_INT", 3))
	assert.Equal(t, "fallback", getEnvString("FETCHKIT_TEST_UNSET", "fallback"))
}

func TestWriteInitConfig(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)

	require.NoError(t, writeInitConfig(cmd, dir, []string{"https://api.example.com"}, false))

	cfg, err := config.LoadConfig(filepath.Join(dir, ".fetchkit.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com", cfg.BaseURL)
	assert.Equal(t, "application/json", cfg.Headers["Accept"])
	assert.Contains(t, out.String(), "Created:")

	err = writeInitConfig(cmd, dir, nil, false)
	assert.Equal(t, ExitUsageError, exitCode(t, err))
	assert.NoError(t, writeInitConfig(cmd, dir, nil, true))
}

package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/fetchkit/packages/core/config"
	"github.com/spf13/cobra"
)

// requestFlags are the flags shared by request, curl and replay.
type requestFlags struct {
	// request shape
	method   string
	headers  []string
	data     string
	jsonBody string
	form     []string
	params   []string

	// response checks
	query  string
	schema string
	expect []string

	// output
	configPath string
	output     string
	verbose    bool
	quiet      bool
	noColor    bool
	logLevel   string
	logFormat  string

	// transport
	insecure    bool
	proxy       string
	timeout     string
	rate        float64
	userAgent   string
	noFollow    bool
	maxRedirect int
	redirect    string
	credentials string

	// auth
	bearer    string
	basic     string
	apiKey    string
	oauth2    string
	aws       string
	requestID bool

	// variables
	envFile string
	vars    []string
}

func (f *requestFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()

	fs.StringVarP(&f.method, "request", "X", "", "HTTP method (default GET, or POST when a body is given)")
	fs.StringArrayVarP(&f.headers, "header", "H", nil, "Request header \"Name: value\" (repeatable)")
	fs.StringVarP(&f.data, "data", "d", "", "Request body; @file reads a file, @- reads stdin")
	fs.StringVar(&f.jsonBody, "json", "", "JSON request body; sets Content-Type: application/json")
	fs.StringArrayVarP(&f.form, "form", "F", nil, "Multipart field name=value or name=@file (repeatable)")
	fs.StringArrayVarP(&f.params, "param", "p", nil, "Query parameter name=value (repeatable)")

	fs.StringVar(&f.query, "query", "", "Print only the value at this JSON path (e.g. data.items[0].id)")
	fs.StringVar(&f.schema, "schema", "", "Validate the JSON response body against a JSON schema file")
	fs.StringArrayVar(&f.expect, "expect", nil, "Assertion such as \"status == 200\" or \"body.id exists\" (repeatable)")

	fs.StringVar(&f.configPath, "config", getEnvString("FETCHKIT_CONFIG", ""), "Path to config file (env: FETCHKIT_CONFIG)")
	fs.StringVarP(&f.output, "output", "o", getEnvString("FETCHKIT_OUTPUT", "console"), "Output format: console, json (env: FETCHKIT_OUTPUT)")
	fs.BoolVarP(&f.verbose, "verbose", "v", getEnvBool("FETCHKIT_VERBOSE", false), "Log outgoing requests and show response headers (env: FETCHKIT_VERBOSE)")
	fs.BoolVarP(&f.quiet, "quiet", "q", getEnvBool("FETCHKIT_QUIET", false), "Print only the response body (env: FETCHKIT_QUIET)")
	fs.BoolVar(&f.noColor, "no-color", getEnvBool("FETCHKIT_NO_COLOR", false), "Disable colored output (env: FETCHKIT_NO_COLOR)")
	fs.StringVar(&f.logLevel, "log-level", getEnvString("FETCHKIT_LOG_LEVEL", ""), "Log level: trace, debug, info, warn, error (env: FETCHKIT_LOG_LEVEL)")
	fs.StringVar(&f.logFormat, "log-format", getEnvString("FETCHKIT_LOG_FORMAT", "text"), "Log format: text, json (env: FETCHKIT_LOG_FORMAT)")

	fs.BoolVarP(&f.insecure, "insecure", "k", getEnvBool("FETCHKIT_INSECURE", false), "Disable SSL certificate validation (env: FETCHKIT_INSECURE)")
	fs.StringVar(&f.proxy, "proxy", getEnvString("FETCHKIT_PROXY", ""), "Proxy URL for HTTP requests (env: FETCHKIT_PROXY)")
	fs.StringVar(&f.timeout, "timeout", getEnvString("FETCHKIT_TIMEOUT", ""), "Request timeout (e.g., 30s, 1m) (env: FETCHKIT_TIMEOUT)")
	fs.Float64Var(&f.rate, "rate", getEnvFloat("FETCHKIT_RATE", 0), "Maximum requests per second, 0 = unlimited (env: FETCHKIT_RATE)")
	fs.StringVar(&f.userAgent, "user-agent", getEnvString("FETCHKIT_USER_AGENT", ""), "User-Agent header (env: FETCHKIT_USER_AGENT)")
	fs.BoolVar(&f.noFollow, "no-follow", false, "Do not follow redirects")
	fs.IntVar(&f.maxRedirect, "max-redirects", getEnvInt("FETCHKIT_MAX_REDIRECTS", 0), "Maximum redirects to follow (env: FETCHKIT_MAX_REDIRECTS)")
	fs.StringVar(&f.redirect, "redirect", "", "Redirect mode: follow, manual, error")
	fs.StringVar(&f.credentials, "credentials", "", "Cookie mode: include, same-origin, omit")

	fs.StringVar(&f.bearer, "bearer", getEnvString("FETCHKIT_BEARER", ""), "Bearer token (env: FETCHKIT_BEARER)")
	fs.StringVar(&f.basic, "basic", "", "Basic auth credentials user:password")
	fs.StringVar(&f.apiKey, "api-key", "", "API key header \"Name: key\"")
	fs.StringVar(&f.oauth2, "oauth2", "", "OAuth2 grant: \"client_credentials tokenUrl clientId clientSecret [scopes]\" or \"password tokenUrl clientId clientSecret user pass [scopes]\"")
	fs.StringVar(&f.aws, "aws", "", "AWS SigV4 signing accessKey:secretKey:region:service (session token from AWS_SESSION_TOKEN)")
	fs.BoolVar(&f.requestID, "request-id", false, "Add an X-Request-Id header with a random UUID")

	fs.StringVar(&f.envFile, "env-file", getEnvString("FETCHKIT_ENV_FILE", ""), "Path to .env file for variable interpolation (env: FETCHKIT_ENV_FILE)")
	fs.StringArrayVar(&f.vars, "var", nil, "Variable name=value for {{name}} placeholders (repeatable)")
}

// overrides returns the config fields set on the command line.
func (f *requestFlags) overrides() (*config.Config, error) {
	cfg := &config.Config{
		Proxy:     f.proxy,
		LogLevel:  f.logLevel,
		RateLimit: f.rate,
		UserAgent: f.userAgent,
	}
	if f.maxRedirect < 0 {
		return nil, fmt.Errorf("--max-redirects must not be negative")
	}
	cfg.MaxRedirects = f.maxRedirect

	if f.timeout != "" {
		d, err := time.ParseDuration(f.timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout %q: %w", f.timeout, err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("invalid timeout %q: must be positive", f.timeout)
		}
		cfg.Timeout = int(d.Milliseconds())
	}
	if f.insecure {
		cfg.ValidateSSL = config.BoolPtr(false)
	}
	if f.noFollow {
		cfg.FollowRedirects = config.BoolPtr(false)
	}
	if f.verbose {
		cfg.Verbose = config.BoolPtr(true)
	}
	if f.noColor {
		cfg.NoColor = config.BoolPtr(true)
	}

	return cfg, cfg.Validate()
}

// splitPair splits "name<sep>value", trimming space around both halves.
func splitPair(s, sep, what string) (string, string, error) {
	name, value, found := strings.Cut(s, sep)
	name = strings.TrimSpace(name)
	if !found || name == "" {
		return "", "", fmt.Errorf("invalid %s %q", what, s)
	}
	return name, strings.TrimSpace(value), nil
}

func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		return val == "true" || val == "1" || val == "yes"
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

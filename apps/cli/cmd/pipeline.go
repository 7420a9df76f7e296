package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	neturl "net/url"
	"os"
	"strings"

	"github.com/abdul-hamid-achik/fetchkit/packages/assertions"
	"github.com/abdul-hamid-achik/fetchkit/packages/auth/oauth2"
	"github.com/abdul-hamid-achik/fetchkit/packages/core/config"
	"github.com/abdul-hamid-achik/fetchkit/packages/core/env"
	"github.com/abdul-hamid-achik/fetchkit/packages/fetcher"
	"github.com/abdul-hamid-achik/fetchkit/packages/formdata"
	fkhttp "github.com/abdul-hamid-achik/fetchkit/packages/http"
	"github.com/abdul-hamid-achik/fetchkit/packages/interceptors"
	"github.com/abdul-hamid-achik/fetchkit/packages/logging"
	"github.com/abdul-hamid-achik/fetchkit/packages/output"
	"github.com/abdul-hamid-achik/fetchkit/packages/pathname"
	"github.com/abdul-hamid-achik/fetchkit/packages/query"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// recordingDoer remembers the last request and response it carried so the
// CLI can report status and timing next to the decoded body. Not safe for
// concurrent use.
type recordingDoer struct {
	next     fetcher.Doer
	request  *fkhttp.Request
	response *fkhttp.Response
}

func (d *recordingDoer) Do(ctx context.Context, req *fkhttp.Request) (*fkhttp.Response, error) {
	d.request = req
	resp, err := d.next.Do(ctx, req)
	d.response = resp
	return resp, err
}

// session is the state one CLI invocation builds before sending.
type session struct {
	flags    *requestFlags
	cfg      *config.Config
	resolver *env.Resolver
	logger   *logrus.Logger
	client   *fkhttp.Client
	baseDir  string
	stdin    io.Reader
	stdout   io.Writer
}

func newSession(cmd *cobra.Command, flags *requestFlags) (*session, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	fileConfig, err := config.LoadConfig(flags.configPath)
	if err != nil {
		return nil, withExitCode(ExitConfigError, fmt.Errorf("failed to load config: %w", err))
	}
	overrides, err := flags.overrides()
	if err != nil {
		return nil, withExitCode(ExitUsageError, err)
	}
	cfg := fileConfig.Merge(overrides)

	level := cfg.LogLevel
	if cfg.GetVerbose() && flags.logLevel == "" {
		level = logrus.DebugLevel.String()
	}
	logger, err := logging.New(level, flags.logFormat, cmd.ErrOrStderr())
	if err != nil {
		return nil, withExitCode(ExitUsageError, err)
	}

	resolver := env.NewResolver()
	if flags.envFile != "" {
		vars, err := env.LoadDotEnv(flags.envFile)
		if err != nil {
			return nil, withExitCode(ExitConfigError, err)
		}
		resolver.SetVariables(vars)
	}
	vars, err := env.ParseVars(flags.vars)
	if err != nil {
		return nil, withExitCode(ExitUsageError, err)
	}
	resolver.SetVariables(vars)

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	clientOpts := []fkhttp.ClientOption{
		fkhttp.WithTimeout(cfg.TimeoutDuration()),
		fkhttp.WithFollowRedirects(cfg.GetFollowRedirects()),
		fkhttp.WithValidateSSL(cfg.GetValidateSSL()),
		fkhttp.WithCookieJar(jar),
	}
	if cfg.MaxRedirects > 0 {
		clientOpts = append(clientOpts, fkhttp.WithMaxRedirects(cfg.MaxRedirects))
	}
	if cfg.Proxy != "" {
		clientOpts = append(clientOpts, fkhttp.WithProxy(cfg.Proxy))
	}

	return &session{
		flags:    flags,
		cfg:      cfg,
		resolver: resolver,
		logger:   logger,
		client:   fkhttp.NewClient(clientOpts...),
		baseDir:  cwd,
		stdin:    cmd.InOrStdin(),
		stdout:   cmd.OutOrStdout(),
	}, nil
}

// prepare resolves the target and the request options in one step.
func (s *session) prepare(raw string, base fetcher.RequestOptions) (string, string, fetcher.RequestOptions, error) {
	baseURL, path, err := s.target(raw)
	if err != nil {
		return "", "", fetcher.RequestOptions{}, err
	}
	opts, err := s.options(base)
	if err != nil {
		return "", "", fetcher.RequestOptions{}, err
	}
	return baseURL, path, opts, nil
}

func errMethodConflict(flag, arg string) error {
	return fmt.Errorf("method given twice: -X %s and %s", flag, arg)
}

func (s *session) resolve(value string) (string, error) {
	out, err := s.resolver.Resolve(value)
	if err != nil {
		return "", withExitCode(ExitUsageError, err)
	}
	return out, nil
}

// target splits raw into a base URL and a path. Absolute URLs carry their
// own base; anything else is a path under the configured baseUrl. --param
// values are appended to the query string.
func (s *session) target(raw string) (string, string, error) {
	raw, err := s.resolve(raw)
	if err != nil {
		return "", "", err
	}

	base := s.cfg.BaseURL
	path, rawQuery, _ := strings.Cut(raw, "?")
	absolute := strings.Contains(raw, "://")

	if absolute {
		u, err := neturl.Parse(raw)
		if err != nil {
			return "", "", withExitCode(ExitUsageError, fmt.Errorf("invalid URL %q: %w", raw, err))
		}
		if u.Scheme == "" || u.Host == "" {
			return "", "", withExitCode(ExitUsageError, fmt.Errorf("invalid URL %q", raw))
		}
		base = u.Scheme + "://" + u.Host
		path = u.EscapedPath()
		rawQuery = u.RawQuery
	} else if base == "" {
		return "", "", withExitCode(ExitConfigError, fmt.Errorf("no base URL: pass an absolute URL or set baseUrl in the config file"))
	}

	base, err = s.resolve(base)
	if err != nil {
		return "", "", err
	}

	params, err := s.params()
	if err != nil {
		return "", "", err
	}
	if encoded := query.Encode(params); encoded != "" {
		if rawQuery != "" {
			rawQuery += "&"
		}
		rawQuery += encoded
	}

	// Absolute URLs are sent as written; only relative targets are
	// normalized onto baseUrl.
	if !absolute {
		base = strings.TrimSuffix(base, "/")
		path = pathname.Join(path)
	}
	if rawQuery != "" {
		path += "?" + rawQuery
	}
	return base, path, nil
}

func (s *session) params() (map[string]any, error) {
	params := make(map[string]any, len(s.flags.params))
	for _, p := range s.flags.params {
		name, value, err := splitPair(p, "=", "query parameter")
		if err != nil {
			return nil, withExitCode(ExitUsageError, err)
		}
		if value, err = s.resolve(value); err != nil {
			return nil, err
		}
		switch existing := params[name].(type) {
		case nil:
			params[name] = value
		case string:
			params[name] = []string{existing, value}
		case []string:
			params[name] = append(existing, value)
		}
	}
	return params, nil
}

// options layers the request flags over base, which is empty for request and
// the parsed command for replay.
func (s *session) options(base fetcher.RequestOptions) (fetcher.RequestOptions, error) {
	opts := base.Clone()
	if opts.Headers == nil {
		opts.Headers = make(http.Header)
	}

	for _, h := range s.flags.headers {
		name, value, err := splitPair(h, ":", "header")
		if err != nil {
			return opts, withExitCode(ExitUsageError, err)
		}
		if value, err = s.resolve(value); err != nil {
			return opts, err
		}
		opts.Headers.Add(name, value)
	}

	bodies := 0
	if s.flags.data != "" {
		bodies++
		data, err := s.readData(s.flags.data)
		if err != nil {
			return opts, err
		}
		opts.Body = fetcher.StringBody(data)
	}
	if s.flags.jsonBody != "" {
		bodies++
		raw, err := s.readData(s.flags.jsonBody)
		if err != nil {
			return opts, err
		}
		var value any
		if err := json.Unmarshal([]byte(raw), &value); err != nil {
			return opts, withExitCode(ExitParseError, fmt.Errorf("invalid --json body: %w", err))
		}
		opts.Body = fetcher.JSONBody{Value: value}
	}
	if len(s.flags.form) > 0 {
		bodies++
		form := formdata.New()
		for _, field := range s.flags.form {
			field, err := s.resolve(field)
			if err != nil {
				return opts, err
			}
			if err := form.AddField(field, s.baseDir); err != nil {
				return opts, withExitCode(ExitUsageError, err)
			}
		}
		opts.Body = form
	}
	if bodies > 1 {
		return opts, withExitCode(ExitUsageError, fmt.Errorf("--data, --json and --form are mutually exclusive"))
	}

	if s.flags.method != "" {
		opts.Method = strings.ToUpper(s.flags.method)
	} else if opts.Method == "" && opts.Body != nil {
		opts.Method = http.MethodPost
	}

	if s.flags.redirect != "" {
		switch mode := fetcher.RedirectMode(s.flags.redirect); mode {
		case fetcher.RedirectFollow, fetcher.RedirectManual, fetcher.RedirectError:
			opts.Redirect = mode
		default:
			return opts, withExitCode(ExitUsageError, fmt.Errorf("invalid --redirect %q: expected follow, manual or error", s.flags.redirect))
		}
	} else if s.flags.noFollow {
		opts.Redirect = fetcher.RedirectManual
	}

	if s.flags.credentials != "" {
		switch mode := fetcher.CredentialsMode(s.flags.credentials); mode {
		case fetcher.CredentialsInclude, fetcher.CredentialsSameOrigin, fetcher.CredentialsOmit:
			opts.Credentials = mode
		default:
			return opts, withExitCode(ExitUsageError, fmt.Errorf("invalid --credentials %q: expected include, same-origin or omit", s.flags.credentials))
		}
	}

	return opts, nil
}

// readData returns a --data/--json value, reading @file and @- (stdin).
func (s *session) readData(value string) (string, error) {
	path, ok := strings.CutPrefix(value, "@")
	if !ok {
		return s.resolve(value)
	}

	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(s.stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", withExitCode(ExitUsageError, fmt.Errorf("read body: %w", err))
	}
	return s.resolve(string(data))
}

// interceptor builds the chain applied to every request, in order: user
// agent, authentication, request id, AWS signing, rate limiting and, when
// verbose, request logging.
func (s *session) interceptor() (fetcher.Interceptor, error) {
	chain := []fetcher.Interceptor{interceptors.UserAgent(s.cfg.UserAgent)}

	auth, err := s.auth()
	if err != nil {
		return nil, withExitCode(ExitUsageError, err)
	}
	chain = append(chain, auth...)

	if s.flags.requestID {
		chain = append(chain, interceptors.RequestID(""))
	}

	if s.flags.aws != "" {
		creds, err := parseAWS(s.flags.aws)
		if err != nil {
			return nil, withExitCode(ExitUsageError, err)
		}
		chain = append(chain, interceptors.AWSSigV4(creds))
	}

	if limiter := interceptors.PerSecond(s.cfg.RateLimit); limiter != nil {
		chain = append(chain, interceptors.RateLimit(limiter))
	}

	if s.cfg.GetVerbose() {
		chain = append(chain, logging.Interceptor(s.logger))
	}

	return fetcher.Compose(chain...), nil
}

func (s *session) auth() ([]fetcher.Interceptor, error) {
	var chain []fetcher.Interceptor

	if s.flags.bearer != "" {
		token, err := s.resolve(s.flags.bearer)
		if err != nil {
			return nil, err
		}
		chain = append(chain, interceptors.Bearer(token))
	}

	if s.flags.basic != "" {
		creds, err := s.resolve(s.flags.basic)
		if err != nil {
			return nil, err
		}
		user, pass, found := strings.Cut(creds, ":")
		if !found {
			return nil, fmt.Errorf("invalid --basic: expected user:password")
		}
		chain = append(chain, interceptors.BasicAuth(user, pass))
	}

	if s.flags.apiKey != "" {
		name, key, err := splitPair(s.flags.apiKey, ":", "--api-key")
		if err != nil {
			return nil, err
		}
		if key, err = s.resolve(key); err != nil {
			return nil, err
		}
		chain = append(chain, interceptors.APIKey(name, key))
	}

	if s.flags.oauth2 != "" {
		params, err := s.resolve(s.flags.oauth2)
		if err != nil {
			return nil, err
		}
		cfg, err := oauth2.ParseParams(strings.Fields(params))
		if err != nil {
			return nil, err
		}
		// The token endpoint goes through the plain client so the
		// recorder only ever sees the real request.
		provider := oauth2.NewProvider(cfg, oauth2.WithDoer(s.client))
		chain = append(chain, interceptors.OAuth2(provider))
	}

	return chain, nil
}

func parseAWS(value string) (interceptors.AWSCredentials, error) {
	parts := strings.Split(value, ":")
	if len(parts) != 4 {
		return interceptors.AWSCredentials{}, fmt.Errorf("invalid --aws: expected accessKey:secretKey:region:service")
	}
	return interceptors.AWSCredentials{
		AccessKey:    parts[0],
		SecretKey:    parts[1],
		Region:       parts[2],
		Service:      parts[3],
		SessionToken: os.Getenv("AWS_SESSION_TOKEN"),
	}, nil
}

// fetcher returns a fetcher for base with the config headers as defaults.
func (s *session) fetcher(base string, doer fetcher.Doer) (*fetcher.Fetcher, error) {
	headers, err := s.resolver.ResolveAll(s.cfg.Headers)
	if err != nil {
		return nil, withExitCode(ExitConfigError, err)
	}
	defaults := make(http.Header, len(headers))
	for name, value := range headers {
		defaults.Set(name, value)
	}

	chain, err := s.interceptor()
	if err != nil {
		return nil, err
	}

	return fetcher.New(base,
		fetcher.WithDefaultHeaders(defaults),
		fetcher.WithInterceptor(chain),
		fetcher.WithDoer(doer),
	), nil
}

func (s *session) formatter() (output.Formatter, error) {
	switch s.flags.output {
	case "", "console":
		return output.NewConsoleFormatter(
			output.WithWriter(s.stdout),
			output.WithVerbose(s.cfg.GetVerbose()),
			output.WithNoColor(s.cfg.GetNoColor()),
			output.WithQuiet(s.flags.quiet),
		), nil
	case "json":
		return output.NewJSONFormatter(output.JSONWithWriter(s.stdout)), nil
	default:
		return nil, withExitCode(ExitUsageError, fmt.Errorf("unknown output format %q: expected console or json", s.flags.output))
	}
}

func (s *session) expectations() ([]*assertions.Assertion, error) {
	list := make([]*assertions.Assertion, 0, len(s.flags.expect))
	for _, expr := range s.flags.expect {
		expr, err := s.resolve(expr)
		if err != nil {
			return nil, err
		}
		a, err := assertions.Parse(expr)
		if err != nil {
			return nil, withExitCode(ExitParseError, err)
		}
		list = append(list, a)
	}
	return list, nil
}

// send executes one request and reports it. The returned error carries the
// exit code: network failures, API errors and failed checks each map to
// their own code.
func (s *session) send(ctx context.Context, base, path string, opts fetcher.RequestOptions) error {
	formatter, err := s.formatter()
	if err != nil {
		return err
	}
	expectations, err := s.expectations()
	if err != nil {
		return err
	}

	recorder := &recordingDoer{next: s.client}
	f, err := s.fetcher(base, recorder)
	if err != nil {
		return err
	}

	formatter.FormatHeader(version)

	data, err := f.Execute(ctx, path, &opts)
	result := &output.Result{
		Method:   opts.Method,
		URL:      f.URL(path),
		Response: recorder.response,
		Data:     data,
		Err:      err,
	}
	if req := recorder.request; req != nil {
		result.Method = req.Method
		result.URL = req.URL
	}
	if result.Method == "" {
		result.Method = http.MethodGet
	}

	if resp := recorder.response; resp != nil {
		s.logger.WithFields(logging.Fields(
			"status", resp.StatusCode,
			"duration_ms", resp.DurationMs(),
			"bytes", len(resp.Body),
		)).Debug("Received response")

		if err := s.check(result, resp, expectations); err != nil {
			return err
		}
	}

	formatter.FormatResult(result)

	// Without a recorded request the interceptor chain failed before the
	// transport ran.
	switch {
	case result.Err != nil && recorder.request != nil && recorder.response == nil:
		return withExitCode(ExitNetworkError, nil)
	case !result.Passed():
		return withExitCode(ExitRequestFailure, nil)
	}
	return nil
}

// check applies --query, --schema and --expect to a received response.
func (s *session) check(result *output.Result, resp *fkhttp.Response, expectations []*assertions.Assertion) error {
	if s.flags.query != "" && result.Err == nil {
		value, ok := assertions.Query(resp.Body, s.flags.query)
		if !ok {
			result.Err = fmt.Errorf("query %q matched nothing", s.flags.query)
		} else {
			result.Data = value
		}
	}

	if s.flags.schema != "" {
		violations, err := assertions.ValidateSchema(resp.Body, s.flags.schema, s.baseDir)
		if err != nil {
			return withExitCode(ExitConfigError, err)
		}
		result.SchemaErrors = violations
	}

	if len(expectations) > 0 {
		result.Assertions, _ = assertions.NewEvaluator(resp).EvaluateAll(expectations)
	}
	return nil
}

package curl

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/abdul-hamid-achik/fetchkit/packages/fetcher"
	"github.com/abdul-hamid-achik/fetchkit/packages/formdata"
)

// Parsed is a curl command turned back into a request.
type Parsed struct {
	URL             string
	Options         fetcher.RequestOptions
	Insecure        bool
	FollowRedirects bool
}

// Parser converts curl commands into requests.
type Parser struct {
	baseDir string
}

// Option is a functional option for Parser.
type Option func(*Parser)

// WithBaseDir sets the directory -F "key=@file" paths are resolved against.
// Files outside it are rejected.
func WithBaseDir(dir string) Option {
	return func(p *Parser) {
		p.baseDir = dir
	}
}

// NewParser creates a new curl parser.
func NewParser(opts ...Option) *Parser {
	p := &Parser{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse parses cmd with a default Parser.
func Parse(cmd string) (*Parsed, error) {
	return NewParser().Parse(cmd)
}

// Parse parses a curl command string. Line continuations are accepted.
func (p *Parser) Parse(curlCmd string) (*Parsed, error) {
	parsed := &Parsed{
		Options: fetcher.RequestOptions{Headers: make(http.Header)},
	}

	// Normalize the command
	curlCmd = strings.ReplaceAll(curlCmd, "\\\r\n", " ")
	curlCmd = strings.ReplaceAll(curlCmd, "\\\n", " ")
	curlCmd = strings.TrimSpace(curlCmd)

	// Remove "curl" prefix if present
	if curlCmd == "curl" {
		return nil, fmt.Errorf("no URL specified")
	}
	curlCmd = strings.TrimPrefix(curlCmd, "curl ")

	// Tokenize the command respecting quotes
	tokens, err := tokenize(curlCmd)
	if err != nil {
		return nil, err
	}

	var form *formdata.Form
	var body string
	hasBody := false
	method := ""

	i := 0
	for i < len(tokens) {
		token := tokens[i]

		next := func() (string, error) {
			if i+1 >= len(tokens) {
				return "", fmt.Errorf("missing value for %s", token)
			}
			i += 2
			return tokens[i-1], nil
		}

		switch {
		case token == "-X" || token == "--request":
			v, err := next()
			if err != nil {
				return nil, err
			}
			method = strings.ToUpper(v)

		case token == "-H" || token == "--header":
			v, err := next()
			if err != nil {
				return nil, err
			}
			parts := strings.SplitN(v, ":", 2)
			if len(parts) == 2 {
				parsed.Options.Headers.Add(strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]))
			}

		case token == "-d" || token == "--data" || token == "--data-raw" || token == "--data-binary":
			v, err := next()
			if err != nil {
				return nil, err
			}
			if hasBody {
				body += "&" + v
			} else {
				body = v
			}
			hasBody = true

		case token == "-F" || token == "--form":
			v, err := next()
			if err != nil {
				return nil, err
			}
			if form == nil {
				form = formdata.New()
			}
			if err := form.AddField(v, p.baseDir); err != nil {
				return nil, err
			}

		case token == "-u" || token == "--user":
			v, err := next()
			if err != nil {
				return nil, err
			}
			parsed.Options.Headers.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(v)))

		case token == "-k" || token == "--insecure":
			parsed.Insecure = true
			i++

		case token == "-L" || token == "--location":
			parsed.FollowRedirects = true
			i++

		case token == "-A" || token == "--user-agent":
			v, err := next()
			if err != nil {
				return nil, err
			}
			parsed.Options.Headers.Set("User-Agent", v)

		case token == "-e" || token == "--referer":
			v, err := next()
			if err != nil {
				return nil, err
			}
			parsed.Options.Headers.Set("Referer", v)

		case token == "-b" || token == "--cookie":
			v, err := next()
			if err != nil {
				return nil, err
			}
			parsed.Options.Headers.Set("Cookie", v)

		case token == "--url":
			v, err := next()
			if err != nil {
				return nil, err
			}
			parsed.URL = v

		case strings.HasPrefix(token, "-"):
			// Skip unknown flags with potential values
			if i+1 < len(tokens) && !strings.HasPrefix(tokens[i+1], "-") && !isURL(tokens[i+1]) {
				i += 2
			} else {
				i++
			}

		default:
			if parsed.URL == "" && isURL(token) {
				parsed.URL = token
			}
			i++
		}
	}

	if parsed.URL == "" {
		return nil, fmt.Errorf("no URL found in curl command")
	}

	switch {
	case form != nil:
		parsed.Options.Body = form
		if method == "" {
			method = http.MethodPost
		}
	case hasBody:
		parsed.Options.Body = fetcher.StringBody(body)
		if method == "" {
			method = http.MethodPost
		}
	}
	if method == "" {
		method = http.MethodGet
	}
	parsed.Options.Method = method

	if parsed.FollowRedirects {
		parsed.Options.Redirect = fetcher.RedirectFollow
	}

	return parsed, nil
}

// tokenize splits a command into shell words. Single quotes are literal,
// backslash escapes the next character outside quotes and escapes only
// `"`, `\`, `$` and "`" inside double quotes.
func tokenize(cmd string) ([]string, error) {
	var tokens []string
	var current strings.Builder
	inSingleQuote := false
	inDoubleQuote := false
	escaped := false
	inToken := false

	for _, r := range cmd {
		if escaped {
			if inDoubleQuote && !strings.ContainsRune("\"\\$`", r) {
				current.WriteRune('\\')
			}
			current.WriteRune(r)
			escaped = false
			continue
		}

		switch {
		case inSingleQuote:
			if r == '\'' {
				inSingleQuote = false
			} else {
				current.WriteRune(r)
			}
		case r == '\\':
			escaped = true
			inToken = true
		case r == '\'' && !inDoubleQuote:
			inSingleQuote = true
			inToken = true
		case r == '"':
			inDoubleQuote = !inDoubleQuote
			inToken = true
		case (r == ' ' || r == '\t' || r == '\n' || r == '\r') && !inDoubleQuote:
			if inToken {
				tokens = append(tokens, current.String())
				current.Reset()
				inToken = false
			}
		default:
			current.WriteRune(r)
			inToken = true
		}
	}

	if inSingleQuote || inDoubleQuote {
		return nil, fmt.Errorf("unterminated quote in curl command")
	}

	if inToken {
		tokens = append(tokens, current.String())
	}

	return tokens, nil
}

// isURL checks if a string looks like a URL.
func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// Package logging configures logrus for fetchkit and provides the logrus-backed
// sink for fetcher.Logging.
package logging

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/abdul-hamid-achik/fetchkit/packages/fetcher"
	"github.com/sirupsen/logrus"
)

// Redacted replaces the values of sensitive headers in log output.
const Redacted = "[REDACTED]"

var sensitiveHeaders = map[string]bool{
	"Authorization":        true,
	"Proxy-Authorization":  true,
	"Cookie":               true,
	"Set-Cookie":           true,
	"X-Api-Key":            true,
	"X-Amz-Security-Token": true,
}

// New returns a logger writing to w. format is "text" (default) or "json";
// level is any logrus level name, defaulting to info.
func New(level, format string, w io.Writer) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetOutput(w)

	if level == "" {
		level = "info"
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	logger.SetLevel(lvl)

	switch strings.ToLower(format) {
	case "", "text":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}

	return logger, nil
}

// Fields builds logrus fields from alternating keys and values. A trailing key
// without a value is recorded under "!BADKEY".
func Fields(keyValues ...any) logrus.Fields {
	fields := logrus.Fields{}
	for i := 0; i < len(keyValues); i += 2 {
		if i+1 >= len(keyValues) {
			fields["!BADKEY"] = keyValues[i]
			break
		}
		fields[fmt.Sprint(keyValues[i])] = keyValues[i+1]
	}
	return fields
}

// RedactHeaders returns a copy of h with sensitive values replaced.
func RedactHeaders(h http.Header) http.Header {
	out := fetcher.MergeHeaders(h)
	for name, values := range out {
		if sensitiveHeaders[name] {
			for i := range values {
				values[i] = Redacted
			}
		}
	}
	return out
}

// Sink logs requests observed by fetcher.Logging at debug level.
type Sink struct {
	logger logrus.FieldLogger
	level  logrus.Level
}

// NewSink returns a Sink logging at debug level.
func NewSink(logger logrus.FieldLogger) *Sink {
	return &Sink{logger: logger, level: logrus.DebugLevel}
}

// AtLevel returns a copy of s that logs at level.
func (s *Sink) AtLevel(level logrus.Level) *Sink {
	out := *s
	out.level = level
	return &out
}

func (s *Sink) LogRequest(url string, opts fetcher.RequestOptions) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	entry := s.logger.WithFields(Fields(
		"method", method,
		"url", url,
		"headers", flatten(RedactHeaders(opts.Headers)),
	))
	if opts.Body != nil {
		entry = entry.WithField("body", fmt.Sprintf("%T", opts.Body))
	}
	if opts.Redirect != "" {
		entry = entry.WithField("redirect", opts.Redirect)
	}
	if opts.Credentials != "" {
		entry = entry.WithField("credentials", opts.Credentials)
	}

	switch s.level {
	case logrus.TraceLevel:
		entry.Trace("Sending request")
	case logrus.InfoLevel:
		entry.Info("Sending request")
	case logrus.WarnLevel:
		entry.Warn("Sending request")
	default:
		entry.Debug("Sending request")
	}
}

// Interceptor is shorthand for fetcher.Logging(NewSink(logger)).
func Interceptor(logger logrus.FieldLogger) fetcher.Interceptor {
	return fetcher.Logging(NewSink(logger))
}

// flatten renders headers as "Name: v1, v2" pairs so text output stays on one line.
func flatten(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for name, values := range h {
		out[name] = strings.Join(values, ", ")
	}
	return out
}

package cmd

// Exit codes for fetchkit CLI
const (
	// ExitSuccess indicates the request succeeded and every check passed
	ExitSuccess = 0

	// ExitRequestFailure indicates an error status, a failed interceptor (for
	// example a rejected OAuth2 token request) or a failed --expect/--schema check
	ExitRequestFailure = 1

	// ExitParseError indicates a curl command or flag value could not be parsed
	ExitParseError = 2

	// ExitConfigError indicates a configuration error
	ExitConfigError = 3

	// ExitNetworkError indicates the request was sent but no response arrived
	ExitNetworkError = 4

	// ExitUsageError indicates invalid CLI usage
	ExitUsageError = 64
)

// exitError carries a process exit code up to Execute.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return ""
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

func withExitCode(code int, err error) error {
	return &exitError{code: code, err: err}
}

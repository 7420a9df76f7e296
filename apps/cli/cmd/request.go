package cmd

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/abdul-hamid-achik/fetchkit/packages/fetcher"
	"github.com/spf13/cobra"
)

var requestFlagSet requestFlags

var requestCmd = &cobra.Command{
	Use:   "request [METHOD] <url|path>",
	Short: "Send a request and print the decoded response",
	Long: `Send one request through the fetch pipeline and print the result.

Relative paths are joined to baseUrl from the config file. Responses with
a status outside 200-399 are reported as API errors with the server's
message and exit with code 1.

Examples:
  fetchkit request https://api.example.com/users/1
  fetchkit request POST /users --json '{"name":"Ada"}'
  fetchkit request /users -p page=2 -p tag=a -p tag=b --query 'items[0].id'
  fetchkit request /me --bearer '{{$API_TOKEN}}' --expect 'status == 200'
  fetchkit request /upload -F file=@avatar.png -F name=ada`,
	Args: cobra.RangeArgs(1, 2),
	RunE: requestCommand,
}

func init() {
	requestFlagSet.register(requestCmd)
}

func requestCommand(cmd *cobra.Command, args []string) error {
	flags := requestFlagSet
	raw, err := methodAndTarget(&flags, args)
	if err != nil {
		return err
	}

	s, err := newSession(cmd, &flags)
	if err != nil {
		return err
	}
	base, path, opts, err := s.prepare(raw, fetcher.RequestOptions{})
	if err != nil {
		return err
	}

	ctx, stop := signalContext(cmd)
	defer stop()

	return s.send(ctx, base, path, opts)
}

// methodAndTarget accepts "<target>" or "<METHOD> <target>".
func methodAndTarget(flags *requestFlags, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	if flags.method != "" && !strings.EqualFold(flags.method, args[0]) {
		return "", withExitCode(ExitUsageError, errMethodConflict(flags.method, args[0]))
	}
	flags.method = strings.ToUpper(args[0])
	return args[1], nil
}

func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}

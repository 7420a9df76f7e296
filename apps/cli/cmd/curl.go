package cmd

import (
	"fmt"

	"github.com/abdul-hamid-achik/fetchkit/packages/curl"
	"github.com/abdul-hamid-achik/fetchkit/packages/fetcher"
	"github.com/spf13/cobra"
)

var curlFlagSet requestFlags

var curlCmd = &cobra.Command{
	Use:   "curl [METHOD] <url|path>",
	Short: "Print the curl command for a request without sending it",
	Long: `Build a request exactly as 'fetchkit request' would, including config
headers and every interceptor (auth, signing, request id), and print it
as a curl command instead of sending it.

Examples:
  fetchkit curl POST /users --json '{"name":"Ada"}' --bearer TOKEN
  fetchkit curl https://api.example.com/upload -F file=@avatar.png`,
	Args: cobra.RangeArgs(1, 2),
	RunE: curlCommand,
}

func init() {
	curlFlagSet.register(curlCmd)
}

func curlCommand(cmd *cobra.Command, args []string) error {
	flags := curlFlagSet
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

	f, err := s.fetcher(base, s.client)
	if err != nil {
		return err
	}

	ctx, stop := signalContext(cmd)
	defer stop()

	prepared, err := f.Prepare(ctx, path, &opts)
	if err != nil {
		return withExitCode(ExitRequestFailure, err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), curl.Command(f.URL(path), &prepared, nil))
	return nil
}

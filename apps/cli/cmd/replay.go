package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/abdul-hamid-achik/fetchkit/packages/curl"
	"github.com/abdul-hamid-achik/fetchkit/packages/fetcher"
	"github.com/spf13/cobra"
)

var (
	replayFlagSet requestFlags
	replayFile    string
)

var replayCmd = &cobra.Command{
	Use:   "replay [curl command]",
	Short: "Parse a curl command and send it through fetchkit",
	Long: `Parse a curl command and send it through the fetch pipeline, so that
config headers, interceptors, --query, --schema and --expect apply to it.
Flags given to replay are layered over the parsed command.

The command can be passed as arguments, read from a file with --file, or
read from stdin with "-".

Examples:
  fetchkit replay "curl -X POST https://api.example.com/users -d '{\"a\":1}'"
  fetchkit replay --file request.sh --expect 'status == 201'
  pbpaste | fetchkit replay -`,
	RunE: replayCommand,
}

func init() {
	replayFlagSet.register(replayCmd)
	replayCmd.Flags().StringVar(&replayFile, "file", "", "Read the curl command from a file")
}

func replayCommand(cmd *cobra.Command, args []string) error {
	flags := replayFlagSet

	command, err := readCurlCommand(cmd.InOrStdin(), args, replayFile)
	if err != nil {
		return withExitCode(ExitUsageError, err)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	parsed, err := curl.NewParser(curl.WithBaseDir(cwd)).Parse(command)
	if err != nil {
		return withExitCode(ExitParseError, err)
	}

	if parsed.Insecure {
		flags.insecure = true
	}
	// curl only follows redirects with -L.
	if !parsed.FollowRedirects {
		parsed.Options.Redirect = fetcher.RedirectManual
	}

	s, err := newSession(cmd, &flags)
	if err != nil {
		return err
	}
	base, path, opts, err := s.prepare(parsed.URL, parsed.Options)
	if err != nil {
		return err
	}

	ctx, stop := signalContext(cmd)
	defer stop()

	return s.send(ctx, base, path, opts)
}

func readCurlCommand(stdin io.Reader, args []string, file string) (string, error) {
	switch {
	case file != "" && len(args) > 0:
		return "", fmt.Errorf("pass the curl command as arguments or --file, not both")
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", err
		}
		return string(data), nil
	case len(args) == 1 && args[0] == "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", err
		}
		return string(data), nil
	case len(args) == 0:
		return "", fmt.Errorf("no curl command given")
	}
	if len(args) == 1 {
		return args[0], nil
	}

	// Arguments already split by the shell are quoted again so the parser
	// sees the same words.
	words := make([]string, len(args))
	for i, arg := range args {
		if strings.ContainsAny(arg, " \t\n'\"\\$") {
			arg = "'" + strings.ReplaceAll(arg, "'", `'\''`) + "'"
		}
		words[i] = arg
	}
	return strings.Join(words, " "), nil
}

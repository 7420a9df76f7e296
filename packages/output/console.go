package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
)

// formatValue formats a value for display, truncating or summarizing large values
func formatValue(v any, maxLen int) string {
	switch val := v.(type) {
	case []any:
		return fmt.Sprintf("[array with %d items]", len(val))
	case map[string]any:
		return fmt.Sprintf("{object with %d keys}", len(val))
	}
	str := fmt.Sprintf("%v", v)
	if len(str) > maxLen {
		return str[:maxLen] + "..."
	}
	return str
}

// formatBody renders a decoded body: text verbatim, anything else as
// indented JSON.
func formatBody(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

type ConsoleFormatter struct {
	writer  io.Writer
	verbose bool
	noColor bool
	quiet   bool
}

type ConsoleOption func(*ConsoleFormatter)

func NewConsoleFormatter(opts ...ConsoleOption) *ConsoleFormatter {
	f := &ConsoleFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.noColor {
		color.NoColor = true
	}
	return f
}

func WithWriter(w io.Writer) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.writer = w
	}
}

func WithVerbose(v bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.verbose = v
	}
}

func WithNoColor(nc bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.noColor = nc
	}
}

// WithQuiet prints only the body, without the status line.
func WithQuiet(q bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.quiet = q
	}
}

func (f *ConsoleFormatter) FormatResult(result *Result) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()

	if f.quiet {
		if body := formatBody(result.Data); body != "" {
			fmt.Fprintln(f.writer, body)
		}
		if result.Err != nil {
			if _, ok := result.APIError(); !ok {
				f.FormatError(result.Err)
			}
		}
		return
	}

	symbol := green("✓")
	if !result.Passed() {
		symbol = red("✗")
	}

	fmt.Fprintf(f.writer, "%s %s %s", symbol, bold(result.Method), result.URL)
	if resp := result.Response; resp != nil {
		fmt.Fprintf(f.writer, " %s", cyan(fmt.Sprintf("(%s, %dms)", strings.TrimSpace(resp.Status), resp.DurationMs())))
	}
	fmt.Fprintf(f.writer, "\n")

	if f.verbose && result.Response != nil {
		names := make([]string, 0, len(result.Response.Headers))
		for name := range result.Response.Headers {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(f.writer, "  %s %s\n", yellow(name+":"), strings.Join(result.Response.Headers[name], ", "))
		}
	}

	if result.Err != nil {
		if apiErr, ok := result.APIError(); ok {
			fmt.Fprintf(f.writer, "  %s %s\n", red(fmt.Sprintf("→ %d", apiErr.Status)), apiErr.Message)
			if !f.verbose && apiErr.Data != nil && apiErr.Data != "" {
				fmt.Fprintf(f.writer, "    Data: %s\n", formatValue(apiErr.Data, 100))
			}
		} else {
			fmt.Fprintf(f.writer, "  %s\n", red(result.Err.Error()))
		}
	}

	for _, msg := range result.SchemaErrors {
		fmt.Fprintf(f.writer, "  %s %s\n", red("→"), msg)
	}

	for _, a := range result.Assertions {
		if a.Passed {
			if f.verbose {
				fmt.Fprintf(f.writer, "  %s %s\n", green("✓"), a.Assertion)
			}
			continue
		}
		fmt.Fprintf(f.writer, "  %s %s\n", red("✗"), a.Assertion)
		fmt.Fprintf(f.writer, "    %s\n", a.Message)
	}

	data := result.Data
	if apiErr, ok := result.APIError(); ok && f.verbose {
		data = apiErr.Data
	}
	if body := formatBody(data); body != "" {
		fmt.Fprintf(f.writer, "\n%s\n", body)
	}
}

func (f *ConsoleFormatter) FormatError(err error) {
	red := color.New(color.FgRed).SprintFunc()
	fmt.Fprintf(f.writer, "%s %v\n", red("Error:"), err)
}

func (f *ConsoleFormatter) FormatHeader(version string) {
	if f.quiet || !f.verbose {
		return
	}
	bold := color.New(color.Bold).SprintFunc()
	fmt.Fprintf(f.writer, "%s %s\n", bold("fetchkit"), version)
}

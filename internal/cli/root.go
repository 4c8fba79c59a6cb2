// Package cli implements the restbound command line interface.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"restbound/client"
	"restbound/header"
	"restbound/transport"
	"restbound/transport/nethttp"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

var (
	headerFlags   []string
	queryFlags    []string
	timeoutFlag   time.Duration
	insecureFlag  bool
	http2Flag     bool
	maxBodyFlag   int64
	bearerFlag    string
	requestIDFlag bool
	verboseFlag   bool
)

var rootCmd = &cobra.Command{
	Use:   "restbound",
	Short: "Origin-bound HTTP client",
	Long: `restbound sends single HTTP requests and prints the classified
outcome: status line, headers, and the parsed body.

Get started:
  restbound get https://api.example.com/users
  restbound post https://api.example.com/users --json '{"name":"box"}'
  restbound run request.yaml`,
	Version: fmt.Sprintf("%s (built %s)", version, buildTime),
}

// Execute runs the root command, canceling in-flight requests on SIGINT or
// SIGTERM.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	flags := rootCmd.PersistentFlags()
	flags.StringArrayVarP(&headerFlags, "header", "H", nil, `request header ("Name: value", repeatable)`)
	flags.StringArrayVarP(&queryFlags, "query", "q", nil, `query parameter ("key=value", repeatable)`)
	flags.DurationVar(&timeoutFlag, "timeout", 30*time.Second, "transport timeout for the whole exchange")
	flags.BoolVar(&insecureFlag, "insecure", false, "skip TLS certificate verification")
	flags.BoolVar(&http2Flag, "http2", false, "use the HTTP/2 transport")
	flags.Int64Var(&maxBodyFlag, "max-body-bytes", 0, "cap on response body size (0 = unlimited)")
	flags.StringVar(&bearerFlag, "bearer", "", "send a bearer token on every request")
	flags.BoolVar(&requestIDFlag, "request-id", false, "stamp an X-Request-Id header")
	flags.BoolVarP(&verboseFlag, "verbose", "v", false, "debug logging to stderr")
}

// SetVersion sets the build metadata stamped via ldflags.
func SetVersion(v, bt string) {
	version = v
	buildTime = bt
	rootCmd.Version = fmt.Sprintf("%s (built %s)", version, buildTime)
}

func flagTransportOptions() transport.Options {
	return transport.Options{
		Timeout:          timeoutFlag,
		TLSInsecure:      insecureFlag,
		MaxResponseBytes: maxBodyFlag,
	}
}

func buildClient(rawOrigin string, topts transport.Options, useHTTP2 bool) (*client.Client, error) {
	opts := client.Options{TransportOptions: topts}
	if useHTTP2 {
		opts.Transport = nethttp.NewHTTP2(topts)
	}

	var decorate []client.HeaderDecorator
	if bearerFlag != "" {
		decorate = append(decorate, client.BearerAuth(bearerFlag))
	}
	if requestIDFlag {
		decorate = append(decorate, client.RequestID())
	}
	opts.Decorate = decorate

	if verboseFlag {
		opts.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	}

	return client.New(rawOrigin, opts)
}

// splitTarget separates a URL argument into its origin part and any query
// it carried, so "https://h/p?a=1" becomes ("https://h/p", {a: 1}).
func splitTarget(raw string) (string, url.Values, error) {
	rawOrigin, rawQuery, _ := strings.Cut(raw, "?")

	query, err := url.ParseQuery(rawQuery)
	if err != nil {
		return "", nil, errors.Wrap(err, "parsing query")
	}

	return rawOrigin, query, nil
}

func parseHeaderFlags(flags []string) (header.Headers, error) {
	headers := header.New(nil)
	for _, flag := range flags {
		name, value, found := strings.Cut(flag, ":")
		if !found || strings.TrimSpace(name) == "" {
			return header.Headers{}, errors.Errorf("malformed header %q, want \"Name: value\"", flag)
		}
		headers.Add(strings.TrimSpace(name), strings.TrimSpace(value))
	}
	return headers, nil
}

func parsePairs(flags []string, into url.Values) error {
	for _, flag := range flags {
		key, value, found := strings.Cut(flag, "=")
		if !found || key == "" {
			return errors.Errorf("malformed pair %q, want \"key=value\"", flag)
		}
		into.Add(key, value)
	}
	return nil
}

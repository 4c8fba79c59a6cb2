package cli

import (
	"net/url"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"restbound/client"
	"restbound/media"
)

var runCmd = &cobra.Command{
	Use:   "run <file.yaml>",
	Short: "Send the request described by a YAML file",
	Long: `Send a request described declaratively. The file names the origin and
request; command line flags still contribute headers, query parameters,
and transport settings the file leaves unset.

Example file:

  origin: https://api.example.com/v2
  method: POST
  path: /users
  headers:
    Accept: application/json
  json:
    name: box
  transport:
    timeout: 5s`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

type requestFile struct {
	Origin  string            `yaml:"origin"`
	Method  string            `yaml:"method"`
	Path    string            `yaml:"path"`
	Headers map[string]string `yaml:"headers"`
	Query   map[string]string `yaml:"query"`

	// At most one body may be given.
	JSON any               `yaml:"json"`
	Form map[string]string `yaml:"form"`
	Text *string           `yaml:"text"`

	Transport transportFile `yaml:"transport"`
}

type transportFile struct {
	Timeout            string `yaml:"timeout"`
	Insecure           bool   `yaml:"insecure"`
	HTTP2              bool   `yaml:"http2"`
	DisableCompression bool   `yaml:"disable_compression"`
	MaxResponseBytes   int64  `yaml:"max_response_bytes"`
}

func loadRequestFile(path string) (*requestFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading request file")
	}

	file := new(requestFile)
	if err := yaml.Unmarshal(data, file); err != nil {
		return nil, errors.Wrap(err, "parsing request file")
	}

	if err := validateRequestFile(file); err != nil {
		return nil, errors.Wrap(err, "invalid request file")
	}

	return file, nil
}

func validateRequestFile(file *requestFile) error {
	if file.Origin == "" {
		return errors.New("origin is required")
	}
	if file.Method == "" {
		file.Method = client.MethodGet
	}

	bodies := 0
	if file.JSON != nil {
		bodies++
	}
	if len(file.Form) > 0 {
		bodies++
	}
	if file.Text != nil {
		bodies++
	}
	if bodies > 1 {
		return errors.New("json, form and text bodies are mutually exclusive")
	}

	if file.Transport.Timeout != "" {
		if _, err := time.ParseDuration(file.Transport.Timeout); err != nil {
			return errors.Wrap(err, "transport.timeout")
		}
	}
	if file.Transport.MaxResponseBytes < 0 {
		return errors.New("transport.max_response_bytes must not be negative")
	}

	return nil
}

// body resolves the file's body variant and the content type to declare
// for it, if any.
func (f *requestFile) body() (client.Body, string) {
	switch {
	case f.JSON != nil:
		return client.Object{Value: f.JSON}, media.TypeJSON
	case len(f.Form) > 0:
		return client.Object{Value: f.Form}, media.TypeForm
	case f.Text != nil:
		return client.Text(*f.Text), ""
	}
	return nil, ""
}

func runRun(cmd *cobra.Command, args []string) error {
	file, err := loadRequestFile(args[0])
	if err != nil {
		return err
	}

	// The file's transport section overrides flag defaults where set.
	topts := flagTransportOptions()
	useHTTP2 := http2Flag

	t := file.Transport
	if t.Timeout != "" {
		// Validated during load.
		d, _ := time.ParseDuration(t.Timeout)
		topts.Timeout = d
	}
	if t.Insecure {
		topts.TLSInsecure = true
	}
	if t.DisableCompression {
		topts.DisableCompression = true
	}
	if t.MaxResponseBytes > 0 {
		topts.MaxResponseBytes = t.MaxResponseBytes
	}
	if t.HTTP2 {
		useHTTP2 = true
	}

	headers, err := parseHeaderFlags(headerFlags)
	if err != nil {
		return err
	}
	for name, value := range file.Headers {
		headers.Set(name, value)
	}

	query := url.Values{}
	for key, value := range file.Query {
		query.Set(key, value)
	}
	if err := parsePairs(queryFlags, query); err != nil {
		return err
	}

	body, contentType := file.body()
	if contentType != "" {
		if _, ok := headers.Get("Content-Type"); !ok {
			headers.Set("Content-Type", contentType)
		}
	}

	cl, err := buildClient(file.Origin, topts, useHTTP2)
	if err != nil {
		return err
	}
	defer cl.Close()

	outcome, err := cl.Do(cmd.Context(), client.Request{
		Method:  file.Method,
		Path:    client.AppendQuery(file.Path, query),
		Headers: headers,
		Body:    body,
	})
	if err != nil {
		return err
	}

	return printOutcome(cmd.OutOrStdout(), outcome)
}

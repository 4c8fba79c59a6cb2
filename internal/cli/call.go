package cli

import (
	"encoding/json"
	"net/url"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"restbound/client"
	"restbound/media"
)

var (
	dataFlag  string
	jsonFlag  string
	formFlags []string
)

type callSpec struct {
	method  string
	short   string
	hasBody bool
}

func init() {
	specs := []callSpec{
		{method: client.MethodGet, short: "Send a GET request", hasBody: false},
		{method: client.MethodHead, short: "Send a HEAD request", hasBody: false},
		{method: client.MethodPost, short: "Send a POST request", hasBody: true},
		{method: client.MethodPut, short: "Send a PUT request", hasBody: true},
		{method: client.MethodPatch, short: "Send a PATCH request", hasBody: true},
		{method: client.MethodDelete, short: "Send a DELETE request", hasBody: false},
	}

	for _, spec := range specs {
		rootCmd.AddCommand(newCallCommand(spec))
	}
}

func newCallCommand(spec callSpec) *cobra.Command {
	cmd := &cobra.Command{
		Use:   strings.ToLower(spec.method) + " <url>",
		Short: spec.short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCall(cmd, spec, args[0])
		},
	}

	if spec.hasBody {
		flags := cmd.Flags()
		flags.StringVarP(&dataFlag, "data", "d", "", "plain text request body")
		flags.StringVar(&jsonFlag, "json", "", "inline JSON request body")
		flags.StringArrayVar(&formFlags, "form", nil, `form field ("key=value", repeatable)`)
	}

	return cmd
}

func runCall(cmd *cobra.Command, spec callSpec, rawURL string) error {
	rawOrigin, query, err := splitTarget(rawURL)
	if err != nil {
		return err
	}

	if err := parsePairs(queryFlags, query); err != nil {
		return err
	}

	headers, err := parseHeaderFlags(headerFlags)
	if err != nil {
		return err
	}

	var body client.Body
	if spec.hasBody {
		var contentType string
		if body, contentType, err = buildBody(); err != nil {
			return err
		}
		if contentType != "" {
			if _, ok := headers.Get("Content-Type"); !ok {
				headers.Set("Content-Type", contentType)
			}
		}
	}

	cl, err := buildClient(rawOrigin, flagTransportOptions(), http2Flag)
	if err != nil {
		return err
	}
	defer cl.Close()

	outcome, err := cl.Do(cmd.Context(), client.Request{
		Method:  spec.method,
		Path:    client.AppendQuery("", query),
		Headers: headers,
		Body:    body,
	})
	if err != nil {
		return err
	}

	return printOutcome(cmd.OutOrStdout(), outcome)
}

// buildBody resolves the body flags; the returned content type, when not
// empty, should be declared unless the caller already did.
func buildBody() (client.Body, string, error) {
	set := 0
	for _, given := range []bool{dataFlag != "", jsonFlag != "", len(formFlags) > 0} {
		if given {
			set++
		}
	}
	if set == 0 {
		return nil, "", nil
	}
	if set > 1 {
		return nil, "", errors.New("--data, --json and --form are mutually exclusive")
	}

	switch {
	case dataFlag != "":
		return client.Text(dataFlag), "", nil
	case jsonFlag != "":
		var value any
		if err := json.Unmarshal([]byte(jsonFlag), &value); err != nil {
			return nil, "", errors.Wrap(err, "parsing --json value")
		}
		return client.Object{Value: value}, media.TypeJSON, nil
	}

	form := url.Values{}
	if err := parsePairs(formFlags, form); err != nil {
		return nil, "", err
	}
	return client.Object{Value: form}, media.TypeForm, nil
}

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"

	"restbound/client"
)

func printOutcome(w io.Writer, outcome *client.Outcome) error {
	statusLine := strings.TrimSpace(fmt.Sprintf("%d %s",
		outcome.Status.Code, outcome.Status.ReasonPhrase))
	fmt.Fprintf(w, "%s (%s, %s)\n",
		statusLine, outcome.Category, outcome.Duration.Round(time.Millisecond))

	fields := outcome.Headers.Fields()
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		for _, value := range fields[name] {
			fmt.Fprintf(w, "%s: %s\n", name, value)
		}
	}

	if !outcome.HasBody() {
		return nil
	}
	fmt.Fprintln(w)

	switch outcome.BodyKind() {
	case client.BodyJSON:
		decoded, _ := outcome.JSON()
		pretty, err := json.MarshalIndent(decoded, "", "  ")
		if err != nil {
			return errors.Wrap(err, "rendering JSON body")
		}
		fmt.Fprintln(w, string(pretty))
	case client.BodyText:
		text, _ := outcome.Text()
		fmt.Fprintln(w, text)
	default:
		raw, _ := outcome.Bytes()
		if _, err := w.Write(raw); err != nil {
			return errors.Wrap(err, "writing body")
		}
	}

	return nil
}

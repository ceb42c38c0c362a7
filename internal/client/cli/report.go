package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/gatekeeper/internal/client/client"
	"github.com/dmitrijs2005/gatekeeper/internal/shared/schema"
)

// report prints err for a human. Field issues, whether found locally or
// returned by the server, are listed one line per field.
func report(w io.Writer, err error) {
	var ve *schema.ValidationError
	if errors.As(err, &ve) {
		fmt.Fprintln(w, "Please fix the following:")
		printIssues(w, ve)
		return
	}

	if apiErr, ok := client.AsAPIError(err); ok {
		fmt.Fprintf(w, "Error: %s (%s)\n", apiErr.Message, apiErr.Code)
		var issues []schema.Issue
		if len(apiErr.Details) > 0 && json.Unmarshal(apiErr.Details, &issues) == nil {
			printIssues(w, &schema.ValidationError{Issues: issues})
		}
		return
	}

	fmt.Fprintf(w, "Error: %v\n", err)
}

// printIssues lists each field once, in the order it was first reported.
func printIssues(w io.Writer, ve *schema.ValidationError) {
	byField := ve.FieldErrors()
	for _, is := range ve.Issues {
		msgs, ok := byField[is.Path]
		if is.Path == "" || !ok {
			continue
		}
		delete(byField, is.Path)
		fmt.Fprintf(w, "  %s: %s\n", is.Path, strings.Join(msgs, "; "))
	}
}

// Package output provides formatters for CLI output.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"followup/internal/followup"
	"followup/internal/service"
)

// none is printed for absent optional fields.
const none = "-"

// FormatItem formats one item line.
// Format: "{ID}  project={P} parent={P|-} section={S|-} labels={L,..|-}\n"
func FormatItem(w io.Writer, item service.Item) {
	fmt.Fprintf(w, "%s  project=%s parent=%s section=%s labels=%s\n",
		item.ID, item.ProjectID, optional(item.ParentID), optional(item.SectionID), labels(item.Labels))
}

// FormatItemWithAncestors formats an item lookup: ancestors first, then the item,
// each indented under a header.
func FormatItemWithAncestors(w io.Writer, res *service.ItemWithAncestors) {
	fmt.Fprintln(w, "ancestors:")
	if len(res.Ancestors) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for _, a := range res.Ancestors {
		fmt.Fprint(w, "  ")
		FormatItem(w, a)
	}
	fmt.Fprintln(w, "item:")
	fmt.Fprint(w, "  ")
	FormatItem(w, res.Item)
}

// FormatCommand formats a command as its type followed by its wire arguments.
// The uuid is omitted.
func FormatCommand(w io.Writer, cmd service.Command) error {
	args, err := json.Marshal(cmd.Args)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%-16s %s\n", cmd.Type, args)
	return nil
}

// FormatResult formats a processing outcome, with its reason when present.
func FormatResult(w io.Writer, res followup.Result) {
	if res.Reason == "" {
		fmt.Fprintln(w, res.Outcome)
		return
	}
	fmt.Fprintf(w, "%s (%s)\n", res.Outcome, res.Reason)
}

func optional(s *string) string {
	if s == nil || *s == "" {
		return none
	}
	return *s
}

func labels(l []string) string {
	if len(l) == 0 {
		return none
	}
	return strings.Join(l, ",")
}

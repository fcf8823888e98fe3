package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"followup/internal/config"
	"followup/internal/exitcode"
	"followup/internal/output"
	"followup/internal/service"
)

func init() {
	Register(&ItemCmd{})
}

// ItemCmd implements the item command.
type ItemCmd struct{}

func (c *ItemCmd) Name() string      { return "item" }
func (c *ItemCmd) Aliases() []string { return []string{"show"} }
func (c *ItemCmd) Synopsis() string  { return "Show an item and its ancestors" }
func (c *ItemCmd) Usage() string     { return "followup item <item-id>" }
func (c *ItemCmd) NeedsAPI() bool    { return true }

func (c *ItemCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ItemCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if len(args) != 1 || args[0] == "" {
		fmt.Fprintln(errOut, "error: item id required")
		return exitcode.UserError
	}

	res, err := svc.GetItem(ctx, args[0])
	if err != nil {
		return reportBackendError(errOut, err)
	}
	if res == nil {
		fmt.Fprintf(errOut, "error: item not found: %s\n", args[0])
		return exitcode.UserError
	}

	output.FormatItemWithAncestors(out, res)
	return exitcode.Success
}

package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"followup/internal/config"
	"followup/internal/exitcode"
	"followup/internal/service"
)

func init() {
	Register(&HelpCmd{})
}

// HelpCmd implements the help command.
type HelpCmd struct{}

func (c *HelpCmd) Name() string      { return "help" }
func (c *HelpCmd) Aliases() []string { return nil }
func (c *HelpCmd) Synopsis() string  { return "Print usage" }
func (c *HelpCmd) Usage() string     { return "followup help" }
func (c *HelpCmd) NeedsAPI() bool    { return false }

func (c *HelpCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	fmt.Fprintln(out, "Usage:")
	fmt.Fprintf(out, "  %-48s %s\n", "followup", "Run the webhook server (same as serve)")
	for _, cmd := range DefaultRegistry.All() {
		fmt.Fprintf(out, "  %-48s %s\n", cmd.Usage(), cmd.Synopsis())
	}
	fmt.Fprint(out, helpFooter)
	return exitcode.Success
}

const helpFooter = `
Common flags:
  --config <dir>   Override config directory
  --quiet          Suppress informational output
  --debug          Debug logging

Environment:
  FOLLOWUP_API_TOKEN, FOLLOWUP_BASE_URL, FOLLOWUP_LISTEN_ADDR,
  FOLLOWUP_WEBHOOK_PATH, FOLLOWUP_API_TIMEOUT, FOLLOWUP_LABEL,
  FOLLOWUP_LOG_LEVEL, FOLLOWUP_LOG_FILE
`

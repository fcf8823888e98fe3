package commands

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"followup/internal/config"
	"followup/internal/exitcode"
	"followup/internal/service"
)

func init() {
	Register(&LoginCmd{})
}

// LoginCmd implements the login command.
type LoginCmd struct {
	in io.Reader
}

// SetInput replaces stdin (for testing).
func (c *LoginCmd) SetInput(r io.Reader) {
	c.in = r
}

func (c *LoginCmd) Name() string      { return "login" }
func (c *LoginCmd) Aliases() []string { return nil }
func (c *LoginCmd) Synopsis() string  { return "Store the API token" }
func (c *LoginCmd) Usage() string     { return "followup login [<token>]" }
func (c *LoginCmd) NeedsAPI() bool    { return false }

func (c *LoginCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *LoginCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if len(args) > 1 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[1])
		return exitcode.UserError
	}

	var token string
	if len(args) == 1 {
		token = args[0]
	} else {
		r := c.in
		if r == nil {
			r = os.Stdin
		}
		if !cfg.Quiet {
			fmt.Fprintln(errOut, "Paste your API token (Settings > Integrations > Developer):")
		}
		line, err := bufio.NewReader(r).ReadString('\n')
		if err != nil && err != io.EOF {
			fmt.Fprintf(errOut, "error: failed to read token: %v\n", err)
			return exitcode.UserError
		}
		token = line
	}

	token = strings.TrimSpace(token)
	if token == "" {
		fmt.Fprintln(errOut, "error: token required")
		return exitcode.UserError
	}

	if err := cfg.SaveToken(token); err != nil {
		fmt.Fprintf(errOut, "error: failed to save token: %v\n", err)
		return exitcode.ConfigError
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}

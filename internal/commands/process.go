package commands

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"followup/internal/config"
	"followup/internal/exitcode"
	"followup/internal/followup"
	"followup/internal/output"
	"followup/internal/service"
)

func init() {
	Register(&ProcessCmd{})
}

// ProcessCmd implements the process command: run one webhook payload
// through the processor without the HTTP server.
type ProcessCmd struct {
	dryRun bool
	in     io.Reader
}

// SetDryRun sets the dry-run flag (for testing).
func (c *ProcessCmd) SetDryRun(v bool) {
	c.dryRun = v
}

// SetInput replaces stdin (for testing).
func (c *ProcessCmd) SetInput(r io.Reader) {
	c.in = r
}

func (c *ProcessCmd) Name() string      { return "process" }
func (c *ProcessCmd) Aliases() []string { return nil }
func (c *ProcessCmd) Synopsis() string  { return "Process one event from a file or stdin" }
func (c *ProcessCmd) Usage() string     { return "followup process [--dry-run] [<event.json>|-]" }
func (c *ProcessCmd) NeedsAPI() bool    { return true }

func (c *ProcessCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.dryRun, "dry-run", false, "")
	fs.BoolVar(&c.dryRun, "n", false, "")
}

func (c *ProcessCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if len(args) > 1 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[1])
		return exitcode.UserError
	}

	ev, err := c.readEvent(args)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	processor := followup.New(svc, followup.WithLabel(cfg.Label))

	var res followup.Result
	if c.dryRun {
		res, err = processor.Prepare(ctx, ev)
	} else {
		res, err = processor.Handle(ctx, ev)
	}
	if err != nil {
		return reportBackendError(errOut, err)
	}

	// Dry runs always show the batch; that is their output.
	if cfg.Quiet && !c.dryRun {
		return exitcode.Success
	}
	if !cfg.Quiet {
		output.FormatResult(out, res)
	}
	for _, cmd := range res.Commands {
		if err := output.FormatCommand(out, cmd); err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.BackendError
		}
	}
	return exitcode.Success
}

func (c *ProcessCmd) readEvent(args []string) (service.Event, error) {
	var r io.Reader = os.Stdin
	if c.in != nil {
		r = c.in
	}
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return service.Event{}, fmt.Errorf("cannot read event: %w", err)
		}
		defer f.Close()
		r = f
	}

	var ev service.Event
	if err := json.NewDecoder(r).Decode(&ev); err != nil {
		return service.Event{}, fmt.Errorf("invalid event: %w", err)
	}
	return ev, nil
}

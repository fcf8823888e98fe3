package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/gin-gonic/gin"

	"followup/internal/config"
	"followup/internal/exitcode"
	"followup/internal/followup"
	"followup/internal/service"
	"followup/internal/webhook"
)

func init() {
	Register(&ServeCmd{})
}

// ServeCmd implements the serve command.
type ServeCmd struct {
	addr string
}

// SetAddr sets the listen address (for testing).
func (c *ServeCmd) SetAddr(addr string) {
	c.addr = addr
}

func (c *ServeCmd) Name() string      { return "serve" }
func (c *ServeCmd) Aliases() []string { return nil }
func (c *ServeCmd) Synopsis() string  { return "Run the webhook server" }
func (c *ServeCmd) Usage() string     { return "followup serve [--addr <host:port>]" }
func (c *ServeCmd) NeedsAPI() bool    { return true }

func (c *ServeCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.addr, "addr", "", "")
}

func (c *ServeCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}
	if c.addr != "" {
		cfg.ListenAddr = c.addr
	}

	logger, closeLog, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(errOut, "error: invalid log settings: %v\n", err)
		return exitcode.ConfigError
	}
	defer closeLog()

	gin.SetMode(gin.ReleaseMode)

	processor := followup.New(svc,
		followup.WithLabel(cfg.Label),
		followup.WithLogger(logger),
	)
	server := webhook.NewServer(cfg, processor, logger)

	if err := server.Run(ctx); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.ConfigError
	}
	return exitcode.Success
}

// Package commands implements the chatgpt-udf command tree.
package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/hpn/hpn-chatgpt-udf/internal/adapter"
	"github.com/hpn/hpn-chatgpt-udf/internal/config"
	"github.com/hpn/hpn-chatgpt-udf/internal/udf"
)

// Execute runs the root command with the given context and arguments.
func Execute(ctx context.Context, args []string, version string) error {
	return NewRootCommand(version).Run(ctx, args)
}

// NewRootCommand builds the command tree.
func NewRootCommand(version string) *cli.Command {
	return &cli.Command{
		Name:    "chatgpt-udf",
		Usage:   "Batch chat-completion function backed by the OpenAI API",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "path to config.yaml (default: ., ./configs, /etc/chatgpt-udf, $HOME/.chatgpt-udf)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log level (debug|info|warn|error), overrides logging.level",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "log format (json|text), overrides logging.format",
			},
		},
		Commands: []*cli.Command{
			serveCommand(version),
			runCommand(),
			modelsCommand(),
			describeCommand(),
		},
	}
}

// runtime is the state every config-backed command starts from.
type runtime struct {
	cfg      *config.Configuration
	logger   *slog.Logger
	udf      *udf.ChatGPT
	closeLog func() error
}

// bootstrap loads configuration, builds the logger and a UDF configured from
// udf.* settings. defaultLogOut receives logs when logging.output_path is empty.
func bootstrap(cmd *cli.Command, defaultLogOut io.Writer) (*runtime, error) {
	cfg, err := config.GetConfigWithPath(cmd.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	level := cfg.Logging.Level
	if cmd.IsSet("log-level") {
		level = cmd.String("log-level")
	}
	format := cfg.Logging.Format
	if cmd.IsSet("log-format") {
		format = cmd.String("log-format")
	}

	logger, closeLog, err := newLogger(level, format, cfg.Logging.OutputPath, defaultLogOut)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}

	u, err := newUDF(cfg, logger)
	if err != nil {
		_ = closeLog()
		return nil, err
	}

	return &runtime{cfg: cfg, logger: logger, udf: u, closeLog: closeLog}, nil
}

// newUDF wires the credential chain, the OpenAI provider factory and the retry
// policy from cfg, then applies the configured setup.
func newUDF(cfg *config.Configuration, logger *slog.Logger) (*udf.ChatGPT, error) {
	factory := adapter.NewOpenAIFactory(
		adapter.WithBaseURL(cfg.ThirdParty.OpenAIBaseURL),
		adapter.WithTimeout(cfg.RequestTimeout()),
	)

	u := udf.New(cfg.Store().OpenAICredentials(), factory,
		udf.WithLogger(logger),
		udf.WithRetryPolicy(udf.RetryPolicy{
			Attempts: cfg.UDF.Retry.Attempts,
			Delay:    cfg.RetryDelay(),
		}),
	)

	if err := u.Setup(cfg.UDF.Model, cfg.UDF.Temperature); err != nil {
		return nil, fmt.Errorf("udf setup failed: %w", err)
	}

	return u, nil
}

package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/hpn/hpn-chatgpt-udf/internal/batchio"
	"github.com/hpn/hpn-chatgpt-udf/internal/domain"
	"github.com/hpn/hpn-chatgpt-udf/internal/ui"
)

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Forward one CSV batch (header row; query[,content[,prompt]]) and write the response column as CSV",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "input",
				Aliases: []string{"i"},
				Usage:   "input CSV file, - for stdin",
				Value:   "-",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "output CSV file, - for stdout",
				Value:   "-",
			},
			&cli.StringFlag{
				Name:  "model",
				Usage: "chat model, overrides udf.model",
			},
			&cli.FloatFlag{
				Name:  "temperature",
				Usage: "sampling temperature, overrides udf.temperature",
			},
		},
		Action: runAction,
	}
}

func runAction(ctx context.Context, cmd *cli.Command) error {
	// Logs go to stderr so stdout stays a clean CSV stream.
	rt, err := bootstrap(cmd, os.Stderr)
	if err != nil {
		return err
	}
	defer rt.closeLog()

	if cmd.IsSet("model") || cmd.IsSet("temperature") {
		model := string(rt.udf.Model())
		if cmd.IsSet("model") {
			model = cmd.String("model")
		}
		temperature := rt.udf.Temperature()
		if cmd.IsSet("temperature") {
			temperature = cmd.Float("temperature")
		}
		if err := rt.udf.Setup(model, temperature); err != nil {
			return err
		}
	}

	in, closeIn, err := openInput(cmd.String("input"), cmd.Root().Reader)
	if err != nil {
		return err
	}
	defer closeIn()

	batch, err := batchio.ReadCSV(in)
	if err != nil {
		return fmt.Errorf("read batch: %w", err)
	}

	rt.logger.Info("forwarding batch",
		slog.Int("rows", batch.NumRows()),
		slog.Int("columns", len(batch.Columns)),
		slog.String("model", string(rt.udf.Model())),
	)

	out, err := rt.udf.Forward(ctx, batch)
	if err != nil {
		return err
	}

	outputPath := cmd.String("output")
	w, closeOut, err := openOutput(outputPath, cmd.Root().Writer)
	if err != nil {
		return err
	}

	if err := batchio.WriteCSV(w, out); err != nil {
		_ = closeOut()
		return err
	}
	if err := closeOut(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}

	if outputPath != "-" {
		ui.PrintBatchSummary(out.NumRows(), out.FailedRows(), out.Usage.TotalTokens,
			domain.FormatCost(out.Usage.Cost(rt.udf.Model())), domain.FormatCost(rt.udf.TotalSpend()))
	}

	return nil
}

func openInput(path string, stdin io.Reader) (io.Reader, func() error, error) {
	if path == "-" {
		if stdin == nil {
			stdin = os.Stdin
		}
		return stdin, func() error { return nil }, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open input: %w", err)
	}
	return f, f.Close, nil
}

func openOutput(path string, stdout io.Writer) (io.Writer, func() error, error) {
	if path == "-" {
		if stdout == nil {
			stdout = os.Stdout
		}
		return stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create output: %w", err)
	}
	return f, f.Close, nil
}

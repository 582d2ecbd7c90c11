package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/hpn/hpn-chatgpt-udf/internal/domain"
	"github.com/hpn/hpn-chatgpt-udf/internal/udf"
)

func modelsCommand() *cli.Command {
	return &cli.Command{
		Name:  "models",
		Usage: "List the supported chat models",
		Action: func(_ context.Context, cmd *cli.Command) error {
			w := writerOf(cmd)
			for _, m := range domain.SupportedModels() {
				suffix := ""
				if m == domain.DefaultModel {
					suffix = " (default)"
				}
				if _, err := fmt.Fprintf(w, "%s%s\n", m, suffix); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func describeCommand() *cli.Command {
	return &cli.Command{
		Name:  "describe",
		Usage: "Print the UDF descriptor as JSON",
		Action: func(_ context.Context, cmd *cli.Command) error {
			enc := json.NewEncoder(writerOf(cmd))
			enc.SetIndent("", "  ")
			return enc.Encode(udf.New(nil, nil).Descriptor())
		},
	}
}

func writerOf(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}

// Command keymerge finds the key columns two tabular files share and
// merges them on the key pair the user confirms.
//
//	keymerge detect customers.csv orders.xlsx
//	keymerge validate --key-a id --key-b customer_id customers.csv orders.xlsx
//	keymerge merge --key-a id --key-b customer_id --join left --out merged.xlsx customers.csv orders.xlsx
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/JonMunkholm/keymerge/internal/config"
	"github.com/JonMunkholm/keymerge/internal/core"
	"github.com/JonMunkholm/keymerge/internal/logging"
	"github.com/JonMunkholm/keymerge/internal/tabular"
)

var version = "dev"

func main() {
	app := newApp(os.Stdout, os.Stderr)
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		if core.IsUserFacing(err) {
			fmt.Fprintln(os.Stderr, core.FormatUserError(err))
		}
		os.Exit(1)
	}
}

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "keymerge",
		Usage:     "Detect shared key columns between two tables and merge them",
		Version:   version,
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Value:   outputText,
				Usage:   "Report format: text, json or yaml",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "warn",
				Usage:   "Log level: debug, info, warn, error",
				EnvVars: []string{"LOG_LEVEL"},
			},
			&cli.BoolFlag{
				Name:  "no-progress",
				Usage: "Do not draw progress bars while reading files",
			},
		},
		Before: func(c *cli.Context) error {
			slog.SetDefault(logging.New(c.App.ErrWriter, c.String("log-level"), "text"))
			_, err := reportFormat(c)
			return err
		},
		Commands: []*cli.Command{
			{
				Name:      "detect",
				Usage:     "Rank candidate key column pairs",
				ArgsUsage: "FILE_A FILE_B",
				Action:    detectKeys,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "top",
						Value: 10,
						Usage: "Number of candidates to show (0 for all)",
					},
					&cli.BoolFlag{
						Name:  "rejected",
						Usage: "Also list pairs rejected for low overlap or low uniqueness",
					},
				},
			},
			{
				Name:      "validate",
				Usage:     "Report match statistics for a key pair",
				ArgsUsage: "FILE_A FILE_B",
				Action:    validateKeys,
				Flags:     keyFlags(),
			},
			{
				Name:      "merge",
				Usage:     "Merge two files on a confirmed key pair",
				ArgsUsage: "FILE_A FILE_B",
				Action:    mergeFiles,
				Flags: append(keyFlags(),
					&cli.StringFlag{
						Name:     "join",
						Aliases:  []string{"j"},
						Usage:    "Join type: left, right, inner or outer",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "out",
						Value: "merged.xlsx",
						Usage: "Output file; .csv writes CSV, anything else a workbook",
					},
					&cli.StringFlag{
						Name:  "left-suffix",
						Value: core.DefaultLeftSuffix,
						Usage: "Suffix for first-file columns whose names clash",
					},
					&cli.StringFlag{
						Name:  "right-suffix",
						Value: core.DefaultRightSuffix,
						Usage: "Suffix for second-file columns whose names clash",
					},
				),
			},
			{
				Name:      "profile",
				Usage:     "Show per-column statistics of a file",
				ArgsUsage: "FILE",
				Action:    profileFile,
			},
			{
				Name:      "normalize",
				Usage:     "Show the comparison form of cell values",
				ArgsUsage: "VALUE...",
				Action:    normalizeValues,
			},
		},
	}
}

func keyFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "key",
			Usage: "Key column name in both files",
		},
		&cli.StringFlag{
			Name:  "key-a",
			Usage: "Key column in the first file (overrides --key)",
		},
		&cli.StringFlag{
			Name:  "key-b",
			Usage: "Key column in the second file (overrides --key)",
		},
	}
}

// keys resolves --key-a/--key-b, falling back to --key for either side.
func keys(c *cli.Context) (string, string) {
	keyA, keyB := c.String("key-a"), c.String("key-b")
	if keyA == "" {
		keyA = c.String("key")
	}
	if keyB == "" {
		keyB = c.String("key")
	}
	return keyA, keyB
}

// newService builds a service from the environment's scoring settings.
// The CLI runs one merge at a time and keeps no history.
func newService() (*core.Service, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return core.NewService(cfg.Scoring.Core(), nil, nil), nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func detectKeys(c *cli.Context) error {
	a, b, err := loadPair(c)
	if err != nil {
		return err
	}
	svc, err := newService()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	report := svc.Suggest(ctx, a, b)
	if top := c.Int("top"); top > 0 && len(report.Candidates) > top {
		report.Candidates = report.Candidates[:top]
	}
	if !c.Bool("rejected") {
		report.Rejected = nil
	}

	return render(c, detectReport{FileA: a.Name, FileB: b.Name, CandidateReport: report})
}

func validateKeys(c *cli.Context) error {
	a, b, err := loadPair(c)
	if err != nil {
		return err
	}
	svc, err := newService()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	keyA, keyB := keys(c)
	stats, err := svc.Check(ctx, a, b, keyA, keyB)
	if err != nil {
		return err
	}
	return render(c, validateReport(stats))
}

func mergeFiles(c *cli.Context) error {
	join, err := core.ParseJoinType(c.String("join"))
	if err != nil {
		return err
	}
	a, b, err := loadPair(c)
	if err != nil {
		return err
	}
	svc, err := newService()
	if err != nil {
		return err
	}

	keyA, keyB := keys(c)
	cfg := core.NewMergeConfig(join, keyA, keyB)
	cfg.LeftSuffix = c.String("left-suffix")
	cfg.RightSuffix = c.String("right-suffix")

	ctx, cancel := signalContext()
	defer cancel()

	exec, err := svc.Execute(ctx, a, b, cfg)
	if err != nil {
		return err
	}

	written, err := tabular.WriteFile(c.String("out"), exec.Result.Table)
	if err != nil {
		return err
	}

	return render(c, mergeReport{
		Output:  written,
		Merge:   exec.Record,
		Renames: exec.Result.Renames,
	})
}

func profileFile(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("profile needs exactly one FILE")
	}
	t, err := loadTable(c, c.Args().First())
	if err != nil {
		return err
	}
	return render(c, profileReport{
		Table:    core.NewPreview(t, core.DefaultPreviewRows),
		Profiles: core.ProfileAll(t),
	})
}

func normalizeValues(c *cli.Context) error {
	if c.NArg() == 0 {
		return errors.New("normalize needs at least one VALUE")
	}

	rows := make(normalizeReport, 0, c.NArg())
	for _, arg := range c.Args().Slice() {
		v := core.ParseCell(arg)
		row := normalizedValue{Input: arg, Kind: v.Kind().String()}
		if n := core.Normalize(v); !n.IsNull() {
			text := n.String()
			row.Normalized = &text
		}
		rows = append(rows, row)
	}
	return render(c, rows)
}

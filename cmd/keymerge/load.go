package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v2"

	"github.com/JonMunkholm/keymerge/internal/core"
	"github.com/JonMunkholm/keymerge/internal/tabular"
)

// loadPair reads the two positional FILE arguments.
func loadPair(c *cli.Context) (*core.Table, *core.Table, error) {
	if c.NArg() != 2 {
		return nil, nil, fmt.Errorf("%s needs exactly two files: FILE_A FILE_B", c.Command.Name)
	}

	a, err := loadTable(c, c.Args().Get(0))
	if err != nil {
		return nil, nil, err
	}
	b, err := loadTable(c, c.Args().Get(1))
	if err != nil {
		return nil, nil, err
	}
	return a, b, nil
}

// loadTable reads one file, drawing a byte progress bar on the error
// writer unless --no-progress is set.
func loadTable(c *cli.Context, path string) (*core.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var r io.Reader = f
	if !c.Bool("no-progress") {
		if info, err := f.Stat(); err == nil {
			bar := newProgressBar(c.App.ErrWriter, info.Size(), filepath.Base(path))
			defer bar.Close()
			r = io.TeeReader(f, bar)
		}
	}

	start := time.Now()
	t, err := tabular.Read(filepath.Base(path), r, 0)
	if err != nil {
		return nil, err
	}

	slog.Debug("table loaded",
		"file", path,
		"rows", t.Len(),
		"columns", len(t.Columns),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return t, nil
}

func newProgressBar(w io.Writer, size int64, name string) *progressbar.ProgressBar {
	return progressbar.NewOptions64(size,
		progressbar.OptionSetDescription(fmt.Sprintf("Reading %s", name)),
		progressbar.OptionSetWriter(w),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}

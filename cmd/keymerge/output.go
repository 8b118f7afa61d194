package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/keymerge/internal/core"
)

const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

func reportFormat(c *cli.Context) (string, error) {
	switch f := strings.ToLower(c.String("output")); f {
	case outputText, outputJSON, outputYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, json or yaml)", f)
	}
}

// textReport is a command result with a human-readable rendering.
type textReport interface {
	writeText(w io.Writer) error
}

// render writes v to the app's writer in the selected format.
func render(c *cli.Context, v textReport) error {
	format, err := reportFormat(c)
	if err != nil {
		return err
	}

	w := c.App.Writer
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return v.writeText(w)
	}
}

func newTabWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func percent(f float64) string {
	return fmt.Sprintf("%.1f%%", f*100)
}

type detectReport struct {
	FileA string `json:"file_a" yaml:"file_a"`
	FileB string `json:"file_b" yaml:"file_b"`

	core.CandidateReport `yaml:",inline"`
}

func (r detectReport) writeText(w io.Writer) error {
	fmt.Fprintf(w, "Key candidates for %s and %s\n\n", r.FileA, r.FileB)

	if len(r.Candidates) == 0 {
		fmt.Fprintln(w, "No column pair shares enough values to be a key.")
	} else {
		writeCandidates(w, r.Candidates, false)
		if r.Ambiguous {
			fmt.Fprintln(w, "\nThe top candidates score almost the same; check both before merging.")
		}
	}

	if len(r.Rejected) > 0 {
		fmt.Fprintf(w, "\nRejected pairs\n\n")
		writeCandidates(w, r.Rejected, true)
	}
	return nil
}

func writeCandidates(w io.Writer, cands []core.KeyCandidate, withReason bool) {
	tw := newTabWriter(w)
	header := "#\tCOLUMN A\tCOLUMN B\tCONFIDENCE\tOVERLAP\tNAME\tSHARED"
	if withReason {
		header += "\tREASON"
	}
	fmt.Fprintln(tw, header)
	for i, c := range cands {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%.2f\t%d",
			i+1, c.ColumnA, c.ColumnB, percent(c.Confidence), percent(c.Overlap), c.NameScore, c.SharedValues)
		if withReason {
			fmt.Fprintf(tw, "\t%s", c.RejectReason)
		}
		fmt.Fprintln(tw)
	}
	tw.Flush()
}

type validateReport core.MatchStatistics

func (r validateReport) writeText(w io.Writer) error {
	fmt.Fprintf(w, "Key %s = %s\n\n", r.KeyA, r.KeyB)

	tw := newTabWriter(w)
	fmt.Fprintln(tw, "\tA\tB")
	fmt.Fprintf(tw, "Distinct keys\t%d\t%d\n", r.DistinctA, r.DistinctB)
	fmt.Fprintf(tw, "Non-null rows\t%d\t%d\n", r.NonNullA, r.NonNullB)
	fmt.Fprintf(tw, "Uniqueness\t%s\t%s\n", percent(r.UniquenessA), percent(r.UniquenessB))
	fmt.Fprintf(tw, "Keys only here\t%d\t%d\n", r.OnlyA, r.OnlyB)
	fmt.Fprintf(tw, "Match ratio\t%s\t%s\n", percent(r.MatchRatioA), percent(r.MatchRatioB))
	fmt.Fprintf(tw, "Rows matched\t%d\t%d\n", r.RowsMatchedA, r.RowsMatchedB)
	fmt.Fprintf(tw, "Duplicate keys\t%d\t%d\n", r.DuplicateKeysA, r.DuplicateKeysB)
	tw.Flush()

	fmt.Fprintf(w, "\nShared keys: %d (overlap %s)\n", r.Matched, percent(r.OverlapRatio))
	writeWarnings(w, r.Warnings)
	return nil
}

type mergeReport struct {
	Output  string              `json:"output" yaml:"output"`
	Merge   core.MergeRecord    `json:"merge" yaml:"merge"`
	Renames []core.ColumnRename `json:"renames" yaml:"renames"`
}

func (r mergeReport) writeText(w io.Writer) error {
	s := r.Merge.Summary
	fmt.Fprintf(w, "Merged %s and %s (%s join on %s = %s)\n\n", r.Merge.FileA, r.Merge.FileB, s.Join, s.KeyA, s.KeyB)

	tw := newTabWriter(w)
	fmt.Fprintf(tw, "Rows in A\t%d\n", s.RowsInA)
	fmt.Fprintf(tw, "Rows in B\t%d\n", s.RowsInB)
	fmt.Fprintf(tw, "Matched pairs\t%d\n", s.MatchedPairs)
	fmt.Fprintf(tw, "Unmatched in A\t%d\n", s.UnmatchedRowsA)
	fmt.Fprintf(tw, "Unmatched in B\t%d\n", s.UnmatchedRowsB)
	fmt.Fprintf(tw, "Rows out\t%d\n", s.RowsOut)
	tw.Flush()

	if len(r.Renames) > 0 {
		fmt.Fprintln(w, "\nRenamed columns")
		for _, rn := range r.Renames {
			fmt.Fprintf(w, "  %s.%s -> %s\n", rn.Side, rn.Source, rn.Output)
		}
	}

	fmt.Fprintf(w, "\nWrote %s\n", r.Output)
	return nil
}

type profileReport struct {
	Table    core.Preview         `json:"table" yaml:"table"`
	Profiles []core.ColumnProfile `json:"profiles" yaml:"profiles"`
}

func (r profileReport) writeText(w io.Writer) error {
	fmt.Fprintf(w, "%s: %d rows, %d columns\n\n", r.Table.Name, r.Table.Rows, len(r.Table.Columns))

	tw := newTabWriter(w)
	fmt.Fprintln(tw, "COLUMN\tNON-NULL\tNULL\tDISTINCT\tUNIQUENESS\tCARDINALITY\tPATTERN")
	for _, p := range r.Profiles {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%s\t%s\t%s\n",
			p.Column, p.NonNullCount, p.NullCount, p.DistinctCount, percent(p.Uniqueness()), p.Cardinality, p.Pattern)
	}
	return tw.Flush()
}

type normalizedValue struct {
	Input      string  `json:"input" yaml:"input"`
	Kind       string  `json:"kind" yaml:"kind"`
	Normalized *string `json:"normalized" yaml:"normalized"` // nil for null
}

type normalizeReport []normalizedValue

func (r normalizeReport) writeText(w io.Writer) error {
	tw := newTabWriter(w)
	fmt.Fprintln(tw, "INPUT\tKIND\tNORMALIZED")
	for _, v := range r {
		out := "<null>"
		if v.Normalized != nil {
			out = *v.Normalized
		}
		fmt.Fprintf(tw, "%q\t%s\t%s\n", v.Input, v.Kind, out)
	}
	return tw.Flush()
}

func writeWarnings(w io.Writer, warnings []string) {
	if len(warnings) == 0 {
		return
	}
	fmt.Fprintln(w, "\nWarnings")
	for _, msg := range warnings {
		fmt.Fprintf(w, "  - %s\n", msg)
	}
}

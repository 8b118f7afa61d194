package web

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/keymerge/internal/core"
)

const pageStyle = `body{font-family:system-ui,sans-serif;margin:2rem auto;max-width:72rem;color:#1f2933}
table{border-collapse:collapse;margin:1rem 0}th,td{border:1px solid #cbd2d9;padding:.25rem .5rem;text-align:left}
th{background:#f5f7fa}.warn{color:#b44d12}.error{color:#ab091e}.muted{color:#7b8794}
fieldset{margin:1rem 0;border:1px solid #cbd2d9}label{display:block;margin:.5rem 0}`

// html accumulates the first write error so page bodies read top to bottom.
type html struct {
	w   io.Writer
	err error
}

func (h *html) raw(s string) {
	if h.err == nil {
		_, h.err = io.WriteString(h.w, s)
	}
}

func (h *html) text(s string) { h.raw(templ.EscapeString(s)) }

func (h *html) textf(format string, args ...any) { h.text(fmt.Sprintf(format, args...)) }

func (h *html) cell(tag, s string) {
	h.raw("<" + tag + ">")
	h.text(s)
	h.raw("</" + tag + ">")
}

// page wraps body in the shared layout.
func page(title string, body func(h *html)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w}
		h.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><title>`)
		h.text(title)
		h.raw(`</title><style>` + pageStyle + `</style></head><body><header><a href="/">keymerge</a> · <a href="/api/history?format=html">history</a></header><main><h1>`)
		h.text(title)
		h.raw(`</h1>`)
		body(h)
		h.raw(`</main></body></html>`)
		return h.err
	})
}

func indexPage(joins []core.JoinType, maxFileSize int64) templ.Component {
	return page("Merge two files", func(h *html) {
		h.raw(`<p>Upload two files (.csv, .tsv, .txt or .xlsx, at most `)
		h.textf("%d MB", maxFileSize>>20)
		h.raw(` each). Suggest keys first, then confirm the key columns and join type to merge.</p>`)

		h.raw(`<form method="post" enctype="multipart/form-data" action="/api/candidates">`)
		h.raw(`<input type="hidden" name="format" value="html">`)
		filePair(h)
		h.raw(`<button type="submit">Suggest keys</button></form>`)

		h.raw(`<form method="post" enctype="multipart/form-data" action="/api/merge">`)
		filePair(h)
		mergeFields(h, joins, "", "")
		h.raw(`</form>`)
	})
}

func filePair(h *html) {
	h.raw(`<fieldset><legend>Files</legend>`)
	h.raw(`<label>First file <input type="file" name="file_a" required></label>`)
	h.raw(`<label>Second file <input type="file" name="file_b" required></label>`)
	h.raw(`</fieldset>`)
}

// mergeFields renders the confirmation inputs of a merge form.
func mergeFields(h *html, joins []core.JoinType, keyA, keyB string) {
	h.raw(`<fieldset><legend>Merge</legend>`)
	h.raw(`<label>Key in first file <input name="key_a" required value="`)
	h.text(keyA)
	h.raw(`"></label><label>Key in second file <input name="key_b" required value="`)
	h.text(keyB)
	h.raw(`"></label><label>Join <select name="join">`)
	for _, j := range joins {
		h.raw(`<option value="`)
		h.text(string(j))
		h.raw(`">`)
		h.text(string(j))
		h.raw(`</option>`)
	}
	h.raw(`</select></label><label>Output <select name="format">`)
	for _, f := range []string{formatHTML, formatXLSX, formatCSV, formatJSON} {
		h.raw(`<option value="` + f + `">` + f + `</option>`)
	}
	h.raw(`</select></label><button type="submit">Merge</button></fieldset>`)
}

func previewTable(h *html, p core.Preview) {
	h.raw(`<h2>`)
	h.text(p.Name)
	h.raw(`</h2><p class="muted">`)
	h.textf("%d rows, %d columns", p.Rows, len(p.Columns))
	h.raw(`</p><table><tr>`)
	for _, col := range p.Columns {
		h.cell("th", col)
	}
	h.raw(`</tr>`)
	for _, row := range p.Sample {
		h.raw(`<tr>`)
		for _, col := range p.Columns {
			if v := row[col]; v != nil {
				h.cell("td", fmt.Sprint(v))
			} else {
				h.raw(`<td class="muted">null</td>`)
			}
		}
		h.raw(`</tr>`)
	}
	h.raw(`</table>`)
}

func profilePage(resp ProfileResponse) templ.Component {
	return page("Column profile", func(h *html) {
		h.raw(`<table><tr><th>Column</th><th>Non-null</th><th>Null</th><th>Distinct</th><th>Cardinality</th><th>Pattern</th></tr>`)
		for _, p := range resp.Profiles {
			h.raw(`<tr>`)
			h.cell("td", p.Column)
			h.cell("td", fmt.Sprint(p.NonNullCount))
			h.cell("td", fmt.Sprint(p.NullCount))
			h.cell("td", fmt.Sprint(p.DistinctCount))
			h.cell("td", string(p.Cardinality))
			h.cell("td", string(p.Pattern))
			h.raw(`</tr>`)
		}
		h.raw(`</table>`)
		previewTable(h, resp.Table)
	})
}

func candidatesPage(resp CandidatesResponse, joins []core.JoinType) templ.Component {
	return page("Key candidates", func(h *html) {
		report := resp.Report
		best, ok := report.Best()
		switch {
		case !ok:
			h.raw(`<p class="warn">No column pair shares enough values to be a key. Pick the keys yourself below.</p>`)
		case report.Ambiguous:
			h.raw(`<p class="warn">The top candidates are nearly tied. Compare them before choosing.</p>`)
		}

		if len(report.Candidates) > 0 {
			candidateTable(h, report.Candidates)
		}
		if len(report.Rejected) > 0 {
			h.raw(`<details><summary>`)
			h.textf("%d rejected pairs", len(report.Rejected))
			h.raw(`</summary>`)
			candidateTable(h, report.Rejected)
			h.raw(`</details>`)
		}

		h.raw(`<p>Nothing is merged until you confirm. Re-select both files and check the keys:</p>`)
		h.raw(`<form method="post" enctype="multipart/form-data" action="/api/merge">`)
		filePair(h)
		mergeFields(h, joins, best.ColumnA, best.ColumnB)
		h.raw(`</form>`)

		previewTable(h, resp.TableA)
		previewTable(h, resp.TableB)
	})
}

func candidateTable(h *html, cands []core.KeyCandidate) {
	h.raw(`<table><tr><th>First file</th><th>Second file</th><th>Confidence</th><th>Overlap</th><th>Name</th><th>Shared values</th></tr>`)
	for _, c := range cands {
		h.raw(`<tr>`)
		h.cell("td", c.ColumnA)
		h.cell("td", c.ColumnB)
		h.cell("td", fmt.Sprintf("%.3f", c.Confidence))
		h.cell("td", fmt.Sprintf("%.3f", c.Overlap))
		h.cell("td", fmt.Sprintf("%.2f", c.NameScore))
		h.cell("td", fmt.Sprint(c.SharedValues))
		h.raw(`</tr>`)
	}
	h.raw(`</table>`)
}

func validationPage(stats core.MatchStatistics) templ.Component {
	return page("Key validation", func(h *html) {
		warnings(h, stats.Warnings)
		h.raw(`<table>`)
		row := func(label, a, b string) {
			h.raw(`<tr>`)
			h.cell("th", label)
			h.cell("td", a)
			h.cell("td", b)
			h.raw(`</tr>`)
		}
		row("Key", stats.KeyA, stats.KeyB)
		row("Distinct values", fmt.Sprint(stats.DistinctA), fmt.Sprint(stats.DistinctB))
		row("Only in this file", fmt.Sprint(stats.OnlyA), fmt.Sprint(stats.OnlyB))
		row("Uniqueness", fmt.Sprintf("%.1f%%", stats.UniquenessA*100), fmt.Sprintf("%.1f%%", stats.UniquenessB*100))
		row("Match ratio", fmt.Sprintf("%.1f%%", stats.MatchRatioA*100), fmt.Sprintf("%.1f%%", stats.MatchRatioB*100))
		row("Duplicate keys", fmt.Sprint(stats.DuplicateKeysA), fmt.Sprint(stats.DuplicateKeysB))
		h.raw(`</table><p>`)
		h.textf("%d values in common, overlap %.1f%%", stats.Matched, stats.OverlapRatio*100)
		h.raw(`</p>`)
	})
}

func mergeReportPage(exec *core.Execution, result core.Preview) templ.Component {
	return page("Merge complete", func(h *html) {
		sum := exec.Record.Summary
		h.raw(`<p>`)
		h.textf("%s join of %s (%s) and %s (%s): %d rows in, %d and %d; %d rows out.",
			sum.Join, exec.Record.FileA, sum.KeyA, exec.Record.FileB, sum.KeyB,
			sum.RowsInA, sum.RowsInB, sum.RowsOut)
		h.raw(`</p><p class="muted">`)
		h.textf("Merge %s · %d matched pairs · %d unmatched in first file · %d unmatched in second file",
			exec.Record.ID, sum.MatchedPairs, sum.UnmatchedRowsA, sum.UnmatchedRowsB)
		h.raw(`</p>`)

		if renames := exec.Result.Renames; len(renames) > 0 {
			h.raw(`<h2>Renamed columns</h2><ul>`)
			for _, rn := range renames {
				h.raw(`<li>`)
				h.textf("%s (file %s) → %s", rn.Source, rn.Side, rn.Output)
				h.raw(`</li>`)
			}
			h.raw(`</ul>`)
		}
		previewTable(h, result)
	})
}

func historyPage(records []core.MergeRecord) templ.Component {
	return page("Merge history", func(h *html) {
		if len(records) == 0 {
			h.raw(`<p class="muted">No merges yet.</p>`)
			return
		}
		h.raw(`<table><tr><th>When</th><th>First file</th><th>Second file</th><th>Keys</th><th>Join</th><th>Rows out</th><th>Confidence</th></tr>`)
		for _, rec := range records {
			h.raw(`<tr>`)
			h.cell("td", rec.CreatedAt.Format("2006-01-02 15:04:05"))
			h.cell("td", rec.FileA)
			h.cell("td", rec.FileB)
			h.cell("td", rec.Summary.KeyA+" = "+rec.Summary.KeyB)
			h.cell("td", string(rec.Summary.Join))
			h.cell("td", fmt.Sprint(rec.Summary.RowsOut))
			if rec.Confidence != nil {
				h.cell("td", fmt.Sprintf("%.3f", *rec.Confidence))
			} else {
				h.cell("td", "")
			}
			h.raw(`</tr>`)
		}
		h.raw(`</table>`)
	})
}

func warnings(h *html, msgs []string) {
	if len(msgs) == 0 {
		return
	}
	h.raw(`<ul class="warn">`)
	for _, m := range msgs {
		h.cell("li", m)
	}
	h.raw(`</ul>`)
}

func errorPage(msg core.UserMessage) templ.Component {
	return page("Something went wrong", func(h *html) {
		h.raw(`<p class="error">`)
		h.text(msg.Message)
		h.raw(`</p><p>`)
		h.text(msg.Action)
		h.raw(`</p><p class="muted">Code `)
		h.text(msg.Code)
		h.raw(`</p><p><a href="/">Start over</a></p>`)
	})
}

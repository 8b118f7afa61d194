package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/JonMunkholm/keymerge/internal/core"
	"github.com/JonMunkholm/keymerge/internal/logging"
	"github.com/JonMunkholm/keymerge/internal/tabular"
)

const (
	// multipartMemory is buffered in memory per request; larger uploads
	// spill to temporary files.
	multipartMemory = 32 << 20

	// multipartOverhead allows for boundaries and form fields on top of
	// the two files.
	multipartOverhead = 1 << 20

	// maxNormalizeBody caps the JSON body of /api/normalize.
	maxNormalizeBody = 1 << 20

	// previewRows is how many rows of each table responses include.
	previewRows = 20
)

// Output formats accepted by the format form field.
const (
	formatJSON = "json"
	formatHTML = "html"
	formatCSV  = "csv"
	formatXLSX = "xlsx"
)

type reportForm struct {
	Format string `form:"format" validate:"omitempty,oneof=json html"`
}

type keyForm struct {
	KeyA   string `form:"key_a" validate:"max=256"`
	KeyB   string `form:"key_b" validate:"max=256"`
	Format string `form:"format" validate:"omitempty,oneof=json html"`
}

type mergeForm struct {
	KeyA        string `form:"key_a" validate:"max=256"`
	KeyB        string `form:"key_b" validate:"max=256"`
	Join        string `form:"join" validate:"max=16"`
	LeftSuffix  string `form:"left_suffix" validate:"max=32"`
	RightSuffix string `form:"right_suffix" validate:"max=32"`
	Format      string `form:"format" validate:"omitempty,oneof=json csv xlsx html"`
}

type historyQuery struct {
	Limit  int    `form:"limit" validate:"min=0,max=500"`
	Format string `form:"format" validate:"omitempty,oneof=json html"`
}

type normalizeRequest struct {
	Values []any `json:"values" validate:"required,max=10000"`
}

// NormalizedCell is one entry of the /api/normalize response.
type NormalizedCell struct {
	Kind       string  `json:"kind"`
	Normalized *string `json:"normalized"` // null for the NULL marker
}

// ProfileResponse is the body of /api/profile.
type ProfileResponse struct {
	Table    core.Preview         `json:"table"`
	Profiles []core.ColumnProfile `json:"profiles"`
}

// CandidatesResponse is the body of /api/candidates.
type CandidatesResponse struct {
	TableA core.Preview         `json:"table_a"`
	TableB core.Preview         `json:"table_b"`
	Report core.CandidateReport `json:"report"`
}

// MergeResponse is the JSON body of /api/merge.
type MergeResponse struct {
	Merge   core.MergeRecord    `json:"merge"`
	Renames []core.ColumnRename `json:"renames"`
	Result  core.Preview        `json:"result"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	renderPage(w, r, http.StatusOK, indexPage(core.JoinTypes, s.cfg.Upload.MaxFileSize))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := core.LimiterStatus{}
	if lim := s.service.Limiter(); lim != nil {
		status = lim.Status()
	}
	writeJSON(w, map[string]any{"status": "ok", "merges": status})
}

// handleNormalize returns the comparison form of each JSON value.
func (s *Server) handleNormalize(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxNormalizeBody)

	dec := json.NewDecoder(r.Body)
	dec.UseNumber()

	var req normalizeRequest
	if err := dec.Decode(&req); err != nil {
		respondFailure(w, r, fmt.Errorf("%w: %w", errInvalidRequest, err))
		return
	}
	if err := s.validate.Struct(req); err != nil {
		respondFailure(w, r, invalidRequest(err))
		return
	}

	out := make([]NormalizedCell, len(req.Values))
	for i, raw := range req.Values {
		v := jsonValue(raw)
		cell := NormalizedCell{Kind: v.Kind().String()}
		if n := core.Normalize(v); !n.IsNull() {
			text := n.String()
			cell.Normalized = &text
		}
		out[i] = cell
	}
	writeJSON(w, map[string]any{"values": out})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	if err := s.parseUpload(w, r, 1); err != nil {
		respondFailure(w, r, err)
		return
	}
	var form reportForm
	if err := s.bind(r, &form); err != nil {
		respondFailure(w, r, err)
		return
	}

	t, err := s.readTable(r, "file")
	if err != nil {
		respondFailure(w, r, err)
		return
	}

	resp := ProfileResponse{
		Table:    core.NewPreview(t, previewRows),
		Profiles: core.ProfileAll(t),
	}
	if form.Format == formatHTML {
		renderPage(w, r, http.StatusOK, profilePage(resp))
		return
	}
	writeJSON(w, resp)
}

func (s *Server) handleCandidates(w http.ResponseWriter, r *http.Request) {
	a, b, ok := s.readPair(w, r)
	if !ok {
		return
	}
	var form reportForm
	if err := s.bind(r, &form); err != nil {
		respondFailure(w, r, err)
		return
	}

	resp := CandidatesResponse{
		TableA: core.NewPreview(a, previewRows),
		TableB: core.NewPreview(b, previewRows),
		Report: s.service.Suggest(r.Context(), a, b),
	}
	if form.Format == formatHTML {
		renderPage(w, r, http.StatusOK, candidatesPage(resp, core.JoinTypes))
		return
	}
	writeJSON(w, resp)
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	a, b, ok := s.readPair(w, r)
	if !ok {
		return
	}
	var form keyForm
	if err := s.bind(r, &form); err != nil {
		respondFailure(w, r, err)
		return
	}

	stats, err := s.service.Check(r.Context(), a, b, form.KeyA, form.KeyB)
	if err != nil {
		respondFailure(w, r, err)
		return
	}
	if form.Format == formatHTML {
		renderPage(w, r, http.StatusOK, validationPage(stats))
		return
	}
	writeJSON(w, stats)
}

// handleMerge executes a confirmed merge. The response is the merged table
// itself for csv and xlsx, or a summary with a preview for json and html.
func (s *Server) handleMerge(w http.ResponseWriter, r *http.Request) {
	a, b, ok := s.readPair(w, r)
	if !ok {
		return
	}
	var form mergeForm
	if err := s.bind(r, &form); err != nil {
		respondFailure(w, r, err)
		return
	}

	join, err := core.ParseJoinType(form.Join)
	if err != nil {
		respondFailure(w, r, err)
		return
	}
	cfg := core.NewMergeConfig(join, form.KeyA, form.KeyB)
	cfg.LeftSuffix = form.LeftSuffix
	if _, set := r.Form["right_suffix"]; set {
		cfg.RightSuffix = form.RightSuffix
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.Upload.Timeout)
	defer cancel()

	exec, err := s.service.Execute(ctx, a, b, cfg)
	if err != nil {
		respondFailure(w, r, err)
		return
	}

	switch form.Format {
	case formatCSV, formatXLSX:
		s.writeMergedTable(w, r, exec, tabular.Format(form.Format))
	case formatHTML:
		renderPage(w, r, http.StatusOK, mergeReportPage(exec, core.NewPreview(exec.Result.Table, previewRows)))
	default:
		writeJSON(w, MergeResponse{
			Merge:   exec.Record,
			Renames: exec.Result.Renames,
			Result:  core.NewPreview(exec.Result.Table, previewRows),
		})
	}
}

func (s *Server) writeMergedTable(w http.ResponseWriter, r *http.Request, exec *core.Execution, format tabular.Format) {
	filename := fmt.Sprintf("merged-%s.%s", exec.Record.ID.String()[:8], format)

	w.Header().Set("Content-Type", tabular.ContentType(format))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("X-Merge-ID", exec.Record.ID.String())

	if err := tabular.Write(w, exec.Result.Table, format); err != nil {
		// Headers are gone; all that is left is the log line.
		logging.FromContext(logging.WithMergeID(r.Context(), exec.Record.ID.String())).
			Error("write merged table", "format", format, "error", err)
	}
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	q := historyQuery{Format: r.URL.Query().Get("format")}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			respondFailure(w, r, fmt.Errorf("%w: limit must be a number", errInvalidRequest))
			return
		}
		q.Limit = limit
	}
	if err := s.validate.Struct(q); err != nil {
		respondFailure(w, r, invalidRequest(err))
		return
	}

	records, err := s.service.History(r.Context(), q.Limit)
	if err != nil {
		respondFailure(w, r, err)
		return
	}
	if q.Format == formatHTML {
		renderPage(w, r, http.StatusOK, historyPage(records))
		return
	}
	writeJSON(w, map[string]any{"merges": records})
}

// parseUpload bounds the body to files uploads plus form overhead and
// parses the multipart form.
func (s *Server) parseUpload(w http.ResponseWriter, r *http.Request, files int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, files*s.cfg.Upload.MaxFileSize+multipartOverhead)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return fmt.Errorf("%w: %w", errInvalidRequest, err)
	}
	return nil
}

// readPair parses the form and loads file_a and file_b, responding with
// an error itself when that fails.
func (s *Server) readPair(w http.ResponseWriter, r *http.Request) (*core.Table, *core.Table, bool) {
	if err := s.parseUpload(w, r, 2); err != nil {
		respondFailure(w, r, err)
		return nil, nil, false
	}

	a, err := s.readTable(r, "file_a")
	if err != nil {
		respondFailure(w, r, err)
		return nil, nil, false
	}
	b, err := s.readTable(r, "file_b")
	if err != nil {
		respondFailure(w, r, err)
		return nil, nil, false
	}
	return a, b, true
}

func (s *Server) readTable(r *http.Request, field string) (*core.Table, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, fmt.Errorf("%w: no file provided for %s", errInvalidRequest, field)
	}
	defer file.Close()

	return tabular.Read(header.Filename, file, s.cfg.Upload.MaxFileSize)
}

// jsonValue converts a decoded JSON value (numbers as json.Number) into
// the cell variant.
func jsonValue(x any) core.Value {
	n, ok := x.(json.Number)
	if !ok {
		return core.FromAny(x)
	}
	if i, err := n.Int64(); err == nil {
		return core.Int(i)
	}
	if f, err := n.Float64(); err == nil {
		return core.Float(f)
	}
	return core.String(n.String())
}

package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/regexcol/internal/logging"
	"github.com/JonMunkholm/regexcol/internal/table"
	"github.com/JonMunkholm/regexcol/internal/transform"
)

// Options configures a Service. Zero values get defaults.
type Options struct {
	MaxConcurrent    int
	MaxWait          time.Duration
	Timeout          time.Duration
	MaxPatternLength int
	PreviewRows      int
	MaxPreviewRows   int
	HistoryTimeout   time.Duration

	History HistoryStore
	Metrics *Metrics
}

// Service runs transforms on behalf of the transport layer. It is safe for
// concurrent use.
type Service struct {
	opts    Options
	limiter *Limiter
	history HistoryStore
	metrics *Metrics
	now     func() time.Time
}

// NewService creates a Service. Without a HistoryStore, runs are kept in
// memory.
func NewService(opts Options) *Service {
	if opts.Timeout <= 0 {
		opts.Timeout = 2 * time.Minute
	}
	if opts.MaxPatternLength <= 0 {
		opts.MaxPatternLength = 4096
	}
	if opts.PreviewRows <= 0 {
		opts.PreviewRows = 5
	}
	if opts.MaxPreviewRows < opts.PreviewRows {
		opts.MaxPreviewRows = opts.PreviewRows
	}
	if opts.HistoryTimeout <= 0 {
		opts.HistoryTimeout = 5 * time.Second
	}

	history := opts.History
	if history == nil {
		history = NewMemoryHistory(0)
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = NewMetrics(nil)
	}

	return &Service{
		opts:    opts,
		limiter: NewLimiter(opts.MaxConcurrent, opts.MaxWait),
		history: history,
		metrics: metrics,
		now:     time.Now,
	}
}

// Limiter returns the service's concurrency limiter.
func (s *Service) Limiter() *Limiter {
	return s.limiter
}

// TransformResponse is the outcome of a successful Transform.
type TransformResponse struct {
	ID        uuid.UUID
	CSV       []byte
	Column    string
	Pattern   string
	Preset    string
	Rows      int
	Changed   int
	NoMatches bool
}

// Transform validates req, waits for a slot, rewrites the column and records
// the run in the history. Errors from the pipeline are *transform.Error.
func (s *Service) Transform(ctx context.Context, req TransformRequest) (*TransformResponse, error) {
	id := uuid.New()
	log := logging.ForTransform(ctx, id.String(), req.FileName)
	start := s.now()
	format := formatLabel(req.Extension())

	s.metrics.observeUpload(len(req.Data))

	entry := HistoryEntry{
		ID:          id,
		CreatedAt:   start.UTC(),
		FileName:    req.FileName,
		FileSize:    len(req.Data),
		Column:      req.Column,
		Pattern:     req.Pattern,
		Replacement: req.Replacement,
	}
	entry.IPAddress, entry.UserAgent = ClientFromContext(ctx)

	resp, err := s.run(ctx, log, req, &entry)
	entry.DurationMs = s.now().Sub(start).Milliseconds()

	if err != nil {
		s.metrics.observeFailure(format, err)
		entry.ErrorCode = MapError(err).Code
		s.record(ctx, log, entry)
		log.Info("transform rejected", "code", entry.ErrorCode, "error", err)
		return nil, err
	}

	s.metrics.observeSuccess(format, s.now().Sub(start), resp.Rows, resp.Changed)
	entry.Rows, entry.Changed = resp.Rows, resp.Changed
	s.record(ctx, log, entry)
	log.Info("transform completed",
		"column", resp.Column,
		"rows", resp.Rows,
		"changed", resp.Changed,
		"duration_ms", entry.DurationMs,
	)
	return resp, nil
}

func (s *Service) run(ctx context.Context, log *slog.Logger, req TransformRequest, entry *HistoryEntry) (*TransformResponse, error) {
	if err := req.Validate(s.opts.MaxPatternLength); err != nil {
		return nil, err
	}

	pattern, preset, err := req.resolvePattern()
	if err != nil {
		return nil, err
	}
	entry.Pattern = pattern
	if preset != nil {
		entry.Preset = preset.Name
		s.metrics.observePreset(preset.Name)
		log.Debug("pattern taken from preset", "preset", preset.Name, "description", req.Description)
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	res, err := s.transform(ctx, req.Data, req.Extension(), req.params(pattern))
	if err != nil {
		return nil, err
	}

	if len(res.Column.Shadowed) > 0 {
		log.Warn("column name matches several headers; using the first",
			"column", res.Column.Name,
			"shadowed", res.Column.Shadowed,
		)
	}
	log.Debug("column resolved", "requested", req.Column, "column", res.Column.Name, "index", res.Column.Index)

	resp := &TransformResponse{
		ID:        entry.ID,
		CSV:       res.CSV,
		Column:    res.Column.Name,
		Pattern:   pattern,
		Rows:      res.Rows,
		Changed:   res.Changed,
		NoMatches: res.Changed == 0,
	}
	if preset != nil {
		resp.Preset = preset.Name
	}
	return resp, nil
}

// transform runs the pure pipeline on its own goroutine so a request timeout
// can abandon it. The goroutine owns all of its data and releases the
// limiter slot taken by the caller when it finishes.
func (s *Service) transform(ctx context.Context, data []byte, ext string, p transform.Params) (*transform.Result, error) {
	type outcome struct {
		res *transform.Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := transform.TransformFile(data, ext, p)
		s.limiter.Release()
		done <- outcome{res, err}
	}()

	select {
	case o := <-done:
		return o.res, o.err
	case <-ctx.Done():
		return nil, fmt.Errorf("transform aborted: %w", ctx.Err())
	}
}

// record stores entry without letting history failures fail the request.
func (s *Service) record(ctx context.Context, log *slog.Logger, entry HistoryEntry) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.HistoryTimeout)
	defer cancel()

	if err := s.history.Record(ctx, entry); err != nil {
		log.Error("failed to record transform history", "error", err)
	}
}

// History returns the most recent runs, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]HistoryEntry, error) {
	return s.history.Recent(ctx, limit)
}

// PreviewResponse describes the first rows of an upload.
type PreviewResponse struct {
	Columns  []string   `json:"columns"`
	Rows     [][]string `json:"rows"`
	RowCount int        `json:"row_count"`
}

// Preview parses an upload and returns its header and up to rows data rows,
// so a client can pick the column to rewrite.
func (s *Service) Preview(ctx context.Context, fileName string, data []byte, rows int) (*PreviewResponse, error) {
	if len(data) == 0 {
		return nil, errors.New("empty file")
	}
	if rows <= 0 {
		rows = s.opts.PreviewRows
	}
	rows = min(rows, s.opts.MaxPreviewRows)

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	t, err := transform.Load(data, table.ExtensionOf(fileName))
	if err != nil {
		return nil, err
	}

	n := min(rows, t.RowCount())
	out := &PreviewResponse{
		Columns:  t.Names(),
		Rows:     make([][]string, n),
		RowCount: t.RowCount(),
	}
	for i := 0; i < n; i++ {
		out.Rows[i] = t.Row(i)
	}

	logging.FromContext(ctx).Debug("preview built", "file", fileName, "columns", len(out.Columns), "rows", n)
	return out, nil
}

// Drain waits for in-flight transforms during shutdown.
func (s *Service) Drain(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

func formatLabel(ext string) string {
	f, err := table.ParseFormat(ext)
	if err != nil {
		return "unknown"
	}
	return string(f)
}

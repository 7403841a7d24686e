package usecase

import (
	"context"
	"errors"
	"runtime"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/emailfinder/pkg/domain/interfaces"
	"github.com/m-mizutani/emailfinder/pkg/domain/model"
	"github.com/m-mizutani/emailfinder/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/sync/errgroup"
)

var urlColumnKeywords = []string{"website", "url", "websites", "urls"}

type processUseCase struct {
	finder   interfaces.EmailFinder
	codec    interfaces.SheetCodec
	cpuCount int
}

// ProcessOption is a functional option for the process use case
type ProcessOption func(*processUseCase)

// WithCPUCount overrides the CPU count used to size the worker pool
func WithCPUCount(n int) ProcessOption {
	return func(uc *processUseCase) {
		uc.cpuCount = n
	}
}

// NewProcess creates a new instance of ProcessUseCase
func NewProcess(finder interfaces.EmailFinder, codec interfaces.SheetCodec, opts ...ProcessOption) interfaces.ProcessUseCase {
	uc := &processUseCase{
		finder:   finder,
		codec:    codec,
		cpuCount: runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// ProcessWorkbook appends an Emails column holding the addresses found on each row's website
func (uc *processUseCase) ProcessWorkbook(ctx context.Context, data []byte) ([]byte, error) {
	jobID := uuid.NewString()
	logger := ctxlog.From(ctx).With("job_id", jobID)

	logger.Info("Reading Excel file", "size", len(data))
	sheet, err := uc.codec.Decode(data)
	if errors.Is(err, types.ErrEmptyWorkbook) {
		// A sheet without a header has no URL column either
		return nil, goerr.Wrap(types.ErrNoURLColumn, "workbook has no columns", goerr.V("job_id", jobID), goerr.V("cause", err.Error()))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read workbook", goerr.V("job_id", jobID))
	}

	col := FindURLColumn(sheet.Header)
	if col < 0 {
		return nil, goerr.Wrap(types.ErrNoURLColumn, "no URL column", goerr.V("header", sheet.Header))
	}

	workers := OptimalWorkers(len(sheet.Rows), uc.cpuCount)
	logger.Info("Processing URLs",
		"url_column", sheet.Header[col],
		"rows", len(sheet.Rows),
		"workers", workers,
	)

	results := uc.scrapeAll(ctxlog.With(ctx, logger), sheet, col, workers)

	out := withEmailsColumn(sheet, results)

	logger.Info("Writing to Excel")
	encoded, err := uc.codec.Encode(out)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to write workbook", goerr.V("job_id", jobID))
	}

	return encoded, nil
}

// scrapeAll runs the finder for every row with at most workers in flight.
// A failing row yields no emails; the result order follows the rows.
func (uc *processUseCase) scrapeAll(ctx context.Context, sheet *model.Sheet, col, workers int) [][]string {
	logger := ctxlog.From(ctx)
	results := make([][]string, len(sheet.Rows))

	var g errgroup.Group
	g.SetLimit(workers)

	for i, row := range sheet.Rows {
		target := cleanURLCell(row[col])
		if target == "" {
			continue
		}

		g.Go(func() error {
			logger.Debug("Processing URL", "url", target)
			emails, err := uc.finder.FindEmails(ctx, target)
			if err != nil {
				logger.Warn("Error processing URL", "url", target, "error", err)
				return nil
			}
			logger.Debug("Processed URL", "url", target, "emails", emails)
			results[i] = emails
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// withEmailsColumn returns a copy of sheet whose Emails column holds results.
// An existing Emails column is overwritten in place, otherwise one is appended.
func withEmailsColumn(sheet *model.Sheet, results [][]string) *model.Sheet {
	col := slices.Index(sheet.Header, model.EmailsColumn)
	header := slices.Clone(sheet.Header)
	if col < 0 {
		col = len(header)
		header = append(header, model.EmailsColumn)
	}

	out := &model.Sheet{
		Header: header,
		Rows:   make([][]string, len(sheet.Rows)),
	}
	for i, row := range sheet.Rows {
		cells := make([]string, max(len(row), col+1))
		copy(cells, row)
		cells[col] = strings.Join(results[i], ", ")
		out.Rows[i] = cells
	}
	return out
}

// FindURLColumn returns the index of the first header that looks like a website column, or -1
func FindURLColumn(header []string) int {
	for i, name := range header {
		lower := strings.ToLower(name)
		for _, k := range urlColumnKeywords {
			if strings.Contains(lower, k) {
				return i
			}
		}
	}
	return -1
}

// OptimalWorkers returns the number of concurrent scrapes for a sheet of rows,
// scaled with the CPU count and capped at 4, 8 or 16 depending on the sheet size
func OptimalWorkers(rows, cpuCount int) int {
	var n int
	switch {
	case rows <= 100:
		n = min(cpuCount, 4, rows)
	case rows <= 300:
		n = min(cpuCount, 8, rows)
	default:
		n = min(cpuCount*2, 16, rows)
	}
	return max(n, 1)
}

func cleanURLCell(v string) string {
	v = strings.TrimSpace(v)
	if strings.EqualFold(v, "nan") {
		return ""
	}
	return v
}

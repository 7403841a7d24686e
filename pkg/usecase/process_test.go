package usecase_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/m-mizutani/emailfinder/pkg/domain/model"
	"github.com/m-mizutani/emailfinder/pkg/domain/types"
	"github.com/m-mizutani/emailfinder/pkg/infra/excel"
	"github.com/m-mizutani/emailfinder/pkg/usecase"
	"github.com/m-mizutani/gt"
	"github.com/xuri/excelize/v2"
)

// mockEmailFinder is a mock implementation of EmailFinder
type mockEmailFinder struct {
	mu       sync.Mutex
	results  map[string][]string
	fail     map[string]bool
	calls    []string
	inFlight atomic.Int32
	peak     atomic.Int32
	delay    time.Duration
}

func (m *mockEmailFinder) FindEmails(ctx context.Context, rawURL string) ([]string, error) {
	n := m.inFlight.Add(1)
	defer m.inFlight.Add(-1)
	for {
		p := m.peak.Load()
		if n <= p || m.peak.CompareAndSwap(p, n) {
			break
		}
	}
	if m.delay > 0 {
		time.Sleep(m.delay)
	}

	m.mu.Lock()
	m.calls = append(m.calls, rawURL)
	m.mu.Unlock()

	if m.fail[rawURL] {
		return nil, errors.New("timeout")
	}
	return m.results[rawURL], nil
}

func encodeSheet(t *testing.T, sheet *model.Sheet) []byte {
	t.Helper()
	data, err := excel.NewCodec().Encode(sheet)
	gt.NoError(t, err)
	return data
}

func TestProcessUseCase_ProcessWorkbook(t *testing.T) {
	input := encodeSheet(t, &model.Sheet{
		Header: []string{"Company", "Company Website"},
		Rows: [][]string{
			{"Acme", "acme.example"},
			{"Globex", "globex.example"},
			{"Initech", "nan"},
			{"Umbrella", "umbrella.example"},
		},
	})

	finder := &mockEmailFinder{
		results: map[string][]string{
			"acme.example":   {"info@acme.example", "sales@acme.example"},
			"globex.example": nil,
		},
		fail: map[string]bool{"umbrella.example": true},
	}

	uc := usecase.NewProcess(finder, excel.NewCodec())
	output, err := uc.ProcessWorkbook(context.Background(), input)
	gt.NoError(t, err)

	sheet, err := excel.NewCodec().Decode(output)
	gt.NoError(t, err)

	gt.Equal(t, sheet.Header, []string{"Company", "Company Website", "Emails"})
	gt.Equal(t, sheet.Rows, [][]string{
		{"Acme", "acme.example", "info@acme.example, sales@acme.example"},
		{"Globex", "globex.example", ""},
		{"Initech", "nan", ""},
		{"Umbrella", "umbrella.example", ""},
	})

	// "nan" cells are not scraped
	gt.A(t, finder.calls).Length(3)
}

func TestProcessUseCase_NoURLColumn(t *testing.T) {
	input := encodeSheet(t, &model.Sheet{
		Header: []string{"Company", "Phone"},
		Rows:   [][]string{{"Acme", "555"}},
	})

	finder := &mockEmailFinder{}
	uc := usecase.NewProcess(finder, excel.NewCodec())

	_, err := uc.ProcessWorkbook(context.Background(), input)
	gt.Error(t, err)
	gt.True(t, errors.Is(err, types.ErrNoURLColumn))
	gt.A(t, finder.calls).Length(0)
}

func TestProcessUseCase_ReplacesEmailsColumn(t *testing.T) {
	input := encodeSheet(t, &model.Sheet{
		Header: []string{"Website", model.EmailsColumn, "Notes"},
		Rows: [][]string{
			{"acme.example", "old@acme.example", "keep"},
			{"globex.example", "stale@globex.example", ""},
		},
	})

	finder := &mockEmailFinder{
		results: map[string][]string{"acme.example": {"info@acme.example"}},
	}
	uc := usecase.NewProcess(finder, excel.NewCodec())

	output, err := uc.ProcessWorkbook(context.Background(), input)
	gt.NoError(t, err)

	sheet, err := excel.NewCodec().Decode(output)
	gt.NoError(t, err)
	gt.Equal(t, sheet.Header, []string{"Website", model.EmailsColumn, "Notes"})
	gt.Equal(t, sheet.Rows, [][]string{
		{"acme.example", "info@acme.example", "keep"},
		{"globex.example", "", ""},
	})
}

func TestProcessUseCase_EmptyWorkbook(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	buf, err := f.WriteToBuffer()
	gt.NoError(t, err)

	finder := &mockEmailFinder{}
	uc := usecase.NewProcess(finder, excel.NewCodec())

	_, err = uc.ProcessWorkbook(context.Background(), buf.Bytes())
	gt.Error(t, err)
	gt.True(t, errors.Is(err, types.ErrNoURLColumn))
	gt.A(t, finder.calls).Length(0)
}

func TestProcessUseCase_InvalidWorkbook(t *testing.T) {
	uc := usecase.NewProcess(&mockEmailFinder{}, excel.NewCodec())

	_, err := uc.ProcessWorkbook(context.Background(), []byte("plain text"))
	gt.Error(t, err)
	gt.False(t, errors.Is(err, types.ErrNoURLColumn))
}

func TestProcessUseCase_WorkerLimit(t *testing.T) {
	sheet := &model.Sheet{Header: []string{"url"}}
	for i := 0; i < 20; i++ {
		sheet.Rows = append(sheet.Rows, []string{"site" + strings.Repeat("x", i) + ".example"})
	}

	finder := &mockEmailFinder{delay: 10 * time.Millisecond}
	uc := usecase.NewProcess(finder, excel.NewCodec(), usecase.WithCPUCount(2))

	_, err := uc.ProcessWorkbook(context.Background(), encodeSheet(t, sheet))
	gt.NoError(t, err)
	gt.A(t, finder.calls).Length(20)
	gt.True(t, finder.peak.Load() <= 2)
}

func TestFindURLColumn(t *testing.T) {
	tests := []struct {
		name   string
		header []string
		want   int
	}{
		{"website", []string{"Name", "Website"}, 1},
		{"url uppercase", []string{"Name", "HOMEPAGE URL", "Website"}, 1},
		{"urls", []string{"Company URLs"}, 0},
		{"none", []string{"Name", "Phone"}, -1},
		{"empty", nil, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gt.Equal(t, usecase.FindURLColumn(tt.header), tt.want)
		})
	}
}

func TestOptimalWorkers(t *testing.T) {
	tests := []struct {
		rows, cpu, want int
	}{
		{0, 8, 1},
		{3, 8, 3},
		{100, 8, 4},
		{100, 2, 2},
		{101, 16, 8},
		{300, 4, 4},
		{301, 4, 8},
		{1000, 32, 16},
		{1000, 1, 2},
	}

	for _, tt := range tests {
		gt.Equal(t, usecase.OptimalWorkers(tt.rows, tt.cpu), tt.want)
	}
}

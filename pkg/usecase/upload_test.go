package usecase_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/m-mizutani/emailfinder/pkg/domain/model"
	"github.com/m-mizutani/emailfinder/pkg/infra/display"
	"github.com/m-mizutani/emailfinder/pkg/infra/download"
	"github.com/m-mizutani/emailfinder/pkg/infra/processor"
	"github.com/m-mizutani/emailfinder/pkg/usecase"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
)

// mockProcessClient is a mock implementation of ProcessClient
type mockProcessClient struct {
	processFunc func(ctx context.Context, form *model.Form) (*model.ProcessedFile, error)
	calls       int
}

func (m *mockProcessClient) Process(ctx context.Context, form *model.Form) (*model.ProcessedFile, error) {
	m.calls++
	if m.processFunc != nil {
		return m.processFunc(ctx, form)
	}
	return nil, errors.New("mock not configured")
}

// mockSink records saved artifacts in memory
type mockSink struct {
	saved map[string][]byte
	err   error
}

func (m *mockSink) Save(ctx context.Context, name string, data []byte) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	if m.saved == nil {
		m.saved = map[string][]byte{}
	}
	m.saved[name] = append([]byte(nil), data...)
	return "/downloads/" + name, nil
}

func newReportForm() *model.Form {
	return &model.Form{
		File: &model.UploadFile{
			Name:    "report.csv",
			Content: []byte("website\nexample.org\n"),
		},
	}
}

func TestUploadHandler_Submit_Success(t *testing.T) {
	ctx := context.Background()
	body := []byte{0x00, 0x01, 0xfe, 0xff}
	status := display.NewMemory()

	client := &mockProcessClient{
		processFunc: func(ctx context.Context, form *model.Form) (*model.ProcessedFile, error) {
			// Before the request resolves the display must be pending without classes
			gt.Equal(t, status.Text(), model.PendingMessage)
			gt.False(t, status.HasClass(model.ClassError))
			gt.False(t, status.HasClass(model.ClassSuccess))
			return &model.ProcessedFile{Data: body, ServerFilename: "other.xlsx"}, nil
		},
	}
	sink := &mockSink{}

	h := usecase.NewUploadHandler(client, sink, status)
	path, err := h.Submit(ctx, newReportForm())
	gt.NoError(t, err)

	gt.Equal(t, path, "/downloads/report.csv")
	gt.Equal(t, sink.saved["report.csv"], body)
	gt.Equal(t, status.Text(), model.SuccessMessage)
	gt.True(t, status.HasClass(model.ClassSuccess))
	gt.False(t, status.HasClass(model.ClassError))
	gt.Equal(t, client.calls, 1)
}

func TestUploadHandler_Submit_TransportFailure(t *testing.T) {
	status := display.NewMemory()
	client := &mockProcessClient{
		processFunc: func(ctx context.Context, form *model.Form) (*model.ProcessedFile, error) {
			return nil, goerr.Wrap(errors.New("network down"), "failed to send process request")
		},
	}
	sink := &mockSink{}

	h := usecase.NewUploadHandler(client, sink, status)
	_, err := h.Submit(context.Background(), newReportForm())
	gt.Error(t, err)

	gt.Equal(t, status.Text(), "Error: network down")
	gt.True(t, status.HasClass(model.ClassError))
	gt.False(t, status.HasClass(model.ClassSuccess))
	gt.Equal(t, len(sink.saved), 0)
	gt.Equal(t, client.calls, 1)
}

func TestUploadHandler_Submit_SinkFailure(t *testing.T) {
	status := display.NewMemory()
	client := &mockProcessClient{
		processFunc: func(ctx context.Context, form *model.Form) (*model.ProcessedFile, error) {
			return &model.ProcessedFile{Data: []byte("x")}, nil
		},
	}
	sink := &mockSink{err: errors.New("disk full")}

	h := usecase.NewUploadHandler(client, sink, status)
	_, err := h.Submit(context.Background(), newReportForm())
	gt.Error(t, err)
	gt.Equal(t, status.Text(), "Error: disk full")
	gt.True(t, status.HasClass(model.ClassError))
}

func TestUploadHandler_Submit_NoFile(t *testing.T) {
	status := display.NewMemory()
	client := &mockProcessClient{}

	h := usecase.NewUploadHandler(client, &mockSink{}, status)
	_, err := h.Submit(context.Background(), &model.Form{})
	gt.Error(t, err)
	gt.Equal(t, status.Text(), "Error: no file selected")
	gt.Equal(t, client.calls, 0)
}

// The remaining tests run the handler against a real HTTP endpoint and output directory.

func newHTTPHandler(t *testing.T, endpoint string, httpClient *http.Client) (*usecase.UploadHandler, *display.Memory, string) {
	t.Helper()

	var opts []processor.Option
	if httpClient != nil {
		opts = append(opts, processor.WithHTTPClient(httpClient))
	}
	client, err := processor.NewClient(endpoint, opts...)
	gt.NoError(t, err)

	dir := t.TempDir()
	status := display.NewMemory()
	return usecase.NewUploadHandler(client, download.NewDirectory(dir), status), status, dir
}

func TestUploadHandler_HTTP_Success(t *testing.T) {
	body := []byte{0x50, 0x4b, 0x03, 0x04, 0x14, 0x00}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write(body)
	}))
	defer server.Close()

	h, status, dir := newHTTPHandler(t, server.URL, nil)

	path, err := h.Submit(context.Background(), newReportForm())
	gt.NoError(t, err)
	gt.Equal(t, filepath.Base(path), "report.csv")

	got, err := os.ReadFile(filepath.Join(dir, "report.csv"))
	gt.NoError(t, err)
	gt.Equal(t, got, body)
	gt.Equal(t, status.State(), model.StatusSuccess)
	gt.Equal(t, status.Text(), model.SuccessMessage)
}

func TestUploadHandler_HTTP_Rejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "No column found that likely contains URLs.", http.StatusBadRequest)
	}))
	defer server.Close()

	h, status, dir := newHTTPHandler(t, server.URL, nil)

	_, err := h.Submit(context.Background(), newReportForm())
	gt.Error(t, err)
	gt.Equal(t, status.Text(), "Error: File processing failed")
	gt.True(t, status.HasClass(model.ClassError))

	entries, err := os.ReadDir(dir)
	gt.NoError(t, err)
	gt.A(t, entries).Length(0)
}

type failingTransport struct{}

func (failingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	return nil, errors.New("network down")
}

func TestUploadHandler_HTTP_NetworkDown(t *testing.T) {
	h, status, _ := newHTTPHandler(t, "http://processor.invalid", &http.Client{Transport: failingTransport{}})

	_, err := h.Submit(context.Background(), newReportForm())
	gt.Error(t, err)
	gt.Equal(t, status.Text(), "Error: network down")
	gt.True(t, status.HasClass(model.ClassError))
}

func TestUploadHandler_SequentialSubmissions(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	h, status, _ := newHTTPHandler(t, server.URL, nil)
	ctx := context.Background()

	_, err := h.Submit(ctx, newReportForm())
	gt.Error(t, err)
	gt.Equal(t, status.Text(), "Error: File processing failed")
	gt.True(t, status.HasClass(model.ClassError))

	fail.Store(false)
	_, err = h.Submit(ctx, newReportForm())
	gt.NoError(t, err)
	gt.Equal(t, status.Text(), model.SuccessMessage)
	gt.True(t, status.HasClass(model.ClassSuccess))
	gt.False(t, status.HasClass(model.ClassError))

	fail.Store(true)
	_, err = h.Submit(ctx, newReportForm())
	gt.Error(t, err)
	gt.Equal(t, status.Text(), "Error: File processing failed")
	gt.False(t, status.HasClass(model.ClassSuccess))
}

func TestFailureDescription(t *testing.T) {
	root := errors.New("connection refused")
	wrapped := goerr.Wrap(goerr.Wrap(root, "inner"), "outer")

	gt.Equal(t, usecase.FailureDescription(wrapped), "connection refused")
	gt.Equal(t, usecase.FailureDescription(root), "connection refused")
	gt.Equal(t, usecase.FailureDescription(nil), "")
}

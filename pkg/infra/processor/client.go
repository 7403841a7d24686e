package processor

import (
	"bytes"
	"context"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"

	"github.com/m-mizutani/emailfinder/pkg/domain/model"
	"github.com/m-mizutani/emailfinder/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

// ProcessPath is the fixed path of the process endpoint
const ProcessPath = "/process"

// maxErrorBody bounds how much of a failed response is kept for diagnostics
const maxErrorBody = 1024

// Client posts forms to the process endpoint
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// Option is a functional option for Client
type Option func(*Client)

// WithHTTPClient replaces the default http.Client
func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) {
		client.httpClient = c
	}
}

// NewClient creates a Client for the server at endpoint (scheme and host, optionally a base path)
func NewClient(endpoint string, opts ...Option) (*Client, error) {
	target, err := url.JoinPath(endpoint, ProcessPath)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid endpoint", goerr.V("endpoint", endpoint))
	}

	client := &Client{
		endpoint:   target,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// Endpoint returns the full URL requests are posted to
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Process posts the form as multipart/form-data and returns the response body on a 2xx status
func (c *Client) Process(ctx context.Context, form *model.Form) (*model.ProcessedFile, error) {
	if form == nil || form.File == nil {
		return nil, goerr.New("no file selected")
	}

	body, contentType, err := encodeForm(form)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create process request", goerr.V("endpoint", c.endpoint))
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to send process request", goerr.V("endpoint", c.endpoint))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, goerr.Wrap(types.ErrProcessingFailed, "process endpoint rejected the file",
			goerr.V("status", resp.StatusCode),
			goerr.V("body", string(snippet)),
			goerr.V("endpoint", c.endpoint),
		)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read process response")
	}

	return &model.ProcessedFile{
		Data:           data,
		ContentType:    resp.Header.Get("Content-Type"),
		ServerFilename: attachmentFilename(resp.Header.Get("Content-Disposition")),
	}, nil
}

// encodeForm writes the form fields followed by the file part
func encodeForm(form *model.Form) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	for key, values := range form.Fields {
		for _, v := range values {
			if err := mw.WriteField(key, v); err != nil {
				return nil, "", goerr.Wrap(err, "failed to write form field", goerr.V("field", key))
			}
		}
	}

	part, err := mw.CreateFormFile(form.FileFieldName(), filepath.Base(form.File.Name))
	if err != nil {
		return nil, "", goerr.Wrap(err, "failed to create file part")
	}
	if _, err := part.Write(form.File.Content); err != nil {
		return nil, "", goerr.Wrap(err, "failed to write file part")
	}
	if err := mw.Close(); err != nil {
		return nil, "", goerr.Wrap(err, "failed to finish multipart body")
	}

	return &buf, mw.FormDataContentType(), nil
}

func attachmentFilename(header string) string {
	if header == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		return ""
	}
	return params["filename"]
}

package converter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"trainee-backend/internal/extract"
	"trainee-backend/internal/shared/telemetry"
)

const convertPath = "/forms/libreoffice/convert"

// maxErrorBody bounds how much of an upstream error body is kept.
const maxErrorBody = 512

// traceHeader makes Gotenberg tag its own logs with our request id.
const traceHeader = "Gotenberg-Trace"

// Options configures a Client.
type Options struct {
	BaseURL      string
	Timeout      time.Duration
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	Author       string
	Transport    http.RoundTripper
}

// Client converts office documents to PDF through a Gotenberg-style service.
type Client struct {
	baseURL string
	author  string
	http    *retryablehttp.Client
}

// New builds a Client. RetryMax of zero means a single attempt.
func New(opts Options) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("converter: base url is required")
	}
	if opts.Transport == nil {
		opts.Transport = http.DefaultTransport
	}
	if opts.RetryWaitMin <= 0 {
		opts.RetryWaitMin = 200 * time.Millisecond
	}
	if opts.RetryWaitMax <= 0 {
		opts.RetryWaitMax = 2 * time.Second
	}
	if opts.RetryMax < 0 {
		opts.RetryMax = 0
	}

	return &Client{
		baseURL: base,
		author:  opts.Author,
		http: &retryablehttp.Client{
			Backoff:      retryablehttp.DefaultBackoff,
			CheckRetry:   retryablehttp.DefaultRetryPolicy,
			ErrorHandler: retryablehttp.PassthroughErrorHandler,
			HTTPClient:   &http.Client{Transport: opts.Transport, Timeout: opts.Timeout},
			RetryWaitMin: opts.RetryWaitMin,
			RetryWaitMax: opts.RetryWaitMax,
			RetryMax:     opts.RetryMax,
			Logger:       retryLogger{},
		},
	}, nil
}

// Convert sends doc to the conversion service and returns the PDF bytes.
// Any failure, including a 2xx body that is not a readable PDF, is a
// *ConversionError and no partial output is returned.
func (c *Client) Convert(ctx context.Context, doc io.Reader, filename string) (io.ReadCloser, error) {
	body, contentType, err := c.buildForm(doc, filename)
	if err != nil {
		return nil, &ConversionError{Message: "build request", Err: err}
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+convertPath, body)
	if err != nil {
		return nil, &ConversionError{Message: "build request", Err: err}
	}
	req.Header.Set("Content-Type", contentType)
	if id := telemetry.RequestID(ctx); id != "" {
		req.Header.Set(traceHeader, id)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		select {
		case <-ctx.Done():
			return nil, &ConversionError{Message: "request canceled", Err: ctx.Err()}
		default:
			return nil, &ConversionError{Message: "request failed", Err: err}
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &ConversionError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(snippet)),
		}
	}

	out, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ConversionError{StatusCode: resp.StatusCode, Message: "read response", Err: err}
	}
	pages, err := extract.PageCount(out)
	if err != nil {
		return nil, &ConversionError{StatusCode: resp.StatusCode, Message: "response is not a pdf", Err: err}
	}
	if pages < 1 {
		return nil, &ConversionError{StatusCode: resp.StatusCode, Message: "pdf has no pages"}
	}

	return io.NopCloser(bytes.NewReader(out)), nil
}

// buildForm renders the multipart body in memory so retries can replay it.
func (c *Client) buildForm(doc io.Reader, filename string) ([]byte, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	if err := mw.WriteField("merge", "true"); err != nil {
		return nil, "", err
	}
	if err := mw.WriteField("pdfa", "PDF/A-2b"); err != nil {
		return nil, "", err
	}
	meta, err := json.Marshal(map[string]string{
		"Author":   c.author,
		"Creator":  c.author,
		"Producer": c.author,
	})
	if err != nil {
		return nil, "", err
	}
	if err := mw.WriteField("metadata", string(meta)); err != nil {
		return nil, "", err
	}

	part, err := mw.CreateFormFile("files", filename)
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, doc); err != nil {
		return nil, "", err
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), mw.FormDataContentType(), nil
}

// retryLogger routes retryablehttp's leveled logs to telemetry.
type retryLogger struct{}

func (retryLogger) Error(msg string, kv ...interface{}) { telemetry.Error("converter."+msg, fields(kv)) }
func (retryLogger) Warn(msg string, kv ...interface{})  { telemetry.Warn("converter."+msg, fields(kv)) }
func (retryLogger) Info(string, ...interface{})         {}
func (retryLogger) Debug(string, ...interface{})        {}

func fields(kv []interface{}) map[string]any {
	out := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		if req, ok := kv[i+1].(*http.Request); ok {
			out[key] = req.Method + " " + req.URL.Path
			continue
		}
		out[key] = kv[i+1]
	}
	return out
}

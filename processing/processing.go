package processing

import (
	"bytes"
	"context"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/nijaru/webm-fix/errors"
	"github.com/nijaru/webm-fix/models"
	"github.com/nijaru/webm-fix/utils"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Processor sends a ProcessingRequest to the server and returns the
// processed file.
type Processor interface {
	Process(ctx context.Context, req *models.ProcessingRequest) (*Result, error)
}

// Result is the blob returned by a successful request.
type Result struct {
	Data        []byte
	ContentType string
	// Filename is the server-suggested name from Content-Disposition, if
	// any. The client names downloads itself.
	Filename string
}

type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     *logrus.Logger
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func WithLogger(logger *logrus.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithTimeout bounds each request. Zero means no timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

func NewClient(serverURL string, opts ...Option) (*Client, error) {
	base, err := url.Parse(serverURL)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "parse server URL")
	}

	c := &Client{
		baseURL:    base,
		httpClient: &http.Client{},
		logger:     logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) Process(ctx context.Context, req *models.ProcessingRequest) (*Result, error) {
	const op = "processing.Client.Process"

	body, contentType, err := buildForm(req)
	if err != nil {
		return nil, errors.Network(op, pkgerrors.Wrap(err, "build multipart body"))
	}

	endpoint := c.endpointURL(req.Endpoint())
	logger := c.logger.WithFields(logrus.Fields{
		"endpoint": endpoint,
		"file":     req.File.Name,
		"size":     req.File.Size,
		"compress": req.Compress,
	})

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, errors.Network(op, pkgerrors.Wrap(err, "create request"))
	}
	httpReq.Header.Set("Content-Type", contentType)

	logger.Info("Submitting file for processing")
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		logger.WithError(err).Error("Processing request failed")
		return nil, errors.Network(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		message := utils.DecodeError(resp.Body)
		appErr := errors.Server(op, resp.StatusCode, message)
		logger.WithFields(logrus.Fields{
			"status": resp.StatusCode,
			"error":  appErr.Message,
		}).Warn("Server rejected processing request")
		return nil, appErr
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.WithError(err).Error("Failed to read processed file")
		return nil, errors.Network(op, pkgerrors.Wrap(err, "read response body"))
	}

	logger.WithField("result_size", len(data)).Info("File processed")
	return &Result{
		Data:        data,
		ContentType: resp.Header.Get("Content-Type"),
		Filename:    dispositionFilename(resp.Header.Get("Content-Disposition")),
	}, nil
}

func (c *Client) endpointURL(path string) string {
	u := *c.baseURL
	u.Path = strings.TrimSuffix(u.Path, "/") + path
	return u.String()
}

// buildForm writes the multipart body: file and duration always, crf and
// bitrate only for compression requests.
func buildForm(req *models.ProcessingRequest) (*bytes.Buffer, string, error) {
	file, err := req.File.Open()
	if err != nil {
		return nil, "", pkgerrors.Wrapf(err, "open %s", req.File.Path)
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", req.File.Name)
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, "", pkgerrors.Wrap(err, "copy file")
	}

	fields := [][2]string{{"duration", FormatDuration(req.Duration)}}
	if req.Compress {
		fields = append(fields, [2]string{"crf", req.CRF}, [2]string{"bitrate", req.Bitrate})
	}
	for _, f := range fields {
		if err := writer.WriteField(f[0], f[1]); err != nil {
			return nil, "", err
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return &buf, writer.FormDataContentType(), nil
}

// FormatDuration encodes a duration with the fewest digits that round-trip.
func FormatDuration(d float64) string {
	return strconv.FormatFloat(d, 'f', -1, 64)
}

func dispositionFilename(header string) string {
	if header == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		return ""
	}
	return params["filename"]
}

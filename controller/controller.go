package controller

import (
	"bytes"
	"context"
	"sync"

	"github.com/nijaru/webm-fix/download"
	"github.com/nijaru/webm-fix/errors"
	"github.com/nijaru/webm-fix/models"
	"github.com/nijaru/webm-fix/processing"
	"github.com/nijaru/webm-fix/utils"
	"github.com/nijaru/webm-fix/validation"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const SuccessMessage = "File processed successfully! Download started."

// ErrInFlight is returned by Submit while another submission is running.
var ErrInFlight = pkgerrors.New("a submission is already in flight")

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseValidating
	PhaseSubmitting
	PhaseSuccess
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseValidating:
		return "validating"
	case PhaseSubmitting:
		return "submitting"
	case PhaseSuccess:
		return "success"
	case PhaseError:
		return "error"
	default:
		return "idle"
	}
}

// View is a snapshot of everything a front end needs to render.
type View struct {
	File *models.SelectedFile
	// FileSize is the human-readable size of File.
	FileSize string

	Compress bool
	Duration string
	CRF      string
	Bitrate  string

	Status   *models.StatusMessage
	Progress string

	SubmitEnabled bool
	InFlight      bool
	Phase         Phase

	// Location is where the last successful download was saved.
	Location string
}

func (v View) ProgressVisible() bool { return v.Progress != "" }

type Options struct {
	Processor processing.Processor
	Sink      download.Sink
	Logger    *logrus.Logger
	CRF       string
	Bitrate   string
}

// Controller owns the upload form state. All methods are safe for
// concurrent use; only one submission runs at a time.
type Controller struct {
	mu sync.Mutex

	processor processing.Processor
	sink      download.Sink
	logger    *logrus.Logger

	file     *models.SelectedFile
	compress bool
	duration string
	crf      string
	bitrate  string

	status   *models.StatusMessage
	progress string
	inFlight bool
	phase    Phase
	location string

	subscribers []func(View)
}

func New(opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Controller{
		processor: opts.Processor,
		sink:      opts.Sink,
		logger:    logger,
		crf:       opts.CRF,
		bitrate:   opts.Bitrate,
	}
}

// Subscribe registers fn to be called with a fresh View after every state
// change. Callbacks run outside the controller lock.
func (c *Controller) Subscribe(fn func(View)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscribers = append(c.subscribers, fn)
}

func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

func (c *Controller) viewLocked() View {
	v := View{
		Compress:      c.compress,
		Duration:      c.duration,
		CRF:           c.crf,
		Bitrate:       c.bitrate,
		Progress:      c.progress,
		SubmitEnabled: c.file != nil && !c.inFlight,
		InFlight:      c.inFlight,
		Phase:         c.phase,
		Location:      c.location,
	}
	if c.file != nil {
		file := *c.file
		v.File = &file
		v.FileSize = utils.FormatFileSize(file.Size)
	}
	if c.status != nil {
		status := *c.status
		v.Status = &status
	}
	return v
}

// mutate applies fn under the lock and then notifies subscribers.
func (c *Controller) mutate(fn func()) {
	c.mu.Lock()
	fn()
	view := c.viewLocked()
	subscribers := append([]func(View){}, c.subscribers...)
	c.mu.Unlock()

	for _, sub := range subscribers {
		sub(view)
	}
}

// SelectFile validates and records file. A rejected file shows an error
// status and leaves the previous selection in place.
func (c *Controller) SelectFile(file models.SelectedFile) error {
	err := validation.ValidateFile(file.Name, file.Size)

	c.mutate(func() {
		c.status = nil
		if err != nil {
			c.status = &models.StatusMessage{Kind: models.StatusError, Text: errors.UserMessage(err)}
			return
		}
		selected := file
		c.file = &selected
		if !c.inFlight {
			c.phase = PhaseIdle
		}
	})

	logger := c.logger.WithFields(logrus.Fields{
		"file": file.Name,
		"size": file.Size,
	})
	if err != nil {
		logger.WithError(err).Warn("File rejected")
		return err
	}
	logger.Debug("File selected")
	return nil
}

func (c *Controller) ToggleCompression(enabled bool) {
	c.mutate(func() { c.compress = enabled })
}

func (c *Controller) SetDuration(value string) {
	c.mutate(func() { c.duration = value })
}

func (c *Controller) SetCRF(value string) {
	c.mutate(func() { c.crf = value })
}

func (c *Controller) SetBitrate(value string) {
	c.mutate(func() { c.bitrate = value })
}

// Submit sends the selected file for processing and saves the result.
// It returns nil without doing anything when no file is selected. The
// returned error mirrors the status message shown.
func (c *Controller) Submit(ctx context.Context) error {
	var (
		req     *models.ProcessingRequest
		err     error
		noop    bool
		running bool
	)
	c.mutate(func() {
		if c.file == nil {
			noop = true
			return
		}
		if c.inFlight {
			running = true
			return
		}

		c.phase = PhaseValidating
		duration, parseErr := validation.ParseDuration(c.duration)
		if parseErr != nil {
			err = parseErr
			c.status = &models.StatusMessage{Kind: models.StatusError, Text: errors.UserMessage(err)}
			c.phase = PhaseError
			return
		}

		req = &models.ProcessingRequest{
			File:     *c.file,
			Duration: duration,
			Compress: c.compress,
		}
		if c.compress {
			req.CRF = c.crf
			req.Bitrate = c.bitrate
		}

		c.inFlight = true
		c.phase = PhaseSubmitting
		c.status = nil
		c.location = ""
		c.progress = req.ProgressText()
	})

	switch {
	case noop:
		return nil
	case running:
		return ErrInFlight
	case err != nil:
		c.logger.WithError(err).Warn("Submission rejected")
		return err
	}

	var (
		location string
		runErr   error
	)
	defer func() {
		c.mutate(func() {
			c.inFlight = false
			c.progress = ""
			if runErr != nil {
				c.phase = PhaseError
				c.status = &models.StatusMessage{Kind: models.StatusError, Text: errors.UserMessage(runErr)}
				return
			}
			c.phase = PhaseSuccess
			c.location = location
			c.status = &models.StatusMessage{Kind: models.StatusSuccess, Text: SuccessMessage}
		})
	}()

	location, runErr = c.run(ctx, req)
	return runErr
}

func (c *Controller) run(ctx context.Context, req *models.ProcessingRequest) (string, error) {
	const op = "controller.run"

	logger := c.logger.WithFields(logrus.Fields{
		"file":     req.File.Name,
		"endpoint": req.Endpoint(),
	})

	result, err := c.processor.Process(ctx, req)
	if err != nil {
		logger.WithError(err).Error("Processing failed")
		return "", err
	}

	name := utils.DownloadName(req.File.Name, req.DownloadSuffix())
	location, err := c.sink.Save(ctx, name, bytes.NewReader(result.Data))
	if err != nil {
		logger.WithError(err).Error("Failed to save download")
		return "", errors.Download(op, err)
	}

	logger.WithField("location", location).Info("Download saved")
	return location, nil
}

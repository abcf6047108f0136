package controller

import (
	"context"

	"github.com/nijaru/webm-fix/models"
	pkgerrors "github.com/pkg/errors"
)

// Event is a user action on the upload form.
type Event interface {
	isEvent()
}

type FileSelected struct {
	File models.SelectedFile
}

type CompressionToggled struct {
	Enabled bool
}

type DurationChanged struct {
	Value string
}

type CRFChanged struct {
	Value string
}

type BitrateChanged struct {
	Value string
}

type SubmitRequested struct{}

func (FileSelected) isEvent()       {}
func (CompressionToggled) isEvent() {}
func (DurationChanged) isEvent()    {}
func (CRFChanged) isEvent()         {}
func (BitrateChanged) isEvent()     {}
func (SubmitRequested) isEvent()    {}

// Update dispatches ev to the matching operation. SubmitRequested blocks
// until the submission finishes.
func (c *Controller) Update(ctx context.Context, ev Event) error {
	switch e := ev.(type) {
	case FileSelected:
		return c.SelectFile(e.File)
	case CompressionToggled:
		c.ToggleCompression(e.Enabled)
	case DurationChanged:
		c.SetDuration(e.Value)
	case CRFChanged:
		c.SetCRF(e.Value)
	case BitrateChanged:
		c.SetBitrate(e.Value)
	case SubmitRequested:
		return c.Submit(ctx)
	default:
		return pkgerrors.Errorf("unknown event %T", ev)
	}
	return nil
}

package models

import (
	"io"
	"os"
)

const (
	EndpointUpload   = "/upload"
	EndpointCompress = "/compress"

	SuffixFixed      = "_fixed"
	SuffixCompressed = "_compressed"

	ProgressProcessing  = "Processing your file..."
	ProgressCompressing = "Compressing video (this may take a few minutes)..."
)

// SelectedFile is the file the user picked. Path points at its content.
type SelectedFile struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
	Path string `json:"path"`
}

// NewSelectedFile stats path and returns a SelectedFile for it.
func NewSelectedFile(path string) (*SelectedFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	return &SelectedFile{
		Name: info.Name(),
		Size: info.Size(),
		Path: path,
	}, nil
}

func (f *SelectedFile) Open() (io.ReadCloser, error) {
	return os.Open(f.Path)
}

// ProcessingRequest is built once per submit and never reused.
type ProcessingRequest struct {
	File     SelectedFile `json:"file"`
	Duration float64      `json:"duration"`
	Compress bool         `json:"compress"`
	CRF      string       `json:"crf,omitempty"`
	Bitrate  string       `json:"bitrate,omitempty"`
}

func (r *ProcessingRequest) Endpoint() string {
	if r.Compress {
		return EndpointCompress
	}
	return EndpointUpload
}

func (r *ProcessingRequest) DownloadSuffix() string {
	if r.Compress {
		return SuffixCompressed
	}
	return SuffixFixed
}

func (r *ProcessingRequest) ProgressText() string {
	if r.Compress {
		return ProgressCompressing
	}
	return ProgressProcessing
}

type StatusKind string

const (
	StatusSuccess StatusKind = "success"
	StatusError   StatusKind = "error"
)

type StatusMessage struct {
	Kind StatusKind `json:"kind"`
	Text string     `json:"text"`
}

func (s *StatusMessage) IsError() bool   { return s != nil && s.Kind == StatusError }
func (s *StatusMessage) IsSuccess() bool { return s != nil && s.Kind == StatusSuccess }

package tui

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/nijaru/webm-fix/controller"
	"github.com/nijaru/webm-fix/models"
	"github.com/nijaru/webm-fix/processing"
	"github.com/sirupsen/logrus"
)

type recordingProcessor struct {
	requests []models.ProcessingRequest
}

func (p *recordingProcessor) Process(ctx context.Context, req *models.ProcessingRequest) (*processing.Result, error) {
	p.requests = append(p.requests, *req)
	return &processing.Result{Data: []byte("ok")}, nil
}

type memorySink struct {
	names []string
}

func (s *memorySink) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	s.names = append(s.names, name)
	return "mem://" + name, nil
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func setup(t *testing.T, filename string) (*Model, *recordingProcessor, *memorySink) {
	t.Helper()
	path := filepath.Join(t.TempDir(), filename)
	if err := os.WriteFile(path, []byte("video"), 0644); err != nil {
		t.Fatal(err)
	}

	p := &recordingProcessor{}
	s := &memorySink{}
	ctrl := controller.New(controller.Options{
		Processor: p,
		Sink:      s,
		Logger:    quietLogger(),
		CRF:       "30",
		Bitrate:   "1M",
	})
	return New(context.Background(), ctrl, path, quietLogger()), p, s
}

func key(k tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: k}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(m *Model, msgs ...tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	for _, msg := range msgs {
		_, cmd = m.Update(msg)
	}
	return cmd
}

// drain runs cmd and feeds every message it produces back into m.
func drain(m *Model, cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			drain(m, c)
		}
	case nil:
	default:
		m.Update(msg)
	}
}

func TestNewSelectsInitialFile(t *testing.T) {
	m, _, _ := setup(t, "clip.webm")

	if m.view.File == nil || m.view.File.Name != "clip.webm" {
		t.Fatalf("expected clip.webm to be selected, got %+v", m.view.File)
	}
	if !strings.Contains(m.View(), "clip.webm (5 Bytes)") {
		t.Errorf("expected file info in view, got:\n%s", m.View())
	}
}

func TestRejectedFileShowsStatus(t *testing.T) {
	m, _, _ := setup(t, "clip.mp4")

	if m.view.File != nil {
		t.Fatal("expected no selection")
	}
	if !strings.Contains(m.View(), "Please select a .webm file") {
		t.Errorf("expected rejection message, got:\n%s", m.View())
	}
}

func TestMissingFile(t *testing.T) {
	m, _, _ := setup(t, "clip.webm")
	m.inputs[fieldFile].SetValue("/does/not/exist.webm")

	send(m, key(tea.KeyEnter))
	if !strings.Contains(m.errorMsg, "Cannot open") {
		t.Errorf("expected open error, got %q", m.errorMsg)
	}
}

func TestFocusSkipsHiddenCompressionFields(t *testing.T) {
	m, _, _ := setup(t, "clip.webm")

	send(m, key(tea.KeyTab), key(tea.KeyTab))
	if m.focus != fieldCompress {
		t.Fatalf("expected compress focus, got %d", m.focus)
	}
	send(m, key(tea.KeyTab))
	if m.focus != fieldSubmit {
		t.Errorf("expected submit focus with compression off, got %d", m.focus)
	}

	send(m, key(tea.KeyShiftTab), key(tea.KeySpace))
	if !m.view.Compress {
		t.Fatal("expected space to enable compression")
	}
	send(m, key(tea.KeyTab))
	if m.focus != fieldCRF {
		t.Errorf("expected crf focus with compression on, got %d", m.focus)
	}
	if !strings.Contains(m.View(), "Bitrate:") {
		t.Errorf("expected compression fields in view, got:\n%s", m.View())
	}
}

func TestSubmitUpload(t *testing.T) {
	m, p, s := setup(t, "clip.webm")

	send(m, key(tea.KeyTab), runes("7.5"))
	if m.view.Duration != "7.5" {
		t.Fatalf("expected duration 7.5, got %q", m.view.Duration)
	}

	cmd := send(m, key(tea.KeyCtrlS))
	if !m.loading {
		t.Fatal("expected loading after submit")
	}
	if !strings.Contains(m.View(), models.ProgressProcessing) {
		t.Errorf("expected progress text, got:\n%s", m.View())
	}
	drain(m, cmd)

	if m.loading {
		t.Error("expected loading to end")
	}
	if len(p.requests) != 1 || p.requests[0].Duration != 7.5 || p.requests[0].Compress {
		t.Fatalf("unexpected requests %+v", p.requests)
	}
	if len(s.names) != 1 || s.names[0] != "clip_fixed.webm" {
		t.Errorf("unexpected downloads %v", s.names)
	}
	if !strings.Contains(m.View(), "File processed successfully! Download started.") {
		t.Errorf("expected success message, got:\n%s", m.View())
	}
}

func TestSubmitCompressFromButton(t *testing.T) {
	m, p, s := setup(t, "clip.webm")

	send(m, key(tea.KeyTab), runes("2"), key(tea.KeyTab), key(tea.KeySpace))
	send(m, key(tea.KeyTab), key(tea.KeyTab), key(tea.KeyTab))
	if m.focus != fieldSubmit {
		t.Fatalf("expected submit focus, got %d", m.focus)
	}

	drain(m, send(m, key(tea.KeyEnter)))

	if len(p.requests) != 1 {
		t.Fatalf("expected one request, got %d", len(p.requests))
	}
	req := p.requests[0]
	if !req.Compress || req.CRF != "30" || req.Bitrate != "1M" {
		t.Errorf("unexpected request %+v", req)
	}
	if s.names[0] != "clip_compressed.webm" {
		t.Errorf("unexpected download %s", s.names[0])
	}
}

func TestInvalidDuration(t *testing.T) {
	m, p, _ := setup(t, "clip.webm")

	send(m, key(tea.KeyTab), runes("-1"))
	drain(m, send(m, key(tea.KeyCtrlS)))

	if len(p.requests) != 0 {
		t.Error("expected no request for a negative duration")
	}
	if !strings.Contains(m.View(), "Please enter a valid duration value") {
		t.Errorf("expected duration error, got:\n%s", m.View())
	}
}

func TestQuit(t *testing.T) {
	m, _, _ := setup(t, "clip.webm")

	cmd := send(m, key(tea.KeyEsc))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected QuitMsg")
	}
	if m.View() != "" {
		t.Error("expected empty view after quitting")
	}
}

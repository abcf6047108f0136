package download

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// maxDuplicates bounds the " (n)" search for a free name.
const maxDuplicates = 1000

// Sink publishes a finished download under name and returns where it
// ended up.
type Sink interface {
	Save(ctx context.Context, name string, r io.Reader) (string, error)
}

// DirSink saves downloads into a local directory.
type DirSink struct {
	dir    string
	logger *logrus.Logger
}

var _ Sink = (*DirSink)(nil)

func NewDirSink(dir string, logger *logrus.Logger) *DirSink {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &DirSink{dir: dir, logger: logger}
}

// Save streams r into a temporary file in the target directory and then
// renames it to the first free variant of name. The temporary file is
// removed on every path.
func (s *DirSink) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", pkgerrors.Wrapf(err, "create download directory %s", s.dir)
	}

	tmp, err := os.CreateTemp(s.dir, ".webmfix-*.part")
	if err != nil {
		return "", pkgerrors.Wrap(err, "create temporary file")
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, &ctxReader{ctx: ctx, r: r}); err != nil {
		tmp.Close()
		return "", pkgerrors.Wrap(err, "write temporary file")
	}
	if err := tmp.Close(); err != nil {
		return "", pkgerrors.Wrap(err, "close temporary file")
	}

	target, err := s.freeName(filepath.Base(name))
	if err != nil {
		return "", err
	}
	if err := os.Rename(tmpPath, target); err != nil {
		return "", pkgerrors.Wrapf(err, "rename to %s", target)
	}

	s.logger.WithField("path", target).Info("Download saved")
	return target, nil
}

// freeName returns name inside the sink directory, adding " (n)" before
// the extension while the path is taken.
func (s *DirSink) freeName(name string) (string, error) {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	for i := 0; i < maxDuplicates; i++ {
		candidate := name
		if i > 0 {
			candidate = fmt.Sprintf("%s (%d)%s", stem, i, ext)
		}
		path := filepath.Join(s.dir, candidate)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return path, nil
		} else if err != nil {
			return "", pkgerrors.Wrapf(err, "stat %s", path)
		}
	}
	return "", pkgerrors.Errorf("no free name for %s in %s", name, s.dir)
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

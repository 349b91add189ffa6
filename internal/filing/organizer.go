// Package filing computes deterministic on-disk locations for accepted
// documents and moves uploads into place. The tree is
// <base>/<MonthName>-<Year>/<pan>/<kind>_<originalFilename>.
package filing

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// Organizer files accepted documents under a base directory. The clock is
// injectable so tests can pin the month; production uses time.Now, so the
// month segment is computed per request rather than once at boot.
type Organizer struct {
	baseDir string
	now     func() time.Time
}

// Option configures an Organizer.
type Option func(*Organizer)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(o *Organizer) { o.now = now }
}

func NewOrganizer(baseDir string, opts ...Option) *Organizer {
	o := &Organizer{baseDir: baseDir, now: time.Now}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// ResolvePath returns the final storage path for a document of the given
// kind ("notice" or "reply") belonging to pan.
func (o *Organizer) ResolvePath(pan, kind, originalFilename string) string {
	t := o.now()
	monthDir := fmt.Sprintf("%s-%d", t.Month().String(), t.Year())
	return filepath.Join(o.baseDir, monthDir, pan, kind+"_"+originalFilename)
}

// Place moves the uploaded temp file to its resolved location, creating
// directories as needed. Rename is attempted first; a copy-and-remove
// fallback covers cross-device temp dirs. The caller must only persist the
// database row after Place succeeds.
func (o *Organizer) Place(tempPath, finalPath string) error {
	if err := os.MkdirAll(filepath.Dir(finalPath), 0o755); err != nil {
		return fmt.Errorf("create filing directory: %w", err)
	}
	if err := os.Rename(tempPath, finalPath); err == nil {
		return nil
	}
	if err := copyFile(tempPath, finalPath); err != nil {
		return fmt.Errorf("move upload into place: %w", err)
	}
	if err := os.Remove(tempPath); err != nil {
		return fmt.Errorf("remove temp upload after copy: %w", err)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	return out.Close()
}

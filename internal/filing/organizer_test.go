package filing

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestResolvePath(t *testing.T) {
	o := NewOrganizer("/data/file",
		WithClock(fixedClock(time.Date(2024, time.March, 12, 10, 0, 0, 0, time.UTC))))

	got := o.ResolvePath("ABCDE1234F", "notice", "scan.pdf")
	assert.Equal(t, filepath.Join("/data/file", "March-2024", "ABCDE1234F", "notice_scan.pdf"), got)
}

func TestResolvePath_MonthComputedPerRequest(t *testing.T) {
	now := time.Date(2024, time.March, 31, 23, 0, 0, 0, time.UTC)
	o := NewOrganizer("/data/file", WithClock(func() time.Time { return now }))

	first := o.ResolvePath("ABCDE1234F", "notice", "a.pdf")
	assert.Contains(t, first, "March-2024")

	// The month segment must track the clock, not the boot month.
	now = now.Add(2 * time.Hour)
	second := o.ResolvePath("ABCDE1234F", "notice", "b.pdf")
	assert.Contains(t, second, "April-2024")
}

func TestPlace_MovesFileAndCreatesDirs(t *testing.T) {
	base := t.TempDir()
	o := NewOrganizer(base,
		WithClock(fixedClock(time.Date(2024, time.March, 12, 0, 0, 0, 0, time.UTC))))

	temp := filepath.Join(t.TempDir(), "upload-123.pdf")
	require.NoError(t, os.WriteFile(temp, []byte("%PDF-1.4 content"), 0o644))

	final := o.ResolvePath("ABCDE1234F", "reply", "answer.pdf")
	require.NoError(t, o.Place(temp, final))

	data, err := os.ReadFile(final)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4 content"), data)

	_, err = os.Stat(temp)
	assert.True(t, os.IsNotExist(err), "temp file should be gone after Place")
}

func TestPlace_IdempotentDirCreation(t *testing.T) {
	base := t.TempDir()
	o := NewOrganizer(base,
		WithClock(fixedClock(time.Date(2024, time.March, 12, 0, 0, 0, 0, time.UTC))))

	for _, name := range []string{"one.pdf", "two.pdf"} {
		temp := filepath.Join(t.TempDir(), name)
		require.NoError(t, os.WriteFile(temp, []byte("x"), 0o644))
		require.NoError(t, o.Place(temp, o.ResolvePath("ABCDE1234F", "notice", name)))
	}
}

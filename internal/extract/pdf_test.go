package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taxdesk/taxcase-tracker/internal/common"
)

type mockRunner struct {
	stdout []byte
	stderr []byte
	err    error

	gotName string
	gotArgs []string
}

func (m *mockRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	m.gotName = name
	m.gotArgs = args
	return m.stdout, m.stderr, m.err
}

func TestText(t *testing.T) {
	runner := &mockRunner{stdout: []byte("  extracted notice text\n")}
	e := NewExtractor("pdftotext", WithRunner(runner))

	text, err := e.Text(context.Background(), "/tmp/scan.pdf")
	require.NoError(t, err)
	assert.Equal(t, "extracted notice text", text)

	assert.Equal(t, "pdftotext", runner.gotName)
	assert.Equal(t, []string{"-layout", "-enc", "UTF-8", "-eol", "unix", "/tmp/scan.pdf", "-"}, runner.gotArgs)
}

func TestText_CustomBinary(t *testing.T) {
	runner := &mockRunner{stdout: []byte("text")}
	e := NewExtractor("/opt/poppler/bin/pdftotext", WithRunner(runner))

	_, err := e.Text(context.Background(), "/tmp/scan.pdf")
	require.NoError(t, err)
	assert.Equal(t, "/opt/poppler/bin/pdftotext", runner.gotName)
}

func TestText_CommandFailure(t *testing.T) {
	runner := &mockRunner{
		stderr: []byte("Syntax Error: Document stream is empty"),
		err:    errors.New("exit status 1"),
	}
	e := NewExtractor("", WithRunner(runner))

	_, err := e.Text(context.Background(), "/tmp/broken.pdf")
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrExtraction))
	assert.Equal(t, 400, common.HTTPStatusCode(err))
	assert.Contains(t, err.Error(), "Document stream is empty")
}

func TestText_EmptyOutput(t *testing.T) {
	runner := &mockRunner{stdout: []byte("   \n\n")}
	e := NewExtractor("", WithRunner(runner))

	_, err := e.Text(context.Background(), "/tmp/blank.pdf")
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrExtraction))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcde...(truncated)", truncate("abcdefghij", 5))
}

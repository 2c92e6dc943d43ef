package upload

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	app_errors "github.com/docchat/cli/internal/errors"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestInspect(t *testing.T) {
	t.Run("Text", func(t *testing.T) {
		path := writeFile(t, "notes.txt", "hello world")

		f, err := Inspect(path, nil)
		require.NoError(t, err)
		assert.Equal(t, "notes.txt", f.Name)
		assert.Equal(t, int64(11), f.Size)
		assert.Zero(t, f.Pages)
		assert.Equal(t, "notes.txt (11 B)", f.Describe())
	})

	t.Run("ExtensionIsCaseInsensitive", func(t *testing.T) {
		path := writeFile(t, "NOTES.TXT", "x")

		_, err := Inspect(path, DefaultExtensions)
		assert.NoError(t, err)
	})

	t.Run("RejectsExtension", func(t *testing.T) {
		path := writeFile(t, "image.png", "x")

		_, err := Inspect(path, DefaultExtensions)
		require.Error(t, err)
		assert.True(t, app_errors.IsValidation(err))
		assert.Equal(t, "only PDF and txt files are allowed.", err.Error())
	})

	t.Run("Missing", func(t *testing.T) {
		_, err := Inspect(filepath.Join(t.TempDir(), "gone.txt"), nil)
		require.Error(t, err)
		assert.True(t, app_errors.IsValidation(err))
	})

	t.Run("Directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "folder.txt")
		require.NoError(t, os.Mkdir(dir, 0o750))

		_, err := Inspect(dir, nil)
		require.Error(t, err)
		assert.Equal(t, "folder.txt is not a regular file.", err.Error())
	})

	t.Run("Empty", func(t *testing.T) {
		path := writeFile(t, "empty.txt", "")

		_, err := Inspect(path, nil)
		require.Error(t, err)
		assert.Equal(t, "empty.txt is empty.", err.Error())
	})

	t.Run("PDF", func(t *testing.T) {
		path := filepath.Join("testdata", "one-page.pdf")

		f, err := Inspect(path, nil)
		require.NoError(t, err)
		assert.Equal(t, "one-page.pdf", f.Name)
		assert.Equal(t, 1, f.Pages)
		assert.Equal(t, "one-page.pdf (436 B, 1 page)", f.Describe())
	})

	t.Run("PDFWithoutHeader", func(t *testing.T) {
		path := writeFile(t, "fake.pdf", "plain text pretending to be a PDF")

		_, err := Inspect(path, nil)
		require.Error(t, err)
		assert.True(t, app_errors.IsValidation(err))
		assert.Equal(t, "fake.pdf is not a readable PDF: missing %PDF- header", err.Error())
	})

	t.Run("BlankPath", func(t *testing.T) {
		_, err := Inspect("  ", nil)
		require.Error(t, err)
		assert.Equal(t, "Please select a file first.", err.Error())
	})
}

func TestFile_Describe(t *testing.T) {
	assert.Equal(t, "a.pdf (1.5 kB, 1 page)", File{Name: "a.pdf", Size: 1500, Pages: 1}.Describe())
	assert.Equal(t, "b.pdf (2.0 MB, 12 pages)", File{Name: "b.pdf", Size: 2_000_000, Pages: 12}.Describe())
}

func TestDescribeExtensions(t *testing.T) {
	assert.Equal(t, "PDF", describeExtensions([]string{".pdf"}))
	assert.Equal(t, "PDF and txt", describeExtensions([]string{".pdf", ".txt"}))
	assert.Equal(t, "PDF, txt and md", describeExtensions([]string{".PDF", ".txt", ".md"}))
}

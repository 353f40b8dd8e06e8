package extract

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported(".pdf"))
	assert.True(t, Supported(".TXT"))
	assert.True(t, Supported(".docx"))
	assert.True(t, Supported(".csv"))
	assert.False(t, Supported(".exe"))
	assert.False(t, Supported(""))
}

func TestTextWholeFileIsOneSection(t *testing.T) {
	path := writeFile(t, "notes.txt", []byte("Tuition is due at the start of each semester.\nScholarships apply automatically."))

	sections, err := Text(path)
	require.NoError(t, err)
	require.Len(t, sections, 1)
	assert.Equal(t, 1, sections[0].Page)
	assert.Contains(t, sections[0].Text, "Scholarships apply automatically.")
}

func TestTextBlankFileYieldsNothing(t *testing.T) {
	path := writeFile(t, "blank.txt", []byte("  \n\t "))
	sections, err := Text(path)
	require.NoError(t, err)
	assert.Empty(t, sections)
}

func TestCSVRowsBecomeLabeledSections(t *testing.T) {
	path := writeFile(t, "majors.csv", []byte(
		"major,cutoff_score,quota\n"+
			"Computer Science,26.5,120\n"+
			"Economics,24.0,200\n"))

	sections, err := CSV(path)
	require.NoError(t, err)
	require.Len(t, sections, 2)
	assert.Equal(t, 1, sections[0].Page)
	assert.Contains(t, sections[0].Text, "major: Computer Science")
	assert.Contains(t, sections[0].Text, "cutoff_score: 26.5")
	assert.Equal(t, 2, sections[1].Page)
	assert.Contains(t, sections[1].Text, "quota: 200")
}

func TestCSVHeaderOnlyYieldsNothing(t *testing.T) {
	path := writeFile(t, "empty.csv", []byte("major,cutoff_score\n"))
	sections, err := CSV(path)
	require.NoError(t, err)
	assert.Empty(t, sections)
}

func TestDOCXExtractsParagraphs(t *testing.T) {
	body := `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Admission requirements for 2026.</w:t></w:r></w:p>
    <w:p><w:r><w:t>Applicants need a high school diploma.</w:t></w:r></w:p>
  </w:body>
</w:document>`

	path := filepath.Join(t.TempDir(), "guide.docx")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(body))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	sections, err := DOCX(path)
	require.NoError(t, err)
	require.Len(t, sections, 1)
	assert.Contains(t, sections[0].Text, "Admission requirements for 2026.")
	assert.Contains(t, sections[0].Text, "Applicants need a high school diploma.")
}

func TestDOCXWithoutDocumentXMLFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.docx")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	_, err = zw.Create("word/other.xml")
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	_, err = DOCX(path)
	assert.Error(t, err)
}

func TestFileDispatchesByExtension(t *testing.T) {
	path := writeFile(t, "notes.txt", []byte("dormitory rules"))

	sections, err := File(path, ".TXT")
	require.NoError(t, err)
	require.Len(t, sections, 1)

	_, err = File(path, ".xyz")
	assert.Error(t, err)
}

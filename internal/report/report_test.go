package report

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-wers-reader/internal/reconcile"
)

func sampleReport(text2 *string) Report {
	return Report{
		Metrics: reconcile.Metrics{
			TotalCodes:   2,
			TotalMinutes: 8,
			TotalHours:   0.13,
			BaseDays:     0.02,
			BufferDays:   1,
			TotalDays:    1.02,
		},
		Text1: "1. Power Moonroof - CJTAB",
		Text2: text2,
		Results: []reconcile.Result{
			{Code: "CJTAB", Label: reconcile.LabelDoc1Only, Description: "Power Moonroof"},
			{Code: "ZZZZZ", Label: reconcile.LabelVociOnly},
		},
	}
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, sampleReport(nil)))

	want := "WERS Code Analysis Results\n" +
		"=========================\n\n" +
		"CFD Completion Time Estimate (WERS Codes Only):\n" +
		"-----------------------------------------\n" +
		"Total WERS Codes (excluding VOCI-only): 2\n" +
		"Total Minutes (4 mins per code): 8\n" +
		"Total Hours: 0.13\n" +
		"Total Working Days (8hrs/day + 1 day buffer): 1.02\n" +
		"Note: 1 day buffer is added for entity and MPV$ codes\n\n" +
		"Extracted Text from Document 1:\n" +
		"--------------------------\n" +
		"1. Power Moonroof - CJTAB\n\n" +
		"Analysis Results:\n" +
		"----------------\n" +
		"CJTAB: WERS Document 1 Only - Power Moonroof\n" +
		"ZZZZZ: VOCI Only - \n"

	assert.Equal(t, want, buf.String())
}

func TestRender_SecondDocument(t *testing.T) {
	text2 := "1. Second document"
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, sampleReport(&text2)))

	out := buf.String()
	assert.Contains(t, out, "Extracted Text from Document 2:\n--------------------------\n1. Second document\n\nAnalysis Results:")
	assert.Less(t, strings.Index(out, "Document 1:"), strings.Index(out, "Document 2:"))
}

func TestRender_EmptySecondDocumentStillListed(t *testing.T) {
	empty := ""
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, sampleReport(&empty)))
	assert.Contains(t, buf.String(), "Extracted Text from Document 2:")
}

func TestFormatDecimal(t *testing.T) {
	assert.Equal(t, "0.0", FormatDecimal(0))
	assert.Equal(t, "1.0", FormatDecimal(1))
	assert.Equal(t, "1.02", FormatDecimal(1.02))
	assert.Equal(t, "0.13", FormatDecimal(0.13))
	assert.Equal(t, "12.5", FormatDecimal(12.5))
}

func TestWriter_WriteAndOpen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports", "nested")
	w, err := NewWriter(Config{Directory: dir})
	require.NoError(t, err)
	assert.DirExists(t, dir)

	first, err := w.Write(sampleReport(nil))
	require.NoError(t, err)
	second, err := w.Write(sampleReport(nil))
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID, "every write gets its own artifact")
	assert.NotEqual(t, first.Path, second.Path)
	_, err = uuid.Parse(first.ID)
	assert.NoError(t, err)
	assert.Equal(t, filepath.Join(w.Directory(), first.ID+".txt"), first.Path)

	f, err := w.Open(first.ID)
	require.NoError(t, err)
	defer f.Close()

	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "WERS Code Analysis Results\n"))
}

func TestWriter_OpenErrors(t *testing.T) {
	w, err := NewWriter(Config{Directory: t.TempDir()})
	require.NoError(t, err)

	_, err = w.Open("../../etc/passwd")
	assert.ErrorIs(t, err, ErrInvalidArtifactID)

	_, err = w.Open(strings.ToUpper(uuid.NewString()))
	assert.ErrorIs(t, err, ErrInvalidArtifactID)

	_, err = w.Open(uuid.NewString())
	assert.ErrorIs(t, err, ErrArtifactNotFound)
}

func TestNewWriter_Errors(t *testing.T) {
	_, err := NewWriter(Config{})
	assert.Error(t, err)

	file := filepath.Join(t.TempDir(), "plain-file")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	_, err = NewWriter(Config{Directory: filepath.Join(file, "sub")})
	assert.Error(t, err)
}

package main

import (
	"bytes"
	"testing"
	"time"

	"quizforge/internal/domain"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	pdfData = []byte("%PDF-1.4\n")
	pngData = []byte("\x89PNG\r\n\x1a\n\x00\x00")
)

func TestLoadUploads(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/notes/bio.pdf", pdfData, 0o644))

	uploads, err := loadUploads(fs, []string{"/notes/bio.pdf"})
	require.NoError(t, err)
	require.Len(t, uploads, 1)
	assert.Equal(t, "bio.pdf", uploads[0].Filename)
	assert.Equal(t, pdfData, uploads[0].Data)

	_, err = loadUploads(fs, []string{"/notes/missing.pdf"})
	assert.ErrorContains(t, err, "missing.pdf")
}

func TestClassifyUploads(t *testing.T) {
	tests := []struct {
		name    string
		uploads []domain.Upload
		want    domain.SourceKind
		wantErr bool
	}{
		{"none", nil, domain.SourceText, false},
		{"pdfs", []domain.Upload{{Filename: "a.pdf", Data: pdfData}, {Filename: "b", Data: pdfData}}, domain.SourcePDF, false},
		{"images", []domain.Upload{{Filename: "a.png", Data: pngData}}, domain.SourceImages, false},
		{"mixed", []domain.Upload{{Filename: "a.pdf", Data: pdfData}, {Filename: "a.png", Data: pngData}}, "", true},
		{"other", []domain.Upload{{Filename: "a.zip", Data: []byte("PK\x03\x04")}}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := classifyUploads(tt.uploads)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWriteArtifact(t *testing.T) {
	fs := afero.NewMemMapFs()
	cmd := &cobra.Command{}
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	data := []byte("{\n  \"questions\": []\n}")

	require.NoError(t, writeArtifact(cmd, fs, "", "quiz_from_pdf.json", data))
	assert.Equal(t, string(data)+"\n", stdout.String())

	require.NoError(t, writeArtifact(cmd, fs, "/out/my.json", "quiz_from_pdf.json", data))
	got, err := afero.ReadFile(fs, "/out/my.json")
	require.NoError(t, err)
	assert.Equal(t, data, got)

	require.NoError(t, writeArtifact(cmd, fs, "/quizzes/", "quiz_from_images.json", data))
	exists, err := afero.Exists(fs, "/quizzes/quiz_from_images.json")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestGenerateParams_TemperatureOnlyWhenSet(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.Flags().AddFlagSet(generateCmd.Flags())

	params, err := generateParams(cmd)
	require.NoError(t, err)
	assert.Nil(t, params.Temperature)
	assert.Equal(t, 5, params.Count)

	require.NoError(t, cmd.Flags().Set("temperature", "0.4"))
	require.NoError(t, cmd.Flags().Set("count", "12"))
	params, err = generateParams(cmd)
	require.NoError(t, err)
	require.NotNil(t, params.Temperature)
	assert.InDelta(t, 0.4, *params.Temperature, 1e-9)
	assert.Equal(t, 12, params.Count)
}

func TestPrintHistory(t *testing.T) {
	cmd := &cobra.Command{}
	var out bytes.Buffer
	cmd.SetOut(&out)

	require.NoError(t, printHistory(cmd, []*domain.GenerationRecord{{
		Timestamp:  time.Date(2024, 5, 17, 9, 30, 0, 0, time.UTC),
		Source:     domain.SourcePDF,
		Difficulty: domain.DifficultyHard,
		Model:      "gpt-4o-mini",
		Quiz:       domain.Quiz{Questions: []domain.Question{{Question: "What is the mitochondria known as?"}}},
	}}))

	assert.Contains(t, out.String(), "FIRST QUESTION")
	assert.Contains(t, out.String(), "What is the mitochondria known as?")
	assert.Contains(t, out.String(), "gpt-4o-mini")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
}

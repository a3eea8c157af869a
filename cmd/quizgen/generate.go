package main

import (
	"context"
	"fmt"
	"path/filepath"

	"quizforge/internal/bootstrap"
	"quizforge/internal/domain"
	"quizforge/internal/logger"
	"quizforge/internal/service"
	"quizforge/internal/util"
	"quizforge/internal/validation"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate [files...]",
	Short: "Generate a quiz and write it as JSON",
	Long: "Generate a quiz from PDF files, image files or --text and write the download artifact " +
		"to stdout or --out. PDFs and images cannot be mixed in one run.",
	RunE: runGenerate,
}

func init() {
	f := generateCmd.Flags()
	f.String("difficulty", "easy", "easy, medium or hard")
	f.Int("count", 5, "number of questions (1-50)")
	f.String("guidance", "", "extra instructions for the question writer")
	f.String("model", "", "model override (must be in llm.allowed_models)")
	f.Float64("temperature", -1, "sampling temperature override in [0, 1]")
	f.String("mode", "ocr", "image mode: ocr or vision")
	f.String("text", "", "generate from this text instead of files")
	f.StringP("out", "o", "", "write the quiz to this file instead of stdout")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	params, err := generateParams(cmd)
	if err != nil {
		return err
	}
	text, _ := cmd.Flags().GetString("text")
	modeFlag, _ := cmd.Flags().GetString("mode")
	mode, err := service.ParseImageMode(modeFlag)
	if err != nil {
		return err
	}
	if text == "" && len(args) == 0 {
		return fmt.Errorf("pass at least one file or --text")
	}

	uploads, err := loadUploads(appFs, args)
	if err != nil {
		return err
	}
	source, err := classifyUploads(uploads)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	components, err := bootstrap.Build(ctx, cfg, bootstrap.Options{InMemorySessions: true})
	if err != nil {
		return err
	}
	defer components.Close()

	sessionID := util.NewULID()
	var result *service.GenerateResult
	switch {
	case text != "":
		result, err = components.Service.GenerateFromText(ctx, sessionID, text, params)
	case source == domain.SourcePDF:
		result, err = components.Service.GenerateFromPDF(ctx, sessionID, uploads, params)
	default:
		result, err = components.Service.GenerateFromImages(ctx, sessionID, uploads, mode, params)
	}
	if err != nil {
		return err
	}
	for _, w := range result.Warnings {
		fmt.Fprintln(cmd.ErrOrStderr(), "warning:", w)
	}

	name, data, err := components.Service.Download(ctx, sessionID)
	if err != nil {
		return err
	}
	out, _ := cmd.Flags().GetString("out")
	return writeArtifact(cmd, appFs, out, name, data)
}

func generateParams(cmd *cobra.Command) (validation.GenerateParams, error) {
	f := cmd.Flags()
	difficulty, _ := f.GetString("difficulty")
	count, _ := f.GetInt("count")
	guidance, _ := f.GetString("guidance")
	model, _ := f.GetString("model")
	params := validation.GenerateParams{
		Difficulty: difficulty,
		Count:      count,
		Guidance:   guidance,
		Model:      model,
	}
	if f.Changed("temperature") {
		temp, err := f.GetFloat64("temperature")
		if err != nil {
			return params, err
		}
		params.Temperature = &temp
	}
	return params, nil
}

func loadUploads(fs afero.Fs, paths []string) ([]domain.Upload, error) {
	uploads := make([]domain.Upload, 0, len(paths))
	for _, p := range paths {
		data, err := afero.ReadFile(fs, p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		uploads = append(uploads, domain.Upload{Filename: filepath.Base(p), Data: data})
	}
	return uploads, nil
}

// classifyUploads decides between the PDF and image pipelines. No uploads means text.
func classifyUploads(uploads []domain.Upload) (domain.SourceKind, error) {
	var pdfs, images int
	for _, u := range uploads {
		mimeType := util.DetectMIME(u.Filename, u.ContentType, u.Data)
		switch {
		case util.IsPDF(mimeType):
			pdfs++
		case util.IsImage(mimeType):
			images++
		default:
			return "", fmt.Errorf("%s is neither a PDF nor an image (%s)", u.Filename, mimeType)
		}
	}
	switch {
	case pdfs > 0 && images > 0:
		return "", fmt.Errorf("cannot mix PDFs and images in one quiz")
	case pdfs > 0:
		return domain.SourcePDF, nil
	case images > 0:
		return domain.SourceImages, nil
	default:
		return domain.SourceText, nil
	}
}

// writeArtifact writes data to out, or to stdout when out is empty.
// An out ending in a path separator is a directory that receives the default file name.
func writeArtifact(cmd *cobra.Command, fs afero.Fs, out, name string, data []byte) error {
	if out == "" {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return err
	}
	if isDir, _ := afero.IsDir(fs, out); isDir || out[len(out)-1] == filepath.Separator {
		if err := fs.MkdirAll(out, 0o755); err != nil {
			return err
		}
		out = filepath.Join(out, name)
	}
	if err := afero.WriteFile(fs, out, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	fmt.Fprintln(cmd.ErrOrStderr(), "wrote", out)
	return nil
}

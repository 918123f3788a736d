package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/disintegration/imaging"

	"github.com/joseph-ayodele/winelabel/internal/common"
	"github.com/joseph-ayodele/winelabel/internal/entity"
)

type Config struct {
	Tesseract     string // binary name or absolute path; if empty -> "tesseract"
	TesseractLang string // default "eng"
	TessdataDir   string
	PSM           int // page segmentation mode, default 6
	MinWidth      int // images narrower than this are upscaled, default 1200
	TempDir       string
}

// TesseractRecognizer reads label text with a local tesseract install. It
// is the offline alternative to the cloud vision backend.
type TesseractRecognizer struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewTesseractRecognizer(cfg Config, logger *slog.Logger) *TesseractRecognizer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	if cfg.PSM <= 0 {
		cfg.PSM = 6
	}
	if cfg.MinWidth <= 0 {
		cfg.MinWidth = 1200
	}
	return &TesseractRecognizer{cfg: cfg, runner: ExecRunner{Logger: logger}, logger: logger}
}

// WithRunner swaps the command runner (tests).
func (t *TesseractRecognizer) WithRunner(r Runner) *TesseractRecognizer {
	t.runner = r
	return t
}

// Recognize runs tesseract once per image. Failures are reported per image;
// only a missing binary fails the whole call.
func (t *TesseractRecognizer) Recognize(ctx context.Context, images [][]byte) ([]entity.RawRecognition, error) {
	out := make([]entity.RawRecognition, len(images))
	for i, img := range images {
		out[i].Index = i
		start := time.Now()
		text, err := t.recognizeOne(ctx, img)
		if errors.Is(err, exec.ErrNotFound) {
			return nil, common.NewServiceUnavailableError("tesseract", err.Error())
		}
		if err != nil {
			t.logger.Warn("ocr.tesseract.image_failed", "index", i, "error", err)
			out[i].Err = err
			continue
		}
		out[i].Text = text
		t.logger.Debug("ocr.tesseract.image_ok",
			"index", i,
			"text_len", len(text),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	}
	return out, nil
}

func (t *TesseractRecognizer) recognizeOne(ctx context.Context, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}
	img = t.prepare(img)

	dir, err := os.MkdirTemp(t.cfg.TempDir, "winelabel-ocr-*")
	if err != nil {
		return "", fmt.Errorf("temp dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(dir) }()

	path := filepath.Join(dir, "label.png")
	if err := imaging.Save(img, path); err != nil {
		return "", fmt.Errorf("write preprocessed image: %w", err)
	}

	// tesseract <file> stdout -l <lang> --psm <n>
	args := []string{path, "stdout", "-l", t.cfg.TesseractLang, "--psm", strconv.Itoa(t.cfg.PSM)}
	if t.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", t.cfg.TessdataDir)
	}
	stdout, stderr, err := t.runner.Run(ctx, t.cfg.Tesseract, args...)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w: %s", err, truncate(string(stderr), 512))
	}
	return string(stdout), nil
}

// prepare upscales small photos and converts to high-contrast grey.
func (t *TesseractRecognizer) prepare(img image.Image) image.Image {
	if w := img.Bounds().Dx(); w > 0 && w < t.cfg.MinWidth {
		img = imaging.Resize(img, t.cfg.MinWidth, 0, imaging.Lanczos)
	}
	gray := imaging.Grayscale(img)
	return imaging.AdjustContrast(gray, 20)
}

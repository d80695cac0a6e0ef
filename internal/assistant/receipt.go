package assistant

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mmynk/splitledger/internal/models"
)

// NoticeUnsupportedImage is returned for uploads that are not a supported image type.
const NoticeUnsupportedImage Notice = "unsupported image type"

var supportedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

const (
	transcribePrompt = "Transcribe all text printed on this receipt, line by line. Return only the text."
	extractPrompt    = `Extract the receipt fields as JSON:
{"merchant":"","total":0,"currency":"","date":"YYYY-MM-DD","items":[{"name":"","price":0,"quantity":1}],"notes":""}
Return only JSON.`
)

// ReceiptReader reads receipt photos. Its output is advisory text for the
// user to edit; it is never applied to the ledger directly.
type ReceiptReader struct {
	completer Completer
	logger    *slog.Logger
}

// NewReceiptReader creates a reader. A nil completer always yields fallbacks.
func NewReceiptReader(c Completer, logger *slog.Logger) *ReceiptReader {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReceiptReader{completer: c, logger: logger}
}

// Read returns the receipt's text, or an empty string with a notice.
// The media type is sniffed when mediaType is empty.
func (r *ReceiptReader) Read(ctx context.Context, image []byte, mediaType string) (string, Notice) {
	text, notice := r.ask(ctx, image, mediaType, transcribePrompt)
	return strings.TrimSpace(text), notice
}

// Extract asks for structured fields. The result is a suggestion only.
func (r *ReceiptReader) Extract(ctx context.Context, image []byte, mediaType string) (models.ReceiptExtraction, Notice) {
	text, notice := r.ask(ctx, image, mediaType, extractPrompt)
	if notice != "" {
		return models.ReceiptExtraction{}, notice
	}
	var out models.ReceiptExtraction
	if err := json.Unmarshal([]byte(extractJSON(text)), &out); err != nil {
		r.logger.Warn("Malformed receipt extraction", "error", err)
		return models.ReceiptExtraction{}, NoticeUnavailable
	}
	return out, ""
}

func (r *ReceiptReader) ask(ctx context.Context, image []byte, mediaType, prompt string) (string, Notice) {
	if mediaType == "" {
		mediaType = http.DetectContentType(image)
	}
	mediaType, _, _ = strings.Cut(mediaType, ";")
	if !supportedImageTypes[mediaType] {
		return "", NoticeUnsupportedImage
	}
	if r.completer == nil {
		return "", NoticeOffline
	}

	text, err := r.completer.Complete(ctx, Request{
		Messages: []Message{{
			Role: "user",
			Content: []ContentBlock{
				{
					Type: "image",
					Source: &ImageSource{
						Type:      "base64",
						MediaType: mediaType,
						Data:      base64.StdEncoding.EncodeToString(image),
					},
				},
				{Type: "text", Text: prompt},
			},
		}},
	})
	if err != nil {
		if errors.Is(err, ErrNoCredential) {
			return "", NoticeOffline
		}
		r.logger.Warn("Receipt reading failed", "error", err)
		return "", NoticeUnavailable
	}
	return text, ""
}

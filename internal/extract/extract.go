// Package extract turns uploaded file bytes into raw text.
package extract

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"

	"bookrag/internal/domain"
)

// Text extracts raw text from an uploaded file. PDF uploads go through
// document-text extraction; everything else is treated as plain text.
func Text(data []byte, mimeType string) (string, error) {
	if !isPDF(mimeType) {
		return string(data), nil
	}
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: opening pdf: %v", domain.ErrExtraction, err)
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("%w: reading pdf text: %v", domain.ErrExtraction, err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("%w: reading pdf buffer: %v", domain.ErrExtraction, err)
	}
	return buf.String(), nil
}

func isPDF(mimeType string) bool {
	mt := strings.ToLower(mimeType)
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = mt[:i]
	}
	return strings.TrimSpace(mt) == "application/pdf"
}

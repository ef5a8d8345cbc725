package ingestion

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

func parsePDF(path string) (*Document, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf %s: %w", path, err)
	}
	defer f.Close()

	plain, err := reader.GetPlainText()
	if err != nil {
		return nil, fmt.Errorf("failed to read pdf text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return nil, fmt.Errorf("failed to read pdf buffer: %w", err)
	}

	text := strings.TrimSpace(buf.String())
	if text == "" {
		return nil, fmt.Errorf("no text extracted from pdf %s", path)
	}

	return &Document{
		Title: TitleFromFilename(path),
		Text:  text,
	}, nil
}

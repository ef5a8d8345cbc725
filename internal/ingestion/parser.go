package ingestion

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Document is a parsed source file ready for chunking.
type Document struct {
	Path        string
	Title       string
	Text        string
	Headings    []string
	ContentHash string
}

var supportedExtensions = map[string]bool{
	".md":  true,
	".mdx": true,
	".txt": true,
	".pdf": true,
}

func IsSupported(path string) bool {
	return supportedExtensions[strings.ToLower(filepath.Ext(path))]
}

type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

// ContentHash returns the hex SHA-256 of data.
func ContentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func (p *Parser) ParseFile(path string) (*Document, error) {
	path = strings.TrimSpace(path)

	ext := strings.ToLower(filepath.Ext(path))
	if !supportedExtensions[ext] {
		return nil, fmt.Errorf("unsupported file type %s (expected .md, .mdx, .txt or .pdf)", ext)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}

	if len(data) == 0 {
		return nil, fmt.Errorf("file %s is empty", path)
	}

	var doc *Document
	switch ext {
	case ".md", ".mdx":
		doc, err = ParseMarkdown(string(data), path)
	case ".pdf":
		doc, err = parsePDF(path)
	default:
		doc = &Document{Title: TitleFromFilename(path), Text: strings.TrimSpace(string(data))}
	}
	if err != nil {
		return nil, err
	}

	doc.Path = path
	doc.ContentHash = ContentHash(data)
	return doc, nil
}

// TitleFromFilename turns "module-1_ros-basics.mdx" into "Module 1 Ros Basics".
func TitleFromFilename(path string) string {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	name = strings.NewReplacer("-", " ", "_", " ").Replace(name)
	return cases.Title(language.English).String(strings.Join(strings.Fields(name), " "))
}

package ingestion

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleChapter = `---
title: "Module 1: The Robotic Nervous System"
sidebar_position: 1
---

import Tabs from '@theme/Tabs';

# ROS 2 Fundamentals

ROS 2 uses **DDS** for transport. See [the docs](https://docs.ros.org) for details.

## Nodes and Topics

- A node is a process.
- Topics carry ` + "`std_msgs/String`" + ` messages.

` + "```bash\n# not a heading\nros2 run demo_nodes_cpp talker\n```" + `

<Tabs>
![diagram](./img/graph.png)
</Tabs>

### Services

1. Request
2. Response
`

func TestParseMarkdown_FrontmatterTitle(t *testing.T) {
	doc, err := ParseMarkdown(sampleChapter, "docs/module-1/intro.mdx")
	if err != nil {
		t.Fatalf("ParseMarkdown() failed: %v", err)
	}

	if doc.Title != "Module 1: The Robotic Nervous System" {
		t.Errorf("Expected frontmatter title, got %q", doc.Title)
	}

	wantHeadings := []string{"ROS 2 Fundamentals", "Nodes and Topics", "Services"}
	if strings.Join(doc.Headings, "|") != strings.Join(wantHeadings, "|") {
		t.Errorf("Expected headings %v, got %v", wantHeadings, doc.Headings)
	}
}

func TestParseMarkdown_CleansText(t *testing.T) {
	doc, err := ParseMarkdown(sampleChapter, "intro.mdx")
	if err != nil {
		t.Fatalf("ParseMarkdown() failed: %v", err)
	}

	for _, want := range []string{
		"ROS 2 uses DDS for transport.",
		"See the docs for details.",
		"Topics carry std_msgs/String messages.",
		codeBlockPlaceholder,
		imagePlaceholder,
		"Nodes and Topics",
	} {
		if !strings.Contains(doc.Text, want) {
			t.Errorf("Expected text to contain %q, got:\n%s", want, doc.Text)
		}
	}

	for _, unwanted := range []string{"import Tabs", "<Tabs>", "sidebar_position", "ros2 run", "## ", "**", "- A node"} {
		if strings.Contains(doc.Text, unwanted) {
			t.Errorf("Expected text without %q, got:\n%s", unwanted, doc.Text)
		}
	}
}

func TestParseMarkdown_TitleFallbacks(t *testing.T) {
	tests := []struct {
		name    string
		content string
		path    string
		want    string
	}{
		{"first h1", "Intro text.\n\n# Chapter 1: *Intro*\n\nBody.", "ch1.md", "Chapter 1: Intro"},
		{"filename", "Only a paragraph.", "docs/module-2_digital-twin.md", "Module 2 Digital Twin"},
		{"h2 is not a title", "## Setup\n\nBody.", "getting-started.md", "Getting Started"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := ParseMarkdown(tt.content, tt.path)
			if err != nil {
				t.Fatalf("ParseMarkdown() failed: %v", err)
			}
			if doc.Title != tt.want {
				t.Errorf("Expected title %q, got %q", tt.want, doc.Title)
			}
		})
	}
}

func TestSectionHeading(t *testing.T) {
	text := "Intro\n\nFirst part.\n\nSetup\n\nInstall things.\n\nUsage\n\nRun things."
	headings := []string{"Intro", "Setup", "Usage"}

	tests := []struct {
		offset int
		want   string
	}{
		{0, ""},
		{5, "Intro"},
		{strings.Index(text, "Install"), "Setup"},
		{len(text) + 10, "Usage"},
	}

	for _, tt := range tests {
		if got := SectionHeading(text, tt.offset, headings); got != tt.want {
			t.Errorf("SectionHeading(%d): expected %q, got %q", tt.offset, tt.want, got)
		}
	}
}

func TestParser_ParseFile(t *testing.T) {
	dir := t.TempDir()

	txt := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(txt, []byte("  plain notes  \n"), 0o644); err != nil {
		t.Fatal(err)
	}
	empty := filepath.Join(dir, "empty.md")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	parser := NewParser()

	doc, err := parser.ParseFile(txt)
	if err != nil {
		t.Fatalf("ParseFile() failed: %v", err)
	}
	if doc.Text != "plain notes" || doc.Title != "Notes" || doc.Path != txt {
		t.Errorf("Unexpected document %+v", doc)
	}
	if doc.ContentHash != ContentHash([]byte("  plain notes  \n")) {
		t.Errorf("Expected content hash of file bytes, got %s", doc.ContentHash)
	}

	if _, err := parser.ParseFile(empty); err == nil {
		t.Error("Expected error for empty file")
	}
	if _, err := parser.ParseFile(filepath.Join(dir, "book.docx")); err == nil {
		t.Error("Expected error for unsupported extension")
	}
}

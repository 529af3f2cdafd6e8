package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/onedollarbanana/FictionForge-sub002/internal/application/importer"
)

type parseOutput struct {
	Format   string                   `json:"format"`
	Chapters []importer.ParsedChapter `json:"chapters"`
}

func TestRunParse(t *testing.T) {
	dir := t.TempDir()
	textFile := filepath.Join(dir, "draft.txt")
	if err := os.WriteFile(textFile, []byte("Chapter 1\nIt began.\n\nChapter 2\nIt ended."), 0o644); err != nil {
		t.Fatal(err)
	}
	brokenEpub := filepath.Join(dir, "book.epub")
	if err := os.WriteFile(brokenEpub, []byte("not a zip"), 0o644); err != nil {
		t.Fatal(err)
	}

	imp := importer.New(nil, importer.Options{MaxUploadBytes: 1024})

	tests := []struct {
		name       string
		path       string
		stdin      string
		opts       parseOptions
		wantTitles []string
		wantErr    string
	}{
		{
			name:       "text file by extension",
			path:       textFile,
			wantTitles: []string{"Chapter 1", "Chapter 2"},
		},
		{
			name:       "stdin defaults to text",
			path:       "-",
			stdin:      "Opening\n---CHAPTER---\nSecond part\nbody",
			wantTitles: []string{"Opening", "Second part"},
		},
		{
			name:    "explicit format overrides extension",
			path:    textFile,
			opts:    parseOptions{format: "epub"},
			wantErr: "hint:",
		},
		{
			name:    "broken epub carries hint",
			path:    brokenEpub,
			wantErr: "Re-export it as EPUB",
		},
		{
			name:    "whitespace input is empty",
			path:    "-",
			stdin:   "   \n\n  ",
			wantErr: "No chapter text was found",
		},
		{
			name:    "unknown extension",
			path:    filepath.Join(dir, "notes.rtf"),
			wantErr: "pass --format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			err := runParse(context.Background(), strings.NewReader(tt.stdin), &out, imp, tt.path, tt.opts)
			if tt.wantErr != "" {
				if err == nil {
					t.Fatalf("expected error containing %q, got output %s", tt.wantErr, out.String())
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("error %q does not contain %q", err.Error(), tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			var got parseOutput
			if err := json.Unmarshal(out.Bytes(), &got); err != nil {
				t.Fatalf("output is not JSON: %v\n%s", err, out.String())
			}
			if len(got.Chapters) != len(tt.wantTitles) {
				t.Fatalf("expected %d chapters, got %d", len(tt.wantTitles), len(got.Chapters))
			}
			for i, title := range tt.wantTitles {
				if got.Chapters[i].Title != title {
					t.Errorf("chapter %d: expected title %q, got %q", i, title, got.Chapters[i].Title)
				}
			}
		})
	}
}

func TestRunParseTooLarge(t *testing.T) {
	imp := importer.New(nil, importer.Options{MaxUploadBytes: 16})
	err := runParse(context.Background(), strings.NewReader(strings.Repeat("word ", 10)), &bytes.Buffer{}, imp, "-", parseOptions{})
	if !errors.Is(err, importer.ErrUploadTooLarge) {
		t.Fatalf("expected ErrUploadTooLarge, got %v", err)
	}
}

func TestTokenCommand(t *testing.T) {
	root := newRootCmd()

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"token"})
	if err := root.Execute(); err == nil {
		t.Fatal("expected missing --user to fail")
	}
}

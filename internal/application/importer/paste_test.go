package importer

import (
	"errors"
	"testing"
)

func TestParsePastedText(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []ParsedChapter
	}{
		{
			name: "chapter lines",
			text: "Chapter 1\nfoo\n\nChapter 2\nbar",
			want: []ParsedChapter{
				{Title: "Chapter 1", HTML: "<p>foo</p>"},
				{Title: "Chapter 2", HTML: "<p>bar</p>"},
			},
		},
		{
			name: "no markers",
			text: "just some prose, no markers",
			want: []ParsedChapter{
				{Title: "Chapter 1", HTML: "<p>just some prose, no markers</p>"},
			},
		},
		{
			name: "single chapter line is not a boundary",
			text: "Chapter 1\nOnly one heading here.",
			want: []ParsedChapter{
				{Title: "Chapter 1", HTML: "<p>Chapter 1<br>Only one heading here.</p>"},
			},
		},
		{
			name: "marker takes priority over chapter lines",
			text: "The Beginning\nChapter 1 is mentioned\n---CHAPTER---\nThe End\nChapter 2 is mentioned",
			want: []ParsedChapter{
				{Title: "The Beginning", HTML: "<p>Chapter 1 is mentioned</p>"},
				{Title: "The End", HTML: "<p>Chapter 2 is mentioned</p>"},
			},
		},
		{
			name: "marker segment with only a title reuses it",
			text: "Interlude\n---CHAPTER---\nPart Two\nbody",
			want: []ParsedChapter{
				{Title: "Interlude", HTML: "<p>Interlude</p>"},
				{Title: "Part Two", HTML: "<p>body</p>"},
			},
		},
		{
			name: "case insensitive with titles and crlf",
			text: "CHAPTER 1: Rain\r\nwet\r\n\r\nchapter 2 - Sun\r\ndry",
			want: []ParsedChapter{
				{Title: "CHAPTER 1: Rain", HTML: "<p>wet</p>"},
				{Title: "chapter 2 - Sun", HTML: "<p>dry</p>"},
			},
		},
		{
			name: "long leading text kept as preface",
			text: "A note before the story begins.\n\nChapter 1\nfoo\nChapter 2\nbar",
			want: []ParsedChapter{
				{Title: "Preface", HTML: "<p>A note before the story begins.</p>"},
				{Title: "Chapter 1", HTML: "<p>foo</p>"},
				{Title: "Chapter 2", HTML: "<p>bar</p>"},
			},
		},
		{
			name: "short byline kept as preface",
			text: "By Jane Doe\n\nChapter 1\nfoo\nChapter 2\nbar",
			want: []ParsedChapter{
				{Title: "Preface", HTML: "<p>By Jane Doe</p>"},
				{Title: "Chapter 1", HTML: "<p>foo</p>"},
				{Title: "Chapter 2", HTML: "<p>bar</p>"},
			},
		},
		{
			name: "blank leading lines add no preface",
			text: "\n  \nChapter 1\nfoo\nChapter 2\nbar",
			want: []ParsedChapter{
				{Title: "Chapter 1", HTML: "<p>foo</p>"},
				{Title: "Chapter 2", HTML: "<p>bar</p>"},
			},
		},
		{
			name: "paragraphs line breaks and escaping",
			text: "line one\nline two\n\n\n<b>&</b>",
			want: []ParsedChapter{
				{Title: "Chapter 1", HTML: "<p>line one<br>line two</p><p>&lt;b&gt;&amp;&lt;/b&gt;</p>"},
			},
		},
	}

	imp := New(nil, Options{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := imp.ParsePastedText(tt.text)
			if err != nil {
				t.Fatalf("ParsePastedText: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d chapters %v, want %d", len(got), titles(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("chapter %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestParsePastedText_Empty(t *testing.T) {
	imp := New(nil, Options{})
	for _, text := range []string{"", "  \n\t\n", "---CHAPTER---\n---CHAPTER---"} {
		_, err := imp.ParsePastedText(text)
		var emptyErr *EmptyResultError
		if !errors.As(err, &emptyErr) {
			t.Errorf("ParsePastedText(%q) err = %v, want *EmptyResultError", text, err)
		}
	}
}

func TestParsePastedText_OutputDoesNotResplit(t *testing.T) {
	imp := New(nil, Options{})
	chapters, err := imp.ParsePastedText("Prologue\nChapter 9 begins\n\nChapter 10 follows\n---CHAPTER---\nEpilogue\nfin")
	if err != nil {
		t.Fatalf("ParsePastedText: %v", err)
	}
	if len(chapters) != 2 {
		t.Fatalf("got %d chapters, want 2", len(chapters))
	}
	for _, ch := range chapters {
		again, err := imp.ParsePastedText(ch.HTML)
		if err != nil {
			t.Fatalf("ParsePastedText(%q): %v", ch.HTML, err)
		}
		if len(again) != 1 {
			t.Errorf("re-parsing %q produced %d chapters, want 1", ch.HTML, len(again))
		}
	}
}

package access

import (
	"context"
	"errors"
	"testing"

	"github.com/onedollarbanana/FictionForge-sub002/internal/domain/entity"
)

func TestImportWarmerHandleImported(t *testing.T) {
	chapters := func() *fakeChapters {
		return &fakeChapters{byID: map[string]*entity.Chapter{
			"c-1":   {ID: "c-1", StoryID: "story-1", Content: "<p>one two three</p>"},
			"c-2":   {ID: "c-2", StoryID: "story-1", Content: "<p>four five</p>"},
			"other": {ID: "other", StoryID: "story-2", Content: "<p>elsewhere</p>"},
		}}
	}

	tests := []struct {
		name         string
		chapters     *fakeChapters
		authors      *fakeAuthors
		storyID      string
		chapterIDs   []string
		wantErr      bool
		wantChapters int
		wantWords    int
		wantMissing  int
	}{
		{
			name:         "counts imported chapters",
			chapters:     chapters(),
			authors:      &fakeAuthors{authors: map[string]string{"story-1": "author-1"}},
			storyID:      "story-1",
			chapterIDs:   []string{"c-1", "c-2"},
			wantChapters: 2,
			wantWords:    5,
		},
		{
			name:         "skips missing and foreign chapters",
			chapters:     chapters(),
			authors:      &fakeAuthors{authors: map[string]string{"story-1": "author-1"}},
			storyID:      "story-1",
			chapterIDs:   []string{"c-1", "gone", "other"},
			wantChapters: 1,
			wantWords:    3,
			wantMissing:  2,
		},
		{
			name:        "deleted story is not retried",
			chapters:    chapters(),
			authors:     &fakeAuthors{authors: map[string]string{}},
			storyID:     "story-1",
			chapterIDs:  []string{"c-1", "c-2"},
			wantMissing: 2,
		},
		{
			name:       "author lookup failure is retried",
			chapters:   chapters(),
			authors:    &fakeAuthors{err: errBackend},
			storyID:    "story-1",
			chapterIDs: []string{"c-1"},
			wantErr:    true,
		},
		{
			name:       "chapter lookup failure is retried",
			chapters:   &fakeChapters{byID: map[string]*entity.Chapter{}, err: errBackend},
			authors:    &fakeAuthors{authors: map[string]string{"story-1": "author-1"}},
			storyID:    "story-1",
			chapterIDs: []string{"c-1"},
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewImportWarmer(tt.chapters, tt.authors)
			got, err := w.HandleImported(context.Background(), tt.storyID, "author-1", tt.chapterIDs)
			if tt.wantErr {
				if !errors.Is(err, errBackend) {
					t.Fatalf("expected backend error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Chapters != tt.wantChapters || got.Words != tt.wantWords || len(got.Missing) != tt.wantMissing {
				t.Errorf("got %+v, want chapters=%d words=%d missing=%d",
					got, tt.wantChapters, tt.wantWords, tt.wantMissing)
			}
			if tt.authors.calls != 1 {
				t.Errorf("expected one author lookup, got %d", tt.authors.calls)
			}
		})
	}
}

package access

import (
	"context"
	"errors"
	"testing"

	"github.com/onedollarbanana/FictionForge-sub002/internal/domain/entity"
	apperrors "github.com/onedollarbanana/FictionForge-sub002/pkg/errors"
)

const (
	storyID  = "story-1"
	authorID = "author-1"
	readerID = "reader-1"
)

func newTestGate(ch *entity.Chapter, subs *fakeSubs, authors *fakeAuthors, comments *fakeComments) *Gate {
	chapters := &fakeChapters{byID: map[string]*entity.Chapter{ch.ID: ch}}
	return NewGate(chapters, authors, subs, comments)
}

func gatedChapter(tier *entity.Tier) *entity.Chapter {
	return &entity.Chapter{
		ID:           "chapter-1",
		StoryID:      storyID,
		Title:        "One",
		Content:      "<p>The quick brown fox</p><p>jumps over</p>",
		RequiredTier: tier,
		Status:       entity.ChapterStatusPublished,
	}
}

func TestResolveChapterAccess(t *testing.T) {
	tests := []struct {
		name      string
		required  *entity.Tier
		requester string
		subs      []*entity.Subscription
		want      bool
	}{
		{name: "no requirement anonymous", required: nil, requester: "", want: true},
		{name: "empty requirement", required: tierPtr(""), requester: "", want: true},
		{name: "anonymous gated", required: tierPtr(entity.TierSupporter), requester: "", want: false},
		{name: "author bypass", required: tierPtr(entity.TierPatron), requester: authorID, want: true},
		{name: "no subscription", required: tierPtr(entity.TierSupporter), requester: readerID, want: false},
		{
			name:      "enthusiast below patron",
			required:  tierPtr(entity.TierPatron),
			requester: readerID,
			subs:      []*entity.Subscription{sub(readerID, authorID, entity.TierEnthusiast, entity.SubscriptionStatusActive)},
			want:      false,
		},
		{
			name:      "patron meets patron",
			required:  tierPtr(entity.TierPatron),
			requester: readerID,
			subs:      []*entity.Subscription{sub(readerID, authorID, entity.TierPatron, entity.SubscriptionStatusActive)},
			want:      true,
		},
		{
			name:      "higher tier satisfies lower",
			required:  tierPtr(entity.TierSupporter),
			requester: readerID,
			subs:      []*entity.Subscription{sub(readerID, authorID, entity.TierEnthusiast, entity.SubscriptionStatusActive)},
			want:      true,
		},
		{
			name:      "canceled subscription ignored",
			required:  tierPtr(entity.TierSupporter),
			requester: readerID,
			subs:      []*entity.Subscription{sub(readerID, authorID, entity.TierPatron, entity.SubscriptionStatusCanceled)},
			want:      false,
		},
		{
			name:      "subscription to another author",
			required:  tierPtr(entity.TierSupporter),
			requester: readerID,
			subs:      []*entity.Subscription{sub(readerID, "author-2", entity.TierPatron, entity.SubscriptionStatusActive)},
			want:      false,
		},
		{
			name:      "best of several subscriptions",
			required:  tierPtr(entity.TierEnthusiast),
			requester: readerID,
			subs: []*entity.Subscription{
				sub(readerID, authorID, entity.TierSupporter, entity.SubscriptionStatusActive),
				sub(readerID, authorID, entity.TierPatron, entity.SubscriptionStatusActive),
			},
			want: true,
		},
		{
			name:      "unknown required tier denies",
			required:  tierPtr("platinum"),
			requester: readerID,
			subs:      []*entity.Subscription{sub(readerID, authorID, entity.TierPatron, entity.SubscriptionStatusActive)},
			want:      false,
		},
		{
			name:      "unknown subscription tier ignored",
			required:  tierPtr(entity.TierSupporter),
			requester: readerID,
			subs:      []*entity.Subscription{sub(readerID, authorID, "gold", entity.SubscriptionStatusActive)},
			want:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gate := newTestGate(gatedChapter(tt.required),
				&fakeSubs{subs: tt.subs},
				&fakeAuthors{authors: map[string]string{storyID: authorID}},
				&fakeComments{count: 4})

			got, err := gate.ResolveChapterAccess(context.Background(), "chapter-1", tt.requester)
			if err != nil {
				t.Fatalf("ResolveChapterAccess: %v", err)
			}
			if got.HasAccess != tt.want {
				t.Errorf("HasAccess = %v, want %v", got.HasAccess, tt.want)
			}
			if got.WordCount != 6 || got.CommentCount != 4 {
				t.Errorf("metadata = (%d, %d), want (6, 4)", got.WordCount, got.CommentCount)
			}
		})
	}
}

func TestResolveChapterAccess_FailsClosed(t *testing.T) {
	required := tierPtr(entity.TierSupporter)
	active := []*entity.Subscription{sub(readerID, authorID, entity.TierPatron, entity.SubscriptionStatusActive)}

	t.Run("author lookup failure", func(t *testing.T) {
		gate := newTestGate(gatedChapter(required), &fakeSubs{subs: active},
			&fakeAuthors{err: errBackend}, &fakeComments{count: 2})
		got, err := gate.ResolveChapterAccess(context.Background(), "chapter-1", readerID)
		if err != nil {
			t.Fatalf("lookup failure must not propagate: %v", err)
		}
		if got.HasAccess {
			t.Error("HasAccess = true, want denial on lookup failure")
		}
		if got.WordCount != 6 || got.CommentCount != 2 {
			t.Errorf("metadata = (%d, %d), want (6, 2)", got.WordCount, got.CommentCount)
		}
	})

	t.Run("subscription lookup failure", func(t *testing.T) {
		gate := newTestGate(gatedChapter(required), &fakeSubs{err: errBackend},
			&fakeAuthors{authors: map[string]string{storyID: authorID}}, &fakeComments{})
		got, err := gate.ResolveChapterAccess(context.Background(), "chapter-1", readerID)
		if err != nil {
			t.Fatalf("lookup failure must not propagate: %v", err)
		}
		if got.HasAccess {
			t.Error("HasAccess = true, want denial on lookup failure")
		}
	})

	t.Run("missing story", func(t *testing.T) {
		gate := newTestGate(gatedChapter(required), &fakeSubs{subs: active},
			&fakeAuthors{authors: map[string]string{}}, &fakeComments{})
		got, err := gate.ResolveChapterAccess(context.Background(), "chapter-1", readerID)
		if err != nil {
			t.Fatalf("ResolveChapterAccess: %v", err)
		}
		if got.HasAccess {
			t.Error("HasAccess = true, want denial")
		}
	})

	t.Run("comment count failure is best effort", func(t *testing.T) {
		gate := newTestGate(gatedChapter(nil), &fakeSubs{},
			&fakeAuthors{}, &fakeComments{err: errBackend})
		got, err := gate.ResolveChapterAccess(context.Background(), "chapter-1", "")
		if err != nil {
			t.Fatalf("ResolveChapterAccess: %v", err)
		}
		if !got.HasAccess || got.CommentCount != 0 {
			t.Errorf("got %+v, want access with zero comments", got)
		}
	})
}

func TestResolveChapterAccess_MetadataIndependentOfDecision(t *testing.T) {
	ch := gatedChapter(tierPtr(entity.TierPatron))
	gate := newTestGate(ch, &fakeSubs{},
		&fakeAuthors{authors: map[string]string{storyID: authorID}}, &fakeComments{count: 9})

	denied, err := gate.ResolveChapterAccess(context.Background(), ch.ID, readerID)
	if err != nil {
		t.Fatal(err)
	}
	granted, err := gate.ResolveChapterAccess(context.Background(), ch.ID, authorID)
	if err != nil {
		t.Fatal(err)
	}
	if denied.HasAccess || !granted.HasAccess {
		t.Fatalf("decisions = (%v, %v), want (false, true)", denied.HasAccess, granted.HasAccess)
	}
	if denied.WordCount != granted.WordCount || denied.CommentCount != granted.CommentCount {
		t.Errorf("metadata differs: denied=%+v granted=%+v", denied, granted)
	}
}

func TestResolveChapterAccess_NotFound(t *testing.T) {
	gate := newTestGate(gatedChapter(nil), &fakeSubs{}, &fakeAuthors{}, &fakeComments{})
	_, err := gate.ResolveChapterAccess(context.Background(), "missing", "")
	if !errors.Is(err, apperrors.ErrChapterNotFound) {
		t.Fatalf("err = %v, want ErrChapterNotFound", err)
	}
}

func TestResolveChapterAccess_ChapterLookupError(t *testing.T) {
	gate := NewGate(&fakeChapters{err: errBackend}, &fakeAuthors{}, &fakeSubs{}, &fakeComments{})
	_, err := gate.ResolveChapterAccess(context.Background(), "chapter-1", readerID)
	if !errors.Is(err, errBackend) {
		t.Fatalf("err = %v, want wrapped backend error", err)
	}
}

func TestReadChapter(t *testing.T) {
	authors := map[string]string{storyID: authorID}

	t.Run("denied view has no content", func(t *testing.T) {
		ch := gatedChapter(tierPtr(entity.TierPatron))
		gate := newTestGate(ch, &fakeSubs{}, &fakeAuthors{authors: authors}, &fakeComments{})
		view, err := gate.ReadChapter(context.Background(), ch.ID, readerID)
		if err != nil {
			t.Fatalf("ReadChapter: %v", err)
		}
		if view.Decision.HasAccess || view.Chapter.Content != "" {
			t.Errorf("view = %+v, want withheld content", view.Chapter)
		}
		if ch.Content == "" {
			t.Error("stored chapter must not be mutated")
		}
	})

	t.Run("granted view keeps content", func(t *testing.T) {
		ch := gatedChapter(nil)
		gate := newTestGate(ch, &fakeSubs{}, &fakeAuthors{authors: authors}, &fakeComments{})
		view, err := gate.ReadChapter(context.Background(), ch.ID, "")
		if err != nil {
			t.Fatalf("ReadChapter: %v", err)
		}
		if view.Chapter.Content != ch.Content {
			t.Errorf("content = %q", view.Chapter.Content)
		}
	})

	t.Run("draft hidden from readers", func(t *testing.T) {
		ch := gatedChapter(nil)
		ch.Status = entity.ChapterStatusDraft
		gate := newTestGate(ch, &fakeSubs{}, &fakeAuthors{authors: authors}, &fakeComments{})
		if _, err := gate.ReadChapter(context.Background(), ch.ID, readerID); !errors.Is(err, apperrors.ErrChapterNotFound) {
			t.Fatalf("err = %v, want ErrChapterNotFound", err)
		}
		view, err := gate.ReadChapter(context.Background(), ch.ID, authorID)
		if err != nil {
			t.Fatalf("author ReadChapter: %v", err)
		}
		if !view.Decision.HasAccess {
			t.Error("author should see own draft")
		}
	})
}

func TestResolveChapterAccess_DraftVisibleOnlyToAuthor(t *testing.T) {
	authors := map[string]string{storyID: authorID}

	tests := []struct {
		name        string
		requesterID string
		wantErr     error
	}{
		{name: "anonymous", requesterID: "", wantErr: apperrors.ErrChapterNotFound},
		{name: "reader", requesterID: readerID, wantErr: apperrors.ErrChapterNotFound},
		{name: "author", requesterID: authorID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ch := gatedChapter(nil)
			ch.Status = entity.ChapterStatusDraft
			gate := newTestGate(ch, &fakeSubs{}, &fakeAuthors{authors: authors}, &fakeComments{count: 3})

			decision, err := gate.ResolveChapterAccess(context.Background(), ch.ID, tt.requesterID)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				if decision != nil {
					t.Errorf("decision = %+v, want nil", decision)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveChapterAccess: %v", err)
			}
			if !decision.HasAccess || decision.WordCount == 0 {
				t.Errorf("decision = %+v, want author access with metadata", decision)
			}
		})
	}
}

func TestResolveChapterAccess_DraftAuthorLookupFailureHides(t *testing.T) {
	ch := gatedChapter(nil)
	ch.Status = entity.ChapterStatusDraft
	gate := newTestGate(ch, &fakeSubs{}, &fakeAuthors{err: errBackend}, &fakeComments{})

	if _, err := gate.ResolveChapterAccess(context.Background(), ch.ID, authorID); !errors.Is(err, apperrors.ErrChapterNotFound) {
		t.Fatalf("err = %v, want ErrChapterNotFound", err)
	}
}

package access

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCachedAuthorResolver(t *testing.T) {
	t.Run("second lookup is served from cache", func(t *testing.T) {
		next := &fakeAuthors{authors: map[string]string{storyID: authorID}}
		cache := &fakeCache{data: map[string][]byte{}}
		r := NewCachedAuthorResolver(cache, next, time.Minute)

		for i := 0; i < 2; i++ {
			got, err := r.AuthorOf(context.Background(), storyID)
			if err != nil {
				t.Fatalf("AuthorOf: %v", err)
			}
			if got != authorID {
				t.Errorf("author = %q", got)
			}
		}
		if next.calls != 1 || cache.loads != 1 {
			t.Errorf("calls = %d, loads = %d, want 1 and 1", next.calls, cache.loads)
		}
	})

	t.Run("cache failure falls back to repository", func(t *testing.T) {
		next := &fakeAuthors{authors: map[string]string{storyID: authorID}}
		r := NewCachedAuthorResolver(&fakeCache{err: errBackend}, next, time.Minute)
		got, err := r.AuthorOf(context.Background(), storyID)
		if err != nil {
			t.Fatalf("AuthorOf: %v", err)
		}
		if got != authorID {
			t.Errorf("author = %q", got)
		}
	})

	t.Run("missing story is not retried", func(t *testing.T) {
		next := &fakeAuthors{authors: map[string]string{}}
		r := NewCachedAuthorResolver(&fakeCache{data: map[string][]byte{}}, next, time.Minute)
		_, err := r.AuthorOf(context.Background(), storyID)
		if !errors.Is(err, ErrStoryNotFound) {
			t.Fatalf("err = %v, want ErrStoryNotFound", err)
		}
		if next.calls != 1 {
			t.Errorf("calls = %d, want 1", next.calls)
		}
	})
}

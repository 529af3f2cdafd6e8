package access

import (
	"context"
	"errors"
	"time"

	"github.com/onedollarbanana/FictionForge-sub002/internal/domain/entity"
)

var errBackend = errors.New("connection refused")

type fakeChapters struct {
	byID map[string]*entity.Chapter
	err  error
}

func (f *fakeChapters) Create(_ context.Context, ch *entity.Chapter) error {
	f.byID[ch.ID] = ch
	return nil
}

func (f *fakeChapters) GetByID(_ context.Context, id string) (*entity.Chapter, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byID[id], nil
}

func (f *fakeChapters) ListByStory(_ context.Context, storyID string) ([]*entity.Chapter, error) {
	var out []*entity.Chapter
	for _, ch := range f.byID {
		if ch.StoryID == storyID {
			out = append(out, ch)
		}
	}
	return out, nil
}

func (f *fakeChapters) GetNextSeqNum(_ context.Context, _ string) (int, error) {
	return len(f.byID) + 1, nil
}

type fakeAuthors struct {
	authors map[string]string
	err     error
	calls   int
}

func (f *fakeAuthors) AuthorOf(_ context.Context, storyID string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	id, ok := f.authors[storyID]
	if !ok {
		return "", ErrStoryNotFound
	}
	return id, nil
}

type fakeSubs struct {
	subs []*entity.Subscription
	err  error
}

func (f *fakeSubs) ListActive(_ context.Context, subscriberID, authorID string) ([]*entity.Subscription, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*entity.Subscription
	for _, s := range f.subs {
		if s.SubscriberID == subscriberID && s.AuthorID == authorID {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakeComments struct {
	count int64
	err   error
}

func (f *fakeComments) CountTopLevel(_ context.Context, _ string) (int64, error) {
	return f.count, f.err
}

type fakeCache struct {
	data  map[string][]byte
	err   error
	loads int
}

func (f *fakeCache) GetOrLoadSafe(_ context.Context, key string, _ time.Duration, loader func() (interface{}, error)) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	if v, ok := f.data[key]; ok {
		return v, nil
	}
	f.loads++
	v, err := loader()
	if err != nil {
		return nil, err
	}
	b := []byte(`"` + v.(string) + `"`)
	f.data[key] = b
	return b, nil
}

func tierPtr(t entity.Tier) *entity.Tier {
	return &t
}

func sub(subscriber, author string, tier entity.Tier, status entity.SubscriptionStatus) *entity.Subscription {
	return &entity.Subscription{
		SubscriberID: subscriber,
		AuthorID:     author,
		Tier:         tier,
		Status:       status,
	}
}

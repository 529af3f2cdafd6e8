package router

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/onedollarbanana/FictionForge-sub002/internal/application/access"
	"github.com/onedollarbanana/FictionForge-sub002/internal/domain/entity"
	"github.com/onedollarbanana/FictionForge-sub002/internal/infrastructure/messaging"
)

type memChapters struct {
	mu      sync.Mutex
	byID    map[string]*entity.Chapter
	nextID  int
	failAt  int
	creates int
}

func newMemChapters(chapters ...*entity.Chapter) *memChapters {
	m := &memChapters{byID: map[string]*entity.Chapter{}}
	for _, ch := range chapters {
		m.byID[ch.ID] = ch
	}
	return m
}

func (m *memChapters) Create(_ context.Context, ch *entity.Chapter) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creates++
	if m.failAt > 0 && m.creates == m.failAt {
		return errors.New("insert failed")
	}
	m.nextID++
	ch.ID = fmt.Sprintf("new-%d", m.nextID)
	m.byID[ch.ID] = ch
	return nil
}

func (m *memChapters) GetByID(_ context.Context, id string) (*entity.Chapter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byID[id], nil
}

func (m *memChapters) ListByStory(_ context.Context, storyID string) ([]*entity.Chapter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.Chapter
	for _, ch := range m.byID {
		if ch.StoryID == storyID {
			cp := *ch
			cp.Content = ""
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SeqNum < out[j].SeqNum })
	return out, nil
}

func (m *memChapters) GetNextSeqNum(_ context.Context, storyID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	highest := 0
	for _, ch := range m.byID {
		if ch.StoryID == storyID && ch.SeqNum > highest {
			highest = ch.SeqNum
		}
	}
	return highest + 1, nil
}

// snapshot/restore 模拟事务回滚
func (m *memChapters) snapshot() map[string]*entity.Chapter {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make(map[string]*entity.Chapter, len(m.byID))
	for k, v := range m.byID {
		cp[k] = v
	}
	return cp
}

func (m *memChapters) restore(s map[string]*entity.Chapter) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID = s
}

type memTx struct {
	chapters *memChapters
}

func (t *memTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	snap := t.chapters.snapshot()
	if err := fn(ctx); err != nil {
		t.chapters.restore(snap)
		return err
	}
	return nil
}

type staticAuthors map[string]string

func (s staticAuthors) AuthorOf(_ context.Context, storyID string) (string, error) {
	id, ok := s[storyID]
	if !ok {
		return "", access.ErrStoryNotFound
	}
	return id, nil
}

type staticSubs []*entity.Subscription

func (s staticSubs) ListActive(_ context.Context, subscriberID, authorID string) ([]*entity.Subscription, error) {
	var out []*entity.Subscription
	for _, sub := range s {
		if sub.SubscriberID == subscriberID && sub.AuthorID == authorID && sub.IsActive() {
			out = append(out, sub)
		}
	}
	return out, nil
}

type staticComments int64

func (s staticComments) CountTopLevel(_ context.Context, _ string) (int64, error) {
	return int64(s), nil
}

type recordingPublisher struct {
	events []*messaging.ChaptersImportedMessage
	err    error
}

func (p *recordingPublisher) PublishChaptersImported(_ context.Context, evt *messaging.ChaptersImportedMessage) (string, error) {
	p.events = append(p.events, evt)
	return "1-0", p.err
}

type denyAllLimiter struct{}

func (denyAllLimiter) Allow(_ context.Context, _ string, _ int, _ time.Duration) (bool, error) {
	return false, nil
}

type brokenLimiter struct{}

func (brokenLimiter) Allow(_ context.Context, _ string, _ int, _ time.Duration) (bool, error) {
	return false, errors.New("redis down")
}

package service

import (
	"CheckinVoyage/internal/model"
	"CheckinVoyage/internal/pkg/consts"
	"CheckinVoyage/internal/pkg/feed"
	"CheckinVoyage/internal/repository"
	"context"
	"errors"
	"sync"
	"time"

	"gorm.io/gorm"
)

var errStoreDown = errors.New("store down")

type fakeMessageRepo struct {
	mu         sync.Mutex
	msgs       []*model.Message
	nextID     uint64
	failAppend bool
	failList   bool
	failMark   bool
	markCalls  int
}

func (f *fakeMessageRepo) Append(_ context.Context, msg *model.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAppend {
		return errStoreDown
	}
	f.nextID++
	msg.ID = f.nextID
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	f.msgs = append(f.msgs, msg)
	return nil
}

func sameContext(a, b *uint64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (f *fakeMessageRepo) List(_ context.Context, filter repository.MessageFilter) ([]*model.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failList {
		return nil, errStoreDown
	}
	var res []*model.Message
	for _, m := range f.msgs {
		if filter.ParticipantID != nil {
			p := *filter.ParticipantID
			if filter.PeerID != nil {
				q := *filter.PeerID
				if !(m.SenderID == p && m.ReceiverID == q) && !(m.SenderID == q && m.ReceiverID == p) {
					continue
				}
			} else if m.SenderID != p && m.ReceiverID != p {
				continue
			}
		}
		if filter.ContextID != nil {
			if m.ContextID == nil || *m.ContextID != *filter.ContextID {
				continue
			}
		} else if filter.UnscopedOnly && m.ContextID != nil {
			continue
		}
		res = append(res, m)
	}
	if filter.Limit > 0 && len(res) > filter.Limit {
		res = res[len(res)-filter.Limit:]
	}
	return res, nil
}

func (f *fakeMessageRepo) MarkRead(_ context.Context, ids []uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failMark {
		return errStoreDown
	}
	f.markCalls++
	set := make(map[uint64]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	for _, m := range f.msgs {
		if set[m.ID] {
			m.IsRead = true
		}
	}
	return nil
}

func (f *fakeMessageRepo) UnreadIDs(_ context.Context, receiverID, senderID uint64, contextID *uint64) ([]uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []uint64
	for _, m := range f.msgs {
		if m.ReceiverID == receiverID && m.SenderID == senderID && !m.IsRead && sameContext(m.ContextID, contextID) {
			ids = append(ids, m.ID)
		}
	}
	return ids, nil
}

type receiptKey struct {
	userID     uint64
	contextKey string
}

type fakeReceiptRepo struct {
	mu       sync.Mutex
	receipts map[receiptKey]*model.ReadReceipt
}

func newFakeReceiptRepo() *fakeReceiptRepo {
	return &fakeReceiptRepo{receipts: make(map[receiptKey]*model.ReadReceipt)}
}

func (f *fakeReceiptRepo) Get(_ context.Context, userID uint64, contextID *uint64) (*model.ReadReceipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.receipts[receiptKey{userID, ContextKey(contextID)}]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return r, nil
}

func (f *fakeReceiptRepo) upsert(userID uint64, contextID *uint64) *model.ReadReceipt {
	key := receiptKey{userID, ContextKey(contextID)}
	r, ok := f.receipts[key]
	if !ok {
		r = &model.ReadReceipt{UserID: userID, ContextID: contextID}
		f.receipts[key] = r
	}
	return r
}

func (f *fakeReceiptRepo) UpsertLastSeen(_ context.Context, userID uint64, contextID *uint64, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upsert(userID, contextID).LastSeen = &at
	return nil
}

func (f *fakeReceiptRepo) UpsertLastSent(_ context.Context, userID uint64, contextID *uint64, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upsert(userID, contextID).LastSent = &at
	return nil
}

type fakePresenceRepo struct {
	mu   sync.Mutex
	rows map[receiptKey]*model.Presence
}

func newFakePresenceRepo() *fakePresenceRepo {
	return &fakePresenceRepo{rows: make(map[receiptKey]*model.Presence)}
}

func (f *fakePresenceRepo) Upsert(_ context.Context, p *model.Presence) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[receiptKey{p.SenderID, ContextKey(p.ContextID)}] = p
	return nil
}

func (f *fakePresenceRepo) SweepStale(_ context.Context, before time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, p := range f.rows {
		if p.IsTyping && p.UpdatedAt.Before(before) {
			p.IsTyping = false
			n++
		}
	}
	return n, nil
}

type fakeProfiles struct {
	names map[uint64]string
}

func (f *fakeProfiles) DisplayName(_ context.Context, userID uint64) string {
	if name, ok := f.names[userID]; ok {
		return name
	}
	return consts.DefaultDisplayName
}

func (f *fakeProfiles) DisplayNames(ctx context.Context, userIDs []uint64) map[uint64]string {
	res := make(map[uint64]string, len(userIDs))
	for _, id := range userIDs {
		res[id] = f.DisplayName(ctx, id)
	}
	return res
}

func (f *fakeProfiles) Invalidate(context.Context, uint64) {}

type fakeFeed struct {
	mu        sync.Mutex
	subs      map[string][]chan *feed.Event
	published []*feed.Event
}

func newFakeFeed() *fakeFeed {
	return &fakeFeed{subs: make(map[string][]chan *feed.Event)}
}

func feedKey(table, contextKey string) string {
	return table + ":" + contextKey
}

func (f *fakeFeed) Publish(_ context.Context, contextKey string, event *feed.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, event)
	for _, ch := range f.subs[feedKey(event.Table, contextKey)] {
		ch <- event
	}
	return nil
}

func (f *fakeFeed) Subscribe(_ context.Context, table string, contextKey string) (<-chan *feed.Event, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan *feed.Event, 16)
	key := feedKey(table, contextKey)
	f.subs[key] = append(f.subs[key], ch)

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			chans := f.subs[key]
			for i, c := range chans {
				if c == ch {
					f.subs[key] = append(chans[:i], chans[i+1:]...)
					break
				}
			}
			close(ch)
		})
	}
	return ch, cancel
}

func uptr(v uint64) *uint64 { return &v }

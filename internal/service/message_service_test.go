package service

import (
	"CheckinVoyage/internal/api/dto"
	"CheckinVoyage/internal/model"
	"CheckinVoyage/internal/pkg/consts"
	"context"
	"testing"

	"github.com/goccy/go-json"
)

func newMessageServiceForTest(repo *fakeMessageRepo, f *fakeFeed) MessageService {
	receipts := NewReceiptService(repo, newFakeReceiptRepo())
	presence := NewPresenceService(newFakePresenceRepo(), f)
	profiles := &fakeProfiles{names: map[uint64]string{1: "Amal", 2: "Basel"}}
	return NewMessageService(repo, receipts, presence, profiles, f, 0)
}

func TestSendMessageRoundTrip(t *testing.T) {
	repo := &fakeMessageRepo{}
	f := newFakeFeed()
	svc := newMessageServiceForTest(repo, f)
	ctx := context.Background()
	ctx1 := uptr(9)

	sent, err := svc.SendMessage(ctx, 1, &dto.SendMessageReq{
		ReceiverID: 2, ContextID: ctx1, Subject: "Booking", Content: "hello",
	})
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if sent.ID == 0 || sent.CreatedAt.IsZero() {
		t.Fatalf("server fields not assigned: %+v", sent)
	}
	if sent.SenderName != "Amal" {
		t.Fatalf("sender name = %q", sent.SenderName)
	}
	if !sent.IsRead {
		t.Fatal("sender must see the sent copy as read")
	}

	// list 应返回与调用方字段一致的记录
	got, err := svc.History(ctx, 1, 2, ctx1)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("history len = %d", len(got))
	}
	m := got[0]
	if m.ID != sent.ID || m.Subject != "Booking" || m.Content != "hello" ||
		m.SenderID != 1 || m.ReceiverID != 2 || m.ContextID == nil || *m.ContextID != 9 {
		t.Fatalf("round trip mismatch: %+v", m)
	}
	if m.IsRead {
		t.Fatal("new message must start unread for the receiver")
	}
}

func TestSendMessageRejectsSelf(t *testing.T) {
	svc := newMessageServiceForTest(&fakeMessageRepo{}, newFakeFeed())

	if _, err := svc.SendMessage(context.Background(), 1, &dto.SendMessageReq{ReceiverID: 1, Content: "x"}); err != ErrSelfMessage {
		t.Fatalf("err = %v, want ErrSelfMessage", err)
	}
	if _, err := svc.SendMessage(context.Background(), 0, &dto.SendMessageReq{ReceiverID: 2, Content: "x"}); err != UnauthorizedError {
		t.Fatalf("err = %v, want UnauthorizedError", err)
	}
}

func TestSendMessageStoreFailure(t *testing.T) {
	repo := &fakeMessageRepo{failAppend: true}
	svc := newMessageServiceForTest(repo, newFakeFeed())

	_, err := svc.SendMessage(context.Background(), 1, &dto.SendMessageReq{ReceiverID: 2, Content: "x"})
	if err != ErrStoreUnavailable {
		t.Fatalf("err = %v, want ErrStoreUnavailable", err)
	}
	if len(repo.msgs) != 0 {
		t.Fatalf("failed append left %d rows", len(repo.msgs))
	}
}

func TestSendMessagePublishesInsertAndClearsTyping(t *testing.T) {
	repo := &fakeMessageRepo{}
	f := newFakeFeed()
	svc := newMessageServiceForTest(repo, f)
	ctx1 := uptr(9)

	if _, err := svc.SendMessage(context.Background(), 1, &dto.SendMessageReq{ReceiverID: 2, ContextID: ctx1, Content: "x"}); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	var sawInsert, sawPresence bool
	for _, ev := range f.published {
		switch ev.Table {
		case consts.TableMessages:
			sawInsert = true
			var m model.Message
			if err := json.Unmarshal(ev.Payload, &m); err != nil {
				t.Fatalf("unmarshal payload: %v", err)
			}
			if m.SenderID != 1 || m.ReceiverID != 2 {
				t.Fatalf("published wrong message: %+v", m)
			}
		case consts.TablePresence:
			sawPresence = true
			var p model.Presence
			if err := json.Unmarshal(ev.Payload, &p); err != nil {
				t.Fatalf("unmarshal presence: %v", err)
			}
			if p.IsTyping {
				t.Fatal("send must announce typing stopped")
			}
		}
	}
	if !sawInsert || !sawPresence {
		t.Fatalf("insert=%v presence=%v, want both", sawInsert, sawPresence)
	}
}

func TestHistoryScopesByContext(t *testing.T) {
	repo := &fakeMessageRepo{}
	svc := newMessageServiceForTest(repo, newFakeFeed())
	ctx := context.Background()

	_ = repo.Append(ctx, &model.Message{SenderID: 1, ReceiverID: 2, ContextID: uptr(1), Content: "scoped"})
	_ = repo.Append(ctx, &model.Message{SenderID: 2, ReceiverID: 1, Content: "direct"})

	scoped, err := svc.History(ctx, 1, 2, uptr(1))
	if err != nil {
		t.Fatalf("History scoped: %v", err)
	}
	if len(scoped) != 1 || scoped[0].Content != "scoped" {
		t.Fatalf("scoped history wrong: %+v", scoped)
	}

	direct, err := svc.History(ctx, 1, 2, nil)
	if err != nil {
		t.Fatalf("History direct: %v", err)
	}
	if len(direct) != 1 || direct[0].Content != "direct" {
		t.Fatalf("unscoped history wrong: %+v", direct)
	}
}

func TestHistoryCapsToMostRecent(t *testing.T) {
	repo := &fakeMessageRepo{}
	receipts := NewReceiptService(repo, newFakeReceiptRepo())
	f := newFakeFeed()
	presence := NewPresenceService(newFakePresenceRepo(), f)
	svc := NewMessageService(repo, receipts, presence, &fakeProfiles{}, f, 2)
	ctx := context.Background()

	for _, content := range []string{"one", "two", "three"} {
		_ = repo.Append(ctx, &model.Message{SenderID: 1, ReceiverID: 2, Content: content})
	}

	res, err := svc.History(ctx, 1, 2, nil)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(res) != 2 {
		t.Fatalf("len = %d, want 2", len(res))
	}
	if res[0].Content != "two" || res[1].Content != "three" {
		t.Fatalf("kept %q, %q, want most recent two in order", res[0].Content, res[1].Content)
	}
}

package service

import (
	"CheckinVoyage/internal/model"
	"context"
	"testing"
	"time"
)

// 场景：对方在视图关闭期间发来 3 条消息，打开会话后未读清零且 last_seen 推进
func TestMarkConversationRead(t *testing.T) {
	repo := &fakeMessageRepo{}
	receiptRepo := newFakeReceiptRepo()
	svc := NewReceiptService(repo, receiptRepo)
	ctx := context.Background()
	ctx1 := uptr(5)

	for i := 0; i < 3; i++ {
		_ = repo.Append(ctx, &model.Message{SenderID: 7, ReceiverID: 3, ContextID: ctx1, Content: "m"})
	}

	unread, _ := repo.UnreadIDs(ctx, 3, 7, ctx1)
	if len(unread) != 3 {
		t.Fatalf("unread before open = %d, want 3", len(unread))
	}

	opening := time.Now()
	ids, err := svc.MarkConversationRead(ctx, 3, 7, ctx1)
	if err != nil {
		t.Fatalf("MarkConversationRead: %v", err)
	}
	if len(ids) != 3 {
		t.Fatalf("marked %d, want 3", len(ids))
	}

	unread, _ = repo.UnreadIDs(ctx, 3, 7, ctx1)
	if len(unread) != 0 {
		t.Fatalf("unread after open = %d, want 0", len(unread))
	}

	receipt, err := receiptRepo.Get(ctx, 3, ctx1)
	if err != nil {
		t.Fatalf("receipt missing: %v", err)
	}
	if receipt.LastSeen == nil || receipt.LastSeen.Before(opening) {
		t.Fatalf("last_seen not advanced: %v", receipt.LastSeen)
	}
}

func TestMarkConversationReadIdempotent(t *testing.T) {
	repo := &fakeMessageRepo{}
	svc := NewReceiptService(repo, newFakeReceiptRepo())
	ctx := context.Background()
	ctx1 := uptr(5)

	_ = repo.Append(ctx, &model.Message{SenderID: 7, ReceiverID: 3, ContextID: ctx1})

	if _, err := svc.MarkConversationRead(ctx, 3, 7, ctx1); err != nil {
		t.Fatalf("first mark: %v", err)
	}
	ids, err := svc.MarkConversationRead(ctx, 3, 7, ctx1)
	if err != nil {
		t.Fatalf("second mark must not error: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("second mark flipped %d messages, want 0", len(ids))
	}

	for _, m := range repo.msgs {
		if !m.IsRead {
			t.Fatalf("message %d lost is_read after re-mark", m.ID)
		}
	}
}

// 场景：last_seen >= 发送时刻显示 Seen，否则 Sent
func TestIsSeenByCounterpart(t *testing.T) {
	t0 := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	msg := &model.Message{SenderID: 1, ReceiverID: 2, CreatedAt: t0}

	if IsSeenByCounterpart(msg, nil) {
		t.Fatal("nil receipt must read as un-seen")
	}
	if IsSeenByCounterpart(msg, &model.ReadReceipt{}) {
		t.Fatal("nil last_seen must read as un-seen")
	}

	before := t0.Add(-time.Second)
	if IsSeenByCounterpart(msg, &model.ReadReceipt{LastSeen: &before}) {
		t.Fatal("last_seen earlier than message must be un-seen")
	}

	exact := t0
	if !IsSeenByCounterpart(msg, &model.ReadReceipt{LastSeen: &exact}) {
		t.Fatal("last_seen at created_at counts as seen")
	}

	after := t0.Add(time.Second)
	if !IsSeenByCounterpart(msg, &model.ReadReceipt{LastSeen: &after}) {
		t.Fatal("later last_seen counts as seen")
	}
}

func TestMarkConversationReadStoreFailure(t *testing.T) {
	repo := &fakeMessageRepo{}
	svc := NewReceiptService(repo, newFakeReceiptRepo())
	ctx := context.Background()
	ctx1 := uptr(5)

	_ = repo.Append(ctx, &model.Message{SenderID: 7, ReceiverID: 3, ContextID: ctx1})
	repo.failMark = true

	if _, err := svc.MarkConversationRead(ctx, 3, 7, ctx1); err != ErrStoreUnavailable {
		t.Fatalf("err = %v, want ErrStoreUnavailable", err)
	}
}

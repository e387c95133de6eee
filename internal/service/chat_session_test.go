package service

import (
	"CheckinVoyage/internal/api/dto"
	"context"
	"testing"
	"time"
)

func newSessionForTest(window time.Duration) *ChatSession {
	return newChatSession(context.Background(), 1, uptr(9), window, 16)
}

func enriched(id uint64, sender, receiver uint64, at time.Time) *dto.MessageDTO {
	return &dto.MessageDTO{ID: id, SenderID: sender, ReceiverID: receiver, CreatedAt: at}
}

func TestSessionDedupesByID(t *testing.T) {
	s := newSessionForTest(time.Second)
	defer s.Close()

	base := time.Now()
	first := enriched(1, 2, 1, base)
	first.Content = "server copy"
	s.Append(first)

	dup := enriched(1, 2, 1, base.Add(time.Hour))
	dup.Content = "late duplicate"
	s.Append(dup)

	snap := s.Snapshot()
	if len(snap) != 1 {
		t.Fatalf("snapshot len = %d, want 1", len(snap))
	}
	if snap[0].Content != "server copy" {
		t.Fatalf("first-seen copy lost: %q", snap[0].Content)
	}
}

// 场景：两条几乎同时到达的事件被乱序富化并入，渲染仍须按 created_at 排序
func TestSessionSnapshotOrdersByCreatedAt(t *testing.T) {
	s := newSessionForTest(time.Second)
	defer s.Close()

	base := time.Now()
	// 富化完成顺序与时间顺序相反
	s.Append(enriched(3, 2, 1, base.Add(2*time.Second)))
	s.Append(enriched(1, 2, 1, base))
	s.Append(enriched(2, 1, 2, base.Add(time.Second)))

	snap := s.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("snapshot len = %d", len(snap))
	}
	for i := 1; i < len(snap); i++ {
		if snap[i].CreatedAt.Before(snap[i-1].CreatedAt) {
			t.Fatalf("snapshot not ordered at %d", i)
		}
	}
	if snap[0].ID != 1 || snap[2].ID != 3 {
		t.Fatalf("order = %d,%d,%d", snap[0].ID, snap[1].ID, snap[2].ID)
	}
}

func TestSessionOptimisticConfirmAndRetract(t *testing.T) {
	s := newSessionForTest(time.Second)
	defer s.Close()

	token := s.AppendOptimistic(&dto.MessageDTO{SenderID: 1, ReceiverID: 2, Content: "sending..."})
	if token == 0 {
		t.Fatal("optimistic append rejected")
	}
	if len(s.Snapshot()) != 1 {
		t.Fatal("optimistic copy not visible")
	}
	if !s.Snapshot()[0].IsRead {
		t.Fatal("own message must present as read")
	}

	// 远端事件先行到达同一 id，确认时保留先到副本
	server := enriched(11, 1, 2, time.Now())
	server.Content = "server copy"
	s.Append(server)
	confirm := enriched(11, 1, 2, time.Now())
	confirm.Content = "confirm copy"
	s.ConfirmOptimistic(token, confirm)

	snap := s.Snapshot()
	if len(snap) != 1 {
		t.Fatalf("snapshot len = %d, want 1", len(snap))
	}
	if snap[0].Content != "server copy" {
		t.Fatalf("kept %q, want first-seen server copy", snap[0].Content)
	}

	// 发送失败回滚
	token2 := s.AppendOptimistic(&dto.MessageDTO{SenderID: 1, ReceiverID: 2, Content: "will fail"})
	s.Retract(token2)
	for _, m := range s.Snapshot() {
		if m.Content == "will fail" {
			t.Fatal("retracted copy still visible")
		}
	}
}

func TestSessionMarkLocalRead(t *testing.T) {
	s := newSessionForTest(time.Second)
	defer s.Close()

	base := time.Now()
	s.Append(enriched(1, 2, 1, base))
	s.Append(enriched(2, 1, 2, base.Add(time.Second)))

	s.MarkLocalRead(2)

	for _, m := range s.Snapshot() {
		if m.ReceiverID == 1 && !m.IsRead {
			t.Fatalf("inbound message %d not flipped", m.ID)
		}
	}
}

func TestSessionTypingExpiry(t *testing.T) {
	window := 100 * time.Millisecond
	s := newSessionForTest(window)
	defer s.Close()

	s.SetTyping(true)
	time.Sleep(window - 30*time.Millisecond)
	if !s.Typing() {
		t.Fatal("flag dropped before window elapsed")
	}
	time.Sleep(60 * time.Millisecond)
	if s.Typing() {
		t.Fatal("flag survived past window")
	}
}

func TestSessionTypingRenewalAndExplicitStop(t *testing.T) {
	window := 100 * time.Millisecond
	s := newSessionForTest(window)
	defer s.Close()

	s.SetTyping(true)
	time.Sleep(60 * time.Millisecond)
	s.SetTyping(true) // 续期
	time.Sleep(60 * time.Millisecond)
	if !s.Typing() {
		t.Fatal("renewal did not restart the window")
	}

	s.SetTyping(false)
	if s.Typing() {
		t.Fatal("explicit stop must clear immediately")
	}
}

func TestSessionCloseStopsWrites(t *testing.T) {
	s := newSessionForTest(time.Second)
	s.Append(enriched(1, 2, 1, time.Now()))
	s.Close()
	s.Close() // 幂等

	s.Append(enriched(2, 2, 1, time.Now()))
	if len(s.Snapshot()) != 1 {
		t.Fatal("append after close mutated the view")
	}

	if _, ok := <-s.Events(); ok {
		// 关闭前入队的事件允许被读出，但通道最终必须关闭
		for range s.Events() {
		}
	}
	s.SetTyping(true)
	if s.Typing() {
		t.Fatal("typing set after close")
	}
}

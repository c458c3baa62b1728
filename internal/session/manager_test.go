package session

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/eloinsight/chessd/internal/chess"
)

func TestManagerCreateGetClose(t *testing.T) {
	mgr := NewManager("", time.Second, zap.NewNop())

	h, err := mgr.Create("", chess.GameMode{Kind: chess.HumanVsHuman})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if h.ID == "" {
		t.Fatal("Create returned an empty session id")
	}

	got, err := mgr.Get(h.ID)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got.ID != h.ID {
		t.Errorf("Get returned id %q, want %q", got.ID, h.ID)
	}

	if err := mgr.Close(h.ID); err != nil {
		t.Fatalf("Close error: %v", err)
	}
	if _, err := mgr.Get(h.ID); err == nil {
		t.Error("Get after Close expected an error, got nil")
	}
}

func TestManagerGetUnknownIDFails(t *testing.T) {
	mgr := NewManager("", time.Second, zap.NewNop())
	if _, err := mgr.Get("does-not-exist"); err == nil {
		t.Error("Get(unknown id) expected an error, got nil")
	}
}

func TestManagerCloseUnknownIDFails(t *testing.T) {
	mgr := NewManager("", time.Second, zap.NewNop())
	if err := mgr.Close("does-not-exist"); err == nil {
		t.Error("Close(unknown id) expected an error, got nil")
	}
}

func TestManagerListReflectsLiveSessions(t *testing.T) {
	mgr := NewManager("", time.Second, zap.NewNop())
	h1, err := mgr.Create("", chess.GameMode{Kind: chess.HumanVsHuman})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	h2, err := mgr.Create("", chess.GameMode{Kind: chess.HumanVsHuman})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	ids := mgr.List()
	if len(ids) != 2 {
		t.Fatalf("len(List()) = %d, want 2", len(ids))
	}

	mgr.Close(h1.ID)
	if ids := mgr.List(); len(ids) != 1 || ids[0] != h2.ID {
		t.Errorf("List() after closing one session = %v, want [%q]", ids, h2.ID)
	}
	mgr.Close(h2.ID)
}

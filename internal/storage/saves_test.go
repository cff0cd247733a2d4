package storage

import (
	"context"
	"testing"
	"time"
)

func TestSaveSlotRoundTrip(t *testing.T) {
	store, mr := setupTestRedis(t)
	ctx := context.Background()
	gs := sampleState()

	if err := store.SaveSlot(ctx, "rook", "chapter-two", gs); err != nil {
		t.Fatalf("SaveSlot: %v", err)
	}
	if !mr.Exists("save:rook:chapter-two") {
		t.Error("slot key not written")
	}
	if ttl := mr.TTL("save:rook:chapter-two"); ttl != 0 {
		t.Errorf("save slots must not expire, TTL = %v", ttl)
	}

	loaded, err := store.LoadSlot(ctx, "rook", "chapter-two")
	if err != nil {
		t.Fatalf("LoadSlot: %v", err)
	}
	if loaded == nil || loaded.ID != gs.ID {
		t.Errorf("round trip mismatch: %+v", loaded)
	}
}

func TestSaveSlot_RequiresUserAndSlot(t *testing.T) {
	store, _ := setupTestRedis(t)
	gs := sampleState()
	if err := store.SaveSlot(context.Background(), "", "slot", gs); err == nil {
		t.Error("empty user accepted")
	}
	if err := store.SaveSlot(context.Background(), "rook", "", gs); err == nil {
		t.Error("empty slot accepted")
	}
}

func TestLoadSlot_Unknown(t *testing.T) {
	store, _ := setupTestRedis(t)
	loaded, err := store.LoadSlot(context.Background(), "rook", "nope")
	if err != nil {
		t.Fatalf("LoadSlot: %v", err)
	}
	if loaded != nil {
		t.Errorf("expected nil for unknown slot, got %+v", loaded)
	}
}

func TestListSlots(t *testing.T) {
	store, _ := setupTestRedis(t)
	ctx := context.Background()

	first := sampleState()
	if err := store.SaveSlot(ctx, "rook", "older", first); err != nil {
		t.Fatal(err)
	}
	time.Sleep(2 * time.Millisecond)
	second := sampleState()
	second.Chapter = 2
	if err := store.SaveSlot(ctx, "rook", "newer", second); err != nil {
		t.Fatal(err)
	}

	metas, err := store.ListSlots(ctx, "rook")
	if err != nil {
		t.Fatalf("ListSlots: %v", err)
	}
	if len(metas) != 2 {
		t.Fatalf("got %d slots", len(metas))
	}
	if metas[0].Slot != "newer" || metas[1].Slot != "older" {
		t.Errorf("not sorted newest first: %v, %v", metas[0].Slot, metas[1].Slot)
	}
	if metas[0].Chapter != 2 || metas[0].PlayerName != "Rook" {
		t.Errorf("metadata mismatch: %+v", metas[0])
	}

	// Listing does not touch the full save blobs.
	other, err := store.ListSlots(ctx, "stranger")
	if err != nil {
		t.Fatalf("ListSlots for unknown user: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("unknown user has %d slots", len(other))
	}
}

func TestListSlots_SkipsCorruptIndexEntries(t *testing.T) {
	store, mr := setupTestRedis(t)
	ctx := context.Background()

	if err := store.SaveSlot(ctx, "rook", "good", sampleState()); err != nil {
		t.Fatal(err)
	}
	mr.HSet("saveindex:rook", "bad", "not json")

	metas, err := store.ListSlots(ctx, "rook")
	if err != nil {
		t.Fatalf("ListSlots: %v", err)
	}
	if len(metas) != 1 || metas[0].Slot != "good" {
		t.Errorf("got %+v", metas)
	}
}

func TestDeleteSlot(t *testing.T) {
	store, mr := setupTestRedis(t)
	ctx := context.Background()

	if err := store.SaveSlot(ctx, "rook", "doomed", sampleState()); err != nil {
		t.Fatal(err)
	}
	if err := store.DeleteSlot(ctx, "rook", "doomed"); err != nil {
		t.Fatalf("DeleteSlot: %v", err)
	}
	if mr.Exists("save:rook:doomed") {
		t.Error("slot key survived delete")
	}
	metas, _ := store.ListSlots(ctx, "rook")
	if len(metas) != 0 {
		t.Errorf("index entry survived delete: %+v", metas)
	}
}

package clipstore_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"clipgate/internal/clipstore"
	"clipgate/internal/media"
	"clipgate/internal/services"
	"clipgate/internal/testsupport"
)

func TestSaveAndGetRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	saved, err := store.Save(ctx, "post-1", "user-1", media.EncodedClip{
		Bytes:  []byte("mp4-bytes"),
		Kind:   media.KindVideo,
		Format: media.FormatMP4,
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if saved.ID == "" {
		t.Fatal("expected generated clip ID")
	}
	if saved.URL != "/clips/"+saved.ID {
		t.Fatalf("URL = %q", saved.URL)
	}
	if saved.SizeBytes != int64(len("mp4-bytes")) {
		t.Fatalf("SizeBytes = %d", saved.SizeBytes)
	}

	got, err := store.Get(ctx, saved.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.PostID != "post-1" || got.OwnerID != "user-1" {
		t.Fatalf("ownership = %s/%s", got.PostID, got.OwnerID)
	}
	if got.Kind != media.KindVideo || got.Format != media.FormatMP4 {
		t.Fatalf("kind/format = %s/%s", got.Kind, got.Format)
	}
	if got.CreatedAt.IsZero() || !got.CreatedAt.Equal(saved.CreatedAt) {
		t.Fatalf("CreatedAt = %v, want %v", got.CreatedAt, saved.CreatedAt)
	}

	payload, err := store.ReadPayload(got)
	if err != nil {
		t.Fatalf("ReadPayload: %v", err)
	}
	if string(payload) != "mp4-bytes" {
		t.Fatalf("payload = %q", payload)
	}
}

func TestGetUnknownClip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	if _, err := store.Get(context.Background(), "nope"); !errors.Is(err, clipstore.ErrClipNotFound) {
		t.Fatalf("err = %v, want ErrClipNotFound", err)
	}
}

func TestListByPostPreservesRecordingOrder(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		clip, err := store.Save(ctx, "post-7", "user-1", media.EncodedClip{
			Bytes:  []byte(fmt.Sprintf("clip-%d", i)),
			Kind:   media.KindAudio,
			Format: media.FormatWebM,
		})
		if err != nil {
			t.Fatalf("Save %d: %v", i, err)
		}
		ids = append(ids, clip.ID)
		time.Sleep(2 * time.Millisecond)
	}
	// A clip for another post must not leak into the listing.
	if _, err := store.Save(ctx, "post-8", "user-1", media.EncodedClip{
		Bytes:  []byte("other"),
		Kind:   media.KindAudio,
		Format: media.FormatWebM,
	}); err != nil {
		t.Fatalf("Save other post: %v", err)
	}

	clips, err := store.ListByPost(ctx, "post-7")
	if err != nil {
		t.Fatalf("ListByPost: %v", err)
	}
	if len(clips) != 3 {
		t.Fatalf("len = %d, want 3", len(clips))
	}
	for i, clip := range clips {
		if clip.ID != ids[i] {
			t.Fatalf("clip %d = %s, want %s", i, clip.ID, ids[i])
		}
	}
}

func TestListByPostEmpty(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	clips, err := store.ListByPost(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("ListByPost: %v", err)
	}
	if len(clips) != 0 {
		t.Fatalf("len = %d, want 0", len(clips))
	}
}

func TestSaveRejectsEmptyInput(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if _, err := store.Save(ctx, "", "user-1", media.EncodedClip{Bytes: []byte("x")}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("missing post err = %v, want ErrValidation", err)
	}
	if _, err := store.Save(ctx, "post-1", "user-1", media.EncodedClip{}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("empty payload err = %v, want ErrValidation", err)
	}
}

func TestReopenKeepsClips(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	first, err := clipstore.Open(cfg)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	saved, err := first.Save(context.Background(), "post-1", "user-1", media.EncodedClip{
		Bytes:  []byte("persisted"),
		Kind:   media.KindVideo,
		Format: media.FormatMP4,
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	second := testsupport.MustOpenStore(t, cfg)
	got, err := second.Get(context.Background(), saved.ID)
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if _, err := os.Stat(second.PayloadPath(got)); err != nil {
		t.Fatalf("payload file missing: %v", err)
	}
}

package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"varcore/internal/blob/core"
)

func TestMockPutGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMockForTests()

	info, err := store.Put(ctx, "bundles/a.json", bytes.NewReader([]byte(`{"a":1}`)), core.PutOptions{ContentType: "application/json"})
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if info.Size != 7 {
		t.Fatalf("unexpected size: %d", info.Size)
	}

	got, body, err := store.Get(ctx, "bundles/a.json")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	data, _ := io.ReadAll(body)
	_ = body.Close()
	if string(data) != `{"a":1}` {
		t.Fatalf("unexpected content: %s", data)
	}
	if got.ContentType != "application/json" {
		t.Fatalf("unexpected content type: %s", got.ContentType)
	}
}

func TestMockPutIsCreateOnly(t *testing.T) {
	ctx := context.Background()
	store := NewMockForTests()
	if _, err := store.Put(ctx, "k", bytes.NewReader([]byte("one")), core.PutOptions{}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	_, err := store.Put(ctx, "k", bytes.NewReader([]byte("two")), core.PutOptions{})
	if !errors.Is(err, core.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestMockHeadUnknownKey(t *testing.T) {
	store := NewMockForTests()
	if _, err := store.Head(context.Background(), "missing"); err == nil {
		t.Fatalf("expected error for missing key")
	}
}

func TestMockListAndDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMockForTests()
	for _, key := range []string{"bundles/b.json", "bundles/a.json", "other/c.json"} {
		if _, err := store.Put(ctx, key, bytes.NewReader([]byte("x")), core.PutOptions{}); err != nil {
			t.Fatalf("Put %s: %v", key, err)
		}
	}
	infos, err := store.List(ctx, "bundles/")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(infos) != 2 || infos[0].Key != "bundles/a.json" || infos[1].Key != "bundles/b.json" {
		t.Fatalf("unexpected listing: %+v", infos)
	}

	existed, err := store.Delete(ctx, "bundles/a.json")
	if err != nil || !existed {
		t.Fatalf("Delete: existed=%v err=%v", existed, err)
	}
	if _, err := store.Head(ctx, "bundles/a.json"); err == nil {
		t.Fatalf("expected Head failure after delete")
	}
}

func TestMockPresignURL(t *testing.T) {
	store := NewMockForTests()
	url, err := store.PresignURL(context.Background(), "bundles/a.json", core.SignedURLOptions{})
	if err != nil {
		t.Fatalf("PresignURL: %v", err)
	}
	if !strings.Contains(url, "bundles/a.json") {
		t.Fatalf("unexpected url: %s", url)
	}
	if _, err := store.PresignURL(context.Background(), "k", core.SignedURLOptions{Method: "PUT"}); !errors.Is(err, core.ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported for PUT, got %v", err)
	}
}

func TestNewRequiresBucket(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Fatalf("expected error without bucket")
	}
}

func TestOpenFromEnvRequiresBucket(t *testing.T) {
	t.Setenv("VARCORE_BLOB_S3_BUCKET", "")
	if _, err := OpenFromEnv(context.Background()); err == nil {
		t.Fatalf("expected error without bucket env")
	}
}

func TestDriverIdentifier(t *testing.T) {
	if got := NewMockForTests().Driver(); got != core.DriverS3 {
		t.Fatalf("unexpected driver: %s", got)
	}
}

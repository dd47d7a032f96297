package replies

import (
	"context"
	"errors"
	"testing"

	"github.com/lfbianchini/talksoup/internal/store"
)

func TestCreateAndList_OldestFirst(t *testing.T) {
	svc := NewService(store.NewMemory())
	ctx := context.Background()

	first, err := svc.Create(ctx, "a1", "p1", "first")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	second, err := svc.Create(ctx, "a1", "p2", "second")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	// A reply on another answer stays out of the listing.
	if _, err := svc.Create(ctx, "a2", "p1", "elsewhere"); err != nil {
		t.Fatalf("create: %v", err)
	}

	list, err := svc.ListForAnswer(ctx, "a1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].ID != first.ID || list[1].ID != second.ID {
		t.Fatalf("want [first second], got %+v", list)
	}
}

func TestDelete_AuthorScoped(t *testing.T) {
	svc := NewService(store.NewMemory())
	ctx := context.Background()

	reply, err := svc.Create(ctx, "a1", "author", "mine")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// 1. Someone else deleting the reply looks like a missing reply.
	if err := svc.Delete(ctx, reply.ID, "other"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound for non-author, got %v", err)
	}

	// 2. The author can delete it.
	if err := svc.Delete(ctx, reply.ID, "author"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	list, err := svc.ListForAnswer(ctx, "a1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("reply should be gone, got %+v", list)
	}

	// 3. Deleting again reports not found.
	if err := svc.Delete(ctx, reply.ID, "author"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound for repeat delete, got %v", err)
	}
}

package objectstore_test

import (
	"context"
	"errors"
	"testing"

	"intervue/internal/objectstore"
	"intervue/internal/services"
)

type sampleDoc struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func stores(t *testing.T) map[string]objectstore.Store {
	t.Helper()
	fsStore, err := objectstore.NewFilesystem(t.TempDir())
	if err != nil {
		t.Fatalf("NewFilesystem failed: %v", err)
	}
	return map[string]objectstore.Store{
		"filesystem": fsStore,
		"memory":     objectstore.NewMemory(),
	}
}

func TestDocumentRoundTrip(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			ref, err := store.PutDocument(ctx, "users/u1/sessions/s1/mapping.json", sampleDoc{Name: "q", Count: 3})
			if err != nil {
				t.Fatalf("PutDocument failed: %v", err)
			}

			var out sampleDoc
			if err := store.GetDocument(ctx, ref, &out); err != nil {
				t.Fatalf("GetDocument failed: %v", err)
			}
			if out.Name != "q" || out.Count != 3 {
				t.Fatalf("unexpected document %+v", out)
			}
		})
	}
}

func TestPutReplacesExistingObject(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if _, err := store.PutBlob(ctx, "a/b", []byte("first")); err != nil {
				t.Fatalf("PutBlob failed: %v", err)
			}
			if _, err := store.PutBlob(ctx, "a/b", []byte("second")); err != nil {
				t.Fatalf("PutBlob replace failed: %v", err)
			}
			data, err := store.GetBlob(ctx, "a/b")
			if err != nil {
				t.Fatalf("GetBlob failed: %v", err)
			}
			if string(data) != "second" {
				t.Fatalf("expected replacement, got %q", data)
			}
		})
	}
}

func TestMissingObjectIsNotFound(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.GetBlob(context.Background(), "missing/object")
			if !errors.Is(err, services.ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestFilesystemRejectsEscapingKeys(t *testing.T) {
	store, err := objectstore.NewFilesystem(t.TempDir())
	if err != nil {
		t.Fatalf("NewFilesystem failed: %v", err)
	}
	if _, err := store.PutBlob(context.Background(), "../outside", []byte("x")); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation for escaping key, got %v", err)
	}
	if _, err := store.PutBlob(context.Background(), "", []byte("x")); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation for empty key, got %v", err)
	}
}

func TestUnparseableDocumentIsFatal(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if _, err := store.PutBlob(ctx, "bad.json", []byte("{not json")); err != nil {
				t.Fatalf("PutBlob failed: %v", err)
			}
			var out sampleDoc
			err := store.GetDocument(ctx, "bad.json", &out)
			if !errors.Is(err, services.ErrFatalResponse) {
				t.Fatalf("expected ErrFatalResponse, got %v", err)
			}
		})
	}
}

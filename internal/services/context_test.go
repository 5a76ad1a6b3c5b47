package services_test

import (
	"context"
	"testing"

	"reelforge/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithOperation(ctx, "convert")
	ctx = services.WithOperationID(ctx, "op-1")
	ctx = services.WithRequestID(ctx, "req-123")

	if op, ok := services.OperationFromContext(ctx); !ok || op != "convert" {
		t.Fatalf("unexpected operation: %v %v", op, ok)
	}
	if id, ok := services.OperationIDFromContext(ctx); !ok || id != "op-1" {
		t.Fatalf("unexpected operation id: %v %v", id, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
}

func TestOperationBlankPreservesContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithOperation(ctx, "")
	if _, ok := services.OperationFromContext(ctx); ok {
		t.Fatal("expected no operation value")
	}
}

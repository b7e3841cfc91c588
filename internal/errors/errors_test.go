package errors

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildWithoutComponent(t *testing.T) {
	ClearErrorHooks()

	ee := New(fmt.Errorf("test error")).Build()

	assert.Equal(t, "test error", ee.Error())
	assert.Equal(t, CategoryGeneric, ee.Category)
	assert.False(t, ee.GetTimestamp().IsZero())
}

func TestBuilderCarriesMetadata(t *testing.T) {
	ClearErrorHooks()

	base := NewStd("boom")
	ee := New(base).
		Component("importer").
		Category(CategoryDatabase).
		Priority(PriorityHigh).
		Context("table", "clips").
		Build()

	assert.Equal(t, "importer", ee.GetComponent())
	assert.Equal(t, "database", ee.GetCategory())
	assert.Equal(t, PriorityHigh, ee.GetPriority())
	assert.Equal(t, map[string]any{"table": "clips"}, ee.GetContext())
	assert.ErrorIs(t, ee, base)
	assert.True(t, IsCategory(fmt.Errorf("wrapped: %w", ee), CategoryDatabase))
}

func TestUnknownPriorityFallsBackToMedium(t *testing.T) {
	ee := New(NewStd("x")).Priority("urgent").Build()
	assert.Equal(t, PriorityMedium, ee.GetPriority())
}

func TestDetectCategory(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCategory
	}{
		{"canceled", context.Canceled, CategoryCancellation},
		{"deadline", fmt.Errorf("query: %w", context.DeadlineExceeded), CategoryTimeout},
		{"validation", NewStd("invalid collection type"), CategoryValidation},
		{"duplicate", NewStd("duplicate key value"), CategoryConflict},
		{"enhanced", New(NewStd("x")).Category(CategoryNotFound).Build(), CategoryNotFound},
		{"nil", nil, CategoryGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, detectCategory(tt.err, ""))
		})
	}
}

func TestErrorHooksObserveBuiltErrors(t *testing.T) {
	ClearErrorHooks()
	t.Cleanup(ClearErrorHooks)

	var count atomic.Int32
	var seen ErrorCategory
	var mu sync.Mutex
	AddErrorHook(func(ee *EnhancedError) {
		count.Add(1)
		mu.Lock()
		seen = ee.Category
		mu.Unlock()
	})
	AddErrorHook(nil)

	_ = New(NewStd("bad document")).Category(CategoryDataFormat).Build()

	require.Equal(t, int32(1), count.Load())
	mu.Lock()
	assert.Equal(t, CategoryDataFormat, seen)
	mu.Unlock()
}

func TestFileContextIsAnonymized(t *testing.T) {
	ee := New(NewStd("open failed")).FileContext("/home/user/project.json", 2048).Build()

	ctx := ee.GetContext()
	assert.Equal(t, "absolute-path", ctx["file_type"])
	assert.Equal(t, "json", ctx["file_extension"])
	assert.Equal(t, "small", ctx["file_size_category"])
	assert.NotContains(t, fmt.Sprint(ctx), "/home/user")
}

func TestEnhancedErrorIsMatchesCategory(t *testing.T) {
	a := New(NewStd("a")).Category(CategoryConflict).Build()
	b := New(NewStd("b")).Category(CategoryConflict).Build()
	c := New(NewStd("c")).Category(CategoryDatabase).Build()

	assert.True(t, Is(a, b))
	assert.False(t, Is(a, c))
}

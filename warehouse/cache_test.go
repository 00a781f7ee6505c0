package warehouse

import (
	"errors"
	"fmt"
	"slices"
	"testing"
)

func TestCacheBasicOperations(t *testing.T) {
	const capacity = 10
	cache := FactoryNewCache[string](capacity)

	items := []string{"item1", "item2", "item3", "item4", "item5"}
	indices := make([]int, len(items))

	for i, item := range items {
		index, err := cache.Register(item, item)
		if err != nil {
			t.Errorf("Failed to register item %s: %v", item, err)
		}
		indices[i] = index

		// Indices start at 1; 0 is reserved
		if index != i+1 {
			t.Errorf("Index for item %s is %d, expected %d", item, index, i+1)
		}
	}

	for i, item := range items {
		index, found := cache.GetIndex(item)
		if !found {
			t.Errorf("Item %s not found in cache", item)
		}
		if index != indices[i] {
			t.Errorf("Index for item %s is %d, expected %d", item, index, indices[i])
		}
		if got := *cache.GetItem(indices[i]); got != item {
			t.Errorf("Item at index %d is %s, expected %s", indices[i], got, item)
		}
		if got := *cache.GetItem32(uint32(indices[i])); got != item {
			t.Errorf("Item at index %d is %s, expected %s", indices[i], got, item)
		}
	}

	if _, found := cache.GetIndex("nonexistent"); found {
		t.Errorf("Found non-existent item in cache")
	}
	if cache.Len() != len(items) {
		t.Errorf("Len() = %d, want %d", cache.Len(), len(items))
	}
}

func TestCacheOverwrite(t *testing.T) {
	cache := FactoryNewCache[int](4)

	first, err := cache.Register("a", 1)
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	second, err := cache.Register("a", 2)
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if first != second {
		t.Errorf("re-register moved index from %d to %d", first, second)
	}
	if got := *cache.GetItem(first); got != 2 {
		t.Errorf("GetItem() = %d, want 2", got)
	}
	if cache.Len() != 1 {
		t.Errorf("Len() = %d, want 1", cache.Len())
	}
}

func TestCacheCapacity(t *testing.T) {
	tests := []struct {
		name      string
		capacity  int
		registers int
		wantErr   bool
	}{
		{"Under capacity", 5, 3, false},
		{"At capacity", 5, 5, false},
		{"Over capacity", 5, 6, true},
		{"Zero capacity", 0, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := FactoryNewCache[int](tt.capacity)
			var err error
			for i := 0; i < tt.registers; i++ {
				_, err = cache.Register(string(rune('a'+i)), i)
				if err != nil {
					break
				}
			}
			if (err != nil) != tt.wantErr {
				t.Fatalf("Register() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !errors.As(err, &CacheCapacityError{}) {
				t.Errorf("error %v is not a CacheCapacityError", err)
			}
		})
	}
}

func TestCacheClear(t *testing.T) {
	cache := FactoryNewCache[string](2)
	cache.Register("x", "x")
	cache.Register("y", "y")

	cache.Clear()

	if cache.Len() != 0 {
		t.Errorf("Len() after Clear = %d, want 0", cache.Len())
	}
	if _, found := cache.GetIndex("x"); found {
		t.Errorf("cleared key still indexed")
	}
	idx, err := cache.Register("z", "z")
	if err != nil || idx != 1 {
		t.Errorf("Register() after Clear = %d, %v; want 1, nil", idx, err)
	}
}

func TestCacheStructValues(t *testing.T) {
	type pipeline struct {
		name    string
		program int
	}
	cache := FactoryNewCache[pipeline](3)

	idx, err := cache.Register("object", pipeline{name: "object", program: 7})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	// Items are addressable and mutable in place
	cache.GetItem(idx).program = 9
	if got := cache.GetItem(idx).program; got != 9 {
		t.Errorf("program = %d, want 9", got)
	}
}

func TestCacheKeepsRegistrationOrder(t *testing.T) {
	cache := FactoryNewCache[int](4)
	for i, key := range []string{"object", "glyph", "triangle"} {
		cache.Register(key, i)
	}
	cache.Register("glyph", 10)

	if got, want := cache.Keys(), []string{"object", "glyph", "triangle"}; !slices.Equal(got, want) {
		t.Errorf("Keys() = %v, want %v", got, want)
	}

	var seen []string
	for key, item := range cache.All() {
		seen = append(seen, fmt.Sprintf("%s=%d", key, *item))
	}
	if want := []string{"object=0", "glyph=10", "triangle=2"}; !slices.Equal(seen, want) {
		t.Errorf("All() = %v, want %v", seen, want)
	}

	cache.Clear()
	if keys := cache.Keys(); len(keys) != 0 {
		t.Errorf("Keys() after Clear = %v, want none", keys)
	}
}

package schematic

import (
	"fmt"
	"sync"
	"testing"
)

func TestNoCache(t *testing.T) {
	var c NoCache
	if err := c.Write("https://example.com/a.yaml", "x"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok, err := c.Read("https://example.com/a.yaml"); ok || err != nil {
		t.Errorf("NoCache should always miss, got ok=%v err=%v", ok, err)
	}
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache()

	if _, ok, _ := c.Read("https://example.com/a.yaml"); ok {
		t.Error("empty cache should miss")
	}

	if err := c.Write("https://example.com/a.yaml", "name: a"); err != nil {
		t.Fatal(err)
	}
	content, ok, err := c.Read("https://example.com/a.yaml")
	if err != nil || !ok || content != "name: a" {
		t.Errorf("Read = %q, %v, %v", content, ok, err)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestMemoryCache_Concurrent(t *testing.T) {
	c := NewMemoryCache()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			url := fmt.Sprintf("https://example.com/%d.yaml", i%5)
			_ = c.Write(url, "x")
			_, _, _ = c.Read(url)
		}(i)
	}
	wg.Wait()

	if c.Len() != 5 {
		t.Errorf("Len() = %d, want 5", c.Len())
	}
}

package cache

import (
	"testing"
)

func TestPutGetRoundTrip(t *testing.T) {
	c, err := OpenAt(t.TempDir())
	if err != nil {
		t.Fatalf("OpenAt: %v", err)
	}

	key := Key([]byte("src"), []byte("fixture"), "rustc {input}", "1.61.0")
	in := &Payload{Name: "compare-method/trait_impl_mismatch", Outcome: "pass", DurationMS: 42}
	if err := c.Put(key, in); err != nil {
		t.Fatalf("Put: %v", err)
	}

	var out Payload
	hit, err := c.Get(key, &out)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !hit {
		t.Fatal("expected a cache hit")
	}
	if out.Name != in.Name || out.Outcome != "pass" || out.DurationMS != 42 {
		t.Errorf("payload round trip mismatch: %+v", out)
	}
}

func TestMissOnDifferentKey(t *testing.T) {
	c, err := OpenAt(t.TempDir())
	if err != nil {
		t.Fatalf("OpenAt: %v", err)
	}

	k1 := Key([]byte("src"), []byte("fix"), "cmd", "v1")
	if err := c.Put(k1, &Payload{Outcome: "pass"}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	// Any ingredient change must change the key.
	variants := []Digest{
		Key([]byte("src2"), []byte("fix"), "cmd", "v1"),
		Key([]byte("src"), []byte("fix2"), "cmd", "v1"),
		Key([]byte("src"), []byte("fix"), "cmd2", "v1"),
		Key([]byte("src"), []byte("fix"), "cmd", "v2"),
	}
	for i, k := range variants {
		var out Payload
		hit, err := c.Get(k, &out)
		if err != nil {
			t.Fatalf("Get variant %d: %v", i, err)
		}
		if hit {
			t.Errorf("variant %d unexpectedly hit", i)
		}
	}
}

func TestPurge(t *testing.T) {
	c, err := OpenAt(t.TempDir())
	if err != nil {
		t.Fatalf("OpenAt: %v", err)
	}
	key := Key([]byte("a"), []byte("b"), "c", "d")
	if err := c.Put(key, &Payload{Outcome: "pass"}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := c.Purge(); err != nil {
		t.Fatalf("Purge: %v", err)
	}
	var out Payload
	if hit, _ := c.Get(key, &out); hit {
		t.Fatal("cache should be empty after Purge")
	}
}

func TestNilCacheIsInert(t *testing.T) {
	var c *DiskCache
	if err := c.Put(Digest{}, &Payload{}); err != nil {
		t.Errorf("nil Put: %v", err)
	}
	var out Payload
	if hit, err := c.Get(Digest{}, &out); hit || err != nil {
		t.Errorf("nil Get = (%v, %v)", hit, err)
	}
}

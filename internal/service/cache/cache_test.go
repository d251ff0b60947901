package cache

import (
	"testing"
	"time"
)

func TestSetGetRoundTrip(t *testing.T) {
	c := NewTTLCache()
	if err := c.SetBytes("k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	b, ok, err := c.GetBytes("k")
	if err != nil || !ok || string(b) != "v" {
		t.Fatalf("get = %q ok=%v err=%v", b, ok, err)
	}
}

func TestMissingKey(t *testing.T) {
	c := NewTTLCache()
	if _, ok, err := c.GetBytes("absent"); ok || err != nil {
		t.Fatalf("miss should be ok=false err=nil, got ok=%v err=%v", ok, err)
	}
}

func TestEntryExpires(t *testing.T) {
	c := NewTTLCache()
	c.SetBytes("k", []byte("v"), 10*time.Millisecond)
	time.Sleep(25 * time.Millisecond)
	if _, ok, _ := c.GetBytes("k"); ok {
		t.Error("expired entry should miss")
	}
}

func TestZeroTTLNeverExpires(t *testing.T) {
	c := NewTTLCache()
	c.SetBytes("k", []byte("v"), 0)
	time.Sleep(15 * time.Millisecond)
	if _, ok, _ := c.GetBytes("k"); !ok {
		t.Error("zero ttl entry should persist")
	}
}

package cache

import (
	"fmt"
	"testing"
	"time"
)

func TestLRU_GetSet(t *testing.T) {
	c := NewLRU(10, time.Minute)

	c.Set("a", []byte("aaa"))

	v, ok := c.Get("a")
	if !ok {
		t.Fatal("期望命中缓存")
	}
	if string(v) != "aaa" {
		t.Errorf("期望 aaa，实际=%s", v)
	}

	if _, ok := c.Get("missing"); ok {
		t.Error("期望未命中")
	}
}

func TestLRU_EvictsOldest(t *testing.T) {
	c := NewLRU(3, time.Minute)

	for i := 0; i < 3; i++ {
		c.Set(fmt.Sprintf("k%d", i), []byte{byte(i)})
	}

	// 访问 k0 使其成为最近使用，随后写入第 4 条应淘汰 k1
	c.Get("k0")
	c.Set("k3", []byte{3})

	if c.Len() != 3 {
		t.Errorf("期望容量保持 3，实际=%d", c.Len())
	}
	if _, ok := c.Get("k1"); ok {
		t.Error("期望 k1 被淘汰")
	}
	if _, ok := c.Get("k0"); !ok {
		t.Error("期望 k0 保留")
	}
}

func TestLRU_TTLExpiry(t *testing.T) {
	c := NewLRU(10, time.Minute)
	base := time.Now()
	c.now = func() time.Time { return base }

	c.Set("a", []byte("aaa"))

	// 时钟前进超过 TTL
	c.now = func() time.Time { return base.Add(2 * time.Minute) }

	if _, ok := c.Get("a"); ok {
		t.Error("期望条目已过期")
	}
	if c.Len() != 0 {
		t.Errorf("期望过期条目被移除，实际剩余=%d", c.Len())
	}
}

func TestLRU_SetOverwrites(t *testing.T) {
	c := NewLRU(10, time.Minute)

	c.Set("a", []byte("v1"))
	c.Set("a", []byte("v2"))

	v, ok := c.Get("a")
	if !ok || string(v) != "v2" {
		t.Errorf("期望覆盖为 v2，实际=%s", v)
	}
	if c.Len() != 1 {
		t.Errorf("期望 1 条，实际=%d", c.Len())
	}
}

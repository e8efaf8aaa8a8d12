package cache

import (
	"container/list"
	"sync"
	"time"
)

// LRU 带 TTL 的定容内存缓存
// 用于缓存缩略图字节，避免重复回源远端存储
// 并发安全；容量满时淘汰最久未访问的条目
type LRU struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	order   *list.List // 队尾为最近访问
	entries map[string]*list.Element

	// 测试钩子
	now func() time.Time
}

type entry struct {
	key      string
	value    []byte
	storedAt time.Time
}

// NewLRU 创建缓存实例
func NewLRU(maxSize int, ttl time.Duration) *LRU {
	if maxSize <= 0 {
		maxSize = 100
	}
	return &LRU{
		maxSize: maxSize,
		ttl:     ttl,
		order:   list.New(),
		entries: make(map[string]*list.Element),
		now:     time.Now,
	}
}

// Get 返回缓存值；不存在或已过期返回 nil, false
func (c *LRU) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return nil, false
	}

	e := el.Value.(*entry)
	if c.ttl > 0 && c.now().Sub(e.storedAt) > c.ttl {
		c.removeLocked(el)
		return nil, false
	}

	c.order.MoveToBack(el)
	return e.value, true
}

// Set 写入缓存；容量满时淘汰最久未访问的条目
func (c *LRU) Set(key string, value []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		e := el.Value.(*entry)
		e.value = value
		e.storedAt = c.now()
		c.order.MoveToBack(el)
		return
	}

	if c.order.Len() >= c.maxSize {
		if oldest := c.order.Front(); oldest != nil {
			c.removeLocked(oldest)
		}
	}

	el := c.order.PushBack(&entry{key: key, value: value, storedAt: c.now()})
	c.entries[key] = el
}

// Len 当前条目数
func (c *LRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Clear 清空缓存
func (c *LRU) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order.Init()
	c.entries = make(map[string]*list.Element)
}

func (c *LRU) removeLocked(el *list.Element) {
	e := el.Value.(*entry)
	delete(c.entries, e.key)
	c.order.Remove(el)
}

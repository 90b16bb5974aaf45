package script

import (
	"sort"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// Cache keeps parsed scripts so that a script used by many tests is compiled once.
type Cache struct {
	scripts map[uint64]*Script
	lock    sync.Mutex
}

func NewCache() *Cache {
	return &Cache{scripts: make(map[uint64]*Script)}
}

// Parse returns the cached script for text and vars, parsing it on first use.
func (c *Cache) Parse(text string, vars map[string]string) (*Script, error) {
	key := fingerprint(text, vars)
	c.lock.Lock()
	s, ok := c.scripts[key]
	c.lock.Unlock()
	if ok {
		return s, nil
	}
	s, err := Parse(text, vars)
	if err != nil {
		return nil, err
	}
	c.lock.Lock()
	c.scripts[key] = s
	c.lock.Unlock()
	return s, nil
}

func (c *Cache) Len() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return len(c.scripts)
}

func fingerprint(text string, vars map[string]string) uint64 {
	d := xxhash.New()
	_, _ = d.WriteString(text)
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		_, _ = d.WriteString("\x00" + k + "\x00" + vars[k])
	}
	return d.Sum64()
}

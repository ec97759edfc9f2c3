package schema

import (
	"reflect"
	"sync"

	lru "github.com/hashicorp/golang-lru"
)

// cacheSize bounds the number of distinct reflect.Types this process will
// remember the derived schema for. A device map is bound once at startup
// and rarely registers more than a few hundred distinct types, so this is
// generous headroom rather than a tight budget.
const cacheSize = 4096

var (
	cacheOnce sync.Once
	cache     *lru.Cache
)

func ensureCache() {
	cacheOnce.Do(func() {
		c, err := lru.New(cacheSize)
		if err != nil {
			// Only fails for a non-positive size, which cacheSize never is.
			panic(err)
		}
		cache = c
	})
}

func cacheGet(t reflect.Type) (*Node, bool) {
	ensureCache()
	v, ok := cache.Get(t)
	if !ok {
		return nil, false
	}
	return v.(*Node), true
}

func cachePut(t reflect.Type, n *Node) {
	ensureCache()
	cache.Add(t, n)
}

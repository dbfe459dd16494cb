package entries

import "github.com/briangreenhill/blogfront/cache"

const (
	listOp  = "blogs"
	entryOp = "blog"
)

// ListKey is the cache key of one page of the entry list, e.g. "blogs_0_10".
func ListKey(page, pageSize int) string { return cache.Key(listOp, page, pageSize) }

// EntryKey is the cache key of a single entry, e.g. "blog_42".
func EntryKey(id int64) string { return cache.Key(entryOp, id) }

// listPrefix matches every list page key and no entry key.
var listPrefix = cache.Prefix(listOp)

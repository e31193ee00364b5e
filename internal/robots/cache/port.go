package cache

// Cache defines the port interface for robots.txt body caching.
// This interface follows the port-adapter pattern, allowing different
// cache implementations to be swapped without changing engine logic.
//
// Keys are robots URLs (scheme + host + port + "/robots.txt"); values are the
// raw robots.txt body. An empty body is a valid cached value ("no
// restrictions") and is distinct from a miss.
type Cache interface {
	// Get retrieves a body from the cache by key.
	// Returns the cached body and true if found and not expired,
	// or empty string and false otherwise.
	Get(key string) (string, bool)

	// Put stores a body under key. If the key already exists, the value is
	// overwritten and its lifetime restarts.
	Put(key string, body string)
}

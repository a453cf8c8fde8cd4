package cache

import "errors"

// ErrCacheMiss is returned when a key does not exist.
var ErrCacheMiss = errors.New("cache miss")

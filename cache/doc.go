// Package cache provides the small caches used around the auth engine: a
// generic single-slot TTL memo and a redis-backed JSON cache.
package cache

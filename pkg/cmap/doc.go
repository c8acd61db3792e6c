// Package cmap provides a sharded concurrent map keyed by strings.
//
// Keys are routed to shards with murmur3, so the same key always lands on
// the same shard across processes. Each shard has its own RWMutex:
//
//	sessions := cmap.New[*sessionState]()
//	st, _ := sessions.GetOrCreate("ironman_1234", newSessionState)
//	sessions.Range(func(id string, st *sessionState) bool { ...; return true })
//
// All operations are safe for concurrent use. Iteration locks one shard at
// a time, so it observes each shard consistently but not the whole map.
package cmap

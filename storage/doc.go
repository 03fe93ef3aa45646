// Package storage provides the key-value adapter used to persist run state.
//
// Values are opaque bytes grouped by namespace. Backends register a factory
// under a provider name and are created through New:
//
//	import _ "github.com/kbukum/nodeflow/storage/redis"
//
//	adapter, err := storage.New(storage.Config{Provider: "redis"}, &redis.Config{Addr: "localhost:6379"}, log)
//
// The memory provider is always available.
package storage

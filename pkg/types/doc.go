// Package types defines the contracts shared by the registry, the streaming
// plumbing and every backend: the Config value, the Provider and Factory
// interfaces, ChunkSource, and the ProviderError taxonomy.
package types

// Package model defines the streaming LLM interface and its Bedrock adapter.
package model

import "context"

// ChunkType discriminates streamed events.
type ChunkType string

const (
	// ChunkTypeText carries one text delta.
	ChunkTypeText ChunkType = "text"
	// ChunkTypeStop terminates a stream normally.
	ChunkTypeStop ChunkType = "stop"
	// ChunkTypeError terminates a stream after an upstream failure. Deltas
	// emitted before it remain valid; the transport has already flushed them.
	ChunkTypeError ChunkType = "error"
)

// Chunk is one streamed event. Exactly one terminal chunk (stop or error)
// ends every stream.
type Chunk struct {
	Type ChunkType
	Text string
	Err  error
}

// Request describes one generation call.
type Request struct {
	Prompt      string
	ModelID     string
	MaxTokens   int
	Temperature float64
}

// Streamer invokes the model and yields text deltas. The returned channel is
// closed after the terminal chunk. Implementations must not buffer beyond a
// bounded window.
type Streamer interface {
	Stream(ctx context.Context, req Request) (<-chan Chunk, error)
}

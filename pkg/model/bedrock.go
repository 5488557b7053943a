package model

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

const (
	defaultMaxTokens   = 1000
	defaultTemperature = 0.7
)

// BedrockAPI is the subset of the Bedrock runtime client used for streaming.
type BedrockAPI interface {
	ConverseStream(ctx context.Context, params *bedrockruntime.ConverseStreamInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseStreamOutput, error)
}

// BedrockStreamer adapts the Bedrock ConverseStream event stream to the
// Streamer interface. Events are pumped into a bounded channel by a goroutine;
// mid-stream failures surface as a single error chunk after any deltas already
// emitted.
type BedrockStreamer struct {
	client BedrockAPI
}

// NewBedrockStreamer wraps a Bedrock runtime client.
func NewBedrockStreamer(client BedrockAPI) *BedrockStreamer {
	return &BedrockStreamer{client: client}
}

// Stream starts a ConverseStream call and returns the chunk channel. The
// channel is closed after the terminal chunk.
func (b *BedrockStreamer) Stream(ctx context.Context, req Request) (<-chan Chunk, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	temperature := req.Temperature
	if temperature <= 0 {
		temperature = defaultTemperature
	}

	out, err := b.client.ConverseStream(ctx, &bedrockruntime.ConverseStreamInput{
		ModelId: aws.String(req.ModelID),
		Messages: []brtypes.Message{
			{
				Role: brtypes.ConversationRoleUser,
				Content: []brtypes.ContentBlock{
					&brtypes.ContentBlockMemberText{Value: req.Prompt},
				},
			},
		},
		InferenceConfig: &brtypes.InferenceConfiguration{
			MaxTokens:   aws.Int32(int32(maxTokens)),
			Temperature: aws.Float32(float32(temperature)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("bedrock converse stream: %w", err)
	}

	chunks := make(chan Chunk, 32)
	go b.pump(ctx, out.GetStream(), chunks)
	return chunks, nil
}

func (b *BedrockStreamer) pump(ctx context.Context, stream *bedrockruntime.ConverseStreamEventStream, chunks chan<- Chunk) {
	defer close(chunks)
	defer func() { _ = stream.Close() }()

	stopped := false
	for {
		select {
		case <-ctx.Done():
			chunks <- Chunk{Type: ChunkTypeError, Err: ctx.Err()}
			return
		case event, ok := <-stream.Events():
			if !ok {
				if err := stream.Err(); err != nil {
					chunks <- Chunk{Type: ChunkTypeError, Err: err}
				} else if !stopped {
					// Upstream closed without a message stop; treat as
					// a normal end so partial text stays usable.
					chunks <- Chunk{Type: ChunkTypeStop}
				}
				return
			}
			switch ev := event.(type) {
			case *brtypes.ConverseStreamOutputMemberContentBlockDelta:
				if delta, ok := ev.Value.Delta.(*brtypes.ContentBlockDeltaMemberText); ok && delta.Value != "" {
					select {
					case chunks <- Chunk{Type: ChunkTypeText, Text: delta.Value}:
					case <-ctx.Done():
						chunks <- Chunk{Type: ChunkTypeError, Err: ctx.Err()}
						return
					}
				}
			case *brtypes.ConverseStreamOutputMemberMessageStop:
				stopped = true
				chunks <- Chunk{Type: ChunkTypeStop}
			}
		}
	}
}

package server

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/chatrelay/chatrelay/pkg/enhance"
	"github.com/chatrelay/chatrelay/pkg/model"
	"github.com/chatrelay/chatrelay/pkg/prompt"
	"github.com/chatrelay/chatrelay/pkg/tenant"
)

// handleChatMode runs the chat pipeline: knowledge fetch, model streaming,
// enhancement. All frames for one request go out in generation order; the
// cta_buttons frame strictly follows every text frame.
func (s *Server) handleChatMode(ctx context.Context, sw *StreamWriter, req *ChatRequest, cfg *tenant.Config) {
	start := s.now()
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	stopHeartbeat := s.startHeartbeat(ctx, sw)
	defer stopHeartbeat()

	kbContext := ""
	if kbID := cfg.KnowledgeBaseID(); kbID != "" && s.kb != nil {
		kbContext = s.kb.Retrieve(ctx, req.UserInput, kbID)
	}

	promptText := prompt.Build(req.UserInput, kbContext, cfg, req.ConversationHistory)

	chunks, err := s.streamer.Stream(ctx, model.Request{
		Prompt:      promptText,
		ModelID:     cfg.EffectiveModelID(s.opts.BedrockModelID),
		MaxTokens:   cfg.Streaming.MaxTokens,
		Temperature: cfg.Streaming.Temperature,
	})
	if err != nil {
		stopHeartbeat()
		s.metrics.requestsTotal.WithLabelValues("chat", "model_error").Inc()
		sw.Data(map[string]string{"type": "error", "error": err.Error()})
		sw.Done()
		return
	}

	var full strings.Builder
	var streamErr error
	tokens := 0

	for chunk := range chunks {
		switch chunk.Type {
		case model.ChunkTypeText:
			if tokens == 0 {
				// First token: the heartbeat must be fully stopped before
				// content frames so the two writers never interleave.
				stopHeartbeat()
				firstTokenMS := time.Since(start).Milliseconds()
				s.metrics.firstTokenSecs.Observe(time.Since(start).Seconds())
				sw.Data(map[string]string{"type": "stream_start"})
				sw.Comment(fmt.Sprintf("x-first-token-ms=%d", firstTokenMS))
			}
			tokens++
			full.WriteString(chunk.Text)
			sw.Data(map[string]string{
				"type":       "text",
				"content":    chunk.Text,
				"session_id": sessionID,
			})

		case model.ChunkTypeError:
			streamErr = chunk.Err

		case model.ChunkTypeStop:
		}
	}
	stopHeartbeat()

	totalMS := time.Since(start).Milliseconds()
	s.metrics.streamDuration.Observe(time.Since(start).Seconds())
	sw.CommentLine(fmt.Sprintf("x-total-tokens=%d", tokens))
	sw.CommentLine(fmt.Sprintf("x-total-time-ms=%d", totalMS))

	if streamErr != nil {
		// Partial text is already delivered; the protocol permits closing
		// with an error frame after it.
		s.metrics.requestsTotal.WithLabelValues("chat", "stream_error").Inc()
		sw.Data(map[string]string{"type": "error", "error": streamErr.Error()})
		sw.Done()
		return
	}

	answer := full.String()
	result := enhance.Enhance(enhance.Input{
		Message:     answer,
		UserMessage: req.UserInput,
		Config:      cfg,
		Session:     req.SessionContext,
		Routing:     req.RoutingMetadata,
	})

	if shouldEmitCTAFrame(result) {
		frame := map[string]interface{}{
			"type":       "cta_buttons",
			"ctaButtons": result.CTAButtons,
			"metadata":   result.Metadata,
			"session_id": sessionID,
		}
		if result.ShowcaseCard != nil {
			frame["showcaseCard"] = result.ShowcaseCard
		}
		sw.Data(frame)
	}

	slog.Debug("Q&A pair",
		"tenant_hash", req.TenantHash,
		"session_id", sessionID,
		"question", req.UserInput,
		"answer", answer,
		"tokens", tokens,
		"total_ms", totalMS)

	s.metrics.requestsTotal.WithLabelValues("chat", "ok").Inc()
	sw.Done()
}

// startHeartbeat emits heartbeat frames until stopped. The returned function
// blocks until the heartbeat goroutine has exited, so callers can rely on no
// heartbeat write racing later frames. Safe to call more than once.
func (s *Server) startHeartbeat(ctx context.Context, sw *StreamWriter) func() {
	stop := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		ticker := time.NewTicker(s.opts.HeartbeatInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				sw.Data(map[string]string{"type": "heartbeat"})
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() { close(stop) })
		<-done
	}
}

// shouldEmitCTAFrame: skip the frame when there is nothing to act on, but
// form-flow metadata must always reach the widget.
func shouldEmitCTAFrame(result enhance.Result) bool {
	if len(result.CTAButtons) > 0 || result.ShowcaseCard != nil {
		return true
	}
	if v, ok := result.Metadata["program_switch_detected"].(bool); ok && v {
		return true
	}
	if _, ok := result.Metadata["suspended_forms_detected"]; ok {
		return true
	}
	return false
}

package app

import (
	"context"
	"encoding/json"
	"fmt"

	"jerrygfit/api/internal/ai"
	"jerrygfit/api/internal/metrics"
	"jerrygfit/api/internal/store"
)

const aiHistoryDefaultLimit = 20

type GenerateResult struct {
	Success     bool             `json:"success"`
	Data        []map[string]any `json:"data"`
	TokensUsed  int              `json:"tokens_used"`
	RequestType string           `json:"request_type"`
}

// Generate runs one completion. Every attempt is persisted as an AIRequest;
// failed attempts carry zero tokens and the client-facing error message.
func (s *Service) Generate(ctx context.Context, userID int64, input GenerateInput) (GenerateResult, error) {
	prompt, itemType := ai.Build(ai.Request{
		Type:    input.RequestType,
		Prompt:  input.Prompt,
		Model:   input.Model,
		Context: input.Context,
	})

	completion, err := s.gateway.Complete(ctx, prompt)
	if err != nil {
		outcome := metrics.OutcomeProviderError
		if ai.Unavailable(err) {
			outcome = metrics.OutcomeUnavailable
		}
		metrics.ObserveAI(input.RequestType, outcome, 0)
		s.log.Error().Err(err).
			Int64("user_id", userID).
			Str("request_type", input.RequestType).
			Msg("ai generation failed")

		// The attempt is recorded even when the caller went away.
		if _, recordErr := s.recordAIRequest(context.WithoutCancel(ctx), userID, input, map[string]any{"error": ai.Message(err)}, 0); recordErr != nil {
			s.log.Error().Err(recordErr).Int64("user_id", userID).Msg("record failed ai request")
		}
		return GenerateResult{}, err
	}

	items := ai.Items(input.RequestType, itemType, completion.Content)
	metrics.ObserveAI(input.RequestType, metrics.OutcomeSuccess, completion.TokensUsed)
	if _, err := s.recordAIRequest(ctx, userID, input, map[string]any{"items": items}, completion.TokensUsed); err != nil {
		return GenerateResult{}, err
	}

	return GenerateResult{
		Success:     true,
		Data:        items,
		TokensUsed:  completion.TokensUsed,
		RequestType: input.RequestType,
	}, nil
}

func (s *Service) recordAIRequest(ctx context.Context, userID int64, input GenerateInput, response map[string]any, tokens int) (store.AIRequest, error) {
	raw, err := json.Marshal(response)
	if err != nil {
		return store.AIRequest{}, fmt.Errorf("marshal ai response: %w", err)
	}
	return s.store.CreateAIRequest(ctx, store.AIRequest{
		UserID:      userID,
		RequestType: input.RequestType,
		Prompt:      input.Prompt,
		Response:    raw,
		TokensUsed:  tokens,
	})
}

// AIHistory lists the caller's requests, newest first.
func (s *Service) AIHistory(ctx context.Context, userID int64, page store.Page) ([]store.AIRequest, error) {
	return s.store.ListAIRequests(ctx, userID, page)
}

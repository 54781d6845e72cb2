package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"jerrygfit/api/internal/ai"
	"jerrygfit/api/internal/domain"
	"jerrygfit/api/internal/store"
)

func aiServer(t *testing.T, fs *fakeStore, gateway *fakeGateway) (http.Handler, string) {
	t.Helper()
	user := activeUser(1, domain.RoleCreator)
	fs.getUserByIDFn = usersByID(user)
	svc := newTestService(fs, Options{Gateway: gateway})
	return newTestServer(svc), bearerFor(t, svc, user)
}

func TestGenerateCaptionPersistsRequest(t *testing.T) {
	fs := &fakeStore{}
	gateway := &fakeGateway{
		completeFn: func(context.Context, ai.Prompt) (ai.Completion, error) {
			return ai.Completion{Content: "Leg day, every day.", TokensUsed: 37}, nil
		},
	}
	server, bearer := aiServer(t, fs, gateway)

	rr := doRequest(server, http.MethodPost, "/api/v1/ai/generate", bearer,
		`{"prompt":"squats","request_type":"caption","context":{"tone":"playful"}}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	payload := decodeJSON(t, rr)
	if payload["success"] != true || payload["tokens_used"] != float64(37) || payload["request_type"] != "caption" {
		t.Fatalf("unexpected payload %v", payload)
	}
	data, _ := payload["data"].([]any)
	if len(data) != 1 {
		t.Fatalf("expected one item, got %v", payload["data"])
	}

	if len(fs.aiWrites) != 1 {
		t.Fatalf("expected one persisted request, got %d", len(fs.aiWrites))
	}
	saved := fs.aiWrites[0]
	if saved.UserID != 1 || saved.TokensUsed != 37 || saved.Prompt != "squats" {
		t.Fatalf("unexpected persisted request %+v", saved)
	}
	var stored map[string]any
	if err := json.Unmarshal(saved.Response, &stored); err != nil {
		t.Fatalf("stored response is not JSON: %v", err)
	}
	if _, ok := stored["items"]; !ok {
		t.Fatalf("expected items in stored response, got %v", stored)
	}
	if len(gateway.prompts) != 1 || gateway.prompts[0].Model != ai.DefaultModel {
		t.Fatalf("expected default model prompt, got %+v", gateway.prompts)
	}
}

func TestGenerateWithoutProviderPersistsFailure(t *testing.T) {
	fs := &fakeStore{}
	server, bearer := aiServer(t, fs, &fakeGateway{})

	rr := doRequest(server, http.MethodPost, "/api/v1/ai/generate", bearer,
		`{"prompt":"squats","request_type":"hashtag"}`)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d body=%s", rr.Code, rr.Body.String())
	}
	if payload := decodeJSON(t, rr); payload["error"] != ai.Message(ai.ErrNotConfigured) {
		t.Fatalf("unexpected error message %v", payload["error"])
	}
	if len(fs.aiWrites) != 1 || fs.aiWrites[0].TokensUsed != 0 {
		t.Fatalf("expected failed request persisted with zero tokens, got %+v", fs.aiWrites)
	}
	var stored map[string]any
	if err := json.Unmarshal(fs.aiWrites[0].Response, &stored); err != nil {
		t.Fatalf("stored response is not JSON: %v", err)
	}
	if stored["error"] == nil {
		t.Fatalf("expected error in stored response, got %v", stored)
	}
}

func TestGenerateProviderErrorIsBadGateway(t *testing.T) {
	gateway := &fakeGateway{
		completeFn: func(context.Context, ai.Prompt) (ai.Completion, error) {
			return ai.Completion{}, fmt.Errorf("%w: model overloaded", ai.ErrProviderError)
		},
	}
	server, bearer := aiServer(t, &fakeStore{}, gateway)

	rr := doRequest(server, http.MethodPost, "/api/v1/ai/generate", bearer,
		`{"prompt":"squats","request_type":"caption"}`)

	if rr.Code != http.StatusBadGateway {
		t.Fatalf("expected status 502, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestGenerateTasksParsesItems(t *testing.T) {
	gateway := &fakeGateway{
		completeFn: func(context.Context, ai.Prompt) (ai.Completion, error) {
			return ai.Completion{Content: "```json\n[{\"title\":\"Warm up\"},{\"title\":\"Stretch\"}]\n```", TokensUsed: 12}, nil
		},
	}
	server, bearer := aiServer(t, &fakeStore{}, gateway)

	rr := doRequest(server, http.MethodPost, "/api/v1/ai/generate", bearer,
		`{"prompt":"mobility block","request_type":"generate_tasks"}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	data, _ := decodeJSON(t, rr)["data"].([]any)
	if len(data) != 2 {
		t.Fatalf("expected two parsed tasks, got %v", data)
	}
}

func TestGenerateRequiresRequestType(t *testing.T) {
	server, bearer := aiServer(t, &fakeStore{}, &fakeGateway{})

	rr := doRequest(server, http.MethodPost, "/api/v1/ai/generate", bearer, `{"prompt":"squats"}`)

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", rr.Code)
	}
}

func TestAIHistoryDefaultsToTwenty(t *testing.T) {
	var got store.Page
	fs := &fakeStore{
		listAIRequestsFn: func(_ context.Context, _ int64, page store.Page) ([]store.AIRequest, error) {
			got = page
			return []store.AIRequest{{ID: 1, UserID: 1, RequestType: "caption", Response: []byte(`{"items":[]}`)}}, nil
		},
	}
	server, bearer := aiServer(t, fs, &fakeGateway{})

	rr := doRequest(server, http.MethodGet, "/api/v1/ai/history", bearer, "")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	if got.Limit != aiHistoryDefaultLimit {
		t.Fatalf("expected default limit %d, got %d", aiHistoryDefaultLimit, got.Limit)
	}
	var rows []map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &rows); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected one row, got %v", rows)
	}
	if _, ok := rows[0]["response"].(map[string]any); !ok {
		t.Fatalf("expected response to be embedded JSON, got %v", rows[0]["response"])
	}
}

func TestGenerateRecordsFailureAfterClientCancel(t *testing.T) {
	var recordCtxErr error
	recorded := false
	fs := &fakeStore{
		createAIRequestFn: func(ctx context.Context, request store.AIRequest) (store.AIRequest, error) {
			recorded = true
			recordCtxErr = ctx.Err()
			return request, nil
		},
	}
	gateway := &fakeGateway{
		completeFn: func(ctx context.Context, _ ai.Prompt) (ai.Completion, error) {
			return ai.Completion{}, fmt.Errorf("%w: %v", ai.ErrConnectionFailure, ctx.Err())
		},
	}
	svc := newTestService(fs, Options{Gateway: gateway})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Generate(ctx, 1, GenerateInput{Prompt: "squats", RequestType: "caption"})

	if !errors.Is(err, ai.ErrConnectionFailure) {
		t.Fatalf("Generate() error = %v, want ErrConnectionFailure", err)
	}
	if !recorded || recordCtxErr != nil {
		t.Fatalf("expected failed attempt recorded with a live context, recorded=%v ctxErr=%v", recorded, recordCtxErr)
	}
	if len(fs.aiWrites) != 1 || fs.aiWrites[0].TokensUsed != 0 {
		t.Fatalf("unexpected persisted requests %+v", fs.aiWrites)
	}
}

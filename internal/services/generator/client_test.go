package generator

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"hookreel/internal/clip"
	"hookreel/internal/generation"
	"hookreel/internal/services"
	"hookreel/internal/services/remote"
)

func testCall() generation.Call {
	return generation.Call{
		Index:     2,
		SourceURL: "https://cdn/demo.mp4",
		Prompt:    "intro variation 2",
		Reaction:  clip.ReactionSurprised,
		Demo:      clip.DemoShazaming,
	}
}

func TestGenerateVariantSendsSingleVariantRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/generate" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		var body generateRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if body.VariantCount != 1 || body.Prompt != "intro variation 2" || body.ReactionType != "surprised" || body.DemoType != "shazaming" {
			t.Fatalf("unexpected request %+v", body)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"options": []map[string]any{{
				"id":          "abc",
				"url":         "https://cdn/abc.mp4",
				"prompt":      body.Prompt,
				"reaction":    "surprised",
				"demoType":    "shazaming",
				"description": "Generated surprised reaction for shazaming demo",
				"name":        "abc.mp4",
			}},
			"originalVideo": map[string]any{"id": "original", "url": body.SourceVideoURL, "name": "Original Demo Video"},
		})
	}))
	defer server.Close()

	client := New(Config{BaseURL: server.URL})
	variant, err := client.GenerateVariant(context.Background(), testCall())
	if err != nil {
		t.Fatalf("GenerateVariant returned error: %v", err)
	}
	if variant.ID != "abc" || variant.Reaction != clip.ReactionSurprised || variant.Demo != clip.DemoShazaming {
		t.Fatalf("unexpected variant %+v", variant)
	}
	if variant.Name != "abc.mp4" {
		t.Fatalf("expected name to decode, got %q", variant.Name)
	}
}

func TestGenerateVariantRejectsUnknownFields(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"options":[{"id":"a","url":"u","prompt":"p","reaction":"happy","demoType":"feed","videoData":"..."}]}`))
	}))
	defer server.Close()

	_, err := New(Config{BaseURL: server.URL}).GenerateVariant(context.Background(), testCall())
	var decodeErr *remote.DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected decode error, got %v", err)
	}
}

func TestGenerateVariantRejectsEmptyOptions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"options":[]}`))
	}))
	defer server.Close()

	_, err := New(Config{BaseURL: server.URL}).GenerateVariant(context.Background(), testCall())
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external error, got %v", err)
	}
}

func TestGenerateVariantSurfacesStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := New(Config{BaseURL: server.URL}).GenerateVariant(context.Background(), testCall())
	if !remote.Retryable(context.Background(), err) {
		t.Fatalf("expected retryable status error, got %v", err)
	}
}

func TestRateLimiterInstalled(t *testing.T) {
	if New(Config{BaseURL: "http://x"}).limiter != nil {
		t.Fatal("expected no limiter without requests_per_second")
	}
	client := New(Config{BaseURL: "http://x", RequestsPerSecond: 0.5})
	if client.limiter == nil || client.limiter.Burst() != 1 {
		t.Fatalf("expected limiter with burst 1, got %+v", client.limiter)
	}
}

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"hookreel/internal/clip"
	"hookreel/internal/composition"
	"hookreel/internal/logging"
	"hookreel/internal/services"
	"hookreel/internal/services/remote"
)

func TestRecordIDAcceptsNumbersAndStrings(t *testing.T) {
	var slot UploadSlot
	if err := json.Unmarshal([]byte(`{"uploadTarget":"u","recordId":42}`), &slot); err != nil {
		t.Fatalf("unmarshal numeric: %v", err)
	}
	if slot.RecordID != "42" {
		t.Fatalf("expected 42, got %q", slot.RecordID)
	}
	if err := json.Unmarshal([]byte(`{"uploadTarget":"u","recordId":"rec-7"}`), &slot); err != nil {
		t.Fatalf("unmarshal string: %v", err)
	}
	if slot.RecordID != "rec-7" {
		t.Fatalf("expected rec-7, got %q", slot.RecordID)
	}
	if err := json.Unmarshal([]byte(`{"recordId":true}`), &slot); err == nil {
		t.Fatal("expected error for boolean id")
	}
}

func TestPagingDefaults(t *testing.T) {
	page, limit := NormalizePaging(0, -1)
	if page != 1 || limit != 10 {
		t.Fatalf("expected 1/10, got %d/%d", page, limit)
	}
	if got := TotalPages(21, 10); got != 3 {
		t.Fatalf("expected 3 pages, got %d", got)
	}
	if got := TotalPages(0, 10); got != 0 {
		t.Fatalf("expected 0 pages, got %d", got)
	}
}

func TestListVideosSendsFilterAndDefaults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/videos" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("reaction") != "happy" || q.Get("demoType") != "" || q.Get("page") != "1" || q.Get("limit") != "10" {
			t.Fatalf("unexpected query %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"items":[{"id":12,"url":"https://cdn/12.mp4","name":"x","prompt":"p","reaction":"happy","demoType":"feed"}],"total":11}`))
	}))
	defer server.Close()

	client := New(remote.Config{BaseURL: server.URL})
	page, err := client.ListVideos(context.Background(), Filter{Reaction: clip.ReactionHappy}, 0, 0)
	if err != nil {
		t.Fatalf("ListVideos returned error: %v", err)
	}
	if page.Page != 1 || page.Limit != 10 || page.TotalPages != 2 {
		t.Fatalf("unexpected paging %+v", page)
	}
	if len(page.Items) != 1 || page.Items[0].ID != "12" || page.Items[0].Demo != clip.DemoFeed {
		t.Fatalf("unexpected items %+v", page.Items)
	}
}

type gatewayServer struct {
	mu        sync.Mutex
	uploaded  []byte
	mediaType string
	metadata  clip.Metadata
	finalized string
}

func (g *gatewayServer) handler(t *testing.T, baseURL func() string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /artifact.mp4", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("video-bytes"))
	})
	mux.HandleFunc("POST /uploads", func(w http.ResponseWriter, r *http.Request) {
		var body uploadRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode upload request: %v", err)
		}
		g.mu.Lock()
		g.metadata = body.Metadata
		g.mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]any{"uploadTarget": baseURL() + "/put/9", "recordId": 9})
	})
	mux.HandleFunc("PUT /put/9", func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		g.mu.Lock()
		g.uploaded = data
		g.mediaType = r.Header.Get("Content-Type")
		g.mu.Unlock()
	})
	mux.HandleFunc("POST /uploads/{id}/finalize", func(w http.ResponseWriter, r *http.Request) {
		g.mu.Lock()
		g.finalized = r.PathValue("id")
		g.mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]any{"id": 9, "url": "https://cdn/9.mp4", "name": "9.mp4"})
	})
	return mux
}

func TestPublisherUploadsAndFinalizes(t *testing.T) {
	gw := &gatewayServer{}
	var server *httptest.Server
	server = httptest.NewServer(gw.handler(t, func() string { return server.URL }))
	defer server.Close()

	client := New(remote.Config{BaseURL: server.URL})
	publisher := NewPublisher(client, client, logging.NewNop())
	job := &composition.Job{
		ID:          "job-1",
		ArtifactURL: server.URL + "/artifact.mp4",
		Metadata:    clip.Metadata{Prompt: "intro", Reaction: clip.ReactionSad, Demo: clip.DemoKeywords},
	}

	id, err := publisher.Publish(context.Background(), job)
	if err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	if id != "9" {
		t.Fatalf("expected catalog id 9, got %q", id)
	}
	gw.mu.Lock()
	defer gw.mu.Unlock()
	if string(gw.uploaded) != "video-bytes" || gw.mediaType != "video/mp4" {
		t.Fatalf("unexpected upload %q (%s)", gw.uploaded, gw.mediaType)
	}
	if gw.finalized != "9" {
		t.Fatalf("expected finalize of 9, got %q", gw.finalized)
	}
	if gw.metadata != job.Metadata {
		t.Fatalf("unexpected metadata %+v", gw.metadata)
	}
}

func TestPublisherReportsTransferFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/uploads":
			_, _ = w.Write([]byte(`{"uploadTarget":"http://127.0.0.1:1/none","recordId":"r"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := New(remote.Config{BaseURL: server.URL})
	publisher := NewPublisher(client, client, logging.NewNop())
	_, err := publisher.Publish(context.Background(), &composition.Job{ID: "j", ArtifactURL: server.URL + "/missing.mp4"})
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external error, got %v", err)
	}
	var status *remote.StatusError
	if !errors.As(err, &status) || status.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 status error, got %v", err)
	}
}

func TestTransferOutlivesGatewayTimeout(t *testing.T) {
	var uploaded []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/final.mp4":
			time.Sleep(1200 * time.Millisecond)
			_, _ = w.Write([]byte("video-bytes"))
		case "/put":
			uploaded, _ = io.ReadAll(r.Body)
			w.WriteHeader(http.StatusOK)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := New(remote.Config{BaseURL: server.URL, TimeoutSeconds: 1}, WithTransferTimeout(10*time.Second))
	if got := client.TransferTimeout(); got != 10*time.Second {
		t.Fatalf("unexpected transfer timeout %s", got)
	}
	if err := client.Transfer(context.Background(), server.URL+"/final.mp4", server.URL+"/put"); err != nil {
		t.Fatalf("Transfer returned error: %v", err)
	}
	if string(uploaded) != "video-bytes" {
		t.Fatalf("unexpected upload body %q", uploaded)
	}

	if got := New(remote.Config{BaseURL: server.URL, TimeoutSeconds: 1}).TransferTimeout(); got != defaultTransferTimeout {
		t.Fatalf("expected default transfer timeout, got %s", got)
	}
}

func TestPublisherRequiresArtifact(t *testing.T) {
	publisher := NewPublisher(nil, nil, nil)
	if _, err := publisher.Publish(context.Background(), &composition.Job{}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

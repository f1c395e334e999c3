package testsupport

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// FakeServices emulates the generator, combiner, captioner, caption drafting
// model, and storage gateway behind one httptest server.
type FakeServices struct {
	Server *httptest.Server

	mu              sync.Mutex
	generateCalls   int
	generateFail    int
	combineFail     int
	captionFail     int
	captionStatus   int
	combineRequests [][]string
	captionRequests []CaptionCall
	draftPrompts    []string
	uploads         map[string][]byte
	slots           map[string]CatalogEntry
	catalog         []CatalogEntry
	nextRecord      int
}

// CaptionCall records one captioner request.
type CaptionCall struct {
	VideoURL string   `json:"videoUrl"`
	Captions []string `json:"captions"`
	FontSize int      `json:"fontSize"`
}

// CatalogEntry is a finalized upload held by the fake gateway.
type CatalogEntry struct {
	ID       int    `json:"id"`
	URL      string `json:"url"`
	Name     string `json:"name"`
	Prompt   string `json:"prompt"`
	Reaction string `json:"reaction"`
	DemoType string `json:"demoType"`
}

// NewFakeServices starts the server and registers cleanup.
func NewFakeServices(t testing.TB) *FakeServices {
	t.Helper()
	f := &FakeServices{uploads: make(map[string][]byte), slots: make(map[string]CatalogEntry), captionStatus: http.StatusServiceUnavailable}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /generate", f.handleGenerate)
	mux.HandleFunc("POST /combine", f.handleCombine)
	mux.HandleFunc("POST /caption", f.handleCaption)
	mux.HandleFunc("POST /chat/completions", f.handleChatCompletion)
	mux.HandleFunc("GET /artifacts/{name}", f.handleArtifact)
	mux.HandleFunc("POST /uploads", f.handleUploadSlot)
	mux.HandleFunc("PUT /upload-target/{id}", f.handleUpload)
	mux.HandleFunc("POST /uploads/{id}/finalize", f.handleFinalize)
	mux.HandleFunc("GET /videos", f.handleVideos)
	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Server.Close)
	return f
}

// URL returns the server base url.
func (f *FakeServices) URL() string {
	return f.Server.URL
}

// FailGenerate makes the next n generate requests return 503.
func (f *FakeServices) FailGenerate(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.generateFail = n
}

// FailCombine makes the next n combine requests return 503.
func (f *FakeServices) FailCombine(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.combineFail = n
}

// FailCaption makes the next n caption requests return status.
func (f *FakeServices) FailCaption(n, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.captionFail = n
	f.captionStatus = status
}

// GenerateCalls returns the number of generate requests received.
func (f *FakeServices) GenerateCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.generateCalls
}

// CombineRequests returns the clip url lists sent to the combiner.
func (f *FakeServices) CombineRequests() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]string(nil), f.combineRequests...)
}

// CaptionRequests returns the captioner requests received.
func (f *FakeServices) CaptionRequests() []CaptionCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]CaptionCall(nil), f.captionRequests...)
}

// DraftPrompts returns the user prompts sent to the caption drafting model.
func (f *FakeServices) DraftPrompts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.draftPrompts...)
}

// Catalog returns the finalized uploads, oldest first.
func (f *FakeServices) Catalog() []CatalogEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]CatalogEntry(nil), f.catalog...)
}

func (f *FakeServices) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SourceVideoURL string `json:"sourceVideoUrl"`
		Prompt         string `json:"prompt"`
		ReactionType   string `json:"reactionType"`
		DemoType       string `json:"demoType"`
		VariantCount   int    `json:"variantCount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	f.generateCalls++
	n := f.generateCalls
	fail := f.generateFail > 0
	if fail {
		f.generateFail--
	}
	f.mu.Unlock()
	if fail {
		http.Error(w, "generator busy", http.StatusServiceUnavailable)
		return
	}
	id := fmt.Sprintf("gen-%d", n)
	writeJSON(w, map[string]any{
		"options": []map[string]any{{
			"id":          id,
			"url":         fmt.Sprintf("https://cdn.test/clips/%s.mp4", id),
			"prompt":      req.Prompt,
			"reaction":    req.ReactionType,
			"demoType":    req.DemoType,
			"description": fmt.Sprintf("Generated %s reaction for %s demo", req.ReactionType, req.DemoType),
			"name":        id + ".mp4",
		}},
		"originalVideo": map[string]any{"id": "original", "url": req.SourceVideoURL, "name": "Original Demo Video"},
	})
}

func (f *FakeServices) handleCombine(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OrderedClipURLs []string `json:"orderedClipUrls"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	f.combineRequests = append(f.combineRequests, req.OrderedClipURLs)
	n := len(f.combineRequests)
	fail := f.combineFail > 0
	if fail {
		f.combineFail--
	}
	f.mu.Unlock()
	if fail {
		http.Error(w, "combiner busy", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, map[string]string{"url": fmt.Sprintf("https://cdn.test/combined/%d.mp4", n)})
}

func (f *FakeServices) handleCaption(w http.ResponseWriter, r *http.Request) {
	var req CaptionCall
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	f.captionRequests = append(f.captionRequests, req)
	n := len(f.captionRequests)
	fail := f.captionFail > 0
	status := f.captionStatus
	if fail {
		f.captionFail--
	}
	f.mu.Unlock()
	if fail {
		http.Error(w, "caption failed", status)
		return
	}
	writeJSON(w, map[string]string{"url": fmt.Sprintf("%s/artifacts/final-%d.mp4", f.Server.URL, n)})
}

// handleChatCompletion answers every prompt with the same numbered list.
func (f *FakeServices) handleChatCompletion(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	for _, m := range req.Messages {
		if m.Role == "user" {
			f.draftPrompts = append(f.draftPrompts, m.Content)
		}
	}
	f.mu.Unlock()
	writeJSON(w, map[string]any{
		"choices": []map[string]any{{
			"message":       map[string]string{"content": "1. Drafted hook\n2. Drafted payoff\n3. Drafted call to action"},
			"finish_reason": "stop",
		}},
	})
}

func (f *FakeServices) handleArtifact(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "video/mp4")
	_, _ = io.WriteString(w, "artifact:"+r.PathValue("name"))
}

func (f *FakeServices) handleUploadSlot(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Metadata struct {
			Prompt       string `json:"prompt"`
			ReactionType string `json:"reactionType"`
			DemoType     string `json:"demoType"`
		} `json:"metadata"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	f.nextRecord++
	id := f.nextRecord
	f.slots[strconv.Itoa(id)] = CatalogEntry{
		ID:       id,
		Prompt:   req.Metadata.Prompt,
		Reaction: req.Metadata.ReactionType,
		DemoType: req.Metadata.DemoType,
	}
	f.mu.Unlock()
	writeJSON(w, map[string]any{
		"uploadTarget": fmt.Sprintf("%s/upload-target/%d", f.Server.URL, id),
		"recordId":     id,
	})
}

func (f *FakeServices) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Content-Type") != "video/mp4" {
		http.Error(w, "unexpected content type", http.StatusUnsupportedMediaType)
		return
	}
	data, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	f.uploads[r.PathValue("id")] = data
	f.mu.Unlock()
	w.WriteHeader(http.StatusOK)
}

func (f *FakeServices) handleFinalize(w http.ResponseWriter, r *http.Request) {
	idValue := r.PathValue("id")
	id, err := strconv.Atoi(idValue)
	if err != nil {
		http.Error(w, "bad id", http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	_, uploaded := f.uploads[idValue]
	entry, slotted := f.slots[idValue]
	if uploaded && slotted {
		entry.ID = id
		entry.URL = fmt.Sprintf("https://cdn.test/catalog/%d.mp4", id)
		entry.Name = fmt.Sprintf("%d.mp4", id)
		f.catalog = append(f.catalog, entry)
		delete(f.slots, idValue)
	}
	f.mu.Unlock()
	if !uploaded || !slotted {
		http.Error(w, "nothing uploaded", http.StatusConflict)
		return
	}
	writeJSON(w, entry)
}

// AddCatalogEntry seeds the fake catalog.
func (f *FakeServices) AddCatalogEntry(entry CatalogEntry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.catalog = append(f.catalog, entry)
}

func (f *FakeServices) handleVideos(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	f.mu.Lock()
	var matched []CatalogEntry
	for i := len(f.catalog) - 1; i >= 0; i-- {
		entry := f.catalog[i]
		if v := q.Get("reaction"); v != "" && !strings.EqualFold(v, entry.Reaction) {
			continue
		}
		if v := q.Get("demoType"); v != "" && !strings.EqualFold(v, entry.DemoType) {
			continue
		}
		matched = append(matched, entry)
	}
	f.mu.Unlock()

	total := len(matched)
	start := min((page-1)*limit, total)
	end := min(start+limit, total)
	items := matched[start:end]
	if items == nil {
		items = []CatalogEntry{}
	}
	writeJSON(w, map[string]any{
		"items":      items,
		"total":      total,
		"page":       page,
		"limit":      limit,
		"totalPages": (total + limit - 1) / limit,
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

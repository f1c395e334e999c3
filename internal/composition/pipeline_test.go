package composition_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"hookreel/internal/clip"
	"hookreel/internal/composition"
	"hookreel/internal/services"
	"hookreel/internal/services/combiner"
	"hookreel/internal/services/remote"
)

type fakeCombiner struct {
	mu       sync.Mutex
	calls    [][]string
	failures []error
	url      string
}

func (f *fakeCombiner) Combine(_ context.Context, urls []string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, append([]string(nil), urls...))
	if len(f.failures) > 0 {
		err := f.failures[0]
		f.failures = f.failures[1:]
		return "", err
	}
	if f.url != "" {
		return f.url, nil
	}
	return "https://cdn/combined.mp4", nil
}

type captionCall struct {
	videoURL string
	spec     clip.CaptionSpec
}

type fakeCaptioner struct {
	mu       sync.Mutex
	calls    []captionCall
	failures []error
}

func (f *fakeCaptioner) Caption(_ context.Context, videoURL string, spec clip.CaptionSpec) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, captionCall{videoURL: videoURL, spec: spec})
	if len(f.failures) > 0 {
		err := f.failures[0]
		f.failures = f.failures[1:]
		return "", err
	}
	return "https://cdn/final.mp4", nil
}

type fakePublisher struct {
	id  string
	err error
	got *composition.Job
}

func (f *fakePublisher) Publish(_ context.Context, job *composition.Job) (string, error) {
	f.got = job.Clone()
	return f.id, f.err
}

func transient() error {
	return &remote.StatusError{Service: "fake", StatusCode: http.StatusServiceUnavailable}
}

func sequence(ids ...string) []clip.Variant {
	out := make([]clip.Variant, 0, len(ids))
	for _, id := range ids {
		out = append(out, clip.Variant{ID: id, URL: "https://cdn/" + id + ".mp4", Reaction: clip.ReactionHappy, Demo: clip.DemoFeed})
	}
	return out
}

func newPipeline(t *testing.T, combiner composition.Combiner, captioner composition.Captioner, opts ...composition.Option) (*composition.Pipeline, *composition.MemoryRecorder, *[]time.Duration) {
	t.Helper()
	recorder := composition.NewMemoryRecorder()
	var sleeps []time.Duration
	counter := 0
	base := []composition.Option{
		composition.WithRecorder(recorder),
		composition.WithPolicy(remote.Policy{
			MaxAttempts: 3,
			BaseDelay:   time.Second,
			MaxDelay:    10 * time.Second,
			Sleeper:     func(d time.Duration) { sleeps = append(sleeps, d) },
		}),
		composition.WithIDGenerator(func() string {
			counter++
			return fmt.Sprintf("job-%d", counter)
		}),
	}
	return composition.New(combiner, captioner, append(base, opts...)...), recorder, &sleeps
}

func TestPipelineEndToEnd(t *testing.T) {
	combiner := &fakeCombiner{}
	captioner := &fakeCaptioner{}
	pipeline, recorder, _ := newPipeline(t, combiner, captioner)

	job, err := pipeline.Start(context.Background(), composition.Request{
		CompositionID: "comp-1",
		Clips:         sequence("A", "B", "C"),
		Captions:      clip.CaptionSpec{Captions: []string{"Hi", "There"}, FontSize: 70},
	})
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if job.Status != composition.StatusComplete {
		t.Fatalf("expected complete job, got %s (%s)", job.Status, job.Error)
	}
	if job.ArtifactURL != "https://cdn/final.mp4" {
		t.Fatalf("unexpected artifact url %q", job.ArtifactURL)
	}
	if job.CombinedURL != "https://cdn/combined.mp4" {
		t.Fatalf("unexpected combined url %q", job.CombinedURL)
	}

	want := []string{"https://cdn/A.mp4", "https://cdn/B.mp4", "https://cdn/C.mp4"}
	if len(combiner.calls) != 1 || fmt.Sprint(combiner.calls[0]) != fmt.Sprint(want) {
		t.Fatalf("unexpected combine calls %v", combiner.calls)
	}
	if len(captioner.calls) != 1 {
		t.Fatalf("expected one caption call, got %d", len(captioner.calls))
	}
	call := captioner.calls[0]
	if call.videoURL != job.CombinedURL || fmt.Sprint(call.spec.Captions) != "[Hi There]" || call.spec.FontSize != 70 {
		t.Fatalf("unexpected caption call %+v", call)
	}

	history := recorder.History(job.ID)
	wantHistory := []composition.Status{
		composition.StatusPending, composition.StatusCombining, composition.StatusCaptioning, composition.StatusComplete,
	}
	if fmt.Sprint(history) != fmt.Sprint(wantHistory) {
		t.Fatalf("unexpected status history %v", history)
	}
}

func TestPipelineRejectsEmptySequence(t *testing.T) {
	pipeline, recorder, _ := newPipeline(t, &fakeCombiner{}, &fakeCaptioner{})

	job, err := pipeline.Start(context.Background(), composition.Request{})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if job != nil {
		t.Fatalf("expected no job, got %+v", job)
	}
	if len(recorder.Jobs()) != 0 {
		t.Fatal("expected nothing recorded")
	}
}

func TestPipelineRejectsClipWithoutURL(t *testing.T) {
	pipeline, _, _ := newPipeline(t, &fakeCombiner{}, &fakeCaptioner{})
	_, err := pipeline.Start(context.Background(), composition.Request{Clips: []clip.Variant{{ID: "A"}}})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestPipelineSnapshotIsIndependent(t *testing.T) {
	pipeline, _, _ := newPipeline(t, &fakeCombiner{}, &fakeCaptioner{})
	clips := sequence("A", "B")
	job, err := pipeline.Start(context.Background(), composition.Request{Clips: clips})
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	clips[0].URL = "https://cdn/mutated.mp4"
	if job.Snapshot[0].URL != "https://cdn/A.mp4" {
		t.Fatalf("snapshot changed with caller slice: %q", job.Snapshot[0].URL)
	}
}

func TestPipelineRetriesTransientCombineFailures(t *testing.T) {
	combiner := &fakeCombiner{failures: []error{transient(), transient()}}
	pipeline, _, sleeps := newPipeline(t, combiner, &fakeCaptioner{})

	job, err := pipeline.Start(context.Background(), composition.Request{Clips: sequence("A")})
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if job.Status != composition.StatusComplete {
		t.Fatalf("expected complete job, got %s (%s)", job.Status, job.Error)
	}
	if len(combiner.calls) != 3 {
		t.Fatalf("expected 3 combine calls, got %d", len(combiner.calls))
	}
	if fmt.Sprint(*sleeps) != fmt.Sprint([]time.Duration{time.Second, 2 * time.Second}) {
		t.Fatalf("unexpected backoff %v", *sleeps)
	}
	if job.Attempt != 0 {
		t.Fatalf("expected attempt reset after completion, got %d", job.Attempt)
	}
}

func TestPipelineFailsAfterExhaustingCombineAttempts(t *testing.T) {
	combiner := &fakeCombiner{failures: []error{transient(), transient(), transient()}}
	captioner := &fakeCaptioner{}
	pipeline, recorder, _ := newPipeline(t, combiner, captioner)

	job, err := pipeline.Start(context.Background(), composition.Request{Clips: sequence("A", "B")})
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if job.Status != composition.StatusFailed {
		t.Fatalf("expected failed job, got %s", job.Status)
	}
	if job.Attempt != 3 {
		t.Fatalf("expected attempt 3, got %d", job.Attempt)
	}
	if job.CombinedURL != "" {
		t.Fatalf("failed combine must not set combined url, got %q", job.CombinedURL)
	}
	if !errors.Is(job.Err(), services.ErrCombination) {
		t.Fatalf("expected combination error, got %v", job.Err())
	}
	if job.FailureKind != "combination" {
		t.Fatalf("unexpected failure kind %q", job.FailureKind)
	}
	if len(captioner.calls) != 0 {
		t.Fatal("captioner must not run after combine failure")
	}
	stored := recorder.Get(job.ID)
	if stored == nil || stored.Status != composition.StatusFailed {
		t.Fatalf("expected failed job retained, got %+v", stored)
	}
}

func TestPipelineDoesNotRetryPermanentCaptionFailure(t *testing.T) {
	captioner := &fakeCaptioner{failures: []error{&remote.StatusError{Service: "captioner", StatusCode: http.StatusBadRequest}}}
	pipeline, _, _ := newPipeline(t, &fakeCombiner{}, captioner)

	job, err := pipeline.Start(context.Background(), composition.Request{Clips: sequence("A")})
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if job.Status != composition.StatusFailed {
		t.Fatalf("expected failed job, got %s", job.Status)
	}
	if len(captioner.calls) != 1 {
		t.Fatalf("expected a single caption attempt, got %d", len(captioner.calls))
	}
	if !errors.Is(job.Err(), services.ErrCaption) {
		t.Fatalf("expected caption error, got %v", job.Err())
	}
	if job.CombinedURL == "" {
		t.Fatal("expected combined url preserved from successful combine")
	}
	if job.ArtifactURL != "" {
		t.Fatalf("failed caption must not set artifact url, got %q", job.ArtifactURL)
	}
}

func TestPipelineIdenticalRequestsAreIndependent(t *testing.T) {
	pipeline, _, _ := newPipeline(t, &fakeCombiner{}, &fakeCaptioner{})
	req := composition.Request{Clips: sequence("A", "B"), Captions: clip.CaptionSpec{Captions: []string{"Hi"}}}

	first, err := pipeline.Start(context.Background(), req)
	if err != nil {
		t.Fatalf("first Start returned error: %v", err)
	}
	second, err := pipeline.Start(context.Background(), req)
	if err != nil {
		t.Fatalf("second Start returned error: %v", err)
	}
	if first.ID == second.ID {
		t.Fatal("expected distinct job ids")
	}
	if first.Status != composition.StatusComplete || second.Status != composition.StatusComplete {
		t.Fatalf("expected both complete, got %s and %s", first.Status, second.Status)
	}
	if first.ArtifactURL != second.ArtifactURL {
		t.Fatalf("expected equivalent artifacts, got %q and %q", first.ArtifactURL, second.ArtifactURL)
	}
}

func TestPipelineConcurrentJobs(t *testing.T) {
	var ids atomic.Int64
	pipeline, recorder, _ := newPipeline(t, &fakeCombiner{}, &fakeCaptioner{},
		composition.WithIDGenerator(func() string { return fmt.Sprintf("concurrent-%d", ids.Add(1)) }))
	var wg sync.WaitGroup
	errs := make(chan error, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			job, err := pipeline.Start(context.Background(), composition.Request{Clips: sequence("A")})
			if err != nil {
				errs <- err
				return
			}
			if job.Status != composition.StatusComplete {
				errs <- fmt.Errorf("job %s ended %s", job.ID, job.Status)
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}
	if len(recorder.Jobs()) != 4 {
		t.Fatalf("expected 4 jobs recorded, got %d", len(recorder.Jobs()))
	}
}

func TestPipelineCaptionDefaults(t *testing.T) {
	captioner := &fakeCaptioner{}
	pipeline, _, _ := newPipeline(t, &fakeCombiner{}, captioner, composition.WithDefaultFontSize(64))

	job, err := pipeline.Start(context.Background(), composition.Request{
		Clips:    sequence("A"),
		Metadata: clip.Metadata{Prompt: "intro", Reaction: clip.ReactionHappy, Demo: clip.DemoFeed},
	})
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if fmt.Sprint(job.Captions.Captions) != "[intro]" {
		t.Fatalf("expected prompt fallback caption, got %v", job.Captions.Captions)
	}
	if captioner.calls[0].spec.FontSize != 64 {
		t.Fatalf("expected configured default font size, got %d", captioner.calls[0].spec.FontSize)
	}
}

func TestPipelineResubmit(t *testing.T) {
	combiner := &fakeCombiner{failures: []error{transient(), transient(), transient()}}
	pipeline, _, _ := newPipeline(t, combiner, &fakeCaptioner{})

	failed, err := pipeline.Start(context.Background(), composition.Request{CompositionID: "comp", Clips: sequence("A", "B")})
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if failed.Status != composition.StatusFailed {
		t.Fatalf("expected failed job, got %s", failed.Status)
	}

	retried, err := pipeline.Resubmit(context.Background(), failed)
	if err != nil {
		t.Fatalf("Resubmit returned error: %v", err)
	}
	if retried.ID == failed.ID {
		t.Fatal("expected a new job id")
	}
	if retried.ResubmittedFrom != failed.ID || retried.CompositionID != "comp" {
		t.Fatalf("unexpected lineage %+v", retried)
	}
	if retried.Status != composition.StatusComplete {
		t.Fatalf("expected resubmitted job to complete, got %s", retried.Status)
	}
	if fmt.Sprint(retried.ClipURLs()) != fmt.Sprint(failed.ClipURLs()) {
		t.Fatal("expected identical snapshot")
	}
	if failed.Status != composition.StatusFailed {
		t.Fatal("original job must stay failed")
	}

	if _, err := pipeline.Resubmit(context.Background(), retried); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error resubmitting a complete job, got %v", err)
	}
}

func TestPipelineCancelBlocksResubmit(t *testing.T) {
	combiner := &fakeCombiner{failures: []error{&remote.StatusError{StatusCode: http.StatusBadRequest}}}
	pipeline, recorder, _ := newPipeline(t, combiner, &fakeCaptioner{})

	failed, err := pipeline.Start(context.Background(), composition.Request{Clips: sequence("A")})
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if err := pipeline.Cancel(context.Background(), failed); err != nil {
		t.Fatalf("Cancel returned error: %v", err)
	}
	if !recorder.Get(failed.ID).CancelRequested {
		t.Fatal("expected cancel flag persisted")
	}
	if _, err := pipeline.Resubmit(context.Background(), failed); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for cancelled job, got %v", err)
	}
}

func TestPipelineCancelRejectsCompleteJob(t *testing.T) {
	pipeline, _, _ := newPipeline(t, &fakeCombiner{}, &fakeCaptioner{})
	job, err := pipeline.Start(context.Background(), composition.Request{Clips: sequence("A")})
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if err := pipeline.Cancel(context.Background(), job); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestPipelinePublishesCompletedArtifact(t *testing.T) {
	publisher := &fakePublisher{id: "42"}
	pipeline, recorder, _ := newPipeline(t, &fakeCombiner{}, &fakeCaptioner{}, composition.WithPublisher(publisher))

	job, err := pipeline.Start(context.Background(), composition.Request{
		Clips:    sequence("A"),
		Metadata: clip.Metadata{Prompt: "intro", Reaction: clip.ReactionSad, Demo: clip.DemoKeywords},
	})
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if job.CatalogID != "42" {
		t.Fatalf("expected catalog id recorded, got %q", job.CatalogID)
	}
	if publisher.got == nil || publisher.got.ArtifactURL != "https://cdn/final.mp4" || publisher.got.Metadata.Demo != clip.DemoKeywords {
		t.Fatalf("unexpected publish input %+v", publisher.got)
	}
	if recorder.Get(job.ID).CatalogID != "42" {
		t.Fatal("expected catalog id persisted")
	}
}

func TestPipelinePublishFailureKeepsComplete(t *testing.T) {
	publisher := &fakePublisher{err: errors.New("gateway down")}
	pipeline, _, _ := newPipeline(t, &fakeCombiner{}, &fakeCaptioner{}, composition.WithPublisher(publisher))

	job, err := pipeline.Start(context.Background(), composition.Request{Clips: sequence("A")})
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if job.Status != composition.StatusComplete {
		t.Fatalf("publish failure must not change status, got %s", job.Status)
	}
	if job.PublishError != "gateway down" {
		t.Fatalf("expected publish error recorded, got %q", job.PublishError)
	}
}

func TestPipelineCancelledContextFailsJob(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	combiner := &fakeCombiner{failures: []error{context.Canceled}}
	pipeline, recorder, _ := newPipeline(t, combiner, &fakeCaptioner{})
	cancel()

	job, err := pipeline.Start(ctx, composition.Request{Clips: sequence("A")})
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if job.Status != composition.StatusFailed {
		t.Fatalf("expected failed job, got %s", job.Status)
	}
	if len(combiner.calls) != 1 {
		t.Fatalf("expected no retries after cancellation, got %d calls", len(combiner.calls))
	}
	if recorder.Get(job.ID).Status != composition.StatusFailed {
		t.Fatal("expected failure persisted despite cancelled context")
	}
}

type fakeSuggester struct {
	captions []string
	err      error
	prompts  []string
	counts   []int
}

func (f *fakeSuggester) SuggestCaptions(_ context.Context, prompt string, count int) ([]string, error) {
	f.prompts = append(f.prompts, prompt)
	f.counts = append(f.counts, count)
	return f.captions, f.err
}

func TestPipelineDraftsCaptionsWhenNoneGiven(t *testing.T) {
	captioner := &fakeCaptioner{}
	suggester := &fakeSuggester{captions: []string{" Wait for it ", "", "Watch this"}}
	pipeline, _, _ := newPipeline(t, &fakeCombiner{}, captioner, composition.WithCaptionSuggester(suggester, 3))

	job, err := pipeline.Start(context.Background(), composition.Request{
		Clips:    sequence("A"),
		Metadata: clip.Metadata{Prompt: "budget app"},
	})
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if fmt.Sprint(suggester.prompts) != "[budget app]" || fmt.Sprint(suggester.counts) != "[3]" {
		t.Fatalf("unexpected suggester calls %v %v", suggester.prompts, suggester.counts)
	}
	if fmt.Sprint(job.Captions.Captions) != "[Wait for it Watch this]" {
		t.Fatalf("expected drafted captions, got %v", job.Captions.Captions)
	}
	if fmt.Sprint(captioner.calls[0].spec.Captions) != "[Wait for it Watch this]" {
		t.Fatalf("captioner did not receive drafted captions: %v", captioner.calls[0].spec.Captions)
	}
}

func TestPipelineKeepsExplicitCaptionsOverSuggester(t *testing.T) {
	suggester := &fakeSuggester{captions: []string{"unused"}}
	pipeline, _, _ := newPipeline(t, &fakeCombiner{}, &fakeCaptioner{}, composition.WithCaptionSuggester(suggester, 3))

	job, err := pipeline.Start(context.Background(), composition.Request{
		Clips:    sequence("A"),
		Captions: clip.CaptionSpec{Captions: []string{"Mine"}},
		Metadata: clip.Metadata{Prompt: "budget app"},
	})
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if len(suggester.prompts) != 0 {
		t.Fatalf("suggester should not run when captions are supplied, got %v", suggester.prompts)
	}
	if fmt.Sprint(job.Captions.Captions) != "[Mine]" {
		t.Fatalf("unexpected captions %v", job.Captions.Captions)
	}
}

func TestPipelineSuggesterFailureStopsBeforeCombine(t *testing.T) {
	combiner := &fakeCombiner{}
	suggester := &fakeSuggester{err: errors.New("llm down")}
	pipeline, recorder, _ := newPipeline(t, combiner, &fakeCaptioner{}, composition.WithCaptionSuggester(suggester, 3))

	job, err := pipeline.Start(context.Background(), composition.Request{
		Clips:    sequence("A"),
		Metadata: clip.Metadata{Prompt: "budget app"},
	})
	if !errors.Is(err, services.ErrCaption) {
		t.Fatalf("expected caption error, got %v", err)
	}
	if job != nil || len(combiner.calls) != 0 || len(recorder.Jobs()) != 0 {
		t.Fatalf("expected no job and no combine call, got job=%v calls=%d", job, len(combiner.calls))
	}

	empty := &fakeSuggester{captions: []string{"  "}}
	pipeline, _, _ = newPipeline(t, combiner, &fakeCaptioner{}, composition.WithCaptionSuggester(empty, 3))
	if _, err := pipeline.Start(context.Background(), composition.Request{
		Clips:    sequence("A"),
		Metadata: clip.Metadata{Prompt: "budget app"},
	}); !errors.Is(err, services.ErrCaption) {
		t.Fatalf("expected caption error for blank drafts, got %v", err)
	}
}

func TestPipelineResubmitReusesDraftedCaptions(t *testing.T) {
	combiner := &fakeCombiner{failures: []error{errors.New("bad clip")}}
	suggester := &fakeSuggester{captions: []string{"Drafted"}}
	pipeline, _, _ := newPipeline(t, combiner, &fakeCaptioner{}, composition.WithCaptionSuggester(suggester, 2))

	failed, err := pipeline.Start(context.Background(), composition.Request{
		Clips:    sequence("A"),
		Metadata: clip.Metadata{Prompt: "budget app"},
	})
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if failed.Status != composition.StatusFailed {
		t.Fatalf("expected failed job, got %s", failed.Status)
	}
	retried, err := pipeline.Resubmit(context.Background(), failed)
	if err != nil {
		t.Fatalf("Resubmit returned error: %v", err)
	}
	if len(suggester.prompts) != 1 {
		t.Fatalf("resubmit must not draft again, got %d calls", len(suggester.prompts))
	}
	if fmt.Sprint(retried.Captions.Captions) != "[Drafted]" {
		t.Fatalf("unexpected resubmitted captions %v", retried.Captions.Captions)
	}
}

func TestPipelineCombinerTimeoutIsRetriedThenFails(t *testing.T) {
	var mu sync.Mutex
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		requests++
		mu.Unlock()
		select {
		case <-r.Context().Done():
		case <-time.After(3 * time.Second):
		}
	}))
	defer server.Close()

	client := combiner.New(remote.Config{BaseURL: server.URL, TimeoutSeconds: 1})
	pipeline := composition.New(client, &fakeCaptioner{},
		composition.WithPolicy(remote.Policy{MaxAttempts: 2, BaseDelay: time.Millisecond, Sleeper: func(time.Duration) {}}),
	)

	job, err := pipeline.Start(context.Background(), composition.Request{Clips: sequence("A", "B")})
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if job.Status != composition.StatusFailed {
		t.Fatalf("expected failed job, got %s", job.Status)
	}
	if !errors.Is(job.Err(), services.ErrCombination) {
		t.Fatalf("expected combination error, got %v", job.Err())
	}
	mu.Lock()
	defer mu.Unlock()
	if requests != 2 {
		t.Fatalf("expected the timed-out combine to be retried once, got %d requests", requests)
	}
}

func TestStatusHelpers(t *testing.T) {
	if status, ok := composition.ParseStatus(" Captioning "); !ok || status != composition.StatusCaptioning {
		t.Fatalf("unexpected parse result %q %v", status, ok)
	}
	if _, ok := composition.ParseStatus("done"); ok {
		t.Fatal("expected unknown status to fail")
	}
	if !composition.StatusFailed.Terminal() || composition.StatusCombining.Terminal() {
		t.Fatal("unexpected terminal classification")
	}
}

package pipeline_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"

	"github.com/atelierworks/atelier/internal/artifact"
	"github.com/atelierworks/atelier/internal/characters"
	"github.com/atelierworks/atelier/internal/feedback"
	"github.com/atelierworks/atelier/internal/generation"
	"github.com/atelierworks/atelier/internal/notify"
	"github.com/atelierworks/atelier/internal/pages"
	"github.com/atelierworks/atelier/internal/projects"
	"github.com/atelierworks/atelier/pkg/lifecycle"
	"github.com/atelierworks/atelier/pkg/pagination"
)

type fakeProjects struct {
	mu    sync.Mutex
	items map[uuid.UUID]*projects.Project
}

func newFakeProjects() *fakeProjects {
	return &fakeProjects{items: map[uuid.UUID]*projects.Project{}}
}

func (f *fakeProjects) add(p *projects.Project) {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *p
	f.items[p.ID] = &clone
}

func (f *fakeProjects) status(id uuid.UUID) projects.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.items[id].Status
}

func (f *fakeProjects) Handler() *projects.Handler { return nil }

func (f *fakeProjects) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters projects.Filters,
) (*pagination.PageResult[projects.Project], error) {
	return &pagination.PageResult[projects.Project]{}, nil
}

func (f *fakeProjects) Find(ctx context.Context, id uuid.UUID) (*projects.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.items[id]
	if !ok {
		return nil, projects.ErrNotFound
	}
	clone := *p
	return &clone, nil
}

func (f *fakeProjects) FindByToken(ctx context.Context, token string) (*projects.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.items {
		if p.ReviewToken == token {
			clone := *p
			return &clone, nil
		}
	}
	return nil, projects.ErrNotFound
}

func (f *fakeProjects) Create(ctx context.Context, cmd projects.CreateCommand) (*projects.Project, error) {
	p := &projects.Project{ID: uuid.New(), Title: cmd.Title, Status: projects.StatusDraft}
	f.add(p)
	return p, nil
}

func (f *fakeProjects) UpdateStatus(ctx context.Context, id uuid.UUID, from, to projects.Status) (*projects.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.items[id]
	if !ok {
		return nil, projects.ErrNotFound
	}
	if p.Status != from {
		return nil, fmt.Errorf("%w: have %s, expected %s", projects.ErrStaleStatus, p.Status, from)
	}
	p.Status = to
	clone := *p
	return &clone, nil
}

func (f *fakeProjects) IncrementSendCount(ctx context.Context, id uuid.UUID, phase projects.Phase) (*projects.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.items[id]
	if !ok {
		return nil, projects.ErrNotFound
	}
	if phase == projects.PhaseIllustrations {
		p.IllustrationSendCount++
	} else {
		p.CharacterSendCount++
	}
	clone := *p
	return &clone, nil
}

func (f *fakeProjects) RegenerateToken(ctx context.Context, id uuid.UUID) (*projects.Project, error) {
	return f.Find(ctx, id)
}

type fakeCharacters struct {
	mu    sync.Mutex
	items map[uuid.UUID]*characters.Character
}

func newFakeCharacters() *fakeCharacters {
	return &fakeCharacters{items: map[uuid.UUID]*characters.Character{}}
}

func (f *fakeCharacters) add(c *characters.Character) {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *c
	f.items[c.ID] = &clone
}

func (f *fakeCharacters) get(id uuid.UUID) characters.Character {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.items[id]
}

func (f *fakeCharacters) Handler() *characters.Handler { return nil }

func (f *fakeCharacters) ListByProject(ctx context.Context, projectID uuid.UUID) ([]characters.Character, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []characters.Character
	for _, c := range f.items {
		if c.ProjectID == projectID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeCharacters) Pending(ctx context.Context, projectID uuid.UUID) ([]characters.Character, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []characters.Character
	for _, c := range f.items {
		if c.ProjectID == projectID && c.PendingGeneration() {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeCharacters) HasOpenFeedback(ctx context.Context, projectID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.items {
		if c.ProjectID == projectID && c.Feedback.Open() {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeCharacters) Find(ctx context.Context, id uuid.UUID) (*characters.Character, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.items[id]
	if !ok {
		return nil, characters.ErrNotFound
	}
	clone := *c
	return &clone, nil
}

func (f *fakeCharacters) Create(ctx context.Context, cmd characters.CreateCommand) (*characters.Character, error) {
	c := &characters.Character{ID: uuid.New(), ProjectID: cmd.ProjectID, Name: cmd.Name}
	f.add(c)
	return c, nil
}

func (f *fakeCharacters) UpdateImage(ctx context.Context, id uuid.UUID, ref artifact.Ref) (*characters.Character, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.items[id]
	if !ok {
		return nil, characters.ErrNotFound
	}
	c.Image = ref
	clone := *c
	return &clone, nil
}

func (f *fakeCharacters) UpdateSketch(ctx context.Context, id uuid.UUID, ref artifact.Ref) (*characters.Character, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.items[id]
	if !ok {
		return nil, characters.ErrNotFound
	}
	c.Sketch = ref
	clone := *c
	return &clone, nil
}

func (f *fakeCharacters) UpdateFeedback(ctx context.Context, id uuid.UUID, state feedback.State) (*characters.Character, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.items[id]
	if !ok {
		return nil, characters.ErrNotFound
	}
	c.Feedback = state
	clone := *c
	return &clone, nil
}

func (f *fakeCharacters) Delete(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.items, id)
	return nil
}

type fakePages struct {
	mu    sync.Mutex
	items map[uuid.UUID]*pages.Page
}

func newFakePages() *fakePages {
	return &fakePages{items: map[uuid.UUID]*pages.Page{}}
}

func (f *fakePages) add(p *pages.Page) {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *p
	f.items[p.ID] = &clone
}

func (f *fakePages) get(id uuid.UUID) pages.Page {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.items[id]
}

func (f *fakePages) Handler() *pages.Handler { return nil }

func (f *fakePages) ListByProject(ctx context.Context, projectID uuid.UUID) ([]pages.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []pages.Page
	for _, p := range f.items {
		if p.ProjectID == projectID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakePages) Pending(ctx context.Context, projectID uuid.UUID) ([]pages.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []pages.Page
	for _, p := range f.items {
		if p.ProjectID == projectID && p.PendingGeneration() {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakePages) HasOpenFeedback(ctx context.Context, projectID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.items {
		if p.ProjectID == projectID && p.Feedback.Open() {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakePages) Find(ctx context.Context, id uuid.UUID) (*pages.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.items[id]
	if !ok {
		return nil, pages.ErrNotFound
	}
	clone := *p
	return &clone, nil
}

func (f *fakePages) CreateBatch(ctx context.Context, cmd pages.CreateBatchCommand) ([]pages.Page, error) {
	var out []pages.Page
	for _, pc := range cmd.Pages {
		p := &pages.Page{ID: uuid.New(), ProjectID: cmd.ProjectID, PageNumber: pc.PageNumber, Text: pc.Text}
		f.add(p)
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakePages) UpdateIllustration(ctx context.Context, id uuid.UUID, ref artifact.Ref) (*pages.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.items[id]
	if !ok {
		return nil, pages.ErrNotFound
	}
	p.Illustration = ref
	if _, ready := ref.URL(); ready && p.OriginalIllustration.NeedsGeneration() {
		p.OriginalIllustration = ref
	}
	clone := *p
	return &clone, nil
}

func (f *fakePages) UpdateSketch(ctx context.Context, id uuid.UUID, ref artifact.Ref) (*pages.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.items[id]
	if !ok {
		return nil, pages.ErrNotFound
	}
	p.Sketch = ref
	clone := *p
	return &clone, nil
}

func (f *fakePages) UpdateFeedback(ctx context.Context, id uuid.UUID, state feedback.State) (*pages.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.items[id]
	if !ok {
		return nil, pages.ErrNotFound
	}
	p.Feedback = state
	clone := *p
	return &clone, nil
}

func (f *fakePages) ResetIllustration(ctx context.Context, id uuid.UUID) (*pages.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.items[id]
	if !ok {
		return nil, pages.ErrNotFound
	}
	if _, ok := p.OriginalIllustration.URL(); !ok {
		return nil, pages.ErrNoOriginal
	}
	p.Illustration = p.OriginalIllustration
	clone := *p
	return &clone, nil
}

// scriptedGenerator fails requests whose prompt appears in failPrompts
// for the given kind, succeeding everything else with a stub PNG.
type scriptedGenerator struct {
	mu          sync.Mutex
	failPrompts map[string]bool
	failKinds   map[generation.Kind]bool
	calls       []generation.Request
}

func newScriptedGenerator() *scriptedGenerator {
	return &scriptedGenerator{
		failPrompts: map[string]bool{},
		failKinds:   map[generation.Kind]bool{},
	}
}

func (g *scriptedGenerator) failPrompt(prompt string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failPrompts[prompt] = true
}

func (g *scriptedGenerator) failKind(kind generation.Kind) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failKinds[kind] = true
}

func (g *scriptedGenerator) callsOf(kind generation.Kind) []generation.Request {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []generation.Request
	for _, call := range g.calls {
		if call.Kind == kind {
			out = append(out, call)
		}
	}
	return out
}

func (g *scriptedGenerator) Generate(ctx context.Context, req generation.Request) generation.Result {
	g.mu.Lock()
	g.calls = append(g.calls, req)
	fail := g.failPrompts[req.Prompt] || g.failKinds[req.Kind]
	g.mu.Unlock()

	if fail {
		return generation.Failure("scripted failure")
	}
	return generation.Result{
		Success:     true,
		Data:        []byte("png-bytes"),
		ContentType: "image/png",
	}
}

type fakeStorage struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{blobs: map[string][]byte{}}
}

func (f *fakeStorage) Start(lc *lifecycle.Coordinator) error { return nil }

func (f *fakeStorage) Upload(ctx context.Context, key string, reader io.Reader, contentType string) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blobs[key] = data
	return nil
}

func (f *fakeStorage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.blobs[key]
	if !ok {
		return nil, fmt.Errorf("no blob %s", key)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeStorage) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.blobs, key)
	return nil
}

func (f *fakeStorage) Exists(ctx context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.blobs[key]
	return ok, nil
}

func (f *fakeStorage) PublicURL(key string) string {
	return "https://cdn.test/artwork/" + key
}

func (f *fakeStorage) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.blobs[key]
	return ok
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []notify.Event
}

func (f *fakeNotifier) Notify(ctx context.Context, event notify.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
}

func (f *fakeNotifier) kinds() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, e := range f.events {
		out = append(out, e.Kind)
	}
	return out
}

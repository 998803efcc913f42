package screen

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tidwall/sjson"

	"superhero/pkg/portrait"
	"superhero/pkg/superhero"
)

const heroTemplate = `{
  "name": "Batman",
  "powerstats": {"intelligence": 81, "strength": 40, "speed": 29, "durability": 55, "power": 63, "combat": 90},
  "appearance": {"gender": "Male", "race": "Human", "height": ["6'2", "188 cm"], "weight": ["210 lb", "95 kg"], "eyeColor": "blue", "hairColor": "black"},
  "biography": {"fullName": "Bruce Wayne", "alterEgos": "No alter egos found.", "placeOfBirth": "Crest Hill, Bristol Township; Gotham County", "firstAppearance": "Detective Comics #27", "publisher": "DC Comics", "alignment": "good"},
  "work": {"occupation": "Businessman", "base": "Batcave"},
  "connections": {"groupAffiliation": "Justice League", "relatives": "Damian Wayne (son)"},
  "images": {"xs": "https://img.test/xs/70.jpg", "sm": "https://img.test/sm/70.jpg", "md": "https://img.test/md/70.jpg", "lg": "https://img.test/lg/70.jpg"}
}`

func heroJSON(t *testing.T, name string) []byte {
	t.Helper()
	data, err := sjson.SetBytes([]byte(heroTemplate), "name", name)
	if err != nil {
		t.Fatal(err)
	}
	data, err = sjson.SetBytes(data, "images.md", "https://img.test/md/"+strings.ToLower(name)+".jpg")
	if err != nil {
		t.Fatal(err)
	}
	return data
}

type result struct {
	data []byte
	err  error
}

// gatedFetcher blocks every Fetch until the test releases that hero id.
type gatedFetcher struct {
	mu    sync.Mutex
	gates map[int]chan result
	ids   []int
}

func newGatedFetcher() *gatedFetcher {
	return &gatedFetcher{gates: make(map[int]chan result)}
}

func (f *gatedFetcher) gate(id int) chan result {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.gates[id]
	if !ok {
		ch = make(chan result, 1)
		f.gates[id] = ch
	}
	return ch
}

func (f *gatedFetcher) Fetch(ctx context.Context, id int) ([]byte, error) {
	f.mu.Lock()
	f.ids = append(f.ids, id)
	f.mu.Unlock()
	select {
	case r := <-f.gate(id):
		return r.data, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *gatedFetcher) release(id int, data []byte, err error) {
	f.gate(id) <- result{data: data, err: err}
}

type fixedFetcher struct {
	data []byte
	err  error
}

func (f fixedFetcher) Fetch(ctx context.Context, id int) ([]byte, error) { return f.data, f.err }

type fakeLoader struct {
	gate chan struct{}
}

func (l *fakeLoader) Load(ctx context.Context, url string) portrait.Image {
	if l.gate != nil {
		select {
		case <-l.gate:
		case <-ctx.Done():
		}
	}
	return portrait.Image{URL: url, Data: []byte("img:" + url)}
}

func (l *fakeLoader) Placeholder() portrait.Image {
	return portrait.Image{Data: []byte("placeholder"), Placeholder: true}
}

type recorder struct {
	mu     sync.Mutex
	frames []Screen
}

func (r *recorder) Render(s Screen) {
	r.mu.Lock()
	r.frames = append(r.frames, s)
	r.mu.Unlock()
}

func sequentialIDs() func(int) int {
	var n int
	return func(int) int {
		n++
		return n
	}
}

func start(t *testing.T, f Fetcher, l PortraitLoader, opts Options) *Controller {
	t.Helper()
	c := NewController(f, l, opts)
	ctx, cancel := context.WithCancel(context.Background())
	go c.Run(ctx)
	t.Cleanup(cancel)
	return c
}

func ctxTimeout(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// idle waits until no request is in flight.
func idle(t *testing.T, c *Controller) Screen {
	t.Helper()
	ctx := ctxTimeout(t)
	for {
		s, err := c.Snapshot(ctx)
		if err != nil {
			t.Fatalf("Snapshot: %v", err)
		}
		if s.Pending == 0 {
			return s
		}
		time.Sleep(time.Millisecond)
	}
}

func assertPlaceholderLines(t *testing.T, s Screen) {
	t.Helper()
	labels := append(StatLabels[:], BioLabels[:]...)
	for i, line := range s.Lines() {
		want := labels[i] + ": -"
		if line.String() != want {
			t.Errorf("line %d: got %q, want %q", i, line.String(), want)
		}
	}
}

func TestInitialScreen(t *testing.T) {
	c := start(t, fixedFetcher{}, &fakeLoader{}, Options{})
	s, err := c.Snapshot(ctxTimeout(t))
	if err != nil {
		t.Fatal(err)
	}
	if s.State != Idle || s.Name != IdleText {
		t.Errorf("unexpected initial screen: %v %q", s.State, s.Name)
	}
	if !s.Portrait.Empty() {
		t.Errorf("expected no portrait")
	}
	assertPlaceholderLines(t, s)
}

func TestDisplayHero(t *testing.T) {
	rec := &recorder{}
	c := start(t, fixedFetcher{data: heroJSON(t, "Batman")}, &fakeLoader{}, Options{Renderers: []Renderer{rec}})
	ctx := ctxTimeout(t)

	req, err := c.RequestRandomHero(ctx)
	if err != nil {
		t.Fatal(err)
	}
	s, err := c.Await(ctx, req.Seq)
	if err != nil {
		t.Fatal(err)
	}

	if s.State != Displayed || s.Name != "Batman" {
		t.Fatalf("unexpected screen: %v %q", s.State, s.Name)
	}
	if got := s.Stats[0].String(); got != "Intelligence: 81" {
		t.Errorf("got %q, want %q", got, "Intelligence: 81")
	}
	wantStats := []string{"Intelligence: 81", "Strength: 40", "Speed: 29", "Durability: 55", "Power: 63", "Combat: 90"}
	for i, want := range wantStats {
		if got := s.Stats[i].String(); got != want {
			t.Errorf("stat %d: got %q, want %q", i, got, want)
		}
	}
	wantBio := []string{
		"Full Name: Bruce Wayne",
		"Alter Egos: No alter egos found.",
		"Publisher: DC Comics",
		"First Appearance: Detective Comics #27",
		"Place of Birth: Crest Hill, Bristol Township; Gotham County",
		"Alignment: good",
	}
	for i, want := range wantBio {
		if got := s.Bio[i].String(); got != want {
			t.Errorf("bio %d: got %q, want %q", i, got, want)
		}
	}
	if s.Portrait.Placeholder || string(s.Portrait.Data) != "img:https://img.test/md/batman.jpg" {
		t.Errorf("unexpected portrait %+v", s.Portrait)
	}
	if s.Seq != req.Seq || s.RequestID != req.ID {
		t.Errorf("screen not tagged with request: %d %q", s.Seq, s.RequestID)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	// initial, displayed with placeholder, portrait loaded
	if len(rec.frames) != 3 {
		t.Fatalf("expected 3 renders, got %d", len(rec.frames))
	}
	if !rec.frames[1].Portrait.Placeholder {
		t.Errorf("expected placeholder portrait while loading")
	}
}

func TestPlaceholderWhileLoading(t *testing.T) {
	loader := &fakeLoader{gate: make(chan struct{})}
	c := start(t, fixedFetcher{data: heroJSON(t, "Batman")}, loader, Options{})
	ctx := ctxTimeout(t)

	req, err := c.RequestRandomHero(ctx)
	if err != nil {
		t.Fatal(err)
	}
	s := idle(t, c)
	if s.State != Displayed || !s.PortraitPending || !s.Portrait.Placeholder {
		t.Fatalf("expected displayed hero with placeholder, got %v pending=%v placeholder=%v", s.State, s.PortraitPending, s.Portrait.Placeholder)
	}

	close(loader.gate)
	s, err = c.Await(ctx, req.Seq)
	if err != nil {
		t.Fatal(err)
	}
	if s.PortraitPending || s.Portrait.Placeholder {
		t.Errorf("expected loaded portrait, got %+v", s.Portrait)
	}
}

func TestNetworkError(t *testing.T) {
	fetchErr := &superhero.NetworkError{URL: "https://api.test/id/1.json", Err: context.DeadlineExceeded}
	c := start(t, fixedFetcher{err: fetchErr}, &fakeLoader{}, Options{})
	ctx := ctxTimeout(t)

	req, err := c.RequestRandomHero(ctx)
	if err != nil {
		t.Fatal(err)
	}
	s, err := c.Await(ctx, req.Seq)
	if err != nil {
		t.Fatal(err)
	}
	if s.State != Errored {
		t.Fatalf("expected errored, got %v", s.State)
	}
	if !strings.Contains(s.Name, fetchErr.Error()) {
		t.Errorf("name %q does not contain %q", s.Name, fetchErr.Error())
	}
	if !s.Portrait.Empty() {
		t.Errorf("expected cleared portrait")
	}
	assertPlaceholderLines(t, s)
}

func TestErrorClearsPreviousHero(t *testing.T) {
	f := newGatedFetcher()
	c := start(t, f, &fakeLoader{}, Options{PickID: sequentialIDs()})
	ctx := ctxTimeout(t)

	first, _ := c.RequestRandomHero(ctx)
	f.release(first.HeroID, heroJSON(t, "Batman"), nil)
	if s, _ := c.Await(ctx, first.Seq); s.Name != "Batman" {
		t.Fatalf("expected Batman, got %q", s.Name)
	}

	second, _ := c.RequestRandomHero(ctx)
	f.release(second.HeroID, []byte(`{"name": "Half a hero"}`), nil)
	s, err := c.Await(ctx, second.Seq)
	if err != nil {
		t.Fatal(err)
	}
	if s.State != Errored || s.Hero != nil {
		t.Fatalf("expected errored screen without hero, got %v", s.State)
	}
	if !strings.Contains(s.Name, "powerstats") {
		t.Errorf("expected decode path in %q", s.Name)
	}
	if !s.Portrait.Empty() {
		t.Errorf("expected cleared portrait")
	}
	assertPlaceholderLines(t, s)
}

func TestDecodeErrorIsErrored(t *testing.T) {
	c := start(t, fixedFetcher{data: []byte(`<html>rate limited</html>`)}, &fakeLoader{}, Options{})
	ctx := ctxTimeout(t)

	req, _ := c.RequestRandomHero(ctx)
	s, err := c.Await(ctx, req.Seq)
	if err != nil {
		t.Fatal(err)
	}
	if s.State != Errored || !strings.Contains(s.Name, "invalid JSON") {
		t.Errorf("unexpected screen %v %q", s.State, s.Name)
	}
}

func TestRequestOrderWins(t *testing.T) {
	tests := []struct {
		name  string
		order []int // which request completes first, by index
	}{
		{"newer completes first", []int{1, 0}},
		{"older completes first", []int{0, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newGatedFetcher()
			c := start(t, f, &fakeLoader{}, Options{PickID: sequentialIDs()})
			ctx := ctxTimeout(t)

			reqs := make([]Request, 2)
			for i := range reqs {
				req, err := c.RequestRandomHero(ctx)
				if err != nil {
					t.Fatal(err)
				}
				reqs[i] = req
			}
			names := []string{"Batman", "Superman"}

			for _, i := range tt.order {
				f.release(reqs[i].HeroID, heroJSON(t, names[i]), nil)
				if _, err := c.Await(ctx, reqs[i].Seq); err != nil {
					t.Fatal(err)
				}
			}
			s := idle(t, c)
			if s.Name != "Superman" || s.Seq != reqs[1].Seq {
				t.Errorf("expected latest request (Superman, seq %d) on screen, got %q seq %d", reqs[1].Seq, s.Name, s.Seq)
			}
		})
	}
}

func TestStalePortraitIgnored(t *testing.T) {
	loader := &fakeLoader{gate: make(chan struct{})}
	f := newGatedFetcher()
	c := start(t, f, loader, Options{PickID: sequentialIDs()})
	ctx := ctxTimeout(t)

	first, _ := c.RequestRandomHero(ctx)
	f.release(first.HeroID, heroJSON(t, "Batman"), nil)
	idle(t, c)

	second, _ := c.RequestRandomHero(ctx)
	f.release(second.HeroID, nil, errors.New("connection reset"))
	if _, err := c.Await(ctx, second.Seq); err != nil {
		t.Fatal(err)
	}

	close(loader.gate)
	time.Sleep(10 * time.Millisecond)
	s := idle(t, c)
	if s.State != Errored || !s.Portrait.Empty() {
		t.Errorf("late portrait leaked onto errored screen: %v %+v", s.State, s.Portrait)
	}
}

func TestRandomIDsInCatalog(t *testing.T) {
	f := newGatedFetcher()
	c := start(t, f, &fakeLoader{}, Options{})
	ctx := ctxTimeout(t)

	for range 500 {
		req, err := c.RequestRandomHero(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if req.HeroID < 1 || req.HeroID > superhero.CatalogSize {
			t.Fatalf("hero id %d outside [1, %d]", req.HeroID, superhero.CatalogSize)
		}
	}
}

func TestStoppedController(t *testing.T) {
	c := NewController(fixedFetcher{}, &fakeLoader{}, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- c.Run(ctx) }()
	cancel()
	if err := <-errc; !errors.Is(err, context.Canceled) {
		t.Fatalf("Run: %v", err)
	}
	if _, err := c.RequestRandomHero(context.Background()); !errors.Is(err, ErrStopped) {
		t.Errorf("expected ErrStopped, got %v", err)
	}
}

func TestStateString(t *testing.T) {
	for s, want := range map[State]string{Idle: "idle", Displayed: "displayed", Errored: "errored", State(9): "state(9)"} {
		if got := s.String(); got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	}
}

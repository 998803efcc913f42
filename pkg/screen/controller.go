package screen

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/segmentio/ksuid"

	"superhero/pkg/portrait"
	"superhero/pkg/schema"
	"superhero/pkg/superhero"
)

// ErrStopped is returned by calls made after Run has returned.
var ErrStopped = errors.New("screen controller stopped")

type Fetcher interface {
	Fetch(ctx context.Context, id int) ([]byte, error)
}

type PortraitLoader interface {
	Load(ctx context.Context, url string) portrait.Image
	Placeholder() portrait.Image
}

// Renderer is called on the controller loop after every screen change.
// Implementations must not call back into the Controller synchronously.
type Renderer interface {
	Render(Screen)
}

type Options struct {
	// CatalogSize bounds random ids to [1, CatalogSize]. Defaults to superhero.CatalogSize.
	CatalogSize int
	// Rand drives id selection. Defaults to a randomly seeded source.
	Rand *rand.Rand
	// PickID overrides id selection entirely.
	PickID    func(catalog int) int
	Renderers []Renderer
}

// Request identifies one roll.
type Request struct {
	Seq    uint64 `json:"seq"`
	HeroID int    `json:"hero_id"`
	ID     string `json:"request_id"`
}

// Controller owns a Screen on a single goroutine (Run). Fetches and portrait
// loads run on their own goroutines and post their results back to it.
//
// Results are applied in request order: a response is dropped when a newer
// request has already reached the screen.
type Controller struct {
	fetcher   Fetcher
	loader    PortraitLoader
	renderers []Renderer
	catalog   int
	pick      func(int) int

	rngMu sync.Mutex
	rng   *rand.Rand

	events chan func()
	base   context.Context
	stop   context.CancelFunc
	done   chan struct{}
	issued atomic.Uint64

	// owned by the loop
	screen  Screen
	shown   uint64
	waiters []waiter
}

type waiter struct {
	seq uint64
	ch  chan Screen
}

func NewController(f Fetcher, l PortraitLoader, opts Options) *Controller {
	base, stop := context.WithCancel(context.Background())
	c := &Controller{
		fetcher:   f,
		loader:    l,
		renderers: opts.Renderers,
		catalog:   opts.CatalogSize,
		pick:      opts.PickID,
		rng:       opts.Rand,
		events:    make(chan func(), 16),
		base:      base,
		stop:      stop,
		done:      make(chan struct{}),
		screen:    New(),
	}
	if c.catalog <= 0 {
		c.catalog = superhero.CatalogSize
	}
	if c.rng == nil {
		c.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return c
}

// Run processes screen events until ctx ends. In-flight fetches and portrait
// loads are cancelled when it returns.
func (c *Controller) Run(ctx context.Context) error {
	defer close(c.done)
	defer c.stop()

	c.render()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-c.events:
			fn()
			c.notify()
		}
	}
}

// RequestRandomHero starts fetching a random hero. It returns as soon as the
// request is issued; earlier requests are neither cancelled nor deduplicated.
func (c *Controller) RequestRandomHero(ctx context.Context) (Request, error) {
	req := Request{
		Seq:    c.issued.Add(1),
		HeroID: c.pickID(),
		ID:     ksuid.New().String(),
	}
	if err := c.post(ctx, func() { c.screen.Pending++ }); err != nil {
		return Request{}, err
	}

	log.Debug("requesting hero", "seq", req.Seq, "hero_id", req.HeroID, "request_id", req.ID)
	go func() {
		data, err := c.fetcher.Fetch(c.base, req.HeroID)
		_ = c.post(c.base, func() {
			c.screen.Pending--
			if err != nil {
				c.onFetchError(req, err)
				return
			}
			c.onFetchSuccess(req, data)
		})
	}()
	return req, nil
}

// Snapshot returns a copy of the screen as the loop sees it.
func (c *Controller) Snapshot(ctx context.Context) (Screen, error) {
	ch := make(chan Screen, 1)
	if err := c.post(ctx, func() { ch <- c.screen }); err != nil {
		return Screen{}, err
	}
	return c.receive(ctx, ch)
}

// Await blocks until request seq has settled: its result, and portrait if
// any, is on screen, or a newer request has superseded it.
func (c *Controller) Await(ctx context.Context, seq uint64) (Screen, error) {
	ch := make(chan Screen, 1)
	if err := c.post(ctx, func() { c.waiters = append(c.waiters, waiter{seq: seq, ch: ch}) }); err != nil {
		return Screen{}, err
	}
	return c.receive(ctx, ch)
}

func (c *Controller) receive(ctx context.Context, ch chan Screen) (Screen, error) {
	select {
	case s := <-ch:
		return s, nil
	case <-ctx.Done():
		return Screen{}, ctx.Err()
	case <-c.done:
		return Screen{}, ErrStopped
	}
}

func (c *Controller) post(ctx context.Context, fn func()) error {
	select {
	case <-c.done:
		return ErrStopped
	default:
	}
	select {
	case c.events <- fn:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ErrStopped
	}
}

func (c *Controller) pickID() int {
	if c.pick != nil {
		return c.pick(c.catalog)
	}
	c.rngMu.Lock()
	defer c.rngMu.Unlock()
	return superhero.RandomID(c.rng, c.catalog)
}

// accept records seq as shown unless a newer request already is.
func (c *Controller) accept(req Request) bool {
	if req.Seq <= c.shown {
		log.Debug("dropping stale response", "seq", req.Seq, "shown", c.shown, "request_id", req.ID)
		return false
	}
	c.shown = req.Seq
	c.screen.Seq = req.Seq
	c.screen.RequestID = req.ID
	return true
}

func (c *Controller) onFetchSuccess(req Request, data []byte) {
	hero, err := schema.Decode(data)
	if err != nil {
		c.onFetchError(req, err)
		return
	}
	if !c.accept(req) {
		return
	}

	c.screen.display(hero)
	c.screen.Portrait = c.loader.Placeholder()
	c.screen.PortraitPending = true
	log.Info("hero displayed", "seq", req.Seq, "hero_id", req.HeroID, "name", hero.Name)
	c.render()

	go func() {
		img := c.loader.Load(c.base, hero.Images.MD)
		_ = c.post(c.base, func() { c.onPortrait(req.Seq, img) })
	}()
}

func (c *Controller) onFetchError(req Request, err error) {
	if !c.accept(req) {
		return
	}

	var ne *superhero.NetworkError
	var de *schema.DecodeError
	switch {
	case errors.As(err, &ne):
		log.Error("hero fetch failed", "seq", req.Seq, "kind", "network", "url", ne.URL, "error", err)
	case errors.As(err, &de):
		log.Error("hero fetch failed", "seq", req.Seq, "kind", "decode", "path", de.Path, "error", err)
	default:
		log.Error("hero fetch failed", "seq", req.Seq, "error", err)
	}

	c.screen.fail(err)
	c.render()
}

func (c *Controller) onPortrait(seq uint64, img portrait.Image) {
	if c.screen.Seq != seq || c.screen.State != Displayed {
		return
	}
	if img.Empty() {
		img = c.loader.Placeholder()
	}
	c.screen.Portrait = img
	c.screen.PortraitPending = false
	c.render()
}

func (c *Controller) render() {
	for _, r := range c.renderers {
		r.Render(c.screen)
	}
}

func (c *Controller) notify() {
	kept := c.waiters[:0]
	for _, w := range c.waiters {
		if c.settled(w.seq) {
			w.ch <- c.screen
			continue
		}
		kept = append(kept, w)
	}
	c.waiters = kept
}

func (c *Controller) settled(seq uint64) bool {
	if c.shown > seq {
		return true
	}
	return c.shown == seq && !c.screen.PortraitPending
}

package cache

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/seaporter/etagcache/pkg/lru"
)

// Provider is the boundary between the dispatch layer and a validator
// store. Implementations must be safe for concurrent use.
type Provider interface {
	// Get checks whether req carries an If-None-Match value exactly equal
	// to the token stored for its derived key. It never returns response
	// bodies: a hit only certifies that the client's copy is still valid.
	Get(ctx context.Context, req *http.Request) (GetResult, error)

	// Put records the validator token for the response body under key and
	// returns the response decorated with the validation headers, its body
	// replaced by a fully buffered copy. The body is drained in full, so
	// streaming responses are not supported on this path.
	Put(ctx context.Context, key Key, resp *http.Response) (*http.Response, error)
}

// GetResult is the outcome of a conditional lookup.
type GetResult struct {
	// Request is the original request, handed back so the caller can
	// resume processing it on a miss.
	Request *http.Request

	// Hit reports whether a stored token matched one of the request's
	// If-None-Match values.
	Hit bool

	// Headers holds the validation header set on a hit: the stored ETag,
	// the fixed Cache-Control policy, Last-Modified, and Vary.
	Headers http.Header

	// Key is the derived cache key. On a miss the caller passes it to Put
	// once the full response has been produced.
	Key Key
}

// opKind selects the operation carried by an envelope.
type opKind uint8

const (
	opGet opKind = iota
	opPut
)

// envelope pairs one operation with its single-use reply slot. The reply
// channel is buffered so the actor's send never blocks; a caller that
// abandons its slot simply never reads the reply.
type envelope struct {
	op    opKind
	req   *http.Request  // Get
	key   Key            // Put
	resp  *http.Response // Put
	reply chan result
}

// result is the actor's reply to one envelope.
type result struct {
	get GetResult
	put *http.Response
	err error
}

// LRUProvider is the in-memory Provider: a bounded LRU table owned by a
// single actor goroutine. All table mutation is funneled through the
// actor's operation queue, so the table itself needs no locking; callers
// only ever touch the queue, which makes the *LRUProvider value a
// shareable handle. Operations across all callers are applied in one
// total order equal to their arrival order at the queue.
type LRUProvider struct {
	table *lru.Table[Key, *entry] // owned exclusively by the actor goroutine

	ops  chan envelope
	quit chan struct{}
	done chan struct{}

	closeOnce sync.Once

	// now is the clock used to stamp token changes.
	now func() time.Time

	logger zerolog.Logger
}

// Ensure LRUProvider implements Provider.
var _ Provider = (*LRUProvider)(nil)

// NewLRUProvider creates the table with the given fixed entry capacity,
// sizes the operation queue at queueSize outstanding requests, and starts
// the actor goroutine. Call Close to stop the actor and release the table.
func NewLRUProvider(capacity, queueSize int) (*LRUProvider, error) {
	if queueSize < 1 {
		return nil, fmt.Errorf("queue size must be at least 1, got %d", queueSize)
	}

	table, err := lru.New[Key, *entry](capacity)
	if err != nil {
		return nil, err
	}

	p := &LRUProvider{
		table:  table,
		ops:    make(chan envelope, queueSize),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
		now:    time.Now,
		logger: log.With().Str("component", "etag-cache").Logger(),
	}

	go p.run()

	return p, nil
}

// Get submits a conditional lookup to the actor and awaits its reply.
// It fails with ErrProviderClosed after Close, or with ctx's error if the
// context ends first. Enqueueing blocks while the operation queue is full.
func (p *LRUProvider) Get(ctx context.Context, req *http.Request) (GetResult, error) {
	env := envelope{op: opGet, req: req, reply: make(chan result, 1)}

	res, err := p.roundTrip(ctx, env)
	if err != nil {
		return GetResult{}, err
	}
	return res.get, nil
}

// Put submits a validator update to the actor and awaits the decorated
// response. It fails with a *BodyReadError if the response body cannot be
// collected (the table is left untouched), with ErrProviderClosed after
// Close, or with ctx's error if the context ends first.
func (p *LRUProvider) Put(ctx context.Context, key Key, resp *http.Response) (*http.Response, error) {
	env := envelope{op: opPut, key: key, resp: resp, reply: make(chan result, 1)}

	res, err := p.roundTrip(ctx, env)
	if err != nil {
		return nil, err
	}
	return res.put, res.err
}

// Close stops accepting operations, waits for the actor to drain any
// buffered envelopes and exit, and then returns. It is idempotent and
// safe to call concurrently with in-flight operations, which either
// complete normally or fail with ErrProviderClosed.
func (p *LRUProvider) Close() error {
	p.closeOnce.Do(func() {
		close(p.quit)
	})
	<-p.done
	return nil
}

// roundTrip enqueues env and awaits its reply.
func (p *LRUProvider) roundTrip(ctx context.Context, env envelope) (result, error) {
	select {
	case p.ops <- env:
	case <-p.quit:
		return result{}, ErrProviderClosed
	case <-ctx.Done():
		return result{}, ctx.Err()
	}

	select {
	case res := <-env.reply:
		return res, nil
	case <-p.done:
		// The actor has exited, but it may have replied just before: the
		// buffered slot keeps such a reply available.
		select {
		case res := <-env.reply:
			return res, nil
		default:
			return result{}, ErrProviderClosed
		}
	case <-ctx.Done():
		// Abandoning the reply slot is benign: if the actor already picked
		// up the envelope, the mutation commits regardless.
		return result{}, ctx.Err()
	}
}

// run is the actor loop. It owns the table for its whole lifetime,
// applying envelopes strictly one at a time in arrival order. After Close
// it drains whatever the queue already accepted, then exits.
func (p *LRUProvider) run() {
	defer close(p.done)

	p.logger.Info().
		Int("capacity", p.table.Cap()).
		Int("queue_size", cap(p.ops)).
		Msg("Cache actor started")

	for {
		select {
		case env := <-p.ops:
			p.serve(env)
		case <-p.quit:
			for {
				select {
				case env := <-p.ops:
					p.serve(env)
				default:
					p.logger.Info().
						Int("entries", p.table.Len()).
						Uint64("evictions", p.table.Evictions()).
						Msg("Cache actor stopped")
					return
				}
			}
		}
	}
}

// serve applies one envelope and fulfills its reply slot. The reply
// channel is buffered, so the send completes even when the caller has
// already given up on the slot.
func (p *LRUProvider) serve(env envelope) {
	var res result
	switch env.op {
	case opGet:
		res.get = p.onGet(env.req)
	case opPut:
		res.put, res.err = p.onPut(env.key, env.resp)
	}
	env.reply <- res
}

// onGet applies the conditional-match protocol: derive the key, look up
// the entry, and compare every If-None-Match value against the stored
// token by exact string equality, quotes included. An entry whose token
// matches none of the offered values is still a miss; this cache never
// certifies anything weaker than an exact validator match.
func (p *LRUProvider) onGet(req *http.Request) GetResult {
	key := DeriveKey(req)

	e, ok := p.table.Get(key)
	if !ok {
		CacheMisses.WithLabelValues("no_entry").Inc()
		p.logger.Debug().
			Str("key", key.String()).
			Str("reason", "no_entry").
			Msg("Cache miss")
		return GetResult{Request: req, Key: key}
	}

	for _, candidate := range req.Header.Values("If-None-Match") {
		if candidate == e.token {
			headers := make(http.Header)
			setValidationHeaders(headers, e.token, e.lastChanged)

			CacheHits.Inc()
			p.logger.Debug().
				Str("key", key.String()).
				Str("etag", e.token).
				Msg("Cache hit")
			return GetResult{Request: req, Hit: true, Headers: headers, Key: key}
		}
	}

	CacheMisses.WithLabelValues("no_match").Inc()
	p.logger.Debug().
		Str("key", key.String()).
		Str("reason", "no_match").
		Msg("Cache miss")
	return GetResult{Request: req, Key: key}
}

// onPut collects the response body, computes its token, and stores it
// under key. A put whose token equals the stored one leaves the entry
// untouched, so unchanged content never moves the Last-Modified date.
// The response comes back with the validation headers set and the body
// restored as a buffered reader.
func (p *LRUProvider) onPut(key Key, resp *http.Response) (*http.Response, error) {
	var body []byte
	if resp.Body != nil {
		var err error
		body, err = io.ReadAll(resp.Body)
		if err != nil {
			CacheErrors.WithLabelValues("put").Inc()
			p.logger.Warn().
				Err(err).
				Str("key", key.String()).
				Msg("Failed to read response body")
			return nil, &BodyReadError{Err: err}
		}
		resp.Body.Close()
	}
	if resp.Header == nil {
		resp.Header = make(http.Header)
	}

	token := ETagFor(body)
	now := p.now()

	existed := p.table.Contains(key)
	evictionsBefore := p.table.Evictions()

	e := p.table.GetOrCreate(key, func() *entry {
		return &entry{token: token, lastChanged: now}
	})

	if evicted := p.table.Evictions() - evictionsBefore; evicted > 0 {
		CacheEvictions.Add(float64(evicted))
		p.logger.Debug().
			Str("key", key.String()).
			Uint64("evicted", evicted).
			Msg("Cache eviction")
	}

	outcome := "unchanged"
	switch {
	case !existed:
		outcome = "created"
	case e.token != token:
		e.token = token
		e.lastChanged = now
		outcome = "updated"
	}

	CachePuts.WithLabelValues(outcome).Inc()
	CacheEntries.Set(float64(p.table.Len()))

	setValidationHeaders(resp.Header, e.token, e.lastChanged)

	// Restore the body for the caller.
	resp.Body = io.NopCloser(bytes.NewReader(body))
	resp.ContentLength = int64(len(body))

	p.logger.Debug().
		Str("key", key.String()).
		Str("etag", e.token).
		Str("outcome", outcome).
		Msg("Cache put")

	return resp, nil
}

// Package keypool holds the set of completion-service credentials and decides
// which one to use next.
package keypool

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"regexp"
	"strings"
	"sync"

	"resume-ingest/internal/llm"
)

var (
	// ErrConfiguration means no usable credential was supplied.
	ErrConfiguration = errors.New("keypool: no usable credentials")
	// ErrAllCredentialsInvalid means every credential has been rejected by the service.
	ErrAllCredentialsInvalid = errors.New("keypool: all credentials are invalid")
)

// DefaultPattern matches Groq API keys.
var DefaultPattern = regexp.MustCompile(`^gsk_[A-Za-z0-9]{32,}$`)

// Prober checks a credential with a minimal call to the service.
type Prober interface {
	Probe(ctx context.Context, apiKey string) error
}

// ProberFunc adapts a function to Prober.
type ProberFunc func(ctx context.Context, apiKey string) error

func (f ProberFunc) Probe(ctx context.Context, apiKey string) error { return f(ctx, apiKey) }

type state int

const (
	stateUnused state = iota
	stateUsed
	stateInvalid
)

// Stats is a snapshot of pool state.
type Stats struct {
	Total   int
	Used    int
	Invalid int
}

// Pool tracks credential usage. Safe for concurrent use.
type Pool struct {
	mu     sync.Mutex
	keys   []string
	states map[string]state
	prober Prober
	intn   func(int) int
}

// Option configures a Pool.
type Option func(*poolOptions)

type poolOptions struct {
	pattern *regexp.Regexp
	intn    func(int) int
}

// WithPattern replaces the credential format check.
func WithPattern(re *regexp.Regexp) Option {
	return func(o *poolOptions) {
		if re != nil {
			o.pattern = re
		}
	}
}

// WithIntn replaces the random index source, mainly for tests.
func WithIntn(intn func(int) int) Option {
	return func(o *poolOptions) {
		if intn != nil {
			o.intn = intn
		}
	}
}

// New validates keys and builds a pool. Keys are trimmed and deduplicated;
// those not matching the format pattern are dropped.
func New(keys []string, prober Prober, opts ...Option) (*Pool, error) {
	if prober == nil {
		return nil, errors.New("keypool: prober is required")
	}
	o := poolOptions{pattern: DefaultPattern, intn: rand.Intn}
	for _, opt := range opts {
		opt(&o)
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: no keys provided", ErrConfiguration)
	}

	seen := make(map[string]struct{}, len(keys))
	valid := make([]string, 0, len(keys))
	for _, raw := range keys {
		key := strings.TrimSpace(raw)
		if key == "" || !o.pattern.MatchString(key) {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		valid = append(valid, key)
	}
	if len(valid) == 0 {
		return nil, fmt.Errorf("%w: no key matches the expected format", ErrConfiguration)
	}

	states := make(map[string]state, len(valid))
	for _, key := range valid {
		states[key] = stateUnused
	}
	return &Pool{
		keys:   valid,
		states: states,
		prober: prober,
		intn:   o.intn,
	}, nil
}

// Len returns the number of credentials in the pool, invalid ones included.
func (p *Pool) Len() int {
	return len(p.keys)
}

// Select picks a random credential that is neither used nor invalid, probes
// it, and marks it used. When every remaining credential has been used the
// used set is cleared. A probe rejected for authentication marks the
// credential invalid and selection moves on; any other probe failure is
// treated as a usable credential.
func (p *Pool) Select(ctx context.Context) (string, error) {
	for round := 0; round <= len(p.keys); round++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		key, err := p.pick()
		if err != nil {
			return "", err
		}

		probeErr := p.prober.Probe(ctx, key)
		if probeErr != nil && llm.IsAuthRejected(probeErr) {
			log.Printf("keypool: credential ...%s rejected during probe", llm.KeySuffix(key))
			p.MarkInvalid(key)
			continue
		}
		if probeErr != nil {
			log.Printf("keypool: probe for ...%s failed, assuming valid: %v", llm.KeySuffix(key), probeErr)
		}

		p.mu.Lock()
		if p.states[key] == stateInvalid {
			p.mu.Unlock()
			continue
		}
		p.states[key] = stateUsed
		p.mu.Unlock()
		log.Printf("keypool: selected credential ...%s", llm.KeySuffix(key))
		return key, nil
	}
	return "", ErrAllCredentialsInvalid
}

func (p *Pool) pick() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	available := p.filter(func(s state) bool { return s == stateUnused })
	if len(available) == 0 {
		if p.countLocked(stateInvalid) == len(p.keys) {
			return "", ErrAllCredentialsInvalid
		}
		for key, s := range p.states {
			if s == stateUsed {
				p.states[key] = stateUnused
			}
		}
		available = p.filter(func(s state) bool { return s != stateInvalid })
	}
	return available[p.intn(len(available))], nil
}

func (p *Pool) filter(keep func(state) bool) []string {
	out := make([]string, 0, len(p.keys))
	for _, key := range p.keys {
		if keep(p.states[key]) {
			out = append(out, key)
		}
	}
	return out
}

func (p *Pool) countLocked(s state) int {
	n := 0
	for _, key := range p.keys {
		if p.states[key] == s {
			n++
		}
	}
	return n
}

// MarkInvalid permanently excludes a credential for the life of the pool.
func (p *Pool) MarkInvalid(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.states[key]; ok {
		p.states[key] = stateInvalid
	}
}

// IsInvalid reports whether key has been marked invalid.
func (p *Pool) IsInvalid(key string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.states[key] == stateInvalid
}

// Stats returns current counts.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{
		Total:   len(p.keys),
		Used:    p.countLocked(stateUsed),
		Invalid: p.countLocked(stateInvalid),
	}
}

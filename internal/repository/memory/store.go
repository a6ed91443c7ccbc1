// Package memory is an in-process implementation of the repository
// interfaces. It backs local runs (STORAGE_TYPE=memory) and the usecase tests.
package memory

import (
	"context"
	"sync"

	"github.com/gdugdh24/ethospair-backend/internal/domain"
	"github.com/gdugdh24/ethospair-backend/internal/repository"
)

type blockKey struct {
	blocker string
	blocked string
}

type state struct {
	seq      int64
	profiles map[string]profileRecord
	requests map[string]domain.PairRequest
	bonds    map[string]domain.Bond
	blocks   map[blockKey]domain.BlockRecord
	messages map[string]messageRecord
}

type profileRecord struct {
	profile domain.Profile
	seq     int64
}

type messageRecord struct {
	message domain.Message
	seq     int64
}

func newState() state {
	return state{
		profiles: make(map[string]profileRecord),
		requests: make(map[string]domain.PairRequest),
		bonds:    make(map[string]domain.Bond),
		blocks:   make(map[blockKey]domain.BlockRecord),
		messages: make(map[string]messageRecord),
	}
}

func (s state) clone() state {
	c := newState()
	c.seq = s.seq
	for k, v := range s.profiles {
		v.profile = cloneProfile(v.profile)
		c.profiles[k] = v
	}
	for k, v := range s.requests {
		c.requests[k] = cloneRequest(v)
	}
	for k, v := range s.bonds {
		c.bonds[k] = cloneBond(v)
	}
	for k, v := range s.blocks {
		c.blocks[k] = v
	}
	for k, v := range s.messages {
		c.messages[k] = v
	}
	return c
}

// Store holds every record behind one lock. Transactions are serialized:
// WithinTx holds txMu exclusively, plain calls take it shared for reads
// and exclusively for writes.
type Store struct {
	txMu sync.RWMutex
	mu   sync.RWMutex
	data state
}

func NewStore() *Store {
	return &Store{data: newState()}
}

func (s *Store) Repositories() repository.Repositories {
	return s.repositories(false)
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	snapshot := s.data.clone()
	s.mu.RUnlock()

	if err := fn(ctx, s.repositories(true)); err != nil {
		s.mu.Lock()
		s.data = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *Store) repositories(inTx bool) repository.Repositories {
	return repository.Repositories{
		Profiles:     &profileRepository{store: s, inTx: inTx},
		PairRequests: &pairRequestRepository{store: s, inTx: inTx},
		Bonds:        &bondRepository{store: s, inTx: inTx},
		Blocks:       &blockRepository{store: s, inTx: inTx},
		Messages:     &messageRepository{store: s, inTx: inTx},
	}
}

func (s *Store) read(inTx bool) func() {
	if !inTx {
		s.txMu.RLock()
	}
	s.mu.RLock()
	return func() {
		s.mu.RUnlock()
		if !inTx {
			s.txMu.RUnlock()
		}
	}
}

func (s *Store) write(inTx bool) func() {
	if !inTx {
		s.txMu.Lock()
	}
	s.mu.Lock()
	return func() {
		s.mu.Unlock()
		if !inTx {
			s.txMu.Unlock()
		}
	}
}

func (s *Store) nextSeq() int64 {
	s.data.seq++
	return s.data.seq
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneProfile(p domain.Profile) domain.Profile {
	p.Interests = cloneStrings(p.Interests)
	p.LookingFor = cloneStrings(p.LookingFor)
	if p.TrustLevelColor != nil {
		color := *p.TrustLevelColor
		p.TrustLevelColor = &color
	}
	return p
}

func cloneRequest(r domain.PairRequest) domain.PairRequest {
	if r.ResolvedAt != nil {
		at := *r.ResolvedAt
		r.ResolvedAt = &at
	}
	return r
}

func cloneBond(b domain.Bond) domain.Bond {
	b.Icebreakers = cloneStrings(b.Icebreakers)
	return b
}

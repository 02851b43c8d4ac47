package services

import (
	"sync/atomic"
	"time"

	"painel/internal/cache"
	"painel/internal/core"
)

// Token identifies one company-selection fetch within a session.
type Token struct {
	Session    string
	Generation uint64
	CompanyID  string
}

// Selection is the company a session last applied and the records that came
// with it.
type Selection struct {
	CompanyID string
	Records   []core.QuarterlyRecord
	// Generation is the latest token issued, which may be newer than the
	// applied data while a fetch is in flight.
	Generation uint64
	Applied    uint64
}

// Selections tracks the per-session selection so that a slow response for
// an earlier choice cannot replace the data of a later one.
//
// Generations come from one counter shared by all sessions, so a token
// never matches a generation issued after its session was evicted.
type Selections struct {
	sessions *cache.LRUCache[Selection]
	seq      atomic.Uint64
}

func NewSelections(size int, ttl time.Duration) *Selections {
	return &Selections{sessions: cache.NewLRUCache[Selection](size, ttl)}
}

func (s *Selections) RegisterCache(m *cache.Manager) {
	m.Register("selections", s.sessions)
}

// Begin issues a new generation for session. Any token issued earlier for
// the same session becomes stale.
func (s *Selections) Begin(session, companyID string) Token {
	gen := s.seq.Add(1)
	s.sessions.Update(session, func(cur Selection, _ bool) Selection {
		cur.Generation = gen
		return cur
	})
	return Token{Session: session, Generation: gen, CompanyID: companyID}
}

// Commit applies records if tok is still the latest generation of its
// session and reports whether it did. A session evicted since Begin has
// issued nothing newer, so its token still applies.
func (s *Selections) Commit(tok Token, records []core.QuarterlyRecord) bool {
	applied := false
	s.sessions.Update(tok.Session, func(cur Selection, ok bool) Selection {
		if !ok {
			cur.Generation = tok.Generation
		} else if cur.Generation != tok.Generation {
			return cur
		}
		cur.CompanyID = tok.CompanyID
		cur.Records = records
		cur.Applied = tok.Generation
		applied = true
		return cur
	})
	return applied
}

// Current returns the applied selection of session.
func (s *Selections) Current(session string) (Selection, bool) {
	sel, ok := s.sessions.Get(session)
	if !ok || sel.Applied == 0 {
		return Selection{}, false
	}
	return sel, true
}

// IsLatest reports whether tok is the newest generation of its session.
// Like Commit, it treats an evicted session as having nothing newer.
func (s *Selections) IsLatest(tok Token) bool {
	sel, ok := s.sessions.Get(tok.Session)
	return !ok || sel.Generation == tok.Generation
}

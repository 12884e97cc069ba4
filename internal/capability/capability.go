package capability

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"media-gateway/internal/handlers"
	"media-gateway/internal/stream"

	"github.com/google/uuid"
)

const tokenLength = 21

// Store is an in-memory capability store: the resolution layer issues
// a short-lived signed token for a stream descriptor, and the stream
// endpoint verifies it. Capabilities die with the process; they are
// only ever redeemed against the instance that issued them.
type Store struct {
	salt []byte
	ttl  time.Duration

	mu      sync.Mutex
	entries map[string]entry
}

type entry struct {
	info   *stream.Info
	expiry string
	exp    time.Time
}

// NewStore creates a capability store with a random per-process salt.
func NewStore(ttl time.Duration) (*Store, error) {
	salt := make([]byte, 64)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	return &Store{
		salt:    salt,
		ttl:     ttl,
		entries: make(map[string]entry),
	}, nil
}

// Issue registers info and returns the token, signature, and expiry
// the client must present to redeem it.
func (s *Store) Issue(info *stream.Info) (token, signature, expiry string) {
	token = newToken()
	exp := time.Now().Add(s.ttl)
	expiry = strconv.FormatInt(exp.UnixMilli(), 10)
	signature = s.sign(token, expiry)

	s.mu.Lock()
	s.prune()
	s.entries[token] = entry{info: info, expiry: expiry, exp: exp}
	s.mu.Unlock()

	return token, signature, expiry
}

// Verify implements handlers.Verifier.
func (s *Store) Verify(token, signature, expiry string) (*stream.Info, error) {
	s.mu.Lock()
	e, ok := s.entries[token]
	s.mu.Unlock()

	if !ok || e.expiry != expiry {
		return nil, &handlers.VerifyError{Status: http.StatusForbidden, Text: "i couldn't verify if you have access to this stream. go back and try again!"}
	}
	if time.Now().After(e.exp) {
		s.mu.Lock()
		delete(s.entries, token)
		s.mu.Unlock()
		return nil, &handlers.VerifyError{Status: http.StatusForbidden, Text: "this stream token has expired. go back and try again!"}
	}
	if !hmac.Equal([]byte(s.sign(token, expiry)), []byte(signature)) {
		return nil, &handlers.VerifyError{Status: http.StatusForbidden, Text: "i couldn't verify if you have access to this stream. go back and try again!"}
	}
	return e.info, nil
}

func (s *Store) sign(token, expiry string) string {
	mac := hmac.New(sha256.New, s.salt)
	mac.Write([]byte(token + expiry))
	return hex.EncodeToString(mac.Sum(nil))
}

// prune drops expired entries. Caller holds the lock.
func (s *Store) prune() {
	now := time.Now()
	for token, e := range s.entries {
		if now.After(e.exp) {
			delete(s.entries, token)
		}
	}
}

func newToken() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return id[:tokenLength]
}

// Package store implements the in-memory repository that owns all user and
// post records.
//
// SINGLE COMPONENT, SINGLE LOCK:
// Unlike a typical handler → service → repository stack, this application has
// exactly one stateful component. The Store holds the user map, the post map,
// and both id counters behind one sync.Mutex, and every operation — reads
// included — runs entirely inside that critical section. Validation, key
// checks, and id assignment all happen under the lock, so check-then-act
// sequences (username uniqueness + insert, key match + delete) are atomic and
// cannot race.
//
// RULES FOR THE CRITICAL SECTION:
// 1. No I/O while holding the lock. Key generation (reads the system CSPRNG),
//    regex compilation, and logging all happen before Lock or after Unlock.
// 2. The lock is released on every exit path, error paths included.
// 3. Internal records never escape: every return value is a copy, and read
//    views have the secret key cleared (model.Post.View / model.User.View).
//
// AUTHORIZATION MODEL:
// There are no sessions or tokens. Each user and each post carries an opaque
// secret key generated at creation; presenting the matching key authorizes
// mutation. Keys are 16 bytes of crypto/rand entropy, URL-safe base64
// encoded, and compared in constant time.
package store

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/girishsaivarma/WebForm/internal/apperror"
	"github.com/girishsaivarma/WebForm/internal/model"
)

const (
	// keyEntropyBytes is the amount of CSPRNG entropy behind each secret
	// key. 16 bytes → 22 characters of URL-safe base64.
	keyEntropyBytes = 16

	// timestampLayout is fixed-width UTC ISO-8601. Fixed width matters:
	// the date-range query compares timestamp STRINGS lexicographically,
	// which only matches chronological order if every timestamp has the
	// same shape (no trimmed fractional seconds, no offsets).
	timestampLayout = "2006-01-02T15:04:05.000000Z"

	// MaxSearchPatternLength bounds regex compilation cost. Go's regexp is
	// RE2 — linear-time matching, no catastrophic backtracking — so this
	// cap plus the rate limiter is all the hardening search needs.
	MaxSearchPatternLength = 256
)

// Store is the in-memory repository. Construct with New; the zero value is
// not usable.
type Store struct {
	mu      sync.Mutex
	users   map[int]*model.User
	posts   map[int]*model.Post
	userSeq int // last assigned user id; ids start at 1
	postSeq int // last assigned post id; independent sequence from userSeq
	logger  *slog.Logger
	now     func() time.Time // injectable clock, tests override it
}

// New creates an empty Store.
func New(logger *slog.Logger) *Store {
	return &Store{
		users:  make(map[int]*model.User),
		posts:  make(map[int]*model.Post),
		logger: logger,
		now:    time.Now,
	}
}

// generateKey returns a fresh opaque secret: 16 bytes of CSPRNG entropy,
// URL-safe base64 without padding.
func generateKey() (string, error) {
	buf := make([]byte, keyEntropyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("store: reading entropy: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// keysEqual compares two secret keys in constant time, so the comparison
// itself cannot be used as a timing oracle for guessing keys byte by byte.
func keysEqual(stored, presented string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(presented)) == 1
}

// RegisterUser creates a new user and returns its id and secret key.
//
// The uniqueness check, counter increment, and insert are one atomic step
// under the lock — two concurrent registrations of the same username cannot
// both succeed, and ids are never dropped or duplicated.
func (s *Store) RegisterUser(name, username string) (int, string, error) {
	if name == "" {
		return 0, "", apperror.ValidationFailed("name", "name is required and must be a string")
	}
	if username == "" {
		return 0, "", apperror.ValidationFailed("username", "username is required and must be a string")
	}

	// Entropy read happens outside the critical section. A conflict below
	// wastes one generated key, which is fine.
	key, err := generateKey()
	if err != nil {
		return 0, "", err
	}

	s.mu.Lock()
	for _, u := range s.users {
		if u.Username == username {
			s.mu.Unlock()
			return 0, "", apperror.Conflict("username", "username already in use")
		}
	}
	s.userSeq++
	id := s.userSeq
	s.users[id] = &model.User{ID: id, Name: name, Username: username, Key: key}
	s.mu.Unlock()

	s.logger.Info("user registered",
		slog.Int("id", id),
		slog.String("username", username),
	)
	return id, key, nil
}

// GetUser looks a user up by numeric id or, if the identifier is not a
// positive number, by exact username. The returned view excludes the key.
func (s *Store) GetUser(identifier string) (model.UserView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var user *model.User
	if id, err := strconv.Atoi(identifier); err == nil && id > 0 {
		user = s.users[id]
	} else {
		for _, u := range s.users {
			if u.Username == identifier {
				user = u
				break
			}
		}
	}
	if user == nil {
		return model.UserView{}, apperror.NotFound("user", identifier)
	}
	return user.View(), nil
}

// UpdateUser applies the patch to the user's name and/or username after
// verifying the caller's key. A failed update leaves the record untouched.
//
// Known gap, kept deliberately: the new username is NOT re-checked for
// uniqueness against other users, matching the published API behavior.
func (s *Store) UpdateUser(id int, key string, patch model.UserPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return apperror.NotFound("user", strconv.Itoa(id))
	}
	if !keysEqual(u.Key, key) {
		return apperror.Unauthorized("unauthorized access")
	}
	if patch.Name != nil {
		u.Name = *patch.Name
	}
	if patch.Username != nil {
		u.Username = *patch.Username
	}
	return nil
}

// PostInput carries the fields of a post-creation request.
//
// File, UserID and UserKey are pointers because presence matters: attribution
// happens only when BOTH UserID and UserKey are supplied, and a one-sided
// pair is silently ignored rather than rejected (the published API contract).
type PostInput struct {
	Msg     string
	File    *string
	UserID  *int
	UserKey *string
}

// CreatePost stores a new post and returns the full record INCLUDING its
// secret key — the creator must learn the key or the post can never be
// deleted. Every later read returns a keyless view.
//
// If both UserID and UserKey are present, the post is attributed: it records
// the user's id and a snapshot of the user's username as of this instant.
// The snapshot is never updated, even if the user later renames themselves.
//
// The credential check runs before the id counter moves, so a rejected
// request leaves the store byte-for-byte unchanged — no burned post ids.
func (s *Store) CreatePost(in PostInput) (model.Post, error) {
	if in.Msg == "" {
		return model.Post{}, apperror.ValidationFailed("msg", "invalid post message")
	}

	key, err := generateKey()
	if err != nil {
		return model.Post{}, err
	}
	timestamp := s.now().UTC().Format(timestampLayout)

	s.mu.Lock()
	post := &model.Post{
		Msg:       in.Msg,
		Key:       key,
		Timestamp: timestamp,
	}
	if in.File != nil {
		post.File = *in.File
	}
	if in.UserID != nil && in.UserKey != nil {
		u, ok := s.users[*in.UserID]
		if !ok || !keysEqual(u.Key, *in.UserKey) {
			s.mu.Unlock()
			return model.Post{}, apperror.Unauthorized("invalid user credentials")
		}
		post.UserID = u.ID
		post.Username = u.Username
	}
	s.postSeq++
	post.ID = s.postSeq
	s.posts[post.ID] = post
	created := *post
	s.mu.Unlock()

	s.logger.Info("post created",
		slog.Int("id", created.ID),
		slog.Bool("attributed", created.UserID != 0),
	)
	return created, nil
}

// GetPost returns the post with the given id, minus its key.
func (s *Store) GetPost(id int) (model.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[id]
	if !ok {
		return model.Post{}, apperror.NotFound("post", strconv.Itoa(id))
	}
	return p.View(), nil
}

// DeletePost removes the post and returns its keyless record.
//
// "No such post" and "wrong key" collapse into the SAME Forbidden error on
// purpose: a caller without the key cannot learn which post ids exist by
// comparing error responses.
func (s *Store) DeletePost(id int, key string) (model.Post, error) {
	s.mu.Lock()
	p, ok := s.posts[id]
	if !ok || !keysEqual(p.Key, key) {
		s.mu.Unlock()
		return model.Post{}, apperror.Forbidden("invalid post id or key")
	}
	delete(s.posts, id)
	view := p.View()
	s.mu.Unlock()

	s.logger.Info("post deleted", slog.Int("id", id))
	return view, nil
}

// QueryByDateRange returns keyless views of all posts whose timestamp falls
// within [start, end] inclusive.
//
// The comparison is plain string ordering. That is correct — not a shortcut —
// because timestamps are fixed-width UTC ISO-8601 strings (see
// timestampLayout), which sort lexicographically exactly as they do
// chronologically. Results come back in ascending id order for determinism.
func (s *Store) QueryByDateRange(start, end string) []model.Post {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []model.Post{}
	for _, id := range s.sortedPostIDs() {
		p := s.posts[id]
		if p.Timestamp >= start && p.Timestamp <= end {
			out = append(out, p.View())
		}
	}
	return out
}

// QueryByUsername returns keyless views of all posts whose attributed
// username snapshot equals the argument exactly. Posts attributed before a
// user renamed themselves keep matching the OLD name — the snapshot is the
// record, not the live user.
func (s *Store) QueryByUsername(username string) []model.Post {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []model.Post{}
	for _, id := range s.sortedPostIDs() {
		p := s.posts[id]
		if p.Username != "" && p.Username == username {
			out = append(out, p.View())
		}
	}
	return out
}

// SearchFulltext returns keyless views of all posts whose message contains a
// case-insensitive match of pattern, interpreted as a regular expression.
//
// The pattern compiles BEFORE the lock is taken, so a slow or invalid
// pattern never stalls other operations. Go's RE2 engine guarantees
// linear-time matching, so arbitrary caller-supplied patterns cannot trigger
// catastrophic backtracking; the length cap bounds compile cost.
func (s *Store) SearchFulltext(pattern string) ([]model.Post, error) {
	if len(pattern) > MaxSearchPatternLength {
		return nil, apperror.ValidationFailed("query",
			fmt.Sprintf("search pattern must be %d characters or less", MaxSearchPatternLength))
	}
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, apperror.ValidationFailed("query", "invalid search pattern: "+err.Error())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := []model.Post{}
	for _, id := range s.sortedPostIDs() {
		p := s.posts[id]
		if re.MatchString(p.Msg) {
			out = append(out, p.View())
		}
	}
	return out, nil
}

// sortedPostIDs returns all post ids in ascending order. Go map iteration
// order is deliberately random, so query results would otherwise shuffle
// between identical calls. Caller must hold s.mu.
func (s *Store) sortedPostIDs() []int {
	ids := make([]int, 0, len(s.posts))
	for id := range s.posts {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

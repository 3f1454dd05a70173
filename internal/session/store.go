// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alexedwards/scs/v2"
	"golang.org/x/sync/singleflight"

	"github.com/olegiv/uphouse/internal/backend"
	"github.com/olegiv/uphouse/internal/cache"
	"github.com/olegiv/uphouse/internal/model"
)

const authKey = "auth.session"

// DefaultResolveBudget is how long Resolve waits for a profile.
const DefaultResolveBudget = 1500 * time.Millisecond

// refreshGrace is how long a refresh result is handed to requests that
// still carry the refresh token it replaced.
const refreshGrace = 30 * time.Second

// State is the resolved login of one request. With Loading set the
// profile lookup is still outstanding and the state is neither
// authenticated nor anonymous.
type State struct {
	Session *backend.Session
	User    *backend.User
	Profile *model.Profile
	Loading bool
	Err     error
}

// Principal returns the identity to pass to the backend.
func (s State) Principal() backend.Principal {
	return s.Session.Principal()
}

// Role returns the profile role, or RoleNone without a profile.
func (s State) Role() model.Role {
	if s.Profile == nil {
		return model.RoleNone
	}
	return s.Profile.Role
}

// Options tunes a Store.
type Options struct {
	// ResolveBudget bounds the wait for a profile lookup.
	ResolveBudget time.Duration
	// ResetRedirect is where password reset emails send the user.
	ResetRedirect string
	// ProfileTTL bounds how long a fetched profile is reused.
	ProfileTTL time.Duration
}

type subscriber struct {
	id int
	fn func(context.Context, Event)
}

// Store owns the login state of the site. It is created once at startup
// and shared by the router; Init and Teardown bracket its lifetime.
type Store struct {
	sm       *scs.SessionManager
	auth     backend.Auth
	profiles *cache.TypedCache[model.Profile]
	opts     Options
	logger   *slog.Logger
	now      func() time.Time

	refreshes singleflight.Group

	mu        sync.Mutex
	subs      []subscriber
	nextID    int
	gens      map[string]uint64
	unsubs    []func()
	refreshed map[string]recentRefresh
}

type recentRefresh struct {
	sess backend.Session
	at   time.Time
}

// NewStore returns a Store. Profiles are cached in cacher.
func NewStore(sm *scs.SessionManager, auth backend.Auth, cacher cache.Cacher, opts Options, logger *slog.Logger) *Store {
	if opts.ResolveBudget <= 0 {
		opts.ResolveBudget = DefaultResolveBudget
	}
	if opts.ProfileTTL <= 0 {
		opts.ProfileTTL = 5 * time.Minute
	}
	return &Store{
		sm:        sm,
		auth:      auth,
		profiles:  cache.NewTypedCache[model.Profile](cacher, "profile", opts.ProfileTTL),
		opts:      opts,
		logger:    logger,
		now:       time.Now,
		gens:      make(map[string]uint64),
		refreshed: make(map[string]recentRefresh),
	}
}

// Init subscribes the store's own listeners plus any extra ones. Extra
// listeners are removed again by Teardown.
func (s *Store) Init(extra ...func(context.Context, Event)) {
	s.unsubs = append(s.unsubs,
		s.Subscribe(s.onProfileChange),
		s.Subscribe(s.onSignedOut),
	)
	for _, fn := range extra {
		s.unsubs = append(s.unsubs, s.Subscribe(fn))
	}
}

// Teardown removes every listener added by Init.
func (s *Store) Teardown() {
	for _, unsub := range s.unsubs {
		unsub()
	}
	s.unsubs = nil
}

// Subscribe registers fn for session events. Listeners run synchronously
// in subscription order on the goroutine that caused the event.
func (s *Store) Subscribe(fn func(context.Context, Event)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs = append(s.subs, subscriber{id: id, fn: fn})
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

func (s *Store) publish(ctx context.Context, kind EventKind, user backend.User) {
	e := Event{Kind: kind, UserID: user.ID, Email: user.Email, At: s.now(), Client: ClientFrom(ctx)}

	s.mu.Lock()
	subs := make([]subscriber, len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.fn(ctx, e)
	}
}

// Current returns the stored auth session without refreshing it.
func (s *Store) Current(ctx context.Context) *backend.Session {
	sess, ok := s.sm.Get(ctx, authKey).(backend.Session)
	if !ok {
		return nil
	}
	return &sess
}

// Resolve works out the login state of the current request. Errors are
// reported in State.Err and never returned.
func (s *Store) Resolve(ctx context.Context) State {
	sess := s.Current(ctx)
	if sess == nil {
		return State{}
	}

	if sess.Expired(s.now()) {
		refreshed, err := s.refresh(ctx, sess)
		if err != nil {
			s.sm.Remove(ctx, authKey)
			return State{}
		}
		s.sm.Put(ctx, authKey, *refreshed)
		sess = refreshed
	}

	st := State{Session: sess, User: &sess.User}
	st.Profile, st.Loading, st.Err = s.profile(ctx, sess)
	return st
}

// refresh exchanges the refresh token of sess. Refresh tokens are single
// use, so concurrent requests share one exchange and requests that arrive
// shortly after it with the old token reuse its result.
func (s *Store) refresh(ctx context.Context, sess *backend.Session) (*backend.Session, error) {
	token := sess.RefreshToken
	if next, ok := s.lastRefresh(token); ok {
		return next, nil
	}

	v, err, _ := s.refreshes.Do(token, func() (any, error) {
		if next, ok := s.lastRefresh(token); ok {
			return next, nil
		}
		next, err := s.auth.Refresh(context.WithoutCancel(ctx), token)
		if err != nil {
			s.logger.Info("session expired", "user_id", sess.User.ID, "error", err)
			s.publish(ctx, EventExpired, sess.User)
			return nil, err
		}
		s.rememberRefresh(token, next)
		s.publish(ctx, EventRefreshed, next.User)
		return next, nil
	})
	if err != nil {
		return nil, err
	}
	next := *v.(*backend.Session)
	return &next, nil
}

func (s *Store) lastRefresh(token string) (*backend.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.refreshed[token]
	if !ok || s.now().Sub(r.at) > refreshGrace {
		return nil, false
	}
	next := r.sess
	return &next, true
}

func (s *Store) rememberRefresh(token string, next *backend.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for k, r := range s.refreshed {
		if now.Sub(r.at) > refreshGrace {
			delete(s.refreshed, k)
		}
	}
	s.refreshed[token] = recentRefresh{sess: *next, at: now}
}

type profileResult struct {
	profile *model.Profile
	err     error
}

// profile returns the cached profile of the session's user or fetches it
// within the resolve budget. A fetch that outlives the budget keeps
// running; its result is cached only if no sign-in or sign-out happened
// for that user in the meantime.
func (s *Store) profile(ctx context.Context, sess *backend.Session) (*model.Profile, bool, error) {
	userID := sess.User.ID
	if p, ok := s.profiles.Get(ctx, userID); ok {
		if p.UserID == "" {
			return nil, false, nil
		}
		return p, false, nil
	}

	gen := s.generation(userID)
	principal := sess.Principal()
	done := make(chan profileResult, 1)
	go func() {
		fetchCtx := context.WithoutCancel(ctx)
		p, err := s.auth.Profile(fetchCtx, principal, userID)
		if err == nil && s.generation(userID) == gen {
			s.storeProfile(fetchCtx, userID, p)
		}
		done <- profileResult{profile: p, err: err}
	}()

	timer := time.NewTimer(s.opts.ResolveBudget)
	defer timer.Stop()

	select {
	case r := <-done:
		if r.err != nil {
			s.logger.Warn("auth profile lookup failed", "user_id", userID, "error", r.err)
			return nil, false, fmt.Errorf("loading profile: %w", r.err)
		}
		return r.profile, false, nil
	case <-timer.C:
		return nil, true, nil
	case <-ctx.Done():
		return nil, true, nil
	}
}

// storeProfile caches p. An absent profile is cached as an empty value so
// that it is not fetched on every request.
func (s *Store) storeProfile(ctx context.Context, userID string, p *model.Profile) {
	if p == nil {
		p = &model.Profile{}
	}
	if err := s.profiles.Set(ctx, userID, p); err != nil {
		s.logger.Warn("profile cache write failed", "user_id", userID, "error", err)
	}
}

func (s *Store) generation(userID string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gens[userID]
}

// forgetProfile drops the cached profile and makes in-flight lookups for
// userID stale.
func (s *Store) forgetProfile(ctx context.Context, userID string) {
	s.mu.Lock()
	s.gens[userID]++
	s.mu.Unlock()
	_ = s.profiles.Delete(ctx, userID)
}

func (s *Store) onProfileChange(ctx context.Context, e Event) {
	switch e.Kind {
	case EventSignedIn, EventSignedOut, EventExpired:
		s.forgetProfile(ctx, e.UserID)
	}
}

func (s *Store) onSignedOut(ctx context.Context, e Event) {
	if e.Kind != EventSignedOut {
		return
	}
	s.sm.Remove(ctx, authKey)
	if err := s.sm.RenewToken(ctx); err != nil {
		s.logger.Warn("session token renewal failed", "error", err)
	}
	s.forgetRefreshes(e.UserID)
}

func (s *Store) forgetRefreshes(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, r := range s.refreshed {
		if r.sess.User.ID == userID {
			delete(s.refreshed, k)
		}
	}
}

// SignIn authenticates against the backend and stores the new session.
func (s *Store) SignIn(ctx context.Context, email, password string) (*backend.Session, error) {
	sess, err := s.auth.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}

	if err := s.sm.RenewToken(ctx); err != nil {
		return nil, fmt.Errorf("renewing session token: %w", err)
	}
	s.sm.Put(ctx, authKey, *sess)
	s.publish(ctx, EventSignedIn, sess.User)
	return sess, nil
}

// SignOut ends the backend session and drops the cached profile. The
// cookie session is cleared by the EventSignedOut listener installed by
// Init. A backend failure is returned after the event is published.
func (s *Store) SignOut(ctx context.Context) error {
	sess := s.Current(ctx)
	if sess == nil {
		return nil
	}

	err := s.auth.SignOut(ctx, sess.AccessToken)
	if err != nil && !errors.Is(err, backend.ErrSessionExpired) {
		s.logger.Warn("auth sign-out failed", "user_id", sess.User.ID, "error", err)
	} else {
		err = nil
	}
	s.forgetProfile(ctx, sess.User.ID)
	s.publish(ctx, EventSignedOut, sess.User)
	return err
}

// RequestPasswordReset asks the backend to email a reset link.
func (s *Store) RequestPasswordReset(ctx context.Context, email string) error {
	if err := s.auth.RequestPasswordReset(ctx, email, s.opts.ResetRedirect); err != nil {
		return fmt.Errorf("requesting password reset: %w", err)
	}
	return nil
}

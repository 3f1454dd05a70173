package session

import (
	"context"
	"time"
)

// EventKind names a login state change.
type EventKind string

// Session events.
const (
	EventSignedIn  EventKind = "signed_in"
	EventRefreshed EventKind = "refreshed"
	EventSignedOut EventKind = "signed_out"
	EventExpired   EventKind = "expired"
)

// Event is published on every login state change.
type Event struct {
	Kind   EventKind
	UserID string
	Email  string
	At     time.Time
	Client Client
}

// Client describes the browser behind a request.
type Client struct {
	IP        string
	UserAgent string
}

type clientKey struct{}

// WithClient attaches the requesting browser to ctx so that events carry it.
func WithClient(ctx context.Context, c Client) context.Context {
	return context.WithValue(ctx, clientKey{}, c)
}

// ClientFrom returns the browser attached by WithClient.
func ClientFrom(ctx context.Context) Client {
	c, _ := ctx.Value(clientKey{}).(Client)
	return c
}

type stateKey struct{}

// WithState stores a resolved State in ctx.
func WithState(ctx context.Context, st State) context.Context {
	return context.WithValue(ctx, stateKey{}, st)
}

// StateFrom returns the State stored by WithState, or the anonymous state.
func StateFrom(ctx context.Context) State {
	st, _ := ctx.Value(stateKey{}).(State)
	return st
}

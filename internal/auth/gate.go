package auth

import (
	"context"

	"github.com/webforge-labs/webforge-backend/internal/apperr"
	"github.com/webforge-labs/webforge-backend/internal/users"
)

// UserStore is the slice of the users repository the gate needs.
type UserStore interface {
	EnsureUser(ctx context.Context, u users.UpsertUser) (*users.User, error)
	GetByID(ctx context.Context, id string) (*users.User, error)
}

// Gate is the authentication gate: it exchanges verified identities for
// sessions and answers "who, if anyone, is this" for a presented token.
// Ownership checks stay with the callers.
type Gate struct {
	verifier TokenVerifier
	sessions *SessionStore
	users    UserStore
}

func NewGate(verifier TokenVerifier, sessions *SessionStore, userStore UserStore) *Gate {
	return &Gate{verifier: verifier, sessions: sessions, users: userStore}
}

// SignIn verifies the ID token, upserts the user record and issues an
// opaque session. Only a rejected token is Unauthorized; store failures
// surface as-is so an outage does not read as bad credentials.
func (g *Gate) SignIn(ctx context.Context, idToken string) (*Session, *users.User, error) {
	identity, err := g.verifier.Verify(ctx, idToken)
	if err != nil {
		return nil, nil, apperr.Wrap(apperr.KindUnauthorized, "sign-in failed", err)
	}

	u, err := g.users.EnsureUser(ctx, users.UpsertUser{
		FirebaseUID: identity.FirebaseUID,
		Email:       identity.Email,
		DisplayName: identity.DisplayName,
	})
	if err != nil {
		return nil, nil, err
	}

	sess, err := g.sessions.Issue(ctx, u.ID)
	if err != nil {
		return nil, nil, err
	}
	return sess, u, nil
}

// ResolveSession maps a session token to its user, or an Unauthorized
// error when there is no valid session. A session whose user row has
// since been deleted is no longer a valid session.
func (g *Gate) ResolveSession(ctx context.Context, token string) (*users.User, error) {
	sess, err := g.sessions.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}

	u, err := g.users.GetByID(ctx, sess.UserID)
	if apperr.IsNotFound(err) {
		return nil, apperr.Unauthorized("session user no longer exists")
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// SignOut revokes the presented session.
func (g *Gate) SignOut(ctx context.Context, token string) error {
	return g.sessions.Revoke(ctx, token)
}

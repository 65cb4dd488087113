// FilePath: internal/auth/auth.authenticator.go
package auth

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/zekarki/WeatherAPI/internal/models"
	"github.com/zekarki/WeatherAPI/internal/repository"
)

// Scheme selects how a route group reads the Authorization header
type Scheme string

const (
	SchemeBasic  Scheme = "basic"
	SchemeBearer Scheme = "bearer"
)

// ParseScheme accepts basic or bearer in any case
func ParseScheme(s string) (Scheme, error) {
	switch Scheme(strings.ToLower(strings.TrimSpace(s))) {
	case SchemeBasic:
		return SchemeBasic, nil
	case SchemeBearer:
		return SchemeBearer, nil
	default:
		return "", fmt.Errorf("unknown auth scheme %q", s)
	}
}

// FailureKind classifies an authentication failure
type FailureKind string

const (
	FailureMissing            FailureKind = "missing_credentials"
	FailureInvalidCredentials FailureKind = "invalid_credentials"
	FailureTokenMissing       FailureKind = "token_missing"
	FailureTokenExpired       FailureKind = "token_expired"
	FailureInvalidToken       FailureKind = "invalid_token"
	FailureStorageUnavailable FailureKind = "storage_unavailable"
)

// Failure is returned by Authenticate. Message is safe to show to clients.
type Failure struct {
	Kind    FailureKind
	Message string
	err     error
}

func (f *Failure) Error() string {
	if f.err != nil {
		return fmt.Sprintf("%s: %v", f.Message, f.err)
	}
	return f.Message
}

func (f *Failure) Unwrap() error {
	return f.err
}

// Authenticator turns an Authorization header into an Identity
type Authenticator struct {
	credentials *CredentialStore
	tokens      *TokenIssuer
	sessions    repository.SessionRepository
}

// NewAuthenticator creates an authenticator. sessions may be nil, in which case
// bearer tokens are trusted until they expire.
func NewAuthenticator(credentials *CredentialStore, tokens *TokenIssuer, sessions repository.SessionRepository) *Authenticator {
	return &Authenticator{
		credentials: credentials,
		tokens:      tokens,
		sessions:    sessions,
	}
}

// Authenticate verifies header under the given scheme. It never reveals
// whether a username exists.
func (a *Authenticator) Authenticate(ctx context.Context, scheme Scheme, header string) (*models.Identity, error) {
	switch scheme {
	case SchemeBearer:
		return a.bearer(ctx, header)
	default:
		return a.basic(ctx, header)
	}
}

// Login checks a username/password pair
func (a *Authenticator) Login(ctx context.Context, username, password string) (*models.Identity, error) {
	identity, err := a.credentials.Check(ctx, username, password)
	if err != nil {
		return nil, a.credentialFailure(err)
	}
	return identity, nil
}

func (a *Authenticator) basic(ctx context.Context, header string) (*models.Identity, error) {
	encoded, ok := cutPrefixFold(header, "Basic ")
	if !ok {
		return nil, &Failure{Kind: FailureMissing, Message: "Authentication required"}
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return nil, invalidCredentials(err)
	}
	username, password, found := strings.Cut(string(decoded), ":")
	if !found {
		return nil, invalidCredentials(errors.New("missing separator"))
	}
	return a.Login(ctx, username, password)
}

func (a *Authenticator) bearer(ctx context.Context, header string) (*models.Identity, error) {
	raw := strings.TrimSpace(header)
	if raw == "" {
		return nil, &Failure{Kind: FailureTokenMissing, Message: "Token missing"}
	}
	if token, ok := cutPrefixFold(raw, "Bearer "); ok {
		raw = strings.TrimSpace(token)
	}
	claims, err := a.tokens.Verify(raw)
	if err != nil {
		if errors.Is(err, ErrTokenExpired) {
			return nil, &Failure{Kind: FailureTokenExpired, Message: "Token expired", err: err}
		}
		return nil, &Failure{Kind: FailureInvalidToken, Message: "Invalid token", err: err}
	}
	if a.sessions != nil {
		if _, err := a.sessions.Get(ctx, claims.ID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, &Failure{Kind: FailureInvalidToken, Message: "Invalid token", err: err}
			}
			return nil, &Failure{Kind: FailureStorageUnavailable, Message: "Session store unavailable", err: err}
		}
	}
	// the stored identity wins over the claims so deletions and role changes apply at once
	identity, err := a.credentials.FindByUsername(ctx, claims.Username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &Failure{Kind: FailureInvalidToken, Message: "Invalid token", err: err}
		}
		return nil, &Failure{Kind: FailureStorageUnavailable, Message: "Credential store unavailable", err: err}
	}
	if claims.Subject != "" && claims.Subject != identity.ID {
		return nil, &Failure{Kind: FailureInvalidToken, Message: "Invalid token", err: errors.New("token subject no longer exists")}
	}
	return identity, nil
}

// SessionID extracts the session id from a bearer header without re-checking the session store
func (a *Authenticator) SessionID(header string) (string, error) {
	raw := strings.TrimSpace(header)
	if token, ok := cutPrefixFold(raw, "Bearer "); ok {
		raw = strings.TrimSpace(token)
	}
	claims, err := a.tokens.Verify(raw)
	if err != nil {
		return "", err
	}
	return claims.ID, nil
}

func (a *Authenticator) credentialFailure(err error) error {
	if errors.Is(err, ErrStorageUnavailable) {
		return &Failure{Kind: FailureStorageUnavailable, Message: "Credential store unavailable", err: err}
	}
	return invalidCredentials(err)
}

func invalidCredentials(err error) *Failure {
	return &Failure{Kind: FailureInvalidCredentials, Message: "Invalid credentials", err: err}
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return "", false
	}
	return s[len(prefix):], true
}

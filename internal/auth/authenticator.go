package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/GoArmGo/PhotoShare/internal/apperror"
	"github.com/GoArmGo/PhotoShare/internal/domain"
	"github.com/google/uuid"
)

// UserSource — откуда берётся актуальная роль пользователя.
type UserSource interface {
	GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// Authenticator проверяет токен и собирает субъекта. Роль берётся из
// справочника пользователей, а не из токена: смена роли действует
// сразу после сброса кэша, не дожидаясь истечения токена.
type Authenticator struct {
	verifier *Verifier
	users    UserSource
	cache    PrincipalCache
	logger   *slog.Logger
}

// NewAuthenticator создаёт Authenticator. cache может быть nil.
func NewAuthenticator(verifier *Verifier, users UserSource, cache PrincipalCache, logger *slog.Logger) *Authenticator {
	return &Authenticator{verifier: verifier, users: users, cache: cache, logger: logger}
}

func (a *Authenticator) Authenticate(ctx context.Context, rawToken string) (domain.Principal, error) {
	claims, err := a.verifier.Verify(rawToken)
	if err != nil {
		return domain.Principal{}, err
	}
	userID, err := claims.UserID()
	if err != nil {
		return domain.Principal{}, fmt.Errorf("%w: subject is not a user id", ErrUnauthenticated)
	}

	if a.cache != nil {
		p, err := a.cache.Get(ctx, userID)
		if err != nil {
			a.logger.Warn("principal cache read failed", "user_id", userID, "error", err)
		} else if p != nil {
			return *p, nil
		}
	}

	user, err := a.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return domain.Principal{}, fmt.Errorf("%w: unknown user %s", ErrUnauthenticated, userID)
		}
		return domain.Principal{}, err
	}

	p := domain.Principal{UserID: user.ID, Role: user.Role, Email: user.Email}
	if a.cache != nil {
		if err := a.cache.Set(ctx, p); err != nil {
			a.logger.Warn("principal cache write failed", "user_id", userID, "error", err)
		}
	}
	return p, nil
}

type principalKey struct{}

// WithPrincipal кладёт субъекта в контекст запроса.
func WithPrincipal(ctx context.Context, p domain.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom достаёт субъекта из контекста.
func PrincipalFrom(ctx context.Context) (domain.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(domain.Principal)
	return p, ok
}

package http

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"golang.org/x/time/rate"

	"github.com/travatlanta/Sticky-sub003/internal/domain"
)

type ctxKey int

const (
	actorKey ctxKey = iota
	cartOwnerKey
)

const sessionCookie = "sticky_session"

// Claims is the session token issued by the auth provider.
type Claims struct {
	Email string      `json:"email"`
	Name  string      `json:"name"`
	Role  domain.Role `json:"role"`
	jwt.RegisteredClaims
}

func actorFrom(ctx context.Context) domain.Actor {
	a, _ := ctx.Value(actorKey).(domain.Actor)
	return a
}

func cartOwnerFrom(ctx context.Context) string {
	owner, _ := ctx.Value(cartOwnerKey).(string)
	return owner
}

// Authenticate resolves the bearer token into an actor. Requests without a
// token pass through anonymously; a bad token is rejected.
func Authenticate(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}
			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				respondError(w, http.StatusUnauthorized, "unauthenticated", "authorization header must be a bearer token")
				return
			}
			actor, err := parseToken(secret, raw)
			if err != nil {
				hlog.FromRequest(r).Debug().Err(err).Msg("rejected session token")
				respondError(w, http.StatusUnauthorized, "unauthenticated", "invalid session token")
				return
			}
			hlog.FromRequest(r).UpdateContext(func(c zerolog.Context) zerolog.Context {
				return c.Str("user_id", actor.UserID)
			})
			ctx := context.WithValue(r.Context(), actorKey, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func parseToken(secret []byte, raw string) (domain.Actor, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return domain.Actor{}, err
	}
	if claims.Subject == "" {
		return domain.Actor{}, errors.New("token has no subject")
	}
	role := claims.Role
	if role != domain.RoleAdmin {
		role = domain.RoleCustomer
	}
	return domain.Actor{UserID: claims.Subject, Email: claims.Email, Name: claims.Name, Role: role}, nil
}

// IssueToken signs a session token. The auth provider owns issuing in
// production; this is used by tests and local tooling.
func IssueToken(secret []byte, actor domain.Actor, ttl time.Duration) (string, error) {
	claims := Claims{
		Email: actor.Email,
		Name:  actor.Name,
		Role:  actor.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.UserID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if actorFrom(r.Context()).UserID == "" {
			respondError(w, http.StatusUnauthorized, "unauthenticated", "missing user authentication")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func RequireAdmin(next http.Handler) http.Handler {
	return RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !actorFrom(r.Context()).IsAdmin() {
			respondError(w, http.StatusForbidden, "permission_denied", "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	}))
}

type CartAdopter interface {
	AdoptCart(ctx context.Context, from, to string) (int, error)
}

// CartSession keys the cart by user when signed in, otherwise by the
// sticky_session cookie, issuing one on first use. A signed-in request that
// still carries the cookie takes over the guest cart and the cookie is expired.
func CartSession(carts CartAdopter, secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var owner string
			c, err := r.Cookie(sessionCookie)
			hasSession := err == nil && c.Value != ""

			switch actor := actorFrom(r.Context()); {
			case actor.UserID != "":
				owner = domain.UserCartOwner(actor.UserID)
				if hasSession {
					adoptGuestCart(w, r, carts, domain.SessionCartOwner(c.Value), owner, secure)
				}
			case hasSession:
				owner = domain.SessionCartOwner(c.Value)
			default:
				id := uuid.NewString()
				http.SetCookie(w, sessionCookieFor(id, int((30*24*time.Hour).Seconds()), secure))
				owner = domain.SessionCartOwner(id)
			}
			ctx := context.WithValue(r.Context(), cartOwnerKey, owner)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// adoptGuestCart keeps the cookie when the merge fails so the next request
// tries again.
func adoptGuestCart(w http.ResponseWriter, r *http.Request, carts CartAdopter, from, to string, secure bool) {
	moved, err := carts.AdoptCart(r.Context(), from, to)
	if err != nil {
		hlog.FromRequest(r).Warn().Err(err).Str("owner", to).Msg("failed to adopt guest cart")
		return
	}
	if moved > 0 {
		hlog.FromRequest(r).Info().Int("lines", moved).Str("owner", to).Msg("adopted guest cart")
	}
	http.SetCookie(w, sessionCookieFor("", -1, secure))
}

func sessionCookieFor(value string, maxAge int, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     sessionCookie,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	}
}

// RateLimiter hands each client its own token bucket. Clients are the signed
// in user when known, otherwise the remote IP.
type RateLimiter struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	clients map[string]*client
	ttl     time.Duration
	now     func() time.Time
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		limit:   rate.Limit(rps),
		burst:   burst,
		clients: make(map[string]*client),
		ttl:     10 * time.Minute,
		now:     time.Now,
	}
}

func (l *RateLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	c, ok := l.clients[key]
	if !ok {
		if len(l.clients) > 10000 {
			l.evict(now)
		}
		c = &client{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[key] = c
	}
	c.lastSeen = now
	return c.limiter.AllowN(now, 1)
}

func (l *RateLimiter) evict(now time.Time) {
	for k, c := range l.clients {
		if now.Sub(c.lastSeen) > l.ttl {
			delete(l.clients, k)
		}
	}
}

func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := actorFrom(r.Context()).UserID
		if key == "" {
			key = clientIP(r)
		}
		if !l.allow(key) {
			w.Header().Set("Retry-After", "1")
			respondError(w, http.StatusTooManyRequests, "rate_limit_exceeded", "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RequestLogger attaches a request-scoped zerolog logger carrying chi's
// request id and writes one access line per request.
func RequestLogger(log zerolog.Logger) []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		hlog.NewHandler(log),
		func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if id := middleware.GetReqID(r.Context()); id != "" {
					hlog.FromRequest(r).UpdateContext(func(c zerolog.Context) zerolog.Context {
						return c.Str("request_id", id)
					})
					w.Header().Set(middleware.RequestIDHeader, id)
				}
				next.ServeHTTP(w, r)
			})
		},
		hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
			hlog.FromRequest(r).Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", status).
				Int("size", size).
				Dur("duration", duration).
				Msg("request")
		}),
	}
}

package api

import (
	"context"
	"crypto/subtle"
	"errors"
	"net"
	"net/http"
	"strings"

	"surfside/internal/config"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

const (
	apiKeyHeaderDefault   = "x-api-key"
	apiExtraHeaderDefault = "x-api-extra"
	permReadAvailability  = "read:availability"
	permAdmin             = "admin"
	clientKeyUnknown      = "unknown"
	actorAnonymous        = "admin"
)

var (
	errUnauthenticated  = errors.New("authentication required")
	errInvalidAPIKey    = errors.New("invalid api key")
	errPermissionDenied = errors.New("permission denied")
)

type actorKey struct{}

// actorFrom returns the staff name recorded by HTTPAuth.
func actorFrom(ctx context.Context) string {
	if actor, ok := ctx.Value(actorKey{}).(string); ok && actor != "" {
		return actor
	}
	return actorAnonymous
}

// apiKeys resolves x-api-key/x-api-extra pairs to configured clients.
type apiKeys struct {
	apiKeyHeader string
	extraHeader  string
	clients      map[string]config.APIClientKey
}

func newAPIKeys(cfg config.APIAuthConfig) *apiKeys {
	m := make(map[string]config.APIClientKey, len(cfg.APIKeys))
	for _, k := range cfg.APIKeys {
		m[k.Key] = k
	}
	return &apiKeys{
		apiKeyHeader: headerName(cfg.HeaderAPIKey, apiKeyHeaderDefault),
		extraHeader:  headerName(cfg.HeaderExtra, apiExtraHeaderDefault),
		clients:      m,
	}
}

func headerName(configured, fallback string) string {
	if h := strings.ToLower(strings.TrimSpace(configured)); h != "" {
		return h
	}
	return fallback
}

func (k *apiKeys) lookup(apiKey, extra, required string) (config.APIClientKey, error) {
	if apiKey == "" || extra == "" {
		return config.APIClientKey{}, errUnauthenticated
	}
	client, ok := k.clients[apiKey]
	if !ok || subtle.ConstantTimeCompare([]byte(client.Extra), []byte(extra)) != 1 {
		return config.APIClientKey{}, errInvalidAPIKey
	}
	if !hasPermission(client, required) {
		return config.APIClientKey{}, errPermissionDenied
	}
	return client, nil
}

// hasPermission treats an empty permission list as allow-all.
func hasPermission(client config.APIClientKey, required string) bool {
	if required == "" || len(client.Permissions) == 0 {
		return true
	}
	for _, p := range client.Permissions {
		if strings.TrimSpace(p) == required {
			return true
		}
	}
	return false
}

// HTTPAuth guards the staff endpoints with HTTP basic auth against the
// configured admin account, or an API key holding the admin permission.
type HTTPAuth struct {
	cfg  config.APIAuthConfig
	keys *apiKeys
}

func NewHTTPAuth(cfg config.APIAuthConfig) *HTTPAuth {
	return &HTTPAuth{cfg: cfg, keys: newAPIKeys(cfg)}
}

func (a *HTTPAuth) Admin(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.cfg.Enabled {
			next.ServeHTTP(w, r)
			return
		}

		actor, err := a.authenticate(r)
		if err != nil {
			code := http.StatusUnauthorized
			if errors.Is(err, errPermissionDenied) {
				code = http.StatusForbidden
			} else {
				w.Header().Set("WWW-Authenticate", `Basic realm="surfside"`)
			}
			writeError(w, code, err.Error())
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), actorKey{}, actor)))
	})
}

func (a *HTTPAuth) authenticate(r *http.Request) (string, error) {
	if user, pass, ok := r.BasicAuth(); ok {
		userOK := subtle.ConstantTimeCompare([]byte(user), []byte(a.cfg.AdminUsername)) == 1
		passOK := subtle.ConstantTimeCompare([]byte(pass), []byte(a.cfg.AdminPassword)) == 1
		if userOK && passOK {
			return user, nil
		}
		return "", errUnauthenticated
	}

	client, err := a.keys.lookup(
		strings.TrimSpace(r.Header.Get(a.keys.apiKeyHeader)),
		strings.TrimSpace(r.Header.Get(a.keys.extraHeader)),
		permAdmin,
	)
	if err != nil {
		return "", err
	}
	if client.Name != "" {
		return client.Name, nil
	}
	return client.Key, nil
}

// AuthInterceptor applies API key auth and per-client rate limiting to gRPC calls.
type AuthInterceptor struct {
	cfg     *config.APIConfig
	keys    *apiKeys
	limiter *rateLimiter
}

func NewAuthInterceptor(cfg *config.APIConfig) *AuthInterceptor {
	return &AuthInterceptor{
		cfg:     cfg,
		keys:    newAPIKeys(cfg.Auth),
		limiter: newRateLimiter(cfg.RateLimit),
	}
}

func (a *AuthInterceptor) Unary() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if a.cfg.Auth.Enabled {
			if err := a.checkAuth(ctx, info.FullMethod); err != nil {
				return nil, err
			}
		}
		if !a.limiter.allow(a.clientKey(ctx)) {
			return nil, status.Error(codes.ResourceExhausted, "rate limit exceeded")
		}
		return handler(ctx, req)
	}
}

func (a *AuthInterceptor) checkAuth(ctx context.Context, fullMethod string) error {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return status.Error(codes.Unauthenticated, "missing metadata")
	}

	_, err := a.keys.lookup(first(md.Get(a.keys.apiKeyHeader)), first(md.Get(a.keys.extraHeader)), requiredPermission(fullMethod))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, errPermissionDenied):
		return status.Error(codes.PermissionDenied, err.Error())
	default:
		return status.Error(codes.Unauthenticated, err.Error())
	}
}

func requiredPermission(fullMethod string) string {
	if strings.HasPrefix(fullMethod, "/"+availabilityServiceName+"/") {
		return permReadAvailability
	}
	return ""
}

func (a *AuthInterceptor) clientKey(ctx context.Context) string {
	md, _ := metadata.FromIncomingContext(ctx)
	if apiKey := first(md.Get(a.keys.apiKeyHeader)); apiKey != "" {
		return apiKey
	}
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		return p.Addr.String()
	}
	return clientKeyUnknown
}

func first(vals []string) string {
	if len(vals) == 0 {
		return ""
	}
	return strings.TrimSpace(vals[0])
}

// httpClientKey identifies an HTTP caller for rate limiting.
func httpClientKey(r *http.Request, apiKeyHeader string) string {
	if apiKey := strings.TrimSpace(r.Header.Get(apiKeyHeader)); apiKey != "" {
		return apiKey
	}
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if ip := strings.TrimSpace(strings.Split(fwd, ",")[0]); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return clientKeyUnknown
}

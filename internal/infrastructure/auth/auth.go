package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"pawsitive-haven/assistant-api/internal/config"
)

const (
	principalKey = "auth_principal"

	// Used only while auth is disabled.
	HeaderDevUserID = "X-User-ID"
	HeaderDevRole   = "X-User-Role"

	RoleStaff = "staff"
	RoleAdmin = "admin"

	devUserID = "dev-user"

	nameIdentifierClaim = "http://schemas.xmlsoap.org/ws/2005/05/identity/claims/nameidentifier"
	roleClaim           = "http://schemas.microsoft.com/ws/2008/06/identity/claims/role"
)

// Principal is the authenticated caller.
type Principal struct {
	UserID string
	Roles  []string
}

// IsStaff reports whether the caller may work the escalation queue.
func (p Principal) IsStaff() bool {
	for _, role := range p.Roles {
		if strings.EqualFold(role, RoleStaff) || strings.EqualFold(role, RoleAdmin) {
			return true
		}
	}
	return false
}

// Validator validates bearer tokens signed with a shared secret or a JWKS key.
type Validator struct {
	cfg  *config.Config
	log  zerolog.Logger
	jwks *keyfunc.JWKS
}

// NewValidator initializes JWKS fetching when auth is enabled with a JWKS url.
func NewValidator(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Validator, error) {
	log = log.With().Str("component", "auth").Logger()
	if !cfg.AuthEnabled || strings.TrimSpace(cfg.AuthJWKSURL) == "" {
		return &Validator{cfg: cfg, log: log}, nil
	}

	options := keyfunc.Options{
		Ctx:               ctx,
		RefreshInterval:   time.Hour,
		RefreshUnknownKID: true,
		RefreshErrorHandler: func(err error) {
			log.Error().Err(err).Msg("jwks refresh error")
		},
	}

	jwks, err := keyfunc.Get(cfg.AuthJWKSURL, options)
	if err != nil {
		return nil, err
	}

	return &Validator{
		cfg:  cfg,
		log:  log,
		jwks: jwks,
	}, nil
}

// Middleware resolves the caller into a Principal. With auth disabled the
// caller is taken from the X-User-ID header.
func (v *Validator) Middleware() gin.HandlerFunc {
	if v == nil || !v.cfg.AuthEnabled {
		return func(c *gin.Context) {
			userID := strings.TrimSpace(c.GetHeader(HeaderDevUserID))
			if userID == "" {
				userID = devUserID
			}
			p := Principal{UserID: userID}
			if role := strings.TrimSpace(c.GetHeader(HeaderDevRole)); role != "" {
				p.Roles = []string{role}
			}
			c.Set(principalKey, p)
			c.Next()
		}
	}

	return func(c *gin.Context) {
		tokenString := bearerToken(c.GetHeader("Authorization"))
		if tokenString == "" {
			abortUnauthorized(c, "missing bearer token")
			return
		}

		p, err := v.Authenticate(tokenString)
		if err != nil {
			v.log.Debug().Err(err).Msg("token rejected")
			abortUnauthorized(c, "invalid token")
			return
		}

		c.Set(principalKey, p)
		c.Next()
	}
}

// Authenticate verifies a raw token and extracts the principal.
func (v *Validator) Authenticate(tokenString string) (Principal, error) {
	opts := []jwt.ParserOption{jwt.WithExpirationRequired()}
	if issuer := strings.TrimSpace(v.cfg.AuthIssuer); issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	if audience := strings.TrimSpace(v.cfg.AuthAudience); audience != "" {
		opts = append(opts, jwt.WithAudience(audience))
	}

	var keyFunc jwt.Keyfunc
	if v.jwks != nil {
		keyFunc = v.jwks.Keyfunc
		opts = append(opts, jwt.WithValidMethods([]string{"RS256", "RS384", "RS512"}))
	} else {
		secret := []byte(v.cfg.AuthJWTSecret)
		keyFunc = func(*jwt.Token) (any, error) { return secret, nil }
		opts = append(opts, jwt.WithValidMethods([]string{"HS256"}))
	}

	token, err := jwt.Parse(tokenString, keyFunc, opts...)
	if err != nil {
		return Principal{}, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return Principal{}, jwt.ErrTokenInvalidClaims
	}

	p := Principal{UserID: firstString(claims, "sub", nameIdentifierClaim)}
	if p.UserID == "" {
		return Principal{}, jwt.ErrTokenRequiredClaimMissing
	}
	p.Roles = append(stringsOf(claims["role"]), stringsOf(claims["roles"])...)
	p.Roles = append(p.Roles, stringsOf(claims[roleClaim])...)
	return p, nil
}

// Ready indicates if the validator is prepared.
func (v *Validator) Ready() bool {
	if v == nil || !v.cfg.AuthEnabled {
		return true
	}
	return v.jwks != nil || v.cfg.AuthJWTSecret != ""
}

// PrincipalFrom returns the caller resolved by Middleware.
func PrincipalFrom(c *gin.Context) (Principal, bool) {
	value, ok := c.Get(principalKey)
	if !ok {
		return Principal{}, false
	}
	p, ok := value.(Principal)
	return p, ok
}

// RequireStaff rejects callers without the staff role.
func RequireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := PrincipalFrom(c)
		if !ok {
			abortUnauthorized(c, "unauthenticated")
			return
		}
		if !p.IsStaff() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "staff role required"})
			return
		}
		c.Next()
	}
}

func firstString(claims jwt.MapClaims, keys ...string) string {
	for _, key := range keys {
		if s, ok := claims[key].(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

func stringsOf(value any) []string {
	switch v := value.(type) {
	case string:
		return []string{v}
	case []any:
		out := make([]string, 0, len(v))
		for _, entry := range v {
			if s, ok := entry.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": message,
	})
}

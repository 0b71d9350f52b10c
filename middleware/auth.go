// middleware/auth.go
package middleware

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	logger "github.com/dev-mohitbeniwal/relay/logging"
	"github.com/dev-mohitbeniwal/relay/util"
)

const (
	RequestingUserIDKey = util.RequestingUserIDKey
	RequestingUserKey   = "requestingUser"
)

// SessionClaims are the claims read from a session token. The group and
// username claims follow the Cognito names so both verifiers share them.
type SessionClaims struct {
	jwt.RegisteredClaims
	Groups   []string `json:"cognito:groups,omitempty"`
	Username string   `json:"cognito:username,omitempty"`
	Email    string   `json:"email,omitempty"`
}

// TokenVerifier validates a raw bearer token.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*SessionClaims, error)
}

// HMACVerifier checks HS256 session tokens signed with a shared secret.
type HMACVerifier struct {
	secret []byte
	issuer string
}

func NewHMACVerifier(secret, issuer string) (*HMACVerifier, error) {
	if secret == "" {
		return nil, errors.New("auth.jwt.secret is required for hmac session tokens")
	}
	return &HMACVerifier{secret: []byte(secret), issuer: issuer}, nil
}

func (v *HMACVerifier) Verify(ctx context.Context, tokenString string) (*SessionClaims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	return parseClaims(tokenString, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
}

type JSONWebKey struct {
	Kty string `json:"kty"`
	E   string `json:"e"`
	Use string `json:"use"`
	Kid string `json:"kid"`
	Alg string `json:"alg"`
	N   string `json:"n"`
}

type Jwks struct {
	Keys []JSONWebKey `json:"keys"`
}

// DefaultJWKSRefreshInterval is the minimum time between two JWKS downloads.
// A kid still unknown after a download is rejected until the interval passes.
const DefaultJWKSRefreshInterval = time.Minute

const (
	jwksRefreshKey   = "jwks"
	jwksFetchTimeout = 5 * time.Second
)

// CognitoVerifier checks RS256 tokens issued by a Cognito user pool. Keys are
// fetched from the pool's JWKS endpoint and cached by kid.
type CognitoVerifier struct {
	jwksURL         string
	issuer          string
	client          *http.Client
	refreshInterval time.Duration
	now             func() time.Time

	refresh singleflight.Group

	mu        sync.RWMutex
	keys      map[string]*rsa.PublicKey
	lastFetch time.Time
}

func NewCognitoVerifier(region, userPoolID string) (*CognitoVerifier, error) {
	if region == "" || userPoolID == "" {
		return nil, errors.New("auth.cognito.aws_region and auth.cognito.user_pool_id are required")
	}
	issuer := fmt.Sprintf("https://cognito-idp.%s.amazonaws.com/%s", region, userPoolID)
	return &CognitoVerifier{
		jwksURL:         issuer + "/.well-known/jwks.json",
		issuer:          issuer,
		client:          &http.Client{Timeout: jwksFetchTimeout},
		refreshInterval: DefaultJWKSRefreshInterval,
		now:             time.Now,
		keys:            make(map[string]*rsa.PublicKey),
	}, nil
}

func (v *CognitoVerifier) Verify(ctx context.Context, tokenString string) (*SessionClaims, error) {
	return parseClaims(tokenString, func(token *jwt.Token) (interface{}, error) {
		kid, _ := token.Header["kid"].(string)
		return v.publicKey(ctx, kid)
	}, jwt.WithValidMethods([]string{"RS256"}), jwt.WithIssuer(v.issuer))
}

func (v *CognitoVerifier) publicKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	if key, ok := v.cachedKey(kid); ok {
		return key, nil
	}

	// the keyfunc runs before the signature is checked, so anyone can ask for
	// an unknown kid; downloads are shared and spaced by refreshInterval
	_, err, _ := v.refresh.Do(jwksRefreshKey, func() (interface{}, error) {
		return nil, v.refreshKeys(ctx)
	})
	if err != nil {
		return nil, err
	}

	if key, ok := v.cachedKey(kid); ok {
		return key, nil
	}
	return nil, fmt.Errorf("no JWKS key with kid %q", kid)
}

func (v *CognitoVerifier) cachedKey(kid string) (*rsa.PublicKey, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	key, ok := v.keys[kid]
	return key, ok
}

// refreshKeys downloads the key set unless the previous attempt is more
// recent than refreshInterval. Failed attempts count too.
func (v *CognitoVerifier) refreshKeys(ctx context.Context) error {
	v.mu.Lock()
	if !v.lastFetch.IsZero() && v.now().Sub(v.lastFetch) < v.refreshInterval {
		v.mu.Unlock()
		return nil
	}
	v.lastFetch = v.now()
	v.mu.Unlock()

	fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), jwksFetchTimeout)
	defer cancel()

	keys, err := v.fetchKeys(fetchCtx)
	if err != nil {
		return err
	}
	v.mu.Lock()
	v.keys = keys
	v.mu.Unlock()
	return nil
}

// fetchKeys downloads the public keys from the Cognito JWKS endpoint
func (v *CognitoVerifier) fetchKeys(ctx context.Context) (map[string]*rsa.PublicKey, error) {
	logger.Info("Fetching JWKS", zap.String("url", v.jwksURL))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.jwksURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := v.client.Do(req)
	if err != nil {
		logger.Error("Failed to fetch JWKS", zap.Error(err))
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.Error("Received non-OK HTTP status from JWKS endpoint", zap.Int("statusCode", resp.StatusCode))
		return nil, fmt.Errorf("received non-OK HTTP status from JWKS endpoint: %d", resp.StatusCode)
	}

	var jwks Jwks
	if err := json.NewDecoder(resp.Body).Decode(&jwks); err != nil {
		logger.Error("Failed to unmarshal JWKS JSON", zap.Error(err))
		return nil, err
	}
	if len(jwks.Keys) == 0 {
		return nil, fmt.Errorf("no keys found in JWKS")
	}

	keys := make(map[string]*rsa.PublicKey, len(jwks.Keys))
	for _, k := range jwks.Keys {
		if k.Kty != "RSA" {
			continue
		}
		pub, err := k.rsaPublicKey()
		if err != nil {
			logger.Warn("Skipping malformed JWKS key", zap.String("kid", k.Kid), zap.Error(err))
			continue
		}
		keys[k.Kid] = pub
	}
	return keys, nil
}

func (k JSONWebKey) rsaPublicKey() (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, fmt.Errorf("failed to decode modulus: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, fmt.Errorf("failed to decode exponent: %w", err)
	}
	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: int(new(big.Int).SetBytes(eBytes).Int64()),
	}, nil
}

func parseClaims(tokenString string, keyFunc jwt.Keyfunc, opts ...jwt.ParserOption) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, keyFunc, opts...)
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token or wrong claims type")
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}

// SessionAuth requires a valid bearer session token. When requiredGroups is
// not empty the caller must belong to at least one of them.
func SessionAuth(verifier TokenVerifier, requiredGroups []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			logger.Warn("No Authorization token provided", zap.String("path", c.Request.URL.Path))
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Unauthorized"})
			c.Abort()
			return
		}

		tokenString, found := strings.CutPrefix(header, "Bearer ")
		if !found || tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Unauthorized"})
			c.Abort()
			return
		}

		claims, err := verifier.Verify(c.Request.Context(), tokenString)
		if err != nil {
			logger.Warn("Rejected session token", zap.Error(err))
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Unauthorized"})
			c.Abort()
			return
		}

		if len(requiredGroups) > 0 && !isUserInGroups(claims, requiredGroups) {
			logger.Warn("User does not have the required groups", zap.String("sub", claims.Subject))
			c.JSON(http.StatusForbidden, gin.H{"success": false, "error": "Forbidden"})
			c.Abort()
			return
		}

		c.Set(RequestingUserIDKey, claims.Subject)
		c.Set(RequestingUserKey, claims.Username)
		c.Next()
	}
}

func isUserInGroups(claims *SessionClaims, requiredGroups []string) bool {
	for _, group := range requiredGroups {
		for _, userGroup := range claims.Groups {
			if userGroup == group {
				return true
			}
		}
	}
	return false
}

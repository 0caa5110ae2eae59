package mw

import (
	"crypto/rand"
	"crypto/rsa"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poolstats/internal/security"
)

// ========== Test Helpers ==========

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})

	return mr, client
}

func generateTestKeysForRL(t *testing.T) (*rsa.PrivateKey, *rsa.PublicKey) {
	t.Helper()
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return privateKey, &privateKey.PublicKey
}

func createTestTokenForRL(t *testing.T, privateKey *rsa.PrivateKey, sub string) string {
	t.Helper()

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   sub,
		Audience:  jwt.ClaimStrings{"test-aud"},
		Issuer:    "test-iss",
		ExpiresAt: jwt.NewNumericDate(now.Add(1 * time.Hour)),
		IssuedAt:  jwt.NewNumericDate(now),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tokenString, err := token.SignedString(privateKey)
	require.NoError(t, err)
	return tokenString
}

// ========== Constructor Tests ==========

func TestNewRateLimit_Defaults(t *testing.T) {
	_, rdb := setupTestRedis(t)

	m := NewRateLimit(rdb, RateLimitConfig{
		ByIP:  RateBucket{RefillPerSec: 10, Burst: 20},
		ByJWT: RateBucket{RefillPerSec: 50, Burst: 100},
	})

	assert.Equal(t, 2*time.Minute, m.cfg.ByIP.TTL)
	assert.Equal(t, 2*time.Minute, m.cfg.ByJWT.TTL)
}

// ========== Handler Tests - IP Rate Limiting ==========

func TestRateLimitMiddleware_Handler_IPLimit(t *testing.T) {
	mr, rdb := setupTestRedis(t)
	defer mr.Close()

	m := NewRateLimit(rdb, RateLimitConfig{
		ByIP:  RateBucket{RefillPerSec: 2, Burst: 3, TTL: time.Minute},
		ByJWT: RateBucket{RefillPerSec: 100, Burst: 100, TTL: time.Minute},
	})

	nextHandlerCalls := 0
	handler := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextHandlerCalls++
		w.WriteHeader(http.StatusOK)
	}))

	// First 3 requests should pass (burst = 3)
	for i := 1; i <= 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.RemoteAddr = "192.168.1.100:12345"
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code, "request %d should pass", i)
	}

	assert.Equal(t, 3, nextHandlerCalls)

	// 4th request should be rate limited
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.RemoteAddr = "192.168.1.100:12345"
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "rate limit exceeded")
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, 3, nextHandlerCalls, "next handler should not be called")
}

func TestRateLimitMiddleware_Handler_DifferentIPsIndependent(t *testing.T) {
	mr, rdb := setupTestRedis(t)
	defer mr.Close()

	m := NewRateLimit(rdb, RateLimitConfig{
		ByIP:  RateBucket{RefillPerSec: 1, Burst: 1, TTL: time.Minute},
		ByJWT: RateBucket{RefillPerSec: 100, Burst: 100, TTL: time.Minute},
	})

	handler := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req1 := httptest.NewRequest(http.MethodGet, "/test", nil)
	req1.RemoteAddr = "192.168.1.1:12345"
	rec1 := httptest.NewRecorder()
	handler.ServeHTTP(rec1, req1)
	assert.Equal(t, http.StatusOK, rec1.Code)

	req2 := httptest.NewRequest(http.MethodGet, "/test", nil)
	req2.RemoteAddr = "192.168.1.2:12345"
	rec2 := httptest.NewRecorder()
	handler.ServeHTTP(rec2, req2)
	assert.Equal(t, http.StatusOK, rec2.Code)

	req3 := httptest.NewRequest(http.MethodGet, "/test", nil)
	req3.RemoteAddr = "192.168.1.1:12345"
	rec3 := httptest.NewRecorder()
	handler.ServeHTTP(rec3, req3)
	assert.Equal(t, http.StatusTooManyRequests, rec3.Code)
}

func TestRateLimitMiddleware_XForwardedForPreferred(t *testing.T) {
	mr, rdb := setupTestRedis(t)
	defer mr.Close()

	m := NewRateLimit(rdb, RateLimitConfig{
		ByIP:  RateBucket{RefillPerSec: 1, Burst: 1, TTL: time.Minute},
		ByJWT: RateBucket{RefillPerSec: 100, Burst: 100, TTL: time.Minute},
	})

	handler := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// same client IP via proxy header, different socket addrs
	for i, expect := range []int{http.StatusOK, http.StatusTooManyRequests} {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.RemoteAddr = "10.0.0.1:1000"
		req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, expect, rec.Code, "request %d", i+1)
	}
}

// ========== Handler Tests - JWT Rate Limiting ==========

func TestRateLimitMiddleware_Handler_JWTLimit(t *testing.T) {
	mr, rdb := setupTestRedis(t)
	defer mr.Close()

	privKey, pubKey := generateTestKeysForRL(t)
	verifier := &security.RS256Verifier{
		PubKey: pubKey,
		Aud:    "test-aud",
		Iss:    "test-iss",
	}

	m := NewRateLimit(rdb, RateLimitConfig{
		ByIP:     RateBucket{RefillPerSec: 100, Burst: 100, TTL: time.Minute},
		ByJWT:    RateBucket{RefillPerSec: 1, Burst: 2, TTL: time.Minute},
		Verifier: verifier,
	})

	handler := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	token := createTestTokenForRL(t, privKey, "user-1")

	// burst = 2 -> third request with the same subject is limited even
	// though every request comes from a different IP
	for i, expect := range []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests} {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.RemoteAddr = "192.168.1." + string(rune('1'+i)) + ":1000"
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, expect, rec.Code, "request %d", i+1)
	}
}

func TestRateLimitMiddleware_NoTokenOnlyIPLimit(t *testing.T) {
	mr, rdb := setupTestRedis(t)
	defer mr.Close()

	_, pubKey := generateTestKeysForRL(t)
	verifier := &security.RS256Verifier{PubKey: pubKey}

	m := NewRateLimit(rdb, RateLimitConfig{
		ByIP:     RateBucket{RefillPerSec: 100, Burst: 100, TTL: time.Minute},
		ByJWT:    RateBucket{RefillPerSec: 1, Burst: 1, TTL: time.Minute},
		Verifier: verifier,
	})

	handler := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// no Authorization header: JWT bucket never applies
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.RemoteAddr = "192.168.1.50:1000"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

// ========== Failure Mode ==========

func TestRateLimitMiddleware_RedisDownFailsOpen(t *testing.T) {
	mr, rdb := setupTestRedis(t)

	m := NewRateLimit(rdb, RateLimitConfig{
		ByIP:  RateBucket{RefillPerSec: 1, Burst: 1, TTL: time.Minute},
		ByJWT: RateBucket{RefillPerSec: 1, Burst: 1, TTL: time.Minute},
	})

	handler := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	mr.Close()

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.RemoteAddr = "192.168.1.200:1000"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	// limiter outage must not take the API down with it
	assert.Equal(t, http.StatusOK, rec.Code)
}

package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Signed link errors.
var (
	ErrLinkInvalid = errors.New("invalid download link")
	ErrLinkExpired = errors.New("download link expired")
)

// SignedURLSigner issues HMAC-signed download tokens that embed an artifact
// path and an expiry.
type SignedURLSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSignedURLSigner constructs a signer with the provided secret and TTL.
func NewSignedURLSigner(secret string, ttl time.Duration) *SignedURLSigner {
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	return &SignedURLSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Generate returns a token for the artifact owned by ref.
func (s *SignedURLSigner) Generate(ref, relPath string) (string, time.Time, error) {
	if ref == "" || relPath == "" {
		return "", time.Time{}, fmt.Errorf("ref and relPath required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	expiresAt := s.now().Add(s.ttl).Truncate(time.Second)
	ts := strconv.FormatInt(expiresAt.Unix(), 10)
	encodedPath := base64.RawURLEncoding.EncodeToString([]byte(relPath))
	token := strings.Join([]string{ref, ts, encodedPath, s.sign(ref, ts, encodedPath)}, ".")
	return token, expiresAt, nil
}

// Parse verifies token and returns what it references. allowExpired skips
// the expiry check.
func (s *SignedURLSigner) Parse(token string, allowExpired bool) (ref, relPath string, expiresAt time.Time, err error) {
	parts := strings.Split(token, ".")
	if len(parts) != 4 || len(s.secret) == 0 {
		return "", "", time.Time{}, ErrLinkInvalid
	}
	ref, ts, encodedPath, signature := parts[0], parts[1], parts[2], parts[3]

	if !hmac.Equal([]byte(s.sign(ref, ts, encodedPath)), []byte(signature)) {
		return "", "", time.Time{}, ErrLinkInvalid
	}
	expUnix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return "", "", time.Time{}, ErrLinkInvalid
	}
	rawPath, err := base64.RawURLEncoding.DecodeString(encodedPath)
	if err != nil {
		return "", "", time.Time{}, ErrLinkInvalid
	}
	expiresAt = time.Unix(expUnix, 0)
	if !allowExpired && s.now().After(expiresAt) {
		return "", "", time.Time{}, ErrLinkExpired
	}
	return ref, string(rawPath), expiresAt, nil
}

func (s *SignedURLSigner) sign(ref, ts, encodedPath string) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(ref + "|" + ts + "|" + encodedPath))
	return hex.EncodeToString(mac.Sum(nil))
}

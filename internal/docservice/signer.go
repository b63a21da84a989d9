// Package docservice signs and verifies document-service URLs.
package docservice

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

var (
	ErrForeignURL   = errors.New("url is not issued by the document service")
	ErrBadSignature = errors.New("document signature mismatch")
	ErrBadHash      = errors.New("hash must be md5:<32 hex digits>")
)

// Signer holds the document-service key pair.
type Signer struct {
	baseURL string
	key     ed25519.PrivateKey
	keyID   string
	TTL     time.Duration
	Now     func() time.Time
}

// New builds a signer from a 32 byte seed. An empty seed generates a random key.
func New(baseURL string, seed []byte) (*Signer, error) {
	if len(seed) == 0 {
		seed = make([]byte, ed25519.SeedSize)
		if _, err := rand.Read(seed); err != nil {
			return nil, err
		}
	}
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("docservice seed must be %d bytes", ed25519.SeedSize)
	}
	key := ed25519.NewKeyFromSeed(seed)
	pub := key.Public().(ed25519.PublicKey)
	return &Signer{
		baseURL: strings.TrimRight(baseURL, "/"),
		key:     key,
		keyID:   hex.EncodeToString(pub)[:8],
		TTL:     time.Hour,
		Now:     time.Now,
	}, nil
}

// FromHexSeed is New with a hex encoded seed.
func FromHexSeed(baseURL, seedHex string) (*Signer, error) {
	seed, err := hex.DecodeString(seedHex)
	if err != nil {
		return nil, fmt.Errorf("decode docservice seed: %w", err)
	}
	return New(baseURL, seed)
}

func (s *Signer) KeyID() string { return s.keyID }

// UploadURL is the URL the document service returns to an uploader for a
// file with the given md5 hash.
func (s *Signer) UploadURL(fileID, hash string) (string, error) {
	digest, err := md5Hex(hash)
	if err != nil {
		return "", err
	}
	q := url.Values{}
	q.Set("Signature", s.sign(fileID+"\x00"+digest))
	q.Set("KeyID", s.keyID)
	return fmt.Sprintf("%s/get/%s?%s", s.baseURL, fileID, q.Encode()), nil
}

// VerifyURL checks that raw was issued by the document service for a file
// with the given hash and returns the file id.
func (s *Signer) VerifyURL(raw, hash string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", ErrForeignURL
	}
	if !strings.HasPrefix(raw, s.baseURL+"/get/") {
		return "", ErrForeignURL
	}
	fileID := strings.TrimPrefix(u.Path, "/get/")
	if fileID == "" || strings.Contains(fileID, "/") {
		return "", ErrForeignURL
	}
	q := u.Query()
	if q.Get("KeyID") != s.keyID {
		return "", ErrForeignURL
	}
	digest, err := md5Hex(hash)
	if err != nil {
		return "", err
	}
	sig, err := base64.StdEncoding.DecodeString(q.Get("Signature"))
	if err != nil {
		return "", ErrBadSignature
	}
	pub := s.key.Public().(ed25519.PublicKey)
	if !ed25519.Verify(pub, []byte(fileID+"\x00"+digest), sig) {
		return "", ErrBadSignature
	}
	return fileID, nil
}

// GenerateURL returns a time-limited signed download URL for fileID.
func (s *Signer) GenerateURL(fileID string) string {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	expires := strconv.FormatInt(now().Add(s.TTL).Unix(), 10)
	q := url.Values{}
	q.Set("Signature", s.sign("/get/"+fileID+"\x00"+expires))
	q.Set("KeyID", s.keyID)
	q.Set("Expires", expires)
	return fmt.Sprintf("%s/get/%s?%s", s.baseURL, fileID, q.Encode())
}

func (s *Signer) sign(msg string) string {
	return base64.StdEncoding.EncodeToString(ed25519.Sign(s.key, []byte(msg)))
}

func md5Hex(hash string) (string, error) {
	digest, ok := strings.CutPrefix(hash, "md5:")
	if !ok || len(digest) != 32 {
		return "", ErrBadHash
	}
	if _, err := hex.DecodeString(digest); err != nil {
		return "", ErrBadHash
	}
	return strings.ToLower(digest), nil
}

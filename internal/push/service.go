package push

import (
	"bytes"
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"permithub/internal/config"
	"permithub/internal/notify"
)

// Service is the Web Push implementation of Provider. Payloads are
// encrypted per RFC 8291 (aes128gcm) and authorized with a VAPID ES256
// token, which is what lets any standards-compliant push service accept our
// submissions without prior registration.
type Service struct {
	vapidKeys  *config.VapidKeys
	subject    string
	httpClient *http.Client
	privateKey *ecdsa.PrivateKey
	log        zerolog.Logger
}

func NewService(vapidKeys *config.VapidKeys, subject string, log zerolog.Logger) (*Service, error) {
	if vapidKeys == nil || vapidKeys.PublicKey == "" || vapidKeys.PrivateKey == "" {
		return nil, errors.New("invalid VAPID keys")
	}

	privBytes, err := base64.RawURLEncoding.DecodeString(vapidKeys.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decode private key: %w", err)
	}

	curve := elliptic.P256()
	x, y := curve.ScalarBaseMult(privBytes)

	privateKey := &ecdsa.PrivateKey{
		PublicKey: ecdsa.PublicKey{
			Curve: curve,
			X:     x,
			Y:     y,
		},
	}
	privateKey.D = new(big.Int).SetBytes(privBytes)

	return &Service{
		vapidKeys:  vapidKeys,
		subject:    subject,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		privateKey: privateKey,
		log:        log,
	}, nil
}

// Submit implements Provider. The returned message id is generated here:
// Web Push services acknowledge with a bare 201, so the id exists for the
// caller's bookkeeping, not for querying the push service.
func (s *Service) Submit(ctx context.Context, msg Message) (string, error) {
	handle, err := DecodeHandle(msg.Token)
	if err != nil {
		return "", err
	}

	body, err := json.Marshal(notify.Payload{Data: msg.Data})
	if err != nil {
		return "", err
	}

	encrypted, err := s.encryptPayload(handle, body)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt payload: %w", err)
	}

	vapidHeader, err := s.createVAPIDHeader(handle.Endpoint)
	if err != nil {
		return "", fmt.Errorf("failed to create VAPID header: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, handle.Endpoint, bytes.NewReader(encrypted))
	if err != nil {
		return "", err
	}

	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("Content-Encoding", "aes128gcm")
	req.Header.Set("TTL", "86400")
	req.Header.Set("Urgency", urgency(msg.Priority))
	req.Header.Set("Authorization", vapidHeader)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusGone {
		s.log.Info().Str("endpoint", handle.Endpoint).Msg("channel expired at push service")
		return "", ErrChannelGone
	}

	if resp.StatusCode >= 400 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("push failed with status %d: %s", resp.StatusCode, string(detail))
	}

	messageID := uuid.NewString()
	s.log.Debug().Str("messageId", messageID).Msg("push submitted")
	return messageID, nil
}

func urgency(p Priority) string {
	if p == PriorityHigh {
		return "high"
	}
	return "normal"
}

// encryptPayload implements the aes128gcm content encoding of RFC 8291:
// ECDH over the subscriber's p256dh key, HKDF with the auth secret, then a
// single AES-128-GCM record carrying the whole payload.
func (s *Service) encryptPayload(handle ChannelHandle, payload []byte) ([]byte, error) {
	p256dhBytes, err := base64.RawURLEncoding.DecodeString(handle.P256dh)
	if err != nil {
		return nil, fmt.Errorf("failed to decode p256dh: %w", err)
	}

	authSecret, err := base64.RawURLEncoding.DecodeString(handle.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to decode auth: %w", err)
	}

	curve := ecdh.P256()
	ephemeralPrivate, err := curve.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	ephemeralPublic := ephemeralPrivate.PublicKey()

	subscriberPublic, err := curve.NewPublicKey(p256dhBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse subscriber public key: %w", err)
	}

	sharedSecret, err := ephemeralPrivate.ECDH(subscriberPublic)
	if err != nil {
		return nil, err
	}

	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}

	prkInfo := append([]byte("WebPush: info\x00"), p256dhBytes...)
	prkInfo = append(prkInfo, ephemeralPublic.Bytes()...)

	prk := hkdfExtract(authSecret, sharedSecret)
	ikm := hkdfExpand(prk, prkInfo, 32)

	contentPrk := hkdfExtract(salt, ikm)
	cek := hkdfExpand(contentPrk, []byte("Content-Encoding: aes128gcm\x00"), 16)
	nonce := hkdfExpand(contentPrk, []byte("Content-Encoding: nonce\x00"), 12)

	block, err := aes.NewCipher(cek)
	if err != nil {
		return nil, err
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	// last-record padding delimiter
	paddedPayload := make([]byte, len(payload)+1)
	copy(paddedPayload, payload)
	paddedPayload[len(payload)] = 2

	ciphertext := aead.Seal(nil, nonce, paddedPayload, nil)

	recordSize := uint32(4096)
	header := make([]byte, 21+len(ephemeralPublic.Bytes()))
	copy(header[0:16], salt)
	binary.BigEndian.PutUint32(header[16:20], recordSize)
	header[20] = byte(len(ephemeralPublic.Bytes()))
	copy(header[21:], ephemeralPublic.Bytes())

	return append(header, ciphertext...), nil
}

func (s *Service) createVAPIDHeader(endpoint string) (string, error) {
	audience := extractAudience(endpoint)

	now := time.Now()
	claims := jwt.MapClaims{
		"aud": audience,
		"exp": now.Add(12 * time.Hour).Unix(),
		"sub": s.subject,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	signedToken, err := token.SignedString(s.privateKey)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("vapid t=%s, k=%s", signedToken, s.vapidKeys.PublicKey), nil
}

func extractAudience(endpoint string) string {
	// scheme://host portion of the endpoint
	for i := 0; i < len(endpoint); i++ {
		if endpoint[i] == '/' && i+1 < len(endpoint) && endpoint[i+1] == '/' {
			for j := i + 2; j < len(endpoint); j++ {
				if endpoint[j] == '/' {
					return endpoint[:j]
				}
			}
			return endpoint
		}
	}
	return endpoint
}

func hkdfExtract(salt, ikm []byte) []byte {
	return hmacSHA256(salt, ikm)
}

func hkdfExpand(prk, info []byte, length int) []byte {
	hashLen := 32
	n := (length + hashLen - 1) / hashLen
	okm := make([]byte, 0, n*hashLen)
	var prev []byte

	for i := 1; i <= n; i++ {
		data := append(prev, info...)
		data = append(data, byte(i))
		prev = hmacSHA256(prk, data)
		okm = append(okm, prev...)
	}

	return okm[:length]
}

func hmacSHA256(key, data []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(data)
	return mac.Sum(nil)
}

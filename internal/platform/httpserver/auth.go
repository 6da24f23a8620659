package httpserver

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"tribunal/contexts/governance/consensus-engine/ports"

	"github.com/ethereum/go-ethereum/accounts"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

const (
	HeaderCallerAddress = "X-Caller-Address"
	HeaderSignature     = "X-Signature"
	HeaderTimestamp     = "X-Timestamp"

	defaultMaxSkew = 5 * time.Minute
)

var (
	errSignatureInvalid = errors.New("signature invalid")
	errTimestampSkew    = errors.New("timestamp outside allowed window")
	errReservedCaller   = errors.New("caller address is reserved")
)

type contextKey string

const (
	callerContextKey contextKey = "caller"
	bodyContextKey   contextKey = "body"
)

// Authenticator turns signed request headers into a ports.Caller. A request
// without a caller address is anonymous and only reaches read endpoints.
type Authenticator struct {
	TrustCallerHeader bool
	MaxSkew           time.Duration
	Now               func() time.Time
}

// SigningMessage is the text a caller signs for one request.
func SigningMessage(method string, path string, body []byte, timestamp string) string {
	digest := sha256.Sum256(body)
	return strings.Join([]string{
		strings.ToUpper(method),
		path,
		hex.EncodeToString(digest[:]),
		timestamp,
	}, "\n")
}

func (a Authenticator) Verify(r *http.Request, body []byte) (ports.Caller, error) {
	address := strings.ToLower(strings.TrimSpace(r.Header.Get(HeaderCallerAddress)))
	if address == "" {
		return ports.Caller{}, nil
	}
	if strings.HasPrefix(address, ports.SystemAddressPrefix) {
		return ports.Caller{}, errReservedCaller
	}
	if a.TrustCallerHeader {
		return ports.Caller{Address: address, Verified: true}, nil
	}

	signature := strings.TrimSpace(r.Header.Get(HeaderSignature))
	timestamp := strings.TrimSpace(r.Header.Get(HeaderTimestamp))
	if signature == "" || timestamp == "" {
		return ports.Caller{Address: address}, nil
	}
	if err := a.checkTimestamp(timestamp); err != nil {
		return ports.Caller{}, err
	}

	recovered, err := recoverSigner(SigningMessage(r.Method, r.URL.Path, body, timestamp), signature)
	if err != nil {
		return ports.Caller{}, err
	}
	if recovered != address {
		return ports.Caller{}, errSignatureInvalid
	}
	return ports.Caller{Address: address, Verified: true}, nil
}

func (a Authenticator) checkTimestamp(raw string) error {
	seconds, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: timestamp must be unix seconds", errSignatureInvalid)
	}
	now := time.Now
	if a.Now != nil {
		now = a.Now
	}
	skew := a.MaxSkew
	if skew <= 0 {
		skew = defaultMaxSkew
	}
	delta := now().Sub(time.Unix(seconds, 0))
	if delta < 0 {
		delta = -delta
	}
	if delta > skew {
		return errTimestampSkew
	}
	return nil
}

func recoverSigner(message string, signatureHex string) (string, error) {
	sig, err := hex.DecodeString(strings.TrimPrefix(strings.TrimPrefix(signatureHex, "0x"), "0X"))
	if err != nil || len(sig) != 65 {
		return "", errSignatureInvalid
	}
	if sig[64] >= 27 {
		sig[64] -= 27
	}
	pub, err := ethcrypto.SigToPub(accounts.TextHash([]byte(message)), sig)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errSignatureInvalid, err)
	}
	return strings.ToLower(ethcrypto.PubkeyToAddress(*pub).Hex()), nil
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := readBody(r)
		if err != nil {
			writeConsensusError(w, http.StatusBadRequest, "invalid_request", "unable to read body")
			return
		}
		caller, err := s.auth.Verify(r, body)
		if err != nil {
			s.logger.Warn("request signature rejected",
				"event", "http_signature_rejected",
				"module", "internal/platform/httpserver",
				"layer", "platform",
				"path", r.URL.Path,
				"error", err.Error(),
			)
			writeConsensusError(w, http.StatusUnauthorized, "unauthorized", err.Error())
			return
		}
		ctx := context.WithValue(r.Context(), callerContextKey, caller)
		ctx = context.WithValue(ctx, bodyContextKey, body)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func callerFromRequest(r *http.Request) ports.Caller {
	caller, _ := r.Context().Value(callerContextKey).(ports.Caller)
	return caller
}

func requestBody(r *http.Request) []byte {
	body, _ := r.Context().Value(bodyContextKey).([]byte)
	return body
}

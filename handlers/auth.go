package handlers

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/ferreirogomes/tijolo/models"
	"github.com/ferreirogomes/tijolo/services"

	"github.com/gagliardetto/solana-go"
	"github.com/sasha-s/go-deadlock"
)

const (
	HeaderCaller    = "X-Tijolo-Caller"
	HeaderSignature = "X-Tijolo-Signature"
	HeaderTimestamp = "X-Tijolo-Timestamp"
	HeaderNonce     = "X-Tijolo-Nonce"

	// DefaultSignatureWindow é a tolerância entre o instante assinado e o relógio do servidor.
	DefaultSignatureWindow = 5 * time.Minute

	maxBodyBytes  = 1 << 20
	maxNonceBytes = 128
)

type callerKey struct{}

type nonceKey struct {
	caller models.Address
	nonce  string
}

// Authenticator autentica as mutações e recusa requisições repetidas.
// Um nonce fica registrado enquanto o instante assinado estiver dentro da
// janela; fora dela a requisição já é recusada pelo instante.
type Authenticator struct {
	Window time.Duration

	mu        deadlock.Mutex
	seen      map[nonceKey]time.Time // expiração de cada nonce usado
	nextPrune time.Time
	nowFn     func() time.Time
}

// NewAuthenticator cria o autenticador com a janela informada.
func NewAuthenticator(window time.Duration) *Authenticator {
	if window <= 0 {
		window = DefaultSignatureWindow
	}
	return &Authenticator{
		Window: window,
		seen:   make(map[nonceKey]time.Time),
		nowFn:  time.Now,
	}
}

// RequireSignature autentica o chamador: X-Tijolo-Caller traz a chave pública e
// X-Tijolo-Signature a assinatura ed25519 de "METHOD\nPATH\nTIMESTAMP\nNONCE\nBODY".
func (a *Authenticator) RequireSignature(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller, err := solana.PublicKeyFromBase58(r.Header.Get(HeaderCaller))
		if err != nil {
			writeErrorCode(w, http.StatusUnauthorized, "invalid_caller", "cabeçalho "+HeaderCaller+" ausente ou inválido")
			return
		}
		sig, err := solana.SignatureFromBase58(r.Header.Get(HeaderSignature))
		if err != nil {
			writeErrorCode(w, http.StatusUnauthorized, "invalid_signature", "cabeçalho "+HeaderSignature+" ausente ou inválido")
			return
		}
		ts, err := strconv.ParseInt(r.Header.Get(HeaderTimestamp), 10, 64)
		if err != nil {
			writeErrorCode(w, http.StatusUnauthorized, "invalid_timestamp", "cabeçalho "+HeaderTimestamp+" ausente ou inválido")
			return
		}
		nonce := r.Header.Get(HeaderNonce)
		if nonce == "" || len(nonce) > maxNonceBytes {
			writeErrorCode(w, http.StatusUnauthorized, "invalid_nonce", "cabeçalho "+HeaderNonce+" ausente ou inválido")
			return
		}
		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err != nil {
			writeErrorCode(w, http.StatusBadRequest, "invalid_body", err.Error())
			return
		}
		rs := services.RequestSignature{Timestamp: ts, Nonce: nonce, Signature: sig}
		if !services.VerifyRequest(caller, rs, r.Method, r.URL.Path, body) {
			writeErrorCode(w, http.StatusUnauthorized, "invalid_signature", "assinatura não confere com o chamador")
			return
		}
		// o nonce só é registrado depois da assinatura conferir
		if code, msg := a.admit(caller, ts, nonce); code != "" {
			writeErrorCode(w, http.StatusUnauthorized, code, msg)
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), callerKey{}, caller)))
	})
}

// admit aceita (caller, nonce) uma única vez dentro da janela.
func (a *Authenticator) admit(caller models.Address, ts int64, nonce string) (string, string) {
	now := time.Now()
	if a.nowFn != nil {
		now = a.nowFn()
	}
	signedAt := time.Unix(ts, 0)
	if signedAt.Before(now.Add(-a.Window)) || signedAt.After(now.Add(a.Window)) {
		return "stale_request", "instante assinado fora da janela aceita"
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.seen == nil {
		a.seen = make(map[nonceKey]time.Time)
	}
	if !now.Before(a.nextPrune) {
		for k, exp := range a.seen {
			if now.After(exp) {
				delete(a.seen, k)
			}
		}
		a.nextPrune = now.Add(a.Window)
	}
	key := nonceKey{caller: caller, nonce: nonce}
	if _, used := a.seen[key]; used {
		return "replayed_request", "nonce já utilizado por este chamador"
	}
	a.seen[key] = signedAt.Add(a.Window)
	return "", ""
}

// SignHTTPRequest assina req com key e preenche os cabeçalhos de autenticação.
// body deve ser exatamente o corpo que será enviado.
func SignHTTPRequest(req *http.Request, key solana.PrivateKey, body []byte) error {
	rs, err := services.SignRequest(key, req.Method, req.URL.Path, body)
	if err != nil {
		return err
	}
	SetSignatureHeaders(req.Header, key.PublicKey(), rs)
	return nil
}

// SetSignatureHeaders grava os quatro cabeçalhos de autenticação em h.
func SetSignatureHeaders(h http.Header, caller models.Address, rs services.RequestSignature) {
	h.Set(HeaderCaller, caller.String())
	h.Set(HeaderSignature, rs.Signature.String())
	h.Set(HeaderTimestamp, strconv.FormatInt(rs.Timestamp, 10))
	h.Set(HeaderNonce, rs.Nonce)
}

// CallerFromContext retorna o chamador autenticado por RequireSignature.
func CallerFromContext(ctx context.Context) (models.Address, bool) {
	caller, ok := ctx.Value(callerKey{}).(models.Address)
	return caller, ok
}

func mustCaller(w http.ResponseWriter, r *http.Request) (models.Address, bool) {
	caller, ok := CallerFromContext(r.Context())
	if !ok {
		writeErrorCode(w, http.StatusUnauthorized, "invalid_caller", "chamador não autenticado")
	}
	return caller, ok
}

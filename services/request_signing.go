package services

import (
	"bytes"
	"strconv"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
)

// RequestSignature é o que o cliente envia junto com uma mutação: o instante da
// assinatura, um nonce de uso único e a assinatura em si.
type RequestSignature struct {
	Timestamp int64
	Nonce     string
	Signature solana.Signature
}

// SigningPayload monta a mensagem assinada pelo cliente:
// "METHOD\nPATH\nTIMESTAMP\nNONCE\nBODY".
func SigningPayload(method, path string, timestamp int64, nonce string, body []byte) []byte {
	var buf bytes.Buffer
	buf.WriteString(method)
	buf.WriteByte('\n')
	buf.WriteString(path)
	buf.WriteByte('\n')
	buf.WriteString(strconv.FormatInt(timestamp, 10))
	buf.WriteByte('\n')
	buf.WriteString(nonce)
	buf.WriteByte('\n')
	buf.Write(body)
	return buf.Bytes()
}

// SignRequest assina uma requisição com a chave do chamador, com o instante
// atual e um nonce novo. É o que o cliente de submissão faz antes de enviar.
func SignRequest(key solana.PrivateKey, method, path string, body []byte) (RequestSignature, error) {
	return SignRequestAt(key, method, path, body, time.Now(), uuid.NewString())
}

// SignRequestAt assina com instante e nonce informados.
func SignRequestAt(key solana.PrivateKey, method, path string, body []byte, at time.Time, nonce string) (RequestSignature, error) {
	ts := at.Unix()
	sig, err := key.Sign(SigningPayload(method, path, ts, nonce, body))
	if err != nil {
		return RequestSignature{}, err
	}
	return RequestSignature{Timestamp: ts, Nonce: nonce, Signature: sig}, nil
}

// VerifyRequest confere que rs foi produzida pela chave privada de caller para
// esta requisição. Não verifica a janela de tempo nem o reuso do nonce.
func VerifyRequest(caller solana.PublicKey, rs RequestSignature, method, path string, body []byte) bool {
	return rs.Signature.Verify(caller, SigningPayload(method, path, rs.Timestamp, rs.Nonce, body))
}

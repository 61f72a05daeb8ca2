package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/ferreirogomes/tijolo/logging"
	"github.com/ferreirogomes/tijolo/services"
	"github.com/ferreirogomes/tijolo/storage"
	"github.com/ferreirogomes/tijolo/vault"
)

type errorBody struct {
	Status string    `json:"status"`
	Error  errorInfo `json:"error"`
}

type errorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warn("falha ao escrever resposta: %v", err)
	}
}

func writeErrorCode(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Status: "error", Error: errorInfo{Code: code, Message: message}})
}

// writeError traduz erros do núcleo e da custódia para o status HTTP.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, vault.ErrInsufficientBalance):
		writeErrorCode(w, http.StatusBadRequest, "insufficient_balance", err.Error())
		return
	case errors.Is(err, vault.ErrFaucetDisabled):
		writeErrorCode(w, http.StatusForbidden, "faucet_disabled", err.Error())
		return
	case errors.Is(err, storage.ErrNotFound):
		writeErrorCode(w, http.StatusNotFound, "not_found", err.Error())
		return
	}

	status := http.StatusInternalServerError
	switch services.Classify(err) {
	case services.KindValidation:
		status = http.StatusBadRequest
	case services.KindAuthorization:
		status = http.StatusForbidden
	case services.KindNotFound:
		status = http.StatusNotFound
	default:
		logging.Error("erro interno: %v", err)
	}
	writeErrorCode(w, status, services.Code(err), err.Error())
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeErrorCode(w, http.StatusBadRequest, "invalid_body", err.Error())
		return false
	}
	return true
}

func queryUint(r *http.Request, key string, def uint64) (uint64, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	return strconv.ParseUint(raw, 10, 64)
}

package httpapi

import (
	"net/http"
	"sync/atomic"

	"linkedva-engine/internal/config"
	"linkedva-engine/internal/secrets"
)

type SecretsHandler struct {
	CfgVal *atomic.Value // stores config.Config

	// Set defaults to secrets.SetModelKey.
	Set func(cfg config.Config, key string) error
}

type setModelKeyReq struct {
	APIKey string `json:"apiKey"`
}

func (h SecretsHandler) SetModelKey(w http.ResponseWriter, r *http.Request) {
	var req setModelKeyReq
	if err := decodeBody(r, &req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_json", "invalid json")
		return
	}

	set := h.Set
	if set == nil {
		set = secrets.SetModelKey
	}
	cfg := h.CfgVal.Load().(config.Config)
	if err := set(cfg, req.APIKey); err != nil {
		WriteError(w, r, http.StatusBadRequest, "secret_store_failed", "failed to store api key: "+err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

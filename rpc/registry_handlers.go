package rpc

import (
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"

	"volatilitycats/crypto"
	"volatilitycats/native/registry"
)

type assetParams struct {
	Caller         string `json:"caller,omitempty"`
	Symbol         string `json:"symbol,omitempty"`
	AssetID        string `json:"assetId,omitempty"`
	Feed           string `json:"feed,omitempty"`
	Decimals       uint8  `json:"decimals,omitempty"`
	Tier           string `json:"tier,omitempty"`
	MaxExposureBps uint32 `json:"maxExposureBps,omitempty"`
	Enabled        bool   `json:"enabled,omitempty"`
}

type assetResult struct {
	AssetID        string `json:"assetId"`
	Feed           string `json:"feed"`
	Decimals       uint8  `json:"decimals"`
	Tier           string `json:"tier"`
	MaxExposureBps uint32 `json:"maxExposureBps"`
	Enabled        bool   `json:"enabled"`
}

// resolveAssetID accepts either a raw 32-byte hex id or a symbol to derive
// one from.
func resolveAssetID(params assetParams) (registry.AssetID, error) {
	if raw := strings.TrimPrefix(strings.TrimSpace(params.AssetID), "0x"); raw != "" {
		decoded, err := hex.DecodeString(raw)
		if err != nil {
			return registry.AssetID{}, fmt.Errorf("assetId must be hex encoded: %w", err)
		}
		if len(decoded) != 32 {
			return registry.AssetID{}, fmt.Errorf("assetId must be 32 bytes, got %d", len(decoded))
		}
		var id registry.AssetID
		copy(id[:], decoded)
		return id, nil
	}
	if symbol := strings.TrimSpace(params.Symbol); symbol != "" {
		return registry.DeriveAssetID(symbol), nil
	}
	return registry.AssetID{}, fmt.Errorf("either assetId or symbol required")
}

func parseTier(value string) (registry.VolatilityTier, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "low":
		return registry.TierLow, nil
	case "mid":
		return registry.TierMid, nil
	case "high":
		return registry.TierHigh, nil
	default:
		return 0, fmt.Errorf("unknown volatility tier %q", value)
	}
}

func buildAssetConfig(params assetParams) (registry.AssetConfig, error) {
	tier, err := parseTier(params.Tier)
	if err != nil {
		return registry.AssetConfig{}, err
	}
	feed, err := decodeBech32(params.Feed)
	if err != nil {
		return registry.AssetConfig{}, fmt.Errorf("invalid feed address: %w", err)
	}
	return registry.AssetConfig{
		Feed:           feed,
		Decimals:       params.Decimals,
		Tier:           tier,
		MaxExposureBps: params.MaxExposureBps,
	}, nil
}

func formatAsset(id registry.AssetID, cfg *registry.AssetConfig) assetResult {
	return assetResult{
		AssetID:        "0x" + hex.EncodeToString(id[:]),
		Feed:           crypto.NewAddress(crypto.CatPrefix, cfg.Feed[:]).String(),
		Decimals:       cfg.Decimals,
		Tier:           cfg.Tier.String(),
		MaxExposureBps: cfg.MaxExposureBps,
		Enabled:        cfg.Enabled,
	}
}

func (s *Server) handleRegistryAddAsset(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params assetParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	caller, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	id, err := resolveAssetID(params)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	cfg, err := buildAssetConfig(params)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.registry.AddAsset(caller, id, cfg); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	cfg.Enabled = true
	writeResult(w, req.ID, formatAsset(id, &cfg))
}

func (s *Server) handleRegistryUpdateAsset(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params assetParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	caller, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	id, err := resolveAssetID(params)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	cfg, err := buildAssetConfig(params)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.registry.UpdateAsset(caller, id, cfg); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	current, err := s.registry.GetAsset(id)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, formatAsset(id, current))
}

func (s *Server) handleRegistrySetAssetEnabled(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params assetParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	caller, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	id, err := resolveAssetID(params)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.registry.SetAssetEnabled(caller, id, params.Enabled); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]interface{}{
		"assetId": "0x" + hex.EncodeToString(id[:]),
		"enabled": params.Enabled,
	})
}

func (s *Server) handleRegistryGetAsset(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params assetParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	id, err := resolveAssetID(params)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	cfg, err := s.registry.GetAsset(id)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, formatAsset(id, cfg))
}

func (s *Server) handleRegistryGetAllAssetIDs(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	ids, err := s.registry.AllAssetIDs()
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	encoded := make([]string, 0, len(ids))
	for _, id := range ids {
		encoded = append(encoded, "0x"+hex.EncodeToString(id[:]))
	}
	writeResult(w, req.ID, map[string]interface{}{"assetIds": encoded})
}

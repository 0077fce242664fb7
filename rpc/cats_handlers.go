package rpc

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"strings"

	"volatilitycats/crypto"
	"volatilitycats/native/cats"
	"volatilitycats/observability/metrics"
)

type mintParams struct {
	Caller string `json:"caller"`
	Clan   string `json:"clan"`
}

type missionParams struct {
	Caller  string `json:"caller"`
	TokenID uint64 `json:"tokenId"`
	Mission string `json:"mission"`
}

type claimParams struct {
	Caller  string `json:"caller"`
	TokenID uint64 `json:"tokenId"`
}

type teleportParams struct {
	Caller      string `json:"caller"`
	TokenID     uint64 `json:"tokenId"`
	TargetChain uint32 `json:"targetChain"`
	Payload     string `json:"payload,omitempty"`
}

type transferParams struct {
	Caller  string `json:"caller"`
	To      string `json:"to"`
	TokenID uint64 `json:"tokenId"`
}

type clanFeedParams struct {
	Caller  string `json:"caller,omitempty"`
	Clan    string `json:"clan"`
	Feed    string `json:"feed,omitempty"`
	Enabled bool   `json:"enabled,omitempty"`
}

type tokenQueryParams struct {
	TokenID uint64 `json:"tokenId"`
}

type cooldownQueryParams struct {
	TokenID uint64 `json:"tokenId"`
	Mission string `json:"mission"`
}

type ownerQueryParams struct {
	Owner string `json:"owner"`
}

type imprintResult struct {
	Clan           string `json:"clan"`
	Temperament    uint8  `json:"temperament"`
	FortuneTier    uint8  `json:"fortuneTier"`
	RarityTier     uint8  `json:"rarityTier"`
	BirthTrendBps  int32  `json:"birthTrendBps"`
	BirthVolBucket uint8  `json:"birthVolBucket"`
	EpochID        uint64 `json:"epochId"`
	Entropy        string `json:"entropy"`
}

type gameStateResult struct {
	Power              uint64 `json:"power"`
	Season             uint32 `json:"season"`
	RulesVersion       uint32 `json:"rulesVersion"`
	LastMissionDaily   int64  `json:"lastMissionDaily"`
	LastMissionWeekly  int64  `json:"lastMissionWeekly"`
	LastMissionMonthly int64  `json:"lastMissionMonthly"`
	Rewarded           bool   `json:"rewarded"`
}

type teleportStateResult struct {
	IsAlive        bool   `json:"isAlive"`
	CurrentChainID uint32 `json:"currentChainId"`
	VisitedChains  string `json:"visitedChains"`
	VisitedCount   uint32 `json:"visitedCount"`
	TeleportCount  uint64 `json:"teleportCount"`
	LastTeleport   int64  `json:"lastTeleport"`
}

type catResult struct {
	TokenID  uint64              `json:"tokenId"`
	Owner    string              `json:"owner"`
	Imprint  imprintResult       `json:"imprint"`
	Game     gameStateResult     `json:"game"`
	Teleport teleportStateResult `json:"teleport"`
}

type jackpotResult struct {
	Epoch   uint64 `json:"epoch"`
	Balance string `json:"balance"`
	Claimed bool   `json:"claimed"`
	Winner  string `json:"winner,omitempty"`
}

type teleportConfigResult struct {
	CooldownSeconds int64  `json:"cooldownSeconds"`
	TargetChains    uint32 `json:"targetChains"`
	PowerCost       uint64 `json:"powerCost"`
	MaxChainID      uint32 `json:"maxChainId"`
}

type jackpotConfigResult struct {
	MintFee        string `json:"mintFee"`
	GrandTourBonus string `json:"grandTourBonus"`
	TeleportFee    string `json:"teleportFee"`
}

func decodeBech32(value string) ([20]byte, error) {
	addr, err := crypto.DecodeAddress(strings.TrimSpace(value))
	if err != nil {
		return [20]byte{}, err
	}
	return addr.Array(), nil
}

func parseClan(value string) (cats.Clan, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "btc":
		return cats.ClanBTC, nil
	case "eth":
		return cats.ClanETH, nil
	case "sol":
		return cats.ClanSOL, nil
	case "link":
		return cats.ClanLINK, nil
	case "doge":
		return cats.ClanDOGE, nil
	case "pepe":
		return cats.ClanPEPE, nil
	default:
		return 0, fmt.Errorf("unknown clan %q", value)
	}
}

func parseMissionType(value string) (cats.MissionType, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "daily":
		return cats.MissionDaily, nil
	case "weekly":
		return cats.MissionWeekly, nil
	case "monthly":
		return cats.MissionMonthly, nil
	default:
		return 0, fmt.Errorf("unknown mission type %q", value)
	}
}

func formatCat(cat *cats.Cat) catResult {
	visited := "0x0"
	var visitedCount uint32
	if cat.Teleport.VisitedChains != nil {
		visited = cat.Teleport.VisitedChains.Hex()
		visitedCount = cat.Teleport.VisitedCount()
	}
	return catResult{
		TokenID: cat.TokenID,
		Owner:   crypto.NewAddress(crypto.CatPrefix, cat.Owner[:]).String(),
		Imprint: imprintResult{
			Clan:           cat.Imprint.Clan.String(),
			Temperament:    cat.Imprint.Temperament,
			FortuneTier:    cat.Imprint.FortuneTier,
			RarityTier:     cat.Imprint.RarityTier,
			BirthTrendBps:  cat.Imprint.BirthTrendBps,
			BirthVolBucket: cat.Imprint.BirthVolBucket,
			EpochID:        cat.Imprint.EpochID,
			Entropy:        hex.EncodeToString(cat.Imprint.Entropy[:]),
		},
		Game: gameStateResult{
			Power:              cat.Game.Power,
			Season:             cat.Game.Season,
			RulesVersion:       cat.Game.RulesVersion,
			LastMissionDaily:   cat.Game.LastMissionDaily,
			LastMissionWeekly:  cat.Game.LastMissionWeekly,
			LastMissionMonthly: cat.Game.LastMissionMonthly,
			Rewarded:           cat.Game.Rewarded,
		},
		Teleport: teleportStateResult{
			IsAlive:        cat.Teleport.IsAlive,
			CurrentChainID: cat.Teleport.CurrentChainID,
			VisitedChains:  visited,
			VisitedCount:   visitedCount,
			TeleportCount:  cat.Teleport.TeleportCount,
			LastTeleport:   cat.Teleport.LastTeleport,
		},
	}
}

func formatJackpot(pot *cats.Jackpot) jackpotResult {
	result := jackpotResult{Epoch: pot.Epoch, Claimed: pot.Claimed, Balance: "0"}
	if pot.Balance != nil {
		result.Balance = pot.Balance.String()
	}
	if pot.Winner != ([20]byte{}) {
		result.Winner = crypto.NewAddress(crypto.CatPrefix, pot.Winner[:]).String()
	}
	return result
}

// decodeSingleParam enforces the single-object parameter convention shared by
// every method.
func decodeSingleParam(req *RPCRequest, out interface{}) error {
	if len(req.Params) != 1 {
		return fmt.Errorf("exactly one parameter object expected")
	}
	return json.Unmarshal(req.Params[0], out)
}

func (s *Server) handleMint(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params mintParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	caller, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	clan, err := parseClan(params.Clan)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	cat, err := s.engine.MintRandomCat(caller, clan)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	metrics.Cats().ObserveMint(clan.String())
	writeResult(w, req.ID, formatCat(cat))
}

func (s *Server) handleRunMission(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params missionParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	caller, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	mission, err := parseMissionType(params.Mission)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	cat, err := s.engine.RunMission(caller, params.TokenID, mission)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	metrics.Cats().ObserveMission(mission.String())
	writeResult(w, req.ID, formatCat(cat))
}

func (s *Server) handleClaimReward(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params claimParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	caller, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	if err := s.engine.ClaimReward(caller, params.TokenID); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	metrics.Cats().ObserveRewardClaim()
	writeResult(w, req.ID, map[string]interface{}{
		"tokenId": params.TokenID,
		"amount":  s.engine.RewardAmount().String(),
	})
}

func (s *Server) handleTeleport(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params teleportParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	caller, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	var payload []byte
	if trimmed := strings.TrimPrefix(strings.TrimSpace(params.Payload), "0x"); trimmed != "" {
		payload, err = hex.DecodeString(trimmed)
		if err != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "payload must be hex encoded", err.Error())
			return
		}
	}
	cat, err := s.engine.TeleportToChain(caller, params.TokenID, params.TargetChain, payload)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	metrics.Cats().ObserveTeleport(fmt.Sprintf("%d", params.TargetChain))
	if balance, err := s.engine.JackpotBalance(); err == nil {
		v, _ := new(big.Float).SetInt(balance).Float64()
		metrics.Cats().SetJackpotBalance(v)
	}
	writeResult(w, req.ID, formatCat(cat))
}

func (s *Server) handleTransfer(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params transferParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	caller, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	to, err := decodeBech32(params.To)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid recipient address", err.Error())
		return
	}
	if err := s.engine.TransferCat(caller, to, params.TokenID); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]interface{}{"tokenId": params.TokenID, "owner": params.To})
}

func (s *Server) handleSetClanFeed(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params clanFeedParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	caller, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	clan, err := parseClan(params.Clan)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	feed, err := decodeBech32(params.Feed)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid feed address", err.Error())
		return
	}
	if err := s.engine.SetClanFeed(caller, clan, feed, params.Enabled); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]interface{}{"clan": clan.String(), "enabled": params.Enabled})
}

func (s *Server) handleGetCat(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params tokenQueryParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	cat, err := s.engine.GetCat(params.TokenID)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, formatCat(cat))
}

func (s *Server) handleGetOracleImprint(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params tokenQueryParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	cat, err := s.engine.GetCat(params.TokenID)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, formatCat(cat).Imprint)
}

func (s *Server) handleGetGameState(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params tokenQueryParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	cat, err := s.engine.GetCat(params.TokenID)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, formatCat(cat).Game)
}

func (s *Server) handleGetTeleportState(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params tokenQueryParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	cat, err := s.engine.GetCat(params.TokenID)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, formatCat(cat).Teleport)
}

func (s *Server) handleChurrBalance(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params ownerQueryParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	owner, err := decodeBech32(params.Owner)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid owner address", err.Error())
		return
	}
	balance, err := s.engine.RewardBalance(owner)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]interface{}{
		"owner":   params.Owner,
		"balance": balance.String(),
	})
}

func (s *Server) handleGetRemainingCooldown(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params cooldownQueryParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	// An unknown mission string maps onto the sentinel instead of failing,
	// mirroring the lenient read path for cooldown queries.
	mission, err := parseMissionType(params.Mission)
	if err != nil {
		mission = cats.MissionType(255)
	}
	remaining, err := s.engine.RemainingCooldown(params.TokenID, mission)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]interface{}{
		"tokenId":          params.TokenID,
		"mission":          params.Mission,
		"remainingSeconds": remaining,
	})
}

func (s *Server) handleListByOwner(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params ownerQueryParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	owner, err := decodeBech32(params.Owner)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid owner address", err.Error())
		return
	}
	ids, err := s.engine.CatsByOwner(owner)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]interface{}{"owner": params.Owner, "tokenIds": ids})
}

func (s *Server) handleTeleportConfig(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	cfg := s.engine.TeleportConfig()
	writeResult(w, req.ID, teleportConfigResult{
		CooldownSeconds: cfg.CooldownSeconds,
		TargetChains:    cfg.TargetChains,
		PowerCost:       cfg.PowerCost,
		MaxChainID:      cfg.MaxChainID,
	})
}

func (s *Server) handleJackpotConfig(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	cfg := s.engine.JackpotConfig()
	result := jackpotConfigResult{MintFee: "0", GrandTourBonus: "0", TeleportFee: "0"}
	if cfg.MintFee != nil {
		result.MintFee = cfg.MintFee.String()
	}
	if cfg.GrandTourBonus != nil {
		result.GrandTourBonus = cfg.GrandTourBonus.String()
	}
	if cfg.TeleportFee != nil {
		result.TeleportFee = cfg.TeleportFee.String()
	}
	writeResult(w, req.ID, result)
}

func (s *Server) handleJackpotBalance(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	balance, err := s.engine.JackpotBalance()
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]interface{}{"balance": balance.String()})
}

func (s *Server) handleGetJackpotState(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	pot, err := s.engine.JackpotState()
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, formatJackpot(pot))
}

func (s *Server) handleGetClanFeed(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params clanFeedParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	clan, err := parseClan(params.Clan)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	feed, ok, err := s.engine.ClanFeed(clan)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	if !ok {
		writeError(w, http.StatusOK, req.ID, codeNotFound, fmt.Sprintf("no feed bound for clan %s", clan), nil)
		return
	}
	writeResult(w, req.ID, map[string]interface{}{
		"clan":    clan.String(),
		"feed":    crypto.NewAddress(crypto.CatPrefix, feed.Feed[:]).String(),
		"enabled": feed.Enabled,
	})
}

package config

import (
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"volatilitycats/crypto"
	"volatilitycats/native/cats"

	"github.com/BurntSushi/toml"
)

type Config struct {
	RPCAddress           string `toml:"RPCAddress"`
	DataDir              string `toml:"DataDir"`
	NetworkName          string `toml:"NetworkName"`
	Environment          string `toml:"Environment"`
	LogFile              string `toml:"LogFile"`
	OperatorKeystorePath string `toml:"OperatorKeystorePath"`
	RPCAuthToken         string `toml:"RPCAuthToken"`

	Game GameConfig `toml:"Game"`
}

// GameConfig overrides the built-in rule-set. Zero values fall back to the
// defaults, so a minimal config file stays minimal. Wei amounts are decimal
// strings because TOML integers cap at 64 bits.
type GameConfig struct {
	Season             uint32 `toml:"Season"`
	RulesVersion       uint32 `toml:"RulesVersion"`
	EpochWindowSeconds int64  `toml:"EpochWindowSeconds"`
	PowerThreshold     uint64 `toml:"PowerThreshold"`
	RewardAmountWei    string `toml:"RewardAmountWei"`

	DailyCooldownSeconds   int64  `toml:"DailyCooldownSeconds"`
	DailyPowerGain         uint64 `toml:"DailyPowerGain"`
	WeeklyCooldownSeconds  int64  `toml:"WeeklyCooldownSeconds"`
	WeeklyPowerGain        uint64 `toml:"WeeklyPowerGain"`
	MonthlyCooldownSeconds int64  `toml:"MonthlyCooldownSeconds"`
	MonthlyPowerGain       uint64 `toml:"MonthlyPowerGain"`

	TeleportCooldownSeconds int64  `toml:"TeleportCooldownSeconds"`
	TeleportTargetChains    uint32 `toml:"TeleportTargetChains"`
	TeleportPowerCost       uint64 `toml:"TeleportPowerCost"`
	TeleportMaxChainID      uint32 `toml:"TeleportMaxChainID"`

	MintFeeWei        string `toml:"MintFeeWei"`
	GrandTourBonusWei string `toml:"GrandTourBonusWei"`
	TeleportFeeWei    string `toml:"TeleportFeeWei"`
}

// Load loads the configuration from the given path, creating a default file
// and operator keystore when none exists yet.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}

	if err := ensureKeystore(path, cfg); err != nil {
		return nil, err
	}

	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.RPCAddress) == "" {
		cfg.RPCAddress = ":8080"
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = "./cats-data"
	}
	if strings.TrimSpace(cfg.NetworkName) == "" {
		cfg.NetworkName = "cats-local"
	}
}

// Validate rejects configs the daemon cannot start with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.RPCAddress) == "" {
		return fmt.Errorf("config: RPCAddress must not be empty")
	}
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("config: DataDir must not be empty")
	}
	if _, err := c.GameParams(); err != nil {
		return err
	}
	return nil
}

// GameParams materialises the rule-set, overlaying config values on the
// defaults.
func (c *Config) GameParams() (cats.Params, error) {
	params := cats.DefaultParams()
	g := c.Game

	if g.Season != 0 {
		params.Season = g.Season
	}
	if g.RulesVersion != 0 {
		params.RulesVersion = g.RulesVersion
	}
	if g.EpochWindowSeconds != 0 {
		params.EpochWindowSeconds = g.EpochWindowSeconds
	}
	if g.PowerThreshold != 0 {
		params.PowerThreshold = g.PowerThreshold
	}

	if g.DailyCooldownSeconds != 0 {
		params.Missions[cats.MissionDaily].CooldownSeconds = g.DailyCooldownSeconds
	}
	if g.DailyPowerGain != 0 {
		params.Missions[cats.MissionDaily].PowerGain = g.DailyPowerGain
	}
	if g.WeeklyCooldownSeconds != 0 {
		params.Missions[cats.MissionWeekly].CooldownSeconds = g.WeeklyCooldownSeconds
	}
	if g.WeeklyPowerGain != 0 {
		params.Missions[cats.MissionWeekly].PowerGain = g.WeeklyPowerGain
	}
	if g.MonthlyCooldownSeconds != 0 {
		params.Missions[cats.MissionMonthly].CooldownSeconds = g.MonthlyCooldownSeconds
	}
	if g.MonthlyPowerGain != 0 {
		params.Missions[cats.MissionMonthly].PowerGain = g.MonthlyPowerGain
	}

	if g.TeleportCooldownSeconds != 0 {
		params.Teleport.CooldownSeconds = g.TeleportCooldownSeconds
	}
	if g.TeleportTargetChains != 0 {
		params.Teleport.TargetChains = g.TeleportTargetChains
	}
	if g.TeleportPowerCost != 0 {
		params.Teleport.PowerCost = g.TeleportPowerCost
	}
	if g.TeleportMaxChainID != 0 {
		params.Teleport.MaxChainID = g.TeleportMaxChainID
	}

	var err error
	if params.RewardAmount, err = overlayWei(params.RewardAmount, g.RewardAmountWei, "RewardAmountWei"); err != nil {
		return cats.Params{}, err
	}
	if params.Jackpot.MintFee, err = overlayWei(params.Jackpot.MintFee, g.MintFeeWei, "MintFeeWei"); err != nil {
		return cats.Params{}, err
	}
	if params.Jackpot.GrandTourBonus, err = overlayWei(params.Jackpot.GrandTourBonus, g.GrandTourBonusWei, "GrandTourBonusWei"); err != nil {
		return cats.Params{}, err
	}
	if params.Jackpot.TeleportFee, err = overlayWei(params.Jackpot.TeleportFee, g.TeleportFeeWei, "TeleportFeeWei"); err != nil {
		return cats.Params{}, err
	}

	if err := params.Validate(); err != nil {
		return cats.Params{}, err
	}
	return params, nil
}

func overlayWei(current *big.Int, raw, field string) (*big.Int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return current, nil
	}
	value, ok := new(big.Int).SetString(raw, 10)
	if !ok || value.Sign() < 0 {
		return nil, fmt.Errorf("config: %s must be a non-negative decimal integer, got %q", field, raw)
	}
	return value, nil
}

func ensureKeystore(configPath string, cfg *Config) error {
	keystorePath := cfg.OperatorKeystorePath
	if keystorePath == "" {
		keystorePath = defaultKeystorePath(configPath)
	}

	if _, err := os.Stat(keystorePath); os.IsNotExist(err) {
		key, genErr := crypto.GeneratePrivateKey()
		if genErr != nil {
			return genErr
		}
		if err := crypto.SaveToKeystore(keystorePath, key, ""); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	if cfg.OperatorKeystorePath != keystorePath {
		cfg.OperatorKeystorePath = keystorePath
		return persist(configPath, cfg)
	}

	return nil
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		return nil, err
	}

	keystorePath := defaultKeystorePath(path)
	if err := crypto.SaveToKeystore(keystorePath, key, ""); err != nil {
		return nil, err
	}

	cfg := &Config{
		RPCAddress:  ":8080",
		DataDir:     "./cats-data",
		NetworkName: "cats-local",
		Environment: "local",
	}
	cfg.OperatorKeystorePath = keystorePath

	if err := persist(path, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

func defaultKeystorePath(configPath string) string {
	dir := filepath.Dir(configPath)
	if dir == "." || dir == "" {
		dir = ""
	}
	return filepath.Join(dir, "operator.keystore")
}

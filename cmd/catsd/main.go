package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"volatilitycats/config"
	"volatilitycats/core/events"
	"volatilitycats/core/state"
	"volatilitycats/core/types"
	"volatilitycats/crypto"
	"volatilitycats/native/bridge"
	"volatilitycats/native/cats"
	"volatilitycats/native/registry"
	"volatilitycats/observability/logging"
	"volatilitycats/observability/metrics"
	"volatilitycats/rpc"
	"volatilitycats/storage"
)

const (
	operatorPassEnv = "CATS_OPERATOR_PASS"
	rpcTokenEnv     = "CATS_RPC_TOKEN"
	envEnv          = "CATS_ENV"
)

// slogEmitter forwards every engine event to structured logs.
type slogEmitter struct {
	logger *slog.Logger
}

func (e slogEmitter) Emit(evt events.Event) {
	attrs := []any{slog.String("type", evt.EventType())}
	if typed, ok := evt.(interface{ Event() *types.Event }); ok {
		for key, value := range typed.Event().Attributes {
			attrs = append(attrs, slog.String(key, value))
		}
	}
	if evt.EventType() == events.TypeJackpotAwarded {
		metrics.Cats().ObserveJackpotAward()
	}
	e.logger.Info("event", attrs...)
}

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	rpcAddr := flag.String("rpc", "", "Override the RPC listen address from the config")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv(envEnv))

	cfg, err := config.Load(*configFile)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}
	if env == "" {
		env = cfg.Environment
	}
	logger := logging.Setup("catsd", env, cfg.LogFile)

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		panic(fmt.Sprintf("Failed to open database: %v", err))
	}
	defer db.Close()

	operatorKey, err := crypto.LoadFromKeystore(cfg.OperatorKeystorePath, os.Getenv(operatorPassEnv))
	if err != nil {
		panic(fmt.Sprintf("Failed to load operator key: %v", err))
	}
	operatorAddr := operatorKey.PubKey().Address()

	manager := state.NewManager(db)
	if err := bootstrapState(manager, operatorAddr.Bytes()); err != nil {
		panic(fmt.Sprintf("Failed to bootstrap state: %v", err))
	}

	params, err := cfg.GameParams()
	if err != nil {
		panic(fmt.Sprintf("Invalid game parameters: %v", err))
	}

	engine, err := cats.NewEngine(params)
	if err != nil {
		panic(fmt.Sprintf("Failed to create engine: %v", err))
	}
	engine.SetState(manager)
	engine.SetEmitter(slogEmitter{logger: logger})
	engine.SetMessenger(bridge.NewLogging(bridge.Noop{}, logger))
	engine.SetPauses(manager)

	reg := registry.NewRegistry()
	reg.SetState(manager)
	reg.SetEmitter(slogEmitter{logger: logger})
	reg.SetPauses(manager)

	authToken := strings.TrimSpace(os.Getenv(rpcTokenEnv))
	if authToken == "" {
		authToken = cfg.RPCAuthToken
	}
	if authToken == "" {
		logger.Warn("no RPC auth token configured, mutating methods are disabled")
	}

	addr := cfg.RPCAddress
	if *rpcAddr != "" {
		addr = *rpcAddr
	}

	logger.Info("starting catsd",
		slog.String("network", cfg.NetworkName),
		slog.String("dataDir", cfg.DataDir),
		slog.String("operator", operatorAddr.String()),
	)

	server := rpc.NewServer(engine, reg, authToken, logger)
	if err := server.Start(addr); err != nil {
		logger.Error("RPC server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

// bootstrapState registers the reward token and grants the operator both
// admin roles. Every step is idempotent so restarts are safe.
func bootstrapState(manager *state.Manager, operator []byte) error {
	if !manager.TokenExists(cats.TokenSymbol) {
		if err := manager.RegisterToken(cats.TokenSymbol, "Churr", 18); err != nil {
			return err
		}
	}
	if err := manager.SetTokenMintAuthority(cats.TokenSymbol, cats.ModuleAddress[:]); err != nil {
		return err
	}
	if err := manager.SetRole(cats.RoleGameAdmin, operator); err != nil {
		return err
	}
	return manager.SetRole(registry.RoleRegistryAdmin, operator)
}

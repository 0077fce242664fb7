package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"volatilitycats/cmd/internal/passphrase"
	"volatilitycats/crypto"
)

const keyPassEnv = "CATS_KEY_PASS"

var (
	rpcEndpoint  = defaultRPCEndpoint()
	rpcAuthToken = os.Getenv("CATS_RPC_TOKEN")
	passSource   = passphrase.NewSource(keyPassEnv)
)

func main() {
	args := os.Args[1:]
	var err error
	args, err = applyGlobalFlags(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if len(args) < 1 {
		printUsage()
		return
	}

	command := args[0]
	args = args[1:]
	switch command {
	case "generate-key":
		generateKey(args)
	case "address":
		requireArgs(args, 1, "address <keyfile>")
		showAddress(args[0])
	case "mint":
		requireArgs(args, 2, "mint <clan> <keyfile>")
		mint(args[0], args[1])
	case "mission":
		requireArgs(args, 3, "mission <tokenId> <daily|weekly|monthly> <keyfile>")
		runMission(parseTokenID(args[0]), args[1], args[2])
	case "claim":
		requireArgs(args, 2, "claim <tokenId> <keyfile>")
		claimReward(parseTokenID(args[0]), args[1])
	case "teleport":
		requireArgs(args, 3, "teleport <tokenId> <chainId> <keyfile>")
		chain, err := strconv.ParseUint(args[1], 10, 32)
		if err != nil {
			fatalf("invalid chain id %q", args[1])
		}
		teleport(parseTokenID(args[0]), uint32(chain), args[2])
	case "transfer":
		requireArgs(args, 3, "transfer <tokenId> <to> <keyfile>")
		transfer(parseTokenID(args[0]), args[1], args[2])
	case "cat":
		requireArgs(args, 1, "cat <tokenId>")
		query("cats_getCat", map[string]interface{}{"tokenId": parseTokenID(args[0])})
	case "imprint":
		requireArgs(args, 1, "imprint <tokenId>")
		query("cats_getOracleImprint", map[string]interface{}{"tokenId": parseTokenID(args[0])})
	case "game-state":
		requireArgs(args, 1, "game-state <tokenId>")
		query("cats_getGameState", map[string]interface{}{"tokenId": parseTokenID(args[0])})
	case "cooldown":
		requireArgs(args, 2, "cooldown <tokenId> <daily|weekly|monthly>")
		query("cats_getRemainingCooldown", map[string]interface{}{
			"tokenId": parseTokenID(args[0]),
			"mission": args[1],
		})
	case "teleport-state":
		requireArgs(args, 1, "teleport-state <tokenId>")
		query("cats_getTeleportState", map[string]interface{}{"tokenId": parseTokenID(args[0])})
	case "list":
		requireArgs(args, 1, "list <owner>")
		query("cats_listByOwner", map[string]interface{}{"owner": args[0]})
	case "balance":
		requireArgs(args, 1, "balance <owner>")
		query("cats_churrBalance", map[string]interface{}{"owner": args[0]})
	case "jackpot":
		queryNoParams("cats_jackpotBalance")
	case "jackpot-state":
		queryNoParams("cats_getJackpotState")
	case "teleport-config":
		queryNoParams("cats_teleportConfig")
	case "jackpot-config":
		queryNoParams("cats_jackpotConfig")
	case "registry":
		runRegistryCommand(args)
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Usage: cats-cli [--rpc <url>] <command> [args]

Key management:
  generate-key [file]                    Generate a keystore (default wallet.keystore)
  address <keyfile>                      Print the bech32 address for a keystore

Game actions (require CATS_RPC_TOKEN):
  mint <clan> <keyfile>                  Mint a cat in a clan (btc|eth|sol|link|doge|pepe)
  mission <tokenId> <type> <keyfile>     Run a daily, weekly or monthly mission
  claim <tokenId> <keyfile>              Claim the one-shot power reward
  teleport <tokenId> <chainId> <keyfile> Teleport a cat to a chain
  transfer <tokenId> <to> <keyfile>      Transfer a cat to another address

Queries:
  cat <tokenId>                          Full token record
  imprint <tokenId>                      Birth imprint only
  game-state <tokenId>                   Game progress only
  teleport-state <tokenId>               Teleport/visitation record only
  cooldown <tokenId> <type>              Remaining mission cooldown in seconds
  list <owner>                           Token ids held by an owner
  balance <owner>                        CHURR balance for an address
  jackpot | jackpot-state                Pool balance / full pool record
  teleport-config | jackpot-config       Engine parameters

Registry (mutations require CATS_RPC_TOKEN):
  registry add <symbol> <feed> <decimals> <low|mid|high> <capBps> <keyfile>
  registry update <symbol> <feed> <decimals> <low|mid|high> <capBps> <keyfile>
  registry enable <symbol> <true|false> <keyfile>
  registry get <symbol>
  registry list`)
}

func requireArgs(args []string, n int, usage string) {
	if len(args) < n {
		fatalf("usage: cats-cli %s", usage)
	}
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func parseTokenID(raw string) uint64 {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		fatalf("invalid token id %q", raw)
	}
	return id
}

func defaultRPCEndpoint() string {
	if v := strings.TrimSpace(os.Getenv("CATS_RPC_URL")); v != "" {
		return v
	}
	return "http://localhost:8080"
}

func applyGlobalFlags(args []string) ([]string, error) {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--rpc" {
			if i+1 >= len(args) {
				return nil, fmt.Errorf("missing value for --rpc")
			}
			rpcEndpoint = args[i+1]
			i++
			continue
		}
		if strings.HasPrefix(arg, "--rpc=") {
			rpcEndpoint = strings.TrimPrefix(arg, "--rpc=")
			continue
		}
		out = append(out, arg)
	}
	return out, nil
}

func generateKey(args []string) {
	fileName := "wallet.keystore"
	if len(args) > 0 {
		fileName = args[0]
	}
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		fatalf("failed to generate key: %v", err)
	}
	pass, err := passSource.Get()
	if err != nil {
		fatalf("%v", err)
	}
	if err := crypto.SaveToKeystore(fileName, key, pass); err != nil {
		fatalf("failed to save keystore to %s: %v", fileName, err)
	}
	fmt.Printf("Generated new key and saved to %s\n", fileName)
	fmt.Printf("Your address is: %s\n", key.PubKey().Address().String())
}

func showAddress(keyFile string) {
	key := loadKey(keyFile)
	fmt.Println(key.PubKey().Address().String())
}

func loadKey(keyFile string) *crypto.PrivateKey {
	pass, err := passSource.Get()
	if err != nil {
		fatalf("%v", err)
	}
	key, err := crypto.LoadFromKeystore(keyFile, pass)
	if err != nil {
		fatalf("failed to load keystore %s: %v", keyFile, err)
	}
	return key
}

func mint(clan, keyFile string) {
	caller := loadKey(keyFile).PubKey().Address().String()
	mutate("cats_mint", map[string]interface{}{"caller": caller, "clan": clan})
}

func runMission(tokenID uint64, mission, keyFile string) {
	caller := loadKey(keyFile).PubKey().Address().String()
	mutate("cats_runMission", map[string]interface{}{
		"caller":  caller,
		"tokenId": tokenID,
		"mission": mission,
	})
}

func claimReward(tokenID uint64, keyFile string) {
	caller := loadKey(keyFile).PubKey().Address().String()
	mutate("cats_claimReward", map[string]interface{}{"caller": caller, "tokenId": tokenID})
}

func teleport(tokenID uint64, chain uint32, keyFile string) {
	caller := loadKey(keyFile).PubKey().Address().String()
	mutate("cats_teleport", map[string]interface{}{
		"caller":      caller,
		"tokenId":     tokenID,
		"targetChain": chain,
	})
}

func transfer(tokenID uint64, to, keyFile string) {
	caller := loadKey(keyFile).PubKey().Address().String()
	mutate("cats_transfer", map[string]interface{}{
		"caller":  caller,
		"to":      to,
		"tokenId": tokenID,
	})
}

func runRegistryCommand(args []string) {
	if len(args) < 1 {
		fatalf("usage: cats-cli registry <add|update|enable|get|list> ...")
	}
	sub := args[0]
	args = args[1:]
	switch sub {
	case "add", "update":
		requireArgs(args, 6, "registry "+sub+" <symbol> <feed> <decimals> <tier> <capBps> <keyfile>")
		decimals, err := strconv.ParseUint(args[2], 10, 8)
		if err != nil {
			fatalf("invalid decimals %q", args[2])
		}
		capBps, err := strconv.ParseUint(args[4], 10, 32)
		if err != nil {
			fatalf("invalid exposure cap %q", args[4])
		}
		caller := loadKey(args[5]).PubKey().Address().String()
		method := "registry_addAsset"
		if sub == "update" {
			method = "registry_updateAsset"
		}
		mutate(method, map[string]interface{}{
			"caller":         caller,
			"symbol":         args[0],
			"feed":           args[1],
			"decimals":       decimals,
			"tier":           args[3],
			"maxExposureBps": capBps,
		})
	case "enable":
		requireArgs(args, 3, "registry enable <symbol> <true|false> <keyfile>")
		enabled, err := strconv.ParseBool(args[1])
		if err != nil {
			fatalf("invalid flag %q", args[1])
		}
		caller := loadKey(args[2]).PubKey().Address().String()
		mutate("registry_setAssetEnabled", map[string]interface{}{
			"caller":  caller,
			"symbol":  args[0],
			"enabled": enabled,
		})
	case "get":
		requireArgs(args, 1, "registry get <symbol>")
		query("registry_getAsset", map[string]interface{}{"symbol": args[0]})
	case "list":
		queryNoParams("registry_getAllAssetIds")
	default:
		fatalf("unknown registry command %q", sub)
	}
}

func mutate(method string, params map[string]interface{}) {
	doCall(method, params, true)
}

func query(method string, params map[string]interface{}) {
	doCall(method, params, false)
}

func queryNoParams(method string) {
	doCall(method, nil, false)
}

func doCall(method string, params map[string]interface{}, requireAuth bool) {
	payload := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
	}
	if params != nil {
		payload["params"] = []interface{}{params}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		fatalf("failed to encode request: %v", err)
	}

	req, err := http.NewRequest(http.MethodPost, strings.TrimRight(rpcEndpoint, "/")+"/rpc", bytes.NewReader(body))
	if err != nil {
		fatalf("failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if requireAuth {
		token := strings.TrimSpace(rpcAuthToken)
		if token == "" {
			fatalf("this command mutates state; set CATS_RPC_TOKEN")
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	var rpcResp struct {
		Result json.RawMessage `json:"result"`
		Error  *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		fatalf("failed to decode response from node")
	}
	if rpcResp.Error != nil {
		fatalf("error from node (%d): %s", rpcResp.Error.Code, rpcResp.Error.Message)
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, rpcResp.Result, "", "  "); err != nil {
		fmt.Println(string(rpcResp.Result))
		return
	}
	fmt.Println(pretty.String())
}

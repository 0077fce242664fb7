package state

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"strings"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"volatilitycats/storage"
)

// Manager provides typed read/write access to game state. Keys are hashed
// with keccak256 before hitting storage and values are RLP encoded, matching
// the layout an on-chain deployment would use.
type Manager struct {
	db storage.Database
}

// NewManager creates a state manager operating on the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

// TokenMetadata describes a registered fungible token.
type TokenMetadata struct {
	Symbol        string
	Name          string
	Decimals      uint8
	MintAuthority []byte
}

var (
	tokenPrefix   = []byte("token:")
	tokenListKey  = ethcrypto.Keccak256([]byte("token-list"))
	balancePrefix = []byte("balance:")
	supplyPrefix  = []byte("supply:")
	rolePrefix    = []byte("role:")
	pausePrefix   = []byte("pause:")
)

func tokenMetadataKey(symbol string) []byte {
	return ethcrypto.Keccak256(append(tokenPrefix, symbol...))
}

func balanceKey(addr []byte, symbol string) []byte {
	buf := make([]byte, 0, len(balancePrefix)+len(symbol)+1+len(addr))
	buf = append(buf, balancePrefix...)
	buf = append(buf, symbol...)
	buf = append(buf, ':')
	buf = append(buf, addr...)
	return ethcrypto.Keccak256(buf)
}

func supplyKey(symbol string) []byte {
	return ethcrypto.Keccak256(append(supplyPrefix, symbol...))
}

func roleKey(role string) []byte {
	return ethcrypto.Keccak256(append(rolePrefix, role...))
}

func pauseKey(module string) []byte {
	return ethcrypto.Keccak256(append(pausePrefix, module...))
}

func kvKey(key []byte) []byte {
	return ethcrypto.Keccak256(key)
}

func (m *Manager) rawGet(key []byte) ([]byte, error) {
	data, err := m.db.Get(key)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return nil, nil
	}
	return data, err
}

// KVPut stores the value under the key using RLP encoding.
func (m *Manager) KVPut(key []byte, value interface{}) error {
	if len(key) == 0 {
		return fmt.Errorf("kv: key must not be empty")
	}
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	return m.db.Put(kvKey(key), encoded)
}

// KVGet decodes the value stored under the key into out. The boolean reports
// whether the key existed.
func (m *Manager) KVGet(key []byte, out interface{}) (bool, error) {
	if len(key) == 0 {
		return false, fmt.Errorf("kv: key must not be empty")
	}
	data, err := m.rawGet(kvKey(key))
	if err != nil {
		return false, err
	}
	if len(data) == 0 {
		return false, nil
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, err
	}
	return true, nil
}

// KVAppend appends the value to the byte-slice list stored under the key.
func (m *Manager) KVAppend(key []byte, value []byte) error {
	if len(key) == 0 {
		return fmt.Errorf("kv: key must not be empty")
	}
	hashed := kvKey(key)
	var list [][]byte
	data, err := m.rawGet(hashed)
	if err != nil {
		return err
	}
	if len(data) > 0 {
		if err := rlp.DecodeBytes(data, &list); err != nil {
			return err
		}
	}
	list = append(list, append([]byte(nil), value...))
	encoded, err := rlp.EncodeToBytes(list)
	if err != nil {
		return err
	}
	return m.db.Put(hashed, encoded)
}

// KVGetList decodes the slice stored under the key into out. A missing key
// leaves out untouched.
func (m *Manager) KVGetList(key []byte, out interface{}) error {
	if len(key) == 0 {
		return fmt.Errorf("kv: key must not be empty")
	}
	data, err := m.rawGet(kvKey(key))
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	return rlp.DecodeBytes(data, out)
}

func (m *Manager) loadTokenList() ([]string, error) {
	data, err := m.rawGet(tokenListKey)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	var list []string
	if err := rlp.DecodeBytes(data, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (m *Manager) writeTokenList(list []string) error {
	encoded, err := rlp.EncodeToBytes(list)
	if err != nil {
		return err
	}
	return m.db.Put(tokenListKey, encoded)
}

func (m *Manager) loadTokenMetadata(symbol string) (*TokenMetadata, error) {
	data, err := m.rawGet(tokenMetadataKey(symbol))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	meta := new(TokenMetadata)
	if err := rlp.DecodeBytes(data, meta); err != nil {
		return nil, err
	}
	return meta, nil
}

func (m *Manager) writeTokenMetadata(symbol string, meta *TokenMetadata) error {
	encoded, err := rlp.EncodeToBytes(meta)
	if err != nil {
		return err
	}
	return m.db.Put(tokenMetadataKey(symbol), encoded)
}

// RegisterToken stores the metadata for a fungible token and records it in
// the token index.
func (m *Manager) RegisterToken(symbol, name string, decimals uint8) error {
	normalized := strings.ToUpper(strings.TrimSpace(symbol))
	if normalized == "" {
		return fmt.Errorf("token symbol must not be empty")
	}
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("token %s: name must not be empty", normalized)
	}
	if existing, err := m.loadTokenMetadata(normalized); err != nil {
		return err
	} else if existing != nil {
		return fmt.Errorf("token %s already registered", normalized)
	}

	list, err := m.loadTokenList()
	if err != nil {
		return err
	}
	list = append(list, normalized)
	sort.Strings(list)
	if err := m.writeTokenList(list); err != nil {
		return err
	}
	return m.writeTokenMetadata(normalized, &TokenMetadata{
		Symbol:   normalized,
		Name:     name,
		Decimals: decimals,
	})
}

// SetTokenMintAuthority configures the only account allowed to mint the
// token.
func (m *Manager) SetTokenMintAuthority(symbol string, authority []byte) error {
	normalized := strings.ToUpper(strings.TrimSpace(symbol))
	meta, err := m.loadTokenMetadata(normalized)
	if err != nil {
		return err
	}
	if meta == nil {
		return fmt.Errorf("token %s not registered", normalized)
	}
	meta.MintAuthority = append([]byte(nil), authority...)
	return m.writeTokenMetadata(normalized, meta)
}

// Token retrieves metadata for a registered token, nil when unknown.
func (m *Manager) Token(symbol string) (*TokenMetadata, error) {
	return m.loadTokenMetadata(strings.ToUpper(strings.TrimSpace(symbol)))
}

// TokenExists reports whether the token symbol is registered.
func (m *Manager) TokenExists(symbol string) bool {
	meta, err := m.Token(symbol)
	return err == nil && meta != nil
}

// Balance retrieves a token balance, zero for untouched accounts.
func (m *Manager) Balance(addr []byte, symbol string) (*big.Int, error) {
	normalized := strings.ToUpper(strings.TrimSpace(symbol))
	data, err := m.rawGet(balanceKey(addr, normalized))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return big.NewInt(0), nil
	}
	amount := new(big.Int)
	if err := rlp.DecodeBytes(data, amount); err != nil {
		return nil, err
	}
	return amount, nil
}

func (m *Manager) writeBalance(addr []byte, symbol string, amount *big.Int) error {
	encoded, err := rlp.EncodeToBytes(amount)
	if err != nil {
		return err
	}
	return m.db.Put(balanceKey(addr, symbol), encoded)
}

// TotalSupply returns the cumulative minted amount for the token.
func (m *Manager) TotalSupply(symbol string) (*big.Int, error) {
	normalized := strings.ToUpper(strings.TrimSpace(symbol))
	data, err := m.rawGet(supplyKey(normalized))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return big.NewInt(0), nil
	}
	supply := new(big.Int)
	if err := rlp.DecodeBytes(data, supply); err != nil {
		return nil, err
	}
	return supply, nil
}

// MintTokenAs credits freshly minted tokens to the recipient. The caller must
// match the token's registered mint authority.
func (m *Manager) MintTokenAs(authority []byte, symbol string, to []byte, amount *big.Int) error {
	normalized := strings.ToUpper(strings.TrimSpace(symbol))
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("token %s: mint amount must be non-negative", normalized)
	}
	meta, err := m.loadTokenMetadata(normalized)
	if err != nil {
		return err
	}
	if meta == nil {
		return fmt.Errorf("token %s not registered", normalized)
	}
	if len(meta.MintAuthority) == 0 || !bytes.Equal(meta.MintAuthority, authority) {
		return fmt.Errorf("token %s: caller is not the mint authority", normalized)
	}
	if len(to) == 0 {
		return fmt.Errorf("token %s: recipient must not be empty", normalized)
	}

	balance, err := m.Balance(to, normalized)
	if err != nil {
		return err
	}
	if err := m.writeBalance(to, normalized, new(big.Int).Add(balance, amount)); err != nil {
		return err
	}
	supply, err := m.TotalSupply(normalized)
	if err != nil {
		return err
	}
	encoded, err := rlp.EncodeToBytes(new(big.Int).Add(supply, amount))
	if err != nil {
		return err
	}
	return m.db.Put(supplyKey(normalized), encoded)
}

// SetRole associates an address with the role. Duplicate assignments are
// ignored and the stored list stays sorted for determinism.
func (m *Manager) SetRole(role string, addr []byte) error {
	trimmed := strings.TrimSpace(role)
	if trimmed == "" {
		return fmt.Errorf("role must not be empty")
	}
	if len(addr) == 0 {
		return fmt.Errorf("address must not be empty")
	}
	key := roleKey(trimmed)
	data, err := m.rawGet(key)
	if err != nil {
		return err
	}
	var members [][]byte
	if len(data) > 0 {
		if err := rlp.DecodeBytes(data, &members); err != nil {
			return err
		}
	}
	for _, existing := range members {
		if bytes.Equal(existing, addr) {
			return nil
		}
	}
	members = append(members, append([]byte(nil), addr...))
	sort.Slice(members, func(i, j int) bool {
		return hex.EncodeToString(members[i]) < hex.EncodeToString(members[j])
	})
	encoded, err := rlp.EncodeToBytes(members)
	if err != nil {
		return err
	}
	return m.db.Put(key, encoded)
}

// HasRole reports whether the address holds the role. Read errors resolve to
// false, matching the best-effort semantics the engines expect.
func (m *Manager) HasRole(role string, addr []byte) bool {
	if len(addr) == 0 {
		return false
	}
	data, err := m.rawGet(roleKey(strings.TrimSpace(role)))
	if err != nil || len(data) == 0 {
		return false
	}
	var members [][]byte
	if err := rlp.DecodeBytes(data, &members); err != nil {
		return false
	}
	for _, member := range members {
		if bytes.Equal(member, addr) {
			return true
		}
	}
	return false
}

// SetPaused halts or resumes a named module.
func (m *Manager) SetPaused(module string, paused bool) error {
	trimmed := strings.TrimSpace(module)
	if trimmed == "" {
		return fmt.Errorf("module must not be empty")
	}
	encoded, err := rlp.EncodeToBytes(paused)
	if err != nil {
		return err
	}
	return m.db.Put(pauseKey(trimmed), encoded)
}

// IsPaused implements the native/common PauseView over stored flags.
func (m *Manager) IsPaused(module string) bool {
	data, err := m.rawGet(pauseKey(strings.TrimSpace(module)))
	if err != nil || len(data) == 0 {
		return false
	}
	var paused bool
	if err := rlp.DecodeBytes(data, &paused); err != nil {
		return false
	}
	return paused
}

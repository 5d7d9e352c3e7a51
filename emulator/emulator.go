package emulator

import (
	"encoding/base64"
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/toncell-lab/emubridge/cell"
	"github.com/toncell-lab/emubridge/types"
)

// TransactionEmulator drives transaction state-transition emulation
// through an external engine. It owns the session parameters (config,
// time, lt, seed, libraries) and converts between the JSON/base64
// boundary form and the engine's cell-graph inputs
type TransactionEmulator struct {
	logger hclog.Logger
	engine Engine
	cache  *CellCache

	config       *cell.Cell
	libs         *cell.Cell
	unixtime     uint32
	lt           uint64
	randSeed     types.Hash
	ignoreChksig bool
}

// NewTransactionEmulator decodes the base64 global-config bag of cells
// and binds the external engine. The cache is shared across sessions;
// a nil cache gets a private one
func NewTransactionEmulator(
	logger hclog.Logger,
	engine Engine,
	cache *CellCache,
	configBoc string,
) (*TransactionEmulator, error) {
	if cache == nil {
		cache = NewCellCache(defaultCellCacheSize)
	}

	e := &TransactionEmulator{
		logger: logger.Named("tx-emulator"),
		engine: engine,
		cache:  cache,
	}

	if err := e.SetConfig(configBoc); err != nil {
		return nil, err
	}

	return e, nil
}

func (e *TransactionEmulator) SetUnixtime(unixtime uint32) {
	e.unixtime = unixtime
}

func (e *TransactionEmulator) SetLt(lt uint64) {
	e.lt = lt
}

// SetRandSeed takes the seed as a 64-character hex string
func (e *TransactionEmulator) SetRandSeed(randSeedHex string) error {
	seed, err := types.StringToHash(randSeedHex)
	if err != nil {
		return fmt.Errorf("can't decode hex rand seed: %w", err)
	}

	e.randSeed = seed

	return nil
}

func (e *TransactionEmulator) SetIgnoreChksig(ignoreChksig bool) {
	e.ignoreChksig = ignoreChksig
}

func (e *TransactionEmulator) SetConfig(configBoc string) error {
	config, err := e.cache.decodeBase64Cell(configBoc)
	if err != nil {
		return fmt.Errorf("can't decode config params boc: %w", err)
	}

	e.config = config

	return nil
}

func (e *TransactionEmulator) SetLibs(libsBoc string) error {
	if libsBoc == "" {
		e.libs = nil

		return nil
	}

	libs, err := e.cache.decodeBase64Cell(libsBoc)
	if err != nil {
		return fmt.Errorf("can't decode shardchain libraries boc: %w", err)
	}

	e.libs = libs

	return nil
}

// EmulateTransaction decodes the account and message payloads,
// resolves the destination address, runs the engine and re-serializes
// its outputs. The return value is always a JSON response envelope;
// failures surface as error envelopes, never as a panic
func (e *TransactionEmulator) EmulateTransaction(shardAccountBoc, messageBoc string) []byte {
	message, err := decodeBase64CellNamed(messageBoc, "message")
	if err != nil {
		return errorJSON(err.Error())
	}

	shardAccount, err := decodeBase64CellNamed(shardAccountBoc, "shard account")
	if err != nil {
		return errorJSON(err.Error())
	}

	addr, err := ResolveAccountAddress(message, shardAccount)
	if err != nil {
		return errorJSON(err.Error())
	}

	e.logger.Debug("emulating transaction", "address", addr.String())

	result, err := e.engine.EmulateTransaction(TxParams{
		Address:      addr,
		ShardAccount: shardAccount,
		Message:      message,
		Config:       e.config,
		Libs:         e.libs,
		Unixtime:     e.unixtime,
		Lt:           e.lt,
		RandSeed:     e.randSeed,
		IgnoreChksig: e.ignoreChksig,
	})
	if err != nil {
		return errorJSON(fmt.Sprintf("emulate transaction failed: %s", err.Error()))
	}

	if !result.Accepted {
		return externalNotAcceptedJSON(result.VMLog, result.VMExitCode)
	}

	transactionB64 := base64.StdEncoding.EncodeToString(cell.Serialize(result.Transaction, true))

	newShardAccount, err := buildShardAccountCell(result)
	if err != nil {
		return errorJSON(fmt.Sprintf("can't serialize shard account: %s", err.Error()))
	}

	shardAccountB64 := base64.StdEncoding.EncodeToString(cell.Serialize(newShardAccount, true))

	return successJSON(transactionB64, shardAccountB64, result.VMLog)
}

// buildShardAccountCell re-packs the engine's post-transaction state
// into the ledger wrapper layout
func buildShardAccountCell(result *TxResult) (*cell.Cell, error) {
	b := cell.NewBuilder()

	if err := b.StoreRef(result.TotalState); err != nil {
		return nil, err
	}

	if err := b.StoreBits(result.LastTransHash.Bytes(), types.HashLength*8); err != nil {
		return nil, err
	}

	if err := b.StoreUint(result.LastTransLT, 64); err != nil {
		return nil, err
	}

	return b.Finalize()
}

// decodeBase64CellNamed decodes a one-off payload, annotating errors
// with the payload name
func decodeBase64CellNamed(boc, name string) (*cell.Cell, error) {
	raw, err := base64.StdEncoding.DecodeString(boc)
	if err != nil {
		return nil, fmt.Errorf("can't decode base64 %s boc: %w", name, err)
	}

	c, err := cell.Deserialize(raw)
	if err != nil {
		return nil, fmt.Errorf("can't deserialize %s boc: %w", name, err)
	}

	return c, nil
}

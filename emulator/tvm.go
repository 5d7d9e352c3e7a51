package emulator

import (
	"fmt"
	"strconv"

	"github.com/hashicorp/go-hclog"

	"github.com/toncell-lab/emubridge/cell"
	"github.com/toncell-lab/emubridge/types"
	"github.com/toncell-lab/emubridge/vmstack"
)

// TvmEmulator drives get-method invocation against a single
// code/data pair through the external engine
type TvmEmulator struct {
	logger hclog.Logger
	engine Engine
	cache  *CellCache

	code *cell.Cell
	data *cell.Cell
	libs *cell.Cell

	gasLimit int64

	// c7 environment
	address  types.Address
	unixtime uint32
	balance  uint64
	randSeed types.Hash
	config   *cell.Cell
}

// NewTvmEmulator decodes the code and data bags and binds the external
// engine. The cache is shared across sessions; a nil cache gets a
// private one
func NewTvmEmulator(
	logger hclog.Logger,
	engine Engine,
	cache *CellCache,
	codeBoc, dataBoc string,
) (*TvmEmulator, error) {
	if cache == nil {
		cache = NewCellCache(defaultCellCacheSize)
	}

	e := &TvmEmulator{
		logger: logger.Named("tvm-emulator"),
		engine: engine,
		cache:  cache,
	}

	code, err := decodeBase64CellNamed(codeBoc, "code")
	if err != nil {
		return nil, err
	}

	data, err := decodeBase64CellNamed(dataBoc, "data")
	if err != nil {
		return nil, err
	}

	e.code = code
	e.data = data

	return e, nil
}

func (e *TvmEmulator) SetGasLimit(gasLimit int64) {
	e.gasLimit = gasLimit
}

func (e *TvmEmulator) SetLibraries(libsBoc string) error {
	libs, err := e.cache.decodeBase64Cell(libsBoc)
	if err != nil {
		return fmt.Errorf("can't decode libraries boc: %w", err)
	}

	e.libs = libs

	return nil
}

// SetC7 fills the environment tuple parameters: the contract's own
// address, the wall clock, its balance, a hex seed and the global
// config
func (e *TvmEmulator) SetC7(address string, unixtime uint32, balance uint64, randSeedHex, configBoc string) error {
	addr, err := types.StringToAddress(address)
	if err != nil {
		return fmt.Errorf("can't parse address: %w", err)
	}

	seed, err := types.StringToHash(randSeedHex)
	if err != nil {
		return fmt.Errorf("can't decode hex rand seed: %w", err)
	}

	config, err := e.cache.decodeBase64Cell(configBoc)
	if err != nil {
		return fmt.Errorf("can't decode config params boc: %w", err)
	}

	e.address = addr
	e.unixtime = unixtime
	e.balance = balance
	e.randSeed = seed
	e.config = config

	return nil
}

// RunGetMethod decodes the JSON stack, invokes the engine and encodes
// the result stack back. The return value is always a JSON response
// envelope
func (e *TvmEmulator) RunGetMethod(methodID int, stackJSON []byte) []byte {
	stack, err := vmstack.DecodeStack(stackJSON)
	if err != nil {
		return errorJSON(fmt.Sprintf("error parsing stack: %s", err.Error()))
	}

	e.logger.Debug("running get method", "method_id", methodID, "stack_depth", len(stack))

	result, err := e.engine.RunGetMethod(GetMethodParams{
		Code:     e.code,
		Data:     e.data,
		Libs:     e.libs,
		MethodID: methodID,
		Stack:    stack,
		GasLimit: e.gasLimit,
		Address:  e.address,
		Unixtime: e.unixtime,
		Balance:  e.balance,
		RandSeed: e.randSeed,
		Config:   e.config,
	})
	if err != nil {
		return errorJSON(fmt.Sprintf("run get method failed: %s", err.Error()))
	}

	encodedStack, err := vmstack.EncodeStack(result.Stack)
	if err != nil {
		return errorJSON(fmt.Sprintf("can't serialize result stack: %s", err.Error()))
	}

	var missingLibrary *string

	if result.MissingLibrary != nil {
		hex := result.MissingLibrary.String()
		missingLibrary = &hex
	}

	return marshalResponse(&getMethodResponse{
		Success:        true,
		Stack:          encodedStack,
		GasUsed:        strconv.FormatInt(result.GasUsed, 10),
		VMExitCode:     result.ExitCode,
		VMLog:          result.VMLog,
		MissingLibrary: missingLibrary,
	})
}

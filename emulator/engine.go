package emulator

import (
	"errors"

	"github.com/toncell-lab/emubridge/cell"
	"github.com/toncell-lab/emubridge/types"
	"github.com/toncell-lab/emubridge/vmstack"
)

// Engine is the external execution collaborator. The boundary prepares
// its inputs and re-serializes its outputs, but never interprets
// contract code itself
type Engine interface {
	EmulateTransaction(params TxParams) (*TxResult, error)
	RunGetMethod(params GetMethodParams) (*GetMethodResult, error)
}

// TxParams carries everything the engine needs for one
// state-transition emulation
type TxParams struct {
	Address      types.Address
	ShardAccount *cell.Cell
	Message      *cell.Cell
	Config       *cell.Cell
	Libs         *cell.Cell

	Unixtime     uint32
	Lt           uint64
	RandSeed     types.Hash
	IgnoreChksig bool
}

// TxResult is the engine's state-transition outcome. When an external
// message is not accepted, Accepted is false and only VMLog and
// VMExitCode are meaningful
type TxResult struct {
	Accepted   bool
	VMLog      string
	VMExitCode int

	Transaction   *cell.Cell
	TotalState    *cell.Cell
	LastTransHash types.Hash
	LastTransLT   uint64
}

// GetMethodParams carries one get-method invocation
type GetMethodParams struct {
	Code     *cell.Cell
	Data     *cell.Cell
	Libs     *cell.Cell
	MethodID int
	Stack    vmstack.Stack
	GasLimit int64

	// c7 environment, optional
	Address  types.Address
	Unixtime uint32
	Balance  uint64
	RandSeed types.Hash
	Config   *cell.Cell
}

// GetMethodResult is the engine's get-method outcome
type GetMethodResult struct {
	Stack          vmstack.Stack
	GasUsed        int64
	ExitCode       int
	VMLog          string
	MissingLibrary *types.Hash
}

// UnimplementedEngine is the binding point used until a real
// interpreter is linked in. Every call reports the missing engine
type UnimplementedEngine struct{}

func (UnimplementedEngine) EmulateTransaction(TxParams) (*TxResult, error) {
	return nil, errNoEngine
}

func (UnimplementedEngine) RunGetMethod(GetMethodParams) (*GetMethodResult, error) {
	return nil, errNoEngine
}

var errNoEngine = errors.New("no execution engine configured")

package server

import (
	"encoding/json"
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/toncell-lab/emubridge/emulator"
)

// emulateRequest is one transaction emulation call
type emulateRequest struct {
	Config       string `json:"config"`
	ShardAccount string `json:"shard_account"`
	Message      string `json:"message"`
	Libs         string `json:"libs,omitempty"`
	Unixtime     uint32 `json:"unixtime,omitempty"`
	Lt           uint64 `json:"lt,omitempty"`
	RandSeed     string `json:"rand_seed,omitempty"`
	IgnoreChksig bool   `json:"ignore_chksig,omitempty"`
}

// c7Request carries the optional get-method environment
type c7Request struct {
	Address  string `json:"address"`
	Unixtime uint32 `json:"unixtime"`
	Balance  uint64 `json:"balance"`
	RandSeed string `json:"rand_seed"`
	Config   string `json:"config"`
}

// getMethodRequest is one get-method call
type getMethodRequest struct {
	Code     string          `json:"code"`
	Data     string          `json:"data"`
	MethodID int             `json:"method_id"`
	Stack    json.RawMessage `json:"stack"`
	GasLimit int64           `json:"gas_limit,omitempty"`
	Libs     string          `json:"libs,omitempty"`
	C7       *c7Request      `json:"c7,omitempty"`
}

// dispatcher binds request payloads to emulator sessions. Sessions are
// per request; only the engine and the decoded-cell cache persist, so
// config and library payloads resent across requests decode once
type dispatcher struct {
	logger hclog.Logger
	engine emulator.Engine
	cache  *emulator.CellCache
}

func newDispatcher(logger hclog.Logger, engine emulator.Engine) *dispatcher {
	return &dispatcher{
		logger: logger.Named("dispatcher"),
		engine: engine,
		cache:  emulator.NewCellCache(0),
	}
}

// HandleEmulate runs one transaction emulation. The response is always
// a JSON envelope
func (d *dispatcher) HandleEmulate(body []byte) []byte {
	var req emulateRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return emulator.ErrorResponse(fmt.Sprintf("can't decode request: %s", err.Error()))
	}

	emu, err := emulator.NewTransactionEmulator(d.logger, d.engine, d.cache, req.Config)
	if err != nil {
		return emulator.ErrorResponse(err.Error())
	}

	emu.SetUnixtime(req.Unixtime)
	emu.SetLt(req.Lt)
	emu.SetIgnoreChksig(req.IgnoreChksig)

	if req.RandSeed != "" {
		if err := emu.SetRandSeed(req.RandSeed); err != nil {
			return emulator.ErrorResponse(err.Error())
		}
	}

	if err := emu.SetLibs(req.Libs); err != nil {
		return emulator.ErrorResponse(err.Error())
	}

	return emu.EmulateTransaction(req.ShardAccount, req.Message)
}

// HandleRunGetMethod runs one get-method invocation. The response is
// always a JSON envelope
func (d *dispatcher) HandleRunGetMethod(body []byte) []byte {
	var req getMethodRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return emulator.ErrorResponse(fmt.Sprintf("can't decode request: %s", err.Error()))
	}

	emu, err := emulator.NewTvmEmulator(d.logger, d.engine, d.cache, req.Code, req.Data)
	if err != nil {
		return emulator.ErrorResponse(err.Error())
	}

	emu.SetGasLimit(req.GasLimit)

	if req.Libs != "" {
		if err := emu.SetLibraries(req.Libs); err != nil {
			return emulator.ErrorResponse(err.Error())
		}
	}

	if req.C7 != nil {
		err := emu.SetC7(req.C7.Address, req.C7.Unixtime, req.C7.Balance, req.C7.RandSeed, req.C7.Config)
		if err != nil {
			return emulator.ErrorResponse(err.Error())
		}
	}

	if len(req.Stack) == 0 {
		req.Stack = []byte("[]")
	}

	return emu.RunGetMethod(req.MethodID, req.Stack)
}

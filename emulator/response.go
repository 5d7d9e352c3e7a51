package emulator

import "encoding/json"

// successResponse is the envelope for a completed transaction
// emulation
type successResponse struct {
	Success      bool   `json:"success"`
	Transaction  string `json:"transaction"`
	ShardAccount string `json:"shard_account"`
	VMLog        string `json:"vm_log"`
}

// errorResponse is the envelope for any boundary failure
type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// notAcceptedResponse is the envelope for an external message the
// contract did not accept
type notAcceptedResponse struct {
	Success    bool   `json:"success"`
	Error      string `json:"error"`
	VMLog      string `json:"vm_log"`
	VMExitCode int    `json:"vm_exit_code"`
}

// getMethodResponse is the envelope for a completed get-method run
type getMethodResponse struct {
	Success        bool            `json:"success"`
	Stack          json.RawMessage `json:"stack"`
	GasUsed        string          `json:"gas_used"`
	VMExitCode     int             `json:"vm_exit_code"`
	VMLog          string          `json:"vm_log"`
	MissingLibrary *string         `json:"missing_library"`
}

const externalNotAcceptedError = "External message not accepted by smart contract"

// ErrorResponse builds the boundary's structured error envelope
func ErrorResponse(message string) []byte {
	return errorJSON(message)
}

func marshalResponse(v interface{}) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		// envelope types only hold strings and ints
		panic(err)
	}

	return data
}

func successJSON(transaction, shardAccount, vmLog string) []byte {
	return marshalResponse(&successResponse{
		Success:      true,
		Transaction:  transaction,
		ShardAccount: shardAccount,
		VMLog:        vmLog,
	})
}

func errorJSON(message string) []byte {
	return marshalResponse(&errorResponse{
		Success: false,
		Error:   message,
	})
}

func externalNotAcceptedJSON(vmLog string, vmExitCode int) []byte {
	return marshalResponse(&notAcceptedResponse{
		Success:    false,
		Error:      externalNotAcceptedError,
		VMLog:      vmLog,
		VMExitCode: vmExitCode,
	})
}

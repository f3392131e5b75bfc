package vmerrs

import "errors"

// Common VM errors, kept for parity with the execution engine's own
// precompile dispatch (github.com/luxfi/geth/core/vm).
var (
	ErrInvalidJump              = errors.New("invalid jump")
	ErrOutOfGas                 = errors.New("out of gas")
	ErrExecutionReverted        = errors.New("execution reverted")
	ErrWriteProtection          = errors.New("write protection")
	ErrInsufficientBalance      = errors.New("insufficient balance")
	ErrDepth                    = errors.New("max call depth exceeded")
	ErrAddrProhibited           = errors.New("address prohibited")
	ErrMaxCodeSizeExceeded      = errors.New("max code size exceeded")
	ErrInvalidCode              = errors.New("invalid code")
	ErrCodeStoreOutOfGas        = errors.New("contract creation code storage out of gas")
	ErrNonceUintOverflow        = errors.New("nonce uint64 overflow")
	ErrContractAddressCollision = errors.New("contract address collision")
	ErrGasUintOverflow          = errors.New("gas uint64 overflow")
	ErrReturnDataOutOfBounds    = errors.New("return data out of bounds")
)

// Native-transfer precompile and inspector error kinds (see design doc,
// component 1 and 2). These are sentinel values rather than typed errors
// because every one of them surfaces identically: an EVM revert with a
// descriptive reason, never a local-recovery path.
var (
	ErrInvalidInputLength  = errors.New("invalid input length")
	ErrTransferToZero      = errors.New("transfer to zero address")
	ErrTransferFailed      = errors.New("transfer failed")
	ErrUnauthorizedCaller  = errors.New("unauthorized caller")
	ErrPerCallCapExceeded  = errors.New("per-call cap exceeded")
	ErrPerBlockCapExceeded = errors.New("per-block cap exceeded")
)

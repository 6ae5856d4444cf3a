package engine

import "errors"

var (
	// ErrStaticFeeConfig rejects pools whose fee configuration does not
	// allow externally-overridden fees. No state is created for such pools.
	ErrStaticFeeConfig = errors.New("pool fee config does not allow fee overrides")

	// ErrPoolExists rejects double initialization of a pool.
	ErrPoolExists = errors.New("pool already initialized")

	// ErrPoolNotInitialized is returned for any operation against a pool
	// the engine has never initialized. Callers must not treat this as a
	// zero fee.
	ErrPoolNotInitialized = errors.New("pool not initialized")

	// ErrTradeInFlight rejects a fee quote while a previous trade on the
	// same pool is still awaiting reconciliation.
	ErrTradeInFlight = errors.New("previous trade not yet reconciled")

	// ErrNoTradeInFlight rejects a reconciliation with no matching quote.
	ErrNoTradeInFlight = errors.New("no trade awaiting reconciliation")
)

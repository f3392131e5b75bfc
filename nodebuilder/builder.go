// Copyright 2025 AndeLabs. All rights reserved.
// See the file LICENSE for licensing terms.

// Package nodebuilder implements the Node Components Builder (design doc
// component 11): it assembles the EVM Factory Wrapper and Consensus Engine
// Wrapper against the external execution engine's builder contract. It is
// the composition root an external plugin loader calls into; it owns no
// other state.
package nodebuilder

import (
	"github.com/luxfi/log"

	"github.com/AndeLabs/ande-chain/circuitbreaker"
	"github.com/AndeLabs/ande-chain/config"
	"github.com/AndeLabs/ande-chain/consensus/beacon"
	"github.com/AndeLabs/ande-chain/consensus/bftwrapper"
	"github.com/AndeLabs/ande-chain/executor"
	"github.com/AndeLabs/ande-chain/evmfactory"
	"github.com/AndeLabs/ande-chain/interfaces"
	andemetrics "github.com/AndeLabs/ande-chain/metrics/prometheus"
	"github.com/AndeLabs/ande-chain/mev"
	"github.com/AndeLabs/ande-chain/precompile/inspector"
	"github.com/AndeLabs/ande-chain/validatorset"
)

// ComponentsBuilder is the external execution engine's plugin contract
// this module's assembled components are handed to. It is an
// external-collaborator interface (design doc §1): this module never
// implements it, only consumes it.
type ComponentsBuilder interface {
	// RegisterEngine installs a consensus engine as the node's active
	// consensus implementation.
	RegisterEngine(engine interfaces.Engine)
	// RegisterPrecompileOverride installs a precompile dispatch override,
	// matching the inner EVM's PrecompileOverrider hook.
	RegisterPrecompileOverride(override interface{})
}

// Components is everything this module assembles for a running node.
type Components struct {
	Executor   *executor.Executor
	Breaker    *circuitbreaker.Breaker
	Inspector  *inspector.Inspector
	MEV        *mev.Redirect
	Validators *validatorset.Store
	Consensus  interfaces.Engine
	// EVMFactory is the precompile-override/pre-call/post-call hook set the
	// external execution engine installs on its own EVM factory. The inner
	// factory type is a placeholder here (struct{}) until that engine's
	// concrete factory type is wired in by the caller.
	EVMFactory *evmfactory.Factory[struct{}]
}

// Build wires every component from design doc §2's data-flow description:
// consensus wrapper -> validator set -> EVM factory wrapper -> parallel
// executor with circuit-breaker supervision -> precompile inspector/
// registry -> MEV redirect. collectors may be nil, in which case no
// breaker-state gauge is wired (e.g. when ANDE_METRICS_ADDR is empty).
func Build(cfg *config.Config, innerConsensus interfaces.Engine, logger log.Logger, collectors *andemetrics.Collectors) (*Components, error) {
	if logger == nil {
		logger = log.Root()
	}

	var breakerOpts []circuitbreaker.Option
	if collectors != nil {
		breakerOpts = append(breakerOpts, circuitbreaker.WithStateChangeHook(func(s circuitbreaker.State) {
			collectors.BreakerState.Set(float64(s))
		}))
	}
	breaker := circuitbreaker.New(0, 0, breakerOpts...)
	insp := inspector.New(cfg.Precompile, logger, inspectorMetrics(collectors))
	exec := executor.New(breaker, executor.WithLogger(logger))

	var mevRedirect *mev.Redirect
	if cfg.MEV.Enabled {
		var err error
		mevRedirect, err = mev.New(mev.Config{Sink: cfg.MEV.Sink, MinThreshold: cfg.MEV.MinThreshold}, logger)
		if err != nil {
			return nil, err
		}
	}

	var validators *validatorset.Store
	var consensusEngine interfaces.Engine = innerConsensus
	if innerConsensus == nil {
		consensusEngine = beacon.New()
	}

	if cfg.Consensus.Enabled {
		var err error
		validators, err = validatorset.New(cfg.Consensus.Validators, 0)
		if err != nil {
			return nil, err
		}
		consensusEngine = bftwrapper.New(consensusEngine, validators, true, logger)
	}

	factory := evmfactory.New(struct{}{}, insp, mevRedirect)

	return &Components{
		Executor:   exec,
		Breaker:    breaker,
		Inspector:  insp,
		MEV:        mevRedirect,
		Validators: validators,
		Consensus:  consensusEngine,
		EVMFactory: factory,
	}, nil
}

// inspectorMetrics adapts andemetrics.Collectors into the inspector's
// narrow Metrics callback surface. Returns nil when collectors is nil,
// which inspector.New treats as "perform no counting."
func inspectorMetrics(collectors *andemetrics.Collectors) *inspector.Metrics {
	if collectors == nil {
		return nil
	}
	return &inspector.Metrics{
		UnauthorizedCaller:  func() { collectors.InspectorRejections.WithLabelValues("unauthorized_caller").Inc() },
		InvalidInputLength:  func() { collectors.InspectorRejections.WithLabelValues("invalid_input_length").Inc() },
		PerCallCapExceeded:  func() { collectors.InspectorRejections.WithLabelValues("per_call_cap").Inc() },
		PerBlockCapExceeded: func() { collectors.InspectorRejections.WithLabelValues("per_block_cap").Inc() },
	}
}

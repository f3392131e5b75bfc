// Copyright 2025 AndeLabs. All rights reserved.
// See the file LICENSE for licensing terms.

// Package config loads the process-wide Config from environment variables
// (design doc §6), binding them through spf13/viper with spf13/pflag flag
// definitions, in the pattern of luxfi/evm's cmd/simulator/config
// (config.BuildFlagSet / config.BuildViper / config.BuildConfig).
package config

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/spf13/cast"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	pconfig "github.com/AndeLabs/ande-chain/precompile/config"
	"github.com/AndeLabs/ande-chain/validatorset"
)

// Environment variable names, design doc §6.
const (
	envPrecompileAddress   = "ANDE_PRECOMPILE_ADDRESS"
	envTokenAddress        = "ANDE_TOKEN_ADDRESS"
	envAllowList           = "ANDE_ALLOW_LIST"
	envPerCallCap          = "ANDE_PER_CALL_CAP"
	envPerBlockCap         = "ANDE_PER_BLOCK_CAP"
	envStrictValidation    = "ANDE_STRICT_VALIDATION"
	envConsensusEnabled    = "ANDE_CONSENSUS_ENABLED"
	envConsensusValidators = "ANDE_CONSENSUS_VALIDATORS"
	envConsensusThreshold  = "ANDE_CONSENSUS_THRESHOLD"
	envMEVEnabled          = "ANDE_MEV_ENABLED"
	envMEVSink             = "ANDE_MEV_SINK"
	envMEVMinThreshold     = "ANDE_MEV_MIN_THRESHOLD"

	envLogLevel   = "ANDE_LOG_LEVEL"
	envLogFile    = "ANDE_LOG_FILE"
	envMetricsAddr = "ANDE_METRICS_ADDR"
)

// ConsensusConfig is the consensus-wrapper slice of process config.
type ConsensusConfig struct {
	Enabled    bool
	Validators []validatorset.Validator
	// ThresholdPercent is advisory only (design doc §6): the real
	// Byzantine threshold is always floor(2W/3)+1, computed by
	// validatorset.Store.Threshold.
	ThresholdPercent int
}

// MEVConfig is the MEV-redirect slice of process config.
type MEVConfig struct {
	Enabled      bool
	Sink         common.Address
	MinThreshold *uint256.Int
}

// Config aggregates every process-wide configuration this module needs,
// plus the ambient fields (log level/file, metrics listen address) every
// entrypoint in the teacher corpus carries alongside its domain config.
type Config struct {
	Precompile *pconfig.PrecompileConfig
	Consensus  ConsensusConfig
	MEV        MEVConfig

	LogLevel    string
	LogFile     string
	MetricsAddr string
}

// BuildFlagSet declares the pflag.FlagSet this module's CLI entrypoint
// binds, matching luxfi/evm's cmd/simulator/main pattern of a flag set
// handed to viper via BindPFlags.
func BuildFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("ande-chain", pflag.ContinueOnError)
	fs.String("log-level", "info", "log level (trace|debug|info|warn|error|crit)")
	fs.String("log-file", "", "log file path (rotated via lumberjack); empty means stderr only")
	fs.String("metrics-addr", "", "Prometheus metrics listen address; empty disables the metrics server")
	return fs
}

// BuildViper binds environment variables and CLI flags into a *viper.Viper,
// matching luxfi/evm's config.BuildViper(fs, args).
func BuildViper(fs *pflag.FlagSet, args []string) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("ande")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	for _, name := range []string{
		envPrecompileAddress, envTokenAddress, envAllowList, envPerCallCap, envPerBlockCap,
		envStrictValidation, envConsensusEnabled, envConsensusValidators, envConsensusThreshold,
		envMEVEnabled, envMEVSink, envMEVMinThreshold, envLogLevel, envLogFile, envMetricsAddr,
	} {
		if err := v.BindEnv(name, name); err != nil {
			return nil, fmt.Errorf("config: bind env %s: %w", name, err)
		}
	}

	if fs != nil {
		if err := fs.Parse(args); err != nil {
			return nil, fmt.Errorf("config: parse flags: %w", err)
		}
		if err := v.BindPFlags(fs); err != nil {
			return nil, fmt.Errorf("config: bind flags: %w", err)
		}
	}

	return v, nil
}

// Load reads environment variables (design doc §6 table) into a validated
// Config. It never substitutes a silently-guessed default for a malformed
// value: booleans and addresses that fail to parse return a ConfigError.
func Load(v *viper.Viper) (*Config, error) {
	addrStr := v.GetString(envPrecompileAddress)
	address := pconfig.DefaultAddress
	if addrStr != "" {
		if !common.IsHexAddress(addrStr) {
			return nil, &ConfigError{Field: envPrecompileAddress, Reason: "not a valid hex address"}
		}
		address = common.HexToAddress(addrStr)
	}

	tokenAddrStr := v.GetString(envTokenAddress)
	var tokenAddr common.Address
	if tokenAddrStr != "" {
		if !common.IsHexAddress(tokenAddrStr) {
			return nil, &ConfigError{Field: envTokenAddress, Reason: "not a valid hex address"}
		}
		tokenAddr = common.HexToAddress(tokenAddrStr)
	}

	var extraAllowed []common.Address
	if raw := v.GetString(envAllowList); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if !common.IsHexAddress(part) {
				return nil, &ConfigError{Field: envAllowList, Reason: fmt.Sprintf("invalid address %q", part)}
			}
			extraAllowed = append(extraAllowed, common.HexToAddress(part))
		}
	}

	perCallCap, err := parseOptionalU256(v, envPerCallCap)
	if err != nil {
		return nil, err
	}
	perBlockCap, err := parseOptionalU256(v, envPerBlockCap)
	if err != nil {
		return nil, err
	}

	strict, err := parseBoolDefault(v, envStrictValidation, true)
	if err != nil {
		return nil, err
	}

	precompileCfg, err := pconfig.New(address, tokenAddr, extraAllowed, perCallCap, perBlockCap, strict)
	if err != nil {
		return nil, &ConfigError{Field: "precompile", Reason: err.Error()}
	}

	consensusEnabled, err := parseBoolDefault(v, envConsensusEnabled, false)
	if err != nil {
		return nil, err
	}
	var validators []validatorset.Validator
	if consensusEnabled {
		validators, err = parseValidators(v.GetString(envConsensusValidators))
		if err != nil {
			return nil, err
		}
		if len(validators) == 0 {
			return nil, &ConfigError{Field: envConsensusValidators, Reason: "required when consensus is enabled"}
		}
	}

	mevEnabled, err := parseBoolDefault(v, envMEVEnabled, false)
	if err != nil {
		return nil, err
	}
	var mevSink common.Address
	if mevEnabled {
		sinkStr := v.GetString(envMEVSink)
		if sinkStr == "" || !common.IsHexAddress(sinkStr) {
			return nil, &ConfigError{Field: envMEVSink, Reason: "required, non-zero hex address when MEV is enabled"}
		}
		mevSink = common.HexToAddress(sinkStr)
		if mevSink == (common.Address{}) {
			return nil, &ConfigError{Field: envMEVSink, Reason: "must not be the zero address"}
		}
	}
	mevMinThreshold, err := parseOptionalU256(v, envMEVMinThreshold)
	if err != nil {
		return nil, err
	}
	if mevMinThreshold == nil {
		mevMinThreshold = uint256.NewInt(0)
	}

	thresholdPercent, err := parseIntDefault(v, envConsensusThreshold, 0)
	if err != nil {
		return nil, err
	}

	return &Config{
		Precompile: precompileCfg,
		Consensus: ConsensusConfig{
			Enabled:          consensusEnabled,
			Validators:       validators,
			ThresholdPercent: thresholdPercent,
		},
		MEV: MEVConfig{
			Enabled:      mevEnabled,
			Sink:         mevSink,
			MinThreshold: mevMinThreshold,
		},
		LogLevel:    orDefault(v.GetString(envLogLevel), v.GetString("log-level"), "info"),
		LogFile:     orDefault(v.GetString(envLogFile), v.GetString("log-file"), ""),
		MetricsAddr: orDefault(v.GetString(envMetricsAddr), v.GetString("metrics-addr"), ""),
	}, nil
}

func orDefault(values ...string) string {
	for _, v := range values[:len(values)-1] {
		if v != "" {
			return v
		}
	}
	return values[len(values)-1]
}

func parseOptionalU256(v *viper.Viper, key string) (*uint256.Int, error) {
	raw := v.GetString(key)
	if raw == "" {
		return nil, nil
	}
	n, err := uint256.FromDecimal(raw)
	if err != nil {
		return nil, &ConfigError{Field: key, Reason: "not a valid decimal uint256"}
	}
	return n, nil
}

// parseIntDefault parses key as an integer via spf13/cast, which (unlike
// parseBoolDefault's deliberately stricter hand-rolled parser) is the right
// tool here: ThresholdPercent is advisory telemetry, not a security
// boundary, so cast's permissive numeric coercion (accepting "42", 42.0,
// etc.) is acceptable where an unrecognized boolean string is not.
func parseIntDefault(v *viper.Viper, key string, def int) (int, error) {
	raw := v.GetString(key)
	if raw == "" {
		return def, nil
	}
	n, err := cast.ToIntE(raw)
	if err != nil {
		return 0, &ConfigError{Field: key, Reason: fmt.Sprintf("invalid integer %q", raw)}
	}
	return n, nil
}

// parseBoolDefault accepts case-insensitive true|1|yes / false|0|no and
// rejects everything else with a ConfigError, per design doc §6 ("any
// other value is rejected with an error, no silent default substitution").
// This is intentionally stricter than spf13/cast's ToBool, which treats an
// unrecognized string as false.
func parseBoolDefault(v *viper.Viper, key string, def bool) (bool, error) {
	raw := v.GetString(key)
	if raw == "" {
		return def, nil
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "1", "yes":
		return true, nil
	case "false", "0", "no":
		return false, nil
	default:
		return false, &ConfigError{Field: key, Reason: fmt.Sprintf("invalid boolean %q", raw)}
	}
}

// validatorJSON is the wire shape of ANDE_CONSENSUS_VALIDATORS entries.
type validatorJSON struct {
	Address string `json:"address"`
	Weight  uint64 `json:"weight"`
}

func parseValidators(raw string) ([]validatorset.Validator, error) {
	if raw == "" {
		return nil, nil
	}
	var entries []validatorJSON
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, &ConfigError{Field: envConsensusValidators, Reason: err.Error()}
	}
	out := make([]validatorset.Validator, 0, len(entries))
	for _, e := range entries {
		if !common.IsHexAddress(e.Address) {
			return nil, &ConfigError{Field: envConsensusValidators, Reason: fmt.Sprintf("invalid address %q", e.Address)}
		}
		out = append(out, validatorset.Validator{Address: common.HexToAddress(e.Address), Weight: e.Weight})
	}
	return out, nil
}

// ConfigError is design doc §7's ConfigError kind: "process exit."
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

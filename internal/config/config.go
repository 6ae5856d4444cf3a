package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ReplayConfig holds configuration for the replay command, merged from
// flags, environment, and config file.
type ReplayConfig struct {
	Input     string
	Out       string
	PGDSN     string
	BatchSize int

	Strategy           string
	MinFeePpm          uint32
	BaseFeePpm         uint32
	MaxFeePpm          uint32
	PeriodCarry        bool
	SizeSurcharge      bool
	DepthFromLiquidity bool

	InitialTick int32
	Liquidity   string
	Balance0    string
	Balance1    string

	LogLevel string
}

// LoadReplay merges config file, environment variables, and flags into
// a ReplayConfig.
func LoadReplay(cfgFile string, flags *pflag.FlagSet) (ReplayConfig, error) {
	v := viper.New()
	v.SetEnvPrefix("LVRFEE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("out", "./data/fee_decisions.jsonl")
	v.SetDefault("batch-size", 1000)
	v.SetDefault("strategy", "period-close")
	v.SetDefault("min-fee", uint32(1000))
	v.SetDefault("max-fee", uint32(1_000_000))
	v.SetDefault("liquidity", "1000000000000000000")
	v.SetDefault("balance0", "0")
	v.SetDefault("balance1", "0")
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return ReplayConfig{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return ReplayConfig{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return ReplayConfig{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := ReplayConfig{
		Input:              v.GetString("in"),
		Out:                v.GetString("out"),
		PGDSN:              v.GetString("pg-dsn"),
		BatchSize:          v.GetInt("batch-size"),
		Strategy:           v.GetString("strategy"),
		MinFeePpm:          v.GetUint32("min-fee"),
		BaseFeePpm:         v.GetUint32("base-fee"),
		MaxFeePpm:          v.GetUint32("max-fee"),
		PeriodCarry:        v.GetBool("period-carry"),
		SizeSurcharge:      v.GetBool("size-surcharge"),
		DepthFromLiquidity: v.GetBool("depth-from-liquidity"),
		InitialTick:        v.GetInt32("initial-tick"),
		Liquidity:          v.GetString("liquidity"),
		Balance0:           v.GetString("balance0"),
		Balance1:           v.GetString("balance1"),
		LogLevel:           v.GetString("log-level"),
	}

	return cfg, nil
}

// Package config holds HostClientConfig and ServerConfig with their
// defaults, the urfave/cli flags that override HostClientConfig fields,
// and LoadDotEnv, which loads a .env file into the process environment via
// joho/godotenv (spec.md 6). No config field or flag here reads
// environment variables.
package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli"

	"github.com/sandia-minimega/icdrpc/v2/pkg/wirekey"
)

// HostClientConfig mirrors spec.md 6's "per host client" options.
type HostClientConfig struct {
	ErrURIPath              string
	OutgoingDepth           int
	SeqKind                 wirekey.Width
	SubscriberTimeoutIfFull time.Duration
	RetryBits               uint8
}

// DefaultHostClientConfig matches the original implementation's defaults:
// a 1-byte sequence, no subscriber blocking, no retry bits.
func DefaultHostClientConfig() HostClientConfig {
	return HostClientConfig{
		ErrURIPath:              "error",
		OutgoingDepth:           32,
		SeqKind:                 wirekey.Width1,
		SubscriberTimeoutIfFull: 0,
		RetryBits:               0,
	}
}

// ServerConfig holds the handful of runtime-tunable server knobs.
// min_key_len is deliberately absent: spec.md 6 says it is a build-time
// output of the schema-uniquing pass, not something an operator sets.
type ServerConfig struct {
	MaxInFlightSpawns int
	LogBufferSize     int
}

func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		MaxInFlightSpawns: 64,
		LogBufferSize:     512,
	}
}

// LoadDotEnv loads key=value pairs from path into the process environment
// if the file exists, silently doing nothing otherwise. It only sets
// environment variables; nothing in this package reads them back.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if isNotExist(err) {
			return nil
		}
		return err
	}
	return nil
}

func isNotExist(err error) bool {
	return os.IsNotExist(err)
}

// HostClientFlags returns the urfave/cli flags used by cmd/icdhostctl to
// override HostClientConfig.
func HostClientFlags(cfg *HostClientConfig) []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:        "err-path",
			Value:       cfg.ErrURIPath,
			Usage:       "URI path used to compute the wire error key",
			Destination: &cfg.ErrURIPath,
		},
		cli.IntFlag{
			Name:        "outgoing-depth",
			Value:       cfg.OutgoingDepth,
			Usage:       "bounded queue depth for outbound frames",
			Destination: &cfg.OutgoingDepth,
		},
		cli.DurationFlag{
			Name:        "subscriber-timeout",
			Value:       cfg.SubscriberTimeoutIfFull,
			Usage:       "how long to block delivering to a full exclusive subscription (0 = drop immediately)",
			Destination: &cfg.SubscriberTimeoutIfFull,
		},
	}
}

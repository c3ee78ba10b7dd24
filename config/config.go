// Package config turns flags, environment and an optional config.yaml into
// the settings of one recognition session.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"node.town/asrstream/speechpb"
)

// Viper keys. Flags are bound to these names in main.
const (
	KeyHost                     = "host"
	KeySampleRate               = "sample_rate"
	KeyContext                  = "context"
	KeyDisableITN               = "disable_itn"
	KeyDisableEndpointDetection = "disable_endpoint_detection"
	KeyContinuousDecoding       = "continuous_decoding"
	KeyConnectTimeout           = "connect_timeout"
	KeySummary                  = "summary"
	KeyLogLevel                 = "log_level"
)

const (
	DefaultHost           = "127.0.0.1:32768"
	DefaultSampleRate     = 16000
	DefaultConnectTimeout = 10 * time.Second
	DefaultLogLevel       = "info"

	// Endpoint silence thresholds in seconds.
	StartSilence = 10
	EndSilence   = 2

	EnvPrefix = "ASRSTREAM"
)

type Config struct {
	Host               string
	SampleRate         int
	Context            []string
	DisableITN         bool
	EndpointDetection  bool
	ContinuousDecoding bool
	ConnectTimeout     time.Duration
	Summary            bool
	LogLevel           string
}

// SetDefaults installs the defaults on v. Bound flags carry the same
// defaults; these cover keys read without a flag.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyHost, DefaultHost)
	v.SetDefault(KeySampleRate, DefaultSampleRate)
	v.SetDefault(KeyContext, "")
	v.SetDefault(KeyConnectTimeout, DefaultConnectTimeout)
	v.SetDefault(KeyLogLevel, DefaultLogLevel)
}

// Load reads and validates the session settings from v.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Host:               strings.TrimSpace(v.GetString(KeyHost)),
		SampleRate:         v.GetInt(KeySampleRate),
		Context:            ParseContext(v.GetString(KeyContext)),
		DisableITN:         v.GetBool(KeyDisableITN),
		EndpointDetection:  !v.GetBool(KeyDisableEndpointDetection),
		ContinuousDecoding: v.GetBool(KeyContinuousDecoding),
		ConnectTimeout:     v.GetDuration(KeyConnectTimeout),
		Summary:            v.GetBool(KeySummary),
		LogLevel:           v.GetString(KeyLogLevel),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Host == "" {
		errs = append(errs, errors.New("host is required"))
	}
	if c.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("sample_rate must be positive, got %d", c.SampleRate))
	}
	if c.ConnectTimeout <= 0 {
		errs = append(errs, fmt.Errorf("connect_timeout must be positive, got %s", c.ConnectTimeout))
	}
	return errors.Join(errs...)
}

// ParseContext splits comma separated context words. An empty string yields
// no words; otherwise every element is kept as written.
func ParseContext(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

// StreamingConfig builds the message that opens a recognition stream.
func (c *Config) StreamingConfig() *speechpb.StreamingRecognitionConfig {
	var words []string
	if len(c.Context) > 0 {
		words = append(words, c.Context...)
	}

	return &speechpb.StreamingRecognitionConfig{
		Config: &speechpb.RecognitionConfig{
			Encoding:                 speechpb.EncodingWAV16,
			SampleRate:               int32(c.SampleRate),
			Channel:                  1,
			MaxAlternatives:          1,
			QueryContext:             words,
			DisableItn:               c.DisableITN,
			EnableContinuousDecoding: c.ContinuousDecoding,
		},
		EndpointDetection: c.EndpointDetection,
		PartialResult:     true,
		EndpointConfig: &speechpb.EndpointConfig{
			StartSilence: StartSilence,
			EndSilence:   EndSilence,
		},
	}
}

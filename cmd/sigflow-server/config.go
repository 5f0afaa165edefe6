/*
 * MIT License
 *
 * Copyright (c) 2026 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package main

import (
	"reflect"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config is the server's full runtime configuration, loaded from a file
// (json/yaml/toml, whatever viper's SetConfigFile infers from its
// extension) plus SIGFLOW_-prefixed environment overrides.
type Config struct {
	SocketPath       string        `mapstructure:"socket_path"`
	DebugListen      string        `mapstructure:"debug_listen"`
	LogLevel         logrus.Level  `mapstructure:"log_level"`
	CyclePeriod      time.Duration `mapstructure:"cycle_period"`
	MaxConcurrency   int64         `mapstructure:"max_concurrency"`
	MinClientVersion string        `mapstructure:"min_client_version"`
}

func defaultConfig() Config {
	return Config{
		SocketPath:       "/run/sigflow/sigflow-0",
		DebugListen:      "127.0.0.1:9090",
		LogLevel:         logrus.InfoLevel,
		CyclePeriod:      10 * time.Millisecond,
		MaxConcurrency:   int64(4),
		MinClientVersion: "0.1.0",
	}
}

// logLevelDecodeHook converts a string log level ("debug", "info", ...)
// into logrus.Level during viper.Unmarshal, the same
// reflect.Kind-gated-then-type-gated shape as the teacher's
// file/perm.ViperDecoderHook (it converts its own string-typed field
// through mapstructure's DecodeHookFuncType too).
func logLevelDecodeHook() mapstructure.DecodeHookFuncType {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if from.Kind() != reflect.String {
			return data, nil
		}
		if to != reflect.TypeOf(logrus.InfoLevel) {
			return data, nil
		}
		s, ok := data.(string)
		if !ok {
			return data, nil
		}
		return logrus.ParseLevel(s)
	}
}

// loadConfig reads cfgFile (if non-empty) plus SIGFLOW_ environment
// overrides on top of defaultConfig.
func loadConfig(cfgFile string) (Config, error) {
	cfg := defaultConfig()

	v := viper.New()
	v.SetEnvPrefix("sigflow")
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return cfg, err
		}
	}

	opts := viper.DecoderConfigOption(func(c *mapstructure.DecoderConfig) {
		c.DecodeHook = logLevelDecodeHook()
	})
	if err := v.Unmarshal(&cfg, opts); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Copyright 2020 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorse-io/funksvd/model"
	"github.com/juju/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is the configuration of a factorization run.
type Config struct {
	Model  ModelConfig  `mapstructure:"model"`
	Data   DataConfig   `mapstructure:"data"`
	Output OutputConfig `mapstructure:"output"`
}

// ModelConfig is the configuration of FunkSVD.
type ModelConfig struct {
	NFactors    int     `mapstructure:"n_factors" validate:"gt=0"` // number of factors
	Lr          float64 `mapstructure:"lr" validate:"gt=0"`        // learning rate
	Reg         float64 `mapstructure:"reg" validate:"gte=0"`      // regularization strength
	NEpochs     int     `mapstructure:"n_epochs" validate:"gt=0"`  // number of epochs
	RandomState int64   `mapstructure:"random_state"`              // random state (seed)
	InitMean    float64 `mapstructure:"init_mean"`                 // mean of gaussian initial parameter
	InitStdDev  float64 `mapstructure:"init_std" validate:"gte=0"` // standard deviation of gaussian initial parameter
	Verbose     int     `mapstructure:"verbose" validate:"gte=0"`  // verbose period
}

// DataConfig is the configuration of ratings loading.
type DataConfig struct {
	RatingScale float64 `mapstructure:"rating_scale" validate:"gt=0"`
	MinRating   float64 `mapstructure:"min_rating" validate:"gte=0,ltefield=RatingScale"`
	Shuffle     bool    `mapstructure:"shuffle"`
}

// OutputConfig is the configuration of predictions output.
type OutputConfig struct {
	Precision int `mapstructure:"precision" validate:"gte=0,lte=10"`
}

func GetDefaultConfig() *Config {
	return &Config{
		Model: ModelConfig{
			NFactors:    100,
			Lr:          0.05,
			Reg:         0.02,
			NEpochs:     20,
			RandomState: 0,
			InitMean:    0,
			InitStdDev:  0.01,
			Verbose:     10,
		},
		Data: DataConfig{
			RatingScale: 5,
			MinRating:   1,
			Shuffle:     true,
		},
		Output: OutputConfig{
			Precision: 2,
		},
	}
}

// GetParams converts the model configuration to hyper-parameters.
func (c *ModelConfig) GetParams() model.Params {
	return model.Params{
		model.NFactors:    c.NFactors,
		model.Lr:          c.Lr,
		model.Reg:         c.Reg,
		model.NEpochs:     c.NEpochs,
		model.RandomState: c.RandomState,
		model.InitMean:    c.InitMean,
		model.InitStdDev:  c.InitStdDev,
	}
}

func (config *Config) Validate() error {
	validate := validator.New()
	return errors.Trace(validate.Struct(config))
}

func setDefault(v *viper.Viper) {
	defaultConfig := GetDefaultConfig()
	// [model]
	v.SetDefault("model.n_factors", defaultConfig.Model.NFactors)
	v.SetDefault("model.lr", defaultConfig.Model.Lr)
	v.SetDefault("model.reg", defaultConfig.Model.Reg)
	v.SetDefault("model.n_epochs", defaultConfig.Model.NEpochs)
	v.SetDefault("model.random_state", defaultConfig.Model.RandomState)
	v.SetDefault("model.init_mean", defaultConfig.Model.InitMean)
	v.SetDefault("model.init_std", defaultConfig.Model.InitStdDev)
	v.SetDefault("model.verbose", defaultConfig.Model.Verbose)
	// [data]
	v.SetDefault("data.rating_scale", defaultConfig.Data.RatingScale)
	v.SetDefault("data.min_rating", defaultConfig.Data.MinRating)
	v.SetDefault("data.shuffle", defaultConfig.Data.Shuffle)
	// [output]
	v.SetDefault("output.precision", defaultConfig.Output.Precision)
}

// FlagKeys maps command line flags to configuration keys.
var FlagKeys = map[string]string{
	"n-factors": "model.n_factors",
	"lr":        "model.lr",
	"reg":       "model.reg",
	"n-epochs":  "model.n_epochs",
	"seed":      "model.random_state",
	"init-mean": "model.init_mean",
	"init-std":  "model.init_std",
	"verbose":   "model.verbose",
	"scale":     "data.rating_scale",
	"shuffle":   "data.shuffle",
	"precision": "output.precision",
}

// AddFlags registers flags overriding configuration keys.
func AddFlags(flagSet *pflag.FlagSet) {
	defaultConfig := GetDefaultConfig()
	flagSet.Int("n-factors", defaultConfig.Model.NFactors, "number of latent factors")
	flagSet.Float64("lr", defaultConfig.Model.Lr, "learning rate")
	flagSet.Float64("reg", defaultConfig.Model.Reg, "regularization strength")
	flagSet.Int("n-epochs", defaultConfig.Model.NEpochs, "number of epochs")
	flagSet.Int64("seed", defaultConfig.Model.RandomState, "random seed")
	flagSet.Float64("init-mean", defaultConfig.Model.InitMean, "mean of gaussian initial parameters")
	flagSet.Float64("init-std", defaultConfig.Model.InitStdDev, "standard deviation of gaussian initial parameters")
	flagSet.Int("verbose", defaultConfig.Model.Verbose, "verbose period")
	flagSet.Float64("scale", defaultConfig.Data.RatingScale, "maximum rating used for normalization")
	flagSet.Bool("shuffle", defaultConfig.Data.Shuffle, "shuffle ratings once before training")
	flagSet.Int("precision", defaultConfig.Output.Precision, "number of decimals of predictions")
}

// LoadConfig loads configuration. Values come from, by priority, changed
// flags, FUNKSVD_* environment variables, the TOML file at path (optional)
// and defaults.
func LoadConfig(path string, flagSet *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefault(v)
	// bind environment variables
	v.SetEnvPrefix("funksvd")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// bind flags
	if flagSet != nil {
		for name, key := range FlagKeys {
			if flag := flagSet.Lookup(name); flag != nil {
				if err := v.BindPFlag(key, flag); err != nil {
					return nil, errors.Trace(err)
				}
			}
		}
	}
	// load config file
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Annotatef(err, "read config %s", path)
		}
	}
	var conf Config
	if err := v.Unmarshal(&conf); err != nil {
		return nil, errors.Trace(err)
	}
	if err := conf.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return &conf, nil
}

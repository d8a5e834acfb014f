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
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gorse-io/funksvd/model"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestUnmarshal(t *testing.T) {
	data, err := os.ReadFile("config.toml.template")
	assert.NoError(t, err)
	text := string(data)
	text = strings.Replace(text, "n_factors = 100", "n_factors = 50", -1)
	text = strings.Replace(text, "shuffle = true", "shuffle = false", -1)
	v := viper.New()
	v.SetConfigType("toml")
	err = v.ReadConfig(strings.NewReader(text))
	assert.NoError(t, err)
	var config Config
	err = v.Unmarshal(&config)
	assert.NoError(t, err)

	// [model]
	assert.Equal(t, 50, config.Model.NFactors)
	assert.Equal(t, 0.05, config.Model.Lr)
	assert.Equal(t, 0.02, config.Model.Reg)
	assert.Equal(t, 20, config.Model.NEpochs)
	assert.Equal(t, int64(0), config.Model.RandomState)
	assert.Equal(t, 0.0, config.Model.InitMean)
	assert.Equal(t, 0.01, config.Model.InitStdDev)
	assert.Equal(t, 10, config.Model.Verbose)
	// [data]
	assert.Equal(t, 5.0, config.Data.RatingScale)
	assert.Equal(t, 1.0, config.Data.MinRating)
	assert.False(t, config.Data.Shuffle)
	// [output]
	assert.Equal(t, 2, config.Output.Precision)
}

func TestSetDefault(t *testing.T) {
	v := viper.New()
	setDefault(v)
	v.SetConfigType("toml")
	err := v.ReadConfig(strings.NewReader(""))
	assert.NoError(t, err)
	var config Config
	err = v.Unmarshal(&config)
	assert.NoError(t, err)
	assert.Equal(t, GetDefaultConfig(), &config)
}

func TestLoadConfig(t *testing.T) {
	// defaults without file
	config, err := LoadConfig("", nil)
	assert.NoError(t, err)
	assert.Equal(t, GetDefaultConfig(), config)

	// template equals defaults
	config, err = LoadConfig("config.toml.template", nil)
	assert.NoError(t, err)
	assert.Equal(t, GetDefaultConfig(), config)

	// partial file
	path := filepath.Join(t.TempDir(), "config.toml")
	err = os.WriteFile(path, []byte("[model]\nn_epochs = 7\n[data]\nrating_scale = 10.0\n"), 0644)
	assert.NoError(t, err)
	config, err = LoadConfig(path, nil)
	assert.NoError(t, err)
	assert.Equal(t, 7, config.Model.NEpochs)
	assert.Equal(t, 10.0, config.Data.RatingScale)
	assert.Equal(t, 100, config.Model.NFactors)

	// missing file
	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.toml"), nil)
	assert.Error(t, err)
}

func TestBindEnv(t *testing.T) {
	t.Setenv("FUNKSVD_MODEL_N_FACTORS", "8")
	t.Setenv("FUNKSVD_MODEL_LR", "0.01")
	t.Setenv("FUNKSVD_DATA_SHUFFLE", "false")
	t.Setenv("FUNKSVD_OUTPUT_PRECISION", "3")
	config, err := LoadConfig("", nil)
	assert.NoError(t, err)
	assert.Equal(t, 8, config.Model.NFactors)
	assert.Equal(t, 0.01, config.Model.Lr)
	assert.False(t, config.Data.Shuffle)
	assert.Equal(t, 3, config.Output.Precision)
}

func TestBindFlags(t *testing.T) {
	t.Setenv("FUNKSVD_MODEL_N_EPOCHS", "30")
	t.Setenv("FUNKSVD_MODEL_REG", "0.1")
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	AddFlags(flagSet)
	err := flagSet.Parse([]string{"--n-epochs", "5", "--seed", "42", "--shuffle=false"})
	assert.NoError(t, err)
	config, err := LoadConfig("", flagSet)
	assert.NoError(t, err)
	// changed flags win over environment variables
	assert.Equal(t, 5, config.Model.NEpochs)
	assert.Equal(t, int64(42), config.Model.RandomState)
	assert.False(t, config.Data.Shuffle)
	// unchanged flags keep lower priority sources
	assert.Equal(t, 0.1, config.Model.Reg)
	assert.Equal(t, 100, config.Model.NFactors)
}

func TestValidate(t *testing.T) {
	config := GetDefaultConfig()
	assert.NoError(t, config.Validate())

	config = GetDefaultConfig()
	config.Model.NFactors = 0
	assert.Error(t, config.Validate())

	config = GetDefaultConfig()
	config.Model.Lr = 0
	assert.Error(t, config.Validate())

	config = GetDefaultConfig()
	config.Model.Reg = -1
	assert.Error(t, config.Validate())

	config = GetDefaultConfig()
	config.Model.NEpochs = 0
	assert.Error(t, config.Validate())

	config = GetDefaultConfig()
	config.Data.RatingScale = 0
	assert.Error(t, config.Validate())

	config = GetDefaultConfig()
	config.Data.MinRating = 6
	assert.Error(t, config.Validate())

	t.Setenv("FUNKSVD_MODEL_N_FACTORS", "-1")
	_, err := LoadConfig("", nil)
	assert.Error(t, err)
}

func TestModelConfig_GetParams(t *testing.T) {
	config := GetDefaultConfig()
	params := config.Model.GetParams()
	assert.Equal(t, 100, params.GetInt(model.NFactors, 0))
	assert.Equal(t, 0.05, params.GetFloat64(model.Lr, 0))
	assert.Equal(t, 0.02, params.GetFloat64(model.Reg, 0))
	assert.Equal(t, 20, params.GetInt(model.NEpochs, 0))
	assert.Equal(t, int64(0), params.GetInt64(model.RandomState, 1))
	assert.Equal(t, 0.01, params.GetFloat64(model.InitStdDev, 0))
}

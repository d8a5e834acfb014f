// Copyright 2026 gorse Project Authors
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

package svd

import (
	"context"
	"fmt"
	"math"

	"github.com/gorse-io/funksvd/base/log"
	"github.com/gorse-io/funksvd/base/progress"
	"github.com/gorse-io/funksvd/dataset"
	"github.com/gorse-io/funksvd/model"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

var (
	_ model.Model     = (*FunkSVD)(nil)
	_ model.Estimator = (*FunkSVD)(nil)
)

type FitConfig struct {
	Verbose  int
	Callback func(epoch int, cost float64)
}

func NewFitConfig() *FitConfig {
	return &FitConfig{Verbose: 10}
}

func (config *FitConfig) SetVerbose(verbose int) *FitConfig {
	config.Verbose = verbose
	return config
}

// SetCallback registers a function called after every epoch.
func (config *FitConfig) SetCallback(callback func(epoch int, cost float64)) *FitConfig {
	config.Callback = callback
	return config
}

// Estimate is the predicted rating of a target key.
type Estimate struct {
	Key    string
	Rating float64
}

// FunkSVD is the matrix factorization popularized by Simon Funk during the
// Netflix Prize, trained by stochastic gradient descent on explicit ratings.
//
// Hyper-parameters (the first four are required):
//
//	NFactors	- The number of latent factors.
//	Lr			- The learning rate of SGD.
//	Reg			- The regularization strength.
//	NEpochs		- The number of passes over the training set.
//	InitMean	- The mean of initial random latent factors. Default is 0.
//	InitStdDev	- The standard deviation of initial random latent factors. Default is 0.01.
//	RandomState	- The seed of initial random latent factors. Default is 0.
type FunkSVD struct {
	model.BaseModel
	UserIndex *dataset.Index
	ItemIndex *dataset.Index
	State     *State
	// Hyper parameters
	nFactors   int
	nEpochs    int
	lr         float64
	reg        float64
	initMean   float64
	initStdDev float64
}

// NewFunkSVD creates a FunkSVD model.
func NewFunkSVD(params model.Params) *FunkSVD {
	svd := new(FunkSVD)
	svd.SetParams(params)
	return svd
}

// SetParams sets hyper-parameters of the FunkSVD model.
func (svd *FunkSVD) SetParams(params model.Params) {
	svd.BaseModel.SetParams(params)
	svd.nFactors = svd.Params.GetInt(model.NFactors, 0)
	svd.nEpochs = svd.Params.GetInt(model.NEpochs, 0)
	svd.lr = svd.Params.GetFloat64(model.Lr, 0)
	svd.reg = svd.Params.GetFloat64(model.Reg, 0)
	svd.initMean = svd.Params.GetFloat64(model.InitMean, 0)
	svd.initStdDev = svd.Params.GetFloat64(model.InitStdDev, 0.01)
}

// Validate checks that required hyper-parameters are present and usable.
func (svd *FunkSVD) Validate() error {
	for _, name := range []model.ParamName{model.NFactors, model.Lr, model.Reg, model.NEpochs} {
		if !svd.Params.Has(name) {
			return errors.NotValidf("missing hyper-parameter %s", name)
		}
	}
	for _, name := range []model.ParamName{model.NFactors, model.NEpochs} {
		if _, ok := svd.Params[name].(int); !ok {
			return errors.NotValidf("%s of type %T (expect int)", name, svd.Params[name])
		}
	}
	for _, name := range []model.ParamName{model.Lr, model.Reg, model.InitMean, model.InitStdDev} {
		if !svd.Params.Has(name) {
			continue
		}
		switch svd.Params[name].(type) {
		case float64, float32, int:
		default:
			return errors.NotValidf("%s of type %T (expect float64)", name, svd.Params[name])
		}
	}
	switch {
	case svd.nFactors <= 0:
		return errors.NotValidf("%s = %d", model.NFactors, svd.nFactors)
	case svd.nEpochs <= 0:
		return errors.NotValidf("%s = %d", model.NEpochs, svd.nEpochs)
	case !(svd.lr > 0):
		return errors.NotValidf("%s = %v", model.Lr, svd.lr)
	case !(svd.reg >= 0):
		return errors.NotValidf("%s = %v", model.Reg, svd.reg)
	case !(svd.initStdDev >= 0):
		return errors.NotValidf("%s = %v", model.InitStdDev, svd.initStdDev)
	}
	return nil
}

// Fit the FunkSVD model. Observations are visited in the order of trainSet
// in every epoch; shuffle before building the dataset if needed. Previous
// weights are cleared, and the model stays invalid if training fails.
func (svd *FunkSVD) Fit(ctx context.Context, trainSet *dataset.Dataset, config *FitConfig) (model.Score, error) {
	if config == nil {
		config = NewFitConfig()
	}
	svd.Clear()
	if err := svd.Validate(); err != nil {
		return model.Score{}, errors.Trace(err)
	}
	log.Logger().Info("fit funksvd",
		zap.Int("train_set_size", trainSet.Count()),
		zap.Int("n_users", trainSet.CountUsers()),
		zap.Int("n_items", trainSet.CountItems()),
		zap.String("params", svd.GetParams().ToString()))
	state, err := NewState(svd.nFactors, trainSet, svd.GetRandomGenerator(), svd.initMean, svd.initStdDev)
	if err != nil {
		return model.Score{}, errors.Trace(err)
	}

	spanCtx, span := progress.Start(ctx, "FunkSVD.Fit", svd.nEpochs)
	sgd := NewSGD(svd.lr, svd.reg)
	steps, err := sgd.Run(ctx, state, trainSet, svd.nEpochs, func(epoch int, cost float64) {
		if config.Verbose > 0 && (epoch%config.Verbose == 0 || epoch == svd.nEpochs) {
			log.Logger().Info(fmt.Sprintf("fit funksvd %v/%v", epoch, svd.nEpochs),
				zap.Float64("train_rmse", math.Sqrt(cost/float64(trainSet.Count()))))
		}
		span.Add(1)
		if config.Callback != nil {
			config.Callback(epoch, cost)
		}
	})
	if err != nil {
		progress.Fail(spanCtx, err)
		return model.Score{}, errors.Trace(err)
	}
	span.End()
	svd.UserIndex = trainSet.GetUserDict()
	svd.ItemIndex = trainSet.GetItemDict()
	svd.State = state
	score := model.Evaluate(svd, trainSet)
	log.Logger().Info("fit funksvd complete",
		zap.Int("n_steps", steps),
		zap.Float64("RMSE", score.RMSE),
		zap.Float64("MAE", score.MAE))
	return score, nil
}

// Estimate returns the unclamped rating by dense indices. The model must be
// fitted.
func (svd *FunkSVD) Estimate(userIndex, itemIndex int32) float64 {
	return svd.State.Estimate(userIndex, itemIndex)
}

// Predict returns the unclamped rating of an item given by a user. The global
// mean is returned if either of them is absent from the training set. NaN is
// returned if the model has not been fitted.
func (svd *FunkSVD) Predict(userId, itemId string) float64 {
	if svd.Invalid() {
		log.Logger().Warn("predict with an unfitted model",
			zap.String("user_id", userId),
			zap.String("item_id", itemId))
		return math.NaN()
	}
	userIndex := svd.UserIndex.Id(userId)
	itemIndex := svd.ItemIndex.Id(itemId)
	if userIndex < 0 || itemIndex < 0 {
		log.Logger().Debug("cold start",
			zap.String("user_id", userId),
			zap.String("item_id", itemId),
			zap.Bool("known_user", userIndex >= 0),
			zap.Bool("known_item", itemIndex >= 0))
		return svd.State.GlobalMean
	}
	return svd.State.Estimate(userIndex, itemIndex)
}

// EstimateForTargets predicts ratings for "user:item" keys. Results keep the
// order of keys and are clamped to [0, 1]. A key without separator is treated
// as a cold start.
func (svd *FunkSVD) EstimateForTargets(keys []string) ([]Estimate, error) {
	if svd.Invalid() {
		return nil, errors.NotValidf("unfitted model")
	}
	return lo.Map(keys, func(key string, _ int) Estimate {
		rating := svd.State.GlobalMean
		if userId, itemId, ok := dataset.SplitKey(key); ok {
			rating = svd.Predict(userId, itemId)
		}
		return Estimate{Key: key, Rating: lo.Clamp(rating, 0, 1)}
	}), nil
}

func (svd *FunkSVD) Clear() {
	svd.UserIndex = nil
	svd.ItemIndex = nil
	svd.State = nil
}

func (svd *FunkSVD) Invalid() bool {
	return svd == nil ||
		svd.UserIndex == nil ||
		svd.ItemIndex == nil ||
		svd.State == nil
}

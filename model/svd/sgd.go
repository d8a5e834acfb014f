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

	"github.com/gorse-io/funksvd/dataset"
	"github.com/juju/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// SGD fits a State by stochastic gradient descent. Observations are visited
// one by one and every update is committed before the next observation is
// read, so a SGD must not be shared between goroutines.
type SGD struct {
	Lr  float64 // η
	Reg float64 // λ

	userFactor []float64
	itemFactor []float64
	temp       []float64
}

func NewSGD(lr, reg float64) *SGD {
	return &SGD{Lr: lr, Reg: reg}
}

func (sgd *SGD) grow(nFactors int) {
	if len(sgd.temp) != nFactors {
		sgd.userFactor = make([]float64, nFactors)
		sgd.itemFactor = make([]float64, nFactors)
		sgd.temp = make([]float64, nFactors)
	}
}

// Step updates the state with a single observation and returns the error
// r_{ui} - \hat{r}_{ui} measured before the update.
func (sgd *SGD) Step(state *State, userIndex, itemIndex int32, rating float64) float64 {
	u, i := int(userIndex), int(itemIndex)
	sgd.grow(state.NFactors())
	// Both factor updates read p_u and q_i as they were before this step.
	mat.Row(sgd.userFactor, u, state.UserFactor)
	mat.Col(sgd.itemFactor, i, state.ItemFactor)
	// e_{ui} = r - \hat r
	e := rating - (state.GlobalMean + floats.Dot(sgd.userFactor, sgd.itemFactor) +
		state.UserBias[u] + state.ItemBias[i])
	// b_u <- b_u + η (e_{ui} - λ b_u)
	state.UserBias[u] += sgd.Lr * (e - sgd.Reg*state.UserBias[u])
	// b_i <- b_i + η (e_{ui} - λ b_i)
	state.ItemBias[i] += sgd.Lr * (e - sgd.Reg*state.ItemBias[i])
	// p_u <- p_u + η (e_{ui} q_i - λ p_u)
	floats.ScaleTo(sgd.temp, e, sgd.itemFactor)
	floats.AddScaled(sgd.temp, -sgd.Reg, sgd.userFactor)
	floats.AddScaledTo(sgd.temp, sgd.userFactor, sgd.Lr, sgd.temp)
	state.UserFactor.SetRow(u, sgd.temp)
	// q_i <- q_i + η (e_{ui} p_u - λ q_i)
	floats.ScaleTo(sgd.temp, e, sgd.userFactor)
	floats.AddScaled(sgd.temp, -sgd.Reg, sgd.itemFactor)
	floats.AddScaledTo(sgd.temp, sgd.itemFactor, sgd.Lr, sgd.temp)
	state.ItemFactor.SetCol(i, sgd.temp)
	return e
}

// Epoch visits every observation of trainSet once, in dataset order, and
// returns the sum of squared errors.
func (sgd *SGD) Epoch(state *State, trainSet *dataset.Dataset) float64 {
	var cost float64
	for i := 0; i < trainSet.Count(); i++ {
		userIndex, itemIndex, rating := trainSet.Get(i)
		e := sgd.Step(state, userIndex, itemIndex, rating)
		cost += e * e
	}
	return cost
}

// Run executes exactly nEpochs epochs and returns the number of update steps.
// The callback, if any, is invoked after each epoch with the 1-based epoch
// number and the sum of squared errors of that epoch. Cancellation is checked
// between epochs.
func (sgd *SGD) Run(ctx context.Context, state *State, trainSet *dataset.Dataset, nEpochs int,
	callback func(epoch int, cost float64)) (int, error) {
	steps := 0
	for epoch := 1; epoch <= nEpochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return steps, errors.Trace(err)
		}
		cost := sgd.Epoch(state, trainSet)
		steps += trainSet.Count()
		if callback != nil {
			callback(epoch, cost)
		}
	}
	return steps, nil
}

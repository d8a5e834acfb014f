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
	"github.com/gorse-io/funksvd/base"
	"github.com/gorse-io/funksvd/dataset"
	"github.com/juju/errors"
	"gonum.org/v1/gonum/mat"
)

// State holds the parameters of a FunkSVD model. The prediction \hat{r}_{ui}
// is given by:
//
//	\hat{r}_{ui} = μ + b_u + b_i + p_u^T q_i
//
// where p_u is the u-th row of P and q_i is the i-th column of Q. Only the
// training loop writes a State.
type State struct {
	GlobalMean float64    // μ
	UserFactor *mat.Dense // P, users × factors
	ItemFactor *mat.Dense // Q, factors × items
	UserBias   []float64  // b_u
	ItemBias   []float64  // b_i
}

// NewState initializes parameters for trainSet. Latent factors are drawn from
// N(initMean, initStdDev²) and biases start at zero.
func NewState(nFactors int, trainSet *dataset.Dataset, rng base.RandomGenerator, initMean, initStdDev float64) (*State, error) {
	if nFactors <= 0 {
		return nil, errors.NotValidf("number of factors %d", nFactors)
	}
	if trainSet.Count() == 0 {
		return nil, errors.NotValidf("empty training set")
	}
	nUsers, nItems := trainSet.CountUsers(), trainSet.CountItems()
	return &State{
		GlobalMean: trainSet.GlobalMean(),
		UserFactor: rng.NormalMatrix(nUsers, nFactors, initMean, initStdDev),
		ItemFactor: rng.NormalMatrix(nFactors, nItems, initMean, initStdDev),
		UserBias:   make([]float64, nUsers),
		ItemBias:   make([]float64, nItems),
	}, nil
}

func (s *State) NFactors() int {
	_, c := s.UserFactor.Dims()
	return c
}

// Estimate returns the unclamped rating of an item given by a user.
func (s *State) Estimate(userIndex, itemIndex int32) float64 {
	u, i := int(userIndex), int(itemIndex)
	return s.GlobalMean +
		mat.Dot(s.UserFactor.RowView(u), s.ItemFactor.ColView(i)) +
		s.UserBias[u] +
		s.ItemBias[i]
}

// Clone a state with deep copy.
func (s *State) Clone() *State {
	return &State{
		GlobalMean: s.GlobalMean,
		UserFactor: mat.DenseCopyOf(s.UserFactor),
		ItemFactor: mat.DenseCopyOf(s.ItemFactor),
		UserBias:   append([]float64(nil), s.UserBias...),
		ItemBias:   append([]float64(nil), s.ItemBias...),
	}
}

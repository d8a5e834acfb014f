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

package model

import (
	"math"

	"github.com/gorse-io/funksvd/dataset"
)

// Estimator predicts the rating between a user index and an item index.
type Estimator interface {
	Estimate(userIndex, itemIndex int32) float64
}

// Score of pointwise rating prediction.
type Score struct {
	RMSE float64
	MAE  float64
}

// Evaluate scores an estimator on a dataset. The dataset must share user and
// item indices with the estimator, as the training set does.
func Evaluate(estimator Estimator, testSet *dataset.Dataset) Score {
	if testSet.Count() == 0 {
		return Score{RMSE: math.NaN(), MAE: math.NaN()}
	}
	var sumSquare, sumAbs float64
	for i := 0; i < testSet.Count(); i++ {
		userIndex, itemIndex, rating := testSet.Get(i)
		diff := rating - estimator.Estimate(userIndex, itemIndex)
		sumSquare += diff * diff
		sumAbs += math.Abs(diff)
	}
	n := float64(testSet.Count())
	return Score{
		RMSE: math.Sqrt(sumSquare / n),
		MAE:  sumAbs / n,
	}
}

// RMSE is root mean square error.
func RMSE(estimator Estimator, testSet *dataset.Dataset) float64 {
	return Evaluate(estimator, testSet).RMSE
}

// MAE is mean absolute error.
func MAE(estimator Estimator, testSet *dataset.Dataset) float64 {
	return Evaluate(estimator, testSet).MAE
}

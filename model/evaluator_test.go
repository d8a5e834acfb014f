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
	"testing"

	"github.com/gorse-io/funksvd/dataset"
	"github.com/stretchr/testify/assert"
)

type constEstimator float64

func (e constEstimator) Estimate(_, _ int32) float64 {
	return float64(e)
}

func TestEvaluate(t *testing.T) {
	testSet := dataset.NewDataset([]dataset.Observation{
		{UserId: "u1", ItemId: "i1", Rating: 1.0},
		{UserId: "u1", ItemId: "i2", Rating: 0.0},
		{UserId: "u2", ItemId: "i1", Rating: 0.5},
		{UserId: "u2", ItemId: "i2", Rating: 0.5},
	})
	score := Evaluate(constEstimator(0.5), testSet)
	assert.InDelta(t, math.Sqrt(0.125), score.RMSE, 1e-12)
	assert.InDelta(t, 0.25, score.MAE, 1e-12)
	assert.Equal(t, score.RMSE, RMSE(constEstimator(0.5), testSet))
	assert.Equal(t, score.MAE, MAE(constEstimator(0.5), testSet))

	score = Evaluate(constEstimator(0.5), dataset.NewDataset(nil))
	assert.True(t, math.IsNaN(score.RMSE))
	assert.True(t, math.IsNaN(score.MAE))
}

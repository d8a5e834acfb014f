// Copyright 2025 gorse Project Authors
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

package dataset

import (
	"strings"

	"github.com/gorse-io/funksvd/base"
	"gonum.org/v1/gonum/stat"
)

// KeySeparator separates the user and item identifiers of a target key.
const KeySeparator = ":"

// Observation is a rating given by a user to an item. Ratings are expected to
// be normalized into [0, 1] before they reach the model.
type Observation struct {
	UserId string
	ItemId string
	Rating float64
}

// Dataset is an ordered, in-memory table of observations together with the
// dense indices of their users and items.
type Dataset struct {
	observations []Observation
	userIndices  []int32
	itemIndices  []int32
	userDict     *Index
	itemDict     *Index
}

// NewDataset indexes users and items in a single pass over observations. Each
// identifier receives the next unused index of its namespace the first time it
// is seen.
func NewDataset(observations []Observation) *Dataset {
	d := &Dataset{
		observations: observations,
		userIndices:  make([]int32, len(observations)),
		itemIndices:  make([]int32, len(observations)),
		userDict:     NewIndex(),
		itemDict:     NewIndex(),
	}
	for i, o := range observations {
		d.userIndices[i] = d.userDict.Add(o.UserId)
		d.itemIndices[i] = d.itemDict.Add(o.ItemId)
	}
	return d
}

// Count returns the number of observations.
func (d *Dataset) Count() int {
	return len(d.observations)
}

func (d *Dataset) CountUsers() int {
	return int(d.userDict.Count())
}

func (d *Dataset) CountItems() int {
	return int(d.itemDict.Count())
}

func (d *Dataset) GetUserDict() *Index {
	return d.userDict
}

func (d *Dataset) GetItemDict() *Index {
	return d.itemDict
}

// Get returns the i-th observation in dense form.
func (d *Dataset) Get(i int) (int32, int32, float64) {
	return d.userIndices[i], d.itemIndices[i], d.observations[i].Rating
}

// GetRatings returns all ratings in observation order.
func (d *Dataset) GetRatings() []float64 {
	ratings := make([]float64, len(d.observations))
	for i, o := range d.observations {
		ratings[i] = o.Rating
	}
	return ratings
}

// GlobalMean returns the mean rating. It is NaN for an empty dataset.
func (d *Dataset) GlobalMean() float64 {
	return stat.Mean(d.GetRatings(), nil)
}

// Shuffle permutes observations in place. It must run before NewDataset since
// the permutation decides both the index order and the order of every epoch.
func Shuffle(observations []Observation, rng base.RandomGenerator) {
	rng.Shuffle(len(observations), func(i, j int) {
		observations[i], observations[j] = observations[j], observations[i]
	})
}

// SplitKey splits "user:item" at the first separator. ok is false if the key
// has no separator.
func SplitKey(key string) (userId, itemId string, ok bool) {
	return strings.Cut(key, KeySeparator)
}

func JoinKey(userId, itemId string) string {
	return userId + KeySeparator + itemId
}

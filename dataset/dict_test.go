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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIndex(t *testing.T) {
	dict := NewIndex()
	assert.Equal(t, int32(0), dict.Add("a"))
	assert.Equal(t, int32(1), dict.Add("b"))
	assert.Equal(t, int32(1), dict.Add("b"))
	assert.Equal(t, int32(2), dict.Add("c"))
	assert.Equal(t, int32(0), dict.Add("a"))
	assert.Equal(t, int32(3), dict.Count())

	assert.Equal(t, int32(2), dict.Id("c"))
	assert.Equal(t, int32(-1), dict.Id("d"))
	assert.Equal(t, int32(3), dict.Count())

	s, ok := dict.String(1)
	assert.True(t, ok)
	assert.Equal(t, "b", s)
	_, ok = dict.String(3)
	assert.False(t, ok)
	_, ok = dict.String(-1)
	assert.False(t, ok)
	assert.Equal(t, []string{"a", "b", "c"}, dict.Strings())
}

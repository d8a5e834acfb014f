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

// Index maps identifiers to dense indices in first-seen order. Once assigned,
// an index is never reused for another identifier.
type Index struct {
	si map[string]int32
	is []string
}

func NewIndex() *Index {
	return &Index{si: map[string]int32{}, is: []string{}}
}

func (d *Index) Count() int32 {
	return int32(len(d.is))
}

// Add returns the index of s, assigning the next unused index if s is new.
func (d *Index) Add(s string) int32 {
	if y, ok := d.si[s]; ok {
		return y
	}
	y := int32(len(d.is))
	d.si[s] = y
	d.is = append(d.is, s)
	return y
}

// Id returns the index of s or -1 if s has never been added.
func (d *Index) Id(s string) int32 {
	if y, ok := d.si[s]; ok {
		return y
	}
	return -1
}

func (d *Index) String(id int32) (string, bool) {
	if id < 0 || id >= int32(len(d.is)) {
		return "", false
	}
	return d.is[id], true
}

// Strings returns identifiers ordered by index.
func (d *Index) Strings() []string {
	return d.is
}

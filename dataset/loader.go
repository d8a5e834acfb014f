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

package dataset

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/gorse-io/funksvd/base"
	"github.com/gorse-io/funksvd/base/log"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

const (
	KeyColumn    = "UserId:ItemId"
	RatingColumn = "Rating"
)

// LoadRatings reads observations from a CSV file whose header names a
// "UserId:ItemId" column and a "Rating" column. Ratings are divided by scale.
func LoadRatings(path string, scale float64) ([]Observation, error) {
	if scale <= 0 {
		return nil, errors.NotValidf("rating scale %v", scale)
	}
	var (
		observations []Observation
		header       bool
		keyCol       int
		ratingCol    int
		parseErr     error
	)
	err := readCSV(path, func(lineNumber int, fields []string) bool {
		if !header {
			header = true
			keyCol = lo.IndexOf(fields, KeyColumn)
			ratingCol = lo.IndexOf(fields, RatingColumn)
			if keyCol < 0 || ratingCol < 0 {
				parseErr = errors.NotValidf("header of %s (expect %s and %s columns)", path, KeyColumn, RatingColumn)
				return false
			}
			return true
		}
		if len(fields) <= max(keyCol, ratingCol) {
			parseErr = errors.Errorf("%s:%d: expected %d fields, got %d", path, lineNumber+1, max(keyCol, ratingCol)+1, len(fields))
			return false
		}
		userId, itemId, ok := SplitKey(fields[keyCol])
		if !ok {
			parseErr = errors.Errorf("%s:%d: key %q is not of the form user:item", path, lineNumber+1, fields[keyCol])
			return false
		}
		rating, err := strconv.ParseFloat(strings.TrimSpace(fields[ratingCol]), 64)
		if err != nil {
			parseErr = errors.Annotatef(err, "%s:%d", path, lineNumber+1)
			return false
		}
		observations = append(observations, Observation{
			UserId: userId,
			ItemId: itemId,
			Rating: rating / scale,
		})
		return true
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	if parseErr != nil {
		return nil, parseErr
	}
	if !header {
		return nil, errors.NotValidf("empty file %s", path)
	}
	log.Logger().Info("load ratings",
		zap.String("path", path),
		zap.Int("n_observations", len(observations)))
	return observations, nil
}

// LoadTargets reads the "UserId:ItemId" column of a CSV file in file order.
func LoadTargets(path string) ([]string, error) {
	var (
		keys     []string
		header   bool
		keyCol   int
		parseErr error
	)
	err := readCSV(path, func(lineNumber int, fields []string) bool {
		if !header {
			header = true
			keyCol = lo.IndexOf(fields, KeyColumn)
			if keyCol < 0 {
				parseErr = errors.NotValidf("header of %s (expect %s column)", path, KeyColumn)
				return false
			}
			return true
		}
		if len(fields) <= keyCol {
			parseErr = errors.Errorf("%s:%d: expected %d fields, got %d", path, lineNumber+1, keyCol+1, len(fields))
			return false
		}
		keys = append(keys, fields[keyCol])
		return true
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	if parseErr != nil {
		return nil, parseErr
	}
	if !header {
		return nil, errors.NotValidf("empty file %s", path)
	}
	if distinct := mapset.NewSet(keys...); distinct.Cardinality() < len(keys) {
		log.Logger().Warn("duplicate target keys",
			zap.String("path", path),
			zap.Int("n_targets", len(keys)),
			zap.Int("n_distinct", distinct.Cardinality()))
	}
	return keys, nil
}

func readCSV(path string, handler func(int, []string) bool) error {
	file, err := os.Open(path)
	if err != nil {
		return errors.Trace(err)
	}
	defer file.Close()
	return base.ReadLines(bufio.NewScanner(file), ",", func(lineNumber int, fields []string) bool {
		// skip blank lines, including a trailing newline
		if len(fields) == 1 && strings.TrimSpace(fields[0]) == "" {
			return true
		}
		return handler(lineNumber, fields)
	})
}

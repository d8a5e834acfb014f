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

package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/gorse-io/funksvd/base"
	"github.com/gorse-io/funksvd/base/log"
	"github.com/gorse-io/funksvd/base/progress"
	"github.com/gorse-io/funksvd/config"
	"github.com/gorse-io/funksvd/dataset"
	"github.com/gorse-io/funksvd/model"
	"github.com/gorse-io/funksvd/model/svd"
	"github.com/juju/errors"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
)

const numStages = 4

// run trains FunkSVD on ratings and writes predictions of targets to out.
// Progress and the optional summary go to stderr.
func run(ctx context.Context, ratingsPath, targetsPath string, conf *config.Config,
	out, stderr io.Writer, summary bool) error {
	tracer := progress.NewTracer("funksvd")
	ctx, span := tracer.Start(ctx, "Predict", numStages)
	start := time.Now()

	// load ratings
	observations, err := dataset.LoadRatings(ratingsPath, conf.Data.RatingScale)
	if err != nil {
		span.Fail(err)
		return errors.Trace(err)
	}
	if conf.Data.Shuffle {
		dataset.Shuffle(observations, base.NewRandomGenerator(conf.Model.RandomState))
	}
	trainSet := dataset.NewDataset(observations)
	span.Add(1)

	// fit model
	m := svd.NewFunkSVD(conf.Model.GetParams())
	bar := progressbar.NewOptions(conf.Model.NEpochs,
		progressbar.OptionSetWriter(stderr),
		progressbar.OptionSetDescription("fit funksvd"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish())
	fitConfig := svd.NewFitConfig().
		SetVerbose(conf.Model.Verbose).
		SetCallback(func(int, float64) {
			_ = bar.Add(1)
		})
	score, err := m.Fit(ctx, trainSet, fitConfig)
	_ = bar.Finish()
	if err != nil {
		span.Fail(err)
		return errors.Trace(err)
	}
	span.Add(1)

	// load targets
	keys, err := dataset.LoadTargets(targetsPath)
	if err != nil {
		span.Fail(err)
		return errors.Trace(err)
	}
	span.Add(1)

	// write predictions
	estimates, err := m.EstimateForTargets(keys)
	if err != nil {
		span.Fail(err)
		return errors.Trace(err)
	}
	if err = writePredictions(out, estimates, conf.Data.MinRating, conf.Data.RatingScale, conf.Output.Precision); err != nil {
		span.Fail(err)
		return errors.Trace(err)
	}
	span.End()
	log.Logger().Info("complete predictions",
		zap.Int("n_targets", len(estimates)),
		zap.String("time", time.Since(start).String()))

	if summary {
		return errors.Trace(renderSummary(stderr, m, trainSet, keys, score, tracer.List()))
	}
	return nil
}

// writePredictions writes one "UserId:ItemId,Rating" line per estimate. Ratings
// are scaled back to [minRating, maxRating].
func writePredictions(w io.Writer, estimates []svd.Estimate, minRating, maxRating float64, precision int) error {
	writer := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(writer, "%s,%s\n", dataset.KeyColumn, dataset.RatingColumn); err != nil {
		return errors.Trace(err)
	}
	for _, estimate := range estimates {
		rating := lo.Clamp(estimate.Rating*maxRating, minRating, maxRating)
		if _, err := fmt.Fprintf(writer, "%s,%.*f\n", base.Escape(estimate.Key), precision, rating); err != nil {
			return errors.Trace(err)
		}
	}
	return errors.Trace(writer.Flush())
}

// renderSummary renders statistics of the training set, the targets and the
// fitted model, followed by stage timings.
func renderSummary(w io.Writer, m *svd.FunkSVD, trainSet *dataset.Dataset, keys []string,
	score model.Score, stages []progress.Progress) error {
	coldStart := lo.CountBy(keys, func(key string) bool {
		userId, itemId, ok := dataset.SplitKey(key)
		return !ok || m.UserIndex.Id(userId) < 0 || m.ItemIndex.Id(itemId) < 0
	})
	table := tablewriter.NewWriter(w)
	table.Header("Statistic", "Value")
	for _, row := range [][]string{
		{"Ratings", fmt.Sprint(trainSet.Count())},
		{"Users", fmt.Sprint(trainSet.CountUsers())},
		{"Items", fmt.Sprint(trainSet.CountItems())},
		{"Global mean", fmt.Sprintf("%.4f", m.State.GlobalMean)},
		{"Factors", fmt.Sprint(m.State.NFactors())},
		{"Targets", fmt.Sprint(len(keys))},
		{"Distinct targets", fmt.Sprint(mapset.NewSet(keys...).Cardinality())},
		{"Cold start targets", fmt.Sprint(coldStart)},
		{"Train RMSE", fmt.Sprintf("%.4f", score.RMSE)},
		{"Train MAE", fmt.Sprintf("%.4f", score.MAE)},
	} {
		if err := table.Append(row); err != nil {
			return errors.Trace(err)
		}
	}
	if err := table.Render(); err != nil {
		return errors.Trace(err)
	}

	table = tablewriter.NewWriter(w)
	table.Header("Stage", "Status", "Progress", "Time")
	for _, stage := range stages {
		if err := table.Append([]string{
			stage.Name,
			string(stage.Status),
			fmt.Sprintf("%d/%d", stage.Count, stage.Total),
			stage.FinishTime.Sub(stage.StartTime).String(),
		}); err != nil {
			return errors.Trace(err)
		}
	}
	return errors.Trace(table.Render())
}

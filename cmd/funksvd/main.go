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
	"context"
	"os"
	"os/signal"

	"github.com/gorse-io/funksvd/base/log"
	"github.com/gorse-io/funksvd/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCommand = &cobra.Command{
	Use:   "funksvd <ratings.csv> <targets.csv>",
	Short: "Predict ratings by FunkSVD matrix factorization.",
	Long: `Train a FunkSVD model on ratings.csv (columns "UserId:ItemId" and "Rating")
and print predicted ratings of every "UserId:ItemId" key in targets.csv.`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		// setup logger
		debug, _ := cmd.PersistentFlags().GetBool("debug")
		log.SetLogger(cmd.PersistentFlags(), debug)

		// load config
		configPath, _ := cmd.PersistentFlags().GetString("config")
		log.Logger().Info("load config", zap.String("config", configPath))
		conf, err := config.LoadConfig(configPath, cmd.Flags())
		if err != nil {
			log.Logger().Fatal("failed to load config", zap.Error(err))
		}

		// stop training on interrupt
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		summary, _ := cmd.Flags().GetBool("summary")
		if err = run(ctx, args[0], args[1], conf, os.Stdout, os.Stderr, summary); err != nil {
			stop()
			log.Logger().Fatal("failed to predict ratings", zap.Error(err))
		}
	},
}

func init() {
	rootCommand.Version = buildInfo()
	rootCommand.SetVersionTemplate("{{.Version}}")
	log.AddFlags(rootCommand.PersistentFlags())
	rootCommand.PersistentFlags().Bool("debug", false, "use debug log mode")
	rootCommand.PersistentFlags().StringP("config", "c", "", "configuration file path")
	rootCommand.Flags().Bool("summary", false, "print model statistics to stderr")
	config.AddFlags(rootCommand.Flags())
}

func main() {
	if err := rootCommand.Execute(); err != nil {
		log.Logger().Fatal("failed to execute", zap.Error(err))
	}
}

// Copyright 2026 The Procshim Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use file except in compliance with the License.
// You may obtain a copy of the license at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/procshim/procshim"
	"github.com/procshim/procshim/client"
	"github.com/procshim/procshim/config"
)

type options struct {
	addr    string
	secret  string
	timeout time.Duration
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "procctl",
		Short:         "Control processes through a procshim server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.addr, "addr",
		fmt.Sprintf("http://127.0.0.1:%d", config.DefaultPort), "procshim address")
	root.PersistentFlags().StringVar(&opts.secret, "secret",
		os.Getenv(config.EnvSecret), "shared secret")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout",
		30*time.Second, "request timeout")

	root.AddCommand(newActionCmd(opts, procshim.ActionStart, "Start a process"))
	root.AddCommand(newActionCmd(opts, procshim.ActionStop, "Stop a process"))
	root.AddCommand(newActionCmd(opts, procshim.ActionRestart, "Restart a process"))
	return root
}

func newActionCmd(opts *options, action procshim.Action, short string) *cobra.Command {
	return &cobra.Command{
		Use:   string(action) + " <name|id|all>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, e := client.NewClient(nil, opts.addr)
			if e != nil {
				return e
			}
			c.SetSecret(opts.secret)

			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()
			if e := c.Do(ctx, action, args[0]); e != nil {
				return e
			}
			fmt.Fprintln(cmd.OutOrStdout(), "OK")
			return nil
		},
	}
}

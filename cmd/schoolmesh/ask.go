package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/hupe1980/schoolmesh/core"
	"github.com/hupe1980/schoolmesh/internal/config"
	"github.com/hupe1980/schoolmesh/runner"
)

func newAskCmd(cfg *config.Config) *cobra.Command {
	var showCapability bool
	cmd := &cobra.Command{
		Use:   "ask [question...]",
		Short: "Answer one or more questions in a single session",
		Long:  "Each argument is one turn of the same session, so later questions can follow up on earlier answers.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			return ask(cmd, a, args, showCapability, cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVar(&showCapability, "show-capability", false, "print which capability answered")
	return cmd
}

func ask(cmd *cobra.Command, a *app, questions []string, showCapability bool, out io.Writer) error {
	ctx := contextOrBackground(cmd.Context())
	sess := a.mesh.CreateSession(a.household)

	for _, q := range questions {
		streamed := false
		res, err := a.mesh.Turn(ctx, sess, q, runner.WithFragmentHandler(func(f core.Fragment) {
			streamed = true
			fmt.Fprint(out, f.Text)
		}))
		if err != nil {
			return errors.Wrapf(err, "ask %q", q)
		}
		if !streamed {
			fmt.Fprint(out, res.Text)
		}
		fmt.Fprintln(out)
		if showCapability {
			fmt.Fprintf(out, "[%s]\n", strings.TrimSpace(res.Capability))
		}
	}
	return nil
}

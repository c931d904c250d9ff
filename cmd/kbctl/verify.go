package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/starford/kbhost/internal"
)

func verifyCommand() *cli.Command {
	return &cli.Command{
		Name:      "verify",
		Usage:     "Recompute a bookmark's content digest and check its retrieval link",
		ArgsUsage: "<base-dir> <slug>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 2 {
				return fmt.Errorf("expected <base-dir> <slug>")
			}
			e, err := setup(cmd)
			if err != nil {
				return err
			}
			defer e.close()

			_, bm := internal.NewStores(e.cfg, e.logger)
			v, err := bm.Verify(cmd.Args().Get(0), cmd.Args().Get(1))
			if err != nil {
				return err
			}
			if err := printJSON(v); err != nil {
				return err
			}
			if !v.Verified {
				return fmt.Errorf("bookmark %s failed verification", cmd.Args().Get(1))
			}
			return nil
		},
	}
}

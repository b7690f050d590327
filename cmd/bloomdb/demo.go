package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hupe1980/bloomdb"
)

var (
	demoInserted = []string{"hola", "mundo"}
	demoQueries   = []string{"hola", "mundo", "otro"}
)

func newDemoCmd(a *app) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Insert, query, save and reload a small filter",
		Long: `Create a 10000-bit filter with 5 hashes and seed 12345, insert "hola"
and "mundo", query three keys, save the filter, load it back and query again.

The filter is written to --out, or to a temporary file that is removed
afterwards. With a store flag it is saved in the store under the name "demo".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			w := cmd.OutOrStdout()

			name := out
			if name == "" && a.storeCount() == 0 {
				dir, err := os.MkdirTemp("", "bloomdb-demo-")
				if err != nil {
					return fmt.Errorf("failed to create temp dir: %w", err)
				}
				defer os.RemoveAll(dir)
				name = filepath.Join(dir, "test.bloomdb")
			} else if name == "" {
				name = "demo"
			}

			t, err := a.target(ctx, name)
			if err != nil {
				return err
			}

			f, err := bloomdb.New(10000, 5, 12345)
			if err != nil {
				return fmt.Errorf("failed to create filter: %w", err)
			}
			for _, key := range demoInserted {
				if err := f.InsertString(key); err != nil {
					f.Close()
					return fmt.Errorf("failed to insert %q: %w", key, err)
				}
			}
			printQueries(w, f)

			err = t.save(ctx, f)
			f.Close()
			if err != nil {
				return fmt.Errorf("failed to save %s: %w", name, err)
			}

			g, err := t.load(ctx)
			if err != nil {
				return fmt.Errorf("failed to load %s: %w", name, err)
			}
			defer g.Close()

			fmt.Fprintln(w, "After load:")
			printQueries(w, g)
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "where to save the demo filter")
	return cmd
}

func printQueries(w io.Writer, f *bloomdb.Filter) {
	for _, key := range demoQueries {
		v := 0
		if f.HasString(key) {
			v = 1
		}
		fmt.Fprintf(w, "%-8s -> %d\n", "'"+key+"'", v)
	}
}

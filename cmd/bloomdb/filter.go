package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/hupe1980/bloomdb"
	"github.com/hupe1980/bloomdb/codec"
)

func newCreateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "create PATH",
		Short: "Create an empty filter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			t, err := a.target(ctx, args[0])
			if err != nil {
				return err
			}

			f, err := bloomdb.New(a.bits, a.hashes, a.seed)
			if err != nil {
				return fmt.Errorf("failed to create filter: %w", err)
			}
			defer f.Close()

			if err := t.save(ctx, f); err != nil {
				return fmt.Errorf("failed to save %s: %w", args[0], err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "created %s (%d bits, %d hashes, seed %d)\n",
				args[0], f.BitCount(), f.NumHashes(), f.Seed())
			return nil
		},
	}
}

func newAddCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add PATH KEY...",
		Short: "Insert keys into a filter",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			t, err := a.target(ctx, args[0])
			if err != nil {
				return err
			}

			f, err := t.load(ctx)
			if err != nil {
				return fmt.Errorf("failed to load %s: %w", args[0], err)
			}
			defer f.Close()

			for _, key := range args[1:] {
				if err := f.InsertString(key); err != nil {
					return fmt.Errorf("failed to insert %q: %w", key, err)
				}
			}

			if err := t.save(ctx, f); err != nil {
				return fmt.Errorf("failed to save %s: %w", args[0], err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "added %d keys to %s\n", len(args)-1, args[0])
			return nil
		},
	}
}

// queryResult is one line of query output.
type queryResult struct {
	Key        string `json:"key"`
	MightExist bool   `json:"might_exist"`
}

func newQueryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "query PATH KEY...",
		Short: "Test keys for membership",
		Long: `Test keys for membership.

"maybe" means the key may have been inserted; "no" means it definitely
was not.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			t, err := a.target(ctx, args[0])
			if err != nil {
				return err
			}

			f, err := t.load(ctx)
			if err != nil {
				return fmt.Errorf("failed to load %s: %w", args[0], err)
			}
			defer f.Close()

			results := make([]queryResult, 0, len(args)-1)
			for _, key := range args[1:] {
				ok, err := f.MightContainString(key)
				if err != nil {
					return fmt.Errorf("failed to query %q: %w", key, err)
				}
				results = append(results, queryResult{Key: key, MightExist: ok})
			}

			if a.jsonOut {
				return writeJSON(cmd.OutOrStdout(), results)
			}
			for _, r := range results {
				answer := "no"
				if r.MightExist {
					answer = "maybe"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", r.Key, answer)
			}
			return nil
		},
	}
}

// filterInfo describes a stored filter.
type filterInfo struct {
	Name         string  `json:"name"`
	BitCount     uint64  `json:"bit_count"`
	ByteCount    uint64  `json:"byte_count"`
	NumHashes    int     `json:"num_hashes"`
	Seed         uint64  `json:"seed"`
	SetBits      uint64  `json:"set_bits"`
	FillRatio    float64 `json:"fill_ratio"`
	EstimatedFPR float64 `json:"estimated_false_positive_rate"`
	EncodedSize  int64   `json:"encoded_size"`
}

func newInfoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info PATH",
		Short: "Show filter parameters and fill statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			t, err := a.target(ctx, args[0])
			if err != nil {
				return err
			}

			f, err := t.load(ctx)
			if err != nil {
				return fmt.Errorf("failed to load %s: %w", args[0], err)
			}
			defer f.Close()

			info := filterInfo{
				Name:         args[0],
				BitCount:     f.BitCount(),
				ByteCount:    f.ByteCount(),
				NumHashes:    f.NumHashes(),
				Seed:         f.Seed(),
				SetBits:      f.SetBits(),
				FillRatio:    f.FillRatio(),
				EstimatedFPR: f.EstimatedFalsePositiveRate(),
				EncodedSize:  f.EncodedSize(a.fileOptions()...),
			}

			if a.jsonOut {
				return writeJSON(cmd.OutOrStdout(), info)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Name:        %s\n", info.Name)
			fmt.Fprintf(w, "Bits:        %d\n", info.BitCount)
			fmt.Fprintf(w, "Bytes:       %d\n", info.ByteCount)
			fmt.Fprintf(w, "Hashes:      %d\n", info.NumHashes)
			fmt.Fprintf(w, "Seed:        %d\n", info.Seed)
			fmt.Fprintf(w, "Set bits:    %d\n", info.SetBits)
			fmt.Fprintf(w, "Fill ratio:  %.4f\n", info.FillRatio)
			fmt.Fprintf(w, "Est. FPR:    %.6f\n", info.EstimatedFPR)
			fmt.Fprintf(w, "Encoded:     %d bytes\n", info.EncodedSize)
			return nil
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	data, err := codec.Default.MarshalIndent(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s output: %w", codec.Default.Name(), err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

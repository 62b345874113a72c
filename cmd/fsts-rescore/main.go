// Command fsts-rescore composes an archive of lattices against an old/new
// language model pair via phi-composition backoff, writing the rescored
// hypotheses and output lattices (spec's supplemented fsts-rescore.cc
// feature, original_source). Grounded on wingthing's cobra RunE shape.
package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/katalvlaran/decipherfst/fstio"
	"github.com/katalvlaran/decipherfst/rescore"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		phiLabel        int32
		outputPruneBeam float64
		pruneOutput     bool
		removeWeights   bool
	)

	cmd := &cobra.Command{
		Use:   "fsts-rescore <fst-in> <old-lm> <new-lm> <tgt-seq-out> <fst-out>",
		Short: "Rescore an archive of lattices against a new language model via phi-composition",
		Args:  cobra.ExactArgs(5),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(args, rescore.Config{
				PhiLabel:        phiLabel,
				OutputPruneBeam: outputPruneBeam,
				PruneOutput:     pruneOutput,
				RemoveWeights:   removeWeights,
			})
		},
	}

	flags := cmd.Flags()
	flags.Int32Var(&phiLabel, "phi-label", 0, "the label on backoff arcs of the LM (required, > 0)")
	flags.Float64Var(&outputPruneBeam, "output_prune_beam", 4, "output prune beam")
	flags.BoolVar(&pruneOutput, "prune_output", true, "prune output")
	flags.BoolVar(&removeWeights, "remove_weights", true, "remove weights")

	return cmd
}

func run(args []string, cfg rescore.Config) error {
	fstInPath, oldLMPath, newLMPath, tgtSeqOutPath, fstOutPath := args[0], args[1], args[2], args[3], args[4]

	oldLM, err := fstio.ReadFst(oldLMPath)
	if err != nil {
		return fmt.Errorf("fsts-rescore: read old LM: %w", err)
	}
	newLM, err := fstio.ReadFst(newLMPath)
	if err != nil {
		return fmt.Errorf("fsts-rescore: read new LM: %w", err)
	}

	r, err := rescore.NewRescorer(oldLM, newLM, cfg)
	if err != nil {
		return fmt.Errorf("fsts-rescore: %w", err)
	}

	ar, err := fstio.OpenArchive(fstInPath)
	if err != nil {
		return fmt.Errorf("fsts-rescore: open %s: %w", fstInPath, err)
	}
	defer ar.Close()

	seqOut, err := os.Create(tgtSeqOutPath)
	if err != nil {
		return fmt.Errorf("fsts-rescore: create %s: %w", tgtSeqOutPath, err)
	}
	defer seqOut.Close()
	seqW := bufio.NewWriter(seqOut)
	defer seqW.Flush()

	fstOut, err := fstio.CreateArchive(fstOutPath)
	if err != nil {
		return fmt.Errorf("fsts-rescore: create %s: %w", fstOutPath, err)
	}
	defer fstOut.Close()

	var nDone, nFail int
	for !ar.Done() {
		key := ar.Key()
		res, err := r.Rescore(ar.Value())
		if err != nil {
			if errors.Is(err, rescore.ErrEmptyHypothesis) {
				fmt.Fprintf(os.Stderr, "fsts-rescore: %s: empty\n", key)
				if _, werr := fmt.Fprintf(seqW, "%s\n", key); werr != nil {
					return fmt.Errorf("fsts-rescore: write %s: %w", tgtSeqOutPath, werr)
				}
				nFail++
				ar.Next()
				continue
			}
			return fmt.Errorf("fsts-rescore: %s: %w", key, err)
		}

		if _, err := fmt.Fprintf(seqW, "%s %s\n", key, joinSymbols(res.Hypothesis)); err != nil {
			return fmt.Errorf("fsts-rescore: write %s: %w", tgtSeqOutPath, err)
		}
		if err := fstOut.Write(key, res.Lattice); err != nil {
			return fmt.Errorf("fsts-rescore: write %s: %w", fstOutPath, err)
		}
		nDone++

		ar.Next()
	}
	if err := ar.Err(); err != nil {
		return fmt.Errorf("fsts-rescore: read %s: %w", fstInPath, err)
	}

	fmt.Printf("fsts-rescore: done %d, failed %d\n", nDone, nFail)
	if nDone == 0 {
		return fmt.Errorf("fsts-rescore: no utterances rescored")
	}

	return nil
}

func joinSymbols(syms []int32) string {
	parts := make([]string, len(syms))
	for i, s := range syms {
		parts[i] = strconv.FormatInt(int64(s), 10)
	}

	return strings.Join(parts, " ")
}

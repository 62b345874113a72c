// Command decipherment-apply decodes an archive of observations against a
// lexicon, an alignment model, and a language model, writing the decoded
// target sequences and output lattices back out (spec §6's
// "decipherment-apply <lex> <ali> <lm> <obs-in> <tgt-seq-out> <fst-out>").
// Grounded on decipherment-apply.cc's own driver (original_source) and on
// wingthing's cmd/wt cobra single-root-command-with-RunE shape.
package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/katalvlaran/decipherfst/config"
	"github.com/katalvlaran/decipherfst/decode"
	"github.com/katalvlaran/decipherfst/fstio"
	"github.com/katalvlaran/decipherfst/wfst"
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
		numSrcSyms, numTgtSyms int32
		power                  float64
		pruneBeam              float64
		outputPruneBeam        float64
		stepsThreshold         int
		pruneOutput            bool
		removeWeights          bool
		configPath             string
	)

	cmd := &cobra.Command{
		Use:   "decipherment-apply <lex> <ali> <lm> <obs-in> <tgt-seq-out> <fst-out>",
		Short: "Decode an archive of observations through a trained decipherment cascade",
		Args:  cobra.ExactArgs(6),
		RunE: func(cmd *cobra.Command, args []string) error {
			if numSrcSyms <= 0 || numTgtSyms <= 0 {
				return fmt.Errorf("decipherment-apply: --num-source-symbols and --num-target-symbols are required and must be > 0")
			}

			defaults, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("power") {
				power = defaults.Decode.Power
			}
			if !cmd.Flags().Changed("prune_beam") {
				pruneBeam = defaults.Decode.PruneBeam
			}
			if !cmd.Flags().Changed("output_prune_beam") {
				outputPruneBeam = defaults.Decode.OutputPruneBeam
			}
			if !cmd.Flags().Changed("steps_threshold") {
				stepsThreshold = defaults.Decode.StepsThreshold
			}
			if !cmd.Flags().Changed("prune_output") {
				pruneOutput = defaults.Decode.PruneOutput
			}
			if !cmd.Flags().Changed("remove_weights") {
				removeWeights = defaults.Decode.RemoveWeights
			}

			return run(args, decode.Config{
				NumSrcSyms:       numSrcSyms,
				NumTgtSyms:       numTgtSyms,
				Power:            power,
				PruneBeam:        pruneBeam,
				OutputPruneBeam:  outputPruneBeam,
				StepsThreshold:   stepsThreshold,
				PruneOutput:      pruneOutput,
				RemoveWeightsOut: removeWeights,
			})
		},
	}

	flags := cmd.Flags()
	flags.Int32Var(&numSrcSyms, "num-source-symbols", 0, "number of source alphabet symbols (required)")
	flags.Int32Var(&numTgtSyms, "num-target-symbols", 0, "number of target alphabet symbols (required)")
	flags.Float64Var(&power, "power", 2.5, "lexical weight exponent applied before composing")
	flags.Float64Var(&pruneBeam, "prune_beam", 8, "three-way composer beam width")
	flags.Float64Var(&outputPruneBeam, "output_prune_beam", 4, "post-composition output lattice beam width")
	flags.IntVar(&stepsThreshold, "steps_threshold", 5, "three-way composer re-sort cadence")
	flags.BoolVar(&pruneOutput, "prune_output", true, "prune and clean up the output lattice before writing it")
	flags.BoolVar(&removeWeights, "remove_weights", true, "strip weights from the output lattice")
	flags.StringVar(&configPath, "config", "", "optional YAML defaults file, overridden by any flag explicitly passed")

	return cmd
}

func run(args []string, cfg decode.Config) error {
	lexPath, aliPath, lmPath, obsPath, tgtSeqOutPath, fstOutPath := args[0], args[1], args[2], args[3], args[4], args[5]

	l, err := loadAsTropical(lexPath)
	if err != nil {
		return fmt.Errorf("decipherment-apply: load lexicon: %w", err)
	}
	a, err := loadAsTropical(aliPath)
	if err != nil {
		return fmt.Errorf("decipherment-apply: load alignment model: %w", err)
	}
	g, err := loadAsTropical(lmPath)
	if err != nil {
		return fmt.Errorf("decipherment-apply: load language model: %w", err)
	}

	d, err := decode.NewDecoder(l, a, g, cfg)
	if err != nil {
		return fmt.Errorf("decipherment-apply: %w", err)
	}

	ar, err := fstio.OpenArchive(obsPath)
	if err != nil {
		return fmt.Errorf("decipherment-apply: open observations: %w", err)
	}
	defer ar.Close()

	seqOut, err := os.Create(tgtSeqOutPath)
	if err != nil {
		return fmt.Errorf("decipherment-apply: create %s: %w", tgtSeqOutPath, err)
	}
	defer seqOut.Close()
	seqW := bufio.NewWriter(seqOut)
	defer seqW.Flush()

	latticeOut, err := fstio.CreateArchive(fstOutPath)
	if err != nil {
		return fmt.Errorf("decipherment-apply: create %s: %w", fstOutPath, err)
	}
	defer latticeOut.Close()

	var succeeded bool
	for !ar.Done() {
		key := ar.Key()
		res, err := d.Decode(ar.Value())
		if err != nil {
			if errors.Is(err, decode.ErrEmptyHypothesis) {
				fmt.Fprintf(os.Stderr, "decipherment-apply: %s: no accepting path\n", key)
				ar.Next()
				continue
			}
			return fmt.Errorf("decipherment-apply: %s: %w", key, err)
		}
		succeeded = true

		if _, err := fmt.Fprintf(seqW, "%s %s\n", key, joinSymbols(res.Hypothesis)); err != nil {
			return fmt.Errorf("decipherment-apply: write %s: %w", tgtSeqOutPath, err)
		}
		if err := latticeOut.Write(key, res.Lattice); err != nil {
			return fmt.Errorf("decipherment-apply: write %s: %w", fstOutPath, err)
		}

		ar.Next()
	}
	if err := ar.Err(); err != nil {
		return fmt.Errorf("decipherment-apply: read observations: %w", err)
	}

	// spec §9's open question on exit codes: a run with at least one
	// successful decode is treated as success even if later observations
	// were empty; a run where every observation failed is not.
	if !succeeded {
		return decode.ErrEmptyHypothesis
	}

	return nil
}

func loadAsTropical(path string) (*wfst.Fst, error) {
	f, err := fstio.ReadFst(path)
	if err != nil {
		return nil, err
	}

	return fstio.ToTropical(f)
}

func joinSymbols(syms []int32) string {
	parts := make([]string, len(syms))
	for i, s := range syms {
		parts[i] = strconv.FormatInt(int64(s), 10)
	}

	return strings.Join(parts, " ")
}

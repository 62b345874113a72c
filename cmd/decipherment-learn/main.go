// Command decipherment-learn runs EM training over a lexicon, an alignment
// model, a language model, and an archive of observations, writing the
// trained lexicon and alignment model back out (spec §6's
// "decipherment-learn <lex> <ali> <lm> <obs-in> <lex-out> <ali-out>").
// Grounded on wingthing's cmd/wt cobra single-root-command-with-RunE shape.
package main

import (
	"fmt"
	"os"

	"github.com/katalvlaran/decipherfst/config"
	"github.com/katalvlaran/decipherfst/fstio"
	"github.com/katalvlaran/decipherfst/train"
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
		trainLex, trainAli     bool
		numIters               int
		numThreads             int
		threeWay               bool
		pruneBeam              float64
		stepsThreshold         int
		configPath             string
	)

	cmd := &cobra.Command{
		Use:   "decipherment-learn <lex> <ali> <lm> <obs-in> <lex-out> <ali-out>",
		Short: "Train a decipherment cascade's lexicon and alignment weights via EM",
		Args:  cobra.ExactArgs(6),
		RunE: func(cmd *cobra.Command, args []string) error {
			if numSrcSyms <= 0 || numTgtSyms <= 0 {
				return fmt.Errorf("decipherment-learn: --num-source-symbols and --num-target-symbols are required and must be > 0")
			}

			defaults, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("num-iters") {
				numIters = defaults.Train.NumIters
			}
			if !cmd.Flags().Changed("num-threads") {
				numThreads = defaults.Train.NumThreads
			}
			if !cmd.Flags().Changed("threeway") {
				threeWay = defaults.Train.ThreeWay
			}
			if !cmd.Flags().Changed("prune-beam") {
				pruneBeam = defaults.Train.PruneBeam
			}
			if !cmd.Flags().Changed("steps-threshold") {
				stepsThreshold = defaults.Train.StepsThreshold
			}

			return run(args, train.Config{
				NumSrcSyms:     numSrcSyms,
				NumTgtSyms:     numTgtSyms,
				TrainLex:       trainLex,
				TrainAli:       trainAli,
				NumIters:       numIters,
				NumThreads:     numThreads,
				ThreeWay:       threeWay,
				PruneBeam:      pruneBeam,
				StepsThreshold: stepsThreshold,
			})
		},
	}

	flags := cmd.Flags()
	flags.Int32Var(&numSrcSyms, "num-source-symbols", 0, "number of source alphabet symbols (required)")
	flags.Int32Var(&numTgtSyms, "num-target-symbols", 0, "number of target alphabet symbols (required)")
	flags.BoolVar(&trainLex, "train-lex", true, "re-estimate the lexicon's weights")
	flags.BoolVar(&trainAli, "train-ali", true, "re-estimate the alignment model's weights")
	flags.IntVar(&numIters, "num-iters", 10, "number of EM iterations")
	flags.IntVar(&numThreads, "num-threads", 1, "worker pool size")
	flags.BoolVar(&threeWay, "threeway", false, "use the pruned on-the-fly three-way composer instead of the exact cascade")
	flags.Float64Var(&pruneBeam, "prune-beam", 8, "three-way composer beam width (ignored unless --threeway)")
	flags.IntVar(&stepsThreshold, "steps-threshold", 5, "three-way composer re-sort cadence (ignored unless --threeway)")
	flags.StringVar(&configPath, "config", "", "optional YAML defaults file, overridden by any flag explicitly passed")

	return cmd
}

func run(args []string, cfg train.Config) error {
	lexPath, aliPath, lmPath, obsPath, lexOutPath, aliOutPath := args[0], args[1], args[2], args[3], args[4], args[5]

	l, err := loadAsLog(lexPath)
	if err != nil {
		return fmt.Errorf("decipherment-learn: load lexicon: %w", err)
	}
	a, err := loadAsLog(aliPath)
	if err != nil {
		return fmt.Errorf("decipherment-learn: load alignment model: %w", err)
	}
	g, err := loadAsLog(lmPath)
	if err != nil {
		return fmt.Errorf("decipherment-learn: load language model: %w", err)
	}

	observations, err := loadObservations(obsPath)
	if err != nil {
		return fmt.Errorf("decipherment-learn: load observations: %w", err)
	}

	trainer, err := train.NewTrainer(l, a, g, cfg)
	if err != nil {
		return fmt.Errorf("decipherment-learn: %w", err)
	}

	if err := trainer.Train(observations, logIteration); err != nil {
		return fmt.Errorf("decipherment-learn: %w", err)
	}

	lexOut, err := fstio.ToTropical(trainer.L)
	if err != nil {
		return fmt.Errorf("decipherment-learn: write lexicon: %w", err)
	}
	aliOut, err := fstio.ToTropical(trainer.A)
	if err != nil {
		return fmt.Errorf("decipherment-learn: write alignment model: %w", err)
	}
	if err := fstio.WriteFst(lexOutPath, lexOut); err != nil {
		return fmt.Errorf("decipherment-learn: write lexicon: %w", err)
	}
	if err := fstio.WriteFst(aliOutPath, aliOut); err != nil {
		return fmt.Errorf("decipherment-learn: write alignment model: %w", err)
	}

	return nil
}

func loadAsLog(path string) (*wfst.Fst, error) {
	f, err := fstio.ReadFst(path)
	if err != nil {
		return nil, err
	}

	return fstio.ToLog(f)
}

func loadObservations(path string) ([]*wfst.Fst, error) {
	ar, err := fstio.OpenArchive(path)
	if err != nil {
		return nil, err
	}
	defer ar.Close()

	var out []*wfst.Fst
	for !ar.Done() {
		logged, err := fstio.ToLog(ar.Value())
		if err != nil {
			return nil, err
		}
		out = append(out, logged)
		ar.Next()
	}
	if err := ar.Err(); err != nil {
		return nil, err
	}

	return out, nil
}

func logIteration(stats train.IterationStats) {
	fmt.Printf("iter=%d lex_states=%d lex_arcs=%d ali_states=%d ali_arcs=%d likelihood=%.6f elapsed=%s\n",
		stats.Iteration, stats.LexStates, stats.LexArcs, stats.AliStates, stats.AliArcs, stats.Likelihood, stats.Elapsed)
}

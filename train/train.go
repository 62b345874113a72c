// Package train implements the sharded worker-pool EM driver (§4.7, §5):
// partition observations round-robin across shards, run one composer
// snapshot per iteration, fan shards out to a fixed-size pool, merge at a
// barrier, run the M-step, and log progress. Generalized from a
// one-goroutine-per-operation WaitGroup idiom to one goroutine per shard,
// gated through a fixed-size semaphore, since §5 specifies a bounded pool
// rather than unbounded fan-out.
package train

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/katalvlaran/decipherfst/cascade"
	"github.com/katalvlaran/decipherfst/compose"
	"github.com/katalvlaran/decipherfst/expect"
	"github.com/katalvlaran/decipherfst/wfst"
)

// ErrNoThreads indicates a non-positive worker count.
var ErrNoThreads = errors.New("train: num threads must be > 0")

// Config holds the training driver's tunables, named after spec §6's CLI
// flags for decipherment-learn.
type Config struct {
	NumSrcSyms, NumTgtSyms int32
	TrainLex, TrainAli     bool
	NumIters               int
	NumThreads             int
	ThreeWay               bool
	PruneBeam              float64
	StepsThreshold         int
	// DeterministicMerge has no effect, and no CLI flag sets it; it names
	// spec §5's "implementations aiming for bitwise reproducibility must
	// merge in shard-index order" note. Shard results are written into a slice
	// indexed by shard number rather than drained from a completion-order
	// channel, so the merge loop is already shard-index-ordered regardless
	// of this flag; there is no separate completion-order code path to
	// switch away from.
	DeterministicMerge bool
	// SmoothingMass is the constant decipherment-learn.cc passes to
	// Expectations.Reset (1000) before the E-step of every iteration when
	// ThreeWay is set, smoothing away the zero-mass cells a beam-pruned
	// lattice otherwise leaves untouched (spec §9). Zero means "use the
	// original's own default."
	SmoothingMass float64
}

// defaultSmoothingMass mirrors decipherment-learn.cc's unconditional
// total_expectations.Reset(1000) call.
const defaultSmoothingMass = 1000

// IterationStats is logged once per completed EM iteration (spec §4.7:
// "log states/arcs/likelihood/time").
type IterationStats struct {
	Iteration  int
	LexStates  int
	LexArcs    int
	AliStates  int
	AliArcs    int
	Likelihood float64
	Elapsed    time.Duration
}

// Logger receives one IterationStats per completed iteration. Callers that
// don't care about progress logging may pass nil.
type Logger func(IterationStats)

// Trainer owns the three live models and runs EM iterations over them in
// place: L and A are mutated by Maximize at the end of each iteration; G is
// never modified after its one-time input-projection.
type Trainer struct {
	L, A, G *wfst.Fst
	cfg     Config
}

// NewTrainer wraps l, a, g for EM training under cfg. g is projected to its
// input side once, up front (spec §4.7: "Project G to input to discard its
// output side"), so every iteration's composer sees matching labels.
func NewTrainer(l, a, g *wfst.Fst, cfg Config) (*Trainer, error) {
	if cfg.NumThreads <= 0 {
		return nil, ErrNoThreads
	}

	wfst.Project(g, wfst.ProjectInput)

	return &Trainer{L: l, A: a, G: g, cfg: cfg}, nil
}

// partitionRoundRobin splits observations into n shards by round-robin
// index assignment (spec §4.7: "Partition observations round-robin into N
// shards"), so that shard sizes differ by at most one regardless of
// observation count.
func partitionRoundRobin(observations []*wfst.Fst, n int) [][]*wfst.Fst {
	shards := make([][]*wfst.Fst, n)
	for i, o := range observations {
		shards[i%n] = append(shards[i%n], o)
	}

	return shards
}

// buildComposer snapshots a new composer over the trainer's current L, A, G
// — one per iteration, per spec §5's "models are read-only during an
// iteration; they are snapshot into each composer at iteration start."
func (tr *Trainer) buildComposer() (compose.Composer, error) {
	if tr.cfg.ThreeWay {
		return compose.NewThreeWayComposer(tr.L, tr.A, tr.G, tr.cfg.NumSrcSyms, tr.cfg.NumTgtSyms, tr.cfg.PruneBeam, tr.cfg.StepsThreshold)
	}

	return compose.NewStandardComposer(tr.L, tr.A, tr.G), nil
}

// Train runs cfg.NumIters EM iterations over observations, reporting
// per-iteration stats to log (which may be nil).
func (tr *Trainer) Train(observations []*wfst.Fst, log Logger) error {
	shards := partitionRoundRobin(observations, tr.cfg.NumThreads)

	for iter := 0; iter < tr.cfg.NumIters; iter++ {
		start := time.Now()

		composer, err := tr.buildComposer()
		if err != nil {
			return fmt.Errorf("train: iteration %d: build composer: %w", iter, err)
		}

		dc := cascade.NewDeciphermentCascade(tr.L, tr.A, tr.G, composer, tr.cfg.NumSrcSyms, tr.cfg.NumTgtSyms, tr.cfg.TrainLex, tr.cfg.TrainAli)

		total, err := expect.NewExpectations(tr.L.NumStates(), tr.cfg.NumSrcSyms, tr.cfg.NumTgtSyms, tr.A.NumStates())
		if err != nil {
			return fmt.Errorf("train: iteration %d: %w", iter, err)
		}
		if tr.cfg.ThreeWay {
			c := tr.cfg.SmoothingMass
			if c == 0 {
				c = defaultSmoothingMass
			}
			total.Reset(c)
		}

		if err := tr.runShards(shards, dc, total); err != nil {
			return fmt.Errorf("train: iteration %d: %w", iter, err)
		}

		if err := dc.Maximize(total); err != nil {
			return fmt.Errorf("train: iteration %d: maximize: %w", iter, err)
		}
		tr.L, tr.A = dc.L, dc.A

		if log != nil {
			log(IterationStats{
				Iteration:  iter,
				LexStates:  tr.L.NumStates(),
				LexArcs:    tr.L.NumArcs(),
				AliStates:  tr.A.NumStates(),
				AliArcs:    tr.A.NumArcs(),
				Likelihood: total.Likelihood().Float(),
				Elapsed:    time.Since(start),
			})
		}
	}

	return nil
}

// runShards fans shards out across a fixed-size worker pool (a buffered
// semaphore channel, the idiomatic Go rendition of spec §5's "fixed-size
// task sequencer"), waits for every shard via sync.WaitGroup, and merges
// each shard's per-shard Expectations into total once every worker has
// returned. total may already carry smoothing mass from Reset; merging
// only adds to it, never replaces it.
func (tr *Trainer) runShards(shards [][]*wfst.Fst, dc *cascade.DeciphermentCascade, total *expect.Expectations) error {
	n := len(shards)
	partials := make([]*expect.Expectations, n)
	errs := make([]error, n)

	sem := make(chan struct{}, tr.cfg.NumThreads)
	var wg sync.WaitGroup
	wg.Add(n)

	for i := 0; i < n; i++ {
		sem <- struct{}{}
		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()

			exp, err := expect.NewExpectations(tr.L.NumStates(), tr.cfg.NumSrcSyms, tr.cfg.NumTgtSyms, tr.A.NumStates())
			if err != nil {
				errs[idx] = err
				return
			}

			for _, o := range shards[idx] {
				if err := dc.ComputeExpectations(o, exp); err != nil {
					// Numerical degeneracy (empty lattice, zero likelihood) is a
					// per-utterance skip per spec §7, not a batch abort.
					if errors.Is(err, cascade.ErrEmptyLattice) || errors.Is(err, cascade.ErrZeroLikelihood) {
						slog.Warn("train: skipping observation", "shard", idx, "err", err)
						continue
					}
					errs[idx] = err
					return
				}
			}

			partials[idx] = exp
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}

	// partials is indexed by shard number, so this loop is already
	// shard-index-ordered; see Config.DeterministicMerge.
	for _, p := range partials {
		if p == nil {
			continue
		}
		if err := total.Merge(p); err != nil {
			return err
		}
	}

	return nil
}

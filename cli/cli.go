// Package cli implements the dsort command: sorting a file with in-process
// workers, running one worker of a multi-process sort, and generating test
// input.
package cli

import (
	"context"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"time"

	"github.com/exascience/dsort"
	"github.com/exascience/dsort/comm"
	"github.com/exascience/dsort/config"
	"github.com/exascience/dsort/floatio"
	"github.com/exascience/dsort/metrics"
	"github.com/exascience/dsort/metrics/prompush"
	"github.com/exascience/dsort/radix"
	"github.com/exascience/dsort/sort"
	"github.com/pkg/errors"
	cli "github.com/urfave/cli/v2"
	"gonum.org/v1/gonum/floats"
)

var (
	inputFlag = &cli.StringFlag{
		Name:     "input",
		Usage:    "Path of the values to sort",
		Required: true,
	}
	outputFlag = &cli.StringFlag{
		Name:     "output",
		Usage:    "Path where the sorted values are written",
		Required: true,
	}
	formatFlag = &cli.StringFlag{
		Name:  "format",
		Usage: "File format of input and output: binary (little-endian float64) or text (one value per line)",
		Value: "binary",
	}
	verifyFlag = &cli.BoolFlag{
		Name:  "verify",
		Usage: "Check that the output is a sorted permutation of the input",
	}
	workersFlag = &cli.IntFlag{
		Name:  "workers",
		Usage: "Number of in-process workers (0 uses GOMAXPROCS)",
	}
	configFlag = &cli.StringFlag{
		Name:     "config",
		Usage:    "Path to the cluster configuration file",
		Required: true,
	}
	rankFlag = &cli.IntFlag{
		Name:     "rank",
		Usage:    "Rank of this worker in the cluster list",
		Required: true,
	}
	countFlag = &cli.IntFlag{
		Name:  "count",
		Usage: "Number of values to generate",
		Value: 1000000,
	}
	seedFlag = &cli.Int64Flag{
		Name:  "seed",
		Usage: "Seed of the random generator",
		Value: 1,
	}
)

// verify checks that out holds the values of in, bit for bit, in sorted
// order.
func verify(in, out []float64) error {
	if len(in) != len(out) {
		return errors.Errorf("verify: %d values sorted into %d", len(in), len(out))
	}
	if !sort.Float64sAreSorted(out) {
		return errors.New("verify: output is not sorted")
	}
	want := append([]float64(nil), in...)
	radix.SortFloat64s(want)
	for i := range want {
		if math.Float64bits(out[i]) != math.Float64bits(want[i]) {
			return errors.Errorf("verify: value %d is %v, want %v", i, out[i], want[i])
		}
	}
	return nil
}

func summarize(logger *log.Logger, values []float64, d time.Duration) {
	if len(values) == 0 {
		logger.Printf("sorted 0 values in %v", d)
		return
	}
	logger.Printf("sorted %d values in %v, min %g, max %g", len(values), d, floats.Min(values), floats.Max(values))
}

func handleLocalCommand(c *cli.Context) error {
	format, err := floatio.ParseFormat(c.String("format"))
	if err != nil {
		return err
	}
	in, err := floatio.ReadFile(c.String("input"), format)
	if err != nil {
		return err
	}
	logger := log.New(c.App.ErrWriter, "", log.LstdFlags)
	start := time.Now()
	out, err := dsort.SortLocal(c.Context, c.Int("workers"), in)
	if err != nil {
		return errors.Wrap(err, "sort")
	}
	summarize(logger, out, time.Since(start))
	if c.Bool("verify") {
		if err := verify(in, out); err != nil {
			return err
		}
		logger.Printf("verified %d values", len(out))
	}
	return floatio.WriteFile(c.String("output"), format, out)
}

func handleWorkerCommand(c *cli.Context) error {
	rank := c.Int("rank")
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	if err := cfg.Validate(rank); err != nil {
		return errors.Wrap(err, "invalid configuration")
	}
	logger := log.New(c.App.ErrWriter, fmt.Sprintf("[rank %d] ", rank), log.LstdFlags)

	if cfg.Metrics.Pushgateway != "" {
		backend, err := prompush.NewBackend(cfg.Metrics.Job, cfg.Metrics.Pushgateway, rank)
		if err != nil {
			return err
		}
		metrics.SetBackend(backend)
		defer func() {
			if err := metrics.Flush(); err != nil {
				logger.Printf("failed to push metrics: %v", err)
			}
		}()
	}

	ep, err := comm.Listen(c.Context, rank, cfg.Cluster.Workers, comm.TCPOptions{DialTimeout: cfg.Cluster.DialTimeout})
	if err != nil {
		return err
	}
	defer ep.Close()
	logger.Printf("listening on %v with %d workers", ep.Addr(), ep.Size())

	if rank != dsort.Coordinator {
		if err := dsort.Sort(c.Context, ep, 0, nil, nil); err != nil {
			return errors.Wrap(err, "sort")
		}
		logger.Printf("done")
		return nil
	}

	inFormat, _ := cfg.InputFormat()
	outFormat, _ := cfg.OutputFormat()
	in, err := floatio.ReadFile(cfg.Input.Path, inFormat)
	if err != nil {
		// Reject the run so that the other workers do not wait for a
		// coordinator that never starts.
		if serr := dsort.Sort(c.Context, ep, -1, nil, nil); errors.Cause(serr) != dsort.ErrInvalidInput {
			logger.Printf("failed to abort the other workers: %v", serr)
		}
		return err
	}
	out := make([]float64, len(in))
	start := time.Now()
	if err := dsort.Sort(c.Context, ep, len(in), in, out); err != nil {
		return errors.Wrap(err, "sort")
	}
	summarize(logger, out, time.Since(start))
	if cfg.Output.Verify {
		if err := verify(in, out); err != nil {
			return err
		}
		logger.Printf("verified %d values", len(out))
	}
	return floatio.WriteFile(cfg.Output.Path, outFormat, out)
}

// generate returns count values spread over many orders of magnitude, with
// both signs, some zeros of either sign, and repeated values.
func generate(count int, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	values := make([]float64, count)
	for i := range values {
		switch r := rng.Intn(100); {
		case r < 2:
			values[i] = math.Copysign(0, float64(rng.Intn(2)*2-1))
		case r < 7:
			values[i] = float64(rng.Intn(16))
		default:
			values[i] = rng.NormFloat64() * math.Pow(10, float64(rng.Intn(61)-30))
		}
	}
	return values
}

func handleGenCommand(c *cli.Context) error {
	if c.Int("count") < 0 {
		return errors.Errorf("negative count %d", c.Int("count"))
	}
	format, err := floatio.ParseFormat(c.String("format"))
	if err != nil {
		return err
	}
	return floatio.WriteFile(c.String("output"), format, generate(c.Int("count"), c.Int64("seed")))
}

// NewApp returns the dsort command.
func NewApp() *cli.App {
	return &cli.App{
		Name:  "dsort",
		Usage: "Sort float64 values with a distributed radix sort",
		Commands: []*cli.Command{
			{
				Name:   "local",
				Usage:  "Sort a file with workers running in this process",
				Flags:  []cli.Flag{inputFlag, outputFlag, formatFlag, verifyFlag, workersFlag},
				Action: handleLocalCommand,
			},
			{
				Name:   "worker",
				Usage:  "Run one worker of a sort across processes",
				Flags:  []cli.Flag{configFlag, rankFlag},
				Action: handleWorkerCommand,
			},
			{
				Name:  "gen",
				Usage: "Generate random values to sort",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "output", Usage: "Path where the values are written", Required: true},
					formatFlag, countFlag, seedFlag,
				},
				Action: handleGenCommand,
			},
		},
	}
}

// Run runs the dsort command until it completes or ctx is canceled.
func Run(ctx context.Context, args []string) error {
	app := NewApp()
	app.ErrWriter = os.Stderr
	return app.RunContext(ctx, args)
}

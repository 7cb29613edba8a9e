package main

import (
	"context"
	"fmt"
	"log"
	"math"
	"os"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/becomeliminal/holomem-go/core"
	"github.com/becomeliminal/holomem-go/memory"
	"github.com/becomeliminal/holomem-go/memory/keygen"
	"github.com/becomeliminal/holomem-go/memory/store/chromem"
	"github.com/becomeliminal/holomem-go/sample"
)

type demoFlags struct {
	side         int
	numCopies    int
	batchSize    int
	seed         int64
	keyType      string
	pseudoKeys   bool
	complexNorm  bool
	l2Norm       bool
	convolution  string
	dataPath     string
	hebbian      bool
	hebbianDecay float64
}

func newDemoCmd() *cobra.Command {
	f := &demoFlags{}
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Encode a batch of samples and recover each one by its key",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(cmd.Context(), cmd, f)
		},
	}
	fl := cmd.Flags()
	fl.IntVar(&f.side, "side", 28, "Synthetic image side; input size is side*side.")
	fl.IntVar(&f.numCopies, "num-copies", 3, "Number of copies to make.")
	fl.IntVar(&f.batchSize, "batch-size", 2, "Number of samples to use in minibatch")
	fl.Int64Var(&f.seed, "seed", 0, "Fixed seed to get reproducible results.")
	fl.StringVar(&f.keyType, "keytype", "normal", "Key type: onehot, normal, uniform.")
	fl.BoolVar(&f.pseudoKeys, "pseudokeys", true, "Use synthetically generated keys or [data + error] as keys")
	fl.BoolVar(&f.complexNorm, "complex-normalize-keys", false, "Normalize keys via complex mod.")
	fl.BoolVar(&f.l2Norm, "l2-normalize-keys", false, "Normalize keys via l2 norm.")
	fl.StringVar(&f.convolution, "convolution", "circular", "Binding: circular, direct, linear.")
	fl.StringVar(&f.dataPath, "data", "", "CSV file of samples, one per line (default: synthetic images).")
	fl.BoolVar(&f.hebbian, "hebbian", false, "Also store the batch in a Hebbian weight matrix and compare.")
	fl.Float64Var(&f.hebbianDecay, "hebbian-decay", memory.DefaultHebbianDecay, "Hebbian forgetting factor.")
	return cmd
}

func runDemo(ctx context.Context, cmd *cobra.Command, f *demoFlags) error {
	if f.complexNorm && f.l2Norm {
		return fmt.Errorf("--complex-normalize-keys and --l2-normalize-keys are mutually exclusive")
	}
	var seed *int64
	if cmd.Flags().Changed("seed") {
		seed = &f.seed
	}

	src, err := openSource(f, seed)
	if err != nil {
		return err
	}

	keyType := core.KeyDataDerived
	if f.pseudoKeys {
		if keyType, err = core.ParseKeyType(f.keyType); err != nil {
			return err
		}
	}
	keys, err := keygen.New(keyType, seed, 0)
	if err != nil {
		return err
	}
	conv, err := core.ParseConvolution(f.convolution)
	if err != nil {
		return err
	}
	norm := core.NormalizeNone
	switch {
	case f.complexNorm:
		norm = core.NormalizeComplexModulus
	case f.l2Norm:
		norm = core.NormalizeL2
	}

	store, err := chromem.New()
	if err != nil {
		return err
	}
	defer store.Close()

	manager, err := memory.NewSimpleManager(keys, store, nil, &memory.Config{
		InputSize:     src.Size(),
		NumModels:     f.numCopies,
		Seed:          seed,
		Normalization: norm,
		Convolution:   conv,
		VerifyKeys:    true,
		Cleanup:       true,
	})
	if err != nil {
		return err
	}
	defer manager.Close()

	values, err := src.NextBatch(ctx, f.batchSize)
	if err != nil {
		return err
	}
	trace, err := manager.Record(ctx, values)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, trace.Format())
	fmt.Fprintf(out, "values to encode: [%d %d]\n", len(values), src.Size())
	fmt.Fprintf(out, "encoded memories shape: [%d %d]\n", len(trace.Memory()), trace.InputSize())

	for i, v := range values {
		rec, err := manager.Retrieve(ctx, trace.ID(), i)
		if err != nil {
			return err
		}
		line := fmt.Sprintf("item %d: rmse=%.4f cosine=%.4f", i, rmse(v, rec.Value), cosine(v, rec.Value))
		if rec.Match != nil {
			line += fmt.Sprintf(" cleanup=%s (%.4f)", rec.Match.Label, rec.Match.Similarity)
		}
		fmt.Fprintln(out, line)
	}

	if f.hebbian {
		n := src.Size()
		A, err := memory.UpdateHebbWeightsBatch(mat.NewDense(n, n, nil), values, f.hebbianDecay)
		if err != nil {
			return err
		}
		for i, v := range values {
			got, err := memory.HebbianRecall(A, v)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "hebbian item %d: cosine=%.4f\n", i, cosine(v, got))
		}
	}
	return nil
}

func openSource(f *demoFlags, seed *int64) (sample.Source, error) {
	if f.dataPath != "" {
		file, err := os.Open(f.dataPath)
		if err != nil {
			return nil, fmt.Errorf("open samples: %w", err)
		}
		defer file.Close()
		log.Printf("📦 Loading samples from %s", f.dataPath)
		return sample.ReadCSV(file)
	}
	var s int64
	if seed != nil {
		s = *seed
	}
	return sample.NewSynthetic(f.side, s)
}

func rmse(a, b []float64) float64 {
	return floats.Distance(a, b, 2) / math.Sqrt(float64(len(a)))
}

func cosine(a, b []float64) float64 {
	na, nb := floats.Norm(a, 2), floats.Norm(b, 2)
	if na == 0 || nb == 0 {
		return 0
	}
	return floats.Dot(a, b) / (na * nb)
}

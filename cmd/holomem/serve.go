package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/becomeliminal/holomem-go/core"
	"github.com/becomeliminal/holomem-go/memory"
	"github.com/becomeliminal/holomem-go/memory/keygen"
	"github.com/becomeliminal/holomem-go/memory/store/chromem"
	"github.com/becomeliminal/holomem-go/memory/store/sqlite"
	"github.com/becomeliminal/holomem-go/server"
)

type serveFlags struct {
	port          string
	dbPath        string
	inputSize     int
	numCopies     int
	seed          int64
	keyType       string
	normalization string
	convolution   string
}

func newServeCmd() *cobra.Command {
	f := &serveFlags{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve record/recall sessions over a websocket",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, f)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.port, "port", "", "Listen port (default $PORT or 8080).")
	fl.StringVar(&f.dbPath, "db", "", "SQLite trace database (default $HOLOMEM_DB; empty keeps traces in memory).")
	fl.IntVar(&f.inputSize, "input-size", memory.DefaultConfig.InputSize, "Vector length; must be even.")
	fl.IntVar(&f.numCopies, "num-copies", memory.DefaultConfig.NumModels, "Number of copies to make.")
	fl.Int64Var(&f.seed, "seed", 0, "Fixed seed to get reproducible results.")
	fl.StringVar(&f.keyType, "keytype", "normal", "Key type: onehot, normal, uniform, data.")
	fl.StringVar(&f.normalization, "normalization", "none", "Key normalization: none, complex_modulus, l2.")
	fl.StringVar(&f.convolution, "convolution", "circular", "Binding: circular, direct, linear.")
	return cmd
}

func runServe(cmd *cobra.Command, f *serveFlags) error {
	// Load .env file if it exists (optional - will use system env vars if not found)
	_ = godotenv.Load()

	port := f.port
	if port == "" {
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = "8080"
	}
	dbPath := f.dbPath
	if dbPath == "" {
		dbPath = os.Getenv("HOLOMEM_DB")
	}

	var seed *int64
	if cmd.Flags().Changed("seed") {
		seed = &f.seed
	}
	keyType, err := core.ParseKeyType(f.keyType)
	if err != nil {
		return err
	}
	norm, err := core.ParseNormalization(f.normalization)
	if err != nil {
		return err
	}
	conv, err := core.ParseConvolution(f.convolution)
	if err != nil {
		return err
	}
	keys, err := keygen.New(keyType, seed, 0)
	if err != nil {
		return err
	}

	store, err := chromem.New()
	if err != nil {
		return err
	}
	defer store.Close()

	var traces memory.TraceStore
	if dbPath != "" {
		db, err := sqlite.New(dbPath)
		if err != nil {
			return fmt.Errorf("open trace store: %w", err)
		}
		defer db.Close()
		traces = db
		log.Printf("✅ Trace store: %s", dbPath)
	}

	cache, err := memory.NewPermutationCache(256 << 20)
	if err != nil {
		return err
	}
	defer cache.Close()

	manager, err := memory.NewSimpleManager(keys, store, traces, &memory.Config{
		InputSize:     f.inputSize,
		NumModels:     f.numCopies,
		Seed:          seed,
		Normalization: norm,
		Convolution:   conv,
		VerifyKeys:    true,
		Cleanup:       true,
	}, memory.WithSharedPermutations(cache))
	if err != nil {
		return err
	}
	defer manager.Close()

	srv, err := server.New(server.Config{Manager: manager})
	if err != nil {
		return err
	}

	log.Printf("📡 WebSocket endpoint: ws://localhost:%s/ws", port)
	log.Printf("💚 Health check: http://localhost:%s/health", port)
	return srv.Run(":" + port)
}

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/povarna/generative-ai-agents/book-agent/internal/ingestion"
	"github.com/povarna/generative-ai-agents/book-agent/internal/setup"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// pathList collects repeated or comma separated -path values.
type pathList []string

func (p *pathList) String() string {
	return strings.Join(*p, ",")
}

func (p *pathList) Set(value string) error {
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			*p = append(*p, v)
		}
	}
	return nil
}

func main() {
	// Setup logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	logger := log.Logger

	var paths pathList
	flag.Var(&paths, "path", "File to ingest (repeatable or comma separated)")
	dir := flag.String("dir", "", "Directory to ingest recursively")
	list := flag.Bool("list", false, "List indexed documents")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("No .env file found")
	}

	ctx := context.Background()
	cfg := setup.LoadConfig()

	storage, err := setup.WireStorage(ctx, cfg, &logger)
	if err != nil {
		log.Fatal().Err(err).Msg("Unable to load dependencies")
	}
	defer storage.Close()

	switch {
	case *list:
		records, err := storage.DB.ListDocumentRecords(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Unable to fetch documents from DB")
		}
		for _, record := range records {
			fmt.Printf("%s\t%s\t%d chunks\t%s\n",
				record.Path, record.Title, record.ChunkCount, record.LastIndexedAt.Format(time.RFC3339))
		}
	case len(paths) > 0 || *dir != "":
		var report *ingestion.IngestReport
		if len(paths) == 0 {
			report, err = storage.Pipeline.IngestDirectory(ctx, *dir)
		} else {
			targets := append([]string{}, paths...)
			if *dir != "" {
				files, err := ingestion.CollectFiles(*dir)
				if err != nil {
					log.Fatal().Err(err).Msg("Unable to read directory")
				}
				targets = append(targets, files...)
			}
			report, err = storage.Pipeline.IngestPaths(ctx, targets)
		}
		if err != nil {
			log.Fatal().Err(err).Msg("Ingestion failed")
		}

		out, _ := json.MarshalIndent(report, "", "  ")
		fmt.Println(string(out))
		if len(report.Failed) > 0 {
			os.Exit(1)
		}
	default:
		flag.Usage()
		os.Exit(2)
	}
}

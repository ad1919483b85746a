// nexbatch consults a list of CNPJs in bulk, scoring each one and storing
// the results through the same database layer the web backend uses.
//
// Usage:
//
//	nexbatch -file cnpjs.txt [-rate 2]
//
// The input file carries one CNPJ per line; punctuation is ignored.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"nexconsult/internal/cnpj"
	"nexconsult/internal/database"
	"nexconsult/internal/logger"
	"nexconsult/internal/scoring"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
)

func main() {
	file := flag.String("file", "", "File with one CNPJ per line (required)")
	rate := flag.Int("rate", 2, "Maximum provider requests per second")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	logger.WithDebug(*debug)

	if *file == "" {
		fmt.Fprintln(os.Stderr, "Usage: nexbatch -file cnpjs.txt [-rate 2]")
		os.Exit(1)
	}

	cnpjs, err := readCNPJs(*file)
	if err != nil {
		logger.Error("Failed to read input file", "file", *file, "error", err)
		os.Exit(1)
	}
	if len(cnpjs) == 0 {
		logger.Error("Input file has no CNPJs", "file", *file)
		os.Exit(1)
	}

	db, err := database.InitDB()
	if err != nil {
		logger.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		logger.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	resolver := cnpj.NewResolver(cnpj.ResolverConfig{})
	engine := scoring.NewEngine()
	limiter := cnpj.NewRateLimiter(*rate)
	ctx := context.Background()

	bar := progressbar.NewOptions(len(cnpjs),
		progressbar.OptionSetDescription("Consulting CNPJs"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
	)

	resolved, failed := 0, 0
	for _, id := range cnpjs {
		if err := limiter.Wait(ctx); err != nil {
			break
		}

		data := resolver.Lookup(ctx, id)
		score := engine.Score(&data)
		if data.Success {
			resolved++
		} else {
			failed++
		}

		_, err := db.Exec(`
			INSERT INTO consultations
			(id, cnpj, nome, email, telefone, mensagem, razao_social, provider, score, classificacao, link_id, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			uuid.New().String(), data.CNPJ, "batch", "", "", "",
			data.RazaoSocial, data.Source, score.Score, score.Classificacao, "", time.Now())
		if err != nil {
			logger.Error("Failed to store batch result", "cnpj", data.CNPJ, "error", err)
		}

		bar.Add(1)
	}

	fmt.Println()
	logger.Info("Batch complete", "total", len(cnpjs), "resolved", resolved, "failed", failed)
}

func readCNPJs(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cnpjs []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if cleaned := cnpj.CleanCNPJ(scanner.Text()); cleaned != "" {
			cnpjs = append(cnpjs, cleaned)
		}
	}
	return cnpjs, scanner.Err()
}

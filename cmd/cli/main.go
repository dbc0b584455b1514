package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/lumenai/lumen-agent/internal/assistant"
	"github.com/lumenai/lumen-agent/internal/extraction"
	infraBQ "github.com/lumenai/lumen-agent/internal/infra/bigquery"
	infraFS "github.com/lumenai/lumen-agent/internal/infra/firestore"
	"github.com/lumenai/lumen-agent/internal/infra/gemini"
	"github.com/lumenai/lumen-agent/internal/ingest"
	"github.com/lumenai/lumen-agent/internal/logger"
)

func main() {
	log := logger.New()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "ingest":
		runIngest(log)
	case "ask":
		runAsk(log)
	case "report":
		runReport(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("LUMEN Agent CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  ingest    Extract and store a receipt from a local file")
	fmt.Println("  ask       Ask a question about stored spending")
	fmt.Println("  report    Generate a financial health report")
	fmt.Println("  help      Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

func runIngest(log zerolog.Logger) {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	userID := fs.String("user", "", "User ID to record the transaction under")
	filePath := fs.String("file", "", "Path to the receipt file")
	mimeType := fs.String("mime", "application/pdf", "MIME type of the receipt")
	fs.Parse(os.Args[2:])

	if *userID == "" || *filePath == "" {
		log.Fatal().Msg("Error: --user and --file are required")
	}

	content, err := os.ReadFile(*filePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read receipt file")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	txRepo, expenseRepo, extractor := mustIngestClients(ctx, log)
	defer txRepo.Close()
	defer expenseRepo.Close()
	defer extractor.Close()

	svc := ingest.NewService(extractor, txRepo, expenseRepo, nil, nil, log)

	result, err := svc.Ingest(ctx, *userID, content, *mimeType)
	if err != nil {
		log.Fatal().Err(err).Msg("Ingestion failed")
	}

	fmt.Printf("Stored transaction %s: %s %.2f %s\n",
		result.RecordID, result.Record.Merchant, result.Record.Amount, result.Record.Currency)
}

func runAsk(log zerolog.Logger) {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	userID := fs.String("user", "", "User ID to answer for")
	question := fs.String("question", "", "Question about the user's spending")
	fs.Parse(os.Args[2:])

	if *userID == "" || *question == "" {
		log.Fatal().Msg("Error: --user and --question are required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	svc := mustCoach(ctx, log)

	answer, err := svc.Ask(ctx, *userID, *question)
	if err != nil {
		log.Fatal().Err(err).Msg("Ask failed")
	}

	fmt.Println(answer)
}

func runReport(log zerolog.Logger) {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	userID := fs.String("user", "", "User ID to report on")
	fs.Parse(os.Args[2:])

	if *userID == "" {
		log.Fatal().Msg("Error: --user is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	svc := mustCoach(ctx, log)

	report, err := svc.Report(ctx, *userID)
	if err != nil {
		log.Fatal().Err(err).Msg("Report failed")
	}

	fmt.Println(report)
}

func mustCoach(ctx context.Context, log zerolog.Logger) *assistant.Service {
	projectID := os.Getenv("GCP_PROJECT")
	datasetID := envOr("BQ_DATASET", "lumen_financial_data")
	if projectID == "" {
		log.Fatal().Msg("GCP_PROJECT is required")
	}

	expenseRepo, err := infraBQ.NewExpenseRepository(ctx, projectID, datasetID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create analytical store repository")
	}

	geminiClient, err := gemini.NewClient(ctx, os.Getenv("GEMINI_MODEL"))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create genai client")
	}

	return assistant.NewService(
		assistant.NewAssembler(expenseRepo),
		assistant.NewGateway(geminiClient, 30*time.Second, log),
		log,
	)
}

func mustIngestClients(ctx context.Context, log zerolog.Logger) (*infraFS.TransactionRepository, *infraBQ.ExpenseRepository, *extraction.DocumentAIExtractor) {
	projectID := os.Getenv("GCP_PROJECT")
	datasetID := envOr("BQ_DATASET", "lumen_financial_data")
	location := envOr("DOCAI_LOCATION", "us")
	processorID := os.Getenv("DOCAI_PROCESSOR")

	if projectID == "" {
		log.Fatal().Msg("GCP_PROJECT is required")
	}
	if processorID == "" {
		log.Fatal().Msg("DOCAI_PROCESSOR is required")
	}

	txRepo, err := infraFS.NewTransactionRepository(ctx, projectID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create operational store repository")
	}

	expenseRepo, err := infraBQ.NewExpenseRepository(ctx, projectID, datasetID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create analytical store repository")
	}

	extractor, err := extraction.NewDocumentAIExtractor(ctx, projectID, location, processorID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create extraction client")
	}

	return txRepo, expenseRepo, extractor
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

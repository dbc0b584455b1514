package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/lumenai/lumen-agent/internal/api/handlers"
	"github.com/lumenai/lumen-agent/internal/api/middleware"
	"github.com/lumenai/lumen-agent/internal/assistant"
	"github.com/lumenai/lumen-agent/internal/extraction"
	infraBQ "github.com/lumenai/lumen-agent/internal/infra/bigquery"
	infraFS "github.com/lumenai/lumen-agent/internal/infra/firestore"
	"github.com/lumenai/lumen-agent/internal/infra/gemini"
	"github.com/lumenai/lumen-agent/internal/ingest"
	"github.com/lumenai/lumen-agent/internal/jobs"
	"github.com/lumenai/lumen-agent/internal/jobs/inmemory"
	"github.com/lumenai/lumen-agent/internal/logger"
	"github.com/lumenai/lumen-agent/internal/receiptstore"
)

func main() {
	// Parse command-line flags, falling back to environment variables
	var (
		port        = flag.String("port", envOr("PORT", "8080"), "HTTP server port")
		projectID   = flag.String("project", os.Getenv("GCP_PROJECT"), "GCP project ID (or set GCP_PROJECT env)")
		datasetID   = flag.String("dataset", envOr("BQ_DATASET", "lumen_financial_data"), "BigQuery dataset for the expenses table")
		docLocation = flag.String("docai-location", envOr("DOCAI_LOCATION", "us"), "Document AI processor location")
		processorID = flag.String("docai-processor", os.Getenv("DOCAI_PROCESSOR"), "Document AI receipt processor ID (or set DOCAI_PROCESSOR env)")
		bucket      = flag.String("bucket", os.Getenv("GCS_BUCKET"), "GCS bucket for receipt archival (or set GCS_BUCKET env; empty disables archival)")
		modelName   = flag.String("model", os.Getenv("GEMINI_MODEL"), "Gemini model name (empty uses the default)")
	)
	flag.Parse()

	// Initialize logger
	log := logger.New()

	if *projectID == "" {
		log.Fatal().Msg("GCP project ID is required (-project or GCP_PROJECT)")
	}
	if *processorID == "" {
		log.Fatal().Msg("Document AI processor ID is required (-docai-processor or DOCAI_PROCESSOR)")
	}
	if *bucket == "" {
		log.Warn().Msg("No GCS bucket configured - receipt archival is disabled")
	}

	ctx := context.Background()

	// Initialize store clients, one per process (dependency-injected, no
	// ambient globals)
	txRepo, err := infraFS.NewTransactionRepository(ctx, *projectID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create operational store repository")
	}
	defer txRepo.Close()

	expenseRepo, err := infraBQ.NewExpenseRepository(ctx, *projectID, *datasetID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create analytical store repository")
	}
	defer expenseRepo.Close()

	extractor, err := extraction.NewDocumentAIExtractor(ctx, *projectID, *docLocation, *processorID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create extraction client")
	}
	defer extractor.Close()

	geminiClient, err := gemini.NewClient(ctx, *modelName)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create genai client")
	}

	var archiver ingest.Archiver
	if *bucket != "" {
		archive, err := receiptstore.NewArchive(ctx, *bucket)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create receipt archive")
		}
		defer archive.Close()
		archiver = archive
	}

	// Initialize reconcile job infrastructure
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, jobStore)

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	// Reconcile jobs re-attempt the analytical append for records whose row
	// went missing during ingestion
	jobHandler := func(ctx context.Context, job jobs.Job) error {
		reconcileJob, ok := job.(*jobs.ReconcileExpenseJob)
		if !ok {
			return fmt.Errorf("unexpected job type: %T", job)
		}

		log.Info().
			Str("job_id", reconcileJob.JobID).
			Str("record_id", reconcileJob.RecordID).
			Msg("Processing reconcile job")

		if err := expenseRepo.AppendExpense(ctx, reconcileJob.Transaction); err != nil {
			log.Error().
				Err(err).
				Str("job_id", reconcileJob.JobID).
				Str("record_id", reconcileJob.RecordID).
				Msg("Analytical backfill failed")
			return err
		}

		log.Info().
			Str("job_id", reconcileJob.JobID).
			Str("record_id", reconcileJob.RecordID).
			Msg("Analytical row reconciled")

		return nil
	}

	go func() {
		log.Info().Msg("Starting reconcile worker")
		if err := jobQueue.Start(workerCtx, jobHandler); err != nil {
			log.Error().Err(err).Msg("Reconcile worker stopped with error")
		}
	}()

	// Initialize services and handlers
	ingestService := ingest.NewService(extractor, txRepo, expenseRepo, archiver, jobQueue, log)
	coachService := assistant.NewService(
		assistant.NewAssembler(expenseRepo),
		assistant.NewGateway(geminiClient, 30*time.Second, log),
		log,
	)

	receiptsHandler := handlers.NewReceiptsHandler(ingestService, log)
	assistantHandler := handlers.NewAssistantHandler(coachService, log)
	transactionsHandler := handlers.NewTransactionsHandler(txRepo, log)
	jobsHandler := handlers.NewJobsHandler(jobStore, log)

	// Create router
	mux := http.NewServeMux()

	mux.HandleFunc("/upload-receipt", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			receiptsHandler.UploadReceipt(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/ask-ai", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			assistantHandler.AskAI(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/get-report", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			assistantHandler.GetReport(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/transactions", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			transactionsHandler.ListTransactions(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/reconcile-jobs", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobsHandler.ListJobs(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/reconcile-jobs/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobID := strings.TrimPrefix(r.URL.Path, "/api/reconcile-jobs/")
			if jobID == "" {
				middleware.WriteError(w, http.StatusBadRequest, "Job ID is required")
				return
			}
			jobsHandler.GetJob(w, r, jobID)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "LUMEN-Agent Active",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Apply middleware
	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(mux),
			),
		),
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + *port,
		Handler:      handler,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", *port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	cancelWorker()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	// Stop job queue and wait for in-flight reconcile jobs
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}

	log.Info().Msg("Server exited")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

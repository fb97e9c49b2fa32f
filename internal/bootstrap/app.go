package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"clarify-backend/internal/analyses"
	"clarify-backend/internal/documents"
	"clarify-backend/internal/llm"
	openai "clarify-backend/internal/llm/openai"
	"clarify-backend/internal/queue"
	"clarify-backend/internal/shared/config"
	"clarify-backend/internal/shared/server"
	"clarify-backend/internal/shared/storage/db"
	"clarify-backend/internal/shared/storage/object"
	localstore "clarify-backend/internal/shared/storage/object/local"
	s3store "clarify-backend/internal/shared/storage/object/s3"
)

// App holds the wired dependencies shared by the API and worker
// processes.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Store  object.ObjectStore
	Queue  queue.Client

	DocumentsRepo documents.Repo
	AnalysesRepo  analyses.Repo

	DocumentsService *documents.Service
	AnalysesService  *analyses.Service

	DocumentsHandler *documents.Handler
	AnalysisHandler  *analyses.Handler
}

// Options tweak how Build assembles the app.
type Options struct {
	// Worker processes get a smaller connection pool and no router.
	Worker bool
}

// Build prepares shared dependencies and, for API processes, the router.
func Build(cfg config.Config) (*App, error) {
	return BuildWithOptions(cfg, Options{})
}

// BuildWithOptions is Build with process-specific knobs.
func BuildWithOptions(cfg config.Config, opts Options) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg, opts.Worker)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	queueClient, err := buildQueue(ctx)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
		Queue:  queueClient,
	}

	if err := buildServices(app); err != nil {
		return nil, err
	}

	if !opts.Worker {
		app.Router = server.NewRouter(server.RouterDeps{
			Config:          app.Config,
			AnalysisHandler: app.AnalysisHandler,
			DocumentHandler: app.DocumentsHandler,
		})
	}

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config, worker bool) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	defaults := db.DefaultServerOptions()
	if worker {
		defaults = db.DefaultWorkerOptions()
	}
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(defaults))
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildQueue(ctx context.Context) (queue.Client, error) {
	if strings.TrimSpace(os.Getenv("CLARIFY_SQS_QUEUE_URL")) == "" {
		return nil, nil
	}
	return queue.NewSQSClient(ctx)
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}

func buildServices(app *App) error {
	var docRepo documents.Repo
	var analysisRepo analyses.Repo

	if app.DB != nil {
		docRepo = &documents.PGRepo{DB: app.DB}
		analysisRepo = &analyses.PGRepo{DB: app.DB}
	} else {
		docRepo = documents.NewMemoryRepo()
		analysisRepo = analyses.NewMemoryRepo()
	}

	files := llm.FileService(llm.PlaceholderFileService{})
	classifier := llm.Classifier(llm.PlaceholderClassifier{})
	analyzer := llm.Analyzer(llm.PlaceholderAnalyzer{})
	if strings.TrimSpace(app.Config.OpenAIAPIKey) != "" {
		client, err := openai.NewClient(app.Config.OpenAIAPIKey, app.Config.ClassifyModel, app.Config.AnalyzeModel)
		if err != nil {
			return err
		}
		files = client
		classifier = client
		analyzer = client
	} else {
		log.Printf("bootstrap: OPENAI_API_KEY empty; workflow phases will fail until configured")
	}

	analysisSvc := &analyses.Service{
		Repo:            analysisRepo,
		DocRepo:         docRepo,
		Store:           app.Store,
		Files:           files,
		Classifier:      classifier,
		Analyzer:        analyzer,
		Queue:           app.Queue,
		DefaultLanguage: app.Config.DefaultLanguage,
	}

	docSvc := &documents.Service{
		Store:    app.Store,
		Repo:     docRepo,
		Analyses: analysisSvc,
		MaxFiles: app.Config.MaxUploadFiles,
		MaxBytes: app.Config.MaxUploadBytes,
	}

	app.DocumentsRepo = docRepo
	app.AnalysesRepo = analysisRepo
	app.DocumentsService = docSvc
	app.AnalysesService = analysisSvc
	app.DocumentsHandler = documents.NewHandler(docSvc)
	app.AnalysisHandler = analyses.NewHandler(analysisSvc)
	return nil
}

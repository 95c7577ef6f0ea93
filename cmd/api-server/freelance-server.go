package main

import (
	"context"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"freelance/db"
	"freelance/db/migrations"
	"freelance/internal/blob"
	"freelance/internal/common/security"
	"freelance/internal/config"
	"freelance/internal/handlers"
)

func main() {
	cfg := config.Load()

	if cfg.PostgresConn == "" {
		log.Fatal("POSTGRES_CONN env variable is not set")
	}

	dbConn, err := sqlx.Connect("postgres", cfg.PostgresConn)
	if err != nil {
		log.Fatalf("Cannot connect to DB: %v", err)
	}
	defer dbConn.Close()

	migrations.Run()

	security.InitJWT(cfg.JWTKey, cfg.JWTExp)

	blobStore, err := blob.NewStore(cfg)
	if err != nil {
		log.Fatalf("Cannot create blob store: %v", err)
	}
	if err := blobStore.EnsureBucket(context.Background()); err != nil {
		log.Fatalf("Cannot ensure bucket: %v", err)
	}

	store := db.NewStorage(dbConn)
	h := handlers.NewHandler(store, blobStore)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/ping", h.PingHandler)

		// аутентификация
		r.Post("/auth/register", h.RegisterHandler)
		r.Post("/auth/login", h.LoginHandler)

		// все остальное только с токеном
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(security.TokenAuth))
			r.Use(handlers.Authenticator)

			// проекты
			r.Post("/projects/new", h.CreateProjectHandler)
			r.Get("/projects", h.GetProjectsHandler)
			r.Get("/projects/my", h.GetMyProjectsHandler)
			r.Get("/projects/{projectId}", h.GetProjectHandler)
			r.Post("/projects/{projectId}/assign", h.AssignContractorHandler)
			r.Post("/projects/{projectId}/request_close", h.RequestCloseHandler)
			r.Post("/projects/{projectId}/decision", h.DecisionHandler)
			r.Delete("/projects/{projectId}", h.DeleteProjectHandler)

			// файлы сдачи
			r.Post("/projects/{projectId}/files", h.UploadFileHandler)
			r.Get("/projects/{projectId}/files/zip", h.DownloadZipHandler)

			// предложения (bids)
			r.Get("/projects/{projectId}/proposals", h.GetProposalsHandler)
			r.Get("/projects/{projectId}/proposals/zip", h.DownloadProposalsZipHandler)
			r.Post("/bids/new", h.CreateBidHandler)
			r.Get("/bids/my", h.GetUserBidsHandler)
			r.Delete("/bids/{bidId}", h.DeleteBidHandler)

			// отзывы и рейтинг
			r.Post("/projects/{projectId}/reviews", h.SubmitReviewHandler)
			r.Get("/users/{userId}/rating", h.GetUserRatingHandler)
		})
	})

	log.Printf("Starting server on %s", cfg.ServerAddress)
	log.Fatal(http.ListenAndServe(cfg.ServerAddress, r))
}

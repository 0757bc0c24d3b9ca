package main

import (
	"html/template"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Simplici0/portcall/internal/config"
	"github.com/Simplici0/portcall/internal/db"
	"github.com/Simplici0/portcall/internal/fleet"
	"github.com/Simplici0/portcall/internal/migrations"
	"github.com/Simplici0/portcall/internal/seed"
)

type server struct {
	store *fleet.Store
}

func main() {
	cfg := config.Load()

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer database.Close()

	if cfg.IsDev() {
		if err := migrations.Up(database, "migrations"); err != nil {
			log.Fatalf("failed to run database migrations: %v", err)
		}
	}

	stats, err := seed.Run(database)
	if err != nil {
		log.Fatalf("failed to seed reference data: %v", err)
	}
	if stats.Inserts > 0 {
		log.Printf("seeded %d reference rows", stats.Inserts)
	}

	srv := &server{store: fleet.NewStore(database)}

	r := chi.NewRouter()
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir("web/static"))))
	r.Get("/", srv.handleOperationList)
	r.Get("/operation/{id}", srv.handleOperationDetail)
	r.Get("/create", srv.handleCreateForm)
	r.Post("/create", srv.handleCreateSubmit)
	r.Get("/edit/{id}", srv.handleEditForm)
	r.Post("/edit/{id}", srv.handleEditSubmit)
	r.Post("/delete/{id}", srv.handleDelete)
	r.Get("/analytics", srv.handleAnalytics)

	addr := ":" + cfg.Port
	log.Printf("listening on %s", addr)
	if err := http.ListenAndServe(addr, r); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}

func (s *server) renderTemplate(w http.ResponseWriter, page string, data any) {
	templates, err := template.ParseFiles(
		"web/templates/layout.html",
		"web/templates/"+page,
	)
	if err != nil {
		http.Error(w, "failed to parse template", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.ExecuteTemplate(w, "layout.html", data); err != nil {
		http.Error(w, "failed to render template", http.StatusInternalServerError)
		return
	}
}

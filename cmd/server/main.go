package main

import (
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"fern-notes/internal/auth"
	"fern-notes/internal/cache"
	"fern-notes/internal/db"
	"fern-notes/internal/handlers"
)

func main() {
	port := flag.Int("port", 2026, "Server port")
	dataDir := flag.String("data", "./data", "Data directory")
	flag.Parse()

	if err := os.MkdirAll(*dataDir, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	dbPath := filepath.Join(*dataDir, "fern.db")
	database, err := db.New(dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		secretBytes := make([]byte, 32)
		if _, err := rand.Read(secretBytes); err != nil {
			log.Fatalf("Failed to generate JWT secret: %v", err)
		}
		jwtSecret = hex.EncodeToString(secretBytes)
		log.Printf("Generated JWT secret (set JWT_SECRET env var to persist sessions across restarts)")
	}

	c := cache.New()
	a := auth.New(database, jwtSecret)
	h := handlers.New(database, c, a)

	mux := http.NewServeMux()

	// Static files
	staticDir := "./static"
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir))))

	// API routes. Note mutations address the row via ?id= rather than a path
	// segment; folders use PATCH /api/folders/{id} for renames.
	mux.HandleFunc("/api/notes", a.Middleware(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			h.GetNotes(w, r)
		case http.MethodPost:
			h.CreateNote(w, r)
		case http.MethodPut:
			h.UpdateNote(w, r)
		case http.MethodDelete:
			h.DeleteNote(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}))

	mux.HandleFunc("/api/folders", a.Middleware(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			h.GetFolders(w, r)
		case http.MethodPost:
			h.CreateFolder(w, r)
		case http.MethodDelete:
			h.DeleteFolder(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}))

	mux.HandleFunc("/api/folders/", a.Middleware(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPatch {
			h.RenameFolder(w, r)
		} else {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}))

	mux.HandleFunc("/api/auth/signup", h.Signup)
	mux.HandleFunc("/api/auth/login", h.Login)
	mux.HandleFunc("/api/auth/logout", h.Logout)
	mux.HandleFunc("/api/auth/session", a.Middleware(h.GetSession))

	// Serve index.html for all other routes (SPA)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./templates/index.html")
	})

	addr := fmt.Sprintf(":%d", *port)
	log.Printf("Starting Fern Notes server on %s", addr)

	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

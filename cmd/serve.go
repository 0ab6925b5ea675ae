package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/enrich"
	"github.com/sells-group/leadgen-cli/internal/leadio"
	"github.com/sells-group/leadgen-cli/internal/model"
)

var servePort int

// maxUploadBytes caps multipart upload size at 16 MiB.
const maxUploadBytes = 16 << 20

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the upload and webhook server",
	Long:  "Serves a health endpoint, a synchronous multipart upload endpoint that enriches a contact file and returns the leads, and an asynchronous webhook that processes a file already on disk.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		client := newZoomInfoClient()
		if client == nil {
			zap.L().Warn("no enrichment credentials configured, serving in dry-run mode")
		}
		orch := enrich.New(client, orchestratorOptions())
		proc := &fileProcessor{
			orch:      orch,
			outputDir: cfg.Enrich.OutputDir,
			force:     true,
		}

		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
		}))

		r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Post("/enrich/upload", func(w http.ResponseWriter, req *http.Request) {
			req.Body = http.MaxBytesReader(w, req.Body, maxUploadBytes)
			file, header, err := req.FormFile("file")
			if err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
				return
			}
			defer file.Close() //nolint:errcheck

			tmpPath, err := saveUpload(file, header.Filename)
			if err != nil {
				zap.L().Error("save upload failed", zap.Error(err))
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not store upload"})
				return
			}
			defer os.Remove(tmpPath) //nolint:errcheck

			contacts, err := leadio.ReadContacts(tmpPath)
			if err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unreadable contact file"})
				return
			}

			leads, errRecords, runErr := orch.Run(req.Context(), contacts)
			if runErr != nil {
				zap.L().Error("upload enrichment failed",
					zap.String("file", header.Filename),
					zap.Error(runErr),
				)
				writeJSON(w, http.StatusBadGateway, map[string]string{"error": "enrichment failed"})
				return
			}

			writeJSON(w, http.StatusOK, uploadResponse{
				File:   header.Filename,
				Leads:  leads,
				Errors: errorMessages(errRecords),
			})
		})

		r.Post("/webhook/enrich", func(w http.ResponseWriter, req *http.Request) {
			var body struct {
				Path string `json:"path"`
			}
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
				return
			}
			if body.Path == "" {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "path is required"})
				return
			}
			if _, err := os.Stat(body.Path); err != nil {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "file not found"})
				return
			}

			// Process asynchronously against the server lifetime context.
			go func() {
				res, err := proc.Process(ctx, body.Path)
				if err != nil {
					zap.L().Error("webhook enrichment failed",
						zap.String("file", body.Path),
						zap.Error(err),
					)
					return
				}
				zap.L().Info("webhook enrichment complete",
					zap.String("file", body.Path),
					zap.Int("leads", res.Processed),
					zap.Int("errors", res.Errors),
				)
			}()

			writeJSON(w, http.StatusAccepted, map[string]string{
				"status": "accepted",
				"file":   body.Path,
			})
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownServer(srv)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// shutdownTimeout bounds the drain period for in-flight requests.
const shutdownTimeout = 10 * time.Second

// shutdownServer drains in-flight requests on a fresh deadline. The signal
// context that triggered the shutdown is already cancelled, so passing it to
// Shutdown would return immediately without draining.
func shutdownServer(srv *http.Server) {
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		zap.L().Warn("server shutdown did not drain cleanly", zap.Error(err))
	}
}

type uploadResponse struct {
	File   string       `json:"file"`
	Leads  []model.Lead `json:"leads"`
	Errors []string     `json:"errors,omitempty"`
}

func errorMessages(errs []model.ErrorRecord) []string {
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Error)
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// saveUpload writes an uploaded contact file to a temp path, keeping the
// original extension so the reader can pick the right format.
func saveUpload(src io.Reader, name string) (string, error) {
	ext := filepath.Ext(name)
	if ext == "" {
		ext = ".csv"
	}
	tmp, err := os.CreateTemp("", "leadgen-upload-*"+ext)
	if err != nil {
		return "", eris.Wrap(err, "create temp file")
	}
	defer tmp.Close() //nolint:errcheck

	if _, err := io.Copy(tmp, src); err != nil {
		os.Remove(tmp.Name()) //nolint:errcheck
		return "", eris.Wrap(err, "write temp file")
	}
	return tmp.Name(), nil
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

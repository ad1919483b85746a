package handlers

import (
	"archive/zip"
	"fmt"
	"io"
	"net/http"
	"os"

	"nexconsult/internal/links"
	"nexconsult/internal/logger"
	"nexconsult/internal/metrics"
	"nexconsult/internal/models"

	"github.com/go-chi/chi/v5"
)

// DownloadHandler serves files behind temporary links.
type DownloadHandler struct {
	Links *links.Registry
}

func NewDownloadHandler(registry *links.Registry) *DownloadHandler {
	return &DownloadHandler{Links: registry}
}

// Download handles GET /download/{id}: a successful validation streams the
// files (zipped when there is more than one) and consumes one download
// from the link's budget.
func (d *DownloadHandler) Download(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	result := d.Links.Validate(id)
	if !result.Valid {
		metrics.RecordDownload(result.Reason)
		status := http.StatusGone
		if result.Reason == links.ReasonNotFound {
			status = http.StatusNotFound
		}
		writeJSON(w, status, map[string]any{"success": false, "reason": result.Reason})
		return
	}

	link := result.Link
	var served bool
	if len(link.Arquivos) == 1 {
		served = d.serveSingle(w, r, link.Arquivos[0])
	} else {
		served = d.serveZip(w, link)
	}
	if !served {
		// Nothing left the server; the download budget stays untouched
		metrics.RecordDownload("missing_file")
		return
	}

	d.Links.Consume(id)
	metrics.RecordDownload("ok")
	logger.Info("Link download served", "link_id", id, "files", len(link.Arquivos), "downloads", link.Downloads+1)
}

func (d *DownloadHandler) serveSingle(w http.ResponseWriter, r *http.Request, file links.FileRef) bool {
	f, err := os.Open(file.Caminho)
	if err != nil {
		logger.Error("Stored file missing", "path", file.Caminho, "error", err)
		writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "reason": links.ReasonNotFound})
		return false
	}
	defer f.Close()

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Nome))
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", fmt.Sprintf("%d", file.Tamanho))
	if _, err := io.Copy(w, f); err != nil {
		logger.Warn("Download interrupted", "file", file.Nome, "error", err)
	}
	return true
}

// serveZip streams multiple files as one archive. Individual read failures
// are skipped so one lost file doesn't break the rest of the bundle.
// Reports whether at least one entry was written: every file missing means
// nothing was served.
func (d *DownloadHandler) serveZip(w http.ResponseWriter, link links.TempLink) bool {
	type openFile struct {
		ref links.FileRef
		f   *os.File
	}
	var open []openFile
	for _, file := range link.Arquivos {
		f, err := os.Open(file.Caminho)
		if err != nil {
			logger.Warn("Skipping missing file in zip download", "path", file.Caminho, "error", err)
			continue
		}
		open = append(open, openFile{ref: file, f: f})
	}
	if len(open) == 0 {
		logger.Error("No stored files left for link", "link_id", link.ID)
		writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "reason": links.ReasonNotFound})
		return false
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "documentos-"+link.ID[:8]+".zip"))
	w.Header().Set("Content-Type", "application/zip")

	zw := zip.NewWriter(w)
	defer zw.Close()

	for _, of := range open {
		entry, err := zw.Create(of.ref.Nome)
		if err != nil {
			of.f.Close()
			logger.Warn("Failed to add zip entry", "file", of.ref.Nome, "error", err)
			continue
		}
		if _, err := io.Copy(entry, of.f); err != nil {
			logger.Warn("Failed to write zip entry", "file", of.ref.Nome, "error", err)
		}
		of.f.Close()
	}
	return true
}

// LinkStatus handles GET /api/link/{id}: reports link state without
// spending a download.
func (d *DownloadHandler) LinkStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	result := d.Links.Validate(id)
	if !result.Valid {
		status := http.StatusGone
		if result.Reason == links.ReasonNotFound {
			status = http.StatusNotFound
		}
		writeJSON(w, status, models.LinkStatus{Reason: result.Reason})
		return
	}

	expires := result.Link.ExpiraEm
	writeJSON(w, http.StatusOK, models.LinkStatus{
		Valid:         true,
		Files:         len(result.Link.Arquivos),
		ExpiresAt:     &expires,
		DownloadsLeft: result.Link.MaxDownloads - result.Link.Downloads,
	})
}

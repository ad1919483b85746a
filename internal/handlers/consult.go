package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"nexconsult/internal/cnpj"
	"nexconsult/internal/config"
	apperrors "nexconsult/internal/errors"
	"nexconsult/internal/links"
	"nexconsult/internal/logger"
	"nexconsult/internal/mailer"
	"nexconsult/internal/metrics"
	"nexconsult/internal/models"
	"nexconsult/internal/scoring"
	"nexconsult/internal/whatsapp"

	"github.com/google/uuid"
)

const (
	maxUploadFiles    = 5
	maxUploadSize     = 10 << 20 // per file
	maxMultipartBytes = 64 << 20
)

var allowedExtensions = map[string]bool{
	".pdf": true, ".png": true, ".jpg": true, ".jpeg": true,
	".doc": true, ".docx": true, ".xls": true, ".xlsx": true,
}

// ConsultHandler processes landing-page consultation submissions.
type ConsultHandler struct {
	DB       *sql.DB
	Cfg      *config.Config
	Resolver *cnpj.Resolver
	Engine   *scoring.Engine
	Links    *links.Registry
	Mailer   *mailer.Mailer
}

func NewConsultHandler(db *sql.DB, cfg *config.Config, resolver *cnpj.Resolver, engine *scoring.Engine, registry *links.Registry, m *mailer.Mailer) *ConsultHandler {
	return &ConsultHandler{DB: db, Cfg: cfg, Resolver: resolver, Engine: engine, Links: registry, Mailer: m}
}

// writeJSON is a helper to write JSON responses
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode JSON response", "error", err)
	}
}

// Consult handles POST /api/consultar: multipart form with contact fields,
// a CNPJ and optional document uploads.
func (h *ConsultHandler) Consult(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxMultipartBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ConsultResponse{Message: "Formulário inválido"})
		return
	}

	nome := strings.TrimSpace(r.FormValue("nome"))
	email := strings.TrimSpace(r.FormValue("email"))
	telefone := strings.TrimSpace(r.FormValue("telefone"))
	mensagem := strings.TrimSpace(r.FormValue("mensagem"))
	cnpjInput := r.FormValue("cnpj")

	if nome == "" || email == "" || cnpjInput == "" {
		metrics.RecordConsultation("invalid")
		writeJSON(w, http.StatusBadRequest, models.ConsultResponse{Message: "Nome, e-mail e CNPJ são obrigatórios"})
		return
	}

	data := h.Resolver.Lookup(r.Context(), cnpjInput)
	if data.Source == "validation" {
		metrics.RecordConsultation("invalid")
		writeJSON(w, http.StatusBadRequest, models.ConsultResponse{Message: "CNPJ inválido: informe os 14 dígitos"})
		return
	}

	score := h.Engine.Score(&data)

	// Uploads are optional; a link only exists when at least one file came in
	var downloadURL, linkID string
	files, err := h.saveUploads(r)
	if err != nil {
		metrics.RecordConsultation("upload_error")
		var verr apperrors.ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusBadRequest, models.ConsultResponse{Message: verr.Message})
			return
		}
		logger.Error("Failed to store uploads", "error", err)
		writeJSON(w, http.StatusInternalServerError, models.ConsultResponse{Message: "Não foi possível armazenar os arquivos"})
		return
	}
	if len(files) > 0 {
		linkID, err = h.Links.Issue(files,
			h.Cfg.LinkMaxDownloads,
			time.Duration(h.Cfg.LinkTTLHours)*time.Hour)
		if err != nil {
			// Unlinked files are unreachable and unsweepable; drop them now
			logger.Error("Failed to issue download link", "error", err)
			removeStoredFiles(files)
		} else {
			downloadURL = h.Cfg.BaseURL + "/download/" + linkID
		}
	}

	consultation := models.Consultation{
		ID:            uuid.New().String(),
		CNPJ:          data.CNPJ,
		Nome:          nome,
		Email:         email,
		Telefone:      telefone,
		Mensagem:      mensagem,
		RazaoSocial:   data.RazaoSocial,
		Provider:      data.Source,
		Score:         score.Score,
		Classificacao: score.Classificacao,
		LinkID:        linkID,
		CreatedAt:     time.Now(),
	}
	if err := h.saveConsultation(consultation); err != nil {
		logger.Error("Failed to persist consultation", "cnpj", data.CNPJ, "error", err)
	}

	// Emails are fired off-request; failures are logged inside the mailer
	go func() {
		h.Mailer.SendStaffNotification(mailer.StaffEmail{
			Nome:        nome,
			Email:       email,
			Telefone:    telefone,
			Mensagem:    mensagem,
			Data:        &data,
			Score:       score,
			DownloadURL: downloadURL,
		})
		h.Mailer.SendConfirmation(email, mailer.ConfirmationEmail{Nome: nome, Score: score})
	}()

	metrics.RecordConsultation("ok")
	writeJSON(w, http.StatusOK, models.ConsultResponse{
		Success:     true,
		Data:        &data,
		Score:       &score,
		DownloadURL: downloadURL,
		WhatsAppURL: whatsapp.BuildLink(h.Cfg.WhatsAppNumber, whatsapp.ConsultMessage(nome, &data, score)),
	})
}

// saveUploads stores the submitted documents under the upload dir with
// randomized names and returns their link file references. Rejecting any
// file in the batch removes the ones already stored; no orphan ever
// outlives the request.
func (h *ConsultHandler) saveUploads(r *http.Request) (_ []links.FileRef, err error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	headers := r.MultipartForm.File["documentos"]
	if len(headers) == 0 {
		return nil, nil
	}
	if len(headers) > maxUploadFiles {
		return nil, apperrors.ValidationError{
			Field:   "documentos",
			Message: fmt.Sprintf("envie no máximo %d arquivos", maxUploadFiles),
		}
	}

	if err := os.MkdirAll(h.Cfg.UploadDir, 0o755); err != nil {
		return nil, apperrors.Wrap(err, "creating upload dir")
	}

	var refs []links.FileRef
	defer func() {
		if err != nil {
			removeStoredFiles(refs)
		}
	}()

	for _, header := range headers {
		ext := strings.ToLower(filepath.Ext(header.Filename))
		if !allowedExtensions[ext] {
			return nil, apperrors.ValidationError{
				Field:   "documentos",
				Message: fmt.Sprintf("tipo de arquivo não permitido: %s", ext),
			}
		}
		if header.Size > maxUploadSize {
			return nil, apperrors.ValidationError{
				Field:   "documentos",
				Message: fmt.Sprintf("arquivo %s excede o limite de 10 MB", header.Filename),
			}
		}

		src, err := header.Open()
		if err != nil {
			return nil, apperrors.Wrap(err, "reading upload "+header.Filename)
		}

		path := filepath.Join(h.Cfg.UploadDir, uuid.New().String()+ext)
		dst, err := os.Create(path)
		if err != nil {
			src.Close()
			return nil, apperrors.Wrap(err, "storing upload")
		}
		written, err := io.Copy(dst, src)
		src.Close()
		dst.Close()
		if err != nil {
			os.Remove(path)
			return nil, apperrors.Wrap(err, "storing upload")
		}

		refs = append(refs, links.FileRef{
			Nome:    filepath.Base(header.Filename),
			Tamanho: written,
			Caminho: path,
		})
	}
	return refs, nil
}

// removeStoredFiles deletes stored uploads that will never be linked.
func removeStoredFiles(refs []links.FileRef) {
	for _, ref := range refs {
		if err := os.Remove(ref.Caminho); err != nil {
			logger.Warn("Failed to remove orphaned upload", "path", ref.Caminho, "error", err)
		}
	}
}

func (h *ConsultHandler) saveConsultation(c models.Consultation) error {
	_, err := h.DB.Exec(`
		INSERT INTO consultations
		(id, cnpj, nome, email, telefone, mensagem, razao_social, provider, score, classificacao, link_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.CNPJ, c.Nome, c.Email, c.Telefone, c.Mensagem,
		c.RazaoSocial, c.Provider, c.Score, c.Classificacao, c.LinkID, c.CreatedAt)
	return err
}

// RecentConsultations handles GET /api/admin/consultas: the latest
// submissions for the staff dashboard.
func (h *ConsultHandler) RecentConsultations(w http.ResponseWriter, r *http.Request) {
	rows, err := h.DB.Query(`
		SELECT id, cnpj, nome, email, telefone, razao_social, provider, score, classificacao, link_id, created_at
		FROM consultations ORDER BY created_at DESC LIMIT 100`)
	if err != nil {
		logger.Error("Failed to query consultations", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
		return
	}
	defer rows.Close()

	consultations := []models.Consultation{}
	for rows.Next() {
		var c models.Consultation
		var linkID sql.NullString
		if err := rows.Scan(&c.ID, &c.CNPJ, &c.Nome, &c.Email, &c.Telefone,
			&c.RazaoSocial, &c.Provider, &c.Score, &c.Classificacao, &linkID, &c.CreatedAt); err != nil {
			logger.Error("Failed to scan consultation row", "error", err)
			continue
		}
		if linkID.Valid {
			c.LinkID = linkID.String
		}
		consultations = append(consultations, c)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"results": consultations,
		"total":   len(consultations),
	})
}

package handlers

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"sort"
	"testing"

	"github.com/go-chi/chi/v5"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexconsult/internal/cnpj"
	"nexconsult/internal/config"
	"nexconsult/internal/links"
	"nexconsult/internal/mailer"
	"nexconsult/internal/models"
	"nexconsult/internal/scoring"
)

const testCNPJ = "11222333000181"

// brasilAPIStub serves a fixed BrasilAPI-shaped profile.
func brasilAPIStub(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{
			"cnpj": "%s",
			"razao_social": "ACME COMERCIO LTDA",
			"nome_fantasia": "ACME",
			"descricao_situacao_cadastral": "ATIVA",
			"data_inicio_atividade": "2010-03-15",
			"capital_social": 500000,
			"cnae_fiscal_descricao": "Comércio varejista de mercadorias em geral",
			"logradouro": "RUA DAS FLORES",
			"numero": "100",
			"municipio": "SAO PAULO",
			"uf": "SP",
			"cep": "01000000"
		}`, testCNPJ)
	}))
	t.Cleanup(server.Close)
	return server
}

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`CREATE TABLE consultations (
		id TEXT PRIMARY KEY,
		cnpj TEXT NOT NULL,
		nome TEXT NOT NULL,
		email TEXT NOT NULL,
		telefone TEXT,
		mensagem TEXT,
		razao_social TEXT,
		provider TEXT,
		score INTEGER NOT NULL DEFAULT 0,
		classificacao TEXT,
		link_id TEXT,
		created_at TIMESTAMP NOT NULL
	)`)
	require.NoError(t, err)
	return db
}

func consultServer(t *testing.T, db *sql.DB, providerURL string) (*httptest.Server, *links.Registry, *config.Config) {
	t.Helper()

	cfg := &config.Config{
		BaseURL:          "http://localhost:8080",
		UploadDir:        t.TempDir(),
		LinkTTLHours:     48,
		LinkMaxDownloads: 5,
		WhatsAppNumber:   "5511999998888",
	}

	provider := cnpj.DefaultProviders()[0] // brasilapi shape
	provider.Endpoint = providerURL + "/%s"

	resolver := cnpj.NewResolver(cnpj.ResolverConfig{Providers: []cnpj.Provider{provider}})
	registry := links.NewRegistry(links.RegistryConfig{})
	handler := NewConsultHandler(db, cfg, resolver, scoring.NewEngine(), registry, mailer.New(cfg))

	r := chi.NewRouter()
	r.Post("/api/consultar", handler.Consult)
	r.Get("/api/admin/consultas", handler.RecentConsultations)

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return server, registry, cfg
}

func postForm(t *testing.T, url string, fields map[string]string, files map[string]string) *http.Response {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	// Sorted so multi-file batches arrive in a predictable order
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		part, err := writer.CreateFormFile("documentos", name)
		require.NoError(t, err)
		_, err = part.Write([]byte(files[name]))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	resp, err := http.Post(url+"/api/consultar", writer.FormDataContentType(), &body)
	require.NoError(t, err)
	return resp
}

func TestConsultHappyPath(t *testing.T) {
	db := testDB(t)
	stub := brasilAPIStub(t)
	server, _, _ := consultServer(t, db, stub.URL)

	resp := postForm(t, server.URL, map[string]string{
		"nome":  "Maria Silva",
		"email": "maria@example.com",
		"cnpj":  "11.222.333/0001-81",
	}, nil)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payload models.ConsultResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.True(t, payload.Success)
	require.NotNil(t, payload.Data)
	assert.Equal(t, "ACME COMERCIO LTDA", payload.Data.RazaoSocial)
	assert.Equal(t, "brasilapi", payload.Data.Source)
	require.NotNil(t, payload.Score)
	assert.Greater(t, payload.Score.Score, 0)
	assert.Empty(t, payload.DownloadURL, "no uploads, no link")
	assert.Contains(t, payload.WhatsAppURL, "wa.me/5511999998888")

	// Submission was persisted
	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM consultations WHERE cnpj = ?`, testCNPJ).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestConsultWithUploadsIssuesLink(t *testing.T) {
	db := testDB(t)
	stub := brasilAPIStub(t)
	server, registry, _ := consultServer(t, db, stub.URL)

	resp := postForm(t, server.URL, map[string]string{
		"nome":  "Maria Silva",
		"email": "maria@example.com",
		"cnpj":  testCNPJ,
	}, map[string]string{
		"contrato.pdf": "conteudo",
		"balanco.xlsx": "planilha",
	})
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payload models.ConsultResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Contains(t, payload.DownloadURL, "/download/")
	assert.Equal(t, 1, registry.Len())
}

func TestConsultRejectsMissingFields(t *testing.T) {
	db := testDB(t)
	stub := brasilAPIStub(t)
	server, _, _ := consultServer(t, db, stub.URL)

	resp := postForm(t, server.URL, map[string]string{
		"nome": "Maria Silva",
		"cnpj": testCNPJ,
	}, nil)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestConsultRejectsInvalidCNPJ(t *testing.T) {
	db := testDB(t)
	stub := brasilAPIStub(t)
	server, _, _ := consultServer(t, db, stub.URL)

	resp := postForm(t, server.URL, map[string]string{
		"nome":  "Maria Silva",
		"email": "maria@example.com",
		"cnpj":  "123",
	}, nil)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var payload models.ConsultResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.False(t, payload.Success)
	assert.Contains(t, payload.Message, "CNPJ")
}

func TestConsultRejectsDisallowedFileType(t *testing.T) {
	db := testDB(t)
	stub := brasilAPIStub(t)
	server, registry, _ := consultServer(t, db, stub.URL)

	resp := postForm(t, server.URL, map[string]string{
		"nome":  "Maria Silva",
		"email": "maria@example.com",
		"cnpj":  testCNPJ,
	}, map[string]string{
		"malware.exe": "MZ",
	})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, 0, registry.Len())
}

func TestConsultRejectedBatchLeavesNoFiles(t *testing.T) {
	db := testDB(t)
	stub := brasilAPIStub(t)
	server, registry, cfg := consultServer(t, db, stub.URL)

	// The valid PDF is stored before the .exe is rejected; the rejection
	// must take the already-stored file with it
	resp := postForm(t, server.URL, map[string]string{
		"nome":  "Maria Silva",
		"email": "maria@example.com",
		"cnpj":  testCNPJ,
	}, map[string]string{
		"contrato.pdf": "conteudo",
		"malware.exe":  "MZ",
	})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, 0, registry.Len())

	entries, err := os.ReadDir(cfg.UploadDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "rejected submissions must not leave uploads behind")
}

func TestRecentConsultations(t *testing.T) {
	db := testDB(t)
	stub := brasilAPIStub(t)
	server, _, _ := consultServer(t, db, stub.URL)

	for i := 0; i < 3; i++ {
		resp := postForm(t, server.URL, map[string]string{
			"nome":  fmt.Sprintf("Cliente %d", i),
			"email": fmt.Sprintf("cliente%d@example.com", i),
			"cnpj":  testCNPJ,
		}, nil)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp, err := http.Get(server.URL + "/api/admin/consultas")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payload struct {
		Results []models.Consultation `json:"results"`
		Total   int                   `json:"total"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Equal(t, 3, payload.Total)
	require.Len(t, payload.Results, 3)
	assert.Equal(t, testCNPJ, payload.Results[0].CNPJ)
	assert.Equal(t, "brasilapi", payload.Results[0].Provider)
}

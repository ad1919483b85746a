package models

import "time"

// CNPJData is the canonical company profile, normalized from whichever
// registry provider answered first. Field names follow the Receita Federal
// vocabulary since that is what the providers (and our emails) speak.
type CNPJData struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Source  string `json:"source,omitempty"` // provider name, "validation" or "all_providers_failed"
	Oficial bool   `json:"oficial"`          // whether the answering provider serves official registry data

	CNPJ             string `json:"cnpj"`
	RazaoSocial      string `json:"razao_social"`
	NomeFantasia     string `json:"nome_fantasia,omitempty"`
	Situacao         string `json:"situacao"`
	DataSituacao     string `json:"data_situacao,omitempty"`
	MotivoSituacao   string `json:"motivo_situacao,omitempty"`
	Abertura         string `json:"abertura,omitempty"` // founding date as reported by the provider
	NaturezaJuridica string `json:"natureza_juridica,omitempty"`
	Porte            string `json:"porte,omitempty"`
	CapitalSocial    string `json:"capital_social,omitempty"` // locale formatted, e.g. "1.000.000,00"

	AtividadePrincipal    string   `json:"atividade_principal,omitempty"`
	AtividadesSecundarias []string `json:"atividades_secundarias,omitempty"`

	Endereco EnderecoInfo `json:"endereco"`
	Telefone string       `json:"telefone,omitempty"`
	Email    string       `json:"email,omitempty"`

	Socios []SocioInfo `json:"socios,omitempty"`

	ConsultadoEm time.Time `json:"consultado_em"`
}

// EnderecoInfo is the postal address portion of a company profile.
type EnderecoInfo struct {
	Logradouro  string `json:"logradouro,omitempty"`
	Numero      string `json:"numero,omitempty"`
	Complemento string `json:"complemento,omitempty"`
	Bairro      string `json:"bairro,omitempty"`
	Municipio   string `json:"municipio,omitempty"`
	UF          string `json:"uf,omitempty"`
	CEP         string `json:"cep,omitempty"`
}

// SocioInfo is a partner/shareholder record.
type SocioInfo struct {
	Nome         string `json:"nome"`
	Qualificacao string `json:"qualificacao,omitempty"`
	DataEntrada  string `json:"data_entrada,omitempty"`
}

// ScoreResult is the outcome of the heuristic score engine. The five
// breakdown values always sum to Score.
type ScoreResult struct {
	Score         int            `json:"score"`
	Classificacao string         `json:"classificacao"`
	Cor           string         `json:"cor"`
	Fatores       []string       `json:"fatores"`
	Breakdown     map[string]int `json:"breakdown"`
	Recomendacao  string         `json:"recomendacao"`
	CalculadoEm   time.Time      `json:"calculado_em"`
}

// Consultation is a persisted record of one landing-page submission.
type Consultation struct {
	ID            string    `json:"id" db:"id"`
	CNPJ          string    `json:"cnpj" db:"cnpj"`
	Nome          string    `json:"nome" db:"nome"`
	Email         string    `json:"email" db:"email"`
	Telefone      string    `json:"telefone" db:"telefone"`
	Mensagem      string    `json:"mensagem" db:"mensagem"`
	RazaoSocial   string    `json:"razao_social" db:"razao_social"`
	Provider      string    `json:"provider" db:"provider"`
	Score         int       `json:"score" db:"score"`
	Classificacao string    `json:"classificacao" db:"classificacao"`
	LinkID        string    `json:"link_id,omitempty" db:"link_id"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// ConsultResponse is the JSON payload returned to the landing page after a
// form submission.
type ConsultResponse struct {
	Success     bool         `json:"success"`
	Message     string       `json:"message,omitempty"`
	Data        *CNPJData    `json:"data,omitempty"`
	Score       *ScoreResult `json:"score,omitempty"`
	DownloadURL string       `json:"download_url,omitempty"`
	WhatsAppURL string       `json:"whatsapp_url,omitempty"`
}

// LinkStatus is the JSON payload for the non-consuming link status route.
type LinkStatus struct {
	Valid         bool       `json:"valid"`
	Reason        string     `json:"reason,omitempty"`
	Files         int        `json:"files,omitempty"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	DownloadsLeft int        `json:"downloads_left,omitempty"`
}

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status    string    `json:"status"`
	Version   string    `json:"version"`
	Uptime    string    `json:"uptime"`
	Timestamp time.Time `json:"timestamp"`
}

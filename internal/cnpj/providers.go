package cnpj

import (
	"strconv"
	"strings"

	"nexconsult/internal/models"
)

// Provider is one external registry data source. Endpoint is a printf
// template taking the cleaned 14-digit CNPJ. Oficial marks sources that
// serve Receita Federal data directly; it only affects downstream display,
// never the fallback logic.
type Provider struct {
	Name     string
	Endpoint string
	Oficial  bool

	// isError reports whether a parsed body carries an explicit error
	// indicator (optional, provider specific).
	isError func(data map[string]any) bool

	// normalize maps the provider-specific shape onto the canonical profile.
	normalize func(data map[string]any) models.CNPJData
}

// DefaultProviders returns the fixed, ordered fallback chain. First success
// wins; the order is a priority list, not a race.
func DefaultProviders() []Provider {
	return []Provider{
		{
			Name:      "brasilapi",
			Endpoint:  "https://brasilapi.com.br/api/cnpj/v1/%s",
			Oficial:   true,
			normalize: normalizeBrasilAPI,
		},
		{
			Name:     "receitaws",
			Endpoint: "https://receitaws.com.br/v1/cnpj/%s",
			isError: func(data map[string]any) bool {
				return getString(data, "status") == "ERROR"
			},
			normalize: normalizeReceitaWS,
		},
		{
			Name:      "cnpjws",
			Endpoint:  "https://publica.cnpj.ws/cnpj/%s",
			normalize: normalizeCNPJWS,
		},
	}
}

func normalizeBrasilAPI(data map[string]any) models.CNPJData {
	profile := models.CNPJData{
		RazaoSocial:        getString(data, "razao_social"),
		NomeFantasia:       getString(data, "nome_fantasia"),
		Situacao:           getString(data, "descricao_situacao_cadastral"),
		DataSituacao:       getString(data, "data_situacao_cadastral"),
		MotivoSituacao:     getString(data, "descricao_motivo_situacao_cadastral"),
		Abertura:           getString(data, "data_inicio_atividade"),
		NaturezaJuridica:   getString(data, "natureza_juridica"),
		Porte:              getString(data, "porte"),
		CapitalSocial:      formatCapital(getFloat(data, "capital_social")),
		AtividadePrincipal: getString(data, "cnae_fiscal_descricao"),
		Telefone:           getString(data, "ddd_telefone_1"),
		Email:              getString(data, "email"),
		Endereco: models.EnderecoInfo{
			Logradouro:  getString(data, "logradouro"),
			Numero:      getString(data, "numero"),
			Complemento: getString(data, "complemento"),
			Bairro:      getString(data, "bairro"),
			Municipio:   getString(data, "municipio"),
			UF:          getString(data, "uf"),
			CEP:         getString(data, "cep"),
		},
	}

	if cnaes, ok := data["cnaes_secundarios"].([]any); ok {
		for _, item := range cnaes {
			if cnae, ok := item.(map[string]any); ok {
				if desc := getString(cnae, "descricao"); desc != "" {
					profile.AtividadesSecundarias = append(profile.AtividadesSecundarias, desc)
				}
			}
		}
	}

	if qsa, ok := data["qsa"].([]any); ok {
		for _, item := range qsa {
			if socio, ok := item.(map[string]any); ok {
				if nome := getString(socio, "nome_socio"); nome != "" {
					profile.Socios = append(profile.Socios, models.SocioInfo{
						Nome:         nome,
						Qualificacao: getString(socio, "qualificacao_socio"),
						DataEntrada:  getString(socio, "data_entrada_sociedade"),
					})
				}
			}
		}
	}

	return profile
}

func normalizeReceitaWS(data map[string]any) models.CNPJData {
	profile := models.CNPJData{
		RazaoSocial:      getString(data, "nome"),
		NomeFantasia:     getString(data, "fantasia"),
		Situacao:         getString(data, "situacao"),
		DataSituacao:     getString(data, "data_situacao"),
		MotivoSituacao:   getString(data, "motivo_situacao"),
		Abertura:         getString(data, "abertura"),
		NaturezaJuridica: getString(data, "natureza_juridica"),
		Porte:            getString(data, "porte"),
		CapitalSocial:    getString(data, "capital_social"),
		Telefone:         getString(data, "telefone"),
		Email:            getString(data, "email"),
		Endereco: models.EnderecoInfo{
			Logradouro:  getString(data, "logradouro"),
			Numero:      getString(data, "numero"),
			Complemento: getString(data, "complemento"),
			Bairro:      getString(data, "bairro"),
			Municipio:   getString(data, "municipio"),
			UF:          getString(data, "uf"),
			CEP:         getString(data, "cep"),
		},
	}

	// Activities come as [{code, text}] pairs
	if principal, ok := data["atividade_principal"].([]any); ok && len(principal) > 0 {
		if atividade, ok := principal[0].(map[string]any); ok {
			profile.AtividadePrincipal = getString(atividade, "text")
		}
	}
	if secundarias, ok := data["atividades_secundarias"].([]any); ok {
		for _, item := range secundarias {
			if atividade, ok := item.(map[string]any); ok {
				if text := getString(atividade, "text"); text != "" {
					profile.AtividadesSecundarias = append(profile.AtividadesSecundarias, text)
				}
			}
		}
	}

	if qsa, ok := data["qsa"].([]any); ok {
		for _, item := range qsa {
			if socio, ok := item.(map[string]any); ok {
				if nome := getString(socio, "nome"); nome != "" {
					profile.Socios = append(profile.Socios, models.SocioInfo{
						Nome:         nome,
						Qualificacao: getString(socio, "qual"),
					})
				}
			}
		}
	}

	return profile
}

func normalizeCNPJWS(data map[string]any) models.CNPJData {
	profile := models.CNPJData{
		RazaoSocial:   getString(data, "razao_social"),
		CapitalSocial: getString(data, "capital_social"),
	}

	if natureza, ok := data["natureza_juridica"].(map[string]any); ok {
		profile.NaturezaJuridica = getString(natureza, "descricao")
	}
	if porte, ok := data["porte"].(map[string]any); ok {
		profile.Porte = getString(porte, "descricao")
	}

	if socios, ok := data["socios"].([]any); ok {
		for _, item := range socios {
			if socio, ok := item.(map[string]any); ok {
				if nome := getString(socio, "nome"); nome != "" {
					info := models.SocioInfo{
						Nome:        nome,
						DataEntrada: getString(socio, "data_entrada_sociedade"),
					}
					if qual, ok := socio["qualificacao_socio"].(map[string]any); ok {
						info.Qualificacao = getString(qual, "descricao")
					}
					profile.Socios = append(profile.Socios, info)
				}
			}
		}
	}

	// Most company detail lives under the head-office establishment
	est, ok := data["estabelecimento"].(map[string]any)
	if !ok {
		return profile
	}

	profile.NomeFantasia = getString(est, "nome_fantasia")
	profile.Situacao = getString(est, "situacao_cadastral")
	profile.DataSituacao = getString(est, "data_situacao_cadastral")
	profile.MotivoSituacao = getString(est, "motivo_situacao_cadastral")
	profile.Abertura = getString(est, "data_inicio_atividade")
	profile.Email = getString(est, "email")
	if ddd, tel := getString(est, "ddd1"), getString(est, "telefone1"); tel != "" {
		profile.Telefone = strings.TrimSpace(ddd + " " + tel)
	}

	if atividade, ok := est["atividade_principal"].(map[string]any); ok {
		profile.AtividadePrincipal = getString(atividade, "descricao")
	}
	if secundarias, ok := est["atividades_secundarias"].([]any); ok {
		for _, item := range secundarias {
			if atividade, ok := item.(map[string]any); ok {
				if desc := getString(atividade, "descricao"); desc != "" {
					profile.AtividadesSecundarias = append(profile.AtividadesSecundarias, desc)
				}
			}
		}
	}

	logradouro := strings.TrimSpace(getString(est, "tipo_logradouro") + " " + getString(est, "logradouro"))
	profile.Endereco = models.EnderecoInfo{
		Logradouro:  logradouro,
		Numero:      getString(est, "numero"),
		Complemento: getString(est, "complemento"),
		Bairro:      getString(est, "bairro"),
		CEP:         getString(est, "cep"),
	}
	if cidade, ok := est["cidade"].(map[string]any); ok {
		profile.Endereco.Municipio = getString(cidade, "nome")
	}
	if estado, ok := est["estado"].(map[string]any); ok {
		profile.Endereco.UF = getString(estado, "sigla")
	}

	return profile
}

// getString pulls a string field out of a decoded JSON object, converting
// numbers when a provider reports numeric postcodes or phone numbers.
func getString(data map[string]any, key string) string {
	switch v := data[key].(type) {
	case string:
		return v
	case float64:
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}

// getFloat pulls a numeric field, accepting string-encoded numbers.
func getFloat(data map[string]any, key string) float64 {
	switch v := data[key].(type) {
	case float64:
		return v
	case string:
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return parsed
		}
	}
	return 0
}

// formatCapital renders a numeric capital in the comma-decimal form the
// other providers report, so the score engine sees one shape.
func formatCapital(v float64) string {
	if v == 0 {
		return ""
	}
	return strings.Replace(strconv.FormatFloat(v, 'f', 2, 64), ".", ",", 1)
}

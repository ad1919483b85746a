package scoring

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"nexconsult/internal/models"
)

// Factor weights. The five sub-scores are bounded by these and always sum
// to the total score.
const (
	weightSituacao  = 30
	weightTempo     = 25
	weightCapital   = 20
	weightAtividade = 15
	weightEndereco  = 10
)

// Classification cut points over the 0-100 total.
var bands = []struct {
	Min           int
	Classificacao string
	Cor           string
	Recomendacao  string
}{
	{80, "Excellent", "#27ae60", "Company with excellent registry indicators. Proceed with standard onboarding."},
	{60, "Good", "#2ecc71", "Company with good indicators. Proceed, reviewing the flagged factors."},
	{40, "Regular", "#f39c12", "Average indicators. Request supporting documents before engagement."},
	{20, "Low", "#e67e22", "Weak indicators. A detailed manual review is recommended before any engagement."},
	{0, "Critical", "#e74c3c", "Critical indicators. Engagement is not recommended without a full compliance review."},
}

// Activity keyword sets, matched case-insensitively against the primary
// activity descriptor. Descriptors come from CNAE texts, hence Portuguese.
var (
	lowRiskKeywords = []string{
		"consultoria", "tecnologia", "software", "educação", "ensino",
		"saúde", "engenharia", "arquitetura", "advocacia", "jurídic",
		"contabilidade", "contábil",
	}
	mediumRiskKeywords = []string{
		"comércio", "varejo", "atacado", "indústria", "construção",
		"transporte", "logística", "alimentação", "alimentos",
	}
)

// Engine computes heuristic company scores. The clock is injectable so the
// time-dependent longevity factor stays deterministic under test.
type Engine struct {
	now func() time.Time
}

// NewEngine creates an engine on the system clock.
func NewEngine() *Engine {
	return &Engine{now: time.Now}
}

// NewEngineWithClock creates an engine on the given clock.
func NewEngineWithClock(clock func() time.Time) *Engine {
	return &Engine{now: clock}
}

// Score computes the five-factor heuristic score for a company profile.
// A nil or failed profile yields the zero "unavailable" result. Pure
// computation: the input is never mutated and no I/O happens here.
func (e *Engine) Score(data *models.CNPJData) models.ScoreResult {
	result := models.ScoreResult{
		Breakdown:   map[string]int{"situacao": 0, "tempo_atividade": 0, "capital_social": 0, "atividade": 0, "endereco": 0},
		CalculadoEm: e.now(),
	}

	if data == nil || !data.Success {
		result.Classificacao = "unavailable"
		result.Cor = "#95a5a6"
		result.Fatores = []string{"Registry data unavailable, score could not be computed"}
		result.Recomendacao = "Company data could not be retrieved. Collect registry documents manually."
		return result
	}

	situacao := scoreSituacao(data.Situacao)
	result.Breakdown["situacao"] = situacao
	result.Fatores = append(result.Fatores, fmt.Sprintf("Registration status %q (+%d)", data.Situacao, situacao))

	tempo, anos := e.scoreTempoAtividade(data.Abertura)
	result.Breakdown["tempo_atividade"] = tempo
	if anos >= 0 {
		result.Fatores = append(result.Fatores, fmt.Sprintf("%d years of activity (+%d)", anos, tempo))
	} else {
		result.Fatores = append(result.Fatores, "Founding date unknown (+0)")
	}

	capital := scoreCapital(data.CapitalSocial)
	result.Breakdown["capital_social"] = capital
	result.Fatores = append(result.Fatores, fmt.Sprintf("Declared capital %q (+%d)", data.CapitalSocial, capital))

	atividade := scoreAtividade(data.AtividadePrincipal)
	result.Breakdown["atividade"] = atividade
	result.Fatores = append(result.Fatores, fmt.Sprintf("Primary activity %q (+%d)", data.AtividadePrincipal, atividade))

	endereco := scoreEndereco(data.Endereco)
	result.Breakdown["endereco"] = endereco
	result.Fatores = append(result.Fatores, fmt.Sprintf("Address completeness (+%d)", endereco))

	result.Score = situacao + tempo + capital + atividade + endereco

	for _, band := range bands {
		if result.Score >= band.Min {
			result.Classificacao = band.Classificacao
			result.Cor = band.Cor
			result.Recomendacao = band.Recomendacao
			break
		}
	}

	return result
}

// scoreSituacao: active 30, suspended 15, anything else 0. Negated forms
// are rejected explicitly because "ativa" is a substring of "inativa".
func scoreSituacao(situacao string) int {
	s := strings.ToLower(situacao)
	switch {
	case strings.Contains(s, "suspensa") || strings.Contains(s, "suspended"):
		return 15
	case strings.Contains(s, "inativa") || strings.Contains(s, "inactive"):
		return 0
	case strings.Contains(s, "ativa") || strings.Contains(s, "active"):
		return weightSituacao
	}
	return 0
}

// scoreTempoAtividade converts the founding date into full years of
// activity (calendar days / 365) and bands them. Returns -1 years when the
// date cannot be parsed.
func (e *Engine) scoreTempoAtividade(abertura string) (score, anos int) {
	founded, ok := parseDate(abertura)
	if !ok {
		return 0, -1
	}

	days := e.now().Sub(founded).Hours() / 24
	if days < 0 {
		return 0, -1
	}
	anos = int(days / 365)

	switch {
	case anos >= 10:
		return weightTempo, anos
	case anos >= 5:
		return 20, anos
	case anos >= 2:
		return 15, anos
	default:
		return 5, anos
	}
}

// scoreCapital parses a locale-formatted capital amount and bands it.
func scoreCapital(capital string) int {
	value := ParseCapital(capital)
	switch {
	case value >= 1_000_000:
		return weightCapital
	case value >= 100_000:
		return 15
	case value >= 10_000:
		return 10
	case value > 0:
		return 5
	}
	return 0
}

// scoreAtividade: low-risk keyword 15, medium-risk 10, unclassified 5
// (never 0; an unknown trade is not penalized as far as a missing one).
func scoreAtividade(atividade string) int {
	if atividade == "" {
		return 5
	}
	s := strings.ToLower(atividade)
	for _, kw := range lowRiskKeywords {
		if strings.Contains(s, kw) {
			return weightAtividade
		}
	}
	for _, kw := range mediumRiskKeywords {
		if strings.Contains(s, kw) {
			return 10
		}
	}
	return 5
}

// scoreEndereco: street and postcode 10, street only 5, neither 0.
func scoreEndereco(endereco models.EnderecoInfo) int {
	switch {
	case endereco.Logradouro != "" && endereco.CEP != "":
		return weightEndereco
	case endereco.Logradouro != "":
		return 5
	}
	return 0
}

// ParseCapital parses a capital amount that may use Brazilian formatting:
// "1.000.000,00" as well as plain "1000000.00" or "1000000".
func ParseCapital(capital string) float64 {
	s := strings.TrimSpace(capital)
	if s == "" {
		return 0
	}

	// Comma decimal means dots are thousands separators
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}
	s = strings.ReplaceAll(s, " ", "")

	value, err := strconv.ParseFloat(s, 64)
	if err != nil || value < 0 {
		return 0
	}
	return value
}

// parseDate accepts the founding date formats the providers report.
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{"02/01/2006", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

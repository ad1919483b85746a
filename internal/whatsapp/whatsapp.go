package whatsapp

import (
	"fmt"
	"net/url"
	"regexp"

	"nexconsult/internal/models"
)

var nonDigits = regexp.MustCompile(`[^0-9]`)

// BuildLink builds a wa.me deep link that opens a chat with the given
// number and a pre-filled message. Returns "" when no number is configured.
func BuildLink(number, text string) string {
	digits := nonDigits.ReplaceAllString(number, "")
	if digits == "" {
		return ""
	}
	return fmt.Sprintf("https://wa.me/%s?text=%s", digits, url.QueryEscape(text))
}

// ConsultMessage composes the pre-filled text for a finished consultation.
func ConsultMessage(nome string, data *models.CNPJData, score models.ScoreResult) string {
	empresa := "minha empresa"
	if data != nil && data.RazaoSocial != "" {
		empresa = data.RazaoSocial
	}
	return fmt.Sprintf(
		"Olá! Sou %s e acabei de solicitar uma consultoria para %s (score %d - %s). Gostaria de conversar sobre os próximos passos.",
		nome, empresa, score.Score, score.Classificacao,
	)
}

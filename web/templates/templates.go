package templates

import (
	"embed"
	"html/template"
	"strings"
)

//go:embed *.html
var templateFS embed.FS

// Templates holds all parsed templates
var Templates *template.Template

// formatCNPJ renders a cleaned 14-digit CNPJ in the usual
// 00.000.000/0000-00 punctuation. Anything else passes through untouched.
func formatCNPJ(cnpj string) string {
	if len(cnpj) != 14 {
		return cnpj
	}
	var b strings.Builder
	b.WriteString(cnpj[0:2])
	b.WriteByte('.')
	b.WriteString(cnpj[2:5])
	b.WriteByte('.')
	b.WriteString(cnpj[5:8])
	b.WriteByte('/')
	b.WriteString(cnpj[8:12])
	b.WriteByte('-')
	b.WriteString(cnpj[12:14])
	return b.String()
}

func init() {
	var err error

	funcMap := template.FuncMap{
		"formatCNPJ": formatCNPJ,
	}

	Templates, err = template.New("").Funcs(funcMap).ParseFS(templateFS, "*.html")
	if err != nil {
		panic("Failed to parse templates: " + err.Error())
	}
}

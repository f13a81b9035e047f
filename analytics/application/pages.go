package application

import (
	"sort"
	"strings"

	"github.com/KodiniTools/Kodini-Analytics/analytics/domain"
)

// allowedPages é a allow-list fixa de páginas rastreáveis. Ela limita a
// cardinalidade das chaves dos contadores: caminho arbitrário injetado por um
// cliente nunca vira linha nova.
var allowedPages = map[string]struct{}{
	"/":                        {},
	"/audiokonverter/":         {},
	"/mp3konverter/":           {},
	"/audioequalizer/":         {},
	"/modernermusikplayer/":    {},
	"/ultimativermusikplayer/": {},
	"/playlist_generator/":     {},
	"/playlistkonverter/":      {},
	"/alarmtool/":              {},
	"/audionormalisierer/":     {},
	"/visualizer/":             {},
	"/equaliser19/":            {},
	"/bildkonverter/":          {},
	"/bilderseriebearbeiten/":  {},
	"/collagemaker/":           {},
	"/kodini-color-extractor/": {},
	"/videokonverter/":         {},
	"/kontaktformular/":        {},
	"/datenschutz/":            {},
}

// NormalizePath normaliza um caminho de página e o valida contra a allow-list.
//
// Regras: minúsculas, corta query string e fragmento, garante "/" inicial e
// "/" final (exceto a raiz). Idempotente para caminhos já normalizados.
// Caminho fora da allow-list retorna domain.ErrPageNotAllowed.
func NormalizePath(raw string) (string, error) {
	p := strings.ToLower(strings.TrimSpace(raw))
	if p == "" {
		return "", domain.ErrPageNotAllowed
	}

	if i := strings.IndexByte(p, '?'); i >= 0 {
		p = p[:i]
	}
	if i := strings.IndexByte(p, '#'); i >= 0 {
		p = p[:i]
	}

	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if p != "/" && !strings.HasSuffix(p, "/") {
		p += "/"
	}

	if _, ok := allowedPages[p]; !ok {
		return "", domain.ErrPageNotAllowed
	}
	return p, nil
}

// AllowedPages retorna a allow-list em ordem estável (diagnóstico/testes).
func AllowedPages() []string {
	out := make([]string, 0, len(allowedPages))
	for p := range allowedPages {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Package auth fornece autenticação por segredo compartilhado para a API de
// estatísticas.
//
// O token vem de Authorization: Bearer <token> ou, como fallback (útil para
// testes rápidos no navegador), do parâmetro de query "token". Falha responde
// 401 uniforme, sem detalhe além de "Unauthorized".
package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

type Options struct {
	// Token é o segredo esperado. Vazio fecha a porta: nada passa.
	Token string
}

func Middleware(opts Options) func(next http.Handler) http.Handler {
	expected := []byte(opts.Token)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := []byte(tokenFromRequest(r))

			// comparação em tempo constante: não vaza prefixo por timing
			if len(expected) == 0 || subtle.ConstantTimeCompare(got, expected) != 1 {
				w.Header().Set("Content-Type", "application/json; charset=utf-8")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"Unauthorized"}` + "\n"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func tokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return r.URL.Query().Get("token")
}

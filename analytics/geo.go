package analytics

import (
	"net/http"
	"strings"

	"github.com/KodiniTools/Kodini-Analytics/analytics/domain"
)

// Cabeçalhos de país preenchidos pelo proxy reverso, em ordem de preferência.
var countryHeaders = []string{
	"CF-IPCountry",
	"X-GeoIP-Country",
	"X-Country-Code",
}

// CountryFromRequest extrai o código de país dos cabeçalhos do proxy. O
// serviço nunca resolve IP; sem cabeçalho utilizável, devolve o sentinela.
func CountryFromRequest(h http.Header) string {
	for _, name := range countryHeaders {
		v := strings.TrimSpace(h.Get(name))
		if len(v) == 2 {
			return domain.NormalizeCountryCode(v)
		}
	}
	return domain.CountryUnknown
}

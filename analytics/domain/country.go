package domain

import "strings"

// CountryUnknown é o sentinelo de região desconhecida. Tem a mesma forma de um
// código válido (duas letras maiúsculas); entrada fora do padrão nunca é
// armazenada verbatim.
const CountryUnknown = "XX"

// NormalizeCountryCode valida e normaliza um código ISO 3166-1 alpha-2.
func NormalizeCountryCode(code string) string {
	c := strings.ToUpper(strings.TrimSpace(code))
	if len(c) != 2 {
		return CountryUnknown
	}
	for i := 0; i < 2; i++ {
		if c[i] < 'A' || c[i] > 'Z' {
			return CountryUnknown
		}
	}
	return c
}

// countryNames cobre os países mais vistos no dashboard; o resto exibe o
// próprio código.
var countryNames = map[string]string{
	"XX": "Unknown",
	"DE": "Germany",
	"AT": "Austria",
	"CH": "Switzerland",
	"US": "United States",
	"GB": "United Kingdom",
	"FR": "France",
	"IT": "Italy",
	"ES": "Spain",
	"NL": "Netherlands",
	"BE": "Belgium",
	"PL": "Poland",
	"CZ": "Czechia",
	"SE": "Sweden",
	"NO": "Norway",
	"DK": "Denmark",
	"FI": "Finland",
	"PT": "Portugal",
	"IE": "Ireland",
	"RU": "Russia",
	"UA": "Ukraine",
	"TR": "Turkey",
	"IN": "India",
	"CN": "China",
	"JP": "Japan",
	"KR": "South Korea",
	"AU": "Australia",
	"NZ": "New Zealand",
	"CA": "Canada",
	"MX": "Mexico",
	"BR": "Brazil",
	"AR": "Argentina",
}

func CountryName(code string) string {
	if name, ok := countryNames[code]; ok {
		return name
	}
	return code
}

package application

import (
	"time"

	"github.com/KodiniTools/Kodini-Analytics/analytics/domain"
)

// epochFloor é o piso do período "all": não existe dado antes disso.
const epochFloor = "2020-01-01"

const day = 24 * time.Hour

// Range resolve um nome de período num intervalo inclusivo de datas (UTC).
// Nome desconhecido cai no padrão de 30 dias.
func Range(period string, now time.Time) domain.DateRange {
	now = now.UTC()
	end := now.Format(domain.DateFormat)

	var start string
	switch period {
	case "7d":
		start = now.Add(-7 * day).Format(domain.DateFormat)
	case "30d":
		start = now.Add(-30 * day).Format(domain.DateFormat)
	case "90d":
		start = now.Add(-90 * day).Format(domain.DateFormat)
	case "year":
		start = now.Add(-365 * day).Format(domain.DateFormat)
	case "all":
		start = epochFloor
	default:
		start = now.Add(-30 * day).Format(domain.DateFormat)
	}

	return domain.DateRange{Start: start, End: end}
}

// Package application contém os casos de uso do serviço de analytics:
// ingestão (TrackService), consulta (StatsService), normalização de páginas e
// resolução de períodos.
//
// Ele depende apenas de analytics/domain e não conhece net/http nem banco.
package application

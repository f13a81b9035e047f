package analytics

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/KodiniTools/Kodini-Analytics/analytics/application"
	"github.com/KodiniTools/Kodini-Analytics/analytics/domain"
)

// maxTrackBody limita o corpo de /api/track; o payload legítimo tem uma linha.
const maxTrackBody = 1 << 10

// pixel GIF transparente de 1x1.
var pixelGIF = mustDecodePixel()

func mustDecodePixel() []byte {
	b, err := base64.StdEncoding.DecodeString("R0lGODlhAQABAIAAAAAAAP///yH5BAEAAAAALAAAAAABAAEAAAIBRAA7")
	if err != nil {
		panic(err)
	}
	return b
}

type trackRequest struct {
	Page string `json:"page"`
}

// API agrupa os handlers HTTP sobre os casos de uso.
type API struct {
	Track  *application.TrackService
	Stats  *application.StatsService
	Logger *log.Logger
}

func (a *API) logf(format string, args ...any) {
	if a.Logger != nil {
		a.Logger.Printf(format, args...)
	}
}

// HandleTrack registra uma visualização. A resposta é 204 vazio tanto para
// sucesso quanto para payload inválido ou página fora da allow-list; só falha
// de armazenamento vira 500.
func (a *API) HandleTrack(w http.ResponseWriter, r *http.Request) {
	var req trackRequest

	body := http.MaxBytesReader(w, r.Body, maxTrackBody)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	err := a.Track.Record(r.Context(), req.Page, CountryFromRequest(r.Header))
	if err != nil {
		if errors.Is(err, domain.ErrPageNotAllowed) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		a.logf("track: failed to record view: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandlePixel registra a visualização indicada em ?p= e devolve o GIF de
// 1x1. O GIF sai sempre, registrando ou não; um <img> quebrado denunciaria o
// rastreamento.
func (a *API) HandlePixel(w http.ResponseWriter, r *http.Request) {
	page := r.URL.Query().Get("p")

	err := a.Track.Record(r.Context(), page, CountryFromRequest(r.Header))
	if err != nil && !errors.Is(err, domain.ErrPageNotAllowed) {
		a.logf("pixel: failed to record view: %v", err)
	}

	w.Header().Set("Content-Type", "image/gif")
	w.Header().Set("Content-Length", strconv.Itoa(len(pixelGIF)))
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, private")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
	_, _ = w.Write(pixelGIF)
}

package health

import (
	"net/http"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Stats serves the value returned by fn as JSON. fn is called per request,
// so it should return a snapshot such as Broker.Stats().
//
//	r.Handle("/stats", health.Stats(func() any { return broker.Stats() }))
func Stats(fn func() any) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		body, err := json.Marshal(fn())
		if err != nil {
			writeText(w, http.StatusInternalServerError, "stats unavailable")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		_, _ = w.Write(body)
	})
}

package observability

import (
	"net/http"
	"net/http/pprof"

	"github.com/gorilla/mux"
)

// Config captures opt-in observability toggles that wire into the server.
type Config struct {
	EnablePprof bool
}

// Mount registers the profiling endpoints under /debug/pprof when enabled.
func Mount(router *mux.Router, cfg Config) {
	if !cfg.EnablePprof {
		return
	}
	debug := router.PathPrefix("/debug/pprof").Subrouter()
	debug.HandleFunc("/cmdline", pprof.Cmdline)
	debug.HandleFunc("/profile", pprof.Profile)
	debug.HandleFunc("/symbol", pprof.Symbol)
	debug.HandleFunc("/trace", pprof.Trace)
	debug.PathPrefix("/").Handler(http.HandlerFunc(pprof.Index))
}

package net

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	nethttp "net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"roadrunner/server/internal/game"
	"roadrunner/server/internal/net/proto"
	"roadrunner/server/internal/observability"
	"roadrunner/server/internal/telemetry"
	"roadrunner/server/logging"
)

type HTTPHandlerConfig struct {
	// WWWRoot serves static files when set.
	WWWRoot string
	// Stream handles /ws upgrades when set.
	Stream          nethttp.Handler
	DefaultDogSpeed float64
	Logger          telemetry.Logger
	Publisher       logging.Publisher
	Observability   observability.Config
}

type api struct {
	app    *game.Application
	cfg    HTTPHandlerConfig
	logger telemetry.Logger
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewHTTPHandler builds the router. API responses are JSON and never cached.
func NewHTTPHandler(app *game.Application, cfg HTTPHandlerConfig) nethttp.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = telemetry.LoggerFunc(func(string, ...any) {})
	}
	if cfg.Publisher == nil {
		cfg.Publisher = logging.NopPublisher()
	}
	a := &api{app: app, cfg: cfg, logger: logger}

	router := mux.NewRouter()
	router.Use(requestLogger(cfg.Publisher))

	router.HandleFunc("/health", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})
	if cfg.Stream != nil {
		router.Handle("/ws", cfg.Stream)
	}

	v1 := router.PathPrefix("/api/v1").Subrouter()
	v1.Use(noCache)
	v1.HandleFunc("/maps", methods(a.listMaps, nethttp.MethodGet, nethttp.MethodHead))
	v1.HandleFunc("/maps/{id}", methods(a.getMap, nethttp.MethodGet, nethttp.MethodHead))
	v1.HandleFunc("/game/join", methods(a.join, nethttp.MethodPost))
	v1.HandleFunc("/game/players", methods(a.players, nethttp.MethodGet, nethttp.MethodHead))
	v1.HandleFunc("/game/state", methods(a.state, nethttp.MethodGet, nethttp.MethodHead))
	v1.HandleFunc("/game/player/action", methods(a.action, nethttp.MethodPost))
	v1.HandleFunc("/game/tick", methods(a.tick, nethttp.MethodPost))

	router.PathPrefix("/api/").Handler(noCache(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		writeError(w, r, nethttp.StatusBadRequest, proto.CodeBadRequest, "Bad request")
	})))

	observability.Mount(router, cfg.Observability)

	if cfg.WWWRoot != "" {
		router.PathPrefix("/").Handler(nethttp.FileServer(nethttp.Dir(cfg.WWWRoot)))
	}
	return router
}

func (a *api) listMaps(w nethttp.ResponseWriter, r *nethttp.Request) {
	writeJSON(w, r, nethttp.StatusOK, summarize(a.app.Maps()))
}

func (a *api) getMap(w nethttp.ResponseWriter, r *nethttp.Request) {
	m, err := a.app.Map(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, nethttp.StatusNotFound, proto.CodeMapNotFound, "Map not found")
		return
	}
	writeJSON(w, r, nethttp.StatusOK, viewOf(m, a.cfg.DefaultDogSpeed))
}

type joinRequest struct {
	UserName string `json:"userName"`
	MapID    string `json:"mapId"`
}

func (a *api) join(w nethttp.ResponseWriter, r *nethttp.Request) {
	var req joinRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, nethttp.StatusBadRequest, proto.CodeInvalidArgument, "Join game request parse error")
		return
	}
	result, err := a.app.Join(r.Context(), req.UserName, req.MapID)
	switch {
	case errors.Is(err, game.ErrInvalidName):
		writeError(w, r, nethttp.StatusBadRequest, proto.CodeInvalidArgument, "Invalid name")
	case errors.Is(err, game.ErrMapNotFound):
		writeError(w, r, nethttp.StatusNotFound, proto.CodeMapNotFound, "Map not found")
	case err != nil:
		a.fail(w, r, err)
	default:
		writeJSON(w, r, nethttp.StatusOK, result)
	}
}

func (a *api) players(w nethttp.ResponseWriter, r *nethttp.Request) {
	token, ok := bearerToken(w, r)
	if !ok {
		return
	}
	players, err := a.app.Players(token)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, r, nethttp.StatusOK, players)
}

func (a *api) state(w nethttp.ResponseWriter, r *nethttp.Request) {
	token, ok := bearerToken(w, r)
	if !ok {
		return
	}
	state, err := a.app.State(token)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, r, nethttp.StatusOK, state)
}

type actionRequest struct {
	Move *string `json:"move"`
}

func (a *api) action(w nethttp.ResponseWriter, r *nethttp.Request) {
	token, ok := bearerToken(w, r)
	if !ok {
		return
	}
	if !isJSON(r) {
		writeError(w, r, nethttp.StatusBadRequest, proto.CodeInvalidArgument, "Invalid content type")
		return
	}
	var req actionRequest
	if err := decodeBody(r, &req); err != nil || req.Move == nil {
		writeError(w, r, nethttp.StatusBadRequest, proto.CodeInvalidArgument, "Failed to parse action")
		return
	}
	if err := a.app.Action(token, *req.Move); err != nil {
		if _, status := proto.Classify(err); status == nethttp.StatusBadRequest {
			writeError(w, r, status, proto.CodeInvalidArgument, "Failed to parse action")
			return
		}
		a.fail(w, r, err)
		return
	}
	writeJSON(w, r, nethttp.StatusOK, struct{}{})
}

type tickRequest struct {
	TimeDelta *int64 `json:"timeDelta"`
}

func (a *api) tick(w nethttp.ResponseWriter, r *nethttp.Request) {
	if !a.app.ManualTick() {
		writeError(w, r, nethttp.StatusBadRequest, proto.CodeBadRequest, "Invalid endpoint")
		return
	}
	var req tickRequest
	if err := decodeBody(r, &req); err != nil || req.TimeDelta == nil || *req.TimeDelta < 0 {
		writeError(w, r, nethttp.StatusBadRequest, proto.CodeInvalidArgument, "Failed to parse tick request JSON")
		return
	}
	if _, err := a.app.Tick(r.Context(), time.Duration(*req.TimeDelta)*time.Millisecond); err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, r, nethttp.StatusOK, struct{}{})
}

func (a *api) fail(w nethttp.ResponseWriter, r *nethttp.Request, err error) {
	code, status := proto.Classify(err)
	message := err.Error()
	switch code {
	case proto.CodeInvalidToken:
		message = "Authorization header is missing"
	case proto.CodeUnknownToken:
		message = "Player token has not been found"
	case proto.CodeInternal:
		a.logger.Printf("request %s %s failed: %v", r.Method, r.URL.Path, err)
		message = "Internal error"
	}
	writeError(w, r, status, code, message)
}

// bearerToken extracts the token from "Authorization: Bearer <token>". It
// writes the error response itself when the header is unusable.
func bearerToken(w nethttp.ResponseWriter, r *nethttp.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		writeError(w, r, nethttp.StatusUnauthorized, proto.CodeInvalidToken, "Authorization header is missing")
		return "", false
	}
	token = strings.TrimSpace(token)
	if _, err := game.ParseToken(token); err != nil {
		writeError(w, r, nethttp.StatusUnauthorized, proto.CodeInvalidToken, "Authorization header is malformed")
		return "", false
	}
	return token, true
}

func isJSON(r *nethttp.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "application/json"
}

func decodeBody(r *nethttp.Request, into any) error {
	if r.Body == nil {
		return io.EOF
	}
	defer r.Body.Close()
	return json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(into)
}

// methods restricts a handler to the given methods and answers everything
// else with 405 and an Allow header.
func methods(next nethttp.HandlerFunc, allowed ...string) nethttp.HandlerFunc {
	allow := strings.Join(allowed, ", ")
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		for _, method := range allowed {
			if r.Method == method {
				next(w, r)
				return
			}
		}
		w.Header().Set("Allow", allow)
		writeError(w, r, nethttp.StatusMethodNotAllowed, proto.CodeInvalidMethod, "Only "+allow+" method is expected")
	}
}

func noCache(next nethttp.Handler) nethttp.Handler {
	return nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Header().Set("Cache-Control", "no-cache")
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w nethttp.ResponseWriter, r *nethttp.Request, status int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		nethttp.Error(w, "failed to encode", nethttp.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if r.Method == nethttp.MethodHead {
		return
	}
	w.Write(data)
}

func writeError(w nethttp.ResponseWriter, r *nethttp.Request, status int, code, message string) {
	writeJSON(w, r, status, errorBody{Code: code, Message: message})
}

package device

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/jypelle/navlink/apimodel"
	"github.com/jypelle/navlink/internal/srv/config"
	"github.com/jypelle/navlink/internal/srv/event"
	"github.com/jypelle/navlink/internal/tool"
	"github.com/sirupsen/logrus"
)

const maxLineBodySize = 4096

// ErrForbidden is answered with a 403 by the api.
var ErrForbidden = errors.New("forbidden")

type Api struct {
	eventChannel chan event.ApiEvent
	activity     func(now time.Time)

	router    *mux.Router
	apiRouter *mux.Router
	server    *http.Server

	config *config.ServerConfig
}

// NewApi builds the companion api. activity is called for every authenticated request.
func NewApi(config *config.ServerConfig, activity func(now time.Time)) *Api {
	api := Api{
		config:       config,
		activity:     activity,
		eventChannel: make(chan event.ApiEvent),
	}

	api.router = mux.NewRouter().StrictSlash(false)

	// API Routes
	api.apiRouter = api.router.PathPrefix("/api").Subrouter()
	api.apiRouter.NotFoundHandler = http.HandlerFunc(ErrorNotFoundAction)
	api.apiRouter.MethodNotAllowedHandler = http.HandlerFunc(ErrorMethodNotAllowedAction)

	// Auth middleware
	api.apiRouter.Use(
		func(handler http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				defer func() {
					if rec := recover(); rec != nil {
						logrus.Warningf("recovered from panic : [%v] - stack trace : \n [%s]", rec, debug.Stack())
						strMessage := fmt.Sprintf("%v", rec)
						GlobalErrorAction(w, strMessage, http.StatusInternalServerError)
					}
				}()

				// Check API Key
				apiKey := r.Header.Get("x-api-key")
				if apiKey != config.ServerParam.ApiParam.ApiKey {
					ErrorStatusAction(w, r, http.StatusForbidden)
					return
				}

				logrus.Debugf("PATH: %s %s %s", r.Method, r.Host, r.URL.Path)
				if api.activity != nil {
					api.activity(time.Now())
				}

				handler.ServeHTTP(w, r)
			})
		})

	api.apiRouter.HandleFunc("/is_alive",
		func(w http.ResponseWriter, r *http.Request) {
			ErrorStatusAction(w, r, http.StatusOK)
		}).Methods("GET")
	api.apiRouter.HandleFunc("/status",
		func(w http.ResponseWriter, r *http.Request) {
			api.sendAndReply(w, r, event.ApiEventStatusData{})
		}).Methods("GET")
	api.apiRouter.HandleFunc("/navigation",
		func(w http.ResponseWriter, r *http.Request) {
			var navigation apimodel.Navigation
			if err := json.NewDecoder(r.Body).Decode(&navigation); err != nil {
				apimodel.WrongParametersErrorMessage.SendError(w)
				return
			}
			api.sendAndReply(w, r, event.ApiEventNavigationData{Navigation: navigation})
		}).Methods("POST")
	api.apiRouter.HandleFunc("/navigation",
		func(w http.ResponseWriter, r *http.Request) {
			api.sendAndReply(w, r, event.ApiEventNavigationClearData{})
		}).Methods("DELETE")
	api.apiRouter.HandleFunc("/link/line",
		func(w http.ResponseWriter, r *http.Request) {
			body, err := io.ReadAll(io.LimitReader(r.Body, maxLineBodySize+1))
			if err != nil || len(body) > maxLineBodySize {
				ErrorStatusAction(w, r, http.StatusBadRequest)
				return
			}
			line := strings.TrimRight(string(body), "\r\n")
			if line == "" || strings.ContainsAny(line, "\r\n") {
				ErrorStatusAction(w, r, http.StatusBadRequest)
				return
			}
			api.sendAndReply(w, r, event.ApiEventLinkLineData{Line: line})
		}).Methods("POST")
	api.apiRouter.HandleFunc("/link/lines",
		func(w http.ResponseWriter, r *http.Request) {
			api.sendAndReply(w, r, event.ApiEventLinkOutboxData{})
		}).Methods("GET")
	api.apiRouter.HandleFunc("/button/{state}",
		func(w http.ResponseWriter, r *http.Request) {
			var pressed bool
			switch mux.Vars(r)["state"] {
			case "press":
				pressed = true
			case "release":
				pressed = false
			default:
				ErrorStatusAction(w, r, http.StatusBadRequest)
				return
			}
			api.sendAndReply(w, r, event.ApiEventButtonData{Pressed: pressed})
		}).Methods("POST")

	// Tell the browser that it's OK for JS to communicate with the server
	headersOk := handlers.AllowedHeaders([]string{"Authorization", "Content-Type", "x-api-key"})
	originsOk := handlers.AllowedOrigins([]string{"*"})
	methodsOk := handlers.AllowedMethods([]string{"GET", "POST", "DELETE", "OPTIONS"})

	api.server = &http.Server{
		Addr:         ":" + strconv.FormatInt(config.ServerParam.ApiParam.Port, 10),
		Handler:      handlers.CompressHandler(handlers.CORS(originsOk, headersOk, methodsOk)(api.router)),
		ReadTimeout:  time.Second * 30,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 120,
	}

	return &api
}

// sendAndReply hands data to the main loop and writes its answer.
func (d *Api) sendAndReply(w http.ResponseWriter, r *http.Request, data interface{}) {
	result := make(chan event.ApiResult, 1)
	select {
	case d.eventChannel <- event.ApiEvent{Result: result, Data: data}:
	case <-r.Context().Done():
		ErrorStatusAction(w, r, http.StatusServiceUnavailable)
		return
	}

	var res event.ApiResult
	select {
	case res = <-result:
	case <-r.Context().Done():
		ErrorStatusAction(w, r, http.StatusServiceUnavailable)
		return
	}

	switch {
	case errors.Is(res.Err, ErrForbidden):
		ErrorStatusAction(w, r, http.StatusForbidden)
	case errors.Is(res.Err, ErrLinkBusy):
		ErrorStatusAction(w, r, http.StatusServiceUnavailable)
	case res.Err != nil:
		GlobalErrorAction(w, res.Err.Error(), http.StatusInternalServerError)
	case res.Value != nil:
		JsonAction(w, http.StatusOK, res.Value)
	default:
		ErrorStatusAction(w, r, http.StatusOK)
	}
}

func (d *Api) Start() {
	logrus.Infof("Start api device")

	if !d.config.ApiParam.Ssl {
		go func() {
			err := d.server.ListenAndServe()
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				logrus.Error(err)
			}
		}()
		return
	}

	generated, err := tool.EnsureTlsCertificate(
		"navlink",
		"Navlink Server",
		d.selfSignedKeyFilename(),
		d.selfSignedCertFilename(),
		tool.LocalHostnames())
	if err != nil {
		logrus.Fatalf("Unable to generate cert and key files : %v\n", err)
	}
	if generated {
		logrus.Info("Self-signed cert and key files generated")
	}

	// Launch https server
	go func() {
		err := d.server.ListenAndServeTLS(d.selfSignedCertFilename(), d.selfSignedKeyFilename())
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Error(err)
		}
	}()
}

func (d *Api) StopSendingEvent() {
	logrus.Infof("Stop api device")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	d.server.Shutdown(ctx)
}

func (d *Api) EventChannel() chan event.ApiEvent {
	return d.eventChannel
}

func (d *Api) Handler() http.Handler {
	return d.server.Handler
}

func (d *Api) selfSignedKeyFilename() string {
	return filepath.Join(d.config.ConfigDir, "key.pem")
}

func (d *Api) selfSignedCertFilename() string {
	return filepath.Join(d.config.ConfigDir, "cert.pem")
}

func JsonAction(w http.ResponseWriter, status int, value interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(value); err != nil {
		logrus.Warnf("Unable to encode response: %v", err)
	}
}

func ErrorNotFoundAction(w http.ResponseWriter, r *http.Request) {
	ErrorStatusAction(w, r, http.StatusNotFound)
}

func ErrorMethodNotAllowedAction(w http.ResponseWriter, r *http.Request) {
	ErrorStatusAction(w, r, http.StatusMethodNotAllowed)
}

func ErrorStatusAction(w http.ResponseWriter, r *http.Request, status int) {
	ErrorMessageAction(w, "", status)
}

func GlobalErrorAction(w http.ResponseWriter, message string, status int) {
	ErrorMessageAction(w, message, status)
}

func ErrorMessageAction(w http.ResponseWriter, title string, status int) {
	errorMessage := apimodel.ErrorMessage{
		ErrStatusCode: status,
		ErrMessage:    title,
	}
	errorMessage.SendError(w)
}

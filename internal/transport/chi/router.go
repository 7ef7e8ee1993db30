package chi

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// ServerInterface is implemented by Server. Handlers receive path and query
// parameters already bound.
type ServerInterface interface {
	// (POST /search)
	Search(w http.ResponseWriter, r *http.Request)
	// (GET /users/{name})
	GetUser(w http.ResponseWriter, r *http.Request, name string, params GetUserParams)
	// (GET /nodes/{id}/descendants)
	ListDescendants(w http.ResponseWriter, r *http.Request, id string, params ListDescendantsParams)
	// (PUT /nodes/{id})
	PutNode(w http.ResponseWriter, r *http.Request, id string, params PutNodeParams)
	// (POST /nodes/batch)
	BatchPutNodes(w http.ResponseWriter, r *http.Request)
	// (POST /index/rebuild)
	RebuildIndex(w http.ResponseWriter, r *http.Request)
	// (GET /health)
	HealthCheck(w http.ResponseWriter, r *http.Request)
	// (GET /metrics)
	Metrics(w http.ResponseWriter, r *http.Request)
}

// ChiServerOptions configures HandlerWithOptions.
type ChiServerOptions struct {
	BaseRouter       chi.Router
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

// InvalidParamFormatError reports a parameter that failed to bind.
type InvalidParamFormatError struct {
	ParamName string
	Err       error
}

func (e *InvalidParamFormatError) Error() string {
	return fmt.Sprintf("invalid format for parameter %s: %s", e.ParamName, e.Err.Error())
}

func (e *InvalidParamFormatError) Unwrap() error { return e.Err }

// Handler mounts si on a new chi router.
func Handler(si ServerInterface) http.Handler {
	return HandlerWithOptions(si, ChiServerOptions{})
}

// HandlerWithOptions mounts si on options.BaseRouter (or a new router).
func HandlerWithOptions(si ServerInterface, options ChiServerOptions) http.Handler {
	r := options.BaseRouter
	if r == nil {
		r = chi.NewRouter()
	}
	if options.ErrorHandlerFunc == nil {
		options.ErrorHandlerFunc = func(w http.ResponseWriter, _ *http.Request, err error) {
			writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, err.Error())
		}
	}
	wrapper := &serverWrapper{handler: si, errorHandler: options.ErrorHandlerFunc}

	r.Post("/search", si.Search)
	r.Get("/users/{name}", wrapper.GetUser)
	r.Get("/nodes/{id}/descendants", wrapper.ListDescendants)
	r.Put("/nodes/{id}", wrapper.PutNode)
	r.Post("/nodes/batch", si.BatchPutNodes)
	r.Post("/index/rebuild", si.RebuildIndex)
	r.Get("/health", si.HealthCheck)
	r.Get("/metrics", si.Metrics)
	return r
}

type serverWrapper struct {
	handler      ServerInterface
	errorHandler func(w http.ResponseWriter, r *http.Request, err error)
}

func (sw *serverWrapper) GetUser(w http.ResponseWriter, r *http.Request) {
	var name string
	if err := bindPath(r, "name", &name); err != nil {
		sw.errorHandler(w, r, err)
		return
	}

	var params GetUserParams
	if err := bindQuery(r, "root", &params.Root); err != nil {
		sw.errorHandler(w, r, err)
		return
	}

	sw.handler.GetUser(w, r, name, params)
}

func (sw *serverWrapper) ListDescendants(w http.ResponseWriter, r *http.Request) {
	var id string
	if err := bindPath(r, "id", &id); err != nil {
		sw.errorHandler(w, r, err)
		return
	}

	var params ListDescendantsParams
	bindings := []struct {
		name string
		dest any
	}{
		{"max_depth", &params.MaxDepth},
		{"user", &params.User},
		{"include_deleted", &params.IncludeDeleted},
		{"public_only", &params.PublicOnly},
	}
	for _, b := range bindings {
		if err := bindQuery(r, b.name, b.dest); err != nil {
			sw.errorHandler(w, r, err)
			return
		}
	}

	sw.handler.ListDescendants(w, r, id, params)
}

func (sw *serverWrapper) PutNode(w http.ResponseWriter, r *http.Request) {
	var id string
	if err := bindPath(r, "id", &id); err != nil {
		sw.errorHandler(w, r, err)
		return
	}

	var params PutNodeParams
	if err := bindQuery(r, "parent", &params.Parent); err != nil {
		sw.errorHandler(w, r, err)
		return
	}

	sw.handler.PutNode(w, r, id, params)
}

func bindPath(r *http.Request, name string, dest any) error {
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), dest,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return &InvalidParamFormatError{ParamName: name, Err: err}
	}
	return nil
}

func bindQuery(r *http.Request, name string, dest any) error {
	if err := runtime.BindQueryParameter("form", true, false, name, r.URL.Query(), dest); err != nil {
		return &InvalidParamFormatError{ParamName: name, Err: err}
	}
	return nil
}

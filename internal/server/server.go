package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"reflect"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"auditline/internal/engine"
	"auditline/internal/engine/auth"
	"auditline/internal/repo"
)

// Config for the HTTP API handler.
type Config struct {
	Engine   engine.Engine
	BasePath string
	Auth     AuthConfig
	Logger   *slog.Logger
	// Gatherer backs /metrics; nil disables the endpoint.
	Gatherer prometheus.Gatherer
}

type errorItem struct {
	Location    string `json:"location" example:"body"`
	Name        string `json:"name" example:"status"`
	Description any    `json:"description"`
}

type requestKey struct{}
type bodyBytesKey struct{}

// apiError models the error envelope shared by every endpoint.
type apiError struct {
	status int
	Status string      `json:"status" example:"error"`
	Code   string      `json:"code" example:"validation_failed"`
	Errors []errorItem `json:"errors"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string {
	if len(e.Errors) == 0 {
		return e.Code
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Errors[0].Name, e.Errors[0].Description)
}

// New returns an HTTP handler exposing the monitoring API.
func New(cfg Config) (http.Handler, error) {
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/api/2.4"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Auth.Logger == nil {
		cfg.Auth.Logger = logger
	}
	huma.DefaultArrayNullable = false
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return schemaError(status, msg, errs)
	}
	huma.NewErrorWithContext = func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
		return schemaError(status, msg, errs)
	}

	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(requestLogger(logger))
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var bodyBytes []byte
			if r.Body != nil {
				bodyBytes, _ = io.ReadAll(r.Body)
			}
			r.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
			ctx := context.WithValue(r.Context(), requestKey{}, r)
			ctx = context.WithValue(ctx, bodyBytesKey{}, bodyBytes)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	})
	router.Use(newAuthMiddleware(cfg.Auth, cfg.Engine.Repo))
	if cfg.Gatherer != nil {
		router.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	hcfg := huma.DefaultConfig("Auditline API", "2.4.0")
	hcfg.OpenAPIPath = "/openapi"
	hcfg.DocsPath = ""
	// No $schema links in response bodies.
	hcfg.CreateHooks = nil
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	registerDocs(router, basePath)
	registerHealth(group)
	registerMonitorings(group, cfg.Engine, basePath)
	registerCredentials(group, cfg.Engine)
	registerEliminationReport(group, cfg.Engine)
	registerEliminationResolution(group, cfg.Engine)
	registerOpenAPI(router, api, basePath)

	return router, nil
}

func newAPIError(status int, code string, items ...errorItem) huma.StatusError {
	if code == "" {
		code = defaultCodeForStatus(status)
	}
	return &apiError{status: status, Status: "error", Code: code, Errors: items}
}

// schemaError converts request decoding and schema validation failures.
// Detail locations such as "body.data.status" become location "body" and
// name "status".
func schemaError(status int, msg string, errs []error) huma.StatusError {
	var items []errorItem
	for _, err := range errs {
		var detail *huma.ErrorDetail
		if !errors.As(err, &detail) {
			items = append(items, errorItem{Location: "body", Name: "data", Description: err.Error()})
			continue
		}
		location, name, _ := strings.Cut(detail.Location, ".")
		name = strings.TrimPrefix(name, "data.")
		if name == "" {
			name = "data"
		}
		items = append(items, errorItem{Location: location, Name: name, Description: detail.Message})
	}
	if len(items) == 0 {
		items = append(items, errorItem{Location: "body", Name: "data", Description: msg})
	}
	return newAPIError(status, "", items...)
}

func handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	ee := engine.AsError(err)
	if ee.Kind == engine.KindInternal {
		slog.Default().Error("request failed", "err", err)
	}
	return newAPIError(ee.Kind.Status(), string(ee.Kind), errorItem{
		Location:    ee.Location,
		Name:        ee.Name,
		Description: ee.Description,
	})
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusNotFound:
		return string(engine.KindNotFound)
	case http.StatusConflict:
		return string(engine.KindConflict)
	case http.StatusUnprocessableEntity:
		return string(engine.KindValidation)
	case http.StatusForbidden:
		return string(engine.KindForbidden)
	case http.StatusMethodNotAllowed:
		return string(engine.KindMethodNotAllowed)
	case http.StatusInternalServerError:
		return string(engine.KindInternal)
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
			)
		})
	}
}

func registerDocs(r chi.Router, basePath string) {
	r.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, swaggerHTML(basePath))
	})
}

func registerOpenAPI(r chi.Router, api huma.API, basePath string) {
	var spec []byte
	specPath := path.Join(basePath, "openapi.json")
	r.Get(specPath, func(w http.ResponseWriter, r *http.Request) {
		if spec == nil {
			oas := api.OpenAPI()
			ensureDefaultErrorResponses(oas)
			applyAuthSecurity(oas)
			spec, _ = json.Marshal(oas)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(spec)
	})
}

func ensureDefaultErrorResponses(oas *huma.OpenAPI) {
	if oas == nil || oas.Paths == nil {
		return
	}
	if oas.Components != nil && oas.Components.Schemas != nil {
		schemas := oas.Components.Schemas
		schemas.Map()["ApiError"] = huma.SchemaFromType(schemas, reflect.TypeOf(apiError{}))
	}
	for _, item := range oas.Paths {
		for _, op := range []*huma.Operation{
			item.Get, item.Put, item.Post, item.Delete, item.Options, item.Head, item.Patch, item.Trace,
		} {
			if op == nil {
				continue
			}
			if op.Responses == nil {
				op.Responses = map[string]*huma.Response{}
			}
			op.Responses["default"] = &huma.Response{
				Description: "Error",
				Content: map[string]*huma.MediaType{
					"application/json": {
						Schema: &huma.Schema{Ref: "#/components/schemas/ApiError"},
					},
				},
			}
		}
	}
}

// applyAuthSecurity documents the credential schemes. Every operation also
// accepts anonymous callers, who get the public role.
func applyAuthSecurity(oas *huma.OpenAPI) {
	if oas == nil {
		return
	}
	if oas.Components == nil {
		oas.Components = &huma.Components{}
	}
	if oas.Components.SecuritySchemes == nil {
		oas.Components.SecuritySchemes = map[string]*huma.SecurityScheme{}
	}
	oas.Components.SecuritySchemes["bearerAuth"] = &huma.SecurityScheme{
		Type:         "http",
		Scheme:       "bearer",
		BearerFormat: "JWT",
	}
	oas.Components.SecuritySchemes["basicAuth"] = &huma.SecurityScheme{
		Type:   "http",
		Scheme: "basic",
	}
	oas.Components.SecuritySchemes["apiKeyAuth"] = &huma.SecurityScheme{
		Type: "apiKey",
		In:   "header",
		Name: "X-Api-Key",
	}
	oas.Security = []map[string][]string{
		{"bearerAuth": {}},
		{"basicAuth": {}},
		{"apiKeyAuth": {}},
		{},
	}
}

func swaggerHTML(basePath string) string {
	specURL := path.Join("/", path.Join(basePath, "openapi.json"))
	return fmt.Sprintf(`<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <title>Auditline API Docs</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js" crossorigin></script>
    <script>
      window.onload = () => {
        SwaggerUIBundle({
          url: '%s',
          dom_id: '#swagger-ui'
        });
      };
    </script>
    <p style="padding: 1rem; font-family: sans-serif; color: #444;">
      Authenticate with Authorization: Bearer &lt;token&gt;, Basic &lt;api key&gt; or X-Api-Key.
    </p>
  </body>
</html>`, specURL)
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body HealthResponse `json:"body"`
	}, error) {
		return &struct {
			Body HealthResponse `json:"body"`
		}{Body: HealthResponse{Status: "ok"}}, nil
	})
}

func registerMonitorings(api huma.API, e engine.Engine, basePath string) {
	huma.Register(api, huma.Operation{
		OperationID: "list-monitorings",
		Method:      http.MethodGet,
		Path:        "/monitorings",
		Summary:     "List monitorings by modification time",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Status   string `query:"status"`
		TenderID string `query:"tender_id"`
		Limit    int    `query:"limit" default:"100"`
		Offset   string `query:"offset"`
	}) (*struct {
		Body MonitoringListResponse `json:"body"`
	}, error) {
		cursorTS, cursorID, err := parseCompositeCursor(input.Offset)
		if err != nil {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", errorItem{Location: "query", Name: "offset", Description: "Offset expired/invalid"})
		}
		limit := normalizeLimit(input.Limit)
		items, err := e.ListMonitorings(ctx, repo.MonitoringFilters{
			Status:   input.Status,
			TenderID: input.TenderID,
			Limit:    limit + 1,
			CursorTS: cursorTS,
			CursorID: cursorID,
		}, principalFromContext(ctx))
		if err != nil {
			return nil, handleError(err)
		}
		resp := MonitoringListResponse{}
		if len(items) > limit {
			items = items[:limit]
			last := items[len(items)-1]
			offset := composeCursor(repo.FormatTS(last.DateModified), last.ID)
			resp.NextPage = &NextPage{Offset: offset, Path: path.Join(basePath, "monitorings") + "?offset=" + url.QueryEscape(offset)}
		}
		resp.Data = monitoringRefs(items)
		return &struct {
			Body MonitoringListResponse `json:"body"`
		}{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-monitoring",
		Method:        http.MethodPost,
		Path:          "/monitorings",
		Summary:       "Create monitoring",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusForbidden, http.StatusUnprocessableEntity},
		Middlewares:   huma.Middlewares{requireAccess(e, auth.ResourceMonitoring, auth.ActionCreate)},
	}, func(ctx context.Context, input *struct {
		Body CreateMonitoringRequest `json:"body"`
	}) (*struct {
		Location string             `header:"Location"`
		Body     MonitoringResponse `json:"body"`
	}, error) {
		m, err := e.CreateMonitoring(ctx, input.Body.Data, principalFromContext(ctx))
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Location string             `header:"Location"`
			Body     MonitoringResponse `json:"body"`
		}{Location: path.Join(basePath, "monitorings", m.ID), Body: MonitoringResponse{Data: m}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-monitoring",
		Method:      http.MethodGet,
		Path:        "/monitorings/{monitoring_id}",
		Summary:     "Get monitoring",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		MonitoringID string `path:"monitoring_id"`
	}) (*struct {
		Body MonitoringResponse `json:"body"`
	}, error) {
		m, err := e.GetMonitoring(ctx, input.MonitoringID, principalFromContext(ctx))
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body MonitoringResponse `json:"body"`
		}{Body: MonitoringResponse{Data: m}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "patch-monitoring",
		Method:      http.MethodPatch,
		Path:        "/monitorings/{monitoring_id}",
		Summary:     "Update monitoring or change its status",
		Errors: []int{
			http.StatusForbidden,
			http.StatusNotFound,
			http.StatusConflict,
			http.StatusUnprocessableEntity,
		},
		Middlewares: huma.Middlewares{requireAccess(e, auth.ResourceMonitoring, auth.ActionPatch)},
	}, func(ctx context.Context, input *struct {
		MonitoringID string                 `path:"monitoring_id"`
		Body         PatchMonitoringRequest `json:"body"`
	}) (*struct {
		Body MonitoringResponse `json:"body"`
	}, error) {
		m, err := e.PatchMonitoring(ctx, input.MonitoringID, input.Body.Data, principalFromContext(ctx))
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body MonitoringResponse `json:"body"`
		}{Body: MonitoringResponse{Data: m}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "add-party",
		Method:        http.MethodPost,
		Path:          "/monitorings/{monitoring_id}/parties",
		Summary:       "Add party",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusForbidden, http.StatusNotFound, http.StatusUnprocessableEntity},
		Middlewares:   huma.Middlewares{requireAccess(e, auth.ResourceParty, auth.ActionCreate)},
	}, func(ctx context.Context, input *struct {
		MonitoringID string       `path:"monitoring_id"`
		Body         PartyRequest `json:"body"`
	}) (*struct {
		Body PartyResponse `json:"body"`
	}, error) {
		party, err := e.AddParty(ctx, input.MonitoringID, input.Body.Data, principalFromContext(ctx))
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body PartyResponse `json:"body"`
		}{Body: PartyResponse{Data: party}}, nil
	})
}

func registerCredentials(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "generate-credentials",
		Method:      http.MethodPatch,
		Path:        "/monitorings/{monitoring_id}/credentials",
		Summary:     "Exchange the tender owner token for monitoring credentials",
		Errors: []int{
			http.StatusForbidden,
			http.StatusNotFound,
			http.StatusUnprocessableEntity,
			http.StatusBadGateway,
		},
		Middlewares: huma.Middlewares{requireAccess(e, auth.ResourceCredentials, auth.ActionPatch)},
	}, func(ctx context.Context, input *struct {
		MonitoringID string `path:"monitoring_id"`
		AccToken     string `query:"acc_token"`
		AccHeader    string `header:"X-Access-Token"`
	}) (*struct {
		Body CredentialsResponse `json:"body"`
	}, error) {
		token := accessToken(ctx, input.AccToken, input.AccHeader)
		m, issued, err := e.GenerateCredentials(ctx, input.MonitoringID, principalFromContext(ctx), token)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body CredentialsResponse `json:"body"`
		}{Body: CredentialsResponse{Data: m, Access: AccessToken{Token: issued}}}, nil
	})
}

func registerEliminationReport(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "get-elimination-report",
		Method:      http.MethodGet,
		Path:        "/monitorings/{monitoring_id}/eliminationReport",
		Summary:     "Get elimination report",
		Errors:      []int{http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		MonitoringID string `path:"monitoring_id"`
	}) (*struct {
		Body EliminationReportResponse `json:"body"`
	}, error) {
		report, err := e.GetEliminationReport(ctx, input.MonitoringID, principalFromContext(ctx))
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body EliminationReportResponse `json:"body"`
		}{Body: EliminationReportResponse{Data: report}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "put-elimination-report",
		Method:      http.MethodPut,
		Path:        "/monitorings/{monitoring_id}/eliminationReport",
		Summary:     "Submit the elimination report",
		Errors: []int{
			http.StatusForbidden,
			http.StatusNotFound,
			http.StatusConflict,
			http.StatusUnprocessableEntity,
		},
		Middlewares: huma.Middlewares{requireAccess(e, auth.ResourceEliminationReport, auth.ActionPut)},
	}, func(ctx context.Context, input *struct {
		MonitoringID string                   `path:"monitoring_id"`
		AccToken     string                   `query:"acc_token"`
		AccHeader    string                   `header:"X-Access-Token"`
		Body         EliminationReportRequest `json:"body"`
	}) (*struct {
		Body EliminationReportResponse `json:"body"`
	}, error) {
		token := accessToken(ctx, input.AccToken, input.AccHeader)
		report, err := e.PutEliminationReport(ctx, input.MonitoringID, input.Body.Data, principalFromContext(ctx), token)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body EliminationReportResponse `json:"body"`
		}{Body: EliminationReportResponse{Data: report}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "patch-elimination-report",
		Method:      http.MethodPatch,
		Path:        "/monitorings/{monitoring_id}/eliminationReport",
		Summary:     "Elimination reports cannot be modified",
		Errors:      []int{http.StatusMethodNotAllowed},
	}, func(ctx context.Context, input *struct {
		MonitoringID string `path:"monitoring_id"`
	}) (*struct{}, error) {
		return nil, handleError(e.PatchEliminationReport(ctx, input.MonitoringID, principalFromContext(ctx)))
	})

	huma.Register(api, huma.Operation{
		OperationID:   "post-elimination-document",
		Method:        http.MethodPost,
		Path:          "/monitorings/{monitoring_id}/eliminationReport/documents",
		Summary:       "Add a document to the elimination report",
		DefaultStatus: http.StatusCreated,
		Errors: []int{
			http.StatusForbidden,
			http.StatusNotFound,
			http.StatusConflict,
			http.StatusUnprocessableEntity,
		},
		Middlewares: huma.Middlewares{requireAccess(e, auth.ResourceEliminationDocument, auth.ActionCreate)},
	}, func(ctx context.Context, input *struct {
		MonitoringID string          `path:"monitoring_id"`
		AccToken     string          `query:"acc_token"`
		AccHeader    string          `header:"X-Access-Token"`
		Body         DocumentRequest `json:"body"`
	}) (*struct {
		Body DocumentResponse `json:"body"`
	}, error) {
		token := accessToken(ctx, input.AccToken, input.AccHeader)
		doc, err := e.PostEliminationDocument(ctx, input.MonitoringID, input.Body.Data, principalFromContext(ctx), token)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body DocumentResponse `json:"body"`
		}{Body: DocumentResponse{Data: doc}}, nil
	})

	for _, method := range []string{http.MethodPatch, http.MethodPut} {
		huma.Register(api, huma.Operation{
			OperationID: strings.ToLower(method) + "-elimination-document",
			Method:      method,
			Path:        "/monitorings/{monitoring_id}/eliminationReport/documents/{document_id}",
			Summary:     "Elimination report documents cannot be modified",
			Errors:      []int{http.StatusForbidden, http.StatusNotFound},
		}, func(ctx context.Context, input *struct {
			MonitoringID string `path:"monitoring_id"`
			DocumentID   string `path:"document_id"`
		}) (*struct{}, error) {
			return nil, handleError(e.UpdateEliminationDocument(ctx, input.MonitoringID, input.DocumentID, principalFromContext(ctx)))
		})
	}
}

func registerEliminationResolution(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "get-elimination-resolution",
		Method:      http.MethodGet,
		Path:        "/monitorings/{monitoring_id}/eliminationResolution",
		Summary:     "Get elimination resolution",
		Errors:      []int{http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		MonitoringID string `path:"monitoring_id"`
	}) (*struct {
		Body ResolutionResponse `json:"body"`
	}, error) {
		res, err := e.GetEliminationResolution(ctx, input.MonitoringID, principalFromContext(ctx))
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ResolutionResponse `json:"body"`
		}{Body: ResolutionResponse{Data: res}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "patch-elimination-resolution",
		Method:      http.MethodPatch,
		Path:        "/monitorings/{monitoring_id}/eliminationResolution",
		Summary:     "Create or update the elimination resolution",
		Errors: []int{
			http.StatusForbidden,
			http.StatusNotFound,
			http.StatusConflict,
			http.StatusUnprocessableEntity,
		},
		Middlewares: huma.Middlewares{requireAccess(e, auth.ResourceResolution, auth.ActionPatch)},
	}, func(ctx context.Context, input *struct {
		MonitoringID string            `path:"monitoring_id"`
		Body         ResolutionRequest `json:"body"`
	}) (*struct {
		Body ResolutionResponse `json:"body"`
	}, error) {
		res, err := e.PatchEliminationResolution(ctx, input.MonitoringID, input.Body.Data, principalFromContext(ctx))
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ResolutionResponse `json:"body"`
		}{Body: ResolutionResponse{Data: res}}, nil
	})
}

func bodyBytes(ctx context.Context) []byte {
	if buf, ok := ctx.Value(bodyBytesKey{}).([]byte); ok {
		return buf
	}
	req, ok := ctx.Value(requestKey{}).(*http.Request)
	if !ok || req == nil {
		return nil
	}
	data, _ := io.ReadAll(req.Body)
	return data
}

func rawBodyMap(ctx context.Context) map[string]json.RawMessage {
	data := bodyBytes(ctx)
	if len(data) == 0 {
		return map[string]json.RawMessage{}
	}
	var outer map[string]json.RawMessage
	if err := json.Unmarshal(data, &outer); err != nil {
		return map[string]json.RawMessage{}
	}
	return outer
}

func normalizeLimit(in int) int {
	if in <= 0 {
		return 100
	}
	if in > 1000 {
		return 1000
	}
	return in
}

func parseCompositeCursor(cursor string) (string, string, error) {
	if cursor == "" {
		return "", "", nil
	}
	parts := strings.SplitN(cursor, "|", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid cursor")
	}
	return parts[0], parts[1], nil
}

func composeCursor(ts, id string) string {
	if ts == "" || id == "" {
		return ""
	}
	return ts + "|" + id
}

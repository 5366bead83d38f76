//go:build swagger

package httpapi

import (
	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/swaggo/swag"
)

// MountSwagger serves the OpenAPI UI under /swagger/.
func MountSwagger(r chi.Router) {
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
}

func init() {
	swag.Register(swag.Name, apiDoc{})
}

// apiDoc hands the baseline spec to http-swagger. Regenerate with
// `swag init` for full request/response schemas.
type apiDoc struct{}

func (apiDoc) ReadDoc() string { return apiDocJSON }

const apiDocJSON = `{
  "swagger": "2.0",
  "info": {
    "title": "chempredd API",
    "description": "HTTP API for molecular property prediction over pretrained sparse feed-forward models.",
    "version": "1.0"
  },
  "basePath": "/",
  "schemes": ["http"],
  "paths": {
    "/models": {
      "get": {"summary": "List available models", "produces": ["application/json"], "responses": {"200": {"description": "OK"}}}
    },
    "/models/{id}": {
      "get": {
        "summary": "Model detail",
        "produces": ["application/json"],
        "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
        "responses": {"200": {"description": "OK"}, "404": {"description": "unknown model"}}
      }
    },
    "/status": {
      "get": {"summary": "Service status and counters", "produces": ["application/json"], "responses": {"200": {"description": "OK"}}}
    },
    "/predict": {
      "post": {
        "summary": "Run prediction over a SMILES batch",
        "consumes": ["application/json"],
        "produces": ["application/json", "application/x-npz"],
        "responses": {
          "200": {"description": "classification and regression matrices"},
          "400": {"description": "bad input"},
          "404": {"description": "unknown model"},
          "503": {"description": "descriptor tool unavailable"}
        }
      }
    },
    "/healthz": {"get": {"summary": "Liveness", "responses": {"200": {"description": "ok"}}}},
    "/readyz": {"get": {"summary": "Readiness", "responses": {"200": {"description": "ready"}, "503": {"description": "loading"}}}}
  }
}`

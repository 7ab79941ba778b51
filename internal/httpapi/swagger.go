package httpapi

import (
	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/swaggo/swag"
)

// SwaggerInfo holds the exported API metadata served at /swagger/doc.json.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "predictd API",
	Description:      "Prediction service for the used-car price regressor and the heart-disease risk classifier.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

// MountSwagger serves the Swagger UI under /swagger/.
func MountSwagger(r chi.Router) {
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
}

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "basePath": "{{.BasePath}}",
    "paths": {
        "/predict": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["predictions"],
                "summary": "Predict",
                "parameters": [
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/types.PredictRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.PredictResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "415": {"description": "Unsupported Media Type", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/get_prediction/": {
            "put": {
                "produces": ["application/json"],
                "tags": ["predictions"],
                "summary": "Legacy price prediction",
                "parameters": [
                    {"in": "query", "name": "miles", "type": "integer", "default": 86132},
                    {"in": "query", "name": "year", "type": "integer", "default": 2010},
                    {"in": "query", "name": "engine_size", "type": "number", "default": 1.5},
                    {"in": "query", "name": "make", "type": "string", "default": "toyota"},
                    {"in": "query", "name": "model", "type": "string", "default": "Prius"},
                    {"in": "query", "name": "state", "type": "string", "default": "NB"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.LegacyPriceResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/schema": {
            "get": {
                "produces": ["application/json"],
                "tags": ["info"],
                "summary": "Input schema",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.SchemaResponse"}}}
            }
        },
        "/status": {
            "get": {
                "produces": ["application/json"],
                "tags": ["info"],
                "summary": "Service status",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.StatusResponse"}}}
            }
        },
        "/admin/events": {
            "get": {
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Recent model events",
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/types.EventRecord"}}}}
            }
        },
        "/admin/reload": {
            "post": {
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Reload the model",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ReloadResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/types.ReloadErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "types.PredictRequest": {
            "type": "object",
            "properties": {"fields": {"type": "object", "additionalProperties": true}}
        },
        "types.ModelRef": {
            "type": "object",
            "properties": {
                "name": {"type": "string", "example": "UsedCarPricePredictor"},
                "stage": {"type": "string", "example": "Production"},
                "version": {"type": "string", "example": "7"},
                "backend": {"type": "string", "example": "registry"}
            }
        },
        "types.PredictResponse": {
            "type": "object",
            "properties": {
                "prediction_id": {"type": "string"},
                "task": {"type": "string", "example": "regression"},
                "values": {"type": "array", "items": {"type": "number"}},
                "class": {"type": "integer"},
                "label": {"type": "string", "example": "high_risk"},
                "probability_pct": {"type": "number", "example": 73.12},
                "model": {"$ref": "#/definitions/types.ModelRef"},
                "cached": {"type": "boolean"}
            }
        },
        "types.LegacyPriceResponse": {
            "type": "object",
            "properties": {"predicted_price": {"type": "array", "items": {"type": "number"}}}
        },
        "types.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "code": {"type": "integer", "example": 422},
                "field": {"type": "string", "example": "year"},
                "value": {}
            }
        },
        "types.ReloadErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string", "example": "model reload failed; current model kept"},
                "code": {"type": "integer", "example": 502},
                "attempts": {"type": "array", "items": {"$ref": "#/definitions/types.AttemptOutcome"}}
            }
        },
        "types.AttemptOutcome": {
            "type": "object",
            "properties": {
                "backend": {"type": "string", "example": "registry"},
                "outcome": {"type": "string", "example": "failed"},
                "duration_ms": {"type": "integer", "example": 12}
            }
        },
        "types.FieldSpec": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "type": {"type": "string"},
                "min": {"type": "number"},
                "max": {"type": "number"},
                "domain": {"type": "array", "items": {"type": "string"}},
                "codes": {"type": "array", "items": {"type": "integer"}},
                "labels": {"type": "array", "items": {"type": "string"}},
                "default": {},
                "help": {"type": "string"}
            }
        },
        "types.SchemaResponse": {
            "type": "object",
            "properties": {
                "name": {"type": "string", "example": "price"},
                "task": {"type": "string", "example": "regression"},
                "encoder_version": {"type": "string", "example": "v1"},
                "fields": {"type": "array", "items": {"$ref": "#/definitions/types.FieldSpec"}}
            }
        },
        "types.StatusResponse": {
            "type": "object",
            "properties": {
                "state": {"type": "string", "example": "ready"},
                "kind": {"type": "string", "example": "price"},
                "model": {"$ref": "#/definitions/types.ModelRef"},
                "source": {"type": "string"},
                "loaded_at_unix": {"type": "integer"},
                "reloads_total": {"type": "integer"},
                "last_error": {"type": "string"},
                "uptime_seconds": {"type": "integer"},
                "server_time_unix": {"type": "integer"}
            }
        },
        "types.EventRecord": {
            "type": "object",
            "properties": {
                "name": {"type": "string", "example": "model_swapped"},
                "model": {"type": "string"},
                "fields": {"type": "object", "additionalProperties": true},
                "time_unix": {"type": "integer"}
            }
        },
        "types.ReloadResponse": {
            "type": "object",
            "properties": {
                "model": {"$ref": "#/definitions/types.ModelRef"},
                "swapped": {"type": "boolean"}
            }
        }
    }
}`

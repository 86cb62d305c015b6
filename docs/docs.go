// Package docs holds the generated OpenAPI document. Regenerate with
// `swag init -g cmd/arcticd/docs.go -o docs` after changing handler
// annotations.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "arcticd maintainers"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/v1/catalog": {
            "get": {
                "produces": ["application/json"],
                "summary": "Full catalog",
                "responses": {
                    "200": {"description": "OK"},
                    "503": {"description": "Service Unavailable"}
                }
            }
        },
        "/v1/catalog/refresh": {
            "post": {
                "produces": ["application/json"],
                "summary": "Force a remote catalog re-fetch",
                "responses": {
                    "200": {"description": "OK"},
                    "503": {"description": "Service Unavailable"}
                }
            }
        },
        "/v1/downloads": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Start downloading a model variant",
                "responses": {
                    "202": {"description": "Accepted"},
                    "404": {"description": "Not Found"},
                    "409": {"description": "Conflict"}
                }
            }
        },
        "/v1/downloads/cancel": {
            "post": {
                "produces": ["application/json"],
                "summary": "Cancel the running download batch",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/v1/downloads/lora": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Start downloading a LoRA",
                "responses": {
                    "202": {"description": "Accepted"},
                    "401": {"description": "Unauthorized"},
                    "409": {"description": "Conflict"}
                }
            }
        },
        "/v1/events": {
            "get": {
                "produces": ["application/x-ndjson"],
                "summary": "Live transfer event stream (NDJSON)",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/v1/loras": {
            "get": {
                "produces": ["application/json"],
                "summary": "Catalog LoRA entries",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/v1/loras/{id}/metadata": {
            "get": {
                "produces": ["application/json"],
                "summary": "Host-side metadata for one LoRA",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/v1/models": {
            "get": {
                "produces": ["application/json"],
                "summary": "Catalog master models",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/v1/resolve": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Resolve a variant selection into artifacts",
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/v1/installed": {
            "get": {
                "produces": ["application/json"],
                "summary": "Files already present under the install root",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/v1/status": {
            "get": {
                "produces": ["application/json"],
                "summary": "Engine and catalog status",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/v1/update/check": {
            "get": {
                "produces": ["application/json"],
                "summary": "Check the release manifest for a newer version",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "arcticd API",
	Description:      "HTTP API for catalog-driven model and LoRA downloads.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

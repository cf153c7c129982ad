// Package docs holds the OpenAPI description served under /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/v1/chambers": {
            "get": {
                "produces": ["application/json"],
                "tags": ["chambers"],
                "summary": "Latest state of every chamber",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "500": {"description": "Internal Server Error", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/v1/chambers/{id}/state": {
            "get": {
                "produces": ["application/json"],
                "tags": ["chambers"],
                "summary": "Latest state of one chamber",
                "parameters": [
                    {"type": "integer", "description": "chamber id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.ChamberState"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "404": {"description": "Not Found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "500": {"description": "Internal Server Error", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/v1/events": {
            "get": {
                "produces": ["application/json"],
                "tags": ["events"],
                "summary": "List chamber events",
                "parameters": [
                    {"type": "string", "description": "RFC3339, YYYY-MM-DD HH:MM:SS or YYYY-MM-DD", "name": "from", "in": "query"},
                    {"type": "string", "description": "RFC3339, YYYY-MM-DD HH:MM:SS or YYYY-MM-DD (whole day)", "name": "to", "in": "query"},
                    {"type": "string", "description": "event type, e.g. SEND_FRIDGE_LEFT_OFF", "name": "type", "in": "query"},
                    {"type": "integer", "description": "chamber id", "name": "chamber", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "500": {"description": "Internal Server Error", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/ws": {
            "get": {
                "tags": ["chambers"],
                "summary": "Chamber state feed",
                "description": "Upgrades to a WebSocket that pushes the latest chamber states every interval.",
                "parameters": [
                    {"type": "integer", "description": "only this chamber", "name": "chamber", "in": "query"},
                    {"type": "string", "description": "push interval, e.g. 10s (max 1m)", "name": "interval", "in": "query"},
                    {"type": "integer", "description": "push interval in milliseconds", "name": "interval_ms", "in": "query"}
                ],
                "responses": {
                    "101": {"description": "Switching Protocols"},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        }
    },
    "definitions": {
        "models.ChamberState": {
            "type": "object",
            "properties": {
                "chamber_id": {"type": "integer"},
                "gyle_id": {"type": "integer"},
                "reading": {"type": "object"},
                "updated_at": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Chamber Monitor API",
	Description:      "Fermentation chamber states and events.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

// Package docs holds the OpenAPI document served at /swagger/doc.json.
// Regenerate with: swag init -g cmd/main.go
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
        "/reading": {
            "get": {"tags": ["readings"], "summary": "Find a reading", "security": [{"BasicAuth": []}],
                "parameters": [
                    {"type": "string", "name": "_id", "in": "query"},
                    {"type": "string", "name": "sensor", "in": "query"},
                    {"type": "string", "description": "YYYY-MM-DDTHH:MM", "name": "start", "in": "query"},
                    {"type": "string", "description": "YYYY-MM-DDTHH:MM", "name": "end", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.APIError"}}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.APIError"}}}},
            "post": {"tags": ["readings"], "summary": "Insert a reading", "security": [{"BasicAuth": []}],
                "parameters": [{"name": "reading", "in": "body", "required": true, "schema": {"type": "object"}}],
                "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.APIError"}}, "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/errors.APIError"}}}},
            "put": {"tags": ["readings"], "summary": "Update a reading", "security": [{"BasicAuth": []}],
                "parameters": [{"name": "update", "in": "body", "required": true, "schema": {"type": "object"}}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.APIError"}}}},
            "patch": {"tags": ["readings"], "summary": "Update a reading", "security": [{"BasicAuth": []}],
                "parameters": [{"name": "update", "in": "body", "required": true, "schema": {"type": "object"}}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.APIError"}}}},
            "delete": {"tags": ["readings"], "summary": "Delete a reading", "security": [{"BasicAuth": []}],
                "parameters": [{"name": "reading", "in": "body", "required": true, "schema": {"type": "object"}}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.APIError"}}}}
        },
        "/readings": {
            "get": {"tags": ["readings"], "summary": "Display a reading", "security": [{"BasicAuth": []}],
                "parameters": [
                    {"type": "string", "name": "_id", "in": "query"},
                    {"type": "string", "name": "sensor", "in": "query"},
                    {"type": "string", "name": "start", "in": "query"},
                    {"type": "string", "name": "end", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.APIError"}}}},
            "post": {"tags": ["readings"], "summary": "Insert readings", "security": [{"BasicAuth": []}],
                "parameters": [{"name": "readings", "in": "body", "required": true, "schema": {"type": "array", "items": {"type": "object"}}}],
                "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.APIError"}}}},
            "put": {"tags": ["readings"], "summary": "Update readings", "security": [{"BasicAuth": []}],
                "parameters": [{"name": "updates", "in": "body", "required": true, "schema": {"type": "object"}}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.APIError"}}}},
            "patch": {"tags": ["readings"], "summary": "Update readings", "security": [{"BasicAuth": []}],
                "parameters": [{"name": "updates", "in": "body", "required": true, "schema": {"type": "object"}}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.APIError"}}}},
            "delete": {"tags": ["readings"], "summary": "Delete readings", "security": [{"BasicAuth": []}],
                "parameters": [{"name": "ids", "in": "body", "required": true, "schema": {"type": "object"}}],
                "responses": {"200": {"description": "OK"}}}
        },
        "/analysis": {
            "get": {"tags": ["analysis"], "summary": "Peak precipitation", "security": [{"BasicAuth": []}],
                "parameters": [{"type": "string", "name": "sensor", "in": "query", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.PrecipitationPeakView"}}}}}
        },
        "/analysis/temp": {
            "get": {"tags": ["analysis"], "summary": "Temperature range", "security": [{"BasicAuth": []}],
                "parameters": [
                    {"type": "number", "name": "low", "in": "query", "required": true},
                    {"type": "number", "name": "high", "in": "query", "required": true}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.APIError"}}}}
        },
        "/analysis/max-temp": {
            "get": {"tags": ["analysis"], "summary": "Max temperature per sensor", "security": [{"BasicAuth": []}],
                "parameters": [
                    {"type": "string", "description": "YYYY-MM-DD", "name": "start", "in": "query", "required": true},
                    {"type": "string", "description": "YYYY-MM-DD", "name": "end", "in": "query", "required": true}
                ],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.TemperaturePeakView"}}}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.APIError"}}}}
        },
        "/user": {
            "post": {"tags": ["users"], "summary": "Create a user", "security": [{"BasicAuth": []}],
                "parameters": [{"name": "user", "in": "body", "required": true, "schema": {"type": "object"}}],
                "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.APIError"}}}}
        },
        "/user/{id}": {
            "delete": {"tags": ["users"], "summary": "Delete a user", "security": [{"BasicAuth": []}],
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/errors.APIError"}}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.APIError"}}}}
        },
        "/users": {
            "delete": {"tags": ["users"], "summary": "Delete users by last login", "security": [{"BasicAuth": []}],
                "parameters": [{"name": "filter", "in": "body", "required": true, "schema": {"type": "object"}}],
                "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/errors.APIError"}}}},
            "patch": {"tags": ["users"], "summary": "Change user roles", "security": [{"BasicAuth": []}],
                "parameters": [{"name": "change", "in": "body", "required": true, "schema": {"type": "object"}}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.APIError"}}}}
        },
        "/login": {
            "patch": {"tags": ["session"], "summary": "Log in",
                "parameters": [{"name": "credentials", "in": "body", "required": true, "schema": {"type": "object"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/resources.LoginResponse"}}, "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/errors.APIError"}}}}
        },
        "/logout": {
            "post": {"tags": ["session"], "summary": "Log out", "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/errors.APIError"}}}}
        }
    },
    "definitions": {
        "errors.APIError": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "type": {"type": "string"},
                "request_id": {"type": "string"},
                "details": {}
            }
        },
        "models.PrecipitationPeakView": {
            "type": "object",
            "properties": {
                "Sensor Name": {"type": "string"},
                "Reading Date/Time": {"type": "string"},
                "precipitation_mm_per_h": {"type": "number"}
            }
        },
        "models.TemperaturePeakView": {
            "type": "object",
            "properties": {
                "Sensor Name": {"type": "string"},
                "Reading Date/Time": {"type": "string"},
                "Max Temperature (°C)": {"type": "number"}
            }
        },
        "resources.LoginResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "role": {"type": "string"},
                "token": {"type": "string"},
                "expires_at": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BasicAuth": {"type": "basic"},
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "WeatherDB API",
	Description:      "Role-gated weather sensor data API.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

// Package docs is generated by swaggo/swag from the handler annotations.
// Regenerate with: swag init -g cmd/api/main.go -o internal/docs
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
        "/analytics/breakdown": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["analytics"],
                "summary": "Category breakdown",
                "parameters": [
                    {"type": "string", "description": "day, week, month (default) or custom", "name": "view_mode", "in": "query"},
                    {"type": "integer", "name": "month", "in": "query"},
                    {"type": "integer", "name": "year", "in": "query"},
                    {"type": "string", "name": "date", "in": "query"},
                    {"type": "string", "name": "start_date", "in": "query"},
                    {"type": "string", "name": "end_date", "in": "query"},
                    {"type": "string", "description": "EXPENSE (default) or INCOME", "name": "transaction_type", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Breakdown"},
                    "400": {"description": "Invalid parameter", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/analytics/top": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["analytics"],
                "summary": "Top transactions",
                "parameters": [
                    {"type": "string", "name": "view_mode", "in": "query"},
                    {"type": "string", "name": "transaction_type", "in": "query"},
                    {"type": "integer", "description": "Number of items (default 5)", "name": "n", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Ranking"},
                    "400": {"description": "Invalid parameter", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/analytics/trend": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["analytics"],
                "summary": "Trend",
                "parameters": [
                    {"type": "string", "name": "view_mode", "in": "query"},
                    {"type": "string", "name": "start_date", "in": "query"},
                    {"type": "string", "name": "end_date", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Trend"},
                    "400": {"description": "Invalid parameter", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/budgets": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["budgets"],
                "summary": "Get budgets",
                "parameters": [
                    {"type": "integer", "name": "month", "in": "query", "required": true},
                    {"type": "integer", "name": "year", "in": "query", "required": true}
                ],
                "responses": {"200": {"description": "Budgets"}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["budgets"],
                "summary": "Set a budget",
                "responses": {"200": {"description": "Stored budget"}}
            }
        },
        "/budgets/summary": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["budgets"],
                "summary": "Get budget summary",
                "responses": {"200": {"description": "Budget summary"}}
            }
        },
        "/budgets/usage": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["budgets"],
                "summary": "Get budget usage",
                "responses": {"200": {"description": "Spending per category"}}
            }
        },
        "/transactions": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["transactions"],
                "summary": "List transactions",
                "responses": {"200": {"description": "Page of transactions"}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["transactions"],
                "summary": "Create transaction",
                "responses": {"201": {"description": "Created transaction"}}
            }
        }
    },
    "definitions": {
        "handlers.ErrorDetail": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "handlers.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"$ref": "#/definitions/handlers.ErrorDetail"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and JWT token.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Jizhang API",
	Description:      "Jizhang records personal income and expenses and reports on them by day, week, month or custom range.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "School Pay API",
        "description": "Compensation and billing calculation engine",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Salaries", "description": "Teacher salary computation"},
        {"name": "Billing", "description": "School subscription billing"},
        {"name": "Settings", "description": "Per-school engine configuration"},
        {"name": "Statements", "description": "Asynchronous payout statement exports"}
    ],
    "paths": {
        "/salaries/teachers/{id}": {
            "get": {
                "tags": ["Salaries"],
                "summary": "Compute a teacher's salary for a period",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "from", "in": "query", "type": "string", "required": true, "description": "YYYY-MM-DD"},
                    {"name": "to", "in": "query", "type": "string", "required": true, "description": "YYYY-MM-DD"}
                ],
                "responses": {
                    "200": {"description": "Salary result", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid range"},
                    "422": {"description": "Configuration missing"},
                    "504": {"description": "Computation timeout"}
                }
            }
        },
        "/salaries/teachers/{id}/detail": {
            "get": {
                "tags": ["Salaries"],
                "summary": "Itemized salary computation with per-day assessments",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "from", "in": "query", "type": "string", "required": true},
                    {"name": "to", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "Salary detail", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/billing/schools/{id}": {
            "get": {
                "tags": ["Billing"],
                "summary": "Price the school's current subscription period",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "Billing result", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "No subscription"}
                }
            }
        },
        "/billing/preview": {
            "post": {
                "tags": ["Billing"],
                "summary": "Price a hypothetical subscription",
                "parameters": [
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BillingPreviewRequest"}}
                ],
                "responses": {
                    "200": {"description": "Billing preview", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/settings": {
            "get": {
                "tags": ["Settings"],
                "summary": "Read the school's engine settings",
                "responses": {
                    "200": {"description": "Settings", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Settings"],
                "summary": "Update the school's engine settings",
                "responses": {
                    "200": {"description": "Updated settings", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/settings/lateness-policy": {
            "put": {
                "tags": ["Settings"],
                "summary": "Replace the school's lateness tier policy",
                "responses": {
                    "200": {"description": "Stored policy", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid tier table"}
                }
            }
        },
        "/settings/rates": {
            "put": {
                "tags": ["Settings"],
                "summary": "Upsert package salary rates and deduction bases",
                "responses": {
                    "204": {"description": "Stored"}
                }
            }
        },
        "/settings/cache/purge": {
            "post": {
                "tags": ["Settings"],
                "summary": "Drop every cached computation for the school",
                "responses": {
                    "204": {"description": "Purged"}
                }
            }
        },
        "/statements": {
            "post": {
                "tags": ["Statements"],
                "summary": "Queue a payout statement export",
                "responses": {
                    "201": {"description": "Job queued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/statements/{id}": {
            "get": {
                "tags": ["Statements"],
                "summary": "Poll a statement job",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "Job status", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/export/{token}": {
            "get": {
                "tags": ["Statements"],
                "summary": "Download a finished statement via signed token",
                "parameters": [
                    {"name": "token", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "Statement file"},
                    "401": {"description": "Invalid or expired token"}
                }
            }
        }
    },
    "definitions": {
        "BillingPreviewRequest": {
            "type": "object",
            "required": ["planId"],
            "properties": {
                "planId": {"type": "string"},
                "studentCount": {"type": "integer", "minimum": 0}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}

package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Subcover API",
        "description": "Substitute coverage requests, eligibility matching and notification fan-out.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": ["http", "https"],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Authentication", "description": "Token issuance"},
        {"name": "Coverage", "description": "Coverage requests and acceptance"},
        {"name": "Unavailability", "description": "Substitute unavailability exceptions"},
        {"name": "Absence Reports", "description": "Generated absence forms"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Current user",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/coverage-requests": {
            "get": {
                "tags": ["Coverage"],
                "summary": "List coverage requests visible to the caller",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "status", "in": "query", "type": "string", "enum": ["Open", "Filled"]},
                    {"name": "date_from", "in": "query", "type": "string", "format": "date"},
                    {"name": "date_to", "in": "query", "type": "string", "format": "date"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Coverage"],
                "summary": "Post a coverage request",
                "description": "Notification enqueue failures are reported in meta.warning; the request is still created.",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateCoverageRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/coverage-requests/matching": {
            "get": {
                "tags": ["Coverage"],
                "summary": "Open requests the calling substitute is eligible for",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/coverage-requests/{token}": {
            "get": {
                "tags": ["Coverage"],
                "summary": "Get a coverage request",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "token", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/coverage-requests/{token}/accept": {
            "post": {
                "tags": ["Coverage"],
                "summary": "Accept a coverage request",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "token", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "Filled", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already taken", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/unavailability": {
            "get": {
                "tags": ["Unavailability"],
                "summary": "List own unavailability",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Unavailability"],
                "summary": "Add an unavailability exception",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateUnavailabilityRequest"}}
                ],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/unavailability/{id}": {
            "delete": {
                "tags": ["Unavailability"],
                "summary": "Remove an unavailability exception",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "Deleted"}, "404": {"description": "Not found"}}
            }
        },
        "/absence-reports/download": {
            "get": {
                "tags": ["Absence Reports"],
                "summary": "Download an absence report through a signed link",
                "produces": ["application/pdf"],
                "parameters": [{"name": "token", "in": "query", "required": true, "type": "string"}],
                "responses": {"200": {"description": "PDF"}, "404": {"description": "Invalid or expired link"}}
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "CreateCoverageRequest": {
            "type": "object",
            "required": ["date", "time_range", "grade_id", "subject_id", "reason"],
            "properties": {
                "date": {"type": "string", "format": "date"},
                "time_range": {"type": "string", "example": "08:00 AM - 03:00 PM"},
                "grade_id": {"type": "integer"},
                "subject_id": {"type": "integer"},
                "site_id": {"type": "integer"},
                "details": {"type": "string"},
                "reason": {"type": "string", "enum": ["Sickness", "Medical", "Personal", "School Business", "Other"]}
            }
        },
        "CreateUnavailabilityRequest": {
            "type": "object",
            "required": ["date"],
            "properties": {
                "date": {"type": "string", "format": "date"},
                "all_day": {"type": "boolean"},
                "time_range": {"type": "string"},
                "repeat_pattern": {"type": "string", "example": "Monday"},
                "repeat_until": {"type": "string", "format": "date"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
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
        "Meta": {
            "type": "object",
            "properties": {
                "notifications": {
                    "type": "object",
                    "properties": {
                        "queued": {"type": "integer"},
                        "failed_to_enqueue": {"type": "integer"}
                    }
                },
                "warning": {"type": "string"},
                "warnings": {"type": "array", "items": {"type": "string"}}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"$ref": "#/definitions/Meta"}
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

package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Transcript API",
        "description": "Parses academic transcripts and keeps per-user GPA records.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "UserID": {"type": "apiKey", "in": "header", "name": "X-User-ID"}
    },
    "security": [{"UserID": []}],
    "tags": [
        {"name": "Transcripts", "description": "Parsing, storage and analytics of transcripts"},
        {"name": "Observability", "description": "Health and metrics"}
    ],
    "paths": {
        "/transcripts/parse": {
            "post": {
                "tags": ["Transcripts"],
                "summary": "Parse a transcript document",
                "description": "Accepts a PDF, HTML, plain text or JSON transcript as multipart field \"file\" or as the raw request body.",
                "consumes": ["multipart/form-data", "application/pdf", "text/plain", "text/html", "application/json"],
                "parameters": [
                    {"name": "file", "in": "formData", "type": "file", "required": false},
                    {"name": "filename", "in": "query", "type": "string", "required": false}
                ],
                "responses": {
                    "200": {"description": "Parsed", "schema": {"$ref": "#/definitions/ParseResultEnvelope"}},
                    "400": {"description": "Empty document", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "413": {"description": "Document too large", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "415": {"description": "Unsupported document", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Undecodable or invalid transcript", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/transcripts": {
            "get": {
                "tags": ["Transcripts"],
                "summary": "Get the caller's transcript",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/TranscriptEnvelope"}},
                    "404": {"description": "No transcript stored", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Transcripts"],
                "summary": "Save the caller's transcript",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/Transcript"}}
                ],
                "responses": {
                    "201": {"description": "Saved", "schema": {"$ref": "#/definitions/TranscriptEnvelope"}},
                    "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Invalid transcript", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Transcripts"],
                "summary": "Replace the caller's transcript",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/Transcript"}}
                ],
                "responses": {
                    "200": {"description": "Saved", "schema": {"$ref": "#/definitions/TranscriptEnvelope"}},
                    "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/transcripts/insights": {
            "get": {
                "tags": ["Transcripts"],
                "summary": "Transcript analytics",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "No transcript stored", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/transcripts/export": {
            "get": {
                "tags": ["Transcripts"],
                "summary": "Export the caller's transcript",
                "produces": ["text/csv", "application/pdf", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"],
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf", "xlsx"]}
                ],
                "responses": {
                    "200": {"description": "File download", "schema": {"type": "file"}},
                    "400": {"description": "Unsupported format", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "No transcript stored", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/transcripts/terms": {
            "post": {
                "tags": ["Transcripts"],
                "summary": "Add a term",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/Term"}}
                ],
                "responses": {
                    "201": {"description": "Added", "schema": {"$ref": "#/definitions/TranscriptEnvelope"}},
                    "400": {"description": "Duplicate or invalid term", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/transcripts/terms/{termCode}": {
            "delete": {
                "tags": ["Transcripts"],
                "summary": "Remove a term",
                "parameters": [
                    {"name": "termCode", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "Removed", "schema": {"$ref": "#/definitions/TranscriptEnvelope"}},
                    "404": {"description": "Unknown term", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/transcripts/terms/{termCode}/courses": {
            "post": {
                "tags": ["Transcripts"],
                "summary": "Add a course to a term",
                "parameters": [
                    {"name": "termCode", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/Course"}}
                ],
                "responses": {
                    "201": {"description": "Added", "schema": {"$ref": "#/definitions/TranscriptEnvelope"}},
                    "404": {"description": "Unknown term", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/transcripts/terms/{termCode}/courses/{index}": {
            "put": {
                "tags": ["Transcripts"],
                "summary": "Replace a course",
                "parameters": [
                    {"name": "termCode", "in": "path", "type": "string", "required": true},
                    {"name": "index", "in": "path", "type": "integer", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/Course"}}
                ],
                "responses": {
                    "200": {"description": "Updated", "schema": {"$ref": "#/definitions/TranscriptEnvelope"}},
                    "404": {"description": "Unknown term or course", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Transcripts"],
                "summary": "Remove a course",
                "parameters": [
                    {"name": "termCode", "in": "path", "type": "string", "required": true},
                    {"name": "index", "in": "path", "type": "integer", "required": true}
                ],
                "responses": {
                    "200": {"description": "Removed", "schema": {"$ref": "#/definitions/TranscriptEnvelope"}},
                    "404": {"description": "Unknown term or course", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/metrics/summary": {
            "get": {
                "tags": ["Observability"],
                "summary": "Metrics snapshot",
                "security": [],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "Course": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "code": {"type": "string", "example": "CSC 215"},
                "name": {"type": "string", "example": "INTERMED COMPUTER PROGRAMMING"},
                "units": {"type": "number", "example": 4},
                "earnedUnits": {"type": "number", "example": 4},
                "grade": {"type": "string", "example": "A"},
                "points": {"type": "number", "example": 16}
            },
            "required": ["code"]
        },
        "Term": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "termCode": {"type": "string", "example": "SP2024"},
                "termName": {"type": "string", "example": "Spring 2024"},
                "termGPA": {"type": "number"},
                "credits": {"type": "number"},
                "earnedCredits": {"type": "number"},
                "gpaUnits": {"type": "number"},
                "points": {"type": "number"},
                "isPlanned": {"type": "boolean"},
                "courses": {"type": "array", "items": {"$ref": "#/definitions/Course"}}
            },
            "required": ["termCode"]
        },
        "Cumulative": {
            "type": "object",
            "properties": {
                "overallGPA": {"type": "number"},
                "combinedGPA": {"type": "number"},
                "totalCredits": {"type": "number"},
                "totalEarnedCredits": {"type": "number"},
                "totalGPAUnits": {"type": "number"},
                "totalPoints": {"type": "number"},
                "totalPlannedCredits": {"type": "number"}
            }
        },
        "Transcript": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "userId": {"type": "string"},
                "studentInfo": {
                    "type": "object",
                    "properties": {
                        "degree": {"type": "string"},
                        "institution": {"type": "string"}
                    }
                },
                "terms": {"type": "array", "items": {"$ref": "#/definitions/Term"}},
                "cumulative": {"$ref": "#/definitions/Cumulative"},
                "updatedAt": {"type": "string", "format": "date-time"}
            },
            "required": ["terms"]
        },
        "Discrepancy": {
            "type": "object",
            "properties": {
                "termCode": {"type": "string"},
                "code": {"type": "string"},
                "grade": {"type": "string"},
                "stored": {"type": "number"},
                "derived": {"type": "number"}
            }
        },
        "ParseResult": {
            "type": "object",
            "properties": {
                "transcript": {"$ref": "#/definitions/Transcript"},
                "source": {"type": "string", "enum": ["pdf", "html", "text", "json"]},
                "pages": {"type": "integer"},
                "lines": {"type": "integer"},
                "fallback": {"type": "boolean"},
                "discrepancies": {"type": "array", "items": {"$ref": "#/definitions/Discrepancy"}},
                "cacheHit": {"type": "boolean"},
                "empty": {"type": "boolean"}
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
        },
        "TranscriptEnvelope": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/Transcript"},
                "error": {"$ref": "#/definitions/APIError"}
            }
        },
        "ParseResultEnvelope": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/ParseResult"},
                "error": {"$ref": "#/definitions/APIError"}
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

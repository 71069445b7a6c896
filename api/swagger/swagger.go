package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "MedTrack API",
        "description": "Medication schedule tracking and reminders",
        "version": "0.1.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Patients", "description": "Patient records and sharing"},
        {"name": "Medications", "description": "Medications and schedule versions"},
        {"name": "Doses", "description": "Recorded dose events"},
        {"name": "Schedule", "description": "Expected/recorded schedule views"},
        {"name": "Doctors", "description": "Prescribing doctors"},
        {"name": "Pharmacies", "description": "Dispensing pharmacies"},
        {"name": "Exports", "description": "Patient record dumps"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"}
                }
            }
        },
        "/patients": {
            "get": {
                "tags": ["Patients"],
                "summary": "List patients visible to the current user",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Patients"],
                "summary": "Create patient",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/PatientRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/patients/{id}": {
            "get": {
                "tags": ["Patients"],
                "summary": "Get patient by id",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Patients"],
                "summary": "Update patient",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/PatientRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Patients"],
                "summary": "Delete patient",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/patients/{id}/shares": {
            "get": {
                "tags": ["Patients"],
                "summary": "List sharing grants",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Patients"],
                "summary": "Grant access to another user",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ShareRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/patients/{id}/medications": {
            "get": {
                "tags": ["Medications"],
                "summary": "List a patient's medications",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Medications"],
                "summary": "Create medication",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/MedicationRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/medications/{id}/schedule": {
            "put": {
                "tags": ["Medications"],
                "summary": "Replace the medication's schedule",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateScheduleRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/medications/{id}/schedule/history": {
            "get": {
                "tags": ["Medications"],
                "summary": "List schedule version history",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/patients/{id}/doses": {
            "get": {
                "tags": ["Doses"],
                "summary": "List recorded doses",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "medication_id", "in": "query", "type": "integer"},
                    {"name": "start", "in": "query", "type": "string"},
                    {"name": "end", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Doses"],
                "summary": "Record a dose event",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/DoseRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/patients/{id}/schedule": {
            "get": {
                "tags": ["Schedule"],
                "summary": "Get the patient's schedule over a date range",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "start", "in": "query", "required": true, "type": "string"},
                    {"name": "end", "in": "query", "required": true, "type": "string"},
                    {"name": "tz", "in": "query", "type": "string"},
                    {"name": "medication_id", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/patients/{id}/report.pdf": {
            "get": {
                "tags": ["Exports"],
                "summary": "Generate PDF medication record",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/patients/{id}/dump.json": {
            "get": {
                "tags": ["Exports"],
                "summary": "Generate JSON record dump",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/downloads/{token}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download a generated export",
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File"}
                }
            }
        }
    },
    "definitions": {
        "PatientRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "birthdate": {"type": "string"},
                "sex": {"type": "string"},
                "habits": {"type": "object"}
            }
        },
        "ShareRequest": {
            "type": "object",
            "properties": {
                "user_id": {"type": "string"},
                "level": {"type": "string", "enum": ["read", "write"]}
            }
        },
        "MedicationRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "rx_norm": {"type": "string"},
                "rx_number": {"type": "string"},
                "ndc": {"type": "string"},
                "dose_quantity": {"type": "number"},
                "dose_unit": {"type": "string"},
                "route": {"type": "string"},
                "form": {"type": "string"},
                "quantity": {"type": "number"},
                "fill_date": {"type": "string"},
                "doctor_id": {"type": "integer"},
                "pharmacy_id": {"type": "integer"},
                "schedule": {"$ref": "#/definitions/ScheduleDefinition"}
            }
        },
        "UpdateScheduleRequest": {
            "type": "object",
            "properties": {
                "schedule": {"$ref": "#/definitions/ScheduleDefinition"},
                "effective_at": {"type": "string"}
            }
        },
        "ScheduleDefinition": {
            "type": "object",
            "properties": {
                "as_needed": {"type": "boolean"},
                "regularly": {"type": "boolean"},
                "until": {"type": "object"},
                "frequency": {"type": "object"},
                "times": {"type": "array", "items": {"type": "object"}},
                "take_with_food": {"type": "boolean"}
            }
        },
        "DoseRequest": {
            "type": "object",
            "properties": {
                "medication_id": {"type": "integer"},
                "date": {"type": "string"},
                "timezone": {"type": "string"},
                "taken": {"type": "boolean"},
                "scheduled": {"type": "integer"},
                "notes": {"type": "string"}
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
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
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

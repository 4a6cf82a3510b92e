package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "School Fees API",
        "description": "Student fee ledger: fee plans, pending months, fee application and receipts.",
        "version": "1.0.0"
    },
    "basePath": "/api",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Authentication", "description": "Staff login"},
        {"name": "Students", "description": "Admissions and pending months"},
        {"name": "Fees", "description": "Fee application and pending fees"},
        {"name": "Fee Plans", "description": "Amounts per heading, class and category"},
        {"name": "Fee Headings", "description": "Fee heading catalogue"},
        {"name": "Routes", "description": "Transport routes and prices"},
        {"name": "Register", "description": "Fees register, exports and receipts"}
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
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Inactive account", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students": {
            "get": {
                "tags": ["Students"],
                "summary": "List students",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "class", "in": "query", "type": "string"},
                    {"name": "section", "in": "query", "type": "string"},
                    {"name": "keyword", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Students"],
                "summary": "Admit a student",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateStudentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Duplicate admission number", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/student/{admissionNo}": {
            "get": {
                "tags": ["Students"],
                "summary": "Get a student with pending months",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "admissionNo", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{admissionNo}/photo": {
            "post": {
                "tags": ["Students"],
                "summary": "Upload a student photo",
                "consumes": ["multipart/form-data"],
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "admissionNo", "in": "path", "required": true, "type": "string"},
                    {"name": "photo", "in": "formData", "required": true, "type": "file"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "413": {"description": "Too large", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/fees": {
            "get": {
                "tags": ["Fee Headings"],
                "summary": "Distinct fee heading names",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/fees/headings": {
            "get": {
                "tags": ["Fee Headings"],
                "summary": "List fee headings",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Fee Headings"],
                "summary": "Create a fee heading",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/FeeHeadingRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/fees/headings/{id}": {
            "put": {
                "tags": ["Fee Headings"],
                "summary": "Update a fee heading",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/FeeHeadingRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Fee Headings"],
                "summary": "Delete a fee heading",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "204": {"description": "Deleted"}
                }
            }
        },
        "/fees/plans": {
            "get": {
                "tags": ["Fee Plans"],
                "summary": "List fee plans",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/fees/plan": {
            "post": {
                "tags": ["Fee Plans"],
                "summary": "Create fee plans for every class and category",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateFeePlanRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/fees/plans/{id}": {
            "put": {
                "tags": ["Fee Plans"],
                "summary": "Update a fee plan",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateFeePlanRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Fee Plans"],
                "summary": "Delete a fee plan",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "204": {"description": "Deleted"}
                }
            }
        },
        "/fees/pending": {
            "get": {
                "tags": ["Fees"],
                "summary": "Pending fees for a student",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "admissionNo", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/fees/apply": {
            "post": {
                "tags": ["Fees"],
                "summary": "Apply fees for selected months",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ApplyFeesRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Missing fields", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Student or fee plan missing", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "All selected months already applied", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/fees/register": {
            "get": {
                "tags": ["Register"],
                "summary": "List fees register entries",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "admissionNo", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Register"],
                "summary": "Record a manual fee payment",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RecordFeeRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/fees/register/export": {
            "get": {
                "tags": ["Register"],
                "summary": "Download the fees register",
                "produces": ["text/csv", "application/pdf"],
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]},
                    {"name": "admissionNo", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File", "schema": {"type": "file"}}
                }
            }
        },
        "/fees/receipts/{recNo}": {
            "get": {
                "tags": ["Register"],
                "summary": "Download a fee receipt",
                "produces": ["application/pdf"],
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "recNo", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File", "schema": {"type": "file"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/routes": {
            "get": {
                "tags": ["Routes"],
                "summary": "List transport routes",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Routes"],
                "summary": "Create or update a route",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpsertRouteRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/routes/plans": {
            "get": {
                "tags": ["Routes"],
                "summary": "List route plans",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Routes"],
                "summary": "Set a route price for a class and category",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpsertRoutePlanRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown route", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
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
        "ApplyFeesRequest": {
            "type": "object",
            "required": ["admissionNo", "className", "category", "selectedMonths"],
            "properties": {
                "admissionNo": {"type": "string"},
                "className": {"type": "string"},
                "category": {"type": "string"},
                "selectedMonths": {"type": "array", "items": {"type": "string"}}
            }
        },
        "CreateFeePlanRequest": {
            "type": "object",
            "required": ["feesHeading", "value", "classes", "categories"],
            "properties": {
                "feesHeading": {"type": "string"},
                "value": {"type": "number"},
                "classes": {"type": "array", "items": {"type": "string"}},
                "categories": {"type": "array", "items": {"type": "string"}}
            }
        },
        "UpdateFeePlanRequest": {
            "type": "object",
            "properties": {
                "feesHeading": {"type": "string"},
                "value": {"type": "number"},
                "className": {"type": "string"},
                "category": {"type": "string"}
            }
        },
        "FeeHeadingRequest": {
            "type": "object",
            "properties": {
                "feesHeading": {"type": "string"},
                "groupName": {"type": "string"},
                "frequency": {"type": "string"},
                "accountName": {"type": "string"},
                "months": {"type": "array", "items": {"type": "string"}}
            }
        },
        "CreateStudentRequest": {
            "type": "object",
            "required": ["admissionNumber", "firstName", "category", "className"],
            "properties": {
                "admissionNumber": {"type": "string"},
                "rollNo": {"type": "string"},
                "firstName": {"type": "string"},
                "middleName": {"type": "string"},
                "lastName": {"type": "string"},
                "dob": {"type": "string", "format": "date"},
                "gender": {"type": "string"},
                "category": {"type": "string"},
                "className": {"type": "string"},
                "section": {"type": "string"},
                "mobile": {"type": "string"},
                "email": {"type": "string"},
                "address": {"type": "string"},
                "city": {"type": "string"},
                "state": {"type": "string"},
                "pincode": {"type": "string"},
                "routeName": {"type": "string"}
            }
        },
        "RecordFeeRequest": {
            "type": "object",
            "required": ["admissionNumber", "months", "feesHeading", "recdAmt"],
            "properties": {
                "admissionNumber": {"type": "string"},
                "recNo": {"type": "string"},
                "date": {"type": "string", "format": "date"},
                "months": {"type": "array", "items": {"type": "string"}},
                "feesHeading": {"type": "string"},
                "fees": {"type": "number"},
                "lateFee": {"type": "number"},
                "discount": {"type": "number"},
                "recdAmt": {"type": "number"}
            }
        },
        "UpsertRouteRequest": {
            "type": "object",
            "properties": {
                "routeName": {"type": "string"},
                "months": {"type": "array", "items": {"type": "string"}}
            }
        },
        "UpsertRoutePlanRequest": {
            "type": "object",
            "properties": {
                "className": {"type": "string"},
                "categoryName": {"type": "string"},
                "routeName": {"type": "string"},
                "price": {"type": "number"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "pageSize": {"type": "integer"},
                "totalCount": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"},
                "details": {"type": "object"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
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

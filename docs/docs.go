// Package docs registers the Swagger document served at /swagger.
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
        "/api/v1/services": {
            "get": {"tags": ["Catalog"], "summary": "List services", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["Catalog"], "summary": "Create a service definition", "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}}}
        },
        "/api/v1/services/active": {
            "get": {"tags": ["Catalog"], "summary": "List active services", "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/services/{id}": {
            "get": {"tags": ["Catalog"], "summary": "Get a service", "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}},
            "put": {"tags": ["Catalog"], "summary": "Update a service", "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/services/{id}/activate": {
            "post": {"tags": ["Catalog"], "summary": "Activate a service", "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/services/{id}/deactivate": {
            "post": {"tags": ["Catalog"], "summary": "Deactivate a service", "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/services/{id}/slots": {
            "get": {"tags": ["Slots"], "summary": "List slots of a service", "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/services/{id}/slots/generate": {
            "post": {"tags": ["Slots"], "summary": "Generate slots for a date range", "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/slots/horizon": {
            "post": {"tags": ["Slots"], "summary": "Generate slots for every active service over the horizon", "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/slots/{id}": {
            "get": {"tags": ["Slots"], "summary": "Get a slot with availability", "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/slots/{id}/close": {
            "post": {"tags": ["Slots"], "summary": "Close a slot", "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/slots/{id}/reopen": {
            "post": {"tags": ["Slots"], "summary": "Reopen a slot", "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/bookings": {
            "get": {"tags": ["Bookings"], "summary": "List bookings", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["Bookings"], "summary": "Create a booking", "responses": {"201": {"description": "Created"}, "409": {"description": "Conflict"}, "422": {"description": "Unprocessable Entity"}}}
        },
        "/api/v1/bookings/counts": {
            "get": {"tags": ["Bookings"], "summary": "Booking counts per status", "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/bookings/{id}": {
            "get": {"tags": ["Bookings"], "summary": "Get a booking", "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/bookings/{id}/audit": {
            "get": {"tags": ["Bookings"], "summary": "Booking audit trail", "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/bookings/{id}/payment": {
            "post": {"tags": ["Bookings"], "summary": "Record payment", "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/bookings/{id}/complete": {
            "post": {"tags": ["Bookings"], "summary": "Complete service", "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/bookings/{id}/no-show": {
            "post": {"tags": ["Bookings"], "summary": "Mark no-show", "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/bookings/{id}/cancel": {
            "post": {"tags": ["Bookings"], "summary": "Cancel a booking", "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/bookings/{id}/reprint": {
            "post": {"tags": ["Bookings"], "summary": "Reprint the receipt", "produces": ["application/pdf"], "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}}
        },
        "/api/v1/settlements": {
            "get": {"tags": ["Settlements"], "summary": "List settlements", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["Settlements"], "summary": "Build or rebuild a shift settlement", "responses": {"200": {"description": "OK"}, "423": {"description": "Locked"}}}
        },
        "/api/v1/settlements/{id}": {
            "get": {"tags": ["Settlements"], "summary": "Get a settlement", "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/settlements/{id}/submit": {
            "post": {"tags": ["Settlements"], "summary": "Submit physical cash count", "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/settlements/{id}/lock": {
            "post": {"tags": ["Settlements"], "summary": "Lock a submitted settlement", "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/settlements/{id}/export": {
            "get": {"tags": ["Settlements"], "summary": "Export settlement workbook", "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/reports/bookings": {
            "get": {"tags": ["Reports"], "summary": "Booking report", "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/auditlogs": {
            "get": {"tags": ["AuditLog"], "summary": "Get audit logs", "responses": {"200": {"description": "OK"}}}
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Seva Counter API",
	Description:      "Slot capacity, counter bookings and shift settlement for temple seva counters.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

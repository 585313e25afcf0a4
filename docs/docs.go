// Package docs registers the API description served at /swagger. Regenerate
// the template with `swag init -g cmd/main.go` after changing handler
// annotations.
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
        "/auth/forgot-password": {
            "post": {
                "description": "The response is the same whether or not the address is registered.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Request a password reset link",
                "parameters": [
                    {"in": "body", "name": "input", "required": true, "schema": {"$ref": "#/definitions/services.ForgotPasswordInput"}}
                ],
                "responses": {"202": {"description": "Accepted"}, "400": {"description": "Bad Request"}}
            }
        },
        "/auth/reset-password": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Redeem a reset or activation token",
                "parameters": [
                    {"in": "body", "name": "input", "required": true, "schema": {"$ref": "#/definitions/services.ResetPasswordInput"}}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "invalid or expired token"}}
            }
        },
        "/admin/teams/{teamID}/assign": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Fills the team up to four members, taking candidates in request order.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["admin-teams"],
                "summary": "Assign participants to a team",
                "parameters": [
                    {"type": "integer", "description": "Team ID", "name": "teamID", "in": "path", "required": true},
                    {"in": "body", "name": "input", "required": true, "schema": {"$ref": "#/definitions/services.TeamMembersInput"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.AssignResult"}},
                    "400": {"description": "Bad Request"},
                    "404": {"description": "Not Found"}
                }
            }
        }
    },
    "definitions": {
        "models.AssignResult": {
            "type": "object",
            "properties": {
                "team_id": {"type": "integer"},
                "assigned": {"type": "array", "items": {"type": "integer"}},
                "skipped": {"type": "array", "items": {"type": "integer"}},
                "capacity_left": {"type": "integer"}
            }
        },
        "services.ForgotPasswordInput": {
            "type": "object",
            "properties": {"email": {"type": "string"}}
        },
        "services.ResetPasswordInput": {
            "type": "object",
            "properties": {"token": {"type": "string"}, "password": {"type": "string"}}
        },
        "services.TeamMembersInput": {
            "type": "object",
            "properties": {"user_ids": {"type": "array", "items": {"type": "integer"}}}
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "Game Jam API",
	Description:      "Registration, team formation, submissions and messaging for a game jam.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

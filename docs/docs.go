// Package docs holds the swagger document served under /swagger/.
// Keep it in step with the @-annotations in internal/handler.
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
        "/migration": {
            "post": {
                "description": "Opens a custodial to self-custody migration for the calling account",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["migration"],
                "summary": "Start migration session",
                "parameters": [
                    {
                        "description": "Whether the account still has a custodial key",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/model.StartMigrationRequest"}
                    }
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/model.MigrationResponse"}}
                }
            }
        },
        "/migration/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["migration"],
                "summary": "Get migration session",
                "parameters": [{"type": "string", "description": "Session ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.MigrationResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}
                }
            },
            "delete": {
                "description": "Scrubs the custodial key before responding",
                "tags": ["migration"],
                "summary": "Close migration session",
                "parameters": [{"type": "string", "description": "Session ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}
                }
            }
        },
        "/migration/{id}/attach": {
            "post": {
                "description": "Registers the new public key; on success the custodial key is scrubbed",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["migration"],
                "summary": "Attach self-custody public key",
                "parameters": [
                    {"type": "string", "description": "Session ID", "name": "id", "in": "path", "required": true},
                    {"description": "New public key", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/model.AttachRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.MigrationResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}
                }
            }
        },
        "/migration/{id}/backup": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/octet-stream"],
                "tags": ["migration"],
                "summary": "Download encrypted custodial key backup",
                "parameters": [
                    {"type": "string", "description": "Session ID", "name": "id", "in": "path", "required": true},
                    {"description": "Backup password", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/model.BackupRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "410": {"description": "Gone", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}
                }
            }
        },
        "/migration/{id}/confirm": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["migration"],
                "summary": "Confirm custodial key was saved",
                "parameters": [
                    {"type": "string", "description": "Session ID", "name": "id", "in": "path", "required": true},
                    {"description": "Acknowledgements", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/confirm.ImportAcknowledgements"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.MigrationResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}
                }
            }
        },
        "/migration/{id}/hide": {
            "post": {
                "description": "Scrubs the key. Revealing it again is not possible in this session.",
                "produces": ["application/json"],
                "tags": ["migration"],
                "summary": "Hide revealed custodial key",
                "parameters": [{"type": "string", "description": "Session ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.MigrationResponse"}}
                }
            }
        },
        "/migration/{id}/reveal": {
            "post": {
                "description": "Requires the exact sentence \"I understand the risks\". A server-side failure ends the migration.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["migration"],
                "summary": "Reveal custodial private key",
                "parameters": [
                    {"type": "string", "description": "Session ID", "name": "id", "in": "path", "required": true},
                    {"description": "Consent sentence", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/model.RevealRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.MigrationResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/model.ErrorResponse"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/model.ErrorResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}
                }
            }
        },
        "/migration/{id}/secret": {
            "get": {
                "produces": ["application/json"],
                "tags": ["migration"],
                "summary": "Show revealed custodial key",
                "parameters": [{"type": "string", "description": "Session ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.SecretResponse"}},
                    "410": {"description": "Gone", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}
                }
            }
        },
        "/wallet/create": {
            "post": {
                "description": "Generates a new 12-word recovery phrase and the positions the user must re-enter",
                "produces": ["application/json"],
                "tags": ["wallet"],
                "summary": "Start create-wallet session",
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/model.CreateSessionResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}
                }
            }
        },
        "/wallet/create/{id}": {
            "get": {
                "description": "Returns state and challenge positions. Never returns the phrase.",
                "produces": ["application/json"],
                "tags": ["wallet"],
                "summary": "Get create-wallet session",
                "parameters": [{"type": "string", "description": "Session ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.CreateSessionResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}
                }
            },
            "delete": {
                "description": "Scrubs the phrase before responding",
                "tags": ["wallet"],
                "summary": "Close create-wallet session",
                "parameters": [{"type": "string", "description": "Session ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}
                }
            }
        },
        "/wallet/create/{id}/attach": {
            "post": {
                "description": "Registers the confirmed public key with the backend and scrubs the phrase",
                "produces": ["application/json"],
                "tags": ["wallet"],
                "summary": "Attach new wallet",
                "parameters": [{"type": "string", "description": "Session ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.KeyResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}
                }
            }
        },
        "/wallet/create/{id}/backup": {
            "post": {
                "description": "Returns the phrase sealed in a password-protected .cwt file",
                "consumes": ["application/json"],
                "produces": ["application/octet-stream"],
                "tags": ["wallet"],
                "summary": "Download encrypted phrase backup",
                "parameters": [
                    {"type": "string", "description": "Session ID", "name": "id", "in": "path", "required": true},
                    {"description": "Backup password", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/model.BackupRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "410": {"description": "Gone", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}
                }
            }
        },
        "/wallet/create/{id}/confirm": {
            "post": {
                "description": "Checks the acknowledgements and the re-entered words, then derives the public key",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["wallet"],
                "summary": "Confirm recovery phrase",
                "parameters": [
                    {"type": "string", "description": "Session ID", "name": "id", "in": "path", "required": true},
                    {"description": "Acknowledgements and answers", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/model.ConfirmCreateRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.KeyResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}
                }
            }
        },
        "/wallet/create/{id}/phrase": {
            "get": {
                "produces": ["application/json"],
                "tags": ["wallet"],
                "summary": "Show recovery phrase",
                "parameters": [{"type": "string", "description": "Session ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.CreateSessionResponse"}},
                    "410": {"description": "Gone", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}
                }
            }
        },
        "/wallet/create/{id}/restart": {
            "post": {
                "description": "Discards the unconfirmed phrase and generates a new one with a new challenge",
                "produces": ["application/json"],
                "tags": ["wallet"],
                "summary": "Generate a different phrase",
                "parameters": [{"type": "string", "description": "Session ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.CreateSessionResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}
                }
            }
        },
        "/wallet/import": {
            "post": {
                "description": "Derives the public key of an existing phrase. The phrase is not kept.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["wallet"],
                "summary": "Import wallet from recovery phrase",
                "parameters": [
                    {"description": "Recovery phrase", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/model.ImportRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.KeyResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "confirm.Acknowledgements": {
            "type": "object",
            "properties": {
                "cannotRecover": {"type": "boolean"},
                "neverShare": {"type": "boolean"},
                "savedSecurely": {"type": "boolean"}
            }
        },
        "confirm.ImportAcknowledgements": {
            "type": "object",
            "properties": {
                "importedToWallet": {"type": "boolean"},
                "savedSecurely": {"type": "boolean"}
            }
        },
        "model.Answer": {
            "type": "object",
            "properties": {
                "index": {"type": "integer"},
                "word": {"type": "string"}
            }
        },
        "model.AttachRequest": {
            "type": "object",
            "properties": {
                "publicKey": {"type": "string"}
            }
        },
        "model.BackupRequest": {
            "type": "object",
            "properties": {
                "password": {"type": "string"}
            }
        },
        "model.ChallengeWord": {
            "type": "object",
            "properties": {
                "index": {"type": "integer"},
                "position": {"type": "integer"}
            }
        },
        "model.ConfirmCreateRequest": {
            "type": "object",
            "properties": {
                "acknowledgements": {"$ref": "#/definitions/confirm.Acknowledgements"},
                "answers": {"type": "array", "items": {"$ref": "#/definitions/model.Answer"}}
            }
        },
        "model.CreateSessionResponse": {
            "type": "object",
            "properties": {
                "challenge": {"type": "array", "items": {"$ref": "#/definitions/model.ChallengeWord"}},
                "publicKey": {"type": "string"},
                "sessionId": {"type": "string"},
                "state": {"type": "string"},
                "words": {"type": "array", "items": {"type": "string"}}
            }
        },
        "model.ErrorResponse": {
            "type": "object",
            "properties": {
                "action": {"type": "string"},
                "code": {"type": "string"},
                "error": {"type": "string"}
            }
        },
        "model.ImportRequest": {
            "type": "object",
            "properties": {
                "mnemonic": {"type": "string"}
            }
        },
        "model.KeyResponse": {
            "type": "object",
            "properties": {
                "publicKey": {"type": "string"},
                "qr": {"type": "string"}
            }
        },
        "model.MigrationResponse": {
            "type": "object",
            "properties": {
                "publicKey": {"type": "string"},
                "sessionId": {"type": "string"},
                "state": {"type": "string"},
                "support": {"type": "string"}
            }
        },
        "model.RevealRequest": {
            "type": "object",
            "properties": {
                "confirmation": {"type": "string"}
            }
        },
        "model.SecretResponse": {
            "type": "object",
            "properties": {
                "kind": {"type": "string"},
                "secret": {"type": "string"}
            }
        },
        "model.StartMigrationRequest": {
            "type": "object",
            "properties": {
                "hasCustodialKey": {"type": "boolean"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Self-custody wallet API",
	Description:      "Local key management: recovery phrase creation, custodial key migration, public key attachment.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

// Package docs registers the OpenAPI document served at /swagger/.
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
    "securityDefinitions": {
        "CallerAddress": {"type": "apiKey", "name": "X-Caller-Address", "in": "header"},
        "Signature": {"type": "apiKey", "name": "X-Signature", "in": "header"},
        "Timestamp": {"type": "apiKey", "name": "X-Timestamp", "in": "header"}
    },
    "paths": {
        "/v1/admin/initialize": {
            "post": {
                "tags": ["consensus"],
                "summary": "Initialize governance state",
                "responses": {
                    "201": {"description": "ok"}
                }
            }
        },
        "/v1/admin/config": {
            "put": {
                "tags": ["consensus"],
                "summary": "Update governance config",
                "responses": {
                    "200": {"description": "ok"}
                }
            }
        },
        "/v1/config": {
            "get": {
                "tags": ["consensus"],
                "summary": "Get governance config",
                "responses": {
                    "200": {"description": "ok"}
                }
            }
        },
        "/v1/fees": {
            "get": {
                "tags": ["consensus"],
                "summary": "Get fee config",
                "responses": {
                    "200": {"description": "ok"}
                }
            }
        },
        "/v1/roles/{address}": {
            "post": {
                "tags": ["consensus"],
                "summary": "Grant role",
                "responses": {
                    "204": {"description": "ok"}
                }
            }
        },
        "/v1/roles/{address}/{role}": {
            "delete": {
                "tags": ["consensus"],
                "summary": "Revoke role",
                "responses": {
                    "204": {"description": "ok"}
                }
            }
        },
        "/v1/voters/{address}/profile": {
            "get": {
                "tags": ["consensus"],
                "summary": "Get voter profile",
                "responses": {
                    "200": {"description": "ok"}
                }
            },
            "put": {
                "tags": ["consensus"],
                "summary": "Set voter profile",
                "responses": {
                    "200": {"description": "ok"}
                }
            }
        },
        "/v1/voters/{address}/activity": {
            "post": {
                "tags": ["consensus"],
                "summary": "Record voter activity",
                "responses": {
                    "200": {"description": "ok"}
                }
            }
        },
        "/v1/voters/{address}/weight": {
            "get": {
                "tags": ["consensus"],
                "summary": "Compute voting weight",
                "responses": {
                    "200": {"description": "ok"}
                }
            }
        },
        "/v1/voters/{address}/ballots": {
            "get": {
                "tags": ["consensus"],
                "summary": "List a voter's ballots",
                "responses": {
                    "200": {"description": "ok"}
                }
            }
        },
        "/v1/flags": {
            "post": {
                "tags": ["consensus"],
                "summary": "Flag content for review",
                "responses": {
                    "201": {"description": "ok"}
                }
            }
        },
        "/v1/flags/{subject_id}": {
            "get": {
                "tags": ["consensus"],
                "summary": "Get flag",
                "responses": {
                    "200": {"description": "ok"}
                }
            }
        },
        "/v1/proposals": {
            "post": {
                "tags": ["consensus"],
                "summary": "Create proposal",
                "responses": {
                    "201": {"description": "ok"}
                }
            }
        },
        "/v1/proposals/{subject_id}": {
            "get": {
                "tags": ["consensus"],
                "summary": "Get proposal",
                "responses": {
                    "200": {"description": "ok"}
                }
            }
        },
        "/v1/disputes": {
            "post": {
                "tags": ["consensus"],
                "summary": "Open dispute",
                "responses": {
                    "201": {"description": "ok"}
                }
            }
        },
        "/v1/disputes/{subject_id}": {
            "get": {
                "tags": ["consensus"],
                "summary": "Get dispute",
                "responses": {
                    "200": {"description": "ok"}
                }
            }
        },
        "/v1/subjects": {
            "get": {
                "tags": ["consensus"],
                "summary": "List subjects",
                "responses": {
                    "200": {"description": "ok"}
                }
            }
        },
        "/v1/subjects/{subject_id}": {
            "get": {
                "tags": ["consensus"],
                "summary": "Get subject",
                "responses": {
                    "200": {"description": "ok"}
                }
            },
            "delete": {
                "tags": ["consensus"],
                "summary": "Reset subject",
                "responses": {
                    "204": {"description": "ok"}
                }
            }
        },
        "/v1/subjects/{subject_id}/votes": {
            "post": {
                "tags": ["consensus"],
                "summary": "Cast vote",
                "responses": {
                    "201": {"description": "ok"}
                }
            },
            "get": {
                "tags": ["consensus"],
                "summary": "List ballots",
                "responses": {
                    "200": {"description": "ok"}
                }
            }
        },
        "/v1/subjects/{subject_id}/votes/{voter}": {
            "get": {
                "tags": ["consensus"],
                "summary": "Get ballot",
                "responses": {
                    "200": {"description": "ok"}
                }
            }
        },
        "/v1/subjects/{subject_id}/resolve": {
            "post": {
                "tags": ["consensus"],
                "summary": "Try to resolve",
                "responses": {
                    "200": {"description": "ok"}
                }
            }
        },
        "/v1/subjects/{subject_id}/admin-resolve": {
            "post": {
                "tags": ["consensus"],
                "summary": "Admin resolve",
                "responses": {
                    "200": {"description": "ok"}
                }
            }
        },
        "/v1/subjects/{subject_id}/release": {
            "get": {
                "tags": ["consensus"],
                "summary": "Get fund release",
                "responses": {
                    "200": {"description": "ok"}
                }
            }
        },
        "/v1/content-status": {
            "get": {
                "tags": ["consensus"],
                "summary": "Get content status",
                "responses": {
                    "200": {"description": "ok"}
                }
            }
        },
        "/v1/events/stream": {
            "get": {
                "tags": ["consensus"],
                "summary": "Event stream (websocket)",
                "responses": {
                    "101": {"description": "ok"}
                }
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
	Title:            "Tribunal API",
	Description:      "Weighted consensus voting over flags, proposals and disputes.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

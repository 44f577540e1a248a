// Package docs holds the OpenAPI document served at /api/swagger. It follows
// the swag annotations on the handlers in internal/server and is kept in the
// layout swag emits; `go generate ./cmd/server` rewrites it from them.
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
		"/register": {
			"post": {
				"produces": [
					"application/json"
				],
				"tags": [
					"auth"
				],
				"summary": "Register",
				"description": "Create an account. The email is trimmed and lower-cased.",
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"description": "Registration",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/service.RegisterInput"
						}
					}
				],
				"responses": {
					"201": {
						"description": "Created",
						"schema": {
							"type": "object",
							"properties": {
								"email": {
									"type": "string"
								},
								"first_name": {
									"type": "string"
								},
								"last_name": {
									"type": "string"
								}
							}
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/login": {
			"post": {
				"produces": [
					"application/json"
				],
				"tags": [
					"auth"
				],
				"summary": "Login",
				"description": "Authenticate with email and password and receive an access/refresh token pair",
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"description": "Login credentials",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object",
							"properties": {
								"email": {
									"type": "string"
								},
								"password": {
									"type": "string"
								}
							}
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/server.TokenPair"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/token/refresh": {
			"post": {
				"produces": [
					"application/json"
				],
				"tags": [
					"auth"
				],
				"summary": "Refresh access token",
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"description": "Refresh token",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object",
							"properties": {
								"refresh": {
									"type": "string"
								}
							}
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"properties": {
								"access": {
									"type": "string"
								}
							}
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/logout": {
			"post": {
				"produces": [
					"application/json"
				],
				"tags": [
					"auth"
				],
				"summary": "Logout",
				"description": "Revoke the current access token and, if supplied, the refresh token",
				"security": [
					{
						"BearerAuth": []
					}
				],
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"description": "Refresh token to revoke",
						"name": "request",
						"in": "body",
						"required": false,
						"schema": {
							"type": "object",
							"properties": {
								"refresh": {
									"type": "string"
								}
							}
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"properties": {
								"detail": {
									"type": "string"
								}
							}
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/users/me": {
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"users"
				],
				"summary": "Current user profile",
				"security": [
					{
						"BearerAuth": []
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/models.UserProfile"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/users/me/flags": {
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"users"
				],
				"summary": "Feature flags",
				"description": "Configured feature flags and their evaluated state for the caller",
				"security": [
					{
						"BearerAuth": []
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object"
						}
					}
				}
			}
		},
		"/users/search": {
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"users"
				],
				"summary": "Search users",
				"description": "Exact email match first, otherwise substring match on email and names",
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "string",
						"description": "Search query",
						"name": "q",
						"in": "query",
						"required": true
					},
					{
						"type": "integer",
						"description": "Page number",
						"name": "page",
						"in": "query"
					},
					{
						"type": "integer",
						"description": "Page size",
						"name": "page_size",
						"in": "query"
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/models.Page-models_UserProfile"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/users/{id}": {
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"users"
				],
				"summary": "User profile",
				"description": "Users separated from the caller by a block are reported as not found",
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "integer",
						"description": "User ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/models.UserProfile"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/friends": {
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"friends"
				],
				"summary": "List friends",
				"description": "Friends sorted by first then last name, optionally filtered by q",
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "string",
						"description": "Substring of email, first or last name",
						"name": "q",
						"in": "query"
					},
					{
						"type": "integer",
						"description": "Page number",
						"name": "page",
						"in": "query"
					},
					{
						"type": "integer",
						"description": "Page size",
						"name": "page_size",
						"in": "query"
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/models.Page-models_FriendEntry"
						}
					}
				}
			}
		},
		"/friends/requests": {
			"post": {
				"produces": [
					"application/json"
				],
				"tags": [
					"friends"
				],
				"summary": "Send friend request",
				"security": [
					{
						"BearerAuth": []
					}
				],
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"description": "Receiver user ID",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object",
							"properties": {
								"receiver": {
									"type": "integer"
								}
							}
						}
					}
				],
				"responses": {
					"201": {
						"description": "Created",
						"schema": {
							"$ref": "#/definitions/models.FriendRequest"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"429": {
						"description": "Too Many Requests",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/friends/requests/pending": {
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"friends"
				],
				"summary": "Incoming pending requests",
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "string",
						"description": "Substring of email, first or last name",
						"name": "q",
						"in": "query"
					},
					{
						"type": "integer",
						"description": "Page number",
						"name": "page",
						"in": "query"
					},
					{
						"type": "integer",
						"description": "Page size",
						"name": "page_size",
						"in": "query"
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/models.Page-models_RequestEntry"
						}
					}
				}
			}
		},
		"/friends/requests/sent": {
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"friends"
				],
				"summary": "Outgoing pending requests",
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "string",
						"description": "Substring of email, first or last name",
						"name": "q",
						"in": "query"
					},
					{
						"type": "integer",
						"description": "Page number",
						"name": "page",
						"in": "query"
					},
					{
						"type": "integer",
						"description": "Page size",
						"name": "page_size",
						"in": "query"
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/models.Page-models_RequestEntry"
						}
					}
				}
			}
		},
		"/friends/requests/{id}": {
			"post": {
				"produces": [
					"application/json"
				],
				"tags": [
					"friends"
				],
				"summary": "Accept or reject a friend request",
				"security": [
					{
						"BearerAuth": []
					}
				],
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"type": "integer",
						"description": "Request ID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"description": "accept or reject",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object",
							"properties": {
								"action": {
									"type": "string"
								}
							}
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/models.RespondResult"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"409": {
						"description": "Conflict",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/friends/status/{userId}": {
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"friends"
				],
				"summary": "Relationship status",
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "integer",
						"description": "Other user ID",
						"name": "userId",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/models.RelationshipStatus"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/friends/blocked": {
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"friends"
				],
				"summary": "Blocked users",
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "integer",
						"description": "Page number",
						"name": "page",
						"in": "query"
					},
					{
						"type": "integer",
						"description": "Page size",
						"name": "page_size",
						"in": "query"
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/models.Page-models_BlockedEntry"
						}
					}
				}
			}
		},
		"/friends/block/{userId}": {
			"post": {
				"produces": [
					"application/json"
				],
				"tags": [
					"friends"
				],
				"summary": "Block a user",
				"description": "Removes any friendship and pending requests with the user. Blocking twice succeeds.",
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "integer",
						"description": "User ID",
						"name": "userId",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"properties": {
								"detail": {
									"type": "string"
								}
							}
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			},
			"delete": {
				"produces": [
					"application/json"
				],
				"tags": [
					"friends"
				],
				"summary": "Unblock a user",
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "integer",
						"description": "User ID",
						"name": "userId",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"properties": {
								"detail": {
									"type": "string"
								}
							}
						}
					}
				}
			}
		}
	},
	"definitions": {
		"models.ErrorBody": {
			"type": "object",
			"properties": {
				"type": {
					"type": "string"
				},
				"message": {
					"type": "string"
				},
				"status": {
					"type": "integer"
				}
			}
		},
		"models.ErrorResponse": {
			"type": "object",
			"properties": {
				"error": {
					"$ref": "#/definitions/models.ErrorBody"
				}
			}
		},
		"models.UserProfile": {
			"type": "object",
			"properties": {
				"id": {
					"type": "integer"
				},
				"email": {
					"type": "string"
				},
				"first_name": {
					"type": "string"
				},
				"last_name": {
					"type": "string"
				},
				"is_active": {
					"type": "boolean"
				},
				"date_joined": {
					"type": "string"
				}
			}
		},
		"models.FriendRequest": {
			"type": "object",
			"properties": {
				"id": {
					"type": "integer"
				},
				"sender": {
					"type": "integer"
				},
				"receiver": {
					"type": "integer"
				},
				"status": {
					"type": "string",
					"enum": [
						"PENDING",
						"ACCEPTED",
						"REJECTED"
					]
				},
				"created_at": {
					"type": "string"
				},
				"updated_at": {
					"type": "string"
				}
			}
		},
		"models.FriendEntry": {
			"type": "object",
			"properties": {
				"id": {
					"type": "integer"
				},
				"friend": {
					"$ref": "#/definitions/models.UserProfile"
				},
				"created_at": {
					"type": "string"
				}
			}
		},
		"models.BlockedEntry": {
			"type": "object",
			"properties": {
				"id": {
					"type": "integer"
				},
				"blocked_user": {
					"$ref": "#/definitions/models.UserProfile"
				},
				"created_at": {
					"type": "string"
				}
			}
		},
		"models.RequestEntry": {
			"type": "object",
			"properties": {
				"id": {
					"type": "integer"
				},
				"sender": {
					"type": "integer"
				},
				"receiver": {
					"type": "integer"
				},
				"status": {
					"type": "string",
					"enum": [
						"PENDING",
						"ACCEPTED",
						"REJECTED"
					]
				},
				"created_at": {
					"type": "string"
				},
				"updated_at": {
					"type": "string"
				},
				"counterpart": {
					"$ref": "#/definitions/models.UserProfile"
				}
			}
		},
		"models.RelationshipStatus": {
			"type": "object",
			"properties": {
				"user_id": {
					"type": "integer"
				},
				"status": {
					"type": "string",
					"enum": [
						"none",
						"pending_sent",
						"pending_received",
						"friends",
						"blocked",
						"blocked_by"
					]
				},
				"request_id": {
					"type": "integer"
				}
			}
		},
		"models.RespondResult": {
			"type": "object",
			"properties": {
				"outcome": {
					"type": "string",
					"enum": [
						"accepted",
						"rejected",
						"already_friends"
					]
				},
				"detail": {
					"type": "string"
				},
				"request": {
					"$ref": "#/definitions/models.FriendRequest"
				}
			}
		},
		"models.Page-models_UserProfile": {
			"type": "object",
			"properties": {
				"count": {
					"type": "integer"
				},
				"next": {
					"type": "integer"
				},
				"previous": {
					"type": "integer"
				},
				"results": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/models.UserProfile"
					}
				}
			}
		},
		"models.Page-models_FriendEntry": {
			"type": "object",
			"properties": {
				"count": {
					"type": "integer"
				},
				"next": {
					"type": "integer"
				},
				"previous": {
					"type": "integer"
				},
				"results": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/models.FriendEntry"
					}
				}
			}
		},
		"models.Page-models_RequestEntry": {
			"type": "object",
			"properties": {
				"count": {
					"type": "integer"
				},
				"next": {
					"type": "integer"
				},
				"previous": {
					"type": "integer"
				},
				"results": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/models.RequestEntry"
					}
				}
			}
		},
		"models.Page-models_BlockedEntry": {
			"type": "object",
			"properties": {
				"count": {
					"type": "integer"
				},
				"next": {
					"type": "integer"
				},
				"previous": {
					"type": "integer"
				},
				"results": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/models.BlockedEntry"
					}
				}
			}
		},
		"server.TokenPair": {
			"type": "object",
			"properties": {
				"access": {
					"type": "string"
				},
				"refresh": {
					"type": "string"
				}
			}
		},
		"service.RegisterInput": {
			"type": "object",
			"properties": {
				"email": {
					"type": "string"
				},
				"first_name": {
					"type": "string"
				},
				"last_name": {
					"type": "string"
				},
				"password": {
					"type": "string"
				}
			}
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
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "Amity API",
	Description:      "Friendship, blocking and user directory service.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

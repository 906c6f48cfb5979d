// Package docs registers the OpenAPI document for the search API with swag.
// Regenerate with: swag init -g cmd/sercha-kms/main.go -o docs
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "Sercha OSS",
            "url": "https://github.com/custodia-labs/sercha-kms/issues"
        },
        "license": {
            "name": "Apache 2.0",
            "url": "http://www.apache.org/licenses/LICENSE-2.0.html"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/search": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Ranks chunks across the caller's documents by fused keyword and vector relevance",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Search"],
                "summary": "Hybrid search",
                "parameters": [
                    {"description": "Search query and options", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.SearchRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.SearchResponse"}},
                    "400": {"description": "Invalid request", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "500": {"description": "Internal server error", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/documents/{id}/search": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Ranks chunks of a single document",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Search"],
                "summary": "Search within a document",
                "parameters": [
                    {"type": "integer", "description": "Document ID", "name": "id", "in": "path", "required": true},
                    {"description": "Search query and options", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.SearchRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.SearchResponse"}},
                    "400": {"description": "Invalid request", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "404": {"description": "Document not found", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/agents/{id}/search": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Ranks chunks of the documents configured on an agent",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Search"],
                "summary": "Search an agent's documents",
                "parameters": [
                    {"type": "integer", "description": "Agent ID", "name": "id", "in": "path", "required": true},
                    {"description": "Search query and options", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.SearchRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.SearchResponse"}},
                    "400": {"description": "Invalid request", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "404": {"description": "Agent not found", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/search/augment": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Rewrites a query using recent conversation history",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Search"],
                "summary": "Augment a query",
                "parameters": [
                    {"description": "Query and conversation", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/domain.AugmentationRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.AugmentationResult"}},
                    "400": {"description": "Invalid request", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/capabilities": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Search"],
                "summary": "Runtime capabilities",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Capabilities"}}
                }
            }
        },
        "/conversations/turns": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Appends a user or assistant turn to the caller's conversation",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Conversations"],
                "summary": "Record a conversation turn",
                "parameters": [
                    {"description": "Conversation and turn", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.TurnRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.ChatTurn"}},
                    "400": {"description": "Invalid request", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "503": {"description": "History store not configured", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            },
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Conversations"],
                "summary": "List conversation turns",
                "parameters": [
                    {"type": "string", "name": "chat_type", "in": "query"},
                    {"type": "string", "name": "context_id", "in": "query"},
                    {"type": "integer", "name": "agent_id", "in": "query"},
                    {"type": "integer", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.TurnsResponse"}},
                    "400": {"description": "Invalid request", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "http.ErrorResponse": {
            "type": "object",
            "properties": {"error": {"type": "string", "example": "invalid request body"}}
        },
        "http.SearchRequest": {
            "type": "object",
            "properties": {
                "query": {"type": "string"},
                "search_type": {"type": "string", "enum": ["hybrid", "keyword", "semantic"]},
                "limit": {"type": "integer"},
                "threshold": {"type": "number"},
                "keyword_weight": {"type": "number"},
                "vector_weight": {"type": "number"},
                "specific_document_ids": {"type": "array", "items": {"type": "integer"}},
                "category_filter": {"type": "string"},
                "date_range": {"type": "object", "properties": {"from": {"type": "string", "format": "date-time"}, "to": {"type": "string", "format": "date-time"}}},
                "chunk_max_type": {"type": "string", "enum": ["number", "percentage"]},
                "chunk_max_value": {"type": "number"},
                "enable_query_augmentation": {"type": "boolean"},
                "chat_type": {"type": "string", "enum": ["general", "document", "agent"]},
                "context_id": {"type": "string"},
                "agent_id": {"type": "integer"},
                "history_limit": {"type": "integer"}
            }
        },
        "domain.SearchResult": {
            "type": "object",
            "properties": {
                "document_id": {"type": "integer"},
                "document_name": {"type": "string"},
                "chunk_index": {"type": "integer"},
                "content": {"type": "string"},
                "similarity": {"type": "number"},
                "match_type": {"type": "string", "enum": ["keyword", "semantic", "hybrid"]}
            }
        },
        "domain.SearchResponse": {
            "type": "object",
            "properties": {
                "query": {"type": "string"},
                "effective_query": {"type": "string"},
                "search_type": {"type": "string"},
                "results": {"type": "array", "items": {"$ref": "#/definitions/domain.SearchResult"}},
                "total_count": {"type": "integer"},
                "candidate_count": {"type": "integer"},
                "degraded": {"type": "boolean"},
                "failed_signals": {"type": "array", "items": {"type": "string"}},
                "augmentation": {"$ref": "#/definitions/domain.AugmentationResult"},
                "took": {"type": "integer", "example": 1500000}
            }
        },
        "http.TurnRequest": {
            "type": "object",
            "properties": {
                "chat_type": {"type": "string", "enum": ["general", "document", "agent"]},
                "context_id": {"type": "string"},
                "agent_id": {"type": "integer"},
                "role": {"type": "string", "enum": ["user", "assistant"]},
                "content": {"type": "string"}
            }
        },
        "http.TurnsResponse": {
            "type": "object",
            "properties": {"turns": {"type": "array", "items": {"$ref": "#/definitions/domain.ChatTurn"}}}
        },
        "domain.ChatTurn": {
            "type": "object",
            "properties": {
                "role": {"type": "string"},
                "content": {"type": "string"},
                "created_at": {"type": "string", "format": "date-time"}
            }
        },
        "domain.AugmentationRequest": {
            "type": "object",
            "properties": {
                "query": {"type": "string"},
                "chat_type": {"type": "string"},
                "context_id": {"type": "string"},
                "agent_id": {"type": "integer"},
                "history_limit": {"type": "integer"}
            }
        },
        "domain.AugmentationResult": {
            "type": "object",
            "properties": {
                "original_query": {"type": "string"},
                "augmented_query": {"type": "string"},
                "extracted_keywords": {"type": "array", "items": {"type": "string"}},
                "contextual_insights": {"type": "string"},
                "confidence": {"type": "number"},
                "should_use_augmented": {"type": "boolean"}
            }
        },
        "domain.Capabilities": {
            "type": "object",
            "properties": {
                "history_backend": {"type": "string"},
                "semantic_search": {"type": "boolean"},
                "query_augmentation": {"type": "boolean"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "JWT Bearer token. Format: \"Bearer {token}\"",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{"http", "https"},
	Title:            "Sercha KMS Search API",
	Description:      "Hybrid keyword and vector retrieval over a user's documents, with history-aware query augmentation.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

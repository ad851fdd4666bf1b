// Package testutil provides shared testing utilities and fixtures
package testutil

// TemplateAPISpec is the OpenAPI document the template API publishes.
const TemplateAPISpec = `{
	"openapi": "3.1.0",
	"info": {
		"title": "FastAPI Template",
		"description": "Next.js + FastAPI template with Redis and Supabase",
		"version": "1.0.0"
	},
	"paths": {
		"/": {
			"get": {
				"summary": "Root",
				"description": "Root endpoint - API information",
				"operationId": "root__get",
				"responses": {"200": {"description": "Successful Response"}}
			}
		},
		"/health": {
			"get": {
				"summary": "Health Check",
				"operationId": "health_check_health_get",
				"responses": {"200": {"description": "Successful Response"}}
			}
		},
		"/redis/test": {
			"get": {
				"summary": "Test Redis Connection",
				"operationId": "test_redis_connection_redis_test_get",
				"responses": {"200": {"description": "Successful Response"}}
			}
		},
		"/redis/cache/{key}": {
			"get": {
				"summary": "Get Cache",
				"operationId": "get_cache_redis_cache__key__get",
				"parameters": [
					{"name": "key", "in": "path", "required": true, "schema": {"type": "string", "title": "Key"}}
				],
				"responses": {
					"200": {"description": "Successful Response"},
					"422": {"description": "Validation Error"}
				}
			},
			"post": {
				"summary": "Set Cache",
				"operationId": "set_cache_redis_cache__key__post",
				"parameters": [
					{"name": "key", "in": "path", "required": true, "schema": {"type": "string", "title": "Key"}},
					{"name": "value", "in": "query", "required": true, "schema": {"type": "string", "title": "Value"}},
					{"name": "ttl", "in": "query", "required": false, "description": "Time-to-live in seconds", "schema": {"type": "integer", "default": 300, "title": "Ttl"}}
				],
				"responses": {
					"200": {"description": "Successful Response"},
					"422": {"description": "Validation Error"}
				}
			},
			"delete": {
				"summary": "Delete Cache",
				"operationId": "delete_cache_redis_cache__key__delete",
				"parameters": [
					{"name": "key", "in": "path", "required": true, "schema": {"type": "string", "title": "Key"}}
				],
				"responses": {
					"200": {"description": "Successful Response"},
					"422": {"description": "Validation Error"}
				}
			}
		},
		"/supabase/test": {
			"get": {
				"summary": "Test Supabase Connection",
				"operationId": "test_supabase_connection_supabase_test_get",
				"responses": {"200": {"description": "Successful Response"}}
			}
		}
	}
}`

// Canned /health bodies.
const (
	HealthyJSON  = `{"status":"healthy","redis":"connected","supabase":"connected","message":"API is running with Redis, Supabase"}`
	DegradedJSON = `{"status":"degraded","redis":"unavailable","supabase":"unavailable","message":"API is running (no services connected)"}`
)

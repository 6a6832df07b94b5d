// Package docs registers the OpenAPI 2.0 document served at /swagger.
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
        "/members/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["members"],
                "summary": "Member overview",
                "parameters": [{"$ref": "#/parameters/bioguideID"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.OfficialProfile"}},
                    "400": {"$ref": "#/responses/BadRequest"},
                    "404": {"$ref": "#/responses/NotFound"},
                    "429": {"$ref": "#/responses/TooManyRequests"},
                    "500": {"$ref": "#/responses/ServerError"}
                }
            }
        },
        "/members/{id}/full": {
            "get": {
                "produces": ["application/json"],
                "tags": ["members"],
                "summary": "Full official profile, gated for the caller's tier",
                "parameters": [
                    {"$ref": "#/parameters/bioguideID"},
                    {"type": "string", "description": "Tier set by the auth proxy", "name": "X-User-Tier", "in": "header", "enum": ["free", "premium", "institutional"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.OfficialProfile"}},
                    "400": {"$ref": "#/responses/BadRequest"},
                    "404": {"$ref": "#/responses/NotFound"},
                    "429": {"$ref": "#/responses/TooManyRequests"},
                    "500": {"$ref": "#/responses/ServerError"}
                }
            }
        },
        "/members/{id}/votes": {
            "get": {
                "produces": ["application/json"],
                "tags": ["members"],
                "summary": "Recent votes",
                "parameters": [
                    {"$ref": "#/parameters/bioguideID"},
                    {"type": "integer", "default": 20, "description": "Max votes (1-50)", "name": "limit", "in": "query"},
                    {"type": "string", "enum": ["house", "senate"], "description": "Chamber; resolved from the member when empty", "name": "chamber", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.VotesResponse"}},
                    "400": {"$ref": "#/responses/BadRequest"},
                    "429": {"$ref": "#/responses/TooManyRequests"},
                    "500": {"$ref": "#/responses/ServerError"}
                }
            }
        },
        "/members/{id}/committees": {
            "get": {
                "produces": ["application/json"],
                "tags": ["members"],
                "summary": "Committee assignments",
                "parameters": [{"$ref": "#/parameters/bioguideID"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.CommitteesResponse"}},
                    "400": {"$ref": "#/responses/BadRequest"},
                    "500": {"$ref": "#/responses/ServerError"}
                }
            }
        },
        "/members/{id}/finance": {
            "get": {
                "produces": ["application/json"],
                "tags": ["members"],
                "summary": "Campaign finance (premium)",
                "parameters": [
                    {"$ref": "#/parameters/bioguideID"},
                    {"type": "string", "description": "Candidate name; resolved from the member when empty", "name": "name", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.FinanceResult"}},
                    "400": {"$ref": "#/responses/BadRequest"},
                    "403": {"$ref": "#/responses/Forbidden"},
                    "500": {"$ref": "#/responses/ServerError"}
                }
            }
        },
        "/members/{id}/metrics": {
            "get": {
                "produces": ["application/json"],
                "tags": ["members"],
                "summary": "Metrics scorecard (premium)",
                "parameters": [{"$ref": "#/parameters/bioguideID"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Scorecard"}},
                    "400": {"$ref": "#/responses/BadRequest"},
                    "403": {"$ref": "#/responses/Forbidden"},
                    "500": {"$ref": "#/responses/ServerError"}
                }
            }
        },
        "/members/{id}/news": {
            "get": {
                "produces": ["application/json"],
                "tags": ["members"],
                "summary": "Recent news",
                "parameters": [
                    {"$ref": "#/parameters/bioguideID"},
                    {"type": "string", "description": "Official's name", "name": "name", "in": "query", "required": true},
                    {"type": "integer", "default": 5, "description": "Max articles (1-20)", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.NewsResponse"}},
                    "400": {"$ref": "#/responses/BadRequest"},
                    "500": {"$ref": "#/responses/ServerError"}
                }
            }
        },
        "/members/{id}/issues": {
            "get": {
                "produces": ["application/json"],
                "tags": ["issues"],
                "summary": "All issue reports (premium)",
                "parameters": [{"$ref": "#/parameters/bioguideID"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.IssueReportsResponse"}},
                    "400": {"$ref": "#/responses/BadRequest"},
                    "403": {"$ref": "#/responses/Forbidden"},
                    "500": {"$ref": "#/responses/ServerError"}
                }
            }
        },
        "/members/{id}/bills/search": {
            "get": {
                "produces": ["application/json"],
                "tags": ["members"],
                "summary": "Search sponsored bills (premium)",
                "parameters": [
                    {"$ref": "#/parameters/bioguideID"},
                    {"type": "string", "description": "Search text", "name": "q", "in": "query", "required": true},
                    {"type": "integer", "default": 10, "description": "Max results (1-20)", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.BillSearchResponse"}},
                    "400": {"$ref": "#/responses/BadRequest"},
                    "403": {"$ref": "#/responses/Forbidden"},
                    "500": {"$ref": "#/responses/ServerError"}
                }
            }
        },
        "/zip": {
            "get": {
                "produces": ["application/json"],
                "tags": ["lookup"],
                "summary": "Officials by zip code",
                "parameters": [{"type": "string", "description": "ZIP or ZIP+4", "name": "code", "in": "query", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.ZipLookupResult"}},
                    "400": {"$ref": "#/responses/BadRequest"},
                    "429": {"$ref": "#/responses/TooManyRequests"},
                    "502": {"description": "Both provider paths failed", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/compare": {
            "get": {
                "produces": ["application/json"],
                "tags": ["analysis"],
                "summary": "Compare two officials (premium)",
                "parameters": [
                    {"type": "string", "description": "First bioguide id", "name": "a", "in": "query", "required": true},
                    {"type": "string", "description": "Second bioguide id", "name": "b", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/engines.Comparison"}},
                    "400": {"$ref": "#/responses/BadRequest"},
                    "403": {"$ref": "#/responses/Forbidden"},
                    "500": {"$ref": "#/responses/ServerError"}
                }
            }
        },
        "/issues": {
            "get": {
                "produces": ["application/json"],
                "tags": ["issues"],
                "summary": "Issue catalogue",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.IssuesResponse"}}
                }
            }
        },
        "/issue-report": {
            "get": {
                "produces": ["application/json"],
                "tags": ["issues"],
                "summary": "One official on one issue (premium)",
                "parameters": [
                    {"type": "string", "description": "Bioguide id", "name": "official", "in": "query", "required": true},
                    {"type": "string", "description": "Issue id", "name": "issue", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/engines.IssueReport"}},
                    "400": {"$ref": "#/responses/BadRequest"},
                    "403": {"$ref": "#/responses/Forbidden"},
                    "500": {"$ref": "#/responses/ServerError"}
                }
            }
        },
        "/features": {
            "get": {
                "produces": ["application/json"],
                "tags": ["meta"],
                "summary": "Feature matrix for the caller's tier",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.FeaturesResponse"}}
                }
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["meta"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.HealthResponse"}},
                    "503": {"description": "Durable store unreachable", "schema": {"$ref": "#/definitions/handlers.HealthResponse"}}
                }
            }
        }
    },
    "parameters": {
        "bioguideID": {"type": "string", "description": "Bioguide id", "name": "id", "in": "path", "required": true}
    },
    "responses": {
        "BadRequest": {"description": "Malformed input", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
        "Forbidden": {"description": "Feature requires a higher tier", "schema": {"$ref": "#/definitions/handlers.DenialResponse"}},
        "NotFound": {"description": "Official not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
        "TooManyRequests": {"description": "Rate limit exceeded", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
        "ServerError": {"description": "Upstream or internal failure", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
    },
    "definitions": {
        "handlers.ErrorResponse": {
            "type": "object",
            "properties": {
                "request_id": {"type": "string", "example": "123e4567-e89b-12d3-a456-426614174000"},
                "code": {"type": "string", "example": "not_found"},
                "message": {"type": "string", "example": "official not found"}
            }
        },
        "handlers.DenialResponse": {
            "type": "object",
            "properties": {
                "request_id": {"type": "string"},
                "code": {"type": "string", "example": "forbidden"},
                "feature": {"type": "string", "example": "finance.summary"},
                "message": {"type": "string", "example": "This feature requires a premium subscription"}
            }
        },
        "handlers.VotesResponse": {
            "type": "object",
            "properties": {
                "bioguide_id": {"type": "string"},
                "votes": {"type": "array", "items": {"$ref": "#/definitions/domain.VoteRecord"}},
                "limited": {"type": "boolean"}
            }
        },
        "handlers.CommitteesResponse": {
            "type": "object",
            "properties": {
                "bioguide_id": {"type": "string"},
                "committees": {"type": "array", "items": {"type": "object"}}
            }
        },
        "handlers.NewsResponse": {
            "type": "object",
            "properties": {
                "bioguide_id": {"type": "string"},
                "articles": {"type": "array", "items": {"type": "object"}},
                "limited": {"type": "boolean"}
            }
        },
        "handlers.IssueReportsResponse": {
            "type": "object",
            "properties": {
                "bioguide_id": {"type": "string"},
                "reports": {"type": "array", "items": {"$ref": "#/definitions/engines.IssueReport"}}
            }
        },
        "handlers.BillSearchResponse": {
            "type": "object",
            "properties": {
                "bioguide_id": {"type": "string"},
                "query": {"type": "string"},
                "results": {"type": "array", "items": {"type": "object"}}
            }
        },
        "handlers.IssuesResponse": {
            "type": "object",
            "properties": {
                "issues": {"type": "array", "items": {"type": "object"}}
            }
        },
        "handlers.FeaturesResponse": {
            "type": "object",
            "properties": {
                "tier": {"type": "string", "example": "free"},
                "rate_limit": {
                    "type": "object",
                    "properties": {"per_minute": {"type": "integer"}, "per_day": {"type": "integer"}}
                },
                "features": {
                    "type": "array",
                    "items": {
                        "type": "object",
                        "properties": {
                            "id": {"type": "string"},
                            "label": {"type": "string"},
                            "required_tier": {"type": "string"},
                            "behavior": {"type": "string", "enum": ["open", "teaser", "hidden", "auth_required"]},
                            "accessible": {"type": "boolean"},
                            "limit": {"type": "integer"}
                        }
                    }
                }
            }
        },
        "handlers.HealthResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "example": "healthy"},
                "store": {"type": "string", "example": "ok"},
                "latency_ms": {"type": "number"},
                "time": {"type": "string"}
            }
        },
        "domain.OfficialProfile": {
            "type": "object",
            "properties": {
                "member": {"type": "object"},
                "bills": {"type": "array", "items": {"type": "object"}},
                "finance": {"$ref": "#/definitions/domain.FinanceResult"},
                "biography": {"type": "object"},
                "wikidata_facts": {"type": "object"},
                "news": {"type": "array", "items": {"type": "object"}},
                "votes": {"type": "array", "items": {"$ref": "#/definitions/domain.VoteRecord"}},
                "committees": {"type": "array", "items": {"type": "object"}},
                "scorecard": {"$ref": "#/definitions/domain.Scorecard"},
                "votes_limited": {"type": "boolean"},
                "bills_limited": {"type": "boolean"},
                "news_limited": {"type": "boolean"}
            }
        },
        "domain.VoteRecord": {
            "type": "object",
            "properties": {
                "date": {"type": "string"},
                "question": {"type": "string"},
                "result": {"type": "string"},
                "member_position": {"type": "string", "enum": ["Yea", "Nay", "Not Voting", "Present"]},
                "party_breakdown": {"type": "object"},
                "bill_number": {"type": "string"},
                "url": {"type": "string"}
            }
        },
        "domain.FinanceResult": {
            "type": "object",
            "properties": {
                "found": {"type": "boolean"},
                "candidate": {"type": "object"},
                "top_contributors": {"type": "array", "items": {"type": "object"}}
            }
        },
        "domain.Scorecard": {
            "type": "object",
            "properties": {
                "bioguide_id": {"type": "string"},
                "name": {"type": "string"},
                "chamber": {"type": "string"},
                "dimensions": {"type": "array", "items": {"type": "object"}},
                "generated_at": {"type": "string"}
            }
        },
        "domain.ZipLookupResult": {
            "type": "object",
            "properties": {
                "zip_code": {"type": "string"},
                "state": {"type": "string"},
                "city": {"type": "string"},
                "officials": {"type": "array", "items": {"type": "object"}}
            }
        },
        "engines.Comparison": {
            "type": "object",
            "properties": {
                "officials": {"type": "array", "items": {"type": "object"}},
                "shared_bills": {"type": "array", "items": {"type": "object"}},
                "voting_alignment": {"type": "integer"},
                "funding_comparison": {"type": "object"},
                "legislative_focus": {"type": "array", "items": {"type": "object"}}
            }
        },
        "engines.IssueReport": {
            "type": "object",
            "properties": {
                "issue_id": {"type": "string"},
                "label": {"type": "string"},
                "official_name": {"type": "string"},
                "related_bills": {"type": "array", "items": {"type": "object"}},
                "related_votes": {"type": "array", "items": {"$ref": "#/definitions/domain.VoteRecord"}},
                "summary": {"type": "object"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Civics API",
	Description:      "Aggregated public data on US federal legislators, gated by subscription tier.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

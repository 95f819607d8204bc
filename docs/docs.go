// Package docs registers the OpenAPI document served under /swagger. It is
// maintained by hand alongside the handler annotations; keep the two in step
// when a route changes.
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
        "/expenses": {
            "post": {
                "description": "Log an expense from a split instruction such as \"@john=60% @sarah paid:@mike\". Mentions take an equal share, a percentage (N%), shares (Nx) or a fixed amount; an instruction without mentions splits equally between the group's active members.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["expenses"],
                "summary": "Log an expense",
                "parameters": [
                    {"type": "integer", "description": "Acting user", "name": "X-User-ID", "in": "header", "required": true},
                    {"description": "Expense creation request", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/expense.CreateExpenseRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/response.APIResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.APIResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/response.APIResponse"}}
                }
            }
        },
        "/expenses/preview": {
            "post": {
                "description": "Parse a split instruction and show each participant's share without recording anything",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["expenses"],
                "summary": "Preview an expense split",
                "parameters": [
                    {"type": "integer", "description": "Acting user", "name": "X-User-ID", "in": "header", "required": true},
                    {"description": "Expense to preview", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/expense.CreateExpenseRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.APIResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.APIResponse"}}
                }
            }
        },
        "/expenses/group/{groupId}": {
            "get": {
                "description": "Get a paginated list of expenses for a group, newest first. Group 0 is the acting user's personal ledger",
                "produces": ["application/json"],
                "tags": ["expenses"],
                "summary": "List group expenses",
                "parameters": [
                    {"type": "integer", "description": "Acting user", "name": "X-User-ID", "in": "header", "required": true},
                    {"type": "integer", "description": "Group ID", "name": "groupId", "in": "path", "required": true},
                    {"type": "string", "description": "Only expenses tagged with this trip", "name": "trip", "in": "query"},
                    {"type": "boolean", "description": "Include soft-deleted expenses", "name": "include_deleted", "in": "query"},
                    {"type": "integer", "default": 1, "description": "Page number", "name": "page", "in": "query"},
                    {"type": "integer", "default": 20, "description": "Items per page", "name": "per_page", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.APIResponse"}}
                }
            }
        },
        "/expenses/{id}": {
            "get": {
                "description": "Get an expense with all its splits",
                "produces": ["application/json"],
                "tags": ["expenses"],
                "summary": "Get expense by ID",
                "parameters": [
                    {"type": "integer", "description": "Acting user", "name": "X-User-ID", "in": "header", "required": true},
                    {"type": "integer", "description": "Expense ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.APIResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.APIResponse"}}
                }
            },
            "delete": {
                "description": "Soft-delete an expense (only the payer). It stays listable with include_deleted and stops counting toward balances",
                "produces": ["application/json"],
                "tags": ["expenses"],
                "summary": "Delete an expense",
                "parameters": [
                    {"type": "integer", "description": "Acting user", "name": "X-User-ID", "in": "header", "required": true},
                    {"type": "integer", "description": "Expense ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.APIResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/response.APIResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.APIResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/response.APIResponse"}}
                }
            }
        },
        "/groups": {
            "get": {
                "description": "Get the groups the acting user is an active member of",
                "produces": ["application/json"],
                "tags": ["groups"],
                "summary": "List my groups",
                "parameters": [
                    {"type": "integer", "description": "Acting user", "name": "X-User-ID", "in": "header", "required": true},
                    {"type": "integer", "default": 1, "description": "Page number", "name": "page", "in": "query"},
                    {"type": "integer", "default": 20, "description": "Items per page", "name": "per_page", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.APIResponse"}}
                }
            },
            "post": {
                "description": "Create a group; the acting user joins it as admin",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["groups"],
                "summary": "Create a new group",
                "parameters": [
                    {"type": "integer", "description": "Acting user", "name": "X-User-ID", "in": "header", "required": true},
                    {"description": "Group creation request", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/group.CreateGroupRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/response.APIResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.APIResponse"}}
                }
            }
        },
        "/groups/{id}": {
            "get": {
                "description": "Get a group with all its members",
                "produces": ["application/json"],
                "tags": ["groups"],
                "summary": "Get group by ID",
                "parameters": [
                    {"type": "integer", "description": "Acting user", "name": "X-User-ID", "in": "header", "required": true},
                    {"type": "integer", "description": "Group ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.APIResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.APIResponse"}}
                }
            }
        },
        "/groups/{id}/members": {
            "post": {
                "description": "Add a user to a group, or bring back a member who left",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["groups"],
                "summary": "Add member to group",
                "parameters": [
                    {"type": "integer", "description": "Acting user", "name": "X-User-ID", "in": "header", "required": true},
                    {"type": "integer", "description": "Group ID", "name": "id", "in": "path", "required": true},
                    {"description": "Member to add", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/group.AddMemberRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/response.APIResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/response.APIResponse"}}
                }
            }
        },
        "/groups/{id}/members/{userId}": {
            "delete": {
                "description": "Mark a member as left. Their expenses and balances stay on the ledger",
                "produces": ["application/json"],
                "tags": ["groups"],
                "summary": "Remove member from group",
                "parameters": [
                    {"type": "integer", "description": "Acting user", "name": "X-User-ID", "in": "header", "required": true},
                    {"type": "integer", "description": "Group ID", "name": "id", "in": "path", "required": true},
                    {"type": "integer", "description": "User ID", "name": "userId", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.APIResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/response.APIResponse"}}
                }
            }
        },
        "/settlements": {
            "post": {
                "description": "Record a payment from one user to another. Settlements cannot be edited; record one in the other direction to correct a mistake. Without an amount the payer's whole debt to the receiver is settled",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["settlements"],
                "summary": "Record a settlement",
                "parameters": [
                    {"type": "integer", "description": "Acting user", "name": "X-User-ID", "in": "header", "required": true},
                    {"description": "Settlement", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/settlement.RecordSettlementRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/response.APIResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.APIResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/response.APIResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/response.APIResponse"}}
                }
            }
        },
        "/settlements/group/{groupId}": {
            "get": {
                "description": "Get a paginated list of the settlements recorded in a group, newest first",
                "produces": ["application/json"],
                "tags": ["settlements"],
                "summary": "List settlements",
                "parameters": [
                    {"type": "integer", "description": "Acting user", "name": "X-User-ID", "in": "header", "required": true},
                    {"type": "integer", "description": "Group ID (0 for the personal ledger)", "name": "groupId", "in": "path", "required": true},
                    {"type": "string", "description": "Only settlements tagged with this trip", "name": "trip", "in": "query"},
                    {"type": "integer", "default": 1, "description": "Page number", "name": "page", "in": "query"},
                    {"type": "integer", "default": 20, "description": "Items per page", "name": "per_page", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.APIResponse"}}
                }
            }
        },
        "/settlements/group/{groupId}/balances": {
            "get": {
                "description": "Who owes whom in a group, or in one trip of it, with every member's net position",
                "produces": ["application/json"],
                "tags": ["balances"],
                "summary": "Get balances",
                "parameters": [
                    {"type": "integer", "description": "Acting user", "name": "X-User-ID", "in": "header", "required": true},
                    {"type": "integer", "description": "Group ID (0 for the personal ledger)", "name": "groupId", "in": "path", "required": true},
                    {"type": "string", "description": "Limit to one trip", "name": "trip", "in": "query"},
                    {"type": "string", "description": "Personal ledger currency", "name": "currency", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.APIResponse"}}
                }
            }
        },
        "/settlements/group/{groupId}/balances/{userId}": {
            "get": {
                "description": "The net balance between the acting user and another user, e.g. \"You owe john 50.00 SAR\"",
                "produces": ["application/json"],
                "tags": ["balances"],
                "summary": "Get balance with a user",
                "parameters": [
                    {"type": "integer", "description": "Acting user", "name": "X-User-ID", "in": "header", "required": true},
                    {"type": "integer", "description": "Group ID (0 for the personal ledger)", "name": "groupId", "in": "path", "required": true},
                    {"type": "integer", "description": "Other user ID", "name": "userId", "in": "path", "required": true},
                    {"type": "string", "description": "Limit to one trip", "name": "trip", "in": "query"},
                    {"type": "string", "description": "Personal ledger currency", "name": "currency", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.APIResponse"}}
                }
            }
        },
        "/settlements/group/{groupId}/plan": {
            "get": {
                "description": "The fewest payments that clear every balance. The plan may have people pay someone they never shared an expense with, so it is tagged \"optimized_settlement\". On the personal ledger (group 0) it lists the caller's own debts and credits, one payment per person, tagged \"direct_settlement\"",
                "produces": ["application/json"],
                "tags": ["balances"],
                "summary": "Get the optimized settlement plan",
                "parameters": [
                    {"type": "integer", "description": "Acting user", "name": "X-User-ID", "in": "header", "required": true},
                    {"type": "integer", "description": "Group ID (0 for the personal ledger)", "name": "groupId", "in": "path", "required": true},
                    {"type": "string", "description": "Limit to one trip", "name": "trip", "in": "query"},
                    {"type": "string", "description": "Personal ledger currency", "name": "currency", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.APIResponse"}}
                }
            }
        },
        "/settlements/group/{groupId}/trips/{trip}/summary": {
            "get": {
                "description": "What everyone paid and consumed during a trip, the balances it left and the plan that clears them",
                "produces": ["application/json"],
                "tags": ["balances"],
                "summary": "Get a trip summary",
                "parameters": [
                    {"type": "integer", "description": "Acting user", "name": "X-User-ID", "in": "header", "required": true},
                    {"type": "integer", "description": "Group ID (0 for the personal ledger)", "name": "groupId", "in": "path", "required": true},
                    {"type": "string", "description": "Trip tag", "name": "trip", "in": "path", "required": true},
                    {"type": "string", "description": "Personal ledger currency", "name": "currency", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.APIResponse"}}
                }
            }
        },
        "/users": {
            "get": {
                "description": "Get a paginated list of all users",
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "List all users",
                "parameters": [
                    {"type": "integer", "default": 1, "description": "Page number", "name": "page", "in": "query"},
                    {"type": "integer", "default": 20, "description": "Items per page", "name": "per_page", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.APIResponse"}}
                }
            },
            "post": {
                "description": "Register a new user",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Create a new user",
                "parameters": [
                    {"description": "User creation request", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/user.CreateUserRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/response.APIResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.APIResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/response.APIResponse"}}
                }
            }
        },
        "/users/{id}": {
            "get": {
                "description": "Get a single user by their ID",
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Get user by ID",
                "parameters": [
                    {"type": "integer", "description": "User ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.APIResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.APIResponse"}}
                }
            }
        }
    },
    "definitions": {
        "expense.CreateExpenseRequest": {
            "type": "object",
            "required": ["amount", "description"],
            "properties": {
                "amount": {"type": "string", "example": "90.00"},
                "currency": {"type": "string", "example": "SAR"},
                "description": {"type": "string"},
                "group_id": {"type": "integer", "description": "GroupID 0 logs to the acting user's personal ledger"},
                "split": {"type": "string", "example": "@john=60% @sarah paid:@mike"},
                "trip": {"type": "string"}
            }
        },
        "group.AddMemberRequest": {
            "type": "object",
            "required": ["user_id"],
            "properties": {
                "role": {"type": "string", "enum": ["ADMIN", "MEMBER"]},
                "user_id": {"type": "integer"}
            }
        },
        "group.CreateGroupRequest": {
            "type": "object",
            "required": ["name"],
            "properties": {
                "currency": {"type": "string", "example": "SAR"},
                "description": {"type": "string"},
                "name": {"type": "string"}
            }
        },
        "response.APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "details": {},
                "message": {"type": "string"}
            }
        },
        "response.APIResponse": {
            "type": "object",
            "properties": {
                "data": {},
                "error": {"$ref": "#/definitions/response.APIError"},
                "meta": {"$ref": "#/definitions/response.Meta"},
                "success": {"type": "boolean"}
            }
        },
        "response.Meta": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "per_page": {"type": "integer"},
                "total": {"type": "integer"},
                "total_pages": {"type": "integer"}
            }
        },
        "settlement.RecordSettlementRequest": {
            "type": "object",
            "required": ["to_user_id"],
            "properties": {
                "amount": {"type": "string", "example": "12.50"},
                "currency": {"type": "string"},
                "from_user_id": {"type": "integer"},
                "group_id": {"type": "integer", "description": "GroupID 0 records on the personal ledger"},
                "note": {"type": "string"},
                "to_user_id": {"type": "integer"},
                "trip": {"type": "string"}
            }
        },
        "user.CreateUserRequest": {
            "type": "object",
            "required": ["email", "username"],
            "properties": {
                "avatar_url": {"type": "string"},
                "email": {"type": "string"},
                "username": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Split Ledger API",
	Description:      "Group expense ledger: log shared expenses, see who owes whom and get the fewest payments that settle up.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

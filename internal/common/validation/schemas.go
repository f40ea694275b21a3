package validation

// StructuredOperation constrains generated store operations.
var StructuredOperation = MustCompile("structured-operation", `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["operation"],
  "properties": {
    "operation": {"enum": ["FIND", "FIND_ONE", "COUNT", "AGGREGATE"]},
    "limit": {"type": "integer", "minimum": 1},
    "skip": {"type": "integer", "minimum": 0},
    "filters": {"type": ["object", "null"]},
    "fields": {"type": ["array", "null"], "items": {"type": "string", "minLength": 1}},
    "sort": {
      "type": ["object", "null"],
      "additionalProperties": {"enum": [1, -1, "asc", "desc", "ascending", "descending"]}
    },
    "aggregate": {
      "type": ["array", "null"],
      "items": {"type": "object", "minProperties": 1, "maxProperties": 1}
    }
  },
  "allOf": [
    {
      "if": {"properties": {"operation": {"const": "AGGREGATE"}}},
      "then": {"required": ["aggregate"], "properties": {"aggregate": {"type": "array", "minItems": 1}}}
    }
  ]
}`)

// CouponCampaign constrains interpreted coupon campaigns.
var CouponCampaign = MustCompile("coupon-campaign", `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["amount", "target"],
  "properties": {
    "amount": {"type": "number", "exclusiveMinimum": 0},
    "target": {"enum": ["NEW_CUSTOMERS", "TOTAL_SPENT_MIN"]},
    "minPurchase": {"type": ["number", "null"]}
  },
  "allOf": [
    {
      "if": {"properties": {"target": {"const": "TOTAL_SPENT_MIN"}}},
      "then": {"required": ["minPurchase"], "properties": {"minPurchase": {"type": "number", "exclusiveMinimum": 0}}}
    }
  ]
}`)

// PromptInput constrains the body of the prompt-taking endpoints.
var PromptInput = MustCompile("prompt-input", `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["prompt"],
  "properties": {
    "prompt": {"type": "string", "minLength": 1, "maxLength": 4000},
    "conversationId": {"type": "string", "maxLength": 128}
  }
}`)

// Registration constrains new account sign-ups.
var Registration = MustCompile("registration", `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["firstName", "lastName", "email", "password"],
  "properties": {
    "firstName": {"type": "string", "minLength": 1, "maxLength": 30},
    "lastName": {"type": "string", "minLength": 1, "maxLength": 30},
    "email": {"type": "string", "pattern": "^[^\\s@]+@[^\\s@]+\\.[^\\s@]+$"},
    "password": {"type": "string", "minLength": 8},
    "phoneNumber": {"type": "string", "pattern": "^(\\+?\\d{10,15})?$"}
  }
}`)

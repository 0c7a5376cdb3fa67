package service

import "dojoflow_backend/platform/schema"

var conditionsSchema = schema.MustCompile("conditions", `{
  "type": "object",
  "properties": {
    "status": {
      "type": ["string", "null"],
      "enum": ["new", "contacted", "tour_booked", "tour_completed", "enrolled", "lost", "", null]
    },
    "lead_path": {
      "type": "array",
      "items": {"type": "string", "minLength": 1, "maxLength": 40},
      "maxItems": 20
    }
  },
  "additionalProperties": false
}`)

var actionsSchema = schema.MustCompile("actions", `{
  "type": "array",
  "minItems": 1,
  "maxItems": 20,
  "items": {
    "type": "object",
    "required": ["type"],
    "properties": {
      "type": {"enum": ["send_email", "send_sms", "create_task"]},
      "message": {"type": ["string", "null"], "maxLength": 4000},
      "template": {"type": ["string", "null"], "maxLength": 120},
      "title": {"type": ["string", "null"], "maxLength": 200},
      "taskType": {"enum": ["call", "email", "text", "review", "other", null]}
    },
    "additionalProperties": false
  }
}`)

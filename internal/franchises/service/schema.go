package service

import "dojoflow_backend/platform/schema"

var settingsSchema = schema.MustCompile("settings", `{
  "type": "object",
  "properties": {
    "timezone": {"type": "string", "minLength": 1},
    "operating_hours": {
      "type": "object",
      "propertyNames": {"enum": ["Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"]},
      "additionalProperties": {
        "oneOf": [
          {"type": "null"},
          {
            "type": "object",
            "properties": {
              "open": {"type": "string", "pattern": "^([01][0-9]|2[0-3]):[0-5][0-9]$"},
              "close": {"type": "string", "pattern": "^([01][0-9]|2[0-4]):[0-5][0-9]$"}
            },
            "required": ["open", "close"],
            "additionalProperties": false
          }
        ]
      }
    }
  }
}`)

package wire

// PayloadSchema is the JSON schema an inbound structured payload must match
// before its fields are trusted for rendering. A payload that fails this
// schema is demoted to plain text, never rejected.
const PayloadSchema = `{
  "type": "object",
  "properties": {
    "title": {"type": "string"},
    "body": {"type": "string"},
    "url": {"type": "string"},
    "tag": {"type": "string"},
    "notificationId": {"type": "string"},
    "urgent": {"type": "boolean"},
    "data": {
      "type": "object",
      "properties": {
        "targetUserId": {"type": "string"}
      }
    }
  }
}`

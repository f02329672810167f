package mcpserver

// StorageKeysDoc documents the persisted keys and the JSON shape stored under
// each. Clients that read the backend directly must follow it.
const StorageKeysDoc = `# Huddle Storage Keys

Every value is a JSON document stored as a string under a fixed key.

| Key | Shape |
|---|---|
| ` + "`SAVED_EVENTS_V1`" + ` | array of SavedEvent, newest first |
| ` + "`RSVPED_EVENTS_V1`" + ` | array of SavedEvent, newest first |
| ` + "`EVENT_NOTES_V1`" + ` | object: event id -> note text |
| ` + "`EVENT_NOTES_LIST_V1`" + ` | object: event id -> array of FriendNote, newest first |

## SavedEvent

` + "```" + `json
{"id": "evt-42", "title": "Spring Career Fair", "subtitle": "Tue 10:00", "location": "Student Union", "image": "https://..."}
` + "```" + `

Only ` + "`id`" + ` is required and it is the identity. The other fields are a display
cache captured when the event was saved and are never refreshed. An id appears at
most once per collection. The same event may be in both collections.

## FriendNote

` + "```" + `json
{"id": "0b6f...", "author": "Maya", "avatar": "https://...", "text": "Saving you a seat"}
` + "```" + `

## Rules

1. A missing key reads as an empty collection or map.
2. A value that is not valid JSON of the expected shape reads as empty; the next
   write replaces it.
3. Writers rewrite the whole value. There is no partial update.
4. A personal note that is blank after trimming is removed, not stored.
`

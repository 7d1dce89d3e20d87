/*
Package types defines the data model shared across apiprobe.

# Request Types

Request:
  - Editable description of an HTTP call
  - Method from a fixed enumeration (GET, POST, PUT, DELETE, PATCH, HEAD, OPTIONS)
  - URL template with {{variable}} placeholders
  - Ordered headers, each with an enabled flag
  - Optional body (raw, formdata, urlencoded)

Collection:
  - Named, ordered group of requests
  - Optional string variables and auth descriptor

Environment:
  - Flat key/value mapping used for {{placeholder}} substitution

# Response Types

Response:
  - Status, status text, headers, body
  - Duration in milliseconds and size of the raw payload
  - Status 0 with "Network Error" marks a transport failure

HistoryEntry:
  - Snapshot of a request with its response and a timestamp

# Method and Body

The method only advises whether a body is meaningful. The executor attaches a
payload for POST, PUT and PATCH; see Method.AllowsBody.

# Field Tags

All types use JSON and YAML tags. The omitempty tag keeps optional fields out
of serialized output.
*/
package types

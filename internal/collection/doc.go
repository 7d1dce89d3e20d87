/*
Package collection stores request collections in memory and converts them to
and from the Postman v2.1 interchange format.

# Import

Import is atomic: the document is checked for JSON syntax, validated against
an embedded JSON schema (info.name must be a string), decoded and flattened.
Any failure returns an error wrapping ErrInvalidCollection and nothing is
stored. Folders are flattened depth first in document order. A missing method
means GET, a missing name becomes "METHOD URL", and every collection and
request gets a fresh ID.

# Export

Export writes info, a flat item list, variables and auth. Each url is
emitted as both raw and its split form (protocol, host, port, path, query).
Importing an export yields the same names, methods, URLs, headers and
bodies; only IDs change.
*/
package collection

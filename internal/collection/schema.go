package collection

import (
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// collectionSchema is the subset of the Postman v2.1 schema that Import relies
// on. Types are pinned so the typed decode that follows cannot fail.
const collectionSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["info"],
  "properties": {
    "info": {
      "type": "object",
      "required": ["name"],
      "properties": {
        "name": {"type": "string"},
        "description": {"type": ["string", "object", "null"]},
        "schema": {"type": "string"}
      }
    },
    "item": {"type": "array", "items": {"$ref": "#/definitions/item"}},
    "variable": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {"key": {"type": "string"}}
      }
    },
    "auth": {"$ref": "#/definitions/auth"}
  },
  "definitions": {
    "item": {
      "type": "object",
      "properties": {
        "name": {"type": "string"},
        "item": {"type": "array", "items": {"$ref": "#/definitions/item"}},
        "request": {"$ref": "#/definitions/request"}
      }
    },
    "request": {
      "type": ["object", "string"],
      "properties": {
        "method": {"type": "string"},
        "url": {"$ref": "#/definitions/url"},
        "header": {
          "type": "array",
          "items": {
            "type": "object",
            "properties": {
              "key": {"type": "string"},
              "value": {"type": "string"},
              "disabled": {"type": "boolean"}
            }
          }
        },
        "body": {"$ref": "#/definitions/body"}
      }
    },
    "url": {
      "type": ["string", "object"],
      "properties": {
        "raw": {"type": "string"},
        "protocol": {"type": "string"},
        "host": {"type": ["array", "string"]},
        "port": {"type": "string"},
        "path": {"type": ["array", "string"]},
        "query": {
          "type": "array",
          "items": {
            "type": "object",
            "properties": {
              "key": {"type": ["string", "null"]},
              "value": {"type": ["string", "null"]},
              "disabled": {"type": "boolean"}
            }
          }
        }
      }
    },
    "body": {
      "type": ["object", "null"],
      "properties": {
        "mode": {"type": "string"},
        "raw": {"type": "string"},
        "formdata": {"$ref": "#/definitions/keyPairs"},
        "urlencoded": {"$ref": "#/definitions/keyPairs"}
      }
    },
    "keyPairs": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "key": {"type": "string"},
          "value": {"type": ["string", "null"]},
          "type": {"type": "string"},
          "disabled": {"type": "boolean"}
        }
      }
    },
    "auth": {
      "type": ["object", "null"],
      "properties": {
        "type": {"type": "string"}
      }
    }
  }
}`

var (
	schemaOnce sync.Once
	schema     *gojsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(collectionSchema))
	})
	return schema, schemaErr
}

// validate checks data against the collection schema and returns one
// readable message per violation
func validate(data []byte) ([]string, error) {
	s, err := compiledSchema()
	if err != nil {
		return nil, fmt.Errorf("failed to compile collection schema: %w", err)
	}

	result, err := s.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, err
	}
	if result.Valid() {
		return nil, nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		field := e.Field()
		if field == "(root)" {
			problems = append(problems, e.Description())
			continue
		}
		problems = append(problems, fmt.Sprintf("%s: %s", strings.TrimPrefix(field, "(root)."), e.Description()))
	}
	return problems, nil
}

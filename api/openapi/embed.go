// Package openapi holds the HTTP API description.
package openapi

import _ "embed"

// Spec is the OpenAPI 3 document for the askdev API.
//
//go:embed openapi.yaml
var Spec []byte

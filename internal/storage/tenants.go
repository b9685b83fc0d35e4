package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/Mayank7Bisnewar/Tenant/internal/models"
)

// TenantsVersion is the schema version written by EncodeTenants.
//
// Version 1 is the legacy bare JSON array whose records have no status.
// Version 2 wraps the array in {"version": 2, "tenants": [...]}.
const TenantsVersion = 2

// ErrInvalidDocument is returned when a stored tenant document fails schema validation.
var ErrInvalidDocument = errors.New("invalid tenant document")

const tenantsSchemaJSON = `{
  "type": "object",
  "required": ["version", "tenants"],
  "properties": {
    "version": {"type": "integer", "minimum": 1},
    "tenants": {"type": "array", "items": {"$ref": "#/definitions/tenant"}}
  },
  "definitions": {
    "tenant": {
      "type": "object",
      "required": ["id"],
      "properties": {
        "id": {"type": "string", "minLength": 1},
        "name": {"type": "string"},
        "monthlyRent": {"type": "number"},
        "waterBill": {"type": "number"},
        "status": {"enum": ["active", "deleted", ""]},
        "paymentHistory": {
          "type": ["array", "null"],
          "items": {
            "type": "object",
            "required": ["id"],
            "properties": {
              "id": {"type": "string"},
              "billingMonth": {"type": "string"},
              "amount": {"type": "number"},
              "electricityUnits": {"type": "number"}
            }
          }
        }
      }
    }
  }
}`

var tenantsSchema = mustSchema(tenantsSchemaJSON)

func mustSchema(src string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("storage: invalid tenants schema: %v", err))
	}
	return schema
}

type tenantsEnvelope struct {
	Version int             `json:"version"`
	Tenants []models.Tenant `json:"tenants"`
}

// EncodeTenants writes the collection in the current schema version.
func EncodeTenants(tenants []models.Tenant) ([]byte, error) {
	if tenants == nil {
		tenants = []models.Tenant{}
	}
	return json.Marshal(tenantsEnvelope{Version: TenantsVersion, Tenants: tenants})
}

// DecodeTenants validates and upgrades a stored tenant collection of any known version.
func DecodeTenants(raw []byte) ([]models.Tenant, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrInvalidDocument)
	}

	// Legacy documents are bare arrays; wrap them so one schema covers both.
	if trimmed[0] == '[' {
		wrapped := make([]byte, 0, len(trimmed)+32)
		wrapped = append(wrapped, `{"version":1,"tenants":`...)
		wrapped = append(wrapped, trimmed...)
		wrapped = append(wrapped, '}')
		trimmed = wrapped
	}

	result, err := tenantsSchema.Validate(gojsonschema.NewBytesLoader(trimmed))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			details = append(details, e.String())
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidDocument, strings.Join(details, "; "))
	}

	var env tenantsEnvelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if env.Version > TenantsVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidDocument, env.Version)
	}

	return upgradeTenants(env.Version, env.Tenants), nil
}

// upgradeTenants applies each version step in order.
func upgradeTenants(version int, tenants []models.Tenant) []models.Tenant {
	if tenants == nil {
		tenants = []models.Tenant{}
	}
	if version < 2 {
		// v1 -> v2: records written before soft delete carry no status.
		for i := range tenants {
			if tenants[i].Status == "" {
				tenants[i].Status = models.StatusActive
			}
		}
	}
	for i := range tenants {
		tenants[i].Normalize()
	}
	return tenants
}

// TenantsCodec is the slot codec for the tenant collection.
func TenantsCodec() Codec[[]models.Tenant] {
	return Codec[[]models.Tenant]{
		Encode: EncodeTenants,
		Decode: DecodeTenants,
	}
}

// NewTenantsSlot returns the slot holding the local tenant collection.
func NewTenantsSlot(store Store, logger *slog.Logger) *Slot[[]models.Tenant] {
	return NewSlot(store, KeyTenants, func() []models.Tenant { return []models.Tenant{} }, TenantsCodec(), logger)
}

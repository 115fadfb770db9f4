package catalog

import "github.com/xraph/catalog/id"

// ID is the primary identifier type for all Catalog entities.
type ID = id.ID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix

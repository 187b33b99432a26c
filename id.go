package bequest

import "github.com/venu630/bequest/id"

// ID is the primary identifier type for all bequest entities.
type ID = id.ID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix

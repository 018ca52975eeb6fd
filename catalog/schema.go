package catalog

import (
	"ordnance/internal/bonus"
	"ordnance/internal/weapon"
)

// FileDocument models config/weapons/definitions.json. It is shared with the
// schema generator so editors can validate authored catalogs. The loader also
// accepts a bare array of weapons or an object keyed by weapon name.
type FileDocument struct {
	GlobalBonuses []bonus.Declaration `json:"globalBonuses,omitempty" jsonschema:"description=Bonus layer shared by every weapon"`
	Weapons       []weapon.Template   `json:"weapons" jsonschema:"description=Base weapon definitions; later files replace earlier ones of the same name"`
	Overrides     []weapon.Template   `json:"overrides,omitempty" jsonschema:"description=Partial entries patched onto the named weapon in file order"`
}

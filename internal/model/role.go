package model

import "strings"

// Role is the closed set of roles granted by the identity provider.
type Role string

const (
	RoleAdministrator Role = "ADMINISTRATOR"
	RolePurchasing    Role = "COMPRAS"
	RoleSales         Role = "VENDAS"
	RolePublic        Role = "PUBLIC"
)

// Capabilities is what a role may see and change.
type Capabilities struct {
	CanViewStock     bool `json:"can_view_stock"`
	CanMutateStock   bool `json:"can_mutate_stock"`
	CanViewSamples   bool `json:"can_view_samples"`
	CanMutateSamples bool `json:"can_mutate_samples"`
	IsAdmin          bool `json:"is_admin"`
}

var capabilityTable = map[Role]Capabilities{
	RoleAdministrator: {CanViewStock: true, CanMutateStock: true, CanViewSamples: true, CanMutateSamples: true, IsAdmin: true},
	RolePurchasing:    {CanViewStock: true, CanMutateStock: true},
	RoleSales:         {CanViewSamples: true, CanMutateSamples: true},
	RolePublic:        {},
}

// ParseRole maps a provider role name onto the enum. Unknown names get PUBLIC.
func ParseRole(name string) Role {
	r := Role(strings.ToUpper(strings.TrimSpace(name)))
	if _, ok := capabilityTable[r]; ok {
		return r
	}
	return RolePublic
}

func (r Role) Capabilities() Capabilities {
	return capabilityTable[ParseRole(string(r))]
}

func (r Role) String() string { return string(r) }

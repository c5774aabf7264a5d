package entity

// Roles válidos en los tokens de acceso.
const (
	RoleAdmin      = "admin"
	RoleFacturador = "facturador" // emite, reporta y autoriza facturas
	RoleAuditor    = "auditor"    // solo lectura
)

// ValidRole indica si el rol es uno de los conocidos.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleFacturador, RoleAuditor:
		return true
	}
	return false
}

package engine

// CanSetPrice reports whether the actor may set or change a site supply's
// price.
func CanSetPrice(a Actor) bool {
	return a.Role == RoleAdmin
}

// CanEditDetails reports whether the actor may edit the name, quantity or
// unit of a site supply.
func CanEditDetails(a Actor) bool {
	return a.Role == RoleSiteSupervisor
}

// CanCreateSiteSupply reports whether the actor may add supplies to a site.
func CanCreateSiteSupply(a Actor) bool {
	return a.Role == RoleSiteSupervisor || a.Role == RoleAdmin
}

// CanSetCurrentPrice reports whether the actor may refresh a warehouse
// entry's market price.
func CanSetCurrentPrice(a Actor) bool {
	return a.Role == RoleWarehouseManager || a.Role == RoleAdmin
}

// CanRequestSupplies reports whether the actor may ask a warehouse for stock.
func CanRequestSupplies(a Actor) bool {
	return a.Role == RoleSiteSupervisor || a.Role == RoleAdmin
}

// CanResolveTransfer reports whether the actor may approve or reject a
// supply request.
func CanResolveTransfer(a Actor) bool {
	return a.Role == RoleWarehouseManager
}

// CanImport reports whether the actor may import stock into the scope.
func CanImport(a Actor, scope Scope) bool {
	switch scope {
	case ScopeSite:
		return a.Role == RoleSiteSupervisor || a.Role == RoleAdmin
	case ScopeWarehouse:
		return a.Role == RoleWarehouseManager || a.Role == RoleAdmin
	}
	return false
}

package tenants

// Repo resolves tenant identifiers. Implementations must be safe for
// concurrent reads.
type Repo interface {
	Get(name string) (*Tenant, error)
	List() []*Tenant
}

package tools

// ScopeLookup reports whether a tool reads data of a specific customer.
type ScopeLookup interface {
	IsCustomerScoped(name string) bool
}

// Binder injects the authenticated customer into customer-scoped tool calls.
// The model never chooses whose data is read: a customer_id it supplies is
// overwritten.
type Binder struct {
	customerID int64
	scope      ScopeLookup
}

func NewBinder(customerID int64, scope ScopeLookup) *Binder {
	return &Binder{customerID: customerID, scope: scope}
}

func (b *Binder) CustomerID() int64 {
	return b.customerID
}

// Bind returns a copy of args; the input map is never modified.
func (b *Binder) Bind(toolName string, args map[string]any) map[string]any {
	out := make(map[string]any, len(args)+1)
	for k, v := range args {
		out[k] = v
	}
	if b.scope != nil && b.scope.IsCustomerScoped(toolName) {
		out[CustomerIDParam] = b.customerID
	}
	return out
}

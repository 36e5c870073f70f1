package fundamentals

// Calculator fills derived metrics into a record. Metrics are visited
// in the registry's dependency order, so a derived metric always sees
// its inputs resolved first.
type Calculator struct {
	reg *Registry
}

// NewCalculator returns a calculator over the given registry.
func NewCalculator(reg *Registry) *Calculator {
	return &Calculator{reg: reg}
}

// Apply derives every computable metric that is still unknown. A value
// already present, whether extracted or previously derived, is never
// overwritten, which makes Apply idempotent: running it twice on the
// same record yields the same record.
func (c *Calculator) Apply(m *Metrics) {
	get := func(name string) Value { return m.Get(name) }
	for _, name := range c.reg.order {
		if m.Get(name).Valid {
			continue
		}
		src := c.reg.sources[name]
		if src.Compute == nil {
			continue
		}
		if v := src.Compute(get); v.Valid {
			m.Set(name, v)
		}
	}
}

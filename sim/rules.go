package sim

// LocationRule is a sparse update of a location's rule-controlled fields.
// Every field is an Override: absent leaves the field alone, the YAML literal
// "default" restores the location's init-state value.
type LocationRule struct {
	ContactRate     Override[ContactRate] `yaml:"contact_rate,omitempty"`
	VisitorTime     Override[TimeWindow]  `yaml:"visitor_time,omitempty"`
	VisitorCapacity Override[int]         `yaml:"visitor_capacity,omitempty"`
	OpenTime        Override[TimeWindow]  `yaml:"open_time,omitempty"`
	Lock            Override[bool]        `yaml:"lock,omitempty"`
}

// DefaultLocationRule restores every rule-controlled field to its init value.
func DefaultLocationRule() LocationRule {
	return LocationRule{
		ContactRate:     ResetToDefault[ContactRate](),
		VisitorTime:     ResetToDefault[TimeWindow](),
		VisitorCapacity: ResetToDefault[int](),
		OpenTime:        ResetToDefault[TimeWindow](),
		Lock:            ResetToDefault[bool](),
	}
}

// LockRule is shorthand for a rule touching only the lock flag.
func LockRule(lock bool) LocationRule {
	return LocationRule{Lock: Set(lock)}
}

// IsEmpty reports whether the rule changes nothing.
func (r LocationRule) IsEmpty() bool {
	return r.ContactRate.IsUnset() && r.VisitorTime.IsUnset() && r.VisitorCapacity.IsUnset() &&
		r.OpenTime.IsUnset() && r.Lock.IsUnset()
}

package filter

// Builder provides a fluent API for constructing structured filters. It
// builds plain Filter values; capability checking happens at evaluation
// time, against the engine's table, never inside the builder.
type Builder struct {
	filter *Filter
}

// NewBuilder creates a new, empty filter builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Build returns the constructed filter. A builder with no conditions
// returns nil, which matches every record.
func (b *Builder) Build() *Filter {
	return b.filter
}

// Reset clears the builder, returning it to its initial state.
func (b *Builder) Reset() *Builder {
	b.filter = nil
	return b
}

// Where begins a single filter condition for a specific field.
func (b *Builder) Where(field string) *ConditionBuilder {
	return &ConditionBuilder{parent: b, field: field}
}

// WhereGroup begins a group of conditions combined with a logical operator.
func (b *Builder) WhereGroup(operator LogicalOperator) *GroupBuilder {
	return &GroupBuilder{parent: b, operator: operator}
}

// ConditionBuilder finishes a single condition (field, operator, value).
type ConditionBuilder struct {
	parent *Builder
	field  string
}

// Eq adds an equality condition.
func (cb *ConditionBuilder) Eq(value any) *Builder {
	return cb.addCondition(OperatorEq, value)
}

// Neq adds a not-equal condition.
func (cb *ConditionBuilder) Neq(value any) *Builder {
	return cb.addCondition(OperatorNeq, value)
}

// Lt adds a less-than condition.
func (cb *ConditionBuilder) Lt(value any) *Builder {
	return cb.addCondition(OperatorLt, value)
}

// Lte adds a less-than-or-equal condition.
func (cb *ConditionBuilder) Lte(value any) *Builder {
	return cb.addCondition(OperatorLte, value)
}

// Gt adds a greater-than condition.
func (cb *ConditionBuilder) Gt(value any) *Builder {
	return cb.addCondition(OperatorGt, value)
}

// Gte adds a greater-than-or-equal condition.
func (cb *ConditionBuilder) Gte(value any) *Builder {
	return cb.addCondition(OperatorGte, value)
}

// Contains adds a substring or set-membership condition.
func (cb *ConditionBuilder) Contains(value string) *Builder {
	return cb.addCondition(OperatorContains, value)
}

// NotContains adds a negated substring condition.
func (cb *ConditionBuilder) NotContains(value string) *Builder {
	return cb.addCondition(OperatorNotContains, value)
}

// StartsWith adds a prefix condition.
func (cb *ConditionBuilder) StartsWith(value string) *Builder {
	return cb.addCondition(OperatorStartsWith, value)
}

// EndsWith adds a suffix condition.
func (cb *ConditionBuilder) EndsWith(value string) *Builder {
	return cb.addCondition(OperatorEndsWith, value)
}

// In adds a membership condition over a list of candidate strings.
func (cb *ConditionBuilder) In(values ...string) *Builder {
	return cb.addCondition(OperatorIn, values)
}

func (cb *ConditionBuilder) addCondition(operator Operator, value any) *Builder {
	cb.parent.filter = &Filter{Condition: &Condition{
		Field:    cb.field,
		Operator: operator,
		Value:    value,
	}}
	return cb.parent
}

// GroupBuilder accumulates conditions for a logical group.
type GroupBuilder struct {
	parent     *Builder
	operator   LogicalOperator
	conditions []Filter
}

// Where begins a condition inside the group.
func (gb *GroupBuilder) Where(field string) *GroupConditionBuilder {
	return &GroupConditionBuilder{group: gb, field: field}
}

// Group nests an already-built filter inside the group.
func (gb *GroupBuilder) Group(f *Filter) *GroupBuilder {
	if f != nil {
		gb.conditions = append(gb.conditions, *f)
	}
	return gb
}

// End finalizes the group and returns to the main builder.
func (gb *GroupBuilder) End() *Builder {
	gb.parent.filter = &Filter{Group: &Group{
		Operator:   gb.operator,
		Conditions: gb.conditions,
	}}
	return gb.parent
}

// GroupConditionBuilder finishes a condition inside a group.
type GroupConditionBuilder struct {
	group *GroupBuilder
	field string
}

// Eq adds an equality condition to the group.
func (gcb *GroupConditionBuilder) Eq(value any) *GroupBuilder {
	return gcb.addCondition(OperatorEq, value)
}

// Neq adds a not-equal condition to the group.
func (gcb *GroupConditionBuilder) Neq(value any) *GroupBuilder {
	return gcb.addCondition(OperatorNeq, value)
}

// Lt adds a less-than condition to the group.
func (gcb *GroupConditionBuilder) Lt(value any) *GroupBuilder {
	return gcb.addCondition(OperatorLt, value)
}

// Lte adds a less-than-or-equal condition to the group.
func (gcb *GroupConditionBuilder) Lte(value any) *GroupBuilder {
	return gcb.addCondition(OperatorLte, value)
}

// Gt adds a greater-than condition to the group.
func (gcb *GroupConditionBuilder) Gt(value any) *GroupBuilder {
	return gcb.addCondition(OperatorGt, value)
}

// Gte adds a greater-than-or-equal condition to the group.
func (gcb *GroupConditionBuilder) Gte(value any) *GroupBuilder {
	return gcb.addCondition(OperatorGte, value)
}

// Contains adds a substring or set-membership condition to the group.
func (gcb *GroupConditionBuilder) Contains(value string) *GroupBuilder {
	return gcb.addCondition(OperatorContains, value)
}

// NotContains adds a negated substring condition to the group.
func (gcb *GroupConditionBuilder) NotContains(value string) *GroupBuilder {
	return gcb.addCondition(OperatorNotContains, value)
}

// StartsWith adds a prefix condition to the group.
func (gcb *GroupConditionBuilder) StartsWith(value string) *GroupBuilder {
	return gcb.addCondition(OperatorStartsWith, value)
}

// EndsWith adds a suffix condition to the group.
func (gcb *GroupConditionBuilder) EndsWith(value string) *GroupBuilder {
	return gcb.addCondition(OperatorEndsWith, value)
}

// In adds a membership condition to the group.
func (gcb *GroupConditionBuilder) In(values ...string) *GroupBuilder {
	return gcb.addCondition(OperatorIn, values)
}

func (gcb *GroupConditionBuilder) addCondition(operator Operator, value any) *GroupBuilder {
	gcb.group.conditions = append(gcb.group.conditions, Filter{Condition: &Condition{
		Field:    gcb.field,
		Operator: operator,
		Value:    value,
	}})
	return gcb.group
}

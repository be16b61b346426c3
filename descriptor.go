package entitykit

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/uptrace/bun"
)

// Descriptor is the per-entity metadata the engine computes once at
// construction time: the table, its columns, the audit columns, the
// primary key, and the sort/filter allow-lists. It is immutable after
// construction and safe to share across concurrent operations.
type Descriptor struct {
	table string
	alias string

	columns   []string
	columnSet map[string]struct{}

	pkColumn string
	pkIndex  []int

	creatorIndex  []int // nil when the entity has no creator column
	modifierIndex []int // nil when the entity has no modifier column

	sortable   map[string]struct{}
	filterable map[string]struct{}
}

var baseModelType = reflect.TypeOf(bun.BaseModel{})

// describeEntity builds a Descriptor by reflecting over the entity's bun
// struct tags. Returns ErrConfiguration when the type is not a usable bun
// model, so misconfigured engines fail at startup instead of at call time.
func describeEntity(t reflect.Type) (*Descriptor, error) {
	if t.Kind() != reflect.Struct {
		return nil, NewError(ErrConfiguration,
			fmt.Sprintf("entity type %s is not a struct", t))
	}

	d := &Descriptor{
		columnSet:  make(map[string]struct{}),
		sortable:   make(map[string]struct{}),
		filterable: make(map[string]struct{}),
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if field.Type == baseModelType {
			d.table, d.alias = parseBaseModelTag(field.Tag.Get("bun"))
			continue
		}
		if !field.IsExported() {
			continue
		}

		tag := field.Tag.Get("bun")
		if tag == "-" {
			continue
		}

		name, opts := splitTag(tag)
		if strings.Contains(name, ":") {
			// Relation specs (rel:, m2m:, ...) are not columns.
			continue
		}
		if name == "" {
			name = underscore(field.Name)
		}

		d.columns = append(d.columns, name)
		d.columnSet[name] = struct{}{}

		if hasOption(opts, "pk") {
			d.pkColumn = name
			d.pkIndex = field.Index
		}

		switch name {
		case ColumnCreatorUserID, ColumnLastModifierUserID:
			if field.Type != reflect.TypeOf((*int64)(nil)) {
				return nil, NewError(ErrConfiguration,
					fmt.Sprintf("audit column %s on %s must be *int64, got %s", name, t, field.Type)).
					WithEntity(d.table).WithField(name)
			}
			if name == ColumnCreatorUserID {
				d.creatorIndex = field.Index
			} else {
				d.modifierIndex = field.Index
			}
		}
	}

	if d.table == "" {
		return nil, NewError(ErrConfiguration,
			fmt.Sprintf("entity type %s does not embed bun.BaseModel with a table tag", t))
	}
	if d.pkColumn == "" {
		return nil, NewError(ErrConfiguration,
			fmt.Sprintf("entity type %s declares no primary key column", t)).
			WithEntity(d.table)
	}

	// Every column is eligible for sorting and filtering unless the engine
	// is constructed with a narrower allow-list.
	for _, c := range d.columns {
		d.sortable[c] = struct{}{}
		d.filterable[c] = struct{}{}
	}

	return d, nil
}

// Table returns the entity's table name.
func (d *Descriptor) Table() string { return d.table }

// PKColumn returns the primary key column name.
func (d *Descriptor) PKColumn() string { return d.pkColumn }

// Columns returns the entity's column names in declaration order.
func (d *Descriptor) Columns() []string {
	out := make([]string, len(d.columns))
	copy(out, d.columns)
	return out
}

// HasAuditColumns reports whether the entity declares a creator or a
// last-modifier column.
func (d *Descriptor) HasAuditColumns() bool {
	return d.creatorIndex != nil || d.modifierIndex != nil
}

// Sortable returns the sort allow-list, sorted.
func (d *Descriptor) Sortable() []string { return sortedKeys(d.sortable) }

// Filterable returns the filter allow-list, sorted.
func (d *Descriptor) Filterable() []string { return sortedKeys(d.filterable) }

func (d *Descriptor) restrictSortable(cols []string) error {
	set, err := d.subset(cols)
	if err != nil {
		return err
	}
	d.sortable = set
	return nil
}

func (d *Descriptor) restrictFilterable(cols []string) error {
	set, err := d.subset(cols)
	if err != nil {
		return err
	}
	d.filterable = set
	return nil
}

func (d *Descriptor) subset(cols []string) (map[string]struct{}, error) {
	set := make(map[string]struct{}, len(cols))
	for _, c := range cols {
		if _, ok := d.columnSet[c]; !ok {
			return nil, NewError(ErrConfiguration,
				fmt.Sprintf("column %q does not exist on %s", c, d.table)).
				WithEntity(d.table).WithField(c)
		}
		set[c] = struct{}{}
	}
	return set, nil
}

// checkSortable validates every sort field against the allow-list.
func (d *Descriptor) checkSortable(sorts []SortField) error {
	for _, s := range sorts {
		if _, ok := d.sortable[s.Field]; !ok {
			return NewError(ErrInvalidQuery,
				fmt.Sprintf("field %q is not sortable on %s", s.Field, d.table)).
				WithEntity(d.table).WithField(s.Field)
		}
	}
	return nil
}

// checkFilterable validates every filter key against the allow-list. Keys are
// checked in sorted order so the reported field is deterministic.
func (d *Descriptor) checkFilterable(filters map[string]any) error {
	for _, key := range sortedKeys(filters) {
		if _, ok := d.filterable[key]; !ok {
			return NewError(ErrInvalidQuery,
				fmt.Sprintf("field %q is not filterable on %s", key, d.table)).
				WithEntity(d.table).WithField(key)
		}
	}
	return nil
}

// stampCreator writes the acting user's ID into the creator column.
// entity must be a pointer to the described struct type.
func (d *Descriptor) stampCreator(entity any, userID int64) {
	d.stamp(entity, d.creatorIndex, userID)
}

// stampModifier writes the acting user's ID into the last-modifier column.
func (d *Descriptor) stampModifier(entity any, userID int64) {
	d.stamp(entity, d.modifierIndex, userID)
}

func (d *Descriptor) stamp(entity any, index []int, userID int64) {
	id := userID
	reflect.ValueOf(entity).Elem().FieldByIndex(index).Set(reflect.ValueOf(&id))
}

func parseBaseModelTag(tag string) (table, alias string) {
	for _, part := range strings.Split(tag, ",") {
		if v, ok := strings.CutPrefix(part, "table:"); ok {
			table = v
		}
		if v, ok := strings.CutPrefix(part, "alias:"); ok {
			alias = v
		}
	}
	return table, alias
}

func splitTag(tag string) (name string, opts []string) {
	parts := strings.Split(tag, ",")
	return parts[0], parts[1:]
}

func hasOption(opts []string, want string) bool {
	for _, o := range opts {
		if o == want || strings.HasPrefix(o, want+":") {
			return true
		}
	}
	return false
}

// underscore converts a Go field name to its snake_case column name, the
// fallback when a bun tag does not name the column explicitly.
func underscore(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if r >= 'A' && r <= 'Z' {
			prevLower := i > 0 && isLower(runes[i-1])
			nextLower := i+1 < len(runes) && isLower(runes[i+1])
			if i > 0 && (prevLower || nextLower) {
				b.WriteByte('_')
			}
			b.WriteRune(r + ('a' - 'A'))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isLower(r rune) bool { return r >= 'a' && r <= 'z' }

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

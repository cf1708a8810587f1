// Package variant maps partial option selections to purchasable SKUs and
// answers which option values are still choosable given stock and the
// current selection.
package variant

import (
	"strings"

	"shopmi-api/internal/domain"
)

// IsColorAxis reports whether an option axis is the color axis. Color is
// selected through swatches and tracked separately from the other axes.
func IsColorAxis(name string) bool {
	lower := strings.ToLower(name)
	return lower == "cor" || lower == "color"
}

// Resolver answers selection queries for one product's variants.
type Resolver struct {
	variants []domain.Variant
	options  []domain.ProductOption
	colors   []string
}

// NewResolver derives the option axes of a product from its variants. The
// color axis is kept apart; axes that never contribute a value are dropped.
func NewResolver(variants []domain.Variant) *Resolver {
	r := &Resolver{variants: variants}

	seenValues := map[string]map[string]bool{}
	seenColors := map[string]bool{}
	var order []string

	for _, v := range variants {
		for _, opt := range v.SelectedOptions {
			if opt.Value == "" {
				continue
			}
			if IsColorAxis(opt.Name) {
				if !seenColors[opt.Value] {
					seenColors[opt.Value] = true
					r.colors = append(r.colors, opt.Value)
				}
				continue
			}
			if seenValues[opt.Name] == nil {
				seenValues[opt.Name] = map[string]bool{}
				order = append(order, opt.Name)
			}
			if !seenValues[opt.Name][opt.Value] {
				seenValues[opt.Name][opt.Value] = true
			}
		}
	}

	for _, name := range order {
		option := domain.ProductOption{Name: name}
		// Preserve value order of first appearance across variants.
		seen := map[string]bool{}
		for _, v := range variants {
			if value, ok := v.OptionValue(name); ok && value != "" && !seen[value] {
				seen[value] = true
				option.Values = append(option.Values, value)
			}
		}
		r.options = append(r.options, option)
	}

	return r
}

// Options returns the non-color option axes with their distinct values.
func (r *Resolver) Options() []domain.ProductOption {
	return r.options
}

// Colors returns the distinct color values in order of first appearance.
func (r *Resolver) Colors() []string {
	return r.colors
}

// colorOf returns the variant's value on the color axis, if it has one.
func colorOf(v domain.Variant) (string, bool) {
	for _, opt := range v.SelectedOptions {
		if IsColorAxis(opt.Name) {
			return opt.Value, true
		}
	}
	return "", false
}

func matchesColor(v domain.Variant, color string) bool {
	value, ok := colorOf(v)
	return ok && value == color
}

// matchesAxis reports whether the variant carries the given value on the
// named axis. Variants lacking the axis never match.
func matchesAxis(v domain.Variant, name, value string) bool {
	got, ok := v.OptionValue(name)
	return ok && got == value
}

// Resolve returns the unique variant whose option set equals the given
// selections plus the color selection. It returns nil when any axis is
// unselected (no partial matches) or when no variant carries the full
// combination, which is a legitimate invalid-combination outcome.
func (r *Resolver) Resolve(selections map[string]string, color string) *domain.Variant {
	if len(r.colors) > 0 && color == "" {
		return nil
	}
	for _, opt := range r.options {
		if selections[opt.Name] == "" {
			return nil
		}
	}
	// Selections on axes the product does not have cannot be satisfied.
	for name := range selections {
		if !r.hasAxis(name) {
			return nil
		}
	}

	for i := range r.variants {
		v := r.variants[i]
		if len(r.colors) > 0 && !matchesColor(v, color) {
			continue
		}
		matched := true
		for _, opt := range r.options {
			if !matchesAxis(v, opt.Name, selections[opt.Name]) {
				matched = false
				break
			}
		}
		if matched {
			return &v
		}
	}
	return nil
}

func (r *Resolver) hasAxis(name string) bool {
	for _, opt := range r.options {
		if opt.Name == name {
			return true
		}
	}
	return false
}

// candidates returns variants that carry {name:value} and remain consistent
// with every other already-selected axis and the selected color.
func (r *Resolver) candidates(name, value string, selections map[string]string, color string) []domain.Variant {
	var out []domain.Variant
	for _, v := range r.variants {
		if !matchesAxis(v, name, value) {
			continue
		}
		consistent := true
		for _, opt := range r.options {
			if opt.Name == name {
				continue
			}
			selected := selections[opt.Name]
			if selected == "" {
				continue
			}
			if !matchesAxis(v, opt.Name, selected) {
				consistent = false
				break
			}
		}
		if !consistent {
			continue
		}
		if !IsColorAxis(name) && len(r.colors) > 0 {
			if color == "" || !matchesColor(v, color) {
				continue
			}
		}
		out = append(out, v)
	}
	return out
}

func anyInStock(variants []domain.Variant) bool {
	for _, v := range variants {
		if v.InStock() {
			return true
		}
	}
	return false
}

// ValueSelectable reports whether choosing value on the named axis can still
// lead to a sellable variant: at least one candidate exists and not all
// candidates are out of stock.
func (r *Resolver) ValueSelectable(name, value string, selections map[string]string, color string) bool {
	return anyInStock(r.candidates(name, value, selections, color))
}

// ColorSelectable is ValueSelectable specialized to the color axis: the
// candidate set is constrained by the other selected axes only.
func (r *Resolver) ColorSelectable(color string, selections map[string]string) bool {
	var candidates []domain.Variant
	for _, v := range r.variants {
		if !matchesColor(v, color) {
			continue
		}
		consistent := true
		for _, opt := range r.options {
			selected := selections[opt.Name]
			if selected == "" {
				continue
			}
			if !matchesAxis(v, opt.Name, selected) {
				consistent = false
				break
			}
		}
		if consistent {
			candidates = append(candidates, v)
		}
	}
	return anyInStock(candidates)
}

// DefaultSelection picks the initial state: the first color with at least
// one in-stock variant (first color overall when none has stock) and the
// first value of every other axis.
func (r *Resolver) DefaultSelection() (map[string]string, string) {
	selections := map[string]string{}
	for _, opt := range r.options {
		if len(opt.Values) > 0 {
			selections[opt.Name] = opt.Values[0]
		}
	}

	color := ""
	for _, c := range r.colors {
		for _, v := range r.variants {
			if matchesColor(v, c) && v.InStock() {
				color = c
				break
			}
		}
		if color != "" {
			break
		}
	}
	if color == "" && len(r.colors) > 0 {
		color = r.colors[0]
	}
	return selections, color
}

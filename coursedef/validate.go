package coursedef

import "fmt"

// validateTree runs the whole-tree rules after construction: module
// key uniqueness, learning-object key uniqueness across the entire
// tree, and category existence. Category collection recurses to
// arbitrary depth, so a grandchild referencing an undeclared category
// is caught.
func (d *decoder) validateTree(c *Course) {
	moduleKeys := make(map[string]bool, len(c.Modules))
	for i, m := range c.Modules {
		if m.Key == "" {
			continue
		}
		if moduleKeys[m.Key] {
			d.addError(fmt.Sprintf("modules[%d].key", i), ErrCodeDuplicate,
				"duplicate module key: %s", m.Key)
		}
		moduleKeys[m.Key] = true
	}

	itemKeys := make(map[string]bool)
	c.Walk(func(item *Item) {
		if item.Key == "" {
			return
		}
		if itemKeys[item.Key] {
			d.addError("modules", ErrCodeDuplicate,
				"duplicate learning object (chapter, exercise) key: %s", item.Key)
		}
		itemKeys[item.Key] = true
	})

	c.Walk(func(item *Item) {
		if item.Category == "" {
			return
		}
		if _, ok := c.Categories[item.Category]; !ok {
			d.addError("categories", ErrCodeReference,
				"category not found in categories: %s", item.Category)
		}
	})
}

// validateDates records the non-fatal scheduling violations: a module
// closing after the course ends, and a late_close before the module's
// effective close date.
func validateDates(c *Course) {
	for _, m := range c.Modules {
		if m.Close != nil && c.End != nil && m.Close.After(*c.End) {
			c.Warnings = append(c.Warnings,
				fmt.Sprintf("module %q: course ends before module closes", m.Key))
		}

		if m.LateClose != nil {
			close := m.Close
			if close == nil {
				close = c.End
			}
			if close != nil && m.LateClose.Before(*close) {
				c.Warnings = append(c.Warnings,
					fmt.Sprintf("module %q: 'late_close' is before 'close'", m.Key))
			}
		}
	}
}

package menu

// Printer renders a menu. Print is called for every visible item, including
// a submenu right before EnterMenu opens it.
type Printer interface {
	Print(item *Item)
	EnterMenu(item *Item)
	LeaveMenu(item *Item)
}

// Print walks the menu tree depth first from the top level menu. Menus
// without children are skipped along with their directory item, and hidden
// submenus are skipped with everything below them.
func (ix *Index) Print(p Printer) {
	root, ok := ix.menus[""]
	if !ok {
		return
	}
	ix.printMenu(root, p, map[int]bool{})
}

// printMenu tracks the open menus in open so a category loop ends.
func (ix *Index) printMenu(m *Menu, p Printer, open map[int]bool) {
	if len(m.Children) == 0 {
		return
	}
	open[m.Item] = true
	defer delete(open, m.Item)

	dir := &ix.items[m.Item]
	p.EnterMenu(dir)
	for _, idx := range m.Children {
		child := &ix.items[idx]
		if child.Detail != Directory {
			if !child.Hidden {
				p.Print(child)
			}
			continue
		}

		sub, ok := ix.menus[child.Basename]
		if !ok || len(sub.Children) == 0 || child.Hidden || open[sub.Item] {
			continue
		}
		p.Print(child)
		ix.printMenu(sub, p, open)
	}
	p.LeaveMenu(dir)
}

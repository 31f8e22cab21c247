package desktop

import (
	"strings"

	"github.com/wailsapp/wails/v2/pkg/menu"
	"github.com/wailsapp/wails/v2/pkg/menu/keys"

	"github.com/tokenring-ai/coder-desktop/internal/appmenu"
)

// BuildMenu converts the menu description to a Wails menu. onClick receives
// every clicked item.
func BuildMenu(items []appmenu.Item, onClick func(appmenu.Item)) *menu.Menu {
	root := menu.NewMenu()
	for _, it := range items {
		switch it.Role {
		case appmenu.RoleApp:
			root.Append(menu.AppMenu())
			continue
		case appmenu.RoleEdit:
			root.Append(menu.EditMenu())
			continue
		}
		addItems(root.AddSubmenu(it.Label), it.Submenu, onClick)
	}
	return root
}

func addItems(m *menu.Menu, items []appmenu.Item, onClick func(appmenu.Item)) {
	for _, it := range items {
		switch {
		case it.Separator:
			m.AddSeparator()
		case len(it.Submenu) > 0:
			addItems(m.AddSubmenu(it.Label), it.Submenu, onClick)
		default:
			item := it
			m.AddText(item.Label, accelerator(item.Accelerator), func(*menu.CallbackData) {
				onClick(item)
			})
		}
	}
}

// accelerator parses "n", "shift+r" or "f11". Letter keys get CmdOrCtrl;
// function keys stand alone.
func accelerator(combo string) *keys.Accelerator {
	if combo == "" {
		return nil
	}
	parts := strings.Split(strings.ToLower(combo), "+")
	key := parts[len(parts)-1]
	if isFunctionKey(key) && len(parts) == 1 {
		return keys.Key(key)
	}
	mods := []keys.Modifier{keys.CmdOrCtrlKey}
	for _, p := range parts[:len(parts)-1] {
		switch p {
		case "shift":
			mods = append(mods, keys.ShiftKey)
		case "alt", "option":
			mods = append(mods, keys.OptionOrAltKey)
		}
	}
	return &keys.Accelerator{Key: key, Modifiers: mods}
}

func isFunctionKey(key string) bool {
	if len(key) < 2 || key[0] != 'f' {
		return false
	}
	for _, c := range key[1:] {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// Package appmenu describes the application menu independently of the
// windowing toolkit. The desktop package turns it into native menus.
package appmenu

// Action names what a menu item does when clicked.
type Action string

const (
	ActionNone             Action = ""
	ActionNewChat          Action = "new-chat"
	ActionAbout            Action = "about"
	ActionQuit             Action = "quit"
	ActionReload           Action = "reload"
	ActionForceReload      Action = "force-reload"
	ActionToggleDevTools   Action = "toggle-devtools"
	ActionResetZoom        Action = "reset-zoom"
	ActionZoomIn           Action = "zoom-in"
	ActionZoomOut          Action = "zoom-out"
	ActionToggleFullscreen Action = "toggle-fullscreen"
	ActionMinimise         Action = "minimise"
	ActionCloseWindow      Action = "close-window"
	ActionOpenURL          Action = "open-url"
)

// Role marks submenus the toolkit provides natively.
type Role string

const (
	RoleNone Role = ""
	RoleApp  Role = "app"
	RoleEdit Role = "edit"
)

// Item is a menu entry, a separator or a submenu.
type Item struct {
	Label string
	// Accelerator is a CmdOrCtrl key such as "n"; "shift+r" adds shift.
	Accelerator string
	Action      Action
	URL         string
	Role        Role
	Separator   bool
	Submenu     []Item
}

// Links are the Help menu targets.
type Links struct {
	Documentation string
	Issues        string
}

var separator = Item{Separator: true}

// Build returns the menu for goos. Dev adds the developer tools toggle.
func Build(goos, appName string, dev bool, links Links) []Item {
	var menu []Item
	if goos == "darwin" {
		menu = append(menu, Item{Label: appName, Role: RoleApp})
	}

	menu = append(menu,
		Item{Label: "File", Submenu: []Item{
			{Label: "New Chat", Accelerator: "n", Action: ActionNewChat},
			separator,
			{Label: "Quit", Accelerator: "q", Action: ActionQuit},
		}},
		Item{Label: "Edit", Role: RoleEdit},
		Item{Label: "View", Submenu: viewMenu(dev)},
		Item{Label: "Window", Submenu: []Item{
			{Label: "Minimize", Accelerator: "m", Action: ActionMinimise},
			{Label: "Close", Accelerator: "w", Action: ActionCloseWindow},
		}},
		Item{Label: "Help", Submenu: helpMenu(appName, links)},
	)
	return menu
}

func viewMenu(dev bool) []Item {
	items := []Item{
		{Label: "Reload", Accelerator: "r", Action: ActionReload},
		{Label: "Force Reload", Accelerator: "shift+r", Action: ActionForceReload},
	}
	if dev {
		items = append(items, Item{Label: "Toggle Developer Tools", Accelerator: "alt+i", Action: ActionToggleDevTools})
	}
	return append(items,
		separator,
		Item{Label: "Actual Size", Accelerator: "0", Action: ActionResetZoom},
		Item{Label: "Zoom In", Accelerator: "=", Action: ActionZoomIn},
		Item{Label: "Zoom Out", Accelerator: "-", Action: ActionZoomOut},
		separator,
		Item{Label: "Toggle Full Screen", Accelerator: "f11", Action: ActionToggleFullscreen},
	)
}

func helpMenu(appName string, links Links) []Item {
	items := []Item{{Label: "About " + appName, Action: ActionAbout}}
	if links.Documentation != "" || links.Issues != "" {
		items = append(items, separator)
	}
	if links.Documentation != "" {
		items = append(items, Item{Label: "Documentation", Action: ActionOpenURL, URL: links.Documentation})
	}
	if links.Issues != "" {
		items = append(items, Item{Label: "Report Issue", Action: ActionOpenURL, URL: links.Issues})
	}
	return items
}

// Walk calls fn for every item, depth first.
func Walk(items []Item, fn func(Item)) {
	for _, it := range items {
		fn(it)
		Walk(it.Submenu, fn)
	}
}

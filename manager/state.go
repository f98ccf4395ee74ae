package manager

import (
	"lavinder/config"
	"lavinder/log"
)

// Capture records the groups and screen assignment for a restart. It must
// run on the loop goroutine or after Run returned.
func (m *Manager) Capture() *config.State {
	st := config.NewState()
	for _, g := range m.groups {
		st.Groups = append(st.Groups, config.GroupState{
			Name:   g.name,
			Layout: g.Layout().Name(),
			Label:  g.label,
		})
	}
	for _, s := range m.screens {
		st.Screens[s.index] = s.group.name
	}
	st.CurrentScreen = m.currentScreen
	return st
}

// Apply restores a captured state: missing groups are created, layouts and
// labels are restored and screens show their former groups. Entries that no
// longer fit, such as screens that went away, are skipped.
func (m *Manager) Apply(st *config.State) {
	for _, gs := range st.Groups {
		g := m.groupByName(gs.Name)
		if g == nil {
			var err error
			if g, err = m.addGroup(config.GroupConfig{Name: gs.Name}); err != nil {
				log.ErrorLog.Printf("restore group %q: %v", gs.Name, err)
				continue
			}
		}
		if gs.Label != "" {
			g.label = gs.Label
		}
		for i, l := range g.layouts {
			if l.Name() == gs.Layout {
				g.setLayout(i)
				break
			}
		}
	}
	for i, name := range st.Screens {
		if i < 0 || i >= len(m.screens) {
			continue
		}
		if g := m.groupByName(name); g != nil {
			m.screens[i].setGroup(g)
		}
	}
	if st.CurrentScreen >= 0 && st.CurrentScreen < len(m.screens) {
		m.focusScreen(st.CurrentScreen)
	}
}

package http

import (
	"net/http"

	"dineadmin/internal/log"
)

func (s *Server) handleMenu(w http.ResponseWriter, r *http.Request) {
	items, err := s.admin.Menu(r.Context())
	if err != nil {
		writeError(w, r, log.OpList, err)
		return
	}
	out := make([]menuItemView, len(items))
	for i, m := range items {
		out[i] = menuItemOf(m)
	}
	writeJSON(w, map[string]any{"items": out})
}

// handleSaveMenuItem creates an item when the body has no id and updates it
// otherwise.
func (s *Server) handleSaveMenuItem(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	item, err := parseMenuItem(p)
	if err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}

	status := http.StatusOK
	if item.ID == "" {
		status = http.StatusCreated
	}
	saved, err := s.admin.SaveMenuItem(r.Context(), item)
	if err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	NewJSONResponse().Status(status).JSON(menuItemOf(saved)).Write(w)
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	set, err := s.admin.Settings(r.Context())
	if err != nil {
		writeError(w, r, log.OpRead, err)
		return
	}
	writeJSON(w, settingsOf(set))
}

func (s *Server) handleSaveSettings(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	current, err := s.admin.Settings(r.Context())
	if err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	set, err := parseSettings(p, current)
	if err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	saved, err := s.admin.SaveSettings(r.Context(), set)
	if err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	writeJSON(w, settingsOf(saved))
}

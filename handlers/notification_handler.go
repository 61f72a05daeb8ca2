package handlers

import (
	"net/http"

	"github.com/ferreirogomes/tijolo/models"
	"github.com/ferreirogomes/tijolo/notifications"
)

// NotificationHandler expõe o log de notificações para indexadores externos.
type NotificationHandler struct {
	Log      *notifications.Log
	PageSize int
}

func NewNotificationHandler(log *notifications.Log, pageSize int) *NotificationHandler {
	if pageSize <= 0 {
		pageSize = 100
	}
	return &NotificationHandler{Log: log, PageSize: pageSize}
}

type notificationPage struct {
	Notifications []models.Notification `json:"notifications"`
	Next          uint64                `json:"next"`
	Head          uint64                `json:"head"`
}

// ListNotifications pagina o log a partir de um cursor.
// GET /notifications?since=N&limit=M
func (h *NotificationHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	since, err := queryUint(r, "since", 0)
	if err != nil {
		writeErrorCode(w, http.StatusBadRequest, "invalid_cursor", err.Error())
		return
	}
	limit, err := queryUint(r, "limit", uint64(h.PageSize))
	if err != nil || limit == 0 {
		writeErrorCode(w, http.StatusBadRequest, "invalid_limit", "limit deve ser um inteiro positivo")
		return
	}
	if limit > uint64(h.PageSize) {
		limit = uint64(h.PageSize)
	}

	page := h.Log.Since(since, int(limit))
	next := since
	if len(page) > 0 {
		next = page[len(page)-1].Seq
	}
	if page == nil {
		page = []models.Notification{}
	}
	writeJSON(w, http.StatusOK, notificationPage{Notifications: page, Next: next, Head: h.Log.Head()})
}

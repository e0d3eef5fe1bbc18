package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"chorus/internal/moderation"
	"chorus/internal/reputation"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"
)

// ReviewHandler is the operator surface: pending audits, review resolution,
// and explicit bans (ban is never automatic, whatever the score).
type ReviewHandler struct {
	DB     *gorm.DB
	Ledger *reputation.Ledger
}

type auditDTO struct {
	ID          uint64    `json:"id"`
	AuthorID    uint64    `json:"author_id"`
	ContentType string    `json:"content_type"`
	Content     string    `json:"content"`
	Category    string    `json:"category"`
	Confidence  float64   `json:"confidence"`
	Reason      string    `json:"reason"`
	Tier        string    `json:"tier"`
	CreatedAt   time.Time `json:"created_at"`
}

func (h *ReviewHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	var rows []moderation.Audit
	if err := h.DB.Where("reviewed = false").
		Order("created_at asc").
		Limit(100).
		Find(&rows).Error; err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	out := make([]auditDTO, 0, len(rows))
	for _, a := range rows {
		out = append(out, auditDTO{
			ID:          a.ID,
			AuthorID:    a.AuthorID,
			ContentType: a.ContentType,
			Content:     a.Content,
			Category:    a.Category,
			Confidence:  a.Confidence,
			Reason:      a.Reason,
			Tier:        a.Tier,
			CreatedAt:   a.CreatedAt,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

func (h *ReviewHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	res := h.DB.Model(&moderation.Audit{}).
		Where("id = ?", id).
		Update("reviewed", true)
	if res.Error != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	if res.RowsAffected == 0 {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type banReq struct {
	Banned bool `json:"banned"`
}

func (h *ReviewHandler) SetBanned(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req banReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	if err := h.Ledger.SetBanned(r.Context(), userID, req.Banned); err != nil {
		if errors.Is(err, reputation.ErrUserNotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// History exposes a user's ledger for audit; the score must always replay
// from it.
func (h *ReviewHandler) History(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	entries, err := h.Ledger.History(r.Context(), userID)
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(entries)
}

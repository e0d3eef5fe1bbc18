package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"chorus/internal/auth"
	"chorus/internal/post"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"
)

type PostHandler struct {
	Svc *post.Service
	DB  *gorm.DB
}

type createPostReq struct {
	Body     string  `json:"body"`
	MediaURL *string `json:"media_url"`
	Mode     string  `json:"mode"`
	GroupID  *uint64 `json:"group_id"`
}

func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	var req createPostReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	req.Body = strings.TrimSpace(req.Body)
	if req.Body == "" {
		http.Error(w, "body required", http.StatusBadRequest)
		return
	}
	switch req.Mode {
	case "", post.ModeOpen, post.ModeGroup, post.ModeHuman:
	default:
		http.Error(w, "invalid mode", http.StatusBadRequest)
		return
	}
	if req.Mode == post.ModeGroup && req.GroupID == nil {
		http.Error(w, "group_id required for group posts", http.StatusBadRequest)
		return
	}

	id, err := h.Svc.CreatePost(r.Context(), uid, post.CreatePostInput{
		Body:     req.Body,
		MediaURL: req.MediaURL,
		Mode:     req.Mode,
		GroupID:  req.GroupID,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]any{"id": id})
}

type createCommentReq struct {
	Body string `json:"body"`
}

func (h *PostHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	postID, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req createCommentReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	req.Body = strings.TrimSpace(req.Body)
	if req.Body == "" {
		http.Error(w, "body required", http.StatusBadRequest)
		return
	}

	id, err := h.Svc.CreateComment(r.Context(), uid, post.CreateCommentInput{
		PostID: postID,
		Body:   req.Body,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]any{"id": id})
}

type reactReq struct {
	Emoji string `json:"emoji"`
}

func (h *PostHandler) React(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	postID, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req reactReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Emoji) == "" {
		http.Error(w, "emoji required", http.StatusBadRequest)
		return
	}

	if err := h.Svc.React(r.Context(), uid, postID, req.Emoji); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type postDTO struct {
	ID            uint64    `json:"id"`
	AuthorID      uint64    `json:"author_id"`
	GroupID       *uint64   `json:"group_id,omitempty"`
	Body          string    `json:"body"`
	MediaURL      *string   `json:"media_url,omitempty"`
	Mode          string    `json:"mode"`
	Tags          []string  `json:"tags"`
	CommentCount  int       `json:"comment_count"`
	ReactionCount int       `json:"reaction_count"`
	CreatedAt     time.Time `json:"created_at"`
}

func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	q := h.DB.Model(&post.Post{}).Where("mode != ?", post.ModeGroup)

	if g := strings.TrimSpace(r.URL.Query().Get("group_id")); g != "" {
		gid, err := strconv.ParseUint(g, 10, 64)
		if err != nil {
			http.Error(w, "invalid group_id", http.StatusBadRequest)
			return
		}
		q = h.DB.Model(&post.Post{}).Where("group_id = ?", gid)
	}

	if tag := strings.TrimSpace(strings.ToLower(r.URL.Query().Get("tag"))); tag != "" {
		q = q.Where("? = any(tags)", tag)
	}

	var rows []post.Post
	if err := q.Order("created_at desc").Limit(50).Find(&rows).Error; err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	out := make([]postDTO, 0, len(rows))
	for _, p := range rows {
		out = append(out, postDTO{
			ID:            p.ID,
			AuthorID:      p.AuthorID,
			GroupID:       p.GroupID,
			Body:          p.Body,
			MediaURL:      p.MediaURL,
			Mode:          p.Mode,
			Tags:          []string(p.Tags),
			CommentCount:  p.CommentCount,
			ReactionCount: p.ReactionCount,
			CreatedAt:     p.CreatedAt,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

type commentDTO struct {
	ID        uint64    `json:"id"`
	PostID    uint64    `json:"post_id"`
	AuthorID  uint64    `json:"author_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

func (h *PostHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	postID, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var rows []post.Comment
	if err := h.DB.Where("post_id = ?", postID).
		Order("created_at asc").
		Limit(200).
		Find(&rows).Error; err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	out := make([]commentDTO, 0, len(rows))
	for _, c := range rows {
		out = append(out, commentDTO{
			ID:        c.ID,
			PostID:    c.PostID,
			AuthorID:  c.AuthorID,
			Body:      c.Body,
			CreatedAt: c.CreatedAt,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

// writeServiceError maps service outcomes: business rejections come back as
// a structured 422 with the reason, suggestion, and resulting score, never a
// bare "rejected".
func writeServiceError(w http.ResponseWriter, err error) {
	var rej *post.RejectedError
	switch {
	case errors.As(err, &rej):
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"rejected":         true,
			"reason":           rej.Reason,
			"suggestion":       rej.Suggestion,
			"reputation_score": rej.ResultingScore,
		})
	case errors.Is(err, post.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, post.ErrBanned):
		http.Error(w, "account banned", http.StatusForbidden)
	default:
		http.Error(w, "server error", http.StatusInternalServerError)
	}
}
